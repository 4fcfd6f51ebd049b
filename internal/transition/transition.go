// Package transition maps the CLI transition names onto ffmpeg xfade
// filter graphs, both between adjacent clips and at the boundaries of
// the finished sequence.
package transition

import (
	"fmt"
	"strings"
)

type Type string

const (
	None       Type = "none"
	Fade       Type = "fade"
	SlideLeft  Type = "slide_left"
	SlideRight Type = "slide_right"
	SlideUp    Type = "slide_up"
	SlideDown  Type = "slide_down"
	ZoomIn     Type = "zoom_in"
	ZoomOut    Type = "zoom_out"
)

// xfade has no outward zoom, zoom_out reuses zoomin
var xfadeNames = map[Type]string{
	Fade:       "fade",
	SlideLeft:  "slideleft",
	SlideRight: "slideright",
	SlideUp:    "slideup",
	SlideDown:  "slidedown",
	ZoomIn:     "zoomin",
	ZoomOut:    "zoomin",
}

// Parse resolves a CLI transition name. Unknown names return Fade and
// an error so the caller can warn and continue.
func Parse(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if t == "" || t == None {
		return None, nil
	}
	if _, ok := xfadeNames[t]; ok {
		return t, nil
	}
	return Fade, fmt.Errorf("неизвестный переход %q, используется fade", s)
}

// XfadeName returns the ffmpeg transition identifier.
func (t Type) XfadeName() string {
	if name, ok := xfadeNames[t]; ok {
		return name
	}
	return "fade"
}

// Spec is a transition with its duration in seconds.
type Spec struct {
	Type     Type
	Duration float64
}

// Clamp enforces the invariant that a transition may not outlast the
// shorter of the adjacent clips: too long a duration is cut to half
// the shortest clip. Returns the corrected spec and whether clamping
// happened.
func (s Spec) Clamp(clipDurations []float64) (Spec, bool) {
	if s.Type == None || len(clipDurations) == 0 {
		return s, false
	}

	minDur := clipDurations[0]
	for _, d := range clipDurations {
		if d < minDur {
			minDur = d
		}
	}

	if s.Duration >= minDur {
		s.Duration = minDur / 2.0
		return s, true
	}
	return s, false
}

// BuildChain produces the xfade filter graph joining n clips with the
// given per-clip durations. Each transition eats its duration from the
// timeline, so offsets accumulate as duration minus overlap.
//
// Returns the graph, the label of the final video stream and the total
// duration of the joined sequence.
func (s Spec) BuildChain(durations []float64) (graph string, lastOut string, total float64) {
	n := len(durations)
	lastOut = "[0:v]"
	total = 0
	for _, d := range durations {
		total += d
	}
	if n < 2 || s.Type == None {
		return "", lastOut, total
	}

	var b strings.Builder
	currentOffset := 0.0
	for i := 1; i < n; i++ {
		currentOffset += durations[i-1] - s.Duration

		nextIn := fmt.Sprintf("[%d:v]", i)
		outName := fmt.Sprintf("[v%d]", i)
		fmt.Fprintf(&b, "%s%sxfade=transition=%s:duration=%f:offset=%f%s;",
			lastOut, nextIn, s.Type.XfadeName(), s.Duration, currentOffset, outName)
		lastOut = outName
	}

	total -= float64(n-1) * s.Duration
	return strings.TrimSuffix(b.String(), ";"), lastOut, total
}

// BoundaryIn builds the graph fragment fading the sequence in from
// black: an xfade from a generated black clip at offset zero.
// in/out are stream labels without brackets.
func (s Spec) BoundaryIn(in, out string, w, h, fps int) string {
	if s.Type == None || s.Duration <= 0 {
		return ""
	}
	return fmt.Sprintf(
		"color=black:size=%dx%d:rate=%d:duration=%f[blkin];[blkin][%s]xfade=transition=%s:duration=%f:offset=0[%s]",
		w, h, fps, s.Duration, in, s.Type.XfadeName(), s.Duration, out)
}

// BoundaryOut fades the sequence out into black at its end. total is
// the duration of the incoming stream.
func (s Spec) BoundaryOut(in, out string, w, h, fps int, total float64) string {
	if s.Type == None || s.Duration <= 0 || total <= s.Duration {
		return ""
	}
	return fmt.Sprintf(
		"color=black:size=%dx%d:rate=%d:duration=%f[blkout];[%s][blkout]xfade=transition=%s:duration=%f:offset=%f[%s]",
		w, h, fps, s.Duration, in, s.Type.XfadeName(), s.Duration, total-s.Duration, out)
}
