// Package script turns a narration text file into subtitle phrases and
// their timing on the output timeline.
package script

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the longest subtitle phrase shown at once.
const DefaultMaxChars = 50

var junkRe = regexp.MustCompile(`[\\@$%^&*()\[\]{};:"/<>#]`)

// Clean flattens newlines and strips characters that break TTS and
// subtitle rendering.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(junkRe.ReplaceAllString(text, ""))
}

// Split breaks text into subtitle phrases. Boundaries are sentence
// punctuation (. ! ?) and commas followed by a word of 3+ letters;
// fragments are then packed into chunks of at most maxChars.
//
// Go's regexp has no lookbehind, so boundaries are detected word by
// word instead of with the usual split pattern.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	words := strings.Fields(text)
	var fragments []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			fragments = append(fragments, strings.Join(current, " "))
			current = nil
		}
	}

	for i, w := range words {
		current = append(current, w)
		if isBoundary(w, next(words, i)) {
			flush()
		}
	}
	flush()

	// Pack fragments into chunks of at most maxChars. Fragments with
	// no boundaries at all are hard-wrapped first, otherwise a single
	// run-on sentence would exceed the TTS request limit.
	var chunks []string
	currentChunk := ""
	for _, frag := range fragments {
		clean := strings.TrimSpace(junkRe.ReplaceAllString(frag, ""))
		if clean == "" {
			continue
		}

		for _, piece := range hardWrap(clean, maxChars) {
			if currentChunk != "" && len(currentChunk)+len(piece)+1 <= maxChars {
				currentChunk += " " + piece
			} else {
				if currentChunk != "" {
					chunks = append(chunks, currentChunk)
				}
				currentChunk = piece
			}
		}
	}
	if currentChunk != "" {
		chunks = append(chunks, currentChunk)
	}

	return chunks
}

// hardWrap breaks text into pieces of at most maxChars bytes on word
// boundaries. A single word longer than the limit is cut between runes.
func hardWrap(s string, maxChars int) []string {
	if len(s) <= maxChars {
		return []string{s}
	}

	var out []string
	line := ""
	for _, w := range strings.Fields(s) {
		for len(w) > maxChars {
			if line != "" {
				out = append(out, line)
				line = ""
			}
			head, tail := cutWord(w, maxChars)
			out = append(out, head)
			w = tail
		}
		switch {
		case line == "":
			line = w
		case len(line)+len(w)+1 <= maxChars:
			line += " " + w
		default:
			out = append(out, line)
			line = w
		}
	}
	if line != "" {
		out = append(out, line)
	}
	return out
}

// cutWord splits a word at the last rune boundary within maxBytes.
func cutWord(w string, maxBytes int) (string, string) {
	cut := 0
	for i, r := range w {
		next := i + utf8.RuneLen(r)
		if next > maxBytes {
			break
		}
		cut = next
	}
	if cut == 0 {
		// maxBytes smaller than the first rune, take it anyway
		_, cut = utf8.DecodeRuneInString(w)
	}
	return w[:cut], w[cut:]
}

func next(words []string, i int) string {
	if i+1 < len(words) {
		return words[i+1]
	}
	return ""
}

// isBoundary reports whether a phrase may end after word w.
func isBoundary(w, nextWord string) bool {
	if w == "" {
		return false
	}
	last := w[len(w)-1]
	switch last {
	case '.', '!', '?':
		return true
	case ',':
		// ".," always splits, a bare comma only before a real word
		if len(w) >= 2 && w[len(w)-2] == '.' {
			return true
		}
		return wordLetters(nextWord) >= 3
	}
	return false
}

func wordLetters(w string) int {
	n := 0
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			n++
		}
	}
	return n
}

// Segment is one subtitle phrase placed on the timeline.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// ScaleDurations adjusts per-phrase durations for narration speed:
// 0.5x speed doubles every duration.
func ScaleDurations(durations []float64, speed float64) []float64 {
	if speed == 1.0 || speed <= 0 {
		return durations
	}
	out := make([]float64, len(durations))
	for i, d := range durations {
		out[i] = d / speed
	}
	return out
}

// NormalizeDurations rescales durations so their sum matches the real
// narration audio length when the drift exceeds one second.
func NormalizeDurations(durations []float64, audioDuration float64) []float64 {
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	if sum <= 0 || math.Abs(sum-audioDuration) <= 1.0 {
		return durations
	}

	ratio := audioDuration / sum
	out := make([]float64, len(durations))
	for i, d := range durations {
		out[i] = d * ratio
	}
	return out
}

// BuildTimeline lays phrases out back to back starting at zero.
func BuildTimeline(phrases []string, durations []float64) []Segment {
	segments := make([]Segment, 0, len(phrases))
	current := 0.0
	for i, p := range phrases {
		d := 0.0
		if i < len(durations) {
			d = durations[i]
		}
		segments = append(segments, Segment{Text: p, Start: current, End: current + d})
		current += d
	}
	return segments
}
