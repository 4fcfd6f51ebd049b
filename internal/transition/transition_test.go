package transition

import (
	"math"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"none", None, false},
		{"", None, false},
		{"fade", Fade, false},
		{"slide_left", SlideLeft, false},
		{"SLIDE_UP", SlideUp, false},
		{" zoom_in ", ZoomIn, false},
		{"zoom_out", ZoomOut, false},
		{"wobble", Fade, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestXfadeName(t *testing.T) {
	if SlideLeft.XfadeName() != "slideleft" {
		t.Errorf("slide_left → %s", SlideLeft.XfadeName())
	}
	// ffmpeg has no outward zoom, both map to zoomin
	if ZoomIn.XfadeName() != "zoomin" || ZoomOut.XfadeName() != "zoomin" {
		t.Errorf("zoom mapping broken: %s / %s", ZoomIn.XfadeName(), ZoomOut.XfadeName())
	}
}

func TestClamp(t *testing.T) {
	spec := Spec{Type: Fade, Duration: 2.0}

	// Shortest clip is 1.5s → transition clamped to 0.75s
	clamped, changed := spec.Clamp([]float64{5, 1.5, 8})
	if !changed {
		t.Fatal("expected clamping")
	}
	if math.Abs(clamped.Duration-0.75) > 1e-9 {
		t.Errorf("expected 0.75, got %g", clamped.Duration)
	}

	// Fits fine → untouched
	ok, changed := spec.Clamp([]float64{5, 6})
	if changed || ok.Duration != 2.0 {
		t.Errorf("unexpected clamp: %+v %v", ok, changed)
	}

	// None is never clamped
	none := Spec{Type: None, Duration: 99}
	if _, changed := none.Clamp([]float64{1}); changed {
		t.Error("none transition must not clamp")
	}
}

func TestBuildChain(t *testing.T) {
	spec := Spec{Type: Fade, Duration: 0.5}
	durations := []float64{4, 3, 5}

	graph, lastOut, total := spec.BuildChain(durations)

	if lastOut != "[v2]" {
		t.Errorf("expected final label [v2], got %s", lastOut)
	}
	// 12s of clips minus two 0.5s overlaps
	if math.Abs(total-11.0) > 1e-9 {
		t.Errorf("expected total 11, got %g", total)
	}

	if strings.Count(graph, "xfade") != 2 {
		t.Errorf("expected 2 xfade stages:\n%s", graph)
	}
	if !strings.Contains(graph, "transition=fade") {
		t.Errorf("transition name missing:\n%s", graph)
	}
	// First offset: 4 - 0.5; second: 3.5 + 3 - 0.5
	if !strings.Contains(graph, "offset=3.500000") {
		t.Errorf("first offset wrong:\n%s", graph)
	}
	if !strings.Contains(graph, "offset=6.000000") {
		t.Errorf("second offset wrong:\n%s", graph)
	}
	if strings.HasSuffix(graph, ";") {
		t.Error("graph must not end with a semicolon")
	}
}

func TestBuildChainSingleClip(t *testing.T) {
	spec := Spec{Type: Fade, Duration: 0.5}
	graph, lastOut, total := spec.BuildChain([]float64{7})

	if graph != "" {
		t.Errorf("single clip needs no graph: %s", graph)
	}
	if lastOut != "[0:v]" || total != 7 {
		t.Errorf("unexpected passthrough: %s %g", lastOut, total)
	}
}

func TestBuildChainNone(t *testing.T) {
	spec := Spec{Type: None}
	graph, _, total := spec.BuildChain([]float64{2, 3})

	if graph != "" {
		t.Errorf("none transition needs no graph: %s", graph)
	}
	if total != 5 {
		t.Errorf("expected plain sum 5, got %g", total)
	}
}

func TestBoundaryGraphs(t *testing.T) {
	spec := Spec{Type: SlideLeft, Duration: 1.0}

	in := spec.BoundaryIn("vseq", "vin", 1080, 1920, 30)
	if !strings.Contains(in, "color=black:size=1080x1920:rate=30") {
		t.Errorf("black source missing:\n%s", in)
	}
	if !strings.Contains(in, "transition=slideleft") || !strings.Contains(in, "offset=0") {
		t.Errorf("start boundary wrong:\n%s", in)
	}

	out := spec.BoundaryOut("vin", "vout", 1080, 1920, 30, 12.0)
	if !strings.Contains(out, "offset=11.000000") {
		t.Errorf("end boundary offset wrong:\n%s", out)
	}

	// Too short a sequence skips the end effect entirely
	if got := spec.BoundaryOut("a", "b", 10, 10, 30, 0.5); got != "" {
		t.Errorf("expected empty graph for short sequence, got %s", got)
	}

	none := Spec{Type: None, Duration: 1}
	if none.BoundaryIn("a", "b", 10, 10, 30) != "" {
		t.Error("none must produce no boundary graph")
	}
}
