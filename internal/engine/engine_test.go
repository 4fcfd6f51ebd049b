package engine

import (
	"testing"

	"github.com/hukasx0/short-maker/internal/config"
	"github.com/hukasx0/short-maker/internal/source"
	"github.com/hukasx0/short-maker/internal/transition"
)

func TestResolveTransitions(t *testing.T) {
	old := hasFilter
	defer func() { hasFilter = old }()
	hasFilter = func(string) bool { return true }

	p := &Pipeline{Config: &config.Config{
		TransitionType:     "fade",
		TransitionDuration: 0.5,
		StartTransition:    "slide_up",
	}}

	spec := p.resolveTransitions()
	if spec.Type != transition.Fade || spec.Duration != 0.5 {
		t.Errorf("unexpected spec: %+v", spec)
	}
	if p.Config.StartTransition != "slide_up" {
		t.Errorf("boundary transition must survive: %q", p.Config.StartTransition)
	}
}

func TestResolveTransitionsWithoutXfade(t *testing.T) {
	old := hasFilter
	defer func() { hasFilter = old }()
	hasFilter = func(string) bool { return false }

	p := &Pipeline{Config: &config.Config{
		TransitionType:     "fade",
		TransitionDuration: 0.5,
		StartTransition:    "fade",
		EndTransition:      "fade",
	}}

	spec := p.resolveTransitions()
	if spec.Type != transition.None {
		t.Errorf("transitions must be disabled, got %+v", spec)
	}
	if p.Config.StartTransition != "" || p.Config.EndTransition != "" {
		t.Errorf("boundary transitions must be disabled: %q %q",
			p.Config.StartTransition, p.Config.EndTransition)
	}
}

func TestResolveTransitionsNoneSkipsFilterCheck(t *testing.T) {
	old := hasFilter
	defer func() { hasFilter = old }()
	called := false
	hasFilter = func(string) bool { called = true; return false }

	p := &Pipeline{Config: &config.Config{TransitionType: "none"}}
	if spec := p.resolveTransitions(); spec.Type != transition.None {
		t.Errorf("unexpected spec: %+v", spec)
	}
	if called {
		t.Error("no transitions requested, ffmpeg must not be probed")
	}
}

func TestFinalDuration(t *testing.T) {
	tests := []struct {
		name           string
		videoDur       float64
		narrDur        float64
		useVideoLength bool
		want           float64
	}{
		{"no narration", 10, 0, false, 10},
		{"narration shorter than video", 10, 6, false, 6},
		{"narration longer than video", 10, 14, false, 14},
		{"use video length trims narration", 10, 14, true, 10},
		{"use video length without narration", 10, 0, true, 10},
	}

	for _, tt := range tests {
		if got := finalDuration(tt.videoDur, tt.narrDur, tt.useVideoLength); got != tt.want {
			t.Errorf("%s: finalDuration = %g, want %g", tt.name, got, tt.want)
		}
	}
}

func TestHalfHeight(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1920, 960},
		{1080, 540},
		{720, 360},
		{1916, 958},
		{1918, 958}, // 959 is odd, rounded down
	}
	for _, tt := range tests {
		if got := halfHeight(tt.in); got != tt.want {
			t.Errorf("halfHeight(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestItemDurations(t *testing.T) {
	items := []source.Item{
		{Path: "a.mp4", Duration: 3.5},
		{Path: "b.png", Duration: 5},
	}
	got := itemDurations(items)
	if len(got) != 2 || got[0] != 3.5 || got[1] != 5 {
		t.Errorf("unexpected durations: %v", got)
	}
}
