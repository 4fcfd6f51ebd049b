package audio

import (
	"strings"
	"testing"
)

func TestBuildNarrationOnly(t *testing.T) {
	spec := MixSpec{NarrationPath: "/tmp/narr.mp3", NarrationEnd: 12.5, DuckVolume: -1}
	g := spec.Build(3)

	if g == nil {
		t.Fatal("expected a graph")
	}
	if len(g.Inputs) != 1 || g.Inputs[0].Path != "/tmp/narr.mp3" || g.Inputs[0].Loop {
		t.Errorf("unexpected inputs: %+v", g.Inputs)
	}
	if g.Filter != "[3:a]anull[narr]" {
		t.Errorf("unexpected filter: %s", g.Filter)
	}
	if g.Out != "narr" {
		t.Errorf("unexpected out label: %s", g.Out)
	}
	if strings.Contains(g.Filter, "amix") {
		t.Error("single track must not be mixed")
	}
}

func TestBuildFullMixWithDucking(t *testing.T) {
	spec := MixSpec{
		NarrationPath:  "/tmp/narr.mp3",
		NarrationEnd:   10.0,
		OriginalPath:   "/tmp/orig.aac",
		OriginalVolume: 50,
		MusicPath:      "/tmp/music.mp3",
		MusicVolume:    80,
		DuckVolume:     30,
	}
	g := spec.Build(1)

	if g == nil {
		t.Fatal("expected a graph")
	}
	if len(g.Inputs) != 3 {
		t.Fatalf("expected 3 inputs, got %d", len(g.Inputs))
	}
	// Narration plays once, background tracks loop
	if g.Inputs[0].Loop || !g.Inputs[1].Loop || !g.Inputs[2].Loop {
		t.Errorf("loop flags wrong: %+v", g.Inputs)
	}

	if !strings.Contains(g.Filter, "[1:a]anull[narr]") {
		t.Errorf("narration chain missing:\n%s", g.Filter)
	}
	// Both background tracks duck to 30% while narration plays
	if strings.Count(g.Filter, "if(lt(t,10.000000),0.300000,1)") != 2 {
		t.Errorf("duck expression wrong:\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, ":eval=frame") {
		t.Errorf("duck volume must re-evaluate per frame:\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, "[narr][orig][music]amix=inputs=3:duration=longest:normalize=0[aout]") {
		t.Errorf("amix stage wrong:\n%s", g.Filter)
	}
	if g.Out != "aout" {
		t.Errorf("unexpected out label: %s", g.Out)
	}
}

func TestBuildDuckingDisabled(t *testing.T) {
	spec := MixSpec{
		NarrationPath: "/tmp/narr.mp3",
		NarrationEnd:  5,
		MusicPath:     "/tmp/music.mp3",
		MusicVolume:   100,
		DuckVolume:    -1,
	}
	g := spec.Build(2)

	if strings.Contains(g.Filter, "if(lt") {
		t.Errorf("ducking must be off:\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, "[3:a]volume=1.000000[music]") {
		t.Errorf("plain volume chain missing:\n%s", g.Filter)
	}
}

func TestBuildNoDuckWithoutNarration(t *testing.T) {
	spec := MixSpec{
		MusicPath:   "/tmp/music.mp3",
		MusicVolume: 80,
		DuckVolume:  30,
	}
	g := spec.Build(1)

	if strings.Contains(g.Filter, "if(lt") {
		t.Errorf("nothing to duck against:\n%s", g.Filter)
	}
	if g.Out != "music" {
		t.Errorf("unexpected out label: %s", g.Out)
	}
}

func TestBuildSkipsMutedTracks(t *testing.T) {
	spec := MixSpec{
		OriginalPath:   "/tmp/orig.aac",
		OriginalVolume: 0,
		MusicPath:      "/tmp/music.mp3",
		MusicVolume:    60,
		DuckVolume:     -1,
	}
	g := spec.Build(1)

	if len(g.Inputs) != 1 || g.Inputs[0].Path != "/tmp/music.mp3" {
		t.Errorf("muted track must be dropped: %+v", g.Inputs)
	}
}

func TestBuildEmpty(t *testing.T) {
	if g := (MixSpec{DuckVolume: -1}).Build(1); g != nil {
		t.Errorf("expected nil graph, got %+v", g)
	}
}

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{1.0, ""},
		{0, ""},
		{1.5, "atempo=1.5"},
		{0.75, "atempo=0.75"},
		{3.0, "atempo=2.0,atempo=1.5"},
		{4.0, "atempo=2.0,atempo=2.0"},
		{0.25, "atempo=0.5,atempo=0.5"},
		{0.3, "atempo=0.5,atempo=0.6"},
	}
	for _, tt := range tests {
		if got := AtempoChain(tt.speed); got != tt.want {
			t.Errorf("AtempoChain(%g) = %q, want %q", tt.speed, got, tt.want)
		}
	}
}
