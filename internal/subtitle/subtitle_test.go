package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hukasx0/short-maker/internal/config"
	"github.com/hukasx0/short-maker/internal/script"
)

func TestASSColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"white", "&H00FFFFFF", false},
		{"black", "&H00000000", false},
		{"yellow", "&H0000FFFF", false}, // BGR order
		{"#FF0000", "&H000000FF", false},
		{"#00ff00", "&H0000FF00", false},
		{"0000FF", "&H00FF0000", false},
		{"Orange", "&H0000A5FF", false},
		{"#12345", "", true},
		{"nosuchcolor", "", true},
	}

	for _, tt := range tests {
		got, err := ASSColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ASSColor(%q): expected error, got %s", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ASSColor(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ASSColor(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00:00.00"},
		{1.5, "0:00:01.50"},
		{61.25, "0:01:01.25"},
		{3661.999, "1:01:02.00"},
		{-2, "0:00:00.00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.in); got != tt.want {
			t.Errorf("FormatTime(%g) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func defaultStyle() config.SubtitleStyle {
	return config.SubtitleStyle{
		TextColor:    "white",
		BorderColor:  "black",
		BGBox:        true,
		FadeDuration: 0.15,
	}
}

func TestWrite(t *testing.T) {
	segments := []script.Segment{
		{Text: "First phrase", Start: 0, End: 2.5},
		{Text: "Second {with} junk\\tags", Start: 2.5, End: 4},
	}

	path := filepath.Join(t.TempDir(), "subs.ass")
	if err := Write(segments, defaultStyle(), 1080, 1920, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, "PlayResX: 1080") || !strings.Contains(content, "PlayResY: 1920") {
		t.Error("PlayRes not set from resolution")
	}
	if !strings.Contains(content, "Dialogue: 0,0:00:00.00,0:00:02.50,Default") {
		t.Errorf("first event timing wrong:\n%s", content)
	}
	if strings.Contains(content, "{with}") || strings.Contains(content, "\\tags") {
		t.Error("ASS control characters not escaped")
	}
	// BGBox → opaque box border style
	if !strings.Contains(content, ",3,2,0,5,") {
		t.Errorf("expected BorderStyle 3 in style line:\n%s", content)
	}
	// No animation requested → no fade tags
	if strings.Contains(content, "\\fad") {
		t.Error("unexpected fade tag without Animate")
	}
}

func TestWriteAnimated(t *testing.T) {
	style := defaultStyle()
	style.Animate = true
	style.BGBox = false

	segments := []script.Segment{{Text: "Fading", Start: 0, End: 1}}
	path := filepath.Join(t.TempDir(), "subs.ass")
	if err := Write(segments, style, 720, 1280, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)

	if !strings.Contains(content, "{\\fad(150,150)}Fading") {
		t.Errorf("expected fade tag:\n%s", content)
	}
	// No box → outline border style
	if !strings.Contains(content, ",1,2,0,5,") {
		t.Errorf("expected BorderStyle 1 in style line:\n%s", content)
	}
}

func TestWriteBadColor(t *testing.T) {
	style := defaultStyle()
	style.TextColor = "not-a-color"

	err := Write(nil, style, 1080, 1920, filepath.Join(t.TempDir(), "x.ass"))
	if err == nil {
		t.Error("expected error for unknown color")
	}
}

func TestFilterEscaping(t *testing.T) {
	got := Filter(`C:\tmp\subs.ass`)
	if strings.Contains(got, `C:\tmp`) {
		t.Errorf("windows path not converted: %s", got)
	}
	got = Filter("/tmp/short_123/subs.ass")
	if got != "ass='/tmp/short_123/subs.ass'" {
		t.Errorf("unexpected filter: %s", got)
	}
}
