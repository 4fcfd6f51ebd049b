// Package subtitle renders narration phrases into an ASS file burned
// onto the video with ffmpeg's ass filter.
package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hukasx0/short-maker/internal/config"
	"github.com/hukasx0/short-maker/internal/script"
)

const fontSize = 60

var namedColors = map[string][3]uint8{
	"white":   {255, 255, 255},
	"black":   {0, 0, 0},
	"red":     {255, 0, 0},
	"green":   {0, 255, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
	"orange":  {255, 165, 0},
	"gray":    {128, 128, 128},
}

// ASSColor converts a color name or #RRGGBB value to the ASS
// &HAABBGGRR form (alpha 00 = opaque).
func ASSColor(c string) (string, error) {
	return assColorAlpha(c, 0)
}

func assColorAlpha(c string, alpha uint8) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))

	rgb, ok := namedColors[c]
	if !ok {
		hex := strings.TrimPrefix(c, "#")
		if len(hex) != 6 {
			return "", fmt.Errorf("unknown color %q (use a name or #RRGGBB)", c)
		}
		var r, g, b uint8
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return "", fmt.Errorf("unknown color %q (use a name or #RRGGBB)", c)
		}
		rgb = [3]uint8{r, g, b}
	}

	// ASS stores colors as blue-green-red
	return fmt.Sprintf("&H%02X%02X%02X%02X", alpha, rgb[2], rgb[1], rgb[0]), nil
}

// Write produces an ASS subtitle file for the given timeline.
func Write(segments []script.Segment, style config.SubtitleStyle, width, height int, path string) error {
	textColor, err := ASSColor(style.TextColor)
	if err != nil {
		return err
	}
	borderColor, err := ASSColor(style.BorderColor)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "[Script Info]")
	fmt.Fprintln(f, "Title: short-maker narration")
	fmt.Fprintln(f, "ScriptType: v4.00+")
	fmt.Fprintf(f, "PlayResX: %d\n", width)
	fmt.Fprintf(f, "PlayResY: %d\n", height)
	fmt.Fprintln(f, "")
	fmt.Fprintln(f, "[V4+ Styles]")
	fmt.Fprintln(f, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding")

	// BorderStyle 3 draws an opaque box behind the text, 1 draws an
	// outline only. Box color is 60% black like the original overlay.
	borderStyle := 1
	backColor := "&H00000000"
	if style.BGBox {
		borderStyle = 3
		backColor = "&H66000000"
	}

	// Alignment 5 keeps phrases centered mid-frame
	fmt.Fprintf(f, "Style: Default,Arial,%d,%s,%s,%s,%s,-1,0,0,0,100,100,0,0,%d,2,0,5,40,40,0,1\n",
		fontSize, textColor, textColor, borderColor, backColor, borderStyle)

	fmt.Fprintln(f, "")
	fmt.Fprintln(f, "[Events]")
	fmt.Fprintln(f, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")

	for _, seg := range segments {
		text := escapeASS(seg.Text)
		if style.Animate && style.FadeDuration > 0 {
			fadeMs := int(style.FadeDuration * 1000)
			text = fmt.Sprintf("{\\fad(%d,%d)}%s", fadeMs, fadeMs, text)
		}
		fmt.Fprintf(f, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			FormatTime(seg.Start), FormatTime(seg.End), text)
	}

	return nil
}

// FormatTime renders seconds as the ASS H:MM:SS.cc timestamp.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalCs := int(seconds*100 + 0.5)
	cs := totalCs % 100
	totalSec := totalCs / 100
	h := totalSec / 3600
	m := (totalSec % 3600) / 60
	s := totalSec % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func escapeASS(text string) string {
	text = strings.ReplaceAll(text, "\\", "")
	text = strings.ReplaceAll(text, "{", "")
	text = strings.ReplaceAll(text, "}", "")
	return text
}

// Filter builds the ffmpeg video filter burning the subtitle file.
func Filter(assPath string) string {
	escaped := filepath.ToSlash(assPath)
	escaped = strings.ReplaceAll(escaped, ":", "\\:")
	return fmt.Sprintf("ass='%s'", escaped)
}
