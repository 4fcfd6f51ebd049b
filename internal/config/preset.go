package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset — YAML-файл с настройками по умолчанию. Поля-указатели
// отличают "не задано" от нулевого значения.
type Preset struct {
	Resolution         string   `yaml:"resolution"`
	FPS                int      `yaml:"fps"`
	MusicVolume        *float64 `yaml:"music_volume"`
	VideoVolume        *float64 `yaml:"video_volume"`
	DuckVolume         *float64 `yaml:"duck_volume"`
	Lang               string   `yaml:"lang"`
	Speed              *float64 `yaml:"speed"`
	ImageDuration      *float64 `yaml:"image_duration"`
	TransitionType     string   `yaml:"transition_type"`
	TransitionDuration *float64 `yaml:"transition_duration"`
	StartTransition    string   `yaml:"start_transition"`
	EndTransition      string   `yaml:"end_transition"`
	TextColor          string   `yaml:"text_color"`
	TextBorderColor    string   `yaml:"text_border_color"`
	NoBGBox            bool     `yaml:"no_bg_box"`
	AnimateText        bool     `yaml:"animate_text"`
	FadeDuration       *float64 `yaml:"fade_duration"`
	Quality            int      `yaml:"quality"`
}

// ReadPreset читает пресет из YAML-файла.
func ReadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("ошибка разбора пресета %s: %w", path, err)
	}

	return &p, nil
}

// Apply переносит значения пресета в конфигурацию. set содержит имена
// флагов, заданных явно в командной строке — они имеют приоритет.
func (p *Preset) Apply(c *Config, set map[string]bool) error {
	anySet := func(names ...string) bool {
		for _, n := range names {
			if set[n] {
				return true
			}
		}
		return false
	}

	if p.Resolution != "" && !anySet("r", "resolution") {
		w, h, err := ParseResolution(p.Resolution)
		if err != nil {
			return err
		}
		c.Width, c.Height = w, h
	}
	if p.FPS > 0 && !anySet("fps") {
		c.FPS = p.FPS
	}
	if p.MusicVolume != nil && !anySet("mv", "music-volume") {
		c.MusicVolume = *p.MusicVolume
	}
	if p.VideoVolume != nil && !anySet("vv", "video-volume") {
		c.VideoVolume = *p.VideoVolume
	}
	if p.DuckVolume != nil && !anySet("duck-volume") {
		c.DuckVolume = *p.DuckVolume
	}
	if p.Lang != "" && !anySet("l", "lang") {
		c.Lang = p.Lang
	}
	if p.Speed != nil && !anySet("s", "speed") {
		c.Speed = *p.Speed
	}
	if p.ImageDuration != nil && !anySet("image-duration") {
		c.ImageDuration = *p.ImageDuration
	}
	if p.TransitionType != "" && !anySet("transition-type") {
		c.TransitionType = p.TransitionType
	}
	if p.TransitionDuration != nil && !anySet("transition-duration") {
		c.TransitionDuration = *p.TransitionDuration
	}
	if p.StartTransition != "" && !anySet("start-transition") {
		c.StartTransition = p.StartTransition
	}
	if p.EndTransition != "" && !anySet("end-transition") {
		c.EndTransition = p.EndTransition
	}
	if p.TextColor != "" && !anySet("text-color") {
		c.Subtitle.TextColor = p.TextColor
	}
	if p.TextBorderColor != "" && !anySet("text-border-color") {
		c.Subtitle.BorderColor = p.TextBorderColor
	}
	if p.NoBGBox && !anySet("no-bg-box") {
		c.Subtitle.BGBox = false
	}
	if p.AnimateText && !anySet("animate-text") {
		c.Subtitle.Animate = true
	}
	if p.FadeDuration != nil && !anySet("fade-duration") {
		c.Subtitle.FadeDuration = *p.FadeDuration
	}
	if p.Quality > 0 && !anySet("quality") {
		c.Quality = p.Quality
	}

	return nil
}
