package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Config описывает один запуск пайплайна: входы, звук, наррация,
// переходы и параметры рендера.
type Config struct {
	TopInput    string
	BottomInput string
	Output      string

	Width  int
	Height int
	FPS    int

	Music       string
	MusicVolume float64 // 0-100
	KeepAudio   bool    // включать звук верхней последовательности
	VideoVolume float64 // 0-100, громкость исходного звука при наррации
	DuckVolume  float64 // 0-100, <0 — приглушение выключено

	Text           string // файл сценария наррации
	Lang           string
	Speed          float64
	Subtitles      bool
	UseVideoLength bool

	ImageDuration float64
	PDFDPI        int

	TransitionType     string
	TransitionDuration float64
	StartTransition    string
	EndTransition      string

	Subtitle SubtitleStyle

	QRLink string

	Workers      int
	Quality      int
	VideoEncoder string
	ShowStats    bool
	BuildVersion string
}

// SubtitleStyle — настройки внешнего вида субтитров.
type SubtitleStyle struct {
	TextColor    string
	BorderColor  string
	BGBox        bool
	Animate      bool
	FadeDuration float64 // секунды
}

// SegmentParams — параметры кодирования одного сегмента.
type SegmentParams struct {
	Width, Height int
	FPS           int
	Duration      float64
}

var resolutionRe = regexp.MustCompile(`^(\d+)x(\d+)$`)

// ParseResolution разбирает строку вида "1080x1920".
func ParseResolution(s string) (int, int, error) {
	m := resolutionRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("неверный формат разрешения %q, ожидается WIDTHxHEIGHT (например 1080x1920)", s)
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("неверное разрешение %q", s)
	}
	return w, h, nil
}

// Validate проверяет конфигурацию до запуска ffmpeg.
func (c *Config) Validate() error {
	if c.TopInput == "" {
		return fmt.Errorf("не указан входной файл")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("неверное разрешение %dx%d", c.Width, c.Height)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("множитель скорости должен быть больше 0, получено %g", c.Speed)
	}
	if c.MusicVolume < 0 || c.MusicVolume > 100 {
		return fmt.Errorf("громкость музыки вне диапазона 0-100: %g", c.MusicVolume)
	}
	if c.VideoVolume < 0 || c.VideoVolume > 100 {
		return fmt.Errorf("громкость видео вне диапазона 0-100: %g", c.VideoVolume)
	}
	if c.VideoVolume > 0 && !c.KeepAudio {
		return fmt.Errorf("флаг -vv работает только вместе с -a")
	}
	if c.DuckVolume > 100 {
		return fmt.Errorf("duck-volume вне диапазона 0-100: %g", c.DuckVolume)
	}
	if c.ImageDuration <= 0 {
		return fmt.Errorf("длительность изображения должна быть больше 0")
	}
	if c.TransitionDuration < 0 {
		return fmt.Errorf("длительность перехода не может быть отрицательной")
	}
	return nil
}
