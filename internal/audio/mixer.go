// Package audio собирает звуковую часть filter_complex финального
// рендера: наррация, фоновая музыка и исходный звук видео с
// приглушением на время речи.
package audio

import (
	"fmt"
	"math"
	"strings"
)

// MixSpec описывает звуковые дорожки итогового микса. Пустой путь —
// дорожка отсутствует.
type MixSpec struct {
	NarrationPath string
	NarrationEnd  float64 // конец наррации на итоговой шкале, сек

	OriginalPath   string
	OriginalVolume float64 // 0-100

	MusicPath   string
	MusicVolume float64 // 0-100

	DuckVolume float64 // 0-100, <0 — приглушение выключено
}

// Input — дополнительный вход ffmpeg для микса.
type Input struct {
	Path string
	Loop bool // добавить -stream_loop -1
}

// Graph — готовый фрагмент filter_complex и его входы.
type Graph struct {
	Inputs []Input
	Filter string
	Out    string // метка итогового аудиопотока без скобок
}

// Build собирает аудиограф. firstIndex — индекс первого аудиовхода в
// общем списке входов ffmpeg. Возвращает nil, если дорожек нет.
func (s MixSpec) Build(firstIndex int) *Graph {
	duck := s.DuckVolume >= 0 && s.NarrationPath != "" && s.NarrationEnd > 0

	var inputs []Input
	var chains []string
	var labels []string
	idx := firstIndex

	if s.NarrationPath != "" {
		inputs = append(inputs, Input{Path: s.NarrationPath})
		chains = append(chains, fmt.Sprintf("[%d:a]anull[narr]", idx))
		labels = append(labels, "[narr]")
		idx++
	}

	if s.OriginalPath != "" && s.OriginalVolume > 0 {
		// Исходный звук зацикливается на всю длительность (обрежет -t)
		inputs = append(inputs, Input{Path: s.OriginalPath, Loop: true})
		chains = append(chains, fmt.Sprintf("[%d:a]%s[orig]", idx, volumeFilter(s.OriginalVolume, duck, s.DuckVolume, s.NarrationEnd)))
		labels = append(labels, "[orig]")
		idx++
	}

	if s.MusicPath != "" && s.MusicVolume > 0 {
		inputs = append(inputs, Input{Path: s.MusicPath, Loop: true})
		chains = append(chains, fmt.Sprintf("[%d:a]%s[music]", idx, volumeFilter(s.MusicVolume, duck, s.DuckVolume, s.NarrationEnd)))
		labels = append(labels, "[music]")
		idx++
	}

	if len(inputs) == 0 {
		return nil
	}

	out := strings.Trim(labels[0], "[]")
	filter := strings.Join(chains, ";")

	if len(labels) > 1 {
		// normalize=0 сохраняет заданные громкости, amix иначе делит
		filter += fmt.Sprintf(";%samix=inputs=%d:duration=longest:normalize=0[aout]",
			strings.Join(labels, ""), len(labels))
		out = "aout"
	}

	return &Graph{Inputs: inputs, Filter: filter, Out: out}
}

// volumeFilter строит фильтр громкости; при приглушении громкость
// умножается на duck/100, пока играет наррация (прецедент — выражение
// громкости фоновой музыки в видеоэнкодере).
func volumeFilter(base float64, duck bool, duckVolume, narrationEnd float64) string {
	baseFactor := base / 100.0
	if !duck {
		return fmt.Sprintf("volume=%f", baseFactor)
	}
	return fmt.Sprintf("volume='%f*if(lt(t,%f),%f,1)':eval=frame",
		baseFactor, narrationEnd, duckVolume/100.0)
}

// AtempoChain раскладывает множитель скорости на цепочку atempo:
// одиночный фильтр принимает только 0.5–2.0.
func AtempoChain(speed float64) string {
	if speed <= 0 || math.Abs(speed-1.0) < 1e-9 {
		return ""
	}

	var parts []string
	for speed >= 2.0 {
		parts = append(parts, "atempo=2.0")
		speed /= 2.0
	}
	for speed <= 0.5 {
		parts = append(parts, "atempo=0.5")
		speed *= 2.0
	}
	if math.Abs(speed-1.0) > 1e-9 {
		parts = append(parts, fmt.Sprintf("atempo=%g", speed))
	}

	return strings.Join(parts, ",")
}
