package source

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hukasx0/short-maker/internal/system"
)

// Kind — тип элемента последовательности.
type Kind int

const (
	KindVideo Kind = iota
	KindImage
	KindGIF
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindImage:
		return "image"
	case KindGIF:
		return "gif"
	}
	return "unknown"
}

// Item — один элемент входной последовательности. Порядок элементов
// определяет порядок клипов в итоговом видео.
type Item struct {
	Path     string
	Kind     Kind
	Duration float64
	HasAudio bool
	Width    int
	Height   int
}

// Options — параметры разрешения входов.
type Options struct {
	ImageDuration float64 // длительность статичных изображений
	PDFDPI        int
	PDFDir        string // куда рендерить страницы PDF
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true,
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
}

// Resolve превращает аргумент (файл, список через ";" или папка)
// в упорядоченную последовательность элементов.
func Resolve(ctx context.Context, arg string, opts Options) ([]Item, error) {
	var paths []string
	for _, part := range strings.Split(arg, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fi, err := os.Stat(part)
		if err != nil {
			return nil, fmt.Errorf("вход %s: %w", part, err)
		}

		if fi.IsDir() {
			listed, err := listMediaFiles(part)
			if err != nil {
				return nil, err
			}
			paths = append(paths, listed...)
		} else {
			paths = append(paths, part)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("вход %q не содержит медиафайлов", arg)
	}

	var items []Item
	for _, p := range paths {
		resolved, err := resolveFile(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		items = append(items, resolved...)
	}

	return items, nil
}

// listMediaFiles собирает медиафайлы папки в лексикографическом порядке.
func listMediaFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if videoExts[ext] || imageExts[ext] || ext == ".gif" || ext == ".pdf" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("в папке %s не найдено медиафайлов", dir)
	}

	return paths, nil
}

func resolveFile(ctx context.Context, path string, opts Options) ([]Item, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExts[ext]:
		info, err := system.ProbeMedia(ctx, path)
		if err != nil {
			return nil, err
		}
		if info.Duration <= 0 {
			return nil, fmt.Errorf("не удалось определить длительность %s", path)
		}
		return []Item{{
			Path:     path,
			Kind:     KindVideo,
			Duration: info.Duration,
			HasAudio: info.HasAudio,
			Width:    info.Width,
			Height:   info.Height,
		}}, nil

	case ext == ".gif":
		dur, w, h, err := probeGIF(path)
		if err != nil {
			return nil, err
		}
		if dur <= 0 {
			// GIF из одного кадра показываем как изображение
			dur = opts.ImageDuration
		}
		return []Item{{Path: path, Kind: KindGIF, Duration: dur, Width: w, Height: h}}, nil

	case imageExts[ext]:
		w, h, err := probeImage(path)
		if err != nil {
			return nil, err
		}
		return []Item{{Path: path, Kind: KindImage, Duration: opts.ImageDuration, Width: w, Height: h}}, nil

	case ext == ".pdf":
		return expandPDF(path, opts)

	default:
		return nil, fmt.Errorf("неподдерживаемый формат входа: %s", path)
	}
}

// probeGIF возвращает суммарную длительность одного прохода анимации.
func probeGIF(path string) (float64, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ошибка чтения GIF %s: %v", path, err)
	}

	// Задержки кадров хранятся в сотых долях секунды
	total := 0
	for _, d := range g.Delay {
		total += d
	}

	w, h := g.Config.Width, g.Config.Height
	return float64(total) / 100.0, w, h, nil
}

func probeImage(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка чтения изображения %s: %v", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
