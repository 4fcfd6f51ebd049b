package source

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// expandPDF растеризует страницы PDF во временную папку; каждая
// страница становится отдельным изображением последовательности.
func expandPDF(path string, opts Options) ([]Item, error) {
	if opts.PDFDir == "" {
		return nil, fmt.Errorf("не задана папка для рендеринга страниц PDF")
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия PDF %s: %w", path, err)
	}
	defer doc.Close()

	dpi := opts.PDFDPI
	if dpi <= 0 {
		dpi = 150
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var items []Item
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("ошибка рендеринга страницы %d из %s: %v", i+1, path, err)
		}

		pagePath := filepath.Join(opts.PDFDir, fmt.Sprintf("%s_p%03d.png", base, i+1))
		f, err := os.Create(pagePath)
		if err != nil {
			return nil, err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, fmt.Errorf("ошибка записи страницы %s: %v", pagePath, err)
		}
		f.Close()

		b := img.Bounds()
		items = append(items, Item{
			Path:     pagePath,
			Kind:     KindImage,
			Duration: opts.ImageDuration,
			Width:    b.Dx(),
			Height:   b.Dy(),
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("в PDF %s нет страниц", path)
	}

	return items, nil
}
