package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"github.com/hukasx0/short-maker/internal/audio"
	"github.com/hukasx0/short-maker/internal/config"
	"github.com/hukasx0/short-maker/internal/script"
	"github.com/hukasx0/short-maker/internal/source"
	"github.com/hukasx0/short-maker/internal/subtitle"
	"github.com/hukasx0/short-maker/internal/system"
	"github.com/hukasx0/short-maker/internal/transition"
	"github.com/hukasx0/short-maker/internal/tts"
	"github.com/hukasx0/short-maker/internal/video"
)

// Pipeline собирает ролик от исходников до финального файла.
type Pipeline struct {
	Config  *config.Config
	Encoder video.VideoEncoder
	TTS     *tts.Client
	tempDir string
}

func NewPipeline(cfg *config.Config, enc video.VideoEncoder, ttsClient *tts.Client) *Pipeline {
	return &Pipeline{
		Config:  cfg,
		Encoder: enc,
		TTS:     ttsClient,
	}
}

type narration struct {
	path     string
	duration float64
	segments []script.Segment
}

func (p *Pipeline) Run(ctx context.Context) error {
	startTime := time.Now()
	var narrTime, segTime, finalTime time.Duration

	var err error
	p.tempDir, err = os.MkdirTemp("", "short_maker_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(p.tempDir)

	opts := source.Options{
		ImageDuration: p.Config.ImageDuration,
		PDFDPI:        p.Config.PDFDPI,
		PDFDir:        p.tempDir,
	}

	topItems, err := source.Resolve(ctx, p.Config.TopInput, opts)
	if err != nil {
		return fmt.Errorf("верхний вход: %w", err)
	}
	if len(topItems) == 0 {
		return fmt.Errorf("верхний вход не содержит медиафайлов")
	}

	var bottomItems []source.Item
	if p.Config.BottomInput != "" {
		bottomItems, err = source.Resolve(ctx, p.Config.BottomInput, opts)
		if err != nil {
			return fmt.Errorf("нижний вход: %w", err)
		}
	}

	fmt.Println("--- [SHORT MAKER] ---")
	fmt.Printf("[*] Верх: %s | Клипов: %d\n", p.Config.TopInput, len(topItems))
	if len(bottomItems) > 0 {
		fmt.Printf("[*] Низ: %s | Клипов: %d\n", p.Config.BottomInput, len(bottomItems))
	}
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Энкодер: %s\n",
		p.Config.Width, p.Config.Height, p.Config.FPS, p.Config.VideoEncoder)
	fmt.Println("---------------------")

	// 1. Наррация
	narrStart := time.Now()
	narr, err := p.prepareNarration(ctx)
	if err != nil {
		return err
	}
	narrTime = time.Since(narrStart)

	// 2. Переходы между клипами верхней последовательности
	spec := p.resolveTransitions()
	spec, clamped := spec.Clamp(itemDurations(topItems))
	if clamped {
		fmt.Printf("[!] Переход уменьшен до %.2fs из-за короткого клипа\n", spec.Duration)
	}

	// 3. Сегменты и склейка
	segStart := time.Now()
	segH := p.Config.Height
	if len(bottomItems) > 0 {
		segH = halfHeight(p.Config.Height)
	}

	videoPath, videoDur, err := p.buildSequence(ctx, topItems, p.Config.Width, segH, spec, "top")
	if err != nil {
		return err
	}

	if len(bottomItems) > 0 {
		bottomPath, bottomDur, err := p.buildSequence(ctx, bottomItems,
			p.Config.Width, segH, transition.Spec{Type: transition.None}, "bottom")
		if err != nil {
			return err
		}

		stacked := filepath.Join(p.tempDir, "stacked.mp4")
		loops := video.BottomLoops(videoDur, bottomDur)
		fmt.Println("[*] Сборка вертикального кадра...")
		err = p.Encoder.Stack(ctx, videoPath, bottomPath, loops, videoDur, stacked,
			p.Config.VideoEncoder, p.Config.Quality)
		if err != nil {
			return err
		}
		videoPath = stacked
	}
	segTime = time.Since(segStart)

	// 4. Исходный звук верхней последовательности
	origPath := ""
	if p.Config.KeepAudio {
		origPath, err = p.Encoder.ExtractAudio(ctx, topItems, p.tempDir)
		if err != nil {
			return fmt.Errorf("извлечение звука: %w", err)
		}
		if origPath == "" {
			fmt.Println("[!] Во входных клипах нет звуковой дорожки")
		}
	}

	// 5. Итоговая длительность
	narrDur := 0.0
	if narr != nil {
		narrDur = narr.duration
	}
	totalDur := finalDuration(videoDur, narrDur, p.Config.UseVideoLength)

	// 6. Субтитры
	subFilter := ""
	if narr != nil && p.Config.Subtitles {
		assPath := filepath.Join(p.tempDir, "narration.ass")
		err = subtitle.Write(narr.segments, p.Config.Subtitle, p.Config.Width, p.Config.Height, assPath)
		if err != nil {
			return fmt.Errorf("субтитры: %w", err)
		}
		subFilter = subtitle.Filter(assPath)
	}

	// 7. QR-код в конце ролика
	qrPath := ""
	if p.Config.QRLink != "" {
		qrPath = filepath.Join(p.tempDir, "qr.png")
		if err := qrcode.WriteFile(p.Config.QRLink, qrcode.Medium, 256, qrPath); err != nil {
			return fmt.Errorf("генерация QR: %w", err)
		}
	}

	// 8. Финальный рендер
	origVol := 100.0
	narrPath := ""
	narrEnd := 0.0
	if narr != nil {
		origVol = p.Config.VideoVolume
		narrPath = narr.path
		narrEnd = narrDur
		if narrEnd > totalDur {
			narrEnd = totalDur
		}
	}

	fmt.Println("[*] Финальный рендер...")
	finalStart := time.Now()
	err = p.Encoder.FinalRender(ctx, video.FinalRequest{
		VideoPath:       videoPath,
		VideoDuration:   videoDur,
		TotalDuration:   totalDur,
		Width:           p.Config.Width,
		Height:          p.Config.Height,
		FPS:             p.Config.FPS,
		StartTransition: p.boundarySpec(p.Config.StartTransition),
		EndTransition:   p.boundarySpec(p.Config.EndTransition),
		SubtitleFilter:  subFilter,
		QRPath:          qrPath,
		Mix: audio.MixSpec{
			NarrationPath:  narrPath,
			NarrationEnd:   narrEnd,
			OriginalPath:   origPath,
			OriginalVolume: origVol,
			MusicPath:      p.Config.Music,
			MusicVolume:    p.Config.MusicVolume,
			DuckVolume:     p.Config.DuckVolume,
		},
		Encoder: p.Config.VideoEncoder,
		Quality: p.Config.Quality,
		Output:  p.Config.Output,
	})
	if err != nil {
		return err
	}
	finalTime = time.Since(finalStart)

	fmt.Printf("[+++] Успех! Видео сохранено: %s (%.1fs)\n", p.Config.Output, totalDur)

	if p.Config.ShowStats {
		p.writeStats(startTime, narrTime, segTime, finalTime, len(topItems)+len(bottomItems))
	}

	return nil
}

// prepareNarration синтезирует озвучку по фразам, склеивает её в одну
// дорожку и размечает таймлайн субтитров по реальным длительностям.
func (p *Pipeline) prepareNarration(ctx context.Context) (*narration, error) {
	if p.Config.Text == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(p.Config.Text)
	if err != nil {
		return nil, fmt.Errorf("чтение сценария: %w", err)
	}
	text := script.Clean(string(raw))
	phrases := script.Split(text, script.DefaultMaxChars)
	if len(phrases) == 0 {
		return nil, fmt.Errorf("файл сценария %s не содержит текста", p.Config.Text)
	}

	fmt.Printf("[*] Озвучка: %d фраз (%s)\n", len(phrases), p.Config.Lang)

	parts := make([]string, len(phrases))
	durations := make([]float64, len(phrases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerLimit())
	for i, phrase := range phrases {
		i, phrase := i, phrase
		g.Go(func() error {
			part := filepath.Join(p.tempDir, fmt.Sprintf("tts_%03d.mp3", i))
			if err := p.TTS.Synthesize(gctx, phrase, part); err != nil {
				return fmt.Errorf("синтез фразы %d: %w", i+1, err)
			}
			d, err := system.GetAudioDuration(gctx, part)
			if err != nil {
				return fmt.Errorf("длительность фразы %d: %w", i+1, err)
			}
			parts[i] = part
			durations[i] = d
			fmt.Printf("[>] Фраза озвучена: %d/%d\n", i+1, len(phrases))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	narrPath := filepath.Join(p.tempDir, "narration.mp3")
	chain := audio.AtempoChain(p.Config.Speed)
	if err := p.Encoder.ConcatNarration(ctx, parts, chain, narrPath, p.tempDir); err != nil {
		return nil, err
	}

	durations = script.ScaleDurations(durations, p.Config.Speed)

	total, err := system.GetAudioDuration(ctx, narrPath)
	if err != nil {
		return nil, fmt.Errorf("длительность наррации: %w", err)
	}
	durations = script.NormalizeDurations(durations, total)

	return &narration{
		path:     narrPath,
		duration: total,
		segments: script.BuildTimeline(phrases, durations),
	}, nil
}

// buildSequence кодирует клипы в сегменты целевого размера и склеивает
// их в одну дорожку. Возвращает путь и длительность последовательности.
func (p *Pipeline) buildSequence(
	ctx context.Context,
	items []source.Item,
	w, h int,
	spec transition.Spec,
	name string,
) (string, float64, error) {
	segPaths := make([]string, len(items))
	durations := itemDurations(items)

	// Количество параллельных энкодеров ограничено памятью и GPU
	limit := p.workerLimit()
	if ew := system.EncodeWorkers(); ew < limit {
		limit = ew
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			seg := filepath.Join(p.tempDir, fmt.Sprintf("%s_%03d.mp4", name, i))
			params := config.SegmentParams{
				Width:    w,
				Height:   h,
				FPS:      p.Config.FPS,
				Duration: item.Duration,
			}
			err := p.Encoder.BuildSegment(gctx, item, seg, params, p.Config.VideoEncoder, p.Config.Quality)
			if err != nil {
				return fmt.Errorf("сегмент %s: %w", filepath.Base(item.Path), err)
			}
			segPaths[i] = seg
			fmt.Printf("[>] Готов сегмент (%s): %d/%d\n", name, i+1, len(items))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", 0, err
	}

	outPath := filepath.Join(p.tempDir, name+"_seq.mp4")
	err := p.Encoder.Concatenate(ctx, segPaths, durations, spec, outPath, p.tempDir,
		p.Config.VideoEncoder, p.Config.Quality)
	if err != nil {
		return "", 0, err
	}

	_, _, total := spec.BuildChain(durations)
	return outPath, total, nil
}

// Подменяется в тестах
var hasFilter = system.CheckFilterSupport

// resolveTransitions разбирает тип перехода и выключает все переходы,
// если ffmpeg собран без фильтра xfade.
func (p *Pipeline) resolveTransitions() transition.Spec {
	t, err := transition.Parse(p.Config.TransitionType)
	if err != nil {
		fmt.Printf("[!] %v\n", err)
	}

	wantXfade := t != transition.None ||
		p.Config.StartTransition != "" || p.Config.EndTransition != ""
	if wantXfade && !hasFilter("xfade") {
		fmt.Println("[!] ffmpeg собран без фильтра xfade, переходы отключены")
		p.Config.StartTransition = ""
		p.Config.EndTransition = ""
		return transition.Spec{Type: transition.None}
	}

	return transition.Spec{Type: t, Duration: p.Config.TransitionDuration}
}

func (p *Pipeline) workerLimit() int {
	if p.Config.Workers < 1 {
		return 1
	}
	return p.Config.Workers
}

// boundarySpec разбирает имя граничного перехода, предупреждая о
// неизвестных значениях.
func (p *Pipeline) boundarySpec(name string) transition.Spec {
	t, err := transition.Parse(name)
	if err != nil {
		fmt.Printf("[!] %v\n", err)
	}
	return transition.Spec{Type: t, Duration: p.Config.TransitionDuration}
}

// finalDuration выбирает длительность ролика: без наррации правит
// видеоряд, с наррацией — её длительность, если не задано обратное.
func finalDuration(videoDur, narrDur float64, useVideoLength bool) float64 {
	if narrDur <= 0 || useVideoLength {
		return videoDur
	}
	return narrDur
}

// halfHeight делит высоту кадра пополам с выравниванием до чётного,
// иначе yuv420p не кодируется.
func halfHeight(h int) int {
	half := h / 2
	if half%2 != 0 {
		half--
	}
	return half
}

func itemDurations(items []source.Item) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = it.Duration
	}
	return out
}

func (p *Pipeline) writeStats(start time.Time, narrTime, segTime, finalTime time.Duration, clips int) {
	totalTime := time.Since(start)

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Narration (TTS): %.2fs\n"+
			"Segments: %.2fs\n"+
			"Final Render: %.2fs\n"+
			"----------------------------\n",
		p.Config.BuildVersion, totalTime.Seconds(), narrTime.Seconds(), segTime.Seconds(), finalTime.Seconds(),
	)
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Clips: %d | Total: %.2fs | TTS: %.2fs | Segments: %.2fs | Render: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.TopInput),
		clips,
		totalTime.Seconds(),
		narrTime.Seconds(),
		segTime.Seconds(),
		finalTime.Seconds(),
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}
