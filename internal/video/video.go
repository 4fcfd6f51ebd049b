package video

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hukasx0/short-maker/internal/audio"
	"github.com/hukasx0/short-maker/internal/config"
	"github.com/hukasx0/short-maker/internal/source"
	"github.com/hukasx0/short-maker/internal/transition"
)

// VideoEncoder описывает этапы сборки ролика поверх ffmpeg.
type VideoEncoder interface {
	BuildSegment(ctx context.Context, item source.Item, outPath string, params config.SegmentParams, encoderName string, quality int) error
	Stack(ctx context.Context, topPath, bottomPath string, bottomLoops int, topDuration float64, outPath, encoderName string, quality int) error
	Concatenate(ctx context.Context, segmentPaths []string, durations []float64, spec transition.Spec, outPath, tmpDir, encoderName string, quality int) error
	ExtractAudio(ctx context.Context, items []source.Item, tmpDir string) (string, error)
	ConcatNarration(ctx context.Context, parts []string, atempoChain, outPath, tmpDir string) error
	FinalRender(ctx context.Context, req FinalRequest) error
}

type FFmpegEncoder struct{}

// runFFmpeg запускает ffmpeg и возвращает вывод при ошибке.
func runFFmpeg(ctx context.Context, stage string, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg %s error: %v, output: %s", stage, err, string(out))
	}
	return nil
}

// fillFilter масштабирует кадр с заполнением: увеличиваем до покрытия
// целевого размера и обрезаем по центру, пропорции не искажаются.
func fillFilter(w, h, fps int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d,setsar=1,format=yuv420p",
		w, h, w, h, fps)
}

// BuildSegment перекодирует один источник в сегмент целевого размера.
// Изображения и GIF получают длительность из params, видео сохраняет
// свою. Звук здесь отбрасывается, он собирается отдельной дорожкой.
func (e *FFmpegEncoder) BuildSegment(
	ctx context.Context,
	item source.Item,
	outPath string,
	params config.SegmentParams,
	encoderName string,
	quality int,
) error {
	args := []string{"-y"}

	switch item.Kind {
	case source.KindImage:
		args = append(args, "-loop", "1", "-t", fmt.Sprintf("%f", params.Duration), "-i", item.Path)
	case source.KindGIF:
		// -ignore_loop 0 зацикливает GIF, -t обрезает до нужной длины
		args = append(args, "-ignore_loop", "0", "-t", fmt.Sprintf("%f", params.Duration), "-i", item.Path)
	default:
		args = append(args, "-i", item.Path)
	}

	args = append(args,
		"-vf", fillFilter(params.Width, params.Height, params.FPS),
		"-an",
		"-c:v", encoderName,
		"-pix_fmt", "yuv420p",
	)
	args = append(args, qualityArgs(encoderName, quality)...)
	args = append(args, outPath)

	return runFFmpeg(ctx, "segment", args)
}

// Stack ставит два клипа друг на друга: нижний зацикливается, пока
// играет верхний. Оба уже приведены к половинной высоте.
func (e *FFmpegEncoder) Stack(
	ctx context.Context,
	topPath, bottomPath string,
	bottomLoops int,
	topDuration float64,
	outPath, encoderName string,
	quality int,
) error {
	args := []string{"-y", "-i", topPath}
	if bottomLoops > 0 {
		args = append(args, "-stream_loop", fmt.Sprintf("%d", bottomLoops))
	}
	args = append(args, "-i", bottomPath,
		"-filter_complex", "[0:v][1:v]vstack=inputs=2[v]",
		"-map", "[v]",
		"-t", fmt.Sprintf("%f", topDuration),
		"-an",
		"-c:v", encoderName,
		"-pix_fmt", "yuv420p",
	)
	args = append(args, qualityArgs(encoderName, quality)...)
	args = append(args, outPath)

	return runFFmpeg(ctx, "vstack", args)
}

// BottomLoops считает, сколько дополнительных повторов нижнего клипа
// нужно, чтобы покрыть верхний.
func BottomLoops(topDuration, bottomDuration float64) int {
	if bottomDuration <= 0 || topDuration <= bottomDuration {
		return 0
	}
	return int(math.Ceil(topDuration/bottomDuration)) - 1
}

// Concatenate склеивает сегменты. Без переходов хватает concat demuxer
// с копированием потока, с переходами строится цепочка xfade.
func (e *FFmpegEncoder) Concatenate(
	ctx context.Context,
	segmentPaths []string,
	durations []float64,
	spec transition.Spec,
	outPath, tmpDir, encoderName string,
	quality int,
) error {
	if len(segmentPaths) == 1 {
		return copyFile(segmentPaths[0], outPath)
	}

	graph, lastOut, _ := spec.BuildChain(durations)
	if graph == "" {
		concatFilePath := filepath.Join(tmpDir, "inputs.txt")
		f, err := os.Create(concatFilePath)
		if err != nil {
			return err
		}
		for _, p := range segmentPaths {
			absPath, _ := filepath.Abs(p)
			fmt.Fprintf(f, "file '%s'\n", absPath)
		}
		f.Close()

		return runFFmpeg(ctx, "concat", []string{"-y",
			"-f", "concat", "-safe", "0", "-i", concatFilePath,
			"-c", "copy", outPath,
		})
	}

	args := []string{"-y"}
	for _, p := range segmentPaths {
		args = append(args, "-i", p)
	}
	args = append(args,
		"-filter_complex", graph,
		"-map", lastOut,
		"-c:v", encoderName,
		"-pix_fmt", "yuv420p",
	)
	args = append(args, qualityArgs(encoderName, quality)...)
	args = append(args, outPath)

	return runFFmpeg(ctx, "xfade", args)
}

// ExtractAudio собирает звуковую дорожку последовательности: у клипов
// со звуком он извлекается, беззвучные закрываются тишиной той же
// длительности. Возвращает путь к склеенной дорожке или пустую строку,
// если звука нет ни у кого.
func (e *FFmpegEncoder) ExtractAudio(ctx context.Context, items []source.Item, tmpDir string) (string, error) {
	hasAny := false
	for _, it := range items {
		if it.HasAudio {
			hasAny = true
			break
		}
	}
	if !hasAny {
		return "", nil
	}

	var parts []string
	for i, it := range items {
		part := filepath.Join(tmpDir, fmt.Sprintf("audio_%03d.m4a", i))
		var args []string
		if it.HasAudio {
			args = []string{"-y", "-i", it.Path, "-vn", "-c:a", "aac", "-ar", "44100", "-ac", "2", part}
		} else {
			args = []string{"-y", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=stereo",
				"-t", fmt.Sprintf("%f", it.Duration), "-c:a", "aac", part}
		}
		if err := runFFmpeg(ctx, "audio extract", args); err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	if len(parts) == 1 {
		return parts[0], nil
	}

	listPath := filepath.Join(tmpDir, "audio_inputs.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return "", err
	}
	for _, p := range parts {
		absPath, _ := filepath.Abs(p)
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	f.Close()

	outPath := filepath.Join(tmpDir, "audio_sequence.m4a")
	err = runFFmpeg(ctx, "audio concat", []string{"-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c:a", "aac", outPath,
	})
	if err != nil {
		return "", err
	}
	return outPath, nil
}

// ConcatNarration склеивает синтезированные фразы в одну дорожку.
// atempoChain меняет темп речи, пустая строка оставляет поток как есть.
func (e *FFmpegEncoder) ConcatNarration(ctx context.Context, parts []string, atempoChain, outPath, tmpDir string) error {
	listPath := filepath.Join(tmpDir, "narration_inputs.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return err
	}
	for _, p := range parts {
		absPath, _ := filepath.Abs(p)
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	f.Close()

	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}
	if atempoChain == "" {
		// Все фразы от одного синтезатора, поток можно копировать
		args = append(args, "-c", "copy")
	} else {
		args = append(args, "-filter:a", atempoChain)
	}
	args = append(args, outPath)

	return runFFmpeg(ctx, "narration concat", args)
}

// FinalRequest — параметры финального прохода: видеоряд, звуковой
// микс, субтитры, граничные переходы и оверлеи.
type FinalRequest struct {
	VideoPath     string
	VideoDuration float64
	TotalDuration float64 // итоговая длительность ролика

	Width, Height, FPS int

	StartTransition transition.Spec
	EndTransition   transition.Spec

	SubtitleFilter string // готовый фильтр ass, пустая строка — без субтитров
	QRPath         string

	Mix audio.MixSpec

	Encoder string
	Quality int
	Output  string
}

// FinalRender собирает итоговый ролик одним вызовом ffmpeg: видеоряд
// при необходимости добивается стоп-кадром до конца наррации, затем
// граничные переходы, субтитры, QR-оверлей и звуковой микс.
func (e *FFmpegEncoder) FinalRender(ctx context.Context, req FinalRequest) error {
	return runFFmpeg(ctx, "final render", e.buildFinalArgs(req))
}

func (e *FFmpegEncoder) buildFinalArgs(req FinalRequest) []string {
	args := []string{"-y", "-i", req.VideoPath}

	qrIndex := -1
	if req.QRPath != "" {
		qrIndex = 1
		args = append(args, "-loop", "1", "-i", req.QRPath)
	}
	firstAudioIndex := 1
	if qrIndex != -1 {
		firstAudioIndex = 2
	}

	mix := req.Mix.Build(firstAudioIndex)
	if mix != nil {
		for _, in := range mix.Inputs {
			if in.Loop {
				args = append(args, "-stream_loop", "-1")
			}
			args = append(args, "-i", in.Path)
		}
	}

	var graphs []string
	cur := "0:v"
	stage := 0
	addStage := func(filter string) {
		out := fmt.Sprintf("vf%d", stage)
		stage++
		graphs = append(graphs, fmt.Sprintf("[%s]%s[%s]", cur, filter, out))
		cur = out
	}

	// Стоп-кадр, если наррация длиннее видеоряда
	if pad := req.TotalDuration - req.VideoDuration; pad > 0.01 {
		addStage(fmt.Sprintf("tpad=stop_mode=clone:stop_duration=%f", pad))
	}

	if g := req.StartTransition.BoundaryIn(cur, "vstart", req.Width, req.Height, req.FPS); g != "" {
		graphs = append(graphs, g)
		cur = "vstart"
	}
	if g := req.EndTransition.BoundaryOut(cur, "vend", req.Width, req.Height, req.FPS, req.TotalDuration); g != "" {
		graphs = append(graphs, g)
		cur = "vend"
	}

	if req.SubtitleFilter != "" {
		addStage(req.SubtitleFilter)
	}

	// QR показывается последние 3 секунды ролика
	if qrIndex != -1 {
		qrStart := req.TotalDuration - 3.0
		if qrStart < 0 {
			qrStart = 0
		}
		graphs = append(graphs, fmt.Sprintf("[%s][%d:v]overlay=W-w-40:H-h-40:enable='gte(t,%f)'[vqr]",
			cur, qrIndex, qrStart))
		cur = "vqr"
	}

	if mix != nil {
		graphs = append(graphs, mix.Filter)
	}

	videoMap := "0:v"
	if len(graphs) > 0 {
		args = append(args, "-filter_complex", strings.Join(graphs, ";"))
		if cur != "0:v" {
			videoMap = "[" + cur + "]"
		}
	}

	args = append(args, "-map", videoMap)
	if mix != nil {
		args = append(args, "-map", "["+mix.Out+"]", "-c:a", "aac", "-b:a", "192k")
	} else {
		args = append(args, "-an")
	}

	args = append(args,
		"-t", fmt.Sprintf("%f", req.TotalDuration),
		"-r", fmt.Sprintf("%d", req.FPS),
		"-c:v", req.Encoder,
		"-pix_fmt", "yuv420p",
	)
	args = append(args, qualityArgs(req.Encoder, req.Quality)...)
	args = append(args, req.Output)

	return args
}

// qualityArgs подбирает параметры качества под энкодер.
func qualityArgs(encoderName string, quality int) []string {
	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox не везде понимает -q:v, задаём битрейт
		bitrate := quality * 100
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "fast"}
	}
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
