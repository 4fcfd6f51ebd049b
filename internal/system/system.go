package system

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits пытается увеличить лимит открытых файлов
// (для macOS/Linux).
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

// MediaInfo — результат ffprobe по одному файлу.
type MediaInfo struct {
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeResult struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

// ProbeMedia возвращает длительность, размеры и наличие звуковой
// дорожки через ffprobe.
func ProbeMedia(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_entries", "format=duration:stream=codec_type,width,height",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %v", path, err)
	}

	var res probeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, fmt.Errorf("ошибка разбора вывода ffprobe: %v", err)
	}

	info := &MediaInfo{}
	if res.Format.Duration != "" {
		info.Duration, err = strconv.ParseFloat(strings.TrimSpace(res.Format.Duration), 64)
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора длительности %q: %v", res.Format.Duration, err)
		}
	}
	for _, s := range res.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width, info.Height = s.Width, s.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}

// GetAudioDuration получает длительность аудио через ffprobe.
func GetAudioDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %v", path, err)
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration)
	if err != nil {
		return 0, err
	}

	return duration, nil
}

// GetBestH264Encoder выбирает энкодер H.264.
// Приоритеты:
// 1. MacOS (VideoToolbox)
// 2. NVIDIA (NVENC)
// 3. Software (libx264)
func GetBestH264Encoder() string {
	cmd := exec.Command("ffmpeg", "-hide_banner", "-encoders")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "libx264"
	}

	for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), enc) {
			return enc
		}
	}

	return "libx264"
}

// CheckFilterSupport проверяет, собран ли ffmpeg с указанным фильтром.
func CheckFilterSupport(name string) bool {
	cmd := exec.Command("ffmpeg", "-hide_banner", "-filters")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), " "+name+" ")
}

// CheckBinaries убеждается, что ffmpeg и ffprobe доступны в PATH.
func CheckBinaries() error {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s не найден в PATH, установите FFmpeg (https://ffmpeg.org/download.html)", bin)
		}
	}
	return nil
}

// DefaultWorkers — число воркеров сборки сегментов: физические ядра,
// при ошибке gopsutil — runtime.NumCPU.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// EncodeWorkers ограничивает параллельные запуски ffmpeg по доступной
// памяти: примерно 512МБ на процесс, не больше 4 (NVENC/VideoToolbox
// не тянут больше сессий).
func EncodeWorkers() int {
	const perProcess = 512 * 1024 * 1024

	limit := 4
	vm, err := mem.VirtualMemory()
	if err == nil {
		byMem := int(vm.Available / perProcess)
		if byMem < limit {
			limit = byMem
		}
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}
