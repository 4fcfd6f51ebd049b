package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hukasx0/short-maker/internal/config"
	"github.com/hukasx0/short-maker/internal/engine"
	"github.com/hukasx0/short-maker/internal/system"
	"github.com/hukasx0/short-maker/internal/tts"
	"github.com/hukasx0/short-maker/internal/video"
)

// Заполняется через -ldflags "-X main.buildVersion=..."
var buildVersion = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	var (
		music         string
		output        string
		resolution    string
		musicVolume   float64
		keepAudio     bool
		videoVolume   float64
		text          string
		lang          string
		noSubtitles   bool
		duckVolume    float64
		useVideoLen   bool
		speed         float64
		animateText   bool
		fadeDuration  float64
		textColor     string
		noBGBox       bool
		borderColor   string
		imageDuration float64
		pdfDPI        int
		transType     string
		transDuration float64
		startTrans    string
		endTrans      string
		presetPath    string
		qrLink        string
		fps           int
		quality       int
		workers       int
		showStats     bool
	)

	// Короткий и длинный флаг пишут в одну переменную
	flag.StringVar(&music, "m", "", "Файл фоновой музыки")
	flag.StringVar(&music, "music", "", "Файл фоновой музыки")
	flag.StringVar(&output, "o", "output.mp4", "Путь к итоговому видео")
	flag.StringVar(&output, "output", "output.mp4", "Путь к итоговому видео")
	flag.StringVar(&resolution, "r", "1080x1920", "Разрешение WIDTHxHEIGHT")
	flag.StringVar(&resolution, "resolution", "1080x1920", "Разрешение WIDTHxHEIGHT")
	flag.Float64Var(&musicVolume, "mv", 100, "Громкость музыки (0-100)")
	flag.Float64Var(&musicVolume, "music-volume", 100, "Громкость музыки (0-100)")
	flag.BoolVar(&keepAudio, "a", false, "Сохранить звук верхнего видео")
	flag.BoolVar(&keepAudio, "audio", false, "Сохранить звук верхнего видео")
	flag.Float64Var(&videoVolume, "vv", 0, "Громкость исходного звука при наррации (0-100)")
	flag.Float64Var(&videoVolume, "video-volume", 0, "Громкость исходного звука при наррации (0-100)")
	flag.StringVar(&text, "t", "", "Текстовый файл сценария наррации")
	flag.StringVar(&text, "text", "", "Текстовый файл сценария наррации")
	flag.StringVar(&lang, "l", "en", "Код языка наррации")
	flag.StringVar(&lang, "lang", "en", "Код языка наррации")
	flag.BoolVar(&noSubtitles, "ns", false, "Отключить субтитры")
	flag.BoolVar(&noSubtitles, "no-subtitles", false, "Отключить субтитры")
	flag.Float64Var(&duckVolume, "duck-volume", -1, "Приглушать фон во время наррации до N% (типично 50, -1 — выключено)")
	flag.BoolVar(&useVideoLen, "use-video-length", false, "Длительность ролика по видео, а не по наррации")
	flag.Float64Var(&speed, "s", 1.0, "Множитель скорости наррации (0.5 медленнее, 2.0 быстрее)")
	flag.Float64Var(&speed, "speed", 1.0, "Множитель скорости наррации (0.5 медленнее, 2.0 быстрее)")
	flag.BoolVar(&animateText, "animate-text", false, "Плавное появление и исчезание субтитров")
	flag.Float64Var(&fadeDuration, "fade-duration", 0.15, "Длительность анимации субтитров (сек)")
	flag.StringVar(&textColor, "text-color", "white", "Цвет субтитров (имя или #RRGGBB)")
	flag.BoolVar(&noBGBox, "no-bg-box", false, "Без подложки под субтитрами, только обводка")
	flag.StringVar(&borderColor, "text-border-color", "black", "Цвет обводки/подложки субтитров")
	flag.Float64Var(&imageDuration, "image-duration", 5.0, "Длительность показа изображения (сек)")
	flag.IntVar(&pdfDPI, "pdf-dpi", 150, "DPI рендеринга страниц PDF")
	flag.StringVar(&transType, "transition-type", "none", "Переход между клипами: none, fade, slide_left, slide_right, slide_up, slide_down, zoom_in, zoom_out")
	flag.Float64Var(&transDuration, "transition-duration", 0.5, "Длительность перехода (сек)")
	flag.StringVar(&startTrans, "start-transition", "", "Переход в начале ролика")
	flag.StringVar(&endTrans, "end-transition", "", "Переход в конце ролика")
	flag.StringVar(&presetPath, "preset", "", "YAML-пресет с настройками по умолчанию")
	flag.StringVar(&qrLink, "qr", "", "Ссылка для QR-кода в конце ролика")
	flag.IntVar(&fps, "fps", 30, "FPS")
	flag.IntVar(&quality, "quality", 0, "Качество (0 — авто, x264: CRF, VideoToolbox: битрейт = Q*100кбит/с)")
	flag.IntVar(&workers, "workers", system.DefaultWorkers(), "Потоки")
	flag.BoolVar(&showStats, "stats", false, "Показать отчёт о времени работы")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Использование: %s [флаги] <верхнее видео> [нижнее видео]\n\nФлаги:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := system.CheckBinaries(); err != nil {
		log.Fatalf("[-] %v", err)
	}

	width, height, err := config.ParseResolution(resolution)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	cfg := &config.Config{
		TopInput:    args[0],
		Output:      output,
		Width:       width,
		Height:      height,
		FPS:         fps,
		Music:       music,
		MusicVolume: musicVolume,
		KeepAudio:   keepAudio,
		VideoVolume: videoVolume,
		DuckVolume:  duckVolume,

		Text:           text,
		Lang:           lang,
		Speed:          speed,
		Subtitles:      !noSubtitles,
		UseVideoLength: useVideoLen,

		ImageDuration: imageDuration,
		PDFDPI:        pdfDPI,

		TransitionType:     transType,
		TransitionDuration: transDuration,
		StartTransition:    startTrans,
		EndTransition:      endTrans,

		Subtitle: config.SubtitleStyle{
			TextColor:    textColor,
			BorderColor:  borderColor,
			BGBox:        !noBGBox,
			Animate:      animateText,
			FadeDuration: fadeDuration,
		},

		QRLink:       qrLink,
		Workers:      workers,
		Quality:      quality,
		ShowStats:    showStats,
		BuildVersion: buildVersion,
	}
	if len(args) > 1 {
		cfg.BottomInput = args[1]
	}

	// Пресет заполняет только то, что не задано явно
	if presetPath != "" {
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

		preset, err := config.ReadPreset(presetPath)
		if err != nil {
			log.Fatalf("[-] Пресет: %v", err)
		}
		if err := preset.Apply(cfg, set); err != nil {
			log.Fatalf("[-] Пресет: %v", err)
		}
		fmt.Printf("[*] Используется пресет: %s\n", presetPath)
	}

	encoderName := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}
	cfg.VideoEncoder = encoderName

	if cfg.Quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			cfg.Quality = 75
		case "h264_nvenc":
			cfg.Quality = 28
		default:
			cfg.Quality = 23
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] %v", err)
	}

	// Ctrl+C прерывает рендер и убирает временные файлы
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := engine.NewPipeline(cfg, &video.FFmpegEncoder{}, tts.New(cfg.Lang))
	if err := pipeline.Run(ctx); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
}
