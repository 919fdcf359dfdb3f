package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Vovarama1992/tg_relay/internal/ai"
	"github.com/Vovarama1992/tg_relay/internal/chats"
	"github.com/Vovarama1992/tg_relay/internal/config"
	"github.com/Vovarama1992/tg_relay/internal/delivery"
	"github.com/Vovarama1992/tg_relay/internal/domain"
	"github.com/Vovarama1992/tg_relay/internal/imagegen"
	"github.com/Vovarama1992/tg_relay/internal/infra"
	"github.com/Vovarama1992/tg_relay/internal/notificator"
	"github.com/Vovarama1992/tg_relay/internal/ocr"
	"github.com/Vovarama1992/tg_relay/internal/pdf"
	"github.com/Vovarama1992/tg_relay/internal/ports"
	"github.com/Vovarama1992/tg_relay/internal/speech"
	"github.com/Vovarama1992/tg_relay/internal/store"
	"github.com/Vovarama1992/tg_relay/internal/summary"
	"github.com/Vovarama1992/tg_relay/internal/telegram"
	"github.com/Vovarama1992/tg_relay/internal/translate"
)

const wrapperTimeout = 3 * time.Minute

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("bot stopped", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// CONFIG / DB
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	notifyInfra := notificator.NewInfra(cfg.AdminChatIDs, log)
	notifier := notificator.NewService(notifyInfra)

	var (
		kv      ports.KVRepo
		journal ports.RecordService
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			return err
		}
		if err := infra.EnsureSchema(ctx, db); err != nil {
			return err
		}
		kv = infra.NewKVRepo(db)
		journal = domain.NewRecordService(infra.NewRecordRepo(db), notifier)
		log.Info("postgres connected")
	} else {
		kv = store.NewMemoryRepo()
		log.Warn("DATABASE_URL is not set: state lives in memory, journal is off")
	}

	dialogs := store.NewDict[[]ai.Message](kv, "dialogs")
	claudeDialogs := store.NewDict[ai.WrapperSession](kv, "claude_dialogs")
	bardDialogs := store.NewDict[ai.WrapperSession](kv, "bard_dialogs")
	botNames := store.NewDict[string](kv, "bot_names")
	blocks := store.NewDict[bool](kv, "blocks")

	for _, d := range []interface{ Load(context.Context) error }{dialogs, claudeDialogs, bardDialogs, botNames, blocks} {
		if err := d.Load(ctx); err != nil {
			return err
		}
	}

	// =========================================================================
	// S3
	// =========================================================================

	var s3 ports.S3Service
	if cfg.S3Enabled() {
		client, err := infra.NewS3Client(ctx, infra.S3Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
		})
		if err != nil {
			return err
		}
		s3 = domain.NewS3Service(client)
	}

	// =========================================================================
	// BACKENDS
	// =========================================================================

	openaiLimiter := rate.NewLimiter(rate.Limit(cfg.OpenAIRPS), 1)
	wrapperLimiter := rate.NewLimiter(rate.Limit(cfg.WrapperRPS), 1)

	var counter domain.TokenCounter = domain.RuneCounter{}
	if cfg.GPTCountTokens {
		tc := domain.NewTiktokenCounter(cfg.OpenAIModel)
		if err := tc.Init(); err != nil {
			log.Warn("tiktoken unavailable, counting runes", zap.Error(err))
		} else {
			counter = tc
		}
	}
	history := ai.NewHistory(dialogs, counter)

	var (
		backends []ai.Backend
		gpt      *ai.GPT
		bing     *ai.Bing
	)

	pool := ai.NewOpenAIPool(cfg.OpenAIKeys, cfg.OpenAIBaseURL, cfg.OpenAIModel, openaiLimiter)
	if pool.Enabled() {
		gpt = ai.NewGPT(pool, history, log)
		backends = append(backends, gpt)
	}
	if cfg.BingURL != "" {
		bing = ai.NewBing(ai.NewWrapperClient(cfg.BingURL, wrapperTimeout, wrapperLimiter), history, log)
		backends = append(backends, bing)
	}
	if cfg.BardURL != "" && len(cfg.BardKeys) > 0 {
		client := ai.NewWrapperClient(cfg.BardURL, wrapperTimeout, wrapperLimiter)
		backends = append(backends, ai.NewBard(client, cfg.BardKeys, bardDialogs, log))
	}
	if cfg.ClaudeURL != "" && len(cfg.ClaudeKeys) > 0 {
		client := ai.NewWrapperClient(cfg.ClaudeURL, wrapperTimeout, wrapperLimiter)
		backends = append(backends, ai.NewClaude(client, cfg.ClaudeKeys, claudeDialogs, log))
	}
	aiService := ai.NewService(notifier, log, backends...)

	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	log.Info("backends", zap.Strings("enabled", names))

	// интерфейсы заполняем только живыми сервисами, без typed nil
	var (
		completer  translate.Completer
		vision     ocr.VisionCompleter
		oneShot    summary.OneShot
		pdfText    summary.PDFText
		imageProvs []imagegen.Provider
	)
	if gpt != nil {
		completer = gpt
		vision = ai.NewOpenAIPool(cfg.OpenAIKeys, cfg.OpenAIBaseURL, cfg.VisionModel, openaiLimiter)
		imageProvs = append(imageProvs, imagegen.NewDallE(cfg.OpenAIKeys, cfg.OpenAIBaseURL))
	}
	if bing != nil {
		oneShot = bing
	}
	if cfg.BingImageURL != "" {
		imageProvs = append(imageProvs, imagegen.NewBing(ai.NewWrapperClient(cfg.BingImageURL, wrapperTimeout, wrapperLimiter)))
	}
	pdfText = pdf.NewService(pdf.NewPopplerTextExtractor())

	// =========================================================================
	// SPEECH
	// =========================================================================

	var (
		stt speech.STTClient
		tts speech.TTSClient
	)
	switch {
	case cfg.DeepgramKey != "":
		stt = speech.NewDeepgramClient(cfg.DeepgramKey)
	case len(cfg.OpenAIKeys) > 0:
		stt = speech.NewOpenAIClient(cfg.OpenAIKeys, cfg.OpenAIBaseURL)
	}
	switch {
	case cfg.ElevenLabsKey != "":
		tts = speech.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenVoiceID)
	case len(cfg.OpenAIKeys) > 0:
		tts = speech.NewOpenAIClient(cfg.OpenAIKeys, cfg.OpenAIBaseURL)
	}

	// =========================================================================
	// TELEGRAM
	// =========================================================================

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}
	notifyInfra.SetBot(api)

	chatService := chats.NewService(botNames, blocks)
	botApp := telegram.NewBotApp(api, api.Self, telegram.Services{
		AI:        aiService,
		Translate: translate.NewService(completer, log),
		OCR:       ocr.NewService(completer, vision, log),
		Speech:    speech.NewService(stt, tts, log),
		Summary:   summary.NewService(completer, oneShot, pdfText, log),
		Images:    imagegen.NewService(s3, log, imageProvs...),
		Chats:     chatService,
		Journal:   journal,
		S3:        s3,
		Notifier:  notifier,
	}, log)

	if err := botApp.RegisterCommands(); err != nil {
		log.Warn("set bot commands", zap.Error(err))
	}

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	authService := domain.NewAuthService(cfg.AdminPassword, cfg.AuthSecret)
	var recordHandler *delivery.RecordHandler
	if journal != nil {
		recordHandler = delivery.NewRecordHandler(journal, log)
	}
	router := delivery.NewRouter(
		recordHandler,
		delivery.NewChatHandler(chatService, aiService, log),
		delivery.NewAuthHandler(authService),
		authService,
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	// =========================================================================
	// BACKGROUND JOBS
	// =========================================================================

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := aiService.EvictIdle(cfg.SessionIdle); n > 0 {
					log.Info("evicted idle sessions", zap.Int("count", n))
				}
			}
		}
	}()

	// =========================================================================
	// BOT LOOP
	// =========================================================================

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := api.GetUpdatesChan(u)

	botApp.Run(ctx, updates)
	api.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
