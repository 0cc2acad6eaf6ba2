package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reserva/internal/access"
	"reserva/internal/activity"
	"reserva/internal/api"
	"reserva/internal/booking"
	"reserva/internal/cache"
	"reserva/internal/config"
	"reserva/internal/database"
	"reserva/internal/events"
	"reserva/internal/metrics"
	"reserva/internal/models"
	"reserva/internal/notify"
	"reserva/internal/report"
	"reserva/internal/repository"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default $RESERVA_CONFIG_PATH or configs/config.yaml)")
	issueFor := flag.String("issue-token", "", "print a bearer token for this user id and exit")
	issueRole := flag.String("role", string(models.RoleClient), "role of the issued token")
	issueTTL := flag.Duration("ttl", 24*time.Hour, "lifetime of the issued token")
	flag.Parse()

	_ = godotenv.Load(".env")

	logger := newLogger(true, "info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg.Logging.Pretty, cfg.Logging.Level)

	if cfg.HTTP.JWTSecret == "" {
		logger.Fatal().Msg("set http.jwt_secret in config")
	}
	auth := api.NewAuthenticator(cfg.HTTP.JWTSecret)

	if *issueFor != "" {
		tok, err := auth.IssueToken(*issueFor, models.Role(*issueRole), *issueTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("issue token")
		}
		fmt.Println(tok)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store repository.Store
		db    *database.DB
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		store = repository.NewMemoryStore()
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
	default:
		db, err = database.NewDB(cfg.Storage.Path, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("open db error")
		}
		store = db
	}
	defer store.Close()

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.MetricsAddr(), &logger)
	}

	bus := events.NewEventBus(logger)
	opts := []booking.Option{
		booking.WithActivity(activity.NewRecorder(store, logger)),
		booking.WithEvents(bus),
	}

	var availability *cache.AvailabilityCache
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		availability = cache.NewAvailabilityCache(rdb, cfg.CacheTTL(), logger)
		opts = append(opts, booking.WithCache(availability))
	}

	var notifier *notify.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.BotToken != "YOUR_BOT_TOKEN_HERE" {
		bot, err := notify.NewBot(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("create bot error")
		}
		bot.Debug = cfg.Telegram.Debug

		perSecond, burst := cfg.NotifyRate()
		notifier = notify.NewNotifier(bot, notify.Config{
			ChatIDs:   cfg.Managers,
			PerSecond: perSecond,
			Burst:     burst,
			QueueSize: cfg.Telegram.QueueSize,
		}, logger)
		notifier.Subscribe(bus)
		go notifier.Run(ctx)
	}

	svc := booking.NewService(store, logger, opts...)
	if notifier != nil && cfg.Telegram.Digest {
		notifier.StartDigest(ctx, svc, cfg.DigestHour())
	}

	if cfg.Seed.Path != "" {
		watcher := config.NewSeedWatcher(cfg.Seed.Path, cfg.SeedWatchInterval(), func(ctx context.Context, s *config.Seed) error {
			return svc.ApplySeed(ctx, s.RoomModels(), s.ClientModels())
		}, logger)
		if err := watcher.Load(ctx); err != nil {
			logger.Fatal().Err(err).Msg("apply seed")
		}
		go watcher.Run(ctx)
	}

	if db != nil {
		backup := database.NewBackupService(db, database.BackupConfig{
			Enabled:       cfg.Backup.Enabled,
			Interval:      cfg.BackupInterval(),
			StoragePath:   cfg.BackupPath(),
			RetentionDays: cfg.Backup.RetentionDays,
		}, logger)
		go backup.Start(ctx)
	}

	if cfg.Report.Enabled {
		var exporter report.TableExporter = report.NewStoreExporter(store)
		if db != nil {
			exporter = db
		}
		var sender report.DocumentSender
		if cfg.Report.SendToManagers && notifier != nil {
			sender = notifier
		}
		reports := report.NewService(report.Config{Dir: cfg.Report.Dir, ExportOnStart: cfg.Report.ExportOnStart}, exporter, sender, logger)
		go reports.Start(ctx)
	}

	go startHealthServer(ctx, cfg.HealthAddr(), store, availability, &logger)

	server := api.NewHTTPServer(cfg.HTTPAddr(), svc, access.NewService(logger), auth, logger)
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("storage", cfg.Storage.Backend).Msg("reserva started")
	if err := server.Start(); err != nil {
		logger.Error().Err(err).Msg("api server error")
		stop()
	}
	<-ctx.Done()
	logger.Info().Msg("reserva stopped")
}

func newLogger(pretty bool, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func startHealthServer(ctx context.Context, addr string, store repository.Store, availability *cache.AvailabilityCache, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := store.Ping(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if availability != nil {
			if err := availability.Ping(ctxPing); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	serve(ctx, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "health", logger)
}

func startMetricsServer(ctx context.Context, addr string, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serve(ctx, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "metrics", logger)
}

func serve(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msgf("%s server error", name)
	}
}
