package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"audio-summarizer/internal/config"
	"audio-summarizer/internal/engine"
	"audio-summarizer/internal/jobs"
	"audio-summarizer/internal/llm"
	"audio-summarizer/internal/logger"
	"audio-summarizer/internal/preference"
	"audio-summarizer/internal/queue"
	"audio-summarizer/internal/store"
	"audio-summarizer/internal/transcriber"
	"audio-summarizer/internal/uploads"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config      config.Config
	Log         *slog.Logger
	Store       store.Store
	Queue       queue.Queue // nil when QUEUE_PROVIDER=none
	Preferences preference.Store
	Models      llm.ModelLister // nil when REMOTE_PROVIDER=none
	Engine      *engine.Engine
	Jobs        *jobs.Service
	Uploads     *uploads.Dir

	nc *nats.Conn
}

// Build loads env, config, and shared components.
func Build(ctx context.Context) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Deps{}, err
	}

	// Opened before any connection so a bad UPLOAD_DIR leaves nothing to close.
	up, err := uploads.Open(cfg.UploadDir)
	if err != nil {
		return Deps{}, err
	}

	remote, err := buildRemote(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize remote summarizer: %w", err)
	}
	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, nc, err := buildQueue(cfg, log)
	if err != nil {
		_ = st.Close()
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}

	tr := transcriber.New(transcriber.Config{
		Interpreter: cfg.TranscriberInterpreter,
		Script:      cfg.TranscriberScript,
		WorkDir:     cfg.TranscriberWorkDir,
		Timeout:     cfg.TranscriberTimeout,
	}, log)

	deps := Deps{
		Config:      cfg,
		Log:         log,
		Store:       st,
		Queue:       q,
		Preferences: buildPreferences(cfg, log),
		Uploads:     up,
		nc:          nc,
	}
	if remote != nil {
		deps.Models = remote
	}
	deps.Engine = engine.New(tr, remote, log)
	deps.Jobs = jobs.NewService(deps.Engine, st, q, log)
	return deps, nil
}

// Close releases connections opened by Build.
func (d Deps) Close() {
	if d.Preferences != nil {
		if err := d.Preferences.Close(); err != nil {
			d.Log.Warn("failed to close preference store", "err", err)
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Log.Warn("failed to close job store", "err", err)
		}
	}
	if d.nc != nil {
		d.nc.Close()
	}
}

// buildRemote returns a nil client for REMOTE_PROVIDER=none.
func buildRemote(ctx context.Context, cfg config.Config, log *slog.Logger) (llm.Client, error) {
	opts := llm.Options{
		APIKey:       cfg.RemoteAPIKey,
		BaseURL:      cfg.RemoteBaseURL,
		DefaultModel: cfg.RemoteModel,
		Timeout:      cfg.RemoteTimeout,
	}
	switch cfg.RemoteProvider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		log.Info("using Gemini remote summarizer", "model", cfg.RemoteModel, "base_url", cfg.RemoteBaseURL)
		return client, nil
	case config.ProviderOpenAI:
		client, err := llm.NewOpenAIClient(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI remote summarizer", "model", cfg.RemoteModel)
		return client, nil
	default:
		log.Info("remote summarizer disabled; remote requests fall back to the local summary")
		return nil, nil
	}
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case config.ProviderPostgres:
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres job store")
		return db, nil
	default:
		log.Info("using in-memory job store")
		return store.NewMemory(), nil
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, *nats.Conn, error) {
	switch cfg.QueueProvider {
	case config.ProviderNATS:
		nc, err := queue.Connect(cfg.QueueURL, "audio-summarizer")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nc, nil
	default:
		return nil, nil, nil
	}
}

// buildPreferences falls back to process memory when Redis is unreachable.
func buildPreferences(cfg config.Config, log *slog.Logger) preference.Store {
	if cfg.PreferenceStore == config.ProviderRedis {
		rs, err := preference.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		if err == nil {
			log.Info("using Redis preference store", "addr", cfg.RedisAddr)
			return rs
		}
		log.Warn("Redis unavailable, keeping preferences in memory", "err", err)
	}
	return preference.NewMemoryStore(cfg.SessionTTL)
}
