package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/clinscribe/intake/internal/domain/auth"
	"github.com/clinscribe/intake/internal/domain/intake"
	"github.com/clinscribe/intake/internal/domain/normalizer"
	"github.com/clinscribe/intake/internal/domain/notes"
	"github.com/clinscribe/intake/internal/infra/clinicianrepo"
	"github.com/clinscribe/intake/internal/infra/config"
	"github.com/clinscribe/intake/internal/infra/embedder"
	"github.com/clinscribe/intake/internal/infra/intakerepo"
	"github.com/clinscribe/intake/internal/infra/intakestore"
	"github.com/clinscribe/intake/internal/infra/llm/chatgpt"
	notesqueue "github.com/clinscribe/intake/internal/infra/notes/queue"
	notesrepo "github.com/clinscribe/intake/internal/infra/notes/repo"
	notesstorage "github.com/clinscribe/intake/internal/infra/notes/storage"
	"github.com/clinscribe/intake/internal/infra/spellcheck"
	httpiface "github.com/clinscribe/intake/internal/interface/http"
)

func providePipeline(logger *slog.Logger) *normalizer.Pipeline {
	return normalizer.NewPipeline(spellcheck.NewCorrector(logger), logger)
}

func provideIntakeConfig(cfg *config.Config) intake.Config {
	return intake.Config{
		Model:               cfg.LLM.Model,
		EmbeddingModel:      cfg.LLM.EmbeddingModel,
		Temperature:         cfg.LLM.Temperature,
		QuestionPrompt:      cfg.Intake.QuestionPrompt,
		MaxQuestions:        cfg.Intake.MaxQuestions,
		CacheTTL:            cfg.Intake.CacheTTL,
		TrendingLimit:       cfg.Intake.TrendingLimit,
		SimilarityThreshold: cfg.Intake.SimilarityThreshold,
	}
}

func provideChatClient(cfg *config.Config, logger *slog.Logger) intake.ChatClient {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Info("llm api key not set, clarifying questions and remote embeddings disabled")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		logger.Error("failed to initialize llm client", "error", err)
		return nil
	}
	return client
}

func provideFallbackEmbedder() intake.Embedder {
	return embedder.NewDeterministic(32)
}

func provideIntakeRepository(cfg *config.Config, logger *slog.Logger) intake.Repository {
	pool := newPostgresPool(cfg.Intake.Postgres, logger)
	if pool == nil {
		logger.Info("intake postgres unavailable, using memory repository")
		return intakerepo.NewMemoryRepository()
	}
	logger.Info("intake postgres repository enabled")
	return intakerepo.NewPostgresRepository(pool)
}

func provideIntakeStore(cfg *config.Config, logger *slog.Logger) intake.Store {
	client := newValkeyClient(cfg.Intake.Valkey, logger)
	if client == nil {
		return intakestore.NewMemoryStore()
	}
	logger.Info("intake valkey store enabled", "addr", cfg.Intake.Valkey.Addr)
	return intakestore.NewValkeyStore(client, "intake")
}

func provideNotesConfig(cfg *config.Config) notes.Config {
	return notes.Config{MaxUploadBytes: cfg.Notes.MaxUploadBytes}
}

func provideNotesRepository(cfg *config.Config, logger *slog.Logger) notes.Repository {
	pool := newPostgresPool(cfg.Intake.Postgres, logger)
	if pool == nil {
		logger.Info("notes postgres unavailable, using memory repository")
		return notesrepo.NewMemoryRepository()
	}
	logger.Info("notes postgres repository enabled")
	return notesrepo.NewPostgresRepository(pool)
}

func provideNotesStorage(cfg *config.Config, logger *slog.Logger) notes.ObjectStorage {
	storageCfg := cfg.Notes.Storage
	if !storageCfg.Enabled {
		return notesstorage.NewMemoryStorage()
	}
	store, err := notesstorage.NewMinioStorage(
		storageCfg.Endpoint,
		storageCfg.AccessKey,
		storageCfg.SecretKey,
		storageCfg.Bucket,
		storageCfg.Region,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize object storage, using memory storage", "error", err)
		return notesstorage.NewMemoryStorage()
	}
	logger.Info("notes object storage enabled", "bucket", storageCfg.Bucket)
	return store
}

func provideNotesQueue(cfg *config.Config, logger *slog.Logger) notesqueue.HandlerQueue {
	client := newValkeyClient(cfg.Intake.Valkey, logger)
	if client == nil {
		return notesqueue.NewImmediateQueue(nil)
	}
	logger.Info("notes valkey queue enabled", "key", cfg.Notes.QueueKey)
	return notesqueue.NewValkeyQueue(client, cfg.Notes.QueueKey, logger)
}

// provideNotesService builds the note service and attaches it as the job handler.
func provideNotesService(cfg notes.Config, repo notes.Repository, storage notes.ObjectStorage, queue notesqueue.HandlerQueue, intakeSvc intake.Service, logger *slog.Logger) *notes.Service {
	svc := notes.NewService(cfg, repo, storage, queue, intakeSvc, logger)
	queue.SetHandler(noteJobHandler(svc, logger))
	return svc
}

func noteJobHandler(svc *notes.Service, logger *slog.Logger) notesqueue.Handler {
	return func(ctx context.Context, name string, payload map[string]any) {
		if name != "process_note" {
			logger.Warn("unknown job", "name", name)
			return
		}
		noteID, err := uuid.Parse(stringValue(payload["note_id"]))
		if err != nil {
			logger.Error("invalid note_id in job payload", "error", err)
			return
		}
		clinicianID := int64Value(payload["clinician_id"])
		if err := svc.ProcessNote(ctx, noteID, clinicianID); err != nil {
			logger.Error("note processing failed", "noteId", noteID, "error", err)
		}
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func int64Value(v any) int64 {
	switch typed := v.(type) {
	case int64:
		return typed
	case float64:
		return int64(typed)
	case json.Number:
		parsed, _ := typed.Int64()
		return parsed
	default:
		return 0
	}
}

func provideAuthConfig(cfg *config.Config, logger *slog.Logger) auth.Config {
	secret := cfg.Auth.Secret
	if secret == "" {
		// Tokens signed with an ephemeral secret do not survive restarts.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err == nil {
			secret = hex.EncodeToString(buf)
			logger.Warn("auth secret not configured, using ephemeral signing key")
		}
	}
	return auth.Config{
		Secret:          secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		SSO: auth.SSOConfig{
			Enabled:              cfg.Auth.SSO.Enabled,
			IssuerURL:            cfg.Auth.SSO.IssuerURL,
			ClientID:             cfg.Auth.SSO.ClientID,
			ClientSecret:         cfg.Auth.SSO.ClientSecret,
			RedirectURL:          cfg.Auth.SSO.RedirectURL,
			TokenEncryptionKey:   cfg.Auth.SSO.TokenEncryptionKey,
			PostLoginRedirectURL: cfg.Auth.SSO.PostLoginRedirectURL,
		},
	}
}

func provideAuthRepository(cfg *config.Config, logger *slog.Logger) auth.Repository {
	pool := newPostgresPool(cfg.Intake.Postgres, logger)
	if pool == nil {
		logger.Info("auth postgres unavailable, using memory repository")
		return clinicianrepo.NewMemoryRepository()
	}
	logger.Info("auth postgres repository enabled")
	return clinicianrepo.NewPostgresRepository(pool, logger)
}

func provideHandler(cfg *config.Config, pipeline *normalizer.Pipeline, intakeSvc intake.Service, notesSvc *notes.Service, authSvc auth.Service, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(pipeline, intakeSvc, notesSvc, authSvc, cfg.Auth.SSO.PostLoginRedirectURL, logger)
}

func newPostgresPool(pgCfg config.PostgresConfig, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(pgCfg.DSN)
	if dsn == "" {
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn", "error", err)
		return nil
	}
	if pgCfg.MaxConns > 0 {
		poolConfig.MaxConns = pgCfg.MaxConns
	}
	if pgCfg.MinConns > 0 {
		poolConfig.MinConns = pgCfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

func newValkeyClient(valkeyCfg config.ValkeyConfig, logger *slog.Logger) valkey.Client {
	if !valkeyCfg.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(valkeyCfg.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed", "error", err)
		client.Close()
		return nil
	}
	return client
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
