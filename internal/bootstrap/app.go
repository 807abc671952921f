package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "bill-assistant/internal/auth"
	"bill-assistant/internal/chat"
	"bill-assistant/internal/documents"
	"bill-assistant/internal/extract"
	"bill-assistant/internal/extraction"
	"bill-assistant/internal/llm"
	"bill-assistant/internal/llm/gemini"
	"bill-assistant/internal/llm/openai"
	"bill-assistant/internal/services/health"
	"bill-assistant/internal/shared/config"
	"bill-assistant/internal/shared/server"
	"bill-assistant/internal/shared/storage/cache"
	"bill-assistant/internal/shared/storage/db"
	"bill-assistant/internal/shared/storage/object"
	localstore "bill-assistant/internal/shared/storage/object/local"
	s3store "bill-assistant/internal/shared/storage/object/s3"
	"bill-assistant/internal/users"
)

// App holds shared dependencies and the configured router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Cache             *cache.RedisTranscripts
	Text              *extract.Acquirer
	DocumentsRepo     documents.Repo
	ExtractionRepo    extraction.Repo
	ChatRepo          chat.Repo
	UsersRepo         users.Repo
	DocumentsService  *documents.Service
	ExtractionService *extraction.Service
	ChatService       *chat.Service
	UsersService      *users.Service
	DocumentsHandler  *documents.Handler
	ExtractionHandler *extraction.Handler
	ChatHandler       *chat.Handler
	UsersHandler      *users.Handler
	GoogleAuth        *googleauth.GoogleService
	Health            *health.Service
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	transcripts, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Cache:  transcripts,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		DocumentHandler:   app.DocumentsHandler,
		ExtractionHandler: app.ExtractionHandler,
		ChatHandler:       app.ChatHandler,
		UserHandler:       app.UsersHandler,
		GoogleAuth:        app.GoogleAuth,
		Health:            app.Health,
	})

	return app, nil
}

// Close releases the database pool and the cache connection.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildCache(ctx context.Context, cfg config.Config) (*cache.RedisTranscripts, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil, nil
	}
	c, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.TranscriptCacheTTL)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: redis unavailable; transcripts will not be cached: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// BuildLLM returns the configured provider client, or the placeholder when
// the provider is disabled or has no credentials.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{}, nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			log.Printf("bootstrap: OPENAI_API_KEY empty; model calls will fail")
			return llm.PlaceholderClient{}, nil
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			log.Printf("bootstrap: GEMINI_API_KEY empty; model calls will fail")
			return llm.PlaceholderClient{}, nil
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, "")
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// BuildTextAcquirer wires PDF reading, the lazily started OCR engine and the
// optional transcript cache.
func BuildTextAcquirer(cfg config.Config, transcripts extract.TranscriptCache) *extract.Acquirer {
	binary := cfg.TesseractPath
	if binary == "" {
		binary = "tesseract"
	}
	lang := cfg.OCRLang
	if lang == "" {
		lang = "eng"
	}
	return &extract.Acquirer{
		OCR:        extract.NewOCRHandle(extract.TesseractFactory(extract.ExecRunner{}, binary, lang)),
		Cache:      transcripts,
		OCRTimeout: cfg.OCRTimeout,
	}
}

func buildServices(ctx context.Context, app *App) error {
	var (
		docRepo        documents.Repo
		extractionRepo extraction.Repo
		chatRepo       chat.Repo
		userRepo       users.Repo
	)

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		extractionRepo = &extraction.PGRepo{DB: app.DB}
		chatRepo = &chat.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		memExtraction := extraction.NewMemoryRepo()
		memChat := chat.NewMemoryRepo()
		extractionRepo = memExtraction
		chatRepo = memChat
		docRepo = documents.NewMemoryRepo(memChat, memExtraction)
		userRepo = users.NewMemoryRepo()
	}

	model, err := BuildLLM(ctx, app.Config)
	if err != nil {
		return err
	}

	var transcripts extract.TranscriptCache
	if app.Cache != nil {
		transcripts = app.Cache
	}
	app.Text = BuildTextAcquirer(app.Config, transcripts)

	docSvc := &documents.Service{
		Store:          app.Store,
		Repo:           docRepo,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}
	extractionSvc := &extraction.Service{
		Docs:        docSvc,
		Store:       app.Store,
		Text:        app.Text,
		LLM:         llm.Instrumented{Next: model, Operation: "extraction", Timeout: app.Config.LLMTimeout},
		Repo:        extractionRepo,
		Temperature: app.Config.ExtractionTemperature,
	}
	chatSvc := &chat.Service{
		Docs:         docSvc,
		Records:      extractionRepo,
		Repo:         chatRepo,
		LLM:          llm.Instrumented{Next: model, Operation: "chat", Timeout: app.Config.LLMTimeout},
		Temperature:  app.Config.ChatTemperature,
		HistoryLimit: app.Config.ChatHistoryLimit,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.DocumentsRepo = docRepo
	app.ExtractionRepo = extractionRepo
	app.ChatRepo = chatRepo
	app.UsersRepo = userRepo
	app.DocumentsService = docSvc
	app.ExtractionService = extractionSvc
	app.ChatService = chatSvc
	app.UsersService = userSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ExtractionHandler = extraction.NewHandler(extractionSvc)
	app.ChatHandler = chat.NewHandler(chatSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	checks := map[string]health.Check{}
	if app.DB != nil {
		checks["database"] = app.DB.PingContext
	}
	if app.Cache != nil {
		checks["redis"] = app.Cache.Ping
	}
	app.Health = health.NewService(checks)

	return nil
}
