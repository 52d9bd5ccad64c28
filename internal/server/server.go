package server

import (
	"context"
	"errors"
	"time"

	"backend-hikinghelper/internal/auth"
	"backend-hikinghelper/internal/catalog"
	"backend-hikinghelper/internal/chat"
	"backend-hikinghelper/internal/config"
	"backend-hikinghelper/internal/db"
	"backend-hikinghelper/internal/goal"
	"backend-hikinghelper/internal/logging"
	"backend-hikinghelper/internal/preferences"
	"backend-hikinghelper/internal/stream"
	"backend-hikinghelper/internal/tiers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const (
	chatTripFailures = 5
	chatCooldown     = 30 * time.Second
)

var newGenerator = func(ctx context.Context, cfg config.Config) (chat.Generator, error) {
	gen, err := chat.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.ChatModel)
	if err != nil {
		return nil, err
	}
	return chat.NewBreakerGenerator(gen, chatTripFailures, chatCooldown), nil
}

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      db.Querier
	Redis   *redis.Client
	Stream  *stream.Hub
	Catalog *catalog.Provider
	Prefs   *preferences.Store
	Goals   *goal.Service
	Tiers   *tiers.Service
	Chat    *chat.Service
}

func NewServer(cfg config.Config, q db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      q,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient),
		Catalog: catalog.NewProviderFromDir(cfg.CatalogDir),
		Prefs:   preferences.NewStore(q, redisClient, cfg.PreferencesCacheTTL),
		Goals:   goal.NewService(q),
	}
	s.Tiers = tiers.NewService(s.Prefs, s.Catalog)
	s.Chat = chat.NewService(chatGenerator(cfg), s.Tiers)
	s.Chat.LimitPerUser(cfg.ChatRequestsPerMin)

	s.Prefs.OnChange(func(ctx context.Context, rec preferences.Record) {
		s.Stream.Notify(ctx, rec.UserID, stream.EventPreferencesUpdated)
	})
	s.Goals.OnChange(func(ctx context.Context, g goal.Goal, deleted bool) {
		eventType := stream.EventGoalUpdated
		if deleted {
			eventType = stream.EventGoalDeleted
		}
		s.Stream.Publish(ctx, stream.Event{Type: eventType, UserID: g.UserID, Data: fiber.Map{"goal_id": g.ID}})
	})

	registerRoutes(s)
	return s
}

// Start runs background work: cross-instance event fan-out and the initial
// catalog load. Both stop with ctx.
func (s *Server) Start(ctx context.Context) {
	go s.Stream.Run(ctx)
	go func() {
		snap, err := s.Catalog.Ensure(ctx, nil)
		if err != nil {
			logging.Error().Err(err).Msg("catalog preload failed")
			return
		}
		logging.Info().Int("trails", len(snap.Trails)).Msg("catalog ready")
	}()
}

func chatGenerator(cfg config.Config) chat.Generator {
	gen, err := newGenerator(context.Background(), cfg)
	if errors.Is(err, chat.ErrChatUnavailable) {
		logging.Info().Msg("chat assistant disabled: no API key")
		return nil
	}
	if err != nil {
		logging.Error().Err(err).Msg("chat assistant disabled")
		return nil
	}
	return gen
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "chat": s.Chat.Available()})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	preferences.RegisterRoutes(s.App.Group("/preferences"), s.Prefs, jwtMiddleware)
	tiers.RegisterRoutes(s.App.Group("/trails"), s.Tiers, s.Catalog, jwtMiddleware)
	goal.RegisterRoutes(s.App.Group("/goals"), s.Goals, s.Tiers, jwtMiddleware)
	chat.RegisterRoutes(s.App.Group("/chat"), s.Chat, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)
}

// errorHandler renders errors as {"error": message} and logs server faults.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logging.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", code).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
