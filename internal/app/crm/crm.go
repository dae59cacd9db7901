package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/school-crm/internal/cache"
	"github.com/magabrotheeeer/school-crm/internal/config"
	analyticshandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/analytics"
	applicationshandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/applications"
	authhandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/auth"
	cataloghandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/catalog"
	groupshandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/groups"
	healthhandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/health"
	notificationshandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/notifications"
	searchhandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/search"
	usershandler "github.com/magabrotheeeer/school-crm/internal/http/handlers/users"
	"github.com/magabrotheeeer/school-crm/internal/lib/jwt"
	"github.com/magabrotheeeer/school-crm/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/migrations"
	"github.com/magabrotheeeer/school-crm/internal/models"
	analyticsservice "github.com/magabrotheeeer/school-crm/internal/services/analytics"
	applicationservice "github.com/magabrotheeeer/school-crm/internal/services/application"
	authservice "github.com/magabrotheeeer/school-crm/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/school-crm/internal/services/catalog"
	groupservice "github.com/magabrotheeeer/school-crm/internal/services/group"
	notificationservice "github.com/magabrotheeeer/school-crm/internal/services/notification"
	searchservice "github.com/magabrotheeeer/school-crm/internal/services/search"
	userservice "github.com/magabrotheeeer/school-crm/internal/services/user"
	"github.com/magabrotheeeer/school-crm/internal/storage/repository"
)

// shutdownTimeout — время на завершение активных запросов.
const shutdownTimeout = 15 * time.Second

// App — HTTP API CRM с gRPC health‑сервером и планировщиком.
type App struct {
	server     *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	cron       *cron.Cron
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	conn       *amqp.Connection
	publisher  *rabbitmq.Publisher
}

// New подключает зависимости, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	const op = "app.crm.New"

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if a.db, err = repository.New(cfg.StorageConnectionString); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(a.db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if a.cache, err = cache.InitServer(ctx, cfg.RedisConnection); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(a.conn, rabbitmq.NotificationQueues())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.publisher = rabbitmq.NewPublisher(ch)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.AccessTTL, cfg.RefreshTTL)
	ttl := cfg.CacheTTL

	notificationService := notificationservice.New(a.db, a.publisher, logger)
	userService := userservice.New(a.db, notificationService, logger)
	authService := authservice.NewAuthService(a.db, a.db, notificationService, jwtMaker, authservice.Config{
		OTPTTL:     cfg.OTPTTL,
		OTPChannel: models.Channel(cfg.OTPChannel),
	}, logger)
	directionService := catalogservice.New[models.Direction](a.db.Directions(), a.cache, ttl, logger)
	groupService := groupservice.New(a.db, directionService, a.cache, logger)
	applicationService := applicationservice.New(a.db, a.cache, logger)
	analyticsService := analyticsservice.New(a.db, a.cache, ttl, logger)
	searchService := searchservice.New(a.db)

	a.cron = cron.New()
	if _, err = authService.SchedulePurge(ctx, a.cron, cfg.OTPPurgeSchedule); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	timesService := catalogservice.New[models.Times](a.db.Times(), a.cache, ttl, logger)
	groupStatusService := catalogservice.New[models.GroupStatus](a.db.GroupStatuses(), a.cache, ttl, logger)
	sourceService := catalogservice.New[models.Source](a.db.Sources(), a.cache, ttl, logger)
	rejectionReasonService := catalogservice.New[models.RejectionReason](a.db.RejectionReasons(), a.cache, ttl, logger)

	h := Handlers{
		Auth:             authhandler.New(logger, authService),
		Users:            usershandler.New(logger, userService),
		Directions:       cataloghandler.New[models.Direction](logger, "directions", directionService),
		Times:            cataloghandler.New[models.Times](logger, "times", timesService),
		GroupStatuses:    cataloghandler.New[models.GroupStatus](logger, "group-status", groupStatusService),
		Sources:          cataloghandler.New[models.Source](logger, "source", sourceService),
		RejectionReasons: cataloghandler.New[models.RejectionReason](logger, "rejection-reason", rejectionReasonService),
		Groups:           groupshandler.New(logger, groupService),
		Applications:     applicationshandler.New(logger, applicationService),
		Analytics:        analyticshandler.New(logger, analyticsService),
		Search:           searchhandler.New(logger, searchService),
		Notifications:    notificationshandler.New(logger, notificationService),
		Health:           healthhandler.New(logger, a.checks()),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, h, RouteConfig{
		Tokens:        jwtMaker,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if a.listener, err = net.Listen("tcp", cfg.AddressGRPC); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.health = health.NewServer()
	a.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(a.grpcServer, a.health)

	return a, nil
}

func (a *App) checks() map[string]healthhandler.Pinger {
	return map[string]healthhandler.Pinger{
		"postgres": a.db,
		"redis":    a.cache,
		"rabbitmq": healthhandler.PingFunc(func(context.Context) error {
			if a.conn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}),
	}
}

// Run запускает HTTP и gRPC серверы и планировщик до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()
	go func() {
		a.logger.Info("gRPC health service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()
	a.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	a.cron.Start()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
	}

	a.logger.Info("shutting down gracefully")
	a.health.Shutdown()
	<-a.cron.Stop().Done()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := a.server.Shutdown(timeoutCtx); shutdownErr != nil {
		err = errors.Join(err, shutdownErr)
	}
	a.grpcServer.GracefulStop()
	a.close()
	return err
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database", sl.Err(err))
		}
	}
}
