package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/deskflow/helpdesk/internal/api/http"
	"github.com/deskflow/helpdesk/internal/api/http/handlers"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/chatbot"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/persistence"
	"github.com/deskflow/helpdesk/internal/platform/mail"
	"github.com/deskflow/helpdesk/internal/platform/queue"
	"github.com/deskflow/helpdesk/internal/platform/realtime"
	"github.com/deskflow/helpdesk/internal/platform/storage"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/repository/memory"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/internal/worker"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

// repos is the set of repositories the services run on.
type repos struct {
	users         repository.UserRepository
	departments   repository.DepartmentRepository
	categories    repository.CategoryRepository
	solutions     repository.SolutionRepository
	tickets       repository.TicketRepository
	notifications repository.NotificationRepository
	availability  repository.AvailabilityRepository
	stats         repository.StatsRepository
	tx            repository.TxManager
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := map[string]handlers.Pinger{"postgres": nil, "redis": nil}

	var r repos
	if cfg.Postgres.DSN != "" {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}

		pool := pg.PoolHandle()
		r = repos{
			users:         repository.NewUserRepository(pool),
			departments:   repository.NewDepartmentRepository(pool),
			categories:    repository.NewCategoryRepository(pool),
			solutions:     repository.NewSolutionRepository(pool),
			tickets:       repository.NewTicketRepository(pool),
			notifications: repository.NewNotificationRepository(pool),
			availability:  repository.NewAvailabilityRepository(pool),
			stats:         repository.NewStatsRepository(pool),
			tx:            repository.NewTxManager(pool),
		}
		health["postgres"] = pg

		if cfg.Redis.Enabled() {
			redis := persistence.NewRedis(ctx, cfg.Redis, logger)
			defer redis.Close()
			r.categories = repository.NewCachedCategoryRepository(r.categories, redis.Client, cfg.Redis.CacheTTL(), logger)
			health["redis"] = redis
		}
	} else {
		logger.Warn("POSTGRES_DSN not set; using in-memory storage")
		store := memory.NewStore()
		r = repos{
			users:         store.Users(),
			departments:   store.Departments(),
			categories:    store.Categories(),
			solutions:     store.Solutions(),
			tickets:       store.Tickets(),
			notifications: store.Notifications(),
			availability:  store.Availability(),
			stats:         store.Stats(),
			tx:            store.TxManager(),
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	hub := realtime.NewHub(logger)

	mailer, closeMail := buildMailer(ctx, cfg, logger)
	defer closeMail()

	objects := buildObjectStore(ctx, cfg, logger)

	var generator chatbot.Generator
	if cfg.Chatbot.LLMURL != "" {
		generator = chatbot.NewOllamaGenerator(cfg.Chatbot.LLMURL, cfg.Chatbot.LLMModel, cfg.Chatbot.Timeout())
		logger.Info("chatbot escalation enabled", zap.String("model", cfg.Chatbot.LLMModel))
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:       r.users,
		DepartmentRepo: r.departments,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: r.tickets,
		UserRepo:   r.users,
		TxManager:  r.tx,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     r.tickets,
		UserRepo:       r.users,
		DepartmentRepo: r.departments,
		CategoryRepo:   r.categories,
		Assignment:     assignmentService,
		TxManager:      r.tx,
		Dispatcher:     dispatcher,
		ObjectStore:    objects,
		URLExpiry:      cfg.Storage.URLExpiry(),
		Logger:         logger,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		DepartmentRepo: r.departments,
		CategoryRepo:   r.categories,
		SolutionRepo:   r.solutions,
		TxManager:      r.tx,
		Logger:         logger,
	})
	chatbotService := service.NewChatbotService(service.ChatbotDependencies{
		CategoryRepo: r.categories,
		SolutionRepo: r.solutions,
		Generator:    generator,
		Logger:       logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: r.notifications,
		UserRepo:         r.users,
		Pusher:           hub,
		Mailer:           mailer,
		Logger:           logger,
		Config:           cfg.Notification,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		StatsRepo:      r.stats,
		UserRepo:       r.users,
		DepartmentRepo: r.departments,
		Logger:         logger,
	})
	availabilityService := service.NewAvailabilityService(service.AvailabilityDependencies{
		AvailabilityRepo: r.availability,
		UserRepo:         r.users,
		TxManager:        r.tx,
		Logger:           logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:       r.users,
		DepartmentRepo: r.departments,
		ObjectStore:    objects,
		URLExpiry:      cfg.Storage.URLExpiry(),
		Logger:         logger,
	})

	var sink *events.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := events.NewKafkaClient(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			logger.Fatal("failed to create kafka client", zap.Error(err))
		}
		defer client.Close()
		sink = events.NewKafkaSink(client, cfg.Kafka.Topic, logger)
	}
	worker.StartNotificationWorker(notificationService, dispatcher, sink)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), r.users)
	v := validation.New()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitMB * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, health),
		Auth:           handlers.NewAuthHandler(authService, v),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService, v),
		Catalog:        handlers.NewCatalogHandler(catalogService, assignmentService, v),
		Chatbot:        handlers.NewChatbotHandler(chatbotService, v),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Realtime:       handlers.NewRealtimeHandler(hub, authMiddleware, logger),
		Stats:          handlers.NewStatsHandler(statsService),
		Availability:   handlers.NewAvailabilityHandler(availabilityService, v),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildMailer picks the email path. With RabbitMQ configured, notifications
// are queued and an in-process worker drains the queue into SMTP (or the log).
// Without it, mail is sent from a buffered goroutine.
func buildMailer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (mail.Sender, func()) {
	var transport mail.Sender = mail.NewLogSender(logger)
	if cfg.SMTP.Host != "" {
		transport = mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.Notification.EmailFrom)
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := queue.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.EmailQueue)
		if err != nil {
			logger.Fatal("failed to connect rabbitmq publisher", zap.Error(err))
		}
		consumer, err := queue.NewRabbitConsumer(cfg.RabbitMQ.URL, logger, cfg.RabbitMQ.EmailQueue)
		if err != nil {
			logger.Fatal("failed to connect rabbitmq consumer", zap.Error(err))
		}
		emailWorker := worker.NewEmailWorker(consumer, cfg.RabbitMQ.EmailQueue, transport, logger)
		go func() {
			if err := emailWorker.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("email worker stopped", zap.Error(err))
			}
		}()
		return mail.NewQueueSender(publisher, cfg.RabbitMQ.EmailQueue), func() {
			publisher.Close()
			consumer.Close()
		}
	}

	async := mail.NewAsyncSender(transport, cfg.Notification.EmailQueueSize, logger)
	return async, async.Close
}

func buildObjectStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) storage.ObjectStore {
	if cfg.Storage.Endpoint == "" {
		logger.Warn("MINIO_ENDPOINT not set; attachments kept in memory")
		return storage.NewMemoryStorage()
	}
	store, err := storage.NewMinioStorage(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL)
	if err != nil {
		logger.Fatal("failed to create minio client", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal("failed to ensure bucket", zap.Error(err))
	}
	return store
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
