package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/assistancekmy/sos-service/internal/cache"
	"github.com/assistancekmy/sos-service/internal/db"
	"github.com/assistancekmy/sos-service/internal/handlers"
	"github.com/assistancekmy/sos-service/internal/mailer"
	"github.com/assistancekmy/sos-service/internal/models"
	"github.com/assistancekmy/sos-service/internal/notifier"
	"github.com/assistancekmy/sos-service/internal/repository"
	"github.com/assistancekmy/sos-service/internal/router"
	"github.com/assistancekmy/sos-service/internal/router/config"
	"github.com/assistancekmy/sos-service/internal/security"
	"github.com/assistancekmy/sos-service/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("unable to connect to redis: %v", err)
	}
	defer redisClient.Close()

	demandeRepo := repository.NewPostgresDemandeRepository(dbPool)
	userRepo := repository.NewPostgresUserRepository(dbPool)

	hasher := security.NewBcryptHasher(0)
	tokenManager, err := security.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("error initializing token manager: %v", err)
	}

	if cfg.SeedUsers {
		seedUsers(userRepo, hasher, logger)
	}

	adminNotifier := initNotifier(cfg, logger)

	demandeService := services.NewDemandeService(demandeRepo, userRepo, adminNotifier, logger)
	authService := services.NewAuthService(userRepo, hasher, tokenManager, cache.NewSessionDenylist(redisClient))
	resetService := services.NewPasswordResetService(
		userRepo,
		hasher,
		cache.NewResetTokenStore(redisClient),
		&mailer.LogMailer{Logger: logger},
		logger,
		cfg.ResetTokenTTL,
		cfg.AppBaseURL)

	demandeHandler := handlers.NewDemandeHandler(demandeService, logger, 5*time.Second)
	authHandler := handlers.NewAuthHandler(authService, logger, 5*time.Second)
	resetHandler, err := handlers.NewResetHandler(resetService, logger, 5*time.Second)
	if err != nil {
		log.Fatalf("error initializing reset handler: %v", err)
	}
	authMW := handlers.NewAuthMiddleware(authService, logger)

	routes := router.InitRoutes(demandeHandler, authHandler, resetHandler, authMW)

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}

// initNotifier connects to RabbitMQ when configured and falls back to the
// log-only notifier otherwise. Alerts are best-effort either way.
func initNotifier(cfg config.Config, logger *log.Logger) notifier.Notifier {
	if cfg.RabbitMQURL == "" {
		logger.Println("RABBITMQ_URL not set, admin alerts will only be logged")
		return &notifier.LogNotifier{Logger: logger}
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	amqpNotifier, err := notifier.NewAMQPNotifier(conn, cfg.AMQPExchange)
	if err != nil {
		log.Fatalf("failed to initialize notifier: %v", err)
	}
	log.Println("connected to RabbitMQ")
	return amqpNotifier
}

// seedUsers creates the default admin and test accounts when they are absent.
func seedUsers(users repository.UserRepository, hasher *security.BcryptHasher, logger *log.Logger) {
	seeds := []struct {
		name     string
		email    string
		password string
		role     models.UserRole
	}{
		{"Admin KMY", "admin@assistancekmy.com", "password123", models.RoleAdmin},
		{"Test User", "user@test.com", "password123", models.RoleUser},
		{"Mobile Test", "mobile@test.com", "password", models.RoleUser},
	}

	ctx := context.Background()
	for _, seed := range seeds {
		hash, err := hasher.Hash(seed.password)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}
		if _, err := users.Create(ctx, seed.name, seed.email, hash, seed.role); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				continue
			}
			log.Fatalf("failed to seed user %s: %v", seed.email, err)
		}
		logger.Printf("seeded user %s (%s)", seed.email, seed.role)
	}
}
