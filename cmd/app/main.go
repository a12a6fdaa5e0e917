package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BloggingApp/chirp-service/internal/config"
	"github.com/BloggingApp/chirp-service/internal/directory"
	"github.com/BloggingApp/chirp-service/internal/handler"
	"github.com/BloggingApp/chirp-service/internal/natsmq"
	"github.com/BloggingApp/chirp-service/internal/rabbitmq"
	"github.com/BloggingApp/chirp-service/internal/repository"
	"github.com/BloggingApp/chirp-service/internal/repository/postgres"
	"github.com/BloggingApp/chirp-service/internal/server"
	"github.com/BloggingApp/chirp-service/internal/service"
	"github.com/BloggingApp/chirp-service/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := loadEnv(); err != nil {
		logger.Sugar().Panicf("failed to load environment variables: %s", err.Error())
	}

	if err := initConfig(); err != nil {
		logger.Sugar().Panicf("failed to initialize yaml config: %s", err.Error())
	}

	shutdownTracer, err := telemetry.InitTracer(ctx, config.TelemetryConfig{
		Enabled:     viper.GetBool("otel.enabled"),
		Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName: "chirp-service",
		Env:         viper.GetString("app.env"),
	})
	if err != nil {
		logger.Sugar().Panicf("failed to initialize tracer: %s", err.Error())
	}

	dbConfig := config.DBConfig{
		Username: os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		DBName:   os.Getenv("POSTGRES_DATABASE"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("postgres.max_conns"),
	}
	db, err := postgres.DB(ctx, dbConfig)
	if err != nil {
		logger.Sugar().Panicf("failed to connect to postgres: %s", err.Error())
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		logger.Sugar().Panicf("failed to ping postgres: %s", err.Error())
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Sugar().Panicf("failed to migrate postgres: %s", err.Error())
	}
	logger.Info("Successfully connected to PostgreSQL")

	pingers := map[string]handler.Pinger{"postgres": db}

	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			logger.Sugar().Panicf("failed to instrument redis: %s", err.Error())
		}
		pong, err := rdb.Ping(ctx).Result()
		if err != nil {
			logger.Sugar().Panicf("failed to ping redis: %s", err.Error())
		}
		defer rdb.Close()
		logger.Sugar().Infof("Successfully connected to Redis: %s", pong)
	} else {
		logger.Warn("REDIS_ADDR is not set, concurrent posts by one author are not guarded")
	}

	repos := repository.New(db, rdb)
	if repos.Redis != nil {
		pingers["redis"] = repos.Redis.Default
	}

	publisher, closePublisher := initPublisher(logger, config.EventsConfig{
		Broker:             viper.GetString("events.broker"),
		RabbitMQConnString: os.Getenv("RABBITMQ_CONN_STRING"),
		NatsURL:            os.Getenv("NATS_URL"),
	})
	defer closePublisher()

	users := directory.New(logger, config.DirectoryConfig{
		API:       viper.GetString("directory.api"),
		SecretKey: os.Getenv("DIRECTORY_SECRET_KEY"),
		Timeout:   viper.GetDuration("directory.timeout"),
	})

	services := service.New(logger, repos, users, publisher, service.Options{
		GuardTTL: viper.GetDuration("guard.ttl"),
	})
	handlers := handler.New(services, logger, handler.Config{
		ClientOrigin: viper.GetString("client.origin"),
		SignInURL:    viper.GetString("client.sign_in_url"),
		AccessSecret: []byte(os.Getenv("ACCESS_SECRET")),
	}, pingers)

	srv := server.New(config.ServerConfig{
		Port:           viper.GetString("app.port"),
		Handler:        otelhttp.NewHandler(handlers.InitRoutes(), "chirp-service"),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second * 10,
		WriteTimeout:   time.Second * 10,
	})
	go func() {
		if err := srv.Run(); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}()

	logger.Sugar().Infof("Server started on port %s", viper.GetString("app.port"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down tracer: %s", err.Error())
	}
}

// initPublisher connects to the configured broker. A nil publisher disables events.
func initPublisher(logger *zap.Logger, cfg config.EventsConfig) (service.Publisher, func()) {
	switch cfg.Broker {
	case "rabbitmq":
		mq, err := rabbitmq.New(cfg.RabbitMQConnString)
		if err != nil {
			logger.Sugar().Panicf("failed to connect to rabbitmq: %s", err.Error())
		}
		logger.Info("Successfully connected to RabbitMQ")
		return mq, func() {
			if err := mq.Close(); err != nil {
				logger.Sugar().Errorf("failed to close rabbitmq connection: %s", err.Error())
			}
		}
	case "nats":
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			logger.Sugar().Panicf("failed to connect to nats: %s", err.Error())
		}
		logger.Info("Successfully connected to NATS")
		return natsmq.NewPublisher(nc), func() {
			if err := nc.Drain(); err != nil {
				logger.Sugar().Errorf("failed to drain nats connection: %s", err.Error())
			}
		}
	case "", "none":
		logger.Info("Post events are disabled")
		return nil, func() {}
	default:
		logger.Sugar().Panicf("unknown events broker: %s", cfg.Broker)
		return nil, nil
	}
}

func loadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func initConfig() error {
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "local")
	viper.SetDefault("events.broker", "none")
	viper.SetDefault("directory.api", "https://api.clerk.com/v1")
	viper.SetDefault("directory.timeout", 5*time.Second)
	viper.SetDefault("guard.ttl", service.DEFAULT_GUARD_TTL)
	viper.SetDefault("postgres.max_conns", 10)

	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	return viper.ReadInConfig()
}
