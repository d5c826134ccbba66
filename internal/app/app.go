package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cradoe/onboard/internal/cache"
	"github.com/cradoe/onboard/internal/config"
	"github.com/cradoe/onboard/internal/device"
	"github.com/cradoe/onboard/internal/env"
	"github.com/cradoe/onboard/internal/errHandler"
	"github.com/cradoe/onboard/internal/file"
	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/helper"
	"github.com/cradoe/onboard/internal/metrics"
	"github.com/cradoe/onboard/internal/otp"
	"github.com/cradoe/onboard/internal/progress"
	"github.com/cradoe/onboard/internal/repository"
	"github.com/cradoe/onboard/internal/smtp"
	"github.com/cradoe/onboard/internal/stage"
	"github.com/cradoe/onboard/internal/stream"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items and when they need them
type Application struct {
	Config       config.Config
	Logger       *slog.Logger
	Mailer       smtp.MailerInterface
	Medium       progress.Medium
	Metrics      *metrics.Metrics
	Registry     *prometheus.Registry
	Kafka        *stream.KafkaStream
	FileUploader *file.FileUploader
	Devices      *device.Registry
	Stages       *stage.Service
	Helper       *helper.HelperRepository
	errorHandler *errHandler.ErrorRepository
	closers      []io.Closer
}

// LoadConfig reads configuration from the environment, after an optional
// .env file.
func LoadConfig(logger *slog.Logger) config.Config {
	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file loaded", "error", err.Error())
	}

	var cfg config.Config

	// Default values are provided for these items and these should strictly be values for development mode only
	// make sure no production-level value is exposed as default value here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Storage.Driver = strings.ToLower(env.GetString("STORAGE_DRIVER", StorageMemory))

	cfg.Redis.Addr = env.GetString("REDIS_ADDR", "localhost:6379")
	cfg.Redis.DB = env.GetInt("REDIS_DB", 0)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db?sslmode=disable")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Mongo.URI = env.GetString("MONGO_URI", "mongodb://localhost:27017")
	cfg.Mongo.Database = env.GetString("MONGO_DATABASE", "onboard")

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")
	cfg.Jwt.TTL = env.GetDuration("JWT_TTL", 30*24*time.Hour)

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "Example Name <no_reply@example.org>")

	cfg.FileUploader.ApiKey = env.GetString("CLOUDINARY_API_KEY", "")
	cfg.FileUploader.CloudName = env.GetString("CLOUDINARY_CLOUD_NAME", "")
	cfg.FileUploader.ApiSecret = env.GetString("CLOUDINARY_API_SECRET", "")

	// the event stream and its worker are off unless KAFKA_SERVERS is set
	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "")

	cfg.Otp.EmailCode = env.GetString("OTP_EMAIL_CODE", "123456")
	cfg.Otp.MobileCode = env.GetString("OTP_MOBILE_CODE", "654321")
	cfg.Otp.SendDelay = env.GetDuration("OTP_SEND_DELAY", 600*time.Millisecond)

	cfg.Password.Hashing = env.GetBool("PASSWORD_HASHING", false)
	cfg.Cors.AllowedOrigins = env.GetList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	cfg.NameSyncDelay = env.GetDuration("NAME_SYNC_DELAY", flow.DefaultNameSyncDelay)
	cfg.Devices.IdleTTL = env.GetDuration("DEVICE_IDLE_TTL", 30*time.Minute)

	return cfg
}

func NewApplication(cfg config.Config, logger *slog.Logger) (*Application, error) {
	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.New(app.Registry)

	medium, err := app.openMedium()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Driver, err)
	}
	app.Medium = medium

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	app.Mailer = mailer

	app.Helper = helper.New(cfg.BaseURL, nil, logger)
	app.errorHandler = errHandler.New(cfg.Notifications.Email, mailer, logger, app.Helper)

	var uploader stage.Uploader = stage.DataURLUploader{}
	if cfg.Uploads() {
		fileUploader, err := file.New(cfg.FileUploader.CloudName, cfg.FileUploader.ApiKey, cfg.FileUploader.ApiSecret, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize file uploader: %w", err)
		}
		app.FileUploader = fileUploader
		uploader = fileUploader
	}

	var publisher flow.Publisher
	if cfg.KafkaServers != "" {
		kafkaStream, err := stream.New(cfg.KafkaServers, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize event stream: %w", err)
		}
		app.Kafka = kafkaStream
		publisher = kafkaStream
	}

	var passwords stage.PasswordScheme = stage.PlaintextPasswords{}
	if cfg.Password.Hashing {
		passwords = stage.HashedPasswords{}
	}

	app.Stages = stage.New(stage.Options{
		Passwords: passwords,
		Uploader:  uploader,
		Metrics:   app.Metrics,
		Logger:    logger,
	})

	app.Devices = device.New(device.Options{
		Medium:        medium,
		Logger:        logger,
		Metrics:       app.Metrics,
		Publisher:     publisher,
		NameSyncDelay: cfg.NameSyncDelay,
		IdleTTL:       cfg.Devices.IdleTTL,
		OTP: otp.Options{
			Codes:      otp.Codes{Email: cfg.Otp.EmailCode, Mobile: cfg.Otp.MobileCode},
			SendDelay:  cfg.Otp.SendDelay,
			Mailer:     mailer,
			Background: app.Helper.BackgroundTask,
			Logger:     logger,
		},
	})

	return app, nil
}

func (app *Application) openMedium() (progress.Medium, error) {
	cfg := app.Config

	switch cfg.Storage.Driver {
	case StorageMemory:
		return progress.NewMemoryMedium(), nil

	case StorageRedis:
		c := cache.New(cfg.Redis.Addr, cfg.Redis.DB, 0)
		app.closers = append(app.closers, c)
		return c, nil

	case StoragePostgres:
		db, err := repository.NewPostgres(cfg.Db.Dsn, cfg.Db.Automigrate)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db)
		return db, nil

	case StorageMongo:
		m, err := repository.NewMongo(cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, m)
		return m, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Close releases everything NewApplication opened. Pending background tasks
// are waited for first.
func (app *Application) Close() {
	if app.Devices != nil {
		app.Devices.Close()
	}
	if app.Helper != nil {
		app.Helper.Wait()
	}
	if app.Kafka != nil {
		app.Kafka.Close()
	}

	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.Logger.Warn("failed to close resource", "error", err.Error())
		}
	}
}
