package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/cache"
	"github.com/vibast-solutions/ms-go-contacts/app/controller"
	contactsgrpc "github.com/vibast-solutions/ms-go-contacts/app/grpc"
	"github.com/vibast-solutions/ms-go-contacts/app/mail"
	"github.com/vibast-solutions/ms-go-contacts/app/metrics"
	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/app/router"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/app/storage"
	"github.com/vibast-solutions/ms-go-contacts/config"
	"github.com/vibast-solutions/ms-go-contacts/migrations"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	healthProbeInterval = 15 * time.Second
	shutdownTimeout     = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo) API and the gRPC health server for the contacts service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	if cfg.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
		logrus.Info("Database schema is up to date")
	}

	redisClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		logrus.WithError(err).Warn("Redis is unreachable, token revocation will not persist")
	}

	tokenOpts := []service.TokenOption{}
	if redisClient.Enabled() {
		tokenOpts = append(tokenOpts, service.WithRevocationStore(service.NewRedisRevocationStore(redisClient)))
	} else {
		logrus.Warn("REDIS_ADDR is not set, logout cannot revoke tokens")
	}
	tokens, err := service.NewTokenService(cfg.JWT, cfg.Tokens, tokenOpts...)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize token service")
	}

	m := metrics.New()

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.Mail.Enabled() {
		smtpMailer, err := mail.NewSMTPMailer(cfg.Mail)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize mailer")
		}
		mailer = smtpMailer
	} else {
		logrus.Warn("MAIL_SERVER is not set, emails will only be logged")
	}
	mailer = mail.NewInstrumentedMailer(mailer, m.EmailDeliveries)

	var avatars service.AvatarStorage
	if cfg.Avatar.Enabled() {
		s3Storage, err := storage.NewS3AvatarStorage(ctx, cfg.Avatar, m.AvatarUploads)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize avatar storage")
		}
		avatars = s3Storage
	} else {
		logrus.Warn("AVATAR_S3_BUCKET is not set, avatar uploads are disabled")
	}

	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	authService := service.NewUserAuthService(
		userRepo,
		service.NewBcryptHasher(cfg.Password.BcryptCost),
		tokens,
		mailer,
		cfg,
	)
	userService := service.NewUserService(userRepo, avatars, cfg.Avatar.MaxBytes)
	contactService := service.NewContactService(contactRepo)

	healthServer := contactsgrpc.NewHealthServer(db)
	go healthServer.Monitor(ctx, healthProbeInterval)

	e := newEcho()
	router.Register(e, router.Controllers{
		Auth:    controller.NewUserAuthController(authService),
		User:    controller.NewUserController(userService),
		Contact: controller.NewContactController(contactService),
		Health:  controller.NewHealthController(healthServer),
	}, router.Options{
		AuthMiddleware:   middleware.NewAuthMiddleware(authService),
		APIKeyMiddleware: middleware.NewAPIKeyMiddleware(cfg.Metrics.APIKey),
		Metrics:          m,
		MePerMinute:      cfg.RateLimit.MePerMinute,
		AvatarMaxBytes:   cfg.Avatar.MaxBytes,
	})

	errCh := make(chan error, 2)
	go func() { errCh <- startGRPCServer(ctx, cfg, healthServer) }()
	go func() { errCh <- startHTTPServer(cfg, e) }()

	select {
	case err := <-errCh:
		if err != nil {
			logrus.WithError(err).Error("Server stopped unexpectedly")
		}
	case <-ctx.Done():
		logrus.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
	logrus.Info("Contacts service stopped")
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	return e
}

func startHTTPServer(cfg *config.Config, e *echo.Echo) error {
	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func startGRPCServer(ctx context.Context, cfg *config.Config, healthServer *contactsgrpc.HealthServer) error {
	grpcAddr := net.JoinHostPort(cfg.GRPCHost, cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return err
	}

	grpcServer := contactsgrpc.NewServer(healthServer)
	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
	return grpcServer.Serve(lis)
}
