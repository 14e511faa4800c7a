package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/plantona/plantona-api/internal/config"
	"github.com/plantona/plantona-api/internal/email"
	notificationHandler "github.com/plantona/plantona-api/internal/handler/notification"
	subscriptionHandler "github.com/plantona/plantona-api/internal/handler/subscription"
	"github.com/plantona/plantona-api/internal/push"
	"github.com/plantona/plantona-api/internal/repository/postgres"
	"github.com/plantona/plantona-api/internal/router"
	deliveryService "github.com/plantona/plantona-api/internal/service/delivery"
	discoveryService "github.com/plantona/plantona-api/internal/service/discovery"
	dispatchService "github.com/plantona/plantona-api/internal/service/dispatch"
	subscriptionService "github.com/plantona/plantona-api/internal/service/subscription"
	"github.com/plantona/plantona-api/pkg/logger"
	"github.com/plantona/plantona-api/pkg/metrics"
	"github.com/plantona/plantona-api/pkg/security"
	"github.com/plantona/plantona-api/pkg/worker"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("plantona_notifications")
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal(err, "failed to register metrics")
	}

	baseRepo := postgres.NewBaseRepository(db)
	prefRepo := postgres.NewPreferenceRepository(baseRepo)
	subRepo := postgres.NewSubscriptionRepository(baseRepo)

	var enc security.Encryptor
	if cfg.Security.EncryptionKey != "" {
		enc, err = security.NewEncryptorFromPassphrase(cfg.Security.EncryptionKey)
		if err != nil {
			log.Fatal(err, "failed to initialize encryptor")
		}
	}

	subSvc := subscriptionService.NewService(subRepo, enc)

	sender := push.NewWebPushSender(push.WebPushConfig{
		Subscriber:      cfg.Push.Subscriber,
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		TTL:             cfg.Push.TTL,
	})

	var emailSvc email.Service
	if cfg.SMTP.Enabled {
		emailSvc = email.NewService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	discoverySvc := discoveryService.NewService(
		prefRepo,
		time.Duration(cfg.Dispatch.WindowMinutes)*time.Minute,
		log,
	)
	deliverySvc := deliveryService.NewService(subSvc, sender, log, m)
	pool := worker.NewPool(cfg.Dispatch.Workers, log)
	dispatchSvc := dispatchService.NewService(deliverySvc, prefRepo, emailSvc, pool, log, m)

	notificationH := notificationHandler.NewHandler(discoverySvc, dispatchSvc, log)
	subscriptionH := subscriptionHandler.NewHandler(subSvc)

	r := router.NewRouter(notificationH, subscriptionH, router.Config{
		CronSecret: cfg.Cron.Secret,
		RateLimit:  rate.Limit(50),
		RateBurst:  100,
	}, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}
