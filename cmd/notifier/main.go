package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/booking-notifier/internal/api/handlers/notification"
	"github.com/aliskhannn/booking-notifier/internal/api/router"
	"github.com/aliskhannn/booking-notifier/internal/api/server"
	"github.com/aliskhannn/booking-notifier/internal/config"
	"github.com/aliskhannn/booking-notifier/internal/dispatcher"
	"github.com/aliskhannn/booking-notifier/internal/dispatcher/channels"
	"github.com/aliskhannn/booking-notifier/internal/model"
	"github.com/aliskhannn/booking-notifier/internal/rabbitmq/consumer"
	notifrepo "github.com/aliskhannn/booking-notifier/internal/repository/notification"
	notifsvc "github.com/aliskhannn/booking-notifier/internal/service/notification"
	"github.com/aliskhannn/booking-notifier/pkg/email"
	"github.com/aliskhannn/booking-notifier/pkg/sms"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()
	val := validator.New()

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.Database.DSN(), nil, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	repo := notifrepo.NewRepository(db)

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.Database)
	if err = rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	var emailSender channels.EmailSender
	if cfg.Email.Enabled {
		emailSender = email.NewClient(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.From,
		)
	}

	var smsSender channels.SMSSender
	if cfg.SMS.Enabled {
		smsSender = sms.NewClient(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.From)
	}

	disp := dispatcher.New(map[model.Channel]dispatcher.ChannelHandler{
		model.ChannelEmail: channels.NewEmailHandler(emailSender),
		model.ChannelSMS:   channels.NewSMSHandler(smsSender),
	})

	service := notifsvc.NewService(repo, disp, rdb, cfg.Retry)

	manager := consumer.NewManager(
		cfg.RabbitMQ.URL(),
		cfg.RabbitMQ.Queue,
		cfg.RabbitMQ.ReconnectDelay,
		service.ProcessMessage,
	)

	consumerDone := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(consumerDone)
	}()

	notifHandler := notification.NewHandler(service, val, db.Master)

	r := router.New(notifHandler)
	s := server.New(cfg.Server.HTTPPort, r)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	// The consumer closes its channel and connection in order on its way out.
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Printf("failed to close master DB: %v", err)
	}
}
