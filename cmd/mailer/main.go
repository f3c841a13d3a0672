package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtg-lucifer/sahotsava-be/internal/config"
	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/mailer"
	"github.com/dtg-lucifer/sahotsava-be/internal/models"
	"github.com/dtg-lucifer/sahotsava-be/internal/rabbitmq"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad(*configPath)

	log := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	log.Info("starting mailer", slog.String("env", cfg.Env))

	broker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer broker.Close()

	m := &mailer.Mailer{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		err := broker.StartReading(ctx, func(body []byte) {
			var msg models.Message
			if err := json.Unmarshal(body, &msg); err != nil {
				log.Error("failed to unmarshal message", sl.Err(err))
				return
			}

			err := m.Send(msg.Email, "Verify your email", "Follow the link to verify your email: "+msg.Link)
			if err != nil {
				log.Error("failed to send mail", sl.Err(err))
				return
			}

			log.Info("mail sent")
		})
		if err != nil {
			log.Error("consumer stopped", sl.Err(err))
		}
	}()

	log.Info("consumer started")

	select {
	case <-ctx.Done():
		log.Info("shutting down mailer...")
	case <-done:
		log.Info("consumer finished")
	}

	log.Info("mailer stopped")
}
