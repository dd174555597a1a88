// queuepoll binds a queue and drains it in a polling loop, logging every
// message it receives. It is the reference host for the transitq client:
// bounded-wait receives yield between iterations, and an access-denied
// outcome goes through the fatal policy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vvsvvt/transitq"
	"github.com/vvsvvt/transitq/internal/config"
	"github.com/vvsvvt/transitq/messaging"
)

func main() {
	configPath := flag.String("config", "transitq.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "queuepoll: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	client, err := transitq.NewClient(cfg.Broker.URL,
		transitq.WithLogger(logger),
		transitq.WithWaitTimeout(cfg.WaitTimeout()),
		transitq.WithPollInterval(cfg.PollInterval()),
		transitq.WithPurgeOnStartup(cfg.Queue.PurgeOnStartup),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Bind(ctx, cfg.Queue.Name); err != nil {
		return err
	}

	fatal := messaging.NewFatalPolicy(messaging.WithFatalLogger(logger))
	logger.Info("polling queue", "queue", cfg.Queue.Name)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		default:
		}

		msg, err := client.Receive(ctx, true)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if fatal.Handle(err) {
				return err
			}
			logger.Error("receive failed", "queue", cfg.Queue.Name, "error", err)
			continue
		}
		if msg == nil {
			// Wait timeout elapsed with an empty queue; poll again.
			continue
		}

		logger.Info("message received",
			"messageId", msg.ID,
			"correlationId", msg.IDForCorrelation,
			"intent", msg.Intent.String(),
			"bodyBytes", len(msg.Body),
			"returnAddress", msg.ReturnAddress,
		)
	}
}
