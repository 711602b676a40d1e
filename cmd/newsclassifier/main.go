package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"NewsClassifier/internal/app"
	"NewsClassifier/internal/config"
	"NewsClassifier/internal/logging"
)

const usage = `usage:
  newsclassifier run [-input news.csv] [-output processed.csv]
  newsclassifier watch`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	command := "run"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	var run func(*app.Application) error
	switch command {
	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		input := fs.String("input", cfg.Input.Path, "CSV file with Headline, Date and Article columns")
		output := fs.String("output", cfg.Output.Path, "CSV file for classified results")
		_ = fs.Parse(args)
		run = func(application *app.Application) error {
			_, err := application.Run(ctx, *input, *output)
			return err
		}
	case "watch":
		run = func(application *app.Application) error {
			return application.Watch(ctx)
		}
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	logger.Info("starting financial news classification", "command", command, "provider", cfg.Model.Provider, "model", cfg.Model.Model)
	if err := run(application); err != nil {
		logger.Error("application stopped", "error", err)
		_ = application.Close()
		os.Exit(1)
	}
	logger.Info("processing completed")
}
