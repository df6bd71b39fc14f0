package main

import (
	"context"
	"fmt"
	"mediabot/internal/adapters/storage/memory"
	"mediabot/internal/adapters/storage/postgres"
	"mediabot/internal/adapters/storage/sqlite"
	"mediabot/internal/adapters/transport/discord"
	"mediabot/internal/adapters/transport/telegram"
	"mediabot/internal/core/config"
	"mediabot/internal/core/domain/command"
	"mediabot/internal/core/port"
	"mediabot/internal/core/registry"
	"mediabot/internal/core/service"
	"mediabot/internal/integration/downforacross"
	"mediabot/internal/integration/openrouter"
	"mediabot/internal/integration/youtube"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"
)

type (
	transportFactory   func(options map[string]string) (port.Transport, error)
	storeFactory       func(options map[string]string) (port.Store, error)
	integrationFactory func(options map[string]string) (port.Integration, error)
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Error().Err(err).Msg("mediabot failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 || args[0] != "run" {
		return fmt.Errorf("usage: mediabot run [flags] <config.toml>")
	}

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	logLevel := flags.String("log-level", "", "override the configured log level")
	logFormat := flags.String("log-format", "json", "log output format, json or console")

	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	if flags.NArg() != 1 {
		return fmt.Errorf("usage: mediabot run [flags] <config.toml>")
	}

	// Secrets referenced as ${VAR} in the config file may live in a local
	// .env; its absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(flags.Arg(0))
	if err != nil {
		return err
	}

	if err := setupLogging(cfg.Bot.LogLevel, *logLevel, *logFormat); err != nil {
		return err
	}

	bot, err := wire(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Bot.MetricsAddress != "" {
		go serveMetrics(cfg.Bot.MetricsAddress)
	}

	log.Info().
		Str("transport", cfg.Transport.Name).
		Str("storage", cfg.Storage.Name).
		Msg("starting mediabot")

	if err := bot.Start(ctx); err != nil {
		return err
	}

	log.Info().Msg("mediabot stopped")

	return nil
}

func setupLogging(configured, override, format string) error {
	level := configured
	if override != "" {
		level = override
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zerolog.SetGlobalLevel(parsed)

	switch format {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	case "json":
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	return nil
}

// wire registers every built-in component, then constructs the ones the
// config enables and assembles the orchestrator from them.
func wire(cfg *config.Config) (*service.Bot, error) {
	transports := registry.New[transportFactory]("transport")
	transports.MustRegister(discord.Name, func(options map[string]string) (port.Transport, error) {
		return discord.New(options)
	})
	transports.MustRegister(telegram.Name, func(options map[string]string) (port.Transport, error) {
		return telegram.New(options)
	})

	stores := registry.New[storeFactory]("storage")
	stores.MustRegister(memory.Name, func(options map[string]string) (port.Store, error) {
		return memory.New(options)
	})
	stores.MustRegister(sqlite.Name, func(options map[string]string) (port.Store, error) {
		return sqlite.New(options)
	})
	stores.MustRegister(postgres.Name, func(options map[string]string) (port.Store, error) {
		return postgres.New(options)
	})

	integrations := registry.New[integrationFactory]("integration")
	integrations.MustRegister(youtube.Name, func(options map[string]string) (port.Integration, error) {
		return youtube.New(options)
	})
	integrations.MustRegister(downforacross.Name, func(options map[string]string) (port.Integration, error) {
		return downforacross.New(options)
	})
	integrations.MustRegister(openrouter.Name, func(options map[string]string) (port.Integration, error) {
		return openrouter.New(options)
	})

	commands := registry.New[port.CommandDefinition]("command")
	for _, def := range command.Definitions() {
		if err := commands.Register(def.Name, def); err != nil {
			return nil, err
		}
	}

	transport, err := build(transports, cfg.Transport)
	if err != nil {
		return nil, err
	}

	store, err := build(stores, cfg.Storage)
	if err != nil {
		return nil, err
	}

	deps := make(port.Integrations, len(cfg.Integrations))
	for _, descriptor := range cfg.Integrations {
		deps[descriptor.Name], err = build(integrations, descriptor)
		if err != nil {
			return nil, err
		}
	}

	var opts []service.BotOption
	if cfg.Bot.RateLimit > 0 {
		opts = append(opts, service.WithRateLimit(rate.Limit(cfg.Bot.RateLimit), cfg.Bot.RateBurst))
	}

	return service.NewBot(transport, store, deps, commands, opts...)
}

// build looks the descriptor's factory up in its registry and runs it.
func build[T any, F ~func(map[string]string) (T, error)](factories *registry.Registry[F], descriptor config.Descriptor) (T, error) {
	var zero T

	factory, err := factories.Get(descriptor.Name)
	if err != nil {
		return zero, err
	}

	built, err := factory(descriptor.Options)
	if err != nil {
		return zero, fmt.Errorf("building %q: %w", descriptor.Name, err)
	}

	return built, nil
}

func serveMetrics(address string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Info().Str("address", address).Msg("metrics listener running")

	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil {
		log.Error().Err(err).Msg("metrics listener failed")
	}
}
