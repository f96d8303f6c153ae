// Package main provides the booth entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/app/filter"
	"github.com/osa030/19booth/internal/app/kiosk"
	"github.com/osa030/19booth/internal/infra/camera"
	"github.com/osa030/19booth/internal/infra/command"
	"github.com/osa030/19booth/internal/infra/config"
	"github.com/osa030/19booth/internal/infra/display"
	"github.com/osa030/19booth/internal/infra/logger"
	"github.com/osa030/19booth/internal/infra/printer"
	"github.com/osa030/19booth/internal/infra/userio"
)

var (
	app        = kingpin.New("19booth", "19booth photo booth kiosk")
	configPath = app.Flag("config", "Path to config file").Default("config/booth.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listFiltersCmd  = app.Command("list-filters", "List available filters and exit")
	listBackendsCmd = app.Command("list-backends", "List available backends and exit")
	checkConfigCmd  = app.Command("check-config", "Validate the config file and exit")
)

func init() {
	app.Command("start", "Start the booth (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch cmd {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listBackendsCmd.FullCommand():
		printBackends()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closeLog()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if cmd == checkConfigCmd.FullCommand() {
		if err := kiosk.Check(cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("Config OK")
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Booth error: %v", err)
		closeLog()
		os.Exit(1)
	}
}

// run executes the main booth logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	if err := kiosk.Check(cfg); err != nil {
		return err
	}

	k, err := kiosk.New(cfg, kiosk.Backends{})
	if err != nil {
		return errors.Wrap(err, "failed to assemble booth")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	executeHooks(cfg.Booth.Hooks.OnStarted, "on_started")
	defer executeHooks(cfg.Booth.Hooks.OnStopped, "on_stopped")

	zlog.Info().Msg("Booth started")
	if err := k.Run(ctx); err != nil {
		return errors.Wrap(err, "booth stopped with error")
	}
	zlog.Info().Msg("Booth stopped")
	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.Names() {
		f := registry[name]()
		fmt.Printf("  %-12s - %s\n", f.Name(), f.Description())
	}
	fmt.Println("Filters can be chained with '+', e.g. gotham+border.")
}

// printBackends prints the backend ids accepted in the config.
func printBackends() {
	groups := []struct {
		name string
		ids  []string
	}{
		{"camera.backend_id", camera.Registered()},
		{"io.backend_id", userio.Registered()},
		{"display.backend", display.Registered()},
		{"print.transports[].type", printer.Registered()},
		{"filters.engine", []string{"imagemagick"}},
	}
	for _, g := range groups {
		fmt.Printf("%s:\n", g.name)
		for _, id := range g.ids {
			fmt.Printf("  %s\n", id)
		}
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	runner := command.Exec{Timeout: 30 * time.Second}
	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		if err := command.Shell(context.Background(), runner, hook); err != nil {
			zlog.Error().Msgf("Hook failed: %s: %v", hook, err)
		}
	}
}
