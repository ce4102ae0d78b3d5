// PDFasistant backend — entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/api"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/assistant"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/audit"
	domainauth "github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/domain/auth"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/config"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/eventbus"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/llm"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/sqlite"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/ratelimit"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/server"
	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("pdfassistant", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	configPath := fs.String("config", "", "Path to YAML config file (optional)")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(out, "usage: pdfassistant [-version] [-config path]") //nolint:errcheck
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if err := serve(*configPath); err != nil {
		log.Printf("fatal: %v", err)
		return 1
	}
	return 0
}

func serve(configPath string) error {
	cfg := config.Load()
	if configPath != "" {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Providers are constructed eagerly from the configured mode so
	// misconfiguration fails at startup, not on first request.
	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	db, err := sqlite.NewDB(cfg.SQLitePath)
	if err != nil {
		return err
	}
	if err := sqlite.Migrate(db); err != nil {
		db.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New()
	usage := audit.NewUsageService(db)
	go audit.NewRecorder(usage).Start(ctx, bus)

	deps := api.Deps{
		Assistant: assistant.NewService(provider, bus),
		Limiter:   ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitCapacity),
		Usage:     usage,
		Auth:      domainauth.NewService(db),
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Host
	srvCfg.Port = cfg.Port
	srv := server.NewServer(db, deps, srvCfg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildProvider constructs the provider chain for the configured mode.
func buildProvider(cfg config.Config) (llm.Provider, error) {
	deepseek := llm.NewDeepSeekProvider(cfg.DeepSeek.BaseURL, cfg.DeepSeek.APIKey, cfg.DeepSeek.Model)
	gemini := llm.NewGeminiProvider(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model)

	switch cfg.ProviderMode {
	case config.ModeDeepSeek:
		return deepseek, nil
	case config.ModeGemini:
		return gemini, nil
	case config.ModeFallback:
		return llm.NewFallbackProvider(deepseek, gemini), nil
	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.ProviderMode)
	}
}
