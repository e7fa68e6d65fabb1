package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/traincheck/internal/config"
	"github.com/example/traincheck/internal/logging"
	"github.com/example/traincheck/internal/registry"
	"github.com/example/traincheck/internal/server"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	optionsPath := flag.String("config", "", "Path to a training options file to validate")
	schemaDir := flag.String("schemas", "", "Directory of architecture schema documents (default: built-in)")
	serveAddr := flag.String("serve", "", "Run the validation HTTP API on this address instead of validating a file")
	watch := flag.Bool("watch", false, "Keep running and revalidate the options file on every change")
	format := flag.String("format", "text", "Report format: text or json")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("traincheck %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	reg, err := loadRegistry(*schemaDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load architecture schemas: %v\n", err)
		os.Exit(2)
	}

	switch {
	case *serveAddr != "":
		runServer(*serveAddr, reg)
	case *optionsPath == "":
		fmt.Fprintln(os.Stderr, "either -config or -serve is required")
		flag.Usage()
		os.Exit(2)
	case *watch:
		runWatch(reg, *optionsPath, *format)
	default:
		result, err := config.NewLoader(reg).Load(*optionsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load options: %v\n", err)
			os.Exit(2)
		}
		printReport(result, *format)
		if !result.Valid() {
			os.Exit(1)
		}
	}
}

func loadRegistry(dir string) (*registry.Registry, error) {
	if dir != "" {
		return registry.LoadDir(dir)
	}
	return registry.Default()
}

func runServer(addr string, reg *registry.Registry) {
	srv := server.New(addr, reg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("Starting validation server",
			zap.String("version", version),
			zap.String("addr", addr),
			zap.Strings("architectures", reg.Names()),
		)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("validation server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down validation server")
		return srv.Shutdown(30 * time.Second)
	})

	if err := g.Wait(); err != nil {
		logging.Error("Shutdown error", zap.Error(err))
		os.Exit(2)
	}
}

func runWatch(reg *registry.Registry, optionsPath, format string) {
	watcher, err := config.NewWatcher(config.NewLoader(reg), optionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to watch options: %v\n", err)
		os.Exit(2)
	}
	defer watcher.Stop()

	printReport(watcher.LastResult(), format)
	watcher.OnChange(func(result *config.Result) {
		printReport(result, format)
	})
	if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start watcher: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	<-ctx.Done()
}

func printReport(result *config.Result, format string) {
	if format == "json" {
		report := map[string]any{
			"architecture": result.Architecture,
			"valid":        result.Valid(),
			"violations":   result.Violations,
		}
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
		return
	}

	if result.Valid() {
		fmt.Printf("%s: configuration is valid\n", result.Architecture)
		return
	}
	fmt.Printf("%s: %d violation(s)\n", result.Architecture, len(result.Violations))
	for _, v := range result.Violations {
		fmt.Printf("  %s\n", v)
		for _, cause := range v.Causes {
			fmt.Printf("    caused by: %s\n", cause)
		}
	}
}
