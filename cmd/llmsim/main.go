package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llmsim/llmsim/internal/application"
	"github.com/llmsim/llmsim/internal/infrastructure/config"
	"github.com/llmsim/llmsim/internal/infrastructure/logger"
	"github.com/llmsim/llmsim/internal/interfaces/tui"
)

const (
	cliVersion = "0.1.0"
	cliName    = "llmsim"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   cliName,
		Short: "llmsim — OpenAI-compatible LLM API simulator",
		Long: "llmsim serves the Chat Completions, Responses, and OpenResponses APIs\n" +
			"with synthetic completions, realistic token pacing, fault injection,\n" +
			"and live statistics. No model is harmed in the process.",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the simulator HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().String("host", "", "listen host (overrides config)")
	serveCmd.Flags().IntP("port", "p", 0, "listen port (overrides config)")
	serveCmd.Flags().StringP("config", "c", "", "config file path")
	serveCmd.Flags().StringP("generator", "g", "", "content generator: lorem|echo|random|sequence|fixed:TEXT")
	serveCmd.Flags().IntP("target-tokens", "t", 0, "completion token target (overrides config)")
	serveCmd.Flags().Bool("tui", false, "show the live stats dashboard instead of logs")
	rootCmd.AddCommand(serveCmd)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented sample config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	})
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", cliName, cliVersion)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	useTUI, _ := cmd.Flags().GetBool("tui")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// CLI flags outrank file and environment.
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if gen, _ := cmd.Flags().GetString("generator"); gen != "" {
		cfg.Response.Generator = gen
	}
	if target, _ := cmd.Flags().GetInt("target-tokens"); target != 0 {
		cfg.Response.TargetTokens = target
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logCfg := logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: "stdout",
	}
	if useTUI {
		// The dashboard owns the terminal; keep zap quiet.
		logCfg.Level = "error"
		logCfg.OutputPath = "stderr"
	}
	log, err := logger.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	log.Info("Starting llmsim",
		zap.String("version", cliVersion),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.NewApp(cfg, configPath, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if useTUI {
		// Blocks until the user quits the dashboard; that doubles as
		// the shutdown signal.
		if err := tui.Run(app.Stats(), addr); err != nil {
			log.Error("TUI error", zap.Error(err))
		}
	} else {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("llmsim stopped")
	return nil
}
