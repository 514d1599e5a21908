package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kayz/promptcraft/internal/ai"
	"github.com/kayz/promptcraft/internal/config"
	"github.com/kayz/promptcraft/internal/logger"
	"github.com/kayz/promptcraft/internal/persist"
	"github.com/kayz/promptcraft/internal/webui"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the studio web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default: from config)")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func aiClient(cfg *config.Config) (ai.Client, error) {
	apiKey := cfg.AI.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("PROMPTCRAFT_API_KEY")
	}
	return ai.New(ai.Config{
		Provider: cfg.AI.Provider,
		APIKey:   apiKey,
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := persist.NewStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.Seed(cmd.Context()); err != nil {
		return fmt.Errorf("seed starter library: %w", err)
	}

	port := servePort
	if port == 0 {
		port = cfg.Port
	}

	client, err := aiClient(cfg)
	if err != nil {
		return fmt.Errorf("create ai client: %w", err)
	}

	server := webui.NewServer(store, client)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("studio listening on http://127.0.0.1:%d", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
