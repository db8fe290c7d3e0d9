package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chatlink/chatlink-server/internal/app"
	"github.com/chatlink/chatlink-server/internal/config"
	"github.com/chatlink/chatlink-server/internal/log"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "chatlink-server",
		Short:        "Real-time chat server with rooms, presence and typing indicators",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	bootLogger := log.New("info")

	cfg, cfgPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		return err
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", cfgPath).Str("addr", cfg.Addr).Msg("starting chatlink server")

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
