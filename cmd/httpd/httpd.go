// Package httpd implements the command that serves the enrichment API.
package httpd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/enrichment/cmd/common"
	"github.com/jonesrussell/north-cloud/enrichment/internal/api"
)

// Command returns the httpd command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "httpd",
		Short: "Serve the enrichment HTTP API",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	cmd.Flags().String("address", "", "listen address (default :8060)")
	if err := viper.BindPFlag(common.KeyAddress, cmd.Flags().Lookup("address")); err != nil {
		panic(fmt.Sprintf("bind address flag: %v", err))
	}
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	deps, err := common.NewDeps(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Logger.Sync() }()

	server := api.NewServer(api.Config{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBatch:        cfg.Server.MaxBatch,
		Version:         common.Version,
		Debug:           viper.GetBool(common.KeyDebug),
	}, deps.Orchestrator(), deps.Registry, deps.Logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
