// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/healthcare-testgen/internal/compliance"
	"github.com/pdiddy/healthcare-testgen/internal/export"
	"github.com/pdiddy/healthcare-testgen/internal/fileproc"
	"github.com/pdiddy/healthcare-testgen/internal/generator"
	"github.com/pdiddy/healthcare-testgen/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Long: `Serve runs the HTTP API exposing uploads, generation, compliance
checks, exports, and integration pushes. The server drains connections
on SIGINT or SIGTERM before exiting.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	backend, cleanup, err := buildBackend(ctx, cfg, "")
	if err != nil {
		return err
	}
	defer cleanup()

	gen := generator.New(backend, cfg.AI, logger)
	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	gen.StartAt(stats.TestCases)

	srv := server.New(server.Deps{
		Store:     st,
		Files:     fileproc.New(cfg.FileProcessing, logger),
		Generator: gen,
		Checker:   compliance.New(backend, cfg.AI, logger),
		Exporter:  export.New(st, cfg.Export, logger),
		Config:    *cfg,
		Logger:    logger,
	})

	return srv.ListenAndServe(ctx, addr)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")

	rootCmd.AddCommand(serveCmd)
}
