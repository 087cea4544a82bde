package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dcarbon/emailpreview/internal/config"
	"github.com/dcarbon/emailpreview/internal/database"
	"github.com/dcarbon/emailpreview/internal/logger"
	"github.com/dcarbon/emailpreview/internal/metrics"
	"github.com/dcarbon/emailpreview/internal/models"
	"github.com/dcarbon/emailpreview/internal/server"
	"github.com/dcarbon/emailpreview/internal/services"
	"github.com/dcarbon/emailpreview/internal/version"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "api",
		Short:         "Email template preview server",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the preview HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(newRenderCmd())
	root.AddCommand(newAuditCmd())
	return root
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Debug, logger.RotatingOutput(cfg.LogDir))
	logger.Log().WithField("version", version.Full()).Infof("starting %s", version.Name)

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	srv, err := server.New(db, cfg, registry)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Log().Info("server stopped")
	return nil
}

func newRenderCmd() *cobra.Command {
	var key, documentID, status string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one template with sample data and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// stdout carries the JSON result.
			logger.Init(cfg.Debug, cmd.ErrOrStderr())

			svc, err := server.NewPreviewService(cfg, server.NewStoreClient(cfg))
			if err != nil {
				return err
			}
			id := models.TemplateIdentifier{TemplateKey: key, DocumentID: documentID}
			out, err := svc.Render(cmd.Context(), id, models.ParseContentState(status))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "template key")
	cmd.Flags().StringVar(&documentID, "document-id", "", "CMS document id (used when --key is empty)")
	cmd.Flags().StringVar(&status, "status", string(models.StateDraft), "content state: draft|published")
	return cmd
}

func newAuditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent preview gate decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Debug, cmd.ErrOrStderr())

			db, err := database.Connect(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			list, err := services.NewAuditService(db).Recent(limit)
			if err != nil {
				return fmt.Errorf("list audit: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
