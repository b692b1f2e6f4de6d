package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/bookkit/internal/api"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live proofreading reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), input)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "chapters directory")
	cmd.Flags().StringVar(&a.cfg.Addr, "addr", a.cfg.Addr, "listen address")
	cmd.Flags().StringVar(&a.cfg.Checks, "checks", a.cfg.Checks, "all or a comma list of structure,code,images,style")
	cmd.Flags().StringVar(&a.cfg.RulesPath, "rules", a.cfg.RulesPath, "rules YAML file replacing the built-in rules")
	cmd.Flags().StringVar(&a.cfg.Pattern, "pattern", a.cfg.Pattern, "chapter file glob relative to the input directory")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) runServe(ctx context.Context, dir string) error {
	runner, opts, err := a.newRunner(dir)
	if err != nil {
		return err
	}
	srv := api.NewServer(runner, opts, a.cfg.APIToken, a.log)

	httpServer := &http.Server{
		Addr:         a.cfg.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		a.log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	a.log.Info("starting bookkit preview", "addr", a.cfg.Addr, "dir", dir, "auth", a.cfg.APIToken != "")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
