package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-image-studio/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP API サーバーを起動します",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if listen == "" {
				listen = c.cfg.Listen
			}

			gen, err := c.newGenerator(c.httpClient())
			if err != nil {
				return err
			}
			hist, closeHist, err := c.openHistory(ctx)
			if err != nil {
				return err
			}
			defer closeHist()

			var enh server.PromptEnhancer
			if e, err := c.newEnhancer(ctx); err != nil {
				slog.WarnContext(ctx, "Gemini を利用できないため enhance/caption は無効です", "error", err)
			} else {
				enh = e
			}

			s, err := server.New(gen, enh, hist, server.Options{
				Presets:        c.presets(),
				Concurrency:    c.cfg.Filter.Concurrency,
				MaxUploadBytes: c.cfg.MaxUploadBytes(),
			})
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              listen,
				Handler:           s.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.InfoContext(ctx, "サーバーを起動します", "addr", listen)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("サーバーを停止します")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "待ち受けアドレス (省略時は設定値)")
	return cmd
}
