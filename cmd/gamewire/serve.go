package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/metrics"
	"github.com/vango-dev/gamewire/pkg/session"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port   int
		host   string
		echo   bool
		record bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket session server",
		Long: `Accept WebSocket sessions and decode every frame with the catalog.

Each decoded message is logged. With --echo it is encoded again and
sent back, which lets a peer check that its own encoder and ours agree.
With --record (or capture.record in the config) every inbound frame is
stored in the capture store for later 'gamewire capture verify'.

Examples:
  gamewire serve
  gamewire serve --port=9000 --echo
  gamewire serve --record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configDir)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if record {
				cfg.Capture.Record = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := cfg.Logger(cmd.ErrOrStderr())
			if cfg.Name != "" {
				logger = logger.With("deployment", cfg.Name)
			}

			promReg := prometheus.NewRegistry()
			promReg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			collector := metrics.New(metrics.WithRegistry(promReg))
			reg := newRegistry(cfg, logger, messages.WithObserver(collector))

			opts := []session.Option{
				session.WithLogger(logger),
				session.WithMetrics(collector, promReg),
				session.WithWriteTimeout(cfg.WriteTimeout()),
				session.WithMaxFrameSize(cfg.Codec.MaxFrameSize),
				session.WithPaths(cfg.Server.WebSocketPath, cfg.Server.MetricsPath),
				session.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
			}
			if cfg.Capture.Record {
				store, closer, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer closer.Close()
				opts = append(opts, session.WithRecorder(store))
				logger.Info("recording captures", "backend", cfg.Capture.Backend)
			}

			handler := session.HandlerFunc(func(ctx context.Context, c *session.Conn, msg messages.Message) error {
				logger.Debug("message", "remote", c.RemoteAddr(), "name", reg.Name(msg.Opcode()))
				if echo {
					return c.Send(ctx, msg)
				}
				return nil
			})
			srv := session.NewServer(reg, handler, opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg.Address(), srv, logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVar(&echo, "echo", false, "Send every decoded message back to its sender")
	cmd.Flags().BoolVar(&record, "record", false, "Store every inbound frame in the capture store")

	return cmd
}

// run serves until ctx ends, then drains sessions.
func run(ctx context.Context, addr string, srv *session.Server, log *slog.Logger) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
