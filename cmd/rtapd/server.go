package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rtapmon/pkg/bridge/foxglove"
	"rtapmon/pkg/config"
	"rtapmon/pkg/engine"
	"rtapmon/pkg/logger"
	"rtapmon/pkg/metrics"
	"rtapmon/pkg/protocol"
	"rtapmon/pkg/transport"
)

type serverOptions struct {
	addr   string
	log    string
	mock   bool
	mockHz int
}

func newServerCmd(root *rootOptions) *cobra.Command {
	opts := &serverOptions{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Accept sniffer connections and publish decoded captures",
		Long: `Listen for sniffer agents that push COBS-framed radiotap buffers over TCP.

Every decoded capture is written as one JSONL line (stdout or --log), sent to
Foxglove clients when [rtapd.foxglove] is enabled and counted on the metrics
endpoint when [rtapd.metrics] is enabled.

Examples:
  rtapd server --addr 0.0.0.0:19021
  rtapd server --mock --log captures.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "TCP listen address (overrides rtapd.server.addr)")
	cmd.Flags().StringVar(&opts.log, "log", "", "JSONL output path (default: stdout)")
	cmd.Flags().BoolVar(&opts.mock, "mock", false, "Publish synthetic radiotap frames instead of listening")
	cmd.Flags().IntVar(&opts.mockHz, "mock-hz", 20, "Synthetic frame rate for --mock")
	return cmd
}

func runServer(cmd *cobra.Command, root *rootOptions, opts *serverOptions) error {
	cfg, log, dec, err := loadRuntime(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.RTAPD.Server.Addr = opts.addr
	}
	readTimeout, err := cfg.ReadTimeout()
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(opts.log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := engine.NewHub(engine.WithBroadcastBuffer(cfg.RTAPD.Server.Buf))
	go hub.Run(ctx)

	jsonl := logger.NewJSONLWriter(out)
	go jsonl.Consume(ctx, hub.Subscribe(), func(err error) {
		log.Warn().Err(err).Msg("write jsonl record")
	})

	var m *metrics.Metrics
	if cfg.RTAPD.Metrics.Enabled {
		m, err = startMetrics(ctx, cfg.RTAPD.Metrics, hub, log)
		if err != nil {
			return err
		}
	}

	if cfg.RTAPD.Foxglove.Enabled {
		fox := foxglove.NewServer(foxglove.Config{
			WSAddr: cfg.RTAPD.Foxglove.WSAddr,
			Topic:  cfg.RTAPD.Foxglove.Topic,
		}, hub, log)
		go func() {
			if err := fox.Run(ctx); err != nil {
				log.Error().Err(err).Msg("foxglove bridge stopped")
			}
		}()
	}

	frames := make(chan transport.Frame, cfg.RTAPD.Server.Buf)
	var srv *transport.Server
	if opts.mock {
		log.Info().Int("hz", opts.mockHz).Msg("publishing mock radiotap frames")
		go runMockPublisher(ctx, frames, opts.mockHz)
	} else {
		srv, err = transport.Listen(ctx, cfg.RTAPD.Server.Addr, frames,
			transport.WithBufferSize(cfg.RTAPD.Server.ReaderBuf),
			transport.WithReadTimeout(readTimeout),
			transport.WithErrorHandler(func(err error) {
				log.Warn().Err(err).Msg("transport")
			}),
		)
		if err != nil {
			return err
		}
		log.Info().Str("addr", srv.Addr().String()).Msg("listening for sniffers")
	}

	runPipeline(ctx, frames, dec, hub, m, log)

	if srv != nil {
		srv.Wait()
	}
	log.Info().Uint64("dropped", hub.Dropped()).Msg("server stopped")
	return nil
}

// runPipeline decodes frames and publishes the captures until ctx is done.
func runPipeline(ctx context.Context, frames <-chan transport.Frame, dec protocol.Parser, hub *engine.Hub, m *metrics.Metrics, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-frames:
			c := dec.Decode(frame.Source, frame.Timestamp, frame.Data)
			m.Observe(c)
			if c.Err != nil {
				log.Debug().Err(c.Err).Str("source", c.Source).Int("fields", len(c.Fields)).Msg("radiotap decode failed")
			}
			if !hub.Publish(ctx, c) {
				return
			}
		}
	}
}

func startMetrics(ctx context.Context, cfg config.MetricsConfig, hub *engine.Hub, log zerolog.Logger) (*metrics.Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	m := metrics.New()
	m.TrackDropped(hub.Dropped)
	if err := m.Register(reg); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("metrics endpoint listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics endpoint stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	return m, nil
}
