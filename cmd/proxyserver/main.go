// Command proxyserver is the forward HTTP caching proxy's host program: it
// owns the CLI surface, wires the resolver/cache/engine together, and
// drives graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vlakam/ProxyServer/internal/config"
	"github.com/vlakam/ProxyServer/internal/metrics"
	"github.com/vlakam/ProxyServer/internal/netlog"
	"github.com/vlakam/ProxyServer/internal/proxy"
	"github.com/vlakam/ProxyServer/internal/rcache"
	"github.com/vlakam/ProxyServer/internal/resolver"
)

func main() {
	cfg := config.Default()

	root := &cobra.Command{
		Use:   "proxyserver",
		Short: "A forward HTTP/1.x caching proxy",
		Long: `proxyserver accepts client connections, resolves the requested host, and
forwards requests to the origin, caching ETag-validated responses and
transparently revalidating them on repeat requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	cfg.BindFlags(root.Flags())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := netlog.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	logger.Info("listening", zap.String("addr", ln.Addr().String()))

	res := resolver.New(cfg.ResolverPool, cfg.DNSCacheSize, logger)
	defer res.Close()

	cache := rcache.New(cfg.ResponseCache)

	m := metrics.New(prometheus.DefaultRegisterer)

	engineCfg := proxy.DefaultConfig()
	engineCfg.IdleTimeout = cfg.IdleTimeout
	engineCfg.ConnectTimeout = cfg.ConnectTimeout

	engine := proxy.NewEngine(ln, res, cache, engineCfg, logger, m)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	err = engine.Serve(ctx)

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), engineCfg.ConnectTimeout)
		_ = metricsSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	logger.Info("shut down")
	return err
}
