package devnode

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/USA-RedDragon/germ-rpctest/internal/metrics"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	ipv4Server        *http.Server
	ipv6Server        *http.Server
	metricsIPV4Server *http.Server
	metricsIPV6Server *http.Server
	stopped           atomic.Bool
	config            *config.Config
}

const defTimeout = 120 * time.Second

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: defTimeout,
		WriteTimeout:      defTimeout,
		Handler:           handler,
	}
}

// NewRouter builds the gin engine serving node.
func NewRouter(config *config.Config, node *Node) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	if config.DevNode.PProf.Enabled {
		pprof.Register(r)
	}

	applyMiddleware(r, config, "devnode", node)
	applyRoutes(r)
	return r
}

func NewServer(config *config.Config, node *Node, metrics *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	if config.DevNode.PProf.Enabled {
		gin.SetMode(gin.DebugMode)
	}

	r := NewRouter(config, node)

	s := &Server{config: config}
	s.ipv4Server = newHTTPServer(fmt.Sprintf("%s:%d", config.DevNode.IPV4Host, config.DevNode.Port), r)
	if config.DevNode.IPV6Host != "" {
		s.ipv6Server = newHTTPServer(fmt.Sprintf("[%s]:%d", config.DevNode.IPV6Host, config.DevNode.Port), r)
	}

	if config.DevNode.Metrics.Enabled && metrics != nil {
		metricsRouter := gin.New()
		applyMiddleware(metricsRouter, config, "metrics", node)
		metricsRouter.GET("/metrics", gin.WrapH(metrics.Handler()))

		s.metricsIPV4Server = newHTTPServer(fmt.Sprintf("%s:%d", config.DevNode.Metrics.IPV4Host, config.DevNode.Metrics.Port), metricsRouter)
		if config.DevNode.Metrics.IPV6Host != "" {
			s.metricsIPV6Server = newHTTPServer(fmt.Sprintf("[%s]:%d", config.DevNode.Metrics.IPV6Host, config.DevNode.Metrics.Port), metricsRouter)
		}
	}

	return s
}

type listener struct {
	name     string
	server   *http.Server
	listener net.Listener
}

// Start listens on every configured address before serving any of them, so a
// failed listen leaves nothing running.
func (s *Server) Start() error {
	targets := []struct {
		name    string
		network string
		server  *http.Server
	}{
		{"HTTP IPv4", "tcp4", s.ipv4Server},
		{"HTTP IPv6", "tcp6", s.ipv6Server},
		{"Metrics IPv4", "tcp4", s.metricsIPV4Server},
		{"Metrics IPv6", "tcp6", s.metricsIPV6Server},
	}

	listeners := make([]listener, 0, len(targets))
	for _, target := range targets {
		if target.server == nil {
			continue
		}
		l, err := net.Listen(target.network, target.server.Addr)
		if err != nil {
			for _, opened := range listeners {
				_ = opened.listener.Close()
			}
			return fmt.Errorf("%s listen on %s: %w", target.name, target.server.Addr, err)
		}
		listeners = append(listeners, listener{name: target.name, server: target.server, listener: l})
	}

	for _, l := range listeners {
		go func() {
			if err := l.server.Serve(l.listener); err != nil && !s.stopped.Load() {
				slog.Error(l.name+" server error", "error", err.Error())
			}
		}()
	}

	slog.Info("Simulated node started", "ipv4", s.config.DevNode.IPV4Host, "ipv6", s.config.DevNode.IPV6Host, "port", s.config.DevNode.Port)
	if s.metricsIPV4Server != nil || s.metricsIPV6Server != nil {
		slog.Info("Metrics server started", "ipv4", s.config.DevNode.Metrics.IPV4Host, "ipv6", s.config.DevNode.Metrics.IPV6Host, "port", s.config.DevNode.Metrics.Port)
	}
	return nil
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 240*time.Second)
	defer cancel()

	s.stopped.Store(true)

	errGrp := errgroup.Group{}
	for _, server := range []*http.Server{s.ipv4Server, s.ipv6Server, s.metricsIPV4Server, s.metricsIPV6Server} {
		if server == nil {
			continue
		}
		errGrp.Go(func() error {
			return server.Shutdown(ctx)
		})
	}

	return errGrp.Wait()
}
