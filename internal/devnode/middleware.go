package devnode

import (
	"log/slog"
	"os"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func applyMiddleware(r *gin.Engine, config *config.Config, otelComponent string, node *Node) {
	r.Use(gin.Recovery())

	// CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	if len(config.DevNode.CORSHosts) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = config.DevNode.CORSHosts
	}
	r.Use(cors.New(corsConfig))

	r.Use(nodeMiddleware(node))

	if config.Tracing.Enabled {
		r.Use(otelgin.Middleware(otelComponent))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.SlogLevel()}))
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		WithSpanID:        config.Tracing.Enabled,
		WithTraceID:       config.Tracing.Enabled,
		DefaultLevel:      slog.LevelDebug,
		ClientErrorLevel:  slog.LevelWarn,
		ServerErrorLevel:  slog.LevelError,
		WithRequestHeader: false,
	}))
}

func nodeMiddleware(node *Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("node", node)
		c.Next()
	}
}
