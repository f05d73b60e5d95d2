package router

import (
	"context"
	"net/http"
	"sort"
	"time"

	apphttp "crm_sync_backend/internal/http"
	"crm_sync_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const healthTimeout = 2 * time.Second

// New builds the gin engine: shared middleware, health and metrics
// endpoints, then every module under /api/v1.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))
	if app.Metrics != nil {
		engine.Use(httpkit.Metrics(app.Metrics))
	}

	engine.GET("/api/health", healthHandler(app.Health, app.Optional))

	if app.Metrics != nil && app.Config.IsMetricsEnabled() {
		engine.GET("/metrics", gin.WrapH(app.Metrics.Handler()))
	}

	rc := &apphttp.RouterContext{
		Engine: engine,
		V1:     engine.Group("/api/v1"),
		// A pass reads both ledgers in full; one per second per client is plenty.
		RateLimiter: httpkit.NewIPRateLimiter(rate.Limit(1), 5, app.Logger),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(rc)
		app.Logger.Info("module registered", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", httpkit.HeaderRequestID},
		ExposeHeaders:    []string{httpkit.HeaderRequestID},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return corsCfg
}

func healthHandler(checks, optional map[string]apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		ledgers, healthy := ping(ctx, checks)
		status, state := http.StatusOK, "ok"
		if !healthy {
			status, state = http.StatusServiceUnavailable, "degraded"
		}

		body := gin.H{"status": state, "ledgers": ledgers}
		if len(optional) > 0 {
			body["optional"], _ = ping(ctx, optional)
		}
		c.JSON(status, body)
	}
}

func ping(ctx context.Context, checks map[string]apphttp.HealthChecker) (gin.H, bool) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	out := make(gin.H, len(names))
	for _, name := range names {
		if err := checks[name].Ping(ctx); err != nil {
			healthy = false
			out[name] = "unavailable"
			continue
		}
		out[name] = "ok"
	}
	return out, healthy
}
