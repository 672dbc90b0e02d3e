package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cradle-gate/config"
	"cradle-gate/internal/adapter/gateway"
	adapterhandler "cradle-gate/internal/adapter/handler"
	"cradle-gate/internal/adapter/repository"
	"cradle-gate/internal/domain"
	infracache "cradle-gate/internal/infrastructure/cache"
	"cradle-gate/internal/infrastructure/routes"
	infratoken "cradle-gate/internal/infrastructure/token"
	"cradle-gate/internal/usecase"
	appmiddleware "cradle-gate/middleware"
	"cradle-gate/utils/logger"
	"cradle-gate/utils/otel"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

const kratosTimeout = 5 * time.Second

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// .env is optional; real deployments inject the environment
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	log := logger.Init(otelCfg.Enabled)

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	log.InfoContext(ctx, "configuration loaded",
		"kratos_url", cfg.KratosURL,
		"port", cfg.Port,
		"role_store", cfg.RoleStore,
		"route_cache", cfg.RouteCache,
		"csrf_enabled", cfg.CSRFSecret != "",
		"upstream", cfg.UpstreamURL)

	if err := run(ctx, cfg, otelCfg, otelShutdown, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server exited properly")
}

func run(ctx context.Context, cfg *config.Config, otelCfg otel.Config, otelShutdown otel.ShutdownFunc, log *slog.Logger) error {
	routeTable, err := routes.Load(cfg.RoutesFile)
	if err != nil {
		return fmt.Errorf("load route table: %w", err)
	}

	// Infrastructure
	var checks []adapterhandler.HealthCheck
	var closers []func()
	defer func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}()

	store, storeCheck, closeStore, err := buildRoleStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}
	if storeCheck != nil {
		checks = append(checks, *storeCheck)
	}

	routeCache, cacheCheck, closeCache, err := buildRouteCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closeCache != nil {
		closers = append(closers, closeCache)
	}
	if cacheCheck != nil {
		checks = append(checks, *cacheCheck)
	}

	sessionCache := infracache.NewSessionCache(cfg.CacheTTL)
	kratosGateway := gateway.NewKratosGateway(cfg.KratosURL, kratosTimeout)
	claimsCodec := infratoken.NewClaimsCodec(infratoken.ClaimsConfig{
		Secret:   cfg.ClaimsSecret,
		Issuer:   cfg.ClaimsIssuer,
		Audience: cfg.ClaimsAudience,
		TTL:      cfg.ClaimsTTL,
	})
	csrfGenerator := infratoken.NewCSRFSigner(cfg.CSRFSecret)

	upstream, err := adapterhandler.NewUpstreamHandler(cfg.UpstreamURL)
	if err != nil {
		return err
	}

	// Usecases
	validateUC := usecase.NewValidateSession(kratosGateway, sessionCache, log)
	resolver := usecase.NewRoleResolver(store, cfg.RoleLookupTimeout, log)
	gateUC := usecase.NewAuthorizeRequest(validateUC, claimsCodec, resolver, routeTable, log)
	guardUC := usecase.NewGuardRoute(resolver, log)
	assignUC := usecase.NewAssignRole(store, routeCache, routeTable, log)
	sessionUC := usecase.NewGetSession(validateUC, resolver, claimsCodec, log)
	profileUC := usecase.NewGetProfile(resolver, claimsCodec, log)
	csrfUC := usecase.NewGenerateCSRF(validateUC, csrfGenerator, log)

	// Handlers
	roleHandler := adapterhandler.NewRoleHandler(validateUC, assignUC, csrfUC, csrfGenerator.Enabled())
	meHandler := adapterhandler.NewMeHandler(validateUC, profileUC)
	sessionHandler := adapterhandler.NewSessionHandler(sessionUC, cfg.CookieSecure)
	csrfHandler := adapterhandler.NewCSRFHandler(csrfUC)
	healthHandler := adapterhandler.NewHealthHandler(checks...)
	internalHandler := adapterhandler.NewInternalHandler(resolver)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = adapterhandler.ErrorHandler
	e.Validator = adapterhandler.NewRequestValidator()
	e.Pre(appmiddleware.CanonicalPath())

	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.RequestContext())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				log.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				log.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	apiHeaders := appmiddleware.SecurityHeaders(appmiddleware.SecurityHeadersConfig{
		HSTS:                  cfg.CookieSecure,
		ContentSecurityPolicy: appmiddleware.APIContentSecurityPolicy,
		NoStore:               true,
	})
	pageHeaders := appmiddleware.SecurityHeaders(appmiddleware.SecurityHeadersConfig{HSTS: cfg.CookieSecure})

	// Rate limiters per endpoint group
	pageRL := appmiddleware.NewRateLimiter(10, 40, nil)            // 600 req/min
	apiRL := appmiddleware.NewRateLimiter(60.0/60.0, 10, nil)      // 60 req/min
	sessionRL := appmiddleware.NewRateLimiter(240.0/60.0, 20, nil) // 240 req/min, covers a confirming poller
	csrfRL := appmiddleware.NewRateLimiter(10.0/60.0, 3, nil)      // 10 req/min
	internalRL := appmiddleware.NewRateLimiter(10.0/60.0, 3, nil)  // 10 req/min

	e.GET("/health", healthHandler.Handle)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/session", sessionHandler.Handle, apiHeaders, sessionRL.Middleware())
	e.POST("/csrf", csrfHandler.Handle, apiHeaders, csrfRL.Middleware())

	api := e.Group("/api", apiHeaders)
	api.POST("/role", roleHandler.Assign, apiRL.Middleware())
	api.GET("/me", meHandler.Handle, sessionRL.Middleware())
	api.POST("/session/refresh", sessionHandler.Refresh, sessionRL.Middleware())

	internalGroup := e.Group("/internal",
		apiHeaders,
		internalRL.Middleware(),
		appmiddleware.InternalAuth(cfg.AuthSharedSecret),
	)
	internalGroup.GET("/identities/:id/role", internalHandler.HandleIdentityRole)

	adapterhandler.RegisterPages(e, adapterhandler.PageConfig{
		Gate:     gateUC,
		Guard:    guardUC,
		Routes:   routeTable,
		Cache:    routeCache,
		Upstream: upstream,
	}, pageHeaders, pageRL.Middleware())

	address := fmt.Sprintf(":%s", cfg.Port)
	log.InfoContext(ctx, "starting cradle-gate server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildRoleStore returns the configured role store with its optional health
// check and cleanup.
func buildRoleStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.RoleStore, *adapterhandler.HealthCheck, func(), error) {
	switch cfg.RoleStore {
	case config.RoleStorePostgres:
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect role store: %w", err)
		}
		store := repository.NewPostgresRoleStore(pool, log)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		if _, err := store.MigrateLegacyRoles(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return store, &adapterhandler.HealthCheck{Name: "postgres", Check: store.HealthCheck}, pool.Close, nil
	default:
		return gateway.NewKratosRoleStore(cfg.KratosAdminURL, kratosTimeout, log), nil, nil, nil
	}
}

// buildRouteCache returns the configured route cache, or nil when caching
// is off.
func buildRouteCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.RouteCache, *adapterhandler.HealthCheck, func(), error) {
	switch cfg.RouteCache {
	case config.RouteCacheRedis:
		client, err := infracache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect route cache: %w", err)
		}
		check := &adapterhandler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
		return infracache.NewRedisRouteCache(client, cfg.RouteCacheTTL, log), check, func() { _ = client.Close() }, nil
	case config.RouteCacheOff:
		return nil, nil, nil, nil
	default:
		return infracache.NewMemoryRouteCache(infracache.DefaultRouteCacheSize, cfg.RouteCacheTTL), nil, nil, nil
	}
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8888"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
