package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	echoSwagger "github.com/swaggo/echo-swagger"

	"crmhub/internal/analytics"
	"crmhub/internal/authz"
	"crmhub/internal/caching"
	"crmhub/internal/config"
	"crmhub/internal/handlers"
	"crmhub/internal/jobs"
	"crmhub/internal/middleware"
	"crmhub/internal/repositories"
	"crmhub/internal/services"
	"crmhub/internal/storage"
	"crmhub/internal/tenancy"
	"crmhub/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg := loadConfig()

	// Database connection pool
	pool, err := database.NewPool(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Object storage
	store, err := storage.NewMinioStore(
		cfg.Minio.Endpoint,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.Bucket,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := store.EnsureBucketExists(context.Background()); err != nil {
		log.Printf("WARNING: Could not ensure storage bucket exists: %v", err)
	}

	// Repositories read through the scope in the request context, so
	// tenant isolation holds in both row and schema mode without the
	// repositories knowing which one is active.
	db := tenancy.NewContextDB(pool)
	tenantRepo := repositories.NewTenantRepo(db)
	userRepo := repositories.NewUserRepo(db)
	membershipRepo := repositories.NewMembershipRepo(db)
	leadRepo := repositories.NewLeadRepo(db)
	opportunityRepo := repositories.NewOpportunityRepo(db)
	productRepo := repositories.NewProductRepo(db)
	orderRepo := repositories.NewOrderRepo(db)
	couponRepo := repositories.NewCouponRepo(db)
	reviewRepo := repositories.NewReviewRepo(db)
	policyRepo := repositories.NewPolicyRepo(db)
	auditLogsRepo := repositories.NewAuditLogsRepo(db)
	usageRepo := repositories.NewUsageRepo(db)
	tokenRepo := repositories.NewTokenRepo(db)

	// Tenancy
	resolver := tenancy.NewResolver(tenantRepo, cacheSvc, cfg.Server.BaseDomain)
	router, err := tenancy.NewScopeRouter(pool, tenancy.Strategy(cfg.Tenancy.Strategy))
	if err != nil {
		log.Fatalf("Invalid tenancy strategy %q: %v", cfg.Tenancy.Strategy, err)
	}

	// Permissions
	engine := authz.NewEngine(policyRepo, cacheSvc)

	// Services
	auditSvc := services.NewAuditLogsService(auditLogsRepo)
	tenantSvc := services.NewTenantService(tenantRepo, userRepo, membershipRepo, engine, router, cacheSvc)
	authSvc := services.NewAuthService(
		userRepo,
		membershipRepo,
		tokenRepo,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLDays)*24*time.Hour,
	)
	userSvc := services.NewUserService(userRepo, membershipRepo, tenantRepo)
	leadSvc := services.NewLeadService(leadRepo, opportunityRepo)
	opportunitySvc := services.NewOpportunityService(opportunityRepo)
	productSvc := services.NewProductService(productRepo, store, cacheSvc)
	couponSvc := services.NewCouponService(couponRepo)
	orderSvc := services.NewOrderService(orderRepo, productRepo, couponSvc)
	reviewSvc := services.NewReviewService(reviewRepo, productRepo)
	paymentSvc := services.NewPaymentService(cfg.Payments.APIKey, cfg.Payments.APISecret, cfg.Payments.WebhookSecret)
	usageSvc := services.NewUsageService(usageRepo, cacheSvc)
	analyticsSvc := analytics.NewService(leadRepo, opportunityRepo, orderRepo, cacheSvc)

	// Task queue
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	taskClient := asynq.NewClient(redisOpt)
	defer taskClient.Close()

	taskServer := asynq.NewServer(redisOpt, asynq.Config{Concurrency: cfg.Jobs.Concurrency})
	mux := asynq.NewServeMux()
	jobs.NewTaskProcessor(resolver, router, orderSvc, userSvc).RegisterHandlers(mux)
	if err := taskServer.Start(mux); err != nil {
		log.Fatalf("Failed to start task server: %v", err)
	}

	// Scheduled jobs
	scheduler, err := jobs.NewScheduler(resolver, router, tenantRepo, analyticsSvc, usageSvc, leadSvc, authSvc)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	scheduler.Start()

	// Handlers
	healthHandlers := handlers.NewHealthHandlers(pool)
	authHandlers := handlers.NewAuthHandlers(authSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc)
	userHandlers := handlers.NewUserHandlers(userSvc, taskClient)
	leadHandlers := handlers.NewLeadHandlers(leadSvc)
	opportunityHandlers := handlers.NewOpportunityHandlers(opportunitySvc)
	productHandlers := handlers.NewProductHandlers(productSvc, reviewSvc)
	orderHandlers := handlers.NewOrderHandlers(orderSvc, paymentSvc, taskClient)
	couponHandlers := handlers.NewCouponHandlers(couponSvc)
	reviewHandlers := handlers.NewReviewHandlers(reviewSvc)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsSvc, usageSvc, auditSvc)
	webhookHandlers := handlers.NewWebhookHandlers(paymentSvc, orderSvc, resolver, router)

	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Every request passes through tenant resolution; public paths and
	// webhook endpoints opt out inside the middleware itself.
	e.Use(tenancy.Middleware(resolver, router, cfg.Tenancy.TenantHeader))

	e.GET("/health", healthHandlers.Health)
	e.GET("/health/ready", healthHandlers.Ready)
	e.GET("/health/detailed", healthHandlers.Detailed)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Webhooks authenticate by signature, not by JWT.
	e.POST("/webhooks/payments", webhookHandlers.PaymentWebhook)

	versionMiddleware := middleware.NewVersionMiddleware()
	v1 := versionMiddleware.VersionRoute(e, "v1")

	// Credential and signup endpoints are throttled per client IP.
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cacheSvc, 10, time.Minute)

	// Tenant signup is the only unauthenticated v1 route.
	v1.POST("/tenants/signup", tenantHandlers.Signup, rateLimitMiddleware.Limit())

	// Auth routes require a resolved tenant but no token.
	auth := v1.Group("/auth", rateLimitMiddleware.Limit())
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	// Protected routes: JWT, per-tenant usage metering, audit trail.
	authzMiddleware := middleware.NewAuthzMiddleware(engine)
	usageMiddleware := middleware.NewUsageMiddleware(cacheSvc)
	auditMiddleware := middleware.NewAuditMiddleware(auditSvc)

	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(membershipRepo, cfg.JWT.Secret))
	protected.Use(usageMiddleware.TrackAndLimit())
	protected.Use(auditMiddleware.AuditRequest())

	protected.GET("/tenants/me", tenantHandlers.GetCurrent, authzMiddleware.Require("tenant", "read"))
	protected.PUT("/tenants/me", tenantHandlers.UpdateCurrent, authzMiddleware.Require("tenant", "update"))
	protected.DELETE("/tenants/me", tenantHandlers.DeactivateCurrent, authzMiddleware.Require("tenant", "delete"))

	protected.GET("/users", userHandlers.List, authzMiddleware.Require("user", "read"))
	protected.POST("/users", userHandlers.Invite, authzMiddleware.Require("user", "create"))
	protected.GET("/users/:id", userHandlers.Get, authzMiddleware.Require("user", "read"))
	protected.PUT("/users/:id", userHandlers.Update, authzMiddleware.Require("user", "update"))
	protected.PUT("/users/:id/role", userHandlers.ChangeRole, authzMiddleware.Require("user", "update"))
	protected.DELETE("/users/:id", userHandlers.Remove, authzMiddleware.Require("user", "delete"))

	protected.GET("/leads", leadHandlers.List, authzMiddleware.Require("lead", "read"))
	protected.POST("/leads", leadHandlers.Create, authzMiddleware.Require("lead", "create"))
	protected.GET("/leads/:id", leadHandlers.Get, authzMiddleware.Require("lead", "read"))
	protected.PUT("/leads/:id", leadHandlers.Update, authzMiddleware.Require("lead", "update"))
	protected.PUT("/leads/:id/status", leadHandlers.UpdateStatus, authzMiddleware.Require("lead", "update"))
	protected.POST("/leads/:id/convert", leadHandlers.Convert, authzMiddleware.Require("lead", "update"))
	protected.DELETE("/leads/:id", leadHandlers.Delete, authzMiddleware.Require("lead", "delete"))

	protected.GET("/opportunities", opportunityHandlers.List, authzMiddleware.Require("opportunity", "read"))
	protected.POST("/opportunities", opportunityHandlers.Create, authzMiddleware.Require("opportunity", "create"))
	protected.GET("/opportunities/:id", opportunityHandlers.Get, authzMiddleware.Require("opportunity", "read"))
	protected.PUT("/opportunities/:id", opportunityHandlers.Update, authzMiddleware.Require("opportunity", "update"))
	protected.PUT("/opportunities/:id/stage", opportunityHandlers.MoveStage, authzMiddleware.Require("opportunity", "update"))
	protected.DELETE("/opportunities/:id", opportunityHandlers.Delete, authzMiddleware.Require("opportunity", "delete"))

	protected.GET("/products", productHandlers.Search, authzMiddleware.Require("product", "read"))
	protected.POST("/products", productHandlers.Create, authzMiddleware.Require("product", "create"))
	protected.GET("/products/:id", productHandlers.Get, authzMiddleware.Require("product", "read"))
	protected.PUT("/products/:id", productHandlers.Update, authzMiddleware.Require("product", "update"))
	protected.DELETE("/products/:id", productHandlers.Delete, authzMiddleware.Require("product", "delete"))
	protected.POST("/products/:id/image", productHandlers.UploadImage, authzMiddleware.Require("product", "update"))
	protected.GET("/products/:id/image", productHandlers.ImageURL, authzMiddleware.Require("product", "read"))
	protected.GET("/products/:id/reviews", reviewHandlers.ListByProduct, authzMiddleware.Require("review", "read"))

	protected.GET("/orders", orderHandlers.List, authzMiddleware.Require("order", "read"))
	protected.POST("/orders", orderHandlers.Create, authzMiddleware.Require("order", "create"))
	protected.GET("/orders/:id", orderHandlers.Get, authzMiddleware.Require("order", "read"))
	protected.PUT("/orders/:id/status", orderHandlers.UpdateStatus, authzMiddleware.Require("order", "update"))
	protected.POST("/orders/:id/pay", orderHandlers.Pay, authzMiddleware.Require("order", "update"))

	protected.GET("/coupons", couponHandlers.List, authzMiddleware.Require("coupon", "read"))
	protected.POST("/coupons", couponHandlers.Create, authzMiddleware.Require("coupon", "create"))
	protected.GET("/coupons/:code", couponHandlers.Get, authzMiddleware.Require("coupon", "read"))
	protected.DELETE("/coupons/:id", couponHandlers.Delete, authzMiddleware.Require("coupon", "delete"))

	protected.POST("/reviews", reviewHandlers.Create, authzMiddleware.Require("review", "create"))
	protected.DELETE("/reviews/:id", reviewHandlers.Delete, authzMiddleware.Require("review", "delete"))

	protected.GET("/analytics/dashboard", analyticsHandlers.Dashboard, authzMiddleware.Require("analytics", "read"))
	protected.GET("/analytics/usage", analyticsHandlers.Usage, authzMiddleware.Require("analytics", "read"))
	protected.GET("/analytics/audit", analyticsHandlers.AuditTrail, authzMiddleware.Require("analytics", "read"))

	// Serve until interrupted, then drain.
	go func() {
		log.Printf("CRMHub server v%s starting on port %d (tenancy strategy: %s)", version, cfg.Server.Port, cfg.Tenancy.Strategy)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			log.Printf("HTTP server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	taskServer.Shutdown()
	if err := scheduler.Stop(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
}

// loadConfig reads the optional TOML config file, then applies the
// environment overrides used in deployment.
func loadConfig() *config.Config {
	var cfg *config.Config
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.toml"
	}
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = random.String(32)
		log.Printf("WARNING: JWT_SECRET not set, using a generated secret; tokens will not survive restarts")
	}

	if v := os.Getenv("BASE_DOMAIN"); v != "" {
		cfg.Server.BaseDomain = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid port %s: %v", v, err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}

	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.Minio.Endpoint = v
	}
	if cfg.Minio.Endpoint == "" {
		cfg.Minio.Endpoint = "localhost:9000"
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if cfg.Minio.AccessKey == "" {
		cfg.Minio.AccessKey = "minioadmin"
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}
	if cfg.Minio.SecretKey == "" {
		cfg.Minio.SecretKey = "minioadmin"
	}
	if os.Getenv("MINIO_USE_SSL") == "true" {
		cfg.Minio.UseSSL = true
	}

	if v := os.Getenv("PAYMENT_API_KEY"); v != "" {
		cfg.Payments.APIKey = v
	}
	if v := os.Getenv("PAYMENT_API_SECRET"); v != "" {
		cfg.Payments.APISecret = v
	}
	if v := os.Getenv("PAYMENT_WEBHOOK_SECRET"); v != "" {
		cfg.Payments.WebhookSecret = v
	}

	return cfg
}
