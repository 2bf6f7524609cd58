package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grocery-backend/controllers"
	"grocery-backend/database"
	"grocery-backend/middleware"
	"grocery-backend/payment"
	awspkg "grocery-backend/pkg/aws"
	"grocery-backend/providers"
	"grocery-backend/repository"
	"grocery-backend/routes"
	"grocery-backend/services"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// --- Database ---
	if err := database.Connect(logger); err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	redisClient := database.NewRedisClient(cfg.RedisURL)

	// --- AWS setup (optional; events are best-effort) ---
	var publisher awspkg.SNSPublisher
	if cfg.OrderSNSTopicARN != "" {
		awsCfg, err := awspkg.LoadAWSConfig(context.Background())
		if err != nil {
			logger.Warn("AWS config load failed, order events disabled", zap.Error(err))
		} else {
			publisher = awspkg.NewSNSClient(awsCfg)
		}
	}

	// --- Distance provider ---
	var distance providers.DistanceProvider = providers.NewHaversineProvider()
	if cfg.OSRMBaseURL != "" {
		distance = providers.NewOSRMProvider(cfg.OSRMBaseURL)
	}

	// --- Payment gateway ---
	gateway := payment.NewMayaGateway(
		cfg.MayaBaseURL,
		cfg.MayaPublicKey,
		cfg.MayaSuccessURL,
		cfg.MayaFailureURL,
		cfg.MayaCancelURL,
	)

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst))

	// Structured HTTP request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	})

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// --- Dependency injection ---
	txManager := repository.NewGormTxManager(database.DB)
	productRepo := repository.NewGormProductRepository(database.DB)
	cartRepo := repository.NewGormCartRepository(database.DB)
	guestCartRepo := repository.NewGuestCartRepository(redisClient, cfg.CartTTL)
	checkoutRepo := repository.NewCheckoutRepository(redisClient, cfg.CheckoutTTL)
	voucherRepo := repository.NewGormVoucherRepository(database.DB)
	orderRepo := repository.NewGormOrderRepository(database.DB)
	addressRepo := repository.NewGormAddressRepository(database.DB)
	storeRepo := repository.NewGormStoreRepository(database.DB)

	cartService := services.NewCartService(cartRepo, guestCartRepo, productRepo, logger)
	shippingService := services.NewShippingService(distance, cfg.Warehouse, cfg.Rates, logger)
	voucherService := services.NewVoucherService(voucherRepo, logger)
	pricingService := services.NewPricingService(cartService, voucherService, shippingService, addressRepo, logger)
	checkoutService := services.NewCheckoutService(
		checkoutRepo,
		cartService,
		pricingService,
		voucherService,
		shippingService,
		addressRepo,
		storeRepo,
		productRepo,
		cartRepo,
		orderRepo,
		txManager,
		gateway,
		publisher,
		cfg.OrderSNSTopicARN,
		logger,
	)
	orderService := services.NewOrderService(orderRepo, productRepo, txManager, publisher, cfg.OrderSNSTopicARN, logger)

	cartController := controllers.NewCartController(cartService)
	checkoutController := controllers.NewCheckoutController(checkoutService)
	orderController := controllers.NewOrderController(orderService)
	voucherController := controllers.NewVoucherController(voucherService)

	routes.Register(r, []byte(cfg.JWTSecret), cartController, checkoutController, orderController, voucherController)

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Grocery backend started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("Redis close error", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	log.Println("Grocery backend stopped gracefully")
}
