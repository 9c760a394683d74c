package main // Entry point package

import (
    "github.com/joho/godotenv"    // .env loading for local development
    "github.com/labstack/echo/v4" // Echo web framework
    "github.com/sirupsen/logrus"  // structured logging

    "github.com/recoverly/booking-api/internal/config"
    "github.com/recoverly/booking-api/internal/database"
    "github.com/recoverly/booking-api/internal/handler"
    "github.com/recoverly/booking-api/internal/middleware"
    "github.com/recoverly/booking-api/internal/payment"
    "github.com/recoverly/booking-api/internal/queue"
    "github.com/recoverly/booking-api/internal/repository"
    "github.com/recoverly/booking-api/internal/router"
    "github.com/recoverly/booking-api/internal/service"
)

func main() {
    _ = godotenv.Load() // best effort; real deployments set env directly

    log := logrus.New()
    log.SetFormatter(&logrus.JSONFormatter{})

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.WithError(err).Fatal("database connection failed")
    }
    defer db.Close()

    // Repositories.
    passRepo := repository.NewPassRepo(db)
    bookingRepo := repository.NewBookingRepo(db)
    purchaseRepo := repository.NewPurchaseRepo(db)
    refundRepo := repository.NewRefundRepo(db)
    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)

    // External collaborators.
    payClient := payment.New(cfg.PaymentBaseURL, cfg.PaymentAPIKey)
    publisher := queue.NewPublisher(log)

    // Services.
    redeems := service.NewRedemptionService(passRepo, publisher, log)
    backfill := service.NewBackfillService(passRepo, log)
    refunds := service.NewRefundService(bookingRepo, passRepo, purchaseRepo, refundRepo, payClient, publisher, log)
    bookings := service.NewBookingService(bookingRepo, refunds, log)
    checkout := service.NewCheckoutService(passRepo, bookingRepo, purchaseRepo, payClient,
        service.CheckoutURLs{SuccessURL: cfg.CheckoutSuccessURL, CancelURL: cfg.CheckoutCancelURL}, log)

    // Handlers.
    authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo, log)
    passHandler := handler.NewPassHandler(passRepo, redeems, log)
    bookingHandler := handler.NewBookingHandler(bookingRepo, bookings, log)
    checkoutHandler := handler.NewCheckoutHandler(checkout, log)
    adminHandler := handler.NewAdminHandler(redeems, backfill, refunds, userRepo, cfg.BcryptCost, log)

    // Background reconciliation driven by refund.settled messages.
    go func() {
        if err := queue.StartRefundConsumer(refunds); err != nil {
            log.WithError(err).Error("refund consumer stopped")
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Validator = handler.NewValidator()

    // Redis-backed rate limiting and response caching degrade to no-ops
    // when no Redis server is reachable.
    rdb := config.NewRedisClient()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    var cache echo.MiddlewareFunc
    if rdb != nil {
        cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
    }

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterPublic(e, passHandler, bookingHandler, checkoutHandler, cache)
    router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")

    if err := e.Start(addr); err != nil {
        log.WithError(err).Fatal("server stopped")
    }
}
