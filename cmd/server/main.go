package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mperera/lottery-dms/internal/config"
	"github.com/mperera/lottery-dms/internal/es"
	"github.com/mperera/lottery-dms/internal/handlers"
	"github.com/mperera/lottery-dms/internal/logging"
	loggingmw "github.com/mperera/lottery-dms/internal/middleware/logging"
	"github.com/mperera/lottery-dms/internal/mykafka"
	"github.com/mperera/lottery-dms/internal/order"
	"github.com/mperera/lottery-dms/internal/service/token"
	httpserver "github.com/mperera/lottery-dms/internal/transport/http"
)

const lotteryIndex = "lottery"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	orderSvc := order.NewService(db)
	tokenSvc := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		LotteryHandler: &handlers.LotteryHandler{DB: db, ES: esClient, Index: lotteryIndex, Producer: prod},
		CartHandler:    &handlers.CartHandler{DB: db, Orders: orderSvc, Producer: prod},
		OrderHandler:   &handlers.OrderHandler{DB: db, Svc: orderSvc, Producer: prod},
		ReportHandler:  &handlers.ReportHandler{DB: db},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: lotteryIndex},
		TokenService:   tokenSvc,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "addr", configuration.HTTP_ADDR)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
