package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookrental/app/echoServer"
	authctrl "bookrental/app/echoServer/controller/auth"
	bookctrl "bookrental/app/echoServer/controller/book"
	rentalctrl "bookrental/app/echoServer/controller/rental"
	"bookrental/config"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving")
}

func runServe(ctx context.Context) error {
	cfg := config.Load()
	log := newLogger()

	db, err := connect(ctx, cfg)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return err
	}
	defer db.Close()

	if migrateOnStart {
		applied, err := db.Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "versions", applied)
	}

	svc := build(db, cfg)

	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e, log)

	e.GET("/health", func(c echo.Context) error {
		pctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(pctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status":  "degraded",
				"message": "database unreachable",
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:      &authctrl.Controller{Svc: svc.auth, Log: log},
		Book:      &bookctrl.Controller{Svc: svc.books, Log: log},
		Rental:    &rentalctrl.Controller{Svc: svc.rental, Log: log},
		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		log.Info("starting server", "port", port, "env", cfg.Env)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "err", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
