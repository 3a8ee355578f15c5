package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"etech-backend/internal/auth"
	"etech-backend/internal/bills"
	"etech-backend/internal/config"
	"etech-backend/internal/dashboard"
	"etech-backend/internal/database"
	"etech-backend/internal/documents"
	"etech-backend/internal/events"
	"etech-backend/internal/inventory"
	"etech-backend/internal/live"
	"etech-backend/internal/models"
	"etech-backend/internal/observability"
	"etech-backend/internal/sales"
	"etech-backend/internal/servicesale"
	"etech-backend/internal/users"

	"github.com/common-nighthawk/go-figure"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	figure.NewFigure("etech", "small", true).Print()

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error("tracing shutdown", zap.Error(err))
		}
	}()

	var (
		feed    live.Feed
		revoker auth.Revoker
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		rf := live.NewRedisFeed(client, log.Named("live"))
		go func() {
			if err := rf.Run(ctx); err != nil {
				log.Error("live relay stopped", zap.Error(err))
			}
		}()
		feed = rf
		revoker = auth.NewRedisRevoker(client)
		log.Info("redis enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		feed = live.NewHub()
		revoker = auth.NewMemoryRevoker()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBroker != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		log.Info("kafka events enabled", zap.String("broker", cfg.KafkaBroker), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	app := newApp(ctx, cfg, log, feed, revoker, publisher)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort))
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	return nil
}

// Live streams opened on the app end with ctx.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, feed live.Feed, revoker auth.Revoker, publisher events.Publisher) *fiber.App {
	db := database.DB
	letterhead := documents.Letterhead{
		CompanyName:         cfg.CompanyName,
		PaymentInstructions: cfg.PaymentInstructions,
		Currency:            cfg.CurrencyLabel,
	}

	salesSvc := sales.NewService(db, feed, publisher, log.Named("sales"))
	billSvc := bills.NewService(db, feed, publisher, log.Named("bills"))
	serviceSvc := servicesale.NewService(db, feed, publisher, log.Named("services"))
	resetSvc := auth.NewResetService(db, auth.LogMailer{Log: log.Named("mail")}, time.Duration(cfg.PasswordResetTTLMinutes)*time.Minute, log.Named("auth"))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			log.Error("unexpected error", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unexpected server error"})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/auth/password-reset", auth.PasswordResetHandler(resetSvc, log))
	api.Post("/auth/password-reset/confirm", auth.PasswordResetConfirmHandler(resetSvc))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg, revoker, log), auth.RequireRole())

	protected.Get("/auth/me", auth.MeHandler())
	protected.Post("/auth/logout", auth.LogoutHandler(revoker))

	// Inventory and sale posting
	protected.Get("/inventory", inventory.ListItemsHandler(cfg.LowStockThreshold))
	protected.Get("/inventory/export", inventory.ExportItemsHandler(cfg.LowStockThreshold))
	protected.Post("/inventory/:id/sell", sales.PostHandler(salesSvc))

	// Sales
	protected.Get("/sales", sales.ListHandler(salesSvc))
	protected.Get("/sales/daily", sales.DailyHandler(salesSvc))
	protected.Get("/sales/monthly", sales.MonthlyHandler(salesSvc))
	protected.Get("/sales/export", sales.ExportHandler(salesSvc))
	protected.Get("/sales/:id/receipt", sales.ReceiptHandler(salesSvc, letterhead))

	// Pending bills
	protected.Get("/pendingbills", bills.ListHandler(billSvc))
	protected.Post("/pendingbills", bills.CreateHandler(billSvc))
	protected.Put("/pendingbills/:id", bills.UpdateHandler(billSvc))
	protected.Post("/pendingbills/:id/pay", bills.PayHandler(billSvc))
	protected.Get("/pendingbills/:id/invoice", bills.InvoiceHandler(billSvc, letterhead))

	// Service sales
	protected.Get("/services", servicesale.ListHandler(serviceSvc))
	protected.Post("/services", servicesale.CreateHandler(serviceSvc))
	protected.Put("/services/:id", servicesale.UpdateHandler(serviceSvc))
	protected.Get("/services/export", servicesale.ExportHandler(serviceSvc))

	// Dashboard
	dash := dashboard.Deps{
		DB:                db,
		Sales:             salesSvc,
		Bills:             billSvc,
		Services:          serviceSvc,
		LowStockThreshold: cfg.LowStockThreshold,
	}
	protected.Get("/dashboard/summary", dashboard.SummaryHandler(dash))
	protected.Get("/dashboard/sales-chart", dashboard.SalesChartHandler(dash))

	// Live streams
	protected.Get("/live/:collection", live.StreamHandler(ctx, feed, liveSources(cfg, salesSvc, billSvc, serviceSvc), log.Named("live")))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/inventory", inventory.CreateItemHandler(feed, publisher, log))
	adminRoutes.Put("/inventory/:id", inventory.UpdateItemHandler(feed, publisher, log))
	adminRoutes.Post("/inventory/import", inventory.ImportItemsHandler(feed, publisher, log))

	adminRoutes.Get("/users", users.ListHandler())
	adminRoutes.Post("/users", users.CreateHandler(cfg.DefaultUserPassword, feed))
	adminRoutes.Put("/users/:id", users.UpdateHandler(feed))
	adminRoutes.Delete("/users/:id", users.DeleteHandler(feed))

	return app
}
