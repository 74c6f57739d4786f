// Package routes defines the API routing configuration.
package routes

import (
	"ewallet/internal/handlers"
	"ewallet/internal/middleware"
	"ewallet/internal/repositories"
	"ewallet/internal/services/auth"
	"ewallet/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes wires repositories, services and handlers, and mounts
// all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	ledgerRepo := repositories.NewLedgerRepository(db)
	userRepo := repositories.NewUserRepository(db)

	authService := auth.NewService(userRepo)
	ledgerService := ledger.NewService(
		ledgerRepo,
		ledger.NewRegistry(),
		repositories.CacheService,
		ledger.Config{},
		&ledger.NoopMetricsCollector{},
	)

	authHandler := handlers.NewAuthHandler(authService)
	walletHandler := handlers.NewWalletHandler(ledgerService, authService)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)

	authenticated := api.Group("/", authMiddleware.Handler)
	authenticated.Post("/logout", authHandler.Logout)

	wallet := authenticated.Group("/wallet")
	wallet.Get("/", walletHandler.GetWallet)
	wallet.Post("/topup", walletHandler.TopUp)
	wallet.Post("/topup/card", walletHandler.TopUpWithCard)
	wallet.Post("/withdraw", walletHandler.Withdraw)
	wallet.Post("/transfer", walletHandler.Transfer)

	authenticated.Get("/transactions", walletHandler.GetTransactions)
}
