package api

import (
	"paperledger/internal/api/handlers"
	"paperledger/pkg/auth"
	"paperledger/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	inboxHandler *handlers.InboxHandler,
	billHandler *handlers.BillHandler,
	receiptHandler *handlers.ReceiptHandler,
	paymentHandler *handlers.PaymentHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	userAuth := app.Group("/user/auth")
	userAuth.Post("/register", authHandler.Register)
	userAuth.Post("/login", authHandler.Login)
	userAuth.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	inbox := protected.Group("/inbox")
	inbox.Post("/upload", inboxHandler.Upload)
	inbox.Get("", inboxHandler.List)
	inbox.Get("/stats", inboxHandler.Stats)
	inbox.Get("/:id", inboxHandler.Get)
	inbox.Get("/:id/file", inboxHandler.Download)
	inbox.Patch("/:id", inboxHandler.Update)
	inbox.Post("/:id/ocr", inboxHandler.TriggerOCR)
	inbox.Post("/:id/ocr-retry", inboxHandler.RetryOCR)
	inbox.Post("/:id/approve", inboxHandler.Approve)
	inbox.Post("/:id/reject", inboxHandler.Reject)
	inbox.Post("/:id/dispatch", inboxHandler.Dispatch)
	inbox.Delete("/:id", inboxHandler.Delete)

	bills := protected.Group("/bills")
	bills.Get("", billHandler.List)
	bills.Get("/stats", billHandler.Stats)
	bills.Get("/:id", billHandler.Get)
	bills.Patch("/:id", billHandler.Update)
	bills.Post("/:id/approve", billHandler.Approve)
	bills.Post("/:id/reject", billHandler.Reject)
	bills.Post("/:id/revert", billHandler.Revert)
	bills.Delete("/:id", billHandler.Delete)

	receipts := protected.Group("/receipts")
	receipts.Get("", receiptHandler.List)
	receipts.Get("/stats", receiptHandler.Stats)
	receipts.Get("/:id", receiptHandler.Get)
	receipts.Patch("/:id", receiptHandler.Update)
	receipts.Post("/:id/associate", receiptHandler.Associate)
	receipts.Post("/:id/disassociate", receiptHandler.Disassociate)
	receipts.Post("/:id/accept", receiptHandler.Accept)
	receipts.Post("/:id/revert", receiptHandler.Revert)
	receipts.Delete("/:id", receiptHandler.Delete)

	payments := protected.Group("/payments")
	payments.Get("", paymentHandler.List)
	payments.Get("/:id", paymentHandler.Get)

	protected.Get("/ocr/engines", inboxHandler.Engines)

	return app
}
