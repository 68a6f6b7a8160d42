// Package api exposes the ledger over HTTP. It owns the mapping from
// the ledger error taxonomy to status codes; handlers just return
// errors and let the fiber error handler render them.
package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/atk-inventory/internal/auth"
	"github.com/Spok95/atk-inventory/internal/ledger"
	"github.com/Spok95/atk-inventory/internal/report"
)

type Server struct {
	Ledger  *ledger.Service
	Reports *report.Service
	Auth    *auth.Service
	Log     *slog.Logger
	Secret  string
}

func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: s.errorHandler,
	})

	api := app.Group("/api")

	// public
	api.Post("/auth/login", s.login)
	api.Get("/items", s.listItems)
	api.Post("/requests", s.submitRequest)

	// admin
	admin := api.Group("", auth.Middleware(s.Secret))
	admin.Post("/auth/register", s.register)

	admin.Get("/requests", s.listRequests)
	admin.Post("/requests/:id/approve", s.approveRequest)
	admin.Post("/requests/:id/reject", s.rejectRequest)
	admin.Post("/requests/:id/complete", s.completeRequest)

	admin.Post("/items", s.createItem)
	admin.Put("/items/:id", s.updateItem)
	admin.Delete("/items/:id", s.deleteItem)
	admin.Post("/items/:id/stock-in", s.stockIn)
	admin.Post("/items/:id/stock-out", s.stockOut)
	admin.Post("/items/:id/adjust", s.adjustStock)
	admin.Get("/transactions", s.listTransactions)

	admin.Get("/reports/summary", s.summary)
	admin.Get("/reports/usage-by-department", s.usageByDepartment)
	admin.Get("/reports/usage-by-period", s.usageByPeriod)
	admin.Get("/reports/top-items", s.topItems)

	admin.Get("/export/items.xlsx", s.exportItemsXLSX)
	admin.Get("/export/items.csv", s.exportItemsCSV)
	admin.Get("/export/requests.xlsx", s.exportRequestsXLSX)
	admin.Get("/export/requests.csv", s.exportRequestsCSV)
	admin.Get("/export/transactions.xlsx", s.exportTransactionsXLSX)

	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var (
		ve *ledger.ValidationError
		se *ledger.StockInsufficientError
		te *ledger.InvalidTransitionError
		ne *ledger.NotFoundError
		ce *ledger.ConflictError
		fe *fiber.Error
	)
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": ve.Error(), "kind": "validation",
		})
	case errors.As(err, &se):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": se.Error(), "kind": "stock_insufficient",
			"available": se.Available, "requested": se.Requested,
		})
	case errors.As(err, &te):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "already processed, please refresh", "kind": "invalid_transition",
			"status": string(te.From),
		})
	case errors.As(err, &ne):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": ne.Error(), "kind": "not_found",
		})
	case errors.As(err, &ce):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": ce.Error(), "kind": "conflict",
			"requests": ce.Requests, "transactions": ce.Transactions,
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid credentials",
		})
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	default:
		s.Log.Error("unhandled error", "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected server error",
		})
	}
}
