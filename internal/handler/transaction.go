package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/finance-tracker/internal/middleware"
	"github.com/avolkov/finance-tracker/internal/model"
	"github.com/avolkov/finance-tracker/internal/repository"
	"github.com/avolkov/finance-tracker/internal/service"
)

// TransactionHandler implements the income/expense CRUD endpoints.  Every
// query is scoped to the authenticated user resolved by the auth gate.
type TransactionHandler struct {
	Repo      *repository.TransactionRepo
	Cache     *middleware.Cache
	Publisher *service.EventPublisher
}

func NewTransactionHandler(repo *repository.TransactionRepo, cache *middleware.Cache, pub *service.EventPublisher) *TransactionHandler {
	return &TransactionHandler{Repo: repo, Cache: cache, Publisher: pub}
}

type transactionReq struct {
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func (r *transactionReq) validate() string {
	if r.AmountCents <= 0 {
		return "amount_cents must be positive"
	}
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Type != model.TransactionIncome && r.Type != model.TransactionExpense {
		return "type must be income or expense"
	}
	r.Category = strings.TrimSpace(r.Category)
	if r.Category == "" {
		return "category is required"
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	return ""
}

// List handles GET /api/transactions.
func (h *TransactionHandler) List(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Repo.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /api/transactions/:id.
func (h *TransactionHandler) Get(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Repo.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, t)
}

// Create handles POST /api/transactions.  On success the user's cache epoch
// is bumped and a transaction.recorded event is published; the publish never
// fails the request.
func (h *TransactionHandler) Create(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req transactionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	t := model.Transaction{
		UserID:      userID,
		AmountCents: req.AmountCents,
		Type:        req.Type,
		Category:    req.Category,
		Date:        req.Date,
		Description: strings.TrimSpace(req.Description),
	}
	if err := h.Repo.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create transaction"})
	}
	h.Cache.Invalidate(ctx, userID)
	h.Publisher.TransactionRecorded(ctx, t)
	return c.JSON(http.StatusCreated, t)
}

// Update handles PUT /api/transactions/:id.
func (h *TransactionHandler) Update(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req transactionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Repo.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	t.AmountCents = req.AmountCents
	t.Type = req.Type
	t.Category = req.Category
	t.Date = req.Date
	t.Description = strings.TrimSpace(req.Description)
	if err := h.Repo.Update(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Cache.Invalidate(ctx, userID)
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /api/transactions/:id.
func (h *TransactionHandler) Delete(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Repo.Delete(ctx, userID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Cache.Invalidate(ctx, userID)
	return c.NoContent(http.StatusNoContent)
}
