package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/finance-tracker/internal/middleware"
	"github.com/avolkov/finance-tracker/internal/model"
	"github.com/avolkov/finance-tracker/internal/repository"
)

// BudgetHandler reads and writes the single budget-settings record a user
// has.  Writes use update-or-insert, so PUT works the same whether or not
// the record exists yet.
type BudgetHandler struct {
	Repo  *repository.BudgetRepo
	Cache *middleware.Cache
}

func NewBudgetHandler(repo *repository.BudgetRepo, cache *middleware.Cache) *BudgetHandler {
	return &BudgetHandler{Repo: repo, Cache: cache}
}

// Get handles GET /api/budget.
func (h *BudgetHandler) Get(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "budget not configured"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, b)
}

// Put handles PUT /api/budget.
func (h *BudgetHandler) Put(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		MonthlyLimitCents int64  `json:"monthly_limit_cents"`
		Currency          string `json:"currency"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MonthlyLimitCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "monthly_limit_cents must be positive"})
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(req.Currency) != 3 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "currency must be a 3-letter code"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	b := model.BudgetSetting{
		UserID:            userID,
		MonthlyLimitCents: req.MonthlyLimitCents,
		Currency:          req.Currency,
	}
	if err := h.Repo.Upsert(ctx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save budget"})
	}
	h.Cache.Invalidate(ctx, userID)
	return c.JSON(http.StatusOK, b)
}
