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
)

// GoalHandler implements the savings-goal endpoints.
type GoalHandler struct {
	Repo  *repository.GoalRepo
	Cache *middleware.Cache
}

func NewGoalHandler(repo *repository.GoalRepo, cache *middleware.Cache) *GoalHandler {
	return &GoalHandler{Repo: repo, Cache: cache}
}

type goalReq struct {
	Name        string  `json:"name"`
	TargetCents int64   `json:"target_cents"`
	Deadline    *string `json:"deadline"`
}

func (r *goalReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.TargetCents <= 0 {
		return "target_cents must be positive"
	}
	if r.Deadline != nil {
		if _, err := time.Parse("2006-01-02", *r.Deadline); err != nil {
			return "deadline must be YYYY-MM-DD"
		}
	}
	return ""
}

// List handles GET /api/goals.
func (h *GoalHandler) List(c echo.Context) error {
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

// Get handles GET /api/goals/:id.
func (h *GoalHandler) Get(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	g, err := h.Repo.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "goal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, g)
}

// Create handles POST /api/goals.
func (h *GoalHandler) Create(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req goalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	g := model.SavingsGoal{
		UserID:      userID,
		Name:        req.Name,
		TargetCents: req.TargetCents,
		Deadline:    req.Deadline,
	}
	if err := h.Repo.Create(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create goal"})
	}
	h.Cache.Invalidate(ctx, userID)
	return c.JSON(http.StatusCreated, g)
}

// Update handles PUT /api/goals/:id (name, target and deadline only; the
// saved total changes through Deposit).
func (h *GoalHandler) Update(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req goalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	g, err := h.Repo.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "goal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	g.Name = req.Name
	g.TargetCents = req.TargetCents
	g.Deadline = req.Deadline
	if err := h.Repo.Update(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Cache.Invalidate(ctx, userID)
	return c.JSON(http.StatusOK, g)
}

// Deposit handles POST /api/goals/:id/deposit, atomically adding to the
// goal's saved total.
func (h *GoalHandler) Deposit(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		AmountCents int64 `json:"amount_cents"`
	}
	if err := c.Bind(&req); err != nil || req.AmountCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be positive"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Repo.Deposit(ctx, userID, c.Param("id"), req.AmountCents); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "goal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deposit failed"})
	}
	h.Cache.Invalidate(ctx, userID)
	g, err := h.Repo.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, g)
}

// Delete handles DELETE /api/goals/:id.
func (h *GoalHandler) Delete(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Repo.Delete(ctx, userID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "goal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Cache.Invalidate(ctx, userID)
	return c.NoContent(http.StatusNoContent)
}
