// internal/handler/expense.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/expense"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/storage"
	val "expense-tracker/internal/validator"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	svc *expense.Service
}

func NewExpenseHandler(svc *expense.Service) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

// List godoc
// @Summary List the caller's expenses, newest first
// @Param month query int false "Month 1-12"
// @Param year query int false "Year"
// @Param category query string false "Exact category"
// @Success 200 {array} domain.Expense
// @Router /api/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	owner := middleware.PrincipalID(c)
	f := domain.Filter{
		Month:    queryInt(c, "month"),
		Year:     queryInt(c, "year"),
		Category: c.Query("category"),
	}

	list, err := h.svc.List(c.Request.Context(), owner, f)
	if err != nil {
		slog.Error("ListExpenses failed", "error", err, "user_id", owner, "month", f.Month, "year", f.Year)
		c.JSON(http.StatusInternalServerError, gin.H{"message": persistenceMessage(err, "Failed to fetch expenses")})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create godoc
// @Summary Record an expense
// @Accept json
// @Param request body domain.Draft true "Expense"
// @Success 201 {object} domain.Expense
// @Failure 400 {object} map[string]string
// @Router /api/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	owner := middleware.PrincipalID(c)

	var draft domain.Draft
	if err := c.ShouldBindJSON(&draft); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindMessage(err)})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), owner, draft)
	if err != nil {
		var verr *val.Error
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": verr.Error()})
			return
		}
		slog.Error("CreateExpense failed", "error", err, "user_id", owner)
		c.JSON(http.StatusInternalServerError, gin.H{"message": persistenceMessage(err, "Failed to create expense")})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ExpenseHandler) Get(c *gin.Context) {
	owner := middleware.PrincipalID(c)
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
		return
	}

	e, err := h.svc.Get(c.Request.Context(), owner, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
			return
		}
		slog.Error("GetExpense failed", "error", err, "user_id", owner, "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"message": persistenceMessage(err, "Failed to fetch expense")})
		return
	}
	c.JSON(http.StatusOK, e)
}

// Delete answers 204 for any numeric id, owned or not.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	owner := middleware.PrincipalID(c)
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), owner, id); err != nil {
		slog.Error("DeleteExpense failed", "error", err, "user_id", owner, "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"message": persistenceMessage(err, "Failed to delete expense")})
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats godoc
// @Summary Dashboard figures for an optional month and year
// @Success 200 {object} domain.Stats
// @Router /api/stats [get]
func (h *ExpenseHandler) Stats(c *gin.Context) {
	owner := middleware.PrincipalID(c)
	month, year := queryInt(c, "month"), queryInt(c, "year")

	out, err := h.svc.Stats(c.Request.Context(), owner, month, year)
	if err != nil {
		slog.Error("Stats failed", "error", err, "user_id", owner, "month", month, "year", year)
		c.JSON(http.StatusInternalServerError, gin.H{"message": persistenceMessage(err, "Failed to fetch stats")})
		return
	}
	c.JSON(http.StatusOK, out)
}

// Categories lists the allowed labels and the one forms should preselect.
func (h *ExpenseHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": domain.Categories,
		"default":    domain.DefaultCategory,
	})
}

// queryInt reads numeric forms such as "1", "1.0" or "1e0". Missing,
// malformed, fractional and zero values all come back as 0, meaning absent.
func queryInt(c *gin.Context, key string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Query(key)), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

// persistenceMessage hides driver detail, except for the two failures an
// operator can act on.
func persistenceMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, storage.ErrTableMissing):
		return "Database table not found. Please run migrations to create the expenses table."
	case errors.Is(err, storage.ErrUnavailable):
		return "Database connection failed. Please check your DATABASE_URL environment variable."
	default:
		return fallback
	}
}

func bindMessage(err error) string {
	var amountErr *domain.AmountError
	var timeErr *time.ParseError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &amountErr):
		return "Amount must be a number"
	case errors.As(err, &timeErr):
		return "Date must be a valid date"
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("%s has the wrong type", typeErr.Field)
		}
		return "Invalid JSON"
	default:
		return "Invalid JSON"
	}
}
