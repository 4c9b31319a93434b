package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/gin-gonic/gin"
)

const maxListLimit = 500

type TransactionsHandler struct {
	transactions TransactionStore
	log          *slog.Logger
}

func NewTransactionsHandler(transactions TransactionStore, log *slog.Logger) *TransactionsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionsHandler{transactions: transactions, log: log}
}

// parseFilter reads the listing query parameters. paged controls whether
// limit and offset are accepted.
func parseFilter(ctx *gin.Context, paged bool) (transaction.ListFilter, []FieldError) {
	var f transaction.ListFilter
	var problems []FieldError

	if raw := strings.TrimSpace(ctx.Query("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			problems = append(problems, FieldError{Field: "user_id", Rule: "gt", Param: "0", Message: "must be a positive integer"})
		} else {
			f.UserID = &id
		}
	}

	if raw := strings.TrimSpace(ctx.Query("type")); raw != "" {
		f.TransactionType = &raw
	}

	if raw := strings.TrimSpace(ctx.Query("category")); raw != "" {
		f.Category = &raw
	}

	parseBound := func(name string) *time.Time {
		raw := strings.TrimSpace(ctx.Query(name))
		if raw == "" {
			return nil
		}
		t, err := transaction.ParseTime(raw)
		if err != nil {
			problems = append(problems, FieldError{Field: name, Rule: "datetime", Message: "must be a date or RFC3339 timestamp"})
			return nil
		}
		return &t
	}

	f.From = parseBound("from")
	f.To = parseBound("to")

	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		problems = append(problems, FieldError{Field: "to", Rule: "gtefield", Param: "from", Message: "must not be before from"})
	}

	if !paged {
		return f, problems
	}

	parseCount := func(name string, max int) int {
		raw := strings.TrimSpace(ctx.Query(name))
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || (max > 0 && n > max) {
			msg := "must be a non-negative integer"
			if max > 0 {
				msg += " up to " + strconv.Itoa(max)
			}
			problems = append(problems, FieldError{Field: name, Rule: "range", Message: msg})
			return 0
		}
		return n
	}

	f.Limit = parseCount("limit", maxListLimit)
	f.Offset = parseCount("offset", 0)

	return f, problems
}

func (h *TransactionsHandler) ListTransactions(ctx *gin.Context) {
	f, problems := parseFilter(ctx, true)
	if len(problems) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": problems})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	items, err := h.transactions.List(cctx, f)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not list transactions")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// Summary totals income and expense over the same filters as the listing.
func (h *TransactionsHandler) Summary(ctx *gin.Context) {
	f, problems := parseFilter(ctx, false)
	if len(problems) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": problems})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	sum, err := h.transactions.Summary(cctx, f)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not summarize transactions")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, sum)
}

func (h *TransactionsHandler) CreateTransaction(ctx *gin.Context) {
	var req transaction.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	t, err := h.transactions.Create(cctx, req)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not create transaction")
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

func (h *TransactionsHandler) GetTransactionByID(ctx *gin.Context) {
	id, ok := parseID(ctx, "transaction")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	t, err := h.transactions.GetByID(cctx, id)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not fetch transaction")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TransactionsHandler) UpdateTransaction(ctx *gin.Context) {
	id, ok := parseID(ctx, "transaction")
	if !ok {
		return
	}

	var req transaction.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	t, err := h.transactions.Update(cctx, id, req)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not update transaction")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TransactionsHandler) DeleteTransaction(ctx *gin.Context) {
	id, ok := parseID(ctx, "transaction")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.transactions.Delete(cctx, id); err != nil {
		respondStoreError(ctx, h.log, err, "Could not delete transaction")
		return
	}

	respondMessage(ctx, http.StatusOK, "Transaction deleted successfully")
}
