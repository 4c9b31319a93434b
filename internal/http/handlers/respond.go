package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/validation"
	"github.com/gin-gonic/gin"
)

// RespondError writes the {"error": message} envelope. details is omitted
// when nil.
func RespondError(ctx *gin.Context, status int, message string, details interface{}) {
	body := gin.H{"error": message}

	if details != nil {
		body["details"] = details
	}

	ctx.JSON(status, body)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message, nil)
}

func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusConflict, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message, nil)
}

func respondMessage(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}

// respondStoreError maps store and domain errors to a response. Anything it
// does not recognize is logged and answered with fallback.
func respondStoreError(ctx *gin.Context, log *slog.Logger, err error, fallback string) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		RespondBadRequest(ctx, verr.Error(), gin.H{
			"fields": []FieldError{{Field: verr.Field, Rule: "invalid", Message: verr.Message}},
		})
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, transaction.ErrNotFound):
		RespondNotFound(ctx, "Transaction not found")
	case errors.Is(err, transaction.ErrUserNotFound):
		RespondBadRequest(ctx, "user_id does not reference an existing user", gin.H{
			"fields": []FieldError{{Field: "user_id", Rule: "exists", Message: "must reference an existing user"}},
		})
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "Email is already in use")
	case errors.Is(err, user.ErrCascadeFailed):
		log.ErrorContext(ctx.Request.Context(), "cascade_delete_failed", "err", err)
		RespondInternal(ctx, "Could not delete user and related transactions")
	default:
		log.ErrorContext(ctx.Request.Context(), "store_error", "err", err, "route", ctx.FullPath())
		RespondInternal(ctx, fallback)
	}
}
