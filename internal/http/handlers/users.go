package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UsersHandler struct {
	users UserStore
	log   *slog.Logger
}

func NewUsersHandler(users UserStore, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{users: users, log: log}
}

// parseID reads a positive integer path parameter. It writes the 400 itself.
func parseID(ctx *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid "+what+" id", nil)
		return 0, false
	}

	return id, true
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, user.Views(users))
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.users.Create(cctx, req)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u.View())
}

func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id, ok := parseID(ctx, "user")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u.View())
}

// UpdateUser applies only the fields present in the body.
func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "user")
	if !ok {
		return
	}

	var req user.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	var (
		u   user.User
		err error
	)

	if req.Empty() {
		u, err = h.users.GetByID(cctx, id)
	} else {
		u, err = h.users.Update(cctx, id, req)
	}

	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u.View())
}

// DeleteUser removes the user and every transaction it owns.
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "user")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	removed, err := h.users.Delete(cctx, id)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not delete user")
		return
	}

	h.log.InfoContext(cctx, "user_deleted", "user_id", id, "transactions_removed", removed)
	respondMessage(ctx, http.StatusOK, "User deleted successfully")
}
