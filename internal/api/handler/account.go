package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gameshop/internal/api/apierr"
	"github.com/mcoot/gameshop/internal/api/request"
	"github.com/mcoot/gameshop/internal/api/response"
	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/services/account"
)

// AccountHandler handles account, coin and login endpoints
type AccountHandler struct {
	controller *account.Controller
	logger     *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(controller *account.Controller, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		controller: controller,
		logger:     logger,
	}
}

func (h *AccountHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apierr.WriteError(w, r, h.logger, err)
}

// Create handles POST /account
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	grant, err := h.controller.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateAccountResponseFromGrant(grant))
}

// Get handles GET /account?user_id&secret|password
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		h.writeError(w, r, apierr.NewInvalidRequestError("user_id is required"))
		return
	}

	var creds []model.Credential
	if secret := q.Get("secret"); secret != "" {
		creds = append(creds, model.SecretCredential(secret))
	}
	if password := q.Get("password"); password != "" {
		creds = append(creds, model.PasswordCredential(password))
	}

	summary, err := h.controller.Summary(r.Context(), model.IdentityID(userID), creds...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountResponseFromSummary(summary))
}

// UpdateCoins handles PUT /account
func (h *AccountHandler) UpdateCoins(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCoinsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if req.UserID == "" {
		h.writeError(w, r, apierr.NewInvalidRequestError("user_id is required"))
		return
	}

	coins, err := h.controller.MutateCoins(r.Context(), model.IdentityID(req.UserID), req.Secret, req.Action, req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CoinsResponse{Message: response.MessageCoinsUpdated, Coins: coins})
}

// Login handles POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	grant, err := h.controller.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LoginResponseFromGrant(grant))
}
