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

// DataHandler handles profile document endpoints
type DataHandler struct {
	controller *account.Controller
	logger     *slog.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(controller *account.Controller, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		controller: controller,
		logger:     logger,
	}
}

// Get handles GET /data?user_id&secret
func (h *DataHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		apierr.WriteError(w, r, h.logger, apierr.NewInvalidRequestError("user_id is required"))
		return
	}

	doc, err := h.controller.Profile(r.Context(), model.IdentityID(userID), q.Get("secret"))
	if err != nil {
		apierr.WriteError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, response.DataResponse{Data: doc})
}

// Update handles PUT /data
func (h *DataHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateDataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierr.WriteError(w, r, h.logger, err)
		return
	}

	if req.UserID == "" {
		apierr.WriteError(w, r, h.logger, apierr.NewInvalidRequestError("user_id is required"))
		return
	}
	if req.Data == nil {
		apierr.WriteError(w, r, h.logger, apierr.NewInvalidRequestError("data is required"))
		return
	}

	doc, err := h.controller.UpdateProfile(r.Context(), model.IdentityID(req.UserID), req.Secret, model.Profile(req.Data))
	if err != nil {
		apierr.WriteError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UpdateDataResponse{Message: response.MessageDataUpdated, UpdatedData: doc})
}
