package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gameshop/internal/api/apierr"
	"github.com/mcoot/gameshop/internal/api/request"
	"github.com/mcoot/gameshop/internal/api/response"
	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/services/account"
	"github.com/mcoot/gameshop/internal/services/catalog"
)

// ProductHandler handles catalog and purchase endpoints
type ProductHandler struct {
	catalog    catalog.Provider
	controller *account.Controller
	logger     *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog catalog.Provider, controller *account.Controller, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:    catalog,
		controller: controller,
		logger:     logger,
	}
}

// List handles GET /product
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		apierr.WriteError(w, r, h.logger, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	response.JSON(w, http.StatusOK, response.ProductsResponse{Products: products})
}

// Create handles POST /product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierr.WriteError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), catalog.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Recurrence:  req.Recurrence,
		TaxBehavior: req.TaxBehavior,
		Metadata:    req.Metadata,
	})
	if err != nil {
		apierr.WriteError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, product)
}

// Purchase handles POST /purchase
func (h *ProductHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req request.PurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierr.WriteError(w, r, h.logger, err)
		return
	}

	if req.UserID == "" {
		apierr.WriteError(w, r, h.logger, apierr.NewInvalidRequestError("user_id is required"))
		return
	}

	p, receipt, err := h.controller.Purchase(r.Context(), model.IdentityID(req.UserID), req.Secret, req.ProductID)
	if err != nil {
		apierr.WriteError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PurchaseResponseFromReceipt(p, receipt))
}
