package transport

import (
	"errors"
	"net/http"

	"product-dashboard/internal/client"
	"product-dashboard/internal/dashboard"
	"product-dashboard/internal/middleware"
	"product-dashboard/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FiltersRequest changes the dashboard filters. Absent fields are kept.
type FiltersRequest struct {
	Search   *string `json:"search"`
	Category *string `json:"category"`
	Page     *int    `json:"page" validate:"omitempty,min=1"`
}

// ProductHandler serves the signed-in user's products dashboard
type ProductHandler struct {
	dashboards *dashboard.Registry
	logger     *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(dashboards *dashboard.Registry, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{dashboards: dashboards, logger: logger}
}

// RegisterRoutes registers the dashboard and product routes; all of them
// require authentication
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/api/dashboard", h.Dashboard)
		r.Put("/api/dashboard/filters", h.SetFilters)

		r.Route("/api/products", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Post("/refresh", h.Refresh)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *ProductHandler) dashboardFor(r *http.Request) *dashboard.Dashboard {
	userID, _ := middleware.GetUserID(r.Context())
	return h.dashboards.Get(userID)
}

// Dashboard returns the products state and the current page
func (h *ProductHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.dashboardFor(r).View())
}

// SetFilters updates search, category and page, then returns the new view
func (h *ProductHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req FiltersRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	d := h.dashboardFor(r)
	if req.Search != nil {
		d.Filters.SetSearch(*req.Search)
	}
	if req.Category != nil {
		d.Filters.SetCategory(*req.Category)
	}
	if req.Page != nil {
		d.Filters.SetPage(*req.Page)
	}

	middleware.RespondWithJSON(w, http.StatusOK, d.View())
}

// Refresh reloads the list and the selected product from the remote store
func (h *ProductHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	d := h.dashboardFor(r)
	if err := d.Reload(r.Context()); err != nil {
		h.respondWithStoreError(w, err, store.CategoryList)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, d.View())
}

// Get loads one product into the selection
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.dashboardFor(r).Store.FetchProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithStoreError(w, err, store.CategoryItem)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create submits the product form
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input client.ProductInput
	if !decodeProductInput(w, r, &input, h.logger) {
		return
	}

	product, err := h.dashboardFor(r).Store.CreateProduct(r.Context(), input.CreateRequest())
	if err != nil {
		h.respondWithStoreError(w, err, store.CategoryCreate)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update applies an edit to an existing product. Fields missing from the body
// and attributes the form does not know about keep their current value.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch client.ProductPatch
	if !decodeProductPatch(w, r, &patch, h.logger) {
		return
	}

	d := h.dashboardFor(r)
	current, err := d.Store.FetchProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithStoreError(w, err, store.CategoryItem)
		return
	}

	product, err := d.Store.UpdateProduct(r.Context(), patch.Apply(current))
	if err != nil {
		h.respondWithStoreError(w, err, store.CategoryUpdate)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.dashboardFor(r).Store.DeleteProduct(r.Context(), id); err != nil {
		h.respondWithStoreError(w, err, store.CategoryDelete)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"id": id})
}

// respondWithStoreError maps a failed product operation onto a response:
// validation 400, not found 404, anything else from the remote store 502
func (h *ProductHandler) respondWithStoreError(w http.ResponseWriter, err error, c store.Category) {
	var apiErr *client.Error
	if !errors.As(err, &apiErr) {
		h.logger.Error("Product operation failed", zap.Stringer("category", c), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, client.Message(err, fallbackMessage(c)))
		return
	}

	switch apiErr.Kind {
	case client.KindValidation:
		middleware.RespondWithValidationErrors(w, apiErr.Message, fieldErrors(apiErr.Fields))
	case client.KindNotFound:
		middleware.RespondWithError(w, http.StatusNotFound, client.Message(err, fallbackMessage(c)))
	default:
		h.logger.Warn("Remote product store failed",
			zap.Stringer("category", c),
			zap.Int("status", apiErr.Status),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusBadGateway, client.Message(err, fallbackMessage(c)))
	}
}

func fallbackMessage(c store.Category) string {
	switch c {
	case store.CategoryItem:
		return client.OpGet.FallbackMessage()
	case store.CategoryCreate:
		return client.OpCreate.FallbackMessage()
	case store.CategoryUpdate:
		return client.OpUpdate.FallbackMessage()
	case store.CategoryDelete:
		return client.OpDelete.FallbackMessage()
	default:
		return client.OpList.FallbackMessage()
	}
}

func fieldErrors(fields []client.FieldError) []middleware.ValidationError {
	out := make([]middleware.ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, middleware.ValidationError{Field: f.Field, Message: f.Message})
	}
	return out
}
