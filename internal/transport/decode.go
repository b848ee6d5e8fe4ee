package transport

import (
	"errors"
	"net/http"

	"product-dashboard/internal/client"
	"product-dashboard/internal/middleware"

	"go.uber.org/zap"
)

// decode reads and validates a JSON body, writing the error response itself
// when that fails
func decode(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	err := middleware.DecodeAndValidate(r, v)
	if err == nil {
		return true
	}

	logger.Debug("Request validation failed", zap.Error(err))
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, "", validationErrors)
		return false
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
	return false
}

// decodeProductInput reads the product form and applies the form rules
func decodeProductInput(w http.ResponseWriter, r *http.Request, input *client.ProductInput, logger *zap.Logger) bool {
	if !decodeBody(w, r, input, logger) {
		return false
	}
	return checkForm(w, input.Validate(client.OpCreate))
}

// decodeProductPatch reads a product edit; absent fields stay unchanged
func decodeProductPatch(w http.ResponseWriter, r *http.Request, patch *client.ProductPatch, logger *zap.Logger) bool {
	if !decodeBody(w, r, patch, logger) {
		return false
	}
	return checkForm(w, patch.Validate())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeJSON(r, v); err != nil {
		logger.Debug("Product form decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func checkForm(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		middleware.RespondWithValidationErrors(w, apiErr.Message, fieldErrors(apiErr.Fields))
		return false
	}
	middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	return false
}
