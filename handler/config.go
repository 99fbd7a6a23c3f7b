package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/response"
	"github.com/stagepass/paywidget/widget"
)

// ConfigHandler handles vendor configuration related HTTP requests
type ConfigHandler struct {
	vendorConfig *config.VendorConfig
	validate     *validator.Validate
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(vendorConfig *config.VendorConfig, validate *validator.Validate) *ConfigHandler {
	return &ConfigHandler{
		vendorConfig: vendorConfig,
		validate:     validate,
	}
}

// SetVendorRequest represents the request structure for setting vendor credentials
type SetVendorRequest struct {
	Vendor string            `json:"vendor" validate:"required,oneof=square cashapp paypal"`
	Config map[string]string `json:"config" validate:"required,min=1"`
}

// SetVendorConfig stores credential configuration for a vendor. The config is
// validated against the adapter's required fields before it is persisted, so
// a bad write never reaches a checkout page.
func (h *ConfigHandler) SetVendorConfig(w http.ResponseWriter, r *http.Request) {
	var req SetVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	adapter, err := widget.CreateAdapter(req.Vendor)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Unknown vendor", err)
		return
	}

	if _, err := adapter.ParseCredentials(req.Config); err != nil {
		response.Error(w, http.StatusUnprocessableEntity, "Vendor configuration is invalid", err)
		return
	}

	if err := h.vendorConfig.SetConfig(req.Vendor, req.Config); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to save configuration", err)
		return
	}

	responseData := map[string]any{
		"vendor":  req.Vendor,
		"message": "Vendor configuration set successfully",
	}

	response.Success(w, http.StatusOK, "Configuration updated", responseData)
}

// GetVendorConfig returns the configuration for a specific vendor
func (h *ConfigHandler) GetVendorConfig(w http.ResponseWriter, r *http.Request) {
	vendorName := r.URL.Query().Get("vendor")
	if vendorName == "" {
		response.Error(w, http.StatusBadRequest, "vendor query parameter is required", nil)
		return
	}

	conf, err := h.vendorConfig.GetConfig(vendorName)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Configuration not found", err)
		return
	}

	// Remove sensitive information from response
	publicConfig := make(map[string]string)
	for key, value := range conf {
		if strings.Contains(strings.ToLower(key), "key") ||
			strings.Contains(strings.ToLower(key), "secret") ||
			strings.Contains(strings.ToLower(key), "token") {
			// Mask sensitive values
			if len(value) > 8 {
				publicConfig[key] = value[:4] + "****" + value[len(value)-4:]
			} else {
				publicConfig[key] = "****"
			}
		} else {
			publicConfig[key] = value
		}
	}

	responseData := map[string]any{
		"vendor": vendorName,
		"config": publicConfig,
	}

	response.Success(w, http.StatusOK, "Configuration retrieved", responseData)
}

// DeleteVendorConfig deletes a vendor configuration
func (h *ConfigHandler) DeleteVendorConfig(w http.ResponseWriter, r *http.Request) {
	vendorName := r.URL.Query().Get("vendor")
	if vendorName == "" {
		response.Error(w, http.StatusBadRequest, "vendor query parameter is required", nil)
		return
	}

	if err := h.vendorConfig.DeleteConfig(vendorName); err != nil {
		response.Error(w, http.StatusNotFound, "Failed to delete configuration", err)
		return
	}

	responseData := map[string]any{
		"vendor":  vendorName,
		"message": "Configuration deleted successfully",
	}

	response.Success(w, http.StatusOK, "Configuration deleted", responseData)
}
