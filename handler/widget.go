package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/opensearch"
	"github.com/stagepass/paywidget/infra/response"
	"github.com/stagepass/paywidget/widget"
)

// WidgetHandler handles widget bootstrap and event reporting requests
type WidgetHandler struct {
	vendorConfig *config.VendorConfig
	eventLogger  *opensearch.Logger
	validate     *validator.Validate
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(vendorConfig *config.VendorConfig, eventLogger *opensearch.Logger, validate *validator.Validate) *WidgetHandler {
	return &WidgetHandler{
		vendorConfig: vendorConfig,
		eventLogger:  eventLogger,
		validate:     validate,
	}
}

// BootstrapResponse carries everything a checkout page needs to mount a
// widget: the SDK script URL, the global to wait for, and a fresh container
// element id. Only publishable credential fields are included.
type BootstrapResponse struct {
	Vendor      string            `json:"vendor"`
	ScriptURL   string            `json:"scriptUrl"`
	GlobalName  string            `json:"globalName"`
	ContainerID string            `json:"containerId"`
	Environment string            `json:"environment"`
	Credentials map[string]string `json:"credentials"`
}

// Bootstrap returns the widget bootstrap payload for a vendor
func (h *WidgetHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	vendor := chi.URLParam(r, "vendor")
	if vendor == "" {
		response.Error(w, http.StatusBadRequest, "Vendor parameter is required", nil)
		return
	}

	adapter, err := widget.CreateAdapter(vendor)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Unknown vendor", err)
		return
	}

	conf, err := h.vendorConfig.GetConfig(vendor)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Vendor is not configured", err)
		return
	}

	creds, err := adapter.ParseCredentials(conf)
	if err != nil {
		response.Error(w, http.StatusUnprocessableEntity, "Vendor configuration is invalid", err)
		return
	}

	publicCreds := map[string]string{
		"applicationId": creds.ApplicationID,
	}
	if creds.LocationID != "" {
		publicCreds["locationId"] = creds.LocationID
	}
	for k, v := range creds.Extra {
		publicCreds[k] = v
	}

	resp := BootstrapResponse{
		Vendor:      adapter.Name(),
		ScriptURL:   adapter.ScriptURL(creds),
		GlobalName:  adapter.GlobalName(),
		ContainerID: widget.NewContainerID(vendor),
		Environment: string(creds.Environment),
		Credentials: publicCreds,
	}

	response.Success(w, http.StatusOK, "Widget bootstrap ready", resp)
}

// EventRequest represents a widget lifecycle event reported by a client
type EventRequest struct {
	Kind           string   `json:"kind" validate:"required,oneof=attached create_failed disposed tokenized"`
	Vendor         string   `json:"vendor" validate:"required,oneof=square cashapp paypal"`
	ContainerID    string   `json:"containerId" validate:"required,max=128"`
	MethodKind     string   `json:"methodKind" validate:"omitempty,oneof=card wallet"`
	State          string   `json:"state" validate:"omitempty,max=32"`
	TokenStatus    string   `json:"tokenStatus" validate:"omitempty,oneof=ok validation_failed cancelled transient_error"`
	Error          string   `json:"error" validate:"omitempty,max=1024"`
	DurationMs     int64    `json:"durationMs" validate:"omitempty,min=0"`
	OrderReference string   `json:"orderReference" validate:"omitempty,max=128"`
	Timestamp      *float64 `json:"timestamp,omitempty"`
}

// ReportEvent ingests a widget lifecycle event into the event store
func (h *WidgetHandler) ReportEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if h.eventLogger == nil {
		response.Error(w, http.StatusServiceUnavailable, "Event logging is disabled", nil)
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	entry := opensearch.WidgetEventLog{
		Timestamp:   time.Now().UTC(),
		Kind:        req.Kind,
		Vendor:      req.Vendor,
		ContainerID: req.ContainerID,
		MethodKind:  req.MethodKind,
		State:       req.State,
		DurationMs:  req.DurationMs,
		OrderRef:    req.OrderReference,
	}
	// Client-supplied timestamps are epoch millis
	if req.Timestamp != nil {
		entry.Timestamp = time.UnixMilli(int64(*req.Timestamp)).UTC()
	}
	if req.TokenStatus != "" {
		entry.Tokenization = opensearch.TokenizationLog{Status: req.TokenStatus}
	}
	if req.Error != "" {
		entry.Error = opensearch.ErrorInfo{Message: opensearch.SanitizeForLog(req.Error)}
	}

	if err := h.eventLogger.LogWidgetEvent(ctx, entry); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to record event", err)
		return
	}

	response.Success(w, http.StatusAccepted, "Event recorded", map[string]any{
		"vendor":      req.Vendor,
		"containerId": req.ContainerID,
		"kind":        req.Kind,
	})
}

// ListVendors returns the vendors that are both registered and configured
func (h *WidgetHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	registered := widget.DefaultRegistry.GetVendorNames()
	configured := make(map[string]bool)
	for _, v := range h.vendorConfig.GetAvailableVendors() {
		configured[v] = true
	}

	vendors := make([]map[string]any, 0, len(registered))
	for _, name := range registered {
		vendors = append(vendors, map[string]any{
			"name":       name,
			"configured": configured[name],
		})
	}

	response.Success(w, http.StatusOK, "Vendors retrieved", map[string]any{
		"vendors": vendors,
	})
}
