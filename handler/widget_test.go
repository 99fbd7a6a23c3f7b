package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/opensearch"
	"github.com/stagepass/paywidget/infra/response"

	_ "github.com/stagepass/paywidget/widget/square"
)

func validSquareConfig() map[string]string {
	return map[string]string{
		"applicationId": "sandbox-sq0idb-AbCdEf123456",
		"locationId":    "LKYXSPGPXK0A5",
		"environment":   "sandbox",
	}
}

// newDisabledEventLogger builds a logger over a client with logging turned
// off; writes become no-ops without touching the network.
func newDisabledEventLogger(t *testing.T) *opensearch.Logger {
	t.Helper()

	client, err := opensearch.NewClient(&config.AppConfig{
		OpenSearchURL: "http://localhost:9201",
		EnableLogging: false,
	})
	require.NoError(t, err)

	return opensearch.NewLogger(client)
}

func bootstrapRequest(t *testing.T, h *WidgetHandler, vendor string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/widget/{vendor}/bootstrap", h.Bootstrap)

	req := httptest.NewRequest("GET", "/widget/"+vendor+"/bootstrap", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWidgetHandler_Bootstrap(t *testing.T) {
	vendorConfig := config.NewMemoryVendorConfig()
	require.NoError(t, vendorConfig.SetConfig("square", validSquareConfig()))

	h := NewWidgetHandler(vendorConfig, nil, validator.New())

	w := bootstrapRequest(t, h, "square")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    BootstrapResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.True(t, resp.Success)

	assert.Equal(t, "square", resp.Data.Vendor)
	assert.Equal(t, "https://sandbox.web.squarecdn.com/v1/square.js", resp.Data.ScriptURL)
	assert.Equal(t, "Square", resp.Data.GlobalName)
	assert.True(t, strings.HasPrefix(resp.Data.ContainerID, "square-"))
	assert.Equal(t, "sandbox", resp.Data.Environment)
	assert.Equal(t, "sandbox-sq0idb-AbCdEf123456", resp.Data.Credentials["applicationId"])
	assert.Equal(t, "LKYXSPGPXK0A5", resp.Data.Credentials["locationId"])
}

func TestWidgetHandler_Bootstrap_FreshContainerIDPerCall(t *testing.T) {
	vendorConfig := config.NewMemoryVendorConfig()
	require.NoError(t, vendorConfig.SetConfig("square", validSquareConfig()))

	h := NewWidgetHandler(vendorConfig, nil, validator.New())

	first := bootstrapRequest(t, h, "square")
	second := bootstrapRequest(t, h, "square")

	var a, b struct {
		Data BootstrapResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(first.Body).Decode(&a))
	require.NoError(t, json.NewDecoder(second.Body).Decode(&b))

	assert.NotEqual(t, a.Data.ContainerID, b.Data.ContainerID)
}

func TestWidgetHandler_Bootstrap_UnknownVendor(t *testing.T) {
	h := NewWidgetHandler(config.NewMemoryVendorConfig(), nil, validator.New())

	w := bootstrapRequest(t, h, "klarna")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWidgetHandler_Bootstrap_Unconfigured(t *testing.T) {
	h := NewWidgetHandler(config.NewMemoryVendorConfig(), nil, validator.New())

	w := bootstrapRequest(t, h, "square")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWidgetHandler_Bootstrap_InvalidCredentials(t *testing.T) {
	vendorConfig := config.NewMemoryVendorConfig()
	require.NoError(t, vendorConfig.SetConfig("square", map[string]string{
		"applicationId": "sandbox-sq0idb-AbCdEf123456",
		"locationId":    "LKYXSPGPXK0A5",
		"environment":   "production", // prefix mismatch
	}))

	h := NewWidgetHandler(vendorConfig, nil, validator.New())

	w := bootstrapRequest(t, h, "square")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func validEventBody() string {
	return `{
		"kind": "tokenized",
		"vendor": "square",
		"containerId": "square-abc123",
		"methodKind": "card",
		"tokenStatus": "ok",
		"durationMs": 420
	}`
}

func TestWidgetHandler_ReportEvent_LoggingDisabled(t *testing.T) {
	h := NewWidgetHandler(config.NewMemoryVendorConfig(), nil, validator.New())

	req := httptest.NewRequest("POST", "/widget/events", bytes.NewBufferString(validEventBody()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.ReportEvent(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWidgetHandler_ReportEvent_InvalidJSON(t *testing.T) {
	h := NewWidgetHandler(config.NewMemoryVendorConfig(), newDisabledEventLogger(t), validator.New())

	req := httptest.NewRequest("POST", "/widget/events", bytes.NewBufferString("not-json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.ReportEvent(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWidgetHandler_ReportEvent_ValidationFailed(t *testing.T) {
	h := NewWidgetHandler(config.NewMemoryVendorConfig(), newDisabledEventLogger(t), validator.New())

	tests := []struct {
		name string
		body string
	}{
		{"unknown_kind", `{"kind":"exploded","vendor":"square","containerId":"square-abc"}`},
		{"unknown_vendor", `{"kind":"attached","vendor":"stripe","containerId":"square-abc"}`},
		{"missing_container", `{"kind":"attached","vendor":"square"}`},
		{"bad_token_status", `{"kind":"tokenized","vendor":"square","containerId":"square-abc","tokenStatus":"maybe"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/widget/events", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			h.ReportEvent(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestWidgetHandler_ReportEvent_Accepted(t *testing.T) {
	h := NewWidgetHandler(config.NewMemoryVendorConfig(), newDisabledEventLogger(t), validator.New())

	req := httptest.NewRequest("POST", "/widget/events", bytes.NewBufferString(validEventBody()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.ReportEvent(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp response.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
}

func TestWidgetHandler_ListVendors(t *testing.T) {
	vendorConfig := config.NewMemoryVendorConfig()
	require.NoError(t, vendorConfig.SetConfig("square", validSquareConfig()))

	h := NewWidgetHandler(vendorConfig, nil, validator.New())

	req := httptest.NewRequest("GET", "/widget/vendors", nil)
	w := httptest.NewRecorder()

	h.ListVendors(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Vendors []struct {
				Name       string `json:"name"`
				Configured bool   `json:"configured"`
			} `json:"vendors"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	found := false
	for _, v := range resp.Data.Vendors {
		if v.Name == "square" {
			found = true
			assert.True(t, v.Configured)
		}
	}
	assert.True(t, found)
}
