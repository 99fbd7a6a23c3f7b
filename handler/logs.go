package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stagepass/paywidget/infra/opensearch"
	"github.com/stagepass/paywidget/infra/response"
)

// EventStore defines the interface for event query operations
type EventStore interface {
	SearchEvents(ctx context.Context, vendor string, query map[string]any) ([]opensearch.WidgetEventLog, error)
	GetContainerEvents(ctx context.Context, vendor, containerID string) ([]opensearch.WidgetEventLog, error)
	GetRecentFailures(ctx context.Context, vendor string, hours int) ([]opensearch.WidgetEventLog, error)
	GetVendorStats(ctx context.Context, vendor string, hours int) (map[string]any, error)
}

// LogsHandler handles widget event query requests
type LogsHandler struct {
	store EventStore
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(store EventStore) *LogsHandler {
	return &LogsHandler{
		store: store,
	}
}

// ListEvents lists widget events for a vendor with optional filtering
func (h *LogsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	vendor := chi.URLParam(r, "vendor")
	if vendor == "" {
		response.Error(w, http.StatusBadRequest, "Vendor parameter is required", nil)
		return
	}

	// Container filter short-circuits the rest
	if containerID := r.URL.Query().Get("containerId"); containerID != "" {
		events, err := h.store.GetContainerEvents(ctx, vendor, containerID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to retrieve events", err)
			return
		}
		response.Success(w, http.StatusOK, "Events retrieved", map[string]any{
			"vendor": vendor,
			"count":  len(events),
			"events": events,
		})
		return
	}

	query := make(map[string]any)

	// Kind filter
	if kind := r.URL.Query().Get("kind"); kind != "" {
		query = map[string]any{
			"term": map[string]any{
				"kind": kind,
			},
		}
	}

	// Time range filter
	hours := 24 // Default to 24 hours
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		if h, err := strconv.Atoi(hoursStr); err == nil && h > 0 && h <= 168 { // Max 7 days
			hours = h
		}
	}

	timeFilter := map[string]any{
		"range": map[string]any{
			"timestamp": map[string]any{
				"gte": fmt.Sprintf("now-%dh", hours),
			},
		},
	}

	if len(query) == 0 {
		query = timeFilter
	} else {
		existing := query
		query = map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{
					existing,
					timeFilter,
				},
			},
		}
	}

	events, err := h.store.SearchEvents(ctx, vendor, query)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve events", err)
		return
	}

	response.Success(w, http.StatusOK, "Events retrieved", map[string]any{
		"vendor": vendor,
		"hours":  hours,
		"count":  len(events),
		"events": events,
	})
}

// ListFailures lists recent create failures for a vendor
func (h *LogsHandler) ListFailures(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	vendor := chi.URLParam(r, "vendor")
	if vendor == "" {
		response.Error(w, http.StatusBadRequest, "Vendor parameter is required", nil)
		return
	}

	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		if h, err := strconv.Atoi(hoursStr); err == nil && h > 0 && h <= 168 {
			hours = h
		}
	}

	events, err := h.store.GetRecentFailures(ctx, vendor, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve failures", err)
		return
	}

	response.Success(w, http.StatusOK, "Failures retrieved", map[string]any{
		"vendor":   vendor,
		"hours":    hours,
		"count":    len(events),
		"failures": events,
	})
}

// GetStats returns aggregated event statistics for a vendor
func (h *LogsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	vendor := chi.URLParam(r, "vendor")
	if vendor == "" {
		response.Error(w, http.StatusBadRequest, "Vendor parameter is required", nil)
		return
	}

	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		if h, err := strconv.Atoi(hoursStr); err == nil && h > 0 && h <= 168 {
			hours = h
		}
	}

	stats, err := h.store.GetVendorStats(ctx, vendor, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve statistics", err)
		return
	}

	response.Success(w, http.StatusOK, "Statistics retrieved", map[string]any{
		"vendor": vendor,
		"hours":  hours,
		"stats":  stats,
	})
}
