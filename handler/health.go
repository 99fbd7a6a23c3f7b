package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/opensearch"
	"github.com/stagepass/paywidget/infra/response"
	"github.com/stagepass/paywidget/widget"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	vendorConfig *config.VendorConfig
	osClient     *opensearch.Client
	startTime    time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string                    `json:"status"`
	Version     string                    `json:"version"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Environment string                    `json:"environment"`
	Vendors     map[string]*VendorHealth  `json:"vendors"`
	System      *SystemHealth             `json:"system"`
	Services    map[string]*ServiceHealth `json:"services"`
}

// VendorHealth represents a widget vendor's readiness
type VendorHealth struct {
	Registered bool   `json:"registered"`
	Configured bool   `json:"configured"`
	Error      string `json:"error,omitempty"`
}

// SystemHealth represents system resource health
type SystemHealth struct {
	Memory     *MemoryHealth `json:"memory"`
	GoRoutines int           `json:"goroutines"`
}

// MemoryHealth represents memory usage
type MemoryHealth struct {
	Alloc      string `json:"alloc"`
	TotalAlloc string `json:"total_alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status      string `json:"status"`
	Healthy     bool   `json:"healthy"`
	Description string `json:"description,omitempty"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(vendorConfig *config.VendorConfig, osClient *opensearch.Client) *HealthHandler {
	return &HealthHandler{
		vendorConfig: vendorConfig,
		osClient:     osClient,
		startTime:    time.Now(),
	}
}

// CheckHealth performs health checks across vendors and backing services
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	health := &HealthStatus{
		Status:      "healthy",
		Version:     "1.0.0",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).String(),
		Environment: config.GetEnv("ENVIRONMENT", "development"),
		Vendors:     h.checkVendors(),
		System:      h.checkSystem(),
		Services:    h.checkServices(),
	}

	// A registered vendor with a broken config degrades overall status
	for _, v := range health.Vendors {
		if v.Configured && v.Error != "" {
			health.Status = "degraded"
			break
		}
	}

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	response.Success(w, statusCode, "Health check completed", health)
}

// Liveness is a minimal liveness probe
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "alive", map[string]any{
		"uptime": time.Since(h.startTime).String(),
	})
}

// checkVendors verifies each registered vendor parses its stored config
func (h *HealthHandler) checkVendors() map[string]*VendorHealth {
	configured := make(map[string]bool)
	for _, v := range h.vendorConfig.GetAvailableVendors() {
		configured[v] = true
	}

	vendors := make(map[string]*VendorHealth)
	for _, name := range widget.DefaultRegistry.GetVendorNames() {
		vh := &VendorHealth{
			Registered: true,
			Configured: configured[name],
		}

		if vh.Configured {
			adapter, err := widget.CreateAdapter(name)
			if err == nil {
				if conf, confErr := h.vendorConfig.GetConfig(name); confErr == nil {
					if _, parseErr := adapter.ParseCredentials(conf); parseErr != nil {
						vh.Error = parseErr.Error()
					}
				}
			}
		}

		vendors[name] = vh
	}

	return vendors
}

// checkSystem collects runtime resource statistics
func (h *HealthHandler) checkSystem() *SystemHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemHealth{
		Memory: &MemoryHealth{
			Alloc:      formatBytes(m.Alloc),
			TotalAlloc: formatBytes(m.TotalAlloc),
			Sys:        formatBytes(m.Sys),
			GCRuns:     m.NumGC,
		},
		GoRoutines: runtime.NumGoroutine(),
	}
}

// checkServices reports on backing service availability
func (h *HealthHandler) checkServices() map[string]*ServiceHealth {
	services := make(map[string]*ServiceHealth)

	osHealth := &ServiceHealth{
		Status:      "disabled",
		Healthy:     true,
		Description: "OpenSearch event logging",
	}
	if h.osClient != nil && h.osClient.IsEnabled() {
		osHealth.Status = "enabled"
	}
	services["opensearch"] = osHealth

	return services
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
