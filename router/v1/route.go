package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stagepass/paywidget/handler"
	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/opensearch"
	_ "github.com/stagepass/paywidget/widget/cashapp" // Import for side-effect registration
	_ "github.com/stagepass/paywidget/widget/paypal"  // Import for side-effect registration
	_ "github.com/stagepass/paywidget/widget/square"  // Import for side-effect registration
)

// Routes registers all API routes
func Routes(r chi.Router, vendorConfig *config.VendorConfig, osLogger *opensearch.Logger) {
	validate := validator.New()

	widgetHandler := handler.NewWidgetHandler(vendorConfig, osLogger, validate)
	configHandler := handler.NewConfigHandler(vendorConfig, validate)

	// Widget routes
	r.Route("/widget", func(r chi.Router) {
		r.Get("/vendors", widgetHandler.ListVendors)
		r.Get("/{vendor}/bootstrap", widgetHandler.Bootstrap)
		r.Post("/events", widgetHandler.ReportEvent)
	})

	// Vendor configuration routes
	r.Route("/config", func(r chi.Router) {
		r.Post("/vendor", configHandler.SetVendorConfig)
		r.Get("/vendor", configHandler.GetVendorConfig)
		r.Delete("/vendor", configHandler.DeleteVendorConfig)
	})

	// Event query routes require the event store
	if osLogger != nil {
		logsHandler := handler.NewLogsHandler(osLogger)

		r.Route("/events", func(r chi.Router) {
			r.Get("/{vendor}", logsHandler.ListEvents)
			r.Get("/{vendor}/failures", logsHandler.ListFailures)
			r.Get("/{vendor}/stats", logsHandler.GetStats)
		})
	}
}
