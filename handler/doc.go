// Package handler provides HTTP request handlers for the paywidget service.
//
// This package contains the handlers that implement the REST API endpoints
// for widget bootstrap, vendor credential management, event ingestion, and
// event queries. The handlers bridge the HTTP layer with the widget core
// and the OpenSearch event store.
//
// # Core Handlers
//
//   - WidgetHandler: Serves widget bootstrap payloads and ingests lifecycle events
//   - ConfigHandler: Manages vendor credential configurations
//   - LogsHandler: Provides access to the widget event store
//   - HealthHandler: Reports vendor readiness and system health
//
// # Widget Handler
//
// The WidgetHandler hands a checkout page everything it needs to mount a
// payment widget:
//
//	widgetHandler := handler.NewWidgetHandler(vendorConfig, eventLogger, validator)
//
//	// Routes
//	r.Get("/v1/widget/vendors", widgetHandler.ListVendors)
//	r.Get("/v1/widget/{vendor}/bootstrap", widgetHandler.Bootstrap)
//	r.Post("/v1/widget/events", widgetHandler.ReportEvent)
//
// Bootstrap responses carry only publishable credential fields. Secret keys
// never leave the service.
package handler
