// Package events bridges widget lifecycle events into the OpenSearch event
// store. It lives apart from infra/opensearch so the widget package can stay
// free of a dependency on its own telemetry sink.
package events

import (
	"context"

	"github.com/stagepass/paywidget/infra/opensearch"
	"github.com/stagepass/paywidget/widget"
)

// OpenSearchSink persists widget events to per-vendor OpenSearch indices.
// It implements widget.EventLogger.
type OpenSearchSink struct {
	logger *opensearch.Logger
}

// NewOpenSearchSink creates a sink backed by the given OpenSearch logger
func NewOpenSearchSink(logger *opensearch.Logger) *OpenSearchSink {
	return &OpenSearchSink{logger: logger}
}

// LogEvent indexes a single widget lifecycle event. Failures are returned to
// the caller; the widget manager logs and continues, so a sink outage never
// breaks the payment flow.
func (s *OpenSearchSink) LogEvent(ctx context.Context, event widget.Event) error {
	entry := opensearch.WidgetEventLog{
		Timestamp:   event.Timestamp,
		Kind:        string(event.Kind),
		Vendor:      event.Vendor,
		ContainerID: event.ContainerID,
		MethodKind:  string(event.MethodKind),
		State:       string(event.State),
		DurationMs:  event.DurationMs,
		OrderRef:    event.OrderReference,
	}

	if event.TokenStatus != "" {
		entry.Tokenization = opensearch.TokenizationLog{
			Status: string(event.TokenStatus),
		}
	}

	if event.Error != "" {
		entry.Error = opensearch.ErrorInfo{Message: event.Error}
	}

	return s.logger.LogWidgetEvent(ctx, entry)
}
