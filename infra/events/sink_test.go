package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/opensearch"
	"github.com/stagepass/paywidget/widget"
)

// The sink must satisfy the widget event logger contract.
var _ widget.EventLogger = (*OpenSearchSink)(nil)

func TestSinkNoOpsWhenLoggingDisabled(t *testing.T) {
	client, err := opensearch.NewClient(&config.AppConfig{
		OpenSearchURL: "http://localhost:9200",
		EnableLogging: false,
	})
	if err != nil {
		t.Skipf("Skipping test due to OpenSearch client error: %v", err)
	}
	require.NotNil(t, client)

	sink := NewOpenSearchSink(opensearch.NewLogger(client))

	event := widget.Event{
		Timestamp:      time.Now(),
		Vendor:         "square",
		ContainerID:    "square-abc123",
		MethodKind:     widget.MethodWallet,
		Kind:           widget.EventTokenized,
		TokenStatus:    widget.TokenizationOK,
		DurationMs:     150,
		OrderReference: "order-42",
	}

	assert.NoError(t, sink.LogEvent(context.Background(), event))
}
