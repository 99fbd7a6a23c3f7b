package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// WidgetEventLog represents a structured widget lifecycle event entry
type WidgetEventLog struct {
	Timestamp    time.Time       `json:"timestamp"`
	Kind         string          `json:"kind"`
	Vendor       string          `json:"vendor"`
	ContainerID  string          `json:"container_id"`
	MethodKind   string          `json:"method_kind,omitempty"`
	State        string          `json:"state,omitempty"`
	RequestID    string          `json:"request_id"`
	Tokenization TokenizationLog `json:"tokenization,omitempty"`
	Error        ErrorInfo       `json:"error,omitempty"`
	DurationMs   int64           `json:"duration_ms,omitempty"`
	OrderRef     string          `json:"order_reference,omitempty"`
}

// TokenizationLog represents tokenization outcome details
type TokenizationLog struct {
	Status           string   `json:"status,omitempty"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogWidgetEvent logs a widget lifecycle event to OpenSearch
func (l *Logger) LogWidgetEvent(ctx context.Context, log WidgetEventLog) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	// Set timestamp if not provided
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	// Generate request ID if not provided
	if log.RequestID == "" {
		log.RequestID = uuid.New().String()
	}

	// Determine the appropriate index based on vendor
	indexName := l.client.GetEventIndexName(log.Vendor)

	// Convert log to JSON
	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	// Index the document
	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchEvents searches for widget events based on criteria
func (l *Logger) SearchEvents(ctx context.Context, vendor string, query map[string]any) ([]WidgetEventLog, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	indexName := l.client.GetEventIndexName(vendor)

	// Build search query
	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100, // Limit results
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	// Perform search
	req := opensearchapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	// Parse search results
	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source WidgetEventLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	// Extract events from search results
	events := make([]WidgetEventLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		events[i] = hit.Source
	}

	return events, nil
}

// GetContainerEvents retrieves events for a specific container ID
func (l *Logger) GetContainerEvents(ctx context.Context, vendor, containerID string) ([]WidgetEventLog, error) {
	query := map[string]any{
		"match": map[string]any{
			"container_id": containerID,
		},
	}

	return l.SearchEvents(ctx, vendor, query)
}

// GetRecentFailures retrieves recent create failures for a vendor
func (l *Logger) GetRecentFailures(ctx context.Context, vendor string, hours int) ([]WidgetEventLog, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
				{
					"term": map[string]any{
						"kind": "create_failed",
					},
				},
			},
		},
	}

	return l.SearchEvents(ctx, vendor, query)
}

// GetVendorStats retrieves event statistics for a vendor
func (l *Logger) GetVendorStats(ctx context.Context, vendor string, hours int) (map[string]any, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	indexName := l.client.GetEventIndexName(vendor)

	// Build aggregation query
	aggQuery := map[string]any{
		"query": map[string]any{
			"range": map[string]any{
				"timestamp": map[string]any{
					"gte": fmt.Sprintf("now-%dh", hours),
				},
			},
		},
		"aggs": map[string]any{
			"total_events": map[string]any{
				"value_count": map[string]any{
					"field": "request_id",
				},
			},
			"attached_count": map[string]any{
				"filter": map[string]any{
					"term": map[string]any{
						"kind": "attached",
					},
				},
			},
			"failure_count": map[string]any{
				"filter": map[string]any{
					"term": map[string]any{
						"kind": "create_failed",
					},
				},
			},
			"tokenization_statuses": map[string]any{
				"terms": map[string]any{
					"field": "tokenization.status",
					"size":  10,
				},
			},
		},
		"size": 0, // We only want aggregations
	}

	queryJSON, err := json.Marshal(aggQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal aggregation query: %w", err)
	}

	// Perform search
	req := opensearchapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("aggregation search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch aggregation error: %s", res.String())
	}

	// Parse aggregation results
	var result map[string]any
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation results: %w", err)
	}

	return result, nil
}

// SanitizeForLog removes sensitive information from data before logging
func SanitizeForLog(data string) string {
	// Payment tokens and credentials never belong in the event store
	sensitiveFields := []string{
		"token", "sourceId", "source_id", "cardNumber", "card_number", "cvv", "cvc",
		"apiKey", "api_key", "secretKey", "secret_key", "password",
		"authorization", "x-api-key", "x-secret-key",
	}

	result := data
	for _, field := range sensitiveFields {
		// Regex patterns for different formats
		patterns := []string{
			fmt.Sprintf(`"%s"\s*:\s*"[^"]*"`, field), // JSON format with double quotes
			fmt.Sprintf(`"%s"\s*:\s*'[^']*'`, field), // JSON format with single quotes
			fmt.Sprintf(`%s=\w+`, field),             // URL parameter format
		}

		for _, pattern := range patterns {
			re := regexp.MustCompile(pattern)
			result = re.ReplaceAllString(result, fmt.Sprintf(`"%s":"***REDACTED***"`, field))
		}
	}

	return result
}

// LogSystemEvent logs a system event to OpenSearch
func (l *Logger) LogSystemEvent(ctx context.Context, log any) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	// Use system logs index
	indexName := "paywidget-system-logs"

	// Convert log to JSON
	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal system log: %w", err)
	}

	// Index the document
	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index system log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch system log error: %s", res.String())
	}

	return nil
}
