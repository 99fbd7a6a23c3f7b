package opensearch

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/stagepass/paywidget/infra/config"
)

// Client wraps the OpenSearch client
type Client struct {
	client *opensearch.Client
	config *config.AppConfig
}

// NewClient creates a new OpenSearch client
func NewClient(cfg *config.AppConfig) (*Client, error) {
	// OpenSearch client configuration
	opensearchConfig := opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // For development/testing
			},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	// Add authentication if configured
	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		opensearchConfig.Username = cfg.OpenSearchUser
		opensearchConfig.Password = cfg.OpenSearchPass
	}

	// Create OpenSearch client
	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, err
	}

	osClient := &Client{
		client: client,
		config: cfg,
	}

	// Test connection and create default indices
	if err := osClient.setupIndices(); err != nil {
		log.Printf("Warning: Failed to setup OpenSearch indices: %v", err)
	}

	return osClient, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// setupIndices creates the necessary indices for widget event logging
func (c *Client) setupIndices() error {
	// List of widget vendors to create indices for
	vendors := []string{"square", "cashapp", "paypal"}

	for _, vendor := range vendors {
		indexName := c.GetEventIndexName(vendor)

		// Check if index exists
		exists, err := c.indexExists(indexName)
		if err != nil {
			log.Printf("Error checking index %s: %v", indexName, err)
			continue
		}

		if !exists {
			if err := c.createEventIndex(indexName); err != nil {
				log.Printf("Error creating index %s: %v", indexName, err)
				continue
			}
			log.Printf("Created OpenSearch index: %s", indexName)
		}
	}

	return nil
}

// indexExists checks if an index exists
func (c *Client) indexExists(indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(nil, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}

// createEventIndex creates a new index for widget events with proper mapping
func (c *Client) createEventIndex(indexName string) error {
	mapping := `{
		"mappings": {
			"properties": {
				"timestamp": {
					"type": "date",
					"format": "strict_date_optional_time||epoch_millis"
				},
				"kind": {
					"type": "keyword"
				},
				"vendor": {
					"type": "keyword"
				},
				"container_id": {
					"type": "keyword"
				},
				"method_kind": {
					"type": "keyword"
				},
				"request_id": {
					"type": "keyword"
				},
				"tokenization": {
					"type": "object",
					"properties": {
						"status": {
							"type": "keyword"
						},
						"validation_errors": {
							"type": "text"
						}
					}
				},
				"error": {
					"type": "object",
					"properties": {
						"code": {
							"type": "keyword"
						},
						"message": {
							"type": "text"
						}
					}
				}
			}
		},
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0,
			"index": {
				"lifecycle": {
					"name": "widget_events_policy",
					"rollover_alias": "` + indexName + `"
				}
			}
		}
	}`

	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(nil, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}

	return nil
}

// GetEventIndexName returns the index name for a vendor's widget events
func (c *Client) GetEventIndexName(vendor string) string {
	return "paywidget-" + vendor + "-events"
}

// IsEnabled returns whether OpenSearch logging is enabled
func (c *Client) IsEnabled() bool {
	return c.config.EnableLogging
}
