package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// VendorConfig manages widget vendor credential configurations. Values come
// from environment variables or the SQLite store; missing or placeholder
// values are never substituted here — the widget resolver treats them as
// fatal configuration errors.
type VendorConfig struct {
	configs map[string]map[string]string
	storage *SQLiteStorage
	mu      sync.RWMutex
}

// envFields maps each known vendor to its configuration keys and the
// environment variables that carry them.
var envFields = map[string]map[string]string{
	"square": {
		"applicationId": "SQUARE_APPLICATION_ID",
		"locationId":    "SQUARE_LOCATION_ID",
		"environment":   "SQUARE_ENVIRONMENT",
	},
	"cashapp": {
		"applicationId": "CASHAPP_APPLICATION_ID",
		"locationId":    "CASHAPP_LOCATION_ID",
		"redirectUrl":   "CASHAPP_REDIRECT_URL",
		"environment":   "CASHAPP_ENVIRONMENT",
	},
	"paypal": {
		"clientId":    "PAYPAL_CLIENT_ID",
		"currency":    "PAYPAL_CURRENCY",
		"environment": "PAYPAL_ENVIRONMENT",
	},
}

// primaryField is the configuration key whose presence marks a vendor as
// configured at all.
var primaryField = map[string]string{
	"square":  "applicationId",
	"cashapp": "applicationId",
	"paypal":  "clientId",
}

// NewVendorConfig creates a new vendor configuration backed by SQLite when
// available, memory-only otherwise.
func NewVendorConfig() *VendorConfig {
	config := &VendorConfig{
		configs: make(map[string]map[string]string),
	}

	storage, err := NewSQLiteStorage(GetAppConfig().SQLitePath)
	if err != nil {
		log.Printf("Warning: Failed to initialize SQLite storage (%v), falling back to memory-only mode", err)
	} else {
		config.storage = storage
		if err := config.loadFromStorage(); err != nil {
			log.Printf("Warning: Failed to load vendor configurations from SQLite: %v", err)
		}
	}

	return config
}

// NewMemoryVendorConfig creates a memory-only vendor configuration. Used in
// tests and in callers that manage persistence themselves.
func NewMemoryVendorConfig() *VendorConfig {
	return &VendorConfig{
		configs: make(map[string]map[string]string),
	}
}

// loadFromStorage loads all vendor configurations from SQLite storage
func (c *VendorConfig) loadFromStorage() error {
	if c.storage == nil {
		return fmt.Errorf("SQLite storage not initialized")
	}

	configs, err := c.storage.LoadAllVendorConfigs()
	if err != nil {
		return fmt.Errorf("failed to load configs from SQLite: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range configs {
		c.configs[k] = v
	}

	return nil
}

// LoadFromEnv reads credential configuration for every known vendor from the
// environment. A vendor is registered only when its primary identifier is
// present; partially configured vendors fail loudly at resolve time instead
// of being silently skipped or completed with defaults.
func (c *VendorConfig) LoadFromEnv() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for vendor, fields := range envFields {
		if os.Getenv(fields[primaryField[vendor]]) == "" {
			continue
		}

		conf := make(map[string]string, len(fields))
		for key, envVar := range fields {
			if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
				conf[key] = value
			}
		}
		c.configs[vendor] = conf
	}
}

// SetConfig sets configuration for a vendor and persists it when storage is
// available.
func (c *VendorConfig) SetConfig(vendor string, conf map[string]string) error {
	if vendor == "" {
		return fmt.Errorf("vendor name cannot be empty")
	}
	if len(conf) == 0 {
		return fmt.Errorf("config cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.SaveVendorConfig(vendor, conf); err != nil {
			return fmt.Errorf("failed to save config to SQLite: %w", err)
		}
	}

	c.configs[strings.ToLower(vendor)] = conf
	return nil
}

// GetConfig returns a copy of the configuration for a vendor. Implements the
// widget credential source interface.
func (c *VendorConfig) GetConfig(vendor string) (map[string]string, error) {
	c.mu.RLock()
	conf, exists := c.configs[strings.ToLower(vendor)]
	c.mu.RUnlock()

	if !exists && c.storage != nil {
		stored, err := c.storage.LoadVendorConfig(vendor)
		if err == nil {
			c.mu.Lock()
			c.configs[strings.ToLower(vendor)] = stored
			c.mu.Unlock()
			conf = stored
			exists = true
		}
	}

	if !exists {
		return nil, fmt.Errorf("no configuration found for vendor: %s", vendor)
	}

	// Return a copy to prevent external modification
	confCopy := make(map[string]string, len(conf))
	for k, v := range conf {
		confCopy[k] = v
	}

	return confCopy, nil
}

// GetAvailableVendors returns all vendors that have configurations
func (c *VendorConfig) GetAvailableVendors() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	vendors := make([]string, 0, len(c.configs))
	for vendor := range c.configs {
		vendors = append(vendors, vendor)
	}
	return vendors
}

// DeleteConfig deletes a vendor configuration
func (c *VendorConfig) DeleteConfig(vendor string) error {
	if vendor == "" {
		return fmt.Errorf("vendor name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.DeleteVendorConfig(vendor); err != nil {
			return fmt.Errorf("failed to delete config from SQLite: %w", err)
		}
	}

	delete(c.configs, strings.ToLower(vendor))
	return nil
}

// Close releases the underlying storage, if any.
func (c *VendorConfig) Close() error {
	if c.storage != nil {
		return c.storage.Close()
	}
	return nil
}
