package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage handles persistent storage of vendor credential configurations
type SQLiteStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		// Check if it's a busy error
		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				// Exponential backoff: 10ms, 20ms, 40ms, 80ms
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				log.Printf("SQLite busy, retrying in %v (attempt %d/%d)", backoff, attempt+1, maxRetries+1)
				time.Sleep(backoff)
				continue
			}
		} else {
			// Not a retry-able error
			return err
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// NewSQLiteStorage creates a new SQLite storage instance optimized for multiple processes
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// SQLite connection string with multi-process optimizations
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_timeout=20000&_txlock=immediate", dbPath)

	// Open database connection
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for multi-replica environment
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	storage := &SQLiteStorage{
		db:   db,
		path: dbPath,
	}

	// Initialize database schema and optimizations
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := storage.optimizeForMultiProcess(); err != nil {
		log.Printf("Warning: Failed to apply optimizations: %v", err)
	}

	log.Printf("SQLite storage initialized at: %s (multi-process optimized)", dbPath)
	return storage, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS vendor_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vendor_name TEXT NOT NULL UNIQUE,
		config_data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_vendor_name ON vendor_configs(vendor_name);

	-- Trigger to update updated_at column
	CREATE TRIGGER IF NOT EXISTS update_vendor_configs_updated_at
		AFTER UPDATE ON vendor_configs
	BEGIN
		UPDATE vendor_configs SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
	END;
	`

	_, err := s.db.Exec(query)
	return err
}

// optimizeForMultiProcess applies SQLite optimizations for multi-process access
func (s *SQLiteStorage) optimizeForMultiProcess() error {
	optimizations := []string{
		"PRAGMA journal_mode = WAL;",    // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous = NORMAL;",  // Balance between safety and speed
		"PRAGMA cache_size = 1000;",     // Increase cache size
		"PRAGMA busy_timeout = 30000;",  // 30 second timeout for lock waits
		"PRAGMA temp_store = memory;",   // Store temp tables in memory
		"PRAGMA mmap_size = 268435456;", // 256MB memory mapping
		"PRAGMA optimize;",              // Optimize database
	}

	for _, pragma := range optimizations {
		if _, err := s.db.Exec(pragma); err != nil {
			log.Printf("Warning: Failed to execute %s: %v", pragma, err)
		}
	}

	// Test WAL mode is actually enabled
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode)
	if err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}

	log.Printf("SQLite journal mode: %s", journalMode)
	return nil
}

// SaveVendorConfig saves a vendor configuration to SQLite
func (s *SQLiteStorage) SaveVendorConfig(vendorName string, config map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return s.retryOperation(func() error {
		query := `
		INSERT INTO vendor_configs (vendor_name, config_data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(vendor_name)
		DO UPDATE SET
			config_data = excluded.config_data,
			updated_at = CURRENT_TIMESTAMP
		`

		_, err := s.db.Exec(query, strings.ToLower(vendorName), string(configJSON))
		if err != nil {
			return fmt.Errorf("failed to save vendor config: %w", err)
		}

		log.Printf("Saved config for vendor %s", vendorName)
		return nil
	}, 3) // Max 3 retries
}

// LoadVendorConfig loads a vendor configuration from SQLite
func (s *SQLiteStorage) LoadVendorConfig(vendorName string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config map[string]string
	err := s.retryOperation(func() error {
		query := `
		SELECT config_data
		FROM vendor_configs
		WHERE vendor_name = ?
		`

		var configJSON string
		err := s.db.QueryRow(query, strings.ToLower(vendorName)).Scan(&configJSON)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("no configuration found for vendor: %s", vendorName)
			}
			return fmt.Errorf("failed to load vendor config: %w", err)
		}

		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}

		return nil
	}, 3) // Max 3 retries

	return config, err
}

// LoadAllVendorConfigs loads all vendor configurations from SQLite
func (s *SQLiteStorage) LoadAllVendorConfigs() (map[string]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var configs map[string]map[string]string
	err := s.retryOperation(func() error {
		query := `
		SELECT vendor_name, config_data
		FROM vendor_configs
		ORDER BY vendor_name
		`

		rows, err := s.db.Query(query)
		if err != nil {
			return fmt.Errorf("failed to query vendor configs: %w", err)
		}
		defer rows.Close()

		configs = make(map[string]map[string]string)

		for rows.Next() {
			var vendorName, configJSON string
			if err := rows.Scan(&vendorName, &configJSON); err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}

			var config map[string]string
			if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
				log.Printf("Warning: failed to unmarshal config for vendor %s: %v", vendorName, err)
				continue
			}

			configs[vendorName] = config
		}

		if err = rows.Err(); err != nil {
			return fmt.Errorf("error iterating rows: %w", err)
		}

		return nil
	}, 3) // Max 3 retries

	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %d vendor configurations from SQLite", len(configs))
	return configs, nil
}

// DeleteVendorConfig deletes a vendor configuration from SQLite
func (s *SQLiteStorage) DeleteVendorConfig(vendorName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		query := `
		DELETE FROM vendor_configs
		WHERE vendor_name = ?
		`

		result, err := s.db.Exec(query, strings.ToLower(vendorName))
		if err != nil {
			return fmt.Errorf("failed to delete vendor config: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return fmt.Errorf("no configuration found for vendor: %s", vendorName)
		}

		log.Printf("Deleted config for vendor %s", vendorName)
		return nil
	}, 3) // Max 3 retries
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStats returns database statistics
func (s *SQLiteStorage) GetStats() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]any)

	var totalConfigs int
	err := s.db.QueryRow("SELECT COUNT(*) FROM vendor_configs").Scan(&totalConfigs)
	if err != nil {
		return nil, fmt.Errorf("failed to count total configs: %w", err)
	}
	stats["total_configs"] = totalConfigs

	// Database file size
	if fileInfo, err := os.Stat(s.path); err == nil {
		stats["db_size_bytes"] = fileInfo.Size()
	}

	stats["db_path"] = s.path

	return stats, nil
}
