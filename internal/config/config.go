// Package config holds the engine's tunable knobs, replacing the
// process-wide constants spec.md describes with an explicit record
// threaded into the engine at construction (spec.md §9, "Global
// configuration").
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable the engine recognizes (spec.md §6).
type Config struct {
	// Hybrid-join tunables
	HashSlotCap        int
	PartitionSize      int
	PartitionCacheSize int
	StreamSleep        time.Duration
	CommitBatch        int
	StreamBufferSize   int

	// Input file paths
	TransactionCSV    string
	ProductMasterCSV  string
	CustomerMasterCSV string

	// Sink
	DatabaseURL string

	// Ambient
	NATSURL  string
	LogLevel string
}

// Load reads configuration from environment variables and (if bound) CLI
// flags via v, the way the teacher's config.Load reads os.Getenv with
// defaults — generalized here to viper's env+flag binding.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	setDefaults(v)
	v.AutomaticEnv()
	bindEnv(v, "HS", "VP", "PARTITION_CACHE_SIZE", "STREAM_SLEEP", "COMMIT_BATCH",
		"STREAM_BUFFER", "TRANSACTION_CSV", "PRODUCT_MASTER_CSV", "CUSTOMER_MASTER_CSV",
		"DATABASE_URL", "NATS_URL", "LOG_LEVEL")

	cfg := &Config{
		HashSlotCap:        v.GetInt("HS"),
		PartitionSize:      v.GetInt("VP"),
		PartitionCacheSize: v.GetInt("PARTITION_CACHE_SIZE"),
		StreamSleep:        v.GetDuration("STREAM_SLEEP"),
		CommitBatch:        v.GetInt("COMMIT_BATCH"),
		StreamBufferSize:   v.GetInt("STREAM_BUFFER"),
		TransactionCSV:     v.GetString("TRANSACTION_CSV"),
		ProductMasterCSV:   v.GetString("PRODUCT_MASTER_CSV"),
		CustomerMasterCSV:  v.GetString("CUSTOMER_MASTER_CSV"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		NATSURL:            v.GetString("NATS_URL"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present, failing fast
// the way the teacher's Config.Validate does for missing DATABASE_URL/
// SESSION_SECRET.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.HashSlotCap <= 0 {
		return fmt.Errorf("HS must be positive, got %d", c.HashSlotCap)
	}
	if c.PartitionSize <= 0 {
		return fmt.Errorf("VP must be positive, got %d", c.PartitionSize)
	}
	if c.CommitBatch <= 0 {
		return fmt.Errorf("COMMIT_BATCH must be positive, got %d", c.CommitBatch)
	}
	if c.TransactionCSV == "" || c.ProductMasterCSV == "" || c.CustomerMasterCSV == "" {
		return fmt.Errorf("all three input file paths are required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HS", 10000)
	v.SetDefault("VP", 500)
	v.SetDefault("PARTITION_CACHE_SIZE", 0)
	v.SetDefault("STREAM_SLEEP", 100*time.Microsecond)
	v.SetDefault("COMMIT_BATCH", 1000)
	v.SetDefault("STREAM_BUFFER", 4096)
	v.SetDefault("TRANSACTION_CSV", "transactional_data.csv")
	v.SetDefault("PRODUCT_MASTER_CSV", "product_master_data.csv")
	v.SetDefault("CUSTOMER_MASTER_CSV", "customer_master_data.csv")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
}

func bindEnv(v *viper.Viper, names ...string) {
	for _, name := range names {
		_ = v.BindEnv(name)
	}
}
