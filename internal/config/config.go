package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port                    int              `json:"port"`
	JWTSecret               string           `json:"jwt_secret"`
	JWTTTLHours             int              `json:"jwt_ttl_hours"`
	LogConfig               logger.LogConfig `json:"log_config"`
	Database                DatabaseConfig   `json:"database"`
	AI                      AIConfig         `json:"ai"`
	Correction              CorrectionConfig `json:"correction"`
	Backup                  BackupConfig     `json:"backup"`
	SessionTTLMinutes       int              `json:"session_ttl_minutes"`
	AnalyzeRateLimitSeconds int              `json:"analyze_rate_limit_seconds"`
	Cron                    CronConfig       `json:"cron"`
	CORSOrigins             []string         `json:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type AIConfig struct {
	Timeout         int                `json:"timeout"`
	CacheSize       int                `json:"cache_size"`
	CacheTTLMinutes int                `json:"cache_ttl_minutes"`
	Providers       []AIProviderConfig `json:"providers"`
}

type AIProviderConfig struct {
	Name  string      `json:"name"`
	Model string      `json:"model"`
	Data  interface{} `json:"data"`
}

type CorrectionConfig struct {
	ChunkThreshold      int     `json:"chunk_threshold"`
	MaxChunkSize        int     `json:"max_chunk_size"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	InstructionPrompt   string  `json:"instruction_prompt"`
}

type BackupConfig struct {
	Type          string      `json:"type"`
	RetentionDays int         `json:"retention_days"`
	Data          interface{} `json:"data"`
}

type CronConfig struct {
	BackupRetention string `json:"backup_retention"`
	SessionCleanup  string `json:"session_cleanup"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateServer checks the keys only the http server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.JWTTTLHours == 0 {
		c.JWTTTLHours = 72
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "proofnote.db"
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 60
	}
	if c.AI.CacheTTLMinutes <= 0 {
		c.AI.CacheTTLMinutes = 30
	}
	if c.Correction.ChunkThreshold <= 0 {
		c.Correction.ChunkThreshold = 4000
	}
	if c.Correction.MaxChunkSize <= 0 {
		c.Correction.MaxChunkSize = 3000
	}
	if c.Correction.SimilarityThreshold <= 0 {
		c.Correction.SimilarityThreshold = 0.7
	}
	c.Backup.Type = strings.ToLower(strings.TrimSpace(c.Backup.Type))
	if c.Backup.Type == "" {
		c.Backup.Type = "db"
	}
	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = 60
	}
	if c.AnalyzeRateLimitSeconds == 0 {
		c.AnalyzeRateLimitSeconds = 5
	}
	if c.Cron.BackupRetention == "" {
		c.Cron.BackupRetention = "0 3 * * *"
	}
	if c.Cron.SessionCleanup == "" {
		c.Cron.SessionCleanup = "*/10 * * * *"
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if len(c.AI.Providers) == 0 {
		return fmt.Errorf("ai.providers requires at least one provider")
	}
	for i, p := range c.AI.Providers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("ai.providers[%d].name is required", i)
		}
		if strings.TrimSpace(p.Model) == "" {
			return fmt.Errorf("ai.providers[%d].model is required", i)
		}
	}
	if c.Correction.MaxChunkSize > c.Correction.ChunkThreshold {
		return fmt.Errorf("correction.max_chunk_size must not exceed correction.chunk_threshold")
	}
	if c.Correction.SimilarityThreshold > 1 {
		return fmt.Errorf("correction.similarity_threshold must be within (0, 1]")
	}
	switch c.Backup.Type {
	case "db", "local", "s3":
	default:
		return fmt.Errorf("backup.type must be db, local or s3")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup.retention_days must not be negative")
	}
	return nil
}
