package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Blob     BlobConfig     `yaml:"blob"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// BlobConfig selects and configures the artifact store backend.
type BlobConfig struct {
	Backend            string      `yaml:"backend"` // minio, gcs, memory
	UploadsContainer   string      `yaml:"uploads_container"`
	ProcessedContainer string      `yaml:"processed_container"`
	OutputsContainer   string      `yaml:"outputs_container"`
	Minio              MinioConfig `yaml:"minio"`
	GCS                GCSConfig   `yaml:"gcs"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type GCSConfig struct {
	ProjectID string `yaml:"project_id"`
}

// LedgerConfig selects and configures the request ledger backend.
type LedgerConfig struct {
	Backend   string          `yaml:"backend"` // firestore, sqlite, memory
	Table     string          `yaml:"table"`
	Partition string          `yaml:"partition"`
	Firestore FirestoreConfig `yaml:"firestore"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
}

type FirestoreConfig struct {
	ProjectID string `yaml:"project_id"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig locates the sibling stage endpoints.
type PipelineConfig struct {
	BaseURL               string `yaml:"base_url"`
	TriggerTimeoutSeconds int    `yaml:"trigger_timeout_seconds"`
}

var GlobalConfig *Config

// Load reads the yaml config file, applies defaults, and overlays
// credentials from the environment. A missing file is not an error:
// the defaults plus environment cover local development.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Blob.Backend == "" {
		cfg.Blob.Backend = "minio"
	}
	if cfg.Blob.UploadsContainer == "" {
		cfg.Blob.UploadsContainer = "demo-uploads"
	}
	if cfg.Blob.ProcessedContainer == "" {
		cfg.Blob.ProcessedContainer = "demo-processed"
	}
	if cfg.Blob.OutputsContainer == "" {
		cfg.Blob.OutputsContainer = "demo-outputs"
	}
	if cfg.Blob.Minio.Endpoint == "" {
		cfg.Blob.Minio.Endpoint = "localhost:9000"
	}
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = "firestore"
	}
	if cfg.Ledger.Table == "" {
		cfg.Ledger.Table = "DemoA2ARequests"
	}
	if cfg.Ledger.Partition == "" {
		cfg.Ledger.Partition = "A2A"
	}
	if cfg.Ledger.SQLite.Path == "" {
		cfg.Ledger.SQLite.Path = "pipeline.db"
	}
	if cfg.Pipeline.BaseURL == "" {
		cfg.Pipeline.BaseURL = "http://localhost:1738/api"
	}
	if cfg.Pipeline.TriggerTimeoutSeconds == 0 {
		cfg.Pipeline.TriggerTimeoutSeconds = 60
	}

	// Credentials come from the environment, never the checked-in yaml.
	cfg.Auth.APIKey = getEnv("PIPELINE_API_KEY", cfg.Auth.APIKey)
	cfg.Blob.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Blob.Minio.AccessKey)
	cfg.Blob.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Blob.Minio.SecretKey)
	cfg.Blob.GCS.ProjectID = getEnv("GOOGLE_PROJECT_ID", cfg.Blob.GCS.ProjectID)
	cfg.Ledger.Firestore.ProjectID = getEnv("GOOGLE_PROJECT_ID", cfg.Ledger.Firestore.ProjectID)

	GlobalConfig = &cfg
	return &cfg, nil
}

// getEnv reads an environment variable or returns the fallback.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
