package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	DBDSN         string              `json:"db_dsn"`
	MigrationsDir string              `json:"migrations_dir"`
	JWTSecret     string              `json:"jwt_secret"`
	Port          int                 `json:"port"`
	JWTTTLHours   int                 `json:"jwt_ttl_hours"`
	AuthRateSecs  int                 `json:"auth_rate_limit_seconds"`
	CORSOrigins   []string            `json:"cors_origins"`
	LogConfig     logger.LogConfig    `json:"log_config"`
	FileStore     StoreConfig         `json:"file_store"`
	Artifacts     ArtifactStoreConfig `json:"artifact_store"`
	Pipeline      PipelineConfig      `json:"pipeline"`
	Generation    GenerationConfig    `json:"generation"`
}

type StoreConfig struct {
	Type string   `json:"type"`
	Dir  string   `json:"dir"`
	S3   S3Config `json:"s3"`
}

type ArtifactStoreConfig struct {
	Type string   `json:"type"`
	Dir  string   `json:"dir"`
	S3   S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

type PipelineConfig struct {
	MaxUploadSizeBytes    int64    `json:"max_upload_size_bytes"`
	DefaultOCREnabled     bool     `json:"default_ocr_enabled"`
	AutoRetryOnFailure    *bool    `json:"auto_retry_on_quality_failure"`
	RetryMinTextLength    int      `json:"retry_min_text_length"`
	PreserveFailedUploads bool     `json:"preserve_failed_uploads"`
	OCRCommand            []string `json:"ocr_command"`
	OutputFormats         []string `json:"output_formats"`
}

type GenerationConfig struct {
	ProvidersFile          string `json:"providers_file"`
	ProfilesFile           string `json:"profiles_file"`
	GraphIndexFile         string `json:"graph_index_file"`
	PromptsDir             string `json:"prompts_dir"`
	TraceDir               string `json:"trace_dir"`
	TraceRetentionDays     int    `json:"trace_retention_days"`
	TraceCleanupCron       string `json:"trace_cleanup_cron"`
	MaxJobDescriptionChars int    `json:"max_job_description_chars"`
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
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("db_dsn is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.AuthRateSecs == 0 {
		cfg.AuthRateSecs = 2
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "./migrations"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if err := validateStore("file_store", cfg.FileStore.Type, cfg.FileStore.Dir, cfg.FileStore.S3, &cfg.FileStore.Type); err != nil {
		return nil, err
	}
	if err := validateStore("artifact_store", cfg.Artifacts.Type, cfg.Artifacts.Dir, cfg.Artifacts.S3, &cfg.Artifacts.Type); err != nil {
		return nil, err
	}
	applyPipelineDefaults(&cfg.Pipeline)
	if err := validateGeneration(&cfg.Generation); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateStore(name, kind, dir string, s3 S3Config, out *string) error {
	if kind == "" {
		kind = "local"
		*out = kind
	}
	switch kind {
	case "local":
		if dir == "" {
			return fmt.Errorf("%s.dir is required for local store", name)
		}
	case "s3":
		if s3.Endpoint == "" || s3.Bucket == "" || s3.SecretID == "" || s3.SecretKey == "" {
			return fmt.Errorf("%s.s3 endpoint/bucket/secret_id/secret_key are required for s3 store", name)
		}
	default:
		return fmt.Errorf("%s.type must be local or s3", name)
	}
	return nil
}

func applyPipelineDefaults(p *PipelineConfig) {
	if p.MaxUploadSizeBytes == 0 {
		p.MaxUploadSizeBytes = 10 << 20
	}
	if p.RetryMinTextLength == 0 {
		p.RetryMinTextLength = 120
	}
	if p.AutoRetryOnFailure == nil {
		enabled := true
		p.AutoRetryOnFailure = &enabled
	}
	if len(p.OutputFormats) == 0 {
		p.OutputFormats = []string{"markdown", "json"}
	}
}

func validateGeneration(g *GenerationConfig) error {
	if g.ProvidersFile == "" || g.ProfilesFile == "" || g.GraphIndexFile == "" {
		return fmt.Errorf("generation providers_file/profiles_file/graph_index_file are required")
	}
	if g.PromptsDir == "" {
		return fmt.Errorf("generation.prompts_dir is required")
	}
	if g.TraceDir == "" {
		g.TraceDir = "./traces"
	}
	if g.TraceRetentionDays == 0 {
		g.TraceRetentionDays = 30
	}
	if g.TraceCleanupCron == "" {
		g.TraceCleanupCron = "0 3 * * *"
	}
	if g.MaxJobDescriptionChars == 0 {
		g.MaxJobDescriptionChars = 12000
	}
	return nil
}
