package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/reconkeeper/internal/logging"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	StoreModeHTTP = "http"
	StoreModeS3   = "s3"
)

// Config holds runtime settings for the rk CLI.
type Config struct {
	APIEndpoint string `mapstructure:"api-endpoint"`

	StoreMode    string `mapstructure:"store-mode"`
	StoreBaseURL string `mapstructure:"store-base-url"`
	S3Bucket     string `mapstructure:"s3-bucket"`
	S3Region     string `mapstructure:"s3-region"`
	S3Endpoint   string `mapstructure:"s3-endpoint"`
	S3AccessKey  string `mapstructure:"s3-access-key"`
	S3SecretKey  string `mapstructure:"s3-secret-key"`

	RequestTimeout   time.Duration `mapstructure:"request-timeout"`
	FetchConcurrency int           `mapstructure:"fetch-concurrency"`
	UploadWorkers    int           `mapstructure:"upload-workers"`
	ListPageLimit    int           `mapstructure:"list-page-limit"`
	IntentExpiresIn  time.Duration `mapstructure:"intent-expires-in"`

	JournalPath string `mapstructure:"journal-path"`
	OutputDir   string `mapstructure:"output-dir"`

	LogLevel        string `mapstructure:"log-level"`
	LogFormat       string `mapstructure:"log-format"`
	MetricsTextfile string `mapstructure:"metrics-textfile"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIEndpoint = "http://127.0.0.1:8000"

	c.StoreMode = StoreModeHTTP
	c.StoreBaseURL = "http://127.0.0.1:9000/reconstruction"
	c.S3Bucket = "reconstruction"
	c.S3Region = "us-east-1"
	c.S3Endpoint = "http://127.0.0.1:9000"
	c.S3AccessKey = ""
	c.S3SecretKey = ""

	c.RequestTimeout = 10 * time.Minute
	c.FetchConcurrency = 8
	c.UploadWorkers = 1
	c.ListPageLimit = 1000
	c.IntentExpiresIn = time.Hour

	c.JournalPath = "reconkeeper.db"
	c.OutputDir = "."

	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MetricsTextfile = ""
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.StoreMode {
	case StoreModeHTTP:
		if c.StoreBaseURL == "" {
			return fmt.Errorf("%w: store-base-url is required in http mode", ErrInvalid)
		}
	case StoreModeS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3-bucket is required in s3 mode", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: store-mode %q (want http or s3)", ErrInvalid, c.StoreMode)
	}

	if c.APIEndpoint == "" {
		return fmt.Errorf("%w: api-endpoint is empty", ErrInvalid)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request-timeout must be positive", ErrInvalid)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("%w: fetch-concurrency must be at least 1", ErrInvalid)
	}
	if c.UploadWorkers < 1 {
		return fmt.Errorf("%w: upload-workers must be at least 1", ErrInvalid)
	}
	if c.ListPageLimit < 1 {
		return fmt.Errorf("%w: list-page-limit must be at least 1", ErrInvalid)
	}
	if c.IntentExpiresIn < 0 {
		return fmt.Errorf("%w: intent-expires-in is negative", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		return fmt.Errorf("%w: log-format %q (want text or json)", ErrInvalid, c.LogFormat)
	}
	return nil
}

// S3 reports whether archive fetches and orphan handling go through S3.
func (c *Config) S3() bool {
	return c.StoreMode == StoreModeS3
}
