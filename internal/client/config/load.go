package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RECONKEEPER_S3_BUCKET.
const EnvPrefix = "RECONKEEPER"

// LoadConfig constructs a Config from, lowest precedence first: defaults,
// the config file named by --config or RECONKEEPER_CONFIG, the environment
// and the flags set on fs. fs may be nil.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	def := &Config{}
	def.LoadDefaults()

	v := viper.New()
	setDefaults(v, def)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if path := configFile(fs); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFile(fs *pflag.FlagSet) string {
	if fs != nil {
		if f := fs.Lookup(FlagConfig); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return os.Getenv(EnvPrefix + "_CONFIG")
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("api-endpoint", c.APIEndpoint)

	v.SetDefault("store-mode", c.StoreMode)
	v.SetDefault("store-base-url", c.StoreBaseURL)
	v.SetDefault("s3-bucket", c.S3Bucket)
	v.SetDefault("s3-region", c.S3Region)
	v.SetDefault("s3-endpoint", c.S3Endpoint)
	v.SetDefault("s3-access-key", c.S3AccessKey)
	v.SetDefault("s3-secret-key", c.S3SecretKey)

	v.SetDefault("request-timeout", c.RequestTimeout)
	v.SetDefault("fetch-concurrency", c.FetchConcurrency)
	v.SetDefault("upload-workers", c.UploadWorkers)
	v.SetDefault("list-page-limit", c.ListPageLimit)
	v.SetDefault("intent-expires-in", c.IntentExpiresIn)

	v.SetDefault("journal-path", c.JournalPath)
	v.SetDefault("output-dir", c.OutputDir)

	v.SetDefault("log-level", c.LogLevel)
	v.SetDefault("log-format", c.LogFormat)
	v.SetDefault("metrics-textfile", c.MetricsTextfile)
}
