package config

import (
	"github.com/spf13/pflag"
)

// FlagConfig names the flag selecting a config file.
const FlagConfig = "config"

// RegisterFlags declares one flag per Config key on fs, with defaults taken
// from def. Flags are bound into the loader by name.
func RegisterFlags(fs *pflag.FlagSet, def *Config) {
	fs.StringP(FlagConfig, "c", "", "config file (json or yaml)")

	fs.String("api-endpoint", def.APIEndpoint, "control-plane base URL")

	fs.String("store-mode", def.StoreMode, "object store access: http or s3")
	fs.String("store-base-url", def.StoreBaseURL, "public base URL of the object store")
	fs.String("s3-bucket", def.S3Bucket, "bucket holding all artifacts")
	fs.String("s3-region", def.S3Region, "bucket region")
	fs.String("s3-endpoint", def.S3Endpoint, "S3-compatible endpoint, empty for AWS")
	fs.String("s3-access-key", def.S3AccessKey, "static access key id")
	fs.String("s3-secret-key", def.S3SecretKey, "static secret access key")

	fs.Duration("request-timeout", def.RequestTimeout, "per-request ceiling")
	fs.Int("fetch-concurrency", def.FetchConcurrency, "concurrent artifact fetches while archiving")
	fs.Int("upload-workers", def.UploadWorkers, "files uploaded at once")
	fs.Int("list-page-limit", def.ListPageLimit, "page size used for child discovery")
	fs.Duration("intent-expires-in", def.IntentExpiresIn, "requested lifetime of pre-signed URLs")

	fs.String("journal-path", def.JournalPath, "upload session journal (sqlite)")
	fs.StringP("output-dir", "o", def.OutputDir, "directory archives are written to")

	fs.String("log-level", def.LogLevel, "debug, info, warn or error")
	fs.String("log-format", def.LogFormat, "text or json")
	fs.String("metrics-textfile", def.MetricsTextfile, "write prometheus metrics to this file after each command")
}
