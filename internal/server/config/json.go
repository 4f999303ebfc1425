package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophfiles/internal/flagx"
	"github.com/dmitrijs2005/gophfiles/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations use
// timex.Duration so both "10s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP  string         `json:"endpoint_addr_http"`
	DataDir           string         `json:"data_dir"`
	MetadataBackend   string         `json:"metadata_backend"`
	RequestLogBackend string         `json:"request_log_backend"`
	ContentBackend    string         `json:"content_backend"`
	DatabaseDSN       string         `json:"database_dsn"`
	BcryptCost        int            `json:"bcrypt_cost"`
	MaxBodyBytes      int64          `json:"max_body_bytes"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	S3Prefix          string         `json:"s3_prefix"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Keys missing from the file leave the current value alone. An unreadable
// or malformed file panics, like a bad flag does.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DataDir, c.DataDir)
	setString(&config.MetadataBackend, c.MetadataBackend)
	setString(&config.RequestLogBackend, c.RequestLogBackend)
	setString(&config.ContentBackend, c.ContentBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.MaxBodyBytes != 0 {
		config.MaxBodyBytes = c.MaxBodyBytes
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3Prefix, c.S3Prefix)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
