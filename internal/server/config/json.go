package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/flagx"
	"github.com/dmitrijs2005/onetimesecret/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "24h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr     string         `json:"endpoint_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	DefaultSecretTTL timex.Duration `json:"default_secret_ttl"`
	ReaperInterval   timex.Duration `json:"reaper_interval"`
	KeyFormat        string         `json:"key_format"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.DefaultSecretTTL = time.Duration(c.DefaultSecretTTL.Duration)
	config.ReaperInterval = time.Duration(c.ReaperInterval.Duration)
	config.KeyFormat = c.KeyFormat
}
