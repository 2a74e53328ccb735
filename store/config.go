package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config describes how to reach the node table's backing database. It is
// deliberately small: a driver name, a DSN, and a debug flag. Table and
// tree-column names are not part of it; each nestedset.NodeRecord carries
// its own (see NodeRecord.WithColumnNames).
type Config struct {
	// Driver is either "sqlite3" or "mysql".
	Driver string `json:"driver"`
	// DSN is passed verbatim to sqlx.Open, modulo the query-instrumentation
	// wrapping Connect performs for "sqlite3".
	DSN string `json:"dsn"`
	// Debug, for the sqlite3 driver, logs every statement and its elapsed
	// time through pkg/log at debug level using the hooks in hooks.go. It
	// has no effect for mysql.
	Debug bool `json:"debug"`
}

var configSchema = `
{
  "type": "object",
  "properties": {
    "driver": {
      "description": "SQL driver backing the node table: sqlite3 or mysql.",
      "type": "string",
      "enum": ["sqlite3", "mysql"]
    },
    "dsn": {
      "description": "Driver-specific data source name.",
      "type": "string",
      "minLength": 1
    },
    "debug": {
      "description": "Log every statement and its elapsed time.",
      "type": "boolean"
    }
  },
  "required": ["driver", "dsn"],
  "additionalProperties": false
}`

// LoadConfig reads and validates a JSON config file at path against
// configSchema, optionally overlaying values from a ".env" file in the same
// directory (NESTEDSET_DB_DRIVER, NESTEDSET_DB_DSN) the way cc-backend
// overlays its own config with godotenv before unmarshalling.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("store: read config: %w", err)
	}

	if err := validate(raw); err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("store: decode config: %w", err)
	}

	if driver, ok := os.LookupEnv("NESTEDSET_DB_DRIVER"); ok {
		cfg.Driver = driver
	}
	if dsn, ok := os.LookupEnv("NESTEDSET_DB_DSN"); ok {
		cfg.DSN = dsn
	}

	return cfg, nil
}

func validate(raw []byte) error {
	sch, err := jsonschema.CompileString("nestedset-config.json", configSchema)
	if err != nil {
		return fmt.Errorf("store: compile config schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("store: config is not valid JSON: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("store: config failed validation: %w", err)
	}
	return nil
}
