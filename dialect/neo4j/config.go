// Package neo4j implements dialect.Driver on top of the official
// neo4j-go-driver, translating between the driver's dbtype values and
// the dialect-neutral kinds the rest of nodus works with.
package neo4j

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config carries the connection settings of a Neo4j deployment. Zero
// fields fall back to the defaults of DefaultConfig.
type Config struct {
	// URI is the bolt or neo4j scheme address of the server or cluster
	// routing entry point, e.g. "neo4j://db.example.com:7687".
	URI      string `yaml:"uri" validate:"required,uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Database selects the database sessions run against. Empty means
	// the server default.
	Database string `yaml:"database"`
	// MaxConnectionPoolSize caps the pooled connections of the driver.
	MaxConnectionPoolSize int `yaml:"max_connection_pool_size" validate:"gte=0"`
	// ConnectionTimeout bounds dialing a single connection.
	ConnectionTimeout time.Duration `yaml:"connection_timeout" validate:"gte=0"`
}

// DefaultConfig returns a Config pointed at a local single instance.
func DefaultConfig() Config {
	return Config{
		URI:                   "neo4j://localhost:7687",
		MaxConnectionPoolSize: 100,
		ConnectionTimeout:     5 * time.Second,
	}
}

// LoadConfig reads a YAML config file and overlays the NODUS_NEO4J_URI,
// NODUS_NEO4J_USERNAME, NODUS_NEO4J_PASSWORD and NODUS_NEO4J_DATABASE
// environment variables, so credentials can stay out of checked-in
// files. An empty path loads defaults plus environment only.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("neo4j: reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("neo4j: parsing config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	for _, ov := range []struct {
		env string
		dst *string
	}{
		{"NODUS_NEO4J_URI", &c.URI},
		{"NODUS_NEO4J_USERNAME", &c.Username},
		{"NODUS_NEO4J_PASSWORD", &c.Password},
		{"NODUS_NEO4J_DATABASE", &c.Database},
	} {
		if v, ok := os.LookupEnv(ov.env); ok {
			*ov.dst = v
		}
	}
}

// Validate checks the config against its validate tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("neo4j: invalid config: %w", err)
	}
	return nil
}
