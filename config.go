package sqlforge

import (
	"github.com/BurntSushi/toml"
)

// EngineConfig is the build-time configuration for an Engine: which
// dialect a repository defaults to, how large and long-lived the
// validator's memoization cache is, how big a batch chunk the runtime
// renders at once, and whether unknown placeholder options are promoted
// from warnings to hard errors.
type EngineConfig struct {
	DefaultDialect     string `toml:"default_dialect"`
	ValidatorCacheSize int    `toml:"validator_cache_size"`
	ValidatorCacheTTL  int64  `toml:"validator_cache_ttl_seconds"`
	BatchChunkSize     int    `toml:"batch_chunk_size"`
	Strict             bool   `toml:"strict"`
}

// DefaultEngineConfig returns the configuration an Engine uses when none is
// supplied.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultDialect:     "SQLite",
		ValidatorCacheSize: DefaultValidatorCacheSize,
		ValidatorCacheTTL:  int64(DefaultValidatorCacheTTL.Seconds()),
		BatchChunkSize:     DefaultBatchSize,
		Strict:             false,
	}
}

// LoadEngineConfig reads an EngineConfig from a TOML file at path, filling
// in DefaultEngineConfig's values for any field the file leaves unset.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

func dialectNameFromString(s string) DialectName {
	switch s {
	case "MySQL":
		return MySQL
	case "PostgreSQL":
		return PostgreSQL
	case "SQLServer":
		return SQLServer
	case "Oracle":
		return Oracle
	default:
		return SQLite
	}
}
