package config

// Config holds bedtime configuration.
// Stored at: {home}/config.yaml
type Config struct {
	// CatalogPath points at a catalog JSON file that replaces the builtin
	// catalog. Empty means builtin.
	CatalogPath string `mapstructure:"catalog_path" yaml:"catalog_path"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// LogFile enables the rotating log file under {home}/logs.
	LogFile bool      `mapstructure:"log_file" yaml:"log_file"`
	Server  ServerCfg `mapstructure:"server" yaml:"server"`
}

// ServerCfg configures the HTTP shell.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogFile:  true,
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8420",
		},
	}
}

// Addr returns host:port for the server.
func (s ServerCfg) Addr() string {
	return s.Host + ":" + s.Port
}
