package util

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Conf holds the runtime configuration values
type Conf struct {
	Host         string `yaml:"host"`
	HttpPort     int    `yaml:"httpPort"`
	SslDomain    string `yaml:"sslDomain"`
	DbFile       string `yaml:"dbFile"`
	MediaWorkers int    `yaml:"mediaWorkers"`
	WithJournald bool   `yaml:"withJournald"`
	WithPprof    bool   `yaml:"withPprof"`
}

// AppConfig wraps the configuration for injection into the app
type AppConfig struct {
	Conf Conf `yaml:"conf"`
}

// BaseURL returns the public base URL relative refs resolve against
func (a *AppConfig) BaseURL() string {
	return fmt.Sprintf("https://%s", a.Conf.SslDomain)
}

// ReadConf loads trunk.yml (working dir first, then the user config
// dir), with an optional .env overlay for deployment overrides.
func ReadConf() (*AppConfig, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	conf := defaultConf()

	confPath := ResolveFilePath("trunk.yml")
	data, err := os.ReadFile(confPath)
	if err != nil {
		log.Printf("No config file at %s, using defaults", confPath)
	} else {
		if err := parseConf(data, conf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", confPath, err)
		}
	}

	applyEnvOverrides(conf)

	if conf.Conf.SslDomain == "" {
		return nil, fmt.Errorf("sslDomain must be set (trunk.yml or TRUNK_SSL_DOMAIN)")
	}

	return conf, nil
}

func defaultConf() *AppConfig {
	return &AppConfig{Conf: Conf{
		Host:         "0.0.0.0",
		HttpPort:     8080,
		DbFile:       "trunk.db",
		MediaWorkers: 4,
	}}
}

func parseConf(data []byte, conf *AppConfig) error {
	return yaml.Unmarshal(data, conf)
}

func applyEnvOverrides(conf *AppConfig) {
	if v := os.Getenv("TRUNK_SSL_DOMAIN"); v != "" {
		conf.Conf.SslDomain = v
	}
	if v := os.Getenv("TRUNK_DB_FILE"); v != "" {
		conf.Conf.DbFile = v
	}
	if v := os.Getenv("TRUNK_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			conf.Conf.HttpPort = port
		} else {
			log.Printf("Ignoring invalid TRUNK_HTTP_PORT=%q", v)
		}
	}
	if conf.Conf.MediaWorkers < 1 {
		conf.Conf.MediaWorkers = 4
	}
}

// ResolveFilePath returns the path for name in the working dir when it
// exists there, otherwise a path under the user config dir (created on
// demand).
func ResolveFilePath(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return name
	}

	dir := filepath.Join(configDir, "trunk")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return name
	}
	return filepath.Join(dir, name)
}
