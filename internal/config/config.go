package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file searched for in the config directory.
const FileName = "ocap_extract.cfg.json"

// ErrNotFound is returned by Load when no config file exists. Defaults
// stay in effect.
var ErrNotFound = errors.New("config file not found")

// StorageConfig selects and configures the result sink.
type StorageConfig struct {
	Type   string         `json:"type" mapstructure:"type"`
	Output OutputConfig   `json:"output" mapstructure:"output"`
	SQLite SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	DB     DatabaseConfig `json:"db" mapstructure:"db"`
	Influx InfluxConfig   `json:"influx" mapstructure:"influx"`
}

// OutputConfig holds file export settings for the memory and msgpack sinks.
type OutputConfig struct {
	Dir    string `json:"dir" mapstructure:"dir"`
	Format string `json:"format" mapstructure:"format"`
}

// Compressed reports whether JSON exports are gzipped.
func (o OutputConfig) Compressed() bool {
	return strings.HasSuffix(o.Format, ".gz")
}

type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

type DatabaseConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN builds a Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		d.Host, d.Port, d.Username, d.Password, d.Database)
}

type InfluxConfig struct {
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL is the server address the client connects to.
func (i InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", i.Protocol, i.Host, i.Port)
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level          string
	Dir            string
	GraylogEnabled bool
	GraylogAddress string
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./ocaplogs")

	viper.SetDefault("theaters.file", "")

	viper.SetDefault("output.dir", "./extractions")
	viper.SetDefault("output.format", "json")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("sqlite.path", "./extractions/extractions.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "ocap")

	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "ocap-metrics")
	viper.SetDefault("influx.bucket", "theater_extractions")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load reads configuration from the JSON file in configDir and sets default
// values. A missing file returns ErrNotFound with the defaults applied; a
// malformed one is an error.
func Load(configDir string) error {
	setDefaults()

	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w in %s", ErrNotFound, configDir)
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetStorageConfig returns the sink settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: strings.ToLower(viper.GetString("storage.type")),
		Output: OutputConfig{
			Dir:    viper.GetString("output.dir"),
			Format: strings.ToLower(viper.GetString("output.format")),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("sqlite.path"),
		},
		DB: DatabaseConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
		Influx: InfluxConfig{
			Protocol: viper.GetString("influx.protocol"),
			Host:     viper.GetString("influx.host"),
			Port:     viper.GetString("influx.port"),
			Token:    viper.GetString("influx.token"),
			Org:      viper.GetString("influx.org"),
			Bucket:   viper.GetString("influx.bucket"),
		},
	}
}

// GetLoggingConfig returns the log output settings.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// Set overrides a config value, as command line flags do.
func Set(key string, value any) {
	viper.Set(key, value)
}
