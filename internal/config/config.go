package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/galaxygst/galaxygst/internal/recorderinfo"
	"github.com/galaxygst/galaxygst/internal/util"
)

// FileName is the config file looked up in the config directory.
const FileName = "galaxygst.cfg.json"

// CaptureConfig holds capture loop settings
type CaptureConfig struct {
	Address         uint32
	Format          string
	PositionFloat   bool
	HookupInterval  time.Duration
	PointerInterval time.Duration
	ModeInterval    time.Duration
	ProcessNames    []string
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	CompressOutput bool `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite catalog settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds PostgreSQL connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// WebSocketConfig holds relay backend settings
type WebSocketConfig struct {
	URL    string
	Secret string
}

// InfluxConfig holds InfluxDB sink settings
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// StorageConfig holds storage backend configuration
type StorageConfig struct {
	Type       string
	StoreTrace bool
	BatchSize  int
	Memory     MemoryConfig
	SQLite     SQLiteConfig
	DB         DBConfig
	WebSocket  WebSocketConfig
	Influx     InfluxConfig
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// GraylogConfig holds GELF output settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// MonitorConfig holds progress reporting settings
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
	// StatusFile is relative to the output folder. Empty disables it.
	StatusFile string
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("consoleLogLevel", "")
	viper.SetDefault("logsDir", "./gstlogs")

	viper.SetDefault("capture.address", util.FormatAddress(recorderinfo.DefaultPointerAddress))
	viper.SetDefault("capture.format", "v2")
	viper.SetDefault("capture.positionFloat", false)
	viper.SetDefault("capture.hookupInterval", "500ms")
	viper.SetDefault("capture.pointerInterval", "250ms")
	viper.SetDefault("capture.modeInterval", "50ms")
	viper.SetDefault("capture.processNames", []string{"dolphin-emu", "dolphin-emu-qt2", "dolphin-emu-nogui"})

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "10s")
	viper.SetDefault("monitor.statusFile", "status.json")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.storeTrace", false)
	viper.SetDefault("storage.batchSize", 600)
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "./galaxygst.db")

	viper.SetDefault("api.serverUrl", "ws://localhost:5000/ws")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "galaxygst")
	viper.SetDefault("db.sslMode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "galaxygst")
	viper.SetDefault("influx.bucket", "ghosts")
	viper.SetDefault("influx.backupPath", "./gstlogs/influx_backup.log.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "galaxygst")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load sets default values and reads the JSON config file from configDir,
// if there is one. A missing file is not an error.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetCaptureConfig returns the capture settings. The address is validated.
func GetCaptureConfig() (CaptureConfig, error) {
	addr, err := util.ParseAddress(viper.GetString("capture.address"))
	if err != nil {
		return CaptureConfig{}, err
	}
	return CaptureConfig{
		Address:         addr,
		Format:          viper.GetString("capture.format"),
		PositionFloat:   viper.GetBool("capture.positionFloat"),
		HookupInterval:  viper.GetDuration("capture.hookupInterval"),
		PointerInterval: viper.GetDuration("capture.pointerInterval"),
		ModeInterval:    viper.GetDuration("capture.modeInterval"),
		ProcessNames:    viper.GetStringSlice("capture.processNames"),
	}, nil
}

// GetStorageConfig returns the storage configuration
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:       viper.GetString("storage.type"),
		StoreTrace: viper.GetBool("storage.storeTrace"),
		BatchSize:  viper.GetInt("storage.batchSize"),
		Memory: MemoryConfig{
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
			SSLMode:  viper.GetString("db.sslMode"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("api.serverUrl"),
			Secret: viper.GetString("api.apiKey"),
		},
		Influx: InfluxConfig{
			Enabled: viper.GetBool("influx.enabled"),
			URL: fmt.Sprintf("%s://%s:%s",
				viper.GetString("influx.protocol"),
				viper.GetString("influx.host"),
				viper.GetString("influx.port")),
			Token:      viper.GetString("influx.token"),
			Org:        viper.GetString("influx.org"),
			Bucket:     viper.GetString("influx.bucket"),
			BackupPath: viper.GetString("influx.backupPath"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns the GELF output configuration
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetMonitorConfig returns the progress reporting configuration
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:    viper.GetBool("monitor.enabled"),
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
	}
}
