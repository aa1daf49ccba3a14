package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultPort                     = 5000
	DefaultLogLevel                 = "debug"
	DefaultDBDriver                 = "sqlite"
	DefaultDBHost                   = "localhost"
	DefaultDBPort                   = 5432
	DefaultDBDatabase               = "files_manager"
	DefaultDBSSLMode                = "disable"
	DefaultBlobBackend              = "local"
	DefaultFolderPath               = "/tmp/files_manager"
	DefaultUploadMaxBytes     int64 = 64 << 20
	DefaultWorkerConcurrency        = 1
	DefaultWorkerPollInterval       = time.Second
	DefaultJobMaxAttempts           = 3
	DefaultJobRetryDelay            = 5 * time.Second
	DefaultJobLease                 = 5 * time.Minute

	configPathEnvKey = "FILES_MANAGER_CONFIG"
	configFileName   = ".files_manager.toml"
)

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := parseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DBConfig selects and locates the document store.
type DBConfig struct {
	Driver   string `toml:"driver"`
	Path     string `toml:"path"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"sslmode"`
}

// StorageConfig selects and locates the blob store.
type StorageConfig struct {
	Backend     string `toml:"backend"`
	FolderPath  string `toml:"folder_path"`
	S3Bucket    string `toml:"s3_bucket"`
	S3Region    string `toml:"s3_region"`
	S3Endpoint  string `toml:"s3_endpoint"`
	S3AccessKey string `toml:"s3_access_key"`
	S3SecretKey string `toml:"s3_secret_key"`
}

// WorkerConfig tunes the thumbnail worker pool and its job queue.
type WorkerConfig struct {
	Concurrency  int      `toml:"concurrency"`
	PollInterval Duration `toml:"poll_interval"`
	MaxAttempts  int      `toml:"max_attempts"`
	RetryDelay   Duration `toml:"retry_delay"`
	Lease        Duration `toml:"lease"`
}

// Config defines runtime configuration for the files manager.
type Config struct {
	Host           string        `toml:"host"`
	Port           int           `toml:"port"`
	APIURL         string        `toml:"api_url"`
	LogLevel       string        `toml:"log_level"`
	UploadMaxBytes int64         `toml:"upload_max_bytes"`
	DB             DBConfig      `toml:"db"`
	Storage        StorageConfig `toml:"storage"`
	Worker         WorkerConfig  `toml:"worker"`
	LoadedFrom     string        `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		LogLevel:       DefaultLogLevel,
		UploadMaxBytes: DefaultUploadMaxBytes,
		DB: DBConfig{
			Driver:   DefaultDBDriver,
			Host:     DefaultDBHost,
			Port:     DefaultDBPort,
			Database: DefaultDBDatabase,
			SSLMode:  DefaultDBSSLMode,
		},
		Storage: StorageConfig{
			Backend:    DefaultBlobBackend,
			FolderPath: DefaultFolderPath,
		},
		Worker: WorkerConfig{
			Concurrency:  DefaultWorkerConcurrency,
			PollInterval: Duration{DefaultWorkerPollInterval},
			MaxAttempts:  DefaultJobMaxAttempts,
			RetryDelay:   Duration{DefaultJobRetryDelay},
			Lease:        Duration{DefaultJobLease},
		},
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BaseURL returns the API URL clients should call.
func (c *Config) BaseURL() string {
	if strings.TrimSpace(c.APIURL) != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// SQLitePath returns the database file for the sqlite driver.
func (c *Config) SQLitePath() string {
	if strings.TrimSpace(c.DB.Path) != "" {
		return c.DB.Path
	}
	name := c.DB.Database + ".db"
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, name)
	}
	return name
}

// PostgresDSN builds a pgx connection URL from the db settings.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DB.Host, strconv.Itoa(c.DB.Port)),
		Path:   "/" + c.DB.Database,
	}
	if c.DB.User != "" {
		if c.DB.Password != "" {
			u.User = url.UserPassword(c.DB.User, c.DB.Password)
		} else {
			u.User = url.User(c.DB.User)
		}
	}
	if c.DB.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.DB.SSLMode}}.Encode()
	}
	return u.String()
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

// Path returns the config file location: FILES_MANAGER_CONFIG, else ~/.files_manager.toml.
func Path() (string, error) {
	if path := strings.TrimSpace(os.Getenv(configPathEnvKey)); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// Load reads the config file if present and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := Path(); err == nil {
		loaded, err := loadFileIfExists(path, &cfg)
		if err != nil {
			return nil, err
		}
		if loaded {
			cfg.LoadedFrom = path
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*dst = value
		}
	}
	setInt := func(key string, dst *int) {
		if value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
			*dst = value
		}
	}

	setInt("PORT", &cfg.Port)
	setString("HOST", &cfg.Host)
	setString("API_URL", &cfg.APIURL)
	setString("LOG_LEVEL", &cfg.LogLevel)

	setString("DB_DRIVER", &cfg.DB.Driver)
	setString("DB_PATH", &cfg.DB.Path)
	setString("DB_HOST", &cfg.DB.Host)
	setInt("DB_PORT", &cfg.DB.Port)
	setString("DB_DATABASE", &cfg.DB.Database)
	setString("DB_USER", &cfg.DB.User)
	setString("DB_PASSWORD", &cfg.DB.Password)
	setString("DB_SSLMODE", &cfg.DB.SSLMode)

	setString("FOLDER_PATH", &cfg.Storage.FolderPath)
	setString("BLOB_BACKEND", &cfg.Storage.Backend)
	setString("S3_BUCKET", &cfg.Storage.S3Bucket)
	setString("S3_REGION", &cfg.Storage.S3Region)
	setString("S3_ENDPOINT", &cfg.Storage.S3Endpoint)
	setString("S3_ACCESS_KEY", &cfg.Storage.S3AccessKey)
	setString("S3_SECRET_KEY", &cfg.Storage.S3SecretKey)

	setInt("WORKER_CONCURRENCY", &cfg.Worker.Concurrency)
	if raw := strings.TrimSpace(os.Getenv("UPLOAD_MAX_BYTES")); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.UploadMaxBytes = parsed
		}
	}
}

func (c *Config) normalize() {
	defaults := Default()
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = defaults.Port
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.UploadMaxBytes <= 0 {
		c.UploadMaxBytes = defaults.UploadMaxBytes
	}

	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	if c.DB.Driver == "" {
		c.DB.Driver = defaults.DB.Driver
	}
	if c.DB.Host == "" {
		c.DB.Host = defaults.DB.Host
	}
	if c.DB.Port <= 0 {
		c.DB.Port = defaults.DB.Port
	}
	if c.DB.Database == "" {
		c.DB.Database = defaults.DB.Database
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.FolderPath == "" {
		c.Storage.FolderPath = defaults.Storage.FolderPath
	}

	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = defaults.Worker.Concurrency
	}
	if c.Worker.PollInterval.Duration <= 0 {
		c.Worker.PollInterval = defaults.Worker.PollInterval
	}
	if c.Worker.MaxAttempts <= 0 {
		c.Worker.MaxAttempts = defaults.Worker.MaxAttempts
	}
	if c.Worker.RetryDelay.Duration < 0 {
		c.Worker.RetryDelay = defaults.Worker.RetryDelay
	}
	if c.Worker.Lease.Duration <= 0 {
		c.Worker.Lease = defaults.Worker.Lease
	}
}

var allowedKeys = []string{
	"host",
	"port",
	"api_url",
	"log_level",
	"upload_max_bytes",
	"db.driver",
	"db.path",
	"db.host",
	"db.port",
	"db.database",
	"db.user",
	"db.password",
	"db.sslmode",
	"storage.backend",
	"storage.folder_path",
	"storage.s3_bucket",
	"storage.s3_region",
	"storage.s3_endpoint",
	"storage.s3_access_key",
	"storage.s3_secret_key",
	"worker.concurrency",
	"worker.poll_interval",
	"worker.max_attempts",
	"worker.retry_delay",
	"worker.lease",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key. Secrets are masked.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "host":
		return c.Host, nil
	case "port":
		return strconv.Itoa(c.Port), nil
	case "api_url":
		return c.APIURL, nil
	case "log_level":
		return c.LogLevel, nil
	case "upload_max_bytes":
		return strconv.FormatInt(c.UploadMaxBytes, 10), nil
	case "db.driver":
		return c.DB.Driver, nil
	case "db.path":
		return c.DB.Path, nil
	case "db.host":
		return c.DB.Host, nil
	case "db.port":
		return strconv.Itoa(c.DB.Port), nil
	case "db.database":
		return c.DB.Database, nil
	case "db.user":
		return c.DB.User, nil
	case "db.password":
		return mask(c.DB.Password), nil
	case "db.sslmode":
		return c.DB.SSLMode, nil
	case "storage.backend":
		return c.Storage.Backend, nil
	case "storage.folder_path":
		return c.Storage.FolderPath, nil
	case "storage.s3_bucket":
		return c.Storage.S3Bucket, nil
	case "storage.s3_region":
		return c.Storage.S3Region, nil
	case "storage.s3_endpoint":
		return c.Storage.S3Endpoint, nil
	case "storage.s3_access_key":
		return c.Storage.S3AccessKey, nil
	case "storage.s3_secret_key":
		return mask(c.Storage.S3SecretKey), nil
	case "worker.concurrency":
		return strconv.Itoa(c.Worker.Concurrency), nil
	case "worker.poll_interval":
		return c.Worker.PollInterval.String(), nil
	case "worker.max_attempts":
		return strconv.Itoa(c.Worker.MaxAttempts), nil
	case "worker.retry_delay":
		return c.Worker.RetryDelay.String(), nil
	case "worker.lease":
		return c.Worker.Lease.String(), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "port", "db.port", "worker.concurrency", "worker.max_attempts":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return int64(parsed), nil
	case "upload_max_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "worker.poll_interval", "worker.retry_delay", "worker.lease":
		parsed, err := parseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return parsed.String(), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

// parseDuration accepts Go duration strings and bare seconds.
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("duration is required")
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("duration must be >= 0")
		}
		return d, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return time.Duration(seconds) * time.Second, nil
}
