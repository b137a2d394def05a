package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"rentbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Logging       LoggingConfig       `yaml:"logging"`
	HTTP          HTTPConfig          `yaml:"http"`
	Store         StoreConfig         `yaml:"store"`
	Auth          AuthConfig          `yaml:"auth"`
	Images        ImagesConfig        `yaml:"images"`
	Redis         RedisConfig         `yaml:"redis"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Broker        BrokerConfig        `yaml:"broker"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type HTTPConfig struct {
	Port               int      `yaml:"port"`
	CORSOrigins        []string `yaml:"cors_origins"`
	MaxUploadMB        int      `yaml:"max_upload_mb"`
	WriteTimeoutSecond int      `yaml:"write_timeout_seconds"`
	// TrustProxy reads the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy         bool     `yaml:"trust_proxy"`
}

const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

type StoreConfig struct {
	Driver     string          `yaml:"driver"`
	SQLitePath string          `yaml:"sqlite_path"`
	Firestore  FirestoreConfig `yaml:"firestore"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

type AuthConfig struct {
	Provider  string          `yaml:"provider"`
	JWTSecret string          `yaml:"jwt_secret"`
	JWTIssuer string          `yaml:"jwt_issuer"`
	Firebase  FirestoreConfig `yaml:"firebase"`
}

const (
	ImagesLocal = "local"
	ImagesS3    = "s3"
)

type ImagesConfig struct {
	Driver   string   `yaml:"driver"`
	LocalDir string   `yaml:"local_dir"`
	BaseURL  string   `yaml:"base_url"`
	S3       S3Config `yaml:"s3"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicURL       string `yaml:"public_url"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the limiter window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type BrokerConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Queue      string `yaml:"queue"`
	BufferSize int    `yaml:"buffer_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type CatalogConfig struct {
	PageSize int `yaml:"page_size"`
}

type NotificationsConfig struct {
	ListLimit int `yaml:"list_limit"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; values already in the environment win
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	case StoreFirestore:
		if c.Store.Firestore.ProjectID == "" {
			return errors.New("store.firestore.project_id is required for the firestore driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Auth.Provider {
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required for the jwt provider")
		}
	case AuthFirebase:
	default:
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}

	switch c.Images.Driver {
	case ImagesLocal:
	case ImagesS3:
		if c.Images.S3.Bucket == "" || c.Images.S3.Region == "" {
			return errors.New("images.s3.bucket and images.s3.region are required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown images driver %q", c.Images.Driver)
	}

	if c.Broker.Enabled && c.Broker.URL == "" {
		return errors.New("broker.url is required when the broker is enabled")
	}

	if c.Catalog.PageSize > models.MaxPageSize {
		return fmt.Errorf("catalog.page_size must not exceed %d", models.MaxPageSize)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "rentbook"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 10
	}
	if c.HTTP.WriteTimeoutSecond == 0 {
		c.HTTP.WriteTimeoutSecond = 30
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMemory
	}
	c.Auth.Provider = strings.ToLower(strings.TrimSpace(c.Auth.Provider))
	if c.Auth.Provider == "" {
		c.Auth.Provider = AuthJWT
	}
	if c.Auth.Firebase.ProjectID == "" {
		c.Auth.Firebase.ProjectID = c.Store.Firestore.ProjectID
	}
	if c.Auth.Firebase.CredentialsFile == "" {
		c.Auth.Firebase.CredentialsFile = c.Store.Firestore.CredentialsFile
	}

	c.Images.Driver = strings.ToLower(strings.TrimSpace(c.Images.Driver))
	if c.Images.Driver == "" {
		c.Images.Driver = ImagesLocal
	}
	if c.Images.LocalDir == "" {
		c.Images.LocalDir = "data/uploads"
	}
	if c.Images.BaseURL == "" {
		c.Images.BaseURL = fmt.Sprintf("http://localhost:%d/uploads", c.HTTP.Port)
	}

	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 120
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}

	if c.Broker.Queue == "" {
		c.Broker.Queue = "booking.events"
	}
	if c.Broker.BufferSize == 0 {
		c.Broker.BufferSize = 256
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = models.DefaultPageSize
	}
	if c.Notifications.ListLimit == 0 {
		c.Notifications.ListLimit = models.NotificationListLimit
	}
}
