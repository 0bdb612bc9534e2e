package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DBConfig Database config
type DBConfig struct {
	Type   string `yaml:"type" env:"STOREFRONT_DB_TYPE"` // postgres or sqlite, empty disables the relational backend
	Host   string `yaml:"host" env:"STOREFRONT_DB_HOST"`
	Port   int    `yaml:"port" env:"STOREFRONT_DB_PORT"`
	Name   string `yaml:"name" env:"STOREFRONT_DB_NAME"`
	User   string `yaml:"user" env:"STOREFRONT_DB_USER"`
	Passwd string `yaml:"passwd" env:"STOREFRONT_DB_PWD"`
	Debug  bool   `yaml:"debug" env:"STOREFRONT_DB_DEBUG"`
}

// SysConfig System config
type SysConfig struct {
	Appid    string `yaml:"appid" env:"STOREFRONT_APPID"`
	Location string `yaml:"location" env:"STOREFRONT_LOCATION"`
	Workdir  string `yaml:"workdir" env:"STOREFRONT_WORKDIR"`
	Debug    bool   `yaml:"debug" env:"STOREFRONT_DEBUG"`
	SeedDemo bool   `yaml:"seed_demo" env:"STOREFRONT_SEED_DEMO"`
}

// WebConfig web server config
type WebConfig struct {
	Host          string `yaml:"host" env:"STOREFRONT_WEB_HOST"`
	Port          int    `yaml:"port" env:"STOREFRONT_WEB_PORT"`
	Secret        string `yaml:"secret" env:"STOREFRONT_SESSION_SECRET"`
	AdminUsername string `yaml:"admin_username" env:"STOREFRONT_ADMIN_USERNAME"`
	AdminPassword string `yaml:"admin_password" env:"STOREFRONT_ADMIN_PASSWORD"`
	TokenTTL      int    `yaml:"token_ttl" env:"STOREFRONT_TOKEN_TTL"` // seconds
}

// CmsConfig headless CMS (Strapi) connection
type CmsConfig struct {
	URL     string `yaml:"url" env:"STRAPI_URL"`
	Token   string `yaml:"token" env:"STRAPI_API_TOKEN"`
	Timeout int    `yaml:"timeout" env:"STRAPI_TIMEOUT"` // seconds
}

// StorageConfig object storage bucket used for uploads by the relational backend
type StorageConfig struct {
	URL     string `yaml:"url" env:"STOREFRONT_STORAGE_URL"`
	Key     string `yaml:"key" env:"STOREFRONT_STORAGE_KEY"`
	Bucket  string `yaml:"bucket" env:"STOREFRONT_STORAGE_BUCKET"`
	Timeout int    `yaml:"timeout" env:"STOREFRONT_STORAGE_TIMEOUT"`
}

// TranslateConfig machine translation provider
type TranslateConfig struct {
	Endpoint  string `yaml:"endpoint" env:"DEEPL_API_ENDPOINT"`
	ApiKey    string `yaml:"api_key" env:"DEEPL_API_KEY"`
	Timeout   int    `yaml:"timeout" env:"DEEPL_TIMEOUT"`
	CacheSize int    `yaml:"cache_size" env:"STOREFRONT_TRANSLATE_CACHE_SIZE"`
}

// LogConfig logger config
type LogConfig struct {
	Mode       string `yaml:"mode" env:"STOREFRONT_LOGGER_MODE"`
	FileEnable bool   `yaml:"file_enable" env:"STOREFRONT_LOGGER_FILE_ENABLE"`
	Filename   string `yaml:"filename" env:"STOREFRONT_LOGGER_FILENAME"`
}

type AppConfig struct {
	System    SysConfig       `yaml:"system"`
	Web       WebConfig       `yaml:"web"`
	Database  DBConfig        `yaml:"database"`
	Cms       CmsConfig       `yaml:"cms"`
	Storage   StorageConfig   `yaml:"storage"`
	Translate TranslateConfig `yaml:"translate"`
	Logger    LogConfig       `yaml:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

// HasCms reports whether both CMS url and token are present.
func (c *AppConfig) HasCms() bool {
	return strings.TrimSpace(c.Cms.URL) != "" && strings.TrimSpace(c.Cms.Token) != ""
}

// HasDatabase reports whether a relational backend is configured.
func (c *AppConfig) HasDatabase() bool {
	switch c.Database.Type {
	case "sqlite":
		return c.Database.Name != ""
	case "postgres":
		return c.Database.Host != "" && c.Database.Name != ""
	}
	return false
}

// HasStorage reports whether the upload bucket is configured.
func (c *AppConfig) HasStorage() bool {
	return c.Storage.URL != "" && c.Storage.Key != "" && c.Storage.Bucket != ""
}

func (c *AppConfig) CmsTimeout() time.Duration {
	return seconds(c.Cms.Timeout)
}

func (c *AppConfig) StorageTimeout() time.Duration {
	return seconds(c.Storage.Timeout)
}

func (c *AppConfig) TranslateTimeout() time.Duration {
	return seconds(c.Translate.Timeout)
}

func (c *AppConfig) TokenTTL() time.Duration {
	if c.Web.TokenTTL <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.Web.TokenTTL) * time.Second
}

func seconds(v int) time.Duration {
	if v <= 0 {
		return DefaultUpstreamTimeout
	}
	return time.Duration(v) * time.Second
}

// DefaultUpstreamTimeout bounds every outbound call to a CMS, bucket or translator.
const DefaultUpstreamTimeout = 10 * time.Second

const DefaultDeepLEndpoint = "https://api-free.deepl.com/v2/translate"

// DefaultSessionSecret is the shipped placeholder; the application replaces it
// with a random per-process secret at startup.
const DefaultSessionSecret = "9b6de5cc-0731-4bf1-xxxx-0f568ac9da37"

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "Storefront",
		Location: "Asia/Seoul",
		Workdir:  "/var/storefront",
		Debug:    false,
	},
	Web: WebConfig{
		Host:          "0.0.0.0",
		Port:          3000,
		Secret:        DefaultSessionSecret,
		AdminUsername: "admin",
		AdminPassword: "",
		TokenTTL:      43200,
	},
	Database: DBConfig{
		Type: "",
		Host: "127.0.0.1",
		Port: 5432,
		Name: "storefront",
		User: "postgres",
	},
	Cms: CmsConfig{
		Timeout: 10,
	},
	Storage: StorageConfig{
		Bucket:  "product-images",
		Timeout: 10,
	},
	Translate: TranslateConfig{
		Endpoint:  DefaultDeepLEndpoint,
		Timeout:   10,
		CacheSize: 4096,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/storefront/storefront.log",
	},
}

// LoadConfig reads the yaml file at cfile (if any) over the defaults and then
// applies environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfile, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfile, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Cms.URL = strings.TrimRight(strings.TrimSpace(cfg.Cms.URL), "/")
	cfg.Storage.URL = strings.TrimRight(strings.TrimSpace(cfg.Storage.URL), "/")
	if cfg.Translate.Endpoint == "" {
		cfg.Translate.Endpoint = DefaultDeepLEndpoint
	}
	return &cfg, nil
}

// SaveConfig writes the configuration as yaml, used by the -initcfg flag.
func (c *AppConfig) SaveConfig(cfile string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(cfile, data, 0o644)
}
