package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendSanity   = "sanity"
	BackendPostgres = "postgres"

	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

type Config struct {
	Sanity      SanityConfig
	Backend     string
	DatabaseURL string
	Scheduler   SchedulerConfig
	Scraper     ScraperConfig
	Archive     ArchiveConfig
	AdminAddr   string
	DBPath      string
	LogLevel    string
	LogFile     string
	SiteID      string
	SitesDir    string
	Sites       map[string]*SiteConfig
}

type SanityConfig struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	// BaseURL overrides https://{project}.api.sanity.io, mostly for tests.
	BaseURL    string
	MaxRetries int
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type ScraperConfig struct {
	DelayMS   int
	Fetcher   string
	ProxyURL  string
	UserAgent string
	Headless  bool
	TimeoutMS int
}

func (s ScraperConfig) Delay() time.Duration {
	return time.Duration(s.DelayMS) * time.Millisecond
}

type ArchiveConfig struct {
	Dir string
	S3  S3Config
}

// S3Config holds configuration for S3-compatible storage
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for DO Spaces, R2, etc.
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// SiteConfig describes one builder website.
type SiteConfig struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	BaseURL       string            `yaml:"base_url"`
	APIPath       string            `yaml:"api_path"`
	States        []string          `yaml:"states"`
	Statuses      map[string]string `yaml:"statuses"`
	DefaultStatus string            `yaml:"default_status"`
	Brands        []BrandRule       `yaml:"brands"`
}

// BrandRule maps a series name found in page text to its display form.
// FromModel rules also rewrite the plan model's raw BrandName.
type BrandRule struct {
	Match     string `yaml:"match"`
	Name      string `yaml:"name"`
	FromModel bool   `yaml:"from_model"`
}

// APIURL is the comms endpoint for a state slug or area path.
func (s *SiteConfig) APIURL(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.Trim(s.APIPath, "/") + "/" + strings.TrimLeft(path, "/")
}

// Absolute prefixes site-relative links with the base URL.
func (s *SiteConfig) Absolute(link string) string {
	if link == "" || strings.HasPrefix(link, "http") {
		return link
	}
	return strings.TrimRight(s.BaseURL, "/") + link
}

func (s *SiteConfig) Status(code string) string {
	if name, ok := s.Statuses[code]; ok {
		return name
	}
	return s.DefaultStatus
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Sanity: SanityConfig{
			ProjectID:  getEnv("SANITY_PROJECT_ID", os.Getenv("PUBLIC_SANITY_PROJECT_ID")),
			Dataset:    getEnv("SANITY_DATASET", getEnv("PUBLIC_SANITY_DATASET", "production")),
			Token:      getEnv("SANITY_API_TOKEN", os.Getenv("SANITY_TOKEN")),
			APIVersion: getEnv("SANITY_API_VERSION", "2021-10-21"),
			BaseURL:    os.Getenv("SANITY_BASE_URL"),
			MaxRetries: getEnvInt("SANITY_MAX_RETRIES", 3),
		},
		Backend:     getEnv("CMS_BACKEND", BackendSanity),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Scraper: ScraperConfig{
			DelayMS:   getEnvInt("SCRAPE_DELAY_MS", 100),
			Fetcher:   getEnv("SCRAPE_FETCHER", FetcherHTTP),
			ProxyURL:  os.Getenv("PROXY_URL"),
			UserAgent: getEnv("SCRAPE_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
			Headless:  getEnv("BROWSER_HEADLESS", "true") == "true",
			TimeoutMS: getEnvInt("SCRAPE_TIMEOUT_MS", 30000),
		},
		Archive: ArchiveConfig{
			Dir: os.Getenv("ARCHIVE_DIR"),
			S3: S3Config{
				Bucket:          os.Getenv("ARCHIVE_S3_BUCKET"),
				Region:          getEnv("ARCHIVE_S3_REGION", "us-east-1"),
				Endpoint:        os.Getenv("ARCHIVE_S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("ARCHIVE_S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("ARCHIVE_S3_SECRET_ACCESS_KEY"),
				Prefix:          getEnv("ARCHIVE_S3_PREFIX", "pages"),
			},
		},
		AdminAddr: getEnv("ADMIN_ADDR", ":8080"),
		DBPath:    getEnv("DB_PATH", "homesite_sync.db"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", "homesite_sync.log"),
		SiteID:    getEnv("SITE", "drhorton"),
		SitesDir:  getEnv("SITES_DIR", "config/sites"),
		Sites:     make(map[string]*SiteConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Site returns the active builder site, falling back to the built-in
// D.R. Horton description when no YAML file defines it.
func (c *Config) Site() (*SiteConfig, error) {
	if site, ok := c.Sites[c.SiteID]; ok {
		return site, nil
	}
	if c.SiteID == DefaultSite().ID {
		return DefaultSite(), nil
	}
	return nil, fmt.Errorf("unknown site: %s", c.SiteID)
}

// Validate checks the settings needed to reach the document store.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendSanity:
		if c.Sanity.ProjectID == "" {
			errs = append(errs, errors.New("SANITY_PROJECT_ID is required"))
		}
		if c.Sanity.Dataset == "" {
			errs = append(errs, errors.New("SANITY_DATASET is required"))
		}
		if c.Sanity.Token == "" {
			errs = append(errs, errors.New("SANITY_API_TOKEN is required"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CMS_BACKEND %q", c.Backend))
	}
	if c.Scraper.Fetcher != FetcherHTTP && c.Scraper.Fetcher != FetcherBrowser {
		errs = append(errs, fmt.Errorf("unknown SCRAPE_FETCHER %q", c.Scraper.Fetcher))
	}
	return errors.Join(errs...)
}

func (c *Config) loadSiteConfigs() error {
	entries, err := os.ReadDir(c.SitesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		site, err := LoadSiteConfig(filepath.Join(c.SitesDir, entry.Name()))
		if err != nil {
			return err
		}
		c.Sites[site.ID] = site
	}

	return nil
}

func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var site SiteConfig
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if site.ID == "" || site.BaseURL == "" {
		return nil, fmt.Errorf("%s: id and base_url are required", path)
	}
	if site.APIPath == "" {
		site.APIPath = "/api/comms/direct"
	}
	if site.DefaultStatus == "" {
		site.DefaultStatus = "Now Selling"
	}
	return &site, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
