package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"seo-keywords/pkg/api"
	"seo-keywords/pkg/keyword"
	"seo-keywords/pkg/logger"
	"seo-keywords/pkg/sink"
	"seo-keywords/pkg/storage"
)

var (
	// ErrMissingSeedInput means no theme, phrases file or seed object was given
	ErrMissingSeedInput = errors.New("either a theme, a phrases file or a seed object is required")
	// ErrInvalidLimit means the batch limit is not positive
	ErrInvalidLimit = storage.ErrInvalidLimit
	// ErrMissingCredentials means a required Google Ads credential is unset
	ErrMissingCredentials = errors.New("missing Google Ads credentials")
)

type Config struct {
	Ads             AdsConfig          `mapstructure:"ads"`
	Seeds           SeedsConfig        `mapstructure:"seeds"`
	Filter          FilterConfig       `mapstructure:"filter"`
	Fetch           FetchConfig        `mapstructure:"fetch"`
	Output          OutputConfig       `mapstructure:"output"`
	ProcessedLog    ProcessedLogConfig `mapstructure:"processed_log"`
	Server          ServerConfig       `mapstructure:"server"`
	Logger          LoggerConfig       `mapstructure:"logger"`
	CredentialsFile string             `mapstructure:"credentials_file"`
}

type AdsConfig struct {
	DeveloperToken  string        `mapstructure:"developer_token"`
	ClientID        string        `mapstructure:"client_id"`
	ClientSecret    string        `mapstructure:"client_secret"`
	RefreshToken    string        `mapstructure:"refresh_token"`
	CustomerID      string        `mapstructure:"customer_id"`
	LoginCustomerID string        `mapstructure:"login_customer_id"`
	Endpoint        string        `mapstructure:"endpoint"`
	APIVersion      string        `mapstructure:"api_version"`
	Language        string        `mapstructure:"language"`
	GeoTargets      []string      `mapstructure:"geo_targets"`
	Network         string        `mapstructure:"network"`
	IncludeAdult    bool          `mapstructure:"include_adult"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type SeedsConfig struct {
	Theme       string `mapstructure:"theme"`
	Template    string `mapstructure:"template"`
	PhrasesFile string `mapstructure:"phrases_file"`
	Bucket      string `mapstructure:"bucket"`
	Object      string `mapstructure:"object"`
}

type FilterConfig struct {
	MinSearch  int64 `mapstructure:"min_search"`
	MinWords   int   `mapstructure:"min_words"`
	Limit      int   `mapstructure:"limit"`
	MaxResults int   `mapstructure:"max_results"`
}

type FetchConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type OutputConfig struct {
	Layout    string `mapstructure:"layout"`
	Results   string `mapstructure:"results"`
	Bucket    string `mapstructure:"bucket"`
	UploadKey string `mapstructure:"upload_key"`
	Sheet     string `mapstructure:"sheet"`
	SheetID   string `mapstructure:"sheet_id"`
	Worksheet string `mapstructure:"worksheet"`
}

type ProcessedLogConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
	DedupOnWrite  bool   `mapstructure:"dedup_on_write"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Schedule string `mapstructure:"schedule"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}

// Validate checks everything a run or a plan needs, apart from Ads
// credentials. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if !c.HasSeedInput() {
		errs = append(errs, ErrMissingSeedInput)
	}
	if c.Seeds.Theme != "" && c.Seeds.Template == "" {
		errs = append(errs, fmt.Errorf("a theme needs a template file"))
	}
	if c.Seeds.Object != "" && c.Seeds.Bucket == "" {
		errs = append(errs, fmt.Errorf("seed object %q needs a bucket", c.Seeds.Object))
	}
	if c.Filter.Limit <= 0 {
		errs = append(errs, fmt.Errorf("%w, got: %d", ErrInvalidLimit, c.Filter.Limit))
	}
	if c.Filter.MinSearch < 0 {
		errs = append(errs, fmt.Errorf("min_search cannot be negative, got: %d", c.Filter.MinSearch))
	}
	if c.Filter.MinWords < 0 || c.Filter.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("min_words and max_results cannot be negative"))
	}
	if c.Fetch.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("fetch.max_attempts must be positive, got: %d", c.Fetch.MaxAttempts))
	}
	if c.Fetch.Interval < 0 || c.Fetch.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("fetch interval and retry delay cannot be negative"))
	}
	if _, err := sink.ParseLayout(c.Output.Layout); err != nil {
		errs = append(errs, err)
	}
	if c.Output.Results == "" {
		errs = append(errs, fmt.Errorf("results path cannot be empty"))
	}
	switch c.ProcessedLog.Backend {
	case storage.BackendFile, storage.BackendSQLite:
		if c.ProcessedLog.Path == "" {
			errs = append(errs, fmt.Errorf("processed log path cannot be empty for backend %q", c.ProcessedLog.Backend))
		}
	case storage.BackendRedis:
		if c.ProcessedLog.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("redis processed log needs redis_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown processed log backend %q", c.ProcessedLog.Backend))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

// ValidateCredentials checks the Google Ads credentials a run needs
func (c *Config) ValidateCredentials() error {
	var missing []string
	for name, value := range map[string]string{
		"GOOGLE_ADS_DEVELOPER_TOKEN": c.Ads.DeveloperToken,
		"GOOGLE_ADS_CLIENT_ID":       c.Ads.ClientID,
		"GOOGLE_ADS_CLIENT_SECRET":   c.Ads.ClientSecret,
		"GOOGLE_ADS_REFRESH_TOKEN":   c.Ads.RefreshToken,
		"GOOGLE_ADS_CUSTOMER_ID":     c.Ads.CustomerID,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
}

// HasSeedInput reports whether any seed source is configured
func (c *Config) HasSeedInput() bool {
	return c.Seeds.Theme != "" || c.Seeds.PhrasesFile != "" || c.Seeds.Object != ""
}

// AdsClientConfig maps the Ads section onto the API client configuration
func (c *Config) AdsClientConfig() api.AdsConfig {
	return api.AdsConfig{
		Endpoint:        c.Ads.Endpoint,
		APIVersion:      c.Ads.APIVersion,
		DeveloperToken:  c.Ads.DeveloperToken,
		CustomerID:      c.Ads.CustomerID,
		LoginCustomerID: c.Ads.LoginCustomerID,
		Language:        c.Ads.Language,
		GeoTargets:      c.Ads.GeoTargets,
		Network:         c.Ads.Network,
		IncludeAdult:    c.Ads.IncludeAdult,
		Timeout:         c.Ads.Timeout,
	}
}

// OAuthCredentials returns the refresh-token credentials
func (c *Config) OAuthCredentials() api.OAuthCredentials {
	return api.OAuthCredentials{
		ClientID:     c.Ads.ClientID,
		ClientSecret: c.Ads.ClientSecret,
		RefreshToken: c.Ads.RefreshToken,
	}
}

// RetryPolicy returns the fetcher retry policy
func (c *Config) RetryPolicy() api.RetryPolicy {
	return api.RetryPolicy{MaxAttempts: c.Fetch.MaxAttempts, Delay: c.Fetch.RetryDelay}
}

// Formatter returns the result filter
func (c *Config) Formatter() keyword.Formatter {
	return keyword.Formatter{
		MinVolume:  c.Filter.MinSearch,
		MinWords:   c.Filter.MinWords,
		MaxResults: c.Filter.MaxResults,
	}
}

// LogConfig returns the processed log backend configuration
func (c *Config) LogConfig() storage.LogConfig {
	return storage.LogConfig{
		Backend: c.ProcessedLog.Backend,
		Path:    c.ProcessedLog.Path,
		Redis: storage.RedisConfig{
			Addr:     c.ProcessedLog.RedisAddr,
			Password: c.ProcessedLog.RedisPassword,
			DB:       c.ProcessedLog.RedisDB,
			Key:      c.ProcessedLog.RedisKey,
		},
	}
}

// RunLockPath is where the run lock lives for file-backed logs, or "" when
// the backend has no local file
func (c *Config) RunLockPath() string {
	if c.ProcessedLog.Backend != storage.BackendFile {
		return ""
	}
	return c.ProcessedLog.Path + ".lock"
}

// LoggerSettings maps the logger section onto logger.Config
func (c *Config) LoggerSettings() logger.Config {
	return logger.Config{
		Level:      c.Logger.Level,
		Format:     c.Logger.Format,
		Output:     c.Logger.Output,
		TimeFormat: c.Logger.TimeFormat,
	}
}

// SafeSummary lists the effective settings with secrets masked, for logging
func (c *Config) SafeSummary() map[string]interface{} {
	sl := logger.GetSecurityLogger()
	return sl.MaskSensitiveData(map[string]interface{}{
		"developer_token":      c.Ads.DeveloperToken,
		"client_secret":        c.Ads.ClientSecret,
		"refresh_token":        c.Ads.RefreshToken,
		"customer_id":          c.Ads.CustomerID,
		"theme":                c.Seeds.Theme,
		"phrases_file":         c.Seeds.PhrasesFile,
		"seed_object":          c.Seeds.Object,
		"min_search":           c.Filter.MinSearch,
		"min_words":            c.Filter.MinWords,
		"limit":                c.Filter.Limit,
		"layout":               c.Output.Layout,
		"results":              c.Output.Results,
		"log_backend":          c.ProcessedLog.Backend,
		"credentials_file_set": c.CredentialsFile != "",
	})
}
