package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every automatic environment variable, e.g.
// SEO_FILTER_MIN_SEARCH for filter.min_search
const EnvPrefix = "SEO"

// DefaultEnvFile is read when present; a missing default file is not an error
const DefaultEnvFile = ".env"

// envAliases binds the conventional variable names used by Google tooling in
// addition to the SEO_ prefixed ones.
var envAliases = map[string][]string{
	"ads.developer_token":   {"GOOGLE_ADS_DEVELOPER_TOKEN"},
	"ads.client_id":         {"GOOGLE_ADS_CLIENT_ID"},
	"ads.client_secret":     {"GOOGLE_ADS_CLIENT_SECRET"},
	"ads.refresh_token":     {"GOOGLE_ADS_REFRESH_TOKEN"},
	"ads.customer_id":       {"GOOGLE_ADS_CUSTOMER_ID"},
	"ads.login_customer_id": {"GOOGLE_ADS_LOGIN_CUSTOMER_ID"},
	"credentials_file":      {"GOOGLE_APPLICATION_CREDENTIALS"},
	"logger.level":          {"LOG_LEVEL"},
}

// flagKeys maps CLI flag names onto configuration keys
var flagKeys = map[string]string{
	"theme":        "seeds.theme",
	"template":     "seeds.template",
	"phrases-file": "seeds.phrases_file",
	"seed-bucket":  "seeds.bucket",
	"seed-object":  "seeds.object",
	"min-search":   "filter.min_search",
	"min-words":    "filter.min_words",
	"limit":        "filter.limit",
	"max-results":  "filter.max_results",
	"layout":       "output.layout",
	"results":      "output.results",
	"bucket":       "output.bucket",
	"upload-key":   "output.upload_key",
	"sheet":        "output.sheet",
	"sheet-id":     "output.sheet_id",
	"worksheet":    "output.worksheet",
	"log-backend":  "processed_log.backend",
	"log-path":     "processed_log.path",
	"redis-addr":   "processed_log.redis_addr",
	"dedup-log":    "processed_log.dedup_on_write",
	"interval":     "fetch.interval",
	"host":         "server.host",
	"port":         "server.port",
	"schedule":     "server.schedule",
	"log-level":    "logger.level",
	"log-format":   "logger.format",
}

// FlagKey returns the configuration key bound to a flag name
func FlagKey(flag string) (string, bool) {
	key, ok := flagKeys[flag]
	return key, ok
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ads.developer_token", "")
	v.SetDefault("ads.client_id", "")
	v.SetDefault("ads.client_secret", "")
	v.SetDefault("ads.refresh_token", "")
	v.SetDefault("ads.customer_id", "")
	v.SetDefault("ads.login_customer_id", "")
	v.SetDefault("ads.endpoint", "https://googleads.googleapis.com")
	v.SetDefault("ads.api_version", "v19")
	v.SetDefault("ads.language", "languageConstants/1000")
	v.SetDefault("ads.geo_targets", []string{"geoTargetConstants/2840"})
	v.SetDefault("ads.network", "GOOGLE_SEARCH")
	v.SetDefault("ads.include_adult", false)
	v.SetDefault("ads.timeout", 30*time.Second)

	v.SetDefault("seeds.theme", "")
	v.SetDefault("seeds.template", "phrases.txt")
	v.SetDefault("seeds.phrases_file", "")
	v.SetDefault("seeds.bucket", "")
	v.SetDefault("seeds.object", "")

	v.SetDefault("filter.min_search", 1000)
	v.SetDefault("filter.min_words", 0)
	v.SetDefault("filter.limit", 100)
	v.SetDefault("filter.max_results", 0)

	v.SetDefault("fetch.interval", time.Second)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.retry_delay", 5*time.Second)

	v.SetDefault("output.layout", "full")
	v.SetDefault("output.results", "results.csv")
	v.SetDefault("output.bucket", "")
	v.SetDefault("output.upload_key", "")
	v.SetDefault("output.sheet", "")
	v.SetDefault("output.sheet_id", "")
	v.SetDefault("output.worksheet", "")

	v.SetDefault("processed_log.backend", "file")
	v.SetDefault("processed_log.path", "last_run.log")
	v.SetDefault("processed_log.redis_addr", "")
	v.SetDefault("processed_log.redis_password", "")
	v.SetDefault("processed_log.redis_db", 0)
	v.SetDefault("processed_log.redis_key", "seo-keywords:processed")
	v.SetDefault("processed_log.dedup_on_write", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.schedule", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "auto")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.time_format", "rfc3339")

	v.SetDefault("credentials_file", "")
}

type manager struct {
	mu         sync.RWMutex
	config     *Config
	viper      *viper.Viper
	configPath string
	envFile    string
	flags      *pflag.FlagSet
}

// ManagerOption customizes a Manager
type ManagerOption func(*manager)

// WithEnvFile reads a dotenv file. Its values act as defaults below real
// environment variables; the process environment is never modified.
func WithEnvFile(path string) ManagerOption {
	return func(m *manager) { m.envFile = path }
}

// WithFlags binds every known flag of fs into the configuration
func WithFlags(fs *pflag.FlagSet) ManagerOption {
	return func(m *manager) { m.flags = fs }
}

func NewManager(opts ...ManagerOption) Manager {
	m := &manager{
		viper:   viper.New(),
		envFile: DefaultEnvFile,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads configuration from, in increasing precedence: built-in
// defaults, the dotenv file, the config file (optional, "" to skip),
// environment variables and changed flags.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configPath = configPath
	if err := m.setupViper(); err != nil {
		return nil, fmt.Errorf("failed to setup viper: %w", err)
	}

	config, err := m.read()
	if err != nil {
		return nil, err
	}
	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	config, err := m.read()
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) read() (*Config, error) {
	if m.configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&config)
	return &config, nil
}

func (m *manager) setupViper() error {
	v := m.viper
	setDefaults(v)

	if err := m.applyEnvFile(); err != nil {
		return err
	}

	if m.configPath != "" {
		v.SetConfigFile(m.configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if m.flags != nil {
		for name, key := range flagKeys {
			flag := m.flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("bind flag --%s: %w", name, err)
			}
		}
	}

	return nil
}

// applyEnvFile loads dotenv values as viper defaults. A missing default
// file is ignored; an explicitly requested one must exist.
func (m *manager) applyEnvFile() error {
	if m.envFile == "" {
		return nil
	}

	values, err := godotenv.Read(m.envFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && m.envFile == DefaultEnvFile {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", m.envFile, err)
	}

	for key, aliases := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		for _, name := range append([]string{prefixed}, aliases...) {
			if value, ok := values[name]; ok {
				m.viper.SetDefault(key, value)
				break
			}
		}
	}

	for _, key := range m.viper.AllKeys() {
		if _, aliased := envAliases[key]; aliased {
			continue
		}
		name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if value, ok := values[name]; ok {
			m.viper.SetDefault(key, value)
		}
	}
	return nil
}

func normalize(c *Config) {
	c.Seeds.Theme = strings.TrimSpace(c.Seeds.Theme)
	c.ProcessedLog.Backend = strings.ToLower(strings.TrimSpace(c.ProcessedLog.Backend))
	c.Output.Layout = strings.ToLower(strings.TrimSpace(c.Output.Layout))
	// the template only matters together with a theme
	if c.Seeds.Theme == "" {
		c.Seeds.Template = ""
	}
}
