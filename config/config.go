package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration loading.
var (
	// ErrInvalidRendererKind indicates an unrecognized renderer.kind value.
	ErrInvalidRendererKind = errors.New("config: invalid renderer kind")

	// ErrMissingEnvVar indicates a ${VAR} reference to an unset variable.
	ErrMissingEnvVar = errors.New("config: missing environment variable")
)

// Renderer kinds accepted by Validate.
const (
	RendererCLI  = "cli"
	RendererHTTP = "http"
)

// Config is the root configuration for a rendering host.
type Config struct {
	Cache    CacheConfig    `mapstructure:"cache"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Observe  ObserveConfig  `mapstructure:"observe"`
}

// CacheConfig controls the two cache tiers.
type CacheConfig struct {
	// Dir is the durable tier directory. Empty selects the OS temp dir.
	Dir string `mapstructure:"dir"`

	// MemoryTTL bounds the age of in-memory entries. Zero keeps entries
	// for the process lifetime.
	MemoryTTL time.Duration `mapstructure:"memory_ttl"`

	// Redis configures the optional shared durable tier. Addr empty
	// disables it.
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the optional Redis-backed cache tier.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RendererConfig selects and configures the external renderer.
type RendererConfig struct {
	// Kind is "cli" or "http".
	Kind string `mapstructure:"kind"`

	// Command is the CLI binary name or path (kind "cli").
	Command string `mapstructure:"command"`

	// URL is the rendering service base URL (kind "http").
	URL string `mapstructure:"url"`

	// SigningKey signs request tokens for the HTTP renderer. Supports
	// ${VAR} expansion.
	SigningKey string `mapstructure:"signing_key"`

	// Timeout bounds a single external render call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ObserveConfig configures telemetry for the pipeline.
type ObserveConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	Version        string  `mapstructure:"version"`
	LogLevel       string  `mapstructure:"log_level"`
	TraceExporter  string  `mapstructure:"trace_exporter"`
	MetricExporter string  `mapstructure:"metric_exporter"`
	Endpoint       string  `mapstructure:"endpoint"`
	SamplePct      float64 `mapstructure:"sample_pct"`
}

// Load reads configuration from the file at path, or from a config.yaml
// discovered in the working directory when path is empty. Environment
// variables prefixed DIAGRAMFLOW_ override file values (nested keys use
// underscores, e.g. DIAGRAMFLOW_CACHE_DIR). A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DIAGRAMFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A discovered config is optional; an explicit path must exist.
		var notFound viper.ConfigFileNotFoundError
		if !(path == "" && errors.As(err, &notFound)) {
			return nil, fmt.Errorf("config: read %q: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := expandSecrets(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every mapped key. AutomaticEnv only surfaces
// variables for keys viper knows about, so defaultless keys get an empty
// default to stay overridable from the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.memory_ttl", time.Duration(0))
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("renderer.kind", RendererCLI)
	v.SetDefault("renderer.command", "mmdc")
	v.SetDefault("renderer.url", "")
	v.SetDefault("renderer.signing_key", "")
	v.SetDefault("renderer.timeout", 30*time.Second)

	v.SetDefault("observe.service_name", "diagramflow")
	v.SetDefault("observe.version", "")
	v.SetDefault("observe.log_level", "info")
	v.SetDefault("observe.trace_exporter", "none")
	v.SetDefault("observe.metric_exporter", "none")
	v.SetDefault("observe.endpoint", "")
	v.SetDefault("observe.sample_pct", 100.0)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Renderer.Kind {
	case RendererCLI, RendererHTTP:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRendererKind, c.Renderer.Kind)
	}
	if c.Renderer.Kind == RendererHTTP && c.Renderer.URL == "" {
		return errors.New("config: renderer.url required for http renderer")
	}
	return nil
}

// expandSecrets resolves ${VAR} references in secret-bearing fields so
// credentials can live in the environment rather than on disk.
func expandSecrets(cfg *Config) error {
	fields := []*string{&cfg.Cache.Redis.Password, &cfg.Renderer.SigningKey}
	for _, f := range fields {
		expanded, err := expandEnvStrict(*f)
		if err != nil {
			return err
		}
		*f = expanded
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvStrict expands ${VAR} references in s, erroring when any
// referenced variable is unset. `$$` emits a literal `$`.
func expandEnvStrict(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	const dollarSentinel = "\x00DIAGRAMFLOW_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnvVar, strings.Join(keys, ", "))
	}

	s = envVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
