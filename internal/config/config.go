package config

import (
	"errors"
	"exchangestats/internal/crawl"
	"exchangestats/internal/sink"
	"exchangestats/lib/configutil"
	configlibsql "exchangestats/lib/configutil/libsql"
	"exchangestats/lib/scrapers/bitdegree"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
)

const DefaultPath = "exchangestats.json5"

type ExchangeConfig struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Pages int    `json:"pages"`
	// names used by the prefixed output format
	LegacyKey          string `json:"legacy_key"`
	LegacyPrefix       string `json:"legacy_prefix"`
	LegacyMarketsField string `json:"legacy_markets_field"`
}

type HttpConfig struct {
	UserAgent         string  `json:"user_agent"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	RetryCount        int     `json:"retry_count"`
	RetryWaitMs       int     `json:"retry_wait_ms"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
}

type OutputConfig struct {
	// Format is one of jsonl, prefixed or table.
	Format string `json:"format"`
	// File is written to instead of stdout if set.
	File string `json:"file"`
	// Markets renders the market rows of every exchange in the table format.
	Markets bool `json:"markets"`
}

type S3Config struct {
	Enabled         bool   `json:"enabled"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	PathStyle       bool   `json:"path_style"`
	Prefix          string `json:"prefix"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

type Config struct {
	BaseUrl       string           `json:"base_url"`
	AllowedDomain string           `json:"allowed_domain"`
	Exchanges     []ExchangeConfig `json:"exchanges"`
	// OnFetchFailure is one of drop, emit_partial or skip_exchange.
	OnFetchFailure string              `json:"on_fetch_failure"`
	Http           HttpConfig          `json:"http"`
	Output         OutputConfig        `json:"output"`
	Database       configlibsql.Struct `json:"database"`
	S3             S3Config            `json:"s3"`
	// DumpHttp is a directory full http messages are written to when debug
	// logging is enabled.
	DumpHttp string `json:"dump_http"`
}

func Default() Config {
	legacy := sink.DefaultLegacyNames()
	var exchanges []ExchangeConfig
	for _, e := range crawl.DefaultPlan() {
		name := legacy[e.Key]
		exchanges = append(exchanges, ExchangeConfig{
			Key:                e.Key,
			Name:               e.Name,
			Slug:               e.Slug,
			Pages:              e.Pages,
			LegacyKey:          name.Key,
			LegacyPrefix:       name.Prefix,
			LegacyMarketsField: name.MarketsField,
		})
	}

	return Config{
		BaseUrl:        "https://www.bitdegree.org",
		AllowedDomain:  "bitdegree.org",
		Exchanges:      exchanges,
		OnFetchFailure: crawl.DROP_EXCHANGE.String(),
		Http: HttpConfig{
			UserAgent:         bitdegree.DefaultUserAgent,
			TimeoutSeconds:    30,
			RequestsPerSecond: 1,
			Burst:             1,
			RetryCount:        2,
			RetryWaitMs:       500,
		},
		Output: OutputConfig{
			Format: sink.FORMAT_JSONL.String(),
		},
	}
}

// Load reads the config at `path` (along with its .local override), fills in
// defaults, applies environment overrides and validates the result. A missing
// file is the same as an empty one.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err = configutil.WithDefaults(cfg, Default())
	if err != nil {
		return Config{}, err
	}
	cfg.applyEnv()

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("EXCHANGESTATS_DB_URL"); v != "" {
		c.Database.Url = strings.TrimSpace(v)
	}
	if v := os.Getenv("EXCHANGESTATS_DB_AUTH_TOKEN"); v != "" {
		c.Database.AuthToken = strings.TrimSpace(v)
	}
	if c.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			c.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			c.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			c.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			c.S3.Bucket = strings.TrimSpace(v)
		}
	}
	c.S3.Bucket = strings.TrimSpace(c.S3.Bucket)
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func (c Config) Validate() error {
	base, err := url.Parse(c.BaseUrl)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return fmt.Errorf("base_url %q must be http or https", c.BaseUrl)
	}
	if !bitdegree.HostAllowed(base.Hostname(), c.AllowedDomain) {
		return fmt.Errorf("base_url %q is outside of allowed_domain %q", c.BaseUrl, c.AllowedDomain)
	}

	err = crawl.ValidatePlan(c.Plan())
	if err != nil {
		return fmt.Errorf("exchanges: %w", err)
	}
	_, err = c.FailurePolicy()
	if err != nil {
		return err
	}
	_, err = c.Format()
	if err != nil {
		return err
	}
	if c.Http.RequestsPerSecond < 0 {
		return fmt.Errorf("http.requests_per_second must not be negative")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when s3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("s3.region is required when s3 is enabled")
		}
		if !s3BucketRegexp.MatchString(c.S3.Bucket) {
			return fmt.Errorf("s3.bucket '%s' is invalid", c.S3.Bucket)
		}
	}
	return nil
}

func (c Config) Plan() []crawl.Exchange {
	plan := make([]crawl.Exchange, len(c.Exchanges))
	for i, e := range c.Exchanges {
		name := e.Name
		if name == "" {
			name = e.Key
		}
		plan[i] = crawl.Exchange{
			Key:   e.Key,
			Name:  name,
			Slug:  e.Slug,
			Pages: e.Pages,
		}
	}
	return plan
}

func (c Config) LegacyNames() map[string]sink.LegacyName {
	names := map[string]sink.LegacyName{}
	for _, e := range c.Exchanges {
		names[e.Key] = sink.LegacyName{
			Key:          e.LegacyKey,
			Prefix:       e.LegacyPrefix,
			MarketsField: e.LegacyMarketsField,
		}
	}
	return names
}

func (c Config) FailurePolicy() (crawl.FailurePolicy, error) {
	return crawl.ParseFailurePolicy(c.OnFetchFailure)
}

func (c Config) Format() (sink.Format, error) {
	return sink.ParseFormat(c.Output.Format)
}

func (c Config) Site() bitdegree.Site {
	return bitdegree.Site{BaseUrl: c.BaseUrl}
}

func (c Config) ClientOptions() bitdegree.ClientOptions {
	return bitdegree.ClientOptions{
		BaseUrl:           c.BaseUrl,
		AllowedDomain:     c.AllowedDomain,
		UserAgent:         c.Http.UserAgent,
		Timeout:           time.Duration(c.Http.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.Http.RequestsPerSecond,
		Burst:             c.Http.Burst,
		RetryCount:        c.Http.RetryCount,
		RetryWait:         time.Duration(c.Http.RetryWaitMs) * time.Millisecond,
		CloudflareBypass:  c.Http.CloudflareBypass,
	}
}

func (c Config) S3Options() sink.S3Options {
	return sink.S3Options{
		Bucket:          c.S3.Bucket,
		Region:          c.S3.Region,
		Endpoint:        c.S3.Endpoint,
		PathStyle:       c.S3.PathStyle,
		Prefix:          c.S3.Prefix,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
	}
}
