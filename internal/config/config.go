package config

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Tenancy   TenancyConfig   `mapstructure:"tenancy" yaml:"tenancy"`
	Gateway   GatewayConfig   `mapstructure:"gateway" yaml:"gateway"`
	Audit     AuditConfig     `mapstructure:"audit" yaml:"audit"`
	Policy    PolicyConfig    `mapstructure:"policy" yaml:"policy"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
}

// DatabaseConfig points at the Postgres instance that holds the tenant
// directory, domain data tables, and the audit log.
type DatabaseConfig struct {
	DSN             string `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"` // seconds
}

type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr     string `mapstructure:"addr" yaml:"addr"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Password string `mapstructure:"password" yaml:"password"`
	TTL      int    `mapstructure:"ttl" yaml:"ttl"` // seconds
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	SessionTTL int    `mapstructure:"session_ttl" yaml:"session_ttl"` // seconds
}

// TenancyConfig controls how requests are mapped to tenants.
type TenancyConfig struct {
	// BaseDomain is the shared suffix for tenant subdomains, e.g.
	// "campus.example.com" makes "school-a.campus.example.com" resolve
	// to the tenant with subdomain "school-a".
	BaseDomain string `mapstructure:"base_domain" yaml:"base_domain"`
	// TenantHeader carries an explicit tenant id. It is honored only
	// when the request also carries a valid internal service token.
	TenantHeader string `mapstructure:"tenant_header" yaml:"tenant_header"`
	// InternalHeader / InternalToken authenticate internal callers that
	// are allowed to use the explicit tenant header.
	InternalHeader string `mapstructure:"internal_header" yaml:"internal_header"`
	InternalToken  string `mapstructure:"internal_token" yaml:"internal_token"`
	// ResolveTimeout bounds directory lookups, in milliseconds.
	ResolveTimeout int `mapstructure:"resolve_timeout" yaml:"resolve_timeout"`
	// DirectoryCacheTTL is the read-through cache TTL, in seconds.
	DirectoryCacheTTL int `mapstructure:"directory_cache_ttl" yaml:"directory_cache_ttl"`
}

type GatewayConfig struct {
	// MaxPageSize caps every result set; requests asking for more get
	// clamped, requests asking for nothing get the default.
	MaxPageSize     int `mapstructure:"max_page_size" yaml:"max_page_size"`
	DefaultPageSize int `mapstructure:"default_page_size" yaml:"default_page_size"`
	// QueryTimeout bounds store calls, in milliseconds.
	QueryTimeout int `mapstructure:"query_timeout" yaml:"query_timeout"`
}

type AuditConfig struct {
	// AllowSampleRate keeps one in N allowed decisions; denials are
	// always written. Zero disables allow sampling entirely.
	AllowSampleRate int `mapstructure:"allow_sample_rate" yaml:"allow_sample_rate"`
	// RepeatWindow / RepeatThreshold flag principals that accumulate
	// repeated denials, in seconds and count.
	RepeatWindow    int `mapstructure:"repeat_window" yaml:"repeat_window"`
	RepeatThreshold int `mapstructure:"repeat_threshold" yaml:"repeat_threshold"`
	// WriteTimeout bounds synchronous denial writes, in milliseconds.
	WriteTimeout int `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type PolicyConfig struct {
	// RulesPath optionally overrides the built-in role rule table with
	// a YAML file; the file is watched and hot-reloaded.
	RulesPath string `mapstructure:"rules_path" yaml:"rules_path"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" yaml:"service_name"`
}
