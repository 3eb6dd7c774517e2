package config

import "fmt"

func validateConfig(c *Config) error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if c.Gateway.MaxPageSize <= 0 {
		return fmt.Errorf("gateway.max_page_size must be positive")
	}
	if c.Gateway.DefaultPageSize <= 0 || c.Gateway.DefaultPageSize > c.Gateway.MaxPageSize {
		return fmt.Errorf("gateway.default_page_size must be within (0, max_page_size]")
	}
	if c.Gateway.QueryTimeout <= 0 {
		return fmt.Errorf("gateway.query_timeout must be positive")
	}

	if c.Tenancy.ResolveTimeout <= 0 {
		return fmt.Errorf("tenancy.resolve_timeout must be positive")
	}
	if c.Tenancy.TenantHeader == "" {
		return fmt.Errorf("tenancy.tenant_header is required")
	}

	if c.Audit.WriteTimeout <= 0 {
		return fmt.Errorf("audit.write_timeout must be positive")
	}
	if c.Audit.AllowSampleRate < 0 {
		return fmt.Errorf("audit.allow_sample_rate cannot be negative")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive when enabled")
	}

	if c.Environment == "production" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}

	return nil
}
