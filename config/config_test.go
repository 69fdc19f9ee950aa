package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"

	"github.com/dewv/nlc-visits/internal/adapters/authroles"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

func TestAuthMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		input       string
		expected    AuthMode
		expectError bool
	}{
		{input: "ldap", expected: AuthModeLDAP},
		{input: " Simulated ", expected: AuthModeSimulated},
		{input: "oauth", expectError: true},
		{input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var mode AuthMode
			err := mode.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mode != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, mode)
			}
		})
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Mode != AuthModeLDAP {
		t.Errorf("expected ldap mode by default, got %q", cfg.Auth.Mode)
	}
	if cfg.Auth.DomainSuffix != "@dewv.edu" {
		t.Errorf("unexpected domain suffix %q", cfg.Auth.DomainSuffix)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour {
		t.Errorf("unexpected session TTL %v", cfg.Auth.SessionTTL)
	}
	if !reflect.DeepEqual(cfg.Auth.Directory.Roles, authroles.DefaultDNRules()) {
		t.Errorf("expected default DN rules, got %v", cfg.Auth.Directory.Roles)
	}
	wantAliases := map[string]string{
		"givenName":         "firstName",
		"sn":                "lastName",
		"userPrincipalName": "identifier",
	}
	if !reflect.DeepEqual(cfg.Auth.Directory.Aliases, wantAliases) {
		t.Errorf("unexpected aliases %v", cfg.Auth.Directory.Aliases)
	}
	if cfg.Visit.EstimateCeiling != 8*time.Hour {
		t.Errorf("unexpected estimate ceiling %v", cfg.Visit.EstimateCeiling)
	}
	if !cfg.HTTP.CSRF {
		t.Errorf("expected CSRF on by default")
	}
	if cfg.Postgres.Name != "nlc" || cfg.Postgres.Port != 5432 {
		t.Errorf("unexpected postgres config %+v", cfg.Postgres)
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "simulated")
	t.Setenv("AUTH_DOMAIN_SUFFIX", "@example.edu")
	t.Setenv("AUTH_SESSION_TTL", "30m")
	t.Setenv("LDAP_URL", "ldaps://dc1.example.edu")
	t.Setenv("LDAP_TIMEOUT", "3s")
	t.Setenv("LDAP_SEARCH_BASE_DN", "DC=example,DC=edu")
	t.Setenv("LDAP_SEARCH_FILTER", "(sAMAccountName=%s)")
	t.Setenv("LDAP_ATTRIBUTES", "givenName,sn")
	t.Setenv("LDAP_ALIASES", "givenName:firstName,sn:lastName")
	t.Setenv("LDAP_ROLES", "OU=Staff=staff;OU=Student Workers=student")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode:         AuthModeSimulated,
		DomainSuffix: "@example.edu",
		SessionTTL:   30 * time.Minute,
		Directory: DirectoryConfig{
			URL:          "ldaps://dc1.example.edu",
			Timeout:      3 * time.Second,
			SearchBaseDN: "DC=example,DC=edu",
			SearchFilter: "(sAMAccountName=%s)",
			Attributes:   []string{"givenName", "sn"},
			Aliases:      map[string]string{"givenName": "firstName", "sn": "lastName"},
			Roles: authroles.DNRules{
				{Contains: "OU=Staff", Role: domainauth.RoleStaff},
				{Contains: "OU=Student Workers", Role: domainauth.RoleStudent},
			},
		},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAppConfig_RejectsBadRoleRules(t *testing.T) {
	t.Setenv("LDAP_ROLES", "OU=Staff=admin")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatalf("expected an error for an unknown role")
	}
}

func TestAuthConfig_Sanitize(t *testing.T) {
	cfg := AuthConfig{DomainSuffix: "  ", SessionTTL: time.Second}
	cfg.Sanitize()

	if cfg.DomainSuffix != domainauth.DefaultDomainSuffix {
		t.Errorf("expected default suffix, got %q", cfg.DomainSuffix)
	}
	if cfg.SessionTTL != time.Minute {
		t.Errorf("expected TTL clamped to a minute, got %v", cfg.SessionTTL)
	}
	if cfg.Directory.Timeout != 10*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Directory.Timeout)
	}
	if len(cfg.Directory.Roles) == 0 {
		t.Errorf("expected default DN rules")
	}
}

func TestAppConfig_DetectDevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Fatalf("expected NODE_ENV=development to enable dev mode")
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{ReadHeaderTimeout: -1}
	cfg.Sanitize()
	if cfg.ReadHeaderTimeout != 10*time.Second || cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("expected default timeouts, got %+v", cfg)
	}
}
