package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dewv/nlc-visits/internal/adapters/authroles"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeLDAP authenticates against the campus directory.
	AuthModeLDAP AuthMode = "ldap"
	// AuthModeSimulated uses the built-in simulator (for development only).
	AuthModeSimulated AuthMode = "simulated"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "ldap", "simulated":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: ldap, simulated)", v)
	}
}

// DirectoryConfig describes the LDAP server and how to read user entries.
type DirectoryConfig struct {
	// URL is ldap://host[:port] or ldaps://host[:port].
	URL                string        `env:"URL"`
	Timeout            time.Duration `env:"TIMEOUT"              envDefault:"10s"`
	InsecureSkipVerify bool          `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
	SearchBaseDN       string        `env:"SEARCH_BASE_DN"       envDefault:"DC=dewv,DC=edu"`
	// SearchFilter is a fmt template receiving the escaped identifier.
	SearchFilter string   `env:"SEARCH_FILTER" envDefault:"(userPrincipalName=%s)"`
	Attributes   []string `env:"ATTRIBUTES"    envDefault:"givenName,sn,userPrincipalName"`
	// Aliases renames attributes, as attr:alias pairs.
	Aliases map[string]string `env:"ALIASES" envDefault:"givenName:firstName,sn:lastName,userPrincipalName:identifier"`
	// Roles is an ordered list of substring=role pairs; the last match wins.
	Roles authroles.DNRules `env:"ROLES"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication backend to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"ldap"`

	// DomainSuffix is appended to bare login names.
	DomainSuffix string `env:"AUTH_DOMAIN_SUFFIX" envDefault:"@dewv.edu"`

	// SessionTTL bounds how long a login lasts.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"2h"`

	// Directory configuration (used when Mode=ldap).
	Directory DirectoryConfig `envPrefix:"LDAP_"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	a.DomainSuffix = strings.TrimSpace(a.DomainSuffix)
	if a.DomainSuffix == "" {
		a.DomainSuffix = domainauth.DefaultDomainSuffix
	}
	if a.SessionTTL < time.Minute {
		a.SessionTTL = time.Minute
	}
	d := &a.Directory
	d.URL = strings.TrimSpace(d.URL)
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}
	if len(d.Roles) == 0 {
		d.Roles = authroles.DefaultDNRules()
	}
}
