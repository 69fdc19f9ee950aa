package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dewv/nlc-visits/config"
	"github.com/dewv/nlc-visits/internal/adapters/devauth"
	"github.com/dewv/nlc-visits/internal/adapters/ldapdir"
	"github.com/dewv/nlc-visits/internal/observability/statsd"
	"github.com/dewv/nlc-visits/internal/service"
)

// AuthenticatorConfig contains configuration for the credential authenticator.
type AuthenticatorConfig struct {
	Auth    config.AuthConfig
	Metrics statsd.Sink
	Logger  *slog.Logger
	// Dial replaces the directory dialer; tests use it to avoid the network.
	Dial ldapdir.DialFunc
}

// BuildAuthenticator picks the directory or the simulator from the auth mode.
func BuildAuthenticator(cfg AuthenticatorConfig) (*service.CredentialAuthenticator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := service.CredentialAuthenticatorOptions{
		Config: service.CredentialAuthenticatorConfig{
			DomainSuffix: cfg.Auth.DomainSuffix,
			Metrics:      cfg.Metrics,
			Logger:       logger,
		},
	}

	switch cfg.Auth.Mode {
	case config.AuthModeLDAP:
		d := cfg.Auth.Directory
		client, err := ldapdir.NewClient(ldapdir.ClientOptions{
			Config: ldapdir.Config{
				URL:                d.URL,
				Timeout:            d.Timeout,
				InsecureSkipVerify: d.InsecureSkipVerify,
				SearchBaseDN:       d.SearchBaseDN,
				SearchFilter:       d.SearchFilter,
				Attributes:         d.Attributes,
				Aliases:            d.Aliases,
				Roles:              d.Roles,
			},
			Dial:   cfg.Dial,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build directory client: %w", err)
		}
		opts.Directory = client
		logger.Info("authenticating against directory", "url", d.URL, "base_dn", d.SearchBaseDN, "roles", d.Roles.String())

	case config.AuthModeSimulated:
		opts.Simulator = devauth.NewSimulator(logger)
		logger.Warn("simulated authentication enabled; do not use in production")

	default:
		return nil, errors.New("unsupported auth mode: " + string(cfg.Auth.Mode))
	}

	return service.NewCredentialAuthenticator(opts), nil
}
