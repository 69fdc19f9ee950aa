package bootstrap

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dewv/nlc-visits/config"
	"github.com/dewv/nlc-visits/internal/adapters/authroles"
	"github.com/dewv/nlc-visits/internal/mocks"
	mockauth "github.com/dewv/nlc-visits/internal/mocks/auth"
	"github.com/dewv/nlc-visits/internal/service"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AppConfig
		wantErr bool
	}{
		{
			name: "ldap with url",
			cfg:  config.AppConfig{Auth: config.AuthConfig{Mode: config.AuthModeLDAP, Directory: config.DirectoryConfig{URL: "ldaps://dc.dewv.edu"}}},
		},
		{
			name:    "ldap without url",
			cfg:     config.AppConfig{Auth: config.AuthConfig{Mode: config.AuthModeLDAP}},
			wantErr: true,
		},
		{
			name: "simulated in dev",
			cfg:  config.AppConfig{IsDev: true, Auth: config.AuthConfig{Mode: config.AuthModeSimulated}},
		},
		{
			name:    "simulated outside dev",
			cfg:     config.AppConfig{Auth: config.AuthConfig{Mode: config.AuthModeSimulated}},
			wantErr: true,
		},
		{
			name:    "unknown mode",
			cfg:     config.AppConfig{Auth: config.AuthConfig{Mode: "oauth"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuildAuthenticator(t *testing.T) {
	t.Run("simulated", func(t *testing.T) {
		a, err := BuildAuthenticator(AuthenticatorConfig{
			Auth:   config.AuthConfig{Mode: config.AuthModeSimulated},
			Logger: quietLogger(),
		})
		require.NoError(t, err)
		assert.Equal(t, service.MethodSimulated, a.Method())
	})

	t.Run("ldap", func(t *testing.T) {
		a, err := BuildAuthenticator(AuthenticatorConfig{
			Auth: config.AuthConfig{
				Mode: config.AuthModeLDAP,
				Directory: config.DirectoryConfig{
					URL:          "ldap://dc.dewv.edu",
					SearchBaseDN: "DC=dewv,DC=edu",
					Roles:        authroles.DefaultDNRules(),
				},
			},
			Logger: quietLogger(),
		})
		require.NoError(t, err)
		assert.Equal(t, service.MethodDirectory, a.Method())
	})

	t.Run("ldap without base dn", func(t *testing.T) {
		_, err := BuildAuthenticator(AuthenticatorConfig{
			Auth: config.AuthConfig{
				Mode:      config.AuthModeLDAP,
				Directory: config.DirectoryConfig{URL: "ldap://dc.dewv.edu", Roles: authroles.DefaultDNRules()},
			},
			Logger: quietLogger(),
		})
		assert.Error(t, err)
	})
}

func TestNewServicesRequiresInfrastructure(t *testing.T) {
	_, err := NewServices(&ServiceDeps{Config: &config.AppConfig{}})
	assert.Error(t, err)

	_, err = NewServices(nil)
	assert.Error(t, err)
}

func TestBuildObservabilityDisabled(t *testing.T) {
	obs := buildObservability(quietLogger(), config.ObservabilityConfig{})
	assert.Nil(t, obs.MetricsSink)
	assert.Nil(t, obs.sink(), "a disabled sink must be a nil interface")
}

func TestBuildHTTPHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mockauth.NewMemoryProfileRepository()
	cfg := &config.AppConfig{
		IsDev: true,
		Auth:  config.AuthConfig{Mode: config.AuthModeSimulated, SessionTTL: time.Hour},
		HTTP:  config.HTTPConfig{CSRF: true},
	}
	authn, err := BuildAuthenticator(AuthenticatorConfig{Auth: cfg.Auth, Logger: quietLogger()})
	require.NoError(t, err)

	services := buildDomainServices(domainServicesOptions{
		Config: cfg,
		Repos: serviceRepositories{
			Sessions: mockauth.NewMemorySessionStore(),
			Profiles: profiles,
			Security: mockauth.NewMemorySecurityRepository(profiles),
			Visits:   mocks.NewMockVisitRepository(ctrl),
		},
		Authenticator: authn,
		Logger:        quietLogger(),
	})
	assert.Equal(t, time.Hour, services.Sessions.SessionTTL())

	h, err := BuildHTTPHandler(&HTTPServerConfig{Config: cfg, Services: services, Logger: quietLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="identifier"`)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "csrf_token=", "CSRF is on when configured")
}

func TestShutdownHTTPServerNil(t *testing.T) {
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}
