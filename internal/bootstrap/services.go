package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dewv/nlc-visits/config"
	redisadapter "github.com/dewv/nlc-visits/internal/adapters/redis"
	"github.com/dewv/nlc-visits/internal/data"
	"github.com/dewv/nlc-visits/internal/observability/statsd"
	"github.com/dewv/nlc-visits/internal/ports"
	"github.com/dewv/nlc-visits/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions *service.AuthService
	Login    *service.LoginService
	Authz    *service.AuthorizationService
	Visits   *service.VisitService
	Profiles *service.ProfileService

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// sink returns the metrics sink as an interface, nil when metrics are off.
//
//nolint:ireturn // services accept the statsd.Sink interface.
func (o ObservabilityContainer) sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups the adapters backing service ports.
type serviceRepositories struct {
	Sessions ports.SessionStore
	Profiles ports.ProfileRepository
	Security ports.SecurityRepository
	Visits   ports.VisitRepository
}

// buildObservability configures the StatsD client when metrics are enabled.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Tags:    map[string]string{"service": "nlcvisits"},
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, client redis.UniversalClient, prefix string) serviceRepositories {
	return serviceRepositories{
		Sessions: redisadapter.NewSessionStoreWithPrefix(client, prefix),
		Profiles: data.NewProfileRepo(db),
		Security: data.NewSecurityRepo(db),
		Visits:   data.NewVisitRepo(db),
	}
}

// domainServicesOptions carries everything buildDomainServices wires together.
type domainServicesOptions struct {
	Config        *config.AppConfig
	Repos         serviceRepositories
	Authenticator *service.CredentialAuthenticator
	Observability ObservabilityContainer
	Logger        *slog.Logger
}

// buildDomainServices wires services from already-built adapters.
func buildDomainServices(opts domainServicesOptions) ServiceContainer {
	cfg := opts.Config
	logger := opts.Logger
	sink := opts.Observability.sink()

	sessions := service.NewAuthService(service.AuthServiceOptions{
		Sessions: opts.Repos.Sessions,
		Profiles: opts.Repos.Profiles,
		Config: service.AuthServiceConfig{
			SessionTTL: cfg.Auth.SessionTTL,
			Logger:     logger,
		},
	})
	fallback := service.NewFallbackService(service.FallbackServiceOptions{
		Profiles: opts.Repos.Profiles,
		Security: opts.Repos.Security,
		Logger:   logger,
	})

	return ServiceContainer{
		Sessions: sessions,
		Login: service.NewLoginService(service.LoginServiceOptions{
			Authenticator: opts.Authenticator,
			Fallback:      fallback,
			Sessions:      sessions,
		}),
		Authz: service.NewAuthorizationService(service.AuthorizationServiceOptions{
			Profiles: opts.Repos.Profiles,
			Visits:   opts.Repos.Visits,
			Logger:   logger,
		}),
		Visits: service.NewVisitService(service.VisitServiceOptions{
			Visits:  opts.Repos.Visits,
			Metrics: sink,
			Config: service.VisitServiceConfig{
				EstimateCeiling: cfg.Visit.EstimateCeiling,
				Logger:          logger,
			},
		}),
		Profiles: service.NewProfileService(service.ProfileServiceOptions{
			Profiles: opts.Repos.Profiles,
			Security: opts.Repos.Security,
			Logger:   logger,
		}),
		Observability: opts.Observability,
	}
}

// NewServices builds every application service on top of Postgres and Redis.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil || deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("database and redis are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, deps.Config.Observability)
	authn, err := BuildAuthenticator(AuthenticatorConfig{
		Auth:    deps.Config.Auth,
		Metrics: obs.sink(),
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build authenticator: %w", err)
	}

	return buildDomainServices(domainServicesOptions{
		Config:        deps.Config,
		Repos:         buildRepositories(deps.DB, deps.RedisClient, deps.Config.Redis.KeyPrefix),
		Authenticator: authn,
		Observability: obs,
		Logger:        logger,
	}), nil
}
