package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/registrylabs/registry-ui-api/config"
	"github.com/registrylabs/registry-ui-api/internal/data"
	"github.com/registrylabs/registry-ui-api/internal/ports"
	"github.com/registrylabs/registry-ui-api/internal/service"
	"github.com/registrylabs/registry-ui-api/internal/session"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Identity *service.IdentityService
	Profile  *service.ProfileService
	Issuer   *session.Issuer
	Store    ports.UserStore
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires the record store, identity provider, token issuer,
// and services from the connected infrastructure.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := buildUserStore(deps)
	if err != nil {
		return ServiceContainer{}, err
	}

	issuer, err := BuildIssuer(deps.Config.Auth.Session)
	if err != nil {
		return ServiceContainer{}, err
	}

	provider, err := BuildIdentityProvider(deps.Config.Auth, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Identity: service.NewIdentityService(service.IdentityServiceOptions{
			Store:    store,
			Provider: provider,
		}),
		Profile: service.NewProfileService(service.ProfileServiceOptions{
			Store: store,
		}),
		Issuer: issuer,
		Store:  store,
	}, nil
}

//nolint:ireturn // the store is consumed through the port.
func buildUserStore(deps *ServiceDeps) (ports.UserStore, error) {
	switch deps.Config.Store.Backend {
	case config.StoreBackendRedis:
		if deps.RedisClient == nil {
			return nil, errors.New("redis store backend selected but redis is not connected")
		}
		return data.NewRedisUserStore(deps.RedisClient), nil
	case config.StoreBackendPostgres:
		if deps.DB == nil {
			return nil, errors.New("postgres store backend selected but database is not connected")
		}
		return data.NewPGUserStore(deps.DB), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", deps.Config.Store.Backend)
	}
}
