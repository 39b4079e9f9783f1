package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	readinessTimeout = 2 * time.Second
	envHeader        = "X-Storefront-Env"
)

// Pinger is anything the readiness probe can reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

type probe struct {
	name, state string
	err         error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency concurrently under one deadline.
// A nil entry is an optional collaborator that is not configured.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		p := pool.NewWithResults[probe]()
		for _, name := range names {
			dep := deps[name]
			p.Go(func() probe {
				if dep == nil {
					return probe{name: name, state: "skipped"}
				}
				if err := dep.Ping(ctx); err != nil {
					return probe{name: name, state: "down", err: err}
				}
				return probe{name: name, state: "up"}
			})
		}

		checks := make(map[string]string, len(names))
		healthy := true
		for _, res := range p.Wait() {
			checks[res.name] = res.state
			if res.err == nil {
				continue
			}
			healthy = false
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": res.name, "error": res.err.Error()}), "health.dependency_down")
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
