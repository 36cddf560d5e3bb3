package controllers

import (
	"net/http"

	"github.com/pontodigital/pdv-backend/api/responses"
	"github.com/pontodigital/pdv-backend/pkg/config"
	"github.com/pontodigital/pdv-backend/pkg/db"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/pontodigital/pdv-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PDV-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the datasources before reporting ready.
func HealthReady(cfg *config.Config, dbPinger db.Pinger, redisPinger redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PDV-Env", cfg.App.Env)

		if dbPinger != nil {
			if err := dbPinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisPinger != nil {
			if err := redisPinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
