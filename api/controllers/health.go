package controllers

import (
	"net/http"

	"github.com/lmdelacruz/evride-storefront/api/responses"
	"github.com/lmdelacruz/evride-storefront/pkg/config"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
	"github.com/lmdelacruz/evride-storefront/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Evride-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the optional Redis dependency. The commerce backend is
// deliberately not probed: the gateway stays ready while the backend flaps,
// and per-request errors report backend trouble instead.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisClient redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Evride-Env", cfg.App.Env)

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
