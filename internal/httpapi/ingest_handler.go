package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const ingestSecretHeader = "x-ingest-secret"

// handleIngest triggers one synchronous pipeline run. GET is accepted
// alongside POST so bare cron schedulers can call it.
func (s *Server) handleIngest(c echo.Context) error {
	if !s.authorized(c.Request()) {
		return failUnauthorized(c)
	}
	if s.runner == nil {
		return internalError(c, "Ingest is not configured")
	}

	counters, err := s.runner.Run(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("triggered ingest run failed")
		return internalError(c, "Ingest run failed")
	}

	return success(c, map[string]any{
		"counters": counters,
	})
}

// authorized checks the shared-secret header or a bearer token against
// the configured ingest and cron secrets. With neither secret configured
// the endpoint is disabled.
func (s *Server) authorized(r *http.Request) bool {
	presented := strings.TrimSpace(r.Header.Get(ingestSecretHeader))
	if presented == "" {
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
			presented = strings.TrimSpace(rest)
		}
	}
	if presented == "" {
		return false
	}

	for _, secret := range []string{s.cfg.IngestSecret, s.cfg.CronSecret} {
		if secret == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1 {
			return true
		}
	}
	return false
}

// requireSecret guards the admin routes with the same shared secrets as
// the ingest trigger.
func (s *Server) requireSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.authorized(c.Request()) {
			return failUnauthorized(c)
		}
		return next(c)
	}
}
