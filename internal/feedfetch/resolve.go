package feedfetch

import (
	"context"
	"net/http"
	"time"

	"pulsek12.com/pulse/internal/textnorm"
)

const resolveTimeout = 8 * time.Second

// Resolver follows aggregator redirects to publisher URLs.
type Resolver struct {
	httpClient *http.Client
}

func NewResolver() *Resolver {
	return &Resolver{
		httpClient: &http.Client{
			Timeout: resolveTimeout,
			// Follow redirects; the final request URL is the answer.
		},
	}
}

// Resolve follows a discovery-feed redirect (news.google.com links) to
// the publisher URL via a HEAD request. On any failure the original URL
// is returned with resolved=false so the caller can decide to skip it.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (finalURL string, resolved bool) {
	if !textnorm.IsGoogleNewsURL(rawURL) {
		return rawURL, true
	}

	resolveCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(resolveCtx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL, false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return rawURL, false
	}
	defer func() { _ = resp.Body.Close() }()

	final := resp.Request.URL.String()
	if textnorm.IsGoogleNewsURL(final) {
		return rawURL, false
	}
	return final, true
}
