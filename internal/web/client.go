package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ClientCookie identifies a browser across visits. Preferences and result
// history are keyed by it.
const ClientCookie = "skapsec_client"

type clientKey struct{}

// identify attaches the client ID to the request context, issuing a new
// cookie when the browser has none or an invalid one.
func (w *Web) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(ClientCookie); err == nil {
			if u, err := uuid.Parse(c.Value); err == nil {
				id = u.String()
			}
		}
		if id == "" {
			id = uuid.New().String()
			http.SetCookie(rw, &http.Cookie{
				Name:     ClientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), clientKey{}, id)))
	})
}

// clientID returns the ID set by identify.
func clientID(r *http.Request) string {
	id, _ := r.Context().Value(clientKey{}).(string)
	return id
}

// origin returns the scheme and host used in share links.
func (w *Web) origin(r *http.Request) string {
	if w.opts.PublicOrigin != "" {
		return w.opts.PublicOrigin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
