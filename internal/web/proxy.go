package web

import (
	"encoding/json"
	"net/http"
)

// proxy forwards a form post to the scoring service and relays its status
// and body unchanged.
func (w *Web) proxy(path string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if err := parseForm(r); err != nil {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid form body"})
			return
		}

		status, body, err := w.client.Post(r.Context(), path, r.PostForm)
		if err != nil {
			w.log.WithError(err).WithField("path", path).Error("proxying to scoring service")
			writeJSON(rw, http.StatusBadGateway, map[string]string{"error": "scoring service unavailable"})
			return
		}

		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(status)
		rw.Write(body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
