package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// LinkVerifier checks a download token against the document it was issued for.
type LinkVerifier interface {
	Verify(token, key string) error
}

// DocumentKey builds the store key from the {folder} and {name} route parameters.
func DocumentKey(r *http.Request) string {
	return chi.URLParam(r, "folder") + "/" + chi.URLParam(r, "name")
}

// DownloadToken admits requests carrying a valid token for the document named by the
// route, either as ?token= or as a Bearer Authorization header.
func DownloadToken(v LinkVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := DocumentKey(r)
			token := r.URL.Query().Get("token")
			if token == "" {
				parts := strings.Split(r.Header.Get("Authorization"), " ")
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}

			if token == "" {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, map[string]string{"error": "Download token is required"})
				return
			}
			if err := v.Verify(token, key); err != nil {
				logrus.WithField("key", key).WithError(err).Warn("Rejected download link")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, map[string]string{"error": "Invalid or expired download link"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
