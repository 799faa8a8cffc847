package documents

import (
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cardaverse-ai/cardaverse-customcard/middleware"
	"github.com/sirupsen/logrus"
)

// HandleGet serves a stored card. The download token is checked by middleware.DownloadToken.
func HandleGet(store core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := middleware.DocumentKey(r)
		if err := core.ValidateKey(key); err != nil {
			http.Error(w, "Invalid document key", http.StatusBadRequest)
			return
		}

		doc, err := store.FindKey(r.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				http.Error(w, "Document not found", http.StatusNotFound)
				return
			}
			logrus.WithField("key", key).WithError(err).Error("Failed to load document")
			http.Error(w, "Failed to load document", http.StatusInternalServerError)
			return
		}

		contentType := doc.ContentType
		if contentType == "" {
			contentType = core.ContentTypePDF
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(doc.Data.Len()))
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
		w.Header().Set("Cache-Control", "private, no-store")
		if _, err := w.Write(doc.Data.Bytes()); err != nil {
			logrus.WithField("key", key).WithError(err).Warn("Failed to write document")
		}
	}
}
