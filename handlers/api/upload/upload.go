package upload

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

const (
	MaxUploadSize = 32 << 20
	FormField     = "pdf"
)

type UploadResponse struct {
	FileURL string `json:"file_url"`
}

// HandleUpload stores a PDF rendered by the storefront and returns its public URL.
func HandleUpload(store core.BlobStore, folder string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

		file, header, err := r.FormFile(FormField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				render.Status(r, http.StatusRequestEntityTooLarge)
				render.JSON(w, r, map[string]string{"error": "PDF file is too large"})
				return
			}
			logrus.WithError(err).Warn("No PDF in upload")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "No PDF file uploaded"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil || len(data) == 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "No PDF file uploaded"})
			return
		}

		log := logrus.WithFields(logrus.Fields{
			"filename":    header.Filename,
			"data_length": len(data),
		})

		if err := api.Validate(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
			log.WithError(err).Warn("Uploaded file is not a valid PDF")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Uploaded file is not a valid PDF"})
			return
		}

		name := "card_" + ulid.Make().String()
		url, err := store.Store(r.Context(), data, core.PDFOptions(folder, name))
		if err != nil {
			log.WithError(err).Error("Upload failed")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Upload failed"})
			return
		}

		log.WithField("name", name).Info("PDF uploaded")
		render.JSON(w, r, UploadResponse{FileURL: url})
	}
}
