// Package uploads turns multipart image batches into placed image items.
package uploads

import (
	"errors"
	"io"
	"net/http"

	"moodboard/core"
	"moodboard/ingest"
	"moodboard/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// maxUploadBytes bounds a whole multipart batch.
const maxUploadBytes = 32 << 20

type uploadResponse struct {
	Items  []core.ImageItem `json:"items"`
	Failed []string         `json:"failed,omitempty"`
}

func HandleUpload(ing *ingest.Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFrom(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid multipart request"})
			return
		}

		var files []ingest.File
		for _, headers := range r.MultipartForm.File {
			for _, header := range headers {
				f, err := header.Open()
				if err != nil {
					logrus.WithError(err).Warnf("Skipping unreadable upload part %s", header.Filename)
					continue
				}
				defer f.Close()
				files = append(files, ingest.File{
					Name:        header.Filename,
					ContentType: header.Header.Get("Content-Type"),
					Data:        f,
				})
			}
		}

		items, fileErrs, err := ing.ProcessBatch(r.Context(), claims.Subject, files)
		if err != nil {
			if errors.Is(err, ingest.ErrNoImages) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, map[string]string{"error": "No image files in upload"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
			}).Error("Failed to process upload batch")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to process upload"})
			return
		}

		resp := uploadResponse{Items: items}
		for _, fe := range fileErrs {
			logrus.WithError(fe.Err).Warnf("Upload failed for %s", fe.Name)
			resp.Failed = append(resp.Failed, fe.Name)
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, resp)
	}
}

// HandleServe streams stored blobs for blob stores that keep files in
// this process. URLs are public on purpose: image src values must work
// on shared boards without auth.
func HandleServe(blobs core.BlobReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		filename := chi.URLParam(r, "filename")

		rc, contentType, err := blobs.Open(r.Context(), userID, filename)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			logrus.WithError(err).Warnf("Failed to open blob %s/%s", userID, filename)
			http.Error(w, "Failed to open file", http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		io.Copy(w, rc)
	}
}
