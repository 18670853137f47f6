// Package exports renders boards to downloadable PNG and PDF files.
package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"moodboard/core"
	"moodboard/export"
	"moodboard/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func HandlePNG(store core.MoodboardStore, renderer *export.Renderer) http.HandlerFunc {
	return handleExport(store, "png", "image/png", renderer.RenderPNG)
}

func HandlePDF(store core.MoodboardStore, renderer *export.Renderer) http.HandlerFunc {
	return handleExport(store, "pdf", "application/pdf", renderer.RenderPDF)
}

func handleExport(store core.MoodboardStore, ext, contentType string, renderFn func(ctx context.Context, board core.Moodboard, w io.Writer) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFrom(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		id := chi.URLParam(r, "id")
		board, err := store.Get(r.Context(), claims.Subject, id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Moodboard not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"userID":  claims.Subject,
				"boardID": id,
			}).Error("Failed to get moodboard for export")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to get moodboard"})
			return
		}

		// Render to a buffer first so a failure can still produce a
		// clean error response.
		var buf bytes.Buffer
		if err := renderFn(r.Context(), *board, &buf); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"boardID": id,
				"format":  ext,
			}).Error("Failed to render moodboard export")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to render export"})
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", export.Filename(board.Title, ext)))
		w.Write(buf.Bytes())
	}
}
