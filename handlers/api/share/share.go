// Package share serves boards read-only by id, without authentication.
package share

import (
	"errors"
	"net/http"

	"moodboard/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func HandleGet(store core.MoodboardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		board, err := store.FindID(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Moodboard not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"boardID": id,
			}).Error("Failed to look up shared moodboard")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to look up moodboard"})
			return
		}

		render.JSON(w, r, board)
	}
}
