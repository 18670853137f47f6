// Package moodboards serves the owner-scoped board CRUD surface.
package moodboards

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"moodboard/core"
	"moodboard/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func HandleList(store core.MoodboardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFrom(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		boards, err := store.ListByOwner(r.Context(), claims.Subject)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
			}).Error("Failed to list moodboards")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list moodboards"})
			return
		}
		if boards == nil {
			boards = []*core.Moodboard{}
		}

		render.JSON(w, r, boards)
	}
}

func HandleCreate(store core.MoodboardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFrom(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		// Both fields are optional; defaults fill in what is missing.
		var req struct {
			Title           string `json:"title"`
			BackgroundColor string `json:"background_color"`
		}
		if r.Body != nil {
			// An empty body is fine for create.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		board := core.NewMoodboard(claims.Subject)
		if title := strings.TrimSpace(req.Title); title != "" {
			board.Title = title
		}
		if req.BackgroundColor != "" {
			if !core.ValidHexColor(req.BackgroundColor) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, map[string]string{"error": "Invalid background color"})
				return
			}
			board.BackgroundColor = req.BackgroundColor
		}

		created, err := store.Create(r.Context(), &board)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
			}).Error("Failed to create moodboard")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create moodboard"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, created)
	}
}

func HandleGet(store core.MoodboardStore) http.HandlerFunc {
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
			}).Error("Failed to get moodboard")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to get moodboard"})
			return
		}

		render.JSON(w, r, board)
	}
}

func HandleUpdate(store core.MoodboardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFrom(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		id := chi.URLParam(r, "id")

		var patch core.MoodboardPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}
		patch.Title = strings.TrimSpace(patch.Title)
		if patch.Title == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Title must not be empty"})
			return
		}
		if !core.ValidHexColor(patch.BackgroundColor) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid background color"})
			return
		}
		if patch.Items == nil {
			patch.Items = core.ItemList{}
		}

		if err := store.Update(r.Context(), claims.Subject, id, patch); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Moodboard not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"userID":  claims.Subject,
				"boardID": id,
			}).Error("Failed to update moodboard")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to update moodboard"})
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "saved"})
	}
}

func HandleDelete(store core.MoodboardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFrom(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), claims.Subject, id); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Moodboard not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"userID":  claims.Subject,
				"boardID": id,
			}).Error("Failed to delete moodboard")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to delete moodboard"})
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "deleted"})
	}
}
