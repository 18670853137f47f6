// Package fonts serves the font catalog used by the text style picker.
package fonts

import (
	"net/http"

	"moodboard/fonts"

	"github.com/go-chi/render"
)

type fontResponse struct {
	Family        string   `json:"family"`
	Variants      []string `json:"variants"`
	Category      string   `json:"category"`
	StylesheetURL string   `json:"stylesheet_url"`
}

func HandleList(catalog *fonts.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := catalog.List(r.Context())

		resp := make([]fontResponse, 0, len(list))
		for _, f := range list {
			resp = append(resp, fontResponse{
				Family:        f.Family,
				Variants:      f.Variants,
				Category:      f.Category,
				StylesheetURL: fonts.StylesheetURL(f.Family),
			})
		}
		render.JSON(w, r, resp)
	}
}
