package fonts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moodboard/fonts"
)

func TestListServesFallbackCatalog(t *testing.T) {
	// No API key configured, so the fixed fallback list is served.
	catalog := fonts.NewCatalog("")

	rec := httptest.NewRecorder()
	HandleList(catalog)(rec, httptest.NewRequest(http.MethodGet, "/api/fonts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp []fontResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) == 0 {
		t.Fatal("expected at least the fallback fonts")
	}
	for _, f := range resp {
		if f.StylesheetURL == "" {
			t.Errorf("font %s has no stylesheet URL", f.Family)
		}
		if strings.Contains(f.StylesheetURL, " ") {
			t.Errorf("stylesheet URL contains spaces: %q", f.StylesheetURL)
		}
	}
}
