package fonts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestList_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("api key not forwarded: %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"items":[{"family":"Inter","variants":["regular"],"category":"sans-serif"}]}`))
	}))
	defer srv.Close()

	c := NewCatalog("test-key")
	c.apiBase = srv.URL

	got := c.List(context.Background())
	if len(got) != 1 || got[0].Family != "Inter" {
		t.Fatalf("List(): got %+v", got)
	}
}

func TestList_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewCatalog("test-key")
	c.apiBase = srv.URL

	got := c.List(context.Background())
	if len(got) != len(fallbackFonts) {
		t.Fatalf("fallback not served: got %d fonts", len(got))
	}
	if got[0].Family != "Roboto" {
		t.Errorf("fallback head: got %q", got[0].Family)
	}
}

func TestList_FallbackWithoutKey(t *testing.T) {
	c := NewCatalog("")
	got := c.List(context.Background())
	if len(got) != len(fallbackFonts) {
		t.Fatalf("unkeyed catalog: got %d fonts, want fallback list", len(got))
	}
}

func TestStylesheetURL(t *testing.T) {
	got := StylesheetURL("Playfair Display")
	want := "https://fonts.googleapis.com/css2?family=Playfair+Display&display=swap"
	if got != want {
		t.Errorf("StylesheetURL: got %q, want %q", got, want)
	}
}
