package tui

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/handiism/gadget-browser/internal/config"
)

const testCatalog = `<plugins>
 <plugin guid="clock" name="Clock" download_url="/clock.gg" keywords="time" category="tools"/>
 <plugin guid="notes" name="Notes" download_url="/notes.gg" category="tools,office"/>
</plugins>`

func newTestModel(t *testing.T) Model {
	t.Helper()
	dir := t.TempDir()

	s := config.DefaultSettings()
	s.CatalogURL = ""
	s.CatalogPath = filepath.Join(dir, "plugins.xml")
	s.GadgetsDir = filepath.Join(dir, "gadgets")
	s.ThumbnailCacheDir = filepath.Join(dir, "thumbs")
	if err := os.WriteFile(s.CatalogPath, []byte(testCatalog), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewModel(s, false)
	t.Cleanup(m.manager.Close)

	updated, _ := m.Update(m.loadCatalog()())
	return updated.(Model)
}

func TestModel_Browse(t *testing.T) {
	m := newTestModel(t)

	if m.state != StateBrowse {
		t.Fatalf("state = %v, want StateBrowse (err: %v)", m.state, m.err)
	}
	if len(m.results) != 2 {
		t.Fatalf("got %d results, want 2", len(m.results))
	}
	want := []string{"all", "new", "office", "recently_used", "tools", "updates"}
	if len(m.categories) != len(want) {
		t.Fatalf("categories = %v, want %v", m.categories, want)
	}
	for i := range want {
		if m.categories[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, m.categories[i], want[i])
		}
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.cursor)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("time")})
	m = updated.(Model)
	if len(m.results) != 1 || m.results[0].ID != "clock" {
		t.Errorf("search results = %v, want [clock]", m.results)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d after search, want 0", m.cursor)
	}
}

func TestModel_CategoryCycle(t *testing.T) {
	m := newTestModel(t)

	for _, want := range []string{"new", "office", "recently_used", "tools", "updates", "all"} {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(Model)
		if got := m.categories[m.category]; got != want {
			t.Errorf("category = %q, want %q", got, want)
		}
	}
}

func TestModel_LoadError(t *testing.T) {
	s := config.DefaultSettings()
	s.CatalogURL = ""
	s.CatalogPath = filepath.Join(t.TempDir(), "missing.xml")

	m := NewModel(s, false)
	defer m.manager.Close()

	updated, _ := m.Update(m.loadCatalog()())
	m = updated.(Model)
	if m.state != StateError || m.err == nil {
		t.Errorf("state = %v, err = %v; want StateError with error", m.state, m.err)
	}
}

func TestModel_EscQuits(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc did not quit")
	}
	if m.ctx.Err() == nil {
		t.Error("esc did not cancel the model context")
	}
}

func TestModel_PageChangeDropsStaleThumbnails(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	dir := t.TempDir()
	s := config.DefaultSettings()
	s.CatalogURL = ""
	s.URLPrefix = srv.URL
	s.CatalogPath = filepath.Join(dir, "plugins.xml")
	s.ThumbnailCacheDir = filepath.Join(dir, "thumbs")
	s.MaxConcurrentThumbnails = 2

	var doc strings.Builder
	doc.WriteString("<plugins>")
	for i := 0; i < pageSize+2; i++ {
		fmt.Fprintf(&doc, `<plugin guid="g%02d" download_url="/g.gg" thumbnail_url="/t%d.png"/>`, i, i)
	}
	doc.WriteString("</plugins>")
	if err := os.WriteFile(s.CatalogPath, []byte(doc.String()), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewModel(s, false)
	t.Cleanup(m.manager.Close)
	updated, _ := m.Update(m.loadCatalog()())
	m = updated.(Model)

	st := m.manager.Stats()
	if st.ThumbnailsPending != pageSize-2 || st.ThumbnailsInFlight != 2 {
		t.Fatalf("first page: %d pending, %d in flight", st.ThumbnailsPending, st.ThumbnailsInFlight)
	}

	for i := 0; i < pageSize; i++ {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m = updated.(Model)
	}

	// Only the two plugins of the second page are left.
	st = m.manager.Stats()
	if st.ThumbnailsPending != 0 || st.ThumbnailsInFlight != 2 {
		t.Errorf("second page: %d pending, %d in flight; want 0, 2", st.ThumbnailsPending, st.ThumbnailsInFlight)
	}
}
