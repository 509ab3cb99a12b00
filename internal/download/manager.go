package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/handiism/gadget-browser/internal/catalog"
	"github.com/handiism/gadget-browser/internal/config"
	"github.com/handiism/gadget-browser/internal/http"
	ioutils "github.com/handiism/gadget-browser/internal/io"
	"github.com/handiism/gadget-browser/internal/model"
	"github.com/handiism/gadget-browser/internal/taskqueue"
)

// ErrNoCatalog is returned by operations that need a catalog before
// LoadCatalog succeeded.
var ErrNoCatalog = errors.New("catalog not loaded")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Stats is a snapshot of both download queues.
type Stats struct {
	ThumbnailsPending  int
	ThumbnailsInFlight int
	PackagesPending    int
	PackagesInFlight   int
	ThumbnailsCached   int
}

// Manager loads the catalog and runs thumbnail and package downloads, each
// through its own bounded queue.
type Manager struct {
	settings   *config.Settings
	httpClient *http.Client
	images     *ioutils.ImageService

	thumbnails *taskqueue.Queue
	packages   *taskqueue.Queue

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	catalog     *catalog.Catalog
	statuses    map[string]model.DownloadStatus
	thumbPaths  map[string]string
	thumbQueued map[string]bool
	outstanding map[*taskqueue.Queue]*counter
	idle        []chan struct{}

	onProgress func(ProgressEvent)
}

// counter tracks unsettled tasks of one queue. gen changes when the queue
// is cleared so callbacks already running at that moment are not counted
// against tasks submitted afterwards.
type counter struct {
	n   int
	gen int
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	client := http.NewClient()
	client.SetRateLimit(settings.MaxBytesPerSecond)

	ctx, cancel := context.WithCancel(context.Background())

	thumbnails := taskqueue.New(client, settings.MaxConcurrentThumbnails)
	packages := taskqueue.New(client, settings.MaxConcurrentDownloads)

	return &Manager{
		settings:    settings,
		httpClient:  client,
		images:      ioutils.NewImageService(),
		thumbnails:  thumbnails,
		packages:    packages,
		ctx:         ctx,
		cancel:      cancel,
		statuses:    make(map[string]model.DownloadStatus),
		thumbPaths:  make(map[string]string),
		thumbQueued: make(map[string]bool),
		outstanding: map[*taskqueue.Queue]*counter{
			thumbnails: {},
			packages:   {},
		},
		onProgress: onProgress,
	}
}

// LoadCatalog reads the cached plugins.xml, downloading it first when it
// is missing, older than CatalogMaxAgeHours, or refresh is set. A failed
// download falls back to the cached copy when there is one.
func (m *Manager) LoadCatalog(ctx context.Context, refresh bool) error {
	path := m.settings.CatalogPath

	if m.settings.CatalogURL != "" && (refresh || m.catalogStale(path)) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Updating catalog from %s", m.settings.CatalogURL), Level: LevelVerbose})

		if err := m.downloadCatalog(ctx, path); err != nil {
			if _, statErr := os.Stat(path); statErr != nil {
				return fmt.Errorf("download catalog: %w", err)
			}
			m.progress(ProgressEvent{Message: fmt.Sprintf("Catalog update failed, using cached copy: %v", err), Level: LevelWarning})
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := catalog.Load(f, time.Now())
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", path, err)
	}

	m.mu.Lock()
	m.catalog = c
	m.mu.Unlock()

	m.progress(ProgressEvent{Message: fmt.Sprintf("Loaded %d plugins (%d languages)", c.Len(), len(c.Languages())), Level: LevelInfo})
	return nil
}

func (m *Manager) catalogStale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	maxAge := time.Duration(m.settings.CatalogMaxAgeHours * float64(time.Hour))
	return maxAge > 0 && time.Since(info.ModTime()) > maxAge
}

func (m *Manager) downloadCatalog(ctx context.Context, path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return m.httpClient.DownloadFile(ctx, m.settings.CatalogURL, path, func(written, total int64) {
		if written == total {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded catalog (%d KB)", total/1024), Level: LevelVerbose})
		}
	})
}

// Catalog returns the loaded catalog, or nil before LoadCatalog.
func (m *Manager) Catalog() *catalog.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog
}

// Search returns the plugins of the configured language matching query.
func (m *Manager) Search(query string) ([]*model.Plugin, error) {
	c := m.Catalog()
	if c == nil {
		return nil, ErrNoCatalog
	}
	return c.Search(m.settings.Language, query), nil
}

// Plugins returns the plugins of the configured language in category.
//
// The catalog itself leaves recently_used and updates empty; here they list
// the gadgets found in GadgetsDir, most recently saved first, and those of
// them that the catalog has a newer version of.
func (m *Manager) Plugins(category string) ([]*model.Plugin, error) {
	c := m.Catalog()
	if c == nil {
		return nil, ErrNoCatalog
	}

	switch category {
	case catalog.CategoryRecentlyUsed:
		return m.installed(c, false), nil
	case catalog.CategoryUpdates:
		return m.installed(c, true), nil
	}
	return c.Plugins(m.settings.Language, category), nil
}

// Installed reports whether the package of a plugin is in GadgetsDir.
func (m *Manager) Installed(p *model.Plugin) bool {
	_, err := os.Stat(p.PackagePath(m.settings.GadgetsDir))
	return err == nil
}

func (m *Manager) installed(c *catalog.Catalog, outdatedOnly bool) []*model.Plugin {
	type saved struct {
		plugin  *model.Plugin
		modTime time.Time
	}

	var found []saved
	for _, p := range c.Plugins(m.settings.Language, catalog.CategoryAll) {
		info, err := os.Stat(p.PackagePath(m.settings.GadgetsDir))
		if err != nil {
			continue
		}
		if outdatedOnly && !info.ModTime().Before(p.UpdatedDate) {
			continue
		}
		found = append(found, saved{plugin: p, modTime: info.ModTime()})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].modTime.After(found[j].modTime)
	})

	plugins := make([]*model.Plugin, len(found))
	for i, f := range found {
		plugins[i] = f.plugin
	}
	return plugins
}

// Stats reports the state of both queues.
func (m *Manager) Stats() Stats {
	var s Stats
	s.ThumbnailsPending, s.ThumbnailsInFlight = m.thumbnails.Len()
	s.PackagesPending, s.PackagesInFlight = m.packages.Len()

	m.mu.RLock()
	s.ThumbnailsCached = len(m.thumbPaths)
	m.mu.RUnlock()
	return s
}

// Wait blocks until every submitted thumbnail and package task has settled,
// Close was called, or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	if m.idleLocked() {
		m.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	m.idle = append(m.idle, ch)
	m.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels all outstanding downloads. Packages that were still being
// fetched go back to DownloadNone.
func (m *Manager) Close() {
	m.clearQueue(m.thumbnails)
	m.clearQueue(m.packages)
	m.cancel()

	m.mu.Lock()
	for id, status := range m.statuses {
		if status == model.DownloadAdding {
			m.statuses[id] = model.DownloadNone
		}
	}
	m.thumbQueued = make(map[string]bool)
	m.mu.Unlock()

	m.httpClient.Wait()
}

// clearQueue drops every task of q and stops waiting for them.
func (m *Manager) clearQueue(q *taskqueue.Queue) {
	q.Clear()

	m.mu.Lock()
	c := m.outstanding[q]
	c.n = 0
	c.gen++
	if m.idleLocked() {
		m.wakeLocked()
	}
	m.mu.Unlock()
}

// submit hands a task to q and counts it as outstanding until it settles.
func (m *Manager) submit(q *taskqueue.Queue, task taskqueue.Task) (string, error) {
	m.mu.Lock()
	c := m.outstanding[q]
	c.n++
	gen := c.gen
	m.mu.Unlock()

	settled := func() {
		m.mu.Lock()
		if c.gen == gen && c.n > 0 {
			c.n--
		}
		if m.idleLocked() {
			m.wakeLocked()
		}
		m.mu.Unlock()
	}

	onComplete := task.OnComplete
	task.OnComplete = func(o taskqueue.Outcome) {
		onComplete(o)
		settled()
	}

	id, err := q.Submit(task)
	if err != nil {
		settled()
	}
	return id, err
}

func (m *Manager) idleLocked() bool {
	for _, c := range m.outstanding {
		if c.n > 0 {
			return false
		}
	}
	return true
}

func (m *Manager) wakeLocked() {
	for _, ch := range m.idle {
		close(ch)
	}
	m.idle = nil
}

// lookup re-resolves a plugin in the current catalog; the catalog may have
// been reloaded while a fetch was in flight.
func (m *Manager) lookup(id string) (*model.Plugin, bool) {
	c := m.Catalog()
	if c == nil {
		return nil, false
	}
	return c.Lookup(id)
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
