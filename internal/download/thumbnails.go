package download

import (
	"fmt"

	ioutils "github.com/handiism/gadget-browser/internal/io"
	"github.com/handiism/gadget-browser/internal/model"
	"github.com/handiism/gadget-browser/internal/taskqueue"
)

// FetchThumbnails makes a thumbnail available for each plugin. Cached
// thumbnails are used as they are; the rest are queued on the thumbnail
// queue. It returns the number of thumbnails queued.
func (m *Manager) FetchThumbnails(plugins []*model.Plugin) int {
	queued := 0
	for _, p := range plugins {
		if !m.claimThumbnail(p.ID) {
			continue
		}

		path := p.ThumbnailPath(m.settings.ThumbnailCacheDir)
		if _, ok := ioutils.ReadCached(path); ok {
			m.setThumbnail(p.ID, path)
			m.unqueueThumbnail(p.ID)
			continue
		}

		url := taskqueue.ResolveURL(m.settings.URLPrefix, p.ThumbnailURL())
		id := p.ID
		_, err := m.submit(m.thumbnails, taskqueue.Task{
			TargetID: id,
			URL:      url,
			OnComplete: func(o taskqueue.Outcome) {
				m.storeThumbnail(id, o)
			},
		})
		if err != nil {
			m.unqueueThumbnail(id)
			m.progress(ProgressEvent{Message: fmt.Sprintf("No thumbnail for %s", p.Title(m.settings.Language)), Level: LevelVerbose})
			continue
		}
		queued++
	}

	if queued > 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Fetching %d thumbnails", queued), Level: LevelVerbose})
	}
	return queued
}

// ClearThumbnails drops every queued and running thumbnail fetch, for
// when the plugins on screen change. Thumbnails already cached stay.
func (m *Manager) ClearThumbnails() {
	m.clearQueue(m.thumbnails)

	m.mu.Lock()
	m.thumbQueued = make(map[string]bool)
	m.mu.Unlock()
}

// ThumbnailPath returns the cached thumbnail file for a plugin, once it has
// been fetched or found in the cache.
func (m *Manager) ThumbnailPath(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.thumbPaths[id]
	return path, ok
}

// claimThumbnail marks a thumbnail as queued unless it is already cached or
// queued.
func (m *Manager) claimThumbnail(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, cached := m.thumbPaths[id]; cached || m.thumbQueued[id] {
		return false
	}
	m.thumbQueued[id] = true
	return true
}

func (m *Manager) unqueueThumbnail(id string) {
	m.mu.Lock()
	delete(m.thumbQueued, id)
	m.mu.Unlock()
}

func (m *Manager) setThumbnail(id, path string) {
	m.mu.Lock()
	m.thumbPaths[id] = path
	m.mu.Unlock()
}

func (m *Manager) storeThumbnail(id string, o taskqueue.Outcome) {
	defer m.unqueueThumbnail(id)

	if !o.OK {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Thumbnail for %s failed (status %d)", id, o.StatusCode), Level: LevelWarning})
		return
	}

	p, ok := m.lookup(id)
	if !ok {
		return
	}

	var (
		data []byte
		err  error
	)
	if m.settings.ThumbnailResize {
		data, err = m.images.ResizeImage(m.ctx, o.Payload, m.settings.ThumbnailWidth, m.settings.ThumbnailHeight)
	} else {
		data, err = m.images.ConvertToJPEG(m.ctx, o.Payload)
	}
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Thumbnail for %s is not a usable image: %v", id, err), Level: LevelWarning})
		return
	}

	path := p.ThumbnailPath(m.settings.ThumbnailCacheDir)
	if err := ioutils.WriteFile(m.ctx, path, data); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not cache thumbnail for %s: %v", id, err), Level: LevelWarning})
		return
	}
	m.setThumbnail(id, path)
}
