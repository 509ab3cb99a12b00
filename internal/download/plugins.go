package download

import (
	"errors"
	"fmt"

	ioutils "github.com/handiism/gadget-browser/internal/io"
	"github.com/handiism/gadget-browser/internal/model"
	"github.com/handiism/gadget-browser/internal/taskqueue"
)

var (
	// ErrUnknownPlugin is returned for an ID the catalog does not list.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrNoDownloadURL is returned for a plugin without a download_url.
	ErrNoDownloadURL = errors.New("plugin has no download URL")
)

// DownloadPlugin queues the package of the plugin with the given ID and
// saves it to the gadgets directory once it arrives. updating only changes
// how the result is reported. A plugin that is already being added is left
// alone.
func (m *Manager) DownloadPlugin(id string, updating bool) error {
	c := m.Catalog()
	if c == nil {
		return ErrNoCatalog
	}
	p, ok := c.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
	}

	m.mu.Lock()
	if m.statuses[id] == model.DownloadAdding {
		m.mu.Unlock()
		return nil
	}
	m.statuses[id] = model.DownloadAdding
	m.mu.Unlock()

	url := taskqueue.ResolveURL(m.settings.URLPrefix, p.DownloadURL())
	taskID, err := m.submit(m.packages, taskqueue.Task{
		TargetID: id,
		URL:      url,
		OnComplete: func(o taskqueue.Outcome) {
			m.savePackage(id, updating, o)
		},
	})
	if err != nil {
		m.setStatus(id, model.DownloadError)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Cannot download %s: no download URL", p.Title(m.settings.Language)), Level: LevelError})
		if errors.Is(err, taskqueue.ErrNoURL) {
			return fmt.Errorf("%s: %w", id, ErrNoDownloadURL)
		}
		return err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Queued %s [%s]", p.Title(m.settings.Language), taskID), Level: LevelVerbose})
	return nil
}

// Status returns the download status of a plugin.
func (m *Manager) Status(id string) model.DownloadStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statuses[id]
}

// ResetStatus clears a finished status so the plugin shows as not
// downloaded again. A download in progress keeps its status.
func (m *Manager) ResetStatus(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statuses[id] != model.DownloadAdding {
		delete(m.statuses, id)
	}
}

func (m *Manager) setStatus(id string, status model.DownloadStatus) {
	m.mu.Lock()
	m.statuses[id] = status
	m.mu.Unlock()
}

func (m *Manager) savePackage(id string, updating bool, o taskqueue.Outcome) {
	if !o.OK {
		m.setStatus(id, model.DownloadError)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Download of %s failed (status %d)", id, o.StatusCode), Level: LevelError})
		return
	}

	// The catalog may have been reloaded since the request went out.
	p, ok := m.lookup(id)
	if !ok {
		m.setStatus(id, model.DownloadError)
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s is no longer in the catalog", id), Level: LevelWarning})
		return
	}

	path := p.PackagePath(m.settings.GadgetsDir)
	if err := ioutils.WriteFile(m.ctx, path, o.Payload); err != nil {
		m.setStatus(id, model.DownloadError)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not save %s: %v", path, err), Level: LevelError})
		return
	}

	m.setStatus(id, model.DownloadAdded)
	verb := "Added"
	if updating {
		verb = "Updated"
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("%s %s (%d bytes)", verb, p.Title(m.settings.Language), len(o.Payload)), Level: LevelSuccess})
}
