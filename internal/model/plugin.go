package model

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Attribute names used in plugins.xml.
const (
	AttrName           = "name"
	AttrAuthor         = "author"
	AttrVersion        = "version"
	AttrSizeKilobytes  = "size_kilobytes"
	AttrLanguage       = "language"
	AttrCategory       = "category"
	AttrRank           = "rank"
	AttrType           = "type"
	AttrModuleID       = "module_id"
	AttrSidebar        = "sidebar"
	AttrDownloadURL    = "download_url"
	AttrThumbnailURL   = "thumbnail_url"
	AttrInfoURL        = "info_url"
	AttrKeywords       = "keywords"
	AttrProductSummary = "product_summary"
	AttrGUID           = "guid"
)

// DateLayout is the date format used by plugins.xml, e.g. "November 10, 2007".
const DateLayout = "January 2, 2006"

// iGoogle feed modules are listed even when marked sidebar="false".
const (
	iGoogleFeedModuleID = "25"
	pluginTypeIGoogle   = "igoogle"
)

// Plugin is one gadget entry of the catalog.
//
// Attributes holds every XML attribute of the <plugin> element verbatim.
// Titles and Descriptions are keyed by locale ("en", "zh-cn", ...).
//
// A Plugin is never modified after the catalog is parsed; mutable state such
// as the download status lives with whoever tracks it.
type Plugin struct {
	// ID is the guid attribute, or download_url when guid is missing.
	ID string

	Attributes   map[string]string
	Titles       map[string]string
	Descriptions map[string]string

	// UpdatedDate is taken from updated_date, falling back to
	// creation_date. Zero when neither parses.
	UpdatedDate time.Time

	// Rank is the parsed rank attribute, 0 when absent.
	Rank float64
}

// NewPlugin creates a Plugin from its attribute map. It returns nil when the
// attributes carry neither a guid nor a download_url.
func NewPlugin(attrs map[string]string) *Plugin {
	id := attrs[AttrGUID]
	if id == "" {
		id = attrs[AttrDownloadURL]
	}
	if id == "" {
		return nil
	}

	p := &Plugin{
		ID:           id,
		Attributes:   attrs,
		Titles:       make(map[string]string),
		Descriptions: make(map[string]string),
	}

	if date, ok := ParseDate(attrs["updated_date"]); ok {
		p.UpdatedDate = date
	} else if date, ok := ParseDate(attrs["creation_date"]); ok {
		p.UpdatedDate = date
	}

	if rank, err := strconv.ParseFloat(attrs[AttrRank], 64); err == nil {
		p.Rank = rank
	}

	return p
}

// ParseDate parses a catalog date such as "November 10, 2007".
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Attr returns the named attribute, or "" if it is not set.
func (p *Plugin) Attr(name string) string {
	return p.Attributes[name]
}

// DownloadURL returns the package URL as listed, possibly relative.
func (p *Plugin) DownloadURL() string {
	return p.Attributes[AttrDownloadURL]
}

// ThumbnailURL returns the thumbnail URL as listed, possibly relative.
func (p *Plugin) ThumbnailURL() string {
	return p.Attributes[AttrThumbnailURL]
}

// Languages returns the languages the plugin is listed under. Plugins
// without a language attribute are English.
func (p *Plugin) Languages() []string {
	langs := splitValues(p.Attributes[AttrLanguage])
	if len(langs) == 0 {
		return []string{"en"}
	}
	return langs
}

// Categories returns the values of the category attribute.
func (p *Plugin) Categories() []string {
	return splitValues(p.Attributes[AttrCategory])
}

// IsDesktop reports whether the plugin should be listed by the browser.
func (p *Plugin) IsDesktop() bool {
	if p.Attributes[AttrModuleID] == iGoogleFeedModuleID && p.Attributes[AttrType] == pluginTypeIGoogle {
		return true
	}
	return p.Attributes[AttrSidebar] != "false"
}

// Title returns the localized title, falling back to the name attribute.
func (p *Plugin) Title(lang string) string {
	if title := p.Titles[lang]; title != "" {
		return title
	}
	return p.Attributes[AttrName]
}

// Description returns the localized description, falling back to the
// product_summary attribute.
func (p *Plugin) Description(lang string) string {
	if desc := p.Descriptions[lang]; desc != "" {
		return desc
	}
	return p.Attributes[AttrProductSummary]
}

// Summary returns a one-line "version | size | date | author" string,
// skipping the parts that are unknown.
func (p *Plugin) Summary() string {
	var parts []string
	if v := p.Attributes[AttrVersion]; v != "" {
		parts = append(parts, "Version "+v)
	}
	if size := p.Attributes[AttrSizeKilobytes]; size != "" {
		parts = append(parts, size+"KB")
	}
	if !p.UpdatedDate.IsZero() {
		parts = append(parts, p.UpdatedDate.Format(DateLayout))
	}
	if author := p.Attributes[AttrAuthor]; author != "" {
		parts = append(parts, author)
	}
	return strings.Join(parts, " | ")
}

// SearchText returns the upper-cased text a search query is matched against.
func (p *Plugin) SearchText(lang string) string {
	var date string
	if !p.UpdatedDate.IsZero() {
		date = p.UpdatedDate.Format(DateLayout)
	}
	return strings.ToUpper(strings.Join([]string{
		p.Attributes[AttrAuthor],
		date,
		p.Attributes[AttrDownloadURL],
		p.Attributes[AttrInfoURL],
		p.Attributes[AttrKeywords],
		p.Title(lang),
		p.Description(lang),
	}, " "))
}

// PackagePath returns where the downloaded package is stored inside dir.
func (p *Plugin) PackagePath(dir string) string {
	return filepath.Join(dir, fileName(p.ID)+".gg")
}

// ThumbnailPath returns where the cached thumbnail is stored inside dir.
func (p *Plugin) ThumbnailPath(dir string) string {
	return filepath.Join(dir, fileName(p.ID)+".jpg")
}

func splitValues(s string) []string {
	if s == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// maxNameBytes bounds the readable part of a file name, well below the
// Windows path limit.
const maxNameBytes = 100

// fileName maps an ID (often a URL) to a single path element. The hash
// suffix keeps IDs that sanitize to the same text apart.
func fileName(id string) string {
	name := truncateRunes(sanitizeFileName(id), maxNameBytes)
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "plugin"
	}

	sum := sha256.Sum256([]byte(id))
	return name + "-" + hex.EncodeToString(sum[:6])
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// sanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Trailing whitespace is removed
//
// Example:
//
//	sanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
func sanitizeFileName(name string) string {
	// Replace invalid path/file characters
	invalidChars := regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	name = invalidChars.ReplaceAllString(name, "_")

	// Remove trailing dots
	name = regexp.MustCompile(`\.+$`).ReplaceAllString(name, "")

	// Replace multiple whitespace with single space
	name = regexp.MustCompile(`\s+`).ReplaceAllString(name, " ")

	// Remove trailing whitespace
	name = strings.TrimRight(name, " ")

	return name
}
