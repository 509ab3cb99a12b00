package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/handiism/gadget-browser/internal/model"
)

// ErrNotCatalog is returned when the document root is not <plugins>.
var ErrNotCatalog = errors.New("document is not a plugins catalog")

type xmlCatalog struct {
	XMLName xml.Name    `xml:"plugins"`
	Plugins []xmlPlugin `xml:"plugin"`
}

type xmlPlugin struct {
	Attrs        []xml.Attr     `xml:",any,attr"`
	Titles       []xmlLocalized `xml:"title"`
	Descriptions []xmlLocalized `xml:"description"`
}

type xmlLocalized struct {
	Locale string `xml:"locale,attr"`
	Text   string `xml:",chardata"`
}

// Parse reads a plugins.xml document.
//
// Plugins without a guid or download_url are skipped, as are titles and
// descriptions without a locale. When the same ID appears twice the later
// entry replaces the earlier one but keeps its position.
//
// Example:
//
//	f, _ := os.Open("plugins.xml")
//	plugins, err := catalog.Parse(f)
func Parse(r io.Reader) ([]*model.Plugin, error) {
	var doc xmlCatalog
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) {
			return nil, ErrNotCatalog
		}
		return nil, fmt.Errorf("decode plugins.xml: %w", err)
	}

	plugins := make([]*model.Plugin, 0, len(doc.Plugins))
	position := make(map[string]int)

	for _, xp := range doc.Plugins {
		attrs := make(map[string]string, len(xp.Attrs))
		for _, attr := range xp.Attrs {
			attrs[attr.Name.Local] = attr.Value
		}

		plugin := model.NewPlugin(attrs)
		if plugin == nil {
			continue
		}

		for _, title := range xp.Titles {
			if title.Locale != "" {
				plugin.Titles[title.Locale] = title.Text
			}
		}
		for _, desc := range xp.Descriptions {
			if desc.Locale != "" {
				plugin.Descriptions[desc.Locale] = desc.Text
			}
		}

		if i, ok := position[plugin.ID]; ok {
			plugins[i] = plugin
			continue
		}
		position[plugin.ID] = len(plugins)
		plugins = append(plugins, plugin)
	}

	return plugins, nil
}
