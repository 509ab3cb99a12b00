package catalog

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/handiism/gadget-browser/internal/model"
)

// Built-in categories present for every language.
const (
	CategoryAll          = "all"
	CategoryNew          = "new"
	CategoryRecentlyUsed = "recently_used"
	CategoryUpdates      = "updates"
)

// NewPluginPeriod is how recently a plugin must have been updated to be
// listed under CategoryNew.
const NewPluginPeriod = 60 * 24 * time.Hour

// SupportedLanguages lists the catalog languages the browser offers.
var SupportedLanguages = []string{
	"bg", "ca", "cs", "da", "de", "el", "en", "en-gb", "es", "fi", "fr", "hi",
	"hr", "hu", "id", "it", "ja", "ko", "nl", "no", "pl", "pt-br", "pt-pt",
	"ro", "ru", "sk", "sl", "sv", "th", "tr", "zh-cn", "zh-tw",
}

// Catalog indexes plugins by language and category.
//
// Every plugin is resolvable through Lookup, but only desktop plugins are
// listed by Plugins and Search. A Catalog is immutable once built; a
// reloaded catalog is a new value.
type Catalog struct {
	plugins []*model.Plugin
	byID    map[string]*model.Plugin

	// language -> category -> plugins, in document order
	index map[string]map[string][]*model.Plugin
}

// Load parses a plugins.xml document and indexes it.
func Load(r io.Reader, now time.Time) (*Catalog, error) {
	plugins, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return New(plugins, now), nil
}

// New builds a Catalog. now decides which plugins count as new.
func New(plugins []*model.Plugin, now time.Time) *Catalog {
	c := &Catalog{
		plugins: plugins,
		byID:    make(map[string]*model.Plugin, len(plugins)),
		index:   make(map[string]map[string][]*model.Plugin),
	}

	for _, plugin := range plugins {
		c.byID[plugin.ID] = plugin
		if !plugin.IsDesktop() {
			continue
		}

		isNew := !plugin.UpdatedDate.IsZero() && now.Sub(plugin.UpdatedDate) < NewPluginPeriod

		for _, lang := range plugin.Languages() {
			categories := c.language(lang)
			categories[CategoryAll] = append(categories[CategoryAll], plugin)
			if isNew {
				categories[CategoryNew] = append(categories[CategoryNew], plugin)
			}
			for _, category := range plugin.Categories() {
				categories[category] = append(categories[category], plugin)
			}
		}
	}

	return c
}

func (c *Catalog) language(lang string) map[string][]*model.Plugin {
	categories, ok := c.index[lang]
	if !ok {
		categories = map[string][]*model.Plugin{
			CategoryAll:          nil,
			CategoryNew:          nil,
			CategoryRecentlyUsed: nil,
			CategoryUpdates:      nil,
		}
		c.index[lang] = categories
	}
	return categories
}

// Len returns the number of plugins, listed or not.
func (c *Catalog) Len() int {
	return len(c.plugins)
}

// Lookup returns the plugin with the given ID.
func (c *Catalog) Lookup(id string) (*model.Plugin, bool) {
	plugin, ok := c.byID[id]
	return plugin, ok
}

// Plugins returns the plugins listed under lang and category.
func (c *Catalog) Plugins(lang, category string) []*model.Plugin {
	return c.index[lang][category]
}

// Languages returns the languages that have at least one listed plugin.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.index))
	for lang := range c.index {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Categories returns the categories known for lang, sorted by name.
func (c *Catalog) Categories(lang string) []string {
	categories := make([]string, 0, len(c.index[lang]))
	for category := range c.index[lang] {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Search returns the listed plugins of lang matching every space-separated
// term of query, case-insensitively. An empty query matches everything.
func (c *Catalog) Search(lang, query string) []*model.Plugin {
	terms := strings.Fields(strings.ToUpper(query))

	var result []*model.Plugin
	for _, plugin := range c.Plugins(lang, CategoryAll) {
		text := plugin.SearchText(lang)
		matched := true
		for _, term := range terms {
			if !strings.Contains(text, term) {
				matched = false
				break
			}
		}
		if matched {
			result = append(result, plugin)
		}
	}
	return result
}

// IsSupportedLanguage reports whether lang is one of SupportedLanguages.
func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
