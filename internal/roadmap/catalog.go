package roadmap

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"alfredoptarigan/resume-matcher/internal/models"
)

//go:embed catalog/resources.yaml
var defaultCatalogYAML []byte

type catalogEntry struct {
	Keyword   string                    `yaml:"keyword"`
	Resources []models.LearningResource `yaml:"resources"`
}

// Catalog maps technology keywords to curated learning resources. Entry
// order is significant for partial lookups.
type Catalog struct {
	entries []catalogEntry
	exact   map[string]int
}

// DefaultCatalog parses the embedded resource list.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse resource catalog: %w", err)
	}

	c := &Catalog{exact: make(map[string]int, len(entries)*2)}
	for i, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Keyword))
		if key == "" {
			return nil, fmt.Errorf("resource catalog entry %d has no keyword", i)
		}
		if _, dup := c.exact[key]; dup {
			return nil, fmt.Errorf("duplicate catalog keyword %q", key)
		}
		e.Keyword = key
		c.exact[key] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	// "next.js" is also reachable as "nextjs", "rest api" as "api"
	for idx, e := range c.entries {
		alias := NormalizeKeyword(e.Keyword)
		if _, taken := c.exact[alias]; !taken {
			c.exact[alias] = idx
		}
	}
	return c, nil
}

func (c *Catalog) Keywords() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Keyword
	}
	return out
}

// ResourcesFor returns a copy of the resources for keyword: an exact keyword
// hit first, otherwise the first entry (in catalog order) whose keyword
// contains, or is contained in, the lookup key. Unknown keywords yield nil.
func (c *Catalog) ResourcesFor(keyword string) []models.LearningResource {
	key := strings.ToLower(strings.TrimSpace(keyword))
	if key == "" {
		return nil
	}

	if idx, ok := c.exact[key]; ok {
		return cloneResources(c.entries[idx].Resources)
	}

	for _, e := range c.entries {
		if strings.Contains(key, e.Keyword) || strings.Contains(e.Keyword, key) {
			return cloneResources(e.Resources)
		}
	}
	return nil
}

func cloneResources(in []models.LearningResource) []models.LearningResource {
	out := make([]models.LearningResource, len(in))
	copy(out, in)
	return out
}

var keywordReplacements = map[string]string{
	"rest api":         "api",
	"type system":      "typescript",
	"state management": "redux",
	"web api":          "api",
	"front end":        "frontend",
	"back end":         "backend",
}

// NormalizeKeyword lowercases a roadmap keyword into the icon-friendly form
// used by clients: known phrases are replaced, remaining spaces and dots are
// removed ("Next.js" -> "nextjs", "REST API" -> "api").
func NormalizeKeyword(keyword string) string {
	k := strings.ToLower(strings.TrimSpace(keyword))

	if strings.Contains(k, " ") {
		if r, ok := keywordReplacements[k]; ok {
			k = r
		} else {
			k = strings.ReplaceAll(k, " ", "")
		}
	}

	return strings.ReplaceAll(k, ".", "")
}
