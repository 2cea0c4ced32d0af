package domain

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FieldRule says how one result field is projected for display. A field is
// either shown raw or as a highlighted snippet.
type FieldRule struct {
	Raw     bool         `toml:"raw" json:"raw,omitempty"`
	Snippet *SnippetRule `toml:"snippet" json:"snippet,omitempty"`
}

// SnippetRule bounds a highlighted excerpt. With Fallback set the raw value
// is shown when the engine returned no highlight.
type SnippetRule struct {
	Size     int  `toml:"size" json:"size"`
	Fallback bool `toml:"fallback" json:"fallback"`
}

// Facet is a categorical filter exposed to users. Name is what callers use
// in filters and what results are keyed by; Field is the engine field the
// aggregation and filter run against.
type Facet struct {
	Name  string `toml:"name" json:"name"`
	Field string `toml:"field" json:"field"`
	Label string `toml:"label" json:"label"`
	Type  string `toml:"type" json:"type"`
	Size  int    `toml:"size" json:"size"`
}

// FacetTypeValue aggregates distinct values with counts.
const FacetTypeValue = "value"

// StaticConfig describes what is searched, shown and faceted. It is fixed at
// process start and passed explicitly into request building and binding.
type StaticConfig struct {
	Index              string               `toml:"index" json:"index"`
	SearchFields       []string             `toml:"search_fields" json:"search_fields"`
	ResultFields       map[string]FieldRule `toml:"result_fields" json:"result_fields"`
	AutocompleteFields map[string]FieldRule `toml:"autocomplete_fields" json:"autocomplete_fields"`
	Facets             []Facet              `toml:"facets" json:"facets"`
	DefaultPageSize    int                  `toml:"default_page_size" json:"default_page_size"`
	MaxPageSize        int                  `toml:"max_page_size" json:"max_page_size"`
	AutocompleteSize   int                  `toml:"autocomplete_size" json:"autocomplete_size"`
	// MaxResultWindow bounds from+size of any page, as the engine's
	// index.max_result_window does.
	MaxResultWindow int `toml:"max_result_window" json:"max_result_window"`
}

// DefaultMaxResultWindow is Elasticsearch's default index.max_result_window.
const DefaultMaxResultWindow = 10000

// DefaultStaticConfig returns the configuration for the cv-transcriptions index.
func DefaultStaticConfig() StaticConfig {
	textSnippet := FieldRule{Snippet: &SnippetRule{Size: 100, Fallback: true}}
	raw := FieldRule{Raw: true}

	return StaticConfig{
		Index:        IndexName,
		SearchFields: []string{"generated_text"},
		ResultFields: map[string]FieldRule{
			"generated_text": textSnippet,
			"duration":       raw,
			"age":            raw,
			"gender":         raw,
			"accent":         raw,
		},
		AutocompleteFields: map[string]FieldRule{
			"generated_text": textSnippet,
		},
		Facets: []Facet{
			{Name: "age", Field: "age.keyword", Label: "Age", Type: FacetTypeValue, Size: 20},
			{Name: "gender", Field: "gender.keyword", Label: "Gender", Type: FacetTypeValue, Size: 20},
			{Name: "accent", Field: "accent.keyword", Label: "Accent", Type: FacetTypeValue, Size: 20},
		},
		DefaultPageSize:  10,
		MaxPageSize:      100,
		AutocompleteSize: 5,
		MaxResultWindow:  DefaultMaxResultWindow,
	}
}

// FacetNames returns the configured facet names in display order.
func (c StaticConfig) FacetNames() []string {
	names := make([]string, len(c.Facets))
	for i, f := range c.Facets {
		names[i] = f.Name
	}
	return names
}

// MaxPage returns the last page of pageSize results that fits inside the
// result window. It is at least 1.
func (c StaticConfig) MaxPage(pageSize int) int {
	if pageSize < 1 || c.MaxResultWindow < pageSize {
		return 1
	}
	return c.MaxResultWindow / pageSize
}

// Facet looks a facet up by name.
func (c StaticConfig) Facet(name string) (Facet, bool) {
	for _, f := range c.Facets {
		if f.Name == name {
			return f, true
		}
	}
	return Facet{}, false
}

// Validate checks that every required piece is present and consistent.
func (c StaticConfig) Validate() error {
	var errs []error

	if c.Index == "" {
		errs = append(errs, errors.New("index is required"))
	}
	if len(c.SearchFields) == 0 {
		errs = append(errs, errors.New("at least one search field is required"))
	}
	if len(c.ResultFields) == 0 {
		errs = append(errs, errors.New("at least one result field is required"))
	}
	errs = append(errs, validateRules("result_fields", c.ResultFields)...)
	errs = append(errs, validateRules("autocomplete_fields", c.AutocompleteFields)...)

	seen := make(map[string]struct{}, len(c.Facets))
	for _, f := range c.Facets {
		switch {
		case f.Name == "" || f.Field == "":
			errs = append(errs, fmt.Errorf("facet %q: name and field are required", f.Name))
		case f.Type != FacetTypeValue:
			errs = append(errs, fmt.Errorf("facet %q: unsupported type %q", f.Name, f.Type))
		case f.Size < 1:
			errs = append(errs, fmt.Errorf("facet %q: size must be positive", f.Name))
		}
		if _, dup := seen[f.Name]; dup {
			errs = append(errs, fmt.Errorf("facet %q: duplicate name", f.Name))
		}
		seen[f.Name] = struct{}{}
	}

	if c.DefaultPageSize < 1 {
		errs = append(errs, errors.New("default_page_size must be positive"))
	}
	if c.MaxPageSize < c.DefaultPageSize {
		errs = append(errs, errors.New("max_page_size must be at least default_page_size"))
	}
	if c.AutocompleteSize < 1 {
		errs = append(errs, errors.New("autocomplete_size must be positive"))
	}
	if c.MaxResultWindow < c.MaxPageSize || c.MaxResultWindow < c.AutocompleteSize {
		errs = append(errs, errors.New("max_result_window must hold at least one page of max_page_size and autocomplete_size"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("static config: %w", err)
	}
	return nil
}

func validateRules(section string, rules map[string]FieldRule) []error {
	var errs []error
	for name, r := range rules {
		switch {
		case r.Raw && r.Snippet != nil:
			errs = append(errs, fmt.Errorf("%s.%s: raw and snippet are exclusive", section, name))
		case !r.Raw && r.Snippet == nil:
			errs = append(errs, fmt.Errorf("%s.%s: one of raw or snippet is required", section, name))
		case r.Snippet != nil && r.Snippet.Size < 1:
			errs = append(errs, fmt.Errorf("%s.%s: snippet size must be positive", section, name))
		}
	}
	return errs
}

// LoadStaticConfig reads a TOML file over the defaults and validates the result.
// Keys absent from the file keep their default values.
func LoadStaticConfig(path string) (StaticConfig, error) {
	cfg := DefaultStaticConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return StaticConfig{}, fmt.Errorf("static config: read %s: %w", path, err)
	}

	var file StaticConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return StaticConfig{}, fmt.Errorf("static config: parse %s: %w", path, err)
	}
	cfg.merge(file)

	if err := cfg.Validate(); err != nil {
		return StaticConfig{}, err
	}
	return cfg, nil
}

func (c *StaticConfig) merge(o StaticConfig) {
	if o.Index != "" {
		c.Index = o.Index
	}
	if len(o.SearchFields) > 0 {
		c.SearchFields = o.SearchFields
	}
	if len(o.ResultFields) > 0 {
		c.ResultFields = o.ResultFields
	}
	if len(o.AutocompleteFields) > 0 {
		c.AutocompleteFields = o.AutocompleteFields
	}
	if len(o.Facets) > 0 {
		c.Facets = o.Facets
	}
	if o.DefaultPageSize > 0 {
		c.DefaultPageSize = o.DefaultPageSize
	}
	if o.MaxPageSize > 0 {
		c.MaxPageSize = o.MaxPageSize
	}
	if o.AutocompleteSize > 0 {
		c.AutocompleteSize = o.AutocompleteSize
	}
	if o.MaxResultWindow > 0 {
		c.MaxResultWindow = o.MaxResultWindow
	}
}
