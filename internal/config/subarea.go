package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/venue-conduction-board/internal/subarea"
)

// LoadSubareaTable returns the venue layout used to resolve subareas.  With
// an empty path the built-in layout is used.  A YAML file replaces the
// sections it sets and keeps the built-in ones it omits:
//
//	areas:
//	  - {match: "varanda", label: "Varanda"}
//	tables:
//	  - {from: 1, to: 12, label: "Varanda"}
//	venue_prefixes: ["Casa Aurora"]
//
// venuePrefix, when set, is added to the venue prefixes.
func LoadSubareaTable(path, venuePrefix string) (subarea.Table, error) {
	t := subarea.DefaultTable()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return t, fmt.Errorf("read subarea table: %w", err)
		}
		var override subarea.Table
		if err := yaml.Unmarshal(raw, &override); err != nil {
			return t, fmt.Errorf("parse subarea table %s: %w", path, err)
		}
		if len(override.Areas) > 0 {
			t.Areas = override.Areas
		}
		if len(override.Tables) > 0 {
			t.Tables = override.Tables
		}
		if len(override.VenuePrefixes) > 0 {
			t.VenuePrefixes = override.VenuePrefixes
		}
	}
	if venuePrefix != "" {
		t.VenuePrefixes = append([]string{venuePrefix}, t.VenuePrefixes...)
	}
	return t, nil
}
