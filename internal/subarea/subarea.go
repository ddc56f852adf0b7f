// Package subarea maps the inconsistent location data carried by bookings
// (a free-text area name on some records, only a table number on others) to
// the canonical subarea labels shown on the board.
package subarea

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unknown is the bucket used when neither the area name nor the table number
// resolves to a subarea.
const Unknown = "Área não identificada"

// AreaRule maps any area name containing Match (case and accent insensitive)
// to Label.
type AreaRule struct {
	Match string `yaml:"match"`
	Label string `yaml:"label"`
}

// TableRange assigns the tables From..To (inclusive) to Label.
type TableRange struct {
	From  int    `yaml:"from"`
	To    int    `yaml:"to"`
	Label string `yaml:"label"`
}

// Table is the venue layout used by a Resolver.  Rules are checked in order,
// so more specific matches must come first.
type Table struct {
	Areas         []AreaRule   `yaml:"areas"`
	Tables        []TableRange `yaml:"tables"`
	VenuePrefixes []string     `yaml:"venue_prefixes"`
}

// DefaultTable returns the layout of the flagship venue.
func DefaultTable() Table {
	return Table{
		Areas: []AreaRule{
			{Match: "corredor", Label: "Corredor"},
			{Match: "gramado 1", Label: "Gramado 1"},
			{Match: "gramado 2", Label: "Gramado 2"},
			{Match: "rooftop 1", Label: "Rooftop 1"},
			{Match: "rooftop 2", Label: "Rooftop 2"},
			{Match: "deck", Label: "Deck"},
			{Match: "vista", Label: "Vista"},
			{Match: "bistro", Label: "Bistrô"},
			{Match: "bar", Label: "Bar"},
		},
		Tables: []TableRange{
			{From: 1, To: 10, Label: "Deck"},
			{From: 11, To: 20, Label: "Bar"},
			{From: 21, To: 30, Label: "Vista"},
			{From: 31, To: 40, Label: "Rooftop 1"},
			{From: 41, To: 50, Label: "Rooftop 2"},
			{From: 51, To: 60, Label: "Bistrô"},
		},
		VenuePrefixes: []string{"Casa Aurora"},
	}
}

// Resolver resolves subarea labels.  It is immutable after New and safe for
// concurrent use.
type Resolver struct {
	areas    []AreaRule
	tables   map[string]string
	prefixes []string
}

// New builds a Resolver from a layout table.
func New(t Table) *Resolver {
	r := &Resolver{tables: make(map[string]string)}
	for _, a := range t.Areas {
		if a.Match == "" || a.Label == "" {
			continue
		}
		r.areas = append(r.areas, AreaRule{Match: fold(a.Match), Label: a.Label})
	}
	for _, tr := range t.Tables {
		for n := tr.From; n <= tr.To; n++ {
			r.tables[fmt.Sprintf("%02d", n)] = tr.Label
		}
	}
	for _, p := range t.VenuePrefixes {
		if p = strings.TrimSpace(p); p != "" {
			r.prefixes = append(r.prefixes, p)
		}
	}
	return r
}

// Resolve returns the canonical subarea for a booking.  A present area name
// wins over the table number.  The second result is false when nothing could
// be resolved.
func (r *Resolver) Resolve(tableNumber, areaName string) (string, bool) {
	if area := strings.TrimSpace(areaName); area != "" {
		folded := fold(area)
		for _, rule := range r.areas {
			if strings.Contains(folded, rule.Match) {
				return rule.Label, true
			}
		}
		return r.stripVenuePrefix(area), true
	}
	if table := strings.TrimSpace(tableNumber); table != "" {
		if label, ok := r.tables[tableKey(table)]; ok {
			return label, true
		}
	}
	return "", false
}

// Label is Resolve with the Unknown bucket substituted.
func (r *Resolver) Label(tableNumber, areaName string) string {
	if label, ok := r.Resolve(tableNumber, areaName); ok {
		return label
	}
	return Unknown
}

func (r *Resolver) stripVenuePrefix(area string) string {
	for _, p := range r.prefixes {
		if len(area) > len(p) && strings.EqualFold(area[:len(p)], p) {
			rest := strings.TrimLeft(area[len(p):], " -–:|")
			if rest != "" {
				return rest
			}
		}
	}
	return area
}

// tableKey takes the first table of a list like "5, 6" and pads it to two
// digits.
func tableKey(table string) string {
	first, _, _ := strings.Cut(table, ",")
	first = strings.TrimSpace(first)
	if len(first) == 1 {
		first = "0" + first
	}
	return first
}

// fold lower-cases s and strips diacritics so "Bistrô" matches "bistro".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
