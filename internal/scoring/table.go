package scoring

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Adjustment holds per-metric values: absolute values for a table's base,
// signed deltas for an area entry. A base that leaves a supplemental metric
// at zero takes the DefaultBase value for it.
type Adjustment struct {
	Night   int `yaml:"night" json:"night"`
	Transit int `yaml:"transit" json:"transit"`
	Walk    int `yaml:"walk" json:"walk"`
	Vehicle int `yaml:"vehicle,omitempty" json:"vehicle,omitempty"`
	Child   int `yaml:"child,omitempty" json:"child,omitempty"`
	Women   int `yaml:"women,omitempty" json:"women,omitempty"`
}

// AreaTable maps normalized area names to metric deltas applied on top of
// Base. It is per market and injected into the Scorer.
type AreaTable struct {
	Base  Adjustment            `yaml:"base" json:"base"`
	Areas map[string]Adjustment `yaml:"areas" json:"areas"`
}

// DefaultBase is the base used when a table does not define one.
var DefaultBase = Adjustment{Night: 65, Transit: 70, Walk: 75, Vehicle: 60, Child: 70, Women: 65}

// DefaultAreaTable returns the Los Angeles table.
func DefaultAreaTable() AreaTable {
	return AreaTable{
		Base: DefaultBase,
		Areas: map[string]Adjustment{
			"downtown":       {Night: -10, Transit: 15, Walk: 10, Vehicle: -15, Child: -10, Women: -10},
			"skid row":       {Night: -25, Transit: 10, Walk: -5, Vehicle: -20, Child: -25, Women: -25},
			"hollywood":      {Night: -8, Transit: 10, Walk: 8, Vehicle: -12, Child: -5, Women: -8},
			"koreatown":      {Night: -5, Transit: 12, Walk: 8, Vehicle: -8, Child: -3, Women: -5},
			"west hollywood": {Night: 5, Transit: 5, Walk: 12, Vehicle: -2, Child: 0, Women: 5},
			"silver lake":    {Night: 0, Transit: -5, Walk: 5, Vehicle: -5, Child: 2, Women: 0},
			"venice":         {Night: -5, Transit: 0, Walk: 10, Vehicle: -10, Child: 0, Women: -5},
			"santa monica":   {Night: 5, Transit: 5, Walk: 10, Vehicle: 0, Child: 5, Women: 5},
			"beverly hills":  {Night: 15, Transit: -5, Walk: 5, Vehicle: 10, Child: 12, Women: 10},
			"pasadena":       {Night: 8, Transit: 0, Walk: 5, Vehicle: 5, Child: 10, Women: 5},
		},
	}
}

// ParseAreaTable decodes a YAML area table. Area names are normalized.
func ParseAreaTable(data []byte) (AreaTable, error) {
	var t AreaTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return AreaTable{}, fmt.Errorf("parsing area table: %w", err)
	}
	if t.Base == (Adjustment{}) {
		t.Base = DefaultBase
	}
	t.Base = t.Base.withSupplementalDefaults()
	for name, v := range map[string]int{
		"night": t.Base.Night, "transit": t.Base.Transit, "walk": t.Base.Walk,
		"vehicle": t.Base.Vehicle, "child": t.Base.Child, "women": t.Base.Women,
	} {
		if v < 0 || v > 100 {
			return AreaTable{}, fmt.Errorf("base %s must be 0-100, got %d", name, v)
		}
	}
	return t.normalized(), nil
}

// LoadAreaTable reads a YAML area table from disk.
func LoadAreaTable(path string) (AreaTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AreaTable{}, fmt.Errorf("reading area table: %w", err)
	}
	return ParseAreaTable(data)
}

// Lookup returns the adjustment for an area name and the normalized key
// that matched.
func (t AreaTable) Lookup(name string) (Adjustment, string, bool) {
	key := NormalizeArea(name)
	if key == "" {
		return Adjustment{}, "", false
	}
	adj, ok := t.Areas[key]
	if !ok {
		return Adjustment{}, "", false
	}
	return adj, key, true
}

func (a Adjustment) withSupplementalDefaults() Adjustment {
	if a.Vehicle == 0 {
		a.Vehicle = DefaultBase.Vehicle
	}
	if a.Child == 0 {
		a.Child = DefaultBase.Child
	}
	if a.Women == 0 {
		a.Women = DefaultBase.Women
	}
	return a
}

func (t AreaTable) normalized() AreaTable {
	out := AreaTable{Base: t.Base.withSupplementalDefaults(), Areas: make(map[string]Adjustment, len(t.Areas))}
	for name, adj := range t.Areas {
		out.Areas[NormalizeArea(name)] = adj
	}
	return out
}

// NormalizeArea lower-cases an area name and collapses whitespace,
// hyphens and underscores.
func NormalizeArea(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(name))
	return strings.Join(strings.Fields(name), " ")
}
