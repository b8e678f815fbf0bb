// Package catalog holds the static vehicle lookup table and the fixed option
// vocabularies of the survey.
package catalog

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vehicles.yaml
var vehiclesYAML []byte

// keys maps purchase-type labels to category keys of the lookup table.
var keys = map[string]string{
	"1. Cars/SUVs":               "4-wheeler",
	"2. Scooter/Moped":           "2-wheeler",
	"3. Motorcycle":              "motorcycle",
	"4. Electric Scooter":        "e-2-wheeler",
	"5. Electric Car":            "e-4-wheeler",
	"6. Auto Rickshaw":           "3-wheeler",
	"7. Pickup/Light Commercial": "light-commercial",
	"8. Truck/Bus":               "commercial",
	"9. Bicycle":                 "bicycle",
}

var numberPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Catalog is an immutable category -> brand -> models lookup.
type Catalog struct {
	categories map[string]map[string][]string
}

// Load parses a YAML lookup document. Model lists are sorted on load.
func Load(data []byte) (*Catalog, error) {
	var raw map[string]map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse vehicle catalog: %w", err)
	}

	categories := make(map[string]map[string][]string, len(raw))
	for key, brands := range raw {
		if len(brands) == 0 {
			return nil, fmt.Errorf("category %q has no brands", key)
		}
		category := make(map[string][]string, len(brands))
		for brand, models := range brands {
			sorted := append([]string(nil), models...)
			sort.Strings(sorted)
			category[brand] = sorted
		}
		categories[key] = category
	}

	return &Catalog{categories: categories}, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog built from the embedded vehicles.yaml.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(vehiclesYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Categories returns the known category keys, sorted.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.categories))
	for key := range c.categories {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Brands returns the sorted brands of a category followed by "Other".
// Unknown keys yield an empty list.
func (c *Catalog) Brands(key string) []string {
	category, ok := c.categories[key]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(category)+1)
	for brand := range category {
		out = append(out, brand)
	}
	sort.Strings(out)
	return append(out, Other)
}

// Models returns the sorted models of a brand followed by "Other". A brand
// that is not in the category (including "Other") only offers "Other".
func (c *Catalog) Models(key, brand string) []string {
	category, ok := c.categories[key]
	if !ok || brand == "" {
		return []string{}
	}
	models := category[brand]
	out := make([]string, 0, len(models)+1)
	out = append(out, models...)
	return append(out, Other)
}

// AlternativeModels is Models with "None" and "Other (please specify)" as the
// trailing entries.
func (c *Catalog) AlternativeModels(key, brand string) []string {
	category, ok := c.categories[key]
	if !ok || brand == "" {
		return []string{}
	}
	models := category[brand]
	out := make([]string, 0, len(models)+2)
	out = append(out, models...)
	return append(out, None, OtherSpecify)
}

// Normalize maps a purchase-type label to its category key. Labels missing
// from the table are lower-cased with all whitespace removed.
func Normalize(label string) string {
	if key, ok := keys[label]; ok {
		return key
	}
	return strings.Join(strings.Fields(strings.ToLower(label)), "")
}

// Priority is the leading integer of a label ("3. Motorcycle" -> 3), or 0.
func Priority(label string) int {
	head, _, _ := strings.Cut(label, ".")
	head = strings.TrimLeft(head, " \t\n")
	end := 0
	for end < len(head) && head[end] >= '0' && head[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(head[:end])
	if err != nil {
		return 0
	}
	return n
}

// HighestPriority returns the label with the greatest leading integer. Ties
// go to the label encountered first.
func HighestPriority(types []string) string {
	best := ""
	bestPriority := -1
	for _, t := range types {
		if p := Priority(t); p > bestPriority {
			best, bestPriority = t, p
		}
	}
	return best
}

// DisplayType strips the numeric prefix of a label ("5. Electric Car" ->
// "Electric Car").
func DisplayType(label string) string {
	return numberPrefix.ReplaceAllString(label, "")
}
