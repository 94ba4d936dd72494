package market

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Listing is one symbol/name pair in the seed catalog.
type Listing struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// Catalog is the ordered list of instruments the store is seeded with.
type Catalog []Listing

// ErrInvalidCatalog is returned when a catalog is empty or malformed.
var ErrInvalidCatalog = errors.New("invalid catalog")

// DefaultCatalog is the built-in set of 20 meme-coin listings.
func DefaultCatalog() Catalog {
	return Catalog{
		{"PEPE", "Pepe"}, {"WOJAK", "Wojak"}, {"DOGE", "Dogecoin"}, {"SHIB", "Shiba Inu"},
		{"BONK", "Bonk"}, {"WIF", "dogwifhat"}, {"POPCAT", "Popcat"}, {"MEME", "Memecoin"},
		{"FLOKI", "Floki"}, {"TURBO", "Turbo"}, {"SLERF", "Slerf"}, {"BOME", "Book of Meme"},
		{"MYRO", "Myro"}, {"GIGA", "GigaChad"}, {"MICHI", "Michi"}, {"BRETT", "Brett"},
		{"TOSHI", "Toshi"}, {"DEGEN", "Degen"}, {"HIGHER", "Higher"}, {"NORMIE", "Normie"},
	}
}

type catalogFile struct {
	Tokens Catalog `yaml:"tokens"`
}

// LoadCatalog reads a YAML catalog of the form:
//
//	tokens:
//	  - symbol: PEPE
//	    name: Pepe
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file '%s': %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates YAML catalog bytes.
func ParseCatalog(data []byte) (Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog from YAML: %w", err)
	}
	if err := f.Tokens.Validate(); err != nil {
		return nil, err
	}
	return f.Tokens, nil
}

// Validate checks that the catalog is non-empty, has no blank fields and no repeated symbols.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: no tokens", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c))
	for i, l := range c {
		if strings.TrimSpace(l.Symbol) == "" || strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("%w: entry %d needs symbol and name", ErrInvalidCatalog, i)
		}
		key := strings.ToUpper(l.Symbol)
		if seen[key] {
			return fmt.Errorf("%w: duplicate symbol %q", ErrInvalidCatalog, l.Symbol)
		}
		seen[key] = true
	}
	return nil
}
