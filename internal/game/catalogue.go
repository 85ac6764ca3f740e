package game

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/playperu/beasthike/internal/geo"
)

const (
	// GeneratorsPerRound is how many catalogue entries a round uses.
	GeneratorsPerRound = 4
	// GeneratorGroups is the number of map regions a round must cover.
	GeneratorGroups = 3
)

// ErrCatalogue reports a generator catalogue that cannot produce a valid round.
var ErrCatalogue = errors.New("invalid generator catalogue")

//go:embed generators.json
var defaultCatalogue []byte

// Candidate is a catalogue entry a round may pick as a generator.
type Candidate struct {
	Name     string    `json:"name"`
	Location geo.Point `json:"location"`
	Group    int       `json:"group"`
}

type Catalogue []Candidate

// DefaultCatalogue returns the catalogue compiled into the binary.
func DefaultCatalogue() (Catalogue, error) {
	return ParseCatalogue(defaultCatalogue)
}

// LoadCatalogue reads and validates a JSON catalogue from path.
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

func ParseCatalogue(data []byte) (Catalogue, error) {
	var c Catalogue
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogue, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every group is represented and that a round has
// enough candidates to draw from.
func (c Catalogue) Validate() error {
	if len(c) < GeneratorsPerRound {
		return fmt.Errorf("%w: %d candidates, need at least %d", ErrCatalogue, len(c), GeneratorsPerRound)
	}
	var perGroup [GeneratorGroups + 1]int
	for i, cand := range c {
		if cand.Group < 1 || cand.Group > GeneratorGroups {
			return fmt.Errorf("%w: candidate %d (%q) has group %d", ErrCatalogue, i, cand.Name, cand.Group)
		}
		perGroup[cand.Group]++
	}
	for g := 1; g <= GeneratorGroups; g++ {
		if perGroup[g] == 0 {
			return fmt.Errorf("%w: no candidate in group %d", ErrCatalogue, g)
		}
	}
	return nil
}
