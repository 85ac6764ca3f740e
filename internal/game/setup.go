package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/playperu/beasthike/internal/geo"
)

const (
	// SecondsPerPlayer scales the round length with the roster size.
	SecondsPerPlayer = 300
	// DefaultBeasts is the number of Beasts drafted when not configured.
	DefaultBeasts = 2

	maxSelectionAttempts = 1000
)

// ErrConfig reports a planner setting that no round can be built from.
var ErrConfig = errors.New("invalid game configuration")

// Course holds the fixed start points of the play area.
type Course struct {
	BeastStart geo.Point
	HikerStart geo.Point
}

// Planner draws generators and roles for a new round. It is not safe for
// concurrent use; the Engine serializes calls.
type Planner struct {
	catalogue Catalogue
	numBeasts int
	rng       *rand.Rand
}

// NewPlanner validates the catalogue up front so a bad configuration fails
// at startup instead of on the first start request.
func NewPlanner(c Catalogue, numBeasts int, rng *rand.Rand) (*Planner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if numBeasts < 1 {
		return nil, fmt.Errorf("%w: need at least one beast, got %d", ErrConfig, numBeasts)
	}
	return &Planner{catalogue: c, numBeasts: numBeasts, rng: rng}, nil
}

// SelectGenerators draws GeneratorsPerRound distinct candidates, retrying
// until every group is covered.
func (p *Planner) SelectGenerators() ([]Generator, error) {
	for range maxSelectionAttempts {
		picked := p.draw()
		if coversAllGroups(picked) {
			gens := make([]Generator, len(picked))
			for i, c := range picked {
				gens[i] = Generator{Location: c.Location, Name: c.Name}
			}
			return gens, nil
		}
	}
	return nil, fmt.Errorf("%w: no group-covering draw after %d attempts", ErrCatalogue, maxSelectionAttempts)
}

func (p *Planner) draw() []Candidate {
	pool := make([]int, len(p.catalogue))
	for i := range pool {
		pool[i] = i
	}
	picked := make([]Candidate, 0, GeneratorsPerRound)
	for range GeneratorsPerRound {
		i := p.rng.IntN(len(pool))
		picked = append(picked, p.catalogue[pool[i]])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return picked
}

func coversAllGroups(cands []Candidate) bool {
	var seen [GeneratorGroups + 1]bool
	for _, c := range cands {
		seen[c.Group] = true
	}
	for g := 1; g <= GeneratorGroups; g++ {
		if !seen[g] {
			return false
		}
	}
	return true
}

// AssignRoles drafts Beasts by preference and makes everyone else a Hiker.
// Preferences are consumed.
func (p *Planner) AssignRoles(players []Player) {
	// Highest priority first.
	var buckets [3][]int
	for i := range players {
		switch players[i].Prefers {
		case PreferBeast:
			buckets[0] = append(buckets[0], i)
		case PreferHiker:
			buckets[2] = append(buckets[2], i)
		default:
			buckets[1] = append(buckets[1], i)
		}
		players[i].Role = RoleHiker
		players[i].Prefers = ""
	}

	for range min(p.numBeasts, len(players)) {
		b := 0
		for len(buckets[b]) == 0 {
			b++
		}
		k := p.rng.IntN(len(buckets[b]))
		players[buckets[b][k]].Role = RoleBeast
		buckets[b] = append(buckets[b][:k], buckets[b][k+1:]...)
	}
}

// Setup turns the lobby in s into a fresh hiding-phase round.
func (p *Planner) Setup(s *State, course Course) error {
	gens, err := p.SelectGenerators()
	if err != nil {
		return err
	}

	for i := range s.Players {
		pl := &s.Players[i]
		pl.Coords = geo.Point{}
		pl.Speed = 0
		pl.Accuracy = 0
		pl.Alive = true
		pl.HasSafety = true
		pl.LastSeenSeq = 0
	}
	p.AssignRoles(s.Players)

	s.Phase = PhaseHiding
	s.Generators = gens
	s.Timer = 0
	s.TimerMax = SecondsPerPlayer * len(s.Players)
	s.BeastStart = course.BeastStart
	s.HikerStart = course.HikerStart
	s.SafetyHolder = NoSafetyHolder
	s.Winner = WinnerNone
	s.GameOverAt = nil
	s.Messages = []Message{}
	s.LastMessageSeq = 0
	return nil
}
