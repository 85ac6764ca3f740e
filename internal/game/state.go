// Package game holds the authoritative state of a Hikers vs Beast round and
// the rules that mutate it.
package game

import (
	"errors"
	"slices"
	"time"

	"github.com/playperu/beasthike/internal/geo"
)

// Phase is the top-level position of the game state machine.
type Phase string

const (
	PhaseInactive Phase = "inactive"
	PhaseHiding   Phase = "hiding"
	PhaseActive   Phase = "active"
	PhaseGameOver Phase = "gameover"
)

type Role string

const (
	RoleNone  Role = ""
	RoleHiker Role = "Hiker"
	RoleBeast Role = "Beast"
)

// Preference is the role a player asked for when joining.
type Preference string

const (
	PreferAny   Preference = "any"
	PreferHiker Preference = "hiker"
	PreferBeast Preference = "beast"
)

func (p Preference) valid() bool {
	switch p {
	case PreferAny, PreferHiker, PreferBeast:
		return true
	}
	return false
}

type Winner string

const (
	WinnerNone   Winner = ""
	WinnerHikers Winner = "hikers"
	WinnerBeast  Winner = "beast"
)

// NoSafetyHolder means nobody holds the shared safety token.
const NoSafetyHolder = ""

var (
	// ErrInvalidInput marks a request that was rejected before touching state.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoSavedState is returned by a Store that has never been written.
	ErrNoSavedState = errors.New("no saved state")
)

type Player struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Prefers     Preference `json:"prefers,omitempty"`
	Role        Role       `json:"role,omitempty"`
	Coords      geo.Point  `json:"coords"`
	Speed       float64    `json:"speed"`
	Accuracy    float64    `json:"accuracy"`
	Alive       bool       `json:"alive"`
	HasSafety   bool       `json:"hasSafety"`
	LastPingAt  time.Time  `json:"lastPingAt"`
	LastSeenSeq int        `json:"lastSeenSeq"`
}

type Generator struct {
	Location geo.Point `json:"location"`
	Name     string    `json:"name"`
	Active   bool      `json:"active"`
}

// Message is one entry of the round's event log.
type Message struct {
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"createdAt"`
	Text      string    `json:"text"`
}

// State is the whole game as seen by the server and persisted as one document.
type State struct {
	RoundID        string      `json:"roundId,omitempty"`
	Phase          Phase       `json:"phase"`
	Players        []Player    `json:"players"`
	Generators     []Generator `json:"generators"`
	Timer          int         `json:"timer"`
	TimerMax       int         `json:"timerMax"`
	BeastStart     geo.Point   `json:"beastStart"`
	HikerStart     geo.Point   `json:"hikerStart"`
	SafetyHolder   string      `json:"safetyHolder"`
	Winner         Winner      `json:"winner,omitempty"`
	GameOverAt     *time.Time  `json:"gameOverAt,omitempty"`
	Messages       []Message   `json:"messages"`
	LastMessageSeq int         `json:"lastMessageSeq"`
}

// NewState returns the empty lobby every reset goes back to.
func NewState() State {
	return State{
		Phase:      PhaseInactive,
		Players:    []Player{},
		Generators: []Generator{},
		Messages:   []Message{},
	}
}

func (s *State) player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *State) livingHikers() int {
	n := 0
	for _, p := range s.Players {
		if p.Alive && p.Role == RoleHiker {
			n++
		}
	}
	return n
}

func (s *State) activeGenerators() int {
	n := 0
	for _, g := range s.Generators {
		if g.Active {
			n++
		}
	}
	return n
}

func (s *State) post(now time.Time, text string) {
	s.LastMessageSeq++
	s.Messages = append(s.Messages, Message{
		Seq:       s.LastMessageSeq,
		CreatedAt: now,
		Text:      text,
	})
}

func (s *State) pristine() bool {
	return s.Phase == PhaseInactive && len(s.Players) == 0
}

// clone returns a copy that shares no slices with s.
func (s State) clone() State {
	c := s
	c.Players = slices.Clone(s.Players)
	c.Generators = slices.Clone(s.Generators)
	c.Messages = slices.Clone(s.Messages)
	if s.GameOverAt != nil {
		t := *s.GameOverAt
		c.GameOverAt = &t
	}
	if c.Players == nil {
		c.Players = []Player{}
	}
	if c.Generators == nil {
		c.Generators = []Generator{}
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	return c
}
