package game

import (
	"time"

	"github.com/playperu/beasthike/internal/geo"
)

// Radii in feet.
const (
	StartRadius      = 30
	ActivationRadius = 45
	AttackRadius     = 30
	MaxAccuracyBonus = 12
)

const (
	// GameOverResetDelay is how long the result stays up before the lobby resets.
	GameOverResetDelay = 5 * time.Second
	// IdleTimeout resets the game when no player has polled for this long.
	IdleTimeout = 5 * time.Minute
	// PingSaveInterval bounds how stale persisted pings may get. Reads that
	// move no cursor only save once the last save is this old.
	PingSaveInterval = 30 * time.Second
)

// timerSteps rewards powering several generators at once.
var timerSteps = [...]int{0, 1, 2, 4, 7}

// TimerStep is how many seconds one tick adds with n generators active.
func TimerStep(n int) int {
	if n <= 0 {
		return 0
	}
	if n >= len(timerSteps) {
		return timerSteps[len(timerSteps)-1]
	}
	return timerSteps[n]
}

// accuracyBonus inflates a radius by a GPS accuracy, capped so a bad fix
// cannot reach across the map.
func accuracyBonus(acc ...float64) float64 {
	b := float64(MaxAccuracyBonus)
	for _, a := range acc {
		b = min(b, a)
	}
	return max(0, b)
}

func (s *State) atStart(p Player) bool {
	start := s.HikerStart
	if p.Role == RoleBeast {
		start = s.BeastStart
	}
	return geo.Within(start, p.Coords, StartRadius+accuracyBonus(p.Accuracy))
}

func (s *State) everyoneAtStart() bool {
	for _, p := range s.Players {
		if !s.atStart(p) {
			return false
		}
	}
	return true
}

// generatorInRange returns the first generator in the given activity state
// that p can reach.
func (s *State) generatorInRange(p *Player, active bool) *Generator {
	radius := ActivationRadius + accuracyBonus(p.Accuracy)
	for i := range s.Generators {
		g := &s.Generators[i]
		if g.Active == active && geo.Within(g.Location, p.Coords, radius) {
			return g
		}
	}
	return nil
}

// attackTarget returns the first living Hiker the attacker can catch.
// Standing still shrinks the reach to the accuracy allowance alone.
func (s *State) attackTarget(attacker *Player) *Player {
	for i := range s.Players {
		t := &s.Players[i]
		if t.ID == attacker.ID || t.ID == s.SafetyHolder || !t.Alive || t.Role != RoleHiker {
			continue
		}
		reach := AttackRadius*max(0, min(1, t.Speed)) + accuracyBonus(attacker.Accuracy, t.Accuracy)
		if geo.Within(attacker.Coords, t.Coords, reach) {
			return t
		}
	}
	return nil
}
