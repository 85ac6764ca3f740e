package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/beasthike/internal/geo"
)

// Store durably keeps the whole game state.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// Event tells subscribers that the state changed.
type Event struct {
	Type  string `json:"type"`
	Phase Phase  `json:"phase"`
	Seq   int    `json:"seq"`
}

type Notifier interface {
	Publish(Event)
}

type Options struct {
	Course   Course
	Notifier Notifier
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine owns the single game. Every exported method runs under one lock for
// its whole read-modify-write span, including the save.
type Engine struct {
	mu       sync.Mutex
	state    State
	planner  *Planner
	store    Store
	logger   *slog.Logger
	notifier Notifier
	course   Course
	now      func() time.Time
	// savedAt is when the state last reached the store.
	savedAt time.Time
	// wake interrupts Run when a round ends between ticks.
	wake chan struct{}
}

// NewEngine restores the last saved state, or starts an empty lobby when
// nothing usable was saved.
func NewEngine(ctx context.Context, logger *slog.Logger, store Store, planner *Planner, opts Options) *Engine {
	e := &Engine{
		state:    NewState(),
		planner:  planner,
		store:    store,
		logger:   logger,
		notifier: opts.Notifier,
		course:   opts.Course,
		now:      opts.Now,
		wake:     make(chan struct{}, 1),
	}
	if e.now == nil {
		e.now = time.Now
	}

	s, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSavedState):
		logger.Info("no saved game, starting empty lobby")
	case err != nil:
		logger.Error("loading saved game", "error", err)
	default:
		e.state = s.clone()
		logger.Info("restored saved game", "phase", s.Phase, "players", len(s.Players))
	}
	return e
}

// commit persists the state and notifies subscribers. A failed save is
// logged; memory stays authoritative.
func (e *Engine) commit(ctx context.Context, typ string) {
	e.save(ctx)
	if e.notifier != nil {
		e.notifier.Publish(Event{Type: typ, Phase: e.state.Phase, Seq: e.state.LastMessageSeq})
	}
}

func (e *Engine) save(ctx context.Context) {
	if err := e.store.Save(context.WithoutCancel(ctx), e.state); err != nil {
		e.logger.Error("saving game state", "error", err)
		return
	}
	e.savedAt = e.now()
}

func (e *Engine) reset(ctx context.Context, reason string) {
	e.state = NewState()
	e.logger.Info("game reset", "reason", reason)
	e.commit(ctx, "reset")
}

func (e *Engine) endRound(w Winner) {
	now := e.now()
	e.state.Phase = PhaseGameOver
	e.state.Winner = w
	e.state.GameOverAt = &now
	if w == WinnerBeast {
		e.state.post(now, "The Beast wins!")
	} else {
		e.state.post(now, "The Hikers win!")
	}
	e.logger.Info("game over", "round_id", e.state.RoundID, "winner", w, "timer", e.state.Timer)

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

type JoinRequest struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Prefers Preference `json:"prefers"`
}

// Join adds a player to the lobby. Joining again with a known id updates the
// name and preference. Outside the lobby it does nothing.
func (e *Engine) Join(ctx context.Context, req JoinRequest) error {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.Prefers == "" {
		req.Prefers = PreferAny
	}
	if req.ID == "" || req.Name == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidInput)
	}
	if !req.Prefers.valid() {
		return fmt.Errorf("%w: unknown preference %q", ErrInvalidInput, req.Prefers)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseInactive {
		return nil
	}
	now := e.now()
	if p := e.state.player(req.ID); p != nil {
		p.Name = req.Name
		p.Prefers = req.Prefers
		p.LastPingAt = now
	} else {
		e.state.Players = append(e.state.Players, Player{
			ID:         req.ID,
			Name:       req.Name,
			Prefers:    req.Prefers,
			LastPingAt: now,
		})
		e.logger.Info("player joined", "player_id", req.ID, "prefers", req.Prefers)
	}
	e.commit(ctx, "join")
	return nil
}

// Fix is one GPS report from a device.
type Fix struct {
	Coords   geo.Point
	Speed    float64
	Accuracy float64
}

func (f Fix) valid() bool {
	for _, v := range []float64{f.Coords.Lat(), f.Coords.Long(), f.Speed, f.Accuracy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ReportPosition records a fix and starts the hunt once everyone stands at
// their start point.
func (e *Engine) ReportPosition(ctx context.Context, id string, fix Fix) error {
	if !fix.valid() {
		return fmt.Errorf("%w: position fields must be finite numbers", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.state.player(id)
	if p == nil {
		return nil
	}
	p.Coords = fix.Coords
	p.Speed = fix.Speed
	p.Accuracy = fix.Accuracy

	typ := "position"
	if e.state.Phase == PhaseHiding && e.state.everyoneAtStart() {
		e.state.Phase = PhaseActive
		e.state.post(e.now(), "The hunt has begun")
		e.logger.Info("hunt started", "round_id", e.state.RoundID)
		typ = "active"
	}
	e.commit(ctx, typ)
	return nil
}

// Activate powers up the first inactive generator in reach of the caller.
func (e *Engine) Activate(ctx context.Context, id string) {
	e.toggleGenerator(ctx, id, true)
}

// Deactivate shuts down the first active generator in reach of the caller.
func (e *Engine) Deactivate(ctx context.Context, id string) {
	e.toggleGenerator(ctx, id, false)
}

func (e *Engine) toggleGenerator(ctx context.Context, id string, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseActive {
		return
	}
	p := e.state.player(id)
	if p == nil {
		return
	}
	g := e.state.generatorInRange(p, !on)
	if g == nil {
		return
	}
	g.Active = on
	if on {
		e.state.post(e.now(), p.Name+" powered up "+g.Name)
	} else {
		e.state.post(e.now(), p.Name+" shut down "+g.Name)
	}
	e.commit(ctx, "generator")
}

// UseSafety spends the caller's personal safety and hands them the shared
// token. The last living Hiker cannot take it.
func (e *Engine) UseSafety(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseActive {
		return
	}
	p := e.state.player(id)
	if p == nil || !p.HasSafety || !p.Alive || e.state.livingHikers() <= 1 {
		return
	}
	p.HasSafety = false
	e.state.SafetyHolder = p.ID
	e.state.post(e.now(), p.Name+" is safe")
	e.commit(ctx, "safety")
}

// ResetSafety gives the caller their personal safety back.
func (e *Engine) ResetSafety(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseActive {
		return
	}
	p := e.state.player(id)
	if p == nil || p.HasSafety {
		return
	}
	p.HasSafety = true
	e.commit(ctx, "safety")
}

// Attack catches the first Hiker in reach of the caller, then settles the
// safety token and the Beast's win.
func (e *Engine) Attack(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseActive {
		return
	}
	attacker := e.state.player(id)
	if attacker == nil {
		return
	}

	changed := false
	if t := e.state.attackTarget(attacker); t != nil {
		t.Alive = false
		e.state.post(e.now(), t.Name+" was caught")
		e.logger.Info("hiker caught", "round_id", e.state.RoundID, "attacker", attacker.ID, "target", t.ID)
		changed = true
	}

	switch e.state.livingHikers() {
	case 0:
		e.endRound(WinnerBeast)
		changed = true
	case 1:
		if e.state.SafetyHolder != NoSafetyHolder {
			e.state.SafetyHolder = NoSafetyHolder
			changed = true
		}
	}
	if changed {
		e.commit(ctx, "attack")
	}
}

// Start drafts a new round from the lobby. It does nothing unless the game
// is inactive with at least one player.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseInactive || len(e.state.Players) == 0 {
		return nil
	}
	if err := e.planner.Setup(&e.state, e.course); err != nil {
		return fmt.Errorf("setting up round: %w", err)
	}
	e.state.RoundID = uuid.NewString()
	e.logger.Info("round started",
		"round_id", e.state.RoundID,
		"players", len(e.state.Players),
		"timer_max", e.state.TimerMax,
	)
	e.commit(ctx, "started")
	return nil
}

// Reset unconditionally empties the game.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(ctx, "requested")
}

// Tick advances the hunt timer and performs the delayed reset after a game
// over. The background loop calls it once per interval.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	switch e.state.Phase {
	case PhaseActive:
		step := TimerStep(e.state.activeGenerators())
		if step == 0 {
			return
		}
		e.state.Timer += step
		if e.state.Timer >= e.state.TimerMax {
			e.endRound(WinnerHikers)
			e.commit(ctx, "gameover")
			return
		}
		e.commit(ctx, "tick")
	case PhaseGameOver:
		if e.state.GameOverAt == nil || !now.Before(e.state.GameOverAt.Add(GameOverResetDelay)) {
			e.reset(ctx, "game over")
		}
	}
}

// Run ticks until ctx is done. A pending gameover reset shortens the wait
// so the lobby comes back GameOverResetDelay after the round ended, even
// when interval is longer.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	timer := time.NewTimer(e.nextTick(interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.wake:
			timer.Reset(e.nextTick(interval))
		case <-timer.C:
			e.Tick(ctx)
			timer.Reset(e.nextTick(interval))
		}
	}
}

func (e *Engine) nextTick(interval time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseGameOver || e.state.GameOverAt == nil {
		return interval
	}
	due := e.state.GameOverAt.Add(GameOverResetDelay).Sub(e.now())
	return max(0, min(interval, due))
}
