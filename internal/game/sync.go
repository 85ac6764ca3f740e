package game

import (
	"context"
	"time"
)

// Snapshot serves one poll. Known players get only the messages they have
// not seen yet, and their cursor moves to the newest message. Anyone else
// gets the full log and no cursor changes.
//
// Before answering, a game nobody has polled for IdleTimeout is reset.
// A read that moves no cursor is only persisted every PingSaveInterval.
func (e *Engine) Snapshot(ctx context.Context, playerID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !e.state.pristine() && !e.anyoneSince(now.Add(-IdleTimeout)) {
		e.reset(ctx, "idle")
	}

	p := e.state.player(playerID)
	if p == nil {
		return e.state.clone()
	}

	cursor := p.LastSeenSeq
	p.LastSeenSeq = max(p.LastSeenSeq, e.state.LastMessageSeq)
	p.LastPingAt = now

	snap := e.state.clone()
	snap.Messages = unseen(e.state.Messages, cursor)

	if p.LastSeenSeq != cursor || now.Sub(e.savedAt) >= PingSaveInterval {
		e.save(ctx)
	}
	return snap
}

func (e *Engine) anyoneSince(t time.Time) bool {
	for _, p := range e.state.Players {
		if p.LastPingAt.After(t) {
			return true
		}
	}
	return false
}

// unseen returns a copy of the messages newer than cursor. The log is
// ordered by seq.
func unseen(log []Message, cursor int) []Message {
	out := []Message{}
	for _, m := range log {
		if m.Seq > cursor {
			out = append(out, m)
		}
	}
	return out
}
