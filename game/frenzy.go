package game

import (
	"context"
	"time"
)

// A frenzy temporarily multiplies the game's win chance. A request does not
// activate it immediately: the controller watches the channel's live
// message stream, discards the first observed message, then rolls the
// trigger chance against each subsequent one until a roll succeeds. The
// watch runs as its own goroutine so an unbounded wait never stalls other
// games, and it is cancelled when the owning game ends.
type frenzyWatch struct {
	ctx    context.Context
	cancel context.CancelFunc
	feed   chan struct{}
}

// requestFrenzy validates the request and starts a pending trigger watch.
// The "already active" check is repeated at activation time because the
// pending wait can span an arbitrarily long quiet period.
func (g *Game) requestFrenzy(length time.Duration, multiplier, triggerChance float64) error {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		return ErrGameNotFound
	}
	if length <= 0 || multiplier <= 0 {
		g.mu.Unlock()
		return ErrInvalidConfig
	}
	if !g.frenzyEnd.IsZero() && g.clock.Now().Before(g.frenzyEnd) {
		g.mu.Unlock()
		return ErrFrenzyAlreadyActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &frenzyWatch{ctx: ctx, cancel: cancel, feed: make(chan struct{}, 16)}
	g.watches = append(g.watches, w)
	g.mu.Unlock()

	go g.watchForTrigger(w, length, multiplier, triggerChance)
	return nil
}

func (g *Game) watchForTrigger(w *frenzyWatch, length time.Duration, multiplier, triggerChance float64) {
	defer g.removeWatch(w)

	// The first message seen after the request never counts toward the
	// trigger, so a frenzy cannot fire on the message that prompted it.
	select {
	case <-w.ctx.Done():
		return
	case <-w.feed:
	}

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.feed:
			if g.roll.Roll() > triggerChance {
				continue
			}
			// The watch ends here whether or not activation is
			// accepted; a concurrent frenzy rejects it.
			if err := g.activateFrenzy(length, multiplier); err == nil {
				g.notify.FrenzyStarted(g, length, multiplier)
			}
			return
		}
	}
}

// activateFrenzy re-checks eligibility at the moment of activation, sets
// the window, and schedules the automatic reversion timer.
func (g *Game) activateFrenzy(length time.Duration, multiplier float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return ErrGameNotFound
	}
	now := g.clock.Now()
	if !g.frenzyEnd.IsZero() && now.Before(g.frenzyEnd) {
		return ErrFrenzyAlreadyActive
	}

	end := now.Add(length)
	g.frenzyEnd = end
	g.frenzyMult = multiplier
	if g.frenzyTimer != nil {
		g.frenzyTimer.Stop()
	}
	g.frenzyTimer = g.clock.AfterFunc(length, func() { g.expireFrenzy(end) })
	return nil
}

// expireFrenzy reverts the window set with the matching end time. A stale
// timer firing after the game was ended or re-frenzied is a no-op.
func (g *Game) expireFrenzy(end time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.frenzyEnd.Equal(end) {
		return
	}
	g.frenzyEnd = time.Time{}
	g.frenzyMult = 1
	g.frenzyTimer = nil
}

// offerFrenzyMessage feeds one observed message to every pending watch.
// Sends are non-blocking; a saturated watch just misses the message.
func (g *Game) offerFrenzyMessage() {
	g.mu.Lock()
	watches := make([]*frenzyWatch, len(g.watches))
	copy(watches, g.watches)
	g.mu.Unlock()

	for _, w := range watches {
		select {
		case w.feed <- struct{}{}:
		default:
		}
	}
}

func (g *Game) removeWatch(w *frenzyWatch) {
	w.cancel()
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, cur := range g.watches {
		if cur == w {
			g.watches = append(g.watches[:i], g.watches[i+1:]...)
			break
		}
	}
}
