package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Game ids are short enough for admins to type.
const (
	minGameID = 1000
	maxGameID = 9999
)

// Notifier is the chat-platform collaborator the core reports through. Send
// failures are the implementation's problem; evaluation never depends on
// them succeeding.
type Notifier interface {
	// GameWon announces the winner publicly and records the result.
	GameWon(g *Game, userID string)
	// UserThrottled tells a user privately how long their messages will
	// not count. A user with closed DMs must be ignored, not an error.
	UserThrottled(g *Game, userID string, seconds int)
	// FrenzyStarted announces an activated frenzy.
	FrenzyStarted(g *Game, length time.Duration, multiplier float64)
}

type noopNotifier struct{}

func (noopNotifier) GameWon(*Game, string)                      {}
func (noopNotifier) UserThrottled(*Game, string, int)           {}
func (noopNotifier) FrenzyStarted(*Game, time.Duration, float64) {}

// Registry maps game ids to running games and routes inbound messages to
// every game bound to their channel. The map itself is guarded by an
// RWMutex; each game's state is guarded by its own mutex, so operations on
// unrelated games never serialize.
type Registry struct {
	mu    sync.RWMutex
	games map[int]*Game

	clock  Clock
	roll   Roller
	notify Notifier
}

// NewRegistry builds a registry. A nil notifier disables notifications,
// which is what the tests want.
func NewRegistry(clock Clock, roll Roller, notify Notifier) *Registry {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &Registry{
		games:  make(map[int]*Game),
		clock:  clock,
		roll:   roll,
		notify: notify,
	}
}

// StartGame creates a game bound to channelID and returns it. The chance is
// a percent probability per eligible message and must lie in
// [MinChance, MaxChance].
func (r *Registry) StartGame(channelID string, chance float64, cooldown time.Duration, requiredRole string) (*Game, error) {
	if chance < MinChance || chance > MaxChance {
		return nil, ErrInvalidConfig
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := minGameID + rand.Intn(maxGameID-minGameID+1)
	for {
		if _, taken := r.games[id]; !taken {
			break
		}
		id = minGameID + rand.Intn(maxGameID-minGameID+1)
	}

	g := newGame(id, channelID, chance, cooldown, requiredRole, r.clock, r.roll, r.notify)
	r.games[id] = g
	return g, nil
}

// Get looks up a running game.
func (r *Registry) Get(id int) (*Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// EndGame deactivates and removes a game, cancelling any pending frenzy
// watch and clearing a running frenzy. Ending an unknown or already-ended
// game reports ErrGameNotFound.
func (r *Registry) EndGame(id int) error {
	r.mu.Lock()
	g, ok := r.games[id]
	if ok {
		delete(r.games, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrGameNotFound
	}
	g.shutdown()
	return nil
}

// BanUser excludes a user from a game's evaluation.
func (r *Registry) BanUser(id int, userID string) error {
	g, ok := r.Get(id)
	if !ok {
		return ErrGameNotFound
	}
	return g.BanUser(userID)
}

// UnbanUser lifts a game ban.
func (r *Registry) UnbanUser(id int, userID string) error {
	g, ok := r.Get(id)
	if !ok {
		return ErrGameNotFound
	}
	return g.UnbanUser(userID)
}

// RequestFrenzy starts a pending frenzy watch on a game.
func (r *Registry) RequestFrenzy(id int, length time.Duration, multiplier, triggerChance float64) error {
	g, ok := r.Get(id)
	if !ok {
		return ErrGameNotFound
	}
	return g.requestFrenzy(length, multiplier, triggerChance)
}

// ActiveGameIDs lists running game ids in ascending order.
func (r *Registry) ActiveGameIDs() []int {
	r.mu.RLock()
	ids := make([]int, 0, len(r.games))
	for id, g := range r.games {
		if g.Active() {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	sort.Ints(ids)
	return ids
}

// HandleMessage offers one inbound message to every game bound to its
// channel, dispatches notifications for the outcome, and removes a game
// that was just won. Every observed message is also fed to the channel's
// pending frenzy watches, whatever the evaluation outcome.
func (r *Registry) HandleMessage(msg Message) {
	r.mu.RLock()
	matched := make([]*Game, 0, 1)
	for _, g := range r.games {
		if g.ChannelID == msg.ChannelID {
			matched = append(matched, g)
		}
	}
	r.mu.RUnlock()

	now := r.clock.Now()
	for _, g := range matched {
		out := g.Evaluate(msg, now)
		g.offerFrenzyMessage()

		switch out.Kind {
		case OutcomeThrottled:
			r.notify.UserThrottled(g, msg.AuthorID, out.RetryAfter)
		case OutcomeWon:
			r.remove(g)
			r.notify.GameWon(g, msg.AuthorID)
		}
	}
}

func (r *Registry) remove(g *Game) {
	r.mu.Lock()
	delete(r.games, g.ID)
	r.mu.Unlock()
	g.shutdown()
}

// Shutdown ends every game; used on process exit so pending frenzy watches
// do not leak.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	games := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	r.games = make(map[int]*Game)
	r.mu.Unlock()

	for _, g := range games {
		g.shutdown()
	}
}
