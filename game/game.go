package game

import (
	"sync"
	"time"
)

// Chance bounds enforced when a game is created. Chances are percentages on
// a continuous scale.
const (
	MinChance = 0.00001
	MaxChance = 100
)

// Spam detection: spamBurst messages inside spamWindow earns the sender a
// spamTimeout during which their messages are throttled.
const (
	spamWindow  = 3 * time.Second
	spamBurst   = 4
	spamTimeout = 15 * time.Second
)

// Message is one inbound chat message offered to a game. The timestamp is
// passed separately so the evaluator stays deterministic under test.
type Message struct {
	ChannelID string
	AuthorID  string
	RoleIDs   []string
}

// OutcomeKind classifies the evaluator's verdict for a single message.
type OutcomeKind int

const (
	// OutcomeIgnored means the message did not count: inactive game, role
	// mismatch, banned author, or author still on cooldown.
	OutcomeIgnored OutcomeKind = iota
	// OutcomeThrottled means the author tripped the burst limit or is
	// inside a spam timeout; the caller should notify them privately.
	OutcomeThrottled
	// OutcomeRecorded means the message counted but the roll did not win.
	OutcomeRecorded
	// OutcomeWon means the roll won; the game is now inactive.
	OutcomeWon
)

// Outcome carries the verdict and, for OutcomeThrottled, the remaining
// timeout in whole seconds. The remainder is truncated, so it can
// under-report by up to one second; the value is advisory text only.
type Outcome struct {
	Kind       OutcomeKind
	RetryAfter int
}

// Game holds the mutable state of one running message-drop contest bound to
// a single channel. All per-user tables treat a missing key as "never";
// read-only checks never insert keys.
type Game struct {
	ID           int
	ChannelID    string
	Chance       float64
	Cooldown     time.Duration
	RequiredRole string // empty means unrestricted

	clock  Clock
	roll   Roller
	notify Notifier

	mu             sync.Mutex
	active         bool
	banned         map[string]struct{}
	cooldownUntil  map[string]time.Time
	recentMessages map[string][]time.Time
	spamUntil      map[string]time.Time

	frenzyEnd   time.Time // zero when no frenzy is running
	frenzyMult  float64
	frenzyTimer Timer
	watches     []*frenzyWatch
}

func newGame(id int, channelID string, chance float64, cooldown time.Duration, role string, clock Clock, roll Roller, notify Notifier) *Game {
	return &Game{
		ID:             id,
		ChannelID:      channelID,
		Chance:         chance,
		Cooldown:       cooldown,
		RequiredRole:   role,
		clock:          clock,
		roll:           roll,
		notify:         notify,
		active:         true,
		banned:         make(map[string]struct{}),
		cooldownUntil:  make(map[string]time.Time),
		recentMessages: make(map[string][]time.Time),
		spamUntil:      make(map[string]time.Time),
		frenzyMult:     1,
	}
}

// Active reports whether the game is still running.
func (g *Game) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// FrenzyMultiplier returns the multiplier of the frenzy in effect at now,
// or (1, false) when none is running.
func (g *Game) FrenzyMultiplier(now time.Time) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.frenzyEnd.IsZero() && now.Before(g.frenzyEnd) {
		return g.frenzyMult, true
	}
	return 1, false
}

// Evaluate applies the game's filters to one message, in order: active flag,
// role requirement, ban list, spam burst, spam timeout, cooldown, and
// finally the win roll. Side effects are limited to the per-user tables
// and, on a win, deactivating the game.
func (g *Game) Evaluate(msg Message, now time.Time) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.active {
		return Outcome{Kind: OutcomeIgnored}
	}
	if g.RequiredRole != "" && !hasRole(msg.RoleIDs, g.RequiredRole) {
		return Outcome{Kind: OutcomeIgnored}
	}
	if _, banned := g.banned[msg.AuthorID]; banned {
		return Outcome{Kind: OutcomeIgnored}
	}

	// Track the message and drop anything outside the trailing window.
	recent := append(g.recentMessages[msg.AuthorID], now)
	kept := recent[:0]
	for _, ts := range recent {
		if now.Sub(ts) <= spamWindow {
			kept = append(kept, ts)
		}
	}
	g.recentMessages[msg.AuthorID] = kept

	if len(kept) >= spamBurst {
		until := now.Add(spamTimeout)
		g.spamUntil[msg.AuthorID] = until
		// The burst message does not advance the cooldown.
		return Outcome{Kind: OutcomeThrottled, RetryAfter: remainingSeconds(until, now)}
	}

	if until, ok := g.spamUntil[msg.AuthorID]; ok && now.Before(until) {
		return Outcome{Kind: OutcomeThrottled, RetryAfter: remainingSeconds(until, now)}
	}

	if until, ok := g.cooldownUntil[msg.AuthorID]; ok && now.Before(until) {
		return Outcome{Kind: OutcomeIgnored}
	}
	g.cooldownUntil[msg.AuthorID] = now.Add(g.Cooldown)

	chance := g.Chance
	if !g.frenzyEnd.IsZero() && now.Before(g.frenzyEnd) {
		// A multiplied chance above 100 is a certain win; no clamp.
		chance *= g.frenzyMult
	}

	if g.roll.Roll() <= chance {
		g.active = false
		return Outcome{Kind: OutcomeWon}
	}
	return Outcome{Kind: OutcomeRecorded}
}

// BanUser excludes a user from evaluation entirely.
func (g *Game) BanUser(userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.banned[userID]; ok {
		return ErrAlreadyBanned
	}
	g.banned[userID] = struct{}{}
	return nil
}

// UnbanUser lifts a ban.
func (g *Game) UnbanUser(userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.banned[userID]; !ok {
		return ErrNotBanned
	}
	delete(g.banned, userID)
	return nil
}

// shutdown deactivates the game, cancels any pending frenzy watches, and
// clears a running frenzy regardless of its timer.
func (g *Game) shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
	for _, w := range g.watches {
		w.cancel()
	}
	g.watches = nil
	if g.frenzyTimer != nil {
		g.frenzyTimer.Stop()
		g.frenzyTimer = nil
	}
	g.frenzyEnd = time.Time{}
	g.frenzyMult = 1
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

// remainingSeconds truncates to whole seconds, matching the user-facing
// countdown texts elsewhere in the bot.
func remainingSeconds(until, now time.Time) int {
	return int(until.Sub(now).Seconds())
}
