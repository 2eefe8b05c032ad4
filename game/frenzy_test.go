package game

import (
	"testing"
	"time"
)

// waitFor polls until cond holds; the frenzy trigger watch runs on its own
// goroutine.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func (g *Game) watchCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.watches)
}

func TestFrenzyMultiplierApplies(t *testing.T) {
	clock := newFakeClock()
	g := testGame(1, 0, "", clock, 5)

	// Draw 5 > 1: no win at the base chance.
	if out := g.Evaluate(msgFrom("alice"), clock.Now()); out.Kind != OutcomeRecorded {
		t.Fatalf("Expected OutcomeRecorded at base chance, got %v", out.Kind)
	}

	if err := g.activateFrenzy(time.Minute, 10); err != nil {
		t.Fatalf("activateFrenzy failed: %v", err)
	}
	if _, ok := g.FrenzyMultiplier(clock.Now()); !ok {
		t.Fatal("Expected an active frenzy")
	}

	// Draw 5 <= 1*10: the boosted chance wins.
	if out := g.Evaluate(msgFrom("alice"), clock.Now()); out.Kind != OutcomeWon {
		t.Errorf("Expected OutcomeWon with the frenzy multiplier, got %v", out.Kind)
	}
}

func TestFrenzyMultiplierAboveHundredAlwaysWins(t *testing.T) {
	clock := newFakeClock()
	g := testGame(60, 0, "", clock, 99.999)

	if err := g.activateFrenzy(time.Minute, 3); err != nil {
		t.Fatalf("activateFrenzy failed: %v", err)
	}

	// Effective chance 180 is not clamped; every draw in [0,100) wins.
	if out := g.Evaluate(msgFrom("alice"), clock.Now()); out.Kind != OutcomeWon {
		t.Errorf("Expected a certain win above 100%%, got %v", out.Kind)
	}
}

func TestFrenzyExpiresOnTimer(t *testing.T) {
	clock := newFakeClock()
	g := testGame(1, 0, "", clock, 5)

	if err := g.activateFrenzy(time.Minute, 10); err != nil {
		t.Fatalf("activateFrenzy failed: %v", err)
	}

	clock.Advance(time.Minute)
	if _, ok := g.FrenzyMultiplier(clock.Now()); ok {
		t.Fatal("Expected the frenzy to be cleared after its length elapsed")
	}

	// Back to the base chance: draw 5 > 1.
	if out := g.Evaluate(msgFrom("alice"), clock.Now()); out.Kind != OutcomeRecorded {
		t.Errorf("Expected OutcomeRecorded after frenzy expiry, got %v", out.Kind)
	}
}

func TestFrenzyRejectedWhileActive(t *testing.T) {
	clock := newFakeClock()
	g := testGame(1, 0, "", clock, 99)

	if err := g.activateFrenzy(time.Minute, 10); err != nil {
		t.Fatalf("activateFrenzy failed: %v", err)
	}
	if err := g.requestFrenzy(time.Minute, 5, 100); err != ErrFrenzyAlreadyActive {
		t.Errorf("Expected ErrFrenzyAlreadyActive at request time, got %v", err)
	}
	if err := g.activateFrenzy(time.Minute, 5); err != ErrFrenzyAlreadyActive {
		t.Errorf("Expected ErrFrenzyAlreadyActive at activation time, got %v", err)
	}

	// Once the first frenzy lapses, a new one is accepted again.
	clock.Advance(time.Minute)
	if err := g.requestFrenzy(time.Minute, 5, 100); err != nil {
		t.Errorf("Expected a new request after expiry to succeed, got %v", err)
	}
}

func TestFrenzyRequestValidation(t *testing.T) {
	clock := newFakeClock()
	g := testGame(1, 0, "", clock, 99)

	if err := g.requestFrenzy(0, 5, 100); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig for zero length, got %v", err)
	}
	if err := g.requestFrenzy(time.Minute, 0, 100); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig for zero multiplier, got %v", err)
	}
}

func TestPendingFrenzyDiscardsFirstMessage(t *testing.T) {
	notify := &recordingNotifier{}
	// Constant draw 50: never wins at MinChance, always trips a 100% trigger.
	r, clock := newTestRegistry(notify, 50)

	g, _ := r.StartGame("chan", MinChance, 0, "")
	if err := r.RequestFrenzy(g.ID, time.Minute, 10, 100); err != nil {
		t.Fatalf("RequestFrenzy failed: %v", err)
	}

	msg := Message{ChannelID: "chan", AuthorID: "alice"}

	// One observed message cannot activate: it is discarded unconditionally.
	r.HandleMessage(msg)
	time.Sleep(20 * time.Millisecond)
	if _, ok := g.FrenzyMultiplier(clock.Now()); ok {
		t.Fatal("Expected the first observed message to be discarded")
	}

	// The second message rolls the trigger and activates.
	clock.Advance(10 * time.Second)
	r.HandleMessage(msg)
	waitFor(t, "frenzy activation", func() bool {
		_, ok := g.FrenzyMultiplier(clock.Now())
		return ok
	})

	if notify.frenzyCount() != 1 {
		t.Errorf("Expected one frenzy announcement, got %d", notify.frenzyCount())
	}
	waitFor(t, "watch teardown", func() bool { return g.watchCount() == 0 })
}

func TestEndGameCancelsPendingFrenzy(t *testing.T) {
	r, clock := newTestRegistry(nil, 50)

	g, _ := r.StartGame("chan", MinChance, 0, "")
	if err := r.RequestFrenzy(g.ID, time.Minute, 10, 100); err != nil {
		t.Fatalf("RequestFrenzy failed: %v", err)
	}

	r.HandleMessage(Message{ChannelID: "chan", AuthorID: "alice"})

	if err := r.EndGame(g.ID); err != nil {
		t.Fatalf("EndGame failed: %v", err)
	}
	waitFor(t, "pending watch cancellation", func() bool { return g.watchCount() == 0 })

	// Even force-feeding more observations must not activate a frenzy for
	// a dead game.
	g.offerFrenzyMessage()
	g.offerFrenzyMessage()
	time.Sleep(20 * time.Millisecond)
	if _, ok := g.FrenzyMultiplier(clock.Now()); ok {
		t.Error("Expected no frenzy activation after the game ended")
	}
}

func TestEndGameClearsActiveFrenzy(t *testing.T) {
	r, clock := newTestRegistry(nil, 99)

	g, _ := r.StartGame("chan", 1, 0, "")
	if err := g.activateFrenzy(time.Hour, 10); err != nil {
		t.Fatalf("activateFrenzy failed: %v", err)
	}

	if err := r.EndGame(g.ID); err != nil {
		t.Fatalf("EndGame failed: %v", err)
	}
	if _, ok := g.FrenzyMultiplier(clock.Now()); ok {
		t.Error("Expected EndGame to force-clear the frenzy")
	}
}

func TestConcurrentWatchesOnlyOneActivates(t *testing.T) {
	notify := &recordingNotifier{}
	r, clock := newTestRegistry(notify, 50)

	g, _ := r.StartGame("chan", MinChance, 0, "")

	// Two pending requests are fine; exclusivity is enforced at activation.
	if err := r.RequestFrenzy(g.ID, time.Hour, 10, 100); err != nil {
		t.Fatalf("First RequestFrenzy failed: %v", err)
	}
	if err := r.RequestFrenzy(g.ID, time.Hour, 10, 100); err != nil {
		t.Fatalf("Second RequestFrenzy failed: %v", err)
	}

	msg := Message{ChannelID: "chan", AuthorID: "alice"}
	for i := 0; i < 2; i++ {
		clock.Advance(10 * time.Second)
		r.HandleMessage(msg)
	}

	// Both watches trigger on the second message; the slower one is
	// rejected at activation time and ends silently.
	waitFor(t, "both watches to finish", func() bool { return g.watchCount() == 0 })
	if _, ok := g.FrenzyMultiplier(clock.Now()); !ok {
		t.Error("Expected one frenzy to be active")
	}
	if notify.frenzyCount() != 1 {
		t.Errorf("Expected exactly one frenzy announcement, got %d", notify.frenzyCount())
	}

	if err := r.RequestFrenzy(g.ID, time.Hour, 5, 100); err != ErrFrenzyAlreadyActive {
		t.Errorf("Expected ErrFrenzyAlreadyActive while one runs, got %v", err)
	}
}
