package game

import (
	"math/rand"
	"sync"
	"time"
)

// Clock supplies current time and timer scheduling so tests can drive both
// manually.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the stoppable handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the runtime clock.
func SystemClock() Clock {
	return systemClock{}
}

// Roller produces uniform draws in [0, 100).
type Roller interface {
	Roll() float64
}

type randRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *randRoller) Roll() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() * 100
}

// NewRoller returns a Roller seeded from the current time.
func NewRoller() Roller {
	return &randRoller{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}
