package generator

import (
	"math/rand"
	"time"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// for deterministic values
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

func NewRealRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
