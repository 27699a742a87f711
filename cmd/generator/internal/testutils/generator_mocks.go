package testutils

import (
	"sync"
	"time"
)

type MockClock struct {
	CurrentTime time.Time
	Mu          sync.Mutex
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) Sleep(d time.Duration) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.CurrentTime = m.CurrentTime.Add(d)
}

type MockRand struct {
	ValInt   int
	ValFloat float64
}

func (m *MockRand) Intn(n int) int   { return m.ValInt }
func (m *MockRand) Float64() float64 { return m.ValFloat }

// Wednesday 2024-03-06 at the given Eastern (UTC-5) wall time.
func EasternTime(hour, minute int) time.Time {
	return time.Date(2024, 3, 6, hour+5, minute, 0, 0, time.UTC)
}
