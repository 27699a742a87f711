package players_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/players"
)

func worths(s []players.Standing) []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.NetWorth
	}
	return out
}

func TestRegister_DefaultsAndOverwrites(t *testing.T) {
	r := players.NewRegistry()
	r.Register("c1", "Ada")
	require.True(t, r.ReportNetWorth("c1", 12000))

	r.Register("c1", "Ada Lovelace")

	p, ok := r.Get("c1")
	require.True(t, ok)
	require.Equal(t, "Ada Lovelace", p.Name)
	require.Equal(t, players.StartingNetWorth, p.NetWorth)
	require.Equal(t, 1, r.Len())
}

func TestReportNetWorth_RequiresRegistration(t *testing.T) {
	r := players.NewRegistry()
	require.False(t, r.ReportNetWorth("ghost", 5))
	require.Equal(t, 0, r.Len())
}

func TestRemove_Idempotent(t *testing.T) {
	r := players.NewRegistry()
	r.Register("c1", "Ada")
	r.Remove("c1")
	r.Remove("c1")
	r.Remove("never")
	require.Equal(t, 0, r.Len())
	require.Empty(t, r.Leaderboard())
}

func TestLeaderboard_SortsDescending(t *testing.T) {
	r := players.NewRegistry()
	r.Register("a", "A")
	r.Register("b", "B")
	r.Register("c", "C")
	r.ReportNetWorth("a", 10000)
	r.ReportNetWorth("b", 15000)
	r.ReportNetWorth("c", 9000)

	board := r.Leaderboard()
	require.Equal(t, []float64{15000, 10000, 9000}, worths(board))
	require.Equal(t, "B", board[0].Name)
}

func TestLeaderboard_TiesAreStable(t *testing.T) {
	r := players.NewRegistry()
	r.Register("x", "First")
	r.Register("y", "Second")

	first := r.Leaderboard()
	require.Len(t, first, 2)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, r.Leaderboard())
	}
	require.Equal(t, "First", first[0].Name)
}

type recordingSink struct {
	mu    sync.Mutex
	calls [][]players.Standing
}

func (s *recordingSink) BroadcastLeaderboard(standings []players.Standing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, standings)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestBroadcaster_SendsEveryTickEvenWhenUnchanged(t *testing.T) {
	r := players.NewRegistry()
	r.Register("a", "A")
	sink := &recordingSink{}
	b := players.NewBroadcaster(r, sink, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Equal(t, sink.calls[0], sink.calls[2])
}

func TestBroadcaster_EmptyBoardStillBroadcasts(t *testing.T) {
	sink := &recordingSink{}
	b := players.NewBroadcaster(players.NewRegistry(), sink, time.Hour, zap.NewNop())
	b.Tick()
	require.Equal(t, 1, sink.count())
	require.NotNil(t, sink.calls[0])
}
