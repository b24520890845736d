package bingo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amenassefagashaye/USA3/internal/protocol"
)

type inbox struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (c *inbox) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, append([]byte(nil), b...))
	return nil
}

func (c *inbox) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(m, &env)
		out = append(out, env.Type)
	}
	return out
}

type brokenConn struct{}

func (brokenConn) Send([]byte) error { return errors.New("connection reset") }

type panickingConn struct{}

func (panickingConn) Send([]byte) error { panic("closed channel") }

type resultSink struct {
	ch chan RoundResult
}

func (s resultSink) RecordResult(_ context.Context, r RoundResult) error {
	s.ch <- r
	return nil
}

func newTestRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRegistry(context.Background(), logger, NewGenerator(42), opts)
	t.Cleanup(r.Close)
	return r
}

func fastOptions() Options {
	return Options{FirstDrawDelay: time.Millisecond, DrawInterval: time.Millisecond}
}

// slowOptions keeps the scheduler from firing during a test.
func slowOptions() Options {
	return Options{FirstDrawDelay: time.Hour, DrawInterval: time.Hour}
}

func TestRegistryCreateGetList(t *testing.T) {
	r := newTestRegistry(t, slowOptions())

	a, err := r.Create(Game75Ball)
	require.NoError(t, err)
	b, err := r.Create(Game90Ball)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Active)
	assert.Empty(t, a.Participants)

	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, Game75Ball, got.GameType)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = r.Create("bogus")
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestRegistryJoin(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	s, err := r.Create(Game75Ball)
	require.NoError(t, err)

	first := &inbox{}
	p, err := r.Join(s.ID, NewParticipant{ID: "p1", DisplayName: "Abebe", Stake: 10, Payment: 50, Conn: first})
	require.NoError(t, err)
	assert.Len(t, p.BoardNumbers, 25)
	assert.True(t, p.Connected)
	assert.Equal(t, int64(50), p.Balance)

	second := &inbox{}
	_, err = r.Join(s.ID, NewParticipant{ID: "p2", DisplayName: "Sara", Stake: 15, Conn: second})
	require.NoError(t, err)

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Pot)
	require.Len(t, got.Participants, 2)
	assert.Equal(t, "p1", got.Participants[0].ID)

	assert.Equal(t, []string{"joined", "playerJoined", "playerJoined"}, first.types())
	assert.Equal(t, []string{"joined", "playerJoined"}, second.types())

	t.Run("duplicate join does not double count", func(t *testing.T) {
		_, err := r.Join(s.ID, NewParticipant{ID: "p1", Stake: 10})
		assert.ErrorIs(t, err, ErrOperationNotAllowed)
		got, _ := r.Get(s.ID)
		assert.Equal(t, int64(25), got.Pot)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := r.Join("missing", NewParticipant{})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("generated id", func(t *testing.T) {
		p, err := r.Join(s.ID, NewParticipant{Stake: 0})
		require.NoError(t, err)
		assert.Contains(t, p.ID, "player_")
	})

	t.Run("after start", func(t *testing.T) {
		require.NoError(t, r.Start(s.ID))
		_, err := r.Join(s.ID, NewParticipant{ID: "late", Stake: 5})
		assert.ErrorIs(t, err, ErrOperationNotAllowed)
		assert.ErrorIs(t, r.Start(s.ID), ErrOperationNotAllowed)
	})
}

func TestRegistryConcurrentJoinsSumPot(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	s, err := r.Create(Game30Ball)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Join(s.ID, NewParticipant{Stake: 2})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Pot)
	assert.Len(t, got.Participants, 50)
}

func TestRegistryReset(t *testing.T) {
	r := newTestRegistry(t, fastOptions())
	s, err := r.Create(Game30Ball)
	require.NoError(t, err)
	_, err = r.Join(s.ID, NewParticipant{ID: "p1", Stake: 25, Payment: 25})
	require.NoError(t, err)
	_, _, err = r.Mark(s.ID, "p1", 3)
	require.NoError(t, err)

	require.NoError(t, r.Start(s.ID))
	require.Eventually(t, func() bool {
		v, _ := r.Get(s.ID)
		return v.Winner != nil
	}, 2*time.Second, 5*time.Millisecond)

	before, _ := r.Get(s.ID)
	require.NoError(t, r.Reset(s.ID, false))
	after, err := r.Get(s.ID)
	require.NoError(t, err)

	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.GameType, after.GameType)
	assert.False(t, after.Active)
	assert.False(t, after.Drawing)
	assert.Empty(t, after.Drawn)
	assert.Zero(t, after.Current)
	assert.Nil(t, after.Winner)
	assert.Empty(t, after.WinningPattern)
	assert.Equal(t, int64(25), after.Pot, "pot carries over")
	require.Len(t, after.Participants, 1)
	assert.Len(t, after.Participants[0].BoardNumbers, 9)
	assert.Empty(t, after.Participants[0].MarkedNumbers)

	require.NoError(t, r.Reset(s.ID, true))
	cleared, _ := r.Get(s.ID)
	assert.Zero(t, cleared.Pot)

	assert.ErrorIs(t, r.Reset("missing", false), ErrSessionNotFound)
}

func TestScenario30BallFullHouse(t *testing.T) {
	sink := resultSink{ch: make(chan RoundResult, 1)}
	opts := fastOptions()
	opts.Recorder = sink
	r := newTestRegistry(t, opts)

	s, err := r.Create(Game30Ball)
	require.NoError(t, err)
	conn := &inbox{}
	_, err = r.Join(s.ID, NewParticipant{ID: "p1", DisplayName: "Abebe", Stake: 25, Payment: 25, Conn: conn})
	require.NoError(t, err)

	got, _ := r.Get(s.ID)
	require.Equal(t, int64(25), got.Pot)

	require.NoError(t, r.Start(s.ID))
	require.Eventually(t, func() bool {
		v, _ := r.Get(s.ID)
		return v.Winner != nil
	}, 2*time.Second, 5*time.Millisecond)

	v, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", v.Winner.ID)
	assert.Equal(t, PatternFullHouse, v.WinningPattern)
	assert.False(t, v.Drawing)
	assert.Equal(t, int64(25+19), v.Winner.Balance)
	assert.Equal(t, int64(19), v.Winner.TotalWon)

	seen := map[int]bool{}
	for _, n := range v.Drawn {
		assert.True(t, n >= 1 && n <= 30)
		assert.False(t, seen[n], "duplicate draw %d", n)
		seen[n] = true
	}
	for _, n := range v.Participants[0].BoardNumbers {
		assert.True(t, seen[n], "board number %d not drawn", n)
	}
	assert.Equal(t, v.Drawn[len(v.Drawn)-1], v.Current)

	select {
	case res := <-sink.ch:
		assert.Equal(t, int64(19), res.Winnings)
		assert.Equal(t, DecidedByScheduler, res.DecidedBy)
		assert.Equal(t, v.Drawn, res.Drawn)
	case <-time.After(time.Second):
		t.Fatal("round result was not recorded")
	}

	types := conn.types()
	assert.Equal(t, "winner", types[len(types)-1])
	called := 0
	for _, typ := range types {
		if typ == "numberCalled" {
			called++
		}
	}
	assert.Equal(t, len(v.Drawn), called)

	// No further draws after the win.
	count := len(v.Drawn)
	time.Sleep(20 * time.Millisecond)
	v, _ = r.Get(s.ID)
	assert.Len(t, v.Drawn, count)
}

func TestScenario90BallTwoPlayers(t *testing.T) {
	r := newTestRegistry(t, fastOptions())
	s, err := r.Create(Game90Ball)
	require.NoError(t, err)

	_, err = r.Join(s.ID, NewParticipant{ID: "p1", Stake: 10, Payment: 10})
	require.NoError(t, err)
	_, err = r.Join(s.ID, NewParticipant{ID: "p2", Stake: 15, Payment: 15})
	require.NoError(t, err)

	got, _ := r.Get(s.ID)
	require.Equal(t, int64(25), got.Pot)

	require.NoError(t, r.Start(s.ID))
	require.Eventually(t, func() bool {
		v, _ := r.Get(s.ID)
		return v.Winner != nil
	}, 2*time.Second, 5*time.Millisecond)

	v, _ := r.Get(s.ID)
	// Line patterns precede full-house in the 90-ball list, and every draw
	// completes at most one row, so the first line ends the round.
	assert.Equal(t, PatternOneLine, v.WinningPattern)
	assert.Equal(t, int64(19), v.Winner.TotalWon)
}

// armDrawing puts a session into the drawing state without launching the
// scheduler goroutine, so tests can drive drawOnce by hand.
func armDrawing(s *Session) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.drawing = true
	s.drawGen++
	return s.drawGen
}

func TestDrawTieGoesToFirstEnrolled(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game30Ball)
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "early", Stake: 5})
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "late", Stake: 5})
	require.NoError(t, err)

	s, _ := r.lookup(v.ID)
	s.mu.Lock()
	shared := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	s.participants["early"].BoardNumbers = shared
	s.participants["late"].BoardNumbers = append([]int(nil), shared...)
	s.mu.Unlock()

	gen := armDrawing(s)
	for i := 0; i < 30 && r.drawOnce(s, gen); i++ {
	}

	got, _ := r.Get(v.ID)
	require.NotNil(t, got.Winner)
	assert.Equal(t, "early", got.Winner.ID)
	assert.Zero(t, got.Participants[1].TotalWon)
}

func TestStopDrawingPreventsFurtherDraws(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game75Ball)
	require.NoError(t, err)
	s, _ := r.lookup(v.ID)

	gen := armDrawing(s)
	require.True(t, r.drawOnce(s, gen))

	require.NoError(t, r.StopDrawing(v.ID))
	require.NoError(t, r.StopDrawing(v.ID))
	assert.False(t, r.drawOnce(s, gen))

	got, _ := r.Get(v.ID)
	assert.Len(t, got.Drawn, 1)
	assert.True(t, got.Active, "stopping pauses drawing but keeps the game active")
	assert.False(t, got.Drawing)

	assert.ErrorIs(t, r.StopDrawing("missing"), ErrSessionNotFound)
}

func TestDrawExhaustionStops(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game30Ball)
	require.NoError(t, err)
	s, _ := r.lookup(v.ID)

	gen := armDrawing(s)
	draws := 0
	for r.drawOnce(s, gen) {
		draws++
		require.LessOrEqual(t, draws, 30)
	}

	got, _ := r.Get(v.ID)
	assert.Len(t, got.Drawn, 30)
	assert.True(t, got.Exhausted)
	assert.False(t, got.Drawing)
	assert.ErrorIs(t, r.Start(v.ID), ErrDrawsExhausted)

	require.NoError(t, r.Reset(v.ID, false))
	got, _ = r.Get(v.ID)
	assert.False(t, got.Exhausted)
}

func TestClaim(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game30Ball)
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "p1", Stake: 1000, Payment: 0})
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "p2", Stake: 0})
	require.NoError(t, err)

	s, _ := r.lookup(v.ID)
	s.mu.Lock()
	board := s.participants["p1"].BoardNumbers
	s.mu.Unlock()

	t.Run("self-reported marks are not trusted", func(t *testing.T) {
		var hint Pattern
		for _, n := range board {
			p, ok, err := r.Mark(v.ID, "p1", n)
			require.NoError(t, err)
			if ok {
				hint = p
			}
		}
		assert.Equal(t, PatternFullHouse, hint, "advisory hint follows marks")

		_, err := r.Claim(v.ID, "p1")
		assert.ErrorIs(t, err, ErrNoWinningPattern)
	})

	t.Run("mark validation", func(t *testing.T) {
		_, _, err := r.Mark(v.ID, "p1", 31)
		assert.ErrorIs(t, err, ErrInvalidCommand)
		_, _, err = r.Mark(v.ID, "nobody", 3)
		assert.ErrorIs(t, err, ErrParticipantNotFound)
	})

	s.mu.Lock()
	s.drawn = append([]int(nil), board...)
	s.mu.Unlock()

	t.Run("verified claim pays once", func(t *testing.T) {
		win, err := r.Claim(v.ID, "p1")
		require.NoError(t, err)
		assert.Equal(t, PatternFullHouse, win.Pattern)
		assert.Equal(t, int64(776), win.Amount)

		_, err = r.Claim(v.ID, "p1")
		assert.ErrorIs(t, err, ErrOperationNotAllowed)

		got, _ := r.Get(v.ID)
		assert.Equal(t, int64(776), got.Winner.TotalWon)
		assert.Equal(t, int64(776), got.Winner.Balance)
	})

	t.Run("scheduler does not declare a second winner", func(t *testing.T) {
		gen := armDrawing(s)
		assert.False(t, r.drawOnce(s, gen))
		got, _ := r.Get(v.ID)
		assert.Equal(t, "p1", got.Winner.ID)
	})
}

func TestBroadcastToleratesFailedDeliveries(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game75Ball)
	require.NoError(t, err)

	good := &inbox{}
	_, err = r.Join(v.ID, NewParticipant{ID: "a", Conn: brokenConn{}})
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "b", Conn: panickingConn{}})
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "c", Conn: good})
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "offline"})
	require.NoError(t, err)

	err = r.Broadcast(v.ID, protocol.AdminBroadcast{Message: json.RawMessage(`"hello"`)})
	require.NoError(t, err)

	types := good.types()
	assert.Equal(t, "adminBroadcast", types[len(types)-1])

	assert.ErrorIs(t, r.Broadcast("missing", protocol.AdminBroadcast{}), ErrSessionNotFound)
}

func TestDisconnectKeepsParticipant(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game75Ball)
	require.NoError(t, err)

	conn := &inbox{}
	_, err = r.Join(v.ID, NewParticipant{ID: "p1", Stake: 10, Conn: conn})
	require.NoError(t, err)
	before := len(conn.types())

	r.Disconnect(v.ID, "p1")
	require.NoError(t, r.Broadcast(v.ID, protocol.AdminBroadcast{Message: json.RawMessage(`1`)}))

	got, _ := r.Get(v.ID)
	require.Len(t, got.Participants, 1)
	assert.False(t, got.Participants[0].Connected)
	assert.Equal(t, int64(10), got.Pot)
	assert.Len(t, conn.types(), before)
}

func TestWithdraw(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game75Ball)
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "p1", Stake: 10, Payment: 40})
	require.NoError(t, err)

	balance, err := r.Withdraw(v.ID, "p1", 15)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)

	_, err = r.Withdraw(v.ID, "p1", 26)
	assert.ErrorIs(t, err, ErrOperationNotAllowed)
	_, err = r.Withdraw(v.ID, "p1", 0)
	assert.ErrorIs(t, err, ErrInvalidCommand)
	_, err = r.Withdraw(v.ID, "ghost", 1)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestRemoveParticipantAndSession(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game75Ball)
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "p1"})
	require.NoError(t, err)

	require.NoError(t, r.RemoveParticipant(v.ID, "p1"))
	assert.ErrorIs(t, r.RemoveParticipant(v.ID, "p1"), ErrParticipantNotFound)

	require.NoError(t, r.Start(v.ID))
	require.NoError(t, r.Remove(v.ID))
	_, err = r.Get(v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, r.List())
	assert.ErrorIs(t, r.Remove(v.ID), ErrSessionNotFound)
}

func TestZeroFirstDrawDelayDrawsImmediately(t *testing.T) {
	r := newTestRegistry(t, Options{FirstDrawDelay: 0, DrawInterval: time.Hour})
	v, err := r.Create(Game75Ball)
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "p1", Stake: 10})
	require.NoError(t, err)

	require.NoError(t, r.Start(v.ID))
	require.Eventually(t, func() bool {
		got, _ := r.Get(v.ID)
		return len(got.Drawn) == 1
	}, 500*time.Millisecond, 2*time.Millisecond)
}

func TestRejoinAfterDisconnect(t *testing.T) {
	r := newTestRegistry(t, slowOptions())
	v, err := r.Create(Game75Ball)
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "p1", Stake: 10, Conn: &inbox{}})
	require.NoError(t, err)
	before, _ := r.Get(v.ID)

	r.Disconnect(v.ID, "p1")

	conn := &inbox{}
	p, err := r.Join(v.ID, NewParticipant{ID: "p1", Stake: 10, Conn: conn})
	require.NoError(t, err)
	assert.True(t, p.Connected)
	assert.Equal(t, before.Participants[0].BoardNumbers, p.BoardNumbers)

	got, _ := r.Get(v.ID)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, int64(10), got.Pot)

	require.NoError(t, r.Broadcast(v.ID, protocol.AdminBroadcast{Message: json.RawMessage(`1`)}))
	assert.Equal(t, []string{"joined", "adminBroadcast"}, conn.types())

	t.Run("connected participant is still a duplicate", func(t *testing.T) {
		_, err := r.Join(v.ID, NewParticipant{ID: "p1", Conn: &inbox{}})
		assert.ErrorIs(t, err, ErrOperationNotAllowed)
	})

	t.Run("not once the game is running", func(t *testing.T) {
		r.Disconnect(v.ID, "p1")
		require.NoError(t, r.Start(v.ID))
		_, err := r.Join(v.ID, NewParticipant{ID: "p1", Conn: &inbox{}})
		assert.ErrorIs(t, err, ErrOperationNotAllowed)
	})
}

func TestClaimAfterCloseSkipsLedger(t *testing.T) {
	sink := resultSink{ch: make(chan RoundResult, 1)}
	opts := slowOptions()
	opts.Recorder = sink
	r := newTestRegistry(t, opts)

	v, err := r.Create(Game30Ball)
	require.NoError(t, err)
	_, err = r.Join(v.ID, NewParticipant{ID: "p1", Stake: 25})
	require.NoError(t, err)

	s, _ := r.lookup(v.ID)
	s.mu.Lock()
	s.drawn = append([]int(nil), s.participants["p1"].BoardNumbers...)
	s.mu.Unlock()

	r.Close()

	win, err := r.Claim(v.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(19), win.Amount)
	assert.Empty(t, sink.ch)
}
