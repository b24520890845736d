package bingo

import (
	"context"
	"slices"
	"time"

	"github.com/amenassefagashaye/USA3/internal/protocol"
)

// startDrawingLocked launches the per-session draw loop. Caller holds s.mu.
func (r *Registry) startDrawingLocked(s *Session) {
	s.stopDrawingLocked()

	ctx, cancel := context.WithCancel(r.ctx)
	s.drawGen++
	s.stopDraw = cancel
	s.drawing = true

	go r.runDraws(ctx, s, s.drawGen)
}

func (r *Registry) runDraws(ctx context.Context, s *Session, gen uint64) {
	first := time.NewTimer(r.opts.FirstDrawDelay)
	defer first.Stop()

	select {
	case <-ctx.Done():
		return
	case <-first.C:
	}
	if !r.drawOnce(s, gen) {
		return
	}

	ticker := time.NewTicker(r.opts.DrawInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.drawOnce(s, gen) {
				return
			}
		}
	}
}

// drawOnce performs one draw and reports whether drawing should continue.
// The stop check happens under s.mu, so a tick that fires after
// stopDrawingLocked has run never draws.
func (r *Registry) drawOnce(s *Session, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawing || s.drawGen != gen || !s.active {
		return false
	}
	if s.winner != nil {
		s.stopDrawingLocked()
		return false
	}

	n, ok := r.gen.Draw(s.drawn, s.cfg.Range)
	if !ok {
		s.exhausted = true
		s.stopDrawingLocked()
		r.logger.Warn("draws exhausted without a winner", "session_id", s.id, "drawn", len(s.drawn))
		r.fanOutLocked(s, protocol.DrawsExhausted{GameID: s.id})
		return false
	}

	s.drawn = append(s.drawn, n)
	s.current = n
	r.logger.Debug("number drawn", "session_id", s.id, "number", n, "count", len(s.drawn))
	r.fanOutLocked(s, protocol.NumberCalled{
		GameID:        s.id,
		Number:        n,
		CalledNumbers: slices.Clone(s.drawn),
	})

	called := setOf(s.drawn)
	for _, pid := range s.order {
		p := s.participants[pid]
		if pattern, won := firstMatch(s.cfg, p.BoardNumbers, markedSet(p.BoardNumbers, called)); won {
			r.declareWinnerLocked(s, p, pattern, DecidedByScheduler)
			return false
		}
	}
	return true
}

// declareWinnerLocked pays out, records the winner, stops drawing and
// notifies the session. Caller holds s.mu and has checked s.winner == nil.
func (r *Registry) declareWinnerLocked(s *Session, p *Participant, pattern Pattern, by DecidedBy) Win {
	amount := Payout(s.pot)
	p.Balance += amount
	p.TotalWon += amount
	s.winner = p
	s.winningPattern = pattern
	s.stopDrawingLocked()

	r.logger.Info("winner declared",
		"session_id", s.id,
		"player_id", p.ID,
		"pattern", pattern,
		"pot", s.pot,
		"amount", amount,
		"decided_by", by,
	)

	r.fanOutLocked(s, protocol.Winner{
		PlayerID:   p.ID,
		PlayerName: p.DisplayName,
		Pattern:    string(pattern),
		Amount:     amount,
	})

	r.record(RoundResult{
		SessionID:  s.id,
		GameType:   s.gameType,
		WinnerID:   p.ID,
		WinnerName: p.DisplayName,
		Pattern:    pattern,
		Pot:        s.pot,
		Winnings:   amount,
		Drawn:      slices.Clone(s.drawn),
		DecidedBy:  by,
		StartedAt:  s.startTime,
		EndedAt:    r.now(),
	})

	return Win{SessionID: s.id, ParticipantID: p.ID, Pattern: pattern, Amount: amount}
}

// record writes the result off the session lock.
func (r *Registry) record(res RoundResult) {
	if r.opts.Recorder == nil {
		return
	}
	r.recMu.Lock()
	defer r.recMu.Unlock()
	if r.closed {
		r.logger.Warn("registry closed, round result not recorded", "session_id", res.SessionID)
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.opts.Recorder.RecordResult(ctx, res); err != nil {
			r.logger.Error("recording round result failed", "session_id", res.SessionID, "error", err)
		}
	}()
}
