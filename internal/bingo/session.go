package bingo

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Sender delivers one serialized message to a participant's transport.
// Implementations must not block; a full or closed transport returns an error.
type Sender interface {
	Send(msg []byte) error
}

// Participant is a player joined to one session.
type Participant struct {
	ID              string
	DisplayName     string
	Contact         string
	Stake           int64
	PaymentReceived int64
	BoardID         int
	BoardNumbers    []int
	Connected       bool
	Balance         int64
	TotalWon        int64

	marked numberSet
	conn   Sender
}

// Session is one live game. All fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	id       string
	gameType GameType
	cfg      BoardConfig

	active    bool
	drawing   bool
	exhausted bool

	participants map[string]*Participant
	order        []string

	drawn   []int
	current int

	winner         *Participant
	winningPattern Pattern
	pot            int64
	startTime      time.Time

	// stopDraw cancels the running scheduler; drawGen invalidates
	// ticks that belong to an earlier start.
	stopDraw context.CancelFunc
	drawGen  uint64
}

func newSession(id string, cfg BoardConfig, now time.Time) *Session {
	return &Session{
		id:           id,
		gameType:     cfg.ID,
		cfg:          cfg,
		participants: make(map[string]*Participant),
		startTime:    now,
	}
}

// ParticipantView is a copy of a participant's state.
type ParticipantView struct {
	ID              string `json:"id"`
	DisplayName     string `json:"name"`
	Contact         string `json:"phone"`
	Stake           int64  `json:"stake"`
	PaymentReceived int64  `json:"payment"`
	BoardID         int    `json:"boardId"`
	BoardNumbers    []int  `json:"boardNumbers"`
	MarkedNumbers   []int  `json:"markedNumbers"`
	Connected       bool   `json:"connected"`
	Balance         int64  `json:"balance"`
	TotalWon        int64  `json:"totalWon"`
}

// SessionView is a consistent copy of a session's state.
type SessionView struct {
	ID             string            `json:"id"`
	GameType       GameType          `json:"type"`
	Active         bool              `json:"active"`
	Drawing        bool              `json:"isCalling"`
	Exhausted      bool              `json:"exhausted"`
	Participants   []ParticipantView `json:"players"`
	Drawn          []int             `json:"calledNumbers"`
	Current        int               `json:"currentNumber"`
	Winner         *ParticipantView  `json:"winner"`
	WinningPattern Pattern           `json:"winningPattern"`
	Pot            int64             `json:"potAmount"`
	StartTime      time.Time         `json:"startTime"`
}

func (p *Participant) view() ParticipantView {
	marked := make([]int, 0, len(p.marked))
	for n := range p.marked {
		marked = append(marked, n)
	}
	slices.Sort(marked)
	return ParticipantView{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		Contact:         p.Contact,
		Stake:           p.Stake,
		PaymentReceived: p.PaymentReceived,
		BoardID:         p.BoardID,
		BoardNumbers:    slices.Clone(p.BoardNumbers),
		MarkedNumbers:   marked,
		Connected:       p.Connected,
		Balance:         p.Balance,
		TotalWon:        p.TotalWon,
	}
}

func (s *Session) viewLocked() SessionView {
	v := SessionView{
		ID:             s.id,
		GameType:       s.gameType,
		Active:         s.active,
		Drawing:        s.drawing,
		Exhausted:      s.exhausted,
		Participants:   make([]ParticipantView, 0, len(s.order)),
		Drawn:          slices.Clone(s.drawn),
		Current:        s.current,
		WinningPattern: s.winningPattern,
		Pot:            s.pot,
		StartTime:      s.startTime,
	}
	if v.Drawn == nil {
		v.Drawn = []int{}
	}
	for _, id := range s.order {
		v.Participants = append(v.Participants, s.participants[id].view())
	}
	if s.winner != nil {
		w := s.winner.view()
		v.Winner = &w
	}
	return v
}

func (s *Session) participantLocked(id string) (*Participant, error) {
	p, ok := s.participants[id]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return p, nil
}

// stopDrawingLocked cancels the scheduler. Safe to call repeatedly.
func (s *Session) stopDrawingLocked() {
	if s.stopDraw != nil {
		s.stopDraw()
		s.stopDraw = nil
	}
	s.drawing = false
}
