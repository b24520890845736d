package bingo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amenassefagashaye/USA3/internal/protocol"
)

// ResultRecorder persists declared wins. Failures are logged, never surfaced.
type ResultRecorder interface {
	RecordResult(ctx context.Context, r RoundResult) error
}

// DecidedBy tells which path declared a winner.
type DecidedBy string

const (
	DecidedByScheduler DecidedBy = "scheduler"
	DecidedByClaim     DecidedBy = "claim"
)

// RoundResult is the record of one declared win.
type RoundResult struct {
	SessionID  string
	GameType   GameType
	WinnerID   string
	WinnerName string
	Pattern    Pattern
	Pot        int64
	Winnings   int64
	Drawn      []int
	DecidedBy  DecidedBy
	StartedAt  time.Time
	EndedAt    time.Time
}

// Win is returned to a successful claimant.
type Win struct {
	SessionID     string
	ParticipantID string
	Pattern       Pattern
	Amount        int64
}

type Options struct {
	// FirstDrawDelay of zero draws as soon as the session starts.
	FirstDrawDelay time.Duration
	DrawInterval   time.Duration
	Recorder       ResultRecorder
}

// Registry owns every live session. The registry lock guards only the
// id→session map; each session serializes its own mutations.
type Registry struct {
	logger *slog.Logger
	gen    *Generator
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	// recMu orders ledger writes against Close so wg.Add never races wg.Wait.
	recMu  sync.Mutex
	closed bool
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	now func() time.Time
}

func NewRegistry(parent context.Context, logger *slog.Logger, gen *Generator, opts Options) *Registry {
	if opts.FirstDrawDelay < 0 {
		opts.FirstDrawDelay = time.Second
	}
	if opts.DrawInterval <= 0 {
		opts.DrawInterval = 7 * time.Second
	}
	ctx, cancel := context.WithCancel(parent)
	return &Registry{
		logger:   logger,
		gen:      gen,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// NewParticipantID returns a fresh participant identifier.
func NewParticipantID() string {
	return "player_" + uuid.NewString()
}

// Close stops every scheduler and waits for pending ledger writes.
// Results declared after Close are logged and dropped.
func (r *Registry) Close() {
	r.recMu.Lock()
	r.closed = true
	r.recMu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func (r *Registry) lookup(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Create registers an empty, inactive session.
func (r *Registry) Create(t GameType) (SessionView, error) {
	cfg, ok := ConfigFor(t)
	if !ok {
		return SessionView{}, Invalid(fmt.Sprintf("unknown game type %q", t))
	}
	s := newSession("game_"+uuid.NewString(), cfg, r.now())

	r.mu.Lock()
	r.sessions[s.id] = s
	r.order = append(r.order, s.id)
	r.mu.Unlock()

	r.logger.Info("game created", "session_id", s.id, "game_type", t)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(), nil
}

func (r *Registry) Get(id string) (SessionView, error) {
	s, err := r.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(), nil
}

// List returns every session in creation order.
func (r *Registry) List() []SessionView {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		sessions = append(sessions, r.sessions[id])
	}
	r.mu.RUnlock()

	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		out = append(out, s.viewLocked())
		s.mu.Unlock()
	}
	return out
}

// Remove stops drawing and forgets the session.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	s.mu.Lock()
	s.stopDrawingLocked()
	s.mu.Unlock()

	r.logger.Info("game removed", "session_id", id)
	return nil
}

// NewParticipant is the input to Join.
type NewParticipant struct {
	ID          string
	DisplayName string
	Contact     string
	Stake       int64
	Payment     int64
	BoardID     int
	Conn        Sender
}

// Join adds a participant with a fresh board. The joiner receives a joined
// message and every participant is told about the newcomer. Joining again
// with the id of a disconnected participant reattaches the connection.
func (r *Registry) Join(id string, np NewParticipant) (ParticipantView, error) {
	s, err := r.lookup(id)
	if err != nil {
		return ParticipantView{}, err
	}
	if np.Stake < 0 || np.Payment < 0 {
		return ParticipantView{}, Invalid("stake and payment must not be negative")
	}
	if np.ID == "" {
		np.ID = NewParticipantID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ParticipantView{}, NotAllowed("could not join game: game already started")
	}
	if p, exists := s.participants[np.ID]; exists {
		if p.Connected || np.Conn == nil {
			return ParticipantView{}, NotAllowed("could not join game: player already joined")
		}
		return r.rejoinLocked(s, p, np.Conn), nil
	}

	board, err := r.gen.Board(s.gameType)
	if err != nil {
		return ParticipantView{}, err
	}

	p := &Participant{
		ID:              np.ID,
		DisplayName:     np.DisplayName,
		Contact:         np.Contact,
		Stake:           np.Stake,
		PaymentReceived: np.Payment,
		BoardID:         np.BoardID,
		BoardNumbers:    board,
		Connected:       np.Conn != nil,
		Balance:         np.Payment,
		marked:          make(numberSet),
		conn:            np.Conn,
	}
	s.participants[p.ID] = p
	s.order = append(s.order, p.ID)
	s.pot += p.Stake

	r.logger.Info("player joined",
		"session_id", s.id,
		"player_id", p.ID,
		"stake", p.Stake,
		"pot", s.pot,
	)

	r.sendLocked(s, p, protocol.Joined{
		GameID:       s.id,
		PlayerID:     p.ID,
		BoardNumbers: append([]int(nil), board...),
		GameType:     string(s.gameType),
		BoardConfig:  Layout(s.cfg),
	})
	r.fanOutLocked(s, protocol.PlayerJoined{PlayerID: p.ID, PlayerName: p.DisplayName})

	return p.view(), nil
}

// rejoinLocked binds a new connection to a disconnected participant. The
// board, stake and pot are left as they were. Caller holds s.mu.
func (r *Registry) rejoinLocked(s *Session, p *Participant, conn Sender) ParticipantView {
	p.conn = conn
	p.Connected = true
	r.logger.Info("player reconnected", "session_id", s.id, "player_id", p.ID)
	r.sendLocked(s, p, protocol.Joined{
		GameID:       s.id,
		PlayerID:     p.ID,
		BoardNumbers: append([]int(nil), p.BoardNumbers...),
		GameType:     string(s.gameType),
		BoardConfig:  Layout(s.cfg),
	})
	return p.view()
}

// Start activates the session and launches its draw scheduler.
func (r *Registry) Start(id string) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exhausted {
		return ErrDrawsExhausted
	}
	if s.active {
		return NotAllowed("game already started")
	}
	s.active = true
	r.startDrawingLocked(s)

	r.logger.Info("game started", "session_id", s.id, "players", len(s.order), "pot", s.pot)
	return nil
}

// StopDrawing halts the scheduler. It is idempotent; once it returns no
// further draw happens for this session.
func (r *Registry) StopDrawing(id string) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopDrawingLocked()
	r.logger.Info("drawing stopped", "session_id", s.id, "drawn", len(s.drawn))
	return nil
}

// Reset returns the session to joined-but-not-started: draws, winner and
// marks are cleared and every board is regenerated. The pot carries over
// unless clearPot is set.
func (r *Registry) Reset(id string, clearPot bool) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopDrawingLocked()
	s.active = false
	s.exhausted = false
	s.drawn = nil
	s.current = 0
	s.winner = nil
	s.winningPattern = ""
	s.startTime = r.now()
	if clearPot {
		s.pot = 0
	}

	for _, pid := range s.order {
		p := s.participants[pid]
		board, err := r.gen.Board(s.gameType)
		if err != nil {
			return err
		}
		p.BoardNumbers = board
		p.marked = make(numberSet)
	}

	r.logger.Info("game reset", "session_id", s.id, "clear_pot", clearPot, "pot", s.pot)
	return nil
}

func (r *Registry) RemoveParticipant(id, participantID string) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.participantLocked(participantID); err != nil {
		return err
	}
	delete(s.participants, participantID)
	for i, pid := range s.order {
		if pid == participantID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Disconnect flips the participant to disconnected and drops the transport
// handle. The participant keeps its board and seat.
func (r *Registry) Disconnect(id, participantID string) {
	s, err := r.lookup(id)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.participants[participantID]; ok {
		p.Connected = false
		p.conn = nil
	}
}

// Mark records a self-reported mark. When those marks would satisfy a
// pattern it is returned as an advisory hint; claims are verified separately.
func (r *Registry) Mark(id, participantID string, number int) (Pattern, bool, error) {
	s, err := r.lookup(id)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.participantLocked(participantID)
	if err != nil {
		return "", false, err
	}
	if number < 1 || number > s.cfg.Range {
		return "", false, Invalid(fmt.Sprintf("number %d out of range 1-%d", number, s.cfg.Range))
	}
	p.marked[number] = struct{}{}

	pattern, ok := detectFromMarks(p.BoardNumbers, s.cfg, p.marked)
	return pattern, ok, nil
}

// Claim verifies a participant's board against the drawn numbers and, on
// success, declares them the winner.
func (r *Registry) Claim(id, participantID string) (Win, error) {
	s, err := r.lookup(id)
	if err != nil {
		return Win{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.participantLocked(participantID)
	if err != nil {
		return Win{}, err
	}
	if s.winner != nil {
		return Win{}, NotAllowed("game already has a winner")
	}

	pattern, ok := DetectWin(p.BoardNumbers, s.gameType, s.drawn)
	if !ok {
		return Win{}, ErrNoWinningPattern
	}
	return r.declareWinnerLocked(s, p, pattern, DecidedByClaim), nil
}

// Withdraw deducts amount from the participant's balance. No funds move;
// this is a balance stub.
func (r *Registry) Withdraw(id, participantID string, amount int64) (int64, error) {
	s, err := r.lookup(id)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.participantLocked(participantID)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, Invalid("withdrawal amount must be positive")
	}
	if amount > p.Balance {
		return 0, NotAllowed("insufficient balance")
	}
	p.Balance -= amount
	r.logger.Info("withdrawal", "session_id", s.id, "player_id", p.ID, "amount", amount, "balance", p.Balance)
	return p.Balance, nil
}

// Broadcast delivers p to every connected participant of the session.
func (r *Registry) Broadcast(id string, p protocol.Payload) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.fanOutLocked(s, p)
	return nil
}

// Layout converts a config to its wire form.
func Layout(c BoardConfig) protocol.BoardLayout {
	patterns := make([]string, len(c.Patterns))
	for i, p := range c.Patterns {
		patterns[i] = string(p)
	}
	return protocol.BoardLayout{
		ID:       string(c.ID),
		Name:     c.Name,
		Columns:  c.Columns,
		Rows:     c.Rows,
		Range:    c.Range,
		Patterns: patterns,
	}
}
