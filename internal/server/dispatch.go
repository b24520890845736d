package server

import (
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/amenassefagashaye/USA3/internal/bingo"
	"github.com/amenassefagashaye/USA3/internal/protocol"
)

var errBinaryFrame = bingo.Invalid("binary frames are not supported")

// dispatcher turns decoded inbound messages into registry operations and
// answers the originating client. Every failure becomes an error message on
// that client; nothing here is fatal to the connection.
type dispatcher struct {
	logger       *slog.Logger
	reg          *bingo.Registry
	adminHash    []byte
	defaultStake int64
}

func newDispatcher(logger *slog.Logger, reg *bingo.Registry, adminHash []byte, defaultStake int64) *dispatcher {
	return &dispatcher{
		logger:       logger,
		reg:          reg,
		adminHash:    adminHash,
		defaultStake: defaultStake,
	}
}

func (d *dispatcher) handle(c *client, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		d.logger.Debug("rejecting inbound message", "error", err)
		d.replyError(c, err)
		return
	}

	switch m := msg.(type) {
	case protocol.Register:
		err = d.register(c, m)
	case protocol.Join:
		err = d.join(c, m)
	case protocol.Start:
		err = d.start(c, m)
	case protocol.Mark:
		err = d.mark(c, m)
	case protocol.Claim:
		_, err = d.reg.Claim(m.GameID, m.PlayerID)
	case protocol.Withdraw:
		err = d.withdraw(c, m)
	case protocol.GetState:
		err = d.state(c, m)
	case protocol.Admin:
		err = d.admin(c, m)
	}
	if err != nil {
		d.replyError(c, err)
	}
}

// replyError maps err onto the wire. Domain errors carry their own message;
// decode failures are reported as an invalid command.
func (d *dispatcher) replyError(c *client, err error) {
	var domain *bingo.Error
	switch {
	case errors.As(err, &domain):
	case errors.Is(err, protocol.ErrMalformed), errors.Is(err, protocol.ErrUnknownType):
		domain = bingo.ErrInvalidCommand
	default:
		d.logger.Error("handling message failed", "error", err)
		domain = &bingo.Error{Kind: bingo.KindInvalidCommand, Message: "internal error"}
	}
	if err := c.reply(protocol.Error{Message: domain.Message}); err != nil {
		d.logger.Debug("error reply dropped", "error", err)
	}
}

func (d *dispatcher) register(c *client, m protocol.Register) error {
	if m.Stake < 0 || m.Payment < 0 {
		return bingo.Invalid("stake and payment must not be negative")
	}
	p := profile{
		playerID: bingo.NewParticipantID(),
		name:     m.Name,
		phone:    m.Phone,
		stake:    m.Stake,
		payment:  m.Payment,
		boardID:  m.BoardID,
	}
	c.register(p)
	return c.reply(protocol.Registered{PlayerID: p.playerID, Balance: p.payment})
}

// join fills anything the message leaves out from the client's registration
// and then from the defaults.
func (d *dispatcher) join(c *client, m protocol.Join) error {
	np := bingo.NewParticipant{
		ID:          m.PlayerID,
		DisplayName: m.Name,
		Contact:     m.Phone,
		BoardID:     m.BoardID,
		Stake:       d.defaultStake,
		Payment:     d.defaultStake,
		Conn:        c,
	}
	if reg, ok := c.registration(); ok {
		if np.ID == "" {
			np.ID = reg.playerID
		}
		if np.DisplayName == "" {
			np.DisplayName = reg.name
		}
		if np.Contact == "" {
			np.Contact = reg.phone
		}
		if np.BoardID == 0 {
			np.BoardID = reg.boardID
		}
		np.Stake, np.Payment = reg.stake, reg.payment
	}
	if m.Stake != nil {
		np.Stake = *m.Stake
	}
	if m.Payment != nil {
		np.Payment = *m.Payment
	}
	if np.DisplayName == "" {
		np.DisplayName = "Guest"
	}
	if np.BoardID == 0 {
		np.BoardID = 1
	}

	p, err := d.reg.Join(m.GameID, np)
	if err != nil {
		return err
	}
	c.bind(m.GameID, p.ID)
	return nil
}

func (d *dispatcher) start(c *client, m protocol.Start) error {
	if err := d.reg.Start(m.GameID); err != nil {
		return err
	}
	return c.reply(protocol.GameStarting{GameID: m.GameID, Success: true})
}

func (d *dispatcher) mark(c *client, m protocol.Mark) error {
	pattern, ready, err := d.reg.Mark(m.GameID, m.PlayerID, m.Number)
	if err != nil || !ready {
		return err
	}
	return c.reply(protocol.WinReady{Pattern: string(pattern)})
}

func (d *dispatcher) withdraw(c *client, m protocol.Withdraw) error {
	balance, err := d.reg.Withdraw(m.GameID, m.PlayerID, m.Amount)
	if err != nil {
		return err
	}
	return c.reply(protocol.WithdrawalProcessed{Success: true, Amount: m.Amount, NewBalance: balance})
}

func (d *dispatcher) state(c *client, m protocol.GetState) error {
	v, err := d.reg.Get(m.GameID)
	if err != nil {
		return err
	}
	return c.reply(gameState(v))
}

func gameState(v bingo.SessionView) protocol.GameState {
	st := protocol.GameState{
		GameID:        v.ID,
		Type:          string(v.GameType),
		Active:        v.Active,
		CalledNumbers: v.Drawn,
		IsCalling:     v.Drawing,
		Players:       make([]protocol.PlayerSummary, 0, len(v.Participants)),
		PotAmount:     v.Pot,
		StartTime:     v.StartTime,
	}
	if v.Current != 0 {
		n := v.Current
		st.CurrentNumber = &n
	}
	for _, p := range v.Participants {
		st.Players = append(st.Players, protocol.PlayerSummary{ID: p.ID, Name: p.DisplayName, Connected: p.Connected})
	}
	if v.Winner != nil {
		st.Winner = &protocol.WinnerSummary{ID: v.Winner.ID, Name: v.Winner.DisplayName, Pattern: string(v.WinningPattern)}
	}
	return st
}

// disconnect releases every seat the client held. The participants stay in
// their sessions, flagged as disconnected.
func (d *dispatcher) disconnect(c *client) {
	for _, s := range c.boundSeats() {
		d.reg.Disconnect(s.gameID, s.playerID)
	}
}

func (d *dispatcher) authorized(password string) bool {
	return bcrypt.CompareHashAndPassword(d.adminHash, []byte(password)) == nil
}
