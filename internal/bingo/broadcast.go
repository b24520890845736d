package bingo

import (
	"fmt"

	"github.com/amenassefagashaye/USA3/internal/protocol"
)

// fanOutLocked serializes msg once and offers it to every connected
// participant in join order. A failed delivery is logged and skipped.
func (r *Registry) fanOutLocked(s *Session, msg protocol.Payload) {
	b, err := protocol.Encode(msg)
	if err != nil {
		r.logger.Error("encoding broadcast failed", "session_id", s.id, "type", msg.OutboundType(), "error", err)
		return
	}
	for _, pid := range s.order {
		r.deliver(s, s.participants[pid], b)
	}
}

// sendLocked delivers msg to a single participant.
func (r *Registry) sendLocked(s *Session, p *Participant, msg protocol.Payload) {
	b, err := protocol.Encode(msg)
	if err != nil {
		r.logger.Error("encoding message failed", "session_id", s.id, "type", msg.OutboundType(), "error", err)
		return
	}
	r.deliver(s, p, b)
}

func (r *Registry) deliver(s *Session, p *Participant, b []byte) {
	if p.conn == nil || !p.Connected {
		return
	}
	if err := safeSend(p.conn, b); err != nil {
		r.logger.Warn("delivery failed", "session_id", s.id, "player_id", p.ID, "error", err)
	}
}

// safeSend turns a panicking transport into an error.
func safeSend(conn Sender, b []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("send panicked: %v", rec)
		}
	}()
	return conn.Send(b)
}
