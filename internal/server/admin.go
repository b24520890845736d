package server

import (
	"github.com/amenassefagashaye/USA3/internal/bingo"
	"github.com/amenassefagashaye/USA3/internal/protocol"
)

// admin runs one operator command after checking the shared secret.
func (d *dispatcher) admin(c *client, m protocol.Admin) error {
	if !d.authorized(m.Password) {
		d.logger.Warn("admin command rejected", "command", m.Command.AdminCommandType())
		return bingo.ErrUnauthorized
	}
	d.logger.Info("admin command", "command", m.Command.AdminCommandType())

	switch cmd := m.Command.(type) {
	case protocol.CreateGame:
		t, err := bingo.ParseGameType(cmd.GameType)
		if err != nil {
			return err
		}
		v, err := d.reg.Create(t)
		if err != nil {
			return err
		}
		return c.reply(protocol.GameCreated{GameID: v.ID})

	case protocol.StartGame:
		if err := d.reg.Start(cmd.GameID); err != nil {
			return err
		}
		return c.reply(protocol.GameStarted{GameID: cmd.GameID, Success: true})

	case protocol.StopGame:
		if err := d.reg.StopDrawing(cmd.GameID); err != nil {
			return err
		}
		return c.reply(protocol.GameStopped{GameID: cmd.GameID})

	case protocol.ResetGame:
		if err := d.reg.Reset(cmd.GameID, cmd.ClearPot); err != nil {
			return err
		}
		return c.reply(protocol.GameReset{GameID: cmd.GameID, Success: true})

	case protocol.GetGames:
		return c.reply(gamesList(d.reg.List()))

	case protocol.BroadcastMessage:
		return d.reg.Broadcast(cmd.GameID, protocol.AdminBroadcast{Message: cmd.Message})

	case protocol.DeleteGame:
		if err := d.reg.Remove(cmd.GameID); err != nil {
			return err
		}
		c.unbind(cmd.GameID)
		return c.reply(protocol.GameDeleted{GameID: cmd.GameID})
	}
	return bingo.ErrInvalidCommand
}

func gamesList(views []bingo.SessionView) protocol.GamesList {
	games := make([]protocol.GameSummary, 0, len(views))
	for _, v := range views {
		g := protocol.GameSummary{
			ID:            v.ID,
			Type:          string(v.GameType),
			Active:        v.Active,
			PlayerCount:   len(v.Participants),
			PotAmount:     v.Pot,
			CalledNumbers: len(v.Drawn),
		}
		if v.Winner != nil {
			name := v.Winner.DisplayName
			g.Winner = &name
		}
		games = append(games, g)
	}
	return protocol.GamesList{Games: games}
}
