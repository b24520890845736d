// Package protocol defines the messages exchanged with participants and
// operators. Inbound text is decoded once, at the boundary, into one variant
// of the Inbound union; outbound messages are Payload variants.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

type InboundType string

const (
	TypeRegister InboundType = "register"
	TypeJoin     InboundType = "join"
	TypeStart    InboundType = "start"
	TypeMark     InboundType = "mark"
	TypeClaim    InboundType = "claim"
	TypeWithdraw InboundType = "withdraw"
	TypeGetState InboundType = "getState"
	TypeAdmin    InboundType = "admin"
)

// Inbound is one variant of the inbound union.
type Inbound interface {
	InboundType() InboundType
}

type Register struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Stake    int64  `json:"stake"`
	Payment  int64  `json:"payment"`
	GameType string `json:"gameType"`
	BoardID  int    `json:"boardId"`
}

type Join struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Stake    *int64 `json:"stake"`
	Payment  *int64 `json:"payment"`
	BoardID  int    `json:"boardId"`
}

type Start struct {
	GameID string `json:"gameId"`
}

type Mark struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Number   int    `json:"number"`
}

type Claim struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type Withdraw struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Amount   int64  `json:"amount"`
	Account  string `json:"account"`
}

type GetState struct {
	GameID string `json:"gameId"`
}

// Admin carries the shared secret and one operator command.
type Admin struct {
	Password string
	Command  AdminCommand
}

func (Register) InboundType() InboundType { return TypeRegister }
func (Join) InboundType() InboundType     { return TypeJoin }
func (Start) InboundType() InboundType    { return TypeStart }
func (Mark) InboundType() InboundType     { return TypeMark }
func (Claim) InboundType() InboundType    { return TypeClaim }
func (Withdraw) InboundType() InboundType { return TypeWithdraw }
func (GetState) InboundType() InboundType { return TypeGetState }
func (Admin) InboundType() InboundType    { return TypeAdmin }

type AdminCommandType string

const (
	CmdCreateGame AdminCommandType = "createGame"
	CmdStartGame  AdminCommandType = "startGame"
	CmdStopGame   AdminCommandType = "stopGame"
	CmdResetGame  AdminCommandType = "resetGame"
	CmdGetGames   AdminCommandType = "getGames"
	CmdBroadcast  AdminCommandType = "broadcast"
	CmdDeleteGame AdminCommandType = "deleteGame"
)

// AdminCommand is one variant of the operator command union.
type AdminCommand interface {
	AdminCommandType() AdminCommandType
}

type CreateGame struct {
	GameType string `json:"gameType"`
}

type StartGame struct {
	GameID string `json:"gameId"`
}

type StopGame struct {
	GameID string `json:"gameId"`
}

type ResetGame struct {
	GameID   string `json:"gameId"`
	ClearPot bool   `json:"clearPot"`
}

type GetGames struct{}

type BroadcastMessage struct {
	GameID  string          `json:"gameId"`
	Message json.RawMessage `json:"message"`
}

type DeleteGame struct {
	GameID string `json:"gameId"`
}

func (CreateGame) AdminCommandType() AdminCommandType       { return CmdCreateGame }
func (StartGame) AdminCommandType() AdminCommandType        { return CmdStartGame }
func (StopGame) AdminCommandType() AdminCommandType         { return CmdStopGame }
func (ResetGame) AdminCommandType() AdminCommandType        { return CmdResetGame }
func (GetGames) AdminCommandType() AdminCommandType         { return CmdGetGames }
func (BroadcastMessage) AdminCommandType() AdminCommandType { return CmdBroadcast }
func (DeleteGame) AdminCommandType() AdminCommandType       { return CmdDeleteGame }

type rawEnvelope struct {
	Type     InboundType     `json:"type"`
	Data     json.RawMessage `json:"data"`
	PlayerID string          `json:"playerId"`
	Password string          `json:"password"`
	Command  string          `json:"command"`
}

// Decode parses one inbound text frame. Errors wrap ErrMalformed or
// ErrUnknownType.
func Decode(raw []byte) (Inbound, error) {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeRegister:
		return decodeData[Register](env.Data)
	case TypeJoin:
		m, err := decodeData[Join](env.Data)
		if err != nil {
			return nil, err
		}
		if m.PlayerID == "" {
			m.PlayerID = env.PlayerID
		}
		return m, requireGameID(m.GameID)
	case TypeStart:
		m, err := decodeData[Start](env.Data)
		if err != nil {
			return nil, err
		}
		return m, requireGameID(m.GameID)
	case TypeMark:
		m, err := decodeData[Mark](env.Data)
		if err != nil {
			return nil, err
		}
		if m.PlayerID == "" {
			m.PlayerID = env.PlayerID
		}
		return m, requireIDs(m.GameID, m.PlayerID)
	case TypeClaim:
		m, err := decodeData[Claim](env.Data)
		if err != nil {
			return nil, err
		}
		if m.PlayerID == "" {
			m.PlayerID = env.PlayerID
		}
		return m, requireIDs(m.GameID, m.PlayerID)
	case TypeWithdraw:
		m, err := decodeData[Withdraw](env.Data)
		if err != nil {
			return nil, err
		}
		if m.PlayerID == "" {
			m.PlayerID = env.PlayerID
		}
		return m, requireIDs(m.GameID, m.PlayerID)
	case TypeGetState:
		m, err := decodeData[GetState](env.Data)
		if err != nil {
			return nil, err
		}
		return m, requireGameID(m.GameID)
	case TypeAdmin:
		cmd, err := decodeAdmin(AdminCommandType(env.Command), env.Data)
		if err != nil {
			return nil, err
		}
		return Admin{Password: env.Password, Command: cmd}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
}

func decodeAdmin(typ AdminCommandType, data json.RawMessage) (AdminCommand, error) {
	switch typ {
	case CmdCreateGame:
		m, err := decodeData[CreateGame](data)
		if err != nil {
			return nil, err
		}
		if m.GameType == "" {
			return nil, fmt.Errorf("%w: gameType is required", ErrMalformed)
		}
		return m, nil
	case CmdStartGame:
		m, err := decodeData[StartGame](data)
		if err != nil {
			return nil, err
		}
		return m, requireGameID(m.GameID)
	case CmdStopGame:
		m, err := decodeData[StopGame](data)
		if err != nil {
			return nil, err
		}
		return m, requireGameID(m.GameID)
	case CmdResetGame:
		m, err := decodeData[ResetGame](data)
		if err != nil {
			return nil, err
		}
		return m, requireGameID(m.GameID)
	case CmdGetGames:
		return GetGames{}, nil
	case CmdBroadcast:
		m, err := decodeData[BroadcastMessage](data)
		if err != nil {
			return nil, err
		}
		return m, requireGameID(m.GameID)
	case CmdDeleteGame:
		m, err := decodeData[DeleteGame](data)
		if err != nil {
			return nil, err
		}
		return m, requireGameID(m.GameID)
	}
	return nil, fmt.Errorf("%w: admin command %q", ErrUnknownType, typ)
}

func decodeData[T any](data json.RawMessage) (T, error) {
	var v T
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

func requireGameID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: gameId is required", ErrMalformed)
	}
	return nil
}

func requireIDs(gameID, playerID string) error {
	if err := requireGameID(gameID); err != nil {
		return err
	}
	if playerID == "" {
		return fmt.Errorf("%w: playerId is required", ErrMalformed)
	}
	return nil
}
