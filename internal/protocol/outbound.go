package protocol

import (
	"encoding/json"
	"time"
)

type OutboundType string

const (
	TypeRegistered          OutboundType = "registered"
	TypeJoined              OutboundType = "joined"
	TypePlayerJoined        OutboundType = "playerJoined"
	TypeGameStarting        OutboundType = "gameStarting"
	TypeNumberCalled        OutboundType = "numberCalled"
	TypeDrawsExhausted      OutboundType = "drawsExhausted"
	TypeWinReady            OutboundType = "winReady"
	TypeWinner              OutboundType = "winner"
	TypeGameState           OutboundType = "gameState"
	TypeWithdrawalProcessed OutboundType = "withdrawalProcessed"
	TypeError               OutboundType = "error"

	TypeGameCreated    OutboundType = "gameCreated"
	TypeGameStarted    OutboundType = "gameStarted"
	TypeGameStopped    OutboundType = "gameStopped"
	TypeGameReset      OutboundType = "gameReset"
	TypeGamesList      OutboundType = "gamesList"
	TypeGameDeleted    OutboundType = "gameDeleted"
	TypeAdminBroadcast OutboundType = "adminBroadcast"
)

// Payload is one variant of the outbound union.
type Payload interface {
	OutboundType() OutboundType
}

type envelope struct {
	Type OutboundType `json:"type"`
	Data Payload      `json:"data"`
}

// Encode serializes p as {"type": ..., "data": ...}.
func Encode(p Payload) ([]byte, error) {
	return json.Marshal(envelope{Type: p.OutboundType(), Data: p})
}

type Registered struct {
	PlayerID string `json:"playerId"`
	Balance  int64  `json:"balance"`
}

// BoardLayout is the wire form of a game type's layout.
type BoardLayout struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Columns  int      `json:"columns"`
	Rows     int      `json:"rows"`
	Range    int      `json:"range"`
	Patterns []string `json:"patterns"`
}

type Joined struct {
	GameID       string      `json:"gameId"`
	PlayerID     string      `json:"playerId"`
	BoardNumbers []int       `json:"boardNumbers"`
	GameType     string      `json:"gameType"`
	BoardConfig  BoardLayout `json:"boardConfig"`
}

type PlayerJoined struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type GameStarting struct {
	GameID  string `json:"gameId"`
	Success bool   `json:"success"`
}

type NumberCalled struct {
	GameID        string `json:"gameId"`
	Number        int    `json:"number"`
	CalledNumbers []int  `json:"calledNumbers"`
}

type DrawsExhausted struct {
	GameID string `json:"gameId"`
}

type WinReady struct {
	Pattern string `json:"pattern"`
}

type Winner struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Pattern    string `json:"pattern"`
	Amount     int64  `json:"amount"`
}

type PlayerSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type WinnerSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

type GameState struct {
	GameID        string          `json:"gameId"`
	Type          string          `json:"type"`
	Active        bool            `json:"active"`
	CalledNumbers []int           `json:"calledNumbers"`
	CurrentNumber *int            `json:"currentNumber"`
	IsCalling     bool            `json:"isCalling"`
	Players       []PlayerSummary `json:"players"`
	Winner        *WinnerSummary  `json:"winner"`
	PotAmount     int64           `json:"potAmount"`
	StartTime     time.Time       `json:"startTime"`
}

type WithdrawalProcessed struct {
	Success    bool  `json:"success"`
	Amount     int64 `json:"amount"`
	NewBalance int64 `json:"newBalance"`
}

type Error struct {
	Message string `json:"message"`
}

type GameCreated struct {
	GameID string `json:"gameId"`
}

type GameStarted struct {
	GameID  string `json:"gameId"`
	Success bool   `json:"success"`
}

type GameStopped struct {
	GameID string `json:"gameId"`
}

type GameReset struct {
	GameID  string `json:"gameId"`
	Success bool   `json:"success"`
}

type GameSummary struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Active        bool    `json:"active"`
	PlayerCount   int     `json:"playerCount"`
	PotAmount     int64   `json:"potAmount"`
	CalledNumbers int     `json:"calledNumbers"`
	Winner        *string `json:"winner"`
}

type GamesList struct {
	Games []GameSummary `json:"games"`
}

type GameDeleted struct {
	GameID string `json:"gameId"`
}

type AdminBroadcast struct {
	Message json.RawMessage `json:"message"`
}

func (Registered) OutboundType() OutboundType          { return TypeRegistered }
func (Joined) OutboundType() OutboundType              { return TypeJoined }
func (PlayerJoined) OutboundType() OutboundType        { return TypePlayerJoined }
func (GameStarting) OutboundType() OutboundType        { return TypeGameStarting }
func (NumberCalled) OutboundType() OutboundType        { return TypeNumberCalled }
func (DrawsExhausted) OutboundType() OutboundType      { return TypeDrawsExhausted }
func (WinReady) OutboundType() OutboundType            { return TypeWinReady }
func (Winner) OutboundType() OutboundType              { return TypeWinner }
func (GameState) OutboundType() OutboundType           { return TypeGameState }
func (WithdrawalProcessed) OutboundType() OutboundType { return TypeWithdrawalProcessed }
func (Error) OutboundType() OutboundType               { return TypeError }
func (GameCreated) OutboundType() OutboundType         { return TypeGameCreated }
func (GameStarted) OutboundType() OutboundType         { return TypeGameStarted }
func (GameStopped) OutboundType() OutboundType         { return TypeGameStopped }
func (GameReset) OutboundType() OutboundType           { return TypeGameReset }
func (GamesList) OutboundType() OutboundType           { return TypeGamesList }
func (GameDeleted) OutboundType() OutboundType         { return TypeGameDeleted }
func (AdminBroadcast) OutboundType() OutboundType      { return TypeAdminBroadcast }
