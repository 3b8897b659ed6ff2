package protocol

import (
	"time"

	"github.com/vovakirdan/pong-arena/internal/games/pong"
)

// Event is a message from the arena to a player.
type Event interface {
	EventType() string
	event()
}

// Event type names.
const (
	TypeStateUpdate         = "state_update"
	TypeMatchAnnouncement   = "match_announcement"
	TypeCountdownUpdate     = "countdown_update"
	TypeTournamentBracket   = "tournament_bracket"
	TypeTournamentOver      = "tournament_over"
	TypeMatchForfeit        = "match_forfeit"
	TypeMatchCancelled      = "match_cancelled"
	TypeTournamentCancelled = "tournament_cancelled"
	TypeError               = "error"
	TypeSessionCreated      = "session_created"
	TypeRoomJoined          = "room_joined"
	TypeRoomLeft            = "room_left"
	TypeMatchStarted        = "match_started"
	TypeMatchPaused         = "match_paused"
	TypeMatchResumed        = "match_resumed"
	TypeMatchResult         = "match_result"
	TypeReadyUpdate         = "ready_update"
)

// Player identifies a participant on the wire.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchRecord is the terminal result of one match, handed to persistence.
type MatchRecord struct {
	RoomID       string    `json:"room_id"`
	Round        int       `json:"round"`
	Participant1 Player    `json:"participant1"`
	Participant2 Player    `json:"participant2"`
	Score1       int       `json:"score1"`
	Score2       int       `json:"score2"`
	WinnerID     string    `json:"winner_id"`
	IsTournament bool      `json:"is_tournament"`
	Forfeit      bool      `json:"forfeit"`
	EndedAt      time.Time `json:"ended_at"`
}

// MatchupView is one bracket pairing on the wire. Nil slots are placeholders.
type MatchupView struct {
	A          *Player `json:"a,omitempty"`
	B          *Player `json:"b,omitempty"`
	Winner     *Player `json:"winner,omitempty"`
	ScoreA     int     `json:"score_a"`
	ScoreB     int     `json:"score_b"`
	IsBye      bool    `json:"is_bye"`
	IsComplete bool    `json:"is_complete"`
	IsCurrent  bool    `json:"is_current"`
}

// BracketView is the full state of a tournament on the wire.
type BracketView struct {
	Phase        string          `json:"phase"`
	Host         string          `json:"host,omitempty"`
	Participants []Player        `json:"participants"`
	Rounds       [][]MatchupView `json:"rounds"`
	Round        int             `json:"round"`
	Index        int             `json:"index"`
	Finished     bool            `json:"finished"`
	Champion     *Player         `json:"champion,omitempty"`
}

// StateUpdate carries the match state every tick.
type StateUpdate struct {
	pong.Snapshot
}

func (StateUpdate) EventType() string { return TypeStateUpdate }
func (StateUpdate) event()            {}

// MatchAnnouncement names the next two participants.
type MatchAnnouncement struct {
	Round   int    `json:"round"`
	Player1 Player `json:"player1"`
	Player2 Player `json:"player2"`
}

func (MatchAnnouncement) EventType() string { return TypeMatchAnnouncement }
func (MatchAnnouncement) event()            {}

// CountdownUpdate is sent once per second before a tournament match.
type CountdownUpdate struct {
	Seconds int `json:"seconds"`
}

func (CountdownUpdate) EventType() string { return TypeCountdownUpdate }
func (CountdownUpdate) event()            {}

// TournamentBracket is sent after any bracket or roster change.
type TournamentBracket struct {
	Bracket BracketView `json:"bracket"`
}

func (TournamentBracket) EventType() string { return TypeTournamentBracket }
func (TournamentBracket) event()            {}

// TournamentOver announces the champion and every played match.
type TournamentOver struct {
	Champion *Player       `json:"champion,omitempty"`
	History  []MatchRecord `json:"history"`
}

func (TournamentOver) EventType() string { return TypeTournamentOver }
func (TournamentOver) event()            {}

// MatchForfeit reports a matchup awarded because the opponent left.
type MatchForfeit struct {
	Winner Player `json:"winner"`
	Loser  Player `json:"loser"`
	Reason string `json:"reason"`
}

func (MatchForfeit) EventType() string { return TypeMatchForfeit }
func (MatchForfeit) event()            {}

// MatchCancelled reports a matchup abandoned without a winner.
type MatchCancelled struct {
	Reason string `json:"reason"`
}

func (MatchCancelled) EventType() string { return TypeMatchCancelled }
func (MatchCancelled) event()            {}

// TournamentCancelled reports a tournament that cannot continue.
type TournamentCancelled struct {
	Reason string `json:"reason"`
}

func (TournamentCancelled) EventType() string { return TypeTournamentCancelled }
func (TournamentCancelled) event()            {}

// Error reports a rejected command.
type Error struct {
	Command string `json:"command,omitempty"`
	Reason  string `json:"reason"`
}

func (Error) EventType() string { return TypeError }
func (Error) event()            {}

// SessionCreated confirms CreateSession.
type SessionCreated struct {
	RoomID string `json:"room_id"`
	Kind   string `json:"kind"`
	Mode   string `json:"mode,omitempty"`
}

func (SessionCreated) EventType() string { return TypeSessionCreated }
func (SessionCreated) event()            {}

// RoomJoined confirms JoinRoom. Seat is 0 for spectators.
type RoomJoined struct {
	RoomID string `json:"room_id"`
	Kind   string `json:"kind"`
	Seat   int    `json:"seat"`
}

func (RoomJoined) EventType() string { return TypeRoomJoined }
func (RoomJoined) event()            {}

// RoomLeft confirms LeaveRoom.
type RoomLeft struct {
	RoomID string `json:"room_id"`
}

func (RoomLeft) EventType() string { return TypeRoomLeft }
func (RoomLeft) event()            {}

// MatchStarted is sent when a match begins.
type MatchStarted struct {
	Round   int    `json:"round"`
	Player1 Player `json:"player1"`
	Player2 Player `json:"player2"`
}

func (MatchStarted) EventType() string { return TypeMatchStarted }
func (MatchStarted) event()            {}

// MatchPaused is sent when the live match pauses.
type MatchPaused struct {
	Reason string `json:"reason,omitempty"`
}

func (MatchPaused) EventType() string { return TypeMatchPaused }
func (MatchPaused) event()            {}

// MatchResumed is sent when the live match resumes.
type MatchResumed struct{}

func (MatchResumed) EventType() string { return TypeMatchResumed }
func (MatchResumed) event()            {}

// MatchResult is sent when a match ends.
type MatchResult struct {
	Record MatchRecord `json:"record"`
}

func (MatchResult) EventType() string { return TypeMatchResult }
func (MatchResult) event()            {}

// ReadyUpdate lists which occupants of the current matchup are ready.
type ReadyUpdate struct {
	Ready []Player `json:"ready"`
}

func (ReadyUpdate) EventType() string { return TypeReadyUpdate }
func (ReadyUpdate) event()            {}
