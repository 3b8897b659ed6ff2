// Package protocol defines the messages exchanged between players and the
// arena. Inbound messages are Commands and outbound messages are Events. Both
// are closed sets travelling in a {"type", "data"} JSON envelope.
package protocol

import "github.com/vovakirdan/pong-arena/internal/core"

// Command is a message from a player to the arena.
type Command interface {
	CommandType() string
	command()
}

// Command type names.
const (
	TypeCreateSession   = "create_session"
	TypeJoinRoom        = "join_room"
	TypeLeaveRoom       = "leave_room"
	TypePlayerMove      = "player_move"
	TypePauseGame       = "pause_game"
	TypeResumeGame      = "resume_game"
	TypeRestartGame     = "restart_game"
	TypeRegisterPlayer  = "register_player"
	TypeStartTournament = "start_tournament"
	TypePlayerReady     = "player_ready"
)

// Session kinds accepted by CreateSession.
const (
	KindLocalMatch       = "local_match"
	KindLocalTournament  = "local_tournament"
	KindRemoteTournament = "remote_tournament"
)

// CreateSession asks for a new room. Mode and Difficulty apply to local matches.
type CreateSession struct {
	Kind       string `json:"kind"`
	Mode       string `json:"mode,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

func (CreateSession) CommandType() string { return TypeCreateSession }
func (CreateSession) command()            {}

// JoinRoom associates the sender with an existing room.
type JoinRoom struct {
	RoomID string `json:"room_id"`
}

func (JoinRoom) CommandType() string { return TypeJoinRoom }
func (JoinRoom) command()            {}

// LeaveRoom detaches the sender from its room.
type LeaveRoom struct{}

func (LeaveRoom) CommandType() string { return TypeLeaveRoom }
func (LeaveRoom) command()            {}

// PlayerMove moves a paddle one step. Seat selects the paddle in hot-seat
// play and Player selects the participant in a local tournament; both are
// optional otherwise.
type PlayerMove struct {
	Direction core.Direction `json:"direction"`
	Seat      core.Seat      `json:"seat,omitempty"`
	Player    string         `json:"player,omitempty"`
}

func (PlayerMove) CommandType() string { return TypePlayerMove }
func (PlayerMove) command()            {}

// PauseGame pauses the live match.
type PauseGame struct{}

func (PauseGame) CommandType() string { return TypePauseGame }
func (PauseGame) command()            {}

// ResumeGame resumes the live match.
type ResumeGame struct{}

func (ResumeGame) CommandType() string { return TypeResumeGame }
func (ResumeGame) command()            {}

// RestartGame resets the match, or the whole tournament back to its lobby.
type RestartGame struct{}

func (RestartGame) CommandType() string { return TypeRestartGame }
func (RestartGame) command()            {}

// RegisterPlayer enters a tournament under a display name. In a local
// tournament every call registers one more player of the same device.
type RegisterPlayer struct {
	DisplayName string `json:"display_name"`
}

func (RegisterPlayer) CommandType() string { return TypeRegisterPlayer }
func (RegisterPlayer) command()            {}

// StartTournament closes registration and builds the bracket.
type StartTournament struct{}

func (StartTournament) CommandType() string { return TypeStartTournament }
func (StartTournament) command()            {}

// PlayerReady signals readiness for the announced matchup. Player selects the
// participant in a local tournament.
type PlayerReady struct {
	Player string `json:"player,omitempty"`
}

func (PlayerReady) CommandType() string { return TypePlayerReady }
func (PlayerReady) command()            {}
