package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned for an envelope whose type is not recognised.
	ErrUnknownType = errors.New("unknown message type")
	// ErrMalformed is returned for a frame that is not a valid envelope or payload.
	ErrMalformed = errors.New("malformed message")
)

// Envelope is the wire frame for every message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

var commandTypes = map[string]func() Command{
	TypeCreateSession:   func() Command { return &CreateSession{} },
	TypeJoinRoom:        func() Command { return &JoinRoom{} },
	TypeLeaveRoom:       func() Command { return &LeaveRoom{} },
	TypePlayerMove:      func() Command { return &PlayerMove{} },
	TypePauseGame:       func() Command { return &PauseGame{} },
	TypeResumeGame:      func() Command { return &ResumeGame{} },
	TypeRestartGame:     func() Command { return &RestartGame{} },
	TypeRegisterPlayer:  func() Command { return &RegisterPlayer{} },
	TypeStartTournament: func() Command { return &StartTournament{} },
	TypePlayerReady:     func() Command { return &PlayerReady{} },
}

var eventTypes = map[string]func() Event{
	TypeStateUpdate:         func() Event { return &StateUpdate{} },
	TypeMatchAnnouncement:   func() Event { return &MatchAnnouncement{} },
	TypeCountdownUpdate:     func() Event { return &CountdownUpdate{} },
	TypeTournamentBracket:   func() Event { return &TournamentBracket{} },
	TypeTournamentOver:      func() Event { return &TournamentOver{} },
	TypeMatchForfeit:        func() Event { return &MatchForfeit{} },
	TypeMatchCancelled:      func() Event { return &MatchCancelled{} },
	TypeTournamentCancelled: func() Event { return &TournamentCancelled{} },
	TypeError:               func() Event { return &Error{} },
	TypeSessionCreated:      func() Event { return &SessionCreated{} },
	TypeRoomJoined:          func() Event { return &RoomJoined{} },
	TypeRoomLeft:            func() Event { return &RoomLeft{} },
	TypeMatchStarted:        func() Event { return &MatchStarted{} },
	TypeMatchPaused:         func() Event { return &MatchPaused{} },
	TypeMatchResumed:        func() Event { return &MatchResumed{} },
	TypeMatchResult:         func() Event { return &MatchResult{} },
	TypeReadyUpdate:         func() Event { return &ReadyUpdate{} },
}

func encode(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Data: data})
}

func unwrap(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("protocol: %w: %w", ErrMalformed, err)
	}
	return env, nil
}

// EncodeCommand frames a command for the wire.
func EncodeCommand(c Command) ([]byte, error) {
	return encode(c.CommandType(), c)
}

// EncodeEvent frames an event for the wire.
func EncodeEvent(e Event) ([]byte, error) {
	return encode(e.EventType(), e)
}

// DecodeCommand parses a framed command. The returned value is the command
// struct itself, not a pointer.
func DecodeCommand(raw []byte) (Command, error) {
	env, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	mk, ok := commandTypes[env.Type]
	if !ok {
		return nil, fmt.Errorf("protocol: %w %q", ErrUnknownType, env.Type)
	}
	ptr := mk()
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, ptr); err != nil {
			return nil, fmt.Errorf("protocol: %w: %s: %w", ErrMalformed, env.Type, err)
		}
	}
	return derefCommand(ptr), nil
}

// DecodeEvent parses a framed event. The returned value is the event struct
// itself, not a pointer.
func DecodeEvent(raw []byte) (Event, error) {
	env, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	mk, ok := eventTypes[env.Type]
	if !ok {
		return nil, fmt.Errorf("protocol: %w %q", ErrUnknownType, env.Type)
	}
	ptr := mk()
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, ptr); err != nil {
			return nil, fmt.Errorf("protocol: %w: %s: %w", ErrMalformed, env.Type, err)
		}
	}
	return derefEvent(ptr), nil
}

func derefCommand(c Command) Command {
	switch v := c.(type) {
	case *CreateSession:
		return *v
	case *JoinRoom:
		return *v
	case *LeaveRoom:
		return *v
	case *PlayerMove:
		return *v
	case *PauseGame:
		return *v
	case *ResumeGame:
		return *v
	case *RestartGame:
		return *v
	case *RegisterPlayer:
		return *v
	case *StartTournament:
		return *v
	case *PlayerReady:
		return *v
	default:
		return c
	}
}

func derefEvent(e Event) Event {
	switch v := e.(type) {
	case *StateUpdate:
		return *v
	case *MatchAnnouncement:
		return *v
	case *CountdownUpdate:
		return *v
	case *TournamentBracket:
		return *v
	case *TournamentOver:
		return *v
	case *MatchForfeit:
		return *v
	case *MatchCancelled:
		return *v
	case *TournamentCancelled:
		return *v
	case *Error:
		return *v
	case *SessionCreated:
		return *v
	case *RoomJoined:
		return *v
	case *RoomLeft:
		return *v
	case *MatchStarted:
		return *v
	case *MatchPaused:
		return *v
	case *MatchResumed:
		return *v
	case *MatchResult:
		return *v
	case *ReadyUpdate:
		return *v
	default:
		return e
	}
}
