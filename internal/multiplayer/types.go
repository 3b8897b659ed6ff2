// Package multiplayer owns the rooms of the arena. Each room is an isolated
// local match, local tournament or remote tournament with its own engine and
// tick loop; the Manager maps identities to rooms and routes their commands.
package multiplayer

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vovakirdan/pong-arena/internal/bracket"
	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// RoomID uniquely identifies a room.
type RoomID string

// Kind selects what a room runs.
type Kind string

const (
	KindLocalMatch       Kind = protocol.KindLocalMatch
	KindLocalTournament  Kind = protocol.KindLocalTournament
	KindRemoteTournament Kind = protocol.KindRemoteTournament
)

// ParseKind validates a wire kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLocalMatch, KindLocalTournament, KindRemoteTournament:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

var (
	roomEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	roomEntropyMu sync.Mutex
)

// NewRoomID returns "<kind>-<ulid>". The ULID combines a millisecond
// timestamp with monotonic random entropy.
func NewRoomID(kind Kind) RoomID {
	roomEntropyMu.Lock()
	defer roomEntropyMu.Unlock()
	return RoomID(string(kind) + "-" + ulid.MustNew(ulid.Timestamp(time.Now()), roomEntropy).String())
}

// RoomInfo is a point-in-time summary of a room.
type RoomInfo struct {
	ID        RoomID            `json:"id"`
	Kind      Kind              `json:"kind"`
	Mode      string            `json:"mode,omitempty"`
	Host      core.Identity     `json:"host"`
	Phase     string            `json:"phase"`
	Players   []protocol.Player `json:"players"`
	Members   int               `json:"members"`
	CreatedAt time.Time         `json:"created_at"`
}

// MatchResultSaver persists finished matches. Rooms call it from a separate
// goroutine so the tick loop never waits on storage.
type MatchResultSaver interface {
	SaveMatchResult(rec protocol.MatchRecord) error
}

// TournamentSaver persists concluded tournaments.
type TournamentSaver interface {
	SaveTournament(res TournamentResult) error
}

// TournamentResult is the persisted summary of a finished or cancelled tournament.
type TournamentResult struct {
	RoomID       string
	Flavor       string
	ChampionID   string
	ChampionName string
	Players      int
	Matches      int
	Cancelled    bool
	Reason       string
	EndedAt      time.Time
}

var (
	ErrUnknownKind    = errors.New("unknown session kind")
	ErrInvalidOption  = errors.New("invalid session option")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNoRoom         = errors.New("not in a room")
	ErrNotConnected   = errors.New("session is not connected")
	ErrUnsupported    = errors.New("command not supported in this room")
	ErrSpectator      = errors.New("spectators cannot control the match")
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrManagerClosed  = errors.New("arena is shutting down")
	errUnknownCommand = errors.New("unknown command")
)

// reasons lists the errors whose message is safe to show to players.
var reasons = []error{
	ErrUnknownKind, ErrInvalidOption, ErrRoomNotFound, ErrNoRoom, ErrNotConnected,
	ErrUnsupported, ErrSpectator, ErrUnknownPlayer, ErrManagerClosed,
	errUnknownCommand,
	bracket.ErrDuplicateAlias, bracket.ErrDuplicateIdentity, bracket.ErrEmptyName,
	bracket.ErrAlreadyStarted, bracket.ErrInsufficientPlayers,
	bracket.ErrNoCurrentMatchup, bracket.ErrNotInMatchup,
	tournament.ErrNotHost, tournament.ErrWrongPhase,
	tournament.ErrNotParticipant, tournament.ErrPlayerAbsent,
	protocol.ErrUnknownType, protocol.ErrMalformed,
}

// Reason turns an error into the human-readable text of an error event.
// Errors outside the known set are reported generically.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, known := range reasons {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
