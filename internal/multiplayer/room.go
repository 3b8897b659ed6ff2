package multiplayer

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// roomLogic is the game a room runs. All methods are called from the room
// goroutine only, so implementations need no locking.
type roomLogic interface {
	// join binds an identity and returns its seat, or NoSeat for spectators.
	join(id core.Identity) core.Seat
	// leave unbinds an identity. remaining lists the members still present
	// in join order.
	leave(id core.Identity, remaining []core.Identity)
	handle(id core.Identity, cmd protocol.Command) error
	tick(dt time.Duration)
	// catchUp returns the events a new member needs to render the room.
	catchUp() []protocol.Event
	status() roomStatus
}

type roomStatus struct {
	mode    string
	host    core.Identity
	phase   string
	players []protocol.Player
}

type roomOp int

const (
	opJoin roomOp = iota
	opLeave
	opCommand
)

type roomMsg struct {
	op      roomOp
	id      core.Identity
	session SessionHandle
	cmd     protocol.Command
}

// Room runs one roomLogic on its own goroutine: commands arrive on the inbox
// and a fixed-rate ticker drives the simulation.
type Room struct {
	id      RoomID
	kind    Kind
	created time.Time
	dt      time.Duration
	logic   roomLogic
	log     *log.Logger

	inbox    chan roomMsg
	done     chan struct{}
	stopOnce sync.Once

	// owned by the room goroutine
	members map[core.Identity]SessionHandle
	order   []core.Identity

	infoMu sync.RWMutex
	info   RoomInfo
}

func newRoom(id RoomID, kind Kind, dt time.Duration, logger *log.Logger) *Room {
	return &Room{
		id:      id,
		kind:    kind,
		created: time.Now(),
		dt:      dt,
		log:     logger.With("room", string(id)),
		inbox:   make(chan roomMsg, 256),
		done:    make(chan struct{}),
		members: make(map[core.Identity]SessionHandle),
		info:    RoomInfo{ID: id, Kind: kind},
	}
}

// ID returns the room identifier.
func (r *Room) ID() RoomID {
	return r.id
}

// Kind returns what the room runs.
func (r *Room) Kind() Kind {
	return r.kind
}

// Info returns the latest published summary of the room.
func (r *Room) Info() RoomInfo {
	r.infoMu.RLock()
	defer r.infoMu.RUnlock()
	info := r.info
	info.Players = append([]protocol.Player(nil), r.info.Players...)
	return info
}

func (r *Room) send(msg roomMsg) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- msg:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

// run is the room loop. It returns once the room is stopped.
func (r *Room) run() {
	ticker := time.NewTicker(r.dt)
	defer ticker.Stop()

	r.log.Debug("room started", "kind", r.kind)
	defer r.log.Debug("room stopped")

	r.publish()
	for {
		select {
		case msg := <-r.inbox:
			r.dispatch(msg)
			r.publish()

		case <-ticker.C:
			r.logic.tick(r.dt)
			r.publish()

		case <-r.done:
			return
		}
	}
}

func (r *Room) dispatch(msg roomMsg) {
	switch msg.op {
	case opJoin:
		if _, ok := r.members[msg.id]; !ok {
			r.order = append(r.order, msg.id)
		}
		r.members[msg.id] = msg.session
		seat := r.logic.join(msg.id)
		msg.session.Send(protocol.RoomJoined{RoomID: string(r.id), Kind: string(r.kind), Seat: int(seat)})
		for _, evt := range r.logic.catchUp() {
			msg.session.Send(evt)
		}
		r.log.Debug("member joined", "identity", msg.id, "seat", seat)

	case opLeave:
		if _, ok := r.members[msg.id]; !ok {
			return
		}
		delete(r.members, msg.id)
		for i, id := range r.order {
			if id == msg.id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		r.logic.leave(msg.id, append([]core.Identity(nil), r.order...))
		r.log.Debug("member left", "identity", msg.id)

	case opCommand:
		session, ok := r.members[msg.id]
		if !ok {
			return
		}
		if err := r.logic.handle(msg.id, msg.cmd); err != nil {
			r.log.Debug("command rejected", "identity", msg.id, "command", msg.cmd.CommandType(), "err", err)
			session.Send(protocol.Error{Command: msg.cmd.CommandType(), Reason: Reason(err)})
		}
	}
}

// broadcast sends an event to every member. Only called from the room goroutine.
func (r *Room) broadcast(evt protocol.Event) {
	for _, id := range r.order {
		r.members[id].Send(evt)
	}
}

func (r *Room) publish() {
	st := r.logic.status()
	r.infoMu.Lock()
	defer r.infoMu.Unlock()
	r.info = RoomInfo{
		ID:        r.id,
		Kind:      r.kind,
		Mode:      st.mode,
		Host:      st.host,
		Phase:     st.phase,
		Players:   st.players,
		Members:   len(r.members),
		CreatedAt: r.created,
	}
}
