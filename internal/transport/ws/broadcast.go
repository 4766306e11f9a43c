package ws

import "log/slog"

type scopeKind int

const (
	scopeRoom scopeKind = iota
	scopeGlobal
	scopeUsers
)

// Scope describes how a broadcast resolves its recipients: one room, every
// registered connection, or an explicit identity list. Exclude drops the
// originator from the resolved set.
type Scope struct {
	kind           scopeKind
	conversationID string
	users          []string
	exclude        string
}

func RoomScope(conversationID, exclude string) Scope {
	return Scope{kind: scopeRoom, conversationID: conversationID, exclude: exclude}
}

func GlobalScope(exclude string) Scope {
	return Scope{kind: scopeGlobal, exclude: exclude}
}

func UsersScope(users []string, exclude string) Scope {
	return Scope{kind: scopeUsers, users: users, exclude: exclude}
}

// Engine fans frames out to live connections. Delivery is best-effort with
// per-recipient isolation: a dead or slow peer never aborts delivery to the
// rest of the set.
type Engine struct {
	registry *Registry
	rooms    *Rooms
}

func NewEngine(registry *Registry, rooms *Rooms) *Engine {
	return &Engine{registry: registry, rooms: rooms}
}

// Broadcast resolves the scope's identity set and writes f to each live
// socket. Returns how many deliveries succeeded and how many failed;
// partial failure is never an error.
func (e *Engine) Broadcast(f Frame, sc Scope) (sent, failed int) {
	var targets []string
	switch sc.kind {
	case scopeRoom:
		targets = e.rooms.Members(sc.conversationID)
		if len(targets) == 0 {
			slog.Debug("ws broadcast to empty room", "conversation", sc.conversationID, "type", f.Type)
			return 0, 0
		}
	case scopeGlobal:
		targets = e.registry.Emails()
	case scopeUsers:
		targets = sc.users
	}

	for _, email := range targets {
		if email == sc.exclude {
			continue
		}
		c, ok := e.registry.Lookup(email)
		if !ok || !c.Open() {
			failed++
			continue
		}
		if err := c.Send(f); err != nil {
			slog.Debug("ws send failed", "to", email, "type", f.Type, "err", err)
			failed++
			continue
		}
		sent++
	}

	if failed > 0 {
		slog.Warn("ws broadcast partial failure", "type", f.Type, "sent", sent, "failed", failed)
	}
	return sent, failed
}
