package ws

import "sync"

// Rooms maps a conversation id to the set of identities currently
// subscribed to its events. Rooms are created on first join and pruned as
// soon as the last member leaves.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{} // conversationID -> set of emails
}

func NewRooms() *Rooms {
	return &Rooms{members: make(map[string]map[string]struct{})}
}

func (rs *Rooms) Join(conversationID, email string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	set, ok := rs.members[conversationID]
	if !ok {
		set = make(map[string]struct{})
		rs.members[conversationID] = set
	}
	set[email] = struct{}{}
}

func (rs *Rooms) Leave(conversationID, email string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if set, ok := rs.members[conversationID]; ok {
		delete(set, email)
		if len(set) == 0 {
			delete(rs.members, conversationID)
		}
	}
}

// Members returns the identities in a room, empty for an unknown room.
func (rs *Rooms) Members(conversationID string) []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	set, ok := rs.members[conversationID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for email := range set {
		out = append(out, email)
	}
	return out
}

// Len reports how many rooms currently exist.
func (rs *Rooms) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.members)
}
