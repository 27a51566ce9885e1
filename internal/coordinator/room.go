package coordinator

import "strings"

// Room holds the set of currently joined participants, keyed by participant
// ID. Rooms are created implicitly on first join and deleted in the same
// operation that removes the last member, so a room never exists empty.
type Room struct {
	Code    string
	members map[string]*Client
}

func newRoom(code string) *Room {
	return &Room{Code: code, members: make(map[string]*Client, 2)}
}

func (r *Room) has(id string) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Room) add(c *Client)    { r.members[c.ID] = c }
func (r *Room) remove(id string) { delete(r.members, id) }
func (r *Room) size() int        { return len(r.members) }

// others returns every member except the one with the given ID.
func (r *Room) others(id string) []*Client {
	out := make([]*Client, 0, len(r.members))
	for mid, m := range r.members {
		if mid != id {
			out = append(out, m)
		}
	}
	return out
}

// NormalizeCode maps a user-supplied room code to its canonical form.
// Codes are case-insensitive and otherwise opaque.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
