package chat

import (
	"sync"

	"leadsync/internal/shared/utils/setutil"
)

// Presence tracks who is in each ticket room. It lives only as long as the
// process and is fed purely by socket room events.
type Presence struct {
	mu    sync.RWMutex
	rooms map[int64]*setutil.IDSet
}

func NewPresence() *Presence {
	return &Presence{rooms: make(map[int64]*setutil.IDSet)}
}

// Init replaces the participants of a room with the server's list.
func (p *Presence) Init(ticketID int64, ids []int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms[ticketID] = setutil.NewIDSet(ids...)
}

func (p *Presence) Join(ticketID, id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.rooms[ticketID]
	if !ok {
		set = setutil.NewIDSet()
		p.rooms[ticketID] = set
	}
	set.Add(id)
}

func (p *Presence) Leave(ticketID, id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.rooms[ticketID]
	if !ok {
		return
	}
	set.Remove(id)
	if set.Len() == 0 {
		delete(p.rooms, ticketID)
	}
}

// Participants returns the sorted ids present in a room.
func (p *Presence) Participants(ticketID int64) []int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.rooms[ticketID]
	if !ok {
		return []int64{}
	}
	return set.Sorted()
}

// Forget drops a room, e.g. after leaving it.
func (p *Presence) Forget(ticketID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rooms, ticketID)
}
