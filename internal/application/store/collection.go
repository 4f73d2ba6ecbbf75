package store

import (
	"slices"

	"leadsync/internal/domain/ticket"
)

// collection is an ordered ticket list with an id index. The index is
// rebuilt only in replace, and every mutation goes through replace.
type collection struct {
	items []*ticket.Ticket
	index map[int64]int
}

func newCollection() collection {
	return collection{index: make(map[int64]int)}
}

func (c *collection) replace(items []*ticket.Ticket) {
	c.items = items
	c.index = make(map[int64]int, len(items))
	for i, t := range items {
		c.index[t.ID] = i
	}
}

func (c *collection) get(id int64) (*ticket.Ticket, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

func (c *collection) has(id int64) bool {
	_, ok := c.index[id]
	return ok
}

func (c *collection) len() int {
	return len(c.items)
}

// upsert swaps an existing entry in place or inserts at the front, then
// re-sorts when less is given.
func (c *collection) upsert(t *ticket.Ticket, less func(a, b *ticket.Ticket) int) {
	next := slices.Clone(c.items)
	if i, ok := c.index[t.ID]; ok {
		next[i] = t
	} else {
		next = slices.Insert(next, 0, t)
	}
	if less != nil {
		slices.SortStableFunc(next, less)
	}
	c.replace(next)
}

// remove drops id and returns the removed ticket.
func (c *collection) remove(id int64) (*ticket.Ticket, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	removed := c.items[i]
	next := slices.Delete(slices.Clone(c.items), i, i+1)
	c.replace(next)
	return removed, true
}

// append adds tickets not already present, keeping the first copy of an id
// repeated within items.
func (c *collection) append(items []*ticket.Ticket) {
	next := slices.Clone(c.items)
	added := make(map[int64]struct{}, len(items))
	for _, t := range items {
		if _, dup := added[t.ID]; dup || c.has(t.ID) {
			continue
		}
		added[t.ID] = struct{}{}
		next = append(next, t)
	}
	c.replace(next)
}

// snapshot returns clones in display order.
func (c *collection) snapshot() []*ticket.Ticket {
	out := make([]*ticket.Ticket, len(c.items))
	for i, t := range c.items {
		out[i] = t.Clone()
	}
	return out
}

func (c *collection) unseenTotal() int {
	total := 0
	for _, t := range c.items {
		total += t.UnseenCount
	}
	return total
}
