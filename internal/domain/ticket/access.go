package ticket

// AccessSet is the set of group titles the current user may see.
type AccessSet map[string]struct{}

func NewAccessSet(titles ...string) AccessSet {
	s := make(AccessSet, len(titles))
	for _, t := range titles {
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// Allows reports whether t's group is accessible. A nil set allows nothing.
func (s AccessSet) Allows(t *Ticket) bool {
	if t == nil {
		return false
	}
	return s.Has(t.GroupTitle)
}

func (s AccessSet) Has(title string) bool {
	_, ok := s[title]
	return ok
}

// Titles returns the group titles in no particular order.
func (s AccessSet) Titles() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}
