// Package user describes the signed-in CRM user as the backend reports it.
package user

import "context"

// Group is a role group the user belongs to and the ticket group titles it
// opens.
type Group struct {
	Name        string   `json:"name"`
	GroupTitles []string `json:"group_titles"`
}

type Profile struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name,omitempty"`
	Roles       []string `json:"roles"`
	TeamMembers []int64  `json:"team_members"`
	Groups      []Group  `json:"groups"`
}

// AccessibleGroupTitles is the union of every group's titles, in first-seen
// order.
func (p *Profile) AccessibleGroupTitles() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range p.Groups {
		for _, title := range g.GroupTitles {
			if title == "" || seen[title] {
				continue
			}
			seen[title] = true
			out = append(out, title)
		}
	}
	return out
}

type ProfileRepository interface {
	GetMe(ctx context.Context) (*Profile, error)
}
