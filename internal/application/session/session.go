// Package session holds the read-only facts about the signed-in user that
// stores and evaluators consult. A Session is built once at start and
// replaced, never mutated.
package session

import (
	"slices"
	"strconv"

	"leadsync/internal/domain/filter"
	"leadsync/internal/domain/permission"
	vo "leadsync/internal/domain/permission/value_objects"
	"leadsync/internal/domain/ticket"
	"leadsync/internal/domain/user"
	"leadsync/internal/shared/utils/setutil"
)

type Session struct {
	userID          int64
	roles           []string
	matrix          permission.Matrix
	teamMembers     *setutil.IDSet
	groupRoles      map[string][]string
	access          ticket.AccessSet
	workflows       []string
	closedWorkflows []string
}

// New builds a session from the user profile and the configured workflows.
func New(p *user.Profile, workflows, closedWorkflows []string) *Session {
	groupRoles := make(map[string][]string, len(p.Groups))
	for _, g := range p.Groups {
		groupRoles[g.Name] = slices.Clone(g.GroupTitles)
	}
	return &Session{
		userID:          p.ID,
		roles:           slices.Clone(p.Roles),
		matrix:          permission.BuildMatrix(p.Roles),
		teamMembers:     setutil.NewIDSet(p.TeamMembers...),
		groupRoles:      groupRoles,
		access:          ticket.NewAccessSet(p.AccessibleGroupTitles()...),
		workflows:       slices.Clone(workflows),
		closedWorkflows: slices.Clone(closedWorkflows),
	}
}

func (s *Session) UserID() int64 { return s.userID }

func (s *Session) UserIDString() string {
	return strconv.FormatInt(s.userID, 10)
}

func (s *Session) Roles() []string { return slices.Clone(s.roles) }

func (s *Session) Matrix() permission.Matrix { return s.matrix }

func (s *Session) Workflows() []string { return slices.Clone(s.workflows) }

func (s *Session) ClosedWorkflows() []string { return slices.Clone(s.closedWorkflows) }

// GroupRoles maps each role group to the group titles it opens.
func (s *Session) GroupRoles() map[string][]string {
	out := make(map[string][]string, len(s.groupRoles))
	for k, v := range s.groupRoles {
		out[k] = slices.Clone(v)
	}
	return out
}

// CanAccess reports whether t belongs to an accessible group title.
func (s *Session) CanAccess(t *ticket.Ticket) bool {
	return s.access.Allows(t)
}

func (s *Session) HasGroupTitle(title string) bool {
	return s.access.Has(title)
}

// AccessibleGroupTitles returns the accessible titles sorted.
func (s *Session) AccessibleGroupTitles() []string {
	titles := s.access.Titles()
	slices.Sort(titles)
	return titles
}

// IsTeammate reports whether the user id is in the current user's team.
// The current user counts as their own teammate.
func (s *Session) IsTeammate(id string) bool {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false
	}
	return n == s.userID || s.teamMembers.Has(n)
}

// Can evaluates the matrix for a ticket whose responsible is responsibleID.
func (s *Session) Can(module vo.Module, action vo.Action, responsibleID string) bool {
	return s.CanWithOptions(module, action, responsibleID, permission.Options{})
}

func (s *Session) CanWithOptions(module vo.Module, action vo.Action, responsibleID string, opts permission.Options) bool {
	ctx := permission.Context{
		ResponsibleID: responsibleID,
		CurrentUserID: s.UserIDString(),
		IsSameTeam:    responsibleID != "" && s.IsTeammate(responsibleID),
	}
	return permission.Can(s.matrix, permission.Permission{Module: module, Action: action}, ctx, opts)
}

// HasStrict answers the route-level check.
func (s *Session) HasStrict(module vo.Module, action vo.Action) bool {
	return permission.HasStrictPermission(s.roles, module.String(), action.String())
}

func (s *Session) MatchContext() filter.MatchContext {
	return filter.MatchContext{CurrentUserID: s.userID}
}

// EffectiveWorkflows scopes a query per the session workflow lists.
func (s *Session) EffectiveWorkflows(set filter.Set) []string {
	search := set.Scalar(filter.FieldSearch) != ""
	return ticket.EffectiveWorkflows(set.Strings(filter.FieldWorkflow), search, s.workflows, s.closedWorkflows)
}
