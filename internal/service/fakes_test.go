package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teamdeck/teamdeck-backend/internal/repository"
)

// memStore is a shared in-memory backing store for the repository
// fakes. It mirrors the database semantics the services rely on:
// uniqueness violations, membership detach clearing current-team
// pointers, and the atomic invitation acceptance.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*repository.User
	teams       map[string]*repository.Team
	memberships map[string]map[string]*repository.Membership // teamID -> userID
	invitations map[string]*repository.TeamInvitation
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*repository.User),
		teams:       make(map[string]*repository.Team),
		memberships: make(map[string]map[string]*repository.Membership),
		invitations: make(map[string]*repository.TeamInvitation),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// ============================================
// User repository fake
// ============================================

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = r.s.nextID("user")
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateCurrentTeam(ctx context.Context, userID string, teamID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[userID]; ok {
		u.CurrentTeamID = teamID
	}
	return nil
}

// ============================================
// Team repository fake
// ============================================

type fakeTeamRepo struct{ s *memStore }

func (r *fakeTeamRepo) Create(ctx context.Context, team *repository.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if team.ID == "" {
		team.ID = r.s.nextID("team")
	}
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	r.s.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) FindByID(ctx context.Context, id string) (*repository.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.teams[id], nil
}

func (r *fakeTeamRepo) UpdateName(ctx context.Context, id, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.teams[id]; ok {
		t.Name = name
	}
	return nil
}

func (r *fakeTeamRepo) FindByOwner(ctx context.Context, userID string) ([]*repository.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*repository.Team
	for _, t := range r.s.teams {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sortTeams(out)
	return out, nil
}

func (r *fakeTeamRepo) FindPersonalTeam(ctx context.Context, userID string) (*repository.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.teams {
		if t.UserID == userID && t.PersonalTeam {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTeamRepo) FindJoined(ctx context.Context, userID string) ([]*repository.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*repository.Team
	for teamID, members := range r.s.memberships {
		if _, ok := members[userID]; ok {
			out = append(out, r.s.teams[teamID])
		}
	}
	sortTeams(out)
	return out, nil
}

func (r *fakeTeamRepo) AttachMember(ctx context.Context, member *repository.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.attachLocked(member)
}

func (r *fakeTeamRepo) attachLocked(member *repository.Membership) error {
	members := r.s.memberships[member.TeamID]
	if members == nil {
		members = make(map[string]*repository.Membership)
		r.s.memberships[member.TeamID] = members
	}
	if _, exists := members[member.UserID]; exists {
		return repository.ErrDuplicate
	}
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	members[member.UserID] = member
	return nil
}

func (r *fakeTeamRepo) FindMembers(ctx context.Context, teamID string) ([]*repository.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*repository.Membership
	for _, m := range r.s.memberships[teamID] {
		m.User = r.s.users[m.UserID]
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTeamRepo) FindMembership(ctx context.Context, teamID, userID string) (*repository.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.memberships[teamID][userID], nil
}

func (r *fakeTeamRepo) FindUsers(ctx context.Context, teamID string) ([]*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*repository.User
	for userID := range r.s.memberships[teamID] {
		out = append(out, r.s.users[userID])
	}
	return out, nil
}

func (r *fakeTeamRepo) FindAllUsers(ctx context.Context, teamID string) ([]*repository.User, error) {
	users, _ := r.FindUsers(ctx, teamID)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if team, ok := r.s.teams[teamID]; ok {
		if owner, ok := r.s.users[team.UserID]; ok {
			users = append(users, owner)
		}
	}
	return users, nil
}

func (r *fakeTeamRepo) HasUser(ctx context.Context, teamID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if team, ok := r.s.teams[teamID]; ok && team.UserID == userID {
		return true, nil
	}
	_, ok := r.s.memberships[teamID][userID]
	return ok, nil
}

func (r *fakeTeamRepo) HasUserWithEmail(ctx context.Context, teamID, email string) (bool, error) {
	r.s.mu.Lock()
	var userID string
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			userID = u.ID
			break
		}
	}
	r.s.mu.Unlock()

	if userID == "" {
		return false, nil
	}
	return r.HasUser(ctx, teamID, userID)
}

func (r *fakeTeamRepo) UpdateMemberRole(ctx context.Context, teamID, userID, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.memberships[teamID][userID]; ok {
		m.Role = &role
	}
	return nil
}

func (r *fakeTeamRepo) RemoveUser(ctx context.Context, teamID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[userID]; ok && u.CurrentTeamID != nil && *u.CurrentTeamID == teamID {
		u.CurrentTeamID = nil
	}
	delete(r.s.memberships[teamID], userID)
	return nil
}

func (r *fakeTeamRepo) AcceptInvitation(ctx context.Context, invitation *repository.TeamInvitation, user *repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	invitedBy := invitation.InvitedByID
	err := r.attachLocked(&repository.Membership{
		TeamID:      invitation.TeamID,
		UserID:      user.ID,
		Role:        invitation.Role,
		InvitedByID: &invitedBy,
	})
	if err != nil {
		return err
	}

	delete(r.s.invitations, invitation.ID)

	if user.CurrentTeamID == nil {
		teamID := invitation.TeamID
		user.CurrentTeamID = &teamID
		if stored, ok := r.s.users[user.ID]; ok {
			stored.CurrentTeamID = &teamID
		}
	}
	return nil
}

func (r *fakeTeamRepo) Purge(ctx context.Context, teamID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.CurrentTeamID != nil && *u.CurrentTeamID == teamID {
			u.CurrentTeamID = nil
		}
	}
	delete(r.s.memberships, teamID)
	for id, inv := range r.s.invitations {
		if inv.TeamID == teamID {
			delete(r.s.invitations, id)
		}
	}
	delete(r.s.teams, teamID)
	return nil
}

// ============================================
// Invitation repository fake
// ============================================

type fakeInvitationRepo struct{ s *memStore }

func (r *fakeInvitationRepo) Create(ctx context.Context, invitation *repository.TeamInvitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, inv := range r.s.invitations {
		if inv.TeamID == invitation.TeamID && strings.EqualFold(inv.Email, invitation.Email) {
			return repository.ErrDuplicate
		}
	}
	if invitation.ID == "" {
		invitation.ID = r.s.nextID("invitation")
	}
	invitation.CreatedAt = time.Now()
	invitation.UpdatedAt = invitation.CreatedAt
	r.s.invitations[invitation.ID] = invitation
	return nil
}

func (r *fakeInvitationRepo) FindByID(ctx context.Context, id string) (*repository.TeamInvitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.invitations[id], nil
}

func (r *fakeInvitationRepo) FindByTeam(ctx context.Context, teamID string) ([]*repository.TeamInvitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*repository.TeamInvitation
	for _, inv := range r.s.invitations {
		if inv.TeamID == teamID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeInvitationRepo) ExistsForEmail(ctx context.Context, teamID, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, inv := range r.s.invitations {
		if inv.TeamID == teamID && strings.EqualFold(inv.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvitationRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.invitations, id)
	return nil
}

func (r *fakeInvitationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int64
	for id, inv := range r.s.invitations {
		if now.After(inv.ExpiresAt) {
			delete(r.s.invitations, id)
			removed++
		}
	}
	return removed, nil
}

func sortTeams(teams []*repository.Team) {
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
}
