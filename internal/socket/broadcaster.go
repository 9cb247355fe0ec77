package socket

import (
	"context"
	"fmt"

	"github.com/teamdeck/teamdeck-backend/internal/events"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
)

// Broadcaster relays team domain events to connected clients. Members
// watching a team room get membership changes; affected users get a
// direct message as well.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// Listen subscribes the broadcaster to the relevant team events.
func (b *Broadcaster) Listen(dispatcher *events.Dispatcher) {
	dispatcher.Subscribe(events.TeamMemberAdded{}.Name(), func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.TeamMemberAdded); ok {
			b.broadcastMemberChange(MessageTeamMemberAdded, e.Team, e.User)
		}
		return nil
	})

	dispatcher.Subscribe(events.TeamMemberUpdated{}.Name(), func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.TeamMemberUpdated); ok {
			b.broadcastMemberChange(MessageTeamMemberUpdated, e.Team, e.User)
		}
		return nil
	})

	dispatcher.Subscribe(events.TeamMemberRemoved{}.Name(), func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.TeamMemberRemoved); ok {
			b.broadcastMemberChange(MessageTeamMemberRemoved, e.Team, e.User)
		}
		return nil
	})

	dispatcher.Subscribe(events.InvitingTeamMember{}.Name(), func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.InvitingTeamMember); ok {
			b.hub.SendToRoom(teamRoom(e.Team.ID), MessageTeamInvited, map[string]interface{}{
				"teamId": e.Team.ID,
				"email":  e.Email,
			}, "")
		}
		return nil
	})
}

func (b *Broadcaster) broadcastMemberChange(msgType MessageType, team *repository.Team, user *repository.User) {
	if team == nil || user == nil {
		return
	}

	payload := map[string]interface{}{
		"teamId":   team.ID,
		"teamName": team.Name,
		"userId":   user.ID,
		"userName": user.Name,
	}

	b.hub.SendToRoom(teamRoom(team.ID), msgType, payload, "")
	b.hub.SendToUser(user.ID, msgType, payload)
}

func teamRoom(teamID string) string {
	return fmt.Sprintf("team:%s", teamID)
}
