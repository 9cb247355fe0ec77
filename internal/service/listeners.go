package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/teamdeck/teamdeck-backend/internal/events"
)

// RegisterPersonalTeamListener makes every new user start out with a
// personal team named after them, set as their current team.
func RegisterPersonalTeamListener(dispatcher *events.Dispatcher, teamService TeamService) {
	dispatcher.Subscribe(events.UserRegistered{}.Name(), func(ctx context.Context, event events.Event) error {
		registered, ok := event.(events.UserRegistered)
		if !ok {
			return nil
		}

		first := registered.User.Name
		if i := strings.IndexByte(first, ' '); i > 0 {
			first = first[:i]
		}

		_, err := teamService.CreateTeam(ctx, registered.User, CreateTeamInput{
			Name:     fmt.Sprintf("%s's Team", first),
			Personal: true,
		})
		return err
	})
}
