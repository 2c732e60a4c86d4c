package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ravenswood/towncrier/internal/directory"
	"github.com/ravenswood/towncrier/internal/town"
)

// unknownMemberError marks a name argument that matched nobody in the guild.
type unknownMemberError struct {
	Name string
}

func (e *unknownMemberError) Error() string {
	return fmt.Sprintf("bot: no member matches %q", e.Name)
}

// replyForError translates a handler error into the channel reply the
// players expect. Unrecognized errors are logged and produce no reply.
func (d *Daemon) replyForError(ctx context.Context, ev directory.Event, err error) {
	var (
		badPlayer *town.BadPlayerTargetError
		badSeat   *town.BadSeatError
		badSide   *town.BadSidebarError
		locked    *town.LockedError
		unlocked  *town.UnlockedError
		nomOpen   *town.NominationOpenError
		badVotes  *town.InvalidVoteCountError
		noCount   *town.NoHeadcountError
		unknown   *unknownMemberError
	)
	switch {
	case errors.As(err, &badPlayer):
		d.replyEphemeral(ctx, ev, fmt.Sprintf("This game isn't meant for %s.", badPlayer.DisplayName))
	case errors.As(err, &unknown):
		d.replyEphemeral(ctx, ev, fmt.Sprintf("This game isn't meant for %s.", unknown.Name))
	case errors.As(err, &badSeat):
		d.replyEphemeral(ctx, ev, "That seat doesn't look like anything to me.")
	case errors.As(err, &badSide):
		d.replyEphemeral(ctx, ev, "That sidebar doesn't look like anything to me.")
	case errors.As(err, &locked):
		d.replyEphemeral(ctx, ev, fmt.Sprintf(
			"Before I'll allow that, you'll need to put the town into a deep"+
				" and dreamless slumber. [`%sunlock` first]", d.prefix))
	case errors.As(err, &unlocked):
		d.replyEphemeral(ctx, ev, fmt.Sprintf(
			"This game isn't meant for anyone yet. [`%slock` first]", d.prefix))
	case errors.As(err, &nomOpen):
		d.replyEphemeral(ctx, ev, fmt.Sprintf(
			"A nomination is already in progress. [`%snominate votes <#>`]", d.prefix))
	case errors.As(err, &badVotes):
		d.replyEphemeral(ctx, ev, "Number of votes must be in [0, 20].")
	case errors.As(err, &noCount):
		d.replyEphemeral(ctx, ev, "You don't have the players for a proper game.")
	default:
		log.Printf("bot: command %q: %v", ev.Text, err)
	}
}
