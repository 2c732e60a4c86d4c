package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ravenswood/towncrier/internal/directory"
	"github.com/ravenswood/towncrier/internal/town"
)

// cmdDead marks the author or the given player dead with a ghost vote.
func (d *Daemon) cmdDead(ctx context.Context, req *request) error {
	memberID, err := d.resolvePlayerArg(req)
	if err != nil {
		return err
	}
	req.town.SetDead(ctx, memberID)
	return nil
}

// cmdVoted marks the author or the given player dead with their ghost vote
// spent.
func (d *Daemon) cmdVoted(ctx context.Context, req *request) error {
	memberID, err := d.resolvePlayerArg(req)
	if err != nil {
		return err
	}
	req.town.SetVoted(ctx, memberID)
	return nil
}

// cmdAlive marks the author or the given player alive again.
func (d *Daemon) cmdAlive(ctx context.Context, req *request) error {
	memberID, err := d.resolvePlayerArg(req)
	if err != nil {
		return err
	}
	req.town.SetAlive(ctx, memberID)
	return nil
}

func (d *Daemon) resolvePlayerArg(req *request) (string, error) {
	ref, err := d.parseTarget(req.ev, req.args, true)
	if err != nil {
		return "", err
	}
	return req.town.ResolvePlayer(req.ev.AuthorID, ref)
}

// cmdTownsquare posts the seat-by-seat summary embed.
func (d *Daemon) cmdTownsquare(ctx context.Context, req *request) error {
	d.reply(ctx, req.ev, directory.Message{
		Embed: &directory.Embed{
			Description: req.town.Summary(),
			Color:       town.ColorSummary,
		},
	})
	return nil
}

// cmdCount posts the character-type count for the current player total.
func (d *Daemon) cmdCount(ctx context.Context, req *request) error {
	hc, err := req.town.Headcount()
	if err != nil {
		return err
	}
	d.reply(ctx, req.ev, directory.Message{
		Content: fmt.Sprintf("%d townsfolk, %d outsider(s), %d minion(s), and %d demon",
			hc.Townsfolk, hc.Outsiders, hc.Minions, hc.Demons),
	})
	return nil
}

// cmdNominate opens a nomination, or routes to the votes/cancel
// sub-commands.
func (d *Daemon) cmdNominate(ctx context.Context, req *request) error {
	if len(req.args) > 0 {
		switch req.args[0] {
		case "votes", "vote":
			return d.nominateVotes(ctx, req)
		case "cancel", "delete", "del":
			return d.nominateCancel(ctx, req)
		}
	}
	nominator, target, err := d.parseNominationArgs(req)
	if err != nil {
		return err
	}
	_, err = req.town.OpenNomination(ctx, req.ev.ChannelID, nominator, target)
	return err
}

// parseNominationArgs resolves the nominator and target players. With one
// argument the author nominates; with two, the first is the nominator.
func (d *Daemon) parseNominationArgs(req *request) (nominator, target string, err error) {
	switch len(req.args) {
	case 1:
		ref, err := d.parseSingleTarget(req.ev, req.args[0])
		if err != nil {
			return "", "", err
		}
		target, err := req.town.ResolvePlayer(req.ev.AuthorID, ref)
		if err != nil {
			return "", "", err
		}
		return req.ev.AuthorID, target, nil
	case 2:
		nomRef, nomErr := d.parseSingleTarget(req.ev, req.args[0])
		tgtRef, tgtErr := d.parseSingleTarget(req.ev, req.args[1])
		if nomErr != nil || tgtErr != nil {
			// Maybe the two tokens are one display name with a space.
			ref, err := d.parseTarget(req.ev, req.args, false)
			if err != nil {
				return "", "", err
			}
			target, err := req.town.ResolvePlayer(req.ev.AuthorID, ref)
			if err != nil {
				return "", "", err
			}
			return req.ev.AuthorID, target, nil
		}
		nominator, err := req.town.ResolvePlayer(req.ev.AuthorID, nomRef)
		if err != nil {
			return "", "", err
		}
		target, err := req.town.ResolvePlayer(req.ev.AuthorID, tgtRef)
		if err != nil {
			return "", "", err
		}
		return nominator, target, nil
	default:
		return "", "", fmt.Errorf("bot: nominate takes 1 or 2 player arguments, got %d", len(req.args))
	}
}

// nominateVotes records the vote tally on the open or previous nomination.
func (d *Daemon) nominateVotes(ctx context.Context, req *request) error {
	if len(req.args) < 2 {
		return fmt.Errorf("bot: nominate votes needs a number")
	}
	count, err := strconv.Atoi(req.args[1])
	if err != nil {
		return &town.InvalidVoteCountError{Count: -1}
	}
	err = req.town.RecordVotes(ctx, count)
	var noNom *town.NoNominationError
	if errors.As(err, &noNom) {
		d.replyEphemeral(ctx, req.ev, "There has not been a nomination to vote on.")
		return nil
	}
	return err
}

// nominateCancel deletes the open or previous nomination message.
func (d *Daemon) nominateCancel(ctx context.Context, req *request) error {
	err := req.town.CancelNomination(ctx)
	var noNom *town.NoNominationError
	if errors.As(err, &noNom) {
		d.replyEphemeral(ctx, req.ev, "There is no nomination to cancel.")
		return nil
	}
	return err
}

// cmdPublic repeats the author's statement in a highlighted embed.
func (d *Daemon) cmdPublic(ctx context.Context, req *request) error {
	if req.rest == "" {
		return fmt.Errorf("bot: public statement is empty")
	}
	return req.town.PublicStatement(ctx, req.ev.ChannelID, req.ev.AuthorID, req.rest)
}

// cmdGo moves the author to a voice channel in the category: no argument
// means the top channel (the town square), a number picks by position, so
// sidebar numbers map directly when the square is on top.
func (d *Daemon) cmdGo(ctx context.Context, req *request) error {
	channels, err := d.dir.VoiceChannels(req.ev.CategoryID)
	if err != nil || len(channels) == 0 {
		return &town.BadSidebarError{}
	}
	idx := 0
	if len(req.args) > 0 {
		idx, err = strconv.Atoi(req.args[0])
		if err != nil || idx < 0 || idx >= len(channels) {
			return &town.BadSidebarError{Sidebar: idx}
		}
	}
	if err := d.dir.MoveToVoice(ctx, req.ev.GuildID, req.ev.AuthorID, channels[idx]); err != nil {
		// Moving fails when the member isn't connected to voice.
		d.replyEphemeral(ctx, req.ev, "Bring yourself back online first. [connect to voice]")
	}
	return nil
}
