package bot

import (
	"context"
	"strconv"

	"github.com/ravenswood/towncrier/internal/town"
)

// cmdPlay seats the author, or the named member, as a player.
func (d *Daemon) cmdPlay(ctx context.Context, req *request) error {
	ref, err := d.parseTarget(req.ev, req.args, false)
	if err != nil {
		return err
	}
	memberID, err := req.town.ResolveMember(req.ev.AuthorID, ref)
	if err != nil {
		return err
	}
	req.town.AddPlayer(ctx, memberID)
	return nil
}

// cmdUnplay unseats the author or the given player and restores their name.
func (d *Daemon) cmdUnplay(ctx context.Context, req *request) error {
	ref, err := d.parseTarget(req.ev, req.args, true)
	if err != nil {
		return err
	}
	memberID, err := req.town.ResolveMember(req.ev.AuthorID, ref)
	if err != nil {
		return err
	}
	req.town.RemovePlayer(ctx, memberID)
	return nil
}

// cmdTravel flags the author or the given member as a traveler, seating
// them first if needed.
func (d *Daemon) cmdTravel(ctx context.Context, req *request) error {
	ref, err := d.parseTarget(req.ev, req.args, true)
	if err != nil {
		return err
	}
	memberID, err := req.town.ResolveMember(req.ev.AuthorID, ref)
	if err != nil {
		return err
	}
	req.town.SetTraveler(ctx, memberID)
	return nil
}

// cmdUntravel clears the traveler flag from the author or the given player.
func (d *Daemon) cmdUntravel(ctx context.Context, req *request) error {
	ref, err := d.parseTarget(req.ev, req.args, true)
	if err != nil {
		return err
	}
	memberID, err := req.town.ResolvePlayer(req.ev.AuthorID, ref)
	if err != nil {
		return err
	}
	req.town.ClearTraveler(ctx, memberID)
	return nil
}

// cmdStorytell marks the author or the named member as a storyteller.
func (d *Daemon) cmdStorytell(ctx context.Context, req *request) error {
	ref, err := d.parseTarget(req.ev, req.args, false)
	if err != nil {
		return err
	}
	memberID, err := req.town.ResolveMember(req.ev.AuthorID, ref)
	if err != nil {
		return err
	}
	req.town.AddStoryteller(ctx, memberID)
	return nil
}

// cmdUnstorytell clears all storytellers.
func (d *Daemon) cmdUnstorytell(ctx context.Context, req *request) error {
	req.town.RemoveStorytellers(ctx)
	return nil
}

// cmdSit moves the author or the given player to a new seat, shifting the
// seats in between toward the vacated one.
func (d *Daemon) cmdSit(ctx context.Context, req *request) error {
	if len(req.args) == 0 {
		return &town.BadSeatError{}
	}
	seat, err := strconv.Atoi(req.args[0])
	if err != nil {
		return &town.BadSeatError{Seat: -1}
	}
	ref, err := d.parseTarget(req.ev, req.args[1:], true)
	if err != nil {
		return err
	}
	memberID, err := req.town.ResolvePlayer(req.ev.AuthorID, ref)
	if err != nil {
		return err
	}
	return req.town.SetSeat(ctx, memberID, seat)
}

// cmdShuffle randomly permutes the seat order.
func (d *Daemon) cmdShuffle(ctx context.Context, req *request) error {
	req.town.Shuffle(ctx)
	return nil
}
