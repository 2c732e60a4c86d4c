package bot

import "context"

// cmdLock starts a game: the player list and seat order freeze and the
// in-game commands activate.
func (d *Daemon) cmdLock(ctx context.Context, req *request) error {
	req.town.Lock()
	d.acknowledge(ctx, req.ev)
	return nil
}

// cmdUnlock pauses a game, re-enabling the setup commands.
func (d *Daemon) cmdUnlock(ctx context.Context, req *request) error {
	req.town.Unlock()
	d.acknowledge(ctx, req.ev)
	return nil
}

// cmdClear ends the game, erasing state and restoring names and roles.
func (d *Daemon) cmdClear(ctx context.Context, req *request) error {
	req.town.Clear(ctx)
	d.acknowledge(ctx, req.ev)
	return nil
}
