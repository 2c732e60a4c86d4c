package bot

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// startJanitor schedules the idle-town sweep. Returns nil when the sweep is
// disabled by configuration.
func (d *Daemon) startJanitor() (*cron.Cron, error) {
	if d.idleTTL <= 0 || d.schedule == "" {
		return nil, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(d.schedule, d.sweepIdleTowns); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", d.schedule, err)
	}
	c.Start()
	log.Printf("bot: janitor sweeping on %q, idle TTL %v", d.schedule, d.idleTTL)
	return c, nil
}

// sweepIdleTowns drops towns idle past the TTL. A dropped town is rebuilt
// from settings on its next command, so only stale game state is lost.
// Locked towns are games in progress and are never swept.
func (d *Daemon) sweepIdleTowns() {
	cutoff := time.Now().Add(-d.idleTTL)
	for _, t := range d.towns.Towns() {
		if t.Locked() {
			continue
		}
		if t.LastActivity().Before(cutoff) {
			log.Printf("bot: sweeping idle town %s", t.VenueID)
			d.towns.Delete(t.VenueID)
		}
	}
}
