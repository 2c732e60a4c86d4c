package town

import (
	"fmt"
	"strings"
)

// Summary renders the town square overview: one line per seat with the
// player's state tags and nick, the headcount line when the table applies,
// and the alive/majority tallies.
func (t *Town) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var lines []string
	alive := 0
	for i, id := range t.order {
		pi := t.infoFor(id)
		lines = append(lines, fmt.Sprintf("%s%s %s",
			emojiNumber(i+1), t.codec.RenderTags(*pi), t.baseNick(id)))
		if !pi.Dead {
			alive++
		}
	}
	if hc, ok := HeadcountFor(len(t.players) - len(t.travelers)); ok {
		lines = append(lines, fmt.Sprintf("%d/%d/%d/%d",
			hc.Townsfolk, hc.Outsiders, hc.Minions, hc.Demons))
	}
	lines = append(lines, fmt.Sprintf("**%d** players alive.", alive))
	lines = append(lines, fmt.Sprintf("**%d** votes to execute.", majority(alive)))
	return strings.Join(lines, "\n")
}

// AliveCount returns the number of living players, travelers included.
func (t *Town) AliveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	alive := 0
	for _, id := range t.order {
		if !t.infoFor(id).Dead {
			alive++
		}
	}
	return alive
}

// Headcount returns the character-type distribution for the town's current
// non-traveler player count. Headcount deliberately excludes travelers even
// though alive/majority tallies include them.
func (t *Town) Headcount() (Headcount, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.players) - len(t.travelers)
	hc, ok := HeadcountFor(n)
	if !ok {
		return Headcount{}, &NoHeadcountError{Players: n}
	}
	return hc, nil
}

// majority is the minimum votes to execute: half the living players,
// rounded up.
func majority(alive int) int {
	return (alive + 1) / 2
}
