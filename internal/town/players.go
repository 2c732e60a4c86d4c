package town

import (
	"context"
	"math/rand"
)

// AddPlayer seats a member at the end of the circle. A storyteller who joins
// as a player stops storytelling first. No-op for existing players.
func (t *Town) AddPlayer(ctx context.Context, memberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addPlayerLocked(ctx, memberID)
}

func (t *Town) addPlayerLocked(ctx context.Context, memberID string) {
	if t.players[memberID] {
		return
	}
	if t.isStoryteller(memberID) {
		t.removeStorytellersLocked(ctx)
	}
	t.players[memberID] = true
	t.order = append(t.order, memberID)
	t.infoFor(memberID).Seat = len(t.order)
	t.touch()
	t.applyName(ctx, memberID)
	t.grantRole(ctx, memberID, t.roles.Player)
}

// RemovePlayer removes a member from the circle, restores their name, and
// renumbers the remaining seats.
func (t *Town) RemovePlayer(ctx context.Context, memberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removePlayerLocked(ctx, memberID)
}

func (t *Town) removePlayerLocked(ctx context.Context, memberID string) {
	if t.travelers[memberID] {
		t.clearTravelerLocked(ctx, memberID)
	}
	if t.players[memberID] {
		delete(t.players, memberID)
		for i, id := range t.order {
			if id == memberID {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
		delete(t.info, memberID)
	}
	t.touch()
	t.restoreName(ctx, memberID)
	t.revokeRole(ctx, memberID, t.roles.Player)
	t.renumberLocked(ctx)
}

// renumberLocked restores the seat invariant: every player's seat equals its
// position in the order plus one. Players whose seat changed are re-rendered.
// Caller must hold mu.
func (t *Town) renumberLocked(ctx context.Context) {
	for i, id := range t.order {
		pi := t.infoFor(id)
		if pi.Seat != i+1 {
			pi.Seat = i + 1
			t.applyName(ctx, id)
		}
	}
}

// SetTraveler flags a member as a traveler, seating them first if needed.
func (t *Town) SetTraveler(ctx context.Context, memberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.players[memberID] {
		t.addPlayerLocked(ctx, memberID)
	}
	t.travelers[memberID] = true
	t.infoFor(memberID).Traveling = true
	t.touch()
	t.applyName(ctx, memberID)
	t.grantRole(ctx, memberID, t.roles.Traveler)
}

// ClearTraveler unflags a traveler. No-op for non-travelers.
func (t *Town) ClearTraveler(ctx context.Context, memberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearTravelerLocked(ctx, memberID)
}

func (t *Town) clearTravelerLocked(ctx context.Context, memberID string) {
	if !t.travelers[memberID] {
		return
	}
	delete(t.travelers, memberID)
	t.infoFor(memberID).Traveling = false
	t.touch()
	t.applyName(ctx, memberID)
	t.revokeRole(ctx, memberID, t.roles.Traveler)
}

// AddStoryteller marks a member as a storyteller. A current player is
// unseated first; player and storyteller status are mutually exclusive.
func (t *Town) AddStoryteller(ctx context.Context, memberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isStoryteller(memberID) {
		return
	}
	if t.players[memberID] {
		t.removePlayerLocked(ctx, memberID)
	}
	t.storytellers = append(t.storytellers, memberID)
	t.touch()
	t.applyStorytellerName(ctx, memberID)
	t.grantRole(ctx, memberID, t.roles.Storyteller)
}

// RemoveStorytellers clears all storytellers, restoring their names.
func (t *Town) RemoveStorytellers(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeStorytellersLocked(ctx)
}

func (t *Town) removeStorytellersLocked(ctx context.Context) {
	sts := t.storytellers
	t.storytellers = nil
	t.touch()
	for _, id := range sts {
		t.restoreName(ctx, id)
		t.revokeRole(ctx, id, t.roles.Storyteller)
	}
}

func (t *Town) isStoryteller(memberID string) bool {
	for _, id := range t.storytellers {
		if id == memberID {
			return true
		}
	}
	return false
}

// SetSeat moves a seated player to the given seat, shifting everyone between
// the old and new seats toward the vacated slot. This is a splice, not a
// swap. Seats outside [1, len] are clamped.
func (t *Town) SetSeat(ctx context.Context, memberID string, seat int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	oldIdx := -1
	for i, id := range t.order {
		if id == memberID {
			oldIdx = i
			break
		}
	}
	if oldIdx < 0 {
		return &BadPlayerTargetError{MemberID: memberID}
	}
	newIdx := seat - 1
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx > len(t.order)-1 {
		newIdx = len(t.order) - 1
	}
	t.order = append(t.order[:oldIdx], t.order[oldIdx+1:]...)
	t.order = append(t.order[:newIdx], append([]string{memberID}, t.order[newIdx:]...)...)
	t.touch()
	t.renumberLocked(ctx)
	return nil
}

// Shuffle randomly permutes the seat order.
func (t *Town) Shuffle(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rand.Shuffle(len(t.order), func(i, j int) {
		t.order[i], t.order[j] = t.order[j], t.order[i]
	})
	t.touch()
	t.renumberLocked(ctx)
}

// SetDead marks a player dead with a fresh ghost vote.
func (t *Town) SetDead(ctx context.Context, memberID string) {
	one := 1
	t.setVitals(ctx, memberID, true, &one)
}

// SetVoted marks a player dead with their ghost vote spent.
func (t *Town) SetVoted(ctx context.Context, memberID string) {
	zero := 0
	t.setVitals(ctx, memberID, true, &zero)
}

// SetAlive marks a player alive, clearing any vote markers.
func (t *Town) SetAlive(ctx context.Context, memberID string) {
	t.setVitals(ctx, memberID, false, nil)
}

func (t *Town) setVitals(ctx context.Context, memberID string, dead bool, votes *int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pi := t.infoFor(memberID)
	pi.Dead = dead
	pi.Votes = votes
	t.touch()
	t.applyName(ctx, memberID)
}

// Clear erases all game state, restoring every participant's name and
// revoking bound roles. The town itself stays registered but empty.
func (t *Town) Clear(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	players := make([]string, 0, len(t.players))
	for id := range t.players {
		players = append(players, id)
	}
	travelers := make([]string, 0, len(t.travelers))
	for id := range t.travelers {
		travelers = append(travelers, id)
	}
	sts := t.storytellers

	t.players = make(map[string]bool)
	t.order = nil
	t.info = make(map[string]*PlayerInfo)
	t.travelers = make(map[string]bool)
	t.storytellers = nil
	t.locked = false
	t.nomination = nil
	t.prevNom = nil
	t.touch()

	for _, id := range players {
		t.restoreName(ctx, id)
		t.revokeRole(ctx, id, t.roles.Player)
	}
	for _, id := range travelers {
		t.revokeRole(ctx, id, t.roles.Traveler)
	}
	for _, id := range sts {
		t.restoreName(ctx, id)
		t.revokeRole(ctx, id, t.roles.Storyteller)
	}
}
