// Package town holds the live state of one Blood on the Clocktower game per
// venue: the player roster and seat order, lifecycle flags, and the
// nomination in progress. All display-name and role side effects go through
// the directory service and never feed back into state decisions.
package town

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ravenswood/towncrier/internal/directory"
)

// PlayerInfo is the per-player display state. Seat 0 means unseated. Votes
// is nil while alive, 1 for a fresh ghost vote and 0 once it is spent.
type PlayerInfo struct {
	Seat      int
	Dead      bool
	Votes     *int
	Traveling bool
}

// RoleBindings are the optional platform role IDs granted alongside roster
// membership. Empty strings mean no role is configured.
type RoleBindings struct {
	Player      string
	Traveler    string
	Storyteller string
}

// SessionConfig is the venue configuration a town is created with.
type SessionConfig struct {
	Symbols Symbols
	Roles   RoleBindings
}

// Town is the aggregate session state for one venue. Operations take the
// town mutex, mutate in-memory state first, and only then perform directory
// calls, so a failed rename or role grant can at worst leave a stale display
// name, never a corrupted roster.
type Town struct {
	VenueID string
	GuildID string

	mu           sync.Mutex
	players      map[string]bool
	order        []string
	info         map[string]*PlayerInfo
	travelers    map[string]bool
	storytellers []string
	locked       bool
	nomination   *Nomination
	prevNom      *Nomination
	roles        RoleBindings
	codec        *NameCodec
	dir          directory.Directory
	touched      time.Time
}

// New creates an empty town for a venue. The name codec is compiled once
// here; changing a venue's symbols requires recreating the town.
func New(venueID, guildID string, cfg SessionConfig, dir directory.Directory) (*Town, error) {
	codec, err := NewNameCodec(cfg.Symbols)
	if err != nil {
		return nil, err
	}
	return &Town{
		VenueID:      venueID,
		GuildID:      guildID,
		players:      make(map[string]bool),
		info:         make(map[string]*PlayerInfo),
		travelers:    make(map[string]bool),
		storytellers: nil,
		roles:        cfg.Roles,
		codec:        codec,
		dir:          dir,
		touched:      time.Now(),
	}, nil
}

// Codec returns the town's compiled name codec.
func (t *Town) Codec() *NameCodec { return t.codec }

// Lock freezes the roster and seat order, enabling in-game commands.
func (t *Town) Lock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked = true
	t.touch()
}

// Unlock re-enables the setup commands.
func (t *Town) Unlock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked = false
	t.touch()
}

// Locked reports the lock flag.
func (t *Town) Locked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locked
}

// LastActivity returns the time of the most recent state mutation.
func (t *Town) LastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.touched
}

// touch records a state mutation. Caller must hold mu.
func (t *Town) touch() { t.touched = time.Now() }

// infoFor returns the player's info entry, inserting defaults on first
// access. Caller must hold mu.
func (t *Town) infoFor(memberID string) *PlayerInfo {
	pi, ok := t.info[memberID]
	if !ok {
		pi = &PlayerInfo{}
		t.info[memberID] = pi
	}
	return pi
}

// baseNick returns the member's base nick, stripped of any state tags.
// Caller must hold mu. A directory miss yields an empty nick.
func (t *Town) baseNick(memberID string) string {
	name, err := t.dir.DisplayName(t.GuildID, memberID)
	if err != nil {
		log.Printf("town: display name for %s: %v", memberID, err)
		return ""
	}
	return t.codec.Decode(name).Nick
}

// applyName renders and applies the member's tagged display name. Failures
// are logged and swallowed; town state is already authoritative.
func (t *Town) applyName(ctx context.Context, memberID string) {
	pi := t.infoFor(memberID)
	name := t.codec.Render(*pi, t.baseNick(memberID))
	if err := t.dir.Rename(ctx, t.GuildID, memberID, name); err != nil {
		log.Printf("town: rename %s: %v", memberID, err)
	}
}

// applyStorytellerName applies the storyteller-tagged display name.
func (t *Town) applyStorytellerName(ctx context.Context, memberID string) {
	name := t.codec.RenderStoryteller(t.baseNick(memberID))
	if err := t.dir.Rename(ctx, t.GuildID, memberID, name); err != nil {
		log.Printf("town: rename storyteller %s: %v", memberID, err)
	}
}

// restoreName strips all tags from the member's display name.
func (t *Town) restoreName(ctx context.Context, memberID string) {
	if err := t.dir.Rename(ctx, t.GuildID, memberID, t.baseNick(memberID)); err != nil {
		log.Printf("town: restore name %s: %v", memberID, err)
	}
}

// grantRole grants a bound role if one is configured. Best-effort.
func (t *Town) grantRole(ctx context.Context, memberID, roleID string) {
	if roleID == "" {
		return
	}
	if err := t.dir.GrantRole(ctx, t.GuildID, memberID, roleID); err != nil {
		log.Printf("town: grant role %s to %s: %v", roleID, memberID, err)
	}
}

// revokeRole revokes a bound role if one is configured. Best-effort.
func (t *Town) revokeRole(ctx context.Context, memberID, roleID string) {
	if roleID == "" {
		return
	}
	if err := t.dir.RevokeRole(ctx, t.GuildID, memberID, roleID); err != nil {
		log.Printf("town: revoke role %s from %s: %v", roleID, memberID, err)
	}
}

// State is a consistent copy of a town's observable state, used by the
// summary renderer, the dashboard and tests.
type State struct {
	VenueID       string
	GuildID       string
	Locked        bool
	Order         []string
	Info          map[string]PlayerInfo
	Travelers     []string
	Storytellers  []string
	HasNomination bool
	LastActivity  time.Time
}

// Snapshot copies the town state under the lock.
func (t *Town) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := State{
		VenueID:       t.VenueID,
		GuildID:       t.GuildID,
		Locked:        t.locked,
		Order:         append([]string(nil), t.order...),
		Info:          make(map[string]PlayerInfo, len(t.info)),
		Storytellers:  append([]string(nil), t.storytellers...),
		HasNomination: t.nomination != nil,
		LastActivity:  t.touched,
	}
	for id := range t.players {
		pi := *t.infoFor(id)
		if pi.Votes != nil {
			v := *pi.Votes
			pi.Votes = &v
		}
		st.Info[id] = pi
	}
	for id := range t.travelers {
		st.Travelers = append(st.Travelers, id)
	}
	return st
}
