package town

import (
	"log"
	"sync"

	"github.com/ravenswood/towncrier/internal/directory"
)

// Settings keys the registry reads when creating a town. Values live in the
// per-venue settings store and are captured into the session at creation
// time; changing them takes effect on the next fresh town.
const (
	KeyEnabled         = "is_enabled"
	KeyEmojiDead       = "emoji.dead"
	KeyEmojiVote       = "emoji.vote"
	KeyEmojiNoVote     = "emoji.novote"
	KeyEmojiTraveling  = "emoji.traveling"
	KeyRolePlayer      = "role.player"
	KeyRoleTraveler    = "role.traveler"
	KeyRoleStoryteller = "role.storyteller"
)

// SettingsSource supplies per-venue configuration values. Get returns the
// stored value or the registered default; the empty string means unset.
type SettingsSource interface {
	Get(venueID, key string) string
}

// Registry owns the venue → town map. Towns are created on first reference
// with the venue's configured symbols and role bindings, and live in memory
// until deleted.
type Registry struct {
	mu       sync.Mutex
	towns    map[string]*Town
	settings SettingsSource
	dir      directory.Directory
}

// NewRegistry creates an empty registry.
func NewRegistry(settings SettingsSource, dir directory.Directory) *Registry {
	return &Registry{
		towns:    make(map[string]*Town),
		settings: settings,
		dir:      dir,
	}
}

// Get returns the venue's town, creating it from venue settings if needed.
func (r *Registry) Get(venueID, guildID string) *Town {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.towns[venueID]; ok {
		return t
	}
	cfg := SessionConfig{
		Symbols: Symbols{
			Dead:      r.setting(venueID, KeyEmojiDead, DefaultSymbols.Dead),
			Vote:      r.setting(venueID, KeyEmojiVote, DefaultSymbols.Vote),
			NoVote:    r.setting(venueID, KeyEmojiNoVote, DefaultSymbols.NoVote),
			Traveling: r.setting(venueID, KeyEmojiTraveling, DefaultSymbols.Traveling),
		},
		Roles: RoleBindings{
			Player:      r.settings.Get(venueID, KeyRolePlayer),
			Traveler:    r.settings.Get(venueID, KeyRoleTraveler),
			Storyteller: r.settings.Get(venueID, KeyRoleStoryteller),
		},
	}
	t, err := New(venueID, guildID, cfg, r.dir)
	if err != nil {
		// A venue emoji that breaks the pattern falls back to defaults
		// rather than leaving the venue without a town.
		log.Printf("town: create town for venue %s: %v", venueID, err)
		t, _ = New(venueID, guildID, SessionConfig{Symbols: DefaultSymbols, Roles: cfg.Roles}, r.dir)
	}
	r.towns[venueID] = t
	return t
}

// setting reads a venue setting with a fallback default.
func (r *Registry) setting(venueID, key, fallback string) string {
	if v := r.settings.Get(venueID, key); v != "" {
		return v
	}
	return fallback
}

// Delete removes the venue's town entirely. The next Get recreates a fresh
// one from current settings.
func (r *Registry) Delete(venueID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.towns, venueID)
}

// Towns returns a snapshot of all live towns.
func (r *Registry) Towns() []*Town {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Town, 0, len(r.towns))
	for _, t := range r.towns {
		out = append(out, t)
	}
	return out
}
