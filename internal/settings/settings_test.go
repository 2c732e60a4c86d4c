package settings

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store, err := NewStore(db, map[string]string{
		"emoji.dead": "\U0001F480",
		"is_enabled": "",
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestGetFallsBackToDefault(t *testing.T) {
	store := newTestStore(t)

	if got := store.Get("cat-1", "emoji.dead"); got != "\U0001F480" {
		t.Errorf("Get = %q, want default %q", got, "\U0001F480")
	}
	if got := store.Get("cat-1", "role.player"); got != "" {
		t.Errorf("Get unknown key = %q, want empty", got)
	}
}

func TestSetOverridesPerVenue(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("cat-1", "emoji.dead", "(rip)"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := store.Get("cat-1", "emoji.dead"); got != "(rip)" {
		t.Errorf("Get = %q, want %q", got, "(rip)")
	}
	// Other venues still see the default.
	if got := store.Get("cat-2", "emoji.dead"); got != "\U0001F480" {
		t.Errorf("Get other venue = %q, want default", got)
	}

	// Set twice updates in place.
	if err := store.Set("cat-1", "emoji.dead", "(gone)"); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	if got := store.Get("cat-1", "emoji.dead"); got != "(gone)" {
		t.Errorf("Get after update = %q, want %q", got, "(gone)")
	}
}

func TestLookupDistinguishesStored(t *testing.T) {
	store := newTestStore(t)

	if _, ok := store.Lookup("cat-1", "emoji.dead"); ok {
		t.Error("Lookup reported a default as stored")
	}
	if err := store.Set("cat-1", "emoji.dead", "(rip)"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := store.Lookup("cat-1", "emoji.dead")
	if !ok || got != "(rip)" {
		t.Errorf("Lookup = %q, %v; want (rip), true", got, ok)
	}
}

func TestUnsetRestoresDefault(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("cat-1", "emoji.dead", "(rip)"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Unset("cat-1", "emoji.dead"); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	if got := store.Get("cat-1", "emoji.dead"); got != "\U0001F480" {
		t.Errorf("Get after Unset = %q, want default", got)
	}
	// Unsetting a key that was never stored is not an error.
	if err := store.Unset("cat-1", "role.player"); err != nil {
		t.Errorf("Unset missing key: %v", err)
	}
}

func TestGetBool(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		value string
		want  bool
	}{
		{value: "true", want: true},
		{value: "1", want: true},
		{value: "false", want: false},
		{value: "", want: false},
		{value: "yes", want: false},
	}
	for _, tt := range tests {
		if err := store.Set("cat-1", "is_enabled", tt.value); err != nil {
			t.Fatalf("Set(%q): %v", tt.value, err)
		}
		if got := store.GetBool("cat-1", "is_enabled"); got != tt.want {
			t.Errorf("GetBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestAllListsStoredValues(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("cat-1", "is_enabled", "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("cat-1", "role.player", "role-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("cat-2", "is_enabled", "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.All("cat-1")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(All) = %d, want 2: %v", len(got), got)
	}
	if got["is_enabled"] != "true" || got["role.player"] != "role-1" {
		t.Errorf("All = %v", got)
	}
}
