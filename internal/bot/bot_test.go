package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ravenswood/towncrier/internal/directory"
	"github.com/ravenswood/towncrier/internal/settings"
	"github.com/ravenswood/towncrier/internal/town"
)

// testFixture wires a Daemon to a mock directory and an in-memory settings
// store so tests can drive handleEvent directly.
type testFixture struct {
	d     *Daemon
	dir   *directory.Mock
	store *settings.Store
	towns *town.Registry

	msgSeq int
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	db, err := settings.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open settings db: %v", err)
	}
	store, err := settings.NewStore(db, map[string]string{
		town.KeyEmojiDead:      town.DefaultSymbols.Dead,
		town.KeyEmojiVote:      town.DefaultSymbols.Vote,
		town.KeyEmojiNoVote:    town.DefaultSymbols.NoVote,
		town.KeyEmojiTraveling: town.DefaultSymbols.Traveling,
	})
	if err != nil {
		t.Fatalf("new settings store: %v", err)
	}

	dir := directory.NewMock()
	dir.AddMember("alice", "Alice")
	dir.AddMember("bob", "Bob")
	dir.AddMember("carol", "Carol")
	dir.AddMember("meg", "Meg")
	dir.SetAdmin("meg")

	towns := town.NewRegistry(store, dir)
	d, err := New(Opts{
		Settings:    store,
		Towns:       towns,
		Directory:   dir,
		Gateway:     dir,
		Prefix:      ".",
		DeleteDelay: time.Minute,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testFixture{d: d, dir: dir, store: store, towns: towns}
}

// enable turns town commands on for the test category.
func (f *testFixture) enable(t *testing.T) {
	t.Helper()
	if err := f.store.Set("cat-1", town.KeyEnabled, "true"); err != nil {
		t.Fatalf("enable category: %v", err)
	}
}

// send dispatches a chat message as authorID and returns the command
// message's ref.
func (f *testFixture) send(authorID, text string) directory.MessageRef {
	f.msgSeq++
	ev := directory.Event{
		GuildID:      "guild-1",
		CategoryID:   "cat-1",
		CategoryName: "Ravenswood",
		ChannelID:    "chan-1",
		MessageID:    fmt.Sprintf("cmd-%d", f.msgSeq),
		AuthorID:     authorID,
		Text:         text,
		Timestamp:    time.Now(),
	}
	f.d.handleEvent(context.Background(), ev)
	return directory.MessageRef{ChannelID: ev.ChannelID, MessageID: ev.MessageID}
}

func (f *testFixture) displayName(t *testing.T, memberID string) string {
	t.Helper()
	name, err := f.dir.DisplayName("guild-1", memberID)
	if err != nil {
		t.Fatalf("DisplayName(%s): %v", memberID, err)
	}
	return name
}

// lastPost returns the most recent posted message.
func (f *testFixture) lastPost(t *testing.T) directory.PostedMessage {
	t.Helper()
	posted := f.dir.Posted()
	if len(posted) == 0 {
		t.Fatal("no messages posted")
	}
	return posted[len(posted)-1]
}

func TestDisabledCategoryIgnoresCommands(t *testing.T) {
	f := newFixture(t)

	f.send("alice", ".play")

	if got := f.displayName(t, "alice"); got != "Alice" {
		t.Errorf("display name = %q, want untouched %q", got, "Alice")
	}
	if n := len(f.dir.Posted()); n != 0 {
		t.Errorf("posted %d messages, want 0", n)
	}
	if n := len(f.dir.Deleted()); n != 0 {
		t.Errorf("deleted %d messages, want 0", n)
	}
}

func TestUnknownAndUnprefixedTextIgnored(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", "hello everyone")
	f.send("alice", ".bogus")
	f.send("alice", ".")

	if n := len(f.dir.Posted()) + len(f.dir.Deleted()); n != 0 {
		t.Errorf("recorded %d side effects, want 0", n)
	}
}

func TestTownEnableRequiresManager(t *testing.T) {
	f := newFixture(t)

	f.send("alice", ".town enable")
	if f.store.GetBool("cat-1", town.KeyEnabled) {
		t.Fatal("non-manager enabled the category")
	}

	f.dir.SetManager("carol")
	ref := f.send("carol", ".town enable")
	if !f.store.GetBool("cat-1", town.KeyEnabled) {
		t.Fatal("manager could not enable the category")
	}
	if got := f.dir.Reactions(ref); len(got) != 1 || got[0] != acknowledgeEmoji {
		t.Errorf("reactions = %v, want acknowledge", got)
	}
}

func TestPlayRenamesAndSchedulesCleanup(t *testing.T) {
	f := newFixture(t)
	f.enable(t)
	if err := f.store.Set("cat-1", town.KeyRolePlayer, "role-p"); err != nil {
		t.Fatal(err)
	}

	ref := f.send("alice", ".play")

	if got, want := f.displayName(t, "alice"), "_01 Alice"; got != want {
		t.Errorf("display name = %q, want %q", got, want)
	}
	if !f.dir.HasRole("guild-1", "alice", "role-p") {
		t.Error("player role not granted")
	}
	deleted := f.dir.Deleted()
	if len(deleted) != 1 || deleted[0] != ref {
		t.Errorf("deleted = %v, want just the command message %v", deleted, ref)
	}
}

func TestPlayByMention(t *testing.T) {
	f := newFixture(t)
	f.enable(t)
	f.dir.AddMember("42", "Zed")

	f.send("alice", ".play <@42>")

	if got, want := f.displayName(t, "42"), "_01 Zed"; got != want {
		t.Errorf("display name = %q, want %q", got, want)
	}
}

func TestPlayUnknownNameReplies(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", ".play Nobody Here")

	got := f.lastPost(t).Msg.Content
	if want := "This game isn't meant for Nobody Here."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestLockGuards(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	// Locked-only commands refuse while the town is open.
	f.send("alice", ".townsquare")
	got := f.lastPost(t).Msg.Content
	if want := "This game isn't meant for anyone yet. [`.lock` first]"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	f.send("alice", ".play")
	f.send("meg", ".lock")

	// Setup commands refuse while the town is locked.
	f.send("bob", ".play")
	got = f.lastPost(t).Msg.Content
	want := "Before I'll allow that, you'll need to put the town into a deep" +
		" and dreamless slumber. [`.unlock` first]"
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if got := f.displayName(t, "bob"); got != "Bob" {
		t.Errorf("bob renamed to %q while town locked", got)
	}
}

func TestLockNeedsStoryteller(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	ref := f.send("alice", ".lock")
	if got := f.dir.Reactions(ref); len(got) != 0 {
		t.Errorf("non-storyteller lock acknowledged: %v", got)
	}
	if f.towns.Get("cat-1", "guild-1").Locked() {
		t.Fatal("non-storyteller locked the town")
	}

	// The venue's storyteller role qualifies, not just guild admins.
	if err := f.store.Set("cat-1", town.KeyRoleStoryteller, "role-s"); err != nil {
		t.Fatal(err)
	}
	f.towns.Delete("cat-1")
	if err := f.dir.GrantRole(context.Background(), "guild-1", "carol", "role-s"); err != nil {
		t.Fatal(err)
	}
	ref = f.send("carol", ".lock")
	if got := f.dir.Reactions(ref); len(got) != 1 || got[0] != acknowledgeEmoji {
		t.Errorf("reactions = %v, want acknowledge", got)
	}
	if !f.towns.Get("cat-1", "guild-1").Locked() {
		t.Fatal("storyteller-role member could not lock the town")
	}
}

func TestDeadMarksAuthor(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", ".play")
	f.send("alice", ".dead")

	if got, want := f.displayName(t, "alice"), "_01\U0001F480\U0001F47B Alice"; got != want {
		t.Errorf("display name = %q, want %q", got, want)
	}

	f.send("alice", ".alive")
	if got, want := f.displayName(t, "alice"), "_01 Alice"; got != want {
		t.Errorf("display name = %q, want %q", got, want)
	}
}

func TestNominateFlow(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", ".play")
	f.send("bob", ".play")
	f.send("meg", ".lock")

	f.send("alice", ".nominate bob")
	nomPost := f.lastPost(t)
	wantLine := "**Alice** nominates **Bob** for execution."
	if !strings.HasPrefix(nomPost.Msg.Content, wantLine) {
		t.Errorf("nomination content = %q, want prefix %q", nomPost.Msg.Content, wantLine)
	}
	if nomPost.Msg.Embed == nil || nomPost.Msg.Embed.Color != town.ColorExecution {
		t.Errorf("nomination embed = %+v, want execution color", nomPost.Msg.Embed)
	}

	// A second nomination is refused until votes land.
	f.send("bob", ".nominate alice")
	got := f.lastPost(t).Msg.Content
	if want := "A nomination is already in progress. [`.nominate votes <#>`]"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	f.send("meg", ".nominate votes 3")
	if got := f.dir.Reactions(nomPost.Ref); len(got) != 1 || got[0] != "3️⃣" {
		t.Errorf("vote reactions = %v, want [3-keycap]", got)
	}

	f.send("meg", ".nominate votes twelve")
	gotReply := f.lastPost(t).Msg.Content
	if want := "Number of votes must be in [0, 20]."; gotReply != want {
		t.Errorf("reply = %q, want %q", gotReply, want)
	}
}

func TestNominateCancelWithoutNomination(t *testing.T) {
	f := newFixture(t)
	f.enable(t)
	f.send("meg", ".lock")

	f.send("meg", ".nominate cancel")
	got := f.lastPost(t).Msg.Content
	if want := "There is no nomination to cancel."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	f.send("meg", ".nominate votes 2")
	got = f.lastPost(t).Msg.Content
	if want := "There has not been a nomination to vote on."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestTownsquarePostsSummary(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", ".play")
	f.send("bob", ".play")
	f.send("meg", ".lock")
	f.send("alice", ".ts")

	post := f.lastPost(t)
	if post.Msg.Embed == nil || post.Msg.Embed.Color != town.ColorSummary {
		t.Fatalf("summary post = %+v, want summary embed", post.Msg)
	}
	if !strings.Contains(post.Msg.Embed.Description, "**2** players alive.") {
		t.Errorf("summary = %q, missing alive line", post.Msg.Embed.Description)
	}
	// The summary stays in the channel.
	for _, ref := range f.dir.Deleted() {
		if ref == post.Ref {
			t.Error("summary message scheduled for deletion")
		}
	}
}

func TestPublicStatement(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", ".play")
	f.send("meg", ".lock")
	f.send("alice", ".say I am the  mayor")

	post := f.lastPost(t)
	if post.Msg.Embed == nil {
		t.Fatal("public statement posted without embed")
	}
	if got, want := post.Msg.Embed.Description, "I am the  mayor"; got != want {
		t.Errorf("statement = %q, want %q", got, want)
	}
	if got, want := post.Msg.Embed.AuthorName, "Alice"; got != want {
		t.Errorf("author = %q, want %q", got, want)
	}
	if post.Msg.Embed.Color != town.ColorPublic {
		t.Errorf("color = %#x, want %#x", post.Msg.Embed.Color, town.ColorPublic)
	}
}

func TestGoMovesToVoice(t *testing.T) {
	f := newFixture(t)
	f.enable(t)
	f.dir.SetVoiceChannels("cat-1", []string{"square", "side-1", "side-2"})

	f.send("alice", ".go")
	f.send("alice", ".go 2")

	moves := f.dir.Moves()
	if len(moves) != 2 {
		t.Fatalf("moves = %v, want 2", moves)
	}
	if moves[0] != (directory.VoiceMove{MemberID: "alice", ChannelID: "square"}) {
		t.Errorf("moves[0] = %v, want town square", moves[0])
	}
	if moves[1] != (directory.VoiceMove{MemberID: "alice", ChannelID: "side-2"}) {
		t.Errorf("moves[1] = %v, want side-2", moves[1])
	}

	f.send("alice", ".go 9")
	got := f.lastPost(t).Msg.Content
	if want := "That sidebar doesn't look like anything to me."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestSitBadSeatReplies(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", ".play")
	f.send("alice", ".sit nowhere")

	got := f.lastPost(t).Msg.Content
	if want := "That seat doesn't look like anything to me."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestCountOutsideTableReplies(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", ".play")
	f.send("bob", ".play")
	f.send("meg", ".lock")
	f.send("alice", ".count")

	got := f.lastPost(t).Msg.Content
	if want := "You don't have the players for a proper game."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestClearResetsTown(t *testing.T) {
	f := newFixture(t)
	f.enable(t)

	f.send("alice", ".play")
	f.send("bob", ".st")
	f.send("meg", ".clear")

	if got := f.displayName(t, "alice"); got != "Alice" {
		t.Errorf("alice = %q after clear, want restored name", got)
	}
	if got := f.displayName(t, "bob"); got != "Bob" {
		t.Errorf("bob = %q after clear, want restored name", got)
	}
	st := f.towns.Get("cat-1", "guild-1").Snapshot()
	if len(st.Order) != 0 || len(st.Storytellers) != 0 {
		t.Errorf("state after clear = %+v, want empty", st)
	}
}

func TestTownListShowsSettings(t *testing.T) {
	f := newFixture(t)
	f.enable(t)
	f.dir.SetManager("carol")

	f.send("carol", ".town")

	got := f.lastPost(t).Msg.Content
	if !strings.HasPrefix(got, "Use sub-commands to manage a town category.") {
		t.Errorf("reply = %q, want usage line first", got)
	}
	if !strings.Contains(got, "Settings for Ravenswood:") {
		t.Errorf("reply = %q, missing settings header", got)
	}
	if !strings.Contains(got, "`is_enabled`: true") {
		t.Errorf("reply = %q, missing is_enabled line", got)
	}
}

func TestTownSetEmojiRejectsCustom(t *testing.T) {
	f := newFixture(t)
	f.dir.SetManager("carol")

	f.send("carol", ".town setemoji dead <:skull:123456789>")

	got := f.lastPost(t).Msg.Content
	if want := "Cannot use custom Discord emojis in nickname."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if _, ok := f.store.Lookup("cat-1", town.KeyEmojiDead); ok {
		t.Error("custom emoji was stored")
	}
}

func TestTownSetEmojiRebuildsTown(t *testing.T) {
	f := newFixture(t)
	f.enable(t)
	f.dir.SetManager("carol")

	f.send("carol", ".town setemoji dead (rip)")
	f.send("alice", ".play")
	f.send("alice", ".dead")

	if got, want := f.displayName(t, "alice"), "_01(rip)\U0001F47B Alice"; got != want {
		t.Errorf("display name = %q, want %q", got, want)
	}
}

func TestTownCreate(t *testing.T) {
	f := newFixture(t)
	f.dir.SetManager("carol")

	ref := f.send("carol", ".town create Dark Ravenswood")

	if got := f.dir.Reactions(ref); len(got) != 1 || got[0] != acknowledgeEmoji {
		t.Fatalf("reactions = %v, want acknowledge", got)
	}
	// One town square, seven sidebars, one storyteller sidebar.
	voice, err := f.dir.VoiceChannels("cat-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(voice) != 9 {
		t.Errorf("created %d voice channels, want 9", len(voice))
	}
	if !f.store.GetBool("cat-1", town.KeyEnabled) {
		t.Error("created category not enabled")
	}
}

func TestTownSetRoleCreatesRole(t *testing.T) {
	f := newFixture(t)
	f.dir.SetManager("carol")

	f.send("carol", ".town setrole player")

	roleID, ok := f.dir.RoleByName("guild-1", "Playing Ravenswood")
	if !ok {
		t.Fatal("role Playing Ravenswood not created")
	}
	if got := f.store.Get("cat-1", town.KeyRolePlayer); got != roleID {
		t.Errorf("role.player = %q, want %q", got, roleID)
	}
}
