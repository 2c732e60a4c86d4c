package town

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ravenswood/towncrier/internal/directory"
)

// Embed colors for nomination and status messages.
const (
	ColorExecution = 0x2ECC71 // green
	ColorExile     = 0xF1C40F // gold
	ColorSummary   = 0xAD1457 // dark magenta
	ColorPublic    = 0x3498DB // blue
)

// NominationKind labels a nomination; it has no rule effect.
type NominationKind string

const (
	NominationExecution NominationKind = "execution"
	NominationExile     NominationKind = "exile"
)

// Nomination is the record of a nomination message. At most one nomination
// is open per town; recording votes moves it to the previous slot.
type Nomination struct {
	Ref       directory.MessageRef
	Kind      NominationKind
	Nominator string
	Target    string
}

// OpenNomination posts the nomination message and stores its handle. The
// target must already be resolved to a player; the kind is exile for
// travelers and execution otherwise. Fails with NominationOpenError when a
// nomination is already in progress.
func (t *Town) OpenNomination(ctx context.Context, channelID, nominatorID, targetID string) (*Nomination, error) {
	t.mu.Lock()
	if t.nomination != nil {
		t.mu.Unlock()
		return nil, &NominationOpenError{}
	}
	kind := NominationExecution
	color := ColorExecution
	if t.travelers[targetID] {
		kind = NominationExile
		color = ColorExile
	}
	nominatorNick := escapeMarkdown(t.baseNick(nominatorID))
	targetNick := escapeMarkdown(t.baseNick(targetID))
	t.touch()
	t.mu.Unlock()

	line := fmt.Sprintf("**%s** nominates **%s** for %s.", nominatorNick, targetNick, kind)
	msg := directory.Message{
		// Spoiler padding keeps the message tall enough to spot when
		// votes land as reactions underneath.
		Content: line + "\n||\n||",
		Embed: &directory.Embed{
			Description: line,
			Color:       color,
			AuthorName:  nominatorNick,
			AuthorIcon:  t.dir.AvatarURL(t.GuildID, nominatorID),
			Thumbnail:   t.dir.AvatarURL(t.GuildID, targetID),
		},
	}
	ref, err := t.dir.Post(ctx, channelID, msg)
	if err != nil {
		return nil, fmt.Errorf("town: post nomination: %w", err)
	}

	nom := &Nomination{Ref: ref, Kind: kind, Nominator: nominatorID, Target: targetID}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.nomination != nil {
		// Another nomination won the race while we posted; drop ours.
		if derr := t.dir.Delete(ctx, ref, 0); derr != nil {
			log.Printf("town: delete raced nomination: %v", derr)
		}
		return nil, &NominationOpenError{}
	}
	t.nomination = nom
	return nom, nil
}

// RecordVotes attaches the vote tally to the open nomination, or to the
// previous one when none is open, then closes the open slot. The tally is
// rendered as keycap reactions on the nomination message.
func (t *Town) RecordVotes(ctx context.Context, count int) error {
	if count < 0 || count > 20 {
		return &InvalidVoteCountError{Count: count}
	}
	t.mu.Lock()
	nom := t.nomination
	if nom == nil {
		nom = t.prevNom
	}
	if nom == nil {
		t.mu.Unlock()
		return &NoNominationError{}
	}
	// Close the slot before touching the platform so a second votes
	// command can never act on a half-recorded nomination.
	t.prevNom = nom
	t.nomination = nil
	t.touch()
	t.mu.Unlock()

	if err := t.dir.ClearReactions(ctx, nom.Ref); err != nil {
		log.Printf("town: clear vote reactions: %v", err)
	}
	for _, emoji := range voteReactions(count) {
		if err := t.dir.React(ctx, nom.Ref, emoji); err != nil {
			log.Printf("town: add vote reaction %q: %v", emoji, err)
		}
	}
	return nil
}

// CancelNomination deletes the open nomination message, or the previous one
// when none is open.
func (t *Town) CancelNomination(ctx context.Context) error {
	t.mu.Lock()
	var ref directory.MessageRef
	switch {
	case t.nomination != nil:
		ref = t.nomination.Ref
		t.nomination = nil
	case t.prevNom != nil:
		ref = t.prevNom.Ref
		t.prevNom = nil
	default:
		t.mu.Unlock()
		return &NoNominationError{}
	}
	t.touch()
	t.mu.Unlock()

	if err := t.dir.Delete(ctx, ref, 0); err != nil {
		log.Printf("town: delete nomination message: %v", err)
	}
	return nil
}

// CurrentNomination returns the open nomination, or nil.
func (t *Town) CurrentNomination() *Nomination {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nomination
}

// PreviousNomination returns the most recently resolved nomination, or nil.
func (t *Town) PreviousNomination() *Nomination {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prevNom
}

// markdownSpecials are the characters escaped in nicks embedded in messages.
const markdownSpecials = `*_~|` + "`"

// escapeMarkdown backslash-escapes markdown formatting characters.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
