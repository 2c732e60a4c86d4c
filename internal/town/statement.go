package town

import (
	"context"
	"fmt"

	"github.com/ravenswood/towncrier/internal/directory"
)

// PublicStatement posts the statement as a highlighted embed attributed to
// the author by base nick and avatar.
func (t *Town) PublicStatement(ctx context.Context, channelID, authorID, statement string) error {
	t.mu.Lock()
	nick := escapeMarkdown(t.baseNick(authorID))
	t.touch()
	t.mu.Unlock()

	msg := directory.Message{
		Embed: &directory.Embed{
			Description: statement,
			Color:       ColorPublic,
			AuthorName:  nick,
			AuthorIcon:  t.dir.AvatarURL(t.GuildID, authorID),
		},
	}
	if _, err := t.dir.Post(ctx, channelID, msg); err != nil {
		return fmt.Errorf("town: post statement: %w", err)
	}
	return nil
}
