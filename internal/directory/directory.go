// Package directory abstracts the chat platform's member, role, channel and
// message operations behind a single interface so the town core never touches
// platform APIs directly.
package directory

import (
	"context"
	"time"
)

// MessageRef identifies a posted message so it can later be deleted or
// have reactions managed.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Zero reports whether the ref does not point at a message.
func (r MessageRef) Zero() bool {
	return r.ChannelID == "" && r.MessageID == ""
}

// Embed is a rich message attachment. Fields map onto the platform's
// native embed shape.
type Embed struct {
	Description string
	Color       int
	AuthorName  string
	AuthorIcon  string
	Thumbnail   string
}

// Message is an outbound message, optionally carrying an embed.
type Message struct {
	Content string
	Embed   *Embed
}

// Directory is the presence/directory service consumed by the town core and
// the command surface. All mutating calls are best-effort from the caller's
// point of view: town state stays authoritative even when a call fails.
type Directory interface {
	// DisplayName returns the member's current display name in the guild.
	DisplayName(guildID, memberID string) (string, error)

	// AvatarURL returns the member's avatar URL, or "" if unknown.
	AvatarURL(guildID, memberID string) string

	// FindMember resolves an exact username, display name or name#tag to a
	// member ID.
	FindMember(guildID, query string) (string, bool)

	// Rename sets the member's guild nickname.
	Rename(ctx context.Context, guildID, memberID, name string) error

	GrantRole(ctx context.Context, guildID, memberID, roleID string) error
	RevokeRole(ctx context.Context, guildID, memberID, roleID string) error

	// HasRole reports whether the member currently holds the role.
	HasRole(guildID, memberID, roleID string) bool

	// IsAdmin reports whether the member has administrator permission.
	IsAdmin(guildID, memberID string) bool

	// CanManageChannels reports whether the member may manage channels.
	CanManageChannels(guildID, memberID string) bool

	// RoleByName looks up a guild role ID by its exact name.
	RoleByName(guildID, name string) (string, bool)

	// CreateRole creates a mentionable guild role with the given color.
	CreateRole(ctx context.Context, guildID, name string, color int) (string, error)

	// Post sends a message to a text channel.
	Post(ctx context.Context, channelID string, msg Message) (MessageRef, error)

	// Delete removes a message. A non-zero delay defers the deletion
	// without blocking the caller.
	Delete(ctx context.Context, ref MessageRef, delay time.Duration) error

	ClearReactions(ctx context.Context, ref MessageRef) error
	React(ctx context.Context, ref MessageRef, emoji string) error

	// VoiceChannels returns the IDs of the category's voice channels in
	// display order.
	VoiceChannels(categoryID string) ([]string, error)

	// MoveToVoice moves a member into a voice channel. Fails if the member
	// is not connected to voice.
	MoveToVoice(ctx context.Context, guildID, memberID, channelID string) error

	// CreateCategory creates a channel category. A private category is not
	// viewable or joinable by the default role.
	CreateCategory(ctx context.Context, guildID, name string, private bool) (string, error)

	CreateTextChannel(ctx context.Context, guildID, categoryID, name string) (string, error)
	CreateVoiceChannel(ctx context.Context, guildID, categoryID, name string) (string, error)
}

// Event is an inbound command message from the platform.
type Event struct {
	GuildID      string
	CategoryID   string // channel category scoping the town; empty outside one
	CategoryName string
	ChannelID    string
	MessageID    string
	AuthorID     string
	AuthorIsBot  bool
	Text         string
	Timestamp    time.Time
}

// Gateway is the inbound half of a platform binding: a live connection that
// yields command events.
type Gateway interface {
	// Connect establishes the platform connection.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound events. Must be called after
	// Connect; the channel is closed when the gateway is closed.
	Listen(ctx context.Context) (<-chan Event, error)

	// Close gracefully shuts down the connection.
	Close() error
}
