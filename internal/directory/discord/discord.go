// Package discord implements the directory service and inbound gateway for
// Discord using the Gateway WebSocket.
package discord

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/ravenswood/towncrier/internal/directory"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for rate-limit retries.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff.
	maxBackoff = 2 * time.Minute
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	Channel(channelID string) (*discordgo.Channel, error)
	Guild(guildID string) (*discordgo.Guild, error)
	Member(guildID, userID string) (*discordgo.Member, error)
	GuildMemberNickname(guildID, userID, nickname string, options ...discordgo.RequestOption) error
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberMove(guildID, userID string, channelID *string, options ...discordgo.RequestOption) error
	GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) AddHandler(handler interface{}) func() {
	return r.s.AddHandler(handler)
}
func (r *realSession) Channel(channelID string) (*discordgo.Channel, error) {
	return r.s.State.Channel(channelID)
}
func (r *realSession) Guild(guildID string) (*discordgo.Guild, error) {
	return r.s.State.Guild(guildID)
}
func (r *realSession) Member(guildID, userID string) (*discordgo.Member, error) {
	m, err := r.s.State.Member(guildID, userID)
	if err == nil {
		return m, nil
	}
	return r.s.GuildMember(guildID, userID)
}
func (r *realSession) GuildMemberNickname(guildID, userID, nickname string, options ...discordgo.RequestOption) error {
	return r.s.GuildMemberNickname(guildID, userID, nickname, options...)
}
func (r *realSession) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	return r.s.GuildMemberRoleAdd(guildID, userID, roleID, options...)
}
func (r *realSession) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	return r.s.GuildMemberRoleRemove(guildID, userID, roleID, options...)
}
func (r *realSession) GuildMemberMove(guildID, userID string, channelID *string, options ...discordgo.RequestOption) error {
	return r.s.GuildMemberMove(guildID, userID, channelID, options...)
}
func (r *realSession) GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error) {
	return r.s.GuildRoleCreate(guildID, data, options...)
}
func (r *realSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.GuildChannelCreateComplex(guildID, data, options...)
}
func (r *realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}
func (r *realSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	return r.s.ChannelMessageDelete(channelID, messageID, options...)
}
func (r *realSession) MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error {
	return r.s.MessageReactionsRemoveAll(channelID, messageID, options...)
}
func (r *realSession) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	return r.s.MessageReactionAdd(channelID, messageID, emojiID, options...)
}

// Adapter implements directory.Directory and directory.Gateway for Discord.
type Adapter struct {
	sess      session
	botToken  string
	mu        sync.Mutex
	connected bool
	closed    bool
	botUserID string
	inbound   chan directory.Event
	removeFns []func()
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken string
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	a := &Adapter{
		botToken: opts.BotToken,
		inbound:  make(chan directory.Event, 100),
	}
	if opts.Session != nil {
		a.sess = opts.Session
	}
	return a, nil
}

// Connect establishes the Discord Gateway WebSocket connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuilds |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsGuildMembers |
			discordgo.IntentsGuildVoiceStates |
			discordgo.IntentsMessageContent
		dg.StateEnabled = true
		a.sess = &realSession{s: dg}
	}

	a.removeFns = append(a.removeFns, a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.mu.Lock()
		a.botUserID = r.User.ID
		a.mu.Unlock()
		log.Printf("discord: connected as %s (ID: %s)", r.User.Username, r.User.ID)
	}))
	a.removeFns = append(a.removeFns, a.sess.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		log.Printf("discord: gateway disconnected, discordgo will auto-reconnect")
	}))

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	a.connected = true
	return nil
}

// Listen returns a channel of inbound command events. Must be called after
// Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan directory.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}
	a.removeFns = append(a.removeFns, a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		a.handleMessage(m)
	}))
	return a.inbound, nil
}

// Close gracefully shuts down the adapter connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	for _, rm := range a.removeFns {
		rm()
	}
	close(a.inbound)
	if a.sess != nil {
		return a.sess.Close()
	}
	return nil
}

// BotUserID returns the bot's Discord user ID (available after Connect).
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// handleMessage converts a Discord message event to a directory.Event.
func (a *Adapter) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}
	a.mu.Lock()
	botID := a.botUserID
	a.mu.Unlock()
	if m.Author.ID == botID || m.Author.Bot {
		return
	}

	ev := directory.Event{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		Text:      m.Content,
	}
	ev.Timestamp, _ = discordgo.SnowflakeTimestamp(m.ID)
	if ch, err := a.sess.Channel(m.ChannelID); err == nil && ch.ParentID != "" {
		ev.CategoryID = ch.ParentID
		if parent, err := a.sess.Channel(ch.ParentID); err == nil {
			ev.CategoryName = parent.Name
		}
	}
	a.inbound <- ev
}

func (a *Adapter) DisplayName(guildID, memberID string) (string, error) {
	m, err := a.sess.Member(guildID, memberID)
	if err != nil {
		return "", fmt.Errorf("discord: member %s: %w", memberID, err)
	}
	if m.Nick != "" {
		return m.Nick, nil
	}
	if m.User != nil {
		if m.User.GlobalName != "" {
			return m.User.GlobalName, nil
		}
		return m.User.Username, nil
	}
	return "", fmt.Errorf("discord: member %s has no user", memberID)
}

func (a *Adapter) AvatarURL(guildID, memberID string) string {
	m, err := a.sess.Member(guildID, memberID)
	if err != nil || m.User == nil {
		return ""
	}
	return m.User.AvatarURL("")
}

func (a *Adapter) FindMember(guildID, query string) (string, bool) {
	g, err := a.sess.Guild(guildID)
	if err != nil {
		return "", false
	}
	for _, m := range g.Members {
		if m.User == nil {
			continue
		}
		if m.Nick == query || m.User.Username == query || m.User.GlobalName == query ||
			m.User.Username+"#"+m.User.Discriminator == query {
			return m.User.ID, true
		}
	}
	return "", false
}

func (a *Adapter) Rename(ctx context.Context, guildID, memberID, name string) error {
	return a.retryOnRateLimit(ctx, func() error {
		return a.sess.GuildMemberNickname(guildID, memberID, name)
	})
}

func (a *Adapter) GrantRole(ctx context.Context, guildID, memberID, roleID string) error {
	return a.retryOnRateLimit(ctx, func() error {
		return a.sess.GuildMemberRoleAdd(guildID, memberID, roleID)
	})
}

func (a *Adapter) RevokeRole(ctx context.Context, guildID, memberID, roleID string) error {
	return a.retryOnRateLimit(ctx, func() error {
		return a.sess.GuildMemberRoleRemove(guildID, memberID, roleID)
	})
}

func (a *Adapter) HasRole(guildID, memberID, roleID string) bool {
	m, err := a.sess.Member(guildID, memberID)
	if err != nil {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func (a *Adapter) IsAdmin(guildID, memberID string) bool {
	return a.hasGuildPermission(guildID, memberID, discordgo.PermissionAdministrator)
}

func (a *Adapter) CanManageChannels(guildID, memberID string) bool {
	return a.hasGuildPermission(guildID, memberID, discordgo.PermissionManageChannels)
}

// hasGuildPermission checks a guild-wide permission from the member's roles.
// The guild owner implicitly has every permission.
func (a *Adapter) hasGuildPermission(guildID, memberID string, perm int64) bool {
	g, err := a.sess.Guild(guildID)
	if err != nil {
		return false
	}
	if g.OwnerID == memberID {
		return true
	}
	m, err := a.sess.Member(guildID, memberID)
	if err != nil {
		return false
	}
	var perms int64
	for _, role := range g.Roles {
		if role.ID == guildID { // @everyone
			perms |= role.Permissions
			continue
		}
		for _, rid := range m.Roles {
			if rid == role.ID {
				perms |= role.Permissions
			}
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return perms&perm != 0
}

func (a *Adapter) RoleByName(guildID, name string) (string, bool) {
	g, err := a.sess.Guild(guildID)
	if err != nil {
		return "", false
	}
	for _, r := range g.Roles {
		if r.Name == name {
			return r.ID, true
		}
	}
	return "", false
}

func (a *Adapter) CreateRole(ctx context.Context, guildID, name string, color int) (string, error) {
	mentionable := true
	var role *discordgo.Role
	err := a.retryOnRateLimit(ctx, func() error {
		var apiErr error
		role, apiErr = a.sess.GuildRoleCreate(guildID, &discordgo.RoleParams{
			Name:        name,
			Color:       &color,
			Mentionable: &mentionable,
		})
		return apiErr
	})
	if err != nil {
		return "", fmt.Errorf("discord: create role %q: %w", name, err)
	}
	return role.ID, nil
}

func (a *Adapter) Post(ctx context.Context, channelID string, msg directory.Message) (directory.MessageRef, error) {
	data := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		embed := &discordgo.MessageEmbed{
			Description: msg.Embed.Description,
			Color:       msg.Embed.Color,
		}
		if msg.Embed.AuthorName != "" {
			embed.Author = &discordgo.MessageEmbedAuthor{
				Name:    msg.Embed.AuthorName,
				IconURL: msg.Embed.AuthorIcon,
			}
		}
		if msg.Embed.Thumbnail != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: msg.Embed.Thumbnail}
		}
		data.Embeds = []*discordgo.MessageEmbed{embed}
	}
	var sent *discordgo.Message
	err := a.retryOnRateLimit(ctx, func() error {
		var apiErr error
		sent, apiErr = a.sess.ChannelMessageSendComplex(channelID, data)
		return apiErr
	})
	if err != nil {
		return directory.MessageRef{}, fmt.Errorf("discord: send message: %w", err)
	}
	return directory.MessageRef{ChannelID: channelID, MessageID: sent.ID}, nil
}

func (a *Adapter) Delete(ctx context.Context, ref directory.MessageRef, delay time.Duration) error {
	if delay <= 0 {
		return a.retryOnRateLimit(ctx, func() error {
			return a.sess.ChannelMessageDelete(ref.ChannelID, ref.MessageID)
		})
	}
	time.AfterFunc(delay, func() {
		if err := a.sess.ChannelMessageDelete(ref.ChannelID, ref.MessageID); err != nil {
			log.Printf("discord: delayed delete %s/%s: %v", ref.ChannelID, ref.MessageID, err)
		}
	})
	return nil
}

func (a *Adapter) ClearReactions(ctx context.Context, ref directory.MessageRef) error {
	return a.retryOnRateLimit(ctx, func() error {
		return a.sess.MessageReactionsRemoveAll(ref.ChannelID, ref.MessageID)
	})
}

func (a *Adapter) React(ctx context.Context, ref directory.MessageRef, emoji string) error {
	return a.retryOnRateLimit(ctx, func() error {
		return a.sess.MessageReactionAdd(ref.ChannelID, ref.MessageID, emoji)
	})
}

func (a *Adapter) VoiceChannels(categoryID string) ([]string, error) {
	cat, err := a.sess.Channel(categoryID)
	if err != nil {
		return nil, fmt.Errorf("discord: category %s: %w", categoryID, err)
	}
	g, err := a.sess.Guild(cat.GuildID)
	if err != nil {
		return nil, fmt.Errorf("discord: guild %s: %w", cat.GuildID, err)
	}
	var voice []*discordgo.Channel
	for _, ch := range g.Channels {
		if ch.ParentID == categoryID && ch.Type == discordgo.ChannelTypeGuildVoice {
			voice = append(voice, ch)
		}
	}
	sort.Slice(voice, func(i, j int) bool { return voice[i].Position < voice[j].Position })
	ids := make([]string, len(voice))
	for i, ch := range voice {
		ids[i] = ch.ID
	}
	return ids, nil
}

func (a *Adapter) MoveToVoice(ctx context.Context, guildID, memberID, channelID string) error {
	return a.retryOnRateLimit(ctx, func() error {
		return a.sess.GuildMemberMove(guildID, memberID, &channelID)
	})
}

func (a *Adapter) CreateCategory(ctx context.Context, guildID, name string, private bool) (string, error) {
	data := discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	}
	if private {
		deny := int64(discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect)
		data.PermissionOverwrites = []*discordgo.PermissionOverwrite{
			{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: deny},
		}
		if botID := a.BotUserID(); botID != "" {
			data.PermissionOverwrites = append(data.PermissionOverwrites, &discordgo.PermissionOverwrite{
				ID: botID, Type: discordgo.PermissionOverwriteTypeMember, Allow: deny,
			})
		}
	}
	ch, err := a.createChannel(ctx, guildID, data)
	if err != nil {
		return "", fmt.Errorf("discord: create category %q: %w", name, err)
	}
	return ch.ID, nil
}

func (a *Adapter) CreateTextChannel(ctx context.Context, guildID, categoryID, name string) (string, error) {
	ch, err := a.createChannel(ctx, guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: categoryID,
	})
	if err != nil {
		return "", fmt.Errorf("discord: create text channel %q: %w", name, err)
	}
	return ch.ID, nil
}

func (a *Adapter) CreateVoiceChannel(ctx context.Context, guildID, categoryID, name string) (string, error) {
	ch, err := a.createChannel(ctx, guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: categoryID,
	})
	if err != nil {
		return "", fmt.Errorf("discord: create voice channel %q: %w", name, err)
	}
	return ch.ID, nil
}

func (a *Adapter) createChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	var ch *discordgo.Channel
	err := a.retryOnRateLimit(ctx, func() error {
		var apiErr error
		ch, apiErr = a.sess.GuildChannelCreateComplex(guildID, data)
		return apiErr
	})
	return ch, err
}

// retryOnRateLimit calls fn and retries with exponential backoff on Discord
// rate limit errors. It respects context cancellation.
func (a *Adapter) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err // not a rate limit error
		}
		if attempt == maxRetries {
			return err
		}
		wait := time.Duration(math.Pow(2, float64(attempt))) * baseBackoff
		if wait > maxBackoff {
			wait = maxBackoff
		}
		log.Printf("discord: rate limited (attempt %d/%d), retrying in %v",
			attempt+1, maxRetries, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
