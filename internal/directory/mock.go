package directory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock implements Directory and Gateway for testing. It keeps an in-memory
// picture of members, roles and channels, records every mutating call, and
// lets tests feed inbound events through SimulateEvent.
type Mock struct {
	mu sync.Mutex

	names     map[string]string          // memberID -> display name
	avatars   map[string]string          // memberID -> avatar URL
	roles     map[string]map[string]bool // memberID -> set of role IDs
	admins    map[string]bool
	managers  map[string]bool
	roleNames map[string]string // role name -> role ID
	voice     map[string][]string

	posted    []PostedMessage
	deleted   []MessageRef
	cleared   []MessageRef
	reactions map[MessageRef][]string
	moves     []VoiceMove

	renameErr error // injected failure for Rename

	nextID    int
	connected bool
	inbound   chan Event
}

// PostedMessage records a Post call.
type PostedMessage struct {
	ChannelID string
	Msg       Message
	Ref       MessageRef
}

// VoiceMove records a MoveToVoice call.
type VoiceMove struct {
	MemberID  string
	ChannelID string
}

// NewMock creates an empty Mock.
func NewMock() *Mock {
	return &Mock{
		names:     make(map[string]string),
		avatars:   make(map[string]string),
		roles:     make(map[string]map[string]bool),
		admins:    make(map[string]bool),
		managers:  make(map[string]bool),
		roleNames: make(map[string]string),
		voice:     make(map[string][]string),
		reactions: make(map[MessageRef][]string),
		inbound:   make(chan Event, 100),
	}
}

// AddMember registers a member with a display name.
func (m *Mock) AddMember(id, displayName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[id] = displayName
}

// SetAdmin marks a member as an administrator.
func (m *Mock) SetAdmin(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[id] = true
}

// SetManager grants a member the manage-channels permission.
func (m *Mock) SetManager(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.managers[id] = true
}

// SetVoiceChannels configures the voice channel list for a category.
func (m *Mock) SetVoiceChannels(categoryID string, channelIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voice[categoryID] = channelIDs
}

// SetRenameError injects an error returned by all subsequent Rename calls.
func (m *Mock) SetRenameError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renameErr = err
}

func (m *Mock) DisplayName(guildID, memberID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.names[memberID]
	if !ok {
		return "", fmt.Errorf("mock directory: unknown member %s", memberID)
	}
	return name, nil
}

func (m *Mock) AvatarURL(guildID, memberID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.avatars[memberID]
}

func (m *Mock) FindMember(guildID, query string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, name := range m.names {
		if name == query || id == query {
			return id, true
		}
	}
	return "", false
}

func (m *Mock) Rename(ctx context.Context, guildID, memberID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renameErr != nil {
		return m.renameErr
	}
	if _, ok := m.names[memberID]; !ok {
		return fmt.Errorf("mock directory: unknown member %s", memberID)
	}
	m.names[memberID] = name
	return nil
}

func (m *Mock) GrantRole(ctx context.Context, guildID, memberID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.roles[memberID]
	if !ok {
		set = make(map[string]bool)
		m.roles[memberID] = set
	}
	set[roleID] = true
	return nil
}

func (m *Mock) RevokeRole(ctx context.Context, guildID, memberID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles[memberID], roleID)
	return nil
}

func (m *Mock) HasRole(guildID, memberID, roleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles[memberID][roleID]
}

func (m *Mock) IsAdmin(guildID, memberID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins[memberID]
}

func (m *Mock) CanManageChannels(guildID, memberID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.managers[memberID]
}

func (m *Mock) RoleByName(guildID, name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.roleNames[name]
	return id, ok
}

func (m *Mock) CreateRole(ctx context.Context, guildID, name string, color int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.genID("role")
	m.roleNames[name] = id
	return id, nil
}

func (m *Mock) Post(ctx context.Context, channelID string, msg Message) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := MessageRef{ChannelID: channelID, MessageID: m.genID("msg")}
	m.posted = append(m.posted, PostedMessage{ChannelID: channelID, Msg: msg, Ref: ref})
	return ref, nil
}

func (m *Mock) Delete(ctx context.Context, ref MessageRef, delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *Mock) ClearReactions(ctx context.Context, ref MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, ref)
	m.reactions[ref] = nil
	return nil
}

func (m *Mock) React(ctx context.Context, ref MessageRef, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions[ref] = append(m.reactions[ref], emoji)
	return nil
}

func (m *Mock) VoiceChannels(categoryID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.voice[categoryID]...), nil
}

func (m *Mock) MoveToVoice(ctx context.Context, guildID, memberID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves = append(m.moves, VoiceMove{MemberID: memberID, ChannelID: channelID})
	return nil
}

func (m *Mock) CreateCategory(ctx context.Context, guildID, name string, private bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.genID("cat"), nil
}

func (m *Mock) CreateTextChannel(ctx context.Context, guildID, categoryID, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.genID("text"), nil
}

func (m *Mock) CreateVoiceChannel(ctx context.Context, guildID, categoryID, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.genID("voice")
	m.voice[categoryID] = append(m.voice[categoryID], id)
	return id, nil
}

// Connect marks the gateway as connected.
func (m *Mock) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

// Listen returns the inbound event channel.
func (m *Mock) Listen(ctx context.Context) (<-chan Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock directory: not connected")
	}
	return m.inbound, nil
}

// Close closes the inbound channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		m.connected = false
		close(m.inbound)
	}
	return nil
}

// SimulateEvent feeds an inbound event to listeners.
func (m *Mock) SimulateEvent(ev Event) {
	m.inbound <- ev
}

// Posted returns a copy of all messages sent through Post.
func (m *Mock) Posted() []PostedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PostedMessage(nil), m.posted...)
}

// Deleted returns a copy of all deleted message refs.
func (m *Mock) Deleted() []MessageRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MessageRef(nil), m.deleted...)
}

// Reactions returns the reactions currently on a message.
func (m *Mock) Reactions(ref MessageRef) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reactions[ref]...)
}

// ClearedReactions returns the refs whose reactions were cleared.
func (m *Mock) ClearedReactions() []MessageRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MessageRef(nil), m.cleared...)
}

// Moves returns all recorded voice moves.
func (m *Mock) Moves() []VoiceMove {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]VoiceMove(nil), m.moves...)
}

// genID returns a fresh unique ID with the given prefix. Caller must hold mu.
func (m *Mock) genID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}
