// Package bot routes inbound chat commands to town operations.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ravenswood/towncrier/internal/directory"
	"github.com/ravenswood/towncrier/internal/settings"
	"github.com/ravenswood/towncrier/internal/town"
)

// acknowledgeEmoji is the reaction confirming a command with no other output.
const acknowledgeEmoji = "\U0001F44D"

// lockState describes a command's town-lock requirement.
type lockState int

const (
	lockAny lockState = iota
	lockRequired
	unlockRequired
)

// request carries one inbound command through its handler.
type request struct {
	ev   directory.Event
	town *town.Town
	args []string
	// rest is the raw argument text with original spacing.
	rest string
}

type handlerFunc func(ctx context.Context, req *request) error

// command describes one chat command and its guards.
type command struct {
	handler handlerFunc
	lock    lockState
	// storyteller restricts the command to admins and storytellers.
	storyteller bool
	// manager restricts the command to members with channel management
	// rights and skips the enabled-category requirement.
	manager bool
	// keepDelay overrides the configured delete delay for the command
	// message when non-nil.
	keepDelay *time.Duration
}

// Opts holds parameters for creating a Daemon.
type Opts struct {
	Settings    *settings.Store
	Towns       *town.Registry
	Directory   directory.Directory
	Gateway     directory.Gateway
	Prefix      string
	DeleteDelay time.Duration
	// IdleTTL is how long an inactive town lives before the janitor
	// removes it. Zero disables the sweep.
	IdleTTL time.Duration
	// SweepSchedule is the cron expression for the janitor sweep.
	SweepSchedule string
}

// Daemon consumes gateway events and dispatches town commands.
type Daemon struct {
	settings    *settings.Store
	towns       *town.Registry
	dir         directory.Directory
	gw          directory.Gateway
	prefix      string
	deleteDelay time.Duration
	idleTTL     time.Duration
	schedule    string
	commands    map[string]command
	wg          sync.WaitGroup
}

// New creates a Daemon from the given options.
func New(opts Opts) (*Daemon, error) {
	if opts.Settings == nil {
		return nil, fmt.Errorf("bot: settings store is required")
	}
	if opts.Towns == nil {
		return nil, fmt.Errorf("bot: town registry is required")
	}
	if opts.Directory == nil {
		return nil, fmt.Errorf("bot: directory is required")
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("bot: gateway is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = "."
	}
	d := &Daemon{
		settings:    opts.Settings,
		towns:       opts.Towns,
		dir:         opts.Directory,
		gw:          opts.Gateway,
		prefix:      opts.Prefix,
		deleteDelay: opts.DeleteDelay,
		idleTTL:     opts.IdleTTL,
		schedule:    opts.SweepSchedule,
	}
	d.commands = d.buildCommands()
	return d, nil
}

// buildCommands assembles the dispatch table, including aliases.
func (d *Daemon) buildCommands() map[string]command {
	immediate := time.Duration(0)
	table := map[string]command{
		// Setup commands change players and seats before a game starts.
		"play":        {handler: d.cmdPlay, lock: unlockRequired},
		"unplay":      {handler: d.cmdUnplay, lock: unlockRequired},
		"travel":      {handler: d.cmdTravel, lock: unlockRequired},
		"untravel":    {handler: d.cmdUntravel, lock: unlockRequired},
		"storytell":   {handler: d.cmdStorytell, lock: unlockRequired},
		"unstorytell": {handler: d.cmdUnstorytell, lock: unlockRequired},
		"sit":         {handler: d.cmdSit, lock: unlockRequired},
		"shuffle":     {handler: d.cmdShuffle, lock: unlockRequired},

		// Storyteller commands control the game lifecycle.
		"lock":   {handler: d.cmdLock, storyteller: true},
		"unlock": {handler: d.cmdUnlock, storyteller: true},
		"clear":  {handler: d.cmdClear, storyteller: true},

		// Player commands run during a game.
		"dead":       {handler: d.cmdDead},
		"voted":      {handler: d.cmdVoted},
		"alive":      {handler: d.cmdAlive},
		"townsquare": {handler: d.cmdTownsquare, lock: lockRequired},
		"count":      {handler: d.cmdCount, lock: lockRequired},
		"nominate":   {handler: d.cmdNominate, lock: lockRequired},
		"public":     {handler: d.cmdPublic, lock: lockRequired},
		"go":         {handler: d.cmdGo, keepDelay: &immediate},

		// Management commands configure town categories.
		"town": {handler: d.cmdTown, manager: true},
	}
	aliases := map[string]string{
		"quit": "unplay",
		"st":   "storytell",
		"unst": "unstorytell",
		"ts":   "townsquare",
		"nom":  "nominate",
		"n":    "nominate",
		"pub":  "public",
		"say":  "public",
	}
	for alias, target := range aliases {
		table[alias] = table[target]
	}
	return table
}

// Run connects the gateway and processes events until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.gw.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect: %w", err)
	}
	events, err := d.gw.Listen(ctx)
	if err != nil {
		return fmt.Errorf("bot: listen: %w", err)
	}

	janitor, err := d.startJanitor()
	if err != nil {
		return fmt.Errorf("bot: janitor: %w", err)
	}

	log.Printf("bot: listening with prefix %q", d.prefix)
	for {
		select {
		case <-ctx.Done():
			if janitor != nil {
				<-janitor.Stop().Done()
			}
			d.wg.Wait()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if janitor != nil {
					<-janitor.Stop().Done()
				}
				d.wg.Wait()
				return nil
			}
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.handleEvent(ctx, ev)
			}()
		}
	}
}

// handleEvent parses and dispatches one inbound message.
func (d *Daemon) handleEvent(ctx context.Context, ev directory.Event) {
	if ev.AuthorIsBot || !strings.HasPrefix(ev.Text, d.prefix) {
		return
	}
	line := strings.TrimSpace(strings.TrimPrefix(ev.Text, d.prefix))
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	cmd, ok := d.commands[name]
	if !ok {
		return
	}

	if cmd.manager {
		if !d.dir.CanManageChannels(ev.GuildID, ev.AuthorID) {
			return
		}
	} else if !d.categoryEnabled(ev) {
		return
	}
	if cmd.storyteller && !d.isStoryteller(ev) {
		return
	}

	// The command message itself is cleaned up either way.
	delay := d.deleteDelay
	if cmd.keepDelay != nil {
		delay = *cmd.keepDelay
	}
	d.deleteAfter(ctx, ev.ChannelID, ev.MessageID, delay)

	req := &request{
		ev:   ev,
		args: fields[1:],
		rest: strings.TrimSpace(strings.TrimPrefix(line, fields[0])),
	}
	if ev.CategoryID != "" {
		req.town = d.towns.Get(ev.CategoryID, ev.GuildID)
	}

	if err := d.checkLock(req, cmd.lock); err != nil {
		d.replyForError(ctx, ev, err)
		return
	}
	if err := cmd.handler(ctx, req); err != nil {
		d.replyForError(ctx, ev, err)
	}
}

// categoryEnabled reports whether town commands are enabled for the event's
// category.
func (d *Daemon) categoryEnabled(ev directory.Event) bool {
	if ev.CategoryID == "" {
		return false
	}
	return d.settings.GetBool(ev.CategoryID, town.KeyEnabled)
}

// isStoryteller reports whether the author may use storyteller commands.
// Guild admins always qualify; otherwise the venue's storyteller role is
// required.
func (d *Daemon) isStoryteller(ev directory.Event) bool {
	if d.dir.IsAdmin(ev.GuildID, ev.AuthorID) {
		return true
	}
	roleID := d.settings.Get(ev.CategoryID, town.KeyRoleStoryteller)
	if roleID == "" {
		return false
	}
	return d.dir.HasRole(ev.GuildID, ev.AuthorID, roleID)
}

// checkLock enforces a command's lock requirement.
func (d *Daemon) checkLock(req *request, state lockState) error {
	if req.town == nil {
		return nil
	}
	switch state {
	case lockRequired:
		if !req.town.Locked() {
			return &town.UnlockedError{}
		}
	case unlockRequired:
		if req.town.Locked() {
			return &town.LockedError{}
		}
	}
	return nil
}

// acknowledge marks a command as done with a reaction instead of a reply.
func (d *Daemon) acknowledge(ctx context.Context, ev directory.Event) {
	ref := directory.MessageRef{ChannelID: ev.ChannelID, MessageID: ev.MessageID}
	if err := d.dir.React(ctx, ref, acknowledgeEmoji); err != nil {
		log.Printf("bot: acknowledge command: %v", err)
	}
}

// reply posts a message that stays in the channel.
func (d *Daemon) reply(ctx context.Context, ev directory.Event, msg directory.Message) {
	if _, err := d.dir.Post(ctx, ev.ChannelID, msg); err != nil {
		log.Printf("bot: post reply: %v", err)
	}
}

// replyEphemeral posts a message and schedules its deletion.
func (d *Daemon) replyEphemeral(ctx context.Context, ev directory.Event, text string) {
	ref, err := d.dir.Post(ctx, ev.ChannelID, directory.Message{Content: text})
	if err != nil {
		log.Printf("bot: post reply: %v", err)
		return
	}
	if err := d.dir.Delete(ctx, ref, d.deleteDelay); err != nil {
		log.Printf("bot: schedule reply deletion: %v", err)
	}
}

// deleteAfter schedules deletion of a channel message.
func (d *Daemon) deleteAfter(ctx context.Context, channelID, messageID string, delay time.Duration) {
	ref := directory.MessageRef{ChannelID: channelID, MessageID: messageID}
	if err := d.dir.Delete(ctx, ref, delay); err != nil {
		log.Printf("bot: schedule message deletion: %v", err)
	}
}
