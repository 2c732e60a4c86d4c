package bot

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/ravenswood/towncrier/internal/town"
)

// roleSpec describes the role created for a role key when none is named.
type roleSpec struct {
	prefix string
	color  int
}

var roleSpecs = map[string]roleSpec{
	"player":      {prefix: "Playing", color: 0x2ECC71},
	"traveler":    {prefix: "Traveling", color: 0xF1C40F},
	"storyteller": {prefix: "Storytelling", color: 0xE91E63},
}

var emojiKeys = []string{"dead", "vote", "novote", "traveling"}

// settingKeys lists every configurable venue property, in display order.
var settingKeys = []string{
	town.KeyEnabled,
	town.KeyRolePlayer,
	town.KeyRoleTraveler,
	town.KeyRoleStoryteller,
	town.KeyEmojiDead,
	town.KeyEmojiVote,
	town.KeyEmojiNoVote,
	town.KeyEmojiTraveling,
}

// customEmojiRE matches custom guild emoji, which can't appear in nicknames.
var customEmojiRE = regexp.MustCompile(`^<a?:\w+:\d+>$`)

// sidebarCount is the number of numbered sidebar voice channels created
// with a new town category.
const sidebarCount = 7

// cmdTown routes the town management sub-commands. Without a sub-command
// it lists the category's settings.
func (d *Daemon) cmdTown(ctx context.Context, req *request) error {
	if len(req.args) == 0 {
		return d.townList(ctx, req)
	}
	sub, args := req.args[0], req.args[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(req.rest, sub))
	switch sub {
	case "enable":
		return d.townSetEnabled(ctx, req, true)
	case "disable":
		return d.townSetEnabled(ctx, req, false)
	case "create":
		return d.townCreate(ctx, req, args, rest)
	case "setemoji":
		return d.townSetEmoji(ctx, req, args)
	case "unsetemoji":
		return d.townUnsetEmoji(ctx, req, args)
	case "setrole":
		return d.townSetRole(ctx, req, args)
	case "unsetrole":
		return d.townUnsetRole(ctx, req, args)
	case "set":
		return d.townSet(ctx, req, args)
	case "unset":
		return d.townUnset(ctx, req, args)
	default:
		d.replyEphemeral(ctx, req.ev, "Use sub-commands to manage a town category.")
		return nil
	}
}

// townList replies with the category's settings when any are stored.
func (d *Daemon) townList(ctx context.Context, req *request) error {
	lines := []string{"Use sub-commands to manage a town category."}
	if req.ev.CategoryID != "" {
		if _, ok := d.settings.Lookup(req.ev.CategoryID, town.KeyEnabled); ok {
			lines = append(lines, fmt.Sprintf("Settings for %s:", req.ev.CategoryName))
			for _, key := range settingKeys {
				lines = append(lines, fmt.Sprintf("`%s`: %s", key, d.settings.Get(req.ev.CategoryID, key)))
			}
		}
	}
	d.replyEphemeral(ctx, req.ev, strings.Join(lines, "\n"))
	return nil
}

func (d *Daemon) townSetEnabled(ctx context.Context, req *request, enabled bool) error {
	if req.ev.CategoryID == "" {
		return fmt.Errorf("bot: no category to enable")
	}
	value := "false"
	if enabled {
		value = "true"
	}
	if err := d.settings.Set(req.ev.CategoryID, town.KeyEnabled, value); err != nil {
		return err
	}
	d.acknowledge(ctx, req.ev)
	return nil
}

// townCreate builds a fresh town category: a text channel, the Town Square,
// numbered sidebars, and a storyteller sidebar. "private" before the name
// hides the category by default.
func (d *Daemon) townCreate(ctx context.Context, req *request, args []string, rest string) error {
	private := false
	name := rest
	if len(args) > 0 && args[0] == "private" {
		private = true
		name = strings.TrimSpace(strings.TrimPrefix(rest, "private"))
	}
	if name == "" {
		return fmt.Errorf("bot: town create needs a category name")
	}

	categoryID, err := d.dir.CreateCategory(ctx, req.ev.GuildID, name, private)
	if err != nil {
		return err
	}
	textName := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	if _, err := d.dir.CreateTextChannel(ctx, req.ev.GuildID, categoryID, textName); err != nil {
		return err
	}
	if _, err := d.dir.CreateVoiceChannel(ctx, req.ev.GuildID, categoryID, "Town Square"); err != nil {
		return err
	}
	for n := 1; n <= sidebarCount; n++ {
		if _, err := d.dir.CreateVoiceChannel(ctx, req.ev.GuildID, categoryID, fmt.Sprintf("Sidebar %d", n)); err != nil {
			return err
		}
	}
	if _, err := d.dir.CreateVoiceChannel(ctx, req.ev.GuildID, categoryID, "Storyteller Sidebar"); err != nil {
		return err
	}
	if err := d.settings.Set(categoryID, town.KeyEnabled, "true"); err != nil {
		return err
	}
	log.Printf("bot: created town category %q (%s)", name, categoryID)
	d.acknowledge(ctx, req.ev)
	return nil
}

func (d *Daemon) townSetEmoji(ctx context.Context, req *request, args []string) error {
	if len(args) < 2 || !containsKey(emojiKeys, args[0]) {
		d.replyEphemeral(ctx, req.ev, fmt.Sprintf(
			"Invalid emoji setting key. Must be one of %s.", strings.Join(emojiKeys, ", ")))
		return nil
	}
	if customEmojiRE.MatchString(args[1]) {
		d.replyEphemeral(ctx, req.ev, "Cannot use custom Discord emojis in nickname.")
		return nil
	}
	if err := d.settings.Set(req.ev.CategoryID, "emoji."+args[0], args[1]); err != nil {
		return err
	}
	// The town caches its symbols; drop it so the next command rebuilds.
	d.towns.Delete(req.ev.CategoryID)
	d.acknowledge(ctx, req.ev)
	return nil
}

func (d *Daemon) townUnsetEmoji(ctx context.Context, req *request, args []string) error {
	if len(args) < 1 || !containsKey(emojiKeys, args[0]) {
		d.replyEphemeral(ctx, req.ev, fmt.Sprintf(
			"Invalid emoji setting key. Must be one of %s.", strings.Join(emojiKeys, ", ")))
		return nil
	}
	if err := d.settings.Unset(req.ev.CategoryID, "emoji."+args[0]); err != nil {
		return err
	}
	d.towns.Delete(req.ev.CategoryID)
	d.acknowledge(ctx, req.ev)
	return nil
}

// townSetRole binds a role key to a named guild role, or creates a role
// for the category when no name is given.
func (d *Daemon) townSetRole(ctx context.Context, req *request, args []string) error {
	if len(args) < 1 {
		return d.replyInvalidRoleKey(ctx, req)
	}
	spec, ok := roleSpecs[args[0]]
	if !ok {
		return d.replyInvalidRoleKey(ctx, req)
	}

	var roleID string
	if len(args) > 1 {
		name := strings.Join(args[1:], " ")
		roleID, ok = d.dir.RoleByName(req.ev.GuildID, name)
		if !ok {
			d.replyEphemeral(ctx, req.ev, fmt.Sprintf("No role named %s exists.", name))
			return nil
		}
	} else {
		name := fmt.Sprintf("%s %s", spec.prefix, req.ev.CategoryName)
		var err error
		roleID, err = d.dir.CreateRole(ctx, req.ev.GuildID, name, spec.color)
		if err != nil {
			// Creation can fail when the role already exists.
			roleID, ok = d.dir.RoleByName(req.ev.GuildID, name)
			if !ok {
				return err
			}
		}
	}
	if err := d.settings.Set(req.ev.CategoryID, "role."+args[0], roleID); err != nil {
		return err
	}
	d.towns.Delete(req.ev.CategoryID)
	d.acknowledge(ctx, req.ev)
	return nil
}

func (d *Daemon) townUnsetRole(ctx context.Context, req *request, args []string) error {
	if len(args) < 1 {
		return d.replyInvalidRoleKey(ctx, req)
	}
	if _, ok := roleSpecs[args[0]]; !ok {
		return d.replyInvalidRoleKey(ctx, req)
	}
	if err := d.settings.Unset(req.ev.CategoryID, "role."+args[0]); err != nil {
		return err
	}
	d.towns.Delete(req.ev.CategoryID)
	d.acknowledge(ctx, req.ev)
	return nil
}

func (d *Daemon) replyInvalidRoleKey(ctx context.Context, req *request) error {
	d.replyEphemeral(ctx, req.ev,
		"Invalid role setting key. Must be one of player, traveler, storyteller.")
	return nil
}

// townSet writes a raw setting value. Low level; a bad value can break the
// category until unset.
func (d *Daemon) townSet(ctx context.Context, req *request, args []string) error {
	if len(args) < 2 || !containsKey(settingKeys, args[0]) {
		d.replyEphemeral(ctx, req.ev, fmt.Sprintf(
			"Invalid setting key. Must be one of %s.", strings.Join(settingKeys, ", ")))
		return nil
	}
	if err := d.settings.Set(req.ev.CategoryID, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	d.towns.Delete(req.ev.CategoryID)
	d.acknowledge(ctx, req.ev)
	return nil
}

func (d *Daemon) townUnset(ctx context.Context, req *request, args []string) error {
	if len(args) < 1 || !containsKey(settingKeys, args[0]) {
		d.replyEphemeral(ctx, req.ev, fmt.Sprintf(
			"Invalid setting key. Must be one of %s.", strings.Join(settingKeys, ", ")))
		return nil
	}
	if err := d.settings.Unset(req.ev.CategoryID, args[0]); err != nil {
		return err
	}
	d.towns.Delete(req.ev.CategoryID)
	d.acknowledge(ctx, req.ev)
	return nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
