package bot

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ravenswood/towncrier/internal/directory"
	"github.com/ravenswood/towncrier/internal/town"
)

var mentionRE = regexp.MustCompile(`^<@!?(\d+)>$`)

// parseTarget interprets command arguments as a member reference: no
// arguments mean the author, a single number a seat, a mention or exact
// display name anyone in the guild. Seat parsing is disabled for commands
// that only accept names.
func (d *Daemon) parseTarget(ev directory.Event, args []string, allowSeat bool) (town.TargetRef, error) {
	if len(args) == 0 {
		return town.Self(), nil
	}
	if len(args) == 1 {
		if m := mentionRE.FindStringSubmatch(args[0]); m != nil {
			return town.ByMember(m[1]), nil
		}
		if allowSeat {
			if seat, err := strconv.Atoi(args[0]); err == nil {
				return town.BySeat(seat), nil
			}
		}
	}
	name := strings.Join(args, " ")
	if id, ok := d.dir.FindMember(ev.GuildID, name); ok {
		return town.ByMember(id), nil
	}
	return town.TargetRef{}, &unknownMemberError{Name: name}
}

// parseSingleTarget interprets one argument token as a member reference,
// for commands that take a list of targets.
func (d *Daemon) parseSingleTarget(ev directory.Event, arg string) (town.TargetRef, error) {
	return d.parseTarget(ev, []string{arg}, true)
}
