package town

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// storytellerTag is prepended to a storyteller's base nick in place of the
// player tag cluster.
const storytellerTag = "!ST"

// Symbols are the per-venue state markers embedded in display names.
type Symbols struct {
	Dead      string
	Vote      string
	NoVote    string
	Traveling string
}

// DefaultSymbols are used when a venue has no emoji settings of its own.
var DefaultSymbols = Symbols{
	Dead:      "\U0001F480", // skull
	Vote:      "\U0001F47B", // ghost
	NoVote:    "\U0001F6AB", // no entry
	Traveling: "\U0001F681", // helicopter
}

// Decoded is the structured state parsed out of a display name.
type Decoded struct {
	Seat        int // 0 when no seat tag
	Storyteller bool
	Dead        bool
	Votes       *int // nil when no vote tag; 0 means the no-vote marker
	Traveling   bool
	Nick        string
}

// NameCodec parses and renders display names for one venue's symbol set.
// The decode pattern is total: any display name matches, with unrecognized
// prefixes falling through into the base nick.
type NameCodec struct {
	symbols Symbols
	re      *regexp.Regexp
}

// NewNameCodec compiles the name pattern for the given symbols.
func NewNameCodec(symbols Symbols) (*NameCodec, error) {
	pattern := fmt.Sprintf(
		`^(?:(_\d+)|(%s))?\s*(%s)?(%s|(?:%s)+)?(%s)?\s*(.*)$`,
		regexp.QuoteMeta(storytellerTag),
		regexp.QuoteMeta(symbols.Dead),
		regexp.QuoteMeta(symbols.NoVote),
		regexp.QuoteMeta(symbols.Vote),
		regexp.QuoteMeta(symbols.Traveling),
	)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("town: compile name pattern: %w", err)
	}
	return &NameCodec{symbols: symbols, re: re}, nil
}

// Symbols returns the symbol set the codec was compiled with.
func (c *NameCodec) Symbols() Symbols { return c.symbols }

// Decode parses a display name into state tags and the base nick. The base
// nick is trimmed of surrounding whitespace; that trim is the canonical
// policy, so Render(Decode(name)) never grows padding.
func (c *NameCodec) Decode(displayName string) Decoded {
	m := c.re.FindStringSubmatch(displayName)
	if m == nil {
		// The pattern is total; this only happens for names with newlines.
		return Decoded{Nick: strings.TrimSpace(displayName)}
	}
	var d Decoded
	if m[1] != "" {
		seat, err := strconv.Atoi(m[1][1:])
		if err == nil {
			d.Seat = seat
		}
	}
	d.Storyteller = m[2] != ""
	d.Dead = m[3] != ""
	if m[4] != "" {
		n := 0
		if m[4] != c.symbols.NoVote {
			n = strings.Count(m[4], c.symbols.Vote)
		}
		d.Votes = &n
	}
	d.Traveling = m[5] != ""
	d.Nick = strings.TrimSpace(m[6])
	return d
}

// BaseNick returns just the base nick of a display name.
func (c *NameCodec) BaseNick(displayName string) string {
	return c.Decode(displayName).Nick
}

// RenderTags renders the dead/votes/traveling symbol cluster for the given
// player info, without a seat tag.
func (c *NameCodec) RenderTags(info PlayerInfo) string {
	var b strings.Builder
	if info.Dead {
		b.WriteString(c.symbols.Dead)
	}
	if info.Votes != nil {
		if *info.Votes == 0 {
			b.WriteString(c.symbols.NoVote)
		} else {
			b.WriteString(strings.Repeat(c.symbols.Vote, *info.Votes))
		}
	}
	if info.Traveling {
		b.WriteString(c.symbols.Traveling)
	}
	return b.String()
}

// Render produces the display name for a player's info and base nick:
// seat tag, state symbols, a separating space, then the nick.
func (c *NameCodec) Render(info PlayerInfo, nick string) string {
	var b strings.Builder
	if info.Seat > 0 {
		fmt.Fprintf(&b, "_%02d", info.Seat)
	}
	b.WriteString(c.RenderTags(info))
	b.WriteString(" ")
	b.WriteString(nick)
	return b.String()
}

// RenderStoryteller produces the display name for a storyteller.
func (c *NameCodec) RenderStoryteller(nick string) string {
	return storytellerTag + " " + nick
}
