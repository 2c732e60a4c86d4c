package town

import "strconv"

// Keycap emoji used for seat numbers and vote tallies. A keycap digit is the
// ASCII digit followed by VARIATION SELECTOR-16 and COMBINING ENCLOSING KEYCAP.
const (
	keycapSuffix = "️⃣"
	keycapTen    = "\U0001F51F" // KEYCAP TEN
	keycapStar   = "*" + keycapSuffix
)

// keycapDigit returns the keycap emoji for a single digit 0..9.
func keycapDigit(d int) string {
	return strconv.Itoa(d) + keycapSuffix
}

// emojiNumber renders a non-negative number as a string of keycap digits.
func emojiNumber(n int) string {
	s := strconv.Itoa(n)
	out := ""
	for _, r := range s {
		out += string(r) + keycapSuffix
	}
	return out
}

// voteReactions encodes a vote tally 0..20 as reaction emoji: a ten keycap
// for a tens digit of 1, a star keycap for 2, then the ones keycap unless
// the tally is an exact positive multiple of ten.
func voteReactions(count int) []string {
	tens := count / 10
	ones := count % 10
	var out []string
	switch tens {
	case 1:
		out = append(out, keycapTen)
	case 2:
		out = append(out, keycapStar)
	}
	if !(ones == 0 && tens > 0) {
		out = append(out, keycapDigit(ones))
	}
	return out
}
