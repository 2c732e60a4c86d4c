package town

// TargetRef is a command argument that names a participant: nothing (the
// command issuer), a 1-based seat number, or a concrete member identity.
// Resolution happens in one place instead of runtime type inspection.
type TargetRef struct {
	kind   refKind
	seat   int
	member string
}

type refKind int

const (
	refSelf refKind = iota
	refSeat
	refMember
)

// Self refers to the command issuer.
func Self() TargetRef { return TargetRef{kind: refSelf} }

// BySeat refers to the player in the given 1-based seat.
func BySeat(seat int) TargetRef { return TargetRef{kind: refSeat, seat: seat} }

// ByMember refers to a concrete member identity.
func ByMember(id string) TargetRef { return TargetRef{kind: refMember, member: id} }

// IsSelf reports whether the ref falls back to the issuer.
func (r TargetRef) IsSelf() bool { return r.kind == refSelf }

// ResolveMember resolves a target to a member ID. Seat numbers index the
// player order; seat 0 resolves to the storyteller when exactly one exists,
// a convenience for referring to them without a name.
func (t *Town) ResolveMember(issuerID string, ref TargetRef) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ref.kind {
	case refSelf:
		return issuerID, nil
	case refMember:
		return ref.member, nil
	default:
		if ref.seat >= 1 && ref.seat <= len(t.order) {
			return t.order[ref.seat-1], nil
		}
		if ref.seat == 0 && len(t.storytellers) == 1 {
			return t.storytellers[0], nil
		}
		return "", &BadSeatError{Seat: ref.seat}
	}
}

// ResolvePlayer resolves a target and requires the result to be a current
// player. The failure carries the resolved member for messaging.
func (t *Town) ResolvePlayer(issuerID string, ref TargetRef) (string, error) {
	id, err := t.ResolveMember(issuerID, ref)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.players[id] {
		name, _ := t.dir.DisplayName(t.GuildID, id)
		return "", &BadPlayerTargetError{MemberID: id, DisplayName: name}
	}
	return id, nil
}

// IsPlayer reports whether the member is currently seated.
func (t *Town) IsPlayer(memberID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.players[memberID]
}

// IsTraveler reports whether the member is flagged as a traveler.
func (t *Town) IsTraveler(memberID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.travelers[memberID]
}

// IsStoryteller reports whether the member is a storyteller.
func (t *Town) IsStoryteller(memberID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isStoryteller(memberID)
}

// Roles returns the town's role bindings.
func (t *Town) Roles() RoleBindings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.roles
}
