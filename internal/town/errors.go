package town

import "fmt"

// The error types below are the user-input failure taxonomy. They are all
// recoverable: the command surface translates them into chat replies and no
// town state is mutated before they are raised.

// BadPlayerTargetError reports an argument that resolved to a member who is
// not a current player. The resolved member is carried for messaging.
type BadPlayerTargetError struct {
	MemberID    string
	DisplayName string
}

func (e *BadPlayerTargetError) Error() string {
	return fmt.Sprintf("town: member %s is not a player", e.MemberID)
}

// BadSeatError reports an integer argument that does not resolve to an
// occupied seat or the sole-storyteller shortcut.
type BadSeatError struct {
	Seat int
}

func (e *BadSeatError) Error() string {
	return fmt.Sprintf("town: seat %d is invalid", e.Seat)
}

// BadSidebarError reports an integer argument that does not resolve to a
// voice channel in the town's category.
type BadSidebarError struct {
	Sidebar int
}

func (e *BadSidebarError) Error() string {
	return fmt.Sprintf("town: sidebar %d is invalid", e.Sidebar)
}

// LockedError reports an operation that requires an unlocked town.
type LockedError struct{}

func (e *LockedError) Error() string { return "town: town is locked" }

// UnlockedError reports an operation that requires a locked town.
type UnlockedError struct{}

func (e *UnlockedError) Error() string { return "town: town is unlocked" }

// InvalidVoteCountError reports a vote tally outside [0, 20].
type InvalidVoteCountError struct {
	Count int
}

func (e *InvalidVoteCountError) Error() string {
	return fmt.Sprintf("town: vote count %d outside [0, 20]", e.Count)
}

// NominationOpenError reports an attempt to open a nomination while one is
// already in progress.
type NominationOpenError struct{}

func (e *NominationOpenError) Error() string {
	return "town: a nomination is already in progress"
}

// NoNominationError reports a vote or cancel with no nomination to act on.
type NoNominationError struct{}

func (e *NoNominationError) Error() string { return "town: no nomination to act on" }

// NoHeadcountError reports a non-traveler player count outside the supported
// 5..15 table range.
type NoHeadcountError struct {
	Players int
}

func (e *NoHeadcountError) Error() string {
	return fmt.Sprintf("town: no headcount for %d players", e.Players)
}
