package town

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSummarySevenPlayers(t *testing.T) {
	tw, _ := newTestTown(t, "P1", "P2", "P3", "P4", "P5", "P6", "P7")
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		tw.AddPlayer(ctx, fmt.Sprintf("P%d", i))
	}
	tw.SetDead(ctx, "P2")
	tw.SetVoted(ctx, "P5")

	got := tw.Summary()
	lines := strings.Split(got, "\n")
	// Seven seat lines, the headcount line, then the two tallies.
	if len(lines) != 10 {
		t.Fatalf("len(lines) = %d, want 10:\n%s", len(lines), got)
	}
	if want := "1" + keycapSuffix + " P1"; lines[0] != want {
		t.Errorf("lines[0] = %q, want %q", lines[0], want)
	}
	if want := "2" + keycapSuffix + "\U0001F480\U0001F47B P2"; lines[1] != want {
		t.Errorf("lines[1] = %q, want %q", lines[1], want)
	}
	if lines[7] != "5/0/1/1" {
		t.Errorf("headcount line = %q, want %q", lines[7], "5/0/1/1")
	}
	if lines[8] != "**5** players alive." {
		t.Errorf("alive line = %q, want %q", lines[8], "**5** players alive.")
	}
	if lines[9] != "**3** votes to execute." {
		t.Errorf("majority line = %q, want %q", lines[9], "**3** votes to execute.")
	}
}

func TestSummarySkipsHeadcountOutsideTable(t *testing.T) {
	tw, _ := newTestTown(t, "P1", "P2", "P3")
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		tw.AddPlayer(ctx, fmt.Sprintf("P%d", i))
	}

	got := tw.Summary()
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("len(lines) = %d, want 5 (no headcount line):\n%s", len(lines), got)
	}
	if lines[3] != "**3** players alive." {
		t.Errorf("alive line = %q, want %q", lines[3], "**3** players alive.")
	}
	// Majority of 3 alive rounds up to 2.
	if lines[4] != "**2** votes to execute." {
		t.Errorf("majority line = %q, want %q", lines[4], "**2** votes to execute.")
	}
}

func TestSummaryCountsTravelersAsAlive(t *testing.T) {
	// Travelers are excluded from the headcount but included in the alive
	// and majority tallies.
	tw, _ := newTestTown(t, "P1", "P2", "P3", "P4", "P5", "W1")
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		tw.AddPlayer(ctx, fmt.Sprintf("P%d", i))
	}
	tw.SetTraveler(ctx, "W1")

	hc, err := tw.Headcount()
	if err != nil {
		t.Fatalf("Headcount: %v", err)
	}
	if want := (Headcount{Townsfolk: 3, Outsiders: 0, Minions: 1, Demons: 1}); hc != want {
		t.Errorf("Headcount = %+v, want %+v", hc, want)
	}
	if got := tw.AliveCount(); got != 6 {
		t.Errorf("AliveCount = %d, want 6", got)
	}
	summary := tw.Summary()
	if !strings.Contains(summary, "**6** players alive.") {
		t.Errorf("summary missing traveler-inclusive alive tally:\n%s", summary)
	}
}

func TestHeadcountErrorOutsideTable(t *testing.T) {
	tw, _ := newTestTown(t, "P1")
	ctx := context.Background()
	tw.AddPlayer(ctx, "P1")

	_, err := tw.Headcount()
	var noCount *NoHeadcountError
	if !errors.As(err, &noCount) {
		t.Fatalf("err = %v, want *NoHeadcountError", err)
	}
	if noCount.Players != 1 {
		t.Errorf("Players = %d, want 1", noCount.Players)
	}
}

func TestMajority(t *testing.T) {
	tests := []struct {
		alive int
		want  int
	}{
		{alive: 0, want: 0},
		{alive: 1, want: 1},
		{alive: 7, want: 4},
		{alive: 8, want: 4},
		{alive: 9, want: 5},
	}
	for _, tt := range tests {
		if got := majority(tt.alive); got != tt.want {
			t.Errorf("majority(%d) = %d, want %d", tt.alive, got, tt.want)
		}
	}
}
