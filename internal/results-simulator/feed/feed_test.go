package feed

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/tips-platform/pkg/contracts/events"
)

func TestRoundsCloseThePreviousMatches(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := New(42, "test", func() time.Time { return now })

	cands, results := f.NextRound()
	if len(results) != 0 {
		t.Fatalf("first round has nothing to close, got %d results", len(results))
	}
	if len(cands) < len(DefaultFixtures) {
		t.Fatalf("expected at least one candidate per fixture, got %d", len(cands))
	}

	open := map[string]bool{}
	one := decimal.NewFromInt(1)
	for _, c := range cands {
		open[c.Candidate.MatchID] = true
		d, err := decimal.NewFromString(c.Candidate.Odds)
		if err != nil || !d.GreaterThan(one) {
			t.Errorf("invalid odds %q", c.Candidate.Odds)
		}
		if !c.Candidate.MatchTime.After(now) {
			t.Errorf("kickoff must be in the future")
		}
	}

	_, results = f.NextRound()
	if len(results) != len(DefaultFixtures) {
		t.Fatalf("expected one result per match, got %d", len(results))
	}
	for _, r := range results {
		if !open[r.MatchID] {
			t.Errorf("result for unknown match %s", r.MatchID)
		}
		switch r.Status {
		case events.MatchFinished, events.MatchAbandoned, events.MatchCancelled:
		default:
			t.Errorf("unexpected status %q", r.Status)
		}
		if r.HomeGoals < 0 || r.AwayGoals < 0 || r.HomeGoals > 5 || r.AwayGoals > 5 {
			t.Errorf("goals out of range: %+v", r)
		}
	}
}

func TestSameSeedSameFeed(t *testing.T) {
	clock := func() time.Time { return time.Unix(0, 0) }
	a, _ := New(7, "x", clock).NextRound()
	b, _ := New(7, "x", clock).NextRound()
	if len(a) != len(b) {
		t.Fatalf("expected deterministic output, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Candidate != b[i].Candidate {
			t.Fatalf("candidate %d differs: %+v vs %+v", i, a[i].Candidate, b[i].Candidate)
		}
	}
}
