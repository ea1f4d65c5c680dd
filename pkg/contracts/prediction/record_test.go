package prediction

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeSettledRecord(t *testing.T) {
	raw := `{"id":"b1","matchId":"m1","homeTeam":"Flamengo","awayTeam":"Palmeiras","league":"Serie A",
		"matchTime":1735689600000,"market":"Over 2.5","odds":1.85,"status":"WON",
		"finalScore":"3-1","settledAt":"2025-01-01T02:00:00Z","createdAt":"2024-12-31T20:00:00Z"}`

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Status() != StatusWon {
		t.Fatalf("expected WON, got %s", r.Status())
	}
	out, ok := r.Outcome()
	if !ok || out.FinalScore != "3-1" {
		t.Fatalf("expected outcome 3-1, got %+v", out)
	}
	if r.Odds != "1.85" {
		t.Errorf("expected numeric odds kept as text 1.85, got %q", r.Odds)
	}
	if !r.MatchTime.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected epoch ms matchTime, got %v", r.MatchTime)
	}
}

func TestDecodeRejectsPendingWithOutcome(t *testing.T) {
	raw := `{"id":"b1","status":"PENDING","finalScore":"1-0","createdAt":"2025-01-01T00:00:00Z"}`
	var r Record
	err := json.Unmarshal([]byte(raw), &r)
	if !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
}

func TestDecodeRejectsSettledWithoutOutcome(t *testing.T) {
	raw := `{"id":"b1","status":"LOST","createdAt":"2025-01-01T00:00:00Z"}`
	var r Record
	if err := json.Unmarshal([]byte(raw), &r); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
}

func TestDecodeRejectsUnknownStatus(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"id":"b1","status":"VOID"}`), &r); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestPendingRecordOmitsOutcome(t *testing.T) {
	r := Record{ID: "b1", Market: "Draw", CreatedAt: time.Now()}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["status"] != "PENDING" {
		t.Errorf("expected PENDING for nil phase, got %v", m["status"])
	}
	if _, ok := m["finalScore"]; ok {
		t.Error("pending record must not carry finalScore")
	}
	if _, ok := m["settledAt"]; ok {
		t.Error("pending record must not carry settledAt")
	}
}

func TestNewSettledRejectsPending(t *testing.T) {
	if _, err := NewSettled(StatusPending, "1-0", time.Now()); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
	if _, err := NewSettled(StatusRefund, "", time.Now()); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase for missing score, got %v", err)
	}
}

func TestDedupeKeepsFirst(t *testing.T) {
	in := []Record{{ID: "a", Market: "first"}, {ID: "b"}, {ID: "a", Market: "second"}}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Market != "first" {
		t.Errorf("expected first occurrence kept, got %q", out[0].Market)
	}
}

func TestTimestampFormats(t *testing.T) {
	cases := map[string]time.Time{
		`"2025-03-01T12:30:00Z"`:      time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		`"2025-03-01 12:30:00"`:       time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		`"2025-03-01T15:30:00+03:00"`: time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		`1740832200000`:               time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		var ts Timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !ts.Equal(want) {
			t.Errorf("%s: expected %v, got %v", in, want, ts.Time)
		}
	}
}

func TestTimestampRejectsOutOfRangeEpoch(t *testing.T) {
	for _, in := range []string{`1e300`, `-1e300`, `NaN`, `+Inf`} {
		var ts Timestamp
		if err := ts.UnmarshalJSON([]byte(in)); err == nil {
			t.Errorf("%s: expected error, got %v", in, ts.Time)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`1740832200000.9`), &ts); err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)) {
		t.Errorf("fractional millis must truncate, got %v", ts.Time)
	}
}
