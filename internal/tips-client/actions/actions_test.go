package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/tips-api/dto"
	"github.com/radieske/tips-platform/internal/tips-client/api"
	"github.com/radieske/tips-platform/internal/tips-client/store"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

type fakeClient struct {
	approveErr error
	approved   []dto.ApproveRequest
	settled    int
	settleErr  error
}

func (f *fakeClient) Approve(ctx context.Context, req dto.ApproveRequest) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	f.approved = append(f.approved, req)
	return nil
}

func (f *fakeClient) RunSettlement(ctx context.Context) (int, error) { return f.settled, f.settleErr }

type counter struct{ n int }

func (c *counter) Notify(string) { c.n++ }

var cand = prediction.Candidate{
	MatchID: "m1", HomeTeam: "Home", AwayTeam: "Away", League: "L", Market: "Over 2.5",
	MatchTime: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC), Odds: "1.90",
}

func surfaces() *store.Surfaces {
	return store.NewSurfaces(api.New("http://127.0.0.1:0", "", time.Second), store.LogNotifier{Log: zap.NewNop()}, zap.NewNop())
}

func TestApproveRemovesCandidateAndInvalidates(t *testing.T) {
	fc := &fakeClient{}
	cands := NewCandidates(cand)
	s := surfaces()
	a := New(fc, cands, s, &counter{}, zap.NewNop())

	if err := a.Approve(context.Background(), cand, "2.05"); err != nil {
		t.Fatal(err)
	}
	if cands.Has(cand.Key()) {
		t.Fatal("approved candidate must leave the working set")
	}
	if len(fc.approved) != 1 || fc.approved[0].Odds != "2.05" {
		t.Fatalf("expected user odds sent, got %+v", fc.approved)
	}
	if !s.ApprovedBets.State().Stale || !s.LiveSignals.State().Stale {
		t.Error("approved stores must be invalidated")
	}
	if s.TrainingPool.State().Stale {
		t.Error("training pool is not affected by approve")
	}
}

func TestApproveNetworkFailureKeepsCandidate(t *testing.T) {
	fc := &fakeClient{approveErr: &api.Error{Kind: api.KindTransport, Op: "POST /bets/approve", Message: "connection refused"}}
	cands := NewCandidates(cand)
	n := &counter{}
	s := surfaces()
	a := New(fc, cands, s, n, zap.NewNop())

	if err := a.Approve(context.Background(), cand, ""); err == nil {
		t.Fatal("expected error")
	}
	if !cands.Has(cand.Key()) || cands.Len() != 1 {
		t.Fatal("candidate must stay in the working set")
	}
	if s.ApprovedBets.State().Stale {
		t.Error("nothing must be invalidated on failure")
	}
	if n.n != 1 {
		t.Errorf("expected a notification, got %d", n.n)
	}
}

func TestRunSettlement(t *testing.T) {
	s := surfaces()
	a := New(&fakeClient{settled: 4}, NewCandidates(), s, &counter{}, zap.NewNop())

	n, err := a.RunSettlement(context.Background())
	if err != nil || n != 4 {
		t.Fatalf("expected 4, got %d %v", n, err)
	}
	for _, st := range s.All() {
		if !st.State().Stale {
			t.Errorf("%s must be stale after settlement", st.Name())
		}
	}

	failing := New(&fakeClient{settleErr: errors.New("500")}, NewCandidates(), surfaces(), &counter{}, zap.NewNop())
	if _, err := failing.RunSettlement(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestFromTrainingSkipsSettledAndApproved(t *testing.T) {
	ph, _ := prediction.NewSettled(prediction.StatusWon, "2-1", time.Now())
	training := []prediction.Record{
		{ID: "t1", MatchID: "m1", Market: "Over 2.5", Phase: prediction.Pending{}},
		{ID: "t2", MatchID: "m2", Market: "Draw", Phase: prediction.Pending{}},
		{ID: "t3", MatchID: "m3", Market: "Draw", Phase: ph},
	}
	approved := []prediction.Record{{ID: "a1", MatchID: "m1", Market: "Over 2.5", Phase: prediction.Pending{}}}

	got := FromTraining(training, approved)
	if len(got) != 1 || got[0].MatchID != "m2" {
		t.Fatalf("expected only m2, got %+v", got)
	}
}
