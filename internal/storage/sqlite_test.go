package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/reaction-duel/internal/duel"
	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := store.SaveScore("ann", 42, "lost", "wrong button"); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	high, err := store.HighScore("ann")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 42 {
		t.Errorf("HighScore() = %d, expected 42", high)
	}
}

func TestStoreScores(t *testing.T) {
	store := openTestStore(t)

	for _, s := range []struct {
		player string
		score  int
	}{
		{"ann", 100}, {"ann", 50}, {"ann", 200}, {"bob", 500},
	} {
		if _, err := store.SaveScore(s.player, s.score, "lost", "wrong button"); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}

	scores, err := store.TopScores("ann", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}
	if scores[0].Score != 200 || scores[1].Score != 100 || scores[2].Score != 50 {
		t.Errorf("Scores not in expected order: %v", scores)
	}

	all, err := store.TopScores("", 2)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(all) != 2 || all[0].Player != "bob" || all[0].Score != 500 {
		t.Errorf("TopScores(all, 2) = %v, expected bob's 500 first", all)
	}

	high, err := store.HighScore("nobody")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score of 0 for unknown player, got %d", high)
	}

	if err := store.ClearScores("ann"); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}
	annScores, _ := store.TopScores("ann", 10)
	if len(annScores) != 0 {
		t.Errorf("Expected 0 scores after clear, got %d", len(annScores))
	}
	bobScores, _ := store.TopScores("bob", 10)
	if len(bobScores) != 1 {
		t.Error("bob's scores should not be affected by clearing ann")
	}
}

func TestStoreSaveMatchResult(t *testing.T) {
	store := openTestStore(t)

	result := duel.Result{
		MatchID:     "m-1",
		Player:      "ann",
		Peer:        "bob",
		LocalScore:  120,
		RemoteScore: 95,
		RemoteKnown: true,
		Outcome:     duel.MatchWon,
		Reason:      duel.EndCompleted,
		Round:       reaction.Outcome{Kind: reaction.Lost, Score: 120, Reason: reaction.ReasonMismatch},
		SharedSeed:  100,
		Started:     true,
		Duration:    1500 * time.Millisecond,
	}
	if err := store.SaveMatchResult(result); err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}

	recs, err := store.MatchByID("m-1")
	if err != nil {
		t.Fatalf("MatchByID() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("MatchByID() returned %d records, expected 1", len(recs))
	}
	rec := recs[0]
	if rec.Player != "ann" || rec.Peer != "bob" || rec.LocalScore != 120 {
		t.Errorf("record = %+v", rec)
	}
	if !rec.RemoteScore.Valid || rec.RemoteScore.Int64 != 95 {
		t.Errorf("RemoteScore = %+v, expected 95", rec.RemoteScore)
	}
	if rec.Outcome != "won" || rec.EndReason != "completed" {
		t.Errorf("Outcome/EndReason = %q/%q, expected won/completed", rec.Outcome, rec.EndReason)
	}
	if rec.SharedSeed != 100 || rec.Duration != 1500*time.Millisecond {
		t.Errorf("SharedSeed/Duration = %d/%v", rec.SharedSeed, rec.Duration)
	}

	// The round itself lands in the score table
	high, err := store.HighScore("ann")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 120 {
		t.Errorf("HighScore() = %d, expected 120", high)
	}
}

func TestStoreUnavailableMatch(t *testing.T) {
	store := openTestStore(t)

	result := duel.Result{
		MatchID:    "m-2",
		Player:     "ann",
		LocalScore: 30,
		Outcome:    duel.MatchUnavailable,
		Reason:     duel.EndFinishTimeout,
		Round:      reaction.Outcome{Kind: reaction.Lost, Score: 30, Reason: reaction.ReasonTooSlow},
		Started:    true,
	}
	if err := store.SaveMatchResult(result); err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}

	recs, err := store.MatchByID("m-2")
	if err != nil || len(recs) != 1 {
		t.Fatalf("MatchByID() = %v, %v", recs, err)
	}
	if recs[0].RemoteScore.Valid {
		t.Errorf("RemoteScore = %+v, expected NULL", recs[0].RemoteScore)
	}

	missing, err := store.MatchByID("nope")
	if err != nil {
		t.Fatalf("MatchByID() failed: %v", err)
	}
	if missing != nil {
		t.Errorf("MatchByID(nope) = %v, expected nil", missing)
	}
}

func TestStoreRecentMatchesAndStats(t *testing.T) {
	store := openTestStore(t)

	outcomes := []duel.MatchOutcome{duel.MatchWon, duel.MatchLost, duel.MatchWon, duel.MatchDraw, duel.MatchAbandoned}
	for i, o := range outcomes {
		rec := MatchRecord{
			MatchID:     string(rune('a' + i)),
			Player:      "ann",
			Peer:        "bob",
			LocalScore:  (i + 1) * 10,
			RemoteScore: sql.NullInt64{Int64: 15, Valid: true},
			Outcome:     o.String(),
			EndReason:   duel.EndCompleted.String(),
		}
		if _, err := store.SaveMatch(rec); err != nil {
			t.Fatalf("SaveMatch() failed: %v", err)
		}
	}
	if _, err := store.SaveMatch(MatchRecord{MatchID: "z", Player: "bob", Outcome: "lost", EndReason: "completed"}); err != nil {
		t.Fatalf("SaveMatch() failed: %v", err)
	}

	recent, err := store.RecentMatches("ann", 3)
	if err != nil {
		t.Fatalf("RecentMatches() failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("RecentMatches() returned %d, expected 3", len(recent))
	}
	// Same second timestamps fall back to insertion order, newest first
	if recent[0].MatchID != "e" {
		t.Errorf("most recent match = %q, expected e", recent[0].MatchID)
	}

	everyone, err := store.RecentMatches("", 0)
	if err != nil {
		t.Fatalf("RecentMatches() failed: %v", err)
	}
	if len(everyone) != 6 {
		t.Errorf("RecentMatches(all) returned %d, expected 6", len(everyone))
	}

	stats, err := store.Stats("ann")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Matches != 5 || stats.Wins != 2 || stats.Losses != 1 || stats.Draws != 1 || stats.Abandoned != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.BestScore != 50 {
		t.Errorf("BestScore = %d, expected 50", stats.BestScore)
	}
	if stats.AvgScore != 30 {
		t.Errorf("AvgScore = %g, expected 30", stats.AvgScore)
	}

	empty, err := store.Stats("carol")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if empty.Matches != 0 || empty.BestScore != 0 {
		t.Errorf("Stats(unknown) = %+v, expected zero", empty)
	}
}

func TestStoreRoundScoreMatchesSaveScore(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveScore("ann", 7, "won", "sequence completed"); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}
	result := duel.Result{
		MatchID: "m-2",
		Player:  "bob",
		Peer:    "ann",
		Outcome: duel.MatchUnavailable,
		Reason:  duel.EndPeerClosed,
		Round:   reaction.Outcome{Kind: reaction.Won, Score: 7, Reason: reaction.ReasonCompleted},
		Started: true,
	}
	if err := store.SaveMatchResult(result); err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}

	scores, err := store.TopScores("", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("TopScores() returned %d entries, expected 2", len(scores))
	}
	for _, e := range scores {
		if e.Score != 7 || e.Outcome != "won" || e.Reason != "sequence completed" {
			t.Errorf("entry for %s = %+v", e.Player, e)
		}
	}
}
