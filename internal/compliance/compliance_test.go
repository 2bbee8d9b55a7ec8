package compliance

import (
	"math/rand"
	"testing"
)

func bools(bits ...int) []bool {
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[i] = b == 1
	}
	return out
}

func TestTrack_StreakEndingAtMostRecentWeek(t *testing.T) {
	r := Track(bools(1, 1, 0, 1, 1, 1, 1, 1, 1, 1), 10)
	if r.CurrentStreak != 7 || r.LongestStreak != 7 {
		t.Fatalf("unexpected streaks: current=%d longest=%d", r.CurrentStreak, r.LongestStreak)
	}
	if r.ComplianceRate != 90 {
		t.Fatalf("unexpected rate: %v", r.ComplianceRate)
	}
	if r.TotalWeeks != 10 || r.SubmittedWeeks != 9 {
		t.Fatalf("unexpected totals: %+v", r)
	}
	want := []int{1, 1, 0, 1, 1, 1, 1, 1, 1, 1}
	for i := range want {
		if r.RecentSubmissions[i] != want[i] {
			t.Fatalf("unexpected recent submissions: %v", r.RecentSubmissions)
		}
	}
}

func TestTrack_MissedLastWeek(t *testing.T) {
	r := Track(bools(1, 1, 1, 1, 0), 10)
	if r.CurrentStreak != 0 || r.LongestStreak != 4 {
		t.Fatalf("unexpected streaks: %+v", r)
	}
}

func TestTrack_LongestStreakOutsideWindow(t *testing.T) {
	history := bools(1, 1, 1, 1, 1, 1, 0, 1, 0, 1, 1, 0, 1)
	r := Track(history, 5)
	if r.LongestStreak != 6 {
		t.Fatalf("longest streak must use full history: %d", r.LongestStreak)
	}
	if r.CurrentStreak != 1 {
		t.Fatalf("unexpected current streak: %d", r.CurrentStreak)
	}
	want := []int{0, 1, 1, 0, 1}
	if len(r.RecentSubmissions) != len(want) {
		t.Fatalf("unexpected window: %v", r.RecentSubmissions)
	}
	for i := range want {
		if r.RecentSubmissions[i] != want[i] {
			t.Fatalf("unexpected window: %v", r.RecentSubmissions)
		}
	}
}

func TestTrack_ShortHistoryIsNotPadded(t *testing.T) {
	r := Track(bools(0, 1, 1), 10)
	if len(r.RecentSubmissions) != 3 {
		t.Fatalf("expected 3 weeks without padding, got %v", r.RecentSubmissions)
	}
}

func TestTrack_EmptyHistory(t *testing.T) {
	r := Track(nil, 10)
	if r.CurrentStreak != 0 || r.LongestStreak != 0 || r.ComplianceRate != 0 || r.TotalWeeks != 0 {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.RecentSubmissions == nil || len(r.RecentSubmissions) != 0 {
		t.Fatalf("expected empty, non-nil recent submissions")
	}
}

func TestTrack_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 500; n++ {
		history := make([]bool, rng.Intn(40))
		for i := range history {
			history[i] = rng.Intn(3) > 0
		}
		r := Track(history, DefaultWindow)
		if r.CurrentStreak > r.LongestStreak {
			t.Fatalf("current %d > longest %d for %v", r.CurrentStreak, r.LongestStreak, history)
		}
		if (len(history) == 0 || !history[len(history)-1]) && r.CurrentStreak != 0 {
			t.Fatalf("current streak must be 0 for %v", history)
		}
		if r.ComplianceRate < 0 || r.ComplianceRate > 100 {
			t.Fatalf("rate out of range: %v", r.ComplianceRate)
		}
		if len(r.RecentSubmissions) > DefaultWindow {
			t.Fatalf("window too long: %d", len(r.RecentSubmissions))
		}
	}
}
