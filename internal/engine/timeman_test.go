package engine

import (
	"testing"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

func TestTimeManagerAllocation(t *testing.T) {
	tests := []struct {
		name    string
		limits  Limits
		limited bool
	}{
		{"infinite", Limits{Infinite: true, MoveTime: time.Second}, false},
		{"depth only", Limits{Depth: 5}, false},
		{"movetime", Limits{MoveTime: 200 * time.Millisecond}, true},
		{"clock", Limits{Time: [2]time.Duration{time.Minute, time.Minute}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tm := NewTimeManager()
			tm.Init(tc.limits, board.White, 20)
			if tm.Limited() != tc.limited {
				t.Fatalf("Limited() = %v, want %v", tm.Limited(), tc.limited)
			}
			if !tc.limited {
				return
			}
			if tm.OptimumTime() <= 0 || tm.OptimumTime() > tm.MaximumTime() {
				t.Errorf("optimum %v, maximum %v", tm.OptimumTime(), tm.MaximumTime())
			}
			if tc.limits.MoveTime > 0 && tm.MaximumTime() != tc.limits.MoveTime {
				t.Errorf("maximum %v, want the move time %v", tm.MaximumTime(), tc.limits.MoveTime)
			}
			if clock := tc.limits.Time[board.White]; clock > 0 && tm.MaximumTime() > clock*8/10 {
				t.Errorf("maximum %v exceeds 80%% of the clock %v", tm.MaximumTime(), clock)
			}
			if tm.SoftLimit(6) > tm.SoftLimit(0) {
				t.Error("a stable best move lengthened the soft limit")
			}
		})
	}
}
