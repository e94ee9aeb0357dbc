package dtr

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapseDuplicateScans(t *testing.T) {
	p := NewPunchProcessor(DefaultDuplicateScanWindow)

	tests := []struct {
		name    string
		punches []attendance.RawPunch
		want    []time.Time
	}{
		{
			name:    "rescan within two minutes",
			punches: unknownPunches(ts(2025, 2, 12, 7, 58, 0), ts(2025, 2, 12, 7, 59, 30), ts(2025, 2, 12, 17, 2, 0)),
			want:    []time.Time{ts(2025, 2, 12, 7, 58, 0), ts(2025, 2, 12, 17, 2, 0)},
		},
		{
			name: "chain compares against last kept",
			punches: unknownPunches(
				ts(2025, 2, 12, 7, 58, 0),
				ts(2025, 2, 12, 7, 58, 45),
				ts(2025, 2, 12, 7, 59, 30),
				ts(2025, 2, 12, 17, 2, 0),
			),
			want: []time.Time{ts(2025, 2, 12, 7, 58, 0), ts(2025, 2, 12, 17, 2, 0)},
		},
		{
			name:    "thirty minutes apart",
			punches: unknownPunches(ts(2025, 2, 12, 7, 58, 0), ts(2025, 2, 12, 8, 28, 0)),
			want:    []time.Time{ts(2025, 2, 12, 7, 58, 0), ts(2025, 2, 12, 8, 28, 0)},
		},
		{
			name:    "exactly on the window edge",
			punches: unknownPunches(ts(2025, 2, 12, 7, 58, 0), ts(2025, 2, 12, 8, 0, 0)),
			want:    []time.Time{ts(2025, 2, 12, 7, 58, 0)},
		},
		{
			name:    "unsorted input",
			punches: unknownPunches(ts(2025, 2, 12, 17, 2, 0), ts(2025, 2, 12, 7, 59, 30), ts(2025, 2, 12, 7, 58, 0)),
			want:    []time.Time{ts(2025, 2, 12, 7, 58, 0), ts(2025, 2, 12, 17, 2, 0)},
		},
		{
			name:    "empty",
			punches: nil,
			want:    []time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timestamps(p.CollapseDuplicateScans(tt.punches)))
		})
	}
}

func TestCollapseDuplicateScans_TaggedPunchesUntouched(t *testing.T) {
	p := NewPunchProcessor(0)

	punches := []attendance.RawPunch{
		{Timestamp: ts(2025, 2, 12, 7, 58, 0), Direction: attendance.DirectionIn},
		{Timestamp: ts(2025, 2, 12, 7, 58, 30), Direction: attendance.DirectionIn},
		{Timestamp: ts(2025, 2, 12, 7, 59, 0)},
		{Timestamp: ts(2025, 2, 12, 7, 59, 40)},
	}

	got := p.CollapseDuplicateScans(punches)
	require.Len(t, got, 3)
	assert.Equal(t, attendance.DirectionIn, got[0].Direction)
	assert.Equal(t, attendance.DirectionIn, got[1].Direction)
	assert.Equal(t, ts(2025, 2, 12, 7, 59, 0), got[2].Timestamp)

	// input is not reordered or shortened
	assert.Len(t, punches, 4)
}

func TestCollapseDuplicateScans_CustomWindow(t *testing.T) {
	p := NewPunchProcessor(30 * time.Second)

	got := p.CollapseDuplicateScans(unknownPunches(ts(2025, 2, 12, 7, 58, 0), ts(2025, 2, 12, 7, 59, 30)))
	assert.Len(t, got, 2)
}

func TestMatchToSchedule(t *testing.T) {
	p := NewPunchProcessor(DefaultDuplicateScanWindow)
	events := expand(officeSchedule(), onDate(2025, 2, 12)).Events

	t.Run("two punches on a four event day", func(t *testing.T) {
		got := p.MatchToSchedule(unknownPunches(ts(2025, 2, 12, 7, 55, 0), ts(2025, 2, 12, 17, 5, 0)), events)

		assert.Equal(t, 0, got.DroppedCount)
		assert.Equal(t, []attendance.Direction{attendance.DirectionIn, attendance.DirectionOut}, directions(got.Logs))
		require.NotNil(t, got.Logs[0].MatchedEvent)
		assert.Equal(t, schedule.EventShiftStart, got.Logs[0].MatchedEvent.Kind)
		require.NotNil(t, got.Logs[1].MatchedEvent)
		assert.Equal(t, schedule.EventShiftEnd, got.Logs[1].MatchedEvent.Kind)
	})

	t.Run("extra punch after start is dropped", func(t *testing.T) {
		got := p.MatchToSchedule(unknownPunches(
			ts(2025, 2, 12, 7, 58, 0),
			ts(2025, 2, 12, 8, 28, 0),
			ts(2025, 2, 12, 12, 3, 0),
			ts(2025, 2, 12, 14, 0, 0),
			ts(2025, 2, 12, 17, 2, 0),
		), events)

		assert.Equal(t, 1, got.DroppedCount)
		assert.Equal(t, []attendance.Direction{
			attendance.DirectionIn, attendance.DirectionOut, attendance.DirectionIn, attendance.DirectionOut,
		}, directions(got.Logs))
		for _, l := range got.Logs {
			assert.NotEqual(t, ts(2025, 2, 12, 8, 28, 0), l.Timestamp())
		}
	})

	t.Run("tagged punches pass through", func(t *testing.T) {
		punches := []attendance.RawPunch{
			{Timestamp: ts(2025, 2, 12, 7, 57, 0), Direction: attendance.DirectionIn},
			{Timestamp: ts(2025, 2, 12, 12, 1, 0)},
			{Timestamp: ts(2025, 2, 12, 13, 2, 0)},
			{Timestamp: ts(2025, 2, 12, 17, 5, 0), Direction: attendance.DirectionOut},
		}
		got := p.MatchToSchedule(punches, events)

		assert.Equal(t, 0, got.DroppedCount)
		assert.Equal(t, []attendance.Direction{
			attendance.DirectionIn, attendance.DirectionOut, attendance.DirectionIn, attendance.DirectionOut,
		}, directions(got.Logs))
		assert.Equal(t, schedule.EventBreakOut, got.Logs[1].MatchedEvent.Kind)
		assert.Equal(t, schedule.EventBreakIn, got.Logs[2].MatchedEvent.Kind)
	})

	t.Run("repeated tagged in keeps the first", func(t *testing.T) {
		punches := []attendance.RawPunch{
			{Timestamp: ts(2025, 2, 12, 8, 0, 0), Direction: attendance.DirectionIn},
			{Timestamp: ts(2025, 2, 12, 8, 5, 0), Direction: attendance.DirectionIn},
			{Timestamp: ts(2025, 2, 12, 17, 0, 0), Direction: attendance.DirectionOut},
		}
		got := p.MatchToSchedule(punches, events)

		assert.Equal(t, 1, got.DroppedCount)
		require.Len(t, got.Logs, 2)
		assert.Equal(t, ts(2025, 2, 12, 8, 0, 0), got.Logs[0].Timestamp())
		assert.Equal(t, ts(2025, 2, 12, 17, 0, 0), got.Logs[1].Timestamp())
	})

	t.Run("repeated tagged out keeps the last", func(t *testing.T) {
		punches := []attendance.RawPunch{
			{Timestamp: ts(2025, 2, 12, 8, 0, 0), Direction: attendance.DirectionIn},
			{Timestamp: ts(2025, 2, 12, 16, 55, 0), Direction: attendance.DirectionOut},
			{Timestamp: ts(2025, 2, 12, 17, 10, 0), Direction: attendance.DirectionOut},
		}
		got := p.MatchToSchedule(punches, events)

		assert.Equal(t, 1, got.DroppedCount)
		require.Len(t, got.Logs, 2)
		assert.Equal(t, ts(2025, 2, 12, 17, 10, 0), got.Logs[1].Timestamp())
	})

	t.Run("punches beyond the events are dropped", func(t *testing.T) {
		twoEvents := expand(eveningSchedule(), onDate(2025, 2, 12)).Events
		got := p.MatchToSchedule(unknownPunches(
			ts(2025, 2, 12, 17, 0, 0),
			ts(2025, 2, 12, 23, 59, 0),
			ts(2025, 2, 13, 0, 30, 0),
		), twoEvents)

		assert.Equal(t, 1, got.DroppedCount)
		require.Len(t, got.Logs, 2)
		assert.Equal(t, ts(2025, 2, 12, 23, 59, 0), got.Logs[1].Timestamp())
	})

	t.Run("no events falls back to alternation", func(t *testing.T) {
		got := p.MatchToSchedule(unknownPunches(ts(2025, 2, 12, 9, 0, 0), ts(2025, 2, 12, 18, 0, 0)), nil)

		assert.Equal(t, 0, got.DroppedCount)
		assert.Equal(t, []attendance.Direction{attendance.DirectionIn, attendance.DirectionOut}, directions(got.Logs))
	})
}

func TestMatchToSchedule_SinglePunch(t *testing.T) {
	p := NewPunchProcessor(DefaultDuplicateScanWindow)
	events := expand(officeSchedule(), onDate(2025, 2, 12)).Events

	morning := p.MatchToSchedule(unknownPunches(ts(2025, 2, 12, 7, 55, 0)), events)
	require.Len(t, morning.Logs, 1)
	assert.Equal(t, attendance.DirectionIn, morning.Logs[0].Direction)
	assert.Equal(t, 0, morning.DroppedCount)

	// after 12:30, the middle of 08:00-17:00
	evening := p.MatchToSchedule(unknownPunches(ts(2025, 2, 12, 14, 0, 0)), events)
	require.Len(t, evening.Logs, 1)
	assert.Equal(t, attendance.DirectionOut, evening.Logs[0].Direction)
	require.NotNil(t, evening.Logs[0].MatchedEvent)
	assert.Equal(t, schedule.EventBreakOut, evening.Logs[0].MatchedEvent.Kind)
}

func TestInferDirections(t *testing.T) {
	p := NewPunchProcessor(DefaultDuplicateScanWindow)

	got := p.InferDirections(unknownPunches(
		ts(2025, 2, 12, 17, 0, 0),
		ts(2025, 2, 12, 8, 0, 0),
		ts(2025, 2, 12, 8, 1, 0),
	))

	assert.Equal(t, []attendance.Direction{
		attendance.DirectionIn, attendance.DirectionOut, attendance.DirectionIn,
	}, directions(got))
	assert.Equal(t, ts(2025, 2, 12, 8, 0, 0), got[0].Timestamp())
	for _, l := range got {
		assert.Nil(t, l.MatchedEvent)
	}
}

func TestProcess_WithoutSchedule(t *testing.T) {
	p := NewPunchProcessor(DefaultDuplicateScanWindow)

	got := p.Process(unknownPunches(
		ts(2025, 2, 12, 8, 0, 0),
		ts(2025, 2, 12, 8, 0, 40),
		ts(2025, 2, 12, 12, 0, 0),
		ts(2025, 2, 12, 13, 0, 0),
		ts(2025, 2, 12, 17, 0, 0),
	), nil)

	assert.Equal(t, 0, got.DroppedCount)
	require.Len(t, got.Pairs, 2)
	assert.True(t, got.Pairs[0].Complete())
	assert.True(t, got.Pairs[1].Complete())
	assert.Equal(t, 480, got.TotalWorkMinutes())
	require.NotNil(t, got.FirstIn)
	require.NotNil(t, got.LastOut)
	assert.Equal(t, ts(2025, 2, 12, 8, 0, 0), *got.FirstIn)
	assert.Equal(t, ts(2025, 2, 12, 17, 0, 0), *got.LastOut)
}

func TestProcess_OpenShift(t *testing.T) {
	p := NewPunchProcessor(DefaultDuplicateScanWindow)

	got := p.Process(unknownPunches(ts(2025, 2, 12, 8, 0, 0)), nil)

	require.Len(t, got.Pairs, 1)
	assert.False(t, got.Pairs[0].Complete())
	assert.Nil(t, got.LastOut)
	assert.Equal(t, 0, got.TotalWorkMinutes())
	assert.Empty(t, got.CompletePairs())
}

func TestProcess_CrossMidnight(t *testing.T) {
	p := NewPunchProcessor(DefaultDuplicateScanWindow)
	resolved := expand(eveningSchedule(), onDate(2025, 2, 13))

	got := p.Process(unknownPunches(ts(2025, 2, 13, 17, 2, 0), ts(2025, 2, 14, 1, 4, 0)), resolved)

	assert.Equal(t, 0, got.DroppedCount)
	require.Len(t, got.Logs, 2)
	require.NotNil(t, got.FirstIn)
	require.NotNil(t, got.LastOut)
	assert.Equal(t, ts(2025, 2, 13, 17, 2, 0), *got.FirstIn)
	assert.Equal(t, ts(2025, 2, 14, 1, 4, 0), *got.LastOut)
	assert.Equal(t, 482, got.TotalWorkMinutes())
}

func TestProcess_InOutBalance(t *testing.T) {
	p := NewPunchProcessor(DefaultDuplicateScanWindow)
	resolved := expand(officeSchedule(), onDate(2025, 2, 12))
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		n := rng.Intn(9)
		punches := make([]attendance.RawPunch, 0, n)
		for j := 0; j < n; j++ {
			punch := attendance.RawPunch{
				Timestamp: ts(2025, 2, 12, 6, 0, 0).Add(time.Duration(rng.Intn(13*60)) * time.Minute),
			}
			switch rng.Intn(4) {
			case 0:
				punch.Direction = attendance.DirectionIn
			case 1:
				punch.Direction = attendance.DirectionOut
			}
			punches = append(punches, punch)
		}

		for _, sched := range []*schedule.ResolvedSchedule{resolved, nil} {
			got := p.Process(punches, sched)

			ins, outs := 0, 0
			for k, l := range got.Logs {
				switch l.Direction {
				case attendance.DirectionIn:
					ins++
				case attendance.DirectionOut:
					outs++
				default:
					t.Fatalf("unlabeled punch in output")
				}
				if k > 0 {
					assert.True(t, got.Logs[k-1].Timestamp().Before(l.Timestamp()) || got.Logs[k-1].Timestamp().Equal(l.Timestamp()))
					assert.NotEqual(t, got.Logs[k-1].Direction, l.Direction)
				}
			}
			diff := ins - outs
			assert.True(t, diff >= -1 && diff <= 1, "ins=%d outs=%d", ins, outs)
		}
	}
}
