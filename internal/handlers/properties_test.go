package handlers

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestProperty_DestroyReversesEverythingOnce registers random signal groups
// under random labels, tears some labels down, then destroys twice.
func TestProperty_DestroyReversesEverythingOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		em := newFakeEmitter()
		s := NewSubscriptions[string, func()]()

		labels := rapid.SliceOfN(rapid.StringMatching(`[a-d]`), 1, 4).Draw(rt, "labels")
		steps := rapid.IntRange(0, 20).Draw(rt, "steps")

		want := map[string]int{}
		for i := 0; i < steps; i++ {
			label := rapid.SampledFrom(labels).Draw(rt, "label")
			if rapid.Bool().Draw(rt, "remove") {
				require.NoError(rt, s.RemoveWithLabel(label))
				delete(want, label)
				continue
			}
			events := rapid.SliceOfN(rapid.StringMatching(`ev[0-9]`), 0, 4).Draw(rt, "events")
			require.NoError(rt, s.AddWithLabel(label, On[string, func()](em, func() {}, events...)))
			want[label] += len(events)
		}

		total := 0
		for label, n := range want {
			require.Equal(rt, n, s.Len(label), "label %q", label)
			total += n
		}
		require.Len(rt, em.live, total)

		require.NoError(rt, s.Destroy())
		require.True(rt, s.Empty())
		require.NoError(rt, s.Destroy())
		require.True(rt, s.Empty())

		require.Empty(rt, em.live)
		require.Len(rt, em.disconnects, int(em.nextID))
		for id, n := range em.disconnects {
			require.Equal(rt, 1, n, "handler %d", id)
		}
	})
}

// TestProperty_LabelExistsIffRecords checks that a label is listed exactly
// when it holds at least one record.
func TestProperty_LabelExistsIffRecords(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := New[int, string](&counter{})

		for i := rapid.IntRange(0, 15).Draw(rt, "ops"); i > 0; i-- {
			label := rapid.StringMatching(`[xy]`).Draw(rt, "label")
			if rapid.Bool().Draw(rt, "remove") {
				require.NoError(rt, r.RemoveWithLabel(label))
			} else {
				require.NoError(rt, r.AddWithLabel(label, rapid.IntRange(0, 2).Draw(rt, "n")))
			}

			for _, l := range []string{"x", "y"} {
				require.Equal(rt, r.Len(l) > 0, slices.Contains(r.Labels(), l), "label %q", l)
			}
		}
	})
}

// TestProperty_TimersCancelEachLiveHandleOnce mixes one-shot and repeating
// timers with random firings and removals, then destroys.
func TestProperty_TimersCancelEachLiveHandleOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sched := newFakeScheduler()
		tm := NewTimers(sched)

		names := []string{"a", "b", "c"}
		for i := rapid.IntRange(0, 20).Draw(rt, "ops"); i > 0; i-- {
			name := rapid.SampledFrom(names).Draw(rt, "name")
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				// Repeating timers only go onto free names; a repeat over a
				// live name would orphan the older handle.
				repeat := tm.ID(name) == 0 && rapid.Bool().Draw(rt, "repeat")
				require.NoError(rt, tm.AddWithLabel(name, Timeout{Name: name, Delay: time.Second, Callback: func() {}, Repeat: repeat}))
			case 1:
				sched.fire(tm.ID(name))
			case 2:
				tm.Remove(name)
			}

			for _, n := range names {
				if id := tm.ID(n); id != 0 {
					require.Contains(rt, sched.pending, id, "live handle %q is scheduled", n)
				}
			}
		}

		require.NoError(rt, tm.Destroy())
		require.Empty(rt, tm.Running())
		require.Empty(rt, sched.pending)
	})
}
