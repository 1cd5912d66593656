package mailbox

import (
	"sync"
	"testing"
	"time"

	"github.com/mstreet3/script-relayer/queues/fifoqueue"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 8, 20, 10, 21, 34, 123000000, time.UTC)

// testTimeStamper returns the queued times in order, then repeats the last one
type testTimeStamper struct {
	mu    sync.Mutex
	times []time.Time
}

func (ts *testTimeStamper) Timestamp() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	next := ts.times[0]
	if len(ts.times) > 1 {
		ts.times = ts.times[1:]
	}
	return next
}

func newTestMailbox(times ...time.Time) *ScriptMailbox {
	if len(times) == 0 {
		times = []time.Time{epoch}
	}
	return NewScriptMailboxWith(
		fifoqueue.NewFIFOQueue[string](),
		&testTimeStamper{times: times},
	)
}

func TestScriptMailbox(t *testing.T) {
	tests := []struct {
		name    string
		mailbox *ScriptMailbox
		helper  func(t *testing.T, m *ScriptMailbox)
	}{
		{
			name:    "drains scripts in submission order and empties",
			mailbox: newTestMailbox(),
			helper:  testScriptMailbox_Empty,
		},
		{
			name:    "reports never drained before the first drain",
			mailbox: newTestMailbox(),
			helper:  testScriptMailbox_NeverEmptied,
		},
		{
			name:    "records the drain time at millisecond resolution",
			mailbox: newTestMailbox(epoch.Add(456 * time.Microsecond)),
			helper:  testScriptMailbox_EmptiedAt,
		},
		{
			name:    "drain time never moves backwards",
			mailbox: newTestMailbox(epoch, epoch.Add(-time.Hour), epoch.Add(time.Second)),
			helper:  testScriptMailbox_Monotonic,
		},
		{
			name:    "adding does not change the drain state",
			mailbox: newTestMailbox(),
			helper:  testScriptMailbox_AddKeepsDrainState,
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			tc.helper(t, tc.mailbox)
		})
	}
}

func testScriptMailbox_Empty(t *testing.T, mailbox *ScriptMailbox) {
	t.Helper()
	mailbox.Add("QQ==")
	mailbox.Add("Qg==")
	mailbox.Add("QQ==")

	got := mailbox.Empty()
	require.Equal(t, []string{"QQ==", "Qg==", "QQ=="}, got.Scripts)
	require.Equal(t, 0, mailbox.Len())

	got = mailbox.Empty()
	require.NotNil(t, got.Scripts)
	require.Empty(t, got.Scripts)
}

func testScriptMailbox_NeverEmptied(t *testing.T, mailbox *ScriptMailbox) {
	t.Helper()
	require.False(t, mailbox.EmptiedAt().Drained)
	require.True(t, mailbox.EmptiedAt().DrainedAt.IsZero())
}

func testScriptMailbox_EmptiedAt(t *testing.T, mailbox *ScriptMailbox) {
	t.Helper()
	got := mailbox.Empty()
	require.Equal(t, epoch, got.DrainedAt)

	last := mailbox.EmptiedAt()
	require.True(t, last.Drained)
	require.Equal(t, epoch, last.DrainedAt)
	require.Equal(t, int64(1755685294123), last.EpochMs())
}

func testScriptMailbox_Monotonic(t *testing.T, mailbox *ScriptMailbox) {
	t.Helper()
	first := mailbox.Empty().DrainedAt
	second := mailbox.Empty().DrainedAt
	third := mailbox.Empty().DrainedAt

	require.Equal(t, epoch, first)
	require.Equal(t, first, second)
	require.True(t, third.After(second))
	require.Equal(t, third, mailbox.EmptiedAt().DrainedAt)
}

func testScriptMailbox_AddKeepsDrainState(t *testing.T, mailbox *ScriptMailbox) {
	t.Helper()
	mailbox.Add("QQ==")
	require.False(t, mailbox.EmptiedAt().Drained)

	mailbox.Empty()
	before := mailbox.EmptiedAt()
	mailbox.Add("Qg==")
	require.Equal(t, before, mailbox.EmptiedAt())
}

func TestScriptMailbox_ConcurrentDrainsDeliverEachScriptOnce(t *testing.T) {
	var (
		mailbox  = NewScriptMailbox()
		n        = 500
		drainers = 8
		wg       sync.WaitGroup
		mu       sync.Mutex
		seen     = make(map[string]int)
		done     = make(chan struct{})
	)

	for i := 0; i < drainers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				for _, s := range mailbox.Empty().Scripts {
					mu.Lock()
					seen[s]++
					mu.Unlock()
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		mailbox.Add(time.Duration(i).String())
	}
	close(done)
	wg.Wait()

	for _, s := range mailbox.Empty().Scripts {
		seen[s]++
	}

	require.Len(t, seen, n)
	for s, count := range seen {
		require.Equal(t, 1, count, "script %s delivered %d times", s, count)
	}
}
