package mailbox

import (
	"sync"
	"time"

	"github.com/mstreet3/script-relayer/domain"
	"github.com/mstreet3/script-relayer/queues/fifoqueue"
)

// ScriptMailbox buffers submitted scripts until a consumer drains them.
// All three operations hold mu for their full duration, so a script is
// handed to exactly one drain.
type ScriptMailbox struct {
	mu          sync.Mutex
	queue       Queue[string]
	timestamper TimeStamper
	emptiedAt   time.Time
	emptied     bool
}

var _ Mailbox = (*ScriptMailbox)(nil)

func NewScriptMailbox() *ScriptMailbox {
	return NewScriptMailboxWith(fifoqueue.NewFIFOQueue[string](), NewTimeStamper())
}

func NewScriptMailboxWith(q Queue[string], ts TimeStamper) *ScriptMailbox {
	return &ScriptMailbox{
		mu:          sync.Mutex{},
		queue:       q,
		timestamper: ts,
	}
}

// Add stores the script verbatim; it is never decoded.
func (m *ScriptMailbox) Add(script string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue.PushBack(script)
}

// Empty drains every pending script and records the drain time.
func (m *ScriptMailbox) Empty() domain.DrainResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	scripts := m.queue.Empty()
	if scripts == nil {
		scripts = []string{}
	}

	// millisecond resolution keeps the formatted time and epochMs in step
	now := m.timestamper.Timestamp().UTC().Truncate(time.Millisecond)
	if m.emptied && now.Before(m.emptiedAt) {
		now = m.emptiedAt
	}
	m.emptiedAt = now
	m.emptied = true

	return domain.DrainResult{
		Scripts:   scripts,
		DrainedAt: now,
	}
}

func (m *ScriptMailbox) EmptiedAt() domain.LastDrain {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.LastDrain{
		DrainedAt: m.emptiedAt,
		Drained:   m.emptied,
	}
}

func (m *ScriptMailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.queue.Len()
}
