package mailbox

import "github.com/mstreet3/script-relayer/domain"

type Mailbox interface {
	Add(string)
	Empty() domain.DrainResult
	EmptiedAt() domain.LastDrain
}

type Emptier[T any] interface {
	Empty() []T
}

type Queue[T any] interface {
	Emptier[T]
	Len() int
	PushBack(T) // place item at the tail of the queue
}
