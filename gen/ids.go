package gen

import "sync"

// Kind names an entity kind for identity allocation.
type Kind string

const (
	KindContent Kind = "content"
	KindUser    Kind = "user"
	KindQuery   Kind = "query"
)

// UserIDBase is the default starting id for users; contents and queries
// start at 1.
const UserIDBase = 1000

// Allocator hands out monotonically increasing integer ids per entity
// kind. It is the only shared mutable state in the pipeline, so it guards
// itself for callers that parallelize generation.
type Allocator struct {
	mu   sync.Mutex
	next map[Kind]int
}

// NewAllocator returns an allocator with the default bases.
func NewAllocator() *Allocator {
	return &Allocator{
		next: map[Kind]int{
			KindContent: 1,
			KindUser:    UserIDBase,
			KindQuery:   1,
		},
	}
}

// Next returns the next unused id for the kind and advances the counter.
func (a *Allocator) Next(kind Kind) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next[kind]
	a.next[kind] = id + 1
	return id
}

// Peek returns the id Next would hand out, without advancing.
func (a *Allocator) Peek(kind Kind) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next[kind]
}

// SetBase moves the counter for a kind. Used to configure a non-default
// user id offset.
func (a *Allocator) SetBase(kind Kind, base int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next[kind] = base
}

// Resume advances the counter past an already-persisted maximum so a
// cached artifact and fresh generation never collide. Counters only move
// forward.
func (a *Allocator) Resume(kind Kind, maxExisting int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if maxExisting+1 > a.next[kind] {
		a.next[kind] = maxExisting + 1
	}
}
