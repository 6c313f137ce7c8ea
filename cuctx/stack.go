package cuctx

import (
	"sync"

	"golang.org/x/sys/unix"
)

// contextStack mirrors one OS thread's native context stack. All operations
// are O(1) and lock-free: a stack is only ever touched by its own thread.
type contextStack struct {
	stack []Context
}

func (s *contextStack) push(ctx Context) {
	s.stack = append(s.stack, ctx)
}

// pop returns nil if the stack is empty.
func (s *contextStack) pop() Context {
	if len(s.stack) == 0 {
		return nil
	}
	ctx := s.stack[len(s.stack)-1]
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]
	return ctx
}

// current peeks at the top of the stack, nil if empty.
func (s *contextStack) current() Context {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *contextStack) empty() bool {
	return len(s.stack) == 0
}

// threadStacks holds one contextStack per OS thread, created lazily on a
// thread's first access. The mutex only guards the map itself.
type threadStacks struct {
	mu     sync.Mutex
	stacks map[int]*contextStack
}

func newThreadStacks() *threadStacks {
	return &threadStacks{stacks: make(map[int]*contextStack)}
}

// get returns the calling OS thread's stack mirror. The caller must be
// pinned to its OS thread (runtime.LockOSThread) for the returned stack to
// stay its own.
func (t *threadStacks) get() *contextStack {
	tid := unix.Gettid()
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stacks[tid]
	if !ok {
		s = &contextStack{}
		t.stacks[tid] = s
	}
	return s
}

// peek returns the calling thread's mirror if one exists, without creating
// one. Read-only paths use it so threads that only ever ask "what is
// current" never add map entries.
func (t *threadStacks) peek() *contextStack {
	tid := unix.Gettid()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stacks[tid]
}

// pruneEmpty drops the calling thread's mirror if it is empty. Linux reuses
// TIDs, so an entry left behind by an exited thread would otherwise be
// inherited by an unrelated future thread; pruning on every emptying
// operation keeps only threads with live stacks in the map.
func (t *threadStacks) pruneEmpty() {
	tid := unix.Gettid()
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.stacks[tid]; ok && s.empty() {
		delete(t.stacks, tid)
	}
}
