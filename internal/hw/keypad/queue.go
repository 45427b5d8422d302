package keypad

import "github.com/cjeanneret/mattoscam/internal/debug"

// Queue is a bounded buffer of keys coming from outside the matrix
// (the web virtual keypad). Push and Poll never block.
type Queue struct {
	ch chan Key
}

// NewQueue creates a queue holding up to size pending keys.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan Key, size)}
}

// Push enqueues k. It reports false when the queue is full or k is KeyNone.
func (q *Queue) Push(k Key) bool {
	if k == KeyNone {
		return false
	}
	select {
	case q.ch <- k:
		return true
	default:
		return false
	}
}

// Poll returns the oldest pending key, if any.
func (q *Queue) Poll() (Key, bool, error) {
	select {
	case k := <-q.ch:
		debug.Key("remote", k.String())
		return k, true, nil
	default:
		return KeyNone, false, nil
	}
}

// Chain polls sources in order and returns the first key found.
type Chain []Source

// Poll implements Source.
func (c Chain) Poll() (Key, bool, error) {
	for _, s := range c {
		k, ok, err := s.Poll()
		if err != nil || ok {
			return k, ok, err
		}
	}
	return KeyNone, false, nil
}
