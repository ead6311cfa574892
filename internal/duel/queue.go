package duel

// pushDropOldest queues v on ch without blocking. A full channel loses its
// oldest element to make room. It reports whether v was queued.
func pushDropOldest[T any](ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	default:
	}

	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
		return true
	default:
		return false
	}
}
