package state

// reduceUnreads keeps the per-room unread counters. A missing room counts
// as zero; counters never go negative.
func reduceUnreads(s map[string]int, e Event) map[string]int {
	switch e := e.(type) {
	case MessageReceived:
		next := cloneCounts(s)
		next[e.Message.Room]++
		return next
	case UnreadsReset:
		next := cloneCounts(s)
		next[e.Room] = 0
		return next
	default:
		return s
	}
}
