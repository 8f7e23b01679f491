package qparam

// fanout recomputes the snapshot of every record watching a changed key and
// queues it for the next Flush. Records are visited in insertion order.
func (s *Store) fanout(changed []string) {
	for _, rec := range s.subs.order {
		keys := rec.intersect(changed)
		if len(keys) == 0 {
			continue
		}
		rec.snapshot = computeState(keys, s.parsed, s.serialized, &rec.snapshot)
		if !s.queued(rec) {
			s.queue = append(s.queue, rec)
		}
	}
	s.stamp(changed)
}

func (s *Store) queued(rec *record) bool {
	for _, q := range s.queue {
		if q == rec {
			return true
		}
	}
	return false
}

// Flush invokes the observers of every queued record, in queue order and
// registration order within a record, then resets the cycle metadata.
// Observers may call Set; a Flush from inside an observer is deferred to the
// running one, which keeps draining until the queue is empty.
func (s *Store) Flush() {
	if s.flushing {
		return
	}
	s.flushing = true
	start := s.now()
	notified := 0

	for len(s.queue) > 0 {
		batch := s.queue
		s.queue = nil
		for _, rec := range batch {
			for _, fn := range rec.observerFuncs() {
				fn()
				notified++
			}
		}
	}

	s.flushing = false
	s.message = nil
	s.changedKeys = nil
	s.pending = false

	s.probe.PassCompleted(Pass{
		Op:       OpFlush,
		Started:  start,
		Duration: s.now().Sub(start),
		Errors:   len(s.errors),
		Notified: notified,
	})
}
