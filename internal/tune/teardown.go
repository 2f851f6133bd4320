package tune

// TeardownStream destroys the current Stream Abstraction. The sink is
// only halted on the second TeardownStream call this Session has ever
// made: the first call — always made before any Stream Abstraction
// exists, entering a brand-new tune — is permitted to leave the sink
// running, so a following retune or seamless tune sees continuous
// output; every call after that halts it, since by then the session has
// already produced at least one full tune and a further teardown means
// a real stream change.
func (s *Session) TeardownStream(newTune bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownStreamLocked(newTune)
}

func (s *Session) teardownStreamLocked(newTune bool) {
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
	}
	s.teardownCount++
	if s.teardownCount >= 2 && s.sink != nil {
		s.sink.Stop(false)
	}
	s.disc.unblock()
}

// Stop performs full session shutdown: the Stream Abstraction, the
// sink, the pause-position monitor, any pending retune task, and the
// Local TSB store. Idempotent — a second call is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true

	s.teardownStreamLocked(false)
	if s.sink != nil {
		s.sink.Stop(false)
	}
	if s.tsb != nil {
		s.tsb.Flush()
	}
	s.tasks.Cancel(RetuneTaskName)
	s.setState(StateStopped)
	mon := s.monitor
	s.mu.Unlock()

	if mon != nil {
		mon.Stop()
	}
}
