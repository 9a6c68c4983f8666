package liveness

// Monitor counts unanswered heartbeat probes per connection. It is owned by
// the engine loop and not safe for concurrent use.
type Monitor struct {
	threshold int
	misses    map[string]int
}

func NewMonitor(threshold int) *Monitor {
	if threshold < 1 {
		threshold = 1
	}
	return &Monitor{
		threshold: threshold,
		misses:    make(map[string]int),
	}
}

func (m *Monitor) Track(connID string) {
	m.misses[connID] = 0
}

// Ack records a heartbeat answer. Unknown connections are ignored.
func (m *Monitor) Ack(connID string) {
	if _, ok := m.misses[connID]; ok {
		m.misses[connID] = 0
	}
}

func (m *Monitor) Forget(connID string) {
	delete(m.misses, connID)
}

func (m *Monitor) Len() int {
	return len(m.misses)
}

func (m *Monitor) Misses(connID string) (int, bool) {
	n, ok := m.misses[connID]
	return n, ok
}

// Sweep runs one check interval. Connections at the threshold are returned in
// drop and forgotten; every other connection gets one more miss and a probe.
func (m *Monitor) Sweep() (probe, drop []string) {
	for id, n := range m.misses {
		if n >= m.threshold {
			drop = append(drop, id)
			delete(m.misses, id)
			continue
		}
		m.misses[id] = n + 1
		probe = append(probe, id)
	}
	return probe, drop
}
