package mypage

import "sync"

// Gate admits one user-triggered flow per key at a time. The web frontend
// keys it by browser session so a double submit cannot run two flows.
type Gate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewGate creates an empty Gate.
func NewGate() *Gate {
	return &Gate{held: make(map[string]struct{})}
}

// TryAcquire claims key. It returns false if a flow already holds it;
// otherwise the returned release must be called when the flow ends.
func (g *Gate) TryAcquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, false
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true
}
