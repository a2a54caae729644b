package useragent

import (
	"math/rand"
	"sync"
	"time"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
}

// Rotator hands out user agent strings for browser sessions and image fetches.
type Rotator struct {
	userAgents []string
	mu         sync.Mutex
	rnd        *rand.Rand
}

// NewRotator returns a Rotator over agents, or the built-in desktop list when empty.
func NewRotator(agents ...string) *Rotator {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &Rotator{
		userAgents: agents,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns a random user agent.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userAgents[r.rnd.Intn(len(r.userAgents))]
}
