package director

import (
	"log"
	"time"

	"github.com/ivlev/animcam/internal/engine"
)

// Player replays a script into an engine inbox as run time passes.
type Player struct {
	script *Script
	next   int
	log    *log.Logger
}

var _ engine.Producer = (*Player)(nil)

// NewPlayer prepares script for replay. The script must be valid.
func NewPlayer(script *Script, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	return &Player{script: script, log: logger}
}

// Produce posts every event that is due at elapsed.
func (p *Player) Produce(elapsed time.Duration, inbox *engine.Inbox) {
	for p.next < len(p.script.Events) {
		e := p.script.Events[p.next]
		if seconds(e.At) > elapsed {
			return
		}
		p.next++

		req, err := e.Request()
		if err != nil {
			p.log.Printf("[!] Skipping script event %d: %v", p.next-1, err)
			continue
		}
		p.log.Printf("[>] %.2fs %s", elapsed.Seconds(), e.Kind)
		inbox.Post(req)
	}
}

// Script returns the script being replayed.
func (p *Player) Script() *Script { return p.script }

// Done reports whether every event was posted.
func (p *Player) Done() bool {
	return p.next >= len(p.script.Events)
}

// Remaining returns the number of events not yet posted.
func (p *Player) Remaining() int {
	return len(p.script.Events) - p.next
}
