package server

import (
	"bufio"
	_ "embed"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// ListCommand implements "/list": it replies to the sender with the
// currently connected usernames, mirroring ListCommandHandler.
type ListCommand struct{}

func (ListCommand) Handle(app *Application, sender string, args []string) {
	names := app.RosterUsernames()
	text := fmt.Sprintf("Connected users: %s", strings.Join(names, ", "))
	app.Unicast("", sender, text)
}

//go:embed commands/pong_messages.txt
var pongCorpus string

// PingCommand implements "/ping": it replies to the sender with one
// line drawn uniformly at random from an embedded corpus, using
// reservoir sampling over a single pass so the corpus never needs to be
// held in memory as a slice.
type PingCommand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPingCommand builds a PingCommand seeded from the current time.
func NewPingCommand() *PingCommand {
	return &PingCommand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (p *PingCommand) Handle(app *Application, sender string, args []string) {
	app.Unicast("", sender, p.pickLine())
}

func (p *PingCommand) pickLine() string {
	scanner := bufio.NewScanner(strings.NewReader(pongCorpus))

	p.mu.Lock()
	defer p.mu.Unlock()

	var chosen string
	processed := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		processed++
		if p.rng.Intn(processed) == 0 {
			chosen = line
		}
	}
	if chosen == "" {
		return "pong!"
	}
	return chosen
}
