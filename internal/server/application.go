package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"echosphere/internal/chatproto"
	"echosphere/internal/protocol"
)

// CommandHandler implements a single "/command" invoked from chat, the
// Go equivalent of command_handlers.py's CommandHandler/register_command_handler
// pair, reshaped as an interface registry built once by the caller
// instead of a decorator-populated global map.
type CommandHandler interface {
	Handle(app *Application, sender string, args []string)
}

// Application is the roster and broadcast layer (C6), wired to a
// Networking instance's user_joined/user_left/message_received events.
type Application struct {
	log      *logrus.Logger
	commands map[string]CommandHandler

	mu     sync.Mutex
	roster map[string]*chatproto.Connection
}

// NewApplication builds an Application with the given "/command" table.
// commands may be nil or incomplete; unrecognized commands get the
// "Invalid command!" reply.
func NewApplication(log *logrus.Logger, commands map[string]CommandHandler) *Application {
	return &Application{
		log:      log,
		commands: commands,
		roster:   make(map[string]*chatproto.Connection),
	}
}

// Wire subscribes this Application to net's roster events. Call once,
// before net.Serve.
func (a *Application) Wire(net *Networking) {
	net.OnUserJoined.On(a.onUserJoined)
	net.OnUserLeft.On(a.onUserLeft)
	net.OnMessageReceived.On(a.onMessageReceived)
}

func (a *Application) onUserJoined(e UserJoinedEvent) {
	// Broadcast before adding to the roster, so the newly joined user
	// does not receive a system message about their own arrival.
	a.Broadcast("", fmt.Sprintf("User %s has joined!", e.Username))

	a.mu.Lock()
	a.roster[e.Username] = e.Conn
	a.mu.Unlock()
}

func (a *Application) onUserLeft(e UserLeftEvent) {
	a.mu.Lock()
	_, ok := a.roster[e.Username]
	delete(a.roster, e.Username)
	a.mu.Unlock()

	if !ok {
		return
	}

	if e.Err == nil {
		a.Broadcast("", fmt.Sprintf("User %s has left!", e.Username))
	} else {
		a.Broadcast("", fmt.Sprintf("User %s has lost the connection to the server!", e.Username))
	}
}

func (a *Application) onMessageReceived(e MessageReceivedEvent) {
	if !strings.HasPrefix(e.Text, "/") {
		a.Broadcast(e.Sender, e.Text)
		return
	}

	fields := strings.Fields(e.Text)
	if len(fields) == 0 {
		a.Broadcast(e.Sender, e.Text)
		return
	}

	command := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	a.mu.Lock()
	handler, ok := a.commands[command]
	a.mu.Unlock()

	if !ok {
		a.log.WithField("command", command).Debug("invalid command received")
		a.Unicast("", e.Sender, "Invalid command!")
		return
	}
	handler.Handle(a, e.Sender, args)
}

// Broadcast sends text to every connected user except sender. An empty
// sender marks the message as system-originated and is delivered to
// everyone.
func (a *Application) Broadcast(sender, text string) {
	a.mu.Lock()
	recipients := make([]*chatproto.Connection, 0, len(a.roster))
	for username, conn := range a.roster {
		if sender != "" && username == sender {
			continue
		}
		recipients = append(recipients, conn)
	}
	a.mu.Unlock()

	packet := protocol.NewMessagePacket(sender, text)
	for _, conn := range recipients {
		if err := conn.Send(packet); err != nil {
			a.log.WithError(err).Debug("broadcast send failed")
		}
	}
}

// Unicast sends text to a single recipient, if still connected.
func (a *Application) Unicast(sender, recipient, text string) {
	a.mu.Lock()
	conn, ok := a.roster[recipient]
	a.mu.Unlock()
	if !ok {
		return
	}

	if err := conn.Send(protocol.NewMessagePacket(sender, text)); err != nil {
		a.log.WithError(err).Debug("unicast send failed")
	}
}

// RosterUsernames returns the currently logged-in usernames, in no
// particular order.
func (a *Application) RosterUsernames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.roster))
	for username := range a.roster {
		names = append(names, username)
	}
	return names
}
