package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"echosphere/internal/protocol"
	"echosphere/internal/validate"
)

// Application wires a UI to a Networking connection, the Go equivalent
// of client/main.py's ClientApplication: it prompts for configuration,
// forwards submitted chat lines to the server, and renders inbound
// messages and errors back through the UI.
type Application struct {
	log *logrus.Logger
	ui  UI
	net *Networking

	username string
}

// NewApplication wires ui to net's events. Call Run to start the
// session.
func NewApplication(log *logrus.Logger, ui UI, net *Networking) *Application {
	app := &Application{log: log, ui: ui, net: net}

	net.OnMessageReceived.On(app.onMessageReceived)
	net.OnConnectionLost.On(app.onConnectionLost)
	ui.OnMessageSubmit(app.onMessageSubmit)

	return app
}

// Run prompts for configuration, joins the server, and blocks in the
// UI's draw loop until the session ends, either by user action or an
// unexpected disconnect. It always leaves the connection and UI torn
// down before returning.
func (app *Application) Run(ctx context.Context, host string, port uint16, username, serverPassword string) error {
	username, host, port, err := app.configPrompt(host, port, username)
	if err != nil {
		app.stop(err)
		return err
	}

	if err := app.net.Join(ctx, host, port, username, serverPassword); err != nil {
		app.stop(err)
		return err
	}
	app.username = username

	err = app.ui.Draw(ctx)
	app.stop(err)
	return err
}

// configPrompt asks the UI for anything left unset on the CLI,
// re-prompting for the username until it passes validation, matching
// _config_prompt's retry loop.
func (app *Application) configPrompt(host string, port uint16, username string) (string, string, uint16, error) {
	const title = "EchoSphere"

	var err error
	for username == "" || !validate.Username(username) {
		if username != "" {
			app.ui.Alert(title, "Your username is invalid, it needs to be alphanumeric and 3 - 12 characters long.")
		}
		username, err = app.ui.AskFor(title, "Enter your username: ", "")
		if err != nil {
			return "", "", 0, err
		}
	}

	if host == "" {
		host, err = app.ui.AskFor(title, "Enter server host: ", "localhost")
		if err != nil {
			return "", "", 0, err
		}
	}

	return username, host, port, nil
}

func (app *Application) stop(err error) {
	app.log.WithError(err).Info("stopping the application")
	app.net.Disconnect()
	app.ui.Exit(err)
	if err != nil {
		app.ui.Alert("EchoSphere", fmt.Sprintf("Something went wrong: %v", err))
	}
}

func (app *Application) onMessageReceived(msg protocol.MessagePacket) {
	if msg.IsSystem() {
		app.ui.DisplayText(fmt.Sprintf("**SYSTEM**: %s", msg.Text))
	} else {
		app.ui.DisplayText(fmt.Sprintf("<%s>: %s", msg.Username, msg.Text))
	}
}

func (app *Application) onConnectionLost(err error) {
	app.stop(err)
}

func (app *Application) onMessageSubmit(text string) {
	ctx := context.Background()
	if err := app.net.SendMessage(ctx, text); err != nil {
		if errors.Is(err, ErrMessageRejected) {
			app.ui.Alert("EchoSphere", "The message was rejected by the server, sorry.")
			return
		}
		app.stop(err)
		return
	}
	app.ui.DisplayText(fmt.Sprintf("<%s>: %s", app.username, text))
}
