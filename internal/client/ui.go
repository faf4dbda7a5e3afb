package client

import "context"

// UI is the terminal collaborator the client application drives: it
// prompts for configuration, displays incoming chat, and surfaces
// errors, mirroring client/ClientUI.py's five-method interface.
type UI interface {
	// Alert shows a one-off message to the user, titled title.
	Alert(title, text string)

	// AskFor prompts the user with prompt (titled title) and returns
	// their answer, or def if they submit nothing.
	AskFor(title, prompt, def string) (string, error)

	// DisplayText appends a line of chat output.
	DisplayText(text string)

	// Draw runs the UI's main loop until ctx is cancelled or the user
	// quits.
	Draw(ctx context.Context) error

	// Exit tears down the UI. err is non-nil if the session ended
	// because of an error.
	Exit(err error)

	// OnMessageSubmit registers the callback invoked every time the
	// user submits a chat line to send.
	OnMessageSubmit(func(text string))
}
