package port

import "context"

// Integrations holds the constructed integrations a command declared in
// its definition, keyed by registry name.
type Integrations map[string]Integration

// CommandDefinition is the registry entry for one command: its name,
// one-line help text, the integration names it depends on, and the
// factory producing an instance with fresh default state.
type CommandDefinition struct {
	Name     string
	Help     string
	Requires []string
	New      func() Command
}

type Command interface {
	// Data returns a pointer to the command's state record. The record is
	// serialized when the conversation continues and restored into a fresh
	// instance when the follow-up message arrives.
	Data() any
	// Process handles one message of the conversation. Returning true keeps
	// the conversation alive for a follow-up message; returning false or an
	// error ends it and clears its stored state.
	Process(ctx context.Context, message string, cc *Context, deps Integrations) (bool, error)
}
