package core

import "errors"

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("command already registered")
)

// CommandHandler handles one received frame. args excludes the command byte
// and is only valid for the duration of the call.
type CommandHandler func(args []byte) error

// Command represents one host command
type Command struct {
	ID      byte
	Name    string
	Handler CommandHandler
}

// Commands maps command bytes to their handlers. It is populated at start-up
// and read-only afterwards, so lookups need no locking.
type Commands struct {
	table map[byte]*Command
}

// NewCommands creates an empty command table
func NewCommands() *Commands {
	return &Commands{table: make(map[byte]*Command)}
}

// Register adds a handler for id
func (c *Commands) Register(id byte, name string, handler CommandHandler) error {
	if _, exists := c.table[id]; exists {
		return ErrDuplicateCommand
	}
	c.table[id] = &Command{ID: id, Name: name, Handler: handler}
	return nil
}

// Lookup retrieves a command by ID
func (c *Commands) Lookup(id byte) (*Command, bool) {
	cmd, ok := c.table[id]
	return cmd, ok
}

// Count returns the number of registered commands
func (c *Commands) Count() int {
	return len(c.table)
}

// Dispatch calls the handler registered for id
func (c *Commands) Dispatch(id byte, args []byte) error {
	cmd, ok := c.table[id]
	if !ok {
		return ErrUnknownCommand
	}
	return cmd.Handler(args)
}
