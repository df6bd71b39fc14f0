package domain

import "fmt"

// UserError carries a message meant for the person who sent the command.
// The orchestrator renders it verbatim as the terminal response instead of
// the generic failure block.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func Userf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}
