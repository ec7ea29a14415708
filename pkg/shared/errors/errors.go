package errors

// Exit codes returned by the CLI.
const (
	ExitOK     = 0
	ExitFailed = 1
)

// CommandError is returned by a command that has already reported its outcome.
// Result holds whatever the command produced before failing and may be nil.
type CommandError struct {
	ExitCode    int
	CommonError string
	Result      interface{}
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError creates a new CommandError with no result attached.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
	}
}

// NewCommandErrorWithResult creates a new CommandError carrying the command result.
func NewCommandErrorWithResult(result interface{}, err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Result:      result,
	}
}
