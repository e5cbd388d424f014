package grocery

import "errors"

// ValidationError is user input the engine refused. Msg is shown to the user as-is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

const (
	MsgNameRequired  = "Please enter an item name"
	MsgInvalidImport = "Invalid file format"
	MsgInvalidFilter = "Unknown filter (use all, active or completed)"
)

// Confirmation prompts shown by the shells before destructive operations.
const (
	ConfirmDelete         = "Are you sure you want to delete this item?"
	ConfirmClearCompleted = "Are you sure you want to clear all completed items?"
	ConfirmClearAll       = "Are you sure you want to clear all data? This cannot be undone."
)

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
