package cli

import "fmt"

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// notConfirmedHint is returned as a hint when a destructive command ran without --yes.
func notConfirmedHint(cmdLine, prompt string) string {
	return fmt.Sprintf("%s Re-run with --yes: %s --yes", prompt, cmdLine)
}
