package renamer

import (
	"context"
	"errors"
	"fmt"

	"github.com/germanamz/irename/pkg/renameclient"
)

// UserMessage maps a request failure to the text shown to the user.
func UserMessage(err error) string {
	var (
		se *renameclient.StatusError
		nr *renameclient.NoResponseError
		re *renameclient.RequestError
	)

	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("Server error: %d - %s", se.StatusCode, se.Body)
	case errors.As(err, &nr):
		return "No response received from server."
	case errors.As(err, &re):
		return "Error setting up the request."
	default:
		return "An unexpected error occurred."
	}
}

// FirstPicker always chooses the highest-ranked suggestion. It backs
// non-interactive callers.
type FirstPicker struct{}

// Pick implements [Picker].
func (FirstPicker) Pick(_ context.Context, _ string, s []renameclient.Suggestion) (renameclient.Suggestion, bool, error) {
	if len(s) == 0 {
		return renameclient.Suggestion{}, false, nil
	}

	return s[0], true, nil
}

type nopNotifier struct{}

func (nopNotifier) Info(string)  {}
func (nopNotifier) Error(string) {}
