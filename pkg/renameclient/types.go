package renameclient

import (
	"errors"
	"fmt"
)

// AutomaticTokens asks the server to choose the sub-token count itself.
const AutomaticTokens = -1

// RenameRequest is the body of POST /rename/. Line and Char are 1-based and
// point at the first character of the identifier.
type RenameRequest struct {
	Code      string `json:"code"`
	Line      int    `json:"line"`
	Char      int    `json:"char"`
	NumTokens int    `json:"num_tokens"`
}

// RenameResponse is the server's reply. The two slices are parallel.
type RenameResponse struct {
	Suggestions   []string  `json:"suggestions"`
	Probabilities []float64 `json:"probabilities"`
}

// Suggestion is a candidate name paired with its score.
type Suggestion struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// ErrMismatchedPairs is returned when suggestions and probabilities differ
// in length.
var ErrMismatchedPairs = errors.New("renameclient: suggestions and probabilities differ in length")

// Pairs zips suggestions with probabilities by index.
func (r RenameResponse) Pairs() ([]Suggestion, error) {
	if len(r.Suggestions) != len(r.Probabilities) {
		return nil, fmt.Errorf("%w (%d vs %d)", ErrMismatchedPairs, len(r.Suggestions), len(r.Probabilities))
	}

	out := make([]Suggestion, len(r.Suggestions))
	for i, name := range r.Suggestions {
		out[i] = Suggestion{Name: name, Probability: r.Probabilities[i]}
	}

	return out, nil
}

// PingResponse is the body of GET /.
type PingResponse struct {
	Message string `json:"message"`
}
