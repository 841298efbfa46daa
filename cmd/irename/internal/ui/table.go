package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/germanamz/irename/pkg/renameclient"
)

// Labels returns one picker label per suggestion, in order. Names are padded
// to a common display width so the probabilities line up even for wide
// characters.
func Labels(s []renameclient.Suggestion) []string {
	width := 0
	for _, sg := range s {
		width = max(width, runewidth.StringWidth(sg.Name))
	}

	out := make([]string, len(s))
	for i, sg := range s {
		out[i] = fmt.Sprintf("%s  Probability: %.2f", runewidth.FillRight(sg.Name, width), sg.Probability)
	}

	return out
}

// WriteTable prints suggestions as a ranked plain-text table.
func WriteTable(w io.Writer, s []renameclient.Suggestion) error {
	if len(s) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("no suggestions"))
		return err
	}

	var b strings.Builder

	for i, label := range Labels(s) {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, label)
	}

	_, err := io.WriteString(w, b.String())

	return err
}
