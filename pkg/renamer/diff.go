package renamer

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/germanamz/irename/pkg/document"
)

// Diff returns a unified diff between before and after labeled with path.
// Returns an empty string when the contents are equal.
func Diff(path string, before, after *document.Document) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.Text()),
		B:        difflib.SplitLines(after.Text()),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	}

	result, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("(diff error: %v)", err)
	}

	return result
}
