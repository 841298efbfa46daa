package renamer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/germanamz/irename/pkg/document"
	"github.com/germanamz/irename/pkg/renameclient"
)

// HoverTitle heads the hover tooltip.
const HoverTitle = "**ReNameIt Suggestions:**"

// Hover returns markdown suggestions for the identifier at pos. It returns
// false, and never notifies, when automatic renaming is off, nothing
// identifier-like is under the cursor, the request fails or the server has
// no suggestions. Identical concurrent hovers share one request.
func (r *Renamer) Hover(ctx context.Context, doc *document.Document, pos document.Position) (string, bool) {
	if !r.settings.Get().AutomaticRenaming {
		return "", false
	}

	word, ok := doc.WordRangeAt(pos)
	if !ok {
		return "", false
	}

	req := renameclient.RenameRequest{
		Code:      doc.Text(),
		Line:      word.Start.Line + 1,
		Char:      word.Start.Char + 1,
		NumTokens: renameclient.AutomaticTokens,
	}

	// The shared request must outlive any single caller, so it runs on a
	// detached context and each caller stops waiting when its own ctx ends.
	ch := r.hoverFlight.DoChan(hoverKey(req), func() (any, error) {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), renameclient.DefaultTimeout)
		defer cancel()

		return r.client.Suggest(reqCtx, req)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", false
	}

	if res.Err != nil {
		r.log.DebugContext(ctx, "hover suggestions unavailable", "error", res.Err)
		return "", false
	}

	suggestions, _ := res.Val.([]renameclient.Suggestion)
	if len(suggestions) == 0 {
		return "", false
	}

	r.log.DebugContext(ctx, "hover suggestions", "count", len(suggestions), "shared", res.Shared)

	return FormatHover(suggestions), true
}

// FormatHover renders suggestions as the hover markdown list. Each name is
// printed next to the probability at the same index.
func FormatHover(suggestions []renameclient.Suggestion) string {
	var b strings.Builder

	b.WriteString(HoverTitle)
	b.WriteString("\n\n")

	for _, s := range suggestions {
		fmt.Fprintf(&b, "- %s (Probability: %.2f)\n", s.Name, s.Probability)
	}

	return b.String()
}

// hoverKey identifies a hover request for coalescing.
func hoverKey(req renameclient.RenameRequest) string {
	sum := sha256.Sum256([]byte(req.Code))
	return fmt.Sprintf("%s:%d:%d", hex.EncodeToString(sum[:]), req.Line, req.Char)
}
