// Package repair turns validation issues into minimal, reversible edits over
// a CODEOWNERS document. Only offline issues are repairable: online findings
// may change between validation and repair and need human judgement.
package repair

import (
	"strings"

	"github.com/dotanuki-labs/canopus/internal/codeowners"
	"github.com/dotanuki-labs/canopus/internal/validate"
)

// Annotation is appended to commented-out lines so the rewrite stays
// auditable in diffs.
const Annotation = "(preserved by canopus)"

// Policy selects what happens to a line with repairable issues.
type Policy int

const (
	// PolicyPreserve comments the line out, keeping its content visible.
	PolicyPreserve Policy = iota
	// PolicyRemove deletes the line from the output.
	PolicyRemove
)

// ActionKind is the edit applied to a single line.
type ActionKind int

const (
	// Keep copies the line through unchanged.
	Keep ActionKind = iota
	// CommentOut prefixes the line with '# ' and appends the annotation.
	CommentOut
	// Delete drops the line from the output.
	Delete
)

// Action pairs a line index with its edit.
type Action struct {
	Line   int
	Action ActionKind
}

// Plan is the full edit sequence, one action per document line.
type Plan struct {
	Actions []Action
}

// LinesTouched returns the 1-based indices of lines the plan will modify.
func (p Plan) LinesTouched() []int {
	var touched []int
	for _, action := range p.Actions {
		if action.Action != Keep {
			touched = append(touched, action.Line)
		}
	}
	return touched
}

// NewPlan maps every document line to an action. Lines carrying at least one
// offline issue get the policy's action, exactly once regardless of how many
// issues point at them; all other lines are kept.
func NewPlan(doc *codeowners.Document, issues []validate.Issue, policy Policy) Plan {
	flagged := make(map[int]bool)
	for _, issue := range issues {
		if issue.Offline && issue.Line > 0 {
			flagged[issue.Line] = true
		}
	}

	repairAction := CommentOut
	if policy == PolicyRemove {
		repairAction = Delete
	}

	plan := Plan{Actions: make([]Action, 0, len(doc.Lines))}
	for _, line := range doc.Lines {
		action := Keep
		if flagged[line.Number] {
			action = repairAction
		}
		plan.Actions = append(plan.Actions, Action{Line: line.Number, Action: action})
	}
	return plan
}

// Apply materializes the plan into new file content. Kept lines are copied
// character-for-character, including their original terminators. Applying a
// plan to its own output is a no-op: commented-out lines parse as comments
// and deleted lines are gone, so neither produces offline issues again.
func Apply(doc *codeowners.Document, plan Plan) string {
	actions := make(map[int]ActionKind, len(plan.Actions))
	for _, action := range plan.Actions {
		actions[action.Line] = action.Action
	}

	var b strings.Builder
	for _, line := range doc.Lines {
		switch actions[line.Number] {
		case CommentOut:
			b.WriteString("# ")
			b.WriteString(line.Raw)
			b.WriteString(" ")
			b.WriteString(Annotation)
			b.WriteString(line.EOL)
		case Delete:
			// Line and terminator both dropped.
		default:
			b.WriteString(line.Raw)
			b.WriteString(line.EOL)
		}
	}
	return b.String()
}
