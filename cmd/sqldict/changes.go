package main

import (
	"sort"
	"strings"

	"github.com/go-andiamo/sqldict"
	"github.com/go-andiamo/sqldict/internal/grid"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// snapshot maps each definition ("name (source)") to its template text.
func snapshot(stmts []*sqldict.Statement) map[string]string {
	result := make(map[string]string, len(stmts))
	for _, stmt := range stmts {
		result[stmt.String()] = stmt.Text()
	}
	return result
}

// describeChanges lists the definitions added, removed or changed between two snapshots,
// changed ones followed by an inline diff of their text.
func describeChanges(prev, next map[string]string, styles grid.Styles) []string {
	keys := make([]string, 0, len(prev)+len(next))
	for k := range prev {
		keys = append(keys, k)
	}
	for k := range next {
		if _, ok := prev[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	lines := make([]string, 0)
	for _, k := range keys {
		before, wasDefined := prev[k]
		after, isDefined := next[k]
		switch {
		case !wasDefined:
			lines = append(lines, styles.Green.Render("  + "+k))
		case !isDefined:
			lines = append(lines, styles.Red.Render("  - "+k))
		case before != after:
			lines = append(lines, "  ~ "+k)
			for _, line := range strings.Split(textDiff(before, after, styles), "\n") {
				lines = append(lines, "      "+line)
			}
		}
	}
	return lines
}

// textDiff marks deleted text as [-text-] and inserted text as {+text+}.
func textDiff(before, after string, styles grid.Styles) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sb.WriteString(grid.Paint(styles.Green, "{+"+d.Text+"+}"))
		case diffmatchpatch.DiffDelete:
			sb.WriteString(grid.Paint(styles.Red, "[-"+d.Text+"-]"))
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}
