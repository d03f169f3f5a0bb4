package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-andiamo/sqldict"
	"github.com/go-andiamo/sqldict/internal/grid"
	"github.com/stretchr/testify/assert"
)

func TestTextDiff(t *testing.T) {
	testCases := []struct {
		before string
		after  string
		expect string
	}{
		{
			before: "SELECT a FROM t",
			after:  "SELECT b FROM t",
			expect: "SELECT [-a-]{+b+} FROM t",
		},
		{
			before: "SELECT * FROM t",
			after:  "SELECT * FROM t LIMIT 10",
			expect: "SELECT * FROM t{+ LIMIT 10+}",
		},
		{
			before: "SELECT 1",
			after:  "SELECT 1",
			expect: "SELECT 1",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.after, func(t *testing.T) {
			assert.Equal(t, tc.expect, textDiff(tc.before, tc.after, grid.Plain()))
		})
	}
}

func TestDescribeChanges(t *testing.T) {
	prev := map[string]string{
		"a (x.json)": "SELECT 1",
		"b (x.json)": "SELECT 2",
		"c (x.json)": "SELECT 3",
	}
	next := map[string]string{
		"a (x.json)": "SELECT 1",
		"c (x.json)": "SELECT 4",
		"d (y.json)": "SELECT 5",
	}
	assert.Equal(t, []string{
		"  - b (x.json)",
		"  ~ c (x.json)",
		"      SELECT [-3-]{+4+}",
		"  + d (y.json)",
	}, describeChanges(prev, next, grid.Plain()))
	assert.Empty(t, describeChanges(prev, prev, grid.Plain()))
}

func TestSnapshot(t *testing.T) {
	stmts := []*sqldict.Statement{
		sqldict.MustNewStatement("sql/x.json", "a", sqldict.Record{StatementText: []string{"SELECT 1"}}),
		sqldict.MustNewStatement("sql/y.json", "a", sqldict.Record{StatementText: []string{"SELECT", "2"}}),
	}
	assert.Equal(t, map[string]string{
		"a (x.json)": "SELECT 1",
		"a (y.json)": "SELECT\n2",
	}, snapshot(stmts))
}

func TestPrintStatements_TruncatesDescription(t *testing.T) {
	stmts := []*sqldict.Statement{
		sqldict.MustNewStatement("x.json", "a", sqldict.Record{
			StatementText: []string{"SELECT 1"},
			Description:   []string{strings.Repeat("word ", 20), "second line"},
		}),
	}
	var buf bytes.Buffer
	printStatements(&buf, stmts, "", grid.Plain())
	out := buf.String()
	assert.Contains(t, out, strings.Repeat("word ", 11)+"wo...")
	assert.NotContains(t, out, "second line")
}
