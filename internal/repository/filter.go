package repository

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates positional predicates for listing queries.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// add appends a predicate. Every %[1]d in cond refers to the placeholder of arg.
func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the suffix plus the full argument list.
func (w *whereBuilder) page(limit, offset int) (string, []interface{}) {
	args := append(append([]interface{}{}, w.args...), limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func likePattern(search string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(search))
	return "%" + escaped + "%"
}
