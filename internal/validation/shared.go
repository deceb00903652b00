package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Error collects the field-level problems of one request body. Fields is keyed
// by JSON field name, with items[i]. prefixing the fields of list entries.
// Handlers return Error() as the detail of a 400 response.
type Error struct {
	Fields map[string]string
}

// Error lists the problems ordered by field name so the same request always
// yields the same message.
func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, len(fields))
	for i, field := range fields {
		msgs[i] = fmt.Sprintf("%s: %s", field, e.Fields[field])
	}
	return strings.Join(msgs, "; ")
}
