package access

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuspiciousValue(t *testing.T) {
	suspicious := []string{
		"1' OR '1'='1",
		"u1; DROP TABLE grades",
		"name--",
		"/* comment */",
		"a UNION SELECT password",
		"*",
		"%",
		strings.Repeat("a", maxInputLength+1),
		"null\x00byte",
	}
	for _, v := range suspicious {
		assert.True(t, SuspiciousValue(v), "expected suspicious: %q", v)
	}

	clean := []string{
		"u1",
		"class-7b",
		"550e8400-e29b-41d4-a716-446655440000",
		"math_homework_week3",
	}
	for _, v := range clean {
		assert.False(t, SuspiciousValue(v), "expected clean: %q", v)
	}

	// Identifiers are opaque ids, not display names; apostrophes are
	// flagged even though they appear in real names.
	assert.True(t, SuspiciousValue("O'Brien"))
}

func TestInspectFilters(t *testing.T) {
	assert.Empty(t, InspectFilters(map[string]string{"class_id": "class-7b", "status": "graded"}))

	offending := InspectFilters(map[string]string{"class_id": "x' OR 1=1 --"})
	assert.Len(t, offending, 1)

	offending = InspectFilters(map[string]string{"id; DROP": "v"})
	assert.Len(t, offending, 1)
}

func TestInspectValuesSkipsEmpty(t *testing.T) {
	assert.Empty(t, InspectValues("", "", "u1"))
}
