package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-session/internal/models"
)

func TestSanitizeQuestions(t *testing.T) {
	opts := map[string]string{"A": "one", "B": "two", "C": "three", "D": "four"}

	in := []models.QuizQuestion{
		{Question: "  Kept  ", Options: opts, Answer: "A"},
		{Question: "", Options: opts, Answer: "A"},
		{Question: "No options", Answer: "A"},
		{Question: "Unknown key", Options: opts, Answer: "E"},
		{Question: "Lowercase key", Options: opts, Answer: "c"},
		{Question: "Key with text", Options: opts, Answer: "D) four"},
	}

	out, dropped := sanitizeQuestions(in)
	require.Len(t, out, 3)
	assert.Equal(t, 3, dropped)

	assert.Equal(t, "Kept", out[0].Question)
	assert.Equal(t, "C", out[1].Answer)
	assert.Equal(t, "D", out[2].Answer)
}
