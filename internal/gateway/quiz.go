package gateway

import (
	"strings"

	"learning-session/internal/models"
)

// sanitizeQuestions drops generated questions that cannot be answered or
// graded: no text, no options, or an answer key that is not an option.
func sanitizeQuestions(in []models.QuizQuestion) ([]models.QuizQuestion, int) {
	out := make([]models.QuizQuestion, 0, len(in))
	for _, q := range in {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" || len(q.Options) == 0 {
			continue
		}

		key, ok := matchOptionKey(q.Options, q.Answer)
		if !ok {
			continue
		}
		q.Answer = key
		out = append(out, q)
	}
	return out, len(in) - len(out)
}

// matchOptionKey resolves answers such as "b", " B ", or "B) text" to the
// option key they refer to.
func matchOptionKey(options map[string]string, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if _, ok := options[answer]; ok {
		return answer, true
	}

	upper := strings.ToUpper(answer)
	if _, ok := options[upper]; ok {
		return upper, true
	}

	if head, _, found := strings.Cut(upper, ")"); found {
		head = strings.TrimSpace(head)
		if _, ok := options[head]; ok {
			return head, true
		}
	}
	return "", false
}
