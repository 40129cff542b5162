package conversation

import "strings"

// Keyword tables for interpreting a driver's answer to a yes/no read
// back. Matching is case-insensitive substring, same as intent routing.
var (
	affirmKeywords = []string{
		"yes", "yeah", "yep", "yup", "correct", "right", "good",
		"looks good", "confirm", "that's right", "perfect", "go ahead",
		"send it", "submit", "ok", "okay", "sure",
	}
	editKeywords = []string{
		"no", "change", "edit", "wrong", "fix", "update", "actually",
		"wait", "incorrect",
	}
	declineKeywords = []string{
		"no", "nah", "nope", "not now", "skip", "no thanks",
	}
)

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isAffirmation reports a plain yes. "right" being in both tables
// means "that's not right" affirms AND edits; the caller must give
// edit precedence.
func isAffirmation(text string) bool {
	return containsAny(text, affirmKeywords)
}

func wantsEdit(text string) bool {
	return containsAny(text, editKeywords)
}

func isDecline(text string) bool {
	return containsAny(text, declineKeywords)
}
