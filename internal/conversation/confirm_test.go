package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAffirmation(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"yes", true},
		{"Yeah, looks good to me", true},
		{"that's right", true},
		{"go ahead and send it", true},
		{"OKAY", true},
		{"hmm let me think", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isAffirmation(tc.text), "text=%q", tc.text)
	}
}

func TestWantsEdit(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"no, the phone is wrong", true},
		{"actually, change the fleet name", true},
		{"wait, that's not my unit", true},
		{"yes perfect", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, wantsEdit(tc.text), "text=%q", tc.text)
	}
}

// "no wait, that's right except the phone" both affirms and edits;
// the orchestrator gives edits precedence, so both must report true.
func TestAffirmationWithEditCue(t *testing.T) {
	text := "no wait, that's right except the phone"
	assert.True(t, isAffirmation(text))
	assert.True(t, wantsEdit(text))
}

func TestIsDecline(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"no thanks", true},
		{"nah, skip it", true},
		{"not now", true},
		{"yes please", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isDecline(tc.text), "text=%q", tc.text)
	}
}
