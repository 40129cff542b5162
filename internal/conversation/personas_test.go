package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/octafabbri/hey/internal/intent"
)

func TestBuildPersonaSubstitutesName(t *testing.T) {
	persona := BuildPersona(intent.TaskWeather, "Dale", "")
	assert.Contains(t, persona, "Dale")
	assert.NotContains(t, persona, "{{USERNAME}}")
}

func TestBuildPersonaDefaultsToDriver(t *testing.T) {
	persona := BuildPersona(intent.TaskServiceRequest, "", "")
	assert.Contains(t, persona, "Driver")
	assert.NotContains(t, persona, "{{USERNAME}}")
}

func TestBuildPersonaAppendsLanguage(t *testing.T) {
	persona := BuildPersona(intent.TaskGeneralAssistance, "Dale", "Spanish")
	assert.Contains(t, persona, "Spanish")
}

func TestBuildPersonaUnknownTaskFallsBack(t *testing.T) {
	persona := BuildPersona(intent.Task("SOMETHING_NEW"), "Dale", "")
	general := BuildPersona(intent.TaskGeneralAssistance, "Dale", "")
	assert.Equal(t, general, persona)
}

func TestServiceRequestPersonaCoversChecklist(t *testing.T) {
	persona := BuildPersona(intent.TaskServiceRequest, "Dale", "")
	for _, fragment := range []string{"TIRE", "MECHANICAL", "TRUCK or TRAILER", "Phone number"} {
		assert.True(t, strings.Contains(persona, fragment), "persona missing %q", fragment)
	}
}

func TestPersonaTemperature(t *testing.T) {
	assert.InDelta(t, 0.3, float64(PersonaTemperature(intent.TaskServiceRequest)), 0.001)
	assert.InDelta(t, 0.7, float64(PersonaTemperature(intent.TaskWeather)), 0.001)
}
