package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/octafabbri/hey/internal/dispatch"
	"github.com/octafabbri/hey/pkg/logging"
)

const extractionTemperature = float32(0.3)

// Extractor turns a conversation transcript into structured service
// request fields with a single JSON-constrained model call.
type Extractor struct {
	llm    LLMClient
	model  string
	logger *logging.Logger
}

func NewExtractor(llm LLMClient, model string, logger *logging.Logger) *Extractor {
	if llm == nil {
		panic("conversation: extractor llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: llm, model: model, logger: logger}
}

// Extract analyzes the full transcript alongside the current record
// and returns whatever fields the model could pull out. A model call
// failure is returned as an error; a reply that is not valid JSON is
// not an error, it yields an empty partial so the turn degrades to
// "nothing new learned" instead of killing the conversation.
func (e *Extractor) Extract(ctx context.Context, transcript string, current *dispatch.ServiceRequest) (*dispatch.Partial, error) {
	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("conversation: marshal current request: %w", err)
	}

	prompt := buildExtractionPrompt(transcript, string(currentJSON))
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.model,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		Temperature: extractionTemperature,
		ForceJSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: extraction call: %w", err)
	}

	raw := extractJSONObject(resp.Text)
	if raw == "" {
		e.logger.Warn("extraction reply contained no JSON object", "reply_len", len(resp.Text))
		return &dispatch.Partial{}, nil
	}

	var partial dispatch.Partial
	if err := json.Unmarshal([]byte(raw), &partial); err != nil {
		e.logger.Warn("extraction reply failed to parse", "error", err.Error())
		return &dispatch.Partial{}, nil
	}
	return &partial, nil
}

func buildExtractionPrompt(transcript, currentJSON string) string {
	var b strings.Builder
	b.WriteString("You are extracting data from a roadside assistance conversation. Extract ALL information mentioned, even if implicit.\n\n")
	b.WriteString("CONVERSATION:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nCURRENT DATA (may have empty fields):\n")
	b.WriteString(currentJSON)
	b.WriteString(`

EXTRACTION RULES (ALL FIELDS BELOW ARE REQUIRED):
1. Extract ANY information mentioned. Be thorough, these fields are required for dispatch.
2. Infer service_type ONLY from SPECIFIC problem descriptions:
   - "flat tire", "tire blew", "blowout", "tire change", "need a tire" means TIRE
   - "engine problem", "transmission", "overheating", "brakes", "won't start", "electrical" means MECHANICAL
   - DO NOT infer service_type from vague terms like "broke down" alone. Leave it empty and let the dispatcher ask.
3. Infer urgency CAREFULLY based on MULTIPLE context factors:
   ERS (Emergency Road Service) ONLY if the location is unsafe (highway shoulder, blocking a lane), the vehicle is immobile in a vulnerable spot, or the user explicitly says "emergency", "urgent", "ASAP", "right now".
   DELAYED if the user explicitly says "tomorrow", "tomorrow morning", "next day".
   SCHEDULED if the user mentions scheduling, an appointment, or a future date, or the location is safe and the issue is non-urgent.
   DEFAULT: if urgency is unclear, DO NOT GUESS, leave it as an empty string.
4. Extract location from ANY mention of highway numbers, mile markers, city names, street names, rest stops, exits.
5. Extract phone from ANY mention of a phone or contact number.
6. Infer vehicle_type: "truck", "semi", "tractor" means TRUCK; "trailer" means TRAILER.
7. For TIRE requests collect requested_service (REPLACE or REPAIR), requested_tire (size or brand), number_of_tires, tire_position.
8. For MECHANICAL requests collect requested_service and a description summarizing everything said about the problem.

Return JSON with ALL extracted fields. Include fields even if partially complete:
{
  "driver_name": "string",
  "contact_phone": "string",
  "fleet_name": "string",
  "service_type": "TIRE" | "MECHANICAL",
  "urgency": "ERS" | "DELAYED" | "SCHEDULED",
  "location": {
    "current_location": "string",
    "highway_or_road": "string",
    "nearest_mile_marker": "string",
    "is_safe_location": boolean
  },
  "vehicle": {
    "vehicle_type": "TRUCK" | "TRAILER",
    "make": "string",
    "model": "string",
    "year": "string",
    "unit_number": "string"
  },
  "tire_info": {
    "requested_service": "REPLACE" | "REPAIR",
    "requested_tire": "string",
    "number_of_tires": number,
    "tire_position": "string"
  },
  "mechanical_info": {
    "requested_service": "string",
    "description": "string"
  },
  "scheduled_appointment": {
    "scheduled_date": "string, e.g. 'Next Monday', 'February 15th'",
    "scheduled_time": "string, e.g. 'Morning', '2:00 PM'"
  }
}

IMPORTANT: Only include "tire_info" for TIRE requests, "mechanical_info" for MECHANICAL requests, and "scheduled_appointment" when urgency is "SCHEDULED". Otherwise omit them.

Return ONLY the JSON object, no other text.`)
	return b.String()
}

// ExtractName pulls a person's name out of a short utterance like
// "this is Dale" or "people call me Smokey". Returns "" when the
// utterance carries no name or the reply fails to parse.
func (e *Extractor) ExtractName(ctx context.Context, utterance string) (string, error) {
	prompt := "Extract the person's name from this message if present: \"" + utterance + "\"\n\n" +
		"Return JSON only: {\"name\": \"extracted name or empty string\"}\n" +
		"Rules: return just the first name or preferred name, capitalized. If no name is present return an empty string."

	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.model,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		Temperature: extractionTemperature,
		ForceJSON:   true,
	})
	if err != nil {
		return "", fmt.Errorf("conversation: name extraction call: %w", err)
	}

	raw := extractJSONObject(resp.Text)
	if raw == "" {
		return "", nil
	}
	var decoded struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return "", nil
	}
	return strings.TrimSpace(decoded.Name), nil
}
