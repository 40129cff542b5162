// Package intent maps a driver utterance to the assistant task that
// should handle it. Matching is plain keyword lookup so routing stays
// deterministic and free of model calls.
package intent

import "strings"

// Task identifies one assistant capability.
type Task string

const (
	TaskServiceRequest    Task = "SERVICE_REQUEST"
	TaskWeather           Task = "WEATHER"
	TaskTraffic           Task = "TRAFFIC"
	TaskNews              Task = "NEWS"
	TaskPetFriendlyStops  Task = "PET_FRIENDLY_REST_STOPS"
	TaskWorkoutLocations  Task = "WORKOUT_LOCATIONS"
	TaskPersonalWellness  Task = "PERSONAL_WELLNESS"
	TaskStressReduction   Task = "MENTAL_WELLNESS_STRESS_REDUCTION"
	TaskSafeParking       Task = "SAFE_PARKING"
	TaskVehicleInspection Task = "VEHICLE_INSPECTION"
	TaskGeneralAssistance Task = "GENERAL_ASSISTANCE"
)

// serviceRequestKeywords is deliberately broad: any phrasing that hints
// at a breakdown, tire, battery, fuel, lockout, or mechanical problem
// routes to dispatch intake rather than small talk.
var serviceRequestKeywords = []string{
	"break down", "broke down", "breakdown", "broken down",
	"tow truck", "towing", "need a tow", "need tow",
	"stranded", "stuck", "can't move", "won't move",

	"flat tire", "tire change", "blowout", "tire repair", "tire service",
	"puncture", "tire blew", "tire flat", "tire", "tires", "tire issue",
	"tire problem", "low tire", "bald tire", "spare tire", "tire pressure",
	"blown tire", "tire damage", "wheel", "rim",

	"jump start", "battery dead", "won't start", "dead battery",
	"battery died", "car won't start", "truck won't start",
	"battery", "no power", "won't crank", "won't turn over",

	"fuel delivery", "out of fuel", "out of gas", "out of diesel",
	"need fuel", "need gas", "need diesel", "ran out of fuel",

	"locked out", "keys locked", "lost keys", "keys inside",

	"mechanic", "repair", "mechanical", "engine problem", "engine issue",
	"overheating", "smoking", "leaking", "won't drive",
	"brakes", "brake", "brake issue", "brake problem", "brake failure",
	"transmission", "alignment", "suspension", "steering",
	"oil leak", "coolant", "radiator", "alternator", "starter",
	"check engine", "engine light", "warning light",
	"vibration", "grinding", "squealing", "noise",
	"axle", "differential", "driveshaft", "u-joint",
	"exhaust", "turbo", "air compressor", "air leak",
	"electrical", "wiring", "fuse", "lights out", "no lights",

	"my truck", "my trailer", "truck needs", "trailer needs",
	"tractor needs", "rig needs", "semi needs",
	"truck problem", "trailer problem", "truck issue", "trailer issue",

	"emergency", "roadside assistance", "road service", "need service",
	"need help with truck", "need help with trailer",
	"service call", "dispatch", "send someone", "send help",
	"need a tech", "need technician",
}

type rule struct {
	task     Task
	keywords []string
}

// rules is ordered. Service requests come first so that an utterance
// like "traffic is heavy and my tire blew" still reaches dispatch; the
// remaining rows follow in fixed priority and the first hit wins.
var rules = []rule{
	{TaskServiceRequest, serviceRequestKeywords},
	{TaskWeather, []string{"weather", "forecast", "rain", "snow"}},
	{TaskTraffic, []string{"traffic", "road", "jam", "congestion", "backup"}},
	{TaskNews, []string{"news", "headlines", "updates"}},
	{TaskPetFriendlyStops, []string{"pet", "dog", "cat", "animal"}},
	{TaskWorkoutLocations, []string{"workout", "gym", "exercise", "fitness", "lift"}},
	{TaskPersonalWellness, []string{"wellness", "health", "diet", "food"}},
	{TaskStressReduction, []string{"stress", "relax", "calm", "breathe", "angry"}},
	{TaskSafeParking, []string{"parking", "spot", "sleep", "lot"}},
	{TaskVehicleInspection, []string{"inspection", "pre-trip", "post-trip", "kick the tires"}},
}

// Classify returns the task for an utterance. Matching is
// case-insensitive substring; no rule firing yields general assistance.
func Classify(utterance string) Task {
	lower := strings.ToLower(utterance)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.task
			}
		}
	}
	return TaskGeneralAssistance
}

// IsServiceRequest reports whether the utterance should open or feed a
// dispatch intake conversation.
func IsServiceRequest(utterance string) bool {
	return Classify(utterance) == TaskServiceRequest
}
