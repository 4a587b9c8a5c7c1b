package mystery

// JSON schemas for strict structured outputs. The OpenAI strict mode
// requires every property listed as required and additionalProperties
// set to false at each level.

func objectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func stringArrayProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}

// PremiseSchema matches the Premise struct.
func PremiseSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"setting":           stringProp("Brief evocative description of the location and occasion"),
		"victim_name":       stringProp("Victim's full name"),
		"victim_background": stringProp("1-2 sentences about who they are and why someone might want them dead"),
	}, []string{"setting", "victim_name", "victim_background"})
}

// SkeletonSchema matches the Skeleton struct.
func SkeletonSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"setting":           stringProp("Vivid 1-2 sentence setting description"),
		"victim_name":       stringProp("Victim's full name"),
		"victim_background": stringProp("1-2 sentences about the victim"),
		"murderer_index":    intProp("Which suspect (0-3) is the murderer"),
		"weapon":            stringProp("Murder weapon"),
		"motive":            stringProp("Why the murderer did it"),
		"suspect_briefs":    stringArrayProp("4 brief role descriptions like 'The jealous business partner'"),
		"clue_locations":    stringArrayProp("5 specific locations where clues will be found"),
	}, []string{"setting", "victim_name", "victim_background", "murderer_index", "weapon", "motive", "suspect_briefs", "clue_locations"})
}

// SuspectDraftSchema matches the SuspectDraft struct.
func SuspectDraftSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"name":           stringProp("Full character name"),
		"role":           stringProp("Relationship to victim"),
		"personality":    stringProp("2-3 key personality traits"),
		"alibi":          stringProp("Their claimed alibi"),
		"secret":         stringProp("What they're hiding"),
		"clue_they_know": stringProp("Info they might share if pressed"),
		"gender":         stringProp("male or female"),
		"age":            stringProp("young, middle_aged, or old"),
		"nationality":    stringProp("american, british, australian, or standard"),
	}, []string{"name", "role", "personality", "alibi", "secret", "clue_they_know", "gender", "age", "nationality"})
}

// ClueSetSchema matches the ClueSet struct.
func ClueSetSchema() map[string]interface{} {
	clue := objectSchema(map[string]interface{}{
		"id":           stringProp("Unique clue ID like clue_1"),
		"description":  stringProp("What the clue is"),
		"location":     stringProp("Where it's found"),
		"significance": stringProp("What it means for the case"),
	}, []string{"id", "description", "location", "significance"})

	return objectSchema(map[string]interface{}{
		"clues": map[string]interface{}{
			"type":        "array",
			"items":       clue,
			"description": "Exactly 5 clues",
		},
	}, []string{"clues"})
}
