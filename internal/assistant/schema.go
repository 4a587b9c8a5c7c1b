package assistant

// Strict structured-output schemas. Every property is required and
// additionalProperties is false at each level, as strict mode demands.

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

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func stringArrayProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}

func arrayOf(item map[string]interface{}, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       item,
		"description": description,
	}
}

func evidenceSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"clue_id":             stringProp("Identifier of the clue being analyzed"),
		"description":         stringProp("What the clue is"),
		"suspects_implicated": stringArrayProp("Suspects this clue points toward"),
		"significance_rating": intProp("How important this clue is, 1-10"),
		"connections":         stringArrayProp("Connections to other clues"),
	}, []string{"clue_id", "description", "suspects_implicated", "significance_rating", "connections"})
}

func profileSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"name":                  stringProp("Suspect's name"),
		"suspicion_level":       intProp("0 = surely innocent, 100 = surely guilty"),
		"key_inconsistencies":   stringArrayProp("Inconsistencies in their account"),
		"alibi_strength":        stringProp("weak, moderate, strong or airtight"),
		"motive_strength":       stringProp("none, weak, moderate or strong"),
		"recommended_questions": stringArrayProp("Questions worth asking them"),
	}, []string{"name", "suspicion_level", "key_inconsistencies", "alibi_strength", "motive_strength", "recommended_questions"})
}

func reportSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"case_summary":        stringProp("2-3 sentence summary of the case so far"),
		"progress_percent":    numberProp("Estimated investigation progress, 0-100"),
		"evidence_analysis":   arrayOf(evidenceSchema(), "Analysis of each discovered clue"),
		"suspect_profiles":    arrayOf(profileSchema(), "Assessment of each suspect"),
		"primary_suspect":     stringProp("Most likely suspect, or empty if undecided"),
		"confidence_level":    intProp("Confidence in the primary suspect, 0-100"),
		"recommended_actions": stringArrayProp("Concrete next actions for the player"),
		"missing_evidence":    stringArrayProp("Evidence that would strengthen the case"),
	}, []string{"case_summary", "progress_percent", "evidence_analysis", "suspect_profiles", "primary_suspect", "confidence_level", "recommended_actions", "missing_evidence"})
}

func suggestionSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"action":    stringProp("One of: search, interrogate, accuse, review"),
		"target":    stringProp("Where or who to focus on"),
		"reasoning": stringProp("Why this action is recommended"),
		"priority":  intProp("1 = highest priority"),
	}, []string{"action", "target", "reasoning", "priority"})
}
