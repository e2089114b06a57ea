package llm

import "github.com/joseph-ayodele/ballot-registry/constants"

// BuildBallotJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It describes a sanitized answer (votes already canonical) and is only used
// locally by ValidatePageJSON; providers are asked for a plain JSON object.
func BuildBallotJSONSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }

	data := map[string]any{
		"address":        str(),
		"lastName":       str(),
		"firstName":      str(),
		"middleName":     str(),
		"snils":          snilsProp(),
		"roomNo":         str(),
		"area":           str(),
		"ownershipShare": str(),
		"ownershipType":  str(),
		"regNumber":      str(),
		"regDate":        str(),
		"meetingDate":    str(),
		"questionTexts": map[string]any{
			"type":                 "object",
			"additionalProperties": str(),
		},
		"votes": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type": "string",
				"enum": constants.VoteStrings(),
			},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"isStartPage": map[string]any{"type": "boolean"},
			"data": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           data,
			},
		},
		"required": []string{"isStartPage"},
	}
}

// snilsProp accepts 11 digits, the illegible marker or nothing.
func snilsProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^(\d{11}|` + constants.ErrorSentinel + `)?$`,
	}
}
