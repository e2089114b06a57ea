package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/common"
)

var scalarKeys = map[string]struct{}{
	"address": {}, "lastName": {}, "firstName": {}, "middleName": {}, "snils": {},
	"roomNo": {}, "area": {}, "ownershipShare": {}, "ownershipType": {},
	"regNumber": {}, "regDate": {}, "meetingDate": {},
}

// NormalizeAndSanitizeJSON
// - Coerces isStartPage to a bool and data to an object
// - Drops null / "null" / empty scalars
// - Coerces numbers -> strings
// - Maps the localized error marker to ERROR
// - Normalizes SNILS to 11 digits; anything else readable becomes ERROR
// - Canonicalizes vote marks and drops the ones we cannot read
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}

	dropped := make([]string, 0, 8)

	// 1) isStartPage
	switch t := m["isStartPage"].(type) {
	case bool:
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		m["isStartPage"] = err == nil && b
		dropped = append(dropped, "isStartPage(string)")
	default:
		if _, ok := m["isStartPage"]; ok {
			dropped = append(dropped, "isStartPage(type)")
		}
		m["isStartPage"] = false
	}

	// 2) data
	data, ok := m["data"].(map[string]any)
	if !ok {
		if _, present := m["data"]; present && m["data"] != nil {
			dropped = append(dropped, "data(type)")
		}
		data = map[string]any{}
	}

	for k, v := range maps.Clone(data) {
		switch {
		case k == "questionTexts":
			data[k] = sanitizeTextMap(v, &dropped)
		case k == "votes":
			data[k] = sanitizeVotes(v, &dropped)
		default:
			if _, known := scalarKeys[k]; !known {
				delete(data, k)
				dropped = append(dropped, k+"(unknown)")
				continue
			}
			s, keep := scalarString(v)
			if !keep {
				delete(data, k)
				if v != nil && v != "" {
					dropped = append(dropped, k+"(empty)")
				}
				continue
			}
			if k == "snils" {
				s = sanitizeSnils(s, &dropped)
			}
			data[k] = s
		}
	}
	m["data"] = data

	// 3) remove unknown top-level keys
	for k := range maps.Clone(m) {
		if k != "isStartPage" && k != "data" {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// scalarString renders a scalar as the wire string; false means "not present".
func scalarString(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool, nil:
		return "", false
	default:
		return "", false
	}
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}
	if constants.IsErrorSentinel(s) {
		return constants.ErrorSentinel, true
	}
	return s, true
}

func sanitizeSnils(s string, dropped *[]string) string {
	if s == constants.ErrorSentinel {
		return s
	}
	n := common.NormalizeSnils(s)
	if len(n) == 11 && strings.Trim(n, "0123456789") == "" {
		return n
	}
	*dropped = append(*dropped, "snils(malformed)")
	return constants.ErrorSentinel
}

func sanitizeTextMap(v any, dropped *[]string) map[string]any {
	out := map[string]any{}
	in, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			*dropped = append(*dropped, "questionTexts(type)")
		}
		return out
	}
	for q, text := range in {
		s, keep := scalarString(text)
		if !keep || s == constants.ErrorSentinel {
			continue
		}
		out[strings.TrimSpace(q)] = s
	}
	return out
}

func sanitizeVotes(v any, dropped *[]string) map[string]any {
	out := map[string]any{}
	in, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			*dropped = append(*dropped, "votes(type)")
		}
		return out
	}
	for q, mark := range in {
		s, keep := scalarString(mark)
		if !keep {
			continue
		}
		vote, ok := constants.CanonicalizeVote(s)
		if !ok {
			*dropped = append(*dropped, "votes."+q+"("+s+")")
			continue
		}
		out[strings.TrimSpace(q)] = string(vote)
	}
	return out
}
