package catalog

import "strings"

// aliasTable maps supplier header spellings to canonical field names. Keys are
// already in normalized form (lowercase, separators collapsed to spaces).
var aliasTable = map[string]string{
	"make":         FieldMake,
	"brand":        FieldMake,
	"brand name":   FieldMake,
	"manufacturer": FieldMake,

	"model":       FieldModel,
	"model name":  FieldModel,
	"model no":    FieldModel,
	"device":      FieldModel,
	"device name": FieldModel,

	"colour":      FieldColour,
	"color":       FieldColour,
	"colour name": FieldColour,
	"color name":  FieldColour,

	"capacity":    FieldCapacity,
	"gb spec":     FieldCapacity,
	"storage":     FieldCapacity,
	"memory":      FieldCapacity,
	"memory size": FieldCapacity,

	"network":  FieldNetwork,
	"carrier":  FieldNetwork,
	"operator": FieldNetwork,

	"grade":       FieldGrade,
	"grade name":  FieldGrade,
	"quality":     FieldGrade,
	"sku grade":   FieldGrade,
	"condition":   FieldCondition,
	"state":       FieldCondition,
	"item status": FieldCondition,
}

// CanonicalField resolves a raw supplier header to its canonical field name.
// Matching is case-insensitive and tolerant of surrounding whitespace and
// underscore/hyphen separators. The second return is false for unknown
// headers.
func CanonicalField(header string) (string, bool) {
	key := normalizeHeader(header)
	field, ok := aliasTable[key]
	return field, ok
}

// Normalize pairs raw headers with positional values and returns a canonical
// field -> value mapping. Unknown headers are dropped silently. When two
// headers resolve to the same canonical field, the first non-blank value wins.
// Extra values without a matching header are ignored.
func Normalize(headers, values []string) map[string]string {
	fields := make(map[string]string, len(FieldNames))
	for i, h := range headers {
		if i >= len(values) {
			break
		}
		field, ok := CanonicalField(h)
		if !ok {
			continue
		}
		if cur, exists := fields[field]; exists && strings.TrimSpace(cur) != "" {
			continue
		}
		fields[field] = values[i]
	}
	return fields
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.ReplaceAll(h, "-", " ")
	return strings.Join(strings.Fields(h), " ")
}
