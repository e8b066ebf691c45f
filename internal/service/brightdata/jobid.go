package brightdata

import (
	"strings"

	"github.com/tidwall/gjson"
)

// JobIDKeys is the priority order of keys the trigger response may use for the snapshot id.
var JobIDKeys = []string{"snapshot_id", "snapshot", "id", "job_id", "snapshotId"}

// JobIDPrefixes are the id conventions accepted by the last-resort scan.
var JobIDPrefixes = []string{"sd_", "s_"}

// jobIDStrategy inspects a parsed trigger response and returns an id if it finds one.
type jobIDStrategy func(doc gjson.Result) (string, bool)

var jobIDStrategies = func() []jobIDStrategy {
	strategies := make([]jobIDStrategy, 0, len(JobIDKeys)+1)
	for _, key := range JobIDKeys {
		strategies = append(strategies, byKey(key))
	}
	return append(strategies, byPrefixScan)
}()

// ExtractJobID runs the strategies in order and returns the first id found.
func ExtractJobID(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	doc := gjson.ParseBytes(body)
	for _, strategy := range jobIDStrategies {
		if id, ok := strategy(doc); ok {
			return id, true
		}
	}
	return "", false
}

// byKey looks the key up on a direct object, then on the first element of a list.
func byKey(key string) jobIDStrategy {
	path := gjsonEscape(key)
	return func(doc gjson.Result) (string, bool) {
		candidates := []gjson.Result{doc}
		if doc.IsArray() {
			candidates = []gjson.Result{doc.Get("0")}
		}
		for _, candidate := range candidates {
			if !candidate.IsObject() {
				continue
			}
			if id, ok := scalarString(candidate.Get(path)); ok {
				return id, true
			}
		}
		return "", false
	}
}

// byPrefixScan walks every string value in document order looking for a known id prefix.
func byPrefixScan(doc gjson.Result) (string, bool) {
	var found string
	var walk func(value gjson.Result) bool
	walk = func(value gjson.Result) bool {
		switch {
		case value.IsObject() || value.IsArray():
			value.ForEach(func(_, child gjson.Result) bool {
				return walk(child)
			})
			return found == ""
		case value.Type == gjson.String:
			if hasJobIDPrefix(value.Str) {
				found = strings.TrimSpace(value.Str)
				return false
			}
		}
		return true
	}
	walk(doc)
	return found, found != ""
}

func hasJobIDPrefix(value string) bool {
	value = strings.TrimSpace(value)
	for _, prefix := range JobIDPrefixes {
		if len(value) > len(prefix) && strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

func scalarString(value gjson.Result) (string, bool) {
	switch value.Type {
	case gjson.String:
		id := strings.TrimSpace(value.Str)
		return id, id != ""
	case gjson.Number:
		return value.Raw, true
	default:
		return "", false
	}
}

func gjsonEscape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
