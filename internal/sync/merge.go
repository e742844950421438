package sync

import (
	"reflect"
	"sort"
)

// MergeFields computes the FIELD_MERGE result: the union of both payloads
// where client fields that are absent or identical on the server are taken,
// and fields that differ on both sides keep the server value. The differing
// field names are returned so they can be flagged on the conflict record.
// Iteration is by sorted key name, so the result is deterministic.
func MergeFields(client, server Payload) (merged Payload, conflicting []string, changed bool) {
	merged = server.Clone()
	if merged == nil {
		merged = Payload{}
	}

	keys := make([]string, 0, len(client))
	for k := range client {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		cv := client[k]
		sv, present := server[k]
		if !present {
			merged[k] = cv
			changed = true
			continue
		}
		if !reflect.DeepEqual(cv, sv) {
			// Ties break toward the server value.
			conflicting = append(conflicting, k)
		}
	}
	return merged, conflicting, changed
}
