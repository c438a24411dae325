package phrases

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Mapping maps a canonical label to every member of its group, itself included.
type Mapping map[string][]string

// Mapping runs FindSimilar and BuildGroups over phrases.
func (g *Grouper) Mapping(phrases []string) Mapping {
	return FromGroups(g.BuildGroups(g.FindSimilar(phrases)))
}

// FromGroups builds a Mapping from final groups.
func FromGroups(groups []Group) Mapping {
	m := make(Mapping, len(groups))
	for _, gr := range groups {
		m[gr.Canonical] = gr.Members
	}
	return m
}

// Lookup inverts the mapping to member -> canonical.
func (m Mapping) Lookup() map[string]string {
	out := make(map[string]string)
	for canon, members := range m {
		for _, p := range members {
			out[p] = canon
		}
		out[canon] = canon
	}
	return out
}

// Groups returns the number of groups.
func (m Mapping) Groups() int { return len(m) }

// Marshal encodes the mapping as a JSON object.
func (m Mapping) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalMapping decodes a JSON mapping document.
func UnmarshalMapping(data []byte) (Mapping, error) {
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return m, nil
}
