package registry

import "time"

// Kind classifies a relation produced by the pipeline.
type Kind string

const (
	KindSource        Kind = "source"
	KindFrequency     Kind = "frequency"
	KindTopN          Kind = "top_n"
	KindStats         Kind = "stats"
	KindRecursiveTopN Kind = "recursive_top_n"
	KindLabelled      Kind = "labelled"
	KindMapped        Kind = "mapped"
	KindWords         Kind = "words"
)

// Handle describes one stored relation: its schema, where it came from and
// the parameters that produced it.
type Handle struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      Kind           `json:"kind"`
	Source    string         `json:"source,omitempty"`
	Columns   []string       `json:"columns"`
	Rows      int            `json:"rows"`
	Params    map[string]any `json:"params,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Param returns the string form of a parameter, or "".
func (h *Handle) Param(key string) string {
	v, ok := h.Params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
