package entity

// BatchItemSuccess records one successful item outcome within a batch,
// keyed back to its submission index.
type BatchItemSuccess struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"` // item id or row identifier
	Value any    `json:"value,omitempty"`
}

// BatchItemFailure records one failed item outcome within a batch.
type BatchItemFailure struct {
	Index  int    `json:"index"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
}

// BatchResult is the aggregate outcome of a fan-out operation over a
// fixed input set. Once terminal, len(Succeeded)+len(Failed) == Total and
// no index appears in both lists.
type BatchResult struct {
	Total     int                `json:"total"`
	Succeeded []BatchItemSuccess `json:"succeeded"`
	Failed    []BatchItemFailure `json:"failed"`
}

// Complete reports whether every item has reached a terminal state.
func (r *BatchResult) Complete() bool {
	return len(r.Succeeded)+len(r.Failed) == r.Total
}
