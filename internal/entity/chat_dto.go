package entity

// ChatRequest is one user question. SelectedFiles optionally restricts
// retrieval to those source files; empty means the whole corpus.
type ChatRequest struct {
	Message       string   `json:"message"`
	SelectedFiles []string `json:"selected_files"`
}

type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// Answer is the synthesized result of one query: the model's grounded answer
// plus the sorted, deduplicated source files of the fragments it was given.
type Answer struct {
	Text      string
	Sources   []string
	Fragments []Fragment
}

// UserIdentity is the asker identity decoded by the upstream auth layer and
// forwarded in request headers. Recorded in the audit log only.
type UserIdentity struct {
	ID    string
	Email string
}
