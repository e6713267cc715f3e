package domain

// AnswerChoice is an edge of the questionnaire graph.
//
// A nil Answer is the wildcard edge: it matches any non-empty free-text
// answer. An empty To marks a terminal edge, ending its branch. For a given
// From, at most one edge may carry a given literal answer and at most one
// edge may be the wildcard; edges are otherwise unordered.
type AnswerChoice struct {
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to,omitempty" yaml:"to,omitempty"`
	Answer *string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// NewStatus optionally overrides the survey status when this edge is
	// taken.
	NewStatus Status `json:"new_status,omitempty" yaml:"new_status,omitempty"`
}

// Wildcard reports whether the edge matches any non-empty free-text answer.
func (c AnswerChoice) Wildcard() bool {
	return c.Answer == nil
}

// Terminal reports whether the edge ends its branch.
func (c AnswerChoice) Terminal() bool {
	return c.To == ""
}

// Matches reports whether the edge accepts the given answer. Empty answers
// never match; they are re-asked before edge lookup.
func (c AnswerChoice) Matches(answer string) bool {
	if answer == "" {
		return false
	}
	if c.Answer == nil {
		return true
	}
	return *c.Answer == answer
}
