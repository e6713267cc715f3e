package domain

// Status is the coarse-grained survey state.
type Status string

const (
	// StatusDraft is the zero-value placeholder before creation.
	StatusDraft Status = "draft"
	// StatusNew means the survey is being answered.
	StatusNew Status = "new"
	// StatusWaitingDocs is entered when a branch ends on a terminal edge
	// and the owner is expected to supply documents.
	StatusWaitingDocs Status = "waiting_docs"
	// StatusProcessing means a reviewer has picked the survey up. It is set
	// by an explicit lifecycle action, never by Advance.
	StatusProcessing Status = "processing"
	// StatusCompleted is terminal.
	StatusCompleted Status = "completed"
	// StatusRejected is terminal when reached via review, but an edge's
	// status override may also set it mid-graph while the branch continues.
	StatusRejected Status = "rejected"
)

// Action names the operations a caller may request on a survey.
type Action string

const (
	ActionAnswer         Action = "answer"
	ActionRevert         Action = "revert"
	ActionRestart        Action = "restart"
	ActionMarkProcessing Action = "mark_processing"
	ActionComplete       Action = "complete"
	ActionReject         Action = "reject"
)

// StatusInfo describes one status as plain data: a display label and the
// lifecycle actions allowed from it.
type StatusInfo struct {
	Label          string
	AllowedActions []Action
}

// statusTable is the whole behavior of the status machine. It is never
// mutated after init.
var statusTable = map[Status]StatusInfo{
	StatusDraft: {
		Label: "Draft",
	},
	StatusNew: {
		Label:          "In progress",
		AllowedActions: []Action{ActionAnswer, ActionRevert},
	},
	StatusWaitingDocs: {
		Label:          "Waiting for documents",
		AllowedActions: []Action{ActionRevert, ActionMarkProcessing},
	},
	StatusProcessing: {
		Label:          "In review",
		AllowedActions: []Action{ActionComplete, ActionReject, ActionRestart},
	},
	StatusCompleted: {
		Label:          "Completed",
		AllowedActions: []Action{ActionRestart},
	},
	StatusRejected: {
		// A mid-graph rejection leaves the current question set, so the
		// branch keeps answering. Restart is reserved for processing and
		// completed; a finished rejected survey stays rejected.
		Label:          "Rejected",
		AllowedActions: []Action{ActionAnswer, ActionRevert},
	},
}

// Info returns the status descriptor. Unknown statuses yield a zero Info.
func (s Status) Info() StatusInfo {
	return statusTable[s]
}

// Label returns the human-readable name of the status.
func (s Status) Label() string {
	return statusTable[s].Label
}

// Allows reports whether the lifecycle action is permitted from this status.
func (s Status) Allows(a Action) bool {
	for _, allowed := range statusTable[s].AllowedActions {
		if allowed == a {
			return true
		}
	}
	return false
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}
