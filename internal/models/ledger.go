package models

import "time"

// Run is one ledger row describing a resolve, batch or API invocation.
type Run struct {
	ID          string     `json:"id"`
	Sequence    int        `json:"sequence"`
	Kind        string     `json:"kind"`
	Total       int        `json:"total"`
	Resolved    int        `json:"resolved"`
	Failed      int        `json:"failed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Resolution is the ledger record of one reference outcome within a run.
type Resolution struct {
	ID         string    `json:"id"`
	Sequence   int       `json:"sequence"`
	RunID      string    `json:"runId"`
	FeedGUID   string    `json:"feedGuid"`
	ItemGUID   string    `json:"itemGuid"`
	Success    bool      `json:"success"`
	ErrorKind  ErrorKind `json:"error,omitempty"`
	Title      string    `json:"title,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt"`
}
