// Package translator defines the contract the job pipeline consumes to talk
// to a document translation provider. Implementations are provider-specific;
// the pipeline only relies on the submit/poll/fetch capability.
package translator

import "context"

// Status is a provider-reported job status.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusTranslating Status = "translating"
	StatusDone        Status = "done"
	StatusError       Status = "error"
)

// Terminal reports whether polling should stop at this status.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Job identifies one in-flight provider submission: the provider's job id
// plus the access key it issued for subsequent calls. It exists only for the
// duration of one pipeline run and is never persisted.
type Job struct {
	ID  string
	Key string
}

// Translator is the provider capability surface.
type Translator interface {
	// Submit uploads document bytes for translation and returns the
	// provider job handle.
	Submit(ctx context.Context, document []byte, filename, sourceLang, targetLang string) (Job, error)
	// Poll reports the current job status. Callers poll until Terminal.
	Poll(ctx context.Context, job Job) (Status, error)
	// Fetch downloads the translated result. Only valid once Poll has
	// reported StatusDone.
	Fetch(ctx context.Context, job Job) ([]byte, error)
}
