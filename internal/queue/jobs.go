package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TranslateDocumentTask is scheduled for background submissions: the
	// blob is staged in the uploads bucket and the worker drives it
	// through the translation pipeline.
	TranslateDocumentTask = "document:translate"
)

// TranslatePayload is serialized into the task so the worker knows which
// staged object to translate and for whom.
type TranslatePayload struct {
	Owner      string `json:"owner"`
	StagingKey string `json:"staging_key"`
	FileName   string `json:"file_name"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// EnqueueTranslate enqueues a background translation job. The task timeout
// must cover the full polling window, so callers pass the pipeline's max
// wait plus headroom.
func EnqueueTranslate(ctx context.Context, client *asynq.Client, payload TranslatePayload, maxWait time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TranslateDocumentTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Timeout(maxWait+5*time.Minute)); err != nil {
		return fmt.Errorf("enqueue translate task: %w", err)
	}
	return nil
}
