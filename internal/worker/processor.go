package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/pipeline"
	"github.com/dharsanguruparan/LinguaDrop/internal/queue"
	"github.com/dharsanguruparan/LinguaDrop/internal/s3storage"
)

// Processor is plugged into the asynq worker loop. It drains staged uploads
// through the translation pipeline.
type Processor struct {
	orchestrator *pipeline.Orchestrator
	store        *s3storage.Storage
}

// NewProcessor constructs a worker processor.
func NewProcessor(orchestrator *pipeline.Orchestrator, store *s3storage.Storage) *Processor {
	return &Processor{orchestrator: orchestrator, store: store}
}

// Handler registers the translate job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TranslateDocumentTask, p.handleTranslate)
	return mux
}

func (p *Processor) handleTranslate(ctx context.Context, task *asynq.Task) error {
	var payload queue.TranslatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}
	data, err := p.store.Get(ctx, p.store.UploadBucket(), payload.StagingKey)
	if err != nil {
		return fault.Wrap(fault.StorageReadFailed, "read staged upload", err)
	}
	res, err := p.orchestrator.Run(ctx, pipeline.Job{
		Owner:      payload.Owner,
		FileName:   payload.FileName,
		Data:       data,
		SourceLang: payload.SourceLang,
		TargetLang: payload.TargetLang,
	})
	if err != nil {
		log.Printf("background translation failed for %s/%s: %v", payload.Owner, payload.FileName, err)
		if fault.IsKind(err, fault.InvalidInput) {
			// Retrying cannot fix a bad submission.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	// The staged copy is redundant once the pipeline stored the original
	// under its permanent key.
	if err := p.store.Delete(ctx, p.store.UploadBucket(), payload.StagingKey); err != nil {
		log.Printf("delete staged upload %s: %v", payload.StagingKey, err)
	}
	log.Printf("document %s translated for %s (%s -> %s)", res.DocumentID, payload.Owner, payload.SourceLang, payload.TargetLang)
	return nil
}
