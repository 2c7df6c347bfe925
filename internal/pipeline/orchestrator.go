// Package pipeline drives one document through the translation job state
// machine: submit to the provider, poll until a terminal status, fetch the
// result, store both artifacts, then record the document. The orchestrator
// owns no persistent state; it coordinates the translator, the object store
// and the metadata store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/language"
	"github.com/dharsanguruparan/LinguaDrop/internal/model"
	"github.com/dharsanguruparan/LinguaDrop/internal/naming"
	"github.com/dharsanguruparan/LinguaDrop/internal/translator"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxWait      = 10 * time.Minute
	// storeGrace bounds the detached storage+record phase that runs after
	// the provider has finished, even if the caller has gone away.
	storeGrace = 2 * time.Minute
)

// ObjectStore is the slice of the object store the pipeline needs.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
}

// DocumentRecorder creates the metadata record once both blobs are stored.
type DocumentRecorder interface {
	Create(ctx context.Context, doc *model.Document) error
}

// Buckets names the two destination buckets.
type Buckets struct {
	Uploads    string
	Translated string
}

// Options tune polling behaviour. Zero values fall back to defaults.
type Options struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Job is one submission: the uploaded bytes plus the language pair, owned by
// the submitting identity. Identity is always explicit, never ambient.
type Job struct {
	Owner       string
	FileName    string
	Data        []byte
	ContentType string
	SourceLang  string
	TargetLang  string
}

// Result is returned to the caller on success.
type Result struct {
	DocumentID     string `json:"documentId"`
	OriginalName   string `json:"originalFile"`
	TranslatedName string `json:"translatedFile"`
}

// Orchestrator runs translation jobs. Instances are safe for concurrent use;
// each Run is an independent unit of work and key uniqueness comes from
// fresh per-submission tokens, not locks.
type Orchestrator struct {
	translator   translator.Translator
	objects      ObjectStore
	records      DocumentRecorder
	buckets      Buckets
	pollInterval time.Duration
	maxWait      time.Duration
}

// New constructs an Orchestrator.
func New(tr translator.Translator, objects ObjectStore, records DocumentRecorder, buckets Buckets, opts Options) *Orchestrator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = defaultMaxWait
	}
	return &Orchestrator{
		translator:   tr,
		objects:      objects,
		records:      records,
		buckets:      buckets,
		pollInterval: opts.PollInterval,
		maxWait:      opts.MaxWait,
	}
}

// Run executes the full state machine for one job. Exactly one document row
// exists afterwards if and only if Run returns a nil error. No partial
// success is ever reported and no retries happen here; resubmission is the
// caller's decision.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*Result, error) {
	if err := validate(job); err != nil {
		return nil, err
	}
	job.SourceLang = language.Normalize(job.SourceLang)
	job.TargetLang = language.Normalize(job.TargetLang)

	provJob, err := o.translator.Submit(ctx, job.Data, job.FileName, job.SourceLang, job.TargetLang)
	if err != nil {
		if fault.KindOf(err) != "" {
			return nil, err
		}
		return nil, fault.Wrap(fault.ProviderUnavailable, "submit document", err)
	}

	if err := o.pollUntilDone(ctx, provJob, job.Owner); err != nil {
		return nil, err
	}

	// The provider already did the work; from here on a client disconnect
	// must not discard the result, so the remaining phases run on a
	// cancellation-detached context.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeGrace)
	defer cancel()

	translated, err := o.translator.Fetch(storeCtx, provJob)
	if err != nil {
		if fault.KindOf(err) != "" {
			return nil, err
		}
		return nil, fault.Wrap(fault.ProviderUnavailable, "fetch translated document", err)
	}

	token := naming.NewToken()
	originalKey := naming.OriginalKey(job.Owner, token, job.FileName)
	translatedKey := naming.TranslatedKey(job.Owner, token, job.FileName)
	contentType := job.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := o.objects.Put(storeCtx, o.buckets.Uploads, originalKey, job.Data, contentType); err != nil {
		return nil, fault.Wrap(fault.StorageWriteFailed, "store original artifact", err)
	}
	if err := o.objects.Put(storeCtx, o.buckets.Translated, translatedKey, translated, contentType); err != nil {
		// Avoid an orphaned original; cleanup is best effort.
		if delErr := o.objects.Delete(storeCtx, o.buckets.Uploads, originalKey); delErr != nil {
			log.Printf("cleanup of %s/%s failed: %v", o.buckets.Uploads, originalKey, delErr)
		}
		return nil, fault.Wrap(fault.StorageWriteFailed, "store translated artifact", err)
	}

	doc := &model.Document{
		ID:            uuid.NewString(),
		Owner:         job.Owner,
		FileName:      job.FileName,
		OriginalKey:   originalKey,
		TranslatedKey: translatedKey,
		SourceLang:    job.SourceLang,
		TargetLang:    job.TargetLang,
	}
	if err := o.records.Create(storeCtx, doc); err != nil {
		// Both blobs are durable but no record points at them. Logged
		// loudly; a reconciliation sweep is an external concern.
		log.Printf("INCONSISTENT: blobs %s and %s stored with no document row: %v", originalKey, translatedKey, err)
		return nil, fault.Wrap(fault.Inconsistent, "record document after storage", err)
	}

	return &Result{
		DocumentID:     doc.ID,
		OriginalName:   job.FileName,
		TranslatedName: naming.TranslatedDisplayName(job.FileName),
	}, nil
}

func (o *Orchestrator) pollUntilDone(ctx context.Context, provJob translator.Job, owner string) error {
	waitCtx, cancel := context.WithTimeout(ctx, o.maxWait)
	defer cancel()

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-waitCtx.Done():
			if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return fault.Newf(fault.Timeout, "translation did not finish within %s", o.maxWait)
			}
			// Caller abandoned the job before the provider finished;
			// stop polling. The provider-side job is not cancelled.
			return fmt.Errorf("polling abandoned: %w", ctx.Err())
		case <-ticker.C:
			status, err := o.translator.Poll(waitCtx, provJob)
			if err != nil {
				if fault.KindOf(err) != "" {
					return err
				}
				return fault.Wrap(fault.ProviderUnavailable, "poll translation status", err)
			}
			log.Printf("translation status for %s: %s", owner, status)
			if !status.Terminal() {
				// queued and translating keep waiting.
				continue
			}
			if status == translator.StatusError {
				return fault.New(fault.ProviderUnavailable, "provider reported translation error")
			}
			return nil
		}
	}
}

func validate(job Job) error {
	if len(job.Data) == 0 {
		return fault.New(fault.InvalidInput, "no file uploaded")
	}
	if job.FileName == "" {
		return fault.New(fault.InvalidInput, "missing file name")
	}
	if job.Owner == "" {
		return fault.New(fault.InvalidInput, "missing owner identity")
	}
	if !language.ValidPair(job.SourceLang, job.TargetLang) {
		return fault.Newf(fault.InvalidInput, "unsupported language pair %s -> %s", job.SourceLang, job.TargetLang)
	}
	return nil
}
