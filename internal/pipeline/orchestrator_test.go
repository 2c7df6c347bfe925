package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/model"
	"github.com/dharsanguruparan/LinguaDrop/internal/storage"
	"github.com/dharsanguruparan/LinguaDrop/internal/translator"
)

type fakeTranslator struct {
	mu        sync.Mutex
	statuses  []translator.Status
	submitErr error
	result    []byte
	submits   int
}

func (f *fakeTranslator) Submit(_ context.Context, _ []byte, _, _, _ string) (translator.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.submitErr != nil {
		return translator.Job{}, f.submitErr
	}
	return translator.Job{ID: "job-1", Key: "key-1"}, nil
}

func (f *fakeTranslator) Poll(_ context.Context, _ translator.Job) (translator.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return translator.StatusTranslating, nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func (f *fakeTranslator) Fetch(_ context.Context, _ translator.Job) ([]byte, error) {
	return f.result, nil
}

type fakeObjects struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	failPut map[string]bool // bucket names whose puts fail
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{blobs: make(map[string][]byte), failPut: make(map[string]bool)}
}

func (f *fakeObjects) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut[bucket] {
		return errors.New("disk full")
	}
	f.blobs[bucket+"/"+key] = data
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, bucket+"/"+key)
	return nil
}

func (f *fakeObjects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

var testBuckets = Buckets{Uploads: "uploads", Translated: "translated"}

func newTestOrchestrator(tr translator.Translator, objects ObjectStore, records DocumentRecorder) *Orchestrator {
	return New(tr, objects, records, testBuckets, Options{
		PollInterval: time.Millisecond,
		MaxWait:      250 * time.Millisecond,
	})
}

func TestRunRecordsDocument(t *testing.T) {
	tr := &fakeTranslator{
		statuses: []translator.Status{translator.StatusQueued, translator.StatusTranslating, translator.StatusDone},
		result:   []byte("contrato traducido"),
	}
	objects := newFakeObjects()
	records := storage.NewMemoryDocuments()
	o := newTestOrchestrator(tr, objects, records)

	res, err := o.Run(context.Background(), Job{
		Owner:      "alice",
		FileName:   "contract.txt",
		Data:       []byte("the contract"),
		SourceLang: "ES",
		TargetLang: "EN-US",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.OriginalName != "contract.txt" || res.TranslatedName != "translated-contract.txt" {
		t.Errorf("unexpected result names %+v", res)
	}

	docs, err := records.List(context.Background(), "alice")
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected exactly one document row, got %d (%v)", len(docs), err)
	}
	doc := docs[0]
	if doc.ID != res.DocumentID {
		t.Errorf("row id %q != result id %q", doc.ID, res.DocumentID)
	}
	if !strings.HasPrefix(doc.OriginalKey, "alice-") || !strings.HasSuffix(doc.OriginalKey, "-contract.txt") {
		t.Errorf("unexpected original key %q", doc.OriginalKey)
	}
	if !strings.HasPrefix(doc.TranslatedKey, "alice-translated-") {
		t.Errorf("unexpected translated key %q", doc.TranslatedKey)
	}
	// Both keys must embed the same token.
	token := strings.SplitN(doc.OriginalKey, "-", 3)[1]
	if !strings.Contains(doc.TranslatedKey, "-"+token+"-") {
		t.Errorf("keys do not share a token: %q vs %q", doc.OriginalKey, doc.TranslatedKey)
	}
	if objects.count() != 2 {
		t.Errorf("expected exactly two stored blobs, got %d", objects.count())
	}
	if string(objects.blobs["uploads/"+doc.OriginalKey]) != "the contract" {
		t.Error("original blob missing or wrong")
	}
	if string(objects.blobs["translated/"+doc.TranslatedKey]) != "contrato traducido" {
		t.Error("translated blob missing or wrong")
	}
}

func TestRunValidation(t *testing.T) {
	tr := &fakeTranslator{}
	o := newTestOrchestrator(tr, newFakeObjects(), storage.NewMemoryDocuments())
	cases := []Job{
		{Owner: "alice", FileName: "a.txt", SourceLang: "ES", TargetLang: "EN-US"},                          // no data
		{Owner: "alice", Data: []byte("x"), SourceLang: "ES", TargetLang: "EN-US"},                          // no name
		{Owner: "alice", FileName: "a.txt", Data: []byte("x"), SourceLang: "XX", TargetLang: "EN-US"},       // bad source
		{Owner: "alice", FileName: "a.txt", Data: []byte("x"), SourceLang: "ES", TargetLang: "EN"},          // bare EN target
		{FileName: "a.txt", Data: []byte("x"), SourceLang: "ES", TargetLang: "EN-US"},                       // no owner
	}
	for i, job := range cases {
		if _, err := o.Run(context.Background(), job); !fault.IsKind(err, fault.InvalidInput) {
			t.Errorf("case %d: expected InvalidInput, got %v", i, err)
		}
	}
	if tr.submits != 0 {
		t.Errorf("provider contacted %d times for invalid input", tr.submits)
	}
}

func TestRunProviderError(t *testing.T) {
	tr := &fakeTranslator{statuses: []translator.Status{translator.StatusQueued, translator.StatusError}}
	objects := newFakeObjects()
	records := storage.NewMemoryDocuments()
	o := newTestOrchestrator(tr, objects, records)

	_, err := o.Run(context.Background(), Job{
		Owner: "alice", FileName: "a.txt", Data: []byte("x"), SourceLang: "ES", TargetLang: "EN-US",
	})
	if !fault.IsKind(err, fault.ProviderUnavailable) {
		t.Fatalf("expected ProviderUnavailable, got %v", err)
	}
	if objects.count() != 0 {
		t.Error("no blobs should be stored after provider error")
	}
	if docs, _ := records.List(context.Background(), "alice"); len(docs) != 0 {
		t.Error("no document row should exist after provider error")
	}
}

func TestRunStorageFailureCleansUp(t *testing.T) {
	tr := &fakeTranslator{
		statuses: []translator.Status{translator.StatusDone},
		result:   []byte("result"),
	}
	objects := newFakeObjects()
	objects.failPut["translated"] = true
	records := storage.NewMemoryDocuments()
	o := newTestOrchestrator(tr, objects, records)

	_, err := o.Run(context.Background(), Job{
		Owner: "alice", FileName: "a.txt", Data: []byte("x"), SourceLang: "ES", TargetLang: "EN-US",
	})
	if !fault.IsKind(err, fault.StorageWriteFailed) {
		t.Fatalf("expected StorageWriteFailed, got %v", err)
	}
	if objects.count() != 0 {
		t.Errorf("expected cleanup of the original blob, %d blobs remain", objects.count())
	}
	if docs, _ := records.List(context.Background(), "alice"); len(docs) != 0 {
		t.Error("no document row should exist after storage failure")
	}
}

func TestRunTimeout(t *testing.T) {
	// Provider never reaches a terminal status.
	tr := &fakeTranslator{statuses: []translator.Status{translator.StatusTranslating}}
	objects := newFakeObjects()
	records := storage.NewMemoryDocuments()
	o := newTestOrchestrator(tr, objects, records)

	_, err := o.Run(context.Background(), Job{
		Owner: "alice", FileName: "a.txt", Data: []byte("x"), SourceLang: "ES", TargetLang: "EN-US",
	})
	if !fault.IsKind(err, fault.Timeout) {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if objects.count() != 0 {
		t.Error("no blobs should be stored after timeout")
	}
	if docs, _ := records.List(context.Background(), "alice"); len(docs) != 0 {
		t.Error("no document row should exist after timeout")
	}
}

type failingRecorder struct{}

func (failingRecorder) Create(context.Context, *model.Document) error {
	return errors.New("connection reset")
}

func TestRunRecordFailureIsInconsistent(t *testing.T) {
	tr := &fakeTranslator{
		statuses: []translator.Status{translator.StatusDone},
		result:   []byte("result"),
	}
	o := newTestOrchestrator(tr, newFakeObjects(), failingRecorder{})
	_, err := o.Run(context.Background(), Job{
		Owner: "alice", FileName: "a.txt", Data: []byte("x"), SourceLang: "ES", TargetLang: "EN-US",
	})
	if !fault.IsKind(err, fault.Inconsistent) {
		t.Fatalf("expected Inconsistent, got %v", err)
	}
}

func TestRunCompletesAfterCallerCancel(t *testing.T) {
	tr := &fakeTranslator{
		statuses: []translator.Status{translator.StatusDone},
		result:   []byte("result"),
	}
	objects := newFakeObjects()
	records := storage.NewMemoryDocuments()
	o := newTestOrchestrator(tr, objects, records)

	// Cancel shortly after the poll observes done; the store+record phase
	// runs on a detached context so the finished translation still lands.
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(2*time.Millisecond, cancel)
	res, err := o.Run(ctx, Job{
		Owner: "alice", FileName: "a.txt", Data: []byte("x"), SourceLang: "ES", TargetLang: "EN-US",
	})
	if err != nil {
		// Cancellation may have landed before the terminal poll; in that
		// case nothing should be stored.
		if objects.count() != 0 {
			t.Fatalf("cancelled run left %d blobs", objects.count())
		}
		return
	}
	if docs, _ := records.List(context.Background(), "alice"); len(docs) != 1 {
		t.Errorf("completed run should have recorded a document for %s", res.DocumentID)
	}
}
