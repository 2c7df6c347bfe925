// Package docs reconstructs user-facing document records from stored
// metadata plus naming-scheme inversion, and serves artifact content. It
// also covers folder organization.
package docs

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/language"
	"github.com/dharsanguruparan/LinguaDrop/internal/model"
	"github.com/dharsanguruparan/LinguaDrop/internal/naming"
	pdfutil "github.com/dharsanguruparan/LinguaDrop/internal/pdf"
)

// DocumentStore is the metadata slice the service needs. All operations are
// owner-scoped by the store itself.
type DocumentStore interface {
	Get(ctx context.Context, id, owner string) (*model.Document, error)
	List(ctx context.Context, owner string) ([]*model.Document, error)
	Delete(ctx context.Context, id, owner string) error
	SetFolder(ctx context.Context, id, owner string, folderID *string) error
}

// FolderStore is the folder metadata slice.
type FolderStore interface {
	Create(ctx context.Context, folder *model.Folder) error
	Get(ctx context.Context, id, owner string) (*model.Folder, error)
	List(ctx context.Context, owner string) ([]*model.Folder, error)
}

// ObjectStore is the blob access slice.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Buckets names the two artifact buckets.
type Buckets struct {
	Uploads    string
	Translated string
}

// View is one document rendered for a caller, including artifact content.
type View struct {
	ID             string  `json:"id"`
	OriginalName   string  `json:"originalName"`
	TranslatedName string  `json:"translatedName"`
	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
	FolderID       *string `json:"folderId,omitempty"`
	Content        string  `json:"content"`
}

// Listing is one row of the documents list.
type Listing struct {
	ID             string  `json:"id"`
	OriginalName   string  `json:"originalName"`
	TranslatedName string  `json:"translatedName"`
	OriginalKey    string  `json:"originalKey"`
	TranslatedKey  string  `json:"translatedKey"`
	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
	FolderID       *string `json:"folderId,omitempty"`
}

// Service serves retrieval, listing, deletion and folder organization.
type Service struct {
	docs    DocumentStore
	folders FolderStore
	objects ObjectStore
	buckets Buckets
}

// NewService constructs a Service.
func NewService(docs DocumentStore, folders FolderStore, objects ObjectStore, buckets Buckets) *Service {
	return &Service{docs: docs, folders: folders, objects: objects, buckets: buckets}
}

// Get returns one document view. viewLang selects which side is read: when
// it equals the record's target language the translated artifact is served,
// otherwise the original. Cross-owner requests fail with NotFound.
func (s *Service) Get(ctx context.Context, id, owner, viewLang string) (*View, error) {
	doc, err := s.docs.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	bucket, key := s.buckets.Uploads, doc.OriginalKey
	if language.Normalize(viewLang) == doc.TargetLang {
		bucket, key = s.buckets.Translated, doc.TranslatedKey
	}
	data, err := s.objects.Get(ctx, bucket, key)
	if err != nil {
		return nil, fault.Wrap(fault.StorageReadFailed, "read artifact", err)
	}
	return &View{
		ID:             doc.ID,
		OriginalName:   originalName(doc),
		TranslatedName: naming.TranslatedDisplayName(originalName(doc)),
		SourceLanguage: doc.SourceLang,
		TargetLanguage: doc.TargetLang,
		FolderID:       doc.FolderID,
		Content:        renderContent(doc.FileName, data),
	}, nil
}

// List projects all of owner's documents into display rows, most recently
// created first.
func (s *Service) List(ctx context.Context, owner string) ([]Listing, error) {
	docs, err := s.docs.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	listings := make([]Listing, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, Listing{
			ID:             doc.ID,
			OriginalName:   originalName(doc),
			TranslatedName: naming.TranslatedDisplayName(originalName(doc)),
			OriginalKey:    doc.OriginalKey,
			TranslatedKey:  doc.TranslatedKey,
			SourceLanguage: doc.SourceLang,
			TargetLanguage: doc.TargetLang,
			FolderID:       doc.FolderID,
		})
	}
	return listings, nil
}

// Delete removes both artifacts and then the metadata row. Blob deletion is
// best effort: a failed delete is logged and the row is removed anyway, so
// at worst two orphaned objects remain for an out-of-band sweep.
func (s *Service) Delete(ctx context.Context, id, owner string) error {
	doc, err := s.docs.Get(ctx, id, owner)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, s.buckets.Uploads, doc.OriginalKey); err != nil {
		log.Printf("delete original %s: %v", doc.OriginalKey, err)
	}
	if err := s.objects.Delete(ctx, s.buckets.Translated, doc.TranslatedKey); err != nil {
		log.Printf("delete translated %s: %v", doc.TranslatedKey, err)
	}
	return s.docs.Delete(ctx, id, owner)
}

// Move assigns the document to a folder, or clears the assignment when
// folderID is nil. Folder ownership is verified before the update.
func (s *Service) Move(ctx context.Context, id, owner string, folderID *string) error {
	if folderID != nil {
		if _, err := s.folders.Get(ctx, *folderID, owner); err != nil {
			return err
		}
	}
	return s.docs.SetFolder(ctx, id, owner, folderID)
}

// CreateFolder creates a named folder for owner.
func (s *Service) CreateFolder(ctx context.Context, owner, name string) (*model.Folder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fault.New(fault.InvalidInput, "missing folder name")
	}
	folder := &model.Folder{
		ID:    uuid.NewString(),
		Owner: owner,
		Name:  strings.TrimSpace(name),
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// ListFolders returns owner's folders.
func (s *Service) ListFolders(ctx context.Context, owner string) ([]*model.Folder, error) {
	return s.folders.List(ctx, owner)
}

// DownloadURL presigns a GET for one side of the document. displayName
// carrying the translated- prefix selects the translated artifact.
func (s *Service) DownloadURL(ctx context.Context, id, owner, displayName string, ttl time.Duration) (string, error) {
	doc, err := s.docs.Get(ctx, id, owner)
	if err != nil {
		return "", err
	}
	bucket, key := s.buckets.Uploads, doc.OriginalKey
	if strings.HasPrefix(displayName, "translated-") {
		bucket, key = s.buckets.Translated, doc.TranslatedKey
	}
	url, err := s.objects.PresignGet(ctx, bucket, key, ttl)
	if err != nil {
		return "", fault.Wrap(fault.StorageReadFailed, "presign artifact", err)
	}
	return url, nil
}

// originalName recovers the display filename from the stored key, falling
// back to the recorded filename if the key does not parse.
func originalName(doc *model.Document) string {
	name, err := naming.OriginalFilename(doc.OriginalKey)
	if err != nil {
		log.Printf("invert key %s: %v", doc.OriginalKey, err)
		return doc.FileName
	}
	return name
}

// renderContent turns artifact bytes into text. PDFs are run through the
// extractor so the chat feature can reason over them; everything else is
// assumed to be UTF-8 text.
func renderContent(filename string, data []byte) string {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		text, err := pdfutil.ExtractText(data)
		if err != nil {
			log.Printf("extract pdf text from %s: %v", filename, err)
			return ""
		}
		return text
	}
	return string(data)
}
