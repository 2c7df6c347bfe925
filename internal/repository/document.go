package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/model"
)

// DocumentRepository wraps all document SQL used by the API and worker.
// Every query filters by owner so access control is enforced at the data
// layer, not just in handlers.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create inserts a document record. Called only after both artifacts are
// durably stored.
func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, owner, file_name, original_key, translated_key, source_lang, target_lang, folder_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, doc.ID, doc.Owner, doc.FileName, doc.OriginalKey, doc.TranslatedKey, doc.SourceLang, doc.TargetLang, doc.FolderID, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get returns a document scoped to its owner. Missing rows and rows owned by
// a different identity are indistinguishable to the caller.
func (r *DocumentRepository) Get(ctx context.Context, id, owner string) (*model.Document, error) {
	var doc model.Document
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner, file_name, original_key, translated_key, source_lang, target_lang, folder_id, created_at, updated_at
		FROM documents WHERE id=$1 AND owner=$2
	`, id, owner)
	if err := row.Scan(&doc.ID, &doc.Owner, &doc.FileName, &doc.OriginalKey, &doc.TranslatedKey,
		&doc.SourceLang, &doc.TargetLang, &doc.FolderID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "document not found")
		}
		return nil, fmt.Errorf("select document: %w", err)
	}
	return &doc, nil
}

// List returns all documents for owner, most recently created first.
func (r *DocumentRepository) List(ctx context.Context, owner string) ([]*model.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner, file_name, original_key, translated_key, source_lang, target_lang, folder_id, created_at, updated_at
		FROM documents WHERE owner=$1 ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()
	var docs []*model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Owner, &doc.FileName, &doc.OriginalKey, &doc.TranslatedKey,
			&doc.SourceLang, &doc.TargetLang, &doc.FolderID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document row scoped to its owner.
func (r *DocumentRepository) Delete(ctx context.Context, id, owner string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id=$1 AND owner=$2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.NotFound, "document not found")
	}
	return nil
}

// SetFolder moves a document into a folder, or out of any folder when
// folderID is nil.
func (r *DocumentRepository) SetFolder(ctx context.Context, id, owner string, folderID *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents SET folder_id=$1, updated_at=$2 WHERE id=$3 AND owner=$4
	`, folderID, time.Now().UTC(), id, owner)
	if err != nil {
		return fmt.Errorf("update document folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.NotFound, "document not found")
	}
	return nil
}
