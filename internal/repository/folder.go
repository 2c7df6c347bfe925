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

// FolderRepository wraps folder SQL, owner-scoped throughout.
type FolderRepository struct {
	pool *pgxpool.Pool
}

// NewFolderRepository constructs a repository.
func NewFolderRepository(pool *pgxpool.Pool) *FolderRepository {
	return &FolderRepository{pool: pool}
}

// Create inserts a folder.
func (r *FolderRepository) Create(ctx context.Context, folder *model.Folder) error {
	folder.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO folders (id, owner, name, created_at) VALUES ($1,$2,$3,$4)
	`, folder.ID, folder.Owner, folder.Name, folder.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

// Get returns a folder scoped to its owner.
func (r *FolderRepository) Get(ctx context.Context, id, owner string) (*model.Folder, error) {
	var folder model.Folder
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner, name, created_at FROM folders WHERE id=$1 AND owner=$2
	`, id, owner)
	if err := row.Scan(&folder.ID, &folder.Owner, &folder.Name, &folder.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "folder not found")
		}
		return nil, fmt.Errorf("select folder: %w", err)
	}
	return &folder, nil
}

// List returns all folders for owner.
func (r *FolderRepository) List(ctx context.Context, owner string) ([]*model.Folder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner, name, created_at FROM folders WHERE owner=$1 ORDER BY created_at
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("select folders: %w", err)
	}
	defer rows.Close()
	var folders []*model.Folder
	for rows.Next() {
		var folder model.Folder
		if err := rows.Scan(&folder.ID, &folder.Owner, &folder.Name, &folder.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, &folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}
