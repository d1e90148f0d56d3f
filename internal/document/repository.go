// Package document provides read access to parsed contract documents.
// The parsing pipeline itself is an external collaborator; it stores
// ordered text chunks that this package reassembles for clause
// extraction.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNoChunks         = errors.New("document has no text chunks")
)

// Document is a parsed project document
type Document struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository provides document data access
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new document repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID retrieves a document scoped to a project
func (r *Repository) GetByID(ctx context.Context, projectID, documentID uuid.UUID) (*Document, error) {
	query := `
		SELECT id, project_id, name, type, status, created_at
		FROM documents
		WHERE id = $1 AND project_id = $2
	`

	d := &Document{}
	err := r.pool.QueryRow(ctx, query, documentID, projectID).Scan(
		&d.ID, &d.ProjectID, &d.Name, &d.Type, &d.Status, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// Text concatenates the document's ordered chunks into the full text
func (r *Repository) Text(ctx context.Context, documentID uuid.UUID) (string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT content FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return "", fmt.Errorf("query document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, content)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", ErrNoChunks
	}

	return strings.Join(chunks, "\n\n"), nil
}
