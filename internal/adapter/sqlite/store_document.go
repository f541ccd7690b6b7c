package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/document"
)

// --- Documents ---

const documentColumns = `id, title, content, type, tags, created_at, updated_at`

func scanDocument(row scannable) (document.Document, error) {
	var d document.Document
	var tags jsonStrings
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.Type, &tags, &d.CreatedAt, &d.UpdatedAt)
	d.Tags = orEmpty([]string(tags))
	return d, err
}

func (s *Store) CreateDocument(ctx context.Context, d *document.Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Content, string(d.Type), jsonStrings(d.Tags), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get document %s", id)
	}
	return &d, nil
}

func (s *Store) ListDocuments(ctx context.Context, filter document.ListFilter) ([]document.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE 1 = 1`
	var args []any
	if filter.Type != nil {
		q += ` AND type = ?`
		args = append(args, string(*filter.Type))
	}
	if filter.Tag != "" {
		q += ` AND EXISTS (SELECT 1 FROM json_each(documents.tags) WHERE json_each.value = ?)`
		args = append(args, filter.Tag)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = document.DefaultListLimit
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return orEmpty(docs), rows.Err()
}

func (s *Store) UpdateDocument(ctx context.Context, id string, req document.UpdateRequest, at time.Time) error {
	var p patch
	if req.Title != nil {
		p.set("title", *req.Title)
	}
	if req.Content != nil {
		p.set("content", *req.Content)
	}
	if req.Type != nil {
		p.set("type", string(*req.Type))
	}
	if req.Tags != nil {
		p.set("tags", jsonStrings(*req.Tags))
	}
	p.set("updated_at", at)

	q, args := p.build("documents", id)
	res, err := s.db.ExecContext(ctx, q, args...)
	return execExpectOne(res, err, "update document %s", id)
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return execExpectOne(res, err, "delete document %s", id)
}
