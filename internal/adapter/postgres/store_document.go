package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/document"
)

const documentColumns = `id, title, content, type, tags, created_at, updated_at`

func scanDocument(row scannable) (document.Document, error) {
	var d document.Document
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.Type, &d.Tags, &d.CreatedAt, &d.UpdatedAt)
	d.Tags = orEmpty(d.Tags)
	return d, err
}

// --- Documents ---

func (s *Store) CreateDocument(ctx context.Context, d *document.Document) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.Title, d.Content, string(d.Type), pgTextArray(d.Tags), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	d, err := scanDocument(s.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get document %s", id)
	}
	return &d, nil
}

func (s *Store) ListDocuments(ctx context.Context, filter document.ListFilter) ([]document.Document, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = document.DefaultListLimit
	}
	var docType *string
	if filter.Type != nil {
		t := string(*filter.Type)
		docType = &t
	}
	var tag *string
	if filter.Tag != "" {
		tag = &filter.Tag
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE ($1::text IS NULL OR type = $1) AND ($2::text IS NULL OR $2 = ANY(tags))
		 ORDER BY created_at DESC, id DESC LIMIT $3`, docType, tag, limit)
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
		p.set("tags", pgTextArray(*req.Tags))
	}
	p.set("updated_at", at)

	q, args := p.build("documents", id)
	tag, err := s.db.Exec(ctx, q, args...)
	return execExpectOne(tag, err, "update document %s", id)
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete document %s", id)
}
