package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/document"
	"github.com/Strob0t/MissionControl/internal/port/database"
)

// DocumentService manages shared dashboard documents.
type DocumentService struct {
	store database.Store
	pub   *Publisher
	now   func() time.Time
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(store database.Store, pub *Publisher) *DocumentService {
	return &DocumentService{store: store, pub: pub, now: utcNow}
}

// List returns documents newest first, filtered by type and tag.
func (s *DocumentService) List(ctx context.Context, filter document.ListFilter) ([]document.Document, error) {
	if filter.Type != nil && !document.ValidType(*filter.Type) {
		return nil, fmt.Errorf("invalid document type %q: %w", *filter.Type, domain.ErrValidation)
	}
	filter.Limit = orDefault(filter.Limit, document.DefaultListLimit)
	return s.store.ListDocuments(ctx, filter)
}

// Get returns a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*document.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Create stores a document and records document_created.
func (s *DocumentService) Create(ctx context.Context, req document.CreateRequest) (*document.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	d := &document.Document{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		Type:      req.Type,
		Tags:      req.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	rec := &recorder{now: s.now}
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if err := tx.CreateDocument(ctx, d); err != nil {
			return err
		}
		return rec.record(ctx, tx, activity.DocumentCreated(d.Title))
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, d.ID, "created", rec)
	return d, nil
}

// Update patches a document and records document_updated.
func (s *DocumentService) Update(ctx context.Context, id string, req document.UpdateRequest) (*document.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec := &recorder{now: s.now}
	var updated *document.Document
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if err := tx.UpdateDocument(ctx, id, req, s.now()); err != nil {
			return err
		}
		var err error
		if updated, err = tx.GetDocument(ctx, id); err != nil {
			return err
		}
		return rec.record(ctx, tx, activity.DocumentUpdated(updated.Title))
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, id, "updated", rec)
	return updated, nil
}

// Delete removes a document and records document_deleted.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	rec := &recorder{now: s.now}
	err := s.store.InTx(ctx, func(tx database.Store) error {
		d, err := tx.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteDocument(ctx, id); err != nil {
			return err
		}
		return rec.record(ctx, tx, activity.DocumentDeleted(d.Title))
	})
	if err != nil {
		return err
	}

	s.changed(ctx, id, "deleted", rec)
	return nil
}

func (s *DocumentService) changed(ctx context.Context, id, action string, rec *recorder) {
	s.pub.Broadcast(ctx, ws.EventDocumentChanged, ws.DocumentChangedEvent{ID: id, Action: action})
	s.pub.Activities(ctx, rec.written...)
}
