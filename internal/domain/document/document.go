// Package document defines free-form notes shared on the dashboard.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain"
)

// Type classifies a document.
type Type string

const (
	TypeNote   Type = "note"
	TypeCode   Type = "code"
	TypeConfig Type = "config"
	TypeOther  Type = "other"
)

// ValidType reports whether t is a known document type.
func ValidType(t Type) bool {
	switch t {
	case TypeNote, TypeCode, TypeConfig, TypeOther:
		return true
	}
	return false
}

// DefaultListLimit caps document listings.
const DefaultListLimit = 100

// Document is a titled piece of shared content.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      Type      `json:"type"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTag reports whether the document carries tag.
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CreateRequest holds the fields needed to create a document.
type CreateRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Type    Type     `json:"type"`
	Tags    []string `json:"tags,omitempty"`
}

// Validate checks the request and defaults the type to note.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if r.Type == "" {
		r.Type = TypeNote
	}
	if !ValidType(r.Type) {
		return fmt.Errorf("invalid document type %q: %w", r.Type, domain.ErrValidation)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return nil
}

// UpdateRequest is a partial patch; nil fields are left untouched.
type UpdateRequest struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Type    *Type     `json:"type,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// Validate checks the fields that are present.
func (r *UpdateRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return fmt.Errorf("title must not be empty: %w", domain.ErrValidation)
	}
	if r.Type != nil && !ValidType(*r.Type) {
		return fmt.Errorf("invalid document type %q: %w", *r.Type, domain.ErrValidation)
	}
	return nil
}

// ListFilter narrows document listings. Tag filtering is applied after the
// store query.
type ListFilter struct {
	Type  *Type
	Tag   string
	Limit int
}
