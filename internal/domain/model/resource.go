package model

import (
	"time"
)

type ResourceType string

const (
	TypeArticle     ResourceType = "article"
	TypeCodeSnippet ResourceType = "code_snippet"
	TypeBook        ResourceType = "book"
	TypeCourse      ResourceType = "course"
)

func (t ResourceType) Valid() bool {
	switch t {
	case TypeArticle, TypeCodeSnippet, TypeBook, TypeCourse:
		return true
	}
	return false
}

// Resource is the core polymorphic entity. Exactly one variant applies,
// selected by Type: article carries URL, code_snippet carries Code, book
// carries an optional Author, course carries optional Author and URL.
//
// UserID is the stored owner reference; responses expose User instead, the
// owner's profile resolved at read time so later profile edits show up on
// the next read.
type Resource struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        ResourceType `json:"type"`
	URL         *string      `json:"url,omitempty"`
	Code        *string      `json:"code,omitempty"`
	Author      *string      `json:"author,omitempty"`
	UserID      string       `json:"-"`
	User        *PublicUser  `json:"user,omitempty"`
	Tags        []Tag        `json:"tags"`
	CreatedAt   time.Time    `json:"created_at"`
}
