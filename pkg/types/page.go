// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// PageRequest is one note transformed and ready to publish as a page.
type PageRequest struct {
	Title   string     `json:"title" yaml:"title"`
	Content string     `json:"content" yaml:"content"`
	Created *time.Time `json:"created,omitempty" yaml:"created,omitempty"`

	// SourceURL is rendered as a quote above the content when set.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// HasAttachments reports whether the page must be sent as multipart.
func (p *PageRequest) HasAttachments() bool {
	return len(p.Attachments) > 0
}

// Attachment is a binary part of a page. Name is the symbolic name the
// rewritten content refers to (src="name:<Name>").
type Attachment struct {
	Name        string  `json:"name" yaml:"name"`
	ContentType string  `json:"content_type" yaml:"content_type"`
	Width       int     `json:"width" yaml:"width"`
	Height      int     `json:"height" yaml:"height"`
	Payload     Payload `json:"-" yaml:"-"`
}

// CreatedPage is the decoded part of a page creation response. Raw keeps
// the full body since the service treats it as opaque.
type CreatedPage struct {
	ID     string          `json:"id" yaml:"id"`
	WebURL string          `json:"web_url,omitempty" yaml:"web_url,omitempty"`
	Raw    json.RawMessage `json:"-" yaml:"-"`
}

// Notebook is a notebook listed by the remote service.
type Notebook struct {
	ID          string    `json:"id" yaml:"id"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}
