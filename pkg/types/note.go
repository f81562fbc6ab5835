// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"io"
	"time"
)

// Export is one parsed .enex document. Name is the source file's base name
// without extension and doubles as the default notebook name.
type Export struct {
	Name  string  `json:"name" yaml:"name"`
	Notes []*Note `json:"notes" yaml:"notes"`
}

// Note holds one Evernote note as it appears in the export. Content is the
// raw ENML markup; it is stored, never rendered, by the reader.
type Note struct {
	Title   string    `json:"title" yaml:"title"`
	Content string    `json:"content" yaml:"content"`
	Created time.Time `json:"created" yaml:"created"`
	Updated time.Time `json:"updated" yaml:"updated"`

	// Tags preserves document order; duplicates are kept.
	Tags []string `json:"tags" yaml:"tags"`

	// Attributes is nil when the note has no note-attributes block.
	Attributes *NoteAttributes `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	Resources []*Resource `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// SourceURL returns the note's source URL, or "" when the note carries no
// attributes.
func (n *Note) SourceURL() string {
	if n.Attributes == nil {
		return ""
	}
	return n.Attributes.SourceURL
}

// NoteAttributes holds the optional note-attributes block. Numeric fields
// are zero when missing or unparsable.
type NoteAttributes struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Altitude  float64 `json:"altitude" yaml:"altitude"`
	Author    string  `json:"author,omitempty" yaml:"author,omitempty"`
	SourceURL string  `json:"source_url,omitempty" yaml:"source_url,omitempty"`
}

// Payload is a handle to decoded attachment bytes held in temporary storage.
type Payload interface {
	// Path is the location of the bytes in temporary storage.
	Path() string

	// Open returns a reader over the bytes. Callers close it.
	Open() (io.ReadCloser, error)
}

// Resource is a binary attachment of a note.
type Resource struct {
	// Payload is nil unless the export encoded the data as base64.
	Payload Payload `json:"-" yaml:"-"`

	Mime   string `json:"mime" yaml:"mime"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`

	// Attributes is nil when the resource has no resource-attributes block.
	Attributes *ResourceAttributes `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// SourceURL returns the resource's source URL, or "" when absent.
func (r *Resource) SourceURL() string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes.SourceURL
}

// ResourceAttributes holds the optional resource-attributes block.
type ResourceAttributes struct {
	FileName  string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
}
