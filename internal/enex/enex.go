// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enex reads Evernote export (.enex) documents into an Export.
//
// Every note element is collected wherever it sits in the tree. Only the
// created and updated timestamps are mandatory; every other field falls back
// to a zero value when it is missing or does not parse. Base64 resource data
// is decoded into the caller's tempstore.Store, which owns the files.
package enex

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html/charset"

	"github.com/pdiddy/enex2onenote/internal/tempstore"
	"github.com/pdiddy/enex2onenote/pkg/types"
)

// TimeLayout is the fixed timestamp format of created/updated fields.
const TimeLayout = "20060102T150405Z"

const encodingBase64 = "base64"

// ParseError reports a fatal problem with the export document. Note is the
// 1-based position of the offending note, or 0 for document-level errors.
type ParseError struct {
	Note  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Note > 0 && e.Field != "":
		return fmt.Sprintf("note %d: %s: %v", e.Note, e.Field, e.Err)
	case e.Note > 0:
		return fmt.Sprintf("note %d: %v", e.Note, e.Err)
	default:
		return fmt.Sprintf("malformed export: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrNoRoot is wrapped by the ParseError returned for a document without
// any element.
var ErrNoRoot = errors.New("document has no root element")

// Load reads the export at path. The Export is named after the file's base
// name without extension.
func Load(path string, store *tempstore.Store) (*types.Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	export, err := Read(name, f, store)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return export, nil
}

// Read parses an export document from r. Payloads of base64 resources are
// written to store; on error, handles written so far stay owned by store.
func Read(name string, r io.Reader, store *tempstore.Store) (*types.Export, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	export := &types.Export{Name: name, Notes: []*types.Note{}}
	sawRoot := false

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "note" {
			continue
		}

		idx := len(export.Notes) + 1
		var raw rawNote
		if err := d.DecodeElement(&raw, &start); err != nil {
			return nil, &ParseError{Note: idx, Err: err}
		}

		note, err := raw.toNote(idx, store)
		if err != nil {
			return nil, err
		}
		export.Notes = append(export.Notes, note)
	}

	if !sawRoot {
		return nil, &ParseError{Err: ErrNoRoot}
	}
	return export, nil
}

// ENEX XML structures. Numeric fields stay strings until toNote applies the
// zero-default rule.
type rawNote struct {
	Title      string             `xml:"title"`
	Content    string             `xml:"content"`
	Created    string             `xml:"created"`
	Updated    string             `xml:"updated"`
	Tags       []string           `xml:"tag"`
	Attributes *rawNoteAttributes `xml:"note-attributes"`
	Resources  []rawResource      `xml:"resource"`
}

type rawNoteAttributes struct {
	Latitude  string `xml:"latitude"`
	Longitude string `xml:"longitude"`
	Altitude  string `xml:"altitude"`
	Author    string `xml:"author"`
	SourceURL string `xml:"source-url"`
}

type rawResource struct {
	Data       *rawData               `xml:"data"`
	Mime       string                 `xml:"mime"`
	Width      string                 `xml:"width"`
	Height     string                 `xml:"height"`
	Attributes *rawResourceAttributes `xml:"resource-attributes"`
}

type rawResourceAttributes struct {
	FileName  string `xml:"file-name"`
	SourceURL string `xml:"source-url"`
}

type rawData struct {
	Encoding string `xml:"encoding,attr"`
	Body     string `xml:",chardata"`
}

func (raw *rawNote) toNote(idx int, store *tempstore.Store) (*types.Note, error) {
	created, err := parseTime(raw.Created)
	if err != nil {
		return nil, &ParseError{Note: idx, Field: "created", Err: err}
	}
	updated, err := parseTime(raw.Updated)
	if err != nil {
		return nil, &ParseError{Note: idx, Field: "updated", Err: err}
	}

	note := &types.Note{
		Title:   raw.Title,
		Content: raw.Content,
		Created: created,
		Updated: updated,
		Tags:    splitTags(raw.Tags),
	}

	if a := raw.Attributes; a != nil {
		note.Attributes = &types.NoteAttributes{
			Latitude:  parseFloat(a.Latitude),
			Longitude: parseFloat(a.Longitude),
			Altitude:  parseFloat(a.Altitude),
			Author:    a.Author,
			SourceURL: a.SourceURL,
		}
	}

	for i := range raw.Resources {
		res, err := raw.Resources[i].toResource(store)
		if err != nil {
			return nil, &ParseError{Note: idx, Field: fmt.Sprintf("resource %d", i+1), Err: err}
		}
		note.Resources = append(note.Resources, res)
	}
	return note, nil
}

func (raw *rawResource) toResource(store *tempstore.Store) (*types.Resource, error) {
	res := &types.Resource{
		Mime:   raw.Mime,
		Width:  parseInt(raw.Width),
		Height: parseInt(raw.Height),
	}
	if a := raw.Attributes; a != nil {
		res.Attributes = &types.ResourceAttributes{
			FileName:  a.FileName,
			SourceURL: a.SourceURL,
		}
	}

	if raw.Data == nil || raw.Data.Encoding != encodingBase64 {
		return res, nil
	}

	data, err := base64.StdEncoding.DecodeString(stripSpace(raw.Data.Body))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 data: %w", err)
	}
	h, err := store.Write(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("storing payload: %w", err)
	}
	res.Payload = h
	return res, nil
}

// parseTime parses a mandatory timestamp in TimeLayout as UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// splitTags splits every tag field on commas, keeping order and duplicates.
// No tag field yields an empty slice.
func splitTags(fields []string) []string {
	tags := []string{}
	for _, f := range fields {
		tags = append(tags, strings.Split(f, ",")...)
	}
	return tags
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

// stripSpace drops the line breaks and indentation exports put inside
// base64 bodies.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
