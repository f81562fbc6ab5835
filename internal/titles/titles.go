// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package titles normalizes note titles so they are valid, distinct OneNote
// section and page names.
//
// Normalization is a fixed pipeline: uniqueness, then forbidden-character
// cleanup, then the length cut. Cutting before de-duplication would undo
// the disambiguation, so the passes are not exported individually.
package titles

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/pdiddy/enex2onenote/pkg/types"
)

const (
	// MaxLength is the longest title, in characters, OneNote accepts for a
	// section name.
	MaxLength = 49

	// DuplicateLayout formats the creation time appended to a repeated title.
	DuplicateLayout = "2006-01-02 15:04:05"

	// widened are replaced by their full-width forms before separator
	// cleanup, so they survive as visible characters.
	widened = "!?&%:"

	// separators are illegal in section and page names.
	separators = `~#%&*{}|\:"<>?/^`
)

// pass rewrites the titles of notes in place.
type pass func(notes []*types.Note)

// Normalizer applies the title passes in their required order.
type Normalizer struct {
	passes []pass
}

// New returns a Normalizer with the uniqueness, character cleanup, and
// length passes in that order.
func New() *Normalizer {
	return &Normalizer{
		passes: []pass{uniquePass, cleanPass, cutPass},
	}
}

// Report lists titles that are still shared by more than one note after
// normalization, in first-seen order.
type Report struct {
	Collisions []string
}

// HasCollisions reports whether any title is still shared.
func (r Report) HasCollisions() bool {
	return len(r.Collisions) > 0
}

// Apply normalizes the titles of notes in place. Two notes with the same
// title and the same creation time cannot be told apart by the uniqueness
// pass; they are listed in the Report and left as they are.
func (n *Normalizer) Apply(notes []*types.Note) Report {
	for _, p := range n.passes {
		p(notes)
	}
	return Report{Collisions: collisions(notes)}
}

// uniquePass appends the creation time to any title already used by an
// earlier note.
func uniquePass(notes []*types.Note) {
	seen := make(map[string]bool, len(notes))
	for _, note := range notes {
		if seen[note.Title] {
			note.Title = note.Title + "(" + note.Created.Format(DuplicateLayout) + ")"
		}
		seen[note.Title] = true
	}
}

func cleanPass(notes []*types.Note) {
	for _, note := range notes {
		note.Title = clean(note.Title)
	}
}

func cutPass(notes []*types.Note) {
	for _, note := range notes {
		note.Title = cut(note.Title)
	}
}

// clean widens the characters in widened, then splits on separators and
// joins the trimmed, non-empty pieces with single spaces.
func clean(title string) string {
	title = strings.Map(func(r rune) rune {
		if strings.ContainsRune(widened, r) {
			w, _ := utf8.DecodeRuneInString(width.Widen.String(string(r)))
			return w
		}
		return r
	}, title)

	pieces := strings.FieldsFunc(title, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
	kept := pieces[:0]
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// cut truncates title to MaxLength characters.
func cut(title string) string {
	if utf8.RuneCountInString(title) <= MaxLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:MaxLength])
}

func collisions(notes []*types.Note) []string {
	count := make(map[string]int, len(notes))
	var order []string
	for _, note := range notes {
		if count[note.Title] == 0 {
			order = append(order, note.Title)
		}
		count[note.Title]++
	}
	var dup []string
	for _, t := range order {
		if count[t] > 1 {
			dup = append(dup, t)
		}
	}
	return dup
}
