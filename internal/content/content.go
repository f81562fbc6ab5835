// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package content turns note markup into page requests.
//
// Embedded images (en-media elements of a bitmap type) are rewritten into
// img elements that refer to their attachment by name, and each note
// resource whose source URL carries one of those names is attached to the
// page. Everything else in the markup passes through.
package content

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/enex2onenote/pkg/types"
)

const (
	mediaTag     = "en-media"
	wrapperOpen  = "<en-note>"
	wrapperClose = "</en-note>"

	// namePrefix makes an img src refer to a multipart attachment.
	namePrefix = "name:"
)

// imageTypes are the media types rewritten into img elements.
var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// entities maps named character entities, which XHTML consumers do not
// define, to numeric references.
var entities = strings.NewReplacer(
	"&nbsp;", "&#160;",
	"&ensp;", "&#8194;",
	"&emsp;", "&#8195;",
	"&thinsp;", "&#8201;",
)

// Transformer builds page requests from notes.
type Transformer struct {
	logger *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger used to report skipped media and resources.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New returns a Transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Pages yields one page request per note of export, in note order. Each
// request is built when the consumer asks for it. Iteration stops after the
// first error.
func (t *Transformer) Pages(export *types.Export) iter.Seq2[*types.PageRequest, error] {
	return func(yield func(*types.PageRequest, error) bool) {
		for _, note := range export.Notes {
			page, err := t.Transform(note)
			if !yield(page, err) || err != nil {
				return
			}
		}
	}
}

// Transform rewrites the note's embedded media and pairs its resources
// with the rewritten references.
func (t *Transformer) Transform(note *types.Note) (*types.PageRequest, error) {
	body, hashes, err := t.rewrite(note.Content)
	if err != nil {
		return nil, fmt.Errorf("rewriting content of %q: %w", note.Title, err)
	}

	page := &types.PageRequest{
		Title:     note.Title,
		Content:   body,
		SourceURL: note.SourceURL(),
	}
	if !note.Created.IsZero() {
		created := note.Created
		page.Created = &created
	}

	for i, res := range note.Resources {
		name, ok := matchHash(hashes, res.SourceURL())
		if !ok {
			t.logger.Debug("resource not referenced by content",
				"note", note.Title, "resource", i+1, "mime", res.Mime)
			continue
		}
		if res.Payload == nil {
			t.logger.Debug("referenced resource has no payload",
				"note", note.Title, "resource", i+1, "hash", name)
			continue
		}
		page.Attachments = append(page.Attachments, types.Attachment{
			Name:        name,
			ContentType: res.Mime,
			Width:       res.Width,
			Height:      res.Height,
			Payload:     res.Payload,
		})
	}
	return page, nil
}

// rewrite converts accepted en-media elements and returns the markup with
// the hashes it referenced in first-seen order. It works on the token stream
// and copies every other token byte for byte, so the markup keeps its shape.
// XML declarations and doctypes are dropped.
func (t *Transformer) rewrite(content string) (string, []string, error) {
	z := html.NewTokenizer(strings.NewReader(entities.Replace(content)))
	r := &rewriter{logger: t.logger, seen: map[string]bool{}}

	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", nil, fmt.Errorf("tokenizing markup: %w", err)
			}
			return stripWrapper(strings.TrimSpace(b.String())), r.hashes, nil
		}

		// Copy before Token, which lowercases names inside the buffer.
		raw := string(z.Raw())
		switch tt {
		case html.DoctypeToken:
			continue

		case html.CommentToken:
			// The tokenizer reports <?xml ...?> as a comment starting with "?".
			if strings.HasPrefix(z.Token().Data, "?") {
				continue
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != mediaTag {
				break
			}
			img, converted := r.media(tok)
			if converted {
				raw = img
			}
			if tt == html.StartTagToken {
				r.open = append(r.open, converted)
			}

		case html.EndTagToken:
			if z.Token().Data == mediaTag && len(r.open) > 0 {
				converted := r.open[len(r.open)-1]
				r.open = r.open[:len(r.open)-1]
				if converted {
					continue
				}
			}
		}
		b.WriteString(raw)
	}
}

type rewriter struct {
	logger *slog.Logger
	hashes []string
	seen   map[string]bool

	// open records, per unclosed en-media start tag, whether it became an
	// img, in which case its end tag is dropped.
	open []bool
}

// media renders an en-media start tag as an img element when its type is
// an accepted image type and it carries a hash.
func (r *rewriter) media(tok html.Token) (string, bool) {
	typ := strings.ToLower(strings.TrimSpace(attr(tok, "type")))
	if !imageTypes[typ] {
		r.logger.Debug("skipping media of unsupported type", "type", typ)
		return "", false
	}
	hash := attr(tok, "hash")
	if hash == "" {
		r.logger.Debug("skipping media without hash", "type", typ)
		return "", false
	}

	if !r.seen[hash] {
		r.seen[hash] = true
		r.hashes = append(r.hashes, hash)
	}

	var b strings.Builder
	b.WriteString("<img")
	for _, a := range tok.Attr {
		if a.Key == "hash" {
			continue
		}
		fmt.Fprintf(&b, ` %s="%s"`, a.Key, html.EscapeString(a.Val))
	}
	fmt.Fprintf(&b, ` src="%s"/>`, html.EscapeString(namePrefix+hash))
	return b.String(), true
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// stripWrapper removes the en-note tags only when they bracket the whole
// string exactly.
func stripWrapper(s string) string {
	if len(s) >= len(wrapperOpen)+len(wrapperClose) &&
		strings.HasPrefix(s, wrapperOpen) && strings.HasSuffix(s, wrapperClose) {
		return s[len(wrapperOpen) : len(s)-len(wrapperClose)]
	}
	return s
}

// matchHash returns the first hash contained in sourceURL.
func matchHash(hashes []string, sourceURL string) (string, bool) {
	if sourceURL == "" {
		return "", false
	}
	for _, h := range hashes {
		if strings.Contains(sourceURL, h) {
			return h, true
		}
	}
	return "", false
}
