// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package onenote

import (
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/enex2onenote/pkg/types"
)

const (
	// presentationPart is the part name OneNote reads the page HTML from.
	presentationPart = "Presentation"

	contentTypeXHTML = "application/xhtml+xml"

	// createdLayout is the created meta value, with an explicit offset.
	createdLayout = "2006-01-02T15:04:05-07:00"
)

func newBoundary() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// writePage writes the request body for page and returns its content type.
func writePage(w io.Writer, page *types.PageRequest, boundary string) (string, error) {
	if !page.HasAttachments() {
		if err := writeHTML(w, page); err != nil {
			return "", err
		}
		return contentTypeXHTML, nil
	}

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return "", fmt.Errorf("setting boundary: %w", err)
	}

	part, err := mw.CreatePart(partHeader(presentationPart, "text/html"))
	if err != nil {
		return "", err
	}
	if err := writeHTML(part, page); err != nil {
		return "", err
	}

	for _, a := range page.Attachments {
		if err := writeAttachment(mw, a); err != nil {
			return "", err
		}
	}

	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

func writeAttachment(mw *multipart.Writer, a types.Attachment) error {
	if a.Payload == nil {
		return fmt.Errorf("attachment %q has no payload", a.Name)
	}
	rc, err := a.Payload.Open()
	if err != nil {
		return fmt.Errorf("attachment %q: %w", a.Name, err)
	}
	defer rc.Close()

	ct := a.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	part, err := mw.CreatePart(partHeader(a.Name, ct))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("attachment %q: %w", a.Name, err)
	}
	return nil
}

func partHeader(name, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", contentType)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// writeHTML writes the page document. Content is inserted as is; it is
// already markup.
func writeHTML(w io.Writer, page *types.PageRequest) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n  <head>\n")
	if strings.TrimSpace(page.Title) != "" {
		fmt.Fprintf(&b, "    <title>%s</title>\n", html.EscapeString(page.Title))
	}
	if page.Created != nil {
		fmt.Fprintf(&b, "    <meta name=\"created\" content=\"%s\" />\n", page.Created.Format(createdLayout))
	}
	b.WriteString("  </head>\n  <body>\n")
	if strings.TrimSpace(page.SourceURL) != "" {
		fmt.Fprintf(&b, "    <blockquote>%s</blockquote>\n", html.EscapeString(page.SourceURL))
	}
	fmt.Fprintf(&b, "    %s\n", page.Content)
	b.WriteString("  </body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}
