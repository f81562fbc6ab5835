// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package importer runs one export through the whole pipeline: read the
// export, normalize titles, transform notes into pages, and publish them
// into a new notebook.
//
// Decoded payloads live in a run-scoped temp store that is released when Run
// returns, whether publishing succeeded or not.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/enex2onenote/internal/content"
	"github.com/pdiddy/enex2onenote/internal/enex"
	"github.com/pdiddy/enex2onenote/internal/ledger"
	"github.com/pdiddy/enex2onenote/internal/tempstore"
	"github.com/pdiddy/enex2onenote/internal/titles"
	"github.com/pdiddy/enex2onenote/pkg/types"
)

// untitledSection names a section whose note has an empty title.
const untitledSection = "Untitled"

// Publisher creates notebooks, sections, and pages on the remote service.
// *onenote.Client implements it.
type Publisher interface {
	CreateNotebook(ctx context.Context, name string) (string, error)
	CreateSection(ctx context.Context, notebookID, name string) (string, error)
	CreatePage(ctx context.Context, sectionID string, page *types.PageRequest) (*types.CreatedPage, error)
}

// Recorder keeps a history of runs. *ledger.Ledger and ledger.Nop implement it.
type Recorder interface {
	StartRun(ctx context.Context, export, exportPath string) (string, error)
	SetNotebook(ctx context.Context, runID, name, notebookID string) error
	RecordPage(ctx context.Context, runID string, p ledger.Page) error
	FinishRun(ctx context.Context, runID string, runErr error) error
}

// Summary describes what a run did. After a failed run it counts what was
// created before the failure.
type Summary struct {
	Export      string
	Notebook    string
	NotebookID  string
	Notes       int
	Sections    int
	Pages       int
	Attachments int
	Collisions  []string
	DryRun      bool
}

func (s Summary) String() string {
	if s.DryRun {
		return fmt.Sprintf("Dry run: %d pages prepared for notebook %q", s.Notes, s.Notebook)
	}
	return fmt.Sprintf("Import summary: %d of %d pages created in notebook %q (%d sections, %d attachments)",
		s.Pages, s.Notes, s.Notebook, s.Sections, s.Attachments)
}

// Importer wires the pipeline stages together. Publisher may be nil for dry
// runs. A nil Recorder records nothing, a nil Logger discards, and a nil Out
// discards progress.
type Importer struct {
	Publisher Publisher
	Recorder  Recorder
	Logger    *slog.Logger
	Out       io.Writer
}

// Run imports the export at path. Input errors abort before any remote call.
// The first publishing error stops the run and is returned.
func (im *Importer) Run(ctx context.Context, path string, cfg types.ImportConfig) (sum Summary, err error) {
	layout := cfg.Layout
	if layout == "" {
		layout = types.LayoutSectionPerNote
	}
	if !layout.Valid() {
		return sum, fmt.Errorf("unknown layout %q", cfg.Layout)
	}
	if !cfg.DryRun && im.Publisher == nil {
		return sum, errors.New("no publisher configured")
	}

	log := im.logger()

	store, err := tempstore.New(cfg.TempDir)
	if err != nil {
		return sum, fmt.Errorf("creating temp store: %w", err)
	}
	defer func() {
		if rerr := store.Release(); rerr != nil {
			log.Warn("releasing temp store", "dir", store.Dir(), "error", rerr)
		}
	}()

	export, err := enex.Load(path, store)
	if err != nil {
		return sum, err
	}
	log.Info("export loaded", "export", export.Name, "notes", len(export.Notes), "payloads", store.Len())

	report := titles.New().Apply(export.Notes)
	for _, title := range report.Collisions {
		log.Warn("title collision", "title", title)
		if !cfg.DryRun {
			fmt.Fprintf(im.out(), "warning: duplicate title %q\n", title)
		}
	}

	sum = Summary{
		Export:     export.Name,
		Notebook:   firstNonEmpty(cfg.Notebook, export.Name),
		Notes:      len(export.Notes),
		Collisions: report.Collisions,
		DryRun:     cfg.DryRun,
	}

	tr := content.New(content.WithLogger(log.With("component", "content")))
	if cfg.DryRun {
		return sum, im.preview(export, tr, layout, firstNonEmpty(cfg.Section, export.Name), sum)
	}
	return im.publish(ctx, path, export, tr, layout, firstNonEmpty(cfg.Section, export.Name), sum)
}

func (im *Importer) publish(ctx context.Context, path string, export *types.Export, tr *content.Transformer,
	layout types.Layout, sectionName string, sum Summary) (_ Summary, err error) {
	log := im.logger()
	out := im.out()
	rec := im.recorder()

	runID, rerr := rec.StartRun(ctx, export.Name, path)
	if rerr != nil {
		log.Warn("recording run", "error", rerr)
		rec = ledger.Nop{}
	}
	defer func() {
		if ferr := rec.FinishRun(context.WithoutCancel(ctx), runID, err); ferr != nil {
			log.Warn("recording run result", "error", ferr)
		}
	}()

	notebookID, err := im.Publisher.CreateNotebook(ctx, sum.Notebook)
	if err != nil {
		return sum, err
	}
	sum.NotebookID = notebookID
	fmt.Fprintf(out, "notebook: %s\n", sum.Notebook)
	log.Info("notebook created", "name", sum.Notebook, "id", notebookID)
	if rerr := rec.SetNotebook(ctx, runID, sum.Notebook, notebookID); rerr != nil {
		log.Warn("recording notebook", "error", rerr)
	}

	var shared string
	for page, perr := range tr.Pages(export) {
		if perr != nil {
			return sum, perr
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		sectionID := shared
		if layout == types.LayoutSectionPerNote || sectionID == "" {
			name := sectionName
			if layout == types.LayoutSectionPerNote {
				name = firstNonEmpty(page.Title, untitledSection)
			}
			sectionID, err = im.Publisher.CreateSection(ctx, notebookID, name)
			if err != nil {
				return sum, err
			}
			sum.Sections++
			log.Debug("section created", "name", name, "id", sectionID)
			if layout == types.LayoutSingleSection {
				shared = sectionID
			}
		}

		var created *types.CreatedPage
		created, err = im.Publisher.CreatePage(ctx, sectionID, page)
		if err != nil {
			return sum, err
		}
		sum.Pages++
		sum.Attachments += len(page.Attachments)

		fmt.Fprintf(out, "created: %s\n", page.Title)
		log.Debug("page created", "title", page.Title, "id", created.ID, "attachments", len(page.Attachments))

		rerr := rec.RecordPage(ctx, runID, ledger.Page{
			Title:       page.Title,
			SectionID:   sectionID,
			PageID:      created.ID,
			WebURL:      created.WebURL,
			Attachments: len(page.Attachments),
		})
		if rerr != nil {
			log.Warn("recording page", "title", page.Title, "error", rerr)
		}
	}

	fmt.Fprintf(out, "\n%s\n", sum)
	return sum, nil
}

type previewDoc struct {
	Export   string        `yaml:"export"`
	Notebook string        `yaml:"notebook"`
	Layout   types.Layout  `yaml:"layout"`
	Pages    []previewPage `yaml:"pages"`
}

type previewPage struct {
	Section           string `yaml:"section"`
	types.PageRequest `yaml:",inline"`
}

// preview writes the page requests a publish would send, as YAML.
func (im *Importer) preview(export *types.Export, tr *content.Transformer, layout types.Layout, sectionName string, sum Summary) error {
	doc := previewDoc{
		Export:   export.Name,
		Notebook: sum.Notebook,
		Layout:   layout,
		Pages:    make([]previewPage, 0, len(export.Notes)),
	}
	for page, err := range tr.Pages(export) {
		if err != nil {
			return err
		}
		section := sectionName
		if layout == types.LayoutSectionPerNote {
			section = firstNonEmpty(page.Title, untitledSection)
		}
		doc.Pages = append(doc.Pages, previewPage{Section: section, PageRequest: *page})
	}

	enc := yaml.NewEncoder(im.out())
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding preview: %w", err)
	}
	return enc.Close()
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return im.Logger
}

func (im *Importer) out() io.Writer {
	if im.Out == nil {
		return io.Discard
	}
	return im.Out
}

func (im *Importer) recorder() Recorder {
	if im.Recorder == nil {
		return ledger.Nop{}
	}
	return im.Recorder
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
