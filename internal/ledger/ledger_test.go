// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/enex2onenote/pkg/types"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(types.LedgerConfig{Path: filepath.Join(t.TempDir(), "state", "imports.db")})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	// Deterministic, strictly increasing clock.
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return l
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(types.LedgerConfig{})
	assert.Error(t, err)
}

func TestLedger_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	runID, err := l.StartRun(ctx, "Travel", "/exports/Travel.enex")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, l.SetNotebook(ctx, runID, "Travel", "nb-1"))
	require.NoError(t, l.RecordPage(ctx, runID, Page{Title: "Trip", SectionID: "s-1", PageID: "p-1", Attachments: 2}))
	require.NoError(t, l.RecordPage(ctx, runID, Page{Title: "Hotel", SectionID: "s-2", PageID: "p-2", WebURL: "https://x/p-2"}))
	require.NoError(t, l.FinishRun(ctx, runID, nil))

	runs, err := l.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, runID, r.ID)
	assert.Equal(t, "Travel", r.Export)
	assert.Equal(t, "/exports/Travel.enex", r.ExportPath)
	assert.Equal(t, "nb-1", r.NotebookID)
	assert.Equal(t, StatusSucceeded, r.Status)
	assert.Equal(t, 2, r.Pages)
	assert.Empty(t, r.Error)
	assert.True(t, r.FinishedAt.After(r.StartedAt))

	pages, err := l.Pages(ctx, runID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Trip", pages[0].Title)
	assert.Equal(t, 2, pages[0].Attachments)
	assert.Equal(t, "https://x/p-2", pages[1].WebURL)
}

func TestLedger_FailedRunAndOrdering(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	first, err := l.StartRun(ctx, "First", "")
	require.NoError(t, err)
	require.NoError(t, l.FinishRun(ctx, first, errors.New("HTTP 500")))

	second, err := l.StartRun(ctx, "Second", "")
	require.NoError(t, err)

	runs, err := l.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second, runs[0].ID, "newest first")
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.True(t, runs[0].FinishedAt.IsZero())

	assert.Equal(t, StatusFailed, runs[1].Status)
	assert.Equal(t, "HTTP 500", runs[1].Error)
}

func TestLedger_RunsLimit(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	for i := 0; i < 3; i++ {
		_, err := l.StartRun(ctx, "e", "")
		require.NoError(t, err)
	}

	runs, err := l.Runs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestLedger_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "imports.db")

	l, err := Open(types.LedgerConfig{Path: path})
	require.NoError(t, err)
	_, err = l.StartRun(ctx, "Persisted", "")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(types.LedgerConfig{Path: path})
	require.NoError(t, err)
	defer l.Close()

	runs, err := l.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Persisted", runs[0].Export)
}

func TestLedger_SubSecondOrdering(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	starts := []time.Time{base, base.Add(500 * time.Millisecond), base.Add(500*time.Millisecond + time.Microsecond)}
	var ids []string
	for i, start := range starts {
		l.now = func() time.Time { return start }
		id, err := l.StartRun(ctx, string(rune('A'+i)), "")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := l.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.True(t, runs[2].StartedAt.Equal(base))
	assert.True(t, runs[1].StartedAt.Equal(starts[1]))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 500_000_000, time.UTC)
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"fixed width", "2026-01-02T03:04:05.500000000Z", want},
		{"legacy rfc3339nano", "2026-01-02T03:04:05.5Z", want},
		{"empty", "", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseTime(tt.in)), parseTime(tt.in))
		})
	}
	assert.Equal(t, "2026-01-02T03:04:05.000000000Z", formatTime(want.Truncate(time.Second)))
}
