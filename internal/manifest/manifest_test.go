package manifest

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/dirimport/internal/codegen"
	"github.com/agentic-research/dirimport/internal/transform"
	"github.com/agentic-research/dirimport/internal/walk"
)

func sampleResult() *transform.Result {
	return &transform.Result{
		File: "/proj/src/index.js",
		Rewrites: []transform.Rewrite{
			{
				Source:    "./notes/**",
				Directory: "/proj/src/notes",
				Mode:      codegen.Bucket,
				Recursive: true,
				Container: "_dirImport",
				StartByte: 0,
				EndByte:   32,
				Files: []codegen.File{
					{Entry: walk.Entry{Segments: []string{"a.mdx"}, Ext: ".mdx"}, Property: "a", Identifier: "_a", ImportPath: "./notes/a.mdx"},
					{Entry: walk.Entry{Segments: []string{"sub", "my-note.mdx"}, Ext: ".mdx"}, Property: "myNote", Identifier: "_myNote", ImportPath: "./notes/sub/my-note.mdx"},
				},
			},
			{
				Source:    "./api/*",
				Directory: "/proj/src/api",
				Mode:      codegen.Wildcard,
				Container: "_dirImport2",
				StartByte: 33,
				EndByte:   60,
				Files: []codegen.File{
					{Entry: walk.Entry{Segments: []string{"users.mdx"}, Ext: ".mdx"}, Property: "users", Identifier: "_users", ImportPath: "./api/users.mdx"},
				},
			},
		},
		Skips: []transform.Skip{
			{Source: "react", Reason: transform.NonLocalPath},
		},
	}
}

func TestManifest_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")

	w, err := Create(dbPath)
	require.NoError(t, err)
	require.NoError(t, w.Record(sampleResult()))
	require.NoError(t, w.Close())

	entries, err := Entries(dbPath)
	require.NoError(t, err)

	want := []Entry{
		{
			File: "/proj/src/index.js", Source: "./notes/**", Mode: "bucket", Recursive: true,
			Container: "_dirImport", Directory: "/proj/src/notes",
			Files: []FileEntry{
				{Pathname: "a.mdx", Slug: "a", Property: "a", Identifier: "_a", ImportPath: "./notes/a.mdx"},
				{Pathname: "sub/my-note.mdx", Slug: "my-note", Property: "myNote", Identifier: "_myNote", ImportPath: "./notes/sub/my-note.mdx"},
			},
		},
		{
			File: "/proj/src/index.js", Source: "./api/*", Mode: "wildcard",
			Container: "_dirImport2", Directory: "/proj/src/api",
			Files: []FileEntry{
				{Pathname: "users.mdx", Slug: "users", Property: "users", Identifier: "_users", ImportPath: "./api/users.mdx"},
			},
		},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Entries mismatch (-want +got):\n%s", diff)
	}

	skips, err := Skips(dbPath)
	require.NoError(t, err)
	assert.Equal(t, []Skipped{{File: "/proj/src/index.js", Source: "react", Reason: "non-local-path"}}, skips)
}

func TestManifest_RecordReplacesModule(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")

	w, err := Create(dbPath)
	require.NoError(t, err)
	require.NoError(t, w.Record(sampleResult()))
	require.NoError(t, w.Close())

	// A second build where the module no longer has directory imports.
	w, err = Create(dbPath)
	require.NoError(t, err)
	require.NoError(t, w.Record(&transform.Result{File: "/proj/src/index.js"}))
	require.NoError(t, w.Close())

	entries, err := Entries(dbPath)
	require.NoError(t, err)
	assert.Empty(t, entries)

	skips, err := Skips(dbPath)
	require.NoError(t, err)
	assert.Empty(t, skips)
}

func TestManifest_Dirs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")

	w, err := Create(dbPath)
	require.NoError(t, err)
	require.NoError(t, w.Record(sampleResult()))
	require.NoError(t, w.Close())

	dirs, err := Dirs(dbPath, "/proj/src/index.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/src/notes", "/proj/src/api"}, dirs)

	dirs, err = Dirs(dbPath, "/proj/src/other.js")
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestEntries_MissingSchema(t *testing.T) {
	_, err := Entries(filepath.Join(t.TempDir(), "empty.db"))
	assert.Error(t, err)
}
