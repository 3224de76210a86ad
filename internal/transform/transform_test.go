package transform

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/dirimport/internal/codegen"
	"github.com/agentic-research/dirimport/internal/config"
	"github.com/agentic-research/dirimport/internal/jsparse"
)

const moduleFile = "/proj/src/index.js"

// project builds a memfs with the given files. Names ending in "/" are
// created as empty directories.
func project(t *testing.T, files ...string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for _, name := range files {
		if strings.HasSuffix(name, "/") {
			require.NoError(t, fs.MkdirAll(name, 0o755))
			continue
		}
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, util.WriteFile(fs, name, []byte("export default 1;\n"), 0o644))
	}
	return fs
}

func newTransformer(t *testing.T, fs billy.Filesystem, mutate ...func(*config.Config)) *Transformer {
	t.Helper()
	cfg := config.Default()
	cfg.Extensions = []string{".ext"}
	for _, m := range mutate {
		m(cfg)
	}
	tr, err := New(cfg, fs)
	require.NoError(t, err)
	return tr
}

func run(t *testing.T, tr *Transformer, src string) *Result {
	t.Helper()
	res, err := tr.Transform(moduleFile, []byte(src))
	require.NoError(t, err)
	return res
}

func assertLines(t *testing.T, code string, want ...string) {
	t.Helper()
	lines := strings.Split(code, "\n")
	for _, w := range want {
		assert.Contains(t, lines, w)
	}
}

func TestTransform_ResolvableImportUnchanged(t *testing.T) {
	fs := project(t, "/proj/src/notes.js", "/proj/src/notes/a.ext")
	src := "import notes from './notes';\n"

	res := run(t, newTransformer(t, fs), src)

	assert.False(t, res.Changed())
	assert.Equal(t, src, string(res.Code))
	require.Len(t, res.Skips, 1)
	assert.Equal(t, ResolvesAsModule, res.Skips[0].Reason)
	assert.Equal(t, "/proj/src/notes.js", res.Skips[0].Resolved)
}

func TestTransform_DirectoryWithIndexResolves(t *testing.T) {
	fs := project(t, "/proj/src/notes/index.js", "/proj/src/notes/a.ext")
	src := "import notes from './notes';\n"

	res := run(t, newTransformer(t, fs), src)

	assert.Equal(t, src, string(res.Code))
	require.Len(t, res.Skips, 1)
	assert.Equal(t, ResolvesAsModule, res.Skips[0].Reason)
}

func TestTransform_NonLocalUnchanged(t *testing.T) {
	fs := project(t, "/proj/src/react/a.ext")
	src := "import React from 'react';\nimport x from '@scope/pkg/*';\n"

	res := run(t, newTransformer(t, fs), src)

	assert.Equal(t, src, string(res.Code))
	require.Len(t, res.Skips, 2)
	for _, s := range res.Skips {
		assert.Equal(t, NonLocalPath, s.Reason)
	}
}

func TestTransform_UnresolvedNotDirectory(t *testing.T) {
	fs := project(t, "/proj/src/")
	src := "import missing from './missing';\n"

	res := run(t, newTransformer(t, fs), src)

	assert.Equal(t, src, string(res.Code))
	require.Len(t, res.Skips, 1)
	assert.Equal(t, UnresolvedAndNotDirectory, res.Skips[0].Reason)
}

func TestTransform_Bucket(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext", "/proj/src/notes/b.ext", "/proj/src/notes/c.other")

	res := run(t, newTransformer(t, fs), "import notes from './notes';\n")

	require.True(t, res.Changed())
	require.Len(t, res.Rewrites, 1)
	rw := res.Rewrites[0]
	assert.Equal(t, codegen.Bucket, rw.Mode)
	assert.False(t, rw.Recursive)
	assert.Equal(t, "_dirImport", rw.Container)
	assert.Equal(t, "/proj/src/notes", rw.Directory)
	assert.Len(t, rw.Files, 2)

	code := string(res.Code)
	assertLines(t, code,
		`import * as _a from "./notes/a.ext";`,
		`import * as _b from "./notes/b.ext";`,
		`const _dirImport = {};`,
		`_dirImport.a = _a;`,
		`_dirImport.a.slug = "a";`,
		`_dirImport.a.pathname = "a.ext";`,
		`_dirImport.b = _b;`,
		`_dirImport.b.slug = "b";`,
		`_dirImport.b.pathname = "b.ext";`,
		`const notes = _dirImport;`,
	)
	assert.NotContains(t, code, "c.other")
	assert.NotContains(t, code, "from './notes'")
}

func TestTransform_StatementOrder(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext")

	res := run(t, newTransformer(t, fs), "import notes from './notes';")

	want := strings.Join([]string{
		`import * as _a from "./notes/a.ext";`,
		`const _dirImport = {};`,
		`_dirImport.a = _a;`,
		`_dirImport.a.slug = "a";`,
		`_dirImport.a.pathname = "a.ext";`,
		`const notes = _dirImport;`,
	}, "\n")
	assert.Equal(t, want, string(res.Code))
}

func TestTransform_PreservesSurroundingCode(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext")
	src := "// header\nimport notes from './notes';\nconsole.log(notes);\n"

	res := run(t, newTransformer(t, fs), src)

	code := string(res.Code)
	assert.True(t, strings.HasPrefix(code, "// header\nimport * as _a"))
	assert.True(t, strings.HasSuffix(code, "const notes = _dirImport;\nconsole.log(notes);\n"))
}

func TestTransform_Recursive(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext", "/proj/src/notes/sub/b.ext", "/proj/src/notes/sub/c.other")

	res := run(t, newTransformer(t, fs), "import notes from './notes/**';\n")

	require.Len(t, res.Rewrites, 1)
	assert.True(t, res.Rewrites[0].Recursive)
	assert.Equal(t, codegen.Bucket, res.Rewrites[0].Mode)
	assertLines(t, string(res.Code),
		`import * as _a from "./notes/a.ext";`,
		`import * as _b from "./notes/sub/b.ext";`,
		`_dirImport.a.pathname = "a.ext";`,
		`_dirImport.b.pathname = "sub/b.ext";`,
		`_dirImport.b.slug = "b";`,
	)
}

func TestTransform_NonRecursiveIgnoresSubdirectories(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext", "/proj/src/notes/sub/b.ext")

	res := run(t, newTransformer(t, fs), "import notes from './notes';\n")

	require.Len(t, res.Rewrites, 1)
	assert.Len(t, res.Rewrites[0].Files, 1)
	assert.NotContains(t, string(res.Code), "sub/b.ext")
}

func TestTransform_Wildcard(t *testing.T) {
	fs := project(t, "/proj/src/api/users.ext", "/proj/src/api/posts.ext")

	res := run(t, newTransformer(t, fs), "import * as api from './api/*';\n")

	require.Len(t, res.Rewrites, 1)
	assert.Equal(t, codegen.Wildcard, res.Rewrites[0].Mode)
	code := string(res.Code)
	assertLines(t, code,
		`import * as _users from "./api/users.ext";`,
		`for (let key in _users) { _dirImport[key === "default" ? "users" : key] = _users[key]; }`,
		`for (let key in _posts) { _dirImport[key === "default" ? "posts" : key] = _posts[key]; }`,
		`const api = _dirImport;`,
	)
	assert.NotContains(t, code, ".slug")
}

func TestTransform_SnakeCase(t *testing.T) {
	fs := project(t, "/proj/src/notes/my-note.ext")
	tr := newTransformer(t, fs, func(c *config.Config) { c.Case = "snake" })

	res := run(t, tr, "import notes from './notes';\n")

	assertLines(t, string(res.Code),
		`import * as _myNote from "./notes/my-note.ext";`,
		`_dirImport.my_note = _myNote;`,
		`_dirImport.my_note.slug = "my-note";`,
	)
}

func TestTransform_CamelCase(t *testing.T) {
	fs := project(t, "/proj/src/notes/my-note.ext")

	res := run(t, newTransformer(t, fs), "import notes from './notes';\n")

	assertLines(t, string(res.Code), `_dirImport.myNote = _myNote;`)
}

func TestTransform_NamedSpecifiers(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext", "/proj/src/notes/b.ext")

	res := run(t, newTransformer(t, fs), "import { a, b as bee } from './notes';\n")

	assertLines(t, string(res.Code),
		`const a = _dirImport.a;`,
		`const bee = _dirImport.b;`,
	)
}

func TestTransform_SideEffectImport(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext")

	res := run(t, newTransformer(t, fs), "import './notes';\n")

	require.True(t, res.Changed())
	code := string(res.Code)
	assertLines(t, code, `import * as _a from "./notes/a.ext";`, `const _dirImport = {};`)
	assert.NotContains(t, code, "const notes")
}

func TestTransform_UniqueIdentifiers(t *testing.T) {
	fs := project(t, "/proj/src/one/x.ext", "/proj/src/two/x.ext")
	src := "const _x = 0;\nimport one from './one';\nimport two from './two';\n"

	res := run(t, newTransformer(t, fs), src)

	require.Len(t, res.Rewrites, 2)
	assert.Equal(t, "_x2", res.Rewrites[0].Files[0].Identifier)
	assert.Equal(t, "_x3", res.Rewrites[1].Files[0].Identifier)
	assert.Equal(t, "_dirImport", res.Rewrites[0].Container)
	assert.Equal(t, "_dirImport2", res.Rewrites[1].Container)
	assertLines(t, string(res.Code),
		`import * as _x2 from "./one/x.ext";`,
		`import * as _x3 from "./two/x.ext";`,
		`const one = _dirImport;`,
		`const two = _dirImport2;`,
	)
}

func TestTransform_EmptyMatchUnchanged(t *testing.T) {
	fs := project(t, "/proj/src/notes/c.other", "/proj/src/empty/")
	src := "import notes from './notes';\nimport empty from './empty/**';\n"

	res := run(t, newTransformer(t, fs), src)

	assert.Equal(t, src, string(res.Code))
	require.Len(t, res.Skips, 2)
	for _, s := range res.Skips {
		assert.Equal(t, EmptyDirectoryMatch, s.Reason)
	}
}

func TestTransform_TypeOnlyImportUnchanged(t *testing.T) {
	fs := project(t, "/proj/src/types/a.ext")
	src := "import type { A } from './types';\n"

	res, err := newTransformer(t, fs).Transform("/proj/src/index.ts", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, src, string(res.Code))
	require.Len(t, res.Skips, 1)
	assert.Equal(t, TypeOnlyImport, res.Skips[0].Reason)
}

func TestTransform_ParentDirectory(t *testing.T) {
	fs := project(t, "/proj/content/a.ext", "/proj/src/")

	res := run(t, newTransformer(t, fs), "import content from '../content';\n")

	assertLines(t, string(res.Code), `import * as _a from "../content/a.ext";`)
}

func TestTransform_Exclude(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext", "/proj/src/notes/drafts/b.ext")
	tr := newTransformer(t, fs, func(c *config.Config) { c.Exclude = []string{"drafts"} })

	res := run(t, tr, "import notes from './notes/**';\n")

	require.Len(t, res.Rewrites, 1)
	assert.Len(t, res.Rewrites[0].Files, 1)
	assert.NotContains(t, string(res.Code), "drafts")
}

func TestTransform_SyntaxError(t *testing.T) {
	fs := project(t, "/proj/src/")

	_, err := newTransformer(t, fs).Transform(moduleFile, []byte("import x from ;\n"))

	var syn *jsparse.SyntaxError
	require.True(t, errors.As(err, &syn), "got %v", err)
}

func TestTransformFile(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext")
	require.NoError(t, util.WriteFile(fs, moduleFile, []byte("import notes from './notes';\n"), 0o644))

	res, err := newTransformer(t, fs).TransformFile(moduleFile)
	require.NoError(t, err)

	assert.Equal(t, moduleFile, res.File)
	assert.True(t, res.Changed())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Case = "kebab"

	_, err := New(cfg, memfs.New())
	assert.Error(t, err)
}

func TestSkipReason_String(t *testing.T) {
	assert.Equal(t, "non-local-path", NonLocalPath.String())
	assert.Equal(t, "type-only-import", TypeOnlyImport.String())
	assert.Equal(t, "unknown", SkipReason(0).String())
}

func TestTransform_EscapedSourceIsDecoded(t *testing.T) {
	fs := project(t, "/proj/src/notes/a.ext", "/proj/src/notes/b.ext")

	res := run(t, newTransformer(t, fs), `import n from "./no\u0074es";`+"\n")

	require.True(t, res.Changed())
	assert.Equal(t, "./notes", res.Rewrites[0].Source)
	assertLines(t, string(res.Code),
		`import * as _a from "./notes/a.ext";`,
		`const n = _dirImport;`,
	)
}
