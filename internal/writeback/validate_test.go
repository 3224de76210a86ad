package writeback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidJS(t *testing.T) {
	src := []byte(`import * as _a from "./notes/a.mdx";
const _dirImport = {};
_dirImport.a = _a;
const notes = _dirImport;
`)
	assert.NoError(t, Validate(src, "index.js"))
}

func TestValidate_BrokenJS(t *testing.T) {
	src := []byte(`const x = {;
`)
	err := Validate(src, "index.js")
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.NotEmpty(t, errs)
	assert.Equal(t, "index.js", errs[0].FilePath)
	assert.Contains(t, errs[0].Message, "syntax error")
}

func TestValidate_TypeScript(t *testing.T) {
	assert.NoError(t, Validate([]byte("const n: number = 1;\n"), "a.ts"))
	assert.Error(t, Validate([]byte("const n: = 1;\n"), "a.ts"))
}

func TestValidate_UnknownExtension_PassThrough(t *testing.T) {
	src := []byte(`this is not valid code in any language {{{`)
	assert.NoError(t, Validate(src, "note.mdx"))
}

func TestValidate_EmptyContent(t *testing.T) {
	assert.NoError(t, Validate([]byte{}, "empty.js"))
}

func TestValidate_ReportsEveryErrorLocation(t *testing.T) {
	src := []byte("a = 1);\nconst ok = 1;\nb = 2);\n")

	err := Validate(src, "index.js")

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	lines := make([]uint32, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, e.Line)
	}
	assert.Contains(t, lines, uint32(0))
	assert.Contains(t, lines, uint32(2))
	assert.NotContains(t, lines, uint32(1))
	assert.Contains(t, err.Error(), "index.js:1:")
	assert.Contains(t, err.Error(), "index.js:3:")
}
