package jsparse

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DetectLanguage returns the grammar name and tree-sitter Language for a
// module path. ok is false for extensions that are not script modules.
func DetectLanguage(filePath string) (name string, lang *sitter.Language, ok bool) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript", javascript.GetLanguage(), true
	case ".ts", ".mts", ".cts":
		return "typescript", typescript.GetLanguage(), true
	case ".tsx":
		return "tsx", tsx.GetLanguage(), true
	default:
		return "", nil, false
	}
}

// LanguageForPath is DetectLanguage with a javascript fallback.
func LanguageForPath(filePath string) *sitter.Language {
	if _, lang, ok := DetectLanguage(filePath); ok {
		return lang
	}
	return javascript.GetLanguage()
}
