package chunk

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageSpec binds a tree-sitter grammar to the node types that define
// symbols in that language.
type languageSpec struct {
	name    string
	exts    []string
	grammar *sitter.Language

	// kinds maps top-level declaration node types to symbol kinds.
	kinds map[string]SymbolKind

	// wrappers maps node types that wrap a declaration (export statements,
	// decorators) to the field holding it. An empty field name means the
	// first named child.
	wrappers map[string]string

	jsFamily bool
}

var goSpec = &languageSpec{
	name:    "go",
	exts:    []string{".go"},
	grammar: golang.GetLanguage(),
	kinds: map[string]SymbolKind{
		"function_declaration": KindFunction,
		"method_declaration":   KindMethod,
		"type_declaration":     KindType,
		"const_declaration":    KindConstant,
		"var_declaration":      KindVariable,
	},
}

var typescriptSpec = &languageSpec{
	name:    "typescript",
	exts:    []string{".ts"},
	grammar: typescript.GetLanguage(),
	kinds: map[string]SymbolKind{
		"function_declaration":       KindFunction,
		"class_declaration":          KindClass,
		"abstract_class_declaration": KindClass,
		"interface_declaration":      KindInterface,
		"type_alias_declaration":     KindType,
		"enum_declaration":           KindType,
		"lexical_declaration":        KindVariable,
		"variable_declaration":       KindVariable,
	},
	wrappers: map[string]string{"export_statement": "declaration"},
	jsFamily: true,
}

var tsxSpec = &languageSpec{
	name:     "tsx",
	exts:     []string{".tsx"},
	grammar:  tsx.GetLanguage(),
	kinds:    typescriptSpec.kinds,
	wrappers: typescriptSpec.wrappers,
	jsFamily: true,
}

var javascriptSpec = &languageSpec{
	name:    "javascript",
	exts:    []string{".js", ".mjs", ".cjs", ".jsx"},
	grammar: javascript.GetLanguage(),
	kinds: map[string]SymbolKind{
		"function_declaration": KindFunction,
		"class_declaration":    KindClass,
		"lexical_declaration":  KindVariable,
		"variable_declaration": KindVariable,
	},
	wrappers: map[string]string{"export_statement": "declaration"},
	jsFamily: true,
}

var pythonSpec = &languageSpec{
	name:    "python",
	exts:    []string{".py", ".pyi"},
	grammar: python.GetLanguage(),
	kinds: map[string]SymbolKind{
		"function_definition": KindFunction,
		"class_definition":    KindClass,
		"assignment":          KindVariable,
	},
	wrappers: map[string]string{
		"decorated_definition": "definition",
		"expression_statement": "",
	},
}

var languages = []*languageSpec{goSpec, typescriptSpec, tsxSpec, javascriptSpec, pythonSpec}

var extIndex = func() map[string]*languageSpec {
	m := make(map[string]*languageSpec)
	for _, spec := range languages {
		for _, ext := range spec.exts {
			m[ext] = spec
		}
	}
	return m
}()

// languageForPath returns the language spec for a file path, if the
// extension maps to a supported grammar.
func languageForPath(path string) (*languageSpec, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	spec, ok := extIndex[ext]
	return spec, ok
}

func isMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdx":
		return true
	}
	return false
}

// SupportedLanguages lists the languages with structural chunking support.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languages))
	for _, spec := range languages {
		names = append(names, spec.name)
	}
	return names
}
