package process

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// maxLiteralLen bounds collected string literals; longer ones are never
// version numbers or CVE identifiers.
const maxLiteralLen = 120

// CodeFacts is what the lightweight analyzer pulls out of a source file:
// import/include statements, top-level function and type names, and inline
// string literals that may carry version or CVE signal.
type CodeFacts struct {
	Language  string   `json:"language"`
	Imports   []string `json:"imports,omitempty"`
	Functions []string `json:"functions,omitempty"`
	Types     []string `json:"types,omitempty"`
	Literals  []string `json:"literals,omitempty"`
}

// analyzerLanguage returns the grammar for a language id, or nil when no
// tree-sitter grammar is wired for it.
func analyzerLanguage(lang string) *sitter.Language {
	switch lang {
	case "go":
		return sitter.NewLanguage(golang.Language())
	case "python":
		return sitter.NewLanguage(python.Language())
	case "js":
		return sitter.NewLanguage(javascript.Language())
	case "ts":
		return sitter.NewLanguage(typescript.LanguageTypescript())
	case "tsx":
		return sitter.NewLanguage(typescript.LanguageTSX())
	default:
		return nil
	}
}

// Analyze parses content with the grammar for lang and walks the tree for
// code facts. Languages without a grammar fall back to nothing found, which
// is not an error; parse failures are.
func Analyze(lang string, content []byte) (*CodeFacts, error) {
	facts := &CodeFacts{Language: lang}

	grammar := analyzerLanguage(lang)
	if grammar == nil {
		return facts, nil
	}

	// Parsers are not safe for concurrent use; one per call keeps the
	// processors shareable across workers.
	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return facts, fmt.Errorf("failed to parse %s source", lang)
	}

	root := tree.RootNode()
	if root == nil {
		return facts, fmt.Errorf("empty parse tree for %s source", lang)
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Kind() {
		case "import_spec": // go
			if pathNode := n.ChildByFieldName("path"); pathNode != nil {
				facts.Imports = append(facts.Imports, trimQuotes(pathNode.Utf8Text(content)))
			}

		case "import_statement": // python, js, ts
			if src := n.ChildByFieldName("source"); src != nil {
				facts.Imports = append(facts.Imports, trimQuotes(src.Utf8Text(content)))
			} else {
				facts.Imports = append(facts.Imports, clean(n.Utf8Text(content)))
			}

		case "import_from_statement": // python
			facts.Imports = append(facts.Imports, clean(n.Utf8Text(content)))

		case "function_declaration", "method_declaration", "function_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				facts.Functions = append(facts.Functions, clean(name.Utf8Text(content)))
			}

		case "class_definition", "class_declaration", "interface_declaration", "type_alias_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				facts.Types = append(facts.Types, clean(name.Utf8Text(content)))
			}

		case "type_declaration": // go: may hold several type specs
			for i := uint(0); i < uint(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Kind() == "type_spec" {
					if name := child.ChildByFieldName("name"); name != nil {
						facts.Types = append(facts.Types, clean(name.Utf8Text(content)))
					}
				}
			}

		case "interpreted_string_literal", "raw_string_literal", "string":
			lit := trimQuotes(clean(n.Utf8Text(content)))
			if lit != "" && len(lit) <= maxLiteralLen {
				facts.Literals = append(facts.Literals, lit)
			}
		}

		for i := uint(0); i < uint(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	return facts, nil
}

func clean(s string) string {
	return strings.TrimSpace(s)
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`\"'")
	return s
}
