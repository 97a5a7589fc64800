package chunk

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// resolve unwraps export/decorator wrappers and reports whether a top-level
// node is a symbol declaration. The returned node is the declaration itself,
// which may be nested inside the original.
func (s *languageSpec) resolve(n *sitter.Node) (*sitter.Node, SymbolKind, bool) {
	if field, wrapped := s.wrappers[n.Type()]; wrapped {
		var inner *sitter.Node
		if field == "" {
			inner = n.NamedChild(0)
		} else {
			inner = n.ChildByFieldName(field)
		}
		if inner == nil {
			return nil, "", false
		}
		kind, ok := s.kinds[inner.Type()]
		if !ok {
			return nil, "", false
		}
		return inner, s.refine(inner, kind), true
	}

	kind, ok := s.kinds[n.Type()]
	if !ok {
		return nil, "", false
	}
	return n, s.refine(n, kind), true
}

// refine sharpens the kind using the declaration's shape: Go interface
// types, and JS/TS consts whose value is a function.
func (s *languageSpec) refine(decl *sitter.Node, kind SymbolKind) SymbolKind {
	switch {
	case s == goSpec && decl.Type() == "type_declaration":
		if spec := namedChildOfType(decl, "type_spec"); spec != nil {
			if t := spec.ChildByFieldName("type"); t != nil && t.Type() == "interface_type" {
				return KindInterface
			}
		}
	case s.jsFamily && kind == KindVariable:
		if d := namedChildOfType(decl, "variable_declarator"); d != nil {
			if v := d.ChildByFieldName("value"); v != nil {
				switch v.Type() {
				case "arrow_function", "function_expression", "function":
					return KindFunction
				}
			}
		}
	}
	return kind
}

// symbolFor builds the symbol tag for a declaration node, or nil when no
// name can be extracted.
func (s *languageSpec) symbolFor(decl *sitter.Node, kind SymbolKind, source []byte) *Symbol {
	name := s.nameOf(decl, source)
	if name == "" {
		return nil
	}
	return &Symbol{Kind: kind, Name: name}
}

// nameOf extracts the declared name. Most grammars expose it as a "name"
// field; grouped declarations (Go const/var/type blocks, JS declarator
// lists) take the first declared name.
func (s *languageSpec) nameOf(decl *sitter.Node, source []byte) string {
	if name := decl.ChildByFieldName("name"); name != nil {
		return name.Content(source)
	}

	switch decl.Type() {
	case "type_declaration":
		if spec := namedChildOfType(decl, "type_spec"); spec != nil {
			return fieldContent(spec, "name", source)
		}
	case "const_declaration":
		if spec := namedChildOfType(decl, "const_spec"); spec != nil {
			return fieldContent(spec, "name", source)
		}
	case "var_declaration":
		if spec := namedChildOfType(decl, "var_spec"); spec != nil {
			return fieldContent(spec, "name", source)
		}
	case "lexical_declaration", "variable_declaration":
		if d := namedChildOfType(decl, "variable_declarator"); d != nil {
			return fieldContent(d, "name", source)
		}
	case "assignment":
		if left := decl.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
			return left.Content(source)
		}
	}
	return ""
}

func namedChildOfType(n *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil && c.Type() == nodeType {
			return c
		}
	}
	return nil
}

func fieldContent(n *sitter.Node, field string, source []byte) string {
	f := n.ChildByFieldName(field)
	if f == nil {
		return ""
	}
	return f.Content(source)
}

// nodeLines returns a node's 1-based inclusive line range.
func nodeLines(n *sitter.Node) (int, int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}
