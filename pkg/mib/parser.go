package mib

import (
	"fmt"
	"strconv"
)

// macroKeywords are the SMI macros whose invocations assign an OID value.
var macroKeywords = map[string]bool{
	"OBJECT-TYPE":        true,
	"MODULE-IDENTITY":    true,
	"OBJECT-IDENTITY":    true,
	"NOTIFICATION-TYPE":  true,
	"TRAP-TYPE":          true,
	"OBJECT-GROUP":       true,
	"NOTIFICATION-GROUP": true,
	"MODULE-COMPLIANCE":  true,
	"AGENT-CAPABILITIES": true,
}

// ParseModules parses every module in src. Only the declarative subset
// needed for name resolution is interpreted; macro definitions, DESCRIPTION
// text, DEFVALs and conformance details are skipped.
func ParseModules(src []byte) ([]*Module, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	var modules []*Module
	for p.peek(0).kind != tokEOF {
		m, err := p.parseModule()
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("no module definition found")
	}
	return modules, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.peek(0)
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) is(n int, kind tokenKind, text string) bool {
	t := p.peek(n)
	return t.kind == kind && t.text == text
}

func (p *parser) expect(kind tokenKind, text string) error {
	t := p.next()
	if t.kind != kind || (text != "" && t.text != text) {
		if text == "" {
			text = "identifier"
		}
		return fmt.Errorf("expected %s, found %s", text, t)
	}
	return nil
}

func (p *parser) parseModule() (*Module, error) {
	nameTok := p.next()
	if nameTok.kind != tokIdent {
		return nil, fmt.Errorf("expected module name, found %s", nameTok)
	}
	m := newModule(nameTok.text)

	if p.is(0, tokPunct, "{") {
		if err := p.skipBalanced("{", "}"); err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}
	}
	if err := p.expect(tokIdent, "DEFINITIONS"); err != nil {
		return nil, fmt.Errorf("module %s: %w", m.Name, err)
	}
	for !p.is(0, tokPunct, "::=") {
		if p.peek(0).kind == tokEOF {
			return nil, fmt.Errorf("module %s: unexpected end of input in header", m.Name)
		}
		p.next()
	}
	p.next()
	if err := p.expect(tokIdent, "BEGIN"); err != nil {
		return nil, fmt.Errorf("module %s: %w", m.Name, err)
	}

	if err := p.parseBody(m); err != nil {
		return nil, fmt.Errorf("module %s: %w", m.Name, err)
	}
	return m, nil
}

func (p *parser) parseBody(m *Module) error {
	for {
		t := p.peek(0)
		switch {
		case t.kind == tokEOF:
			return fmt.Errorf("missing END")

		case t.kind != tokIdent:
			p.next()

		case t.text == "END":
			p.next()
			return nil

		case t.text == "IMPORTS":
			if err := p.parseImports(m); err != nil {
				return err
			}

		case t.text == "EXPORTS":
			if err := p.skipTo(";"); err != nil {
				return err
			}

		case p.is(1, tokIdent, "MACRO"):
			if err := p.skipMacro(); err != nil {
				return err
			}

		case p.is(1, tokIdent, "OBJECT") && p.is(2, tokIdent, "IDENTIFIER") && p.is(3, tokPunct, "::="):
			d, err := p.parseValueAssignment()
			if err != nil {
				return err
			}
			m.definitions = append(m.definitions, d)

		case p.is(1, tokPunct, "::="):
			name, typ, err := p.parseTypeAssignment()
			if err != nil {
				return err
			}
			m.types[name] = typ

		case p.peek(1).kind == tokIdent && macroKeywords[p.peek(1).text]:
			d, err := p.parseMacroInvocation()
			if err != nil {
				return err
			}
			if d != nil {
				m.definitions = append(m.definitions, d)
			}

		default:
			p.next()
		}
	}
}

func (p *parser) parseImports(m *Module) error {
	p.next() // IMPORTS
	var pending []string
	for {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return fmt.Errorf("unterminated IMPORTS")
		case t.kind == tokPunct && t.text == ";":
			return nil
		case t.kind == tokIdent && t.text == "FROM":
			from := p.next()
			if from.kind != tokIdent {
				return fmt.Errorf("expected module name after FROM, found %s", from)
			}
			for _, sym := range pending {
				m.imports[sym] = from.text
			}
			m.Depends = append(m.Depends, from.text)
			pending = pending[:0]
		case t.kind == tokIdent:
			pending = append(pending, t.text)
		}
	}
}

func (p *parser) skipMacro() error {
	name := p.next()
	for {
		t := p.next()
		if t.kind == tokEOF {
			return fmt.Errorf("unterminated MACRO %s", name.text)
		}
		if t.kind == tokIdent && t.text == "END" {
			return nil
		}
	}
}

func (p *parser) parseValueAssignment() (*definition, error) {
	name := p.next()
	p.next() // OBJECT
	p.next() // IDENTIFIER
	p.next() // ::=
	d := &definition{name: name.text, macro: "OBJECT IDENTIFIER", line: name.line}
	if err := p.parseOIDValue(d); err != nil {
		return nil, fmt.Errorf("%s: %w", name.text, err)
	}
	return d, nil
}

func (p *parser) parseMacroInvocation() (*definition, error) {
	name := p.next()
	macro := p.next()
	d := &definition{name: name.text, macro: macro.text, line: name.line}

	for {
		t := p.peek(0)
		switch {
		case t.kind == tokEOF:
			return nil, fmt.Errorf("%s: unexpected end of input in %s", name.text, macro.text)

		case t.kind == tokPunct && t.text == "::=":
			p.next()
			if !p.is(0, tokPunct, "{") {
				// TRAP-TYPE assigns a trap number, not an OID.
				p.next()
				return nil, nil
			}
			if err := p.parseOIDValue(d); err != nil {
				return nil, fmt.Errorf("%s: %w", name.text, err)
			}
			return d, nil

		case t.kind == tokPunct && t.text == "{":
			if err := p.skipBalanced("{", "}"); err != nil {
				return nil, fmt.Errorf("%s: %w", name.text, err)
			}

		case t.kind == tokIdent && t.text == "SYNTAX":
			p.next()
			typ, err := p.parseType()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name.text, err)
			}
			d.syntax = typ

		case t.kind == tokIdent && (t.text == "MAX-ACCESS" || t.text == "ACCESS"):
			p.next()
			d.access = Access(p.next().text)

		case t.kind == tokIdent && (t.text == "INDEX" || t.text == "AUGMENTS"):
			p.next()
			d.indexed = true

		default:
			p.next()
		}
	}
}

func (p *parser) parseTypeAssignment() (string, string, error) {
	name := p.next()
	p.next() // ::=

	if p.is(0, tokIdent, "TEXTUAL-CONVENTION") {
		for !p.is(0, tokIdent, "SYNTAX") {
			if p.peek(0).kind == tokEOF {
				return "", "", fmt.Errorf("%s: TEXTUAL-CONVENTION without SYNTAX", name.text)
			}
			p.next()
		}
		p.next()
	}

	typ, err := p.parseType()
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", name.text, err)
	}
	return name.text, typ, nil
}

// parseType consumes a type reference with any tag, named-number list or
// constraint and returns the referenced type name.
func (p *parser) parseType() (string, error) {
	if p.is(0, tokPunct, "[") {
		if err := p.skipBalanced("[", "]"); err != nil {
			return "", err
		}
		if p.is(0, tokIdent, "IMPLICIT") || p.is(0, tokIdent, "EXPLICIT") {
			p.next()
		}
	}

	t := p.next()
	if t.kind != tokIdent {
		return "", fmt.Errorf("expected type, found %s", t)
	}

	name := t.text
	switch t.text {
	case "OCTET":
		if err := p.expect(tokIdent, "STRING"); err != nil {
			return "", err
		}
		name = "OCTET STRING"
	case "OBJECT":
		if err := p.expect(tokIdent, "IDENTIFIER"); err != nil {
			return "", err
		}
		name = "OBJECT IDENTIFIER"
	case "SEQUENCE":
		if p.is(0, tokIdent, "OF") {
			p.next()
			if _, err := p.parseType(); err != nil {
				return "", err
			}
			return "SEQUENCE OF", nil
		}
	}

	if p.is(0, tokPunct, "{") {
		if err := p.skipBalanced("{", "}"); err != nil {
			return "", err
		}
	}
	if p.is(0, tokPunct, "(") {
		if err := p.skipBalanced("(", ")"); err != nil {
			return "", err
		}
	}
	return name, nil
}

// parseOIDValue reads "{ parent arc ... }" where components may be plain
// numbers, "name(number)" pairs, or a leading symbolic parent.
func (p *parser) parseOIDValue(d *definition) error {
	if err := p.expect(tokPunct, "{"); err != nil {
		return err
	}

	first := true
	for {
		t := p.next()
		switch {
		case t.kind == tokPunct && t.text == "}":
			if first {
				return fmt.Errorf("empty OID value")
			}
			return nil

		case t.kind == tokNumber:
			arc, err := strconv.ParseUint(t.text, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid arc %s", t)
			}
			d.arcs = append(d.arcs, uint32(arc))

		case t.kind == tokIdent && p.is(0, tokPunct, "("):
			p.next()
			num := p.next()
			arc, err := strconv.ParseUint(num.text, 10, 32)
			if num.kind != tokNumber || err != nil {
				return fmt.Errorf("invalid arc %s", num)
			}
			if err := p.expect(tokPunct, ")"); err != nil {
				return err
			}
			d.arcs = append(d.arcs, uint32(arc))

		case t.kind == tokIdent && first:
			d.parent = t.text

		default:
			return fmt.Errorf("unexpected %s in OID value", t)
		}
		first = false
	}
}

func (p *parser) skipBalanced(open, closing string) error {
	depth := 0
	for {
		t := p.next()
		if t.kind == tokEOF {
			return fmt.Errorf("unbalanced %q", open)
		}
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

func (p *parser) skipTo(text string) error {
	for {
		t := p.next()
		if t.kind == tokEOF {
			return fmt.Errorf("expected %q before end of input", text)
		}
		if t.kind == tokPunct && t.text == text {
			return nil
		}
	}
}
