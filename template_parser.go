package sqlforge

import "strings"

// parser is a single-pass scanner over a template string, producing a
// Template AST (§4.3). It never looks ahead further than is needed to
// disambiguate an escape sequence or a placeholder/conditional delimiter,
// and re-parsing an identical string always yields structurally identical
// nodes (deterministic, restartable).
type parser struct {
	src string
	pos int
}

// ParseTemplate parses a raw template string into a Template AST. An empty
// template is a hard StructuralError; unterminated placeholders and
// unbalanced conditional blocks are likewise hard errors.
func ParseTemplate(template string) ([]Node, error) {
	if template == "" {
		return nil, newStructuralError(DiagEmptyTemplate, "template is empty")
	}
	p := &parser{src: template}
	nodes, closer, err := p.parseNodes("")
	if err != nil {
		return nil, err
	}
	if closer != "" {
		return nil, newStructuralError(DiagUnbalancedConditional,
			"unexpected closing tag with no matching opener")
	}
	return nodes, nil
}

// parseNodes scans nodes until EOF or, when openKind is non-empty, until it
// hits a matching `{{/openKind}}` or `{{*else}}` for that block. It returns
// whatever closer it stopped on ("" at EOF, "else" or "end").
func (p *parser) parseNodes(openKind string) ([]Node, string, error) {
	var nodes []Node
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, LiteralNode{Text: lit.String()})
			lit.Reset()
		}
	}

	for p.pos < len(p.src) {
		rest := p.src[p.pos:]

		if strings.HasPrefix(rest, "{{{") {
			lit.WriteString("{{")
			p.pos += 3
			continue
		}
		if strings.HasPrefix(rest, "}}}") {
			lit.WriteString("}}")
			p.pos += 3
			continue
		}
		if strings.HasPrefix(rest, "{{/") {
			if openKind == "" {
				return nil, "", newStructuralError(DiagUnbalancedConditional,
					"closing tag with no matching opener")
			}
			end := strings.Index(rest, "}}")
			if end < 0 {
				return nil, "", newStructuralError(DiagUnterminatedPlaceholder,
					"unterminated closing tag")
			}
			kindName := strings.ToLower(strings.TrimSpace(rest[3:end]))
			if kindName != openKind {
				return nil, "", newStructuralError(DiagUnbalancedConditional,
					"mismatched closing tag: expected "+openKind+", got "+kindName)
			}
			p.pos += end + 2
			flush()
			return nodes, "end", nil
		}
		if strings.HasPrefix(rest, "{{*else}}") {
			if openKind == "" {
				return nil, "", newStructuralError(DiagUnbalancedConditional,
					"{{*else}} with no matching opener")
			}
			p.pos += len("{{*else}}")
			flush()
			return nodes, "else", nil
		}
		if strings.HasPrefix(rest, "{{*") {
			flush()
			node, err := p.parseConditional()
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, node)
			continue
		}
		if strings.HasPrefix(rest, "{{") {
			flush()
			node, err := p.parsePlaceholder()
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, node)
			continue
		}

		lit.WriteByte(p.src[p.pos])
		p.pos++
	}

	flush()
	if openKind != "" {
		return nil, "", newStructuralError(DiagUnbalancedConditional,
			"unterminated {{*"+openKind+"}} block")
	}
	return nodes, "", nil
}

// parseConditional parses one `{{*kind target}} ... {{*else}}? ... {{/kind}}`
// block starting at p.pos (which points at "{{*").
func (p *parser) parseConditional() (Node, error) {
	start := p.pos
	rest := p.src[p.pos:]
	end := strings.Index(rest, "}}")
	if end < 0 {
		return nil, newStructuralError(DiagUnterminatedPlaceholder, "unterminated conditional opener")
	}
	header := strings.TrimSpace(rest[len("{{*"):end])
	p.pos += end + 2

	fields := strings.Fields(header)
	if len(fields) == 0 {
		return nil, newStructuralError(DiagUnbalancedConditional, "conditional opener missing kind")
	}
	kindName := strings.ToLower(fields[0])
	kind, ok := conditionalKindFromName(kindName)
	if !ok {
		return nil, newStructuralError(DiagUnknownConditionalKind, "unknown conditional kind: "+kindName)
	}
	var target string
	if len(fields) > 1 {
		target = fields[1]
	}

	inner, closer, err := p.parseNodes(kindName)
	if err != nil {
		return nil, err
	}

	var elseNodes []Node
	if closer == "else" {
		elseNodes, closer, err = p.parseNodes(kindName)
		if err != nil {
			return nil, err
		}
	}
	if closer != "end" {
		return nil, newStructuralError(DiagUnbalancedConditional, "unterminated {{*"+kindName+"}} block")
	}

	return ConditionalNode{
		Kind:        kind,
		TargetParam: target,
		Inner:       inner,
		Else:        elseNodes,
		Span:        SourceSpan{Start: start, End: p.pos},
	}, nil
}

// isIdentStart and isIdentChar classify the bytes of a bare template
// identifier: NAME, OPTNAME or a shorthand argument.
func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// parsePlaceholder parses a single `{{name[:mode] [opts] [shorthand]}}`
// token starting at p.pos (which points at "{{").
func (p *parser) parsePlaceholder() (Node, error) {
	start := p.pos
	rest := p.src[p.pos:]
	end := strings.Index(rest, "}}")
	if end < 0 {
		return nil, newStructuralError(DiagUnterminatedPlaceholder, "unterminated placeholder")
	}
	body := rest[2:end]
	p.pos += end + 2

	if strings.TrimSpace(body) == "" {
		return nil, newStructuralError(DiagUnterminatedPlaceholder, "empty placeholder")
	}

	// NAME is the leading identifier run, optionally followed by ':MODE'.
	i := 0
	for i < len(body) && isIdentChar(body[i]) {
		i++
	}
	if i == 0 {
		return nil, newStructuralError(DiagUnknownPlaceholderName, "placeholder missing a name")
	}
	name := strings.ToLower(body[:i])

	var mode string
	if i < len(body) && body[i] == ':' {
		j := i + 1
		for j < len(body) && isIdentChar(body[j]) {
			j++
		}
		mode = body[i+1 : j]
		i = j
	}

	tokens := strings.Fields(body[i:])
	options := make(map[string]OptionValue)
	var shorthand string

	for k := 0; k < len(tokens); k++ {
		tok := tokens[k]
		if strings.HasPrefix(tok, "--") {
			optName := strings.ToLower(strings.TrimPrefix(tok, "--"))
			var val OptionValue
			if k+1 < len(tokens) && !strings.HasPrefix(tokens[k+1], "--") {
				raw := tokens[k+1]
				if strings.Contains(raw, ",") {
					val.List = strings.Split(raw, ",")
				} else {
					val.Single = raw
				}
				k++
			}
			options[optName] = val
		} else {
			shorthand = tok
		}
	}

	return PlaceholderNode{
		Name:         name,
		Mode:         mode,
		Options:      options,
		ShorthandArg: shorthand,
		Span:         SourceSpan{Start: start, End: p.pos},
	}, nil
}
