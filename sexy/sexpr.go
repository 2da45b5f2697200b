package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeEllipsis
	NodeList
	NodeMap
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeEllipsis:
		return "ellipsis"
	case NodeList:
		return "list"
	case NodeMap:
		return "map"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node is one datum of an s-expression document.
type Node struct {
	Type NodeType

	// NodeSymbol, NodeString, NodeInteger
	Text string

	// NodeList, NodeMap
	Items []*Node
	// NodeMap keys, parallel to Items.
	Keys []string

	// ^{key: value} metadata of a NodeList, as parallel slices.
	MetaKeys  []string
	MetaItems []*Node

	// Position of the datum's first character, 1-based.
	Line int
	Col  int
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

// Quote returns s as an s-expression string literal.
func Quote(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		return Quote(n.Text)
	case NodeEllipsis:
		return "..."
	case NodeList:
		var parts []string
		if len(n.MetaKeys) > 0 {
			parts = append(parts, "^"+mapString(n.MetaKeys, n.MetaItems))
		}
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeMap:
		return mapString(n.Keys, n.Items)
	}
	return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
}

func mapString(keys []string, items []*Node) string {
	var parts []string
	for i, key := range keys {
		if i < len(items) {
			parts = append(parts, fmt.Sprintf("%s: %s", key, items[i]))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewEllipsis() *Node {
	return &Node{Type: NodeEllipsis}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

func NewMap(keys []string, items []*Node) *Node {
	return &Node{Type: NodeMap, Keys: keys, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type == NodeSymbol || n.Type == NodeString || n.Type == NodeInteger || n.Type == NodeEllipsis
}

// IsSymbol reports whether n is the symbol name.
func (n *Node) IsSymbol(name string) bool {
	return n.Type == NodeSymbol && n.Text == name
}

// Head returns the leading symbol of a list, or "".
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Meta returns the metadata value stored under key.
func (n *Node) Meta(key string) (*Node, bool) {
	for i, k := range n.MetaKeys {
		if k == key && i < len(n.MetaItems) {
			return n.MetaItems[i], true
		}
	}
	return nil, false
}

// Get returns the value of a map entry.
func (n *Node) Get(key string) (*Node, bool) {
	for i, k := range n.Keys {
		if k == key && i < len(n.Items) {
			return n.Items[i], true
		}
	}
	return nil, false
}

// Pos formats the node's position as line:col.
func (n *Node) Pos() string {
	return fmt.Sprintf("%d:%d", n.Line, n.Col)
}

type parser struct {
	lexer        *lexer
	currentToken token
	peekToken    token
}

// Parse parses input, which must hold exactly one datum.
func Parse(input string) (*Node, error) {
	nodes, err := ParseAll(input)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("expected exactly one datum, found %d", len(nodes))
	}
	return nodes[0], nil
}

// ParseAll parses every top-level datum of input.
func ParseAll(input string) ([]*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()
	p.nextToken()

	var nodes []*Node
	for p.currentToken.Type != tokenEOF {
		node, err := p.parseDatum()
		if len(p.lexer.errors) > 0 {
			// Lexer errors take priority because they might cause confusing parser errors.
			return nil, p.lexer.errors[0]
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if len(p.lexer.errors) > 0 {
		return nil, p.lexer.errors[0]
	}
	return nodes, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.nextToken()
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%d:%d: %s", p.currentToken.Line, p.currentToken.Col, fmt.Sprintf(format, args...))
}

func (p *parser) parseDatum() (*Node, error) {
	tok := p.currentToken
	var node *Node
	switch tok.Type {
	case tokenSymbol:
		node = NewSymbol(tok.Value)
		p.nextToken()
	case tokenString:
		node = NewString(tok.Value)
		p.nextToken()
	case tokenInteger:
		node = NewInteger(tok.Value)
		p.nextToken()
	case tokenEllipsis:
		node = NewEllipsis()
		p.nextToken()
	case tokenLParen:
		var err error
		if node, err = p.parseList(); err != nil {
			return nil, err
		}
	case tokenLBrace:
		var err error
		if node, err = p.parseMap(); err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf("unexpected %s", tok.Type)
	}
	node.Line, node.Col = tok.Line, tok.Col
	return node, nil
}

func (p *parser) parseList() (*Node, error) {
	list := NewList()
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type != tokenCaret {
			item, err := p.parseDatum()
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
			continue
		}
		p.nextToken() // consume '^'
		if p.currentToken.Type != tokenLBrace {
			return nil, p.errorf("expected '{' after '^' but got %s", p.currentToken.Type)
		}
		meta, err := p.parseMap()
		if err != nil {
			return nil, err
		}
		// Later values win.
	merge:
		for i, key := range meta.Keys {
			for j, existing := range list.MetaKeys {
				if existing == key {
					list.MetaItems[j] = meta.Items[i]
					continue merge
				}
			}
			list.MetaKeys = append(list.MetaKeys, key)
			list.MetaItems = append(list.MetaItems, meta.Items[i])
		}
	}

	if p.currentToken.Type != tokenRParen {
		return nil, p.errorf("expected ')' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume ')'
	return list, nil
}

func (p *parser) parseMap() (*Node, error) {
	m := NewMap(nil, nil)
	p.nextToken() // consume '{'

	for p.currentToken.Type != tokenRBrace && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type != tokenSymbol {
			return nil, p.errorf("expected symbol for map key but got %s", p.currentToken.Type)
		}
		key := p.currentToken.Value
		p.nextToken()

		if p.currentToken.Type != tokenColon {
			return nil, p.errorf("expected ':' after map key but got %s", p.currentToken.Type)
		}
		p.nextToken()

		value, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Items = append(m.Items, value)

		if p.currentToken.Type == tokenComma {
			p.nextToken()
		} else if p.currentToken.Type != tokenRBrace {
			return nil, p.errorf("expected ',' or '}' in map but got %s", p.currentToken.Type)
		}
	}

	if p.currentToken.Type != tokenRBrace {
		return nil, p.errorf("expected '}' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume '}'
	return m, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenEllipsis
	tokenLParen
	tokenRParen
	tokenLBrace
	tokenRBrace
	tokenColon
	tokenComma
	tokenCaret
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenEllipsis:
		return "ellipsis"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBrace:
		return "'{'"
	case tokenRBrace:
		return "'}'"
	case tokenColon:
		return "':'"
	case tokenComma:
		return "','"
	case tokenCaret:
		return "'^'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
	Line  int
	Col   int
}

type lexer struct {
	input    string
	position int
	current  rune
	line     int
	col      int
	errors   []error
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
		l.col = 0
	}
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = rune(l.input[l.position])
	}
	l.position++
	l.col++
}

func (l *lexer) peekChar() rune {
	if l.position >= len(l.input) {
		return 0
	}
	return rune(l.input[l.position])
}

func (l *lexer) errorf(line, col int, format string, args ...any) token {
	l.errors = append(l.errors, fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...)))
	return token{Type: tokenEOF, Line: line, Col: col}
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != '\r' && l.current != 0 {
		l.readChar()
	}
}

func (l *lexer) readSymbol() string {
	start := l.position - 1
	for isSymbolChar(l.current) {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) readString() (string, error) {
	var sb strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				return "", fmt.Errorf("invalid escape sequence: \\%c", l.current)
			}
		} else {
			sb.WriteByte(byte(l.current))
		}
		l.readChar()
	}

	if l.current != '"' {
		return "", fmt.Errorf("unterminated string")
	}
	l.readChar() // skip closing quote
	return sb.String(), nil
}

func (l *lexer) readInteger() string {
	start := l.position - 1
	if l.current == '+' || l.current == '-' {
		l.readChar()
	}
	for unicode.IsDigit(l.current) {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()
		line, col := l.line, l.col

		simple := func(t tokenType) token {
			v := string(l.current)
			l.readChar()
			return token{Type: t, Value: v, Line: line, Col: col}
		}

		switch l.current {
		case 0:
			return token{Type: tokenEOF, Line: line, Col: col}
		case ';':
			l.skipComment()
			continue
		case '(':
			return simple(tokenLParen)
		case ')':
			return simple(tokenRParen)
		case '{':
			return simple(tokenLBrace)
		case '}':
			return simple(tokenRBrace)
		case ':':
			return simple(tokenColon)
		case ',':
			return simple(tokenComma)
		case '^':
			return simple(tokenCaret)
		case '"':
			str, err := l.readString()
			if err != nil {
				return l.errorf(line, col, "%v", err)
			}
			return token{Type: tokenString, Value: str, Line: line, Col: col}
		case '.':
			if l.peekChar() == '.' {
				l.readChar()
				if l.peekChar() == '.' {
					l.readChar()
					l.readChar()
					return token{Type: tokenEllipsis, Value: "...", Line: line, Col: col}
				}
			}
			return l.errorf(line, col, "unexpected character '.'")
		default:
			if isSymbolStart(l.current) {
				return token{Type: tokenSymbol, Value: l.readSymbol(), Line: line, Col: col}
			}
			if unicode.IsDigit(l.current) || l.current == '+' || l.current == '-' {
				if (l.current == '+' || l.current == '-') && !unicode.IsDigit(l.peekChar()) {
					// Single + or - is a symbol
					return simple(tokenSymbol)
				}
				return token{Type: tokenInteger, Value: l.readInteger(), Line: line, Col: col}
			}
			return l.errorf(line, col, "unexpected character '%c'", l.current)
		}
	}
}

func isSymbolStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}
