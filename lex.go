package exprcalc

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type lexToken struct {
	// text is the token as written, except for strings, where it is the
	// decoded value.
	text string
	kind tokenKind
	pos  int
	// prefix holds the lowercased string prefix letters, e.g. "r" or "b".
	prefix string
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

// describe returns the token as it should appear in error messages.
func (t lexToken) describe() string {
	switch t.kind {
	case tokenEOF:
		return "end of input"
	case tokenNewline:
		return "newline"
	case tokenString:
		return "string literal"
	default:
		return strconv.Quote(t.text)
	}
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is an integer, real, or imaginary token.
	tokenNum
	// tokenString is a string literal of any quoting style.
	tokenString
	// tokenIdent is a name or keyword.
	tokenIdent
	// tokenOp is an operator or delimiter like = or ->.
	tokenOp
	// tokenOpen is an open bracket, e.g. (.
	tokenOpen
	// tokenClose is a close bracket, e.g. ).
	tokenClose
	// tokenSep is a comma, colon, or semicolon.
	tokenSep
	// tokenNewline is a line break outside any brackets.
	tokenNewline
)

var tokenNames = [...]string{
	tokenNone:    "None",
	tokenEOF:     "EOF",
	tokenNum:     "Num",
	tokenString:  "String",
	tokenIdent:   "Ident",
	tokenOp:      "Op",
	tokenOpen:    "Open",
	tokenClose:   "Close",
	tokenSep:     "Sep",
	tokenNewline: "Newline",
}

func (k tokenKind) String() string {
	if k < 0 || int(k) >= len(tokenNames) {
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenNames[k]
}

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// The parser checks that a bracket in byte position k in OpenBrackets is
// matched with the bracket in byte position k in CloseBrackets.
const (
	OpenBrackets  = "([{"
	CloseBrackets = ")]}"
)

// operators lists every operator the lexer recognizes, longest first within
// each leading rune. Many of them are only recognized so that the parser can
// reject them with a useful message.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=", ":=", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">", "=", ".",
}

// opRunes contains the runes that may begin an operator.
const opRunes = "+-*/%@&|^~<>=.!:"

type lexer struct {
	src   io.RuneScanner
	buf   strings.Builder
	rune  int
	depth int
	p     lexToken
	eof   bool
	// started is set once any token is scanned. Line breaks before the first
	// token are plain whitespace.
	started bool
}

func lex(src io.RuneScanner) *lexer {
	return &lexer{
		src:  src,
		rune: 1,
	}
}

// push unreads a token so that it is the next token returned from next. Panics
// if there is already a pushed token.
func (l *lexer) push(tok lexToken) {
	if l.p.kind != tokenNone {
		panic("exprcalc: double push")
	}
	l.p = tok
}

// must scans the pushed token. Panics if there is no pushed token.
func (l *lexer) must() lexToken {
	tok := l.p
	if tok.kind == tokenNone {
		panic("exprcalc: no pushed token")
	}
	l.p = lexToken{}
	return tok
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// peekRune returns the next rune without consuming it. ok is false at EOF.
func (l *lexer) peekRune() (r rune, ok bool, err error) {
	r, err = l.readRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, false, nil
		}
		return 0, false, err
	}
	l.unreadRune()
	return r, true, nil
}

// next scans the next token from the input. Once EOF is reached, every
// subsequent call returns another EOF token.
func (l *lexer) next() (lexToken, error) {
	if l.p.kind != tokenNone {
		tok := l.p
		l.p = lexToken{}
		return tok, nil
	}
	tok, err := l.scan()
	if err == nil && tok.kind != tokenEOF {
		l.started = true
	}
	return tok, err
}

func (l *lexer) scan() (lexToken, error) {
	if l.eof {
		return lexToken{kind: tokenEOF, pos: l.rune}, nil
	}
	defer l.buf.Reset()
	tok := lexToken{pos: l.rune}
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				tok.kind = tokenEOF
				l.eof = true
				return tok, nil
			}
			return tok, err
		}
		switch {
		case r == '\n':
			if l.depth > 0 {
				tok.pos++
				continue
			}
			if !l.started {
				tok.pos++
				continue
			}
			// A run of blank lines before EOF is only trailing space.
			end, err := l.skipBlank()
			if err != nil {
				return tok, err
			}
			if end {
				tok.kind = tokenEOF
				l.eof = true
				return tok, nil
			}
			tok.kind = tokenNewline
			tok.text = "\n"
			return tok, nil
		case unicode.IsSpace(r):
			tok.pos++
			continue
		case r == '#':
			if err := l.skipComment(); err != nil {
				return tok, err
			}
			tok.pos = l.rune
			continue
		case r == '\\':
			// Explicit line joining.
			r, err := l.readRune()
			if err != nil || r != '\n' {
				l.buf.WriteRune('\\')
				return tok, l.error("")
			}
			tok.pos = l.rune
			continue
		case '0' <= r && r <= '9':
			l.unreadRune()
			if err := l.scanNum(false); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenNum
			return tok, nil
		case r == '.':
			nx, ok, err := l.peekRune()
			if err != nil {
				return tok, err
			}
			if ok && '0' <= nx && nx <= '9' {
				l.buf.WriteRune('.')
				if err := l.scanNum(true); err != nil {
					return tok, err
				}
				tok.text = l.buf.String()
				tok.kind = tokenNum
				return tok, nil
			}
			l.buf.WriteRune('.')
			return l.scanOp(tok)
		case r == '"', r == '\'':
			if err := l.scanString(r, ""); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenString
			return tok, nil
		case r == '_', unicode.IsLetter(r):
			l.unreadRune()
			if err := l.scanIdent(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenIdent
			if prefix, ok := stringPrefix(tok.text); ok {
				q, ok, err := l.peekRune()
				if err != nil {
					return tok, err
				}
				if ok && (q == '"' || q == '\'') {
					l.readRune()
					l.buf.Reset()
					if err := l.scanString(q, prefix); err != nil {
						return tok, err
					}
					tok.text = l.buf.String()
					tok.kind = tokenString
					tok.prefix = prefix
				}
			}
			return tok, nil
		case r == ',', r == ';':
			tok.text = string(r)
			tok.kind = tokenSep
			return tok, nil
		case r == ':':
			nx, ok, err := l.peekRune()
			if err != nil {
				return tok, err
			}
			if ok && nx == '=' {
				l.readRune()
				tok.text = ":="
				tok.kind = tokenOp
				return tok, nil
			}
			tok.text = ":"
			tok.kind = tokenSep
			return tok, nil
		default:
			if k := strings.IndexRune(OpenBrackets, r); k >= 0 {
				l.depth++
				tok.text = OpenBrackets[k : k+1]
				tok.kind = tokenOpen
				return tok, nil
			}
			if k := strings.IndexRune(CloseBrackets, r); k >= 0 {
				if l.depth > 0 {
					l.depth--
				}
				tok.text = CloseBrackets[k : k+1]
				tok.kind = tokenClose
				return tok, nil
			}
			if strings.ContainsRune(opRunes, r) {
				l.unreadRune()
				return l.scanOp(tok)
			}
			// Write the rune so that it shows up in the error message.
			l.buf.WriteRune(r)
			return tok, l.error("")
		}
	}
}

// skipBlank consumes whitespace, line breaks, and comments following a line
// break. It reports whether the input ended.
func (l *lexer) skipBlank() (bool, error) {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return true, nil
			}
			return false, err
		}
		switch {
		case r == '#':
			if err := l.skipComment(); err != nil {
				return false, err
			}
		case unicode.IsSpace(r):
		default:
			l.unreadRune()
			return false, nil
		}
	}
}

// skipComment consumes runes up to but not including the next line break.
func (l *lexer) skipComment() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if r == '\n' {
			l.unreadRune()
			return nil
		}
	}
}

// scanOp scans the longest operator at the current position.
func (l *lexer) scanOp(tok lexToken) (lexToken, error) {
	for {
		r, err := l.readRune()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return tok, err
			}
			break
		}
		if !strings.ContainsRune(opRunes, r) || !isOpPrefix(l.buf.String()+string(r)) {
			l.unreadRune()
			break
		}
		l.buf.WriteRune(r)
	}
	s := l.buf.String()
	for _, op := range operators {
		if s == op {
			tok.text = op
			tok.kind = tokenOp
			return tok, nil
		}
	}
	return tok, l.error("operator")
}

// isOpPrefix returns whether s is a prefix of any operator.
func isOpPrefix(s string) bool {
	for _, op := range operators {
		if strings.HasPrefix(op, s) {
			return true
		}
	}
	return false
}

// scanNum scans a numeric literal. dot indicates that the caller has already
// written a leading decimal point to the buffer.
func (l *lexer) scanNum(dot bool) error {
	var dig, e, le, ed, base, j bool
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if r == '+' || r == '-' {
			// + or - anywhere other than immediately following an exponent
			// marker means a new token, as it is an operator.
			if !le {
				l.unreadRune()
				break
			}
			le = false
			l.buf.WriteRune(r)
			continue
		}
		if !(r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			l.unreadRune()
			break
		}
		if j {
			// Nothing may follow an imaginary marker.
			l.buf.WriteRune(r)
			return l.error("number")
		}
		if base {
			l.buf.WriteRune(r)
			if r != '_' && !isHexDigit(r) {
				return l.error("number")
			}
			continue
		}
		l.buf.WriteRune(r)
		switch r {
		case '.':
			if dot || e {
				return l.error("number")
			}
			dot = true
			le = false
		case 'e', 'E':
			if !dig || e {
				return l.error("number")
			}
			e = true
			le = true
		case 'x', 'X', 'o', 'O', 'b', 'B':
			if l.buf.String() != "0"+string(r) {
				return l.error("number")
			}
			base = true
		case 'j', 'J':
			if !dig && !ed {
				return l.error("number")
			}
			j = true
		case '_':
			le = false
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			if e {
				ed = true
			} else {
				dig = true
			}
			le = false
		default:
			return l.error("number")
		}
	}
	if base {
		if len(l.buf.String()) <= 2 {
			return l.error("number")
		}
		return nil
	}
	if (!dig && !ed) || (e && !ed) {
		return l.error("number")
	}
	return nil
}

func isHexDigit(r rune) bool {
	return '0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
}

func (l *lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the rune that decides ident scanning before
				// calling scanIdent, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		switch {
		case r == '_', unicode.IsLetter(r), unicode.IsDigit(r):
			l.buf.WriteRune(r)
		default:
			l.unreadRune()
			return nil
		}
	}
}

// stringPrefix returns the normalized prefix if s is a valid string literal
// prefix.
func stringPrefix(s string) (string, bool) {
	p := strings.ToLower(s)
	switch p {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return p, true
	}
	return "", false
}

// scanString scans a string literal whose opening quote q has already been
// read. The decoded contents are left in the buffer.
func (l *lexer) scanString(q rune, prefix string) error {
	raw := strings.ContainsRune(prefix, 'r')
	triple := false
	r, err := l.readRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return l.error("string")
		}
		return err
	}
	if r == q {
		r2, err := l.readRune()
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if err == nil && r2 == q {
			triple = true
		} else {
			// Empty string.
			if err == nil {
				l.unreadRune()
			}
			return nil
		}
	} else {
		l.unreadRune()
	}
	quotes := 0
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return l.error("string")
			}
			return err
		}
		if r == q {
			if !triple {
				return nil
			}
			quotes++
			if quotes == 3 {
				return nil
			}
			continue
		}
		for ; quotes > 0; quotes-- {
			l.buf.WriteRune(q)
		}
		switch {
		case r == '\n' && !triple:
			return l.error("string")
		case r == '\\':
			if err := l.scanEscape(q, raw); err != nil {
				return err
			}
		default:
			l.buf.WriteRune(r)
		}
	}
}

// scanEscape decodes one escape sequence after a backslash.
func (l *lexer) scanEscape(q rune, raw bool) error {
	r, err := l.readRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return l.error("string")
		}
		return err
	}
	if raw {
		// Raw strings keep the backslash, but it still protects a quote.
		l.buf.WriteByte('\\')
		l.buf.WriteRune(r)
		return nil
	}
	switch r {
	case '\n':
		// Line continuation inside the literal.
	case '\\', '\'', '"':
		l.buf.WriteRune(r)
	case 'a':
		l.buf.WriteByte('\a')
	case 'b':
		l.buf.WriteByte('\b')
	case 'f':
		l.buf.WriteByte('\f')
	case 'n':
		l.buf.WriteByte('\n')
	case 'r':
		l.buf.WriteByte('\r')
	case 't':
		l.buf.WriteByte('\t')
	case 'v':
		l.buf.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(r - '0')
		for i := 0; i < 2; i++ {
			d, ok, err := l.peekRune()
			if err != nil {
				return err
			}
			if !ok || d < '0' || d > '7' {
				break
			}
			l.readRune()
			v = v*8 + int(d-'0')
		}
		l.buf.WriteRune(rune(v))
	case 'x':
		return l.scanHexEscape(2)
	case 'u':
		return l.scanHexEscape(4)
	case 'U':
		return l.scanHexEscape(8)
	default:
		// Unknown escapes are kept verbatim.
		l.buf.WriteByte('\\')
		l.buf.WriteRune(r)
	}
	return nil
}

func (l *lexer) scanHexEscape(n int) error {
	v := 0
	for i := 0; i < n; i++ {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return l.error("string")
			}
			return err
		}
		if !isHexDigit(r) {
			l.buf.WriteRune(r)
			return l.error("string")
		}
		d, _ := strconv.ParseUint(string(r), 16, 8)
		v = v<<4 | int(d)
	}
	if v > unicode.MaxRune {
		return l.error("string")
	}
	l.buf.WriteRune(rune(v))
	return nil
}

func (l *lexer) error(kind string) error {
	return &LexError{
		Text: l.buf.String(),
		Kind: kind,
		Col:  l.rune,
	}
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the token the lexer was scanning when the invalid rune was
	// encountered, plus the invalid rune.
	Text string
	// Kind is the type of token the lexer was scanning. This may be "number",
	// "string", "operator", or the empty string (if a token kind hadn't been
	// decided).
	Kind string
	// Col is the total number of runes scanned by the lexer up to and
	// including this error.
	Col int
}

func (err *LexError) Error() string {
	pos := "column " + strconv.Itoa(err.Col)
	if err.Kind == "" {
		return "invalid token at " + pos + ": " + err.Text
	}
	return "invalid " + err.Kind + " token at " + pos + ": " + err.Text
}

func (err *LexError) Pos() int {
	return err.Col
}
