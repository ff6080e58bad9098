// Package lexer turns source text into a lazily produced stream of tokens.
//
// Tokens are kept in a 4-slot ring buffer, which allows the parser to push
// back up to 3 of them. Whether a '/' starts a regular expression or is the
// division operator depends on the grammar position, so every call that
// scans a token takes a scanOperand flag.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/robertkrimen/otto/file"
	"gopkg.in/sourcemap.v1"

	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

type Token struct {
	Kind    token.Token
	Literal string

	// decoded value of STRING tokens, name of identifiers and keywords
	Value string

	Number    float64
	IsInteger bool
	IsHex     bool

	Pattern string
	Flags   string

	// for ASSIGN, the operator being augmented (e.g. PLUS for +=), or 0
	AssignOp token.Token

	Start, End    int
	Line, EndLine int
}

type Tokenizer struct {
	source   string
	filename string
	file     *file.File

	cursor int
	line   int

	tokens     [4]Token
	tokenIndex int
	lookahead  int
}

func New(source, filename string, line int) *Tokenizer {
	if line < 1 {
		line = 1
	}
	t := &Tokenizer{
		source:   source,
		filename: filename,
		file:     file.NewFile(filename, source, 1),
		line:     line,
	}
	t.tokens[0].Line = line
	t.tokens[0].EndLine = line
	return t
}

// NewWithSourceMap is like New, but positions obtained through File() are
// translated through the given source map.
func NewWithSourceMap(source, filename string, line int, sm *sourcemap.Consumer) *Tokenizer {
	t := New(source, filename, line)
	if sm != nil {
		t.file = t.file.WithSourceMap(sm)
	}
	return t
}

func (t *Tokenizer) File() *file.File { return t.file }
func (t *Tokenizer) Source() string   { return t.source }
func (t *Tokenizer) Filename() string { return t.filename }
func (t *Tokenizer) Line() int        { return t.line }

// Token returns a copy of the current token.
func (t *Tokenizer) Token() *Token {
	tok := t.tokens[t.tokenIndex]
	return &tok
}

// Done reports whether only the end of input is left.
func (t *Tokenizer) Done() bool {
	return t.Peek(true) == token.END
}

func (t *Tokenizer) Match(kind token.Token, scanOperand ...bool) bool {
	operand := len(scanOperand) > 0 && scanOperand[0]
	if t.Next(operand) == kind {
		return true
	}
	t.Unget()
	return false
}

func (t *Tokenizer) MustMatch(kind token.Token) *Token {
	if !t.Match(kind) {
		panic(t.NewSyntaxError("Missing " + kind.Name()))
	}
	return t.Token()
}

func (t *Tokenizer) Peek(scanOperand bool) token.Token {
	if t.lookahead > 0 {
		return t.tokens[(t.tokenIndex+t.lookahead)&3].Kind
	}
	tkn := t.Next(scanOperand)
	t.Unget()
	return tkn
}

// PeekOnSameLine is like Peek, but returns NEWLINE if the next token starts
// on a later line than the one where the current token ends.
func (t *Tokenizer) PeekOnSameLine(scanOperand bool) token.Token {
	currentEnd := t.tokens[t.tokenIndex].EndLine
	tkn := t.Peek(scanOperand)
	if t.tokens[(t.tokenIndex+1)&3].Line > currentEnd {
		return token.NEWLINE
	}
	return tkn
}

func (t *Tokenizer) Unget() {
	t.lookahead++
	if t.lookahead == 4 {
		panic("bug: too much lookahead")
	}
	t.tokenIndex = (t.tokenIndex - 1) & 3
}

func (t *Tokenizer) Next(scanOperand bool) token.Token {
	if t.lookahead > 0 {
		t.lookahead--
		t.tokenIndex = (t.tokenIndex + 1) & 3
		return t.tokens[t.tokenIndex].Kind
	}

	t.skip()

	t.tokenIndex = (t.tokenIndex + 1) & 3
	tok := &t.tokens[t.tokenIndex]
	*tok = Token{
		Start: t.cursor,
		Line:  t.line,
	}

	if t.cursor >= len(t.source) {
		tok.Kind = token.END
		tok.End = t.cursor
		tok.EndLine = t.line
		return tok.Kind
	}

	ch := t.source[t.cursor]
	switch {
	case isIdentifierStart(ch) || (ch >= utf8.RuneSelf && t.unicodeLetterAt(t.cursor)):
		t.lexIdentifier(tok)
	case scanOperand && ch == '/':
		t.lexRegExp(tok)
	case ch == '.':
		t.lexDot(tok)
	case token.IsOperatorStart(ch):
		t.lexOperator(tok)
	case ch >= '1' && ch <= '9':
		t.lexNumber(tok)
	case ch == '0':
		t.lexZeroNumber(tok)
	case ch == '"' || ch == '\'':
		t.lexString(tok)
	default:
		panic(t.NewSyntaxError("Illegal token"))
	}

	tok.End = t.cursor
	tok.EndLine = t.line
	tok.Literal = t.source[tok.Start:tok.End]
	return tok.Kind
}

func (t *Tokenizer) NewSyntaxError(msg string) *SyntaxError {
	start, end, line := t.cursor, t.cursor, t.line
	if t.lookahead > 0 {
		tok := &t.tokens[(t.tokenIndex+t.lookahead)&3]
		start, end, line = tok.Start, tok.End, tok.Line
	}

	column := start + 1
	if nl := strings.LastIndexByte(t.source[:min(start, len(t.source))], '\n'); nl >= 0 {
		column = start - nl
	}

	return &SyntaxError{
		Message:  msg,
		Filename: t.filename,
		Line:     line,
		Column:   column,
		Start:    start,
		End:      end,
		Source:   t.source,
	}
}

func (t *Tokenizer) peekChar(offset int) byte {
	if t.cursor+offset < len(t.source) {
		return t.source[t.cursor+offset]
	}
	return 0
}

func (t *Tokenizer) unicodeLetterAt(offset int) bool {
	r, _ := utf8.DecodeRuneInString(t.source[offset:])
	return unicode.IsLetter(r)
}

// skip eats whitespace and comments.
func (t *Tokenizer) skip() {
	for t.cursor < len(t.source) {
		ch := t.source[t.cursor]
		switch {
		case ch == '\n':
			t.line++
			t.cursor++

		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\v' || ch == '\f':
			t.cursor++

		case ch == '/' && t.peekChar(1) == '*':
			end := strings.Index(t.source[t.cursor+2:], "*/")
			if end == -1 {
				t.cursor = len(t.source)
				panic(t.NewSyntaxError("Unterminated comment"))
			}
			comment := t.source[t.cursor : t.cursor+2+end+2]
			t.line += strings.Count(comment, "\n")
			t.cursor += len(comment)

		case ch == '/' && t.peekChar(1) == '/':
			end := strings.IndexByte(t.source[t.cursor:], '\n')
			if end == -1 {
				t.cursor = len(t.source)
			} else {
				t.cursor += end
			}

		case ch >= utf8.RuneSelf:
			r, size := utf8.DecodeRuneInString(t.source[t.cursor:])
			switch r {
			case '\u00a0', '\ufeff':
			case '\u2028', '\u2029':
				t.line++
			default:
				return
			}
			t.cursor += size

		default:
			return
		}
	}
}

func isIdentifierStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '$' || ch == '_'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func (t *Tokenizer) lexIdentifier(tok *Token) {
	for t.cursor < len(t.source) {
		ch := t.source[t.cursor]
		if isIdentifierStart(ch) || isDigit(ch) {
			t.cursor++
			continue
		}
		if ch >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(t.source[t.cursor:])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				t.cursor += size
				continue
			}
		}
		break
	}

	tok.Value = t.source[tok.Start:t.cursor]
	tok.Kind = token.Keyword(tok.Value)
}

func (t *Tokenizer) skipDigits() {
	for isDigit(t.peekChar(0)) {
		t.cursor++
	}
}

// lexExponent consumes the exponent part of a number, if present.
func (t *Tokenizer) lexExponent() bool {
	ch := t.peekChar(0)
	if ch != 'e' && ch != 'E' {
		return false
	}
	t.cursor++

	ch = t.peekChar(0)
	if ch == '+' || ch == '-' {
		t.cursor++
	}
	if !isDigit(t.peekChar(0)) {
		panic(t.NewSyntaxError("Missing exponent"))
	}
	t.skipDigits()
	return true
}

func (t *Tokenizer) setFloat(tok *Token) {
	value, err := strconv.ParseFloat(t.source[tok.Start:t.cursor], 64)
	if err != nil {
		// ParseFloat reports out-of-range values as ±Inf along with the error
		if numErr, ok := err.(*strconv.NumError); !ok || numErr.Err != strconv.ErrRange {
			panic(t.NewSyntaxError("Invalid number literal"))
		}
	}
	tok.Kind = token.NUMBER
	tok.Number = value
}

func (t *Tokenizer) lexZeroNumber(tok *Token) {
	t.cursor++ // the '0'

	switch ch := t.peekChar(0); {
	case ch == '.':
		t.cursor++
		t.skipDigits()
		t.lexExponent()
		t.setFloat(tok)

	case ch == 'x' || ch == 'X':
		t.cursor++
		digitsStart := t.cursor
		value := 0.0
		for isHexDigit(t.peekChar(0)) {
			digit, _ := strconv.ParseUint(t.source[t.cursor:t.cursor+1], 16, 8)
			value = value*16 + float64(digit)
			t.cursor++
		}
		if t.cursor == digitsStart {
			panic(t.NewSyntaxError("Missing hexadecimal digits"))
		}
		tok.Kind = token.NUMBER
		tok.Number = value
		tok.IsInteger = true
		tok.IsHex = true

	case isDigit(ch):
		digitsStart := t.cursor
		t.skipDigits()
		digits := t.source[digitsStart:t.cursor]
		if strings.ContainsAny(digits, "89") {
			// 08 and 09 are decimal
			value, _ := strconv.ParseFloat(digits, 64)
			tok.Kind = token.NUMBER
			tok.Number = value
			tok.IsInteger = true
			return
		}
		value := 0.0
		for i := 0; i < len(digits); i++ {
			value = value*8 + float64(digits[i]-'0')
		}
		tok.Kind = token.NUMBER
		tok.Number = value
		tok.IsInteger = true

	default:
		// 0, 0e1, ...
		exponent := t.lexExponent()
		tok.Kind = token.NUMBER
		tok.Number = 0
		tok.IsInteger = !exponent
	}
}

func (t *Tokenizer) lexNumber(tok *Token) {
	floating := false
	t.skipDigits()
	if t.peekChar(0) == '.' {
		floating = true
		t.cursor++
		t.skipDigits()
	}
	if t.lexExponent() {
		floating = true
	}
	t.setFloat(tok)
	tok.IsInteger = !floating
}

func (t *Tokenizer) lexDot(tok *Token) {
	if isDigit(t.peekChar(1)) {
		t.cursor++
		t.skipDigits()
		t.lexExponent()
		t.setFloat(tok)
		return
	}

	t.cursor++
	tok.Kind = token.PERIOD
}

func (t *Tokenizer) lexOperator(tok *Token) {
	tkn, length := token.MatchOperator(t.source[t.cursor:])
	if length == 0 {
		panic(t.NewSyntaxError("Illegal token"))
	}
	t.cursor += length

	if token.IsAssignOp(tkn) && t.peekChar(0) == '=' {
		t.cursor++
		tok.AssignOp = tkn
		tkn = token.ASSIGN
	}
	tok.Kind = tkn
}

func (t *Tokenizer) lexString(tok *Token) {
	delim := t.source[t.cursor]
	t.cursor++

	var sb strings.Builder
	for {
		if t.cursor >= len(t.source) {
			panic(t.NewSyntaxError("Unterminated string literal"))
		}

		ch := t.source[t.cursor]
		t.cursor++

		switch ch {
		case delim:
			tok.Kind = token.STRING
			tok.Value = sb.String()
			return

		case '\n':
			panic(t.NewSyntaxError("Unterminated string literal"))

		case '\\':
			t.lexEscape(&sb)

		default:
			sb.WriteByte(ch)
		}
	}
}

func (t *Tokenizer) lexEscape(sb *strings.Builder) {
	if t.cursor >= len(t.source) {
		panic(t.NewSyntaxError("Unterminated string literal"))
	}

	ch := t.source[t.cursor]
	t.cursor++

	switch ch {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')

	case '\r':
		// line continuation
		if t.peekChar(0) == '\n' {
			t.cursor++
		}
		t.line++
	case '\n':
		t.line++

	case 'x':
		value, ok := t.hexValue(2)
		if !ok {
			panic(t.NewSyntaxError("Malformed hexadecimal escape sequence"))
		}
		sb.WriteRune(rune(value))

	case 'u':
		value, ok := t.hexValue(4)
		if !ok {
			panic(t.NewSyntaxError("Malformed Unicode escape sequence"))
		}
		r := rune(value)
		if utf16IsHighSurrogate(r) && t.peekChar(0) == '\\' && t.peekChar(1) == 'u' {
			save := t.cursor
			t.cursor += 2
			low, ok := t.hexValue(4)
			if ok && utf16IsLowSurrogate(rune(low)) {
				r = (r-0xd800)<<10 + (rune(low) - 0xdc00) + 0x10000
			} else {
				t.cursor = save
			}
		}
		sb.WriteRune(r)

	case '0', '1', '2', '3', '4', '5', '6', '7':
		// legacy octal escape; \0 alone is NUL
		value := int(ch - '0')
		maxLen := 2
		if ch > '3' {
			maxLen = 1
		}
		for i := 0; i < maxLen; i++ {
			next := t.peekChar(0)
			if next < '0' || next > '7' {
				break
			}
			value = value*8 + int(next-'0')
			t.cursor++
		}
		sb.WriteRune(rune(value))

	default:
		// \', \", \\ and any other character stand for themselves
		t.cursor--
		r, size := utf8.DecodeRuneInString(t.source[t.cursor:])
		t.cursor += size
		sb.WriteRune(r)
	}
}

func (t *Tokenizer) hexValue(digits int) (int, bool) {
	if t.cursor+digits > len(t.source) {
		return 0, false
	}
	text := t.source[t.cursor : t.cursor+digits]
	for i := 0; i < digits; i++ {
		if !isHexDigit(text[i]) {
			return 0, false
		}
	}
	value, err := strconv.ParseUint(text, 16, 32)
	if err != nil {
		return 0, false
	}
	t.cursor += digits
	return int(value), true
}

func utf16IsHighSurrogate(r rune) bool { return r >= 0xd800 && r < 0xdc00 }
func utf16IsLowSurrogate(r rune) bool  { return r >= 0xdc00 && r < 0xe000 }

func (t *Tokenizer) lexRegExp(tok *Token) {
	t.cursor++ // the opening '/'
	patternStart := t.cursor

	for {
		if t.cursor >= len(t.source) {
			panic(t.NewSyntaxError("Unterminated regex"))
		}
		ch := t.source[t.cursor]
		t.cursor++

		switch ch {
		case '\\':
			if t.cursor >= len(t.source) {
				panic(t.NewSyntaxError("Unterminated regex"))
			}
			t.cursor++

		case '[':
			for {
				if t.cursor >= len(t.source) || t.source[t.cursor] == '\n' {
					panic(t.NewSyntaxError("Unterminated character class"))
				}
				c := t.source[t.cursor]
				t.cursor++
				if c == '\\' {
					t.cursor++
				} else if c == ']' {
					break
				}
			}

		case '\n':
			panic(t.NewSyntaxError("Unterminated regex"))
		}

		if ch == '/' {
			break
		}
	}

	tok.Pattern = t.source[patternStart : t.cursor-1]

	flagsStart := t.cursor
	for {
		ch := t.peekChar(0)
		if ch < 'a' || ch > 'z' {
			break
		}
		t.cursor++
	}
	tok.Flags = t.source[flagsStart:t.cursor]
	tok.Kind = token.REGEXP
}
