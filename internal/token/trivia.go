package token

import "cppsema/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaNewline
	TriviaLineComment
	TriviaBlockComment
	TriviaDirective
)

// Directive is a parsed preprocessor line such as "#define N 3".
type Directive struct {
	Name    string // define, include, undef, pragma, ...
	Payload string // text after the directive name
	// Body spans the payload in the file, used to lex macro replacement lists.
	Body source.Span
}

type Trivia struct {
	Kind      TriviaKind
	Span      source.Span
	Text      string
	Directive *Directive // only when Kind == TriviaDirective
}

func (k TriviaKind) String() string {
	switch k {
	case TriviaSpace:
		return "space"
	case TriviaNewline:
		return "newline"
	case TriviaLineComment:
		return "line_comment"
	case TriviaBlockComment:
		return "block_comment"
	case TriviaDirective:
		return "directive"
	}
	return "unknown"
}
