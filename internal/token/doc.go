// Package token defines lexical token kinds and trivia for the C++ front end.
// Invariants:
//   - Token.Text is a slice of the original source (no copies), except for
//     tokens produced by macro replacement, whose Span points at the use site.
//   - Token.Span matches Text exactly (Begin..End) for ordinary tokens.
//   - Preprocessor lines never appear in the main token stream; they are kept
//     as leading Trivia (TriviaDirective).
//   - Fundamental type names (int, char, bool, ...) are keywords.
//   - '>>' is lexed as one token; the parser splits it inside template argument lists.
package token
