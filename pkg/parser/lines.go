package parser

import "github.com/flint-lang/flintc/pkg/token"

// groupLines splits a flat token slice into physical lines by Token.Line,
// preserving source order.
// Leading KindIndent tokens are kept in place; callers strip them on demand
// via stripIndents so that indent counts stay meaningful for recursive
// (nested-block) extraction. KindEOF is dropped.
func groupLines(tokens []token.Token) [][]token.Token {
	var lines [][]token.Token
	var cur []token.Token
	curLine := -1

	for _, t := range tokens {
		if t.Kind == token.KindEOF {
			continue
		}
		if curLine == -1 {
			curLine = t.Line
		}
		if t.Line != curLine {
			lines = append(lines, cur)
			cur = nil
			curLine = t.Line
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// stripIndents drops every leading KindIndent token from a single line,
// returning the indent count and the remaining content tokens.
func stripIndents(line []token.Token) (indent int, rest []token.Token) {
	indent = GetLeadingIndents(line)
	return indent, line[indent:]
}

// extractDefinition consumes the next definition line: the contiguous run
// of tokens sharing the first remaining line, plus its leading indent
// count. It returns the definition's
// content tokens (its own indents stripped), the indent count, and the
// number of physical lines consumed (always 1 for a definition header).
func extractDefinition(lines [][]token.Token) (indent int, header []token.Token, consumed int) {
	if len(lines) == 0 {
		return 0, nil, 0
	}
	indent, header = stripIndents(lines[0])
	return indent, header, 1
}

// extractBody returns every consecutive RAW line (indents left intact)
// whose leading indent is strictly greater than baseIndent, starting at
// lines[from].
// Leaving indents intact lets a caller recurse into a further-nested block
// using the same comparison.
func extractBody(lines [][]token.Token, from int, baseIndent int) (body [][]token.Token, consumed int) {
	i := from
	for i < len(lines) {
		if GetLeadingIndents(lines[i]) <= baseIndent {
			break
		}
		body = append(body, lines[i])
		i++
	}
	return body, i - from
}

// flatten re-joins line groups back into one token slice, used by
// definitions (data/entity/enum/variant/error) whose bodies are flat lists
// of declarations rather than nested scoped statements.
func flatten(lines [][]token.Token) []token.Token {
	var out []token.Token
	for _, l := range lines {
		_, content := stripIndents(l)
		out = append(out, content...)
	}
	return out
}

// splitColon finds the first top-level (depth-0, outside any paren/bracket/
// brace nesting) colon in tokens, used to separate a scoped construct's
// header from its inline or following body.
func splitColon(tokens []token.Token) (before, after []token.Token, found bool) {
	depth := 0
	for i, t := range tokens {
		switch t.Kind {
		case token.KindLParen, token.KindLBracket, token.KindLBrace:
			depth++
		case token.KindRParen, token.KindRBracket, token.KindRBrace:
			depth--
		case token.KindColon:
			if depth == 0 {
				return tokens[:i], tokens[i+1:], true
			}
		}
	}
	return tokens, nil, false
}
