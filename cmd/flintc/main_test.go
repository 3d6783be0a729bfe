package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flint-lang/flintc/pkg/token"
)

// fixtureTokens builds the token stream for:
//
//	def main() -> i32:
//	    return 0;
//
// one physical line per definition/statement, matching the Line-grouping
// contract groupLines relies on.
func fixtureTokens() []token.Token {
	return []token.Token{
		{Kind: token.KindKeywordDef, Lexeme: "def", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "main", Line: 1},
		{Kind: token.KindLParen, Lexeme: "(", Line: 1},
		{Kind: token.KindRParen, Lexeme: ")", Line: 1},
		{Kind: token.KindArrow, Lexeme: "->", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "i32", Line: 1},
		{Kind: token.KindColon, Lexeme: ":", Line: 1},

		{Kind: token.KindIndent, Lexeme: "", Line: 2},
		{Kind: token.KindKeywordReturn, Lexeme: "return", Line: 2},
		{Kind: token.KindIntLiteral, Lexeme: "0", Line: 2},
		{Kind: token.KindSemicolon, Lexeme: ";", Line: 2},
	}
}

func writeFixture(t *testing.T) string {
	t.Helper()
	content, err := json.Marshal(fixtureTokens())
	if err != nil {
		t.Fatalf("unable to marshal fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}
	return path
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("unable to create pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unable to read captured stdout: %v", err)
	}
	return string(out)
}

func TestHandlerLowersFunctionToIR(t *testing.T) {
	path := writeFixture(t)

	var status int
	out := captureStdout(t, func() {
		status = Handler([]string{path}, map[string]string{})
	})

	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}
	if !strings.Contains(out, "func main(") {
		t.Fatalf("expected printed IR to contain the lowered main function, got:\n%s", out)
	}
	if !strings.Contains(out, "ret %") {
		t.Fatalf("expected printed IR to contain a return instruction, got:\n%s", out)
	}
}

func TestHandlerRejectsMissingArgument(t *testing.T) {
	status := captureStdoutStatus(t, []string{}, map[string]string{})
	if status == 0 {
		t.Fatal("expected a non-zero exit status for a missing token fixture argument")
	}
}

func captureStdoutStatus(t *testing.T, args []string, options map[string]string) int {
	t.Helper()
	var status int
	captureStdout(t, func() { status = Handler(args, options) })
	return status
}
