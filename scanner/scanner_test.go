package scanner

import (
	"testing"

	"nilan/token"
)

func scanAll(t *testing.T, source string) []token.Token {
	t.Helper()
	s := New(source)
	var toks []token.Token
	for {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("scan error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanOperators(t *testing.T) {
	toks := scanAll(t, "== != <= >= < > = ! + - * /")
	want := []token.Kind{
		token.EqualEqual, token.BangEqual, token.LessEqual, token.GreaterEqual,
		token.Less, token.Greater, token.Equal, token.Bang,
		token.Plus, token.Minus, token.Star, token.Slash, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	if toks[0].Kind != token.String || toks[0].Lexeme != "hello world" {
		t.Errorf("got %+v", toks[0])
	}
}

func TestScanMultilineString(t *testing.T) {
	s := New("\"a\nb\"\n1")
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if tok.Lexeme != "a\nb" {
		t.Errorf("lexeme = %q", tok.Lexeme)
	}
	next, err := s.Next()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if next.Line != 3 {
		t.Errorf("line after multiline string = %d, want 3", next.Line)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	s := New(`"abc`)
	_, err := s.Next()
	if _, ok := err.(UnterminatedStringError); !ok {
		t.Errorf("got err %v, want UnterminatedStringError", err)
	}
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, "123 1.5 .5")
	if toks[0].Kind != token.Number || toks[0].Lexeme != "123" {
		t.Errorf("got %+v", toks[0])
	}
	if toks[1].Kind != token.Number || toks[1].Lexeme != "1.5" {
		t.Errorf("got %+v", toks[1])
	}
	// A leading '.' is not part of a number: it scans as Dot then Number.
	if toks[2].Kind != token.Dot {
		t.Errorf("got %+v, want Dot", toks[2])
	}
	if toks[3].Kind != token.Number || toks[3].Lexeme != "5" {
		t.Errorf("got %+v", toks[3])
	}
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll(t, "foo var print true false nil and or")
	want := []token.Kind{
		token.Identifier, token.Var, token.Print, token.True, token.False,
		token.Nil, token.And, token.Or, token.EOF,
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestSkipLineComment(t *testing.T) {
	toks := scanAll(t, "1 // comment\n2")
	if toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Errorf("got %+v", toks)
	}
	if toks[1].Line != 2 {
		t.Errorf("line = %d, want 2", toks[1].Line)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	s := New("@")
	_, err := s.Next()
	if _, ok := err.(UnexpectedCharacterError); !ok {
		t.Errorf("got err %v, want UnexpectedCharacterError", err)
	}
}

func TestEmptySource(t *testing.T) {
	toks := scanAll(t, "")
	if len(toks) != 1 || toks[0].Kind != token.EOF {
		t.Errorf("got %+v", toks)
	}
}
