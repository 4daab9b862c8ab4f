package codegen

import (
	"strings"
	"testing"
)

func TestEmitterLine(t *testing.T) {
	e := NewEmitter()
	e.Line("var x = 1")
	if got := e.String(); got != "var x = 1\n" {
		t.Errorf("got %q", got)
	}
}

func TestEmitterBlank(t *testing.T) {
	e := NewEmitter()
	e.Line("a")
	e.Blank()
	e.Line("b")
	if got := e.String(); got != "a\n\nb\n" {
		t.Errorf("got %q", got)
	}
}

func TestEmitterBlock(t *testing.T) {
	e := NewEmitter()
	e.Block("if ok")
	e.Line("return 1")
	e.EndBlock()
	expected := "if ok {\n\treturn 1\n}\n"
	if got := e.String(); got != expected {
		t.Errorf("got %q, want %q", got, expected)
	}
}

func TestEmitterNestedBlocks(t *testing.T) {
	e := NewEmitter()
	e.Block("func foo()")
	e.Block("if x")
	e.Line("return")
	e.EndBlock()
	e.EndBlock()
	expected := "func foo() {\n\tif x {\n\t\treturn\n\t}\n}\n"
	if got := e.String(); got != expected {
		t.Errorf("got %q, want %q", got, expected)
	}
}

func TestEmitterFormat(t *testing.T) {
	e := NewEmitter()
	e.Line("var %s = %d", "x", 42)
	if got := e.String(); got != "var x = 42\n" {
		t.Errorf("got %q", got)
	}
}

func TestEmitterCase(t *testing.T) {
	e := NewEmitter()
	e.Block("switch v")
	e.Case("case 1:")
	e.Line("return")
	e.EndBlock()
	got := e.String()
	if !strings.Contains(got, "\ncase 1:\n\treturn\n") {
		t.Errorf("case clause must sit at switch depth, got %q", got)
	}
}
