package codegen

import (
	"strings"
	"testing"

	"essc/internal/estree"
)

func mustDecode(t *testing.T, src string) *estree.Node {
	t.Helper()
	n, err := estree.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return n
}

func TestCompileEmptyProgramDisplaysUndefined(t *testing.T) {
	program := mustDecode(t, `{"type":"Program","body":[]}`)
	ir, err := Compile(program)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.Contains(ir, "define i32 @main") {
		t.Fatalf("IR does not define main:\n%s", ir)
	}
	if strings.Count(ir, "call void @display(") != 1 {
		t.Fatalf("empty program should call display once:\n%s", ir)
	}
}

func TestCompileDisplayCall(t *testing.T) {
	program := mustDecode(t, `{"type":"Program","body":[
		{"type":"ExpressionStatement","expression":
			{"type":"CallExpression","callee":{"type":"Identifier","name":"display"},
			 "arguments":[{"type":"Literal","value":true}]}}
	]}`)

	ir, err := Compile(program)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.Contains(ir, "source_obj") {
		t.Fatalf("IR does not mention the source_obj struct:\n%s", ir)
	}
}

func TestCompileUnresolvedIdentifierFails(t *testing.T) {
	program := mustDecode(t, `{"type":"Program","body":[
		{"type":"ExpressionStatement","expression":{"type":"Identifier","name":"nope"}}
	]}`)
	if _, err := Compile(program); err == nil {
		t.Fatalf("Compile should fail on an unresolved identifier")
	}
}

func TestCompileTopLevelReturnFails(t *testing.T) {
	program := mustDecode(t, `{"type":"Program","body":[
		{"type":"ReturnStatement","argument":{"type":"Literal","value":true}}
	]}`)
	if _, err := Compile(program); err == nil {
		t.Fatalf("Compile should reject a top-level return statement")
	}
}

func TestCompileRecursiveFunction(t *testing.T) {
	// function f(n) { return n === 0 ? 1 : n * f(n - 1); } display(f(5));
	program := mustDecode(t, `{"type":"Program","body":[
		{"type":"FunctionDeclaration","id":{"type":"Identifier","name":"f"},
		 "params":[{"type":"Identifier","name":"n"}],
		 "body":{"type":"BlockStatement","body":[
			{"type":"ReturnStatement","argument":
				{"type":"ConditionalExpression",
				 "test":{"type":"BinaryExpression","operator":"===",
					"left":{"type":"Identifier","name":"n"},
					"right":{"type":"Literal","value":0}},
				 "consequent":{"type":"Literal","value":1},
				 "alternate":{"type":"BinaryExpression","operator":"*",
					"left":{"type":"Identifier","name":"n"},
					"right":{"type":"CallExpression","callee":{"type":"Identifier","name":"f"},
						"arguments":[{"type":"BinaryExpression","operator":"-",
							"left":{"type":"Identifier","name":"n"},
							"right":{"type":"Literal","value":1}}]}}}}
		 ]}},
		{"type":"ExpressionStatement","expression":
			{"type":"CallExpression","callee":{"type":"Identifier","name":"display"},
			 "arguments":[{"type":"CallExpression","callee":{"type":"Identifier","name":"f"},
				"arguments":[{"type":"Literal","value":5}]}]}}
	]}`)

	ir, err := Compile(program)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.Contains(ir, "__f") {
		t.Fatalf("IR does not define the named closure for f:\n%s", ir)
	}
}

func TestCompileNestedClosureCapture(t *testing.T) {
	// const a = (x => y => x + y)(10); display(a(32));
	program := mustDecode(t, `{"type":"Program","body":[
		{"type":"VariableDeclaration","declarations":[{"id":{"type":"Identifier","name":"a"},
			"init":{"type":"CallExpression",
				"callee":{"type":"ArrowFunctionExpression","expression":true,
					"params":[{"type":"Identifier","name":"x"}],
					"body":{"type":"ArrowFunctionExpression","expression":true,
						"params":[{"type":"Identifier","name":"y"}],
						"body":{"type":"BinaryExpression","operator":"+",
							"left":{"type":"Identifier","name":"x"},
							"right":{"type":"Identifier","name":"y"}}}},
				"arguments":[{"type":"Literal","value":10}]}}]},
		{"type":"ExpressionStatement","expression":
			{"type":"CallExpression","callee":{"type":"Identifier","name":"display"},
			 "arguments":[{"type":"CallExpression","callee":{"type":"Identifier","name":"a"},
				"arguments":[{"type":"Literal","value":32}]}]}}
	]}`)

	if _, err := Compile(program); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
}
