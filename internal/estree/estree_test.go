package estree

import "testing"

func TestDecodeProgram(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{
			name: "empty program",
			src:  `{"type":"Program","body":[]}`,
		},
		{
			name: "display call",
			src: `{"type":"Program","body":[
				{"type":"ExpressionStatement","expression":
					{"type":"CallExpression","callee":{"type":"Identifier","name":"display"},
					 "arguments":[{"type":"Literal","value":true}]}}
			]}`,
		},
		{
			name:    "not a program",
			src:     `{"type":"Literal","value":1}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			src:     `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Decode([]byte(tt.src))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Decode(%q) succeeded, want error", tt.src)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) failed: %v", tt.src, err)
			}
			if n.Type != "Program" {
				t.Fatalf("Type = %q, want Program", n.Type)
			}
		})
	}
}

func TestDecodeAmbiguousFields(t *testing.T) {
	src := `{"type":"Program","body":[
		{"type":"FunctionDeclaration","id":{"type":"Identifier","name":"f"},
		 "params":[{"type":"Identifier","name":"x"}],
		 "body":{"type":"BlockStatement","body":[
			{"type":"ReturnStatement","argument":{"type":"Identifier","name":"x"}}
		 ]}},
		{"type":"ExpressionStatement","expression":
			{"type":"ArrowFunctionExpression","expression":true,
			 "params":[{"type":"Identifier","name":"y"}],
			 "body":{"type":"Identifier","name":"y"}}}
	]}`

	n, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(n.Body) != 2 {
		t.Fatalf("len(Body) = %d, want 2", len(n.Body))
	}

	fn := n.Body[0]
	if fn.Type != "FunctionDeclaration" {
		t.Fatalf("Body[0].Type = %q, want FunctionDeclaration", fn.Type)
	}
	if fn.BodyExpr == nil || fn.BodyExpr.Type != "BlockStatement" {
		t.Fatalf("FunctionDeclaration.BodyExpr = %+v, want a BlockStatement node", fn.BodyExpr)
	}
	if len(fn.BodyExpr.Body) != 1 {
		t.Fatalf("len(FunctionDeclaration.BodyExpr.Body) = %d, want 1", len(fn.BodyExpr.Body))
	}

	exprStmt := n.Body[1]
	if exprStmt.ExprStmt == nil {
		t.Fatalf("ExpressionStatement.ExprStmt is nil")
	}
	arrow := exprStmt.ExprStmt
	if arrow.Type != "ArrowFunctionExpression" {
		t.Fatalf("ExprStmt.Type = %q, want ArrowFunctionExpression", arrow.Type)
	}
	if !arrow.IsExpressionBody {
		t.Fatalf("IsExpressionBody = false, want true")
	}
	if arrow.BodyExpr == nil || arrow.BodyExpr.Type != "Identifier" {
		t.Fatalf("arrow.BodyExpr = %+v, want Identifier node", arrow.BodyExpr)
	}
}

func TestDecodeLiteralValues(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantBool  *bool
		wantFloat *float64
	}{
		{name: "boolean literal", src: `{"type":"Literal","value":false}`},
		{name: "numeric literal", src: `{"type":"Literal","value":3.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Node
			data := []byte(tt.src)
			if err := n.UnmarshalJSON(data); err != nil {
				t.Fatalf("UnmarshalJSON failed: %v", err)
			}
			if n.BoolValue == nil && n.NumValue == nil {
				t.Fatalf("neither BoolValue nor NumValue was set")
			}
		})
	}
}
