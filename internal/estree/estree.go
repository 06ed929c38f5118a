// Package estree decodes the pre-parsed JSON syntax tree that the generator lowers.
//
// The node shapes mirror the ES-tree dialect the compiler's upstream parser emits
// (see SPEC_FULL.md, Section 6). A handful of fields are overloaded across node
// kinds the same way the original implementation reads them out of a dynamically
// typed JSON value: "body" is either a statement list (Program, BlockStatement) or
// a single node (a function body), and "expression" is either a bool
// (ArrowFunctionExpression's expression-body flag) or a node (ExpressionStatement's
// operand). Node's UnmarshalJSON resolves both by trying each shape in turn.
package estree

import (
	"encoding/json"
	"fmt"
)

// Declarator is a single entry of a VariableDeclaration's declarations list.
// Only one declarator per declaration is supported (SPEC_FULL.md Section 4.5).
type Declarator struct {
	ID   *Node `json:"id"`
	Init *Node `json:"init"`
}

// Node is a single ES-tree node, decoded generically and dispatched on Type.
type Node struct {
	Type string

	Body         []Node
	BodyExpr     *Node
	Declarations []Declarator
	ID           *Node
	Params       []Node
	Name         string
	Operator     string
	Argument     *Node
	Left         *Node
	Right        *Node
	Test         *Node
	Consequent   *Node
	Alternate    *Node
	Callee       *Node
	Arguments    []Node

	// IsExpressionBody is ArrowFunctionExpression's "expression" flag: true when
	// BodyExpr holds a bare expression rather than a BlockStatement.
	IsExpressionBody bool
	// ExprStmt is ExpressionStatement's "expression" operand.
	ExprStmt *Node

	BoolValue *bool
	NumValue  *float64
}

// UnmarshalJSON decodes a node, resolving the fields whose JSON shape depends on
// which node Type is present.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type         string          `json:"type"`
		Body         json.RawMessage `json:"body"`
		Declarations []Declarator    `json:"declarations"`
		ID           *Node           `json:"id"`
		Params       []Node          `json:"params"`
		Name         string          `json:"name"`
		Operator     string          `json:"operator"`
		Argument     *Node           `json:"argument"`
		Left         *Node           `json:"left"`
		Right        *Node           `json:"right"`
		Test         *Node           `json:"test"`
		Consequent   *Node           `json:"consequent"`
		Alternate    *Node           `json:"alternate"`
		Expression   json.RawMessage `json:"expression"`
		Callee       *Node           `json:"callee"`
		Arguments    []Node          `json:"arguments"`
		Value        json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("estree: decode node: %w", err)
	}

	n.Type = raw.Type
	n.Declarations = raw.Declarations
	n.ID = raw.ID
	n.Params = raw.Params
	n.Name = raw.Name
	n.Operator = raw.Operator
	n.Argument = raw.Argument
	n.Left = raw.Left
	n.Right = raw.Right
	n.Test = raw.Test
	n.Consequent = raw.Consequent
	n.Alternate = raw.Alternate
	n.Callee = raw.Callee
	n.Arguments = raw.Arguments

	if len(raw.Body) > 0 {
		var arr []Node
		if err := json.Unmarshal(raw.Body, &arr); err == nil {
			n.Body = arr
		} else {
			var single Node
			if err := json.Unmarshal(raw.Body, &single); err != nil {
				return fmt.Errorf("estree: node %q has unrecognized \"body\" shape: %w", raw.Type, err)
			}
			n.BodyExpr = &single
		}
	}

	if len(raw.Expression) > 0 {
		var b bool
		if err := json.Unmarshal(raw.Expression, &b); err == nil {
			n.IsExpressionBody = b
		} else {
			var node Node
			if err := json.Unmarshal(raw.Expression, &node); err != nil {
				return fmt.Errorf("estree: node %q has unrecognized \"expression\" shape: %w", raw.Type, err)
			}
			n.ExprStmt = &node
		}
	}

	if len(raw.Value) > 0 {
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err == nil {
			n.BoolValue = &b
		} else {
			var f float64
			if err := json.Unmarshal(raw.Value, &f); err != nil {
				return fmt.Errorf("estree: literal node has unrecognized \"value\" shape: %w", err)
			}
			n.NumValue = &f
		}
	}
	return nil
}

// Decode parses a single JSON document into its root Node, which must be a Program.
func Decode(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("estree: decode program: %w", err)
	}
	if n.Type != "Program" {
		return nil, fmt.Errorf("estree: expected root node of type Program, got %q", n.Type)
	}
	return &n, nil
}
