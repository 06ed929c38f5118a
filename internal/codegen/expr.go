package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"essc/internal/estree"
)

// comparisonPredicates maps every ordered comparison / equality operator this
// language supports to its float predicate. Grounded on
// original_source/expr.rs::compile_binary_expr's operator match.
var comparisonPredicates = map[string]llvm.FloatPredicate{
	"<":   llvm.FloatOLT,
	">":   llvm.FloatOGT,
	"<=":  llvm.FloatOLE,
	">=":  llvm.FloatOGE,
	"===": llvm.FloatOEQ,
	"!==": llvm.FloatONE,
}

// compileExpr lowers an expression node to a pointer-to-source_obj value,
// dispatching the same way original_source/expr.rs::compile_expr does.
func (g *generator) compileExpr(node *estree.Node, id envID, frame llvm.Value, fn llvm.Value) (llvm.Value, error) {
	switch node.Type {
	case "Identifier":
		cell, err := g.resolveCell(id, frame, node.Name)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.b.CreateLoad(cell, node.Name), nil

	case "Literal":
		switch {
		case node.BoolValue != nil:
			v := uint64(0)
			if *node.BoolValue {
				v = 1
			}
			return g.buildBoolean(llvm.ConstInt(llvm.Int64Type(), v, false)), nil
		case node.NumValue != nil:
			return g.buildNumber(g.constFloatBits(*node.NumValue)), nil
		default:
			return llvm.Value{}, fmt.Errorf("unsupported literal form")
		}

	case "UnaryExpression":
		return g.compileUnary(node, id, frame, fn)

	case "BinaryExpression", "LogicalExpression":
		return g.compileBinary(node, id, frame, fn)

	case "ConditionalExpression":
		return g.compileTernary(node, id, frame, fn)

	case "CallExpression":
		return g.compileCall(node, id, frame, fn)

	case "ArrowFunctionExpression":
		return g.compileClosure(node, "", id, frame, fn)

	default:
		return llvm.Value{}, fmt.Errorf("unsupported expression type %q", node.Type)
	}
}

// constFloatBits materializes a float64 constant and bit-casts it to the i64
// representation boxed values store their number payload as.
func (g *generator) constFloatBits(v float64) llvm.Value {
	f := llvm.ConstFloat(llvm.DoubleType(), v)
	return g.b.CreateBitCast(f, llvm.Int64Type(), "")
}

func (g *generator) compileUnary(node *estree.Node, id envID, frame, fn llvm.Value) (llvm.Value, error) {
	arg, err := g.compileExpr(node.Argument, id, frame, fn)
	if err != nil {
		return llvm.Value{}, err
	}
	tag := g.loadTag(arg)

	switch node.Operator {
	case "!":
		g.typeCheck(fn, []llvm.Value{tag}, tagBoolean)
		payload := g.loadPayload(arg)
		notv := g.b.CreateXor(payload, llvm.ConstInt(llvm.Int64Type(), 1, false), "")
		return g.buildBoolean(notv), nil

	case "-":
		g.typeCheck(fn, []llvm.Value{tag}, tagNumber)
		payload := g.loadPayload(arg)
		f := g.b.CreateBitCast(payload, llvm.DoubleType(), "")
		neg := g.b.CreateFNeg(f, "")
		bits := g.b.CreateBitCast(neg, llvm.Int64Type(), "")
		return g.buildNumber(bits), nil

	default:
		return llvm.Value{}, fmt.Errorf("unsupported unary operator %q", node.Operator)
	}
}

func (g *generator) compileBinary(node *estree.Node, id envID, frame, fn llvm.Value) (llvm.Value, error) {
	left, err := g.compileExpr(node.Left, id, frame, fn)
	if err != nil {
		return llvm.Value{}, err
	}
	right, err := g.compileExpr(node.Right, id, frame, fn)
	if err != nil {
		return llvm.Value{}, err
	}
	leftTag := g.loadTag(left)
	rightTag := g.loadTag(right)

	switch node.Operator {
	case "&&", "||":
		g.typeCheck(fn, []llvm.Value{leftTag, rightTag}, tagBoolean)
		lp := g.loadPayload(left)
		rp := g.loadPayload(right)
		var res llvm.Value
		if node.Operator == "&&" {
			res = g.b.CreateAnd(lp, rp, "")
		} else {
			res = g.b.CreateOr(lp, rp, "")
		}
		return g.buildBoolean(res), nil

	case "+", "-", "*", "/", "%":
		g.typeCheck(fn, []llvm.Value{leftTag, rightTag}, tagNumber)
		lf := g.b.CreateBitCast(g.loadPayload(left), llvm.DoubleType(), "")
		rf := g.b.CreateBitCast(g.loadPayload(right), llvm.DoubleType(), "")
		var res llvm.Value
		switch node.Operator {
		case "+":
			res = g.b.CreateFAdd(lf, rf, "")
		case "-":
			res = g.b.CreateFSub(lf, rf, "")
		case "*":
			res = g.b.CreateFMul(lf, rf, "")
		case "/":
			res = g.b.CreateFDiv(lf, rf, "")
		case "%":
			res = g.b.CreateFRem(lf, rf, "")
		}
		bits := g.b.CreateBitCast(res, llvm.Int64Type(), "")
		return g.buildNumber(bits), nil

	case "<", ">", "<=", ">=", "===", "!==":
		// Restricted to numbers, matching original_source/expr.rs's typecheck
		// call for these operators (see DESIGN.md's Open Question resolution).
		g.typeCheck(fn, []llvm.Value{leftTag, rightTag}, tagNumber)
		lf := g.b.CreateBitCast(g.loadPayload(left), llvm.DoubleType(), "")
		rf := g.b.CreateBitCast(g.loadPayload(right), llvm.DoubleType(), "")
		cmp := g.b.CreateFCmp(comparisonPredicates[node.Operator], lf, rf, "")
		ext := g.b.CreateZExt(cmp, llvm.Int64Type(), "")
		return g.buildBoolean(ext), nil

	default:
		return llvm.Value{}, fmt.Errorf("unsupported binary operator %q", node.Operator)
	}
}

// compileTernary lowers a conditional expression. The test's tag is not
// checked; only its payload's low bit decides the branch, a preserved quirk
// from original_source/expr.rs::compile_ternary_expr (see DESIGN.md).
func (g *generator) compileTernary(node *estree.Node, id envID, frame, fn llvm.Value) (llvm.Value, error) {
	test, err := g.compileExpr(node.Test, id, frame, fn)
	if err != nil {
		return llvm.Value{}, err
	}
	bit := g.b.CreateTrunc(g.loadPayload(test), llvm.Int1Type(), "")

	thenB := llvm.AddBasicBlock(fn, "terntrue")
	elseB := llvm.AddBasicBlock(fn, "ternfalse")
	joinB := llvm.AddBasicBlock(fn, "ternjoin")
	g.b.CreateCondBr(bit, thenB, elseB)

	g.b.SetInsertPointAtEnd(thenB)
	thenV, err := g.compileExpr(node.Consequent, id, frame, fn)
	if err != nil {
		return llvm.Value{}, err
	}
	thenEnd := g.b.GetInsertBlock()
	g.b.CreateBr(joinB)

	g.b.SetInsertPointAtEnd(elseB)
	elseV, err := g.compileExpr(node.Alternate, id, frame, fn)
	if err != nil {
		return llvm.Value{}, err
	}
	elseEnd := g.b.GetInsertBlock()
	g.b.CreateBr(joinB)

	g.b.SetInsertPointAtEnd(joinB)
	phi := g.b.CreatePHI(g.sourceObjPtrTy, "")
	phi.AddIncoming([]llvm.Value{thenV, elseV}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

// compileCall lowers a call expression. display(...) is recognized by name and
// fast-pathed directly to the runtime helper; every other callee is evaluated,
// type-checked for tag 3, and invoked through its closure record, matching
// original_source/expr.rs::compile_call_expr.
func (g *generator) compileCall(node *estree.Node, id envID, frame, fn llvm.Value) (llvm.Value, error) {
	args := make([]llvm.Value, 0, len(node.Arguments))
	for i := range node.Arguments {
		v, err := g.compileExpr(&node.Arguments[i], id, frame, fn)
		if err != nil {
			return llvm.Value{}, err
		}
		args = append(args, v)
	}

	if node.Callee.Type == "Identifier" && node.Callee.Name == "display" {
		if len(args) != 1 {
			return llvm.Value{}, fmt.Errorf("display expects exactly one argument, got %d", len(args))
		}
		g.b.CreateCall(g.displayFn, args, "")
		return g.buildUndefined(), nil
	}

	callee, err := g.compileExpr(node.Callee, id, frame, fn)
	if err != nil {
		return llvm.Value{}, err
	}
	calleeTag := g.loadTag(callee)
	g.typeCheck(fn, []llvm.Value{calleeTag}, tagFunction)

	closurePtr := g.b.CreateBitCast(callee, llvm.PointerType(g.closureTy, 0), "")
	capturedFrame := g.b.CreateLoad(g.b.CreateStructGEP(closurePtr, 1, ""), "capturedframe")
	code := g.b.CreateLoad(g.b.CreateStructGEP(closurePtr, 2, ""), "code")

	argsMem := g.callMalloc(len(args) * frameSlotSize)
	argsArr := g.b.CreateBitCast(argsMem, g.framePtrTy, "argsarr")
	for i, a := range args {
		g.b.CreateStore(a, g.elemPtr(argsArr, i))
	}

	return g.b.CreateCall(code, []llvm.Value{capturedFrame, argsArr}, ""), nil
}
