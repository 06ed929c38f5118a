package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"essc/internal/estree"
)

// compileClosure emits a fresh function for a FunctionDeclaration or
// ArrowFunctionExpression node and returns a boxed closure literal pointing at
// it, captured against the frame current at the call site. hint, when
// non-empty, is used to make the generated function's name recognizable (the
// declared name of a FunctionDeclaration) and becomes "__<hint>" as is; only
// closures without a hint get a monotonic counter suffix (see
// nextClosureName), so that anonymous closures never collide the way a bare
// "___closure" name (as in the original) would.
//
// Grounded on original_source/expr.rs::compile_fn_expr.
func (g *generator) compileClosure(node *estree.Node, hint string, parentID envID, parentFrame, parentFn llvm.Value) (llvm.Value, error) {
	var params []estree.Node
	var stmts []estree.Node
	var exprBody *estree.Node

	params = node.Params
	if node.Type == "ArrowFunctionExpression" && node.IsExpressionBody {
		exprBody = node.BodyExpr
	} else {
		if node.BodyExpr == nil || node.BodyExpr.Type != "BlockStatement" {
			return llvm.Value{}, fmt.Errorf("function body must be a block statement")
		}
		stmts = node.BodyExpr.Body
	}

	resumeBlock := g.b.GetInsertBlock()

	name := g.nextClosureName(hint)
	ft := llvm.FunctionType(g.sourceObjPtrTy, []llvm.Type{g.framePtrTy, g.framePtrTy}, false)
	newFn := llvm.AddFunction(g.mod, name, ft)
	entry := llvm.AddBasicBlock(newFn, "entry")
	g.b.SetInsertPointAtEnd(entry)

	frameArg := newFn.Param(0)
	argsArg := newFn.Param(1)

	childID := g.arena.create(parentID, true)
	for i := range params {
		g.arena.addName(childID, params[i].Name)
	}
	if stmts != nil {
		g.scanDeclare(childID, stmts)
	}

	slotCount := g.arena.declCount(childID)
	newFrame := g.allocateFrame(frameArg, true, slotCount)
	g.arena.setFrame(childID, newFrame)

	for i := range params {
		argVal := g.b.CreateLoad(g.elemPtr(argsArg, i), "")
		g.b.CreateStore(argVal, g.elemPtr(newFrame, i+1))
	}

	var terminated bool
	var err error
	if exprBody != nil {
		var v llvm.Value
		v, err = g.compileExpr(exprBody, childID, newFrame, newFn)
		if err == nil {
			g.b.CreateRet(v)
			terminated = true
		}
	} else {
		terminated, err = g.compileStmtList(stmts, childID, newFrame, newFn)
	}
	if err != nil {
		return llvm.Value{}, err
	}
	if !terminated {
		g.b.CreateRet(g.buildUndefined())
	}

	g.b.SetInsertPointAtEnd(resumeBlock)

	mem := g.callMalloc(boxedValueSize)
	clos := g.b.CreateBitCast(mem, llvm.PointerType(g.closureTy, 0), "closure")
	g.b.CreateStore(llvm.ConstInt(llvm.Int64Type(), tagFunction, false), g.b.CreateStructGEP(clos, 0, ""))
	g.b.CreateStore(parentFrame, g.b.CreateStructGEP(clos, 1, ""))
	g.b.CreateStore(newFn, g.b.CreateStructGEP(clos, 2, ""))

	return g.b.CreateBitCast(clos, g.sourceObjPtrTy, ""), nil
}

// scanDeclare is the block pre-pass: every VariableDeclaration and
// FunctionDeclaration directly in stmts gets a slot before any statement in
// stmts is lowered, matching SPEC_FULL.md Section 3's hoisting invariant and
// original_source/env.rs::add_and_count_decls.
func (g *generator) scanDeclare(id envID, stmts []estree.Node) {
	for i := range stmts {
		s := &stmts[i]
		switch s.Type {
		case "VariableDeclaration":
			for _, d := range s.Declarations {
				g.arena.addName(id, d.ID.Name)
			}
		case "FunctionDeclaration":
			g.arena.addName(id, s.ID.Name)
		}
	}
}
