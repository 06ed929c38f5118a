package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"essc/internal/estree"
)

// compileStmtList lowers a statement list in place, without allocating a new
// frame/scope of its own — used for a function body's own statements (the
// frame was already allocated by compileClosure) and for the top-level
// program body (the root frame was already allocated by Compile). Lowering
// stops immediately after a ReturnStatement; any statements following it in
// the same list are unreachable and are skipped, matching
// original_source/stmt.rs::compile_block_stmt's early break.
func (g *generator) compileStmtList(stmts []estree.Node, id envID, frame, fn llvm.Value) (terminated bool, err error) {
	for i := range stmts {
		terminated, err = g.compileStmt(&stmts[i], id, frame, fn)
		if err != nil {
			return false, err
		}
		if terminated {
			break
		}
	}
	return terminated, nil
}

// compileBlockStmt lowers a nested BlockStatement, allocating its own child
// frame/scope, matching original_source/stmt.rs::compile_block_stmt.
func (g *generator) compileBlockStmt(node *estree.Node, parentID envID, parentFrame, fn llvm.Value) (bool, error) {
	childID := g.arena.create(parentID, true)
	g.scanDeclare(childID, node.Body)
	slotCount := g.arena.declCount(childID)
	childFrame := g.allocateFrame(parentFrame, true, slotCount)
	g.arena.setFrame(childID, childFrame)
	return g.compileStmtList(node.Body, childID, childFrame, fn)
}

// compileStmt lowers one statement, dispatching the same way
// original_source/stmt.rs::compile_stmt does.
func (g *generator) compileStmt(node *estree.Node, id envID, frame, fn llvm.Value) (bool, error) {
	switch node.Type {
	case "VariableDeclaration":
		return false, g.compileVarDecl(node, id, frame, fn)

	case "ExpressionStatement":
		_, err := g.compileExpr(node.ExprStmt, id, frame, fn)
		return false, err

	case "BlockStatement":
		return g.compileBlockStmt(node, id, frame, fn)

	case "IfStatement":
		return g.compileIfStmt(node, id, frame, fn)

	case "FunctionDeclaration":
		return false, g.compileFuncDecl(node, id, frame, fn)

	case "ReturnStatement":
		return true, g.compileReturnStmt(node, id, frame, fn)

	default:
		return false, fmt.Errorf("unsupported statement type %q", node.Type)
	}
}

// compileVarDecl evaluates the initializer and stores it into the already
// pre-declared slot for the declared name. Only a single declarator is
// supported (SPEC_FULL.md Section 4.5).
func (g *generator) compileVarDecl(node *estree.Node, id envID, frame, fn llvm.Value) error {
	if len(node.Declarations) != 1 {
		return fmt.Errorf("only a single declarator per variable declaration is supported, got %d", len(node.Declarations))
	}
	d := node.Declarations[0]
	v, err := g.compileExpr(d.Init, id, frame, fn)
	if err != nil {
		return err
	}
	cell, err := g.resolveCell(id, frame, d.ID.Name)
	if err != nil {
		return err
	}
	g.b.CreateStore(v, cell)
	return nil
}

// compileIfStmt lowers an if/else statement. Like the ternary expression, the
// test's tag is not checked, only its payload's low bit (preserved quirk, see
// DESIGN.md). Arms that fall through are patched with a branch to a shared end
// block; if both arms already terminated, the end block is unreachable and is
// closed with an unreachable instruction rather than left dangling.
func (g *generator) compileIfStmt(node *estree.Node, id envID, frame, fn llvm.Value) (bool, error) {
	test, err := g.compileExpr(node.Test, id, frame, fn)
	if err != nil {
		return false, err
	}
	bit := g.b.CreateTrunc(g.loadPayload(test), llvm.Int1Type(), "")

	thenB := llvm.AddBasicBlock(fn, "ifthen")
	endB := llvm.AddBasicBlock(fn, "ifend")
	hasElse := node.Alternate != nil

	var elseB llvm.BasicBlock
	if hasElse {
		elseB = llvm.AddBasicBlock(fn, "ifelse")
		g.b.CreateCondBr(bit, thenB, elseB)
	} else {
		g.b.CreateCondBr(bit, thenB, endB)
	}

	g.b.SetInsertPointAtEnd(thenB)
	thenTerm, err := g.compileStmt(node.Consequent, id, frame, fn)
	if err != nil {
		return false, err
	}
	if !thenTerm {
		g.b.CreateBr(endB)
	}

	allTerm := thenTerm && hasElse
	if hasElse {
		g.b.SetInsertPointAtEnd(elseB)
		elseTerm, err := g.compileStmt(node.Alternate, id, frame, fn)
		if err != nil {
			return false, err
		}
		if !elseTerm {
			g.b.CreateBr(endB)
		}
		allTerm = thenTerm && elseTerm
	}

	g.b.SetInsertPointAtEnd(endB)
	if allTerm {
		g.b.CreateUnreachable()
	}
	return allTerm, nil
}

// compileFuncDecl emits the declared function's closure literal and stores it
// into its own pre-declared slot, which is what makes self-reference and
// recursion work: the slot already exists (from the enclosing block's
// pre-pass) before the closure body is compiled. Matches
// original_source/stmt.rs::compile_fn_decl.
func (g *generator) compileFuncDecl(node *estree.Node, id envID, frame, fn llvm.Value) error {
	clos, err := g.compileClosure(node, node.ID.Name, id, frame, fn)
	if err != nil {
		return err
	}
	cell, err := g.resolveCell(id, frame, node.ID.Name)
	if err != nil {
		return err
	}
	g.b.CreateStore(clos, cell)
	return nil
}

// compileReturnStmt evaluates the argument and returns it. A return statement
// is only valid inside a function body; one reaching the top-level main
// function is a compile error (SPEC_FULL.md Section 4.6).
func (g *generator) compileReturnStmt(node *estree.Node, id envID, frame, fn llvm.Value) error {
	if fn.Name() == "main" {
		return fmt.Errorf("return statement is not allowed at top level")
	}
	v, err := g.compileExpr(node.Argument, id, frame, fn)
	if err != nil {
		return err
	}
	g.b.CreateRet(v)
	return nil
}
