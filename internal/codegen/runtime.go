package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"
)

// Boxed value tags (SPEC_FULL.md Section 3).
const (
	tagUndefined = 0
	tagBoolean   = 1
	tagNumber    = 2
	tagFunction  = 3
)

// boxedValueSize is the byte size of both a source_obj record and a closure
// record on the 32-bit target: tag(i64, 8 bytes) + an 8-byte i64 payload for
// source_obj, or tag(i64, 8 bytes) + two 4-byte pointer fields for closure.
// Grounded on original_source/helper.rs's BOXED_VALUE_SIZE constant.
const boxedValueSize = 16

// frameSlotSize is the per-slot cost used to size every frame allocation,
// deliberately 8 bytes per slot regardless of the target's 4-byte pointer width
// (SPEC_FULL.md Section 3, Section 8 invariant 2).
const frameSlotSize = 8

// generator holds all of the mutable state threaded through one Compile call:
// the LLVM context/module/builder triple, the environment arena, the struct
// types and runtime helper functions built once up front, and the anonymous
// closure naming counter.
type generator struct {
	ctx llvm.Context
	mod llvm.Module
	b   llvm.Builder

	arena *envArena

	sourceObjTy    llvm.Type
	sourceObjPtrTy llvm.Type
	framePtrTy     llvm.Type // pointer to an array of sourceObjPtrTy: a frame or an arguments array
	closureTy      llvm.Type
	closureCodeTy  llvm.Type

	mallocFn  llvm.Value
	printfFn  llvm.Value
	exitFn    llvm.Value
	displayFn llvm.Value
	errorFn   llvm.Value

	closureCounter int
}

// declareTypes builds the source_obj and closure struct layouts, grounded on
// original_source/helper.rs's setup() and the boxed-value/closure shapes in
// SPEC_FULL.md Section 3.
func (g *generator) declareTypes() {
	g.sourceObjTy = g.ctx.StructCreateNamed("source_obj")
	g.sourceObjTy.StructSetBody([]llvm.Type{llvm.Int64Type(), llvm.Int64Type()}, false)
	g.sourceObjPtrTy = llvm.PointerType(g.sourceObjTy, 0)
	g.framePtrTy = llvm.PointerType(g.sourceObjPtrTy, 0)

	g.closureCodeTy = llvm.FunctionType(g.sourceObjPtrTy, []llvm.Type{g.framePtrTy, g.framePtrTy}, false)

	g.closureTy = g.ctx.StructCreateNamed("closure")
	g.closureTy.StructSetBody([]llvm.Type{
		llvm.Int64Type(),
		g.framePtrTy,
		llvm.PointerType(g.closureCodeTy, 0),
	}, false)
}

// declareExterns declares malloc, printf and exit, matching the signatures
// original_source/helper.rs and lib.rs's setup() declare.
func (g *generator) declareExterns() {
	mallocTy := llvm.FunctionType(llvm.PointerType(llvm.Int8Type(), 0), []llvm.Type{llvm.Int32Type()}, false)
	g.mallocFn = llvm.AddFunction(g.mod, "malloc", mallocTy)

	printfTy := llvm.FunctionType(llvm.Int32Type(), []llvm.Type{llvm.PointerType(llvm.Int8Type(), 0)}, true)
	g.printfFn = llvm.AddFunction(g.mod, "printf", printfTy)

	exitTy := llvm.FunctionType(llvm.VoidType(), []llvm.Type{llvm.Int32Type()}, false)
	g.exitFn = llvm.AddFunction(g.mod, "exit", exitTy)
}

// emitPrint emits a call to printf with a freshly materialized constant format
// string and no varargs.
func (g *generator) emitPrint(s string) {
	ptr := g.b.CreateGlobalStringPtr(s, "")
	g.b.CreateCall(g.printfFn, []llvm.Value{ptr}, "")
}

// buildDisplay synthesizes the display(source_obj*) runtime helper: a switch
// over the tag that prints the textual form of each kind of value. Grounded on
// original_source/helper.rs's setup(), which builds the same switch/blocks
// structure via inkwell.
func (g *generator) buildDisplay() {
	ft := llvm.FunctionType(llvm.VoidType(), []llvm.Type{g.sourceObjPtrTy}, false)
	fn := llvm.AddFunction(g.mod, "display", ft)

	entry := llvm.AddBasicBlock(fn, "entry")
	undefB := llvm.AddBasicBlock(fn, "undefined")
	boolB := llvm.AddBasicBlock(fn, "boolean")
	trueB := llvm.AddBasicBlock(fn, "true")
	falseB := llvm.AddBasicBlock(fn, "false")
	numB := llvm.AddBasicBlock(fn, "number")
	fnB := llvm.AddBasicBlock(fn, "function")
	endB := llvm.AddBasicBlock(fn, "end")

	g.b.SetInsertPointAtEnd(entry)
	obj := fn.Param(0)
	tag := g.b.CreateLoad(g.b.CreateStructGEP(obj, 0, ""), "tag")
	sw := g.b.CreateSwitch(tag, undefB, 3)
	sw.AddCase(llvm.ConstInt(llvm.Int64Type(), tagBoolean, false), boolB)
	sw.AddCase(llvm.ConstInt(llvm.Int64Type(), tagNumber, false), numB)
	sw.AddCase(llvm.ConstInt(llvm.Int64Type(), tagFunction, false), fnB)

	g.b.SetInsertPointAtEnd(undefB)
	g.emitPrint("undefined\n")
	g.b.CreateBr(endB)

	g.b.SetInsertPointAtEnd(boolB)
	payload := g.b.CreateLoad(g.b.CreateStructGEP(obj, 1, ""), "payload")
	bit := g.b.CreateTrunc(payload, llvm.Int1Type(), "")
	g.b.CreateCondBr(bit, trueB, falseB)

	g.b.SetInsertPointAtEnd(trueB)
	g.emitPrint("true\n")
	g.b.CreateBr(endB)

	g.b.SetInsertPointAtEnd(falseB)
	g.emitPrint("false\n")
	g.b.CreateBr(endB)

	g.b.SetInsertPointAtEnd(numB)
	bits := g.b.CreateLoad(g.b.CreateStructGEP(obj, 1, ""), "bits")
	f := g.b.CreateBitCast(bits, llvm.DoubleType(), "")
	fmtStr := g.b.CreateGlobalStringPtr("%lf\n", "fmt.number")
	g.b.CreateCall(g.printfFn, []llvm.Value{fmtStr, f}, "")
	g.b.CreateBr(endB)

	g.b.SetInsertPointAtEnd(fnB)
	g.emitPrint("Function\n")
	g.b.CreateBr(endB)

	g.b.SetInsertPointAtEnd(endB)
	g.b.CreateRetVoid()

	g.displayFn = fn
}

// buildError synthesizes the error() runtime helper: print a fixed message and
// terminate the process. error is typed as returning void and is never actually
// reached after it returns because exit(1) never returns in practice; every call
// site still emits an explicit branch afterward to keep SSA dominance valid
// (SPEC_FULL.md Section 4.2).
func (g *generator) buildError() {
	ft := llvm.FunctionType(llvm.VoidType(), nil, false)
	fn := llvm.AddFunction(g.mod, "error", ft)

	entry := llvm.AddBasicBlock(fn, "entry")
	g.b.SetInsertPointAtEnd(entry)
	g.emitPrint("Type mismatch\n")
	g.b.CreateCall(g.exitFn, []llvm.Value{llvm.ConstInt(llvm.Int32Type(), 1, false)}, "")
	g.b.CreateRetVoid()

	g.errorFn = fn
}

// callMalloc emits a call to the malloc extern for the given byte size.
func (g *generator) callMalloc(size int) llvm.Value {
	return g.b.CreateCall(g.mallocFn, []llvm.Value{llvm.ConstInt(llvm.Int32Type(), uint64(size), false)}, "")
}

// buildLiteral allocates a fresh source_obj and stores the given tag and
// payload into it, mirroring original_source/helper.rs's build_literal.
func (g *generator) buildLiteral(tag int64, payload llvm.Value) llvm.Value {
	mem := g.callMalloc(boxedValueSize)
	obj := g.b.CreateBitCast(mem, g.sourceObjPtrTy, "")
	g.b.CreateStore(llvm.ConstInt(llvm.Int64Type(), uint64(tag), false), g.b.CreateStructGEP(obj, 0, ""))
	g.b.CreateStore(payload, g.b.CreateStructGEP(obj, 1, ""))
	return obj
}

func (g *generator) buildUndefined() llvm.Value {
	return g.buildLiteral(tagUndefined, llvm.ConstInt(llvm.Int64Type(), 0, false))
}

func (g *generator) buildBoolean(payload llvm.Value) llvm.Value {
	return g.buildLiteral(tagBoolean, payload)
}

func (g *generator) buildNumber(payload llvm.Value) llvm.Value {
	return g.buildLiteral(tagNumber, payload)
}

func (g *generator) loadTag(obj llvm.Value) llvm.Value {
	return g.b.CreateLoad(g.b.CreateStructGEP(obj, 0, ""), "tag")
}

func (g *generator) loadPayload(obj llvm.Value) llvm.Value {
	return g.b.CreateLoad(g.b.CreateStructGEP(obj, 1, ""), "payload")
}

// elemPtr indexes a pointer to an array of boxed-value pointers: a frame's
// declaration/parameter slots (1..N) or a closure call's arguments array. It
// must not be used for a frame's slot 0 (the static link) — that slot holds a
// pointer to a frame, one level of indirection deeper than every other slot —
// see staticLinkPtr.
func (g *generator) elemPtr(base llvm.Value, idx int) llvm.Value {
	return g.b.CreateGEP(base, []llvm.Value{llvm.ConstInt(llvm.Int32Type(), uint64(idx), false)}, "")
}

// staticLinkPtr returns a pointer to frame's slot 0, typed to hold a frame
// pointer (framePtrTy) rather than a boxed-value pointer (sourceObjPtrTy).
// Every other slot stores a source_obj*, but slot 0 stores the enclosing
// frame itself, so the frame base must first be bit-cast one pointer level
// deeper before indexing into it. Grounded on
// original_source/helper.rs::allocate_env's bitcast to source_obj*** ahead of
// its store/load of the parent link.
func (g *generator) staticLinkPtr(frame llvm.Value) llvm.Value {
	linkBase := g.b.CreateBitCast(frame, llvm.PointerType(g.framePtrTy, 0), "")
	return g.elemPtr(linkBase, 0)
}

// allocateFrame heap-allocates a frame of slotCount+1 slots and stores the
// static link into slot 0, mirroring original_source/helper.rs's allocate_env.
func (g *generator) allocateFrame(parentFrame llvm.Value, hasParent bool, slotCount int) llvm.Value {
	size := (slotCount + 1) * frameSlotSize
	mem := g.callMalloc(size)
	frame := g.b.CreateBitCast(mem, g.framePtrTy, "frame")

	var link llvm.Value
	if hasParent {
		link = parentFrame
	} else {
		link = llvm.ConstNull(g.framePtrTy)
	}
	g.b.CreateStore(link, g.staticLinkPtr(frame))
	return frame
}

// chaseFrame walks jumps static links starting from startFrame.
func (g *generator) chaseFrame(startFrame llvm.Value, jumps int) llvm.Value {
	f := startFrame
	for i := 0; i < jumps; i++ {
		f = g.b.CreateLoad(g.staticLinkPtr(f), "link")
	}
	return f
}

// resolveCell returns a pointer to the storage cell for name as seen from scope
// id with curFrame as the currently executing frame.
func (g *generator) resolveCell(id envID, curFrame llvm.Value, name string) (llvm.Value, error) {
	jumps, slot, err := g.arena.lookup(id, name)
	if err != nil {
		return llvm.Value{}, err
	}
	frame := g.chaseFrame(curFrame, jumps)
	return g.elemPtr(frame, slot), nil
}

// typeCheck emits a runtime check that every value in tags equals expected,
// branching to a call to error() (which always falls through to the valid
// continuation) on failure. Collapses the original's separate
// check-left/check-right staging into a single combined predicate; the
// observable behavior (print "Type mismatch\n" and exit 1 on any mismatch) is
// identical.
func (g *generator) typeCheck(fn llvm.Value, tags []llvm.Value, expected int64) {
	validB := llvm.AddBasicBlock(fn, "valid")
	errB := llvm.AddBasicBlock(fn, "typeerror")

	want := llvm.ConstInt(llvm.Int64Type(), uint64(expected), false)
	cond := g.b.CreateICmp(llvm.IntEQ, tags[0], want, "")
	for _, t := range tags[1:] {
		c := g.b.CreateICmp(llvm.IntEQ, t, want, "")
		cond = g.b.CreateAnd(cond, c, "")
	}
	g.b.CreateCondBr(cond, validB, errB)

	g.b.SetInsertPointAtEnd(errB)
	g.b.CreateCall(g.errorFn, nil, "")
	g.b.CreateBr(validB)

	g.b.SetInsertPointAtEnd(validB)
}

// nextClosureName returns a function name for a named or anonymous closure.
// A named closure keeps the literal "__<hint>" scheme of
// original_source/expr.rs::compile_fn_expr. Only the anonymous case needs the
// counter (adapted from the teacher's util/label.go package-level counter
// convention, with the channel-based synchronization dropped since this
// generator runs on a single goroutine, see DESIGN.md): the original's bare
// "___closure" would collide across multiple anonymous closures in one
// module and fail the verifier with a duplicate symbol.
func (g *generator) nextClosureName(hint string) string {
	if hint != "" {
		return fmt.Sprintf("__%s", hint)
	}
	g.closureCounter++
	return fmt.Sprintf("___closure_%d", g.closureCounter)
}
