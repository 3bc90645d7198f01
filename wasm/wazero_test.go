package wasm_test

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wasmbin/wasm"
)

func calcModule(t *testing.T) []byte {
	t.Helper()
	i32 := wasm.ValI32
	m := wasm.NewModule(nil)
	sections := []wasm.Section{
		wasm.NewTypeSection(wasm.FuncTypes{
			{Results: []wasm.ValType{i32}},
			{Params: []wasm.ValType{i32, i32}, Results: []wasm.ValType{i32}},
		}),
		wasm.NewFunctionSection(wasm.Functions{0, 1}),
		wasm.NewMemorySection(wasm.Memories{{Limits: wasm.Limits{Min: 1}}}),
		wasm.NewExportSection(wasm.Exports{
			{Name: "answer", Desc: wasm.ExportDesc{Kind: wasm.KindFunc, Func: 0}},
			{Name: "add", Desc: wasm.ExportDesc{Kind: wasm.KindFunc, Func: 1}},
			{Name: "memory", Desc: wasm.ExportDesc{Kind: wasm.KindMemory, Memory: 0}},
		}),
		wasm.NewCodeSection(
			wasm.FuncBody{Body: wasm.Expr{wasm.I32Const(42)}},
			wasm.FuncBody{Body: wasm.Expr{
				wasm.LocalGet(0),
				wasm.LocalGet(1),
				wasm.Op(wasm.OpI32Add),
			}},
		),
		wasm.NewDataSection(wasm.DataSegments{
			{Offset: wasm.Expr{wasm.I32Const(16)}, Init: []byte("hello")},
		}),
	}
	for _, s := range sections {
		if err := m.InsertSection(s); err != nil {
			t.Fatalf("InsertSection: %v", err)
		}
	}
	return mustEncode(t, m)
}

func TestWazeroRunsBuiltModule(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	bin := calcModule(t)
	mod, err := rt.Instantiate(ctx, bin)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	res, err := mod.ExportedFunction("answer").Call(ctx)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res[0] != 42 {
		t.Errorf("answer = %d", res[0])
	}

	res, err = mod.ExportedFunction("add").Call(ctx, 2, 3)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res[0] != 5 {
		t.Errorf("add = %d", res[0])
	}

	data, ok := mod.Memory().Read(16, 5)
	if !ok || string(data) != "hello" {
		t.Errorf("memory = %q", data)
	}
}

func TestWazeroCompilesMutatedModule(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	// change add into mul through the lazy code section of a decoded copy
	m := mustDecode(t, calcModule(t))
	cs, _ := wasm.FindSection[*wasm.CodeSection](m)
	body := (*cs.MustForce())[1].MustForce()
	body.Body[2] = wasm.Op(wasm.OpI32Mul)

	mod, err := rt.Instantiate(ctx, mustEncode(t, m))
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	res, err := mod.ExportedFunction("add").Call(ctx, 6, 7)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res[0] != 42 {
		t.Errorf("mutated add = %d, want 42", res[0])
	}
}

func TestWazeroCompilesScenario(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	m := mustDecode(t, scenarioModule())
	cs, _ := wasm.FindSection[*wasm.CodeSection](m)
	body := (*cs.MustForce())[1].MustForce()
	body.Body = append(body.Body, wasm.Op(wasm.OpNop))

	compiled, err := rt.CompileModule(ctx, mustEncode(t, m))
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	defer compiled.Close(ctx)
}
