package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wippyai/wasmbin/wasm"
)

// describeSection forces s and renders its entries one per line.
func describeSection(m *wasm.Module, s wasm.Section) ([]string, error) {
	var names *wasm.NameSection
	if cs, ok := m.FindCustom(wasm.NameSectionName); ok {
		names, _ = cs.Names()
	}

	switch s := s.(type) {
	case *wasm.CustomSection:
		return []string{fmt.Sprintf("custom %q: %d bytes", s.Name, len(s.Data))}, nil
	case *wasm.TypeSection:
		types, err := s.Force()
		if err != nil {
			return nil, err
		}
		lines := make([]string, 0, len(*types))
		for i := range *types {
			lines = append(lines, fmt.Sprintf("%s: %s", wasm.TypeID(i), signature(&(*types)[i])))
		}
		return lines, nil
	case *wasm.ImportSection:
		imports, err := s.Force()
		if err != nil {
			return nil, err
		}
		lines := make([]string, 0, len(*imports))
		for _, im := range *imports {
			lines = append(lines, fmt.Sprintf("%s.%s: %s", im.Module, im.Name, importKind(im.Desc)))
		}
		return lines, nil
	case *wasm.FunctionSection:
		funcs, err := s.Force()
		if err != nil {
			return nil, err
		}
		base := importedFuncs(m)
		lines := make([]string, 0, len(*funcs))
		for i, t := range *funcs {
			f := wasm.FuncID(base + i)
			lines = append(lines, fmt.Sprintf("%s%s: %s", f, funcName(names, f), t))
		}
		return lines, nil
	case *wasm.MemorySection:
		mems, err := s.Force()
		if err != nil {
			return nil, err
		}
		var lines []string
		for i, mt := range *mems {
			lines = append(lines, fmt.Sprintf("%s: %s", wasm.MemID(i), limits(mt.Limits)))
		}
		return lines, nil
	case *wasm.TableSection:
		tables, err := s.Force()
		if err != nil {
			return nil, err
		}
		var lines []string
		for i, tt := range *tables {
			lines = append(lines, fmt.Sprintf("%s: %s %s", wasm.TableID(i), tt.ElemType, limits(tt.Limits)))
		}
		return lines, nil
	case *wasm.GlobalSection:
		globals, err := s.Force()
		if err != nil {
			return nil, err
		}
		var lines []string
		for i, g := range *globals {
			lines = append(lines, fmt.Sprintf("%s: %s = %s", wasm.GlobalID(i), globalType(g.Type), exprString(g.Init)))
		}
		return lines, nil
	case *wasm.ExportSection:
		exports, err := s.Force()
		if err != nil {
			return nil, err
		}
		lines := make([]string, 0, len(*exports))
		for _, ex := range *exports {
			lines = append(lines, fmt.Sprintf("%q: %s", ex.Name, exportTarget(ex.Desc)))
		}
		return lines, nil
	case *wasm.StartSection:
		f, err := s.Force()
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("start %s%s", *f, funcName(names, *f))}, nil
	case *wasm.ElementSection:
		elems, err := s.Force()
		if err != nil {
			return nil, err
		}
		var lines []string
		for i := range *elems {
			el := &(*elems)[i]
			n := len(el.Funcs) + len(el.Exprs)
			lines = append(lines, fmt.Sprintf("elem#%d: %s, %d entries", i, el.Mode(), n))
		}
		return lines, nil
	case *wasm.DataCountSection:
		n, err := s.Force()
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%d data segments", *n)}, nil
	case *wasm.CodeSection:
		return describeCode(m, s, names)
	case *wasm.DataSection:
		segs, err := s.Force()
		if err != nil {
			return nil, err
		}
		var lines []string
		for i := range *segs {
			ds := &(*segs)[i]
			line := fmt.Sprintf("%s: %s, %d bytes", wasm.DataID(i), ds.Mode(), len(ds.Init))
			if ds.Mode() == wasm.ModeActive {
				line += fmt.Sprintf(" in %s at %s", ds.Mem, exprString(ds.Offset))
			}
			lines = append(lines, line)
		}
		return lines, nil
	}
	return nil, fmt.Errorf("unsupported section %s", s.ID())
}

func describeCode(m *wasm.Module, s *wasm.CodeSection, names *wasm.NameSection) ([]string, error) {
	code, err := s.Force()
	if err != nil {
		return nil, err
	}
	base := importedFuncs(m)
	var lines []string
	for i, lb := range *code {
		f := wasm.FuncID(base + i)
		body, err := lb.Force()
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		lines = append(lines, fmt.Sprintf("%s%s:", f, funcName(names, f)))
		for _, l := range body.Locals {
			lines = append(lines, fmt.Sprintf("  local %d x %s", l.Count, l.Type))
		}
		depth := 1
		for _, ins := range body.Body {
			if ins.Op == wasm.OpEnd || ins.Op == wasm.OpElse {
				depth = max(depth-1, 1)
			}
			lines = append(lines, strings.Repeat("  ", depth)+instrString(ins))
			switch ins.Op {
			case wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpElse, wasm.OpTryTable:
				depth++
			}
		}
	}
	return lines, nil
}

func importedFuncs(m *wasm.Module) int {
	is, ok := wasm.FindSection[*wasm.ImportSection](m)
	if !ok {
		return 0
	}
	imports, err := is.Force()
	if err != nil {
		return 0
	}
	n := 0
	for _, im := range *imports {
		if im.Desc.Kind == wasm.KindFunc {
			n++
		}
	}
	return n
}

func funcName(names *wasm.NameSection, f wasm.FuncID) string {
	if names == nil {
		return ""
	}
	if name, ok := names.FunctionName(f); ok {
		return " $" + name
	}
	return ""
}

func signature(ft *wasm.FuncType) string {
	return fmt.Sprintf("(%s) -> (%s)", joinTypes(ft.Params), joinTypes(ft.Results))
}

func joinTypes(ts []wasm.ValType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func limits(l wasm.Limits) string {
	if l.Max != nil {
		return fmt.Sprintf("[%d, %d]", l.Min, *l.Max)
	}
	return fmt.Sprintf("[%d, ...]", l.Min)
}

func globalType(g wasm.GlobalType) string {
	if g.Mutable {
		return "mut " + g.ValType.String()
	}
	return g.ValType.String()
}

func importKind(d wasm.ImportDesc) string {
	switch d.Kind {
	case wasm.KindFunc:
		return "func " + d.Func.String()
	case wasm.KindTable:
		return "table " + d.Table.ElemType.String() + " " + limits(d.Table.Limits)
	case wasm.KindMemory:
		return "memory " + limits(d.Memory.Limits)
	case wasm.KindGlobal:
		return "global " + globalType(d.Global)
	default:
		return "tag " + d.Tag.Type.String()
	}
}

func exportTarget(d wasm.ExportDesc) string {
	switch d.Kind {
	case wasm.KindFunc:
		return d.Func.String()
	case wasm.KindTable:
		return d.Table.String()
	case wasm.KindMemory:
		return d.Memory.String()
	case wasm.KindGlobal:
		return d.Global.String()
	default:
		return d.Tag.String()
	}
}

func exprString(x wasm.Expr) string {
	parts := make([]string, 0, len(x))
	for _, ins := range x {
		if ins.Op == wasm.OpEnd {
			continue
		}
		parts = append(parts, instrString(ins))
	}
	return strings.Join(parts, "; ")
}

func instrString(ins wasm.Instruction) string {
	switch imm := ins.Imm.(type) {
	case nil:
		return ins.Op.String()
	case *wasm.BlockType:
		switch imm.Kind {
		case wasm.BlockKindEmpty:
			return ins.Op.String()
		case wasm.BlockKindValue:
			return fmt.Sprintf("%s (result %s)", ins.Op, imm.Value)
		default:
			return fmt.Sprintf("%s (type %d)", ins.Op, uint32(imm.Type))
		}
	}
	v := reflect.ValueOf(ins.Imm)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	return fmt.Sprintf("%s %v", ins.Op, v.Interface())
}
