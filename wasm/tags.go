package wasm

import "fmt"

// tagDef is one entry of a variant family's tag table.
type tagDef struct {
	name     string
	tag      uint32
	requires Features
	family   Family
}

// builtinTags returns every tag the codec knows, across all families and
// feature sets. NewConfig selects the enabled subset.
func builtinTags() []tagDef {
	defs := []tagDef{
		{family: FamilyValueType, tag: uint32(ValI32), name: "i32"},
		{family: FamilyValueType, tag: uint32(ValI64), name: "i64"},
		{family: FamilyValueType, tag: uint32(ValF32), name: "f32"},
		{family: FamilyValueType, tag: uint32(ValF64), name: "f64"},
		{family: FamilyValueType, tag: uint32(ValV128), name: "v128", requires: FeatureSIMD},
		{family: FamilyValueType, tag: uint32(ValFuncRef), name: "funcref"},
		{family: FamilyValueType, tag: uint32(ValExternRef), name: "externref"},
		{family: FamilyValueType, tag: uint32(ValExnRef), name: "exnref", requires: FeatureExceptionHandling},

		{family: FamilyRefType, tag: uint32(RefFunc), name: "funcref"},
		{family: FamilyRefType, tag: uint32(RefExtern), name: "externref"},
		{family: FamilyRefType, tag: uint32(RefExn), name: "exnref", requires: FeatureExceptionHandling},

		{family: FamilyTypeForm, tag: uint32(FuncTypeByte), name: "func"},

		{family: FamilyExternKind, tag: uint32(KindFunc), name: "func"},
		{family: FamilyExternKind, tag: uint32(KindTable), name: "table"},
		{family: FamilyExternKind, tag: uint32(KindMemory), name: "memory"},
		{family: FamilyExternKind, tag: uint32(KindGlobal), name: "global"},
		{family: FamilyExternKind, tag: uint32(KindTag), name: "tag", requires: FeatureExceptionHandling},

		{family: FamilyLimits, tag: uint32(LimitsNoMax), name: "min"},
		{family: FamilyLimits, tag: uint32(LimitsHasMax), name: "min-max"},

		{family: FamilyCatch, tag: uint32(CatchKindCatch), name: "catch", requires: FeatureExceptionHandling},
		{family: FamilyCatch, tag: uint32(CatchKindCatchRef), name: "catch_ref", requires: FeatureExceptionHandling},
		{family: FamilyCatch, tag: uint32(CatchKindCatchAll), name: "catch_all", requires: FeatureExceptionHandling},
		{family: FamilyCatch, tag: uint32(CatchKindCatchAllRef), name: "catch_all_ref", requires: FeatureExceptionHandling},

		{family: FamilyNameSubsection, tag: uint32(NameSubsectionModule), name: "module"},
		{family: FamilyNameSubsection, tag: uint32(NameSubsectionFunction), name: "function"},
		{family: FamilyNameSubsection, tag: uint32(NameSubsectionLocal), name: "local"},
	}

	for id := SectionCustom; id <= SectionDataCount; id++ {
		defs = append(defs, tagDef{family: FamilySection, tag: uint32(id), name: id.String()})
	}
	defs = append(defs, tagDef{
		family: FamilySection, tag: uint32(SectionTag), name: SectionTag.String(),
		requires: FeatureExceptionHandling,
	})

	for flags := uint32(0); flags < 8; flags++ {
		defs = append(defs, tagDef{family: FamilyElemSegment, tag: flags, name: fmt.Sprintf("elem-%d", flags)})
	}
	for flags := uint32(0); flags < 3; flags++ {
		defs = append(defs, tagDef{family: FamilyDataSegment, tag: flags, name: fmt.Sprintf("data-%d", flags)})
	}

	// Memory type reprs: bit 0 max, bit 1 shared, bit 2 memory64, bit 3 custom page size.
	for flags := byte(0); flags < 16; flags++ {
		var req Features
		if flags&memFlagShared != 0 {
			req |= FeatureThreads
		}
		if flags&memFlag64 != 0 {
			req |= FeatureMemory64
		}
		if flags&memFlagPageSize != 0 {
			req |= FeatureCustomPageSizes
		}
		defs = append(defs, tagDef{family: FamilyMemType, tag: uint32(flags), name: memTypeReprName(flags), requires: req})
	}

	for i := range opTable {
		op := &opTable[i]
		defs = append(defs, tagDef{family: FamilyInstruction, tag: uint32(op.code), name: op.name, requires: op.requires})
	}
	return defs
}

func memTypeReprName(flags byte) string {
	name := "unshared"
	if flags&memFlagShared != 0 {
		name = "shared"
	}
	if flags&memFlagHasMax != 0 {
		name += "-min-max"
	} else {
		name += "-min"
	}
	if flags&memFlagPageSize != 0 {
		name += "-custom"
	}
	if flags&memFlag64 != 0 {
		name += "-64"
	}
	return name
}
