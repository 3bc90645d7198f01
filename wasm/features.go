package wasm

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasmbin/errors"
)

// Features is a set of enabled format extensions.
type Features uint32

const (
	FeatureSIMD Features = 1 << iota
	FeatureThreads
	FeatureExceptionHandling
	FeatureTailCall
	FeatureMemory64
	FeatureCustomPageSizes

	// DefaultFeatures matches the finalized 2.0 feature set.
	DefaultFeatures = FeatureSIMD
	// AllFeatures enables every supported extension.
	AllFeatures = FeatureSIMD | FeatureThreads | FeatureExceptionHandling |
		FeatureTailCall | FeatureMemory64 | FeatureCustomPageSizes
)

var featureNames = []struct {
	name string
	f    Features
}{
	{"simd", FeatureSIMD},
	{"threads", FeatureThreads},
	{"exception-handling", FeatureExceptionHandling},
	{"tail-call", FeatureTailCall},
	{"memory64", FeatureMemory64},
	{"custom-page-sizes", FeatureCustomPageSizes},
}

// Has reports whether every feature in x is enabled.
func (f Features) Has(x Features) bool {
	return f&x == x
}

func (f Features) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, fn := range featureNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// ParseFeatures parses a comma-separated feature list. "all" and "none"
// are accepted as shorthands.
func ParseFeatures(s string) (Features, error) {
	var f Features
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "", "none":
			continue
		case "all":
			f |= AllFeatures
			continue
		}
		found := false
		for _, fn := range featureNames {
			if fn.name == part {
				f |= fn.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown feature %q", part)
		}
	}
	return f, nil
}

// Family identifies a closed set of tagged alternatives.
type Family uint8

const (
	FamilyValueType Family = iota
	FamilyRefType
	FamilyTypeForm
	FamilySection
	FamilyExternKind
	FamilyLimits
	FamilyMemType
	FamilyInstruction
	FamilyCatch
	FamilyElemSegment
	FamilyDataSegment
	FamilyNameSubsection
	numFamilies
)

var familyNames = [numFamilies]string{
	FamilyValueType:      "value type",
	FamilyRefType:        "reference type",
	FamilyTypeForm:       "type form",
	FamilySection:        "section",
	FamilyExternKind:     "external kind",
	FamilyLimits:         "limits",
	FamilyMemType:        "memory type",
	FamilyInstruction:    "instruction",
	FamilyCatch:          "catch clause",
	FamilyElemSegment:    "element segment",
	FamilyDataSegment:    "data segment",
	FamilyNameSubsection: "name subsection",
}

func (f Family) String() string {
	if f < numFamilies {
		return familyNames[f]
	}
	return fmt.Sprintf("family(%d)", f)
}

// Options configures codec construction.
type Options struct {
	Features Features
}

// DefaultOptions returns options with DefaultFeatures enabled.
func DefaultOptions() Options {
	return Options{Features: DefaultFeatures}
}

// Config holds the tag tables in effect for one feature set.
// It is immutable and safe for concurrent use.
type Config struct {
	tags     [numFamilies]map[uint32]string
	plainOps [256]*opInfo
	prefixed map[Opcode]*opInfo
	features Features
}

// NewConfig builds the tag tables for opts. It fails if two enabled
// definitions claim the same tag within one family.
func NewConfig(opts Options) (*Config, error) {
	return newConfig(opts.Features, builtinTags())
}

// MustConfig is like NewConfig but panics on error.
func MustConfig(opts Options) *Config {
	c, err := NewConfig(opts)
	if err != nil {
		panic(err)
	}
	return c
}

var (
	defaultConfig     *Config
	defaultConfigOnce sync.Once
)

// DefaultConfig returns the shared configuration for DefaultOptions.
func DefaultConfig() *Config {
	defaultConfigOnce.Do(func() {
		defaultConfig = MustConfig(DefaultOptions())
	})
	return defaultConfig
}

func newConfig(features Features, defs []tagDef) (*Config, error) {
	start := time.Now()
	c := &Config{
		features: features,
		prefixed: make(map[Opcode]*opInfo),
	}

	var errs error
	for i := range defs {
		d := &defs[i]
		if !features.Has(d.requires) {
			continue
		}
		m := c.tags[d.family]
		if m == nil {
			m = make(map[uint32]string)
			c.tags[d.family] = m
		}
		if prev, ok := m[d.tag]; ok {
			errs = multierr.Append(errs, errors.Conflict(d.family.String(), d.tag, prev, d.name))
			continue
		}
		m[d.tag] = d.name
	}
	if errs != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindConflict, errs, "conflicting tag definitions")
	}

	for i := range opTable {
		op := &opTable[i]
		if !features.Has(op.requires) {
			continue
		}
		if op.code.IsPrefixed() {
			c.prefixed[op.code] = op
		} else {
			c.plainOps[op.code] = op
		}
	}

	if ce := Logger().Check(zap.DebugLevel, "codec config built"); ce != nil {
		ce.Write(
			zap.Stringer("features", features),
			zap.Int("instructions", len(c.tags[FamilyInstruction])),
			zap.Duration("took", time.Since(start)),
		)
	}
	return c, nil
}

// Features returns the enabled extensions.
func (c *Config) Features() Features {
	return c.features
}

// Recognizes reports whether tag is valid in family under this config.
func (c *Config) Recognizes(family Family, tag uint32) bool {
	_, ok := c.tags[family][tag]
	return ok
}

// TagName returns the name of a recognized tag, or "" if it is unknown.
func (c *Config) TagName(family Family, tag uint32) string {
	return c.tags[family][tag]
}

// RecognizedTags lists every tag accepted in family, in ascending order.
func (c *Config) RecognizedTags(family Family) []uint32 {
	m := c.tags[family]
	tags := make([]uint32, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

func (c *Config) op(code Opcode) *opInfo {
	if !code.IsPrefixed() {
		if code > 0xFF {
			return nil
		}
		return c.plainOps[code]
	}
	return c.prefixed[code]
}
