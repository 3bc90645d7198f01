package wasm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/wasmbin/errors"
)

var magicBytes = []byte{0x00, 0x61, 0x73, 0x6D}

// Module is a decoded WebAssembly binary: the ordered list of sections
// behind the magic and version header.
type Module struct {
	cfg      *Config
	Sections []Section
}

// NewModule returns an empty module encoded under cfg. A nil cfg selects
// DefaultConfig.
func NewModule(cfg *Config) *Module {
	return &Module{cfg: cfg}
}

// Config returns the configuration the module was decoded with.
func (m *Module) Config() *Config {
	if m.cfg == nil {
		return DefaultConfig()
	}
	return m.cfg
}

// Decode parses b with DefaultConfig.
func Decode(b []byte) (*Module, error) {
	return DefaultConfig().Decode(b)
}

// Decode parses b. Standard sections are kept as raw lazy regions; their
// contents are decoded when forced. The module works on a private copy of
// b, so the caller may reuse b afterwards.
func (c *Config) Decode(b []byte) (*Module, error) {
	m := &Module{cfg: c}
	if err := m.Decode(NewDecoder(bytes.Clone(b), c)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) Decode(d *Decoder) error {
	start := time.Now()
	m.cfg = d.cfg
	m.Sections = nil

	magic, err := d.Bytes(len(magicBytes))
	if err != nil {
		return errors.WithPath(err, "magic")
	}
	if !bytes.Equal(magic, magicBytes) {
		return errors.BadMagic(magic)
	}
	version, err := d.U32LE()
	if err != nil {
		return errors.WithPath(err, "version")
	}
	if version != Version {
		return errors.UnsupportedVersion(version)
	}

	lastOrder := 0
	seen := make(map[SectionID]bool)
	for d.Len() > 0 {
		off := d.Offset()
		tag, err := d.Tag(FamilySection)
		if err != nil {
			return errors.WithPath(err, errors.Index(len(m.Sections)))
		}
		id := SectionID(tag)
		s := newSection(id)
		if err := s.Decode(d); err != nil {
			return errors.WithPath(err, id.String())
		}

		// Custom sections may appear anywhere.
		if id != SectionCustom {
			if seen[id] {
				return errors.InvalidEncoding(off, "duplicate %s section", id)
			}
			order := sectionOrder(id)
			if order < lastOrder {
				return errors.InvalidEncoding(off, "%s section out of order", id)
			}
			seen[id] = true
			lastOrder = order
		}
		m.Sections = append(m.Sections, s)

		if ce := Logger().Check(zap.DebugLevel, "section decoded"); ce != nil {
			ce.Write(
				zap.Stringer("id", id),
				zap.Int("offset", off),
				zap.Int("size", d.Offset()-off),
			)
		}
	}

	if ce := Logger().Check(zap.DebugLevel, "module decoded"); ce != nil {
		ce.Write(
			zap.Int("sections", len(m.Sections)),
			zap.Duration("took", time.Since(start)),
		)
	}
	return nil
}

func (m *Module) Encode(e *Encoder) error {
	e.Raw(magicBytes)
	e.U32LE(Version)
	for i, s := range m.Sections {
		if s == nil {
			return errors.WithPath(errors.Encode("nil section"), errors.Index(i))
		}
		if err := e.Tag(FamilySection, byte(s.ID())); err != nil {
			return errors.WithPath(err, errors.Index(i))
		}
		if err := s.Encode(e); err != nil {
			return errors.WithPath(err, s.ID().String())
		}
	}
	return nil
}

// Encode serializes m with the configuration it was decoded with.
func Encode(m *Module) ([]byte, error) {
	return m.Config().Encode(m)
}

// Encode serializes m under c.
func (c *Config) Encode(m *Module) ([]byte, error) {
	e := NewEncoder(c)
	if err := m.Encode(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodeTo writes the encoded module to w.
func (m *Module) EncodeTo(w io.Writer) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (m *Module) VisitChildren(v *Visitor) error {
	descend, err := v.enter(&m.Sections)
	if err != nil || !descend {
		return err
	}
	for i := 0; i < len(m.Sections); i++ {
		s := m.Sections[i]
		if s == nil {
			continue
		}
		if err := v.Visit(s); err != nil {
			return errors.WithPath(err, s.ID().String())
		}
	}
	return nil
}

// FindSection returns the first section of type S.
func FindSection[S Section](m *Module) (S, bool) {
	for _, s := range m.Sections {
		if t, ok := s.(S); ok {
			return t, true
		}
	}
	var zero S
	return zero, false
}

// FindCustom returns the first custom section called name.
func (m *Module) FindCustom(name string) (*CustomSection, bool) {
	for _, s := range m.Sections {
		if c, ok := s.(*CustomSection); ok && c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// InsertSection places s at its canonical position. Custom sections are
// appended. Inserting a second standard section with an ID already present
// fails.
func (m *Module) InsertSection(s Section) error {
	id := s.ID()
	if id == SectionCustom {
		m.Sections = append(m.Sections, s)
		return nil
	}
	order := sectionOrder(id)
	pos := len(m.Sections)
	for i, cur := range m.Sections {
		if cur.ID() == SectionCustom {
			continue
		}
		if cur.ID() == id {
			return errors.Encode("module already has a %s section", id)
		}
		if sectionOrder(cur.ID()) > order {
			pos = i
			break
		}
	}
	m.Sections = append(m.Sections, nil)
	copy(m.Sections[pos+1:], m.Sections[pos:])
	m.Sections[pos] = s
	return nil
}

// FindOrInsert returns the section of type S, inserting the one built by
// create at its canonical position if the module has none.
func FindOrInsert[S Section](m *Module, create func() S) (S, error) {
	if s, ok := FindSection[S](m); ok {
		return s, nil
	}
	s := create()
	if err := m.InsertSection(s); err != nil {
		var zero S
		return zero, err
	}
	return s, nil
}

// ForceAll decodes every lazy region of m in parallel: all standard
// sections and then every function body. It returns the first error.
func (m *Module) ForceAll(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m.Sections {
		ls, ok := s.(lazySection)
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := ls.forceAny(); err != nil {
				return errors.WithPath(err, ls.ID().String())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cs, ok := FindSection[*CodeSection](m); ok {
		code := cs.MustForce()
		// the first group's context is canceled once Wait returns
		g, gctx := errgroup.WithContext(ctx)
		for i, body := range *code {
			if body == nil {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if _, err := body.Force(); err != nil {
					return errors.WithPath(errors.WithPath(err, errors.Index(i)), SectionCode.String())
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if ce := Logger().Check(zap.DebugLevel, "module forced"); ce != nil {
		ce.Write(zap.Duration("took", time.Since(start)))
	}
	return nil
}

// Summary describes one section for listings.
type Summary struct {
	Name   string
	ID     SectionID
	Size   int
	Forced bool
}

func (s Summary) String() string {
	state := "lazy"
	if s.Forced {
		state = "forced"
	}
	return fmt.Sprintf("%-10s %-16s %8d %s", s.ID, s.Name, s.Size, state)
}

// Summaries lists the module's sections in order. Size is the raw payload
// length for sections that still hold their input bytes and the encoded
// length otherwise.
func (m *Module) Summaries() ([]Summary, error) {
	out := make([]Summary, 0, len(m.Sections))
	for _, s := range m.Sections {
		sum := Summary{ID: s.ID()}
		switch x := s.(type) {
		case *CustomSection:
			sum.Name = x.Name
			sum.Size = len(x.Data)
			sum.Forced = true
		case lazySection:
			sum.Forced = x.IsForced()
			if !sum.Forced {
				sum.Size = len(x.Raw())
				break
			}
			e := NewEncoder(m.Config())
			if err := x.Encode(e); err != nil {
				return nil, errors.WithPath(err, s.ID().String())
			}
			size, err := NewDecoder(e.Bytes(), m.Config()).U32()
			if err != nil {
				return nil, err
			}
			sum.Size = int(size)
		}
		out = append(out, sum)
	}
	return out, nil
}
