package wasm

import "fmt"

// Index newtypes. Each is a u32 LEB128 on the wire and a distinct Go type,
// so a visitor can target one index space at a time.
type (
	TypeID   uint32
	FuncID   uint32
	TableID  uint32
	MemID    uint32
	GlobalID uint32
	ElemID   uint32
	DataID   uint32
	LocalID  uint32
	LabelID  uint32
	TagID    uint32
)

func decodeIndex[T ~uint32](d *Decoder, id *T) error {
	v, err := d.U32()
	*id = T(v)
	return err
}

func (id *TypeID) Decode(d *Decoder) error   { return decodeIndex(d, id) }
func (id *FuncID) Decode(d *Decoder) error   { return decodeIndex(d, id) }
func (id *TableID) Decode(d *Decoder) error  { return decodeIndex(d, id) }
func (id *MemID) Decode(d *Decoder) error    { return decodeIndex(d, id) }
func (id *GlobalID) Decode(d *Decoder) error { return decodeIndex(d, id) }
func (id *ElemID) Decode(d *Decoder) error   { return decodeIndex(d, id) }
func (id *DataID) Decode(d *Decoder) error   { return decodeIndex(d, id) }
func (id *LocalID) Decode(d *Decoder) error  { return decodeIndex(d, id) }
func (id *LabelID) Decode(d *Decoder) error  { return decodeIndex(d, id) }
func (id *TagID) Decode(d *Decoder) error    { return decodeIndex(d, id) }

func (id *TypeID) Encode(e *Encoder) error   { e.U32(uint32(*id)); return nil }
func (id *FuncID) Encode(e *Encoder) error   { e.U32(uint32(*id)); return nil }
func (id *TableID) Encode(e *Encoder) error  { e.U32(uint32(*id)); return nil }
func (id *MemID) Encode(e *Encoder) error    { e.U32(uint32(*id)); return nil }
func (id *GlobalID) Encode(e *Encoder) error { e.U32(uint32(*id)); return nil }
func (id *ElemID) Encode(e *Encoder) error   { e.U32(uint32(*id)); return nil }
func (id *DataID) Encode(e *Encoder) error   { e.U32(uint32(*id)); return nil }
func (id *LocalID) Encode(e *Encoder) error  { e.U32(uint32(*id)); return nil }
func (id *LabelID) Encode(e *Encoder) error  { e.U32(uint32(*id)); return nil }
func (id *TagID) Encode(e *Encoder) error    { e.U32(uint32(*id)); return nil }

func (id TypeID) String() string   { return fmt.Sprintf("type#%d", uint32(id)) }
func (id FuncID) String() string   { return fmt.Sprintf("func#%d", uint32(id)) }
func (id TableID) String() string  { return fmt.Sprintf("table#%d", uint32(id)) }
func (id MemID) String() string    { return fmt.Sprintf("mem#%d", uint32(id)) }
func (id GlobalID) String() string { return fmt.Sprintf("global#%d", uint32(id)) }
func (id ElemID) String() string   { return fmt.Sprintf("elem#%d", uint32(id)) }
func (id DataID) String() string   { return fmt.Sprintf("data#%d", uint32(id)) }
func (id LocalID) String() string  { return fmt.Sprintf("local#%d", uint32(id)) }
func (id LabelID) String() string  { return fmt.Sprintf("label#%d", uint32(id)) }
func (id TagID) String() string    { return fmt.Sprintf("tag#%d", uint32(id)) }
