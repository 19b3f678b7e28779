package lc3

import (
	"encoding/binary"
	"fmt"
)

const (
	opBR = iota
	opADD
	opLD
	opST
	opJSR
	opAND
	opLDR
	opSTR
	opRTI
	opNOT
	opLDI
	opSTI
	opJMP
	opRES
	opLEA
	opTRAP
)

// Condition masks for Builder.BR.
const (
	CondP   uint16 = 0b001
	CondZ   uint16 = 0b010
	CondN   uint16 = 0b100
	CondZP         = CondZ | CondP
	CondNZ         = CondN | CondZ
	CondNP         = CondN | CondP
	CondNZP        = CondN | CondZ | CondP
)

// Builder assembles a contiguous block of LC-3 words. PC-relative operands
// may name labels defined before or after their use; they are resolved by
// Words.
type Builder struct {
	origin uint16
	words  []uint16
	labels map[string]uint16
	fixups []fixup
}

type fixup struct {
	at    int // index into words
	label string
	bits  uint // width of the PC offset field; 0 means an absolute .FILL
}

// NewBuilder starts a block loaded at origin.
func NewBuilder(origin uint16) *Builder {
	return &Builder{origin: origin, labels: make(map[string]uint16)}
}

// Here returns the address of the next emitted word.
func (b *Builder) Here() uint16 { return b.origin + uint16(len(b.words)) }

// Label binds name to the address of the next emitted word.
// Panics on a duplicate label.
func (b *Builder) Label(name string) *Builder {
	if _, dup := b.labels[name]; dup {
		panic(fmt.Sprintf("lc3.Builder: duplicate label %q", name))
	}
	b.labels[name] = b.Here()
	return b
}

func (b *Builder) emit(w uint16) *Builder {
	b.words = append(b.words, w)
	return b
}

func (b *Builder) emitRel(w uint16, label string, bits uint) *Builder {
	b.fixups = append(b.fixups, fixup{at: len(b.words), label: label, bits: bits})
	return b.emit(w)
}

func reg(r uint16) uint16 {
	if r > 7 {
		panic(fmt.Sprintf("lc3.Builder: register R%d out of range", r))
	}
	return r
}

func imm(v int, bits uint) uint16 {
	lo, hi := -(1 << (bits - 1)), (1<<(bits-1))-1
	if v < lo || v > hi {
		panic(fmt.Sprintf("lc3.Builder: immediate %d does not fit in %d bits", v, bits))
	}
	return uint16(v) & (1<<bits - 1)
}

// Fill emits a literal word (.FILL).
func (b *Builder) Fill(w uint16) *Builder { return b.emit(w) }

// FillLabel emits the absolute address of label.
func (b *Builder) FillLabel(label string) *Builder { return b.emitRel(0, label, 0) }

// Stringz emits s one character per word followed by a zero word.
func (b *Builder) Stringz(s string) *Builder {
	for i := 0; i < len(s); i++ {
		b.emit(uint16(s[i]))
	}
	return b.emit(0)
}

// Blkw reserves n zero words.
func (b *Builder) Blkw(n int) *Builder {
	for i := 0; i < n; i++ {
		b.emit(0)
	}
	return b
}

func (b *Builder) ADD(dr, sr1, sr2 uint16) *Builder {
	return b.emit(opADD<<12 | reg(dr)<<9 | reg(sr1)<<6 | reg(sr2))
}

func (b *Builder) ADDi(dr, sr1 uint16, v int) *Builder {
	return b.emit(opADD<<12 | reg(dr)<<9 | reg(sr1)<<6 | 0x20 | imm(v, 5))
}

func (b *Builder) AND(dr, sr1, sr2 uint16) *Builder {
	return b.emit(opAND<<12 | reg(dr)<<9 | reg(sr1)<<6 | reg(sr2))
}

func (b *Builder) ANDi(dr, sr1 uint16, v int) *Builder {
	return b.emit(opAND<<12 | reg(dr)<<9 | reg(sr1)<<6 | 0x20 | imm(v, 5))
}

func (b *Builder) NOT(dr, sr uint16) *Builder {
	return b.emit(opNOT<<12 | reg(dr)<<9 | reg(sr)<<6 | 0x3F)
}

func (b *Builder) BR(cond uint16, label string) *Builder {
	return b.emitRel(opBR<<12|(cond&0b111)<<9, label, 9)
}

func (b *Builder) LD(dr uint16, label string) *Builder {
	return b.emitRel(opLD<<12|reg(dr)<<9, label, 9)
}

func (b *Builder) LDI(dr uint16, label string) *Builder {
	return b.emitRel(opLDI<<12|reg(dr)<<9, label, 9)
}

func (b *Builder) LEA(dr uint16, label string) *Builder {
	return b.emitRel(opLEA<<12|reg(dr)<<9, label, 9)
}

func (b *Builder) ST(sr uint16, label string) *Builder {
	return b.emitRel(opST<<12|reg(sr)<<9, label, 9)
}

func (b *Builder) STI(sr uint16, label string) *Builder {
	return b.emitRel(opSTI<<12|reg(sr)<<9, label, 9)
}

func (b *Builder) LDR(dr, base uint16, off int) *Builder {
	return b.emit(opLDR<<12 | reg(dr)<<9 | reg(base)<<6 | imm(off, 6))
}

func (b *Builder) STR(sr, base uint16, off int) *Builder {
	return b.emit(opSTR<<12 | reg(sr)<<9 | reg(base)<<6 | imm(off, 6))
}

func (b *Builder) JSR(label string) *Builder {
	return b.emitRel(opJSR<<12|0x800, label, 11)
}

func (b *Builder) JSRR(base uint16) *Builder { return b.emit(opJSR<<12 | reg(base)<<6) }

func (b *Builder) JMP(base uint16) *Builder { return b.emit(opJMP<<12 | reg(base)<<6) }

// RET is JMP R7.
func (b *Builder) RET() *Builder { return b.JMP(7) }

func (b *Builder) RTI() *Builder { return b.emit(opRTI << 12) }

func (b *Builder) TRAP(vec uint8) *Builder { return b.emit(opTRAP<<12 | uint16(vec)) }

// Words resolves labels and returns the assembled block.
func (b *Builder) Words() ([]uint16, error) {
	out := make([]uint16, len(b.words))
	copy(out, b.words)
	for _, f := range b.fixups {
		addr, ok := b.labels[f.label]
		if !ok {
			return nil, fmt.Errorf("lc3: undefined label %q", f.label)
		}
		if f.bits == 0 {
			out[f.at] = addr
			continue
		}
		pc := int(b.origin) + f.at + 1
		off := int(addr) - pc
		lo, hi := -(1 << (f.bits - 1)), (1<<(f.bits-1))-1
		if off < lo || off > hi {
			return nil, fmt.Errorf("lc3: label %q is %d words away, out of range for a %d-bit offset", f.label, off, f.bits)
		}
		out[f.at] |= uint16(off) & (1<<f.bits - 1)
	}
	return out, nil
}

// Obj returns the block in object-file form: the origin followed by the
// words, all big-endian.
func (b *Builder) Obj() ([]byte, error) {
	words, err := b.Words()
	if err != nil {
		return nil, err
	}
	obj := make([]byte, 2+2*len(words))
	binary.BigEndian.PutUint16(obj, b.origin)
	for i, w := range words {
		binary.BigEndian.PutUint16(obj[2+2*i:], w)
	}
	return obj, nil
}

// MustObj is Obj for blocks known to assemble; it panics otherwise.
func (b *Builder) MustObj() []byte {
	obj, err := b.Obj()
	if err != nil {
		panic(err)
	}
	return obj
}
