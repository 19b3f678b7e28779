// Package lc3 is a small LC-3 instruction set simulator.
//
// A VM is a plain value: copying it duplicates the whole machine (memory,
// registers, PC, PSR), which is how the harness hands every test case its own
// private machine. Input and output devices are not part of the value; they
// are supplied per run.
package lc3

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
)

// Memory-mapped device registers.
const (
	KBSR uint16 = 0xFE00 // keyboard status
	KBDR uint16 = 0xFE02 // keyboard data
	DSR  uint16 = 0xFE04 // display status
	DDR  uint16 = 0xFE06 // display data
	MCR  uint16 = 0xFFFE // machine control; bit 15 set while running
)

// UserStart is the PC a fresh VM starts at.
const UserStart uint16 = 0x3000

const (
	ready uint16 = 0x8000

	flagN uint16 = 0b100
	flagZ uint16 = 0b010
	flagP uint16 = 0b001
)

// VM is the complete machine state.
type VM struct {
	Mem [1 << 16]uint16
	Reg [8]uint16
	PC  uint16
	PSR uint16
}

// New returns a zeroed machine with the display ready, the clock running and
// the PC at UserStart.
func New() *VM {
	vm := &VM{PC: UserStart, PSR: flagZ}
	vm.Mem[DSR] = ready
	vm.Mem[MCR] = ready
	return vm
}

// Running reports whether the machine control register's clock bit is set.
func (vm *VM) Running() bool { return vm.Mem[MCR]&ready != 0 }

// Randomize overwrites all memory and general purpose registers with values
// from r, then marks the display ready and the clock running so that a
// program loaded afterwards can still do I/O and run.
func (vm *VM) Randomize(r *rand.Rand) {
	for i := range vm.Mem {
		vm.Mem[i] = uint16(r.Uint32())
	}
	for i := range vm.Reg {
		vm.Reg[i] = uint16(r.Uint32())
	}
	vm.Mem[DSR] = ready
	vm.Mem[MCR] = ready
}

// LoadObj copies an object image into memory. The image is a sequence of
// big-endian words; the first one is the load address.
func (vm *VM) LoadObj(obj []byte) error {
	if len(obj) < 2 {
		return fmt.Errorf("lc3: object image too short (%d bytes)", len(obj))
	}
	if len(obj)%2 != 0 {
		return fmt.Errorf("lc3: object image has odd length %d", len(obj))
	}
	origin := binary.BigEndian.Uint16(obj)
	words := (len(obj) - 2) / 2
	if int(origin)+words > len(vm.Mem) {
		return fmt.Errorf("lc3: object image of %d words at x%04X overruns memory", words, origin)
	}
	for i := 0; i < words; i++ {
		vm.Mem[int(origin)+i] = binary.BigEndian.Uint16(obj[2+2*i:])
	}
	return nil
}

// ctxCheckInterval is the number of instructions between two checks of the
// run context. Must be a power of two.
const ctxCheckInterval = 1 << 16

// Run executes instructions while the clock is running, reading the keyboard
// from in and writing the display to out. A limit of 0 means no limit;
// otherwise at most limit instructions are executed. It returns the number of
// instructions executed and the first error reported by out.
//
// ctx is polled every ctxCheckInterval instructions, starting before the
// first one; once it is done Run stops and returns ctx.Err().
func (vm *VM) Run(ctx context.Context, limit uint64, in io.ByteScanner, out io.Writer) (uint64, error) {
	dev := devices{in: in, out: out}
	var n uint64
	for vm.Running() && (limit == 0 || n < limit) {
		if n&(ctxCheckInterval-1) == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		vm.step(&dev)
		n++
		if dev.err != nil {
			return n, fmt.Errorf("lc3: display write at PC x%04X: %w", vm.PC, dev.err)
		}
	}
	return n, nil
}

// devices binds the keyboard and display for the duration of a run.
type devices struct {
	in  io.ByteScanner
	out io.Writer
	err error
	b   [1]byte
}

func (vm *VM) read(d *devices, addr uint16) uint16 {
	switch addr {
	case KBSR:
		if d.in == nil {
			return 0
		}
		if _, err := d.in.ReadByte(); err != nil {
			return 0
		}
		_ = d.in.UnreadByte()
		return ready
	case KBDR:
		if d.in == nil {
			return 0
		}
		c, err := d.in.ReadByte()
		if err != nil {
			return 0
		}
		return uint16(c)
	}
	return vm.Mem[addr]
}

func (vm *VM) write(d *devices, addr, val uint16) {
	if addr == DDR {
		if d.out != nil && d.err == nil {
			d.b[0] = byte(val)
			_, d.err = d.out.Write(d.b[:])
		}
		return
	}
	vm.Mem[addr] = val
}

func (vm *VM) setCC(v uint16) {
	var cc uint16
	switch {
	case v == 0:
		cc = flagZ
	case v&0x8000 != 0:
		cc = flagN
	default:
		cc = flagP
	}
	vm.PSR = vm.PSR&^0b111 | cc
}

// sext sign-extends the low bits of v.
func sext(v uint16, bits uint) uint16 {
	m := uint16(1) << (bits - 1)
	v &= (1 << bits) - 1
	return (v ^ m) - m
}

func (vm *VM) step(d *devices) {
	ir := vm.read(d, vm.PC)
	vm.PC++

	dr := (ir >> 9) & 7
	sr1 := (ir >> 6) & 7

	switch ir >> 12 {
	case opBR:
		if (ir>>9)&vm.PSR&0b111 != 0 {
			vm.PC += sext(ir, 9)
		}
	case opADD:
		if ir&0x20 != 0 {
			vm.Reg[dr] = vm.Reg[sr1] + sext(ir, 5)
		} else {
			vm.Reg[dr] = vm.Reg[sr1] + vm.Reg[ir&7]
		}
		vm.setCC(vm.Reg[dr])
	case opLD:
		vm.Reg[dr] = vm.read(d, vm.PC+sext(ir, 9))
		vm.setCC(vm.Reg[dr])
	case opST:
		vm.write(d, vm.PC+sext(ir, 9), vm.Reg[dr])
	case opJSR:
		target := vm.Reg[sr1]
		if ir&0x800 != 0 {
			target = vm.PC + sext(ir, 11)
		}
		vm.Reg[7] = vm.PC
		vm.PC = target
	case opAND:
		if ir&0x20 != 0 {
			vm.Reg[dr] = vm.Reg[sr1] & sext(ir, 5)
		} else {
			vm.Reg[dr] = vm.Reg[sr1] & vm.Reg[ir&7]
		}
		vm.setCC(vm.Reg[dr])
	case opLDR:
		vm.Reg[dr] = vm.read(d, vm.Reg[sr1]+sext(ir, 6))
		vm.setCC(vm.Reg[dr])
	case opSTR:
		vm.write(d, vm.Reg[sr1]+sext(ir, 6), vm.Reg[dr])
	case opRTI:
		vm.PC = vm.read(d, vm.Reg[6])
		vm.Reg[6]++
		vm.PSR = vm.read(d, vm.Reg[6])
		vm.Reg[6]++
	case opNOT:
		vm.Reg[dr] = ^vm.Reg[sr1]
		vm.setCC(vm.Reg[dr])
	case opLDI:
		vm.Reg[dr] = vm.read(d, vm.read(d, vm.PC+sext(ir, 9)))
		vm.setCC(vm.Reg[dr])
	case opSTI:
		vm.write(d, vm.read(d, vm.PC+sext(ir, 9)), vm.Reg[dr])
	case opJMP:
		vm.PC = vm.Reg[sr1]
	case opRES:
		// reserved opcode: no effect
	case opLEA:
		vm.Reg[dr] = vm.PC + sext(ir, 9)
	case opTRAP:
		vm.Reg[7] = vm.PC
		vm.PC = vm.read(d, ir&0xFF)
	}
}
