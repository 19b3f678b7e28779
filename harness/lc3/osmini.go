package lc3

import "sync"

// Trap vectors served by the support image.
const (
	TrapGETC  uint8 = 0x20
	TrapOUT   uint8 = 0x21
	TrapPUTS  uint8 = 0x22
	TrapIN    uint8 = 0x23
	TrapPUTSP uint8 = 0x24
	TrapHALT  uint8 = 0x25
)

// SupportImage returns the minimal operating environment loaded under every
// target program: the trap table for x20..x25 and their service routines,
// all polling the memory-mapped devices. HALT stops the clock silently.
// IN does not print a prompt; it reads one character and echoes it.
//
// The returned slice is shared; callers must not modify it.
func SupportImage() []byte { return supportImage() }

var supportImage = sync.OnceValue(func() []byte {
	return buildSupport().MustObj()
})

func buildSupport() *Builder {
	b := NewBuilder(uint16(TrapGETC))
	b.FillLabel("GETC").
		FillLabel("OUT").
		FillLabel("PUTS").
		FillLabel("IN").
		FillLabel("PUTSP").
		FillLabel("HALT")

	// GETC: R0 <- keyboard
	b.Label("GETC").
		LDI(0, "kbsr").BR(CondZP, "GETC").
		LDI(0, "kbdr").
		RET()

	// OUT: display <- R0
	b.Label("OUT").ST(1, "save1").
		Label("out_wait").LDI(1, "dsr").BR(CondZP, "out_wait").
		STI(0, "ddr").
		LD(1, "save1").
		RET()

	// PUTS: display the zero-terminated string at R0, one char per word
	b.Label("PUTS").ST(0, "save0").ST(1, "save1").ST(2, "save2").
		ADDi(1, 0, 0).
		Label("puts_next").LDR(0, 1, 0).BR(CondZ, "puts_done").
		Label("puts_wait").LDI(2, "dsr").BR(CondZP, "puts_wait").
		STI(0, "ddr").
		ADDi(1, 1, 1).
		BR(CondNZP, "puts_next").
		Label("puts_done").LD(0, "save0").LD(1, "save1").LD(2, "save2").
		RET()

	// IN: R0 <- keyboard, echoed
	b.Label("IN").ST(1, "save1").
		Label("in_key").LDI(0, "kbsr").BR(CondZP, "in_key").
		LDI(0, "kbdr").
		Label("in_wait").LDI(1, "dsr").BR(CondZP, "in_wait").
		STI(0, "ddr").
		LD(1, "save1").
		RET()

	// PUTSP: display the string at R0 packed two chars per word, low byte
	// first. The high byte is recovered by shifting it out bit by bit.
	b.Label("PUTSP").
		ST(0, "save0").ST(1, "save1").ST(2, "save2").
		ST(3, "save3").ST(4, "save4").ST(5, "save5").
		ADDi(1, 0, 0).
		Label("putsp_next").LDR(2, 1, 0).
		LD(3, "low_mask").AND(0, 2, 3).BR(CondZ, "putsp_done").
		Label("putsp_lo").LDI(3, "dsr").BR(CondZP, "putsp_lo").
		STI(0, "ddr").
		ANDi(4, 4, 0).ADDi(5, 4, 8).
		Label("putsp_shift").ADD(4, 4, 4).
		ADDi(2, 2, 0).BR(CondZP, "putsp_nobit").
		ADDi(4, 4, 1).
		Label("putsp_nobit").ADD(2, 2, 2).
		ADDi(5, 5, -1).BR(CondP, "putsp_shift").
		ADDi(0, 4, 0).BR(CondZ, "putsp_done").
		Label("putsp_hi").LDI(3, "dsr").BR(CondZP, "putsp_hi").
		STI(0, "ddr").
		ADDi(1, 1, 1).
		BR(CondNZP, "putsp_next").
		Label("putsp_done").
		LD(0, "save0").LD(1, "save1").LD(2, "save2").
		LD(3, "save3").LD(4, "save4").LD(5, "save5").
		RET()

	// HALT: clear the clock bit of the MCR
	b.Label("HALT").
		LDI(0, "mcr").LD(1, "clock_mask").AND(0, 0, 1).STI(0, "mcr").
		BR(CondNZP, "HALT")

	b.Label("save0").Fill(0).
		Label("save1").Fill(0).
		Label("save2").Fill(0).
		Label("save3").Fill(0).
		Label("save4").Fill(0).
		Label("save5").Fill(0).
		Label("kbsr").Fill(KBSR).
		Label("kbdr").Fill(KBDR).
		Label("dsr").Fill(DSR).
		Label("ddr").Fill(DDR).
		Label("mcr").Fill(MCR).
		Label("low_mask").Fill(0x00FF).
		Label("clock_mask").Fill(0x7FFF)
	return b
}
