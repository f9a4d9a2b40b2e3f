package jit

import (
	"encoding/binary"
	"fmt"
)

// Label identifies a code position that may be referenced before it is
// known. Reserve a label, reference it from jumps, and mark it once.
type Label int

type fixup struct {
	pos   int // offset of the rel32 field
	label Label
}

// Assembler is an append-only x86-64 instruction buffer with rel32 label
// fixups resolved after the whole buffer is built.
type Assembler struct {
	buf    []byte
	labels []int // -1 until marked
	fixups []fixup
}

// Len returns the current write offset.
func (a *Assembler) Len() int {
	return len(a.buf)
}

// Bytes returns the assembled code. Call Resolve first.
func (a *Assembler) Bytes() []byte {
	return a.buf
}

// LabelCount returns the number of reserved labels.
func (a *Assembler) LabelCount() int {
	return len(a.labels)
}

// ReserveLabel allocates a label for later placement via MarkLabel.
func (a *Assembler) ReserveLabel() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// MarkLabel places the label at the current write offset.
func (a *Assembler) MarkLabel(l Label) {
	if a.labels[l] >= 0 {
		panic(fmt.Sprintf("jit: label %d marked twice", l))
	}
	a.labels[l] = len(a.buf)
}

// Offset returns the position of a marked label, or -1.
func (a *Assembler) Offset(l Label) int {
	return a.labels[l]
}

// Resolve patches every rel32 reference. An unmarked label is an error.
func (a *Assembler) Resolve() error {
	for _, f := range a.fixups {
		target := a.labels[f.label]
		if target < 0 {
			return fmt.Errorf("jit: label %d referenced at %#x was never marked", f.label, f.pos)
		}
		rel := int32(target - (f.pos + 4))
		binary.LittleEndian.PutUint32(a.buf[f.pos:], uint32(rel))
	}
	return nil
}

func (a *Assembler) emit(b ...byte) {
	a.buf = append(a.buf, b...)
}

func (a *Assembler) emitU32(v uint32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, v)
}

func (a *Assembler) rel32(l Label) {
	a.fixups = append(a.fixups, fixup{pos: len(a.buf), label: l})
	a.emitU32(0)
}

// Condition codes for the 0F 8x jcc encoding.
const (
	condB  byte = 0x2 // below / carry
	condAE byte = 0x3 // above or equal / no carry
	condE  byte = 0x4 // equal / zero
	condNE byte = 0x5 // not equal / not zero
)

// jcc emits a near conditional jump to l.
func (a *Assembler) jcc(cond byte, l Label) {
	a.emit(0x0F, 0x80|cond)
	a.rel32(l)
}

// jmp emits a near unconditional jump to l.
func (a *Assembler) jmp(l Label) {
	a.emit(0xE9)
	a.rel32(l)
}

// call emits a near call to l.
func (a *Assembler) call(l Label) {
	a.emit(0xE8)
	a.rel32(l)
}

// addRDX emits add rdx, n.
func (a *Assembler) addRDX(n int) {
	if n <= 0x7F {
		a.emit(0x48, 0x83, 0xC2, byte(n))
		return
	}
	a.emit(0x48, 0x81, 0xC2)
	a.emitU32(uint32(n))
}

// subRDX emits sub rdx, n.
func (a *Assembler) subRDX(n int) {
	if n <= 0x7F {
		a.emit(0x48, 0x83, 0xEA, byte(n))
		return
	}
	a.emit(0x48, 0x81, 0xEA)
	a.emitU32(uint32(n))
}

// cmpRDXR9 emits cmp rdx, r9.
func (a *Assembler) cmpRDXR9() {
	a.emit(0x4C, 0x39, 0xCA)
}

// cmpRDXR8 emits cmp rdx, r8.
func (a *Assembler) cmpRDXR8() {
	a.emit(0x4C, 0x39, 0xC2)
}

// movRDXR8 emits mov rdx, r8.
func (a *Assembler) movRDXR8() {
	a.emit(0x4C, 0x89, 0xC2)
}

// jaeShort emits jae over the next n bytes.
func (a *Assembler) jaeShort(n byte) {
	a.emit(0x73, n)
}

// addCell emits add byte [rdx], n.
func (a *Assembler) addCell(n byte) {
	a.emit(0x80, 0x02, n)
}

// subCell emits sub byte [rdx], n.
func (a *Assembler) subCell(n byte) {
	a.emit(0x80, 0x2A, n)
}

// cmpCellZero emits cmp byte [rdx], 0.
func (a *Assembler) cmpCellZero() {
	a.emit(0x80, 0x3A, 0x00)
}

// testAL emits test al, al.
func (a *Assembler) testAL() {
	a.emit(0x84, 0xC0)
}

// movEAX emits mov eax, v.
func (a *Assembler) movEAX(v uint32) {
	a.emit(0xB8)
	a.emitU32(v)
}

// storeCursor emits mov [rdi], rdx.
func (a *Assembler) storeCursor() {
	a.emit(0x48, 0x89, 0x17)
}

// storeSite emits mov dword [rdi+offSite], v.
func (a *Assembler) storeSite(v uint32) {
	a.emit(0xC7, 0x47, offSite)
	a.emitU32(v)
}

// storeResume pops the return address into rcx and stores it in the frame:
// pop rcx; mov [rdi+offResume], rcx.
func (a *Assembler) storeResume() {
	a.emit(0x59)
	a.emit(0x48, 0x89, 0x4F, offResume)
}

// ret emits ret.
func (a *Assembler) ret() {
	a.emit(0xC3)
}

// entry emits the stub that loads the register contract from the frame in
// rdi and jumps to the resume address:
//
//	mov rdx, [rdi]
//	mov r8, [rdi+8]
//	mov r9, [rdi+16]
//	mov rax, [rdi+32]
//	jmp [rdi+24]
func (a *Assembler) entry() {
	a.emit(0x48, 0x8B, 0x17)
	a.emit(0x4C, 0x8B, 0x47, offBegin)
	a.emit(0x4C, 0x8B, 0x4F, offEnd)
	a.emit(0x48, 0x8B, 0x47, offResult)
	a.emit(0xFF, 0x67, offResume)
}
