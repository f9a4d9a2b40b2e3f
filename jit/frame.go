package jit

// frame is shared between the host and generated code. Generated code
// addresses its fields by the fixed offsets below; the layout is part of the
// trampoline contract and must not change without updating both sides.
type frame struct {
	cursor uintptr // address of the current cell
	begin  uintptr // address of cell 0
	end    uintptr // one past the last cell
	resume uintptr // where the entry stub jumps
	result uint64  // host I/O result: 0 success, 1 failure
	site   uint64  // index of the failing check site
}

// Frame field offsets in bytes.
const (
	offCursor = 0
	offBegin  = 8
	offEnd    = 16
	offResume = 24
	offResult = 32
	offSite   = 40
)

// Status values returned in eax by generated code.
const (
	statusOK       = 0
	statusOverflow = 1
	statusIO       = 2
	statusBounds   = 3
	statusWrite    = 4
	statusRead     = 5
)

// TrampolineVersion identifies the frame layout and status contract between
// the host and generated code.
const TrampolineVersion = 1
