//go:build amd64 && unix

package jit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const nativeSupported = true

// mapCode copies code into a fresh anonymous mapping and seals it
// read-execute.
func mapCode(code []byte) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, len(code),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("jit: mmap: %w", err)
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("jit: mprotect: %w", err)
	}
	return mem, nil
}

func unmapCode(mem []byte) error {
	if mem == nil {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("jit: munmap: %w", err)
	}
	return nil
}

// callNative calls the entry stub at entry with f in rdi and returns eax.
//
//go:noescape
func callNative(entry uintptr, f *frame) uint64
