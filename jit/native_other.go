//go:build !(amd64 && unix)

package jit

const nativeSupported = false

func mapCode(code []byte) ([]byte, error) {
	return nil, ErrUnsupported
}

func unmapCode(mem []byte) error {
	return nil
}

func callNative(entry uintptr, f *frame) uint64 {
	panic(ErrUnsupported)
}
