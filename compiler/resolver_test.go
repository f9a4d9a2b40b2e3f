package compiler

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/op"
	"github.com/stretchr/testify/require"
)

// randomSkeleton returns balanced source built from simple statements and
// nested loops, along with the opcodes it should compile to (after the
// leading AllocateTape).
func randomSkeleton(rng *rand.Rand, size, maxDepth int) (string, []op.Code) {
	var b strings.Builder
	var codes []op.Code
	depth := 0
	for i := 0; i < size; i++ {
		switch n := rng.Intn(6); {
		case n == 0 && depth < maxDepth:
			b.WriteString("loop (\n")
			codes = append(codes, op.Branch)
			depth++
		case n == 1 && depth > 0:
			b.WriteString(")\n")
			codes = append(codes, op.Branch)
			depth--
		case n == 2:
			b.WriteString("incr tape[idx]\n")
			codes = append(codes, op.IncrementCell)
		case n == 3:
			b.WriteString("decr idx\n")
			codes = append(codes, op.RetreatCursor)
		default:
			b.WriteString("putch\n")
			codes = append(codes, op.WriteChar)
		}
	}
	for ; depth > 0; depth-- {
		b.WriteString(")\n")
		codes = append(codes, op.Branch)
	}
	return b.String(), codes
}

// matchingPairs pairs forward and backward branch indices by stack
// discipline over the instruction stream.
func matchingPairs(program *bytecode.Program) map[int]int {
	pairs := map[int]int{}
	var stack []int
	for i := 0; i < program.Len(); i++ {
		instr := program.At(i)
		if instr.IsBranch(op.Forward) {
			stack = append(stack, i)
		} else if instr.IsBranch(op.Backward) {
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pairs[open] = i
		}
	}
	return pairs
}

func TestBracketRoundTrip(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		source, codes := randomSkeleton(rng, 1+rng.Intn(80), 1+rng.Intn(12))

		program, err := Compile(source, nil)
		require.Nil(t, err, "seed %d", seed)
		require.Nil(t, program.Validate(), "seed %d", seed)
		require.Equal(t, len(codes)+1, program.Len(), "seed %d", seed)
		require.Equal(t, op.AllocateTape, program.At(0).Code)
		for i, code := range codes {
			require.Equal(t, code, program.At(i+1).Code, "seed %d index %d", seed, i+1)
		}

		for open, end := range matchingPairs(program) {
			forward := program.At(open)
			backward := program.At(end)
			require.Equal(t, end, open+forward.Operand-1, "seed %d", seed)
			require.Equal(t, open, end-backward.Operand, "seed %d", seed)
		}
	}
}

func FuzzCompile(f *testing.F) {
	f.Add("make tape[3]\nincr tape[idx] +4\nloop ( decr tape[idx] putch )")
	f.Add("loop ( loop ( ) )")
	f.Add(")")
	f.Add("make p: idx incr p +2 debug getch")
	f.Add("// comment\n+1")
	f.Fuzz(func(t *testing.T, source string) {
		program, err := Compile(source, nil)
		if err != nil {
			require.Nil(t, program)
			return
		}
		require.Nil(t, program.Validate())
		again, err := Compile(source, nil)
		require.Nil(t, err)
		require.True(t, program.Equal(again))
	})
}
