package ribbon_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ribbon-lang/ribbon"
	"github.com/ribbon-lang/ribbon/errz"
)

func ExampleRun() {
	var out bytes.Buffer
	err := ribbon.Run(context.Background(), "incr tape[idx] +64\nputch", ribbon.WithOutput(&out))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out.String())
	// Output: A
}

func ExampleExecute() {
	program, err := ribbon.Compile("getch loop ( incr tape[idx] putch getch )")
	if err != nil {
		fmt.Println(err)
		return
	}

	// A compiled program may be executed concurrently; each run gets its
	// own tape and I/O.
	inputs := []string{"HAL\x00", "abc\x00", "xyz\x00"}
	outputs := make([]string, len(inputs))
	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			var out bytes.Buffer
			err := ribbon.Execute(context.Background(), program,
				ribbon.WithJIT(true),
				ribbon.WithInput(strings.NewReader(input)),
				ribbon.WithOutput(&out))
			if err != nil {
				outputs[i] = err.Error()
				return
			}
			outputs[i] = out.String()
		}(i, input)
	}
	wg.Wait()
	for _, out := range outputs {
		fmt.Println(out)
	}
	// Output:
	// IBM
	// bcd
	// yz{
}

func Example_errorHandling() {
	err := ribbon.Run(context.Background(), "make tape[4]\nincr idx +4",
		ribbon.WithFilename("walk.rbn"))

	var runtimeErr *errz.RuntimeError
	if errors.As(err, &runtimeErr) {
		fmt.Println(runtimeErr.Kind, "on line", runtimeErr.Line)
	}
	fmt.Println("exit status", errz.ExitCode(err))
	fmt.Println(errors.Is(err, errz.ErrCursorOutOfBounds))
	// Output:
	// bounds error on line 2
	// exit status 3
	// true
}
