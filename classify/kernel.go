package classify

import (
	"fmt"
	"strings"
)

// Kernel is a square, odd-sized grid of colour classes stored row-major.
type Kernel struct {
	Size  int
	Cells []ColorClass
}

// KernelError reports a kernel that cannot be parsed or scaled. Callers log
// it and fall back to another size or the unknown token.
type KernelError struct {
	Token  string
	Size   int
	Reason string
}

func (e *KernelError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("classify: kernel %d: %s", e.Size, e.Reason)
	}
	return fmt.Sprintf("classify: kernel %d for %q: %s", e.Size, e.Token, e.Reason)
}

// ParseKernel reads rows written with k w r g b for the classes and . for
// cells that are ignored, e.g. {"kkk", ".g.", "kkk"}.
func ParseKernel(rows []string) (Kernel, error) {
	n := len(rows)
	if n == 0 || n%2 == 0 {
		return Kernel{}, &KernelError{Size: n, Reason: "size must be odd"}
	}
	k := Kernel{Size: n, Cells: make([]ColorClass, 0, n*n)}
	for y, row := range rows {
		cells := []rune(strings.TrimSpace(row))
		if len(cells) != n {
			return Kernel{}, &KernelError{Size: n, Reason: fmt.Sprintf("row %d has %d cells", y, len(cells))}
		}
		for _, r := range cells {
			c, err := classRune(r)
			if err != nil {
				return Kernel{}, &KernelError{Size: n, Reason: err.Error()}
			}
			k.Cells = append(k.Cells, c)
		}
	}
	return k, nil
}

// MustKernel is ParseKernel for static tables.
func MustKernel(rows ...string) Kernel {
	k, err := ParseKernel(rows)
	if err != nil {
		panic(err)
	}
	return k
}

// At returns the class at column x, row y.
func (k Kernel) At(x, y int) ColorClass {
	return k.Cells[y*k.Size+x]
}

// ExpandIndex maps each index of an n-wide grid onto a k-wide kernel. Every
// kernel index is repeated n/k times and the remainder goes to the centre,
// so the map reads the same from both ends. It returns nil unless
// 1 ≤ k ≤ n and both are odd.
func ExpandIndex(k, n int) []int {
	if k < 1 || n < k || k%2 == 0 || n%2 == 0 {
		return nil
	}
	repeat, rest := n/k, n%k
	out := make([]int, 0, n)
	for i := 0; i < k; i++ {
		times := repeat
		if i == k/2 {
			times += rest
		}
		for j := 0; j < times; j++ {
			out = append(out, i)
		}
	}
	return out
}

// Expand scales the kernel up to n×n with ExpandIndex on both axes.
func (k Kernel) Expand(n int) (Kernel, error) {
	if n == k.Size {
		return k, nil
	}
	idx := ExpandIndex(k.Size, n)
	if idx == nil {
		return Kernel{}, &KernelError{Size: k.Size, Reason: fmt.Sprintf("cannot expand to %d", n)}
	}
	out := Kernel{Size: n, Cells: make([]ColorClass, 0, n*n)}
	for _, y := range idx {
		for _, x := range idx {
			out.Cells = append(out.Cells, k.At(x, y))
		}
	}
	return out, nil
}

// String renders the kernel back in its row notation.
func (k Kernel) String() string {
	var b strings.Builder
	for y := 0; y < k.Size; y++ {
		if y > 0 {
			b.WriteByte('/')
		}
		for x := 0; x < k.Size; x++ {
			b.WriteByte(cellRune[k.At(x, y)])
		}
	}
	return b.String()
}

var cellRune = [...]byte{DontCare: '.', Black: 'k', White: 'w', Red: 'r', Green: 'g', Blue: 'b'}
