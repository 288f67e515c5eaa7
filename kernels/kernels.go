package kernels

import (
	"errors"
	"sort"
)

// Kernel pairs a WGSL compute entry point with its host-side scalar
// reference, so GPU output can always be checked against the CPU.
type Kernel struct {
	Name       string
	EntryPoint string
	Apply      func(a, b float32) float32
}

var registry = map[string]Kernel{}

func Register(k Kernel) { registry[k.Name] = k }

// Lookup returns the kernel registered under name.
func Lookup(name string) (Kernel, error) {
	k, ok := registry[name]
	if !ok {
		return Kernel{}, errors.New("unknown kernel: " + name)
	}
	return k, nil
}

func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Reference computes the host reference result for k over a and b.
func Reference(k Kernel, a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range out {
		out[i] = k.Apply(a[i], b[i])
	}
	return out
}

func init() {
	Register(Kernel{
		Name:       "multiply",
		EntryPoint: "work_on_arrays",
		Apply:      func(a, b float32) float32 { return a * b },
	})
	Register(Kernel{
		Name:       "add",
		EntryPoint: "add_on_arrays",
		Apply:      func(a, b float32) float32 { return a + b },
	})
}
