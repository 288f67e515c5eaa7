package kernels

import (
	"testing"

	"github.com/chewxy/math32"
)

// TestLookup verifies the built-in registrations
func TestLookup(t *testing.T) {
	mul, err := Lookup("multiply")
	if err != nil {
		t.Fatalf("Lookup(multiply): %v", err)
	}
	if mul.EntryPoint != "work_on_arrays" {
		t.Errorf("Expected entry point work_on_arrays, got %s", mul.EntryPoint)
	}
	if got := mul.Apply(0.5, 4); got != 2 {
		t.Errorf("multiply(0.5, 4) = %v, want 2", got)
	}

	add, err := Lookup("add")
	if err != nil {
		t.Fatalf("Lookup(add): %v", err)
	}
	if add.EntryPoint != "add_on_arrays" {
		t.Errorf("Expected entry point add_on_arrays, got %s", add.EntryPoint)
	}
	if got := add.Apply(0.5, 4); got != 4.5 {
		t.Errorf("add(0.5, 4) = %v, want 4.5", got)
	}

	if _, err := Lookup("divide"); err == nil {
		t.Error("Lookup of unregistered kernel should fail")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 2 || names[0] != "add" || names[1] != "multiply" {
		t.Errorf("Expected sorted [add multiply], got %v", names)
	}
}

// TestReference checks the host references on a known scenario
func TestReference(t *testing.T) {
	a := []float32{0.1, 0.2, 0.3, 0.4}
	b := []float32{0.5, 0.6, 0.7, 0.8}

	add, _ := Lookup("add")
	mul, _ := Lookup("multiply")

	sums := Reference(add, a, b)
	products := Reference(mul, a, b)

	wantSums := []float32{0.6, 0.8, 1.0, 1.2}
	wantProducts := []float32{0.05, 0.12, 0.21, 0.32}

	for i := range a {
		if math32.Abs(sums[i]-wantSums[i]) > Delta {
			t.Errorf("sum[%d] = %v, want %v", i, sums[i], wantSums[i])
		}
		if math32.Abs(products[i]-wantProducts[i]) > Delta {
			t.Errorf("product[%d] = %v, want %v", i, products[i], wantProducts[i])
		}
	}
}

func TestVerify(t *testing.T) {
	a := []float32{0.1, 0.2, 0.3, 0.4}
	b := []float32{0.5, 0.6, 0.7, 0.8}
	product := []float32{0.05, 0.12, 0.21, 0.32}
	sum := []float32{0.6, 0.8, 1.0, 1.2}

	if err := Verify(a, b, product, sum); err != nil {
		t.Errorf("Verify rejected correct results: %v", err)
	}

	bad := []float32{0.05, 0.12, 0.21, 0.99}
	if err := Verify(a, b, bad, sum); err == nil {
		t.Error("Verify accepted a wrong product")
	}

	if err := Verify(a, b, product, sum[:3]); err == nil {
		t.Error("Verify accepted mismatched lengths")
	}
}
