package gpu

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfluke/warp/kernels"
)

func TestWorkgroupsFor(t *testing.T) {
	cases := []struct {
		n, wg, want uint32
	}{
		{4096, 256, 16},
		{4097, 256, 17},
		{1, 256, 1},
		{255, 256, 1},
		{256, 256, 1},
		{257, 256, 2},
		{4, 4, 1},
		{10, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, workgroupsFor(c.n, c.wg), "workgroupsFor(%d, %d)", c.n, c.wg)
	}
}

func TestRandomFloats(t *testing.T) {
	a := RandomFloats(4096)
	require.Len(t, a, 4096)
	for i, v := range a {
		if v < 0 || v >= 1 {
			t.Fatalf("value %v at index %d outside [0,1)", v, i)
		}
	}

	// Unseeded: two fills should not coincide.
	b := RandomFloats(4096)
	assert.NotEqual(t, a, b)
}

func TestRunBeforeBuild(t *testing.T) {
	job := NewElementwiseJob(4)
	_, _, err := job.Run(make([]float32, 4), make([]float32, 4))
	assert.ErrorContains(t, err, "not built")
}

func TestRunLengthMismatch(t *testing.T) {
	job := NewElementwiseJob(4)
	_, _, err := job.Run(make([]float32, 3), make([]float32, 4))
	assert.ErrorContains(t, err, "length mismatch")
}

func TestElementwiseGPU(t *testing.T) {
	if err := EnsureGPU(); err != nil {
		t.Skipf("no GPU adapter available: %v", err)
	}

	a := []float32{0.1, 0.2, 0.3, 0.4}
	b := []float32{0.5, 0.6, 0.7, 0.8}

	job := NewElementwiseJob(len(a))
	require.NoError(t, job.Build())
	defer job.Cleanup()

	product, sum, err := job.Run(a, b)
	require.NoError(t, err)
	require.Len(t, product, len(a))
	require.Len(t, sum, len(a))

	wantSum := []float32{0.6, 0.8, 1.0, 1.2}
	wantProduct := []float32{0.05, 0.12, 0.21, 0.32}
	for i := range a {
		assert.InDelta(t, wantSum[i], sum[i], float64(kernels.Delta), "sum[%d]", i)
		assert.InDelta(t, wantProduct[i], product[i], float64(kernels.Delta), "product[%d]", i)
	}

	assert.NoError(t, kernels.Verify(a, b, product, sum))

	// A second Run replaces the input buffers with the new data.
	a2 := []float32{2, 3, 4, 5}
	b2 := []float32{10, 10, 10, 10}
	product, sum, err = job.Run(a2, b2)
	require.NoError(t, err)
	for i := range a2 {
		assert.InDelta(t, a2[i]+b2[i], sum[i], float64(kernels.Delta), "sum[%d]", i)
		assert.InDelta(t, a2[i]*b2[i], product[i], float64(kernels.Delta), "product[%d]", i)
	}
}

func TestElementwiseGPURandom(t *testing.T) {
	if err := EnsureGPU(); err != nil {
		t.Skipf("no GPU adapter available: %v", err)
	}

	const n = 4096
	job := NewElementwiseJob(n)
	require.NoError(t, job.Build())
	defer job.Cleanup()

	a := RandomFloats(n)
	b := RandomFloats(n)

	product, sum, err := job.Run(a, b)
	require.NoError(t, err)
	require.NoError(t, kernels.Verify(a, b, product, sum))

	mul, err := kernels.Lookup("multiply")
	require.NoError(t, err)
	want := kernels.Reference(mul, a, b)
	for i := range want {
		if math32.Abs(product[i]-want[i]) > kernels.Delta {
			t.Fatalf("product[%d] = %v, want %v", i, product[i], want[i])
		}
	}

	// The input buffer on the device should still hold what we uploaded.
	got, err := ReadBuffer(job.ABuffer, n)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}
