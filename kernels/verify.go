package kernels

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Delta is the absolute tolerance for comparing GPU results against
// the host reference.
const Delta float32 = 1e-6

// Verify checks the elementwise identities product[i] == a[i]*b[i] and
// sum[i] == a[i]+b[i] within Delta, reporting the first mismatch.
func Verify(a, b, product, sum []float32) error {
	if len(b) != len(a) || len(product) != len(a) || len(sum) != len(a) {
		return fmt.Errorf("length mismatch: a=%d b=%d product=%d sum=%d",
			len(a), len(b), len(product), len(sum))
	}
	for i := range a {
		if math32.Abs(product[i]-a[i]*b[i]) > Delta {
			return fmt.Errorf("index %d: %v*%v=%v, GPU returned %v",
				i, a[i], b[i], a[i]*b[i], product[i])
		}
		if math32.Abs(sum[i]-(a[i]+b[i])) > Delta {
			return fmt.Errorf("index %d: %v+%v=%v, GPU returned %v",
				i, a[i], b[i], a[i]+b[i], sum[i])
		}
	}
	return nil
}
