package gpu

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// ReadTimeout bounds the poll loop in ReadBuffer. Readbacks that take
// longer fail with an error rather than hanging the host.
var ReadTimeout = 2 * time.Second

// EnsureGPU ensures the GPU context is initialized
func EnsureGPU() error {
	_, err := GetContext()
	return err
}

// NewFloatBuffer creates a buffer with the given float32 data
func NewFloatBuffer(data []float32, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	c, err := GetContext()
	if err != nil {
		return nil, err
	}

	buf, err := c.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Contents: wgpu.ToBytes(data),
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer: %v", err)
	}
	return buf, nil
}

// RandomFloats returns n uniform random float32 values in [0,1).
// Deliberately unseeded so repeated runs see different data.
func RandomFloats(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = rand.Float32()
	}
	return out
}

// ReadBuffer safely reads an entire buffer
func ReadBuffer(buffer *wgpu.Buffer, size int) ([]float32, error) {
	c, err := GetContext()
	if err != nil {
		return nil, err
	}

	// Create staging buffer
	sizeBytes := uint64(size * 4)
	stagingBuf, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ReadStaging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create staging buffer: %v", err)
	}
	defer stagingBuf.Destroy()

	// Copy to staging
	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %v", err)
	}
	encoder.CopyBufferToBuffer(buffer, 0, stagingBuf, 0, sizeBytes)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish command: %v", err)
	}
	c.Queue.Submit(cmd)

	// Map and read
	done := make(chan struct{})
	var mapErr error

	err = stagingBuf.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("MapAsync failed: %v", err)
	}

	// Poll until done. Poll(false) checks without blocking indefinitely,
	// so the timeout below stays enforceable.
	timeout := time.After(ReadTimeout)
Loop:
	for {
		c.Device.Poll(false, nil)

		select {
		case <-done:
			break Loop
		case <-timeout:
			return nil, fmt.Errorf("ReadBuffer timed out after %v", ReadTimeout)
		default:
			time.Sleep(time.Millisecond) // Don't busy wait too hot
		}
	}

	if mapErr != nil {
		return nil, mapErr
	}

	data := stagingBuf.GetMappedRange(0, uint(sizeBytes))
	if data == nil {
		return nil, fmt.Errorf("failed to get mapped range")
	}

	// Copy data out
	result := make([]float32, size)
	copy(result, wgpu.FromBytes[float32](data))
	stagingBuf.Unmap()

	return result, nil
}

// readStagingBuffer blocks until the staging buffer is mapped and
// returns its contents. Used after a submitted command buffer has
// already copied results into buf.
func readStagingBuffer(c *Context, buf *wgpu.Buffer, size int) ([]float32, error) {
	done := make(chan struct{})
	var mapErr error

	buf.MapAsync(wgpu.MapModeRead, 0, buf.GetSize(), func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map status: %d", status)
		}
		close(done)
	})

	// Poll(true) waits for device work, so this is the synchronous
	// wait on the submitted command buffer.
Loop:
	for {
		c.Device.Poll(true, nil)
		select {
		case <-done:
			break Loop
		default:
		}
	}

	if mapErr != nil {
		return nil, mapErr
	}

	data := buf.GetMappedRange(0, uint(buf.GetSize()))
	defer buf.Unmap()

	if data == nil {
		return nil, fmt.Errorf("mapped range nil")
	}

	out := make([]float32, size)
	copy(out, wgpu.FromBytes[float32](data))

	return out, nil
}
