package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/openfluke/warp/detector"
	"github.com/openfluke/warp/kernels"
)

// ElementwiseJob runs the multiply and add kernels over a pair of
// equally sized float32 arrays in a single command buffer: one compute
// pass, two sequential dispatches, then a blocking readback.
type ElementwiseJob struct {
	Length int

	mulPipeline *wgpu.ComputePipeline
	addPipeline *wgpu.ComputePipeline

	bindGroupLayout *wgpu.BindGroupLayout
	mulBindGroup    *wgpu.BindGroup // a, b -> Product
	addBindGroup    *wgpu.BindGroup // a, b -> Sum

	ABuffer       *wgpu.Buffer
	BBuffer       *wgpu.Buffer
	ProductBuffer *wgpu.Buffer
	SumBuffer     *wgpu.Buffer

	productStaging *wgpu.Buffer
	sumStaging     *wgpu.Buffer

	WorkgroupSize uint32
	WorkgroupsX   uint32
}

// NewElementwiseJob creates a job for arrays of the given length.
// Call Build before Run.
func NewElementwiseJob(length int) *ElementwiseJob {
	return &ElementwiseJob{Length: length}
}

// shaderSource emits the WGSL module holding both kernel entry points.
// Both kernels see the same binding layout: a and b read-only at 0 and
// 1, the result at 2. Which array sits behind binding 2 is decided by
// the bind group, not the shader.
func (j *ElementwiseJob) shaderSource(mulEntry, addEntry string) string {
	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> a : array<f32>;
		@group(0) @binding(1) var<storage, read> b : array<f32>;
		@group(0) @binding(2) var<storage, read_write> result : array<f32>;

		@compute @workgroup_size(%d)
		fn %s(@builtin(global_invocation_id) gid: vec3<u32>) {
			let i = gid.x;
			if (i < arrayLength(&result)) {
				result[i] = a[i] * b[i];
			}
		}

		@compute @workgroup_size(%d)
		fn %s(@builtin(global_invocation_id) gid: vec3<u32>) {
			let i = gid.x;
			if (i < arrayLength(&result)) {
				result[i] = a[i] + b[i];
			}
		}
	`, j.WorkgroupSize, mulEntry, j.WorkgroupSize, addEntry)
}

// AllocateBuffers creates the result storage buffers and the two
// staging buffers for readback, all Length*4 bytes. The input buffers
// are created at Run time from the input data.
func (j *ElementwiseJob) AllocateBuffers(ctx *Context, labelPrefix string) error {
	if Debug {
		Log("Allocating buffers for %s (Length: %d)", labelPrefix, j.Length)
	}
	if j.Length <= 0 {
		return fmt.Errorf("invalid array length %d", j.Length)
	}

	sizeBytes := uint64(j.Length * 4)
	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

	var err error
	for _, spec := range []struct {
		dst   **wgpu.Buffer
		label string
	}{
		{&j.ProductBuffer, "_Product"},
		{&j.SumBuffer, "_Sum"},
	} {
		*spec.dst, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: labelPrefix + spec.label,
			Size:  sizeBytes,
			Usage: storage,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s buffer: %v", spec.label, err)
		}
	}

	for _, spec := range []struct {
		dst   **wgpu.Buffer
		label string
	}{
		{&j.productStaging, "_ProductStaging"},
		{&j.sumStaging, "_SumStaging"},
	} {
		*spec.dst, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: labelPrefix + spec.label,
			Size:  sizeBytes,
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s buffer: %v", spec.label, err)
		}
	}

	return nil
}

// Compile builds the shader module and the two compute pipelines.
func (j *ElementwiseJob) Compile(ctx *Context, labelPrefix string) error {
	if Debug {
		Log("Compiling elementwise job %s", labelPrefix)
	}

	mul, err := kernels.Lookup("multiply")
	if err != nil {
		return err
	}
	add, err := kernels.Lookup("add")
	if err != nil {
		return err
	}

	// Size the workgroup from real adapter limits, clamped to the
	// array length so tiny jobs don't over-provision.
	wgX, _, _ := detector.ChooseWorkgroup(ctx.Adapter.GetLimits())
	if uint32(j.Length) < wgX {
		wgX = uint32(j.Length)
	}
	j.WorkgroupSize = wgX
	j.WorkgroupsX = workgroupsFor(uint32(j.Length), wgX)

	module, err := ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          labelPrefix + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: j.shaderSource(mul.EntryPoint, add.EntryPoint)},
	})
	if err != nil {
		return fmt.Errorf("shader compile: %v", err)
	}
	defer module.Release()

	// Explicit Bind Group Layout to avoid "auto" layout issues in WASM
	j.bindGroupLayout, err = ctx.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: labelPrefix + "_BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}}, // a
			{Binding: 1, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}}, // b
			{Binding: 2, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},         // result
		},
	})
	if err != nil {
		return fmt.Errorf("create bgl: %v", err)
	}

	pipelineLayout, err := ctx.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            labelPrefix + "_Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{j.bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %v", err)
	}

	j.mulPipeline, err = ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  labelPrefix + "_MulPipe",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: mul.EntryPoint,
		},
	})
	if err != nil {
		return fmt.Errorf("multiply pipeline create: %v", err)
	}

	j.addPipeline, err = ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  labelPrefix + "_AddPipe",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: add.EntryPoint,
		},
	})
	if err != nil {
		return fmt.Errorf("add pipeline create: %v", err)
	}

	return nil
}

// workgroupsFor returns how many workgroups of size wg cover n threads.
func workgroupsFor(n, wg uint32) uint32 {
	if wg == 0 {
		return 0
	}
	return (n + wg - 1) / wg
}

// CreateBindGroups binds a and b with each result buffer. The two
// groups differ only in binding 2. Safe to call again after the input
// buffers change.
func (j *ElementwiseJob) CreateBindGroups(ctx *Context, labelPrefix string) error {
	if j.mulBindGroup != nil {
		j.mulBindGroup.Release()
		j.mulBindGroup = nil
	}
	if j.addBindGroup != nil {
		j.addBindGroup.Release()
		j.addBindGroup = nil
	}

	var err error
	j.mulBindGroup, err = ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  labelPrefix + "_MulBind",
		Layout: j.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: j.ABuffer, Size: j.ABuffer.GetSize()},
			{Binding: 1, Buffer: j.BBuffer, Size: j.BBuffer.GetSize()},
			{Binding: 2, Buffer: j.ProductBuffer, Size: j.ProductBuffer.GetSize()},
		},
	})
	if err != nil {
		return fmt.Errorf("multiply bind group: %v", err)
	}

	j.addBindGroup, err = ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  labelPrefix + "_AddBind",
		Layout: j.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: j.ABuffer, Size: j.ABuffer.GetSize()},
			{Binding: 1, Buffer: j.BBuffer, Size: j.BBuffer.GetSize()},
			{Binding: 2, Buffer: j.SumBuffer, Size: j.SumBuffer.GetSize()},
		},
	})
	if err != nil {
		return fmt.Errorf("add bind group: %v", err)
	}
	return nil
}

// Build initializes all GPU resources for the job
func (j *ElementwiseJob) Build() error {
	ctx, err := GetContext()
	if err != nil {
		return err
	}

	label := "Elementwise"
	if err := j.AllocateBuffers(ctx, label); err != nil {
		return err
	}
	return j.Compile(ctx, label)
}

// Dispatch records both kernels into the given compute pass, multiply
// first, add second.
func (j *ElementwiseJob) Dispatch(pass *wgpu.ComputePassEncoder) {
	if Debug {
		Log("Dispatching 2 kernels w/ %d workgroups of %d", j.WorkgroupsX, j.WorkgroupSize)
	}
	pass.SetPipeline(j.mulPipeline)
	pass.SetBindGroup(0, j.mulBindGroup, nil)
	pass.DispatchWorkgroups(j.WorkgroupsX, 1, 1)

	pass.SetPipeline(j.addPipeline)
	pass.SetBindGroup(0, j.addBindGroup, nil)
	pass.DispatchWorkgroups(j.WorkgroupsX, 1, 1)
}

// Run uploads a and b, submits one command buffer holding both
// dispatches plus the staging copies, blocks until the device is done
// and returns the product and sum arrays.
func (j *ElementwiseJob) Run(a, b []float32) (product, sum []float32, err error) {
	if len(a) != j.Length || len(b) != j.Length {
		return nil, nil, fmt.Errorf("input length mismatch: a=%d b=%d, job built for %d",
			len(a), len(b), j.Length)
	}
	if j.mulPipeline == nil || j.addPipeline == nil {
		return nil, nil, fmt.Errorf("job not built")
	}

	ctx, err := GetContext()
	if err != nil {
		return nil, nil, err
	}

	// The input buffers carry their data from creation, like weight
	// buffers. A second Run replaces them and rebinds.
	if j.ABuffer != nil {
		j.ABuffer.Destroy()
	}
	if j.BBuffer != nil {
		j.BBuffer.Destroy()
	}
	inputUsage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
	j.ABuffer, err = NewFloatBuffer(a, inputUsage)
	if err != nil {
		return nil, nil, fmt.Errorf("a buf: %v", err)
	}
	j.BBuffer, err = NewFloatBuffer(b, inputUsage)
	if err != nil {
		return nil, nil, fmt.Errorf("b buf: %v", err)
	}
	if err := j.CreateBindGroups(ctx, "Elementwise"); err != nil {
		return nil, nil, err
	}

	enc, err := ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create command encoder: %v", err)
	}

	pass := enc.BeginComputePass(nil)
	j.Dispatch(pass)
	pass.End()

	enc.CopyBufferToBuffer(j.ProductBuffer, 0, j.productStaging, 0, j.ProductBuffer.GetSize())
	enc.CopyBufferToBuffer(j.SumBuffer, 0, j.sumStaging, 0, j.SumBuffer.GetSize())

	cmd, err := enc.Finish(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to finish command: %v", err)
	}
	ctx.Queue.Submit(cmd)

	product, err = readStagingBuffer(ctx, j.productStaging, j.Length)
	if err != nil {
		return nil, nil, fmt.Errorf("read product: %v", err)
	}
	sum, err = readStagingBuffer(ctx, j.sumStaging, j.Length)
	if err != nil {
		return nil, nil, fmt.Errorf("read sum: %v", err)
	}

	return product, sum, nil
}

// Cleanup releases resources
func (j *ElementwiseJob) Cleanup() {
	for _, buf := range []*wgpu.Buffer{
		j.ABuffer, j.BBuffer, j.ProductBuffer, j.SumBuffer,
		j.productStaging, j.sumStaging,
	} {
		if buf != nil {
			buf.Destroy()
		}
	}
	j.ABuffer, j.BBuffer, j.ProductBuffer, j.SumBuffer = nil, nil, nil, nil
	j.productStaging, j.sumStaging = nil, nil

	if j.mulPipeline != nil {
		j.mulPipeline.Release()
		j.mulPipeline = nil
	}
	if j.addPipeline != nil {
		j.addPipeline.Release()
		j.addPipeline = nil
	}
	if j.mulBindGroup != nil {
		j.mulBindGroup.Release()
		j.mulBindGroup = nil
	}
	if j.addBindGroup != nil {
		j.addBindGroup.Release()
		j.addBindGroup = nil
	}
}
