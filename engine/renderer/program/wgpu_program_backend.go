package program

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// wgpuShader is a compiled WGSL shader module plus the reflection data the link step needs.
type wgpuShader struct {
	stage      ShaderStage
	label      string
	module     *wgpu.ShaderModule
	entryPoint string
	inputs     []wgslVertexInput
	uniforms   []wgslUniform
}

// wgpuUniformSlot is one group 0 uniform buffer of a linked program. The slot's location is its binding.
type wgpuUniformSlot struct {
	name    string
	binding uint32
	size    uint64
	buffer  *wgpu.Buffer
}

// wgpuProgram emulates a GL program object: shaders are attached and detached freely and
// linking bakes the attached pair into a render pipeline with its uniform bind group.
type wgpuProgram struct {
	attached map[ShaderID]struct{}
	attribs  map[string]uint32

	pipeline        *wgpu.RenderPipeline
	pipelineLayout  *wgpu.PipelineLayout
	bindGroupLayout *wgpu.BindGroupLayout
	bindGroup       *wgpu.BindGroup
	slots           []*wgpuUniformSlot

	linked  bool
	infoLog string
}

type wgpuProgramBackend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue
	format wgpu.TextureFormat
	pass   *wgpu.RenderPassEncoder

	nextID   uint32
	programs map[ProgramID]*wgpuProgram
	shaders  map[ShaderID]*wgpuShader
}

// WGPUBackend is a Backend that realizes programs as WebGPU render pipelines.
// Because WebGPU binds pipelines on a render pass encoder rather than on global state,
// the encoder of the frame being recorded must be handed to the backend before any
// UseProgram call.
type WGPUBackend interface {
	Backend

	// SetRenderPass sets the render pass encoder that UseProgram binds pipelines on.
	// Passing nil detaches the backend from any pass; UseProgram is then a no-op.
	//
	// Parameters:
	//   - pass: the render pass encoder of the current frame
	SetRenderPass(pass *wgpu.RenderPassEncoder)
}

var _ WGPUBackend = &wgpuProgramBackend{}

// NewWGPUBackend creates a WebGPU program backend on an existing device.
//
// Parameters:
//   - device: the WebGPU device that owns created modules, pipelines and buffers
//   - queue: the device queue used for uniform uploads
//   - format: the color target format of the render passes programs draw into
//
// Returns:
//   - WGPUBackend: the WebGPU program backend
func NewWGPUBackend(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat) WGPUBackend {
	return &wgpuProgramBackend{
		mu:       &sync.Mutex{},
		device:   device,
		queue:    queue,
		format:   format,
		programs: make(map[ProgramID]*wgpuProgram),
		shaders:  make(map[ShaderID]*wgpuShader),
	}
}

func (b *wgpuProgramBackend) SetRenderPass(pass *wgpu.RenderPassEncoder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pass = pass
}

func (b *wgpuProgramBackend) ShadingLanguage() ShadingLanguage {
	return ShadingLanguageWGSL
}

func (b *wgpuProgramBackend) CreateProgram() (ProgramID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := ProgramID(b.nextID)
	b.programs[id] = &wgpuProgram{
		attached: make(map[ShaderID]struct{}),
		attribs:  make(map[string]uint32),
	}
	return id, nil
}

func (b *wgpuProgramBackend) DeleteProgram(p ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return
	}
	releaseLinkResources(prog)
	delete(b.programs, p)
}

func (b *wgpuProgramBackend) CompileShader(stage ShaderStage, label, source string) (ShaderID, error) {
	if _, err := naga.Compile(source); err != nil {
		return 0, fmt.Errorf("failed to compile %v shader %q: %w", stage, label, err)
	}

	entryPoint := parseEntryPoint(source, stage)
	if entryPoint == "" {
		return 0, fmt.Errorf("shader %q has no @%v entry point", label, stage)
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create shader module %q: %w", label, err)
	}

	s := &wgpuShader{
		stage:      stage,
		label:      label,
		module:     module,
		entryPoint: entryPoint,
		uniforms:   parseUniforms(source),
	}
	if stage == ShaderStageVertex {
		s.inputs = parseVertexInputs(source)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := ShaderID(b.nextID)
	b.shaders[id] = s
	return id, nil
}

func (b *wgpuProgramBackend) DeleteShader(s ShaderID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sh, ok := b.shaders[s]
	if !ok {
		return
	}
	sh.module.Release()
	delete(b.shaders, s)
}

func (b *wgpuProgramBackend) AttachShader(p ProgramID, s ShaderID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prog, ok := b.programs[p]; ok {
		prog.attached[s] = struct{}{}
	}
}

func (b *wgpuProgramBackend) DetachShader(p ProgramID, s ShaderID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prog, ok := b.programs[p]; ok {
		delete(prog.attached, s)
	}
}

func (b *wgpuProgramBackend) BindAttribLocation(p ProgramID, location uint32, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prog, ok := b.programs[p]; ok {
		prog.attribs[name] = location
	}
}

func (b *wgpuProgramBackend) LinkProgram(p ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return
	}
	releaseLinkResources(prog)
	prog.linked = false
	prog.infoLog = ""

	if err := b.link(p, prog); err != nil {
		releaseLinkResources(prog)
		prog.infoLog = err.Error()
		return
	}
	prog.linked = true
}

// link builds the render pipeline for the attached vertex and fragment shaders.
// Must be called with b.mu held.
func (b *wgpuProgramBackend) link(p ProgramID, prog *wgpuProgram) error {
	var vs, fs *wgpuShader
	for id := range prog.attached {
		sh, ok := b.shaders[id]
		if !ok {
			return fmt.Errorf("attached shader %d does not exist", id)
		}
		switch sh.stage {
		case ShaderStageVertex:
			if vs != nil {
				return errors.New("more than one vertex shader attached")
			}
			vs = sh
		case ShaderStageFragment:
			if fs != nil {
				return errors.New("more than one fragment shader attached")
			}
			fs = sh
		}
	}
	if vs == nil || fs == nil {
		return errors.New("a program needs both a vertex and a fragment shader")
	}

	// WGSL fixes locations in source, so bound locations can only be checked against it.
	for name, loc := range prog.attribs {
		for _, in := range vs.inputs {
			if in.name == name && in.location != loc {
				return fmt.Errorf("attribute %q bound to location %d but declared at @location(%d) in %q", name, loc, in.location, vs.label)
			}
		}
	}

	slots, err := mergeUniforms(vs.uniforms, fs.uniforms)
	if err != nil {
		return err
	}

	label := fmt.Sprintf("Program %d", p)
	var bindGroupLayouts []*wgpu.BindGroupLayout
	if len(slots) > 0 {
		entries := make([]wgpu.BindGroupLayoutEntry, len(slots))
		for i, slot := range slots {
			entries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    slot.binding,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: slot.size,
				},
			}
		}
		prog.bindGroupLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   label + " Uniforms",
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("failed to create bind group layout: %w", err)
		}
		bindGroupLayouts = append(bindGroupLayouts, prog.bindGroupLayout)

		bindGroupEntries := make([]wgpu.BindGroupEntry, len(slots))
		for i, slot := range slots {
			slot.buffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: label + " " + slot.name,
				Size:  slot.size,
				Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				return fmt.Errorf("failed to create uniform buffer %q: %w", slot.name, err)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: slot.binding,
				Buffer:  slot.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
		prog.slots = slots

		prog.bindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   label + " Uniforms",
			Layout:  prog.bindGroupLayout,
			Entries: bindGroupEntries,
		})
		if err != nil {
			return fmt.Errorf("failed to create bind group: %w", err)
		}
	}

	prog.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	var buffers []wgpu.VertexBufferLayout
	if len(vs.inputs) > 0 {
		layout, ok := buildVertexBufferLayout(vs.inputs)
		if !ok {
			return fmt.Errorf("vertex shader %q declares an input type with no vertex format", vs.label)
		}
		buffers = append(buffers, layout)
	}

	prog.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: prog.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: vs.entryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs.module,
			EntryPoint: fs.entryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create render pipeline: %w", err)
	}
	return nil
}

// mergeUniforms combines the group 0 uniforms of both stages into binding-ordered slots.
// A binding declared by both stages must agree on name and type.
func mergeUniforms(vertex, fragment []wgslUniform) ([]*wgpuUniformSlot, error) {
	byBinding := make(map[uint32]wgslUniform)
	for _, u := range append(append([]wgslUniform{}, vertex...), fragment...) {
		if prev, ok := byBinding[u.binding]; ok {
			if prev.name != u.name || prev.typeName != u.typeName {
				return nil, fmt.Errorf("binding %d declared as %s: %s and %s: %s", u.binding, prev.name, prev.typeName, u.name, u.typeName)
			}
			continue
		}
		byBinding[u.binding] = u
	}

	slots := make([]*wgpuUniformSlot, 0, len(byBinding))
	for _, u := range byBinding {
		size, ok := wgslUniformSizeMap[u.typeName]
		if !ok {
			return nil, fmt.Errorf("uniform %q has unsupported type %s", u.name, u.typeName)
		}
		slots = append(slots, &wgpuUniformSlot{name: u.name, binding: u.binding, size: size})
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].binding < slots[j].binding
	})
	return slots, nil
}

func releaseLinkResources(prog *wgpuProgram) {
	for _, slot := range prog.slots {
		if slot.buffer != nil {
			slot.buffer.Release()
		}
	}
	prog.slots = nil
	if prog.bindGroup != nil {
		prog.bindGroup.Release()
		prog.bindGroup = nil
	}
	if prog.bindGroupLayout != nil {
		prog.bindGroupLayout.Release()
		prog.bindGroupLayout = nil
	}
	if prog.pipeline != nil {
		prog.pipeline.Release()
		prog.pipeline = nil
	}
	if prog.pipelineLayout != nil {
		prog.pipelineLayout.Release()
		prog.pipelineLayout = nil
	}
}

func (b *wgpuProgramBackend) LinkStatus(p ProgramID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	return ok && prog.linked
}

func (b *wgpuProgramBackend) ProgramInfoLog(p ProgramID) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prog, ok := b.programs[p]; ok {
		return prog.infoLog
	}
	return ""
}

func (b *wgpuProgramBackend) UseProgram(p ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok || !prog.linked || b.pass == nil {
		return
	}
	b.pass.SetPipeline(prog.pipeline)
	if prog.bindGroup != nil {
		b.pass.SetBindGroup(0, prog.bindGroup, nil)
	}
}

func (b *wgpuProgramBackend) UniformLocation(p ProgramID, name string) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prog, ok := b.programs[p]; ok {
		for _, slot := range prog.slots {
			if slot.name == name {
				return int32(slot.binding)
			}
		}
	}
	return -1
}

// writeUniform uploads raw bytes to the uniform slot bound at location.
func (b *wgpuProgramBackend) writeUniform(p ProgramID, location int32, data []byte) {
	if location < 0 || len(data) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return
	}
	for _, slot := range prog.slots {
		if slot.binding != uint32(location) {
			continue
		}
		if uint64(len(data)) > slot.size {
			data = data[:slot.size]
		}
		b.queue.WriteBuffer(slot.buffer, 0, data)
		return
	}
}

func (b *wgpuProgramBackend) SetUniformFloat32s(p ProgramID, location int32, values []float32) {
	if len(values) > 4 {
		values = values[:4]
	}
	b.writeUniform(p, location, common.SliceToBytes(values))
}

func (b *wgpuProgramBackend) SetUniformInt32(p ProgramID, location int32, value int32) {
	b.writeUniform(p, location, common.SliceToBytes([]int32{value}))
}

func (b *wgpuProgramBackend) SetUniformMatrix4(p ProgramID, location int32, m [16]float32) {
	b.writeUniform(p, location, common.SliceToBytes(m[:]))
}
