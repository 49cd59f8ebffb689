package nvrhi

// GraphicsPipelineDesc describes a graphics pipeline.
type GraphicsPipelineDesc struct {
	// RenderState is the fixed-function state baked into the pipeline.
	RenderState RenderState
	// Layouts are the binding layouts the pipeline consumes, one per
	// binding set slot of GraphicsState.Bindings.
	Layouts []*BindingLayout
	// DebugName labels the pipeline in logs.
	DebugName string
}

// GraphicsPipeline is an immutable compiled graphics pipeline.
type GraphicsPipeline struct {
	desc GraphicsPipelineDesc
}

// Desc returns the descriptor the pipeline was created with.
func (p *GraphicsPipeline) Desc() GraphicsPipelineDesc {
	return p.desc
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	// Layouts are the binding layouts the pipeline consumes.
	Layouts []*BindingLayout
	// DebugName labels the pipeline in logs.
	DebugName string
}

// ComputePipeline is an immutable compiled compute pipeline.
type ComputePipeline struct {
	desc ComputePipelineDesc
}

// Desc returns the descriptor the pipeline was created with.
func (p *ComputePipeline) Desc() ComputePipelineDesc {
	return p.desc
}
