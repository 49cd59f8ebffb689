package nvrhi

// Fixed-function state objects are plain data with builder-style setters:
// each setter returns the modified value so descriptors can be assembled in
// a single expression. The state tracker consumes them only as opaque
// pipeline inputs.

// BlendFactor selects a blend equation operand.
type BlendFactor uint8

const (
	// BlendFactorZero is the constant 0.
	BlendFactorZero BlendFactor = iota
	// BlendFactorOne is the constant 1.
	BlendFactorOne
	// BlendFactorSrcAlpha is the source alpha.
	BlendFactorSrcAlpha
	// BlendFactorInvSrcAlpha is one minus the source alpha.
	BlendFactorInvSrcAlpha
	// BlendFactorDstAlpha is the destination alpha.
	BlendFactorDstAlpha
	// BlendFactorInvDstAlpha is one minus the destination alpha.
	BlendFactorInvDstAlpha
)

// BlendOp selects the blend combiner.
type BlendOp uint8

const (
	// BlendOpAdd adds the operands.
	BlendOpAdd BlendOp = iota
	// BlendOpSubtract subtracts source from destination.
	BlendOpSubtract
	// BlendOpMin takes the componentwise minimum.
	BlendOpMin
	// BlendOpMax takes the componentwise maximum.
	BlendOpMax
)

// BlendState describes color blending for one render target.
type BlendState struct {
	// BlendEnable turns blending on.
	BlendEnable bool
	// SrcBlend is the source color factor.
	SrcBlend BlendFactor
	// DstBlend is the destination color factor.
	DstBlend BlendFactor
	// BlendOp combines the color operands.
	BlendOp BlendOp
	// SrcBlendAlpha is the source alpha factor.
	SrcBlendAlpha BlendFactor
	// DstBlendAlpha is the destination alpha factor.
	DstBlendAlpha BlendFactor
	// BlendOpAlpha combines the alpha operands.
	BlendOpAlpha BlendOp
}

// WithBlendEnable returns the state with BlendEnable set.
func (s BlendState) WithBlendEnable(v bool) BlendState { s.BlendEnable = v; return s }

// WithSrcBlend returns the state with SrcBlend set.
func (s BlendState) WithSrcBlend(v BlendFactor) BlendState { s.SrcBlend = v; return s }

// WithDstBlend returns the state with DstBlend set.
func (s BlendState) WithDstBlend(v BlendFactor) BlendState { s.DstBlend = v; return s }

// WithBlendOp returns the state with BlendOp set.
func (s BlendState) WithBlendOp(v BlendOp) BlendState { s.BlendOp = v; return s }

// RasterFillMode selects polygon fill behavior.
type RasterFillMode uint8

const (
	// RasterFillSolid fills polygons.
	RasterFillSolid RasterFillMode = iota
	// RasterFillWireframe draws polygon edges.
	RasterFillWireframe
)

// RasterCullMode selects polygon culling.
type RasterCullMode uint8

const (
	// RasterCullBack culls back-facing polygons.
	RasterCullBack RasterCullMode = iota
	// RasterCullFront culls front-facing polygons.
	RasterCullFront
	// RasterCullNone disables culling.
	RasterCullNone
)

// RasterState describes fixed-function rasterizer behavior.
type RasterState struct {
	// FillMode selects solid or wireframe fill.
	FillMode RasterFillMode
	// CullMode selects polygon culling.
	CullMode RasterCullMode
	// FrontCounterClockwise makes counter-clockwise winding front-facing.
	FrontCounterClockwise bool
	// DepthBias is the constant depth bias.
	DepthBias int32
	// SlopeScaledDepthBias is the slope-scaled depth bias.
	SlopeScaledDepthBias float32
	// ScissorEnable turns on scissor testing.
	ScissorEnable bool
}

// WithFillMode returns the state with FillMode set.
func (s RasterState) WithFillMode(v RasterFillMode) RasterState { s.FillMode = v; return s }

// WithCullMode returns the state with CullMode set.
func (s RasterState) WithCullMode(v RasterCullMode) RasterState { s.CullMode = v; return s }

// WithDepthBias returns the state with DepthBias set.
func (s RasterState) WithDepthBias(v int32) RasterState { s.DepthBias = v; return s }

// ComparisonFunc selects a depth/stencil comparison.
type ComparisonFunc uint8

const (
	// ComparisonAlways always passes.
	ComparisonAlways ComparisonFunc = iota
	// ComparisonNever never passes.
	ComparisonNever
	// ComparisonLess passes when the new value is smaller.
	ComparisonLess
	// ComparisonLessOrEqual passes when the new value is not larger.
	ComparisonLessOrEqual
	// ComparisonGreater passes when the new value is larger.
	ComparisonGreater
	// ComparisonGreaterOrEqual passes when the new value is not smaller.
	ComparisonGreaterOrEqual
	// ComparisonEqual passes on equality.
	ComparisonEqual
	// ComparisonNotEqual passes on inequality.
	ComparisonNotEqual
)

// DepthStencilState describes depth and stencil testing.
type DepthStencilState struct {
	// DepthTestEnable turns on depth testing.
	DepthTestEnable bool
	// DepthWriteEnable turns on depth writes.
	DepthWriteEnable bool
	// DepthFunc is the depth comparison.
	DepthFunc ComparisonFunc
	// StencilEnable turns on stencil testing.
	StencilEnable bool
	// StencilReadMask masks stencil reads.
	StencilReadMask uint8
	// StencilWriteMask masks stencil writes.
	StencilWriteMask uint8
	// StencilRefValue is the stencil reference.
	StencilRefValue uint8
}

// WithDepthTestEnable returns the state with DepthTestEnable set.
func (s DepthStencilState) WithDepthTestEnable(v bool) DepthStencilState {
	s.DepthTestEnable = v
	return s
}

// WithDepthWriteEnable returns the state with DepthWriteEnable set.
func (s DepthStencilState) WithDepthWriteEnable(v bool) DepthStencilState {
	s.DepthWriteEnable = v
	return s
}

// WithDepthFunc returns the state with DepthFunc set.
func (s DepthStencilState) WithDepthFunc(v ComparisonFunc) DepthStencilState {
	s.DepthFunc = v
	return s
}

// RenderState bundles the fixed-function pipeline state.
type RenderState struct {
	// Blend is the blend state for the first render target.
	Blend BlendState
	// Raster is the rasterizer state.
	Raster RasterState
	// DepthStencil is the depth-stencil state.
	DepthStencil DepthStencilState
}
