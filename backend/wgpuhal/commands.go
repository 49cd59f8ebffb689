package wgpuhal

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	nvrhi "github.com/NVIDIAGameWorks/nvrhi-sub002"
)

// ErrCommandBufferClosed is returned when recording into a finalized
// command buffer.
var ErrCommandBufferClosed = errors.New("wgpuhal: command buffer closed")

// commandBuffer is the native handle for one command list session.
type commandBuffer struct {
	queue   nvrhi.CommandQueue
	encoder hal.CommandEncoder
	cmd     hal.CommandBuffer // set by CloseCommandBuffer
	closed  bool

	// preSubmit runs on the hal queue right before submission. The hal
	// only uploads through the queue, so WriteBuffer is deferred here to
	// keep uploads ordered with the submission they belong to.
	preSubmit []func(hal.Queue) error
}

func (b *Backend) commandBuffer(cb nvrhi.NativeCommandBuffer) (*commandBuffer, error) {
	wcb, ok := cb.(*commandBuffer)
	if !ok || wcb == nil {
		return nil, fmt.Errorf("wgpuhal: not a wgpuhal command buffer")
	}
	if wcb.closed {
		return nil, ErrCommandBufferClosed
	}
	return wcb, nil
}

// OpenCommandBuffer implements nvrhi.DeviceBackend.
func (b *Backend) OpenCommandBuffer(queue nvrhi.CommandQueue) (nvrhi.NativeCommandBuffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return nil, err
	}
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: fmt.Sprintf("nvrhi/%v", queue),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpuhal: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding(fmt.Sprintf("nvrhi/%v", queue)); err != nil {
		return nil, fmt.Errorf("wgpuhal: begin encoding: %w", err)
	}
	return &commandBuffer{queue: queue, encoder: encoder}, nil
}

// FlushBarriers implements nvrhi.DeviceBackend. Texture transitions map to
// hal texture usage transitions. Buffer and UAV barriers have no hal
// equivalent; submission ordering on the single hardware queue covers
// them, so they are absorbed here with a debug log.
func (b *Backend) FlushBarriers(cb nvrhi.NativeCommandBuffer, textures []nvrhi.TextureBarrier, buffers []nvrhi.BufferBarrier, uavs []nvrhi.UAVBarrier) error {
	wcb, err := b.commandBuffer(cb)
	if err != nil {
		return err
	}

	if len(textures) > 0 {
		halBarriers := make([]hal.TextureBarrier, 0, len(textures))
		for _, tb := range textures {
			wt, ok := tb.Texture.Native().(*wgpuTexture)
			if !ok {
				return fmt.Errorf("wgpuhal: barrier on foreign texture %q", tb.Texture.Desc().DebugName)
			}
			halBarriers = append(halBarriers, hal.TextureBarrier{
				Texture: wt.tex,
				Usage: hal.TextureUsageTransition{
					OldUsage: textureUsageForStates(tb.StateBefore),
					NewUsage: textureUsageForStates(tb.StateAfter),
				},
			})
		}
		wcb.encoder.TransitionTextures(halBarriers)
	}

	if len(buffers) > 0 || len(uavs) > 0 {
		nvrhi.Logger().Debug("wgpuhal: absorbing barriers without hal equivalent",
			"buffers", len(buffers), "uavs", len(uavs))
	}
	return nil
}

// CopyBuffer implements nvrhi.DeviceBackend.
func (b *Backend) CopyBuffer(cb nvrhi.NativeCommandBuffer, dst nvrhi.NativeResource, dstOffset uint64, src nvrhi.NativeResource, srcOffset, byteCount uint64) error {
	wcb, err := b.commandBuffer(cb)
	if err != nil {
		return err
	}
	wdst, ok1 := dst.(*wgpuBuffer)
	wsrc, ok2 := src.(*wgpuBuffer)
	if !ok1 || !ok2 {
		return fmt.Errorf("wgpuhal: not a wgpuhal buffer")
	}
	wcb.encoder.CopyBufferToBuffer(wsrc.buf, wdst.buf, []hal.BufferCopy{
		{SrcOffset: srcOffset, DstOffset: dstOffset, Size: byteCount},
	})
	return nil
}

// CopyTexture implements nvrhi.DeviceBackend. The hal only copies textures
// to buffers, not to other textures.
func (b *Backend) CopyTexture(cb nvrhi.NativeCommandBuffer, dst nvrhi.NativeResource, dstSet nvrhi.TextureSubresourceSet, src nvrhi.NativeResource, srcSet nvrhi.TextureSubresourceSet) error {
	return fmt.Errorf("wgpuhal: texture-to-texture copy: %w", errors.ErrUnsupported)
}

// WriteBuffer implements nvrhi.DeviceBackend. The upload happens on the
// queue at submission time; see commandBuffer.preSubmit.
func (b *Backend) WriteBuffer(cb nvrhi.NativeCommandBuffer, dst nvrhi.NativeResource, data []byte, dstOffset uint64) error {
	wcb, err := b.commandBuffer(cb)
	if err != nil {
		return err
	}
	wdst, ok := dst.(*wgpuBuffer)
	if !ok {
		return fmt.Errorf("wgpuhal: not a wgpuhal buffer")
	}
	staged := make([]byte, len(data))
	copy(staged, data)
	wcb.preSubmit = append(wcb.preSubmit, func(q hal.Queue) error {
		q.WriteBuffer(wdst.buf, dstOffset, staged)
		return nil
	})
	return nil
}

// WriteTexture implements nvrhi.DeviceBackend. The hal has no CPU texture
// upload path yet.
func (b *Backend) WriteTexture(cb nvrhi.NativeCommandBuffer, dst nvrhi.NativeResource, set nvrhi.TextureSubresourceSet, data []byte, layout nvrhi.TextureWriteLayout) error {
	return fmt.Errorf("wgpuhal: texture upload: %w", errors.ErrUnsupported)
}

// ClearTexture implements nvrhi.DeviceBackend. Render targets clear
// through an empty render pass with a clear load op; other textures have
// no hal clear path.
func (b *Backend) ClearTexture(cb nvrhi.NativeCommandBuffer, res nvrhi.NativeResource, set nvrhi.TextureSubresourceSet, color nvrhi.Color) error {
	wcb, err := b.commandBuffer(cb)
	if err != nil {
		return err
	}
	wt, ok := res.(*wgpuTexture)
	if !ok {
		return fmt.Errorf("wgpuhal: not a wgpuhal texture")
	}
	if wt.view == nil {
		return fmt.Errorf("wgpuhal: clear of non-render-target %q: %w", wt.desc.DebugName, errors.ErrUnsupported)
	}
	rp := wcb.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: wt.desc.DebugName + "/clear",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    wt.view,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: float64(color.R), G: float64(color.G), B: float64(color.B), A: float64(color.A),
			},
		}},
	})
	rp.End()
	return nil
}

// BeginMarker implements nvrhi.DeviceBackend. The hal exposes no marker
// API; the core already logs first occurrences.
func (b *Backend) BeginMarker(cb nvrhi.NativeCommandBuffer, label string) error {
	_, err := b.commandBuffer(cb)
	return err
}

// EndMarker implements nvrhi.DeviceBackend.
func (b *Backend) EndMarker(cb nvrhi.NativeCommandBuffer) error {
	_, err := b.commandBuffer(cb)
	return err
}

// CloseCommandBuffer implements nvrhi.DeviceBackend.
func (b *Backend) CloseCommandBuffer(cb nvrhi.NativeCommandBuffer) error {
	wcb, err := b.commandBuffer(cb)
	if err != nil {
		return err
	}
	cmd, err := wcb.encoder.EndEncoding()
	if err != nil {
		wcb.encoder.DiscardEncoding()
		return fmt.Errorf("wgpuhal: end encoding: %w", err)
	}
	wcb.cmd = cmd
	wcb.closed = true
	return nil
}

// Submit implements nvrhi.DeviceBackend. The submission signals the
// queue's timeline fence with submissionID.
func (b *Backend) Submit(queue nvrhi.CommandQueue, cbs []nvrhi.NativeCommandBuffer, submissionID uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return err
	}

	cmds := make([]hal.CommandBuffer, 0, len(cbs))
	for _, cb := range cbs {
		wcb, ok := cb.(*commandBuffer)
		if !ok || !wcb.closed {
			return fmt.Errorf("wgpuhal: submit of unclosed command buffer")
		}
		for _, fn := range wcb.preSubmit {
			if err := fn(b.queue); err != nil {
				return fmt.Errorf("wgpuhal: pre-submit upload: %w", err)
			}
		}
		cmds = append(cmds, wcb.cmd)
	}

	if err := b.queue.Submit(cmds, b.fences[queue], submissionID); err != nil {
		return fmt.Errorf("wgpuhal: submit: %w", err)
	}
	b.lastSubmitted[queue] = submissionID
	b.pending = append(b.pending, pendingSubmission{queue: queue, id: submissionID, cmds: cmds})
	return nil
}

// reapLocked frees native command buffers whose submissions have passed.
// With force, everything pending is freed regardless of fence state.
func (b *Backend) reapLocked(force bool) {
	remaining := b.pending[:0]
	for _, p := range b.pending {
		done := force
		if !done {
			ok, err := b.device.Wait(b.fences[p.queue], p.id, 0)
			done = err == nil && ok
		}
		if done {
			for _, cmd := range p.cmds {
				b.device.FreeCommandBuffer(cmd)
			}
		} else {
			remaining = append(remaining, p)
		}
	}
	b.pending = remaining
}

// SubmissionCompleted implements nvrhi.DeviceBackend.
func (b *Backend) SubmissionCompleted(queue nvrhi.CommandQueue, submissionID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return false
	}
	ok, err := b.device.Wait(b.fences[queue], submissionID, 0)
	if err != nil {
		return false
	}
	if ok {
		b.reapLocked(false)
	}
	return ok
}

// WaitSubmission implements nvrhi.DeviceBackend.
func (b *Backend) WaitSubmission(queue nvrhi.CommandQueue, submissionID uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return err
	}
	for {
		ok, err := b.device.Wait(b.fences[queue], submissionID, waitSlice)
		if err != nil {
			return fmt.Errorf("wgpuhal: wait submission %d on %v: %w", submissionID, queue, err)
		}
		if ok {
			b.reapLocked(false)
			return nil
		}
	}
}

// QueueWait implements nvrhi.DeviceBackend. All logical queues share the
// hal queue, which executes submissions in order, so the requested
// ordering already holds.
func (b *Backend) QueueWait(queue, waitFor nvrhi.CommandQueue, submissionID uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkInit()
}

// WaitIdle implements nvrhi.DeviceBackend.
func (b *Backend) WaitIdle() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkInit(); err != nil {
		return err
	}
	for q := range b.fences {
		id := b.lastSubmitted[q]
		if id == 0 {
			continue
		}
		for {
			ok, err := b.device.Wait(b.fences[q], id, waitSlice)
			if err != nil {
				return fmt.Errorf("wgpuhal: wait idle: %w", err)
			}
			if ok {
				break
			}
		}
	}
	b.reapLocked(false)
	return nil
}
