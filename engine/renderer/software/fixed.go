package software

import (
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const maxStages = 2

type stage struct {
	texture *Texture
	state   renderer.StageState
}

// FixedVideo mimics a two-stage fixed-function pipeline.
type FixedVideo struct {
	*device

	stages    [maxStages]stage
	committed [maxStages]stage
	ready     bool
}

func NewFixedVideo(opts renderer.Options) *FixedVideo {
	v := &FixedVideo{device: newDevice(opts, metadata.PipelineFixedFunction)}
	v.rect = &rectRenderer{draw: v.drawRect}
	v.Bind(v)
	return v
}

func (v *FixedVideo) SetStageTexture(index uint32, tex renderer.Texture) bool {
	if index >= maxStages {
		return false
	}
	t, ok := tex.(*Texture)
	if !ok && tex != nil {
		return false
	}
	v.stages[index].texture = t
	return true
}

func (v *FixedVideo) SetStageState(index uint32, state renderer.StageState) bool {
	if index >= maxStages {
		return false
	}
	v.stages[index].state = state
	return true
}

func (v *FixedVideo) CommitStages() bool {
	if v.stages[0].texture == nil {
		return false
	}
	v.committed = v.stages
	v.ready = true
	return true
}

func (v *FixedVideo) ResetStages() {
	v.stages = [maxStages]stage{}
	v.committed = [maxStages]stage{}
	v.ready = false
}

func (v *FixedVideo) drawRect(mode metadata.RectMode) bool {
	if !v.ready {
		return false
	}
	diffuse := v.committed[0].texture.Pixels()
	if diffuse == nil {
		return false
	}

	shade := func(uv math.Vec2, c math.Vec4) math.Vec4 {
		return sample(diffuse, uv).Mul(c)
	}
	if t := v.committed[1].texture; t != nil {
		if second := t.Pixels(); second != nil {
			if v.BlendMode(1) == metadata.BlendModeModulate {
				shade = func(uv math.Vec2, c math.Vec4) math.Vec4 {
					return sample(diffuse, uv).Mul(c).Mul(sample(second, uv))
				}
			} else {
				shade = func(uv math.Vec2, c math.Vec4) math.Vec4 {
					return addRGB(sample(diffuse, uv).Mul(c), sample(second, uv))
				}
			}
		}
	}
	return v.drawQuad(v.committed[0].state.Quad(), mode, shade)
}

func (v *FixedVideo) Destroy() {
	v.ResetStages()
	v.device.Destroy()
}
