package arbor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phanxgames/arbor/gfx"
)

// scriptStep represents a single action in a scene script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	Node   string  `json:"node,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	W      float64 `json:"w,omitempty"`
	H      float64 `json:"h,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// sceneScript is the top-level JSON structure for a scene script.
type sceneScript struct {
	Steps []scriptStep `json:"steps"`
}

// SnapshotFunc captures a painted canvas under a label.
type SnapshotFunc func(ctx context.Context, label string, c gfx.Canvas) error

// ScriptRunner sequences scene mutations, repaints and snapshots across
// frames for automated visual testing. The host calls Step once per frame on
// the render thread.
//
// Supported actions: resize (w, h), dpi (value), invalidate (x, y, w, h),
// paint, hide/show (node), alpha (node, value), snapshot (label) and wait
// (frames).
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool

	// Snapshot receives the canvas for snapshot steps. Nil skips them.
	Snapshot SnapshotFunc
}

// LoadScript parses a JSON scene script and returns a runner for it.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var script sceneScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse scene script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse scene script: no steps")
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Step advances the runner by one frame. ctx must be the render thread's
// context, as handed to Scene.Update callbacks or paint hooks.
func (r *ScriptRunner) Step(ctx context.Context, s *Scene) error {
	if r.done {
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++

	var err error
	switch st.Action {
	case "resize":
		err = s.Resize(ctx, int(st.W), int(st.H))
	case "dpi":
		err = s.SetDPI(ctx, st.Value)
	case "invalidate":
		s.Invalidate(Rect{X: st.X, Y: st.Y, Width: st.W, Height: st.H})
	case "paint":
		err = s.PaintNow(ctx, s.root.frame)
	case "hide", "show":
		if n := s.root.Find(st.Node); n != nil {
			n.SetHidden(st.Action == "hide")
		}
	case "alpha":
		if n := s.root.Find(st.Node); n != nil {
			n.SetAlpha(st.Value)
		}
	case "snapshot":
		if r.Snapshot != nil {
			if err = s.PaintNow(ctx, Rect{}); err == nil {
				err = r.Snapshot(ctx, st.Label, s.canvas)
			}
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	default:
		err = fmt.Errorf("scene script: unknown action %q", st.Action)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
	return err
}
