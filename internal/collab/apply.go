package collab

import (
	"encoding/json"
	"fmt"

	"github.com/easelhq/easel-api/internal/models"
)

// applyOperation mutates the canvas per the operation type and increments the
// version by exactly one. A malformed body returns an error before any
// mutation happens, so the version only moves on success.
//
// Layer ids are caller-supplied and not checked for uniqueness: a second
// layer_add with an existing id produces a duplicate, and layer_update /
// layer_delete then match the first occurrence. Callers that need uniqueness
// must enforce it client-side.
func applyOperation(canvas *models.CanvasState, op *models.Operation) error {
	switch op.Type {
	case models.OpLayerAdd:
		var body models.LayerAddBody
		if err := json.Unmarshal(op.Body, &body); err != nil {
			return fmt.Errorf("invalid layer_add body: %w", err)
		}
		if body.Layer.ID == "" {
			return fmt.Errorf("layer_add requires a layer id")
		}
		canvas.Layers = append(canvas.Layers, body.Layer)

	case models.OpLayerUpdate:
		var body models.LayerUpdateBody
		if err := json.Unmarshal(op.Body, &body); err != nil {
			return fmt.Errorf("invalid layer_update body: %w", err)
		}
		// Absent layer id is a no-op, not an error: updates racing a delete
		// stay idempotent.
		for i := range canvas.Layers {
			if canvas.Layers[i].ID == body.LayerID {
				canvas.Layers[i].Data = body.Data
				break
			}
		}

	case models.OpLayerDelete:
		var body models.LayerDeleteBody
		if err := json.Unmarshal(op.Body, &body); err != nil {
			return fmt.Errorf("invalid layer_delete body: %w", err)
		}
		for i := range canvas.Layers {
			if canvas.Layers[i].ID == body.LayerID {
				canvas.Layers = append(canvas.Layers[:i], canvas.Layers[i+1:]...)
				break
			}
		}

	case models.OpFullUpdate:
		var body models.FullUpdateBody
		if err := json.Unmarshal(op.Body, &body); err != nil {
			return fmt.Errorf("invalid full_update body: %w", err)
		}
		// The replacement is trusted wholesale, including any id collisions
		// it carries. Used for manual-resolution recovery.
		canvas.Layers = body.Layers
		if body.ActiveLayer != "" {
			canvas.ActiveLayer = body.ActiveLayer
		}

	case models.OpDrawing, models.OpMergedDrawing:
		// Stroke payloads are opaque to the server: they sequence and bump
		// the version but never change layer structure.

	default:
		return fmt.Errorf("operation type %q does not mutate the canvas", op.Type)
	}

	canvas.Version++
	return nil
}
