package models

// Layer is one addressable unit of canvas content. Data is opaque serialized
// drawing data; the server never inspects it.
type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
	Data    string `json:"data"`
}

// CanvasState is the authoritative layered document for a session. Version
// starts at 1 and increments by exactly one per accepted mutation.
type CanvasState struct {
	Version     int     `json:"version"`
	Layers      []Layer `json:"layers"`
	ActiveLayer string  `json:"active_layer"`
}

// NewCanvasState returns a fresh canvas with a single empty background layer.
func NewCanvasState() CanvasState {
	return CanvasState{
		Version: 1,
		Layers: []Layer{
			{ID: "background", Name: "Background", Visible: true, Locked: false, Data: ""},
		},
		ActiveLayer: "background",
	}
}
