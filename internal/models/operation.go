package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	OpLayerAdd      = "layer_add"
	OpLayerUpdate   = "layer_update"
	OpLayerDelete   = "layer_delete"
	OpFullUpdate    = "full_update"
	OpCursorUpdate  = "cursor_update"
	OpChatMessage   = "chat_message"
	OpDrawing       = "drawing"
	OpMergedDrawing = "merged_drawing"
)

// OperationSchemaVersion is stamped into operation bodies so clients can
// detect incompatible payload formats.
const OperationSchemaVersion = 1

// Operation is a single client-submitted canvas action. ClientSequence is the
// last server sequence the author had observed when composing it;
// ServerSequence is assigned only on acceptance.
type Operation struct {
	Type           string          `json:"type"`
	AuthorID       uuid.UUID       `json:"author_id"`
	ClientSequence int64           `json:"client_sequence"`
	ServerSequence int64           `json:"server_sequence,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	Body           json.RawMessage `json:"body,omitempty"`
}

// IsCanvasMutation reports whether the operation is subject to sequencing and
// conflict detection. Cursor and chat traffic is informational only.
func (op *Operation) IsCanvasMutation() bool {
	switch op.Type {
	case OpLayerAdd, OpLayerUpdate, OpLayerDelete, OpFullUpdate, OpDrawing, OpMergedDrawing:
		return true
	}
	return false
}

type LayerAddBody struct {
	SchemaVersion int   `json:"schema_version"`
	Layer         Layer `json:"layer"`
}

type LayerUpdateBody struct {
	SchemaVersion int    `json:"schema_version"`
	LayerID       string `json:"layer_id"`
	Data          string `json:"data"`
}

type LayerDeleteBody struct {
	SchemaVersion int    `json:"schema_version"`
	LayerID       string `json:"layer_id"`
}

type FullUpdateBody struct {
	SchemaVersion int     `json:"schema_version"`
	Layers        []Layer `json:"layers"`
	ActiveLayer   string  `json:"active_layer,omitempty"`
}

type CursorUpdateBody struct {
	SchemaVersion int     `json:"schema_version"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

// MergedDrawingBody wraps a conflicting drawing operation together with the
// fact that the server chose to layer both changes. Stroke data is not
// actually combined; clients replay both sides.
type MergedDrawingBody struct {
	SchemaVersion   int             `json:"schema_version"`
	ClientOperation json.RawMessage `json:"client_operation"`
	Merged          bool            `json:"merged"`
}

// OperationLogEntry is one accepted operation as retained in the bounded
// per-session log used for conflict replay.
type OperationLogEntry struct {
	Sequence  int64     `json:"sequence"`
	AuthorID  uuid.UUID `json:"author_id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
}
