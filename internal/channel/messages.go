package channel

import (
	"encoding/json"

	"github.com/standardbeagle/pagetour/internal/geometry"
	"github.com/standardbeagle/pagetour/internal/locator"
)

// Message type names on the wire.
const (
	TypeReady             = "ready"
	TypeElementSelected   = "element-selected"
	TypeHeatmapToggleAck  = "heatmap-toggle-ack"
	TypeClearSelectionAck = "clear-selection-ack"
	TypeSavedAck          = "saved-ack"

	TypeSaveGuide        = "save-guide"
	TypeSaveTagPage      = "save-tag-page"
	TypeSaveTagFeature   = "save-tag-feature"
	TypeActivateSelector = "activate-selector"
	TypeClearSelection   = "clear-selection"
	TypeHeatmapToggle    = "heatmap-toggle"
	TypeCancel           = "cancel"
	TypeSaved            = "saved"
	TypeExitEditor       = "exit-editor"
)

// HostMessage is sent from the page to the editor surface.
type HostMessage interface {
	Type() string
	hostMessage()
}

// SurfaceMessage is sent from the editor surface to the page.
type SurfaceMessage interface {
	Type() string
	surfaceMessage()
}

// Ready completes the handshake.
type Ready struct{}

// ElementSelected carries the operator's pick.
type ElementSelected struct {
	Locator  locator.Locator         `json:"locator"`
	Snapshot locator.ElementSnapshot `json:"snapshot"`
}

// HeatmapToggleAck confirms the heatmap state.
type HeatmapToggleAck struct {
	Enabled bool `json:"enabled"`
}

// ClearSelectionAck confirms the highlight was hidden.
type ClearSelectionAck struct{}

// SavedAck reports a save result. Error is empty on success.
type SavedAck struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

func (Ready) Type() string             { return TypeReady }
func (ElementSelected) Type() string   { return TypeElementSelected }
func (HeatmapToggleAck) Type() string  { return TypeHeatmapToggleAck }
func (ClearSelectionAck) Type() string { return TypeClearSelectionAck }
func (SavedAck) Type() string          { return TypeSavedAck }

func (Ready) hostMessage()             {}
func (ElementSelected) hostMessage()   {}
func (HeatmapToggleAck) hostMessage()  {}
func (ClearSelectionAck) hostMessage() {}
func (SavedAck) hostMessage()          {}

// SaveGuide creates or replaces a guide. An empty ID creates.
type SaveGuide struct {
	ID        string             `json:"id,omitempty"`
	Locator   locator.Locator    `json:"locator"`
	Placement geometry.Placement `json:"placement,omitempty"`
	Title     string             `json:"title,omitempty"`
	Body      string             `json:"body,omitempty"`
	Status    string             `json:"status,omitempty"`
	PageKey   string             `json:"page_key,omitempty"`
}

// SaveTagPage tags the current page.
type SaveTagPage struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// SaveTagFeature tags the selected element as a named feature.
type SaveTagFeature struct {
	ID      string          `json:"id,omitempty"`
	Locator locator.Locator `json:"locator"`
	Name    string          `json:"name"`
}

// ActivateSelector turns on element picking.
type ActivateSelector struct{}

// ClearSelection asks the page to hide its highlight.
type ClearSelection struct{}

// HeatmapToggle switches the heatmap.
type HeatmapToggle struct {
	Enabled bool `json:"enabled"`
}

// Cancel closes the surface without saving.
type Cancel struct{}

// Saved tells the page the surface finished a save flow.
type Saved struct{}

// ExitEditor leaves editor mode.
type ExitEditor struct{}

// Unknown carries a message with a type this build does not know.
type Unknown struct {
	Kind string
	Raw  json.RawMessage
}

func (SaveGuide) Type() string        { return TypeSaveGuide }
func (SaveTagPage) Type() string      { return TypeSaveTagPage }
func (SaveTagFeature) Type() string   { return TypeSaveTagFeature }
func (ActivateSelector) Type() string { return TypeActivateSelector }
func (ClearSelection) Type() string   { return TypeClearSelection }
func (HeatmapToggle) Type() string    { return TypeHeatmapToggle }
func (Cancel) Type() string           { return TypeCancel }
func (Saved) Type() string            { return TypeSaved }
func (ExitEditor) Type() string       { return TypeExitEditor }
func (u Unknown) Type() string        { return u.Kind }

func (SaveGuide) surfaceMessage()        {}
func (SaveTagPage) surfaceMessage()      {}
func (SaveTagFeature) surfaceMessage()   {}
func (ActivateSelector) surfaceMessage() {}
func (ClearSelection) surfaceMessage()   {}
func (HeatmapToggle) surfaceMessage()    {}
func (Cancel) surfaceMessage()           {}
func (Saved) surfaceMessage()            {}
func (ExitEditor) surfaceMessage()       {}
func (Unknown) surfaceMessage()          {}
