package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayLabels     OverlayID = "labels"
	OverlayHUD        OverlayID = "hud"
	OverlayPerf       OverlayID = "perf"
	OverlayControls   OverlayID = "controls"
	OverlayScrollMode OverlayID = "scroll_mode"
	OverlayZoomMode   OverlayID = "zoom_mode"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "L", "H")
	Category    string      // Grouping (e.g., "view", "input")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays. Labels, the
// HUD and zoom mode start enabled.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	reg.SetEnabled(OverlayLabels, true)
	reg.SetEnabled(OverlayHUD, true)
	reg.SetEnabled(OverlayZoomMode, true)
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	// View overlays
	r.Register(OverlayDescriptor{
		ID:          OverlayLabels,
		Name:        "Labels",
		Description: "Galaxy names at their anchors",
		Key:         rl.KeyL,
		KeyLabel:    "L",
		Category:    "view",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayHUD,
		Name:        "Status",
		Description: "Per-galaxy state, particle count and last duration",
		Key:         rl.KeyH,
		KeyLabel:    "H",
		Category:    "view",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Timing",
		Description: "Regeneration phase breakdown",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "view",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayControls,
		Name:        "Controls",
		Description: "This list",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "view",
	})

	// Wheel modes
	r.Register(OverlayDescriptor{
		ID:          OverlayZoomMode,
		Name:        "Wheel Zooms",
		Description: "Mouse wheel moves the camera",
		Key:         rl.KeyZ,
		KeyLabel:    "Z",
		Category:    "input",
		Exclusive:   []OverlayID{OverlayScrollMode},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayScrollMode,
		Name:        "Wheel Scrolls",
		Description: "Mouse wheel drives the scroll animation",
		Key:         rl.KeyM,
		KeyLabel:    "M",
		Category:    "input",
		Exclusive:   []OverlayID{OverlayZoomMode},
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	newState := !r.enabled[id]
	r.SetEnabled(id, newState)
	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// Keys returns every bound toggle key.
func (r *OverlayRegistry) Keys() []int32 {
	var keys []int32
	for _, desc := range r.descriptors {
		if desc.Key != 0 {
			keys = append(keys, desc.Key)
		}
	}
	return keys
}
