// Package panels provides UI panels for the application.
package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// Step identifies the workflow tab.
type Step int

const (
	StepMask Step = iota
	StepPlace
)

// SidePanel provides the main side panel with one tab per workflow step.
type SidePanel struct {
	container *container.AppTabs

	maskPanel      *MaskPanel
	placementPanel *PlacementPanel

	onStep func(Step)
}

// NewSidePanel creates a new side panel.
func NewSidePanel(mp *MaskPanel, pp *PlacementPanel) *SidePanel {
	sp := &SidePanel{
		maskPanel:      mp,
		placementPanel: pp,
	}

	sp.container = container.NewAppTabs(
		container.NewTabItem("Mark", mp.Container()),
		container.NewTabItem("Place", pp.Container()),
	)
	sp.container.OnSelected = func(item *container.TabItem) {
		if sp.onStep != nil {
			sp.onStep(sp.Step())
		}
	}
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.placementPanel.SetWindow(w)
}

// OnStep registers a callback for tab changes.
func (sp *SidePanel) OnStep(fn func(Step)) {
	sp.onStep = fn
}

// Step returns the selected workflow step.
func (sp *SidePanel) Step() Step {
	if sp.container.SelectedIndex() == int(StepPlace) {
		return StepPlace
	}
	return StepMask
}

// SelectStep switches to the given tab.
func (sp *SidePanel) SelectStep(step Step) {
	sp.container.SelectIndex(int(step))
}

// PlacementPanel returns the placement tab.
func (sp *SidePanel) PlacementPanel() *PlacementPanel {
	return sp.placementPanel
}
