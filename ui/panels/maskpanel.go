package panels

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"room-stager/internal/app"
	"room-stager/internal/collab"
	"room-stager/internal/logger"
	"room-stager/internal/mask"
	"room-stager/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

// MaskPanel holds the brush and cleanup controls.
type MaskPanel struct {
	session   *app.Session
	prefs     *prefs.Prefs
	logger    *zap.Logger
	container fyne.CanvasObject

	brushSlider  *widget.Slider
	brushLabel   *widget.Label
	strokesLabel *widget.Label
	undoButton   *widget.Button
	clearButton  *widget.Button
	submitButton *widget.Button
	cancelButton *widget.Button
	statusLabel  *widget.Label

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewMaskPanel creates the mask panel.
func NewMaskPanel(s *app.Session, brush mask.Options, p *prefs.Prefs, l *zap.Logger) *MaskPanel {
	mp := &MaskPanel{
		session: s,
		prefs:   p,
		logger:  logger.OrNop(l),
	}

	mp.brushLabel = widget.NewLabel("")
	mp.brushSlider = widget.NewSlider(brush.BrushMin, brush.BrushMax)
	mp.brushSlider.Step = 1
	mp.brushSlider.SetValue(s.BrushSize())
	mp.brushSlider.OnChanged = mp.onBrushChanged
	mp.brushSlider.OnChangeEnded = func(v float64) {
		if mp.prefs != nil {
			mp.prefs.SetFloat(prefs.KeyBrushSize, v)
			if err := mp.prefs.Save(); err != nil {
				mp.logger.Warn("failed to save preferences", zap.Error(err))
			}
		}
	}
	mp.updateBrushLabel(s.BrushSize())

	mp.strokesLabel = widget.NewLabel("No strokes")
	mp.undoButton = widget.NewButton("Undo", func() { mp.session.Undo() })
	mp.clearButton = widget.NewButton("Clear", func() { mp.session.ClearMask() })
	mp.submitButton = widget.NewButton("Remove marked area", mp.onSubmit)
	mp.submitButton.Importance = widget.HighImportance
	mp.cancelButton = widget.NewButton("Cancel", mp.onCancel)
	mp.cancelButton.Disable()

	mp.statusLabel = widget.NewLabel("Load a photo to begin")
	mp.statusLabel.Wrapping = fyne.TextWrapWord

	mp.container = container.NewVBox(
		widget.NewLabelWithStyle("Brush", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		mp.brushSlider,
		mp.brushLabel,
		widget.NewSeparator(),
		mp.strokesLabel,
		container.NewGridWithColumns(2, mp.undoButton, mp.clearButton),
		widget.NewSeparator(),
		mp.submitButton,
		mp.cancelButton,
		mp.statusLabel,
	)

	s.On(app.EventMaskChanged, func(interface{}) { mp.refreshStrokes() })
	s.On(app.EventPhotoLoaded, func(interface{}) { mp.refreshStrokes() })
	s.On(app.EventCleanupStarted, func(interface{}) {
		mp.setBusy(true)
		mp.statusLabel.SetText("Removing marked area...")
	})
	s.On(app.EventCleanupFinished, func(data interface{}) {
		mp.setBusy(false)
		if out, ok := data.(app.CleanupOutcome); ok {
			mp.statusLabel.SetText(cleanupStatus(out))
		}
	})

	mp.refreshStrokes()
	return mp
}

// Container returns the panel container.
func (mp *MaskPanel) Container() fyne.CanvasObject {
	return mp.container
}

func (mp *MaskPanel) onBrushChanged(v float64) {
	mp.session.SetBrushSize(v)
	mp.updateBrushLabel(mp.session.BrushSize())
}

func (mp *MaskPanel) updateBrushLabel(v float64) {
	mp.brushLabel.SetText(fmt.Sprintf("Size: %.0f px", v))
}

func (mp *MaskPanel) refreshStrokes() {
	n := mp.session.StrokeCount()
	switch n {
	case 0:
		mp.strokesLabel.SetText("No strokes")
		mp.undoButton.Disable()
		mp.clearButton.Disable()
	case 1:
		mp.strokesLabel.SetText("1 stroke")
	default:
		mp.strokesLabel.SetText(fmt.Sprintf("%d strokes", n))
	}
	if n > 0 {
		mp.undoButton.Enable()
		mp.clearButton.Enable()
	}
}

func (mp *MaskPanel) setBusy(busy bool) {
	if busy {
		mp.submitButton.Disable()
		mp.cancelButton.Enable()
		return
	}
	mp.submitButton.Enable()
	mp.cancelButton.Disable()
}

func (mp *MaskPanel) onSubmit() {
	ctx, cancel := context.WithCancel(context.Background())
	mp.mu.Lock()
	if mp.cancel != nil {
		mp.cancel()
	}
	mp.cancel = cancel
	mp.mu.Unlock()

	go func() {
		defer cancel()
		_, err := mp.session.SubmitMask(ctx)
		switch {
		case err == nil, errors.Is(err, app.ErrStaleResult):
		case errors.Is(err, mask.ErrEmptyMask):
			mp.statusLabel.SetText("Paint over the area to remove first")
		case errors.Is(err, app.ErrNoPhoto):
			mp.statusLabel.SetText("Load a photo to begin")
		default:
			mp.logger.Debug("cleanup returned error", zap.Error(err))
		}
	}()
}

func (mp *MaskPanel) onCancel() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.cancel != nil {
		mp.cancel()
		mp.cancel = nil
	}
}

func cleanupStatus(out app.CleanupOutcome) string {
	switch {
	case out.Err == nil:
		return "Marked area removed"
	case errors.Is(out.Err, context.DeadlineExceeded), errors.Is(out.Err, collab.ErrPollTimeout):
		return "Cleanup timed out; your strokes were restored"
	case errors.Is(out.Err, context.Canceled):
		return "Cleanup cancelled; your strokes were restored"
	default:
		return "Cleanup failed; your strokes were restored"
	}
}
