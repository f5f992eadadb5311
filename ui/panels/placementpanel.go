package panels

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"room-stager/internal/app"
	roomimage "room-stager/internal/image"
	"room-stager/internal/logger"
	"room-stager/internal/placement"
	"room-stager/pkg/geometry"
	"room-stager/ui/canvas"
	"room-stager/ui/dialogs"
	"room-stager/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

// PlacementPanel holds the product and render controls.
type PlacementPanel struct {
	session   *app.Session
	canvas    *canvas.PlacementCanvas
	prefs     *prefs.Prefs
	logger    *zap.Logger
	window    fyne.Window
	container fyne.CanvasObject

	product      image.Image
	productLabel *widget.Label
	productEntry *widget.Entry
	stateLabel   *widget.Label
	renderButton *widget.Button
	statusLabel  *widget.Label
}

// NewPlacementPanel creates the placement panel.
func NewPlacementPanel(s *app.Session, pc *canvas.PlacementCanvas, p *prefs.Prefs, l *zap.Logger) *PlacementPanel {
	pp := &PlacementPanel{
		session: s,
		canvas:  pc,
		prefs:   p,
		logger:  logger.OrNop(l),
	}

	pp.productLabel = widget.NewLabel("No product image")
	pp.productEntry = widget.NewEntry()
	pp.productEntry.SetPlaceHolder("Product ID")
	if p != nil {
		pp.productEntry.SetText(p.String(prefs.KeyProductID, ""))
	}
	pp.stateLabel = widget.NewLabel("")
	pp.renderButton = widget.NewButton("Render", pp.onRender)
	pp.renderButton.Importance = widget.HighImportance
	pp.statusLabel = widget.NewLabel("")
	pp.statusLabel.Wrapping = fyne.TextWrapWord

	pp.container = container.NewVBox(
		widget.NewLabelWithStyle("Product", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewButton("Load product image...", pp.onLoadProduct),
		pp.productLabel,
		pp.productEntry,
		widget.NewSeparator(),
		pp.stateLabel,
		widget.NewButton("Reset placement", pp.onReset),
		widget.NewButton("Preview", pp.onPreview),
		widget.NewSeparator(),
		pp.renderButton,
		pp.statusLabel,
	)

	s.On(app.EventPlacementChanged, func(data interface{}) {
		if st, ok := data.(placement.State); ok {
			pp.updateState(st)
		}
	})
	s.On(app.EventPhotoLoaded, func(interface{}) {
		// A new photo ends the previous placement.
		pp.product = nil
		pp.productLabel.SetText("No product image")
		pp.stateLabel.SetText("")
	})
	s.On(app.EventRenderStarted, func(interface{}) {
		pp.renderButton.Disable()
		pp.statusLabel.SetText("Rendering...")
	})
	s.On(app.EventRenderFinished, func(data interface{}) {
		pp.renderButton.Enable()
		out, ok := data.(app.RenderOutcome)
		if !ok {
			return
		}
		if out.Err != nil {
			pp.statusLabel.SetText("Render failed: " + out.Err.Error())
			return
		}
		pp.statusLabel.SetText("Render complete")
		if pp.window == nil {
			return
		}
		var preview image.Image
		if rgba, err := pp.session.Preview(); err == nil {
			preview = rgba
		}
		dialogs.ShowRenderResult(pp.window, preview, out.ImageURL)
	})
	return pp
}

// Container returns the panel container.
func (pp *PlacementPanel) Container() fyne.CanvasObject {
	return pp.container
}

// SetWindow sets the parent window for dialogs.
func (pp *PlacementPanel) SetWindow(w fyne.Window) {
	pp.window = w
}

func (pp *PlacementPanel) updateState(st placement.State) {
	pp.stateLabel.SetText(fmt.Sprintf("x %.2f  y %.2f  scale %.2f", st.X, st.Y, st.Scale))
}

func (pp *PlacementPanel) onLoadProduct() {
	if pp.window == nil {
		return
	}
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		img, _, err := roomimage.Decode(reader)
		if err != nil {
			dialog.ShowError(err, pp.window)
			return
		}
		path := reader.URI().Path()
		if pp.prefs != nil {
			pp.prefs.SetString(prefs.KeyProductDir, filepath.Dir(path))
		}
		if err := pp.SetProduct(img, filepath.Base(path)); err != nil {
			dialog.ShowError(err, pp.window)
		}
	}, pp.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".webp"}))
	if loc := listableDir(pp.prefs, prefs.KeyProductDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// SetProduct starts placement of img over the current photo.
func (pp *PlacementPanel) SetProduct(img image.Image, name string) error {
	size := pp.canvas.Size()
	rect := geometry.NewRect(0, 0, float64(size.Width), float64(size.Height))
	if err := pp.session.BeginPlacement(img, rect); err != nil {
		return err
	}
	pp.product = img
	pp.canvas.SetProduct(img)
	pp.productLabel.SetText(name)
	return nil
}

func (pp *PlacementPanel) onReset() {
	if pp.product == nil {
		return
	}
	if err := pp.SetProduct(pp.product, pp.productLabel.Text); err != nil {
		pp.logger.Debug("reset placement failed", zap.Error(err))
	}
}

func (pp *PlacementPanel) onPreview() {
	preview, err := pp.session.Preview()
	if err != nil {
		pp.statusLabel.SetText(placementHint(err))
		return
	}
	if pp.window != nil {
		dialogs.ShowRenderResult(pp.window, preview, "")
	}
}

func (pp *PlacementPanel) onRender() {
	productID := strings.TrimSpace(pp.productEntry.Text)
	if productID == "" {
		pp.statusLabel.SetText("Enter a product ID")
		return
	}
	if pp.prefs != nil {
		pp.prefs.SetString(prefs.KeyProductID, productID)
		if err := pp.prefs.Save(); err != nil {
			pp.logger.Warn("failed to save preferences", zap.Error(err))
		}
	}
	go func() {
		if _, err := pp.session.SubmitPlacement(context.Background(), productID); err != nil &&
			!errors.Is(err, app.ErrStaleResult) {
			pp.statusLabel.SetText(placementHint(err))
		}
	}()
}

func placementHint(err error) string {
	switch {
	case errors.Is(err, app.ErrNoPhoto):
		return "Load a photo first"
	case errors.Is(err, app.ErrNoPlacement):
		return "Load a product image first"
	default:
		return err.Error()
	}
}

// listableDir returns the remembered directory under key, or nil.
func listableDir(p *prefs.Prefs, key string) fyne.ListableURI {
	if p == nil {
		return nil
	}
	path := p.String(key, "")
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}
