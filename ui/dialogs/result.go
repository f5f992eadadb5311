package dialogs

import (
	"image"
	"net/url"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// ShowRenderResult shows the local preview next to a link to the rendered
// image. imageURL may be empty when the render has not finished.
func ShowRenderResult(window fyne.Window, preview image.Image, imageURL string) {
	var items []fyne.CanvasObject

	if preview != nil {
		img := fynecanvas.NewImageFromImage(preview)
		img.FillMode = fynecanvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(480, 360))
		items = append(items, img)
	}

	if imageURL != "" {
		if u, err := url.Parse(imageURL); err == nil {
			items = append(items, widget.NewHyperlink("Open rendered image", u))
		} else {
			items = append(items, widget.NewLabel(imageURL))
		}
	} else {
		items = append(items, widget.NewLabel("Render is still in progress."))
	}

	dlg := dialog.NewCustom("Render", "Close", container.NewVBox(items...), window)
	dlg.Resize(fyne.NewSize(540, 480))
	dlg.Show()
}
