// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"image/png"
	"path/filepath"

	"room-stager/internal/app"
	"room-stager/internal/config"
	"room-stager/internal/logger"
	"room-stager/internal/version"
	"room-stager/ui/canvas"
	"room-stager/ui/dialogs"
	"room-stager/ui/panels"
	"room-stager/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

// Options carries what the window needs besides the session.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Prefs      *prefs.Prefs
	Logger     *zap.Logger
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.Session
	opts    Options
	logger  *zap.Logger

	maskCanvas      *canvas.MaskCanvas
	placementCanvas *canvas.PlacementCanvas
	sidePanel       *panels.SidePanel
	stage           *fyne.Container
	statusBar       *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, session *app.Session, opts Options) *MainWindow {
	win := fyneApp.NewWindow("Room Stager")

	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		opts:    opts,
		logger:  logger.OrNop(opts.Logger),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()

	win.SetCloseIntercept(func() {
		mw.savePrefs()
		mw.session.Close()
		win.Close()
	})
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	cfg := mw.opts.Config

	mw.maskCanvas = canvas.NewMaskCanvas(mw.session, mw.logger)
	mw.placementCanvas = canvas.NewPlacementCanvas(mw.session, mw.logger)

	brush := app.MaskOptions(cfg)
	maskPanel := panels.NewMaskPanel(mw.session, brush, mw.opts.Prefs, mw.logger)
	placementPanel := panels.NewPlacementPanel(mw.session, mw.placementCanvas, mw.opts.Prefs, mw.logger)
	mw.sidePanel = panels.NewSidePanel(maskPanel, placementPanel)
	mw.sidePanel.SetWindow(mw.Window)
	mw.sidePanel.OnStep(mw.showStep)

	mw.statusBar = widget.NewLabel("Open a room photo to begin")

	// Both canvases share the stage; only the active step is visible.
	mw.stage = container.NewStack(mw.maskCanvas, mw.placementCanvas)
	mw.placementCanvas.Hide()

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		mw.stage,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1280, 800))
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Photo...", mw.onOpenPhoto),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Mask...", mw.onExportMask),
		fyne.NewMenuItem("Export Preview...", mw.onExportPreview),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo Stroke", mw.onUndo),
		fyne.NewMenuItem("Clear Mask", func() { mw.session.ClearMask() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings...", mw.onSettings),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Mark Area", func() { mw.sidePanel.SelectStep(panels.StepMask) }),
		fyne.NewMenuItem("Place Product", func() { mw.sidePanel.SelectStep(panels.StepPlace) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

func (mw *MainWindow) setupShortcuts() {
	undo := &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	mw.Canvas().AddShortcut(undo, func(fyne.Shortcut) { mw.onUndo() })

	open := &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	mw.Canvas().AddShortcut(open, func(fyne.Shortcut) { mw.onOpenPhoto() })
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventPhotoLoaded, func(data interface{}) {
		photo := mw.session.Photo()
		if photo == nil {
			return
		}
		mw.updateStatus(fmt.Sprintf("Photo %dx%d (%s)", photo.Width(), photo.Height(), photo.AspectLabel()))
	})
	mw.session.On(app.EventCleanupStarted, func(interface{}) {
		mw.updateStatus("Uploading and cleaning up...")
	})
	mw.session.On(app.EventCleanupFinished, func(data interface{}) {
		if out, ok := data.(app.CleanupOutcome); ok && out.Err != nil {
			mw.updateStatus("Cleanup failed: " + out.Err.Error())
		}
	})
	mw.session.On(app.EventRenderStarted, func(interface{}) {
		mw.updateStatus("Rendering...")
	})
	mw.session.On(app.EventRenderFinished, func(data interface{}) {
		if out, ok := data.(app.RenderOutcome); ok {
			if out.Err != nil {
				mw.updateStatus("Render failed: " + out.Err.Error())
			} else {
				mw.updateStatus("Render ready: " + out.ImageURL)
			}
		}
	})
}

// showStep swaps the visible canvas for a workflow step.
func (mw *MainWindow) showStep(step panels.Step) {
	if step == panels.StepPlace {
		mw.maskCanvas.Hide()
		mw.placementCanvas.Show()
	} else {
		mw.placementCanvas.Hide()
		mw.maskCanvas.Show()
	}
	mw.stage.Refresh()
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// lastDir returns the remembered photo directory as a ListableURI, or nil.
func (mw *MainWindow) lastDir() fyne.ListableURI {
	if mw.opts.Prefs == nil {
		return nil
	}
	path := mw.opts.Prefs.String(prefs.KeyPhotoDir, "")
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(filePath string) {
	if mw.opts.Prefs != nil {
		mw.opts.Prefs.SetString(prefs.KeyPhotoDir, filepath.Dir(filePath))
	}
}

func (mw *MainWindow) savePrefs() {
	if mw.opts.Prefs == nil {
		return
	}
	mw.opts.Prefs.SetFloat(prefs.KeyBrushSize, mw.session.BrushSize())
	if err := mw.opts.Prefs.Save(); err != nil {
		mw.logger.Warn("failed to save preferences", zap.Error(err))
	}
}

// Menu action handlers

func (mw *MainWindow) onOpenPhoto() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		if err := mw.session.LoadPhoto(reader); err != nil {
			mw.logger.Warn("failed to load photo", zap.String("path", path), zap.Error(err))
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.SetTitle("Room Stager - " + filepath.Base(path))
		mw.sidePanel.SelectStep(panels.StepMask)
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg", ".png", ".webp", ".tif", ".tiff", ".bmp"}))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportMask() {
	exported, err := mw.session.ExportMask()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if _, err := writer.Write(exported.PNG); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus(fmt.Sprintf("Mask saved (%dx%d, %.1f%% marked)",
			exported.Width, exported.Height, exported.Coverage*100))
	}, mw.Window)
	fd.SetFileName("mask.png")
	fd.Show()
}

func (mw *MainWindow) onExportPreview() {
	preview, err := mw.session.Preview()
	if err != nil {
		if errors.Is(err, app.ErrNoPlacement) {
			mw.updateStatus("Load a product image on the Place tab first")
			return
		}
		dialog.ShowError(err, mw.Window)
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if err := png.Encode(writer, preview); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Preview saved")
	}, mw.Window)
	fd.SetFileName("preview.png")
	fd.Show()
}

func (mw *MainWindow) onUndo() {
	if !mw.session.Undo() {
		mw.updateStatus("Nothing to undo")
	}
}

func (mw *MainWindow) onSettings() {
	dialogs.NewSettingsDialog(mw.opts.Config, mw.Window, func(cfg *config.Config) {
		path := mw.opts.ConfigPath
		if path == "" {
			path = config.DefaultConfigPath
		}
		if err := config.Save(path, cfg); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.opts.Config = cfg
		mw.session.SetBrushSize(cfg.Brush.Default)
		mw.logger.Info("settings saved", zap.String("path", path))
		mw.updateStatus("Settings saved; service changes apply on restart")
	}).Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Room Stager",
		fmt.Sprintf("Room Stager v%s\n\n"+
			"Mark clutter for removal and place products in room photos.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
