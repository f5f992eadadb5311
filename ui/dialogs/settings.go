// Package dialogs provides application dialogs.
package dialogs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"room-stager/internal/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SettingsDialog provides a property sheet for editing the configuration.
type SettingsDialog struct {
	cfg    *config.Config
	window fyne.Window

	// Collaborator
	baseURLEntry        *widget.Entry
	timeoutEntry        *widget.Entry
	cleanupTimeoutEntry *widget.Entry
	pollIntervalEntry   *widget.Entry
	maxPollsEntry       *widget.Entry
	retryCheck          *widget.Check

	// Photo and brush
	maxDimensionEntry *widget.Entry
	ratiosEntry       *widget.Entry
	brushDefaultEntry *widget.Entry
	brushMinEntry     *widget.Entry
	brushMaxEntry     *widget.Entry

	debugCheck *widget.Check

	// Callback
	onSave func(*config.Config)
}

// NewSettingsDialog creates a settings dialog for a copy of cfg. onSave
// receives the edited copy once it validates.
func NewSettingsDialog(cfg *config.Config, window fyne.Window, onSave func(*config.Config)) *SettingsDialog {
	edited := *cfg
	edited.Normalizer.Ratios = append([]string(nil), cfg.Normalizer.Ratios...)
	return &SettingsDialog{
		cfg:    &edited,
		window: window,
		onSave: onSave,
	}
}

// Show displays the dialog.
func (d *SettingsDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		content,
		func(save bool) {
			if !save {
				return
			}
			if err := d.applyChanges(); err != nil {
				dialog.ShowError(err, d.window)
				return
			}
			if d.onSave != nil {
				d.onSave(d.cfg)
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(460, 560))
	dlg.Show()
}

func (d *SettingsDialog) createContent() fyne.CanvasObject {
	c := d.cfg

	d.baseURLEntry = widget.NewEntry()
	d.baseURLEntry.SetText(c.Collaborator.BaseURL)
	d.timeoutEntry = durationEntry(c.Collaborator.Timeout)
	d.cleanupTimeoutEntry = durationEntry(c.Collaborator.CleanupTimeout)
	d.pollIntervalEntry = durationEntry(c.Collaborator.PollInterval)
	d.maxPollsEntry = widget.NewEntry()
	d.maxPollsEntry.SetText(strconv.Itoa(c.Collaborator.MaxPolls))
	d.retryCheck = widget.NewCheck("Retry transient failures", nil)
	d.retryCheck.SetChecked(c.Collaborator.Retry.Enabled)

	serviceForm := widget.NewForm(
		widget.NewFormItem("Service URL", d.baseURLEntry),
		widget.NewFormItem("Request timeout", d.timeoutEntry),
		widget.NewFormItem("Cleanup timeout", d.cleanupTimeoutEntry),
		widget.NewFormItem("Poll interval", d.pollIntervalEntry),
		widget.NewFormItem("Max polls", d.maxPollsEntry),
		widget.NewFormItem("", d.retryCheck),
	)

	d.maxDimensionEntry = widget.NewEntry()
	d.maxDimensionEntry.SetText(strconv.Itoa(c.Normalizer.MaxDimension))
	d.ratiosEntry = widget.NewEntry()
	d.ratiosEntry.SetText(strings.Join(c.Normalizer.Ratios, ", "))
	d.brushDefaultEntry = floatEntry(c.Brush.Default)
	d.brushMinEntry = floatEntry(c.Brush.Min)
	d.brushMaxEntry = floatEntry(c.Brush.Max)

	photoForm := widget.NewForm(
		widget.NewFormItem("Max dimension", d.maxDimensionEntry),
		widget.NewFormItem("Aspect ratios", d.ratiosEntry),
		widget.NewFormItem("Brush size", d.brushDefaultEntry),
		widget.NewFormItem("Brush min", d.brushMinEntry),
		widget.NewFormItem("Brush max", d.brushMaxEntry),
	)

	d.debugCheck = widget.NewCheck("Debug logging", nil)
	d.debugCheck.SetChecked(c.Logging.Debug)

	return container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle("Cleanup service", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		serviceForm,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Photo and brush", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		photoForm,
		widget.NewSeparator(),
		d.debugCheck,
	))
}

func durationEntry(v time.Duration) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(v.String())
	return e
}

func floatEntry(v float64) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.FormatFloat(v, 'g', -1, 64))
	return e
}

// applyChanges copies the form into the edited config and validates it.
func (d *SettingsDialog) applyChanges() error {
	c := d.cfg
	var errs []error

	parseDuration := func(name, text string, dst *time.Duration) {
		v, err := time.ParseDuration(strings.TrimSpace(text))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = v
	}
	parseFloat := func(name, text string, dst *float64) {
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = v
	}
	parseInt := func(name, text string, dst *int) {
		v, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = v
	}

	c.Collaborator.BaseURL = strings.TrimSpace(d.baseURLEntry.Text)
	parseDuration("request timeout", d.timeoutEntry.Text, &c.Collaborator.Timeout)
	parseDuration("cleanup timeout", d.cleanupTimeoutEntry.Text, &c.Collaborator.CleanupTimeout)
	parseDuration("poll interval", d.pollIntervalEntry.Text, &c.Collaborator.PollInterval)
	parseInt("max polls", d.maxPollsEntry.Text, &c.Collaborator.MaxPolls)
	c.Collaborator.Retry.Enabled = d.retryCheck.Checked

	parseInt("max dimension", d.maxDimensionEntry.Text, &c.Normalizer.MaxDimension)
	var ratios []string
	for _, r := range strings.Split(d.ratiosEntry.Text, ",") {
		if r = strings.TrimSpace(r); r != "" {
			ratios = append(ratios, r)
		}
	}
	c.Normalizer.Ratios = ratios
	parseFloat("brush size", d.brushDefaultEntry.Text, &c.Brush.Default)
	parseFloat("brush min", d.brushMinEntry.Text, &c.Brush.Min)
	parseFloat("brush max", d.brushMaxEntry.Text, &c.Brush.Max)

	c.Logging.Debug = d.debugCheck.Checked

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return c.Validate()
}
