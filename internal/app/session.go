// Package app ties the photo, mask editor, placement engine and remote
// service together into one editing session.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	goimage "image"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"room-stager/internal/collab"
	roomimage "room-stager/internal/image"
	"room-stager/internal/logger"
	"room-stager/internal/mask"
	"room-stager/internal/placement"
	"room-stager/internal/pointer"
	"room-stager/pkg/geometry"
)

var (
	// ErrNoPhoto means an operation needs a loaded photo.
	ErrNoPhoto = errors.New("no photo loaded")
	// ErrSessionClosed means the session has been closed.
	ErrSessionClosed = errors.New("session closed")
	// ErrStaleResult means a network result arrived after the session moved
	// on (new photo, newer request, or Close) and was discarded.
	ErrStaleResult = errors.New("result discarded: session changed")
	// ErrNoPlacement means SubmitPlacement was called before BeginPlacement.
	ErrNoPlacement = errors.New("placement not started")
)

// Session is one photo-editing session. All methods are safe for concurrent
// use; network calls run without holding the session lock.
type Session struct {
	mu sync.Mutex

	id      uuid.UUID
	opts    Options
	service collab.Service
	tracker *collab.Tracker
	logger  *zap.Logger

	normalizer *roomimage.Normalizer
	editor     *mask.Editor
	router     *pointer.Router
	placement  *placement.Engine

	photo   *roomimage.NormalizedImage
	product goimage.Image
	roomID  string
	placing bool
	closed  bool

	lmu       sync.RWMutex
	listeners map[EventType][]EventListener
}

// New creates a session. service may be nil for offline use; network
// operations then fail.
func New(service collab.Service, opts Options, l *zap.Logger) *Session {
	id := uuid.New()
	l = logger.OrNop(l).With(zap.String("session_id", id.String()))
	opts = opts.withDefaults(l)

	return &Session{
		id:         id,
		opts:       opts,
		service:    service,
		tracker:    collab.NewTracker(),
		logger:     l,
		normalizer: roomimage.NewNormalizer(opts.MaxDimension, opts.Ratios, l),
		editor:     mask.NewEditor(opts.Brush, l),
		router:     pointer.NewRouter(opts.ClickCooldown, l),
		placement:  placement.NewEngine(opts.Placement, l),
		listeners:  make(map[EventType][]EventListener),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Photo returns the current normalized photo, or nil.
func (s *Session) Photo() *roomimage.NormalizedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photo
}

// RoomID returns the remote room session id, empty until the photo is uploaded.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Tracker exposes the network operation states.
func (s *Session) Tracker() *collab.Tracker { return s.tracker }

// LoadPhoto decodes and normalizes a photo and starts a fresh mask. Results
// of requests made for the previous photo are discarded when they arrive.
func (s *Session) LoadPhoto(r io.Reader) error {
	photo, err := s.normalizer.NormalizeReader(r)
	if err != nil {
		return err
	}
	return s.SetPhoto(photo)
}

// SetPhoto installs an already normalized photo.
func (s *Session) SetPhoto(photo *roomimage.NormalizedImage) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	gen := s.tracker.Invalidate()
	s.roomID = ""
	s.placing = false
	s.installPhotoLocked(photo)
	s.placement.Reset()
	s.mu.Unlock()

	s.logger.Info("photo loaded",
		zap.Int("width", photo.Width()),
		zap.Int("height", photo.Height()),
		zap.String("aspect", photo.AspectLabel()),
		zap.Uint64("generation", gen))
	s.Emit(EventPhotoLoaded, photo)
	return nil
}

// installPhotoLocked resets the editor and router for photo, keeping the
// current canvas rectangle.
func (s *Session) installPhotoLocked(photo *roomimage.NormalizedImage) {
	s.photo = photo
	layout := pointer.Layout{
		Container: s.router.Layout().Container,
		Native:    geometry.NewSize(float64(photo.Width()), float64(photo.Height())),
	}
	s.router.Reset()
	s.router.SetLayout(layout)
	w, _ := layout.DisplaySize()
	s.editor.Reset(photo)
	s.editor.Resize(w)
}

// SetMaskCanvas sets the client rectangle the mask canvas draws the photo
// in. The display buffer is rebuilt at the new size and strokes replayed.
func (s *Session) SetMaskCanvas(container geometry.Rect) {
	s.mu.Lock()
	layout := s.router.Layout()
	layout.Container = container
	s.router.SetLayout(layout)
	w, _ := layout.DisplaySize()
	s.editor.Resize(w)
	s.mu.Unlock()
	s.Emit(EventMaskChanged, nil)
}

// MaskLayout returns the current mask canvas layout.
func (s *Session) MaskLayout() pointer.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.router.Layout()
}

// HandleMaskPointer routes one pointer event on the mask canvas.
func (s *Session) HandleMaskPointer(ev pointer.Event) pointer.Action {
	s.mu.Lock()
	if s.closed || s.photo == nil {
		s.mu.Unlock()
		return pointer.Action{Kind: pointer.ActionIgnored}
	}
	a := s.router.Handle(ev)
	changed := false
	switch a.Kind {
	case pointer.ActionBegin:
		changed = s.editor.BeginStroke(a.Point)
	case pointer.ActionExtend:
		changed = s.editor.ExtendStroke(a.Point)
	case pointer.ActionEnd:
		changed = s.editor.EndStroke()
	}
	s.mu.Unlock()

	if changed {
		s.Emit(EventMaskChanged, a.Kind)
	}
	return a
}

// WithMask calls fn with the current buffers under the session lock. pair is
// nil until the editor is initialized.
func (s *Session) WithMask(fn func(pair *mask.BufferPair, strokes int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.editor.Pair(), s.editor.History().Len())
}

// StrokeCount returns the number of completed strokes.
func (s *Session) StrokeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.History().Len()
}

// Strokes returns a copy of the completed strokes.
func (s *Session) Strokes() []mask.Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.History().Strokes()
}

// BrushSize returns the brush size in display pixels.
func (s *Session) BrushSize() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.BrushSize()
}

// SetBrushSize sets the brush size in display pixels.
func (s *Session) SetBrushSize(size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.SetBrushSize(size)
}

// Undo removes the last stroke.
func (s *Session) Undo() bool {
	s.mu.Lock()
	ok := s.editor.Undo()
	s.mu.Unlock()
	if ok {
		s.Emit(EventMaskChanged, nil)
	}
	return ok
}

// ClearMask removes every stroke.
func (s *Session) ClearMask() {
	s.mu.Lock()
	s.editor.Clear()
	s.mu.Unlock()
	s.Emit(EventMaskChanged, nil)
}

// ExportMask encodes the current mask without submitting it.
func (s *Session) ExportMask() (*mask.ExportedMask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Export()
}

// SubmitMask exports the mask and asks the service to erase the marked
// region. The mask is validated locally first; an empty or inconsistent mask
// never reaches the network. On success the cleaned photo replaces the
// current one and the mask is cleared. On failure or timeout the strokes
// present at submission are restored.
func (s *Session) SubmitMask(ctx context.Context) (*roomimage.NormalizedImage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.photo == nil {
		s.mu.Unlock()
		return nil, ErrNoPhoto
	}
	exported, err := s.editor.Export()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.service == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("cleanup: no collaborator configured")
	}
	snapshot := s.editor.Snapshot()
	s.editor.Clear()
	ticket := s.tracker.Begin(collab.OpCleanup)
	s.mu.Unlock()

	s.logger.Info("submitting mask",
		zap.Int("strokes", len(snapshot)),
		zap.Float64("coverage", exported.Coverage),
		zap.Int("png_bytes", len(exported.PNG)))
	s.Emit(EventMaskChanged, nil)
	s.Emit(EventCleanupStarted, exported)

	ctx, cancel := context.WithTimeout(ctx, s.opts.CleanupTimeout)
	defer cancel()

	cleaned, err := s.runCleanup(ctx, exported)

	s.mu.Lock()
	if !s.tracker.Current(ticket) {
		s.mu.Unlock()
		s.logger.Info("discarding stale cleanup result", zap.Error(err))
		return nil, ErrStaleResult
	}
	if err != nil {
		state := collab.OpFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, collab.ErrPollTimeout) {
			state = collab.OpTimedOut
		}
		s.tracker.Finish(ticket, state)
		s.editor.Restore(snapshot)
		s.mu.Unlock()

		s.logger.Warn("cleanup failed, strokes restored", zap.Error(err), zap.Stringer("state", state))
		s.Emit(EventMaskChanged, nil)
		s.Emit(EventCleanupFinished, CleanupOutcome{Err: err, Restored: true})
		return nil, err
	}
	s.tracker.Finish(ticket, collab.OpSucceeded)
	s.installPhotoLocked(cleaned)
	s.mu.Unlock()

	s.logger.Info("cleanup completed")
	s.Emit(EventMaskChanged, nil)
	s.Emit(EventPhotoLoaded, cleaned)
	s.Emit(EventCleanupFinished, CleanupOutcome{})
	return cleaned, nil
}

func (s *Session) runCleanup(ctx context.Context, exported *mask.ExportedMask) (*roomimage.NormalizedImage, error) {
	roomID, err := s.ensureRoom(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.service.Cleanup(ctx, collab.MaskSubmission{
		RoomSessionID: roomID,
		MaskImage:     exported.DataURL(),
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	done, err := collab.NewPoller(s.service, s.opts.PollInterval, s.opts.MaxPolls, s.logger).Wait(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	data, err := s.service.Download(ctx, done.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	cleaned, err := s.normalizer.NormalizeReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	return cleaned, nil
}

// ensureRoom uploads the current photo once per generation.
func (s *Session) ensureRoom(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.roomID != "" {
		id := s.roomID
		s.mu.Unlock()
		return id, nil
	}
	photo := s.photo
	ticket := s.tracker.Begin(collab.OpUpload)
	s.mu.Unlock()

	if photo == nil {
		return "", ErrNoPhoto
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, photo.Image()); err != nil {
		return "", fmt.Errorf("failed to encode photo: %w", err)
	}

	id, err := s.upload(ctx, buf.Bytes())

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tracker.Current(ticket) {
		// A concurrent upload for the same photo may have won.
		if s.roomID != "" && ticket.Generation == s.tracker.Generation() {
			return s.roomID, nil
		}
		return "", ErrStaleResult
	}
	if err != nil {
		s.tracker.Finish(ticket, collab.OpFailed)
		return "", err
	}
	s.tracker.Finish(ticket, collab.OpSucceeded)
	s.roomID = id
	return id, nil
}

func (s *Session) upload(ctx context.Context, data []byte) (string, error) {
	const contentType = "image/png"
	room, err := s.service.StartSession(ctx, contentType)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if err := s.service.Upload(ctx, room.UploadURL, contentType, data); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if err := s.service.Confirm(ctx, room.RoomSessionID); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	s.logger.Info("photo uploaded", zap.String("room_session_id", room.RoomSessionID))
	return room.RoomSessionID, nil
}

// BeginPlacement opens the placement screen for a product image inside the
// given client container. The overlay starts centered at scale 1.
func (s *Session) BeginPlacement(product goimage.Image, container geometry.Rect) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.photo == nil {
		s.mu.Unlock()
		return ErrNoPhoto
	}
	s.product = product
	s.placing = true
	s.placement.Reset()
	s.placement.SetContainer(container)
	if product != nil {
		b := product.Bounds()
		if b.Dy() > 0 {
			s.placement.SetProductAspect(float64(b.Dx()) / float64(b.Dy()))
		}
	}
	st := s.placement.State()
	s.mu.Unlock()

	s.Emit(EventPlacementChanged, st)
	return nil
}

// SetPlacementContainer updates the placement canvas rectangle.
func (s *Session) SetPlacementContainer(container geometry.Rect) {
	s.mu.Lock()
	s.placement.SetContainer(container)
	st := s.placement.State()
	s.mu.Unlock()
	s.Emit(EventPlacementChanged, st)
}

// HandlePlacementPointer applies one pointer event to the product overlay.
func (s *Session) HandlePlacementPointer(ev pointer.Event) bool {
	s.mu.Lock()
	if !s.placing {
		s.mu.Unlock()
		return false
	}
	changed := s.placement.Handle(ev)
	st := s.placement.State()
	s.mu.Unlock()

	if changed {
		s.Emit(EventPlacementChanged, st)
	}
	return changed
}

// PlacementWheel scales the overlay by wheel notches.
func (s *Session) PlacementWheel(dy float64) bool {
	s.mu.Lock()
	changed := s.placing && s.placement.Wheel(dy)
	st := s.placement.State()
	s.mu.Unlock()

	if changed {
		s.Emit(EventPlacementChanged, st)
	}
	return changed
}

// Placement returns the overlay state and its client rectangle.
func (s *Session) Placement() (placement.State, geometry.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placement.State(), s.placement.OverlayRect()
}

// PlacementHandle returns the client rectangle of the resize handle.
func (s *Session) PlacementHandle() geometry.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placement.HandleRect()
}

// PlacementPayload returns the payload relative to the room photo's rendered
// box inside the placement container.
func (s *Session) PlacementPayload() (placement.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloadLocked()
}

func (s *Session) payloadLocked() (placement.Payload, error) {
	if s.photo == nil {
		return placement.Payload{}, ErrNoPhoto
	}
	if !s.placing {
		return placement.Payload{}, ErrNoPlacement
	}
	roomBox := geometry.FitContain(s.placement.Container(),
		geometry.NewSize(float64(s.photo.Width()), float64(s.photo.Height())))
	return s.placement.Payload(roomBox), nil
}

// Preview composites the product into the photo at the current placement.
func (s *Session) Preview() (*goimage.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.photo == nil {
		return nil, ErrNoPhoto
	}
	if !s.placing {
		return nil, ErrNoPlacement
	}
	size := geometry.NewSize(float64(s.photo.Width()), float64(s.photo.Height()))
	roomBox := geometry.FitContain(s.placement.Container(), size)
	if roomBox.Empty() {
		return roomimage.Preview(s.photo, nil, goimage.Rectangle{}), nil
	}
	toRoom := geometry.RectToRect(roomBox, geometry.NewRect(0, 0, size.Width, size.Height))
	r := s.placement.OverlayRect()
	tl := toRoom.Apply(r.TopLeft())
	br := toRoom.Apply(r.BottomRight())
	rect := goimage.Rect(int(math.Round(tl.X)), int(math.Round(tl.Y)), int(math.Round(br.X)), int(math.Round(br.Y)))
	return roomimage.Preview(s.photo, s.product, rect), nil
}

// SubmitPlacement asks the service to render productID at the current
// placement and waits for the result.
func (s *Session) SubmitPlacement(ctx context.Context, productID string) (*collab.JobResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	payload, err := s.payloadLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.service == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("render: no collaborator configured")
	}
	ticket := s.tracker.Begin(collab.OpRender)
	s.mu.Unlock()

	s.logger.Info("submitting placement",
		zap.String("product_id", productID),
		zap.Float64("x", payload.X),
		zap.Float64("y", payload.Y),
		zap.Float64("scale", payload.Scale))
	s.Emit(EventRenderStarted, payload)

	res, err := s.runRender(ctx, productID, payload)

	s.mu.Lock()
	if !s.tracker.Current(ticket) {
		s.mu.Unlock()
		s.logger.Info("discarding stale render result", zap.Error(err))
		return nil, ErrStaleResult
	}
	state := collab.OpSucceeded
	if err != nil {
		state = collab.OpFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, collab.ErrPollTimeout) {
			state = collab.OpTimedOut
		}
	}
	s.tracker.Finish(ticket, state)
	s.mu.Unlock()

	out := RenderOutcome{Err: err}
	if res != nil {
		out.ImageURL = res.ImageURL
	}
	s.Emit(EventRenderFinished, out)
	if err != nil {
		s.logger.Warn("render failed", zap.Error(err), zap.Stringer("state", state))
		return nil, err
	}
	return res, nil
}

func (s *Session) runRender(ctx context.Context, productID string, p placement.Payload) (*collab.JobResult, error) {
	roomID, err := s.ensureRoom(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.service.Render(ctx, collab.PlacementSubmission{
		RoomSessionID: roomID,
		ProductID:     productID,
		Placement:     collab.Placement{X: p.X, Y: p.Y, Scale: p.Scale},
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	done, err := collab.NewPoller(s.service, s.opts.PollInterval, s.opts.MaxPolls, s.logger).Wait(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return done, nil
}

// Close ends the session. In-flight results are discarded when they arrive.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.tracker.Invalidate()
	s.placing = false
	s.mu.Unlock()

	s.logger.Info("session closed")
	s.Emit(EventClosed, nil)
}
