package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"autofill_backend/internal/autofill/engine"
	"autofill_backend/internal/autofill/repository"
	"autofill_backend/internal/autofill/transport"
	"autofill_backend/platform/apperr"
	"autofill_backend/platform/logger"
	"autofill_backend/platform/validator"
)

// geolocateControl is the trigger bound on request-scoped widgets.
const geolocateControl = "geolocate"

const msgPresetsDisabled = "presets are not enabled"

// Service runs autofill triggers against request-scoped widgets.
type Service struct {
	geocoder engine.Geocoder
	presets  repository.Repository
	val      *validator.Validator
	log      *logger.Logger
}

// New creates the autofill service. presets may be nil when no database is
// configured.
func New(geocoder engine.Geocoder, presets repository.Repository, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{geocoder: geocoder, presets: presets, val: val, log: log}
}

// PresetsEnabled reports whether preset storage is available.
func (s *Service) PresetsEnabled() bool { return s.presets != nil }

// Fill projects the place picked in the autocomplete dropdown.
func (s *Service) Fill(ctx context.Context, req transport.FillRequest) (transport.FillResponse, error) {
	w, err := s.newWidget(ctx, req.Config, widgetDeps{source: staticPlace{place: req.Place}})
	if err != nil {
		return transport.FillResponse{}, err
	}
	defer w.close()

	return w.response(w.ac.PlaceChanged(ctx)), nil
}

// Geolocate replays a click on the geolocate control with the device at the
// given position.
func (s *Service) Geolocate(ctx context.Context, req transport.GeolocateRequest) (transport.FillResponse, error) {
	pos := engine.Position{
		Coordinate: engine.Coordinate{Lat: *req.Lat, Lng: *req.Lng},
		Accuracy:   req.Accuracy,
	}
	w, err := s.newWidget(ctx, req.Config, widgetDeps{locator: fixedLocator{pos: pos}})
	if err != nil {
		return transport.FillResponse{}, err
	}
	defer w.close()

	return w.response(w.ac.Click(ctx, geolocateControl)), nil
}

// SelectFirst replays an Enter key press on the focused source field.
func (s *Service) SelectFirst(ctx context.Context, req transport.SelectFirstRequest) (transport.FillResponse, error) {
	w, err := s.newWidget(ctx, req.Config, widgetDeps{})
	if err != nil {
		return transport.FillResponse{}, err
	}
	defer w.close()

	source := w.ac.SourceField()
	w.sink.SetValue(source, req.Text)
	w.sink.SetSuggestions(req.Suggestions...)
	w.sink.Focus(source)

	return w.response(w.ac.KeyPress(ctx, source, engine.KeyEnter)), nil
}

// GetPreset retrieves a preset by name.
func (s *Service) GetPreset(ctx context.Context, name string) (transport.PresetResponse, error) {
	if s.presets == nil {
		return transport.PresetResponse{}, apperr.BadRequest(msgPresetsDisabled)
	}
	p, err := s.presets.GetByName(ctx, name)
	if err != nil {
		return transport.PresetResponse{}, s.storageError("autofill.GetPreset", err)
	}
	return toPresetResponse(p), nil
}

// ListPresets retrieves every preset ordered by name.
func (s *Service) ListPresets(ctx context.Context) (transport.PresetListResponse, error) {
	if s.presets == nil {
		return transport.PresetListResponse{}, apperr.BadRequest(msgPresetsDisabled)
	}
	presets, err := s.presets.List(ctx)
	if err != nil {
		return transport.PresetListResponse{}, s.storageError("autofill.ListPresets", err)
	}
	items := make([]transport.PresetResponse, 0, len(presets))
	for _, p := range presets {
		items = append(items, toPresetResponse(p))
	}
	return transport.PresetListResponse{Items: items}, nil
}

// SavePreset creates or replaces a preset after checking that its fields
// compile.
func (s *Service) SavePreset(ctx context.Context, name string, req transport.SavePresetRequest) (transport.PresetResponse, error) {
	if s.presets == nil {
		return transport.PresetResponse{}, apperr.BadRequest(msgPresetsDisabled)
	}
	for _, field := range req.Fields {
		if err := s.val.Var(field.Components, "dive,component_spec"); err != nil {
			return transport.PresetResponse{}, apperr.Validation("invalid component spec for field " + field.Target).WithDetails(err.Error())
		}
	}
	// Presets are compiled against a placeholder source so self-fill keys
	// are accepted.
	if _, err := engine.Compile(req.Fields, engine.FieldRef(engine.SelfKeyAlias)); err != nil {
		return transport.PresetResponse{}, err
	}

	p, err := s.presets.Save(ctx, repository.SaveParams{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Fields:      req.Fields,
	})
	if err != nil {
		return transport.PresetResponse{}, s.storageError("autofill.SavePreset", err)
	}
	s.log.Info("autofill preset saved", "preset", name, "fields", len(p.Fields))
	return toPresetResponse(p), nil
}

// DeletePreset removes a preset by name.
func (s *Service) DeletePreset(ctx context.Context, name string) error {
	if s.presets == nil {
		return apperr.BadRequest(msgPresetsDisabled)
	}
	if err := s.presets.Delete(ctx, name); err != nil {
		return s.storageError("autofill.DeletePreset", err)
	}
	s.log.Info("autofill preset deleted", "preset", name)
	return nil
}

// storageError passes domain errors through and hides driver errors behind
// an internal error.
func (s *Service) storageError(op string, err error) error {
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "preset storage failed", err).WithOp(op)
}

type widgetDeps struct {
	source  engine.PlaceSource
	locator engine.Locator
}

// widget is one request's form: an in-memory sink holding the source and
// target fields, and the controller bound to it.
type widget struct {
	ac            *engine.Autocomplete
	sink          *engine.MemorySink
	notifications *notificationLog
}

func (s *Service) newWidget(ctx context.Context, wc transport.WidgetConfig, deps widgetDeps) (*widget, error) {
	cfg, err := s.resolveConfig(ctx, wc)
	if err != nil {
		return nil, err
	}

	sink := engine.NewMemorySink(cfg.SourceField)
	notes := &notificationLog{}
	ac, err := engine.New(cfg, engine.Deps{
		Sink:     sink,
		Geocoder: s.geocoder,
		Source:   deps.source,
		Locator:  deps.locator,
		Notifier: notes,
		Logger:   s.log,
	})
	if err != nil {
		return nil, err
	}
	return &widget{ac: ac, sink: sink, notifications: notes}, nil
}

func (s *Service) resolveConfig(ctx context.Context, wc transport.WidgetConfig) (engine.Config, error) {
	fields := wc.Fields
	if name := strings.TrimSpace(wc.Preset); name != "" {
		if len(fields) > 0 {
			return engine.Config{}, apperr.BadRequest("config.fields and config.preset are mutually exclusive")
		}
		if s.presets == nil {
			return engine.Config{}, apperr.BadRequest(msgPresetsDisabled)
		}
		p, err := s.presets.GetByName(ctx, name)
		if err != nil {
			return engine.Config{}, s.storageError("autofill.resolvePreset", err)
		}
		fields = p.Fields
	}

	reverse, err := engine.ParseSelector(wc.ReverseSelector, engine.DefaultReverseSelector)
	if err != nil {
		return engine.Config{}, apperr.Validation("invalid reverseSelector").WithDetails(err.Error())
	}
	forward, err := engine.ParseSelector(wc.ForwardSelector, engine.DefaultForwardSelector)
	if err != nil {
		return engine.Config{}, apperr.Validation("invalid forwardSelector").WithDetails(err.Error())
	}

	return engine.Config{
		SourceField:          engine.FieldRef(strings.TrimSpace(wc.Source)),
		AutoFillTargetFields: fields,
		GeolocateTrigger:     geolocateControl,
		SelectFirstOnEnter:   wc.SelectFirstOnEnter,
		ReverseSelector:      reverse,
		ForwardSelector:      forward,
	}, nil
}

func (w *widget) response(outcome engine.Outcome) transport.FillResponse {
	targets := w.ac.Mapping().Targets()
	fields := make([]engine.FieldValue, 0, len(targets))
	for _, target := range targets {
		fields = append(fields, engine.FieldValue{Field: target, Value: w.sink.Value(target)})
	}
	return transport.FillResponse{
		Fields:        fields,
		Outcome:       outcome,
		Notifications: w.notifications.all(),
	}
}

func (w *widget) close() { w.ac.Close() }

type staticPlace struct {
	place *engine.PlaceResult
}

func (p staticPlace) Place() *engine.PlaceResult { return p.place }

type fixedLocator struct {
	pos engine.Position
}

func (l fixedLocator) CurrentPosition(context.Context) (engine.Position, bool) { return l.pos, true }

type notificationLog struct {
	mu    sync.Mutex
	items []engine.Notification
}

func (n *notificationLog) Notify(_ context.Context, note engine.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, note)
}

func (n *notificationLog) all() []engine.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]engine.Notification{}, n.items...)
}

func toPresetResponse(p repository.Preset) transport.PresetResponse {
	return transport.PresetResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Fields:      p.Fields,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
