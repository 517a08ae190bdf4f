package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"autofill_backend/platform/apperr"
	"autofill_backend/platform/logger"
)

// Geocoder resolves coordinates and free text into ordered candidate lists.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, at Coordinate) ([]PlaceResult, error)
	ForwardGeocode(ctx context.Context, text string) ([]PlaceResult, error)
}

// StatusError is a non-OK answer from the geocoding service. Status is the
// raw status reported by the service.
type StatusError struct {
	Status string
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocoder status %s: %v", e.Status, e.Err)
	}
	return "geocoder status " + e.Status
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusUnknown is reported when a geocoder fails without a service status.
const StatusUnknown = "UNKNOWN_ERROR"

// PlaceSource is the autocomplete dropdown: it returns the place the user
// picked last, or nil.
type PlaceSource interface {
	Place() *PlaceResult
}

// Locator yields the device position. ok is false when geolocation is
// unsupported or denied; callers treat that as silent non-completion.
type Locator interface {
	CurrentPosition(ctx context.Context) (pos Position, ok bool)
}

// NotificationKind classifies a user-visible message.
type NotificationKind string

const (
	NotifyNoResultsFound NotificationKind = "no_results_found"
	NotifyServiceFailure NotificationKind = "service_failure"
)

// Notification is shown to the user.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	Status  string           `json:"status,omitempty"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Outcome reports what a trigger did.
type Outcome string

const (
	// OutcomeFilled means the target fields were written.
	OutcomeFilled Outcome = "filled"
	// OutcomeNoResult means the place carried no data; targets stay cleared.
	OutcomeNoResult Outcome = "no_result"
	// OutcomeNoResultsFound means reverse geocoding lacked the wanted candidate.
	OutcomeNoResultsFound Outcome = "no_results_found"
	// OutcomeServiceFailure means the geocoder answered with a failure status.
	OutcomeServiceFailure Outcome = "service_failure"
	// OutcomeNoCandidate means forward geocoding returned nothing; silent.
	OutcomeNoCandidate Outcome = "no_candidate"
	// OutcomeStale means a newer trigger superseded this one's response.
	OutcomeStale Outcome = "stale"
	// OutcomeIgnored means the trigger did not apply (unbound, closed, wrong key).
	OutcomeIgnored Outcome = "ignored"
)

// KeyEnter is the key name that triggers select-first.
const KeyEnter = "Enter"

// Config is the widget configuration, resolved once at construction.
type Config struct {
	SourceField          FieldRef
	AutoFillTargetFields RawConfig
	// GeolocateTrigger names the control whose click geolocates. Empty means
	// no control is bound.
	GeolocateTrigger string
	// SelectFirstOnEnter defaults to true when nil.
	SelectFirstOnEnter *bool
	// ReverseSelector and ForwardSelector default to DefaultReverseSelector
	// and DefaultForwardSelector.
	ReverseSelector Selector
	ForwardSelector Selector
}

// Deps holds the collaborators. Sink and Geocoder are required.
type Deps struct {
	Sink     FieldSink
	Geocoder Geocoder
	Source   PlaceSource
	Locator  Locator
	Notifier Notifier
	Logger   *logger.Logger
}

// Autocomplete binds a source field to the geocoder and fills its targets.
type Autocomplete struct {
	source             FieldRef
	trigger            string
	selectFirstOnEnter bool
	reverse            Selector
	forward            Selector
	mapping            *CompiledMapping

	sink     FieldSink
	geocoder Geocoder
	places   PlaceSource
	locator  Locator
	notifier Notifier
	log      *logger.Logger

	// seq fences geocoding responses: only the latest request may write.
	seq    atomic.Uint64
	closed atomic.Bool
	// fillMu serializes writes to the sink.
	fillMu sync.Mutex
}

// New validates cfg, compiles the mapping and clears every target field.
func New(cfg Config, deps Deps) (*Autocomplete, error) {
	source := FieldRef(strings.TrimSpace(string(cfg.SourceField)))
	if source == "" {
		return nil, configError("source field is required")
	}
	if deps.Sink == nil {
		return nil, configError("field sink is required")
	}
	if deps.Geocoder == nil {
		return nil, configError("geocoder is required")
	}
	if !deps.Sink.HasField(source) {
		return nil, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("input with id %q does not exist", source), ErrConfiguration).WithOp("autofill.New")
	}

	mapping, err := Compile(cfg.AutoFillTargetFields, source)
	if err != nil {
		return nil, err
	}

	a := &Autocomplete{
		source:             source,
		trigger:            strings.TrimSpace(cfg.GeolocateTrigger),
		selectFirstOnEnter: cfg.SelectFirstOnEnter == nil || *cfg.SelectFirstOnEnter,
		reverse:            cfg.ReverseSelector,
		forward:            cfg.ForwardSelector,
		mapping:            mapping,
		sink:               deps.Sink,
		geocoder:           deps.Geocoder,
		places:             deps.Source,
		locator:            deps.Locator,
		notifier:           deps.Notifier,
		log:                deps.Logger,
	}
	if a.reverse == nil {
		a.reverse = DefaultReverseSelector
	}
	if a.forward == nil {
		a.forward = DefaultForwardSelector
	}
	if a.log == nil {
		a.log = logger.Discard()
	}

	a.fillMu.Lock()
	a.clearTargets()
	a.fillMu.Unlock()

	return a, nil
}

// Mapping returns the compiled mapping.
func (a *Autocomplete) Mapping() *CompiledMapping { return a.mapping }

// SourceField returns the bound input.
func (a *Autocomplete) SourceField() FieldRef { return a.source }

// Close detaches the widget; later triggers are ignored and in-flight
// responses are discarded.
func (a *Autocomplete) Close() {
	a.closed.Store(true)
	a.seq.Add(1)
}

// FillInAddress clears and enables every target, then projects place into
// them. Targets stay cleared when place carries nothing to project.
func (a *Autocomplete) FillInAddress(place *PlaceResult) Outcome {
	if a.closed.Load() {
		return OutcomeIgnored
	}
	a.fillMu.Lock()
	defer a.fillMu.Unlock()
	return a.fillLocked(place)
}

func (a *Autocomplete) fillLocked(place *PlaceResult) Outcome {
	a.clearTargets()

	projection, ok := Project(a.mapping, place)
	if !ok {
		return OutcomeNoResult
	}
	for _, fv := range projection {
		a.sink.SetValue(fv.Field, fv.Value)
	}
	return OutcomeFilled
}

func (a *Autocomplete) clearTargets() {
	for _, target := range a.mapping.Targets() {
		a.sink.Clear(target)
		a.sink.Enable(target)
	}
}

// PlaceChanged handles a selection in the autocomplete dropdown.
func (a *Autocomplete) PlaceChanged(ctx context.Context) Outcome {
	if a.closed.Load() || a.places == nil {
		return OutcomeIgnored
	}
	// A selection supersedes any geocoding still in flight.
	a.seq.Add(1)
	outcome := a.FillInAddress(a.places.Place())
	a.log.WithContext(ctx).Debug("autofill place changed", "source", a.source, "outcome", outcome)
	return outcome
}

// Click handles a click on a control. Only the configured geolocate trigger
// reacts: it clears the source field and geolocates.
func (a *Autocomplete) Click(ctx context.Context, control string) Outcome {
	if a.closed.Load() || a.trigger == "" || control != a.trigger {
		return OutcomeIgnored
	}
	a.fillMu.Lock()
	a.sink.Clear(a.source)
	a.fillMu.Unlock()
	return a.Geolocate(ctx)
}

// Geolocate asks the locator for the device position and fills from the
// reverse-geocoded address. A locator that never answers ends the trigger
// silently.
func (a *Autocomplete) Geolocate(ctx context.Context) Outcome {
	if a.closed.Load() || a.locator == nil {
		return OutcomeIgnored
	}
	pos, ok := a.locator.CurrentPosition(ctx)
	if !ok {
		a.log.WithContext(ctx).Debug("autofill geolocation unavailable", "source", a.source)
		return OutcomeIgnored
	}
	return a.AddressAt(ctx, pos.Coordinate)
}

// AddressAt reverse geocodes at and fills from the candidate picked by the
// reverse selector. A missing candidate is reported to the user.
func (a *Autocomplete) AddressAt(ctx context.Context, at Coordinate) Outcome {
	if a.closed.Load() {
		return OutcomeIgnored
	}
	seq := a.seq.Add(1)
	candidates, err := a.geocoder.ReverseGeocode(ctx, at)
	return a.complete(ctx, seq, "reverse", candidates, err, a.reverse, true)
}

// KeyPress handles a key press on field. Enter on the focused source field
// selects the first forward-geocoding result when enabled.
func (a *Autocomplete) KeyPress(ctx context.Context, field FieldRef, key string) Outcome {
	if a.closed.Load() || !a.selectFirstOnEnter || key != KeyEnter || field != a.source {
		return OutcomeIgnored
	}
	focused, ok := a.sink.FocusedField()
	if !ok || focused != a.source {
		return OutcomeIgnored
	}

	text, ok := a.sink.SuggestionText(0)
	if !ok || strings.TrimSpace(text) == "" {
		text = a.sink.Value(a.source)
	}
	return a.SelectFirst(ctx, text)
}

// SelectFirst forward geocodes text and fills from the candidate picked by
// the forward selector. A miss is silent.
func (a *Autocomplete) SelectFirst(ctx context.Context, text string) Outcome {
	if a.closed.Load() {
		return OutcomeIgnored
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return OutcomeNoCandidate
	}
	seq := a.seq.Add(1)
	candidates, err := a.geocoder.ForwardGeocode(ctx, text)
	return a.complete(ctx, seq, "forward", candidates, err, a.forward, false)
}

func (a *Autocomplete) complete(ctx context.Context, seq uint64, op string, candidates []PlaceResult, err error, selector Selector, reportMiss bool) Outcome {
	log := a.log.WithContext(ctx)

	a.fillMu.Lock()
	defer a.fillMu.Unlock()

	if a.seq.Load() != seq {
		log.Debug("autofill discarded stale geocoder response", "operation", op, "source", a.source)
		return OutcomeStale
	}

	if err != nil {
		status := StatusOf(err)
		log.Warn("autofill geocoder failed", "operation", op, "status", status, "error", err)
		a.notify(ctx, Notification{
			Kind:    NotifyServiceFailure,
			Message: "Geocoder failed due to: " + status,
			Status:  status,
		})
		return OutcomeServiceFailure
	}

	place, ok := selector.Select(candidates)
	if !ok {
		log.Debug("autofill selector found no candidate", "operation", op, "candidates", len(candidates))
		if !reportMiss {
			return OutcomeNoCandidate
		}
		a.notify(ctx, Notification{Kind: NotifyNoResultsFound, Message: "No results found"})
		return OutcomeNoResultsFound
	}

	return a.fillLocked(place)
}

func (a *Autocomplete) notify(ctx context.Context, n Notification) {
	if a.notifier == nil {
		return
	}
	a.notifier.Notify(ctx, n)
}

// StatusOf extracts the raw service status from a geocoder error.
func StatusOf(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status != "" {
		return statusErr.Status
	}
	return StatusUnknown
}
