package engine

import (
	"context"
	"testing"

	"autofill_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	reverse      []PlaceResult
	forward      []PlaceResult
	err          error
	reverseCalls []Coordinate
	forwardCalls []string
	onCall       func()
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, at Coordinate) ([]PlaceResult, error) {
	g.reverseCalls = append(g.reverseCalls, at)
	if g.onCall != nil {
		g.onCall()
	}
	return g.reverse, g.err
}

func (g *fakeGeocoder) ForwardGeocode(_ context.Context, text string) ([]PlaceResult, error) {
	g.forwardCalls = append(g.forwardCalls, text)
	if g.onCall != nil {
		g.onCall()
	}
	return g.forward, g.err
}

type fixedLocator struct {
	pos Position
	ok  bool
}

func (l fixedLocator) CurrentPosition(context.Context) (Position, bool) { return l.pos, l.ok }

type fixedSource struct{ place *PlaceResult }

func (s fixedSource) Place() *PlaceResult { return s.place }

type recordingNotifier struct{ got []Notification }

func (n *recordingNotifier) Notify(_ context.Context, note Notification) {
	n.got = append(n.got, note)
}

func placeIn(city string) PlaceResult {
	return PlaceResult{AddressComponents: []AddressComponent{
		{Types: []string{"locality"}, LongName: city, ShortName: city},
	}}
}

type harness struct {
	sink     *MemorySink
	geocoder *fakeGeocoder
	notifier *recordingNotifier
	widget   *Autocomplete
}

func newHarness(t *testing.T, cfg Config, source PlaceSource, locator Locator) *harness {
	t.Helper()
	h := &harness{
		sink:     NewMemorySink("address"),
		geocoder: &fakeGeocoder{},
		notifier: &recordingNotifier{},
	}
	if cfg.SourceField == "" {
		cfg.SourceField = "address"
	}
	widget, err := New(cfg, Deps{
		Sink:     h.sink,
		Geocoder: h.geocoder,
		Source:   source,
		Locator:  locator,
		Notifier: h.notifier,
	})
	require.NoError(t, err)
	h.widget = widget
	return h
}

func cityConfig() Config {
	return Config{AutoFillTargetFields: RawConfig{{Target: "city", Components: []string{"locality"}}}}
}

func TestNew_RejectsMissingSourceField(t *testing.T) {
	_, err := New(Config{SourceField: "missing"}, Deps{Sink: NewMemorySink("address"), Geocoder: &fakeGeocoder{}})
	require.ErrorIs(t, err, ErrConfiguration)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = New(Config{}, Deps{Sink: NewMemorySink("address"), Geocoder: &fakeGeocoder{}})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = New(Config{SourceField: "address"}, Deps{Sink: NewMemorySink("address")})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = New(Config{SourceField: "address", AutoFillTargetFields: RawConfig{{Target: "x", Components: []string{"a:b"}}}},
		Deps{Sink: NewMemorySink("address"), Geocoder: &fakeGeocoder{}})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNew_ClearsAndEnablesTargets(t *testing.T) {
	sink := NewMemorySink("address", "city")
	sink.SetValue("city", "stale")
	sink.Disable("city")

	_, err := New(Config{SourceField: "address", AutoFillTargetFields: cityConfig().AutoFillTargetFields},
		Deps{Sink: sink, Geocoder: &fakeGeocoder{}})
	require.NoError(t, err)

	assert.Equal(t, "", sink.Value("city"))
	assert.False(t, sink.IsDisabled("city"))
}

func TestPlaceChanged_SelfFillDefault(t *testing.T) {
	place := placeIn("Springfield")
	h := newHarness(t, Config{}, fixedSource{place: &place}, nil)

	assert.Equal(t, OutcomeFilled, h.widget.PlaceChanged(context.Background()))
	assert.Equal(t, "Springfield", h.sink.Value("address"))
}

func TestPlaceChanged_NoPlaceLeavesTargetsCleared(t *testing.T) {
	h := newHarness(t, cityConfig(), fixedSource{}, nil)
	h.sink.SetValue("city", "Shelbyville")

	assert.Equal(t, OutcomeNoResult, h.widget.PlaceChanged(context.Background()))
	assert.Equal(t, "", h.sink.Value("city"))
	assert.Empty(t, h.notifier.got)
}

func TestFillInAddress_ReplacesPreviousValues(t *testing.T) {
	h := newHarness(t, Config{AutoFillTargetFields: RawConfig{
		{Target: "city", Components: []string{"locality"}},
		{Target: "zip", Components: []string{"postal_code"}},
	}}, nil, nil)

	first := PlaceResult{AddressComponents: []AddressComponent{
		{Types: []string{"locality"}, LongName: "Springfield"},
		{Types: []string{"postal_code"}, LongName: "97403"},
	}}
	second := placeIn("Shelbyville")

	require.Equal(t, OutcomeFilled, h.widget.FillInAddress(&first))
	require.Equal(t, OutcomeFilled, h.widget.FillInAddress(&second))

	assert.Equal(t, "Shelbyville", h.sink.Value("city"))
	assert.Equal(t, "", h.sink.Value("zip"))
}

func TestAddressAt_UsesSecondCandidate(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, nil)
	h.geocoder.reverse = []PlaceResult{placeIn("C0"), placeIn("C1"), placeIn("C2")}

	outcome := h.widget.AddressAt(context.Background(), Coordinate{Lat: 44.05, Lng: -123.09})

	assert.Equal(t, OutcomeFilled, outcome)
	assert.Equal(t, "C1", h.sink.Value("city"))
	assert.Empty(t, h.notifier.got)
}

func TestAddressAt_SingleCandidateReportsNoResults(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, nil)
	h.sink.SetValue("city", "untouched")
	h.geocoder.reverse = []PlaceResult{placeIn("C0")}

	outcome := h.widget.AddressAt(context.Background(), Coordinate{})

	assert.Equal(t, OutcomeNoResultsFound, outcome)
	assert.Equal(t, "untouched", h.sink.Value("city"))
	require.Len(t, h.notifier.got, 1)
	assert.Equal(t, Notification{Kind: NotifyNoResultsFound, Message: "No results found"}, h.notifier.got[0])
}

func TestAddressAt_ServiceFailureCarriesStatus(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, nil)
	h.geocoder.err = &StatusError{Status: "OVER_QUERY_LIMIT"}

	outcome := h.widget.AddressAt(context.Background(), Coordinate{})

	assert.Equal(t, OutcomeServiceFailure, outcome)
	require.Len(t, h.notifier.got, 1)
	assert.Equal(t, "Geocoder failed due to: OVER_QUERY_LIMIT", h.notifier.got[0].Message)
	assert.Equal(t, "OVER_QUERY_LIMIT", h.notifier.got[0].Status)
}

func TestSelectFirst_UsesFirstCandidate(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, nil)
	h.geocoder.forward = []PlaceResult{placeIn("C0"), placeIn("C1")}

	assert.Equal(t, OutcomeFilled, h.widget.SelectFirst(context.Background(), "  springfield "))
	assert.Equal(t, "C0", h.sink.Value("city"))
	assert.Equal(t, []string{"springfield"}, h.geocoder.forwardCalls)
}

func TestSelectFirst_NoCandidatesIsSilent(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, nil)

	assert.Equal(t, OutcomeNoCandidate, h.widget.SelectFirst(context.Background(), "nowhere"))
	assert.Empty(t, h.notifier.got)

	assert.Equal(t, OutcomeNoCandidate, h.widget.SelectFirst(context.Background(), "   "))
	assert.Len(t, h.geocoder.forwardCalls, 1)
}

func TestSelectFirst_ServiceFailureIsReported(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, nil)
	h.geocoder.err = assert.AnError

	assert.Equal(t, OutcomeServiceFailure, h.widget.SelectFirst(context.Background(), "x"))
	require.Len(t, h.notifier.got, 1)
	assert.Equal(t, "Geocoder failed due to: "+StatusUnknown, h.notifier.got[0].Message)
}

func TestKeyPress_EnterOnFocusedSource(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, nil)
	h.geocoder.forward = []PlaceResult{placeIn("C0")}
	h.sink.SetValue("address", "typed text")
	ctx := context.Background()

	assert.Equal(t, OutcomeIgnored, h.widget.KeyPress(ctx, "address", KeyEnter), "source not focused")

	h.sink.Focus("address")
	assert.Equal(t, OutcomeIgnored, h.widget.KeyPress(ctx, "address", "Tab"))
	assert.Equal(t, OutcomeIgnored, h.widget.KeyPress(ctx, "city", KeyEnter))
	assert.Empty(t, h.geocoder.forwardCalls)

	assert.Equal(t, OutcomeFilled, h.widget.KeyPress(ctx, "address", KeyEnter))
	assert.Equal(t, []string{"typed text"}, h.geocoder.forwardCalls)

	h.sink.SetSuggestions("742 Evergreen Terrace, Springfield", "second")
	h.widget.KeyPress(ctx, "address", KeyEnter)
	assert.Equal(t, "742 Evergreen Terrace, Springfield", h.geocoder.forwardCalls[1])
}

func TestKeyPress_DisabledSelectFirst(t *testing.T) {
	off := false
	cfg := cityConfig()
	cfg.SelectFirstOnEnter = &off
	h := newHarness(t, cfg, nil, nil)
	h.sink.Focus("address")
	h.sink.SetValue("address", "typed")

	assert.Equal(t, OutcomeIgnored, h.widget.KeyPress(context.Background(), "address", KeyEnter))
	assert.Empty(t, h.geocoder.forwardCalls)
}

func TestClick_GeolocateTrigger(t *testing.T) {
	cfg := cityConfig()
	cfg.GeolocateTrigger = "locate-me"
	pos := Position{Coordinate: Coordinate{Lat: 52.37, Lng: 4.89}, Accuracy: 30}
	h := newHarness(t, cfg, nil, fixedLocator{pos: pos, ok: true})
	h.geocoder.reverse = []PlaceResult{placeIn("C0"), placeIn("Amsterdam")}
	h.sink.SetValue("address", "old text")
	ctx := context.Background()

	assert.Equal(t, OutcomeIgnored, h.widget.Click(ctx, "other-button"))
	assert.Equal(t, "old text", h.sink.Value("address"))

	assert.Equal(t, OutcomeFilled, h.widget.Click(ctx, "locate-me"))
	assert.Equal(t, "", h.sink.Value("address"))
	assert.Equal(t, "Amsterdam", h.sink.Value("city"))
	assert.Equal(t, []Coordinate{pos.Coordinate}, h.geocoder.reverseCalls)
}

func TestClick_WithoutTriggerIsUnbound(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, fixedLocator{ok: true})
	assert.Equal(t, OutcomeIgnored, h.widget.Click(context.Background(), ""))
	assert.Empty(t, h.geocoder.reverseCalls)
}

func TestGeolocate_SilentWhenLocatorNeverAnswers(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, fixedLocator{ok: false})

	assert.Equal(t, OutcomeIgnored, h.widget.Geolocate(context.Background()))
	assert.Empty(t, h.geocoder.reverseCalls)
	assert.Empty(t, h.notifier.got)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	h := newHarness(t, cityConfig(), nil, nil)
	h.geocoder.reverse = []PlaceResult{placeIn("R0"), placeIn("reverse")}
	h.geocoder.forward = []PlaceResult{placeIn("forward")}

	var nested Outcome
	h.geocoder.onCall = func() {
		if nested != "" {
			return
		}
		nested = "pending"
		// A second trigger fires while the first request is still out.
		nested = h.widget.SelectFirst(context.Background(), "newer")
	}

	outcome := h.widget.AddressAt(context.Background(), Coordinate{})

	assert.Equal(t, OutcomeFilled, nested)
	assert.Equal(t, OutcomeStale, outcome)
	assert.Equal(t, "forward", h.sink.Value("city"))
}

func TestClose_IgnoresLaterTriggers(t *testing.T) {
	place := placeIn("Springfield")
	h := newHarness(t, cityConfig(), fixedSource{place: &place}, nil)
	h.widget.Close()

	assert.Equal(t, OutcomeIgnored, h.widget.PlaceChanged(context.Background()))
	assert.Equal(t, OutcomeIgnored, h.widget.SelectFirst(context.Background(), "x"))
	assert.Equal(t, OutcomeIgnored, h.widget.FillInAddress(&place))
	assert.Equal(t, "", h.sink.Value("city"))
}
