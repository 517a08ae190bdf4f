package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"autofill_backend/internal/autofill/engine"
	"autofill_backend/internal/autofill/repository"
	"autofill_backend/internal/autofill/transport"
	"autofill_backend/platform/apperr"
	"autofill_backend/platform/logger"
	"autofill_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	reverse []engine.PlaceResult
	forward []engine.PlaceResult
	err     error

	reverseAt   engine.Coordinate
	forwardText string
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, at engine.Coordinate) ([]engine.PlaceResult, error) {
	f.reverseAt = at
	return f.reverse, f.err
}

func (f *fakeGeocoder) ForwardGeocode(_ context.Context, text string) ([]engine.PlaceResult, error) {
	f.forwardText = text
	return f.forward, f.err
}

type fakeRepo struct {
	presets map[string]repository.Preset
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{presets: map[string]repository.Preset{}}
}

func (r *fakeRepo) GetByName(_ context.Context, name string) (repository.Preset, error) {
	p, ok := r.presets[name]
	if !ok {
		return repository.Preset{}, apperr.NotFound("preset not found")
	}
	return p, nil
}

func (r *fakeRepo) List(_ context.Context) ([]repository.Preset, error) {
	out := make([]repository.Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) Save(_ context.Context, params repository.SaveParams) (repository.Preset, error) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := repository.Preset{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Fields:      params.Fields,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.presets[params.Name] = p
	return p, nil
}

func (r *fakeRepo) Delete(_ context.Context, name string) error {
	if _, ok := r.presets[name]; !ok {
		return apperr.NotFound("preset not found")
	}
	delete(r.presets, name)
	return nil
}

func sep(s string) *string { return &s }

func damrak() engine.PlaceResult {
	return engine.PlaceResult{
		PlaceID:          "p-1",
		FormattedAddress: "Damrak 12, 1012 LG Amsterdam, Netherlands",
		AddressComponents: []engine.AddressComponent{
			{Types: []string{"street_number"}, LongName: "12", ShortName: "12"},
			{Types: []string{"route"}, LongName: "Damrak", ShortName: "Damrak"},
			{Types: []string{"locality", "political"}, LongName: "Amsterdam", ShortName: "Amsterdam"},
			{Types: []string{"country", "political"}, LongName: "Netherlands", ShortName: "NL"},
			{Types: []string{"postal_code"}, LongName: "1012 LG", ShortName: "1012 LG"},
		},
	}
}

func cityOnly() engine.PlaceResult {
	return engine.PlaceResult{
		PlaceID: "p-2",
		AddressComponents: []engine.AddressComponent{
			{Types: []string{"locality", "political"}, LongName: "Amsterdam", ShortName: "Amsterdam"},
		},
	}
}

func formConfig() transport.WidgetConfig {
	return transport.WidgetConfig{
		Source: "address",
		Fields: engine.RawConfig{
			{Target: "street", Components: []string{"route", "street_number"}, Separator: sep(" ")},
			{Target: "city", Components: []string{"locality"}},
			{Target: "country", Components: []string{"country:short_name"}},
		},
	}
}

func newTestService(geo engine.Geocoder, repo repository.Repository) *Service {
	return New(geo, repo, validator.New(), logger.Discard())
}

func TestFillProjectsPlace(t *testing.T) {
	svc := newTestService(&fakeGeocoder{}, nil)
	place := damrak()

	resp, err := svc.Fill(context.Background(), transport.FillRequest{Config: formConfig(), Place: &place})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeFilled, resp.Outcome)
	assert.Equal(t, []engine.FieldValue{
		{Field: "street", Value: "Damrak 12"},
		{Field: "city", Value: "Amsterdam"},
		{Field: "country", Value: "NL"},
	}, resp.Fields)
	assert.Empty(t, resp.Notifications)
}

func TestFillDefaultsToSelfFill(t *testing.T) {
	svc := newTestService(&fakeGeocoder{}, nil)
	place := cityOnly()

	resp, err := svc.Fill(context.Background(), transport.FillRequest{
		Config: transport.WidgetConfig{Source: "address"},
		Place:  &place,
	})
	require.NoError(t, err)
	assert.Equal(t, []engine.FieldValue{{Field: "address", Value: "Amsterdam"}}, resp.Fields)
}

func TestFillWithoutPlaceLeavesTargetsCleared(t *testing.T) {
	svc := newTestService(&fakeGeocoder{}, nil)

	resp, err := svc.Fill(context.Background(), transport.FillRequest{Config: formConfig()})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeNoResult, resp.Outcome)
	for _, fv := range resp.Fields {
		assert.Empty(t, fv.Value)
	}
}

func TestFillRejectsBadConfig(t *testing.T) {
	svc := newTestService(&fakeGeocoder{}, nil)

	_, err := svc.Fill(context.Background(), transport.FillRequest{Config: transport.WidgetConfig{
		Source: "address",
		Fields: engine.RawConfig{{Target: "city", Components: []string{"locality:medium_name"}}},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrConfiguration)
	assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))

	_, err = svc.Fill(context.Background(), transport.FillRequest{Config: transport.WidgetConfig{
		Source:          "address",
		ReverseSelector: "nearest",
	}})
	assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))
}

func TestGeolocateUsesSecondCandidate(t *testing.T) {
	geo := &fakeGeocoder{reverse: []engine.PlaceResult{damrak(), cityOnly()}}
	svc := newTestService(geo, nil)
	lat, lng := 52.3731, 4.8922

	resp, err := svc.Geolocate(context.Background(), transport.GeolocateRequest{
		Config:   formConfig(),
		Lat:      &lat,
		Lng:      &lng,
		Accuracy: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.Coordinate{Lat: lat, Lng: lng}, geo.reverseAt)
	assert.Equal(t, engine.OutcomeFilled, resp.Outcome)
	assert.Equal(t, []engine.FieldValue{
		{Field: "street", Value: ""},
		{Field: "city", Value: "Amsterdam"},
		{Field: "country", Value: ""},
	}, resp.Fields)
}

func TestGeolocateReportsMissingCandidate(t *testing.T) {
	svc := newTestService(&fakeGeocoder{reverse: []engine.PlaceResult{damrak()}}, nil)
	lat, lng := 1.0, 2.0

	resp, err := svc.Geolocate(context.Background(), transport.GeolocateRequest{Config: formConfig(), Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeNoResultsFound, resp.Outcome)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "No results found", resp.Notifications[0].Message)
}

func TestGeolocateReportsServiceFailure(t *testing.T) {
	geo := &fakeGeocoder{err: &engine.StatusError{Status: "OVER_QUERY_LIMIT"}}
	svc := newTestService(geo, nil)
	lat, lng := 1.0, 2.0

	resp, err := svc.Geolocate(context.Background(), transport.GeolocateRequest{Config: formConfig(), Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeServiceFailure, resp.Outcome)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Geocoder failed due to: OVER_QUERY_LIMIT", resp.Notifications[0].Message)
	assert.Equal(t, "OVER_QUERY_LIMIT", resp.Notifications[0].Status)
}

func TestSelectFirstPrefersSuggestion(t *testing.T) {
	geo := &fakeGeocoder{forward: []engine.PlaceResult{damrak(), cityOnly()}}
	svc := newTestService(geo, nil)

	resp, err := svc.SelectFirst(context.Background(), transport.SelectFirstRequest{
		Config:      formConfig(),
		Text:        "damr",
		Suggestions: []string{"Damrak 12, Amsterdam", "Damrak, Amsterdam"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Damrak 12, Amsterdam", geo.forwardText)
	assert.Equal(t, engine.OutcomeFilled, resp.Outcome)
	assert.Equal(t, "Damrak 12", resp.Fields[0].Value)
}

func TestSelectFirstFallsBackToTypedText(t *testing.T) {
	geo := &fakeGeocoder{}
	svc := newTestService(geo, nil)

	resp, err := svc.SelectFirst(context.Background(), transport.SelectFirstRequest{Config: formConfig(), Text: "Damrak 12"})
	require.NoError(t, err)
	assert.Equal(t, "Damrak 12", geo.forwardText)
	assert.Equal(t, engine.OutcomeNoCandidate, resp.Outcome)
	assert.Empty(t, resp.Notifications)
}

func TestSelectFirstDisabled(t *testing.T) {
	geo := &fakeGeocoder{forward: []engine.PlaceResult{damrak()}}
	svc := newTestService(geo, nil)
	cfg := formConfig()
	disabled := false
	cfg.SelectFirstOnEnter = &disabled

	resp, err := svc.SelectFirst(context.Background(), transport.SelectFirstRequest{Config: cfg, Text: "Damrak"})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeIgnored, resp.Outcome)
	assert.Empty(t, geo.forwardText)
}

func TestPresetsDisabledWithoutRepository(t *testing.T) {
	svc := newTestService(&fakeGeocoder{}, nil)
	assert.False(t, svc.PresetsEnabled())

	_, err := svc.GetPreset(context.Background(), "checkout")
	assert.Equal(t, apperr.KindBadRequest, apperr.GetKind(err))

	_, err = svc.Fill(context.Background(), transport.FillRequest{Config: transport.WidgetConfig{Source: "address", Preset: "checkout"}})
	assert.Equal(t, apperr.KindBadRequest, apperr.GetKind(err))
}

func TestPresetLifecycle(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(&fakeGeocoder{}, repo)
	ctx := context.Background()

	saved, err := svc.SavePreset(ctx, "checkout", transport.SavePresetRequest{
		Description: " Checkout form ",
		Fields:      formConfig().Fields,
	})
	require.NoError(t, err)
	assert.Equal(t, "checkout", saved.Name)
	assert.Equal(t, "Checkout form", saved.Description)
	assert.Equal(t, "2026-01-02T03:04:05Z", saved.CreatedAt)

	place := damrak()
	resp, err := svc.Fill(ctx, transport.FillRequest{
		Config: transport.WidgetConfig{Source: "address", Preset: "checkout"},
		Place:  &place,
	})
	require.NoError(t, err)
	assert.Equal(t, "Amsterdam", resp.Fields[1].Value)

	_, err = svc.Fill(ctx, transport.FillRequest{
		Config: transport.WidgetConfig{Source: "address", Preset: "checkout", Fields: formConfig().Fields},
	})
	assert.Equal(t, apperr.KindBadRequest, apperr.GetKind(err))

	list, err := svc.ListPresets(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	require.NoError(t, svc.DeletePreset(ctx, "checkout"))
	_, err = svc.GetPreset(ctx, "checkout")
	assert.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}

func TestSavePresetRejectsInvalidComponents(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(&fakeGeocoder{}, repo)

	_, err := svc.SavePreset(context.Background(), "bad", transport.SavePresetRequest{
		Fields: engine.RawConfig{{Target: "city", Components: []string{"locality:tiny"}}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))
	assert.Empty(t, repo.presets)

	_, err = svc.SavePreset(context.Background(), "bad", transport.SavePresetRequest{
		Fields: engine.RawConfig{{Target: " ", Components: []string{"locality"}}},
	})
	assert.True(t, errors.Is(err, engine.ErrConfiguration))
}

type brokenRepo struct {
	fakeRepo
}

func (brokenRepo) List(context.Context) ([]repository.Preset, error) {
	return nil, errors.New("connection reset")
}

func TestStorageFailureIsInternal(t *testing.T) {
	svc := newTestService(&fakeGeocoder{}, &brokenRepo{fakeRepo: *newFakeRepo()})

	_, err := svc.ListPresets(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.GetKind(err))
}
