package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseDetailLevel tests level vocabulary and case folding.
func TestParseDetailLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    DetailLevel
		wantErr bool
	}{
		{"network", LevelNetwork, false},
		{"station", LevelStation, false},
		{"channel", LevelChannel, false},
		{"response", LevelResponse, false},
		{"CHANNEL", LevelChannel, false},
		{"stations", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDetailLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParseNoData tests the nodata status vocabulary.
func TestParseNoData(t *testing.T) {
	got, err := ParseNoData("")
	require.NoError(t, err)
	assert.Equal(t, 204, got)

	got, err = ParseNoData("404")
	require.NoError(t, err)
	assert.Equal(t, 404, got)

	_, err = ParseNoData("500")
	var perr *ParameterError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "nodata", perr.Name)
}

// TestParseEventOrder tests orderby vocabulary including the default.
func TestParseEventOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    EventOrder
		wantErr bool
	}{
		{"", OrderTimeDesc, false},
		{"time", OrderTimeDesc, false},
		{"time-asc", OrderTimeAsc, false},
		{"magnitude", OrderMagnitudeDesc, false},
		{"magnitude-asc", OrderMagnitudeAsc, false},
		{"depth", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEventOrder(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParseTime tests the accepted timestamp layouts.
func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2006-07-18T00:00:00", time.Date(2006, 7, 18, 0, 0, 0, 0, time.UTC)},
		{"2006-07-18", time.Date(2006, 7, 18, 0, 0, 0, 0, time.UTC)},
		{"2006-07-18T12:30:45.5", time.Date(2006, 7, 18, 12, 30, 45, 500000000, time.UTC)},
		{"2006-07-18T12:00:00Z", time.Date(2006, 7, 18, 12, 0, 0, 0, time.UTC)},
		{"2006-07-18T14:00:00+02:00", time.Date(2006, 7, 18, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := ParseTime("not-a-time")
	assert.Error(t, err)
}

// TestParameterError_IsInvalidInput tests that translation faults match
// the ErrInvalidInput sentinel.
func TestParameterError_IsInvalidInput(t *testing.T) {
	err := &ParameterError{Name: "minlatitude", Value: "north", Reason: "not a number"}
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "minlatitude")
	assert.Contains(t, err.Error(), "north")
}
