package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Precedence(t *testing.T) {
	// fail outranks error outranks warn outranks skipped outranks pass
	assert.Greater(t, StatusFail.Precedence(), StatusError.Precedence())
	assert.Greater(t, StatusError.Precedence(), StatusWarn.Precedence())
	assert.Greater(t, StatusWarn.Precedence(), StatusSkipped.Precedence())
	assert.Greater(t, StatusSkipped.Precedence(), StatusPass.Precedence())
	assert.Equal(t, -1, Status("bogus").Precedence())
}

func TestStatus_Predicates(t *testing.T) {
	assert.True(t, StatusFail.IsFailure())
	assert.True(t, StatusError.IsFailure())
	assert.False(t, StatusWarn.IsFailure())
	assert.False(t, StatusPass.IsFailure())

	assert.True(t, StatusPass.IsSuccess())
	assert.False(t, StatusFail.IsSuccess())

	assert.True(t, StatusSkipped.IsSkipped())
	assert.False(t, StatusPass.IsSkipped())
}

func TestStatus_Validate(t *testing.T) {
	for _, s := range []Status{StatusPass, StatusFail, StatusWarn, StatusError, StatusSkipped} {
		assert.NoError(t, s.Validate())
	}
	assert.Error(t, Status("unknown").Validate())
	assert.Error(t, Status("").Validate())
}

func TestSeverity_NewSeverity(t *testing.T) {
	sev, err := NewSeverity("HIGH")
	assert.NoError(t, err)
	assert.Equal(t, SevHigh, sev)

	sev, err = NewSeverity("")
	assert.NoError(t, err)
	assert.True(t, sev.IsUnknown())

	_, err = NewSeverity("catastrophic")
	assert.Error(t, err)
}

func TestSeverity_Ordering(t *testing.T) {
	assert.True(t, SevCritical.AtLeast(SevHigh))
	assert.True(t, SevHigh.AtLeast(SevHigh))
	assert.False(t, SevLow.AtLeast(SevMedium))
}

func TestScanID_RoundTrip(t *testing.T) {
	id := NewScanID()
	assert.False(t, id.IsZero())

	parsed, err := ParseScanID(id.String())
	assert.NoError(t, err)
	assert.True(t, id.Equals(parsed))

	_, err = ParseScanID("not-a-uuid")
	assert.Error(t, err)
}
