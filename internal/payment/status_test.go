// GreatK Platform | 2026
// status_test.go

package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"SUCCESS", StatusSuccess},
		{"success", StatusSuccess},
		{" Success ", StatusSuccess},
		{"FAILED", StatusFailure},
		{"CANCELLED", StatusFailure},
		{"USER_DROPPED", StatusFailure},
		{"VOID", StatusFailure},
		{"FLAGGED", StatusFailure},
		{"PENDING", StatusPending},
		{"NOT_ATTEMPTED", StatusPending},
		{"", StatusUnknown},
		{"SOMETHING_NEW", StatusUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "failure", StatusFailure.String())
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
}
