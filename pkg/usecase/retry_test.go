package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clipline/clipline/pkg/usecase"
)

func TestRetryPolicy_Delay(t *testing.T) {
	policy := usecase.DefaultRetryPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 4, want: 8 * time.Second},
		{attempt: 5, want: 16 * time.Second},
		{attempt: 6, want: 32 * time.Second},
		{attempt: 7, want: 60 * time.Second}, // capped
		{attempt: 20, want: 60 * time.Second},
	}

	for _, tt := range tests {
		gt.Equal(t, policy.Delay(tt.attempt), tt.want)
	}
}

func TestRetryPolicy_CapAppliesToBase(t *testing.T) {
	policy := usecase.RetryPolicy{
		BaseDelay:   2 * time.Minute,
		Factor:      2,
		MaxDelay:    time.Minute,
		MaxAttempts: 3,
	}
	gt.Equal(t, policy.Delay(1), time.Minute)
}
