package tracker

import (
	"testing"
	"time"
)

func TestRetryConfigDelay(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RetryConfig
		attempt int
		want    time.Duration
	}{
		{"first retry", DefaultRetryConfig(), 1, 500 * time.Millisecond},
		{"second retry", DefaultRetryConfig(), 2, time.Second},
		{"capped", DefaultRetryConfig(), 10, 4 * time.Second},
		{"no attempt", DefaultRetryConfig(), 0, 0},
		{"zero base delay", RetryConfig{MaxRetries: 3, MaxDelay: 4 * time.Second}, 1, 0},
		{"zero base delay later attempt", RetryConfig{MaxRetries: 3, MaxDelay: 4 * time.Second}, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}
