package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSettings is returned when settings fail validation
var ErrInvalidSettings = errors.New("invalid tracker settings")

// Settings is the tuning consumed by the reconciliation core.
type Settings struct {
	// SimilarityThreshold is the minimum fuzzy score for a match
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold" validate:"gte=0,lte=1"`
	// AmbiguityEpsilon is the score gap under which two matches tie
	AmbiguityEpsilon float64 `yaml:"ambiguity_epsilon" json:"ambiguity_epsilon" validate:"gte=0,lte=1"`
	// CacheTTLSeconds is how long a fetched record stays fresh
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds" validate:"gte=0"`
	// MaxConcurrentFetches bounds parallel catalog fetches
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches" json:"max_concurrent_fetches" validate:"gte=1,lte=64"`
	// FetchTimeoutSeconds bounds a single fetch attempt
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" json:"fetch_timeout_seconds" validate:"gte=1"`
	// MaxRetries is the number of retries after a failed fetch
	MaxRetries int `yaml:"max_retries" json:"max_retries" validate:"gte=0,lte=10"`
	// OverallDeadlineSeconds bounds a whole run; zero means no deadline
	OverallDeadlineSeconds int `yaml:"overall_deadline_seconds,omitempty" json:"overall_deadline_seconds,omitempty" validate:"gte=0"`
	// RequestsPerSecond throttles catalog requests; zero means unlimited
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" validate:"gte=0"`
}

// DefaultSettings returns the default tuning.
func DefaultSettings() Settings {
	return Settings{
		SimilarityThreshold:  DefaultSimilarityThreshold,
		AmbiguityEpsilon:     DefaultAmbiguityEpsilon,
		CacheTTLSeconds:      int(DefaultCacheTTL / time.Second),
		MaxConcurrentFetches: DefaultMaxConcurrentFetches,
		FetchTimeoutSeconds:  int(DefaultFetchTimeout / time.Second),
		MaxRetries:           DefaultRetryConfig().MaxRetries,
		RequestsPerSecond:    10,
	}
}

// settingsValidator is shared; validator.Validate is safe for concurrent use
var settingsValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its allowed range.
func (s Settings) Validate() error {
	err := settingsValidator.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(msgs, "; "))
}

// CacheTTL returns the cache TTL as a duration
func (s Settings) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// FetchTimeout returns the per-attempt timeout as a duration
func (s Settings) FetchTimeout() time.Duration {
	return time.Duration(s.FetchTimeoutSeconds) * time.Second
}

// OverallDeadline returns the run deadline, zero when unset
func (s Settings) OverallDeadline() time.Duration {
	return time.Duration(s.OverallDeadlineSeconds) * time.Second
}

// RetryConfig returns the retry configuration for the settings
func (s Settings) RetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = s.MaxRetries
	return cfg
}
