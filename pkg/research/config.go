package research

import "time"

// Config holds the settings one adapter needs: credential, endpoint
// override, primary model, and the ordered fallback-model list tried when
// the primary is rejected as unknown.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	FallbackModels []string

	// Timeout bounds each individual upstream call, including each
	// fallback attempt separately.
	Timeout time.Duration
}

// timeout returns the configured timeout or a conservative default.
func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 45 * time.Second
}
