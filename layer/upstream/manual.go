package upstream

import (
	"weft/service"
)

// PreferredTargetHeader is the header a caller sets to request a
// specific target by name under ManualStrategy.
const PreferredTargetHeader = "X-Weft-Preferred-Target"

// ManualStrategy honors an explicit per-request target preference,
// matching the teacher's ManualStrategy.
type ManualStrategy struct {
	fallback      Strategy
	allowFallback bool
}

// NewManualStrategy returns a Strategy that selects the target named
// by PreferredTargetHeader when present. If the named target isn't
// available and allowFallback is true, fallback is consulted instead;
// otherwise an error is returned.
func NewManualStrategy(fallback Strategy, allowFallback bool) *ManualStrategy {
	return &ManualStrategy{fallback: fallback, allowFallback: allowFallback}
}

// Select implements Strategy.
func (s *ManualStrategy) Select(req *service.Request, available []Target) (Target, error) {
	if len(available) == 0 {
		return Target{}, errNoTargets(s.Name())
	}

	preferred := req.Header.Get(PreferredTargetHeader)
	if preferred == "" {
		if s.fallback != nil {
			return s.fallback.Select(req, available)
		}
		return available[0], nil
	}

	for _, t := range available {
		if t.Name == preferred {
			return t, nil
		}
	}

	if s.allowFallback && s.fallback != nil {
		return s.fallback.Select(req, available)
	}
	return Target{}, errPreferredTargetNotFound(preferred)
}

func (s *ManualStrategy) Name() string { return "manual" }

func (s *ManualStrategy) Reset() {
	if s.fallback != nil {
		s.fallback.Reset()
	}
}
