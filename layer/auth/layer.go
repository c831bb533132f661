package auth

import (
	"log/slog"

	"weft/ext"
	"weft/service"
	"weft/wcontext"
)

// Layer authenticates every request against a Store before calling
// inner, publishing the matched key's Info onto the request's
// Extensions bag for downstream layers (rate limiting keyed by user,
// audit logging) to read via ext.Get[Info].
type Layer[S any] struct {
	store   Store
	sources []Source
	logger  *slog.Logger
}

// NewLayer builds an auth Layer. A nil logger falls back to
// slog.Default().
func NewLayer[S any](store Store, sources []Source, logger *slog.Logger) *Layer[S] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Layer[S]{store: store, sources: sources, logger: logger}
}

func (l *Layer[S]) Layer(inner service.Service[S]) service.Service[S] {
	return service.ServiceFunc[S](func(ctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		key, err := extractKey(req, l.sources)
		if err != nil {
			l.logger.Warn("missing API key", "path", req.URL.Path, "error", err)
			return nil, err
		}

		info, err := l.store.Validate(key)
		if err != nil {
			l.logger.Warn("invalid API key", "path", req.URL.Path, "error", err)
			return nil, err
		}

		l.logger.Debug("API key authenticated", "user_id", info.UserID, "team_id", info.TeamID, "path", req.URL.Path)
		ext.Insert(req.Ext, *info)

		return inner.Serve(ctx, req)
	})
}
