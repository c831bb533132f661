package compression

import (
	"weft/service"
	"weft/wcontext"
)

// Layer compresses request bodies over Config.MinSize with gzip before
// calling inner, and transparently decompresses any gzip-encoded
// response body before returning it, so callers above this layer never
// see Content-Encoding: gzip.
type Layer[S any] struct {
	config Config
}

// NewLayer builds a compression Layer from config.
func NewLayer[S any](config Config) *Layer[S] {
	return &Layer[S]{config: config}
}

func (l *Layer[S]) Layer(inner service.Service[S]) service.Service[S] {
	return service.ServiceFunc[S](func(ctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		if n, ok := req.Body.SizeHint().Exact(); ok && n >= l.config.MinSize {
			compressed, err := compress(req.Body)
			if err != nil {
				return nil, err
			}
			req.Body = compressed
			req.Header.Set("Content-Encoding", "gzip")
			req.Header.Del("Content-Length")
		}

		resp, err := inner.Serve(ctx, req)
		if err != nil {
			return nil, err
		}

		if resp.Header.Get("Content-Encoding") == "gzip" {
			decoded, err := decompress(resp.Body)
			if err != nil {
				return nil, err
			}
			resp.Body = decoded
			resp.Header.Del("Content-Encoding")
			resp.Header.Del("Content-Length")
		}

		return resp, nil
	})
}
