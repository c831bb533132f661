package compression

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/url"
	"strings"
	"testing"

	"weft/service"
	"weft/wcontext"
)

func newCompressionReq(t *testing.T, body []byte) *service.Request {
	t.Helper()
	u, err := url.Parse("/v1/resource")
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	return service.NewRequest("POST", u, service.BytesBody(body))
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := []byte(strings.Repeat("weft-compression-round-trip ", 100))

	compressed, err := compress(service.BytesBody(original))
	if err != nil {
		t.Fatalf("compress() error = %v", err)
	}

	n, ok := compressed.SizeHint().Exact()
	if !ok || n >= uint64(len(original)) {
		t.Fatalf("expected compressed body to be smaller than original, got size hint %d/%v", n, ok)
	}

	decompressed, err := decompress(compressed)
	if err != nil {
		t.Fatalf("decompress() error = %v", err)
	}
	got, err := io.ReadAll(decompressed)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(original))
	}
}

func TestLayerCompressesLargeRequestBodies(t *testing.T) {
	l := NewLayer[struct{}](Config{MinSize: 16})

	payload := []byte(strings.Repeat("x", 100))
	var sawContentEncoding string
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		sawContentEncoding = req.Header.Get("Content-Encoding")
		if _, err := gzip.NewReader(req.Body); err != nil {
			t.Errorf("expected request body to be valid gzip: %v", err)
		}
		return service.NewResponse(200, nil), nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	if _, err := svc.Serve(ctx, newCompressionReq(t, payload)); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if sawContentEncoding != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", sawContentEncoding)
	}
}

func TestLayerSkipsSmallRequestBodies(t *testing.T) {
	l := NewLayer[struct{}](Config{MinSize: 1024})

	payload := []byte("small")
	var sawContentEncoding string
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		sawContentEncoding = req.Header.Get("Content-Encoding")
		body, _ := io.ReadAll(req.Body)
		if string(body) != "small" {
			t.Errorf("body = %q, want %q", body, "small")
		}
		return service.NewResponse(200, nil), nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	if _, err := svc.Serve(ctx, newCompressionReq(t, payload)); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if sawContentEncoding != "" {
		t.Errorf("Content-Encoding = %q, want empty for a small body", sawContentEncoding)
	}
}

func TestLayerDecompressesGzipResponses(t *testing.T) {
	l := NewLayer[struct{}](DefaultConfig())

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte("response payload"))
	gw.Close()

	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		resp := service.NewResponse(200, service.BytesBody(buf.Bytes()))
		resp.Header.Set("Content-Encoding", "gzip")
		return resp, nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	resp, err := svc.Serve(ctx, newCompressionReq(t, []byte("tiny")))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.Header.Get("Content-Encoding") != "" {
		t.Error("expected Content-Encoding to be stripped after decompression")
	}
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "response payload" {
		t.Errorf("body = %q, want %q", got, "response payload")
	}
}
