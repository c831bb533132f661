package main

import (
	"io"
	"os"
	"strings"
	"testing"
)

// withCapturedStdout redirects os.Stdout for the duration of fn and
// returns whatever was written to it.
func withCapturedStdout(t *testing.T, fn func()) []byte {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}
	return out
}

func withStdin(t *testing.T, data []byte, fn func()) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = orig }()

	go func() {
		w.Write(data)
		w.Close()
	}()

	fn()
}

func TestProxyProtoEncodeV1RoundTrip(t *testing.T) {
	ppSrc, ppDst, ppVersion = "10.0.0.1:4000", "10.0.0.2:443", 1
	defer func() { ppSrc, ppDst, ppVersion = "", "", 1 }()

	out := withCapturedStdout(t, func() {
		if err := runProxyProtoEncode(proxyProtoEncodeCmd, nil); err != nil {
			t.Fatalf("runProxyProtoEncode: %v", err)
		}
	})

	want := "PROXY TCP4 10.0.0.1 10.0.0.2 4000 443\r\n"
	if string(out) != want {
		t.Errorf("encoded header = %q, want %q", out, want)
	}
}

func TestProxyProtoDecodeV1(t *testing.T) {
	line := []byte("PROXY TCP4 10.0.0.1 10.0.0.2 4000 443\r\n")

	var out []byte
	withStdin(t, line, func() {
		out = withCapturedStdout(t, func() {
			if err := runProxyProtoDecode(proxyProtoDecodeCmd, nil); err != nil {
				t.Fatalf("runProxyProtoDecode: %v", err)
			}
		})
	})

	if len(out) == 0 {
		t.Fatal("expected decode output, got none")
	}
	if got := string(out); !strings.Contains(got, "src: 10.0.0.1:4000") || !strings.Contains(got, "dst: 10.0.0.2:443") {
		t.Errorf("decode output = %q, missing expected src/dst lines", got)
	}
}

func TestProxyProtoEncodeV2RoundTrip(t *testing.T) {
	ppSrc, ppDst, ppVersion = "10.0.0.1:4000", "10.0.0.2:443", 2
	defer func() { ppSrc, ppDst, ppVersion = "", "", 1 }()

	v2 := withCapturedStdout(t, func() {
		if err := runProxyProtoEncode(proxyProtoEncodeCmd, nil); err != nil {
			t.Fatalf("runProxyProtoEncode: %v", err)
		}
	})

	var out []byte
	withStdin(t, v2, func() {
		out = withCapturedStdout(t, func() {
			if err := runProxyProtoDecode(proxyProtoDecodeCmd, nil); err != nil {
				t.Fatalf("runProxyProtoDecode: %v", err)
			}
		})
	})

	if got := string(out); !strings.Contains(got, "version: 2") || !strings.Contains(got, "src: 10.0.0.1:4000") {
		t.Errorf("v2 decode output = %q, missing expected fields", got)
	}
}

func TestProxyProtoEncodeRejectsBadVersion(t *testing.T) {
	ppSrc, ppDst, ppVersion = "10.0.0.1:4000", "10.0.0.2:443", 3
	defer func() { ppSrc, ppDst, ppVersion = "", "", 1 }()

	withCapturedStdout(t, func() {
		if err := runProxyProtoEncode(proxyProtoEncodeCmd, nil); err == nil {
			t.Fatal("expected error for unsupported --version, got nil")
		}
	})
}

