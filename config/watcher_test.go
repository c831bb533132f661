package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcherReloadsOnFileChange(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:8000"
upstream:
  targets:
    - name: "a"
      addr: "10.0.0.1:443"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	SetConfig(cfg)

	w, err := NewWatcher(DefaultWatcherConfig(path), nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.debounce = newDebouncer(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Watch(ctx)
		close(done)
	}()

	// give the watcher goroutine time to register the fsnotify watch
	time.Sleep(50 * time.Millisecond)

	updated := `
server:
  listen_address: "127.0.0.1:9999"
upstream:
  targets:
    - name: "a"
      addr: "10.0.0.1:443"
`
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("failed to rewrite config file: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if GetConfig().Server.ListenAddress == "127.0.0.1:9999" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
