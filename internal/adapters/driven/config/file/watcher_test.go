package file

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnFileChange(t *testing.T) {
	path := writeConfig(t, `interval_hours = 1`)
	store, err := NewStore(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan Config, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Watch(ctx, func(cfg Config) {
			select {
			case changed <- cfg:
			default:
			}
		}, nil)
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`interval_hours = 12`), 0o600))

	select {
	case cfg := <-changed:
		assert.Equal(t, 12, cfg.IntervalHours)
	case <-time.After(2 * time.Second):
		t.Fatal("config change was not observed")
	}

	assert.Equal(t, 12, store.Config().IntervalHours)
	cancel()
	<-done
}

func TestWatch_KeepsPreviousConfigOnBadEdit(t *testing.T) {
	path := writeConfig(t, `interval_hours = 3`)
	store, err := NewStore(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Watch(ctx, nil, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`interval_hours = [broken`), 0o600))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 3, store.Config().IntervalHours)
	cancel()
	<-done
}

func TestWatch_StopsOnContextCancel(t *testing.T) {
	path := writeConfig(t, ``)
	store, err := NewStore(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- store.Watch(ctx, nil, nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
