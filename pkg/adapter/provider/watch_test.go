package provider

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

func TestEventMatchesFile(t *testing.T) {
	target := "/etc/app/settings.xml"

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: target, Op: fsnotify.Rename}, true},
		{"unclean name", fsnotify.Event{Name: "/etc/app/./settings.xml", Op: fsnotify.Write}, true},
		{"chmod", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: target, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: "/etc/app/other.xml", Op: fsnotify.Write}, false},
		{"empty name", fsnotify.Event{Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventMatchesFile(tt.event, target))
		})
	}
}

func TestXMLFileProvider_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.xml")
	p := newXMLFile(t, settings.WithConfigFile(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// the watcher starts asynchronously, so keep writing until it reports
	require.Eventually(t, func() bool {
		if err := p.Write(defaultAppSettings()); err != nil {
			return false
		}
		select {
		case <-changed:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.xml")
	p := newXMLFile(t, settings.WithConfigFile(path))

	err := p.Watch(context.Background(), func() {})
	assert.Error(t, err)
}
