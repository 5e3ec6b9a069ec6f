package cli

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsLoggedIn_FollowsClient(t *testing.T) {
	api := &fakeClient{}
	app, _ := newTestApp(api)
	assert.False(t, app.isLoggedIn())

	api.loggedIn = true
	assert.True(t, app.isLoggedIn())
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	app := &App{}
	var buf bytes.Buffer

	old := log.Default().Writer()
	defer log.SetOutput(old)
	log.SetOutput(&buf)

	app.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, app.Mode)
	assert.NotEmpty(t, buf.String())

	buf.Reset()
	app.setMode(ModeOnline)
	assert.Empty(t, buf.String())

	app.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, app.Mode)
	assert.NotEmpty(t, buf.String())
}

func TestCheckOnline(t *testing.T) {
	old := log.Default().Writer()
	defer log.SetOutput(old)
	log.SetOutput(&bytes.Buffer{})

	api := &fakeClient{pingErr: errors.New("down")}
	app, _ := newTestApp(api)

	app.checkOnline(context.Background())
	assert.Equal(t, ModeOffline, app.Mode)

	api.pingErr = nil
	app.checkOnline(context.Background())
	assert.Equal(t, ModeOnline, app.Mode)
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	app, _ := newTestApp(&fakeClient{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.StartOnlineStatusWatcher(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
