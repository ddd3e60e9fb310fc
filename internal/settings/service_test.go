package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness/internal/docstore"
	"wellness/internal/domain"
)

type fakePush struct {
	platform, token string
	err             error
}

func (f *fakePush) Register(_ context.Context, platform, token string) (string, error) {
	f.platform, f.token = platform, token
	if f.err != nil {
		return "", f.err
	}
	return "arn:aws:sns:endpoint/" + token, nil
}

func ptr(b bool) *bool { return &b }

func TestGetDefaults(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), nil, nil)
	got, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdateNotificationsIsPartial(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemoryStore(), nil, nil)

	got, err := svc.UpdateNotifications(ctx, "u1", NotificationPatch{Summary: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationPrefs{Push: true, Email: true, Summary: true}, got.Notifications)

	got, err = svc.UpdateNotifications(ctx, "u1", NotificationPatch{Email: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationPrefs{Push: true, Email: false, Summary: true}, got.Notifications)

	_, err = svc.UpdateNotifications(ctx, "u1", NotificationPatch{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeviceConnection(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemoryStore(), nil, nil)

	got, err := svc.SetDeviceConnected(ctx, "u1", true)
	require.NoError(t, err)
	assert.True(t, got.DeviceConnected)
	assert.True(t, got.Notifications.Push, "defaults survive unrelated writes")

	got, err = svc.SetDeviceConnected(ctx, "u1", false)
	require.NoError(t, err)
	assert.False(t, got.DeviceConnected)
}

func TestRegisterPushDevice(t *testing.T) {
	ctx := context.Background()
	push := &fakePush{}
	svc := NewService(docstore.NewMemoryStore(), push, nil)

	got, err := svc.RegisterPushDevice(ctx, "u1", " Android ", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "android", push.platform)
	assert.Equal(t, "arn:aws:sns:endpoint/tok-1", got.PushEndpoint)
	assert.Equal(t, "android", got.PushPlatform)

	_, err = svc.RegisterPushDevice(ctx, "u1", "windows", "tok")
	assert.ErrorIs(t, err, domain.ErrValidation)

	push.err = errors.New("sns down")
	_, err = svc.RegisterPushDevice(ctx, "u1", "ios", "tok-2")
	assert.EqualError(t, err, "sns down")

	unconfigured := NewService(docstore.NewMemoryStore(), nil, nil)
	_, err = unconfigured.RegisterPushDevice(ctx, "u1", "ios", "tok")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	svc := NewService(store, nil, nil)
	_, err := svc.SetDeviceConnected(ctx, "u1", true)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1"))
	_, err = store.Get(ctx, domain.CollectionSettings, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
