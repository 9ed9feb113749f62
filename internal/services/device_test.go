package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
)

type deviceFixture struct {
	svc     DeviceServiceInterface
	devices *fakeDeviceRepo
	history *fakeHistoryRepo
	users   *fakeUserRepo
}

func newDeviceFixture() *deviceFixture {
	f := &deviceFixture{
		devices: newFakeDeviceRepo(),
		users: newFakeUserRepo(
			&entities.User{ID: 1, Fio: "Администратор", Login: "admin", Role: constants.RoleAdmin},
		),
	}
	f.history = newFakeHistoryRepo().withUsers(f.users)
	f.svc = NewDeviceService(f.devices, f.history, zap.NewNop())
	return f
}

// История отдается и тогда, когда актор записи уже не существует:
// вместо ФИО возвращается пустая строка, листинг не ломается.
func TestGetDeviceHistory_ActorMissing(t *testing.T) {
	f := newDeviceFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-060", Status: constants.DeviceInUse})
	require.NoError(t, f.history.CreateInTx(context.Background(), nil, &entities.DeviceHistory{
		DeviceID: device.ID, Action: constants.HistoryActionAssigned, ActorID: 1,
	}))
	require.NoError(t, f.history.CreateInTx(context.Background(), nil, &entities.DeviceHistory{
		DeviceID: device.ID, Action: constants.HistoryActionReturned, ActorID: 99,
	}))

	items, err := f.svc.GetDeviceHistory(context.Background(), device.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Администратор", items[0].Actor.Fio)
	assert.Equal(t, uint64(99), items[1].Actor.ID)
	assert.Empty(t, items[1].Actor.Fio)
}

func TestGetDeviceHistory_DeviceMissing(t *testing.T) {
	f := newDeviceFixture()
	_, err := f.svc.GetDeviceHistory(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrDeviceNotFound)
}
