package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
)

type assignmentFixture struct {
	svc         AssignmentServiceInterface
	devices     *fakeDeviceRepo
	assignments *fakeAssignmentRepo
	history     *fakeHistoryRepo
	users       *fakeUserRepo
}

func newAssignmentFixture() *assignmentFixture {
	f := &assignmentFixture{
		devices:     newFakeDeviceRepo(),
		assignments: newFakeAssignmentRepo(),
		history:     newFakeHistoryRepo(),
		users: newFakeUserRepo(
			&entities.User{ID: 1, Fio: "Админ", Login: "admin", Role: constants.RoleAdmin},
			&entities.User{ID: 2, Fio: "Сотрудник", Login: "employee", Role: constants.RoleEmployee},
		),
	}
	f.svc = NewAssignmentService(
		newFakeTxManager(f.assignments, f.devices, f.history),
		f.assignments, f.devices, f.history, f.users,
		newTestBus(), zap.NewNop(),
	)
	return f
}

func uintPtr(v uint64) *uint64 { return &v }

func TestCreateAssignment_Success(t *testing.T) {
	f := newAssignmentFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceAvailable})

	id, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{
		DeviceID:     device.ID,
		HolderUserID: uintPtr(2),
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	// Устройство переходит в IN_USE, держатель записан.
	assert.Equal(t, constants.DeviceInUse, f.devices.devices[device.ID].Status)
	assert.Equal(t, uint64(2), f.devices.devices[device.ID].HolderUserID.Uint64)
	assert.Equal(t, []string{constants.HistoryActionAssigned}, f.history.actionsForDevice(device.ID))
}

func TestCreateAssignment_DeviceNotAvailable(t *testing.T) {
	f := newAssignmentFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceInUse})

	_, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{
		DeviceID:     device.ID,
		HolderUserID: uintPtr(2),
	})
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
	assert.Empty(t, f.history.entries)
}

func TestCreateAssignment_NoHolder(t *testing.T) {
	f := newAssignmentFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceAvailable})

	_, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{DeviceID: device.ID})
	var invalidInput *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalidInput)
}

func TestCreateAssignment_HolderUserMissing(t *testing.T) {
	f := newAssignmentFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceAvailable})

	_, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{
		DeviceID:     device.ID,
		HolderUserID: uintPtr(99),
	})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestCreateAssignment_DeviceMissing(t *testing.T) {
	f := newAssignmentFixture()

	_, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{
		DeviceID:     777,
		HolderUserID: uintPtr(2),
	})
	assert.ErrorIs(t, err, apperrors.ErrDeviceNotFound)
}

func TestRevokeAssignment_Success(t *testing.T) {
	f := newAssignmentFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceAvailable})

	id, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{
		DeviceID:     device.ID,
		HolderUserID: uintPtr(2),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeAssignment(ctxWithUser(1), id))

	// Устройство вернулось на склад, держатель очищен, выдача закрыта.
	assert.Equal(t, constants.DeviceAvailable, f.devices.devices[device.ID].Status)
	assert.False(t, f.devices.devices[device.ID].HolderUserID.Valid)
	assert.True(t, f.assignments.assignments[id].ReturnedAt.Valid)
	assert.Equal(t,
		[]string{constants.HistoryActionAssigned, constants.HistoryActionReturned},
		f.history.actionsForDevice(device.ID))
}

func TestRevokeAssignment_AlreadyClosed(t *testing.T) {
	f := newAssignmentFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceAvailable})

	id, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{
		DeviceID:     device.ID,
		HolderUserID: uintPtr(2),
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.RevokeAssignment(ctxWithUser(1), id))

	err = f.svc.RevokeAssignment(ctxWithUser(1), id)
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

func TestTransferAssignment_Success(t *testing.T) {
	f := newAssignmentFixture()
	f.users.users[3] = &entities.User{ID: 3, Fio: "Новый сотрудник", Login: "employee2", Role: constants.RoleEmployee}
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceAvailable})

	oldID, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{
		DeviceID:     device.ID,
		HolderUserID: uintPtr(2),
	})
	require.NoError(t, err)

	newID, err := f.svc.TransferAssignment(ctxWithUser(1), dto.TransferAssignmentDTO{
		AssignmentID: oldID,
		HolderUserID: uintPtr(3),
	})
	require.NoError(t, err)
	assert.NotEqual(t, oldID, newID)

	// Старая выдача закрыта, новая активна, устройство остается IN_USE.
	assert.True(t, f.assignments.assignments[oldID].ReturnedAt.Valid)
	assert.False(t, f.assignments.assignments[newID].ReturnedAt.Valid)
	assert.Equal(t, constants.DeviceInUse, f.devices.devices[device.ID].Status)
	assert.Equal(t, uint64(3), f.devices.devices[device.ID].HolderUserID.Uint64)
}

func TestTransferAssignment_ClosedAssignment(t *testing.T) {
	f := newAssignmentFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceAvailable})

	id, err := f.svc.CreateAssignment(ctxWithUser(1), dto.CreateAssignmentDTO{
		DeviceID:     device.ID,
		HolderUserID: uintPtr(2),
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.RevokeAssignment(ctxWithUser(1), id))

	_, err = f.svc.TransferAssignment(ctxWithUser(1), dto.TransferAssignmentDTO{
		AssignmentID: id,
		HolderUserID: uintPtr(2),
	})
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

func TestCreateAssignment_NoActor(t *testing.T) {
	f := newAssignmentFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-001", Status: constants.DeviceAvailable})

	_, err := f.svc.CreateAssignment(ctxWithUser(0), dto.CreateAssignmentDTO{
		DeviceID:     device.ID,
		HolderUserID: uintPtr(2),
	})
	assert.ErrorIs(t, err, apperrors.ErrUserIDNotFoundInContext)
}
