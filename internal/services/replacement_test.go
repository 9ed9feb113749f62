package services

import (
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
)

type replacementFixture struct {
	svc          ReplacementServiceInterface
	devices      *fakeDeviceRepo
	assignments  *fakeAssignmentRepo
	incidents    *fakeIncidentRepo
	replacements *fakeReplacementRepo
	history      *fakeHistoryRepo
}

func newReplacementFixture() *replacementFixture {
	f := &replacementFixture{
		devices:      newFakeDeviceRepo(),
		assignments:  newFakeAssignmentRepo(),
		incidents:    newFakeIncidentRepo(),
		replacements: newFakeReplacementRepo(),
		history:      newFakeHistoryRepo(),
	}
	f.svc = NewReplacementService(
		newFakeTxManager(f.replacements, f.devices, f.assignments, f.incidents, f.history),
		f.replacements, f.devices, f.assignments, f.incidents, f.history,
		newTestBus(), zap.NewNop(),
	)
	return f
}

func TestCreateReplacement_TransfersAssignment(t *testing.T) {
	f := newReplacementFixture()
	oldDevice := f.devices.add(&entities.Device{
		Name: "Ноутбук", SerialNumber: "SN-060",
		Status:       constants.DeviceRepairing,
		HolderUserID: null.Uint64From(2),
	})
	newDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-061", Status: constants.DeviceAvailable})
	oldAssignment := f.assignments.add(&entities.Assignment{
		DeviceID:     oldDevice.ID,
		HolderUserID: null.Uint64From(2),
		AssignedBy:   1,
		AssignedAt:   time.Now().Add(-time.Hour),
	})

	id, err := f.svc.CreateReplacement(ctxWithUser(1), dto.CreateReplacementDTO{
		OldDeviceID: oldDevice.ID,
		NewDeviceID: newDevice.ID,
		Reason:      "длительный ремонт",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	// Старое устройство выводится, новое занимает его место у того же держателя.
	assert.Equal(t, constants.DeviceReplaced, f.devices.devices[oldDevice.ID].Status)
	assert.False(t, f.devices.devices[oldDevice.ID].HolderUserID.Valid)
	assert.Equal(t, constants.DeviceInUse, f.devices.devices[newDevice.ID].Status)
	assert.Equal(t, uint64(2), f.devices.devices[newDevice.ID].HolderUserID.Uint64)
	assert.True(t, f.assignments.assignments[oldAssignment.ID].ReturnedAt.Valid)

	active, err := f.assignments.FindActiveByDeviceIDInTx(ctxWithUser(1), nil, newDevice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), active.HolderUserID.Uint64)

	assert.Equal(t, []string{constants.HistoryActionReplacedBy}, f.history.actionsForDevice(oldDevice.ID))
	assert.Equal(t, []string{constants.HistoryActionReplacementFor}, f.history.actionsForDevice(newDevice.ID))
}

// Устройство в очереди на списание заменяется без смены своего статуса:
// оно остается PENDING_LIQUIDATION, замена фиксируется только в истории.
func TestCreateReplacement_PendingLiquidationKeepsStatus(t *testing.T) {
	f := newReplacementFixture()
	oldDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-062", Status: constants.DevicePendingLiquidation})
	newDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-063", Status: constants.DeviceAvailable})

	_, err := f.svc.CreateReplacement(ctxWithUser(1), dto.CreateReplacementDTO{
		OldDeviceID: oldDevice.ID,
		NewDeviceID: newDevice.ID,
		Reason:      "замена перед списанием",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.DevicePendingLiquidation, f.devices.devices[oldDevice.ID].Status)
	assert.Equal(t, []string{constants.HistoryActionReplacedBy}, f.history.actionsForDevice(oldDevice.ID))
}

func TestCreateReplacement_WithoutAssignment(t *testing.T) {
	f := newReplacementFixture()
	oldDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-064", Status: constants.DeviceRepairing})
	newDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-065", Status: constants.DeviceAvailable})

	_, err := f.svc.CreateReplacement(ctxWithUser(1), dto.CreateReplacementDTO{
		OldDeviceID: oldDevice.ID,
		NewDeviceID: newDevice.ID,
		Reason:      "замена со склада",
	})
	require.NoError(t, err)

	// Выдачи не было — новое устройство остается на складе.
	assert.Equal(t, constants.DeviceAvailable, f.devices.devices[newDevice.ID].Status)
}

func TestCreateReplacement_SelfReplacement(t *testing.T) {
	f := newReplacementFixture()
	device := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-066", Status: constants.DeviceInUse})

	_, err := f.svc.CreateReplacement(ctxWithUser(1), dto.CreateReplacementDTO{
		OldDeviceID: device.ID,
		NewDeviceID: device.ID,
		Reason:      "ошибка оператора",
	})
	var invalidInput *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalidInput)
}

func TestCreateReplacement_OldDeviceNotReplaceable(t *testing.T) {
	f := newReplacementFixture()
	oldDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-067", Status: constants.DeviceAvailable})
	newDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-068", Status: constants.DeviceAvailable})

	_, err := f.svc.CreateReplacement(ctxWithUser(1), dto.CreateReplacementDTO{
		OldDeviceID: oldDevice.ID,
		NewDeviceID: newDevice.ID,
		Reason:      "нет основания",
	})
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

func TestCreateReplacement_NewDeviceNotAvailable(t *testing.T) {
	f := newReplacementFixture()
	oldDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-069", Status: constants.DeviceInUse})
	newDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-070", Status: constants.DeviceInUse})

	_, err := f.svc.CreateReplacement(ctxWithUser(1), dto.CreateReplacementDTO{
		OldDeviceID: oldDevice.ID,
		NewDeviceID: newDevice.ID,
		Reason:      "подмена",
	})
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

func TestCreateReplacement_ClosesLinkedIncident(t *testing.T) {
	f := newReplacementFixture()
	oldDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-071", Status: constants.DeviceRepairing})
	newDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-072", Status: constants.DeviceAvailable})
	incident := f.incidents.add(&entities.IncidentReport{
		DeviceID: oldDevice.ID, ReporterID: 2,
		ReportType: constants.IncidentTypeHardwareFailure,
		Status:     constants.IncidentRepairCreated,
	})

	incidentID := incident.ID
	_, err := f.svc.CreateReplacement(ctxWithUser(1), dto.CreateReplacementDTO{
		OldDeviceID: oldDevice.ID,
		NewDeviceID: newDevice.ID,
		Reason:      "не подлежит ремонту",
		IncidentID:  &incidentID,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.IncidentClosed, f.incidents.incidents[incidentID].Status)
}

func TestCreateReplacement_IncidentOfAnotherDevice(t *testing.T) {
	f := newReplacementFixture()
	oldDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-073", Status: constants.DeviceRepairing})
	newDevice := f.devices.add(&entities.Device{Name: "Ноутбук", SerialNumber: "SN-074", Status: constants.DeviceAvailable})
	other := f.devices.add(&entities.Device{Name: "Принтер", SerialNumber: "SN-075", Status: constants.DeviceInUse})
	incident := f.incidents.add(&entities.IncidentReport{
		DeviceID: other.ID, ReporterID: 2,
		ReportType: constants.IncidentTypeHardwareFailure,
		Status:     constants.IncidentPending,
	})

	incidentID := incident.ID
	_, err := f.svc.CreateReplacement(ctxWithUser(1), dto.CreateReplacementDTO{
		OldDeviceID: oldDevice.ID,
		NewDeviceID: newDevice.ID,
		Reason:      "путаница в заявках",
		IncidentID:  &incidentID,
	})
	var invalidInput *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalidInput)
}
