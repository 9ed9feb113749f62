package services

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
)

type repairFixture struct {
	svc       RepairServiceInterface
	devices   *fakeDeviceRepo
	repairs   *fakeRepairRepo
	incidents *fakeIncidentRepo
	history   *fakeHistoryRepo
	users     *fakeUserRepo
}

func newRepairFixture() *repairFixture {
	f := &repairFixture{
		devices:   newFakeDeviceRepo(),
		repairs:   newFakeRepairRepo(),
		incidents: newFakeIncidentRepo(),
		history:   newFakeHistoryRepo(),
		users: newFakeUserRepo(
			&entities.User{ID: 1, Fio: "Админ", Login: "admin", Role: constants.RoleAdmin},
			&entities.User{ID: 5, Fio: "Техник", Login: "tech", Role: constants.RoleTechnician},
			&entities.User{ID: 6, Fio: "Другой техник", Login: "tech2", Role: constants.RoleTechnician},
		),
	}
	f.svc = NewRepairService(
		newFakeTxManager(f.repairs, f.devices, f.incidents, f.history),
		f.repairs, f.devices, f.incidents, f.history, f.users,
		newTestBus(), zap.NewNop(),
	)
	return f
}

// seedRepair кладет в фейки устройство в REPAIRING и заказ в заданном статусе.
func (f *repairFixture) seedRepair(status constants.RepairStatus, technicianID null.Uint64) *entities.RepairOrder {
	device := f.devices.add(&entities.Device{Name: "Сканер", SerialNumber: "SN-020", Status: constants.DeviceRepairing})
	return f.repairs.add(&entities.RepairOrder{
		DeviceID:     device.ID,
		Status:       status,
		TechnicianID: technicianID,
	})
}

func TestCreateRepair_MovesDeviceToRepairing(t *testing.T) {
	f := newRepairFixture()
	device := f.devices.add(&entities.Device{Name: "Сканер", SerialNumber: "SN-020", Status: constants.DeviceInUse})

	id, err := f.svc.CreateRepair(ctxWithUser(1), dto.CreateRepairDTO{
		DeviceID:     device.ID,
		TechnicianID: uintPtr(5),
		Description:  "профилактика",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.DeviceRepairing, f.devices.devices[device.ID].Status)
	repair := f.repairs.repairs[id]
	assert.Equal(t, constants.RepairPendingExecution, repair.Status)
	assert.Equal(t, uint64(5), repair.TechnicianID.Uint64)
}

func TestCreateRepair_TechnicianRoleRequired(t *testing.T) {
	f := newRepairFixture()
	device := f.devices.add(&entities.Device{Name: "Сканер", SerialNumber: "SN-020", Status: constants.DeviceInUse})

	_, err := f.svc.CreateRepair(ctxWithUser(1), dto.CreateRepairDTO{
		DeviceID:     device.ID,
		TechnicianID: uintPtr(1), // админ, не техник
	})
	var invalidInput *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalidInput)
}

// Списанное, замененное, утерянное или уже ремонтируемое устройство
// в ремонт не принимается.
func TestCreateRepair_TerminalDeviceStatusConflicts(t *testing.T) {
	f := newRepairFixture()
	for _, status := range []constants.DeviceStatus{
		constants.DeviceLiquidated, constants.DeviceReplaced,
		constants.DeviceLost, constants.DeviceRepairing,
	} {
		device := f.devices.add(&entities.Device{Name: "Сканер", SerialNumber: "SN-" + status.String(), Status: status})

		_, err := f.svc.CreateRepair(ctxWithUser(1), dto.CreateRepairDTO{
			DeviceID:    device.ID,
			Description: "профилактика",
		})
		assert.ErrorIs(t, err, apperrors.ErrStateConflict, status.String())
		assert.Equal(t, status, f.devices.devices[device.ID].Status, status.String())
	}
	assert.Empty(t, f.repairs.repairs)
}

func TestAssignTechnician_OnlyPendingExecution(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairInProgress, null.Uint64From(5))

	err := f.svc.AssignTechnician(ctxWithUser(1), repair.ID, dto.AssignTechnicianDTO{TechnicianID: 6})
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

func TestAcceptRepair_UnassignedTakenByActor(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairPendingExecution, null.Uint64{})

	require.NoError(t, f.svc.AcceptRepair(ctxWithUser(5), repair.ID))

	// Принявший техник становится исполнителем.
	assert.Equal(t, constants.RepairInProgress, f.repairs.repairs[repair.ID].Status)
	assert.Equal(t, uint64(5), f.repairs.repairs[repair.ID].TechnicianID.Uint64)
}

func TestAcceptRepair_ForeignTechnicianForbidden(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairPendingExecution, null.Uint64From(5))

	err := f.svc.AcceptRepair(ctxWithUser(6), repair.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, constants.RepairPendingExecution, f.repairs.repairs[repair.ID].Status)
}

func TestAcceptRepair_WrongStatus(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairCompleted, null.Uint64From(5))

	err := f.svc.AcceptRepair(ctxWithUser(5), repair.ID)
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

func TestCompleteRepair_Success(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairInProgress, null.Uint64From(5))

	hours := 3.5
	err := f.svc.CompleteRepair(ctxWithUser(5), repair.ID, dto.CompleteRepairDTO{
		Description: "заменен блок питания",
		Cost:        1200,
		LaborHours:  &hours,
		Vendor:      "СЦ Ремонт-Сервис",
		Images:      []string{"repairs/abc.jpg"},
	})
	require.NoError(t, err)

	got := f.repairs.repairs[repair.ID]
	assert.Equal(t, constants.RepairPendingApproval, got.Status)
	assert.Equal(t, 1200.0, got.Cost.Float64)
	assert.Equal(t, 3.5, got.LaborHours.Float64)
	assert.Equal(t, "СЦ Ремонт-Сервис", got.Vendor.String)
}

func TestCompleteRepair_ForeignTechnicianForbidden(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairInProgress, null.Uint64From(5))

	err := f.svc.CompleteRepair(ctxWithUser(6), repair.ID, dto.CompleteRepairDTO{
		Description: "что-то сделал", Cost: 10,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestConfirmCompletion_ClosesChain(t *testing.T) {
	f := newRepairFixture()
	device := f.devices.add(&entities.Device{Name: "Сканер", SerialNumber: "SN-020", Status: constants.DeviceRepairing})
	incident := f.incidents.add(&entities.IncidentReport{
		DeviceID: device.ID, ReporterID: 2,
		ReportType: constants.IncidentTypeHardwareFailure,
		Status:     constants.IncidentRepairCreated,
	})
	repair := f.repairs.add(&entities.RepairOrder{
		DeviceID:     device.ID,
		IncidentID:   null.Uint64From(incident.ID),
		TechnicianID: null.Uint64From(5),
		Status:       constants.RepairPendingApproval,
		Cost:         null.Float64From(1200),
	})

	require.NoError(t, f.svc.ConfirmCompletion(ctxWithUser(1), repair.ID))

	// Заказ завершен, устройство вернулось в эксплуатацию, заявка закрыта.
	assert.Equal(t, constants.RepairCompleted, f.repairs.repairs[repair.ID].Status)
	assert.Equal(t, constants.DeviceInUse, f.devices.devices[device.ID].Status)
	assert.Equal(t, constants.IncidentClosed, f.incidents.incidents[incident.ID].Status)
}

func TestConfirmCompletion_WrongStatus(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairInProgress, null.Uint64From(5))

	err := f.svc.ConfirmCompletion(ctxWithUser(1), repair.ID)
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

func TestRejectRepair_DeviceStaysRepairing(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairInProgress, null.Uint64From(5))

	require.NoError(t, f.svc.RejectRepair(ctxWithUser(5), repair.ID, dto.RejectRepairDTO{Reason: "неремонтопригодно"}))

	got := f.repairs.repairs[repair.ID]
	assert.Equal(t, constants.RepairRejected, got.Status)
	assert.Equal(t, "неремонтопригодно", got.RejectReason.String)
	// Устройство остается в своем неисправном состоянии.
	assert.Equal(t, constants.DeviceRepairing, f.devices.devices[repair.DeviceID].Status)
}

func TestMarkNotNeeded_ReturnsDeviceToUse(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairPendingExecution, null.Uint64From(5))

	require.NoError(t, f.svc.MarkNotNeeded(ctxWithUser(5), repair.ID, dto.NotNeededRepairDTO{Note: "ложная тревога"}))

	assert.Equal(t, constants.RepairNotNeeded, f.repairs.repairs[repair.ID].Status)
	assert.Equal(t, constants.DeviceInUse, f.devices.devices[repair.DeviceID].Status)
}

func TestMarkNotNeeded_TerminalStatusConflicts(t *testing.T) {
	f := newRepairFixture()
	repair := f.seedRepair(constants.RepairRejected, null.Uint64From(5))

	err := f.svc.MarkNotNeeded(ctxWithUser(5), repair.ID, dto.NotNeededRepairDTO{Note: "поздно"})
	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
}

// Полный путь заказа: создание через заявку, принятие, сдача, подтверждение.
func TestRepair_FullLifecycle(t *testing.T) {
	f := newRepairFixture()
	device := f.devices.add(&entities.Device{Name: "Сканер", SerialNumber: "SN-020", Status: constants.DeviceInUse})
	incidentSvc := NewIncidentService(
		newFakeTxManager(f.incidents, f.devices, f.repairs, f.history),
		f.incidents, f.devices, f.repairs, f.history,
		newTestBus(), zap.NewNop(),
	)

	incidentID, err := incidentSvc.CreateIncident(ctxWithUser(2), dto.CreateIncidentDTO{
		DeviceID:    device.ID,
		ReportType:  string(constants.IncidentTypeHardwareFailure),
		Description: "полосит при сканировании",
	})
	require.NoError(t, err)

	repairID, err := incidentSvc.ApproveIncident(ctxWithUser(1), incidentID)
	require.NoError(t, err)

	require.NoError(t, f.svc.AcceptRepair(ctxWithUser(5), repairID))
	require.NoError(t, f.svc.CompleteRepair(ctxWithUser(5), repairID, dto.CompleteRepairDTO{
		Description: "чистка и калибровка", Cost: 500,
	}))
	require.NoError(t, f.svc.ConfirmCompletion(ctxWithUser(1), repairID))

	assert.Equal(t, constants.RepairCompleted, f.repairs.repairs[repairID].Status)
	assert.Equal(t, constants.IncidentClosed, f.incidents.incidents[incidentID].Status)
	assert.Equal(t, constants.DeviceInUse, f.devices.devices[device.ID].Status)
	assert.Equal(t, []string{
		constants.HistoryActionIncidentReported,
		constants.HistoryActionIncidentApproved,
		constants.HistoryActionRepairAccepted,
		constants.HistoryActionRepairCompleted,
		constants.HistoryActionRepairConfirmed,
	}, f.history.actionsForDevice(device.ID))
}
