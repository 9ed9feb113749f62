package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	"asset-system/pkg/contextkeys"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/eventbus"
	"asset-system/pkg/types"
)

// Фейковые репозитории с состоянием в памяти. Повторяют контрактное поведение
// настоящих: ноль затронутых строк при несовпадении ожидаемого статуса —
// ErrStateConflict, отсутствие записи — соответствующий ErrXxxNotFound,
// вторая активная выдача на устройство — конфликт (как частичный уникальный
// индекс в БД).

func ctxWithUser(userID uint64) context.Context {
	return context.WithValue(context.Background(), contextkeys.UserIDKey, userID)
}

func newTestBus() *eventbus.Bus {
	return eventbus.New(zap.NewNop())
}

// txStore умеет сохранить свое состояние и вернуть функцию отката к нему.
type txStore interface {
	snapshot() func()
}

// fakeTxManager повторяет откатную семантику настоящих транзакций: перед fn
// снимает слепок состояния переданных хранилищ, при ошибке восстанавливает его.
// Без этого частичные записи неудачной операции оставались бы видимыми.
type fakeTxManager struct {
	stores []txStore
}

func newFakeTxManager(stores ...txStore) *fakeTxManager {
	return &fakeTxManager{stores: stores}
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	restores := make([]func(), len(m.stores))
	for i, s := range m.stores {
		restores[i] = s.snapshot()
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

//============== УСТРОЙСТВА ==============

type fakeDeviceRepo struct {
	devices map[uint64]*entities.Device
	nextID  uint64
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[uint64]*entities.Device), nextID: 1}
}

func (r *fakeDeviceRepo) add(device *entities.Device) *entities.Device {
	if device.ID == 0 {
		device.ID = r.nextID
	}
	if device.ID >= r.nextID {
		r.nextID = device.ID + 1
	}
	r.devices[device.ID] = device
	return device
}

func (r *fakeDeviceRepo) snapshot() func() {
	saved := make(map[uint64]*entities.Device, len(r.devices))
	for id, d := range r.devices {
		copied := *d
		saved[id] = &copied
	}
	savedNext := r.nextID
	return func() { r.devices, r.nextID = saved, savedNext }
}

func (r *fakeDeviceRepo) GetDevices(ctx context.Context, filter types.Filter) ([]entities.Device, uint64, error) {
	out := make([]entities.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeDeviceRepo) FindByID(ctx context.Context, id uint64) (*entities.Device, error) {
	d, ok := r.devices[id]
	if !ok {
		return nil, apperrors.ErrDeviceNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDeviceRepo) FindByIDInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeDeviceRepo) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeDeviceRepo) Create(ctx context.Context, device *entities.Device) (uint64, error) {
	return r.add(device).ID, nil
}

func (r *fakeDeviceRepo) Update(ctx context.Context, id uint64, device *entities.Device) error {
	if _, ok := r.devices[id]; !ok {
		return apperrors.ErrDeviceNotFound
	}
	device.ID = id
	r.devices[id] = device
	return nil
}

func (r *fakeDeviceRepo) SoftDelete(ctx context.Context, id uint64) error {
	if _, ok := r.devices[id]; !ok {
		return apperrors.ErrDeviceNotFound
	}
	delete(r.devices, id)
	return nil
}

func (r *fakeDeviceRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.DeviceStatus) error {
	d, ok := r.devices[id]
	if !ok || d.Status != from {
		return apperrors.ErrStateConflict
	}
	d.Status = to
	return nil
}

func (r *fakeDeviceRepo) SetHolderInTx(ctx context.Context, tx pgx.Tx, id uint64, holderUserID, holderDepartmentID null.Uint64) error {
	d, ok := r.devices[id]
	if !ok {
		return apperrors.ErrDeviceNotFound
	}
	d.HolderUserID = holderUserID
	d.HolderDepartmentID = holderDepartmentID
	return nil
}

func (r *fakeDeviceRepo) ClearHolderInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.SetHolderInTx(ctx, tx, id, null.Uint64{}, null.Uint64{})
}

//============== ВЫДАЧИ ==============

type fakeAssignmentRepo struct {
	assignments map[uint64]*entities.Assignment
	nextID      uint64
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uint64]*entities.Assignment), nextID: 1}
}

func (r *fakeAssignmentRepo) add(a *entities.Assignment) *entities.Assignment {
	if a.ID == 0 {
		a.ID = r.nextID
	}
	if a.ID >= r.nextID {
		r.nextID = a.ID + 1
	}
	r.assignments[a.ID] = a
	return a
}

func (r *fakeAssignmentRepo) snapshot() func() {
	saved := make(map[uint64]*entities.Assignment, len(r.assignments))
	for id, a := range r.assignments {
		copied := *a
		saved[id] = &copied
	}
	savedNext := r.nextID
	return func() { r.assignments, r.nextID = saved, savedNext }
}

func (r *fakeAssignmentRepo) GetAssignments(ctx context.Context, filter types.Filter) ([]entities.Assignment, uint64, error) {
	out := make([]entities.Assignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		out = append(out, *a)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeAssignmentRepo) FindByID(ctx context.Context, id uint64) (*entities.Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, apperrors.ErrAssignmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAssignmentRepo) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Assignment, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeAssignmentRepo) FindActiveByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (*entities.Assignment, error) {
	for _, a := range r.assignments {
		if a.DeviceID == deviceID && !a.ReturnedAt.Valid {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperrors.ErrAssignmentNotFound
}

func (r *fakeAssignmentRepo) CreateInTx(ctx context.Context, tx pgx.Tx, a *entities.Assignment) (uint64, error) {
	// Имитация частичного уникального индекса uq_assignments_active.
	for _, existing := range r.assignments {
		if existing.DeviceID == a.DeviceID && !existing.ReturnedAt.Valid {
			return 0, apperrors.ErrStateConflict
		}
	}
	return r.add(a).ID, nil
}

func (r *fakeAssignmentRepo) CloseInTx(ctx context.Context, tx pgx.Tx, id uint64, returnedAt time.Time) error {
	a, ok := r.assignments[id]
	if !ok || a.ReturnedAt.Valid {
		return apperrors.ErrStateConflict
	}
	a.ReturnedAt = null.TimeFrom(returnedAt)
	return nil
}

//============== ЗАЯВКИ ==============

type fakeIncidentRepo struct {
	incidents map[uint64]*entities.IncidentReport
	nextID    uint64
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{incidents: make(map[uint64]*entities.IncidentReport), nextID: 1}
}

func (r *fakeIncidentRepo) add(i *entities.IncidentReport) *entities.IncidentReport {
	if i.ID == 0 {
		i.ID = r.nextID
	}
	if i.ID >= r.nextID {
		r.nextID = i.ID + 1
	}
	r.incidents[i.ID] = i
	return i
}

func (r *fakeIncidentRepo) snapshot() func() {
	saved := make(map[uint64]*entities.IncidentReport, len(r.incidents))
	for id, i := range r.incidents {
		copied := *i
		saved[id] = &copied
	}
	savedNext := r.nextID
	return func() { r.incidents, r.nextID = saved, savedNext }
}

func (r *fakeIncidentRepo) GetIncidents(ctx context.Context, filter types.Filter) ([]entities.IncidentReport, uint64, error) {
	out := make([]entities.IncidentReport, 0, len(r.incidents))
	for _, i := range r.incidents {
		out = append(out, *i)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeIncidentRepo) FindByID(ctx context.Context, id uint64) (*entities.IncidentReport, error) {
	i, ok := r.incidents[id]
	if !ok {
		return nil, apperrors.ErrIncidentNotFound
	}
	copied := *i
	return &copied, nil
}

func (r *fakeIncidentRepo) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.IncidentReport, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeIncidentRepo) HasOpenByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error) {
	for _, i := range r.incidents {
		if i.DeviceID == deviceID && i.Status.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeIncidentRepo) HasOpenLiquidationTriggerInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error) {
	for _, i := range r.incidents {
		if i.DeviceID == deviceID && i.Status.IsOpen() && i.ReportType.TriggersLiquidation() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeIncidentRepo) CreateInTx(ctx context.Context, tx pgx.Tx, incident *entities.IncidentReport) (uint64, error) {
	// Имитация частичного уникального индекса uq_incidents_open.
	for _, existing := range r.incidents {
		if existing.DeviceID == incident.DeviceID && existing.Status.IsOpen() {
			return 0, apperrors.ErrStateConflict
		}
	}
	return r.add(incident).ID, nil
}

func (r *fakeIncidentRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.IncidentStatus) error {
	i, ok := r.incidents[id]
	if !ok || i.Status != from {
		return apperrors.ErrStateConflict
	}
	i.Status = to
	return nil
}

func (r *fakeIncidentRepo) RejectInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string, rejectedBy uint64) error {
	i, ok := r.incidents[id]
	if !ok || i.Status != constants.IncidentPending {
		return apperrors.ErrStateConflict
	}
	i.Status = constants.IncidentRejected
	i.RejectReason = null.StringFrom(reason)
	i.RejectedBy = null.Uint64From(rejectedBy)
	i.RejectedAt = null.TimeFrom(time.Now())
	return nil
}

//============== РЕМОНТЫ ==============

type fakeRepairRepo struct {
	repairs map[uint64]*entities.RepairOrder
	nextID  uint64
}

func newFakeRepairRepo() *fakeRepairRepo {
	return &fakeRepairRepo{repairs: make(map[uint64]*entities.RepairOrder), nextID: 1}
}

func (r *fakeRepairRepo) add(repair *entities.RepairOrder) *entities.RepairOrder {
	if repair.ID == 0 {
		repair.ID = r.nextID
	}
	if repair.ID >= r.nextID {
		r.nextID = repair.ID + 1
	}
	r.repairs[repair.ID] = repair
	return repair
}

func (r *fakeRepairRepo) snapshot() func() {
	saved := make(map[uint64]*entities.RepairOrder, len(r.repairs))
	for id, repair := range r.repairs {
		copied := *repair
		saved[id] = &copied
	}
	savedNext := r.nextID
	return func() { r.repairs, r.nextID = saved, savedNext }
}

func (r *fakeRepairRepo) GetRepairs(ctx context.Context, filter types.Filter) ([]entities.RepairOrder, uint64, error) {
	out := make([]entities.RepairOrder, 0, len(r.repairs))
	for _, repair := range r.repairs {
		out = append(out, *repair)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeRepairRepo) FindByID(ctx context.Context, id uint64) (*entities.RepairOrder, error) {
	repair, ok := r.repairs[id]
	if !ok {
		return nil, apperrors.ErrRepairNotFound
	}
	copied := *repair
	return &copied, nil
}

func (r *fakeRepairRepo) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairOrder, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeRepairRepo) CreateInTx(ctx context.Context, tx pgx.Tx, repair *entities.RepairOrder) (uint64, error) {
	return r.add(repair).ID, nil
}

func (r *fakeRepairRepo) HasActiveByDeviceIDInTx(ctx context.Context, tx pgx.Tx, deviceID uint64) (bool, error) {
	for _, repair := range r.repairs {
		if repair.DeviceID == deviceID && repair.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepairRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to constants.RepairStatus) error {
	repair, ok := r.repairs[id]
	if !ok || repair.Status != from {
		return apperrors.ErrStateConflict
	}
	repair.Status = to
	return nil
}

func (r *fakeRepairRepo) SetTechnicianInTx(ctx context.Context, tx pgx.Tx, id uint64, technicianID uint64) error {
	repair, ok := r.repairs[id]
	if !ok {
		return apperrors.ErrRepairNotFound
	}
	repair.TechnicianID = null.Uint64From(technicianID)
	return nil
}

func (r *fakeRepairRepo) CompleteInTx(ctx context.Context, tx pgx.Tx, id uint64, description string, cost float64, laborHours null.Float64, vendor null.String, images []string) error {
	repair, ok := r.repairs[id]
	if !ok || repair.Status != constants.RepairInProgress {
		return apperrors.ErrStateConflict
	}
	repair.Status = constants.RepairPendingApproval
	repair.Description = null.StringFrom(description)
	repair.Cost = null.Float64From(cost)
	repair.LaborHours = laborHours
	repair.Vendor = vendor
	repair.Images = images
	return nil
}

func (r *fakeRepairRepo) SetRejectReasonInTx(ctx context.Context, tx pgx.Tx, id uint64, reason string) error {
	repair, ok := r.repairs[id]
	if !ok {
		return apperrors.ErrRepairNotFound
	}
	repair.RejectReason = null.StringFrom(reason)
	return nil
}

//============== ЗАМЕНЫ И СПИСАНИЯ ==============

type fakeReplacementRepo struct {
	replacements map[uint64]*entities.Replacement
	nextID       uint64
}

func newFakeReplacementRepo() *fakeReplacementRepo {
	return &fakeReplacementRepo{replacements: make(map[uint64]*entities.Replacement), nextID: 1}
}

func (r *fakeReplacementRepo) snapshot() func() {
	saved := make(map[uint64]*entities.Replacement, len(r.replacements))
	for id, rep := range r.replacements {
		copied := *rep
		saved[id] = &copied
	}
	savedNext := r.nextID
	return func() { r.replacements, r.nextID = saved, savedNext }
}

func (r *fakeReplacementRepo) CreateInTx(ctx context.Context, tx pgx.Tx, replacement *entities.Replacement) (uint64, error) {
	replacement.ID = r.nextID
	r.nextID++
	r.replacements[replacement.ID] = replacement
	return replacement.ID, nil
}

func (r *fakeReplacementRepo) GetReplacements(ctx context.Context, filter types.Filter) ([]entities.Replacement, uint64, error) {
	out := make([]entities.Replacement, 0, len(r.replacements))
	for _, rep := range r.replacements {
		out = append(out, *rep)
	}
	return out, uint64(len(out)), nil
}

type fakeLiquidationRepo struct {
	liquidations map[uint64]*entities.Liquidation
	eligible     []repositories.EligibleDeviceRow
	nextID       uint64
}

func newFakeLiquidationRepo() *fakeLiquidationRepo {
	return &fakeLiquidationRepo{liquidations: make(map[uint64]*entities.Liquidation), nextID: 1}
}

func (r *fakeLiquidationRepo) snapshot() func() {
	saved := make(map[uint64]*entities.Liquidation, len(r.liquidations))
	for id, l := range r.liquidations {
		copied := *l
		saved[id] = &copied
	}
	savedNext := r.nextID
	return func() { r.liquidations, r.nextID = saved, savedNext }
}

func (r *fakeLiquidationRepo) CreateInTx(ctx context.Context, tx pgx.Tx, liquidation *entities.Liquidation) (uint64, error) {
	liquidation.ID = r.nextID
	r.nextID++
	r.liquidations[liquidation.ID] = liquidation
	return liquidation.ID, nil
}

func (r *fakeLiquidationRepo) GetLiquidations(ctx context.Context, filter types.Filter) ([]entities.Liquidation, uint64, error) {
	out := make([]entities.Liquidation, 0, len(r.liquidations))
	for _, l := range r.liquidations {
		out = append(out, *l)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeLiquidationRepo) GetEligibleDevices(ctx context.Context, depreciationBefore time.Time) ([]repositories.EligibleDeviceRow, error) {
	return r.eligible, nil
}

//============== ИСТОРИЯ И ПОЛЬЗОВАТЕЛИ ==============

type fakeHistoryRepo struct {
	entries []entities.DeviceHistory
	users   *fakeUserRepo
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

// withUsers включает обогащение записей ФИО актора, как LEFT JOIN с users:
// для отсутствующего пользователя ФИО остается пустой строкой.
func (r *fakeHistoryRepo) withUsers(users *fakeUserRepo) *fakeHistoryRepo {
	r.users = users
	return r
}

func (r *fakeHistoryRepo) snapshot() func() {
	saved := append([]entities.DeviceHistory(nil), r.entries...)
	return func() { r.entries = saved }
}

func (r *fakeHistoryRepo) CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.DeviceHistory) error {
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepo) FindByDeviceID(ctx context.Context, deviceID uint64) ([]repositories.DeviceHistoryItem, error) {
	var out []repositories.DeviceHistoryItem
	for _, e := range r.entries {
		if e.DeviceID != deviceID {
			continue
		}
		item := repositories.DeviceHistoryItem{DeviceHistory: e}
		if r.users != nil {
			if u, ok := r.users.users[e.ActorID]; ok {
				item.ActorFio = u.Fio
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// actionsForDevice возвращает метки действий в порядке записи.
func (r *fakeHistoryRepo) actionsForDevice(deviceID uint64) []string {
	var out []string
	for _, e := range r.entries {
		if e.DeviceID == deviceID {
			out = append(out, e.Action)
		}
	}
	return out
}

type fakeUserRepo struct {
	users map[uint64]*entities.User
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint64]*entities.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) FindByLogin(ctx context.Context, login string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Login == login {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) FindUsersByIDs(ctx context.Context, ids []uint64) (map[uint64]entities.User, error) {
	out := make(map[uint64]entities.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.User) (uint64, error) {
	r.users[user.ID] = user
	return user.ID, nil
}
