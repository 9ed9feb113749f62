package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/types"
)

// Сервисы справочников — тонкие обертки над репозиториями.

type DepartmentServiceInterface interface {
	GetDepartments(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error)
	FindDepartment(ctx context.Context, id uint64) (*entities.Department, error)
	CreateDepartment(ctx context.Context, payload dto.CreateDepartmentDTO) (uint64, error)
	UpdateDepartment(ctx context.Context, id uint64, payload dto.UpdateDepartmentDTO) error
	DeleteDepartment(ctx context.Context, id uint64) error
}

type DepartmentService struct {
	repo   repositories.DepartmentRepositoryInterface
	logger *zap.Logger
}

func NewDepartmentService(repo repositories.DepartmentRepositoryInterface, logger *zap.Logger) DepartmentServiceInterface {
	return &DepartmentService{repo: repo, logger: logger}
}

func (s *DepartmentService) GetDepartments(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error) {
	return s.repo.GetAll(ctx, filter)
}

func (s *DepartmentService) FindDepartment(ctx context.Context, id uint64) (*entities.Department, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *DepartmentService) CreateDepartment(ctx context.Context, payload dto.CreateDepartmentDTO) (uint64, error) {
	return s.repo.Create(ctx, payload.Name)
}

func (s *DepartmentService) UpdateDepartment(ctx context.Context, id uint64, payload dto.UpdateDepartmentDTO) error {
	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	name := dept.Name
	if payload.Name != nil {
		name = *payload.Name
	}
	return s.repo.Update(ctx, id, name)
}

func (s *DepartmentService) DeleteDepartment(ctx context.Context, id uint64) error {
	return s.repo.SoftDelete(ctx, id)
}

type DeviceTypeServiceInterface interface {
	GetDeviceTypes(ctx context.Context, filter types.Filter) ([]entities.DeviceType, uint64, error)
	FindDeviceType(ctx context.Context, id uint64) (*entities.DeviceType, error)
	CreateDeviceType(ctx context.Context, payload dto.CreateDeviceTypeDTO) (uint64, error)
	UpdateDeviceType(ctx context.Context, id uint64, payload dto.UpdateDeviceTypeDTO) error
	DeleteDeviceType(ctx context.Context, id uint64) error
}

type DeviceTypeService struct {
	repo   repositories.DeviceTypeRepositoryInterface
	logger *zap.Logger
}

func NewDeviceTypeService(repo repositories.DeviceTypeRepositoryInterface, logger *zap.Logger) DeviceTypeServiceInterface {
	return &DeviceTypeService{repo: repo, logger: logger}
}

func (s *DeviceTypeService) GetDeviceTypes(ctx context.Context, filter types.Filter) ([]entities.DeviceType, uint64, error) {
	return s.repo.GetAll(ctx, filter)
}

func (s *DeviceTypeService) FindDeviceType(ctx context.Context, id uint64) (*entities.DeviceType, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *DeviceTypeService) CreateDeviceType(ctx context.Context, payload dto.CreateDeviceTypeDTO) (uint64, error) {
	return s.repo.Create(ctx, payload.Name)
}

func (s *DeviceTypeService) UpdateDeviceType(ctx context.Context, id uint64, payload dto.UpdateDeviceTypeDTO) error {
	deviceType, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	name := deviceType.Name
	if payload.Name != nil {
		name = *payload.Name
	}
	return s.repo.Update(ctx, id, name)
}

func (s *DeviceTypeService) DeleteDeviceType(ctx context.Context, id uint64) error {
	return s.repo.SoftDelete(ctx, id)
}

type SupplierServiceInterface interface {
	GetSuppliers(ctx context.Context, filter types.Filter) ([]entities.Supplier, uint64, error)
	FindSupplier(ctx context.Context, id uint64) (*entities.Supplier, error)
	CreateSupplier(ctx context.Context, payload dto.CreateSupplierDTO) (uint64, error)
	UpdateSupplier(ctx context.Context, id uint64, payload dto.UpdateSupplierDTO) error
	DeleteSupplier(ctx context.Context, id uint64) error
}

type SupplierService struct {
	repo   repositories.SupplierRepositoryInterface
	logger *zap.Logger
}

func NewSupplierService(repo repositories.SupplierRepositoryInterface, logger *zap.Logger) SupplierServiceInterface {
	return &SupplierService{repo: repo, logger: logger}
}

func (s *SupplierService) GetSuppliers(ctx context.Context, filter types.Filter) ([]entities.Supplier, uint64, error) {
	return s.repo.GetAll(ctx, filter)
}

func (s *SupplierService) FindSupplier(ctx context.Context, id uint64) (*entities.Supplier, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *SupplierService) CreateSupplier(ctx context.Context, payload dto.CreateSupplierDTO) (uint64, error) {
	supplier := &entities.Supplier{Name: payload.Name}
	if payload.Phone != nil {
		supplier.Phone = null.StringFrom(*payload.Phone)
	}
	if payload.Address != nil {
		supplier.Address = null.StringFrom(*payload.Address)
	}
	return s.repo.Create(ctx, supplier)
}

func (s *SupplierService) UpdateSupplier(ctx context.Context, id uint64, payload dto.UpdateSupplierDTO) error {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if payload.Name != nil {
		supplier.Name = *payload.Name
	}
	if payload.Phone != nil {
		supplier.Phone = null.StringFrom(*payload.Phone)
	}
	if payload.Address != nil {
		supplier.Address = null.StringFrom(*payload.Address)
	}
	return s.repo.Update(ctx, id, supplier)
}

func (s *SupplierService) DeleteSupplier(ctx context.Context, id uint64) error {
	return s.repo.SoftDelete(ctx, id)
}
