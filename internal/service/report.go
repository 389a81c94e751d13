package service

import (
	"context"
	"fmt"

	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/model"
	"github.com/courierwatch/courier-tracker/internal/repository"
)

// ReportService is the read side used by reporting clients.
type ReportService struct {
	courierRepo repository.CourierRepository
	sessionRepo repository.SessionRepository
}

func NewReportService(
	courierRepo repository.CourierRepository,
	sessionRepo repository.SessionRepository,
) *ReportService {
	return &ReportService{
		courierRepo: courierRepo,
		sessionRepo: sessionRepo,
	}
}

// GetCourier returns nil when no courier has that name.
func (s *ReportService) GetCourier(ctx context.Context, name string) (*model.Courier, error) {
	courier, err := s.courierRepo.FindByName(ctx, name)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("find courier: %w", err))
	}
	return courier, nil
}

func (s *ReportService) ListCouriers(ctx context.Context, limit, offset int) ([]model.Courier, error) {
	couriers, err := s.courierRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("list couriers: %w", err))
	}
	if couriers == nil {
		couriers = []model.Courier{}
	}
	return couriers, nil
}

func (s *ReportService) ListSessions(ctx context.Context, limit, offset int) ([]model.Session, error) {
	sessions, err := s.sessionRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("list sessions: %w", err))
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}

func (s *ReportService) ListCourierSessions(ctx context.Context, name string) ([]model.Session, error) {
	courier, err := s.GetCourier(ctx, name)
	if err != nil {
		return nil, err
	}
	if courier == nil {
		return nil, apperrors.NotFound("Courier")
	}

	sessions, err := s.sessionRepo.FindByCourierID(ctx, courier.ID)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("list courier sessions: %w", err))
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}
