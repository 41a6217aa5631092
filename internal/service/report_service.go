package service

import (
	"context"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/repository"
	"github.com/segyhp/lending-core/pkg/utils"

	"github.com/sirupsen/logrus"
)

// ReportService serves read-only portfolio reports to staff.
type ReportService struct {
	uow   repository.UnitOfWork
	clock Clock
	log   *logrus.Logger
}

func NewReportService(uow repository.UnitOfWork, clock Clock, log *logrus.Logger) *ReportService {
	return &ReportService{
		uow:   uow,
		clock: clock,
		log:   log,
	}
}

// Portfolio summarises the book as of today. Installments still pending after
// their due day count as overdue even before the scheduler marks them late.
func (s *ReportService) Portfolio(ctx context.Context, actor Actor) (stats *domain.PortfolioStats, err error) {
	today := utils.StartOfDay(s.clock.Now())
	defer func() { observe(s.log, "portfolio_report", err, logrus.Fields{"as_of": today}) }()

	if err = authorize(actor, staffRoles...); err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		portfolio, err := repos.Stats.Portfolio(ctx, today)
		if err != nil {
			return err
		}
		stats = portfolio
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
