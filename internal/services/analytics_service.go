package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "framex/internal/errors"
	"framex/internal/export"
	"framex/internal/models"
	"framex/internal/report"
)

// analyticsService derives reports and exports from the entries a user may see.
type analyticsService struct {
	entries    EntryServicer
	users      UserServicer
	masterData MasterDataServicer
	company    CompanyServicer
	loc        *time.Location
}

// NewAnalyticsService creates a new AnalyticsServicer. loc decides month
// boundaries and export dates; nil means UTC.
func NewAnalyticsService(entries EntryServicer, users UserServicer, masterData MasterDataServicer, company CompanyServicer, loc *time.Location) AnalyticsServicer {
	if loc == nil {
		loc = time.UTC
	}
	return &analyticsService{
		entries:    entries,
		users:      users,
		masterData: masterData,
		company:    company,
		loc:        loc,
	}
}

// Summary aggregates the visible entries into the chart series and totals.
func (s *analyticsService) Summary(user *models.User) (*Summary, error) {
	entries, err := s.entries.VisibleTo(user)
	if err != nil {
		return nil, err
	}

	payments, receipts := report.Totals(entries)
	return &Summary{
		ByCategory:    report.ByCategory(entries),
		ByMonth:       report.ByMonth(entries, s.loc),
		TotalPayments: payments,
		TotalReceipts: receipts,
		EntryCount:    len(entries),
	}, nil
}

// Export renders the visible entries, newest first, in the given format.
func (s *analyticsService) Export(user *models.User, format export.Format) ([]byte, error) {
	entries, err := s.entries.VisibleTo(user)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if user.IsAdmin() {
		if users, err = s.users.ListUsers(); err != nil {
			return nil, err
		}
	}

	data, err := export.Render(format, entries, users, export.Options{Role: user.Role, Location: s.loc})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return data, nil
}

// Bootstrap loads the user list, visible entries, company record and master
// data concurrently. Non-admins only receive their own user record.
func (s *analyticsService) Bootstrap(ctx context.Context, user *models.User) (*Bootstrap, error) {
	out := &Bootstrap{User: user}
	g, gctx := errgroup.WithContext(ctx)

	// Loads that have not started yet are skipped once a sibling fails.
	load := func(fn func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	load(func() error {
		if !user.IsAdmin() {
			out.Users = []models.User{*user}
			return nil
		}
		users, err := s.users.ListUsers()
		out.Users = users
		return err
	})
	load(func() error {
		entries, err := s.entries.VisibleTo(user)
		out.Entries = entries
		return err
	})
	load(func() error {
		company, err := s.company.GetCompanyInfo()
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			return nil
		}
		out.Company = company
		return err
	})
	load(func() error {
		masterData, err := s.masterData.ListAllMasterData()
		out.MasterData = masterData
		return err
	})

	if err := g.Wait(); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return out, nil
}
