package audit

import (
	"context"
	"fmt"
)

// Repository reads audit entries of one owner.
type Repository interface {
	Window(ctx context.Context, ownerID int64, filters TimelineFilters, offset, limit int) ([]TimelineRow, error)
	All(ctx context.Context, ownerID int64, filters TimelineFilters) ([]TimelineRow, error)
}

// Service coordinates timeline reads.
type Service struct {
	repo Repository
}

// NewService builds the timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of the owner's activity, newest first.
func (s *Service) Timeline(ctx context.Context, ownerID int64, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	// One extra row tells whether a next page exists.
	rows, err := s.repo.Window(ctx, ownerID, filters, (page-1)*pageSize, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns the whole filtered timeline.
func (s *Service) Export(ctx context.Context, ownerID int64, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.All(ctx, ownerID, filters)
}
