package audit

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows       []TimelineRow
	lastOwner  int64
	lastOffset int
	lastLimit  int
}

func (s *stubTimelineRepo) Window(_ context.Context, ownerID int64, _ TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	s.lastOwner, s.lastOffset, s.lastLimit = ownerID, offset, limit
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	if offset > end {
		return nil, nil
	}
	return s.rows[offset:end], nil
}

func (s *stubTimelineRepo) All(_ context.Context, ownerID int64, _ TimelineFilters) ([]TimelineRow, error) {
	s.lastOwner = ownerID
	return s.rows, nil
}

func sampleRows() []TimelineRow {
	at := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	return []TimelineRow{
		{At: at, Action: "sale.create", Entity: "sale", EntityID: "3", Meta: map[string]any{"quantity": 2}},
		{At: at.Add(-time.Hour), Action: "product.update", Entity: "product", EntityID: "1"},
		{At: at.Add(-2 * time.Hour), Action: "product.create", Entity: "product", EntityID: "1"},
	}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: sampleRows()}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), 7, TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Equal(t, 3, repo.lastLimit)
	require.Equal(t, 0, repo.lastOffset)
	require.Equal(t, int64(7), repo.lastOwner)

	result, err = svc.Timeline(context.Background(), 7, TimelineFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 1, result.Paging.PrevPage)
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	_, err := NewService(repo).Timeline(context.Background(), 7, TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, 51, repo.lastLimit)
}

func TestServiceWithoutRepository(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), 7, TimelineFilters{})
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteCSV(buf, sampleRows()[:1]))
	require.Equal(t,
		"Fecha,Acción,Entidad,ID,Detalle\n2024-03-10T10:00:00Z,Venta registrada,sale,3,\"{\"\"quantity\"\":2}\"\n",
		buf.String())
}
