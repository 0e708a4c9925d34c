package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
)

func TestStatsTotalsBindsScope(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	since := now.AddDate(0, -1, 0)
	agent := "agent-1"
	mock.ExpectQuery(regexp.QuoteMeta("t.start_date >= $2 AND t.assigned_agent_id = $3")).
		WithArgs(now, since, agent).
		WillReturnRows(mock.NewRows([]string{"all", "new", "in_progress", "resolved", "overdue", "avg_res", "avg_spent"}).
			AddRow(10, 2, 3, 5, 1, 12.5, 40.0))

	totals, err := NewStatsRepository(mock).Totals(context.Background(), StatsFilter{Since: &since, AgentID: &agent, Now: now})
	require.NoError(t, err)
	assert.Equal(t, TicketTotals{All: 10, New: 2, InProgress: 3, Resolved: 5, Overdue: 1, AvgResolutionHours: 12.5, AvgTimeSpent: 40}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsMonthlyAndSatisfaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY y, m")).
		WillReturnRows(mock.NewRows([]string{"y", "m", "created", "resolved"}).
			AddRow(2024, 4, 3, 1).
			AddRow(2024, 5, 2, 0))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.satisfaction IS NOT NULL AND 1=1")).
		WillReturnRows(mock.NewRows([]string{"satisfaction", "count"}).
			AddRow(domain.SatisfactionSatisfied, 4))

	repo := NewStatsRepository(mock)
	months, err := repo.Monthly(context.Background(), StatsFilter{})
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, MonthlyCount{Year: 2024, Month: time.April, Created: 3, Resolved: 1}, months[0])

	ratings, err := repo.Satisfaction(context.Background(), StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []SatisfactionCount{{Rating: domain.SatisfactionSatisfied, Count: 4}}, ratings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
