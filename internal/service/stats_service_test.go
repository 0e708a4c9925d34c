package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

func (f *fixture) statsService() *StatsService {
	return NewStatsService(StatsDependencies{
		StatsRepo:      f.store.Stats(),
		UserRepo:       f.store.Users(),
		DepartmentRepo: f.store.Departments(),
		Clock:          f.clock.Now,
	})
}

func TestDashboardAggregatesPeriod(t *testing.T) {
	f := newFixture(t)
	start := f.clock.Now()

	f.clock.Set(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	f.createTicket(t)
	f.clock.Set(start)

	closedOne := f.createTicket(t)
	working := f.createTicket(t)
	due := start.Add(time.Hour)
	_, err := f.tickets.CreateTicket(f.ctx, f.client.Actor(), TicketCreateInput{
		Title:        "Imprimante",
		Description:  "L'imprimante du deuxième étage bloque",
		DepartmentID: f.it.ID,
		CategoryID:   f.category.ID,
		DueDate:      &due,
		TimeSpent:    30,
	})
	require.NoError(t, err)
	_, err = f.tickets.UpdateTicket(f.ctx, f.admin.Actor(), working.ID, TicketPatch{Status: domain.Some(domain.TicketStatusInProgress)})
	require.NoError(t, err)

	f.clock.Set(start.Add(4 * time.Hour))
	rating := domain.SatisfactionVerySatisfied
	_, err = f.tickets.CloseTicket(f.ctx, f.admin.Actor(), closedOne.ID, CloseInput{Satisfaction: &rating})
	require.NoError(t, err)

	svc := f.statsService()
	_, err = svc.Dashboard(f.ctx, f.agentIT.Actor(), PeriodMonth)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = svc.Dashboard(f.ctx, f.admin.Actor(), "2y")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	dash, err := svc.Dashboard(f.ctx, f.admin.Actor(), "")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, dash.Period)
	assert.Equal(t, StatsTotals{
		All: 3, Resolved: 1, New: 1, InProgress: 1, Overdue: 1,
		ResolutionRate: 33.3, AvgResolutionHours: 4, AvgTimeSpent: 30,
		Departments: 2, Categories: 1, Users: 6, Agents: 3, Clients: 2,
	}, dash.Totals)

	require.Len(t, dash.ByCategory, 1)
	assert.Equal(t, "Informatique", dash.ByCategory[0].Name)
	assert.Equal(t, 3, dash.ByCategory[0].Total)

	assigned := 0
	for _, g := range dash.Agents {
		assigned += g.Total
	}
	assert.Equal(t, 3, assigned)
	assert.Equal(t, 1, dash.Agents[0].Resolved)

	require.NotNil(t, dash.Satisfaction.Average)
	assert.Equal(t, 5.0, *dash.Satisfaction.Average)
	assert.Equal(t, 1, dash.Satisfaction.Votes)

	require.Len(t, dash.Trend, 2)
	assert.Equal(t, "Avr 2024", dash.Trend[0].Label)
	assert.Zero(t, dash.Trend[0].Created)
	assert.Equal(t, TrendPoint{Year: 2024, Month: time.May, Label: "Mai 2024", Created: 3, Resolved: 1}, dash.Trend[1])

	half, err := svc.Dashboard(f.ctx, f.admin.Actor(), PeriodHalfYear)
	require.NoError(t, err)
	assert.Equal(t, 4, half.Totals.All)
	require.Len(t, half.Trend, 7)
	assert.Equal(t, 1, half.Trend[4].Created)
	assert.Equal(t, time.March, half.Trend[4].Month)
}

func TestDashboardWithoutTickets(t *testing.T) {
	f := newFixture(t)
	dash, err := f.statsService().Dashboard(f.ctx, f.admin.Actor(), PeriodWeek)
	require.NoError(t, err)
	assert.Zero(t, dash.Totals.All)
	assert.Zero(t, dash.Totals.ResolutionRate)
	assert.Nil(t, dash.Satisfaction.Average)
	assert.Empty(t, dash.ByCategory)
	assert.Len(t, dash.Trend, 2)
}

func TestAgentStatsCoverOwnTickets(t *testing.T) {
	f := newFixture(t)
	f.bump(t, f.agentIT2, 100)
	first := f.createTicket(t)
	f.createTicket(t)

	f.clock.Set(f.clock.Now().Add(2 * time.Hour))
	rating := domain.SatisfactionDissatisfied
	_, err := f.tickets.CloseTicket(f.ctx, f.agentIT.Actor(), first.ID, CloseInput{Satisfaction: &rating})
	require.NoError(t, err)

	svc := f.statsService()
	_, err = svc.AgentStats(f.ctx, f.admin.Actor())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	stats, err := svc.AgentStats(f.ctx, f.agentIT.Actor())
	require.NoError(t, err)
	assert.Equal(t, f.agentIT.ID, stats.Agent.ID)
	require.NotNil(t, stats.Department)
	assert.Equal(t, "Informatique", stats.Department.Name)
	assert.Equal(t, 2, stats.Totals.All)
	assert.Equal(t, 1, stats.Totals.Resolved)
	assert.Equal(t, 50.0, stats.Totals.ResolutionRate)
	assert.Equal(t, 2.0, stats.Totals.AvgResolutionHours)
	require.Len(t, stats.TopCategory, 1)
	assert.Len(t, stats.Trend, 7)
	require.NotNil(t, stats.Satisfaction.Average)
	assert.Equal(t, 2.0, *stats.Satisfaction.Average)

	other, err := svc.AgentStats(f.ctx, f.agentFac.Actor())
	require.NoError(t, err)
	assert.Zero(t, other.Totals.All)
}
