package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// Dashboard periods accepted by StatsService.Dashboard.
const (
	PeriodWeek     = "1w"
	PeriodMonth    = "1m"
	PeriodQuarter  = "3m"
	PeriodHalfYear = "6m"
)

const (
	agentTrendMonths   = 6
	agentTopCategories = 5
)

var monthLabels = [...]string{"Janv", "Fév", "Mars", "Avr", "Mai", "Juin", "Juil", "Août", "Sept", "Oct", "Nov", "Déc"}

// satisfactionScore weights ratings for the average, 5 being best.
var satisfactionScore = map[domain.Satisfaction]float64{
	domain.SatisfactionVerySatisfied:    5,
	domain.SatisfactionSatisfied:        4,
	domain.SatisfactionNeutral:          3,
	domain.SatisfactionDissatisfied:     2,
	domain.SatisfactionVeryDissatisfied: 1,
}

// StatsTotals are the dashboard headline numbers. Hours and minutes are
// rounded to two decimals, rates to one.
type StatsTotals struct {
	All                int
	Resolved           int
	New                int
	InProgress         int
	Overdue            int
	ResolutionRate     float64
	AvgResolutionHours float64
	AvgTimeSpent       float64
	Departments        int
	Categories         int
	Users              int
	Agents             int
	Clients            int
}

// GroupStats aggregates one category or one agent.
type GroupStats struct {
	ID                 string
	Name               string
	Total              int
	Resolved           int
	ResolutionRate     float64
	AvgResolutionHours float64
	AvgTimeSpent       float64
}

// TrendPoint is one month of the trend, zero-filled.
type TrendPoint struct {
	Year     int
	Month    time.Month
	Label    string
	Created  int
	Resolved int
}

// SatisfactionStats summarises client ratings. Average is nil without votes.
type SatisfactionStats struct {
	Distribution []repository.SatisfactionCount
	Votes        int
	Average      *float64
}

// Dashboard is the admin overview for a period.
type Dashboard struct {
	Period       string
	Since        time.Time
	Totals       StatsTotals
	ByCategory   []GroupStats
	Agents       []GroupStats
	Satisfaction SatisfactionStats
	Trend        []TrendPoint
}

// AgentDashboard is the personal view of one agent over all its tickets.
type AgentDashboard struct {
	Agent        *domain.User
	Department   *domain.Department
	Totals       StatsTotals
	TopCategory  []GroupStats
	Satisfaction SatisfactionStats
	Trend        []TrendPoint
}

// StatsService computes reporting aggregates.
type StatsService struct {
	stats       repository.StatsRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	logger      *zap.Logger
	now         func() time.Time
}

// StatsDependencies bundles collaborators for the stats service.
type StatsDependencies struct {
	StatsRepo      repository.StatsRepository
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	Logger         *zap.Logger
	Clock          func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &StatsService{
		stats:       deps.StatsRepo,
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		logger:      logger,
		now:         clock,
	}
}

// PeriodStart returns the first instant covered by period. An empty period
// means one month.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth, "":
		return now.AddDate(0, -1, 0), nil
	case PeriodQuarter:
		return now.AddDate(0, -3, 0), nil
	case PeriodHalfYear:
		return now.AddDate(0, -6, 0), nil
	}
	return time.Time{}, apperrors.NewValidationError("invalid period", map[string]any{
		"period":  period,
		"allowed": []string{PeriodWeek, PeriodMonth, PeriodQuarter, PeriodHalfYear},
	})
}

// Dashboard aggregates tickets opened during period. Catalogue and account
// counts are not period bound. Admin only.
func (s *StatsService) Dashboard(ctx context.Context, actor domain.Actor, period string) (*Dashboard, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may view the dashboard")
	}
	now := s.now().UTC()
	since, err := PeriodStart(period, now)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = PeriodMonth
	}
	filter := repository.StatsFilter{Since: &since, Now: now}

	totals, err := s.stats.Totals(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	population, err := s.stats.Population(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byCategory, err := s.stats.ByCategory(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	agents, err := s.stats.ByAgent(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	satisfaction, err := s.satisfaction(ctx, filter)
	if err != nil {
		return nil, err
	}
	trend, err := s.trend(ctx, filter, since, now)
	if err != nil {
		return nil, err
	}

	out := &Dashboard{
		Period:       period,
		Since:        since,
		Totals:       newStatsTotals(totals),
		ByCategory:   newGroupStats(byCategory),
		Agents:       newGroupStats(agents),
		Satisfaction: satisfaction,
		Trend:        trend,
	}
	out.Totals.Departments = population.Departments
	out.Totals.Categories = population.Categories
	out.Totals.Users = population.Users
	out.Totals.Agents = population.Agents
	out.Totals.Clients = population.Clients
	return out, nil
}

// AgentStats reports on the tickets assigned to the calling agent: all time
// totals, its five busiest categories and a six month trend.
func (s *StatsService) AgentStats(ctx context.Context, actor domain.Actor) (*AgentDashboard, error) {
	if actor.Role != domain.RoleAgent {
		return nil, apperrors.NewForbidden("agent statistics are reserved to agents")
	}
	agent, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": actor.ID})
	}
	now := s.now().UTC()
	filter := repository.StatsFilter{AgentID: &agent.ID, Now: now}

	totals, err := s.stats.Totals(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byCategory, err := s.stats.ByCategory(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(byCategory) > agentTopCategories {
		byCategory = byCategory[:agentTopCategories]
	}
	satisfaction, err := s.satisfaction(ctx, filter)
	if err != nil {
		return nil, err
	}
	since := now.AddDate(0, -agentTrendMonths, 0)
	trendFilter := filter
	trendFilter.Since = &since
	trend, err := s.trend(ctx, trendFilter, since, now)
	if err != nil {
		return nil, err
	}

	out := &AgentDashboard{
		Agent:        agent,
		Totals:       newStatsTotals(totals),
		TopCategory:  newGroupStats(byCategory),
		Satisfaction: satisfaction,
		Trend:        trend,
	}
	if agent.DepartmentID != nil {
		dept, err := s.departments.GetByID(ctx, *agent.DepartmentID)
		if err != nil {
			s.logger.Warn("agent department missing", zap.String("agent_id", agent.ID), zap.Error(err))
		} else {
			out.Department = dept
		}
	}
	return out, nil
}

func (s *StatsService) satisfaction(ctx context.Context, filter repository.StatsFilter) (SatisfactionStats, error) {
	counts, err := s.stats.Satisfaction(ctx, filter)
	if err != nil {
		return SatisfactionStats{}, apperrors.MapError(err)
	}
	out := SatisfactionStats{Distribution: counts}
	weighted := 0.0
	for _, c := range counts {
		out.Votes += c.Count
		weighted += satisfactionScore[c.Rating] * float64(c.Count)
	}
	if out.Votes > 0 {
		avg := round(weighted/float64(out.Votes), 2)
		out.Average = &avg
	}
	return out, nil
}

// trend fills every month between since and now, so charts keep gaps.
func (s *StatsService) trend(ctx context.Context, filter repository.StatsFilter, since, now time.Time) ([]TrendPoint, error) {
	counts, err := s.stats.Monthly(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	type key struct {
		year  int
		month time.Month
	}
	byMonth := make(map[key]repository.MonthlyCount, len(counts))
	for _, c := range counts {
		byMonth[key{c.Year, c.Month}] = c
	}

	var out []TrendPoint
	cursor := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(last) {
		c := byMonth[key{cursor.Year(), cursor.Month()}]
		out = append(out, TrendPoint{
			Year:     cursor.Year(),
			Month:    cursor.Month(),
			Label:    fmt.Sprintf("%s %d", monthLabels[cursor.Month()-1], cursor.Year()),
			Created:  c.Created,
			Resolved: c.Resolved,
		})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return out, nil
}

func newStatsTotals(t repository.TicketTotals) StatsTotals {
	return StatsTotals{
		All:                t.All,
		Resolved:           t.Resolved,
		New:                t.New,
		InProgress:         t.InProgress,
		Overdue:            t.Overdue,
		ResolutionRate:     rate(t.Resolved, t.All),
		AvgResolutionHours: round(t.AvgResolutionHours, 2),
		AvgTimeSpent:       round(t.AvgTimeSpent, 2),
	}
}

func newGroupStats(groups []repository.TicketGroup) []GroupStats {
	out := make([]GroupStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupStats{
			ID:                 g.ID,
			Name:               g.Name,
			Total:              g.Total,
			Resolved:           g.Resolved,
			ResolutionRate:     rate(g.Resolved, g.Total),
			AvgResolutionHours: round(g.AvgResolutionHours, 2),
			AvgTimeSpent:       round(g.AvgTimeSpent, 2),
		})
	}
	return out
}

// rate is part/total as a percentage with one decimal.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(part)/float64(total)*100, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
