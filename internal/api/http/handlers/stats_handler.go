package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/service"
)

// StatsHandler serves the reporting dashboards.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Dashboard GET /api/stats?period=1w|1m|3m|6m.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	dash, err := h.stats.Dashboard(c.UserContext(), principal.Actor(), c.Query("period"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Period:       dash.Period,
		Since:        dash.Since,
		Totals:       statsTotals(dash.Totals),
		ByCategory:   groupStats(dash.ByCategory),
		Agents:       groupStats(dash.Agents),
		Satisfaction: satisfactionStats(dash.Satisfaction),
		Trend:        trendPoints(dash.Trend),
	}})
}

// AgentStats GET /api/stats/agent.
func (h *StatsHandler) AgentStats(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.stats.AgentStats(c.UserContext(), principal.Actor())
	if err != nil {
		return err
	}
	resp := dto.AgentStatsResponse{
		Agent:        dto.NewUserResponse(stats.Agent),
		Totals:       statsTotals(stats.Totals),
		TopCategory:  groupStats(stats.TopCategory),
		Satisfaction: satisfactionStats(stats.Satisfaction),
		Trend:        trendPoints(stats.Trend),
	}
	if stats.Department != nil {
		dept := dto.NewDepartmentResponse(stats.Department)
		resp.Department = &dept
	}
	return c.JSON(fiber.Map{"data": resp})
}

func statsTotals(t service.StatsTotals) dto.StatsTotalsResponse {
	return dto.StatsTotalsResponse{
		All:                t.All,
		Resolved:           t.Resolved,
		New:                t.New,
		InProgress:         t.InProgress,
		Overdue:            t.Overdue,
		ResolutionRate:     t.ResolutionRate,
		AvgResolutionHours: t.AvgResolutionHours,
		AvgTimeSpent:       t.AvgTimeSpent,
		Departments:        t.Departments,
		Categories:         t.Categories,
		Users:              t.Users,
		Agents:             t.Agents,
		Clients:            t.Clients,
	}
}

func groupStats(groups []service.GroupStats) []dto.GroupStatsResponse {
	out := make([]dto.GroupStatsResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.GroupStatsResponse(g))
	}
	return out
}

func satisfactionStats(s service.SatisfactionStats) dto.SatisfactionResponse {
	out := dto.SatisfactionResponse{
		Distribution: make([]dto.RatingCount, 0, len(s.Distribution)),
		Votes:        s.Votes,
		Average:      s.Average,
	}
	for _, c := range s.Distribution {
		out.Distribution = append(out.Distribution, dto.RatingCount{Rating: string(c.Rating), Count: c.Count})
	}
	return out
}

func trendPoints(points []service.TrendPoint) []dto.TrendPointResponse {
	out := make([]dto.TrendPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, dto.TrendPointResponse{
			Label:    p.Label,
			Year:     p.Year,
			Month:    int(p.Month),
			Created:  p.Created,
			Resolved: p.Resolved,
		})
	}
	return out
}
