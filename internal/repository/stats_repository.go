package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// StatsFilter scopes ticket aggregates. A ticket counts as resolved when its
// status is resolved or closed.
type StatsFilter struct {
	// Since keeps tickets opened at or after this instant.
	Since *time.Time
	// AgentID keeps tickets assigned to this agent.
	AgentID *string
	// Now is the reference instant for overdue tickets.
	Now time.Time
}

// TicketTotals are the headline counters of a scope.
type TicketTotals struct {
	All                int
	New                int
	InProgress         int
	Resolved           int
	Overdue            int
	AvgResolutionHours float64
	AvgTimeSpent       float64
}

// TicketGroup aggregates the tickets sharing a category or an agent.
type TicketGroup struct {
	ID                 string
	Name               string
	Total              int
	Resolved           int
	AvgResolutionHours float64
	AvgTimeSpent       float64
}

// MonthlyCount is the number of tickets opened in a calendar month (UTC) and
// how many of those are resolved now.
type MonthlyCount struct {
	Year     int
	Month    time.Month
	Created  int
	Resolved int
}

// SatisfactionCount is how many tickets carry a rating.
type SatisfactionCount struct {
	Rating domain.Satisfaction
	Count  int
}

// Population counts catalogue entries and accounts.
type Population struct {
	Departments int
	Categories  int
	Users       int
	Agents      int
	Clients     int
}

// StatsRepository runs the dashboard aggregates.
type StatsRepository interface {
	Totals(ctx context.Context, filter StatsFilter) (TicketTotals, error)
	// ByCategory orders by ticket count, largest first.
	ByCategory(ctx context.Context, filter StatsFilter) ([]TicketGroup, error)
	// ByAgent orders by resolved count, largest first.
	ByAgent(ctx context.Context, filter StatsFilter) ([]TicketGroup, error)
	Satisfaction(ctx context.Context, filter StatsFilter) ([]SatisfactionCount, error)
	Monthly(ctx context.Context, filter StatsFilter) ([]MonthlyCount, error)
	Population(ctx context.Context) (Population, error)
}

const (
	resolvedStatus  = `t.status IN ('resolved', 'closed')`
	resolutionHours = `EXTRACT(EPOCH FROM (COALESCE(t.end_date, t.updated_at) - t.start_date)) / 3600`
)

type statsRepository struct {
	db DBTX
}

// NewStatsRepository builds the Postgres implementation.
func NewStatsRepository(db DBTX) StatsRepository {
	return &statsRepository{db: db}
}

// where renders the filter as a WHERE body over alias t.
func (f StatsFilter) where(args []any) (string, []any) {
	clauses := []string{"1=1"}
	if f.Since != nil {
		args = append(args, *f.Since)
		clauses = append(clauses, fmt.Sprintf("t.start_date >= $%d", len(args)))
	}
	if f.AgentID != nil {
		args = append(args, *f.AgentID)
		clauses = append(clauses, fmt.Sprintf("t.assigned_agent_id = $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *statsRepository) Totals(ctx context.Context, filter StatsFilter) (TicketTotals, error) {
	args := []any{filter.Now}
	where, args := filter.where(args)
	query := `
        SELECT COUNT(*),
            COUNT(*) FILTER (WHERE t.status = 'new'),
            COUNT(*) FILTER (WHERE t.status = 'in_progress'),
            COUNT(*) FILTER (WHERE ` + resolvedStatus + `),
            COUNT(*) FILTER (WHERE t.due_date < $1 AND NOT ` + resolvedStatus + `),
            COALESCE(AVG(` + resolutionHours + `) FILTER (WHERE ` + resolvedStatus + `), 0)::float8,
            COALESCE(AVG(t.time_spent) FILTER (WHERE t.time_spent > 0), 0)::float8
        FROM tickets t
        WHERE ` + where

	var out TicketTotals
	err := conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(
		&out.All, &out.New, &out.InProgress, &out.Resolved, &out.Overdue,
		&out.AvgResolutionHours, &out.AvgTimeSpent,
	)
	return out, err
}

func (r *statsRepository) ByCategory(ctx context.Context, filter StatsFilter) ([]TicketGroup, error) {
	where, args := filter.where(nil)
	query := `
        SELECT c.id, c.name, COUNT(*),
            COUNT(*) FILTER (WHERE ` + resolvedStatus + `),
            COALESCE(AVG(` + resolutionHours + `) FILTER (WHERE ` + resolvedStatus + `), 0)::float8,
            COALESCE(AVG(t.time_spent) FILTER (WHERE t.time_spent > 0), 0)::float8
        FROM tickets t
        JOIN categories c ON c.id = t.category_id
        WHERE ` + where + `
        GROUP BY c.id, c.name
        ORDER BY COUNT(*) DESC, c.name`
	return r.groups(ctx, query, args)
}

func (r *statsRepository) ByAgent(ctx context.Context, filter StatsFilter) ([]TicketGroup, error) {
	where, args := filter.where(nil)
	query := `
        SELECT u.id, u.name, COUNT(*),
            COUNT(*) FILTER (WHERE ` + resolvedStatus + `) AS resolved,
            COALESCE(AVG(` + resolutionHours + `) FILTER (WHERE ` + resolvedStatus + `), 0)::float8,
            COALESCE(AVG(t.time_spent) FILTER (WHERE t.time_spent > 0), 0)::float8
        FROM tickets t
        JOIN users u ON u.id = t.assigned_agent_id
        WHERE ` + where + `
        GROUP BY u.id, u.name
        ORDER BY resolved DESC, u.name`
	return r.groups(ctx, query, args)
}

func (r *statsRepository) groups(ctx context.Context, query string, args []any) ([]TicketGroup, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TicketGroup
	for rows.Next() {
		var g TicketGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Total, &g.Resolved, &g.AvgResolutionHours, &g.AvgTimeSpent); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (r *statsRepository) Satisfaction(ctx context.Context, filter StatsFilter) ([]SatisfactionCount, error) {
	where, args := filter.where(nil)
	query := `
        SELECT t.satisfaction, COUNT(*)
        FROM tickets t
        WHERE t.satisfaction IS NOT NULL AND ` + where + `
        GROUP BY t.satisfaction
        ORDER BY COUNT(*) DESC, t.satisfaction`
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SatisfactionCount
	for rows.Next() {
		var c SatisfactionCount
		if err := rows.Scan(&c.Rating, &c.Count); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *statsRepository) Monthly(ctx context.Context, filter StatsFilter) ([]MonthlyCount, error) {
	where, args := filter.where(nil)
	query := `
        SELECT EXTRACT(YEAR FROM t.start_date AT TIME ZONE 'UTC')::int AS y,
            EXTRACT(MONTH FROM t.start_date AT TIME ZONE 'UTC')::int AS m,
            COUNT(*),
            COUNT(*) FILTER (WHERE ` + resolvedStatus + `)
        FROM tickets t
        WHERE ` + where + `
        GROUP BY y, m
        ORDER BY y, m`
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonthlyCount
	for rows.Next() {
		var (
			c     MonthlyCount
			month int
		)
		if err := rows.Scan(&c.Year, &month, &c.Created, &c.Resolved); err != nil {
			return nil, err
		}
		c.Month = time.Month(month)
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *statsRepository) Population(ctx context.Context) (Population, error) {
	const query = `
        SELECT (SELECT COUNT(*) FROM departments),
            (SELECT COUNT(*) FROM categories),
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM users WHERE role = 'Agent'),
            (SELECT COUNT(*) FROM users WHERE role = 'Client')`
	var p Population
	err := conn(ctx, r.db).QueryRow(ctx, query).Scan(&p.Departments, &p.Categories, &p.Users, &p.Agents, &p.Clients)
	return p, err
}
