package memory

import (
	"context"
	"sort"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
)

type statsRepo struct{ s *Store }

func resolved(t domain.Ticket) bool {
	return t.Status == domain.TicketStatusResolved || t.Status == domain.TicketStatusClosed
}

func resolutionHours(t domain.Ticket) float64 {
	end := t.UpdatedAt
	if t.EndDate != nil {
		end = *t.EndDate
	}
	return end.Sub(t.StartDate).Hours()
}

// scoped returns the tickets matching filter. Callers hold s.mu.
func (r statsRepo) scoped(filter repository.StatsFilter) []domain.Ticket {
	var out []domain.Ticket
	for _, id := range r.s.ticketOrder {
		t, ok := r.s.tickets[id]
		if !ok {
			continue
		}
		if filter.Since != nil && t.StartDate.Before(*filter.Since) {
			continue
		}
		if filter.AgentID != nil && !t.IsAssignedTo(*filter.AgentID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// mean mirrors AVG: zero when there is nothing to average.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

func (r statsRepo) Totals(_ context.Context, filter repository.StatsFilter) (repository.TicketTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var (
		out             repository.TicketTotals
		hours, timeUsed mean
	)
	for _, t := range r.scoped(filter) {
		out.All++
		switch t.Status {
		case domain.TicketStatusNew:
			out.New++
		case domain.TicketStatusInProgress:
			out.InProgress++
		}
		if resolved(t) {
			out.Resolved++
			hours.add(resolutionHours(t))
		} else if due := t.Metadata.DueDate; due != nil && due.Before(filter.Now) {
			out.Overdue++
		}
		if t.Metadata.TimeSpent > 0 {
			timeUsed.add(float64(t.Metadata.TimeSpent))
		}
	}
	out.AvgResolutionHours = hours.value()
	out.AvgTimeSpent = timeUsed.value()
	return out, nil
}

type groupAcc struct {
	group           repository.TicketGroup
	hours, timeUsed mean
}

func (r statsRepo) group(filter repository.StatsFilter, key func(domain.Ticket) (string, string, bool)) []repository.TicketGroup {
	acc := map[string]*groupAcc{}
	for _, t := range r.scoped(filter) {
		id, name, ok := key(t)
		if !ok {
			continue
		}
		g, exists := acc[id]
		if !exists {
			g = &groupAcc{group: repository.TicketGroup{ID: id, Name: name}}
			acc[id] = g
		}
		g.group.Total++
		if resolved(t) {
			g.group.Resolved++
			g.hours.add(resolutionHours(t))
		}
		if t.Metadata.TimeSpent > 0 {
			g.timeUsed.add(float64(t.Metadata.TimeSpent))
		}
	}
	out := make([]repository.TicketGroup, 0, len(acc))
	for _, g := range acc {
		g.group.AvgResolutionHours = g.hours.value()
		g.group.AvgTimeSpent = g.timeUsed.value()
		out = append(out, g.group)
	}
	return out
}

func (r statsRepo) ByCategory(_ context.Context, filter repository.StatsFilter) ([]repository.TicketGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.group(filter, func(t domain.Ticket) (string, string, bool) {
		c, ok := r.s.categories[t.Metadata.CategoryID]
		return c.ID, c.Name, ok
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r statsRepo) ByAgent(_ context.Context, filter repository.StatsFilter) ([]repository.TicketGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.group(filter, func(t domain.Ticket) (string, string, bool) {
		if t.AssignedAgentID == nil {
			return "", "", false
		}
		u, ok := r.s.users[*t.AssignedAgentID]
		return u.ID, u.Name, ok
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resolved != out[j].Resolved {
			return out[i].Resolved > out[j].Resolved
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r statsRepo) Satisfaction(_ context.Context, filter repository.StatsFilter) ([]repository.SatisfactionCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[domain.Satisfaction]int{}
	for _, t := range r.scoped(filter) {
		if t.Satisfaction != nil {
			counts[*t.Satisfaction]++
		}
	}
	out := make([]repository.SatisfactionCount, 0, len(counts))
	for rating, n := range counts {
		out = append(out, repository.SatisfactionCount{Rating: rating, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Rating < out[j].Rating
	})
	return out, nil
}

func (r statsRepo) Monthly(_ context.Context, filter repository.StatsFilter) ([]repository.MonthlyCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	type key struct{ year, month int }
	buckets := map[key]*repository.MonthlyCount{}
	for _, t := range r.scoped(filter) {
		start := t.StartDate.UTC()
		k := key{start.Year(), int(start.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &repository.MonthlyCount{Year: k.year, Month: start.Month()}
			buckets[k] = b
		}
		b.Created++
		if resolved(t) {
			b.Resolved++
		}
	}
	out := make([]repository.MonthlyCount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (r statsRepo) Population(_ context.Context) (repository.Population, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := repository.Population{
		Departments: len(r.s.departments),
		Categories:  len(r.s.categories),
		Users:       len(r.s.users),
	}
	for _, u := range r.s.users {
		switch u.Role {
		case domain.RoleAgent:
			p.Agents++
		case domain.RoleClient:
			p.Clients++
		}
	}
	return p, nil
}
