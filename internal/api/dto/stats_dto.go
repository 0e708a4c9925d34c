package dto

import "time"

// StatsTotalsResponse holds headline numbers. Population counts are omitted
// on agent statistics.
type StatsTotalsResponse struct {
	All                int     `json:"total_tickets"`
	Resolved           int     `json:"resolved_tickets"`
	New                int     `json:"new_tickets"`
	InProgress         int     `json:"in_progress_tickets"`
	Overdue            int     `json:"overdue_tickets"`
	ResolutionRate     float64 `json:"resolution_rate"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
	AvgTimeSpent       float64 `json:"avg_time_spent"`
	Departments        int     `json:"departments,omitempty"`
	Categories         int     `json:"categories,omitempty"`
	Users              int     `json:"users,omitempty"`
	Agents             int     `json:"agents,omitempty"`
	Clients            int     `json:"clients,omitempty"`
}

// GroupStatsResponse aggregates one category or agent.
type GroupStatsResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Total              int     `json:"total"`
	Resolved           int     `json:"resolved"`
	ResolutionRate     float64 `json:"resolution_rate"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
	AvgTimeSpent       float64 `json:"avg_time_spent"`
}

// RatingCount is the number of votes for one rating.
type RatingCount struct {
	Rating string `json:"rating"`
	Count  int    `json:"count"`
}

// SatisfactionResponse summarises client ratings.
type SatisfactionResponse struct {
	Distribution []RatingCount `json:"distribution"`
	Votes        int           `json:"votes"`
	Average      *float64      `json:"average"`
}

// TrendPointResponse is one month of the ticket trend.
type TrendPointResponse struct {
	Label    string `json:"label"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Created  int    `json:"created"`
	Resolved int    `json:"resolved"`
}

// DashboardResponse is the admin overview.
type DashboardResponse struct {
	Period       string               `json:"period"`
	Since        time.Time            `json:"since"`
	Totals       StatsTotalsResponse  `json:"totals"`
	ByCategory   []GroupStatsResponse `json:"by_category"`
	Agents       []GroupStatsResponse `json:"agents"`
	Satisfaction SatisfactionResponse `json:"satisfaction"`
	Trend        []TrendPointResponse `json:"trend"`
}

// AgentStatsResponse is the personal view of an agent.
type AgentStatsResponse struct {
	Agent        UserResponse         `json:"agent"`
	Department   *DepartmentResponse  `json:"department"`
	Totals       StatsTotalsResponse  `json:"totals"`
	TopCategory  []GroupStatsResponse `json:"top_categories"`
	Satisfaction SatisfactionResponse `json:"satisfaction"`
	Trend        []TrendPointResponse `json:"trend"`
}
