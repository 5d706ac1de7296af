package models

// Analytics is the dashboard summary derived from the feedback collection
type Analytics struct {
	TotalFeedback      int            `json:"totalFeedback"`
	StatusBreakdown    map[string]int `json:"statusBreakdown"`
	TypeBreakdown      map[string]int `json:"typeBreakdown"`
	UrgencyBreakdown   map[string]int `json:"urgencyBreakdown"`
	AvgResolutionTime  float64        `json:"avgResolutionTime"`
	RecentActivity     int            `json:"recentActivity"`
	ResolvedPercentage int            `json:"resolvedPercentage"`
	PendingPercentage  int            `json:"pendingPercentage"`
}
