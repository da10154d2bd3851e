package rest

import (
	"net/http"

	"github.com/sundayfest/housegate/internal/stats"
)

type houseBreakdownPayload struct {
	House  string `json:"house"`
	Total  int    `json:"total"`
	Male   int    `json:"male"`
	Female int    `json:"female"`
}

type ageGroupPayload struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

type hourBucketPayload struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type statisticsResponse struct {
	TotalAttendees    int                     `json:"total_attendees"`
	Houses            []houseBreakdownPayload `json:"houses"`
	TicketsIssued     int                     `json:"tickets_issued"`
	TicketsRedeemed   int                     `json:"tickets_redeemed"`
	TicketsVoid       int                     `json:"tickets_void"`
	RedemptionRate    float64                 `json:"redemption_rate"`
	AgeGroups         []ageGroupPayload       `json:"age_groups"`
	RedemptionsByHour []hourBucketPayload     `json:"redemptions_by_hour"`
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	overview, err := h.statistics.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticsResponse(overview))
}

func toStatisticsResponse(overview stats.Overview) statisticsResponse {
	resp := statisticsResponse{
		TotalAttendees:    overview.TotalAttendees,
		Houses:            make([]houseBreakdownPayload, 0, len(overview.Houses)),
		TicketsIssued:     overview.TicketsIssued,
		TicketsRedeemed:   overview.TicketsRedeemed,
		TicketsVoid:       overview.TicketsVoid,
		RedemptionRate:    overview.RedemptionRate,
		AgeGroups:         make([]ageGroupPayload, 0, len(overview.AgeGroups)),
		RedemptionsByHour: make([]hourBucketPayload, 0, len(overview.RedemptionsByHour)),
	}
	for _, breakdown := range overview.Houses {
		resp.Houses = append(resp.Houses, houseBreakdownPayload{
			House:  string(breakdown.House),
			Total:  breakdown.Total,
			Male:   breakdown.Male,
			Female: breakdown.Female,
		})
	}
	for _, bar := range overview.AgeGroups {
		resp.AgeGroups = append(resp.AgeGroups, ageGroupPayload{Group: string(bar.Group), Count: bar.Count})
	}
	for _, bucket := range overview.RedemptionsByHour {
		resp.RedemptionsByHour = append(resp.RedemptionsByHour, hourBucketPayload{Hour: bucket.Hour, Count: bucket.Count})
	}
	return resp
}
