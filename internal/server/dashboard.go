package server

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/growth-engine/growth-engine/internal/stats"
)

type dashboardData struct {
	Tests []dashboardTest
}

type dashboardTest struct {
	Name              string
	Status            string
	TrafficPercent    float64
	CreatedAt         string
	Winner            string
	ConfidencePercent float64
	Confident         bool
	LeadingVariant    string
	Variants          []dashboardVariant
}

type dashboardVariant struct {
	ID             string
	Impressions    int
	Clicks         int
	Conversions    int
	RatePercent    float64
	CILowerPercent float64
	CIUpperPercent float64
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>growth-engine dashboard</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
h1{font-size:1.4rem}
table{border-collapse:collapse;margin:1rem 0;width:100%}
th,td{border:1px solid #ddd;padding:.4rem .6rem;text-align:left;font-size:.9rem}
th{background:#f5f5f5}
.test{margin-bottom:2rem}
.meta{color:#666;font-size:.85rem}
.confident{color:#0a7d28;font-weight:600}
.winner{color:#0a7d28}
</style>
</head>
<body>
<h1>growth-engine dashboard</h1>
{{if not .Tests}}<p>No tests yet.</p>{{end}}
{{range .Tests}}
<div class="test">
<h2>{{.Name}}</h2>
<p class="meta">
status: {{.Status}} &middot; traffic: {{printf "%.0f" .TrafficPercent}}% &middot; created {{.CreatedAt}}
{{if .Winner}} &middot; <span class="winner">winner: {{.Winner}}</span>{{end}}
</p>
<table>
<tr><th>Variant</th><th>Impressions</th><th>Clicks</th><th>Conversions</th><th>Rate</th><th>95% CI</th></tr>
{{range .Variants}}
<tr>
<td>{{.ID}}</td>
<td>{{.Impressions}}</td>
<td>{{.Clicks}}</td>
<td>{{.Conversions}}</td>
<td>{{printf "%.2f" .RatePercent}}%</td>
<td>{{printf "%.2f" .CILowerPercent}}% &ndash; {{printf "%.2f" .CIUpperPercent}}%</td>
</tr>
{{end}}
</table>
<p class="meta">
leading: {{.LeadingVariant}} &middot;
{{if .Confident}}<span class="confident">{{printf "%.1f" .ConfidencePercent}}% confidence</span>
{{else}}{{printf "%.1f" .ConfidencePercent}}% confidence (not yet significant){{end}}
</p>
</div>
{{end}}
<p class="meta"><a href="/dashboard?logout=1">Log out</a></p>
</body>
</html>`))

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// Handle logout
	if r.URL.Query().Get("logout") == "1" {
		http.SetCookie(w, &http.Cookie{
			Name:   tokenCookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	data, err := s.dashboardData(r)
	if err != nil {
		http.Error(w, "Failed to load tests", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		s.deps.Log.Error("dashboard render failed", "error", err)
	}
}

func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	data, err := s.dashboardData(r)
	if err != nil {
		http.Error(w, "Failed to load tests", http.StatusInternalServerError)
		return
	}

	type apiVariant struct {
		ID          string  `json:"id"`
		Impressions int     `json:"impressions"`
		Clicks      int     `json:"clicks"`
		Conversions int     `json:"conversions"`
		Rate        float64 `json:"rate"`
		CILower     float64 `json:"ci_lower"`
		CIUpper     float64 `json:"ci_upper"`
	}
	type apiTest struct {
		Name            string       `json:"name"`
		Status          string       `json:"status"`
		Winner          string       `json:"winner,omitempty"`
		Confident       bool         `json:"confident"`
		ConfidenceLevel float64      `json:"confidence_level"`
		LeadingVariant  string       `json:"leading_variant"`
		Variants        []apiVariant `json:"variants"`
	}

	apiTests := make([]apiTest, len(data.Tests))
	for i, t := range data.Tests {
		variants := make([]apiVariant, len(t.Variants))
		for j, v := range t.Variants {
			variants[j] = apiVariant{
				ID:          v.ID,
				Impressions: v.Impressions,
				Clicks:      v.Clicks,
				Conversions: v.Conversions,
				Rate:        v.RatePercent / 100,
				CILower:     v.CILowerPercent / 100,
				CIUpper:     v.CIUpperPercent / 100,
			}
		}
		apiTests[i] = apiTest{
			Name:            t.Name,
			Status:          t.Status,
			Winner:          t.Winner,
			Confident:       t.Confident,
			ConfidenceLevel: t.ConfidencePercent / 100,
			LeadingVariant:  t.LeadingVariant,
			Variants:        variants,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tests": apiTests})
}

func (s *Server) dashboardData(r *http.Request) (dashboardData, error) {
	ctx := r.Context()

	tests, err := s.deps.Store.ListTests(ctx)
	if err != nil {
		return dashboardData{}, err
	}

	data := dashboardData{Tests: make([]dashboardTest, len(tests))}
	for i, t := range tests {
		variantStats, _ := s.deps.Store.GetVariantStats(ctx, t.Name)
		result := stats.Analyze(t, variantStats)

		variants := make([]dashboardVariant, len(result.Variants))
		for j, v := range result.Variants {
			variants[j] = dashboardVariant{
				ID:             v.ID,
				Impressions:    v.Impressions,
				Clicks:         v.Clicks,
				Conversions:    v.Conversions,
				RatePercent:    v.Rate * 100,
				CILowerPercent: v.CILower * 100,
				CIUpperPercent: v.CIUpper * 100,
			}
		}

		winner := ""
		if t.Winner != nil {
			winner = *t.Winner
		}
		data.Tests[i] = dashboardTest{
			Name:              t.Name,
			Status:            string(t.Status),
			TrafficPercent:    t.TrafficAllocation * 100,
			CreatedAt:         t.CreatedAt.Format("Jan 2, 2006"),
			Winner:            winner,
			ConfidencePercent: result.ConfidenceLevel * 100,
			Confident:         result.Confident,
			LeadingVariant:    result.LeadingVariant,
			Variants:          variants,
		}
	}
	return data, nil
}
