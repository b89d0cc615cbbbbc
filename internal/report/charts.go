package report

import "fmt"

// RatingAxis is the fixed y range of the rating chart.
var RatingAxis = [2]float64{0, 5.5}

type BarChart struct {
	Title      string      `json:"title"`
	XLabel     string      `json:"x_label"`
	YLabel     string      `json:"y_label"`
	Categories []string    `json:"categories"`
	Values     []float64   `json:"values"`
	Labels     []string    `json:"labels"`
	YRange     *[2]float64 `json:"y_range,omitempty"`
}

type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

type LineChart struct {
	Title  string   `json:"title"`
	X      []string `json:"x"`
	Series []Series `json:"series"`
}

type Charts struct {
	Volume BarChart  `json:"volume_by_country"`
	Rating BarChart  `json:"rating_by_country"`
	Trend  LineChart `json:"weekly_trend"`
}

func volumeChart(stats []CountryStat) BarChart {
	c := BarChart{Title: "Review volume by country", XLabel: "Country", YLabel: "Reviews"}
	for _, s := range stats {
		c.Categories = append(c.Categories, s.Country)
		c.Values = append(c.Values, float64(s.Count))
		c.Labels = append(c.Labels, fmt.Sprintf("%d", s.Count))
	}
	return c
}

func ratingChart(stats []CountryStat) BarChart {
	axis := RatingAxis
	c := BarChart{Title: "Average rating by country", XLabel: "Country", YLabel: "Average score", YRange: &axis}
	for _, s := range stats {
		c.Categories = append(c.Categories, s.Country)
		c.Values = append(c.Values, s.AverageScore)
		c.Labels = append(c.Labels, fmt.Sprintf("%.2f ⭐", s.AverageScore))
	}
	return c
}

func trendChart(points []WeeklyPoint) LineChart {
	c := LineChart{
		Title:  "Weekly review trend",
		Series: []Series{{Name: "count"}, {Name: "average_score"}},
	}
	for _, p := range points {
		c.X = append(c.X, p.WeekEnding.Format("2006-01-02"))
		c.Series[0].Values = append(c.Series[0].Values, float64(p.Count))
		c.Series[1].Values = append(c.Series[1].Values, p.AverageScore)
	}
	return c
}
