package analysis

import (
	"math"
	"sort"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// ComputeTrend builds index-aligned series from results grouped by period
// label. Labels are sorted lexicographically, which orders correctly for the
// ISO-style labels the storage layer produces. Periods with no scans get
// explicit zero entries so consumers can chart a contiguous series.
func ComputeTrend(resultsByPeriod map[string][]models.ScanResult, period string) models.TrendAnalysis {
	labels := make([]string, 0, len(resultsByPeriod))
	for label := range resultsByPeriod {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	trend := models.TrendAnalysis{
		Period:            period,
		Labels:            labels,
		PrivacyScoreTrend: make([]float64, 0, len(labels)),
		TrackerCountTrend: make([]int, 0, len(labels)),
		DomainCountTrend:  make([]int, 0, len(labels)),
		RiskDistribution: map[string][]int{
			string(models.RiskLow):      make([]int, 0, len(labels)),
			string(models.RiskMedium):   make([]int, 0, len(labels)),
			string(models.RiskHigh):     make([]int, 0, len(labels)),
			string(models.RiskCritical): make([]int, 0, len(labels)),
		},
	}

	for _, label := range labels {
		results := resultsByPeriod[label]
		if len(results) == 0 {
			trend.PrivacyScoreTrend = append(trend.PrivacyScoreTrend, 0)
			trend.TrackerCountTrend = append(trend.TrackerCountTrend, 0)
			trend.DomainCountTrend = append(trend.DomainCountTrend, 0)
			for level := range trend.RiskDistribution {
				trend.RiskDistribution[level] = append(trend.RiskDistribution[level], 0)
			}
			continue
		}

		var scoreSum float64
		trackerTotal := 0
		domains := make(map[string]struct{})
		riskCounts := map[string]int{}

		for i := range results {
			scoreSum += float64(results[i].PrivacyAnalysis.PrivacyScore)
			trackerTotal += len(results[i].Trackers)
			for _, d := range results[i].UniqueDomains() {
				domains[d] = struct{}{}
			}
			riskCounts[string(results[i].PrivacyAnalysis.RiskLevel)]++
		}

		avgScore := math.Round(scoreSum/float64(len(results))*100) / 100
		trend.PrivacyScoreTrend = append(trend.PrivacyScoreTrend, avgScore)
		trend.TrackerCountTrend = append(trend.TrackerCountTrend, trackerTotal)
		trend.DomainCountTrend = append(trend.DomainCountTrend, len(domains))
		for level := range trend.RiskDistribution {
			trend.RiskDistribution[level] = append(trend.RiskDistribution[level], riskCounts[level])
		}
	}

	return trend
}
