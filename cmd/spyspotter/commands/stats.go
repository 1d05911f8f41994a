package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brian-scardina/spyspotter/pkg/utils"
)

func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalogue, storage and rate limiter statistics",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	fmt.Println("Statistics")
	fmt.Println("═══════════════════════════════════════════════════════════════")

	dbStats := eng.db.Stats()
	fmt.Printf("Tracker catalogue v%v: %v signatures, %v domains, %v patterns\n",
		dbStats["version"], dbStats["total_signatures"], dbStats["total_domains"], dbStats["total_patterns"])
	fmt.Printf("  GDPR relevant: %v, CCPA relevant: %v\n",
		dbStats["gdpr_relevant_count"], dbStats["ccpa_relevant_count"])
	printCountMap("  By risk level", dbStats["risk_levels"])
	printCountMap("  By category", dbStats["categories"])

	if eng.repo != nil {
		repoStats, err := eng.repo.GetStats(context.Background())
		if err != nil {
			return fmt.Errorf("storage stats: %w", err)
		}
		fmt.Printf("\nStored results: %v scans (%v failed) across %v hosts, %v trackers\n",
			repoStats["total_scans"], repoStats["failed_scans"],
			repoStats["distinct_hosts"], repoStats["trackers_found"])
		printCountMap("  By risk level", repoStats["results_by_risk"])
	}

	if admitter, ok := eng.admitter.(interface{ GetStats() map[string]interface{} }); ok {
		rlStats := admitter.GetStats()
		fmt.Printf("\nRate limiter (%v): %v checks, %v denied\n",
			rlStats["client_id"], rlStats["checked"], rlStats["denied"])
	}

	return nil
}

func printCountMap(label string, v interface{}) {
	counts, ok := v.(map[string]int)
	if !ok || len(counts) == 0 {
		return
	}
	fmt.Printf("%s: ", label)
	for i, k := range utils.SortedKeys(counts) {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%s=%d", k, counts[k])
	}
	fmt.Println()
}
