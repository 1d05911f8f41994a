package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brian-scardina/spyspotter/pkg/models"
	"github.com/brian-scardina/spyspotter/pkg/utils"
)

func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [urls...]",
		Short: "Scan web pages for trackers and score their privacy impact",
		Long: `Fetch one or more pages, detect tracking pixels, analytics scripts and
social media beacons, and compute a privacy score for each page.`,
		Args: cobra.ArbitraryArgs,
		RunE: runScan,
	}

	cmd.Flags().StringP("input", "i", "", "File with URLs to scan, one per line")
	cmd.Flags().IntP("timeout", "t", 10, "Batch timeout in minutes")
	cmd.Flags().StringSliceP("formats", "f", nil, "Report formats to write (json, csv, html)")
	cmd.Flags().Bool("no-report", false, "Skip report generation")
	cmd.Flags().Bool("no-store", false, "Do not persist results to storage")

	_ = viper.BindPFlag("scan.input", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("scan.timeout", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("scan.formats", cmd.Flags().Lookup("formats"))
	_ = viper.BindPFlag("scan.no_report", cmd.Flags().Lookup("no-report"))
	_ = viper.BindPFlag("scan.no_store", cmd.Flags().Lookup("no-store"))

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	urls, err := collectURLs(args, viper.GetString("scan.input"))
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs to scan: pass them as arguments or with --input")
	}

	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	timeout := time.Duration(viper.GetInt("scan.timeout")) * time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if eng.metrics != nil {
		go func() {
			if err := eng.metrics.Serve(ctx, eng.config.Metrics.ListenAddress); err != nil {
				logrus.Warnf("Metrics listener stopped: %v", err)
			}
		}()
	}

	logrus.Infof("Scanning %d URLs (concurrency %d)", len(urls), eng.config.Scanning.ConcurrencyLimit)
	start := time.Now()
	results := eng.scanner.ScanBatch(ctx, urls)

	if eng.repo != nil && !viper.GetBool("scan.no_store") {
		if err := eng.repo.StoreBatch(context.Background(), results); err != nil {
			logrus.Warnf("Some results were not persisted: %v", err)
		}
	}

	if !viper.GetBool("scan.no_report") {
		if formats := viper.GetStringSlice("scan.formats"); len(formats) > 0 {
			eng.config.Reporting.Formats = formats
		}
		report := eng.generator.BuildReport(results, nil, nil, "")
		if _, err := eng.generator.WriteAll(report); err != nil {
			logrus.Warnf("Report generation failed: %v", err)
		}
	}

	printScanSummary(results, time.Since(start))
	return nil
}

func collectURLs(args []string, inputPath string) ([]string, error) {
	urls := append([]string{}, args...)

	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, fmt.Errorf("open url list: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			urls = append(urls, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read url list: %w", err)
		}
	}

	return utils.RemoveDuplicates(urls), nil
}

func printScanSummary(results []models.ScanResult, elapsed time.Duration) {
	var scored, failed, trackers, highRisk int
	scoreSum := 0
	for i := range results {
		if results[i].Failed() {
			failed++
			continue
		}
		scored++
		scoreSum += results[i].PrivacyAnalysis.PrivacyScore
		trackers += results[i].TrackerCount()
		highRisk += results[i].HighRiskTrackerCount()
	}

	avgScore := "n/a"
	if scored > 0 {
		avgScore = fmt.Sprintf("%.1f", float64(scoreSum)/float64(scored))
	}

	fmt.Printf(`
Scan Summary
════════════════════════════════════════════════
Pages scanned:     %d (%d failed)
Trackers found:    %d (%d high risk)
Avg privacy score: %s
Duration:          %s
════════════════════════════════════════════════
`, len(results), failed, trackers, highRisk, avgScore, utils.HumanizeDuration(elapsed))

	for i := range results {
		r := &results[i]
		if r.Failed() {
			fmt.Printf("  ✗ %-50s %s\n", r.URL, r.Error)
			continue
		}
		fmt.Printf("  ✓ %-50s score %3d  %-8s %d trackers\n",
			r.URL, r.PrivacyAnalysis.PrivacyScore, r.PrivacyAnalysis.RiskLevel, r.TrackerCount())
	}
}
