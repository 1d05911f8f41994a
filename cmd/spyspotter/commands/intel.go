package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

func NewIntelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intel",
		Short: "Inspect the tracker intelligence catalogue",
	}
	cmd.AddCommand(newIntelListCommand())
	cmd.AddCommand(newIntelShowCommand())
	cmd.AddCommand(newIntelExportCommand())
	return cmd
}

func newIntelListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogue signatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			category, _ := cmd.Flags().GetString("category")
			for _, sig := range eng.db.All() {
				if category != "" && sig.Category != models.TrackerCategory(category) {
					continue
				}
				fmt.Printf("%-24s %-22s %-8s %d domains, %d patterns\n",
					sig.ID, sig.Category, sig.RiskLevel, len(sig.Domains), len(sig.Patterns))
			}
			return nil
		},
	}
	cmd.Flags().String("category", "", "Only list signatures in this category")
	return cmd
}

func newIntelShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <signature-id>",
		Short: "Show one signature in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			sig, ok := eng.db.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown signature %q", args[0])
			}

			fmt.Printf("%s (%s)\n", sig.Name, sig.ID)
			fmt.Printf("  Category:    %s\n", sig.Category)
			fmt.Printf("  Risk level:  %s\n", sig.RiskLevel)
			fmt.Printf("  Purpose:     %s\n", sig.Purpose)
			fmt.Printf("  Description: %s\n", sig.Description)
			fmt.Printf("  GDPR: %v, CCPA: %v\n", sig.GDPRRelevant, sig.CCPARelevant)
			if len(sig.Domains) > 0 {
				fmt.Println("  Domains:")
				for _, d := range sig.Domains {
					fmt.Printf("    - %s\n", d)
				}
			}
			if len(sig.Patterns) > 0 {
				fmt.Println("  Patterns:")
				for _, p := range sig.Patterns {
					fmt.Printf("    - %s\n", p)
				}
			}
			if len(sig.DataTypes) > 0 {
				fmt.Printf("  Data collected: %v\n", sig.DataTypes)
			}
			return nil
		},
	}
}

func newIntelExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalogue as loadable JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			data, err := eng.db.ExportJSON()
			if err != nil {
				return fmt.Errorf("export catalogue: %w", err)
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write catalogue: %w", err)
			}
			fmt.Printf("Catalogue exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	return cmd
}
