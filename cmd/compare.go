package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/skapsec/internal/analysis"
	"github.com/ziadkadry99/skapsec/internal/pipeline"
)

var (
	compareLeft      analysis.Request
	compareRight     analysis.Request
	compareLeftFile  string
	compareRightFile string
	compareJSON      bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Score two announcements side by side",
	Long: `Sends two announcements to the scoring service in one request and prints
both results. Each side succeeds or fails on its own.`,
	Example: `  skapsec compare --left-company Acme --left-symbol ACME --left-text-file a.txt \
    --right-company Alpha --right-symbol ALPH --right-text-file b.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		req := analysis.ComparisonRequest{Left: compareLeft, Right: compareRight}
		if req.Left.AnnouncementText, err = readText(req.Left.AnnouncementText, compareLeftFile); err != nil {
			return err
		}
		if req.Right.AnnouncementText, err = readText(req.Right.AnnouncementText, compareRightFile); err != nil {
			return err
		}
		if err := promptRequest(&req.Left, "[A] "); err != nil {
			return err
		}
		if err := promptRequest(&req.Right, "[B] "); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		ctrl := pipeline.NewCompareController(newScoringClient(cfg), terminalRenderer())
		if err := ctrl.Submit(ctx, req); err != nil {
			return err
		}

		final := ctrl.State()
		if compareJSON {
			if err := printExport(final); err != nil {
				return err
			}
		}
		if final.Phase != pipeline.PhaseSuccess {
			return errAnalysisFailed
		}
		return nil
	},
}

func init() {
	f := compareCmd.Flags()
	f.StringVar(&compareLeft.CompanyName, "left-company", "", "company name of announcement A")
	f.StringVar(&compareLeft.Symbol, "left-symbol", "", "stock symbol of announcement A")
	f.StringVar(&compareLeft.AnnouncementText, "left-text", "", "text of announcement A")
	f.StringVar(&compareLeftFile, "left-text-file", "", "read announcement A from a file")
	f.StringVar(&compareRight.CompanyName, "right-company", "", "company name of announcement B")
	f.StringVar(&compareRight.Symbol, "right-symbol", "", "stock symbol of announcement B")
	f.StringVar(&compareRight.AnnouncementText, "right-text", "", "text of announcement B")
	f.StringVar(&compareRightFile, "right-text-file", "", "read announcement B from a file")
	f.BoolVar(&compareJSON, "json", false, "print both raw results as indented JSON")
	f.BoolVar(&analyzeNoAnim, "no-animate", false, "print scores without counting up")
	rootCmd.AddCommand(compareCmd)
}
