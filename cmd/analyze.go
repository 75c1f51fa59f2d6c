package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/skapsec/internal/analysis"
	"github.com/ziadkadry99/skapsec/internal/animate"
	"github.com/ziadkadry99/skapsec/internal/config"
	"github.com/ziadkadry99/skapsec/internal/pipeline"
	"github.com/ziadkadry99/skapsec/internal/progress"
	"github.com/ziadkadry99/skapsec/internal/render"
	"github.com/ziadkadry99/skapsec/internal/share"
)

var errAnalysisFailed = errors.New("analysis failed")

var (
	analyzeCompany  string
	analyzeSymbol   string
	analyzeText     string
	analyzeTextFile string
	analyzeJSON     bool
	analyzeShare    bool
	analyzeNoAnim   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score one announcement",
	Long: `Sends one announcement to the scoring service and prints the credibility
score, flags, deduction breakdown and top ML terms. Missing fields are
prompted for when running in a terminal.`,
	Example: `  skapsec analyze --company "Acme Corp" --symbol ACME --text-file release.txt
  skapsec analyze --company "Acme Corp" --symbol ACME --text-file - --json < release.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		text, err := readText(analyzeText, analyzeTextFile)
		if err != nil {
			return err
		}
		req := analysis.Request{CompanyName: analyzeCompany, Symbol: analyzeSymbol, AnnouncementText: text}
		if err := promptRequest(&req, ""); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		ctrl := pipeline.NewController(newScoringClient(cfg), terminalRenderer())
		if err := ctrl.Submit(ctx, req); err != nil {
			return err
		}

		final := ctrl.State()
		if analyzeShare && final.Phase == pipeline.PhaseSuccess {
			fmt.Printf("\nShare: %s\n", share.BuildURL(publicOrigin(cfg), "/analyzer", final.Request))
		}
		if analyzeJSON {
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

// terminalRenderer prints the dashboard to stdout with the count-up on
// stderr, so --json output stays clean when piped.
func terminalRenderer() pipeline.Renderer {
	var anim *animate.Animator
	if !analyzeNoAnim && interactive() {
		anim = animate.New()
	}
	return render.NewTerminal(os.Stdout, progress.NewMeter(os.Stderr), anim)
}

// promptRequest fills empty fields interactively. prefix labels the
// announcement in comparisons.
func promptRequest(req *analysis.Request, prefix string) error {
	if err := promptMissing(prefix+"Company name", &req.CompanyName); err != nil {
		return err
	}
	if err := promptMissing(prefix+"Stock symbol", &req.Symbol); err != nil {
		return err
	}
	return promptMissing(prefix+"Announcement text", &req.AnnouncementText)
}

func printExport(s pipeline.State) error {
	o, err := share.OutcomeFromState(s)
	if err != nil {
		return err
	}
	data, err := share.ExportJSON(o)
	if err != nil {
		return fmt.Errorf("exporting result: %w", err)
	}
	fmt.Printf("\n%s\n", data)
	return nil
}

func publicOrigin(cfg *config.Config) string {
	if cfg.PublicOrigin != "" {
		return cfg.PublicOrigin
	}
	return fmt.Sprintf("http://localhost:%d", cfg.ListenPort)
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeCompany, "company", "", "company name")
	f.StringVar(&analyzeSymbol, "symbol", "", "stock symbol")
	f.StringVar(&analyzeText, "text", "", "announcement text")
	f.StringVar(&analyzeTextFile, "text-file", "", `read the announcement from a file ("-" for stdin)`)
	f.BoolVar(&analyzeJSON, "json", false, "print the raw result as indented JSON")
	f.BoolVar(&analyzeShare, "share", false, "print a share link that pre-fills the analyzer")
	f.BoolVar(&analyzeNoAnim, "no-animate", false, "print the score without counting up")
	rootCmd.AddCommand(analyzeCmd)
}
