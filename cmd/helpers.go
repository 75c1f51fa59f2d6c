package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/ziadkadry99/skapsec/internal/config"
	"github.com/ziadkadry99/skapsec/internal/db"
	"github.com/ziadkadry99/skapsec/internal/scoring"
)

// loadConfig reads and validates the config named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newScoringClient builds the outbound client shared by every command.
func newScoringClient(cfg *config.Config) *scoring.Client {
	return scoring.NewClient(cfg.ScoringURL, cfg.RequestTimeout(),
		scoring.WithRateLimit(cfg.RateLimitRPM, cfg.RateLimitBurst))
}

// openDatabase creates the data directory if needed and opens the store.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// interactive reports whether stdin is a terminal we can prompt on.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptMissing asks for a value when the flag was left empty. Outside a
// terminal the value is left alone so validation reports the gap.
func promptMissing(label string, value *string) error {
	if strings.TrimSpace(*value) != "" || !interactive() {
		return nil
	}
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("required")
			}
			return nil
		},
	}
	v, err := p.Run()
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(label), err)
	}
	*value = v
	return nil
}

// readText resolves the announcement body from --text or --text-file.
// A file of "-" reads stdin.
func readText(text, file string) (string, error) {
	if file == "" {
		return text, nil
	}
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("reading announcement: %w", err)
	}
	return string(data), nil
}
