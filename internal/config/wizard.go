package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to skapsec! Let's point it at a scoring service.")
	fmt.Println()

	def := DefaultConfig()

	// 1. Scoring service.
	scoringPrompt := promptui.Prompt{
		Label:    "Scoring service base URL",
		Default:  def.ScoringURL,
		Validate: validateHTTPURL,
	}
	scoringURL, err := scoringPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("scoring url: %w", err)
	}

	// 2. Listen port.
	portPrompt := promptui.Prompt{
		Label:    "Port for the web front-end",
		Default:  strconv.Itoa(def.ListenPort),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("listen port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Directory for preferences and result history",
		Default: def.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. CORS.
	originsPrompt := promptui.Prompt{
		Label:   "Allowed CORS origins (comma-separated, * for any)",
		Default: strings.Join(def.AllowedOrigins, ","),
	}
	originsStr, err := originsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("allowed origins: %w", err)
	}

	cfg := DefaultConfig()
	cfg.ScoringURL = strings.TrimRight(scoringURL, "/")
	cfg.ListenPort = port
	cfg.DataDir = dataDir
	origins := splitAndTrim(originsStr)
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else if len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validateHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter an absolute http(s) URL")
	}
	return nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return errors.New("enter a port between 1 and 65535")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
