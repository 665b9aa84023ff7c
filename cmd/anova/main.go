package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/anova/internal/config"
	"github.com/stellarlinkco/anova/internal/gateway"
	"github.com/stellarlinkco/anova/internal/orchestrator"
	"github.com/stellarlinkco/anova/internal/store"
)

// AskGateway is the slice of the gateway the ask command needs (allows mocking
// in tests).
type AskGateway interface {
	Ask(ctx context.Context, prompt, userID string) orchestrator.Result
	StartWorkers(ctx context.Context)
	Shutdown() error
}

// GatewayFactory creates an AskGateway instance
type GatewayFactory func(cfg *config.Config) (AskGateway, error)

// DefaultGatewayFactory creates the real gateway
func DefaultGatewayFactory(cfg *config.Config) (AskGateway, error) {
	if !hasProviderCredentials(cfg) {
		return nil, fmt.Errorf("no provider credentials set. Run 'anova onboard' or set OPENAI_API_KEY / ANTHROPIC_API_KEY / GEMINI_API_KEY")
	}
	return gateway.New(cfg)
}

func hasProviderCredentials(cfg *config.Config) bool {
	p := cfg.Providers
	return p.OpenAI.APIKey != "" || p.Anthropic.APIKey != "" || p.Gemini.APIKey != "" ||
		p.Compat.APIKey != "" || p.Compat.BaseURL != ""
}

// AskOptions for running ask with custom dependencies
type AskOptions struct {
	GatewayFactory GatewayFactory
	Stdin          io.Reader
	Stdout         io.Writer
	Stderr         io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "anova",
	Short: "anova - multi-provider AI chat assistant",
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a single question or start a REPL",
	RunE:  runAsk,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the full gateway (channels + cron + persistence)",
	RunE:  runServe,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directory",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show anova status",
	RunE:  runStatus,
}

var messageFlag string

func init() {
	askCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	rootCmd.AddCommand(askCmd, serveCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runAsk is the command handler that uses default options
func runAsk(cmd *cobra.Command, args []string) error {
	return runAskWithOptions(AskOptions{})
}

// runAskWithOptions runs ask with injectable dependencies for testing
func runAskWithOptions(opts AskOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	factory := opts.GatewayFactory
	if factory == nil {
		factory = DefaultGatewayFactory
	}

	gw, err := factory(cfg)
	if err != nil {
		return err
	}
	defer gw.Shutdown()

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ctx := context.Background()
	gw.StartWorkers(ctx)

	// Single message mode
	if messageFlag != "" {
		result := gw.Ask(ctx, messageFlag, "cli")
		fmt.Fprintln(stdout, result.Fusion.Text)
		return nil
	}

	// REPL mode
	fmt.Fprintln(stdout, "anova (type 'exit' to quit)")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		result := gw.Ask(ctx, input, "cli")
		if result.Fusion.Text == "" {
			fmt.Fprintln(stderr, "Error: empty response")
			continue
		}
		fmt.Fprintln(stdout, result.Fusion.Text)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !hasProviderCredentials(cfg) {
		return fmt.Errorf("no provider credentials set. Run 'anova onboard' or set OPENAI_API_KEY / ANTHROPIC_API_KEY / GEMINI_API_KEY")
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	if err := os.MkdirAll(filepath.Join(cfgDir, "data"), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set your provider API keys\n", cfgPath)
	fmt.Println("  2. Or set OPENAI_API_KEY / ANTHROPIC_API_KEY / GEMINI_API_KEY")
	fmt.Println("  3. Run 'anova ask -m \"ciao\"' to test")
	fmt.Println("  4. Run 'anova serve' to start the web UI")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Store: %s (%s)\n", cfg.Store.Type, storeLocation(cfg))
	fmt.Printf("Routing: strategy=%s fanout=%d\n", cfg.Routing.Strategy, cfg.Routing.MaxFanout)

	fmt.Printf("OpenAI: %s\n", keyDisplay(cfg.Providers.OpenAI.APIKey))
	fmt.Printf("Anthropic: %s\n", keyDisplay(cfg.Providers.Anthropic.APIKey))
	fmt.Printf("Gemini: %s\n", keyDisplay(cfg.Providers.Gemini.APIKey))
	if cfg.Providers.Compat.BaseURL != "" {
		fmt.Printf("Compat: %s (%s)\n", keyDisplay(cfg.Providers.Compat.APIKey), cfg.Providers.Compat.BaseURL)
	}

	fmt.Printf("WebUI: enabled=%v\n", cfg.Channels.WebUI.Enabled)
	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)

	if cfg.Store.Type == "sqlite" {
		if _, err := os.Stat(cfg.Store.Path); err != nil {
			fmt.Println("Database: not found (run 'anova onboard')")
			return nil
		}
		docs, err := store.Open(cfg.Store)
		if err != nil {
			fmt.Printf("Database: error (%v)\n", err)
			return nil
		}
		defer docs.Close()
		if ledger, ok := docs.(*store.SQLiteStore); ok {
			if total, err := ledger.TotalCostSince(context.Background(), time.Now().Add(-24*time.Hour)); err == nil {
				fmt.Printf("Cost (24h): %.6f USD\n", total)
			}
		}
	}

	return nil
}

func storeLocation(cfg *config.Config) string {
	if cfg.Store.Type == "redis" {
		return cfg.Store.RedisAddr
	}
	return cfg.Store.Path
}

func keyDisplay(key string) string {
	if key == "" {
		return "not configured"
	}
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return "configured"
}
