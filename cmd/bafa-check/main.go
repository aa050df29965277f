// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dennisfleischmann/fs-bafa-check/internal/bundle"
	"github.com/dennisfleischmann/fs-bafa-check/internal/compiler"
	"github.com/dennisfleischmann/fs-bafa-check/internal/config"
	"github.com/dennisfleischmann/fs-bafa-check/internal/ruleset"
	"github.com/dennisfleischmann/fs-bafa-check/internal/semantic"
	"github.com/dennisfleischmann/fs-bafa-check/internal/tool"
)

var (
	verbose    bool
	baseDir    string
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bafa-check",
	Short: "Deterministic BAFA renovation subsidy checker",
	Long: `bafa-check compiles BAFA funding rule documents into versioned,
activatable rulesets and evaluates renovation offers against them.

Every decision is rule-driven and evidence-bound: thresholds cite the
document passage they were extracted from, guard failures block ruleset
activation, and unresolvable cases escalate to human review instead of
guessing.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// compileCmd builds a ruleset from local source documents. Document IDs
// come from file names; position in the argument list sets priority.
var compileCmd = &cobra.Command{
	Use:   "compile <document>...",
	Short: "Compile rule documents into an activatable ruleset",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		sources := make([]ruleset.SourceInput, 0, len(args))
		for i, path := range args {
			docID := strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(filepath.Base(path)), ".yaml"), ".txt")
			sources = append(sources, ruleset.SourceInput{
				DocID:    docID,
				Path:     path,
				Priority: i + 1,
			})
		}

		report, err := ruleset.Build(cmd.Context(), ruleset.Workspace{Base: baseDir}, sources, cfg, logger)
		if err != nil {
			return err
		}
		return printYAML(report)
	},
}

// evaluateCmd runs one offer-facts file through the engine.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <offer-facts.yaml>",
	Short: "Evaluate offer facts against the compiled ruleset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading offer facts %s: %w", args[0], err)
		}
		var facts map[string]any
		if err := yaml.Unmarshal(data, &facts); err != nil {
			return fmt.Errorf("decoding offer facts %s: %w", args[0], err)
		}
		qualityFlags, _ := cmd.Flags().GetStringSlice("quality-flag")

		outcome, err := ruleset.Evaluate(ruleset.Workspace{Base: baseDir}, facts, qualityFlags, cfg, logger)
		if err != nil {
			return err
		}
		if err := printYAML(outcome.Report); err != nil {
			return err
		}
		if outcome.Escalation != nil {
			return printYAML(outcome.Escalation)
		}
		return nil
	},
}

// matchCmd resolves one offer line against the intent catalog.
var matchCmd = &cobra.Command{
	Use:   "match <offer line text>",
	Short: "Match an offer line item against the intent catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		opts := []semantic.Option{semantic.WithMinConfidence(cfg.Semantic.MinConfidence)}
		if cfg.EmbeddingsEnabled() {
			embedder, err := semantic.NewGenAIEmbedder(cmd.Context(), cfg.APIKey, cfg.Semantic.EmbeddingModel)
			if err != nil {
				logger.Warn("embedding provider unavailable, matching lexically", zap.Error(err))
			} else {
				opts = append(opts, semantic.WithEmbedder(semantic.NewCachedEmbedder(embedder)))
			}
		}

		matcher := semantic.NewMatcher(semantic.Catalog, opts...)
		match := matcher.Match(cmd.Context(), strings.Join(args, " "))
		if match == nil {
			fmt.Println("no match above confidence floor")
			return nil
		}
		return printYAML(match)
	},
}

// diffCmd compares two compiled bundles, for reviewing a rebuild before
// activating it over the current bundle.
var diffCmd = &cobra.Command{
	Use:   "diff <previous-bundle.yaml> <current-bundle.yaml>",
	Short: "Diff two compiled rule bundles",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		previous, err := bundle.LoadBundle(args[0])
		if err != nil {
			return err
		}
		current, err := bundle.LoadBundle(args[1])
		if err != nil {
			return err
		}

		diff := compiler.DiffBundles(previous, current)
		return printYAML(struct {
			compiler.BundleDiff `yaml:",inline"`
			RequiresHumanReview bool `yaml:"requires_human_review"`
		}{diff, diff.RequiresHumanReview()})
	},
}

// serveCmd runs the MCP stdio server exposing the checker's tools.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the checker's tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcp.NewServer(&mcp.Implementation{
			Name:    "bafa-check",
			Version: "1.0.0",
		}, nil)
		mcp.AddTool(server, tool.MetadataCompileRuleset, tool.CompileRuleset)
		mcp.AddTool(server, tool.MetadataEvaluateCase, tool.EvaluateCase)
		mcp.AddTool(server, tool.MetadataMatchOfferLine, tool.MatchOfferLine)

		logger.Info("mcp server listening on stdio")
		return server.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func printYAML(value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", ".", "workspace directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config YAML")
	evaluateCmd.Flags().StringSlice("quality-flag", nil, "intake quality flag (repeatable)")

	rootCmd.AddCommand(compileCmd, evaluateCmd, matchCmd, diffCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
