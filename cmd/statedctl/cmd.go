package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	stated "github.com/goliatone/go-stated"
	"github.com/goliatone/go-stated/automated"
	"github.com/goliatone/go-stated/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

type assertFlags struct {
	rules      string
	attributes string
	class      string
	engine     string
	initial    []string
	logLevel   string
	output     string
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "statedctl",
		Short:         "Evaluate automated state rules against a stated object",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(newAssertCommand(), newValidateCommand())
	return root
}

func newAssertCommand() *cobra.Command {
	flags := &assertFlags{}
	cmd := &cobra.Command{
		Use:   "assert",
		Short: "Enable the states whose rules pass for the given attributes",
		Long: `The assert command builds a proxy whose states are the ones named in the
rules manifest, seeds it with the attributes file and prints the states left
active once every rule has been evaluated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssert(cmd, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.rules, "rules", "r", "", "Path to the rules manifest (YAML or JSON)")
	cmd.Flags().StringVarP(&flags.attributes, "attributes", "a", "", "Path to the proxy attributes (YAML or JSON)")
	cmd.Flags().StringVar(&flags.class, "class", "Subject", "Stated class name of the evaluated proxy")
	cmd.Flags().StringVarP(&flags.engine, "engine", "e", "", "Rule engine overriding the manifest default: expr, cel or js")
	cmd.Flags().StringSliceVar(&flags.initial, "initial", nil, "States enabled before the rules run")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level, defaults to STATED_LOG_LEVEL")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

func newValidateCommand() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Parse a rules manifest and compile every rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loadManifest(args[0], engine)
			if err != nil {
				return err
			}
			assertions, err := manifest.Assertions(automated.EngineOptions{})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rules ok\n", len(assertions))
			return nil
		},
	}
	cmd.Flags().StringVarP(&engine, "engine", "e", "", "Rule engine overriding the manifest default")
	return cmd
}

func runAssert(cmd *cobra.Command, flags *assertFlags) error {
	cfg, err := stated.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	level := flags.logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger := logging.NewAdapter(logging.New(level, zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}))

	manifest, err := loadManifest(flags.rules, flags.engine)
	if err != nil {
		return err
	}
	assertions, err := manifest.Assertions(automated.EngineOptions{Cache: automated.NewMemoryProgramCache()})
	if err != nil {
		return err
	}
	attributes, err := loadAttributes(flags.attributes)
	if err != nil {
		return err
	}

	loader := stated.NewLoader(
		stated.WithLoaderConfig(cfg),
		stated.WithLoaderStartupRegistry(stated.NewStartupRegistry()),
		stated.WithLoaderProxyOptions(stated.WithLogger(logger)),
	)
	if err := loader.Register(stated.NewClass(flags.class,
		stated.WithStates(ruleStates(manifest, flags.initial)...),
		stated.WithDefaultAttributes(attributes),
	)); err != nil {
		return err
	}
	proxy, err := loader.New(flags.class)
	if err != nil {
		return err
	}
	for _, name := range flags.initial {
		if err := proxy.EnableState(name); err != nil {
			return err
		}
	}

	automaton := automated.NewAutomaton(
		automated.WithAssertions(assertions...),
		automated.WithEvaluatorLogger(logger),
	)
	active, err := automaton.UpdateStates(cmd.Context(), proxy)
	if err != nil {
		return err
	}
	return writeResult(cmd, flags.output, proxy, active)
}

func loadManifest(path, engine string) (*automated.Manifest, error) {
	manifest, err := automated.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if engine != "" {
		manifest.Engine = engine
	}
	return manifest, nil
}

func loadAttributes(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attributes: %w", err)
	}
	attributes := map[string]any{}
	if err := yaml.Unmarshal(data, &attributes); err != nil {
		return nil, fmt.Errorf("parse attributes: %w", err)
	}
	return attributes, nil
}

// ruleStates declares one empty state per distinct rule state, in manifest
// order, followed by initial states no rule mentions.
func ruleStates(manifest *automated.Manifest, initial []string) []*stated.StateDefinition {
	var names []string
	for _, rule := range manifest.Rules {
		if !slices.Contains(names, rule.State) {
			names = append(names, rule.State)
		}
	}
	for _, name := range initial {
		if name = strings.TrimSpace(name); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	definitions := make([]*stated.StateDefinition, len(names))
	for i, name := range names {
		definitions[i] = stated.NewStateDefinition(name)
	}
	return definitions
}

func writeResult(cmd *cobra.Command, format string, proxy *stated.Proxy, active []string) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "", "text":
		for _, name := range active {
			fmt.Fprintln(out, name)
		}
		return nil
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(proxy.Capture())
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
