package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/becomeliminal/astra/config"
	"github.com/becomeliminal/astra/engine"
	"github.com/becomeliminal/astra/logging"
	"github.com/becomeliminal/astra/personality"
	"github.com/becomeliminal/astra/server"
)

const appName = "astra"

type globalFlags struct {
	configPath string
	logLevel   string
}

func buildRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Conversational agent with long-term memory and an evolving personality",
		Long: strings.TrimSpace(`astra talks to a language model while keeping a long-term memory of
past exchanges and a personality that drifts with the conversations it has.

Configuration is read from astra.yaml (or --config) and ASTRA_* environment
variables.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a config file (default: search for astra.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(newChatCommand(flags))
	root.AddCommand(newAskCommand(flags))
	root.AddCommand(newRecallCommand(flags))
	root.AddCommand(newTraitsCommand(flags))
	root.AddCommand(newServeCommand(flags))
	return root
}

// openApp loads configuration, sets up logging and wires the components.
func openApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	return buildApp(cfg)
}

func newChatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "chat",
		Short:   "Start an interactive conversation",
		Example: "  astra chat\n  astra chat --config ./astra.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return interactiveMode(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func interactiveMode(ctx context.Context, a *app, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     filepath.Join(os.TempDir(), ".astra_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	session := engine.NewSession()
	fmt.Fprintf(out, "%s interactive mode (Ctrl+C or \"exit\" to quit, \"/traits\" to show personality)\n\n", appName)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "/traits":
			if err := printTraits(ctx, a.personality, out); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		fmt.Fprint(out, "Bot: ")
		result, err := a.engine.Turn(ctx, session, &engine.Input{
			UserMessage: input,
			StreamCallback: func(chunk string, done bool) {
				if done {
					fmt.Fprintln(out)
					return
				}
				fmt.Fprint(out, chunk)
			},
		})
		if err != nil {
			if result == nil {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		if result.Saved {
			fmt.Fprintln(out, "  (remembered)")
		}
		fmt.Fprintln(out)
	}
}

func newAskCommand(flags *globalFlags) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "ask <message>",
		Short:   "Run a single turn and print the reply",
		Example: "  astra ask \"I just adopted a cat named Miso\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			result, err := a.engine.Turn(cmd.Context(), engine.NewSession(), &engine.Input{
				UserMessage: strings.Join(args, " "),
			})
			if result != nil {
				fmt.Fprintln(out, result.Text)
				if verbose {
					fmt.Fprintf(cmd.ErrOrStderr(), "retrieved=%d saved=%t duration=%s\n",
						result.Retrieved, result.Saved, result.Duration)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print retrieval and save details to stderr")
	return cmd
}

func newRecallCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "recall <message>",
		Short:   "Show the memories the ranker returns for a message",
		Long:    "Runs only the retrieval ranking for a message and prints the documents in rank order. Nothing is stored.",
		Example: "  astra recall \"what music do I like?\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.memory.Ranker().Rank(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No relevant memories.")
				return nil
			}
			for i, doc := range docs {
				fmt.Fprintf(out, "%d. %s\n", i+1, doc)
			}
			return nil
		},
	}
}

func newTraitsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "traits",
		Short: "Print the current personality traits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return printTraits(cmd.Context(), a.personality, cmd.OutOrStdout())
		},
	}
}

func printTraits(ctx context.Context, m *personality.Machine, out io.Writer) error {
	traits, err := m.Traits(ctx)
	if err != nil {
		return err
	}
	if len(traits) == 0 {
		fmt.Fprintln(out, "No personality traits yet.")
		return nil
	}
	fmt.Fprint(out, personality.Render(traits))
	fmt.Fprintln(out)
	for _, name := range traits.Names() {
		fmt.Fprintf(out, "%-24s %.2f\n", name, traits[name])
	}
	return nil
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	var (
		addr   string
		stream bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the conversation over a websocket",
		Long:    "Serves GET /ws (JSON frames {\"message\": \"...\"}) and GET /health. All clients share one session.",
		Example: "  astra serve --addr :8080",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.engine, server.WithStreaming(stream))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	cmd.Flags().BoolVar(&stream, "stream", false, "Send chunk frames while generating")
	return cmd
}
