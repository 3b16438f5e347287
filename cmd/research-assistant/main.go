package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/research-assistant/pkg/config"
	"github.com/mikeboe/research-assistant/pkg/formatter"
	"github.com/mikeboe/research-assistant/pkg/logger"
	"github.com/mikeboe/research-assistant/pkg/research"
	"github.com/mikeboe/research-assistant/pkg/session"
	"github.com/mikeboe/research-assistant/pkg/tui"
)

var (
	topic    string
	format   string
	apiURL   string
	plain    bool
	logLevel string
)

// errResearchFailed makes the process exit non-zero after the failure has
// already been printed.
var errResearchFailed = errors.New("research failed")

func main() {
	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:           "research-assistant",
		Short:         "Research any topic from the terminal",
		Long:          `research-assistant sends a topic and an output format to the research service and shows the structured result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interactive := !cmd.Flags().Changed("topic") && !plain

			// The TUI owns the terminal, so its logs are dropped.
			log := logger.Discard()
			if !interactive {
				lc := logger.FromConfig(cfg.LogLevel, cfg.LogFormat)
				lc.Output = os.Stderr
				log = logger.New(lc)
			}
			slog.SetDefault(log)

			client := research.NewClient(cfg.APIBaseURL(), research.WithLogger(log))
			sess := session.New(client, session.WithLogger(log))
			log.Debug("Using research service", "url", client.BaseURL())

			switch {
			case cmd.Flags().Changed("topic"):
				return runOnce(ctx, cmd.OutOrStdout(), sess, topic, format)
			case plain:
				return runPlain(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), sess, format)
			default:
				return tui.Run(ctx, sess, topic, format)
			}
		},
	}

	rootCmd.Flags().StringVarP(&topic, "topic", "t", "", "Research topic; runs a single request and prints the result")
	rootCmd.Flags().StringVarP(&format, "format", "f", "", "Output format (e.g. summary, bullet points, short report)")
	rootCmd.Flags().StringVar(&apiURL, "api-url", "", "Research service base URL (overrides RESEARCH_API_URL)")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "Use a line-based prompt instead of the terminal UI")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errResearchFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// runOnce submits a single request and prints the formatted outcome.
func runOnce(ctx context.Context, out io.Writer, sess *session.Session, topic, format string) error {
	st, err := sess.Submit(ctx, topic, format)
	if errors.Is(err, session.ErrTopicRequired) {
		return errors.New("--topic must not be empty")
	}
	if err != nil {
		return err
	}
	return printState(out, st)
}

// runPlain reads topic/format pairs from in until EOF or an empty topic.
func runPlain(ctx context.Context, in io.Reader, out io.Writer, sess *session.Session, defaultFormat string) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Enter research topic (empty to quit): ")
		line, err := reader.ReadString('\n')
		t := strings.TrimSpace(line)
		if t == "" {
			return nil
		}

		fmt.Fprintf(out, "Enter format (default: %s): ", orDefault(defaultFormat, "summary"))
		fline, ferr := reader.ReadString('\n')
		f := strings.TrimSpace(fline)
		if f == "" {
			f = defaultFormat
		}

		fmt.Fprintln(out, "Researching...")
		st, subErr := sess.Submit(ctx, t, f)
		if subErr != nil {
			return subErr
		}
		// Failures are shown and the prompt continues.
		_ = printState(out, st)
		fmt.Fprintln(out)

		if err != nil || ferr != nil || ctx.Err() != nil {
			return nil
		}
	}
}

func printState(out io.Writer, st session.State) error {
	switch st := st.(type) {
	case session.Success:
		fmt.Fprintln(out, "Research Results")
		fmt.Fprintln(out)
		fmt.Fprint(out, formatter.RenderText(formatter.Format(st.Result)))
		return nil
	case session.Failure:
		fmt.Fprintln(out, "Error:", st.Message)
		return errResearchFailed
	default:
		return fmt.Errorf("unexpected state %s", st.Phase())
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
