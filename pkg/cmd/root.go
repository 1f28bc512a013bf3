package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/paper-digest/pkg/cli"
	"github.com/telekom/paper-digest/pkg/mail"
	"github.com/telekom/paper-digest/pkg/system"
)

// Config holds the dependencies of the command tree. Tests replace the sender
// factory and the logger.
type Config struct {
	OutputWriter io.Writer
	// NewSender builds the mail sender from the resolved SMTP settings.
	NewSender func(cfg mail.SMTPConfig, log *zap.SugaredLogger) mail.Sender
	// Logger, when set, is used instead of building one from --debug.
	Logger *zap.Logger
}

type runtimeState struct {
	cfg      cli.Config
	log      *zap.SugaredLogger
	writer   io.Writer
	exitCode int
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
		NewSender:    mail.NewSender,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	return newRootCommand(cfg, &runtimeState{writer: cfg.OutputWriter})
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(cfg Config, args []string) int {
	rt := &runtimeState{writer: cfg.OutputWriter}
	root := newRootCommand(cfg, rt)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return rt.exitCode
}

func newRootCommand(cfg Config, rt *runtimeState) *cobra.Command {
	if cfg.NewSender == nil {
		cfg.NewSender = mail.NewSender
	}

	root := &cobra.Command{
		Use:   "paper-digest",
		Short: "Email keyword-filtered arXiv paper digests",
		Long: "paper-digest filters an AI-enhanced arXiv dataset by keyword and emails one HTML digest\n" +
			"per recipient. Recipients come from --recipients-config, " + cli.EnvRecipientsConfig + ",\n" +
			"or the single --to-email / " + cli.EnvRecipient + " address, in that order.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			if err := rt.cfg.LoadEnv(); err != nil {
				return err
			}
			if cfg.Logger != nil {
				rt.log = cfg.Logger.Sugar()
				return nil
			}
			zl, err := system.NewLogger(rt.cfg.Debug)
			if err != nil {
				return err
			}
			rt.log = zl.Sugar()
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			code, err := runDigest(rt, cfg.NewSender)
			if err != nil {
				return err
			}
			rt.exitCode = code
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}

	rt.cfg.BindFlags(root.Flags())
	_ = root.MarkFlagRequired("data")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}
