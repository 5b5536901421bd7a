package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/config"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/app"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/logging"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/output"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/version"
)

type Dependencies struct {
	Config *config.Config
	NewApp func(cfg *config.Config, logger *zap.Logger) (*app.App, error)

	// Set once flags are parsed, or preset by tests.
	App    *app.App
	Logger *zap.Logger
}

func (d *Dependencies) init(debug bool) error {
	if d.Logger == nil {
		logger, err := logging.New(d.Config.LogFormat, debug)
		if err != nil {
			return err
		}
		d.Logger = logger
	}
	if d.App == nil {
		a, err := d.NewApp(d.Config, d.Logger)
		if err != nil {
			return err
		}
		d.App = a
	}
	return nil
}

// Sync flushes buffered log entries.
func (d *Dependencies) Sync() {
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var meetingURL, outputPath, displayName, callID string

	rootCmd := &cobra.Command{
		Use:   "recorder --url <meeting-url> --output <file> [--name <display-name>] [--call-id <id>]",
		Short: "Join a Google Meet or Zoom call and record its audio",
		Long: `Join a Google Meet or Zoom call in a headless browser and record the meeting audio
to a WebM/Opus file until the meeting ends or the process receives SIGINT/SIGTERM.

Set GOOGLE_EMAIL and GOOGLE_PASSWORD to sign in to Google before joining Meet.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := meeting.NewParams(meetingURL, outputPath, displayName, callID)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return runRecord(cmd, deps, params)
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	debug := rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// cobra checks required flags only after this hook.
		if err := cmd.ValidateRequiredFlags(); err != nil {
			return err
		}
		return deps.init(*debug)
	}

	rootCmd.Flags().StringVar(&meetingURL, "url", "", "Meeting URL (Google Meet or Zoom)")
	rootCmd.Flags().StringVar(&outputPath, "output", "", "Output audio file; parent directories are created")
	rootCmd.Flags().StringVar(&displayName, "name", meeting.DefaultDisplayName, "Display name shown in the meeting")
	rootCmd.Flags().StringVar(&callID, "call-id", "", "Identifier used to name debug snapshots and the job state")
	_ = rootCmd.MarkFlagRequired("url")
	_ = rootCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(NewStopCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}

func runRecord(cmd *cobra.Command, deps *Dependencies, params meeting.Params) error {
	formatter := output.NewFormatter(cmd.OutOrStdout())
	formatter.RecordingStarting(params)

	res, err := deps.App.Record.Execute(cmd.Context(), params)
	if err != nil {
		return err
	}

	formatter.RecordingStopped(res.Reason, res.Duration, res.Bytes)
	formatter.RecordingSaved(res.Output)
	if res.UploadURL != "" {
		formatter.Uploaded(res.UploadURL)
	}
	return nil
}
