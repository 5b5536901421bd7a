package cli

import (
	"github.com/spf13/cobra"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/output"
)

func NewStopCmd(deps *Dependencies) *cobra.Command {
	var callID string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running recording",
		Long:  "Send SIGTERM to a running recorder. The recorder flushes the audio file, closes the browser and exits 0.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			formatter := output.NewFormatter(cmd.OutOrStdout())

			state, err := deps.App.StopRecording.Execute(callID)
			if err != nil {
				return err
			}

			formatter.StopRequested(state)
			return nil
		},
	}

	cmd.Flags().StringVar(&callID, "call-id", "", "Call id of the recording (optional when only one is running)")

	return cmd
}
