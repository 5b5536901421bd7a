package cli

import (
	"github.com/spf13/cobra"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List running recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())

			states, err := deps.App.ListRecordings.Execute()
			if err != nil {
				return err
			}

			if len(states) == 0 {
				formatter.Info("No recordings running")
				return nil
			}

			formatter.JobListHeader()
			for _, st := range states {
				formatter.JobListItem(st)
			}

			return nil
		},
	}

	return cmd
}
