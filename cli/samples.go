package cli

import "github.com/spf13/cobra"

func NewSamplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples [list|clone]",
		Short: "Bundled sample datasets",
		Long:  `List bundled sample datasets and open sessions on them.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List samples",
		Long:  `List the bundled sample datasets.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := tsdk.ListSamples()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	var task string
	cloneCmd := &cobra.Command{
		Use:   "clone <sample_id>",
		Short: "Clone sample",
		Long: `Open a new session on a copy of a bundled sample.

Examples:
  tabula-cli samples clone iris
  tabula-cli samples clone iris --task regression`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := tsdk.CloneSample(args[0], task)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}
	cloneCmd.Flags().StringVarP(&task, "task", "t", "", "Task kind (classification|regression)")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(cloneCmd)

	return cmd
}
