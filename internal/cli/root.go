package cli

import "github.com/spf13/cobra"

// NewRootCmd собирает команду loanworker.
func NewRootCmd(version string) *cobra.Command {
	var apiURL string
	var jsonOutput bool

	root := &cobra.Command{
		Use:           "loanworker",
		Short:         "loanworker CLI — submit loan applications and read recommendations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *Client { return NewClient(apiURL) }
	outputFn := func() *Output { return NewOutputTo(jsonOutput, root.OutOrStdout(), root.ErrOrStderr()) }

	root.AddCommand(NewTaskCmd(clientFn, outputFn))
	return root
}
