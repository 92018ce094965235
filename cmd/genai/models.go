package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/genaikit/genai"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List and inspect models",
	}

	var page genai.ListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List available models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.client.Models.List(cmd.Context(), &page)
			if err != nil {
				return err
			}
			return a.render(resp, func() error {
				for _, m := range resp.Models {
					if err := a.printf("%s\t%s\n", m.Name, m.DisplayName); err != nil {
						return err
					}
				}
				if resp.NextPageToken != "" {
					return a.printf("next page: %s\n", resp.NextPageToken)
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&page.PageSize, "page-size", 0, "maximum models per page")
	list.Flags().StringVar(&page.PageToken, "page-token", "", "page token from a previous list")

	get := &cobra.Command{
		Use:   "get MODEL",
		Short: "Show one model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.client.Models.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(m, func() error {
				return a.printf("name:          %s\ndisplay name:  %s\nversion:       %s\ninput tokens:  %d\noutput tokens: %d\n",
					m.Name, m.DisplayName, m.Version, m.InputTokenLimit, m.OutputTokenLimit)
			})
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}
