package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/genaikit/genai"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached contents",
	}
	cmd.AddCommand(
		newCacheCreateCmd(a),
		newCacheGetCmd(a),
		newCacheListCmd(a),
		newCacheUpdateCmd(a),
		newCacheDeleteCmd(a),
	)
	return cmd
}

func (a *app) printCachedContent(c *genai.CachedContent) error {
	return a.render(c, func() error {
		return a.printf("%s\t%s\texpires %s\n", c.Name, c.Model, c.ExpireTime)
	})
}

func newCacheCreateCmd(a *app) *cobra.Command {
	var displayName, system, ttl string
	cmd := &cobra.Command{
		Use:   "create TEXT...",
		Short: "Cache text for reuse across requests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := promptFrom(cmd, args)
			if err != nil {
				return err
			}
			content := &genai.CachedContent{
				Model:       a.model,
				DisplayName: displayName,
				Contents:    []genai.Content{genai.Text(text)},
				TTL:         ttl,
			}
			if system != "" {
				si := genai.Text(system)
				content.SystemInstruction = &si
			}
			created, err := a.client.CachedContents.Create(cmd.Context(), content)
			if err != nil {
				return err
			}
			return a.printCachedContent(created)
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "human-readable name")
	cmd.Flags().StringVar(&system, "system", "", "system instruction")
	cmd.Flags().StringVar(&ttl, "ttl", "", "time to live, e.g. 300s")
	return cmd
}

func newCacheGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show one cached content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client.CachedContents.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printCachedContent(c)
		},
	}
}

func newCacheListCmd(a *app) *cobra.Command {
	var page genai.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.client.CachedContents.List(cmd.Context(), &page)
			if err != nil {
				return err
			}
			return a.render(resp, func() error {
				for _, c := range resp.CachedContents {
					if err := a.printf("%s\t%s\texpires %s\n", c.Name, c.Model, c.ExpireTime); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page.PageSize, "page-size", 0, "maximum entries per page")
	cmd.Flags().StringVar(&page.PageToken, "page-token", "", "page token from a previous list")
	return cmd
}

func newCacheUpdateCmd(a *app) *cobra.Command {
	var update genai.CachedContentUpdate
	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Change the expiration of a cached content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client.CachedContents.Update(cmd.Context(), args[0], &update)
			if err != nil {
				return err
			}
			return a.printCachedContent(c)
		},
	}
	cmd.Flags().StringVar(&update.TTL, "ttl", "", "new time to live, e.g. 600s")
	cmd.Flags().StringVar(&update.ExpireTime, "expire-time", "", "new absolute expiry (RFC 3339)")
	cmd.MarkFlagsMutuallyExclusive("ttl", "expire-time")
	cmd.MarkFlagsOneRequired("ttl", "expire-time")
	return cmd
}

func newCacheDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a cached content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.CachedContents.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(map[string]string{"deleted": args[0]})
			}
			return a.printf("deleted %s\n", args[0])
		},
	}
}
