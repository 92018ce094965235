package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/genaikit/genai"
)

// promptFrom joins args into a prompt. A single "-" reads stdin.
func promptFrom(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return strings.Join(args, " "), nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		system      string
		temperature float64
		maxTokens   int
		cached      string
	)
	cmd := &cobra.Command{
		Use:   "generate PROMPT...",
		Short: "Generate content from a text prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptFrom(cmd, args)
			if err != nil {
				return err
			}

			var opts []genai.RequestOption
			if system != "" {
				opts = append(opts, genai.WithSystemInstruction(system))
			}
			var gc genai.GenerationConfig
			tuned := false
			if cmd.Flags().Changed("temperature") {
				gc.Temperature = genai.Ptr(temperature)
				tuned = true
			}
			if cmd.Flags().Changed("max-tokens") {
				gc.MaxOutputTokens = genai.Ptr(maxTokens)
				tuned = true
			}
			if tuned {
				opts = append(opts, genai.WithGenerationConfig(gc))
			}
			if cached != "" {
				opts = append(opts, genai.WithCachedContent(cached))
			}

			resp, err := a.client.Models.GenerateText(cmd.Context(), a.model, prompt, opts...)
			if err != nil {
				return err
			}
			return a.render(resp, func() error {
				if err := a.printf("%s\n", resp.Text()); err != nil {
					return err
				}
				if u := resp.UsageMetadata; u != nil {
					return a.printf("\n[tokens: prompt=%d candidates=%d total=%d]\n",
						u.PromptTokenCount, u.CandidatesTokenCount, u.TotalTokenCount)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system instruction")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature (0-2)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "maximum output tokens")
	cmd.Flags().StringVar(&cached, "cached-content", "", "cached content name to use as context")
	return cmd
}

func newCountTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count-tokens PROMPT...",
		Short: "Count the tokens in a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptFrom(cmd, args)
			if err != nil {
				return err
			}
			resp, err := a.client.Models.CountTokens(cmd.Context(), a.model, &genai.CountTokensRequest{
				Contents: []genai.Content{genai.Text(prompt)},
			})
			if err != nil {
				return err
			}
			return a.render(resp, func() error {
				return a.printf("%d\n", resp.TotalTokens)
			})
		},
	}
}

func newEmbedCmd(a *app) *cobra.Command {
	var taskType string
	cmd := &cobra.Command{
		Use:   "embed TEXT...",
		Short: "Embed text and print the vector",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := promptFrom(cmd, args)
			if err != nil {
				return err
			}
			resp, err := a.client.Models.EmbedContent(cmd.Context(), a.model, &genai.EmbedContentRequest{
				Content:  genai.Text(text),
				TaskType: genai.TaskType(taskType),
			})
			if err != nil {
				return err
			}
			return a.render(resp, func() error {
				values := make([]string, len(resp.Embedding.Values))
				for i, v := range resp.Embedding.Values {
					values[i] = fmt.Sprintf("%g", v)
				}
				return a.printf("dimensions=%d\n[%s]\n", len(values), strings.Join(values, ", "))
			})
		},
	}
	cmd.Flags().StringVar(&taskType, "task-type", "", "embedding task type, e.g. RETRIEVAL_QUERY")
	return cmd
}
