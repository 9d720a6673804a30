package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kresler/callsight/internal/config"
	"github.com/kresler/callsight/internal/extract"
)

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [transcript]",
	Short: "Analyze a call transcript",
	Long: `Analyze a call transcript and record the result in history.

Examples:
  callsight analyze "Customer: my refund never arrived. Agent: let me check."
  callsight analyze --file ./call-4711.txt
  callsight analyze --file ./call-4711.pdf
  callsight analyze --url https://support.example.com/calls/4711`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		url, _ := cmd.Flags().GetString("url")
		asJSON, _ := cmd.Flags().GetBool("json")

		transcript, err := resolveTranscript(cmd.Context(), args, file, url)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/analyze", map[string]string{"transcript": transcript})
		if err != nil {
			return err
		}

		var result struct {
			ID        string `json:"id"`
			Summary   string `json:"summary"`
			Sentiment string `json:"sentiment"`
			Timestamp string `json:"timestamp"`
			Truncated bool   `json:"truncated"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		if result.Truncated {
			printWarning("Transcript was truncated before analysis")
		}
		printStatus("Sentiment", "%s", colorizeSentiment(result.Sentiment))
		printStatus("Summary", "%s", result.Summary)
		printStatus("Recorded", "%s", result.Timestamp)
		return nil
	},
}

// resolveTranscript picks the transcript source: positional text, a local
// file (PDF or plain text), or a URL.
func resolveTranscript(ctx context.Context, args []string, file, url string) (string, error) {
	sources := 0
	if len(args) > 0 {
		sources++
	}
	if file != "" {
		sources++
	}
	if url != "" {
		sources++
	}
	if sources == 0 {
		return "", fmt.Errorf("provide a transcript argument, --file, or --url")
	}
	if sources > 1 {
		return "", fmt.Errorf("provide only one of: transcript argument, --file, --url")
	}

	switch {
	case file != "":
		if strings.EqualFold(filepath.Ext(file), ".pdf") {
			return extract.FromPDF(file)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	case url != "":
		httpClient := &http.Client{Timeout: 15 * time.Second}
		return extract.FromURL(ctx, httpClient, url)
	default:
		return strings.Join(args, " "), nil
	}
}

func init() {
	analyzeCmd.Flags().String("file", "", "read the transcript from a file (.pdf files are text-extracted)")
	analyzeCmd.Flags().String("url", "", "fetch the transcript from a URL")
	analyzeCmd.Flags().Bool("json", false, "print the full result as JSON")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List analyzed calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/history")
		if err != nil {
			return err
		}

		var records []struct {
			Timestamp  string `json:"timestamp"`
			Transcript string `json:"transcript"`
			Summary    string `json:"summary"`
			Sentiment  string `json:"sentiment"`
		}
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No analyzed calls yet.")
			return nil
		}

		if limit > 0 && len(records) > limit {
			records = records[len(records)-limit:]
		}

		for _, r := range records {
			summary := r.Summary
			if len(summary) > 120 {
				summary = summary[:120] + "..."
			}
			fmt.Printf("%s  %-8s  %s\n",
				colorize(colorCyan, r.Timestamp),
				colorizeSentiment(r.Sentiment),
				summary,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of records to list (most recent)")
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the raw history CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/download")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("no history to export yet")
		}
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		var writer *os.File
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		} else {
			writer = os.Stdout
		}

		n, err := io.Copy(writer, resp.Body)
		if err != nil {
			return fmt.Errorf("writing export: %w", err)
		}

		if output != "" {
			printSuccess("Exported %d bytes to %s", n, output)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
