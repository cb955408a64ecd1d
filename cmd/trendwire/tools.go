package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/trendwire/internal/contract"
)

var flagDecode bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a web search through the gateway the model uses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		query := strings.Join(args, " ")
		res := a.gateway.Lookup(cmd.Context(), query)

		out := cmd.OutOrStdout()
		status := string(res.Outcome)
		if res.Cached {
			status += ", cached"
		}
		fmt.Fprintf(out, "%s  %s\n\n", headingStyle.Render(query), subtleStyle.Render(status))
		fmt.Fprintln(out, res.Text)
		return nil
	},
}

var extractJSONCmd = &cobra.Command{
	Use:   "extract-json",
	Short: "Pull the JSON payload out of a model reply on stdin",
	Long: `Read a model reply from stdin and print the JSON it contains, taken from a
fenced code block when present. Text with no JSON is echoed unchanged.
With --decode the payload must parse; malformed output exits non-zero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		out := cmd.OutOrStdout()
		if !flagDecode {
			fmt.Fprintln(out, contract.ExtractJSON(string(data)))
			return nil
		}
		var v any
		if err := contract.Decode(string(data), &v); err != nil {
			return err
		}
		return writeJSON(out, v)
	},
}

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize <text>",
	Short: "Strip emoji and pictographs from text and collapse whitespace",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), contract.Sanitize(strings.Join(args, " ")))
	},
}

func init() {
	extractJSONCmd.Flags().BoolVar(&flagDecode, "decode", false, "require valid JSON and pretty-print it")
}
