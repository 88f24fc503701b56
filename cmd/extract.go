package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-scorer/internal/headhunter"
	"github.com/spigell/hh-scorer/internal/scoring"
)

const (
	outputMarkdown = "markdown"
	outputJSON     = "json"
)

var extractCmd = &cobra.Command{
	Use:       "extract vacancy|resume URL",
	Short:     "Extract a single vacancy or resume page",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{scoring.KindVacancy, scoring.KindResume},
	Run: func(cmd *cobra.Command, args []string) {
		extract(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", outputMarkdown, "output format: markdown or json")
}

func extract(cmd *cobra.Command, kind, url string) {
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	output, _ := cmd.Flags().GetString("output")

	if err := runExtract(context.Background(), os.Stdout, logger, config, kind, url, output); err != nil {
		logger.Fatal("extracting page", zap.String("kind", kind), zap.String("url", url), zap.Error(err))
	}
}

// runExtract fetches a single page and writes its rendered record to w.
func runExtract(ctx context.Context, w io.Writer, logger *zap.Logger, config *Config, kind, url, output string) error {
	parser, err := newParser(config)
	if err != nil {
		return fmt.Errorf("building parser: %w", err)
	}

	page, err := newFetcher(config.Fetch, logger).Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("fetching page: %w", err)
	}

	out, err := renderRecord(parser, kind, page.Body, output)
	if err != nil {
		return fmt.Errorf("rendering record: %w", err)
	}

	_, err = fmt.Fprintln(w, out)
	return err
}

type markdowner interface {
	Markdown() string
}

func renderRecord(parser *headhunter.Parser, kind, body, output string) (string, error) {
	var (
		record markdowner
		err    error
	)

	switch strings.ToLower(kind) {
	case scoring.KindVacancy:
		record, err = parser.ParseVacancy(strings.NewReader(body))
	case scoring.KindResume:
		record, err = parser.ParseResume(strings.NewReader(body))
	default:
		return "", fmt.Errorf("unknown page kind %q, expected %s or %s", kind, scoring.KindVacancy, scoring.KindResume)
	}
	if err != nil {
		return "", err
	}

	switch strings.ToLower(output) {
	case "", outputMarkdown:
		return record.Markdown(), nil
	case outputJSON:
		pretty, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s: %w", kind, err)
		}
		return string(pretty), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", output)
	}
}
