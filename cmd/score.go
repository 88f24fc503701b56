package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-scorer/internal/headhunter"
	"github.com/spigell/hh-scorer/internal/scoring"
)

const (
	PromptScoreAnother = "Score another pair"
	PromptDumpToFile   = "Dump result to file"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "Next?",
	Items: []string{PromptScoreAnother, PromptDumpToFile, PromptExit},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a resume against a vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("job", "", "vacancy page URL; asked interactively when empty")
	scoreCmd.Flags().String("cv", "", "resume page URL; asked interactively when empty")
	scoreCmd.Flags().BoolP("yes", "y", false, "print the result and exit without asking what to do next")
}

func score(cmd *cobra.Command) {
	ctx := context.Background()
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hh-scorer", zap.String("version", version))

	pipeline, err := newPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	jobURL, _ := cmd.Flags().GetString("job")
	cvURL, _ := cmd.Flags().GetString("cv")
	yes, _ := cmd.Flags().GetBool("yes")

	for {
		if jobURL, err = askURL("Enter the job description URL", jobURL); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if cvURL, err = askURL("Enter the CV URL", cvURL); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		res, err := pipeline.Run(ctx, jobURL, cvURL)
		if err != nil {
			logger.Fatal("scoring", zap.Error(err))
		}

		printResult(os.Stdout, res)

		if yes {
			return
		}

		if err := handleActions(logger, res); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		jobURL, cvURL = "", ""
	}
}

// handleActions loops over the action menu until a new pair is requested or the user exits.
func handleActions(logger *zap.Logger, res *scoring.Result) error {
	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptScoreAnother:
			return nil
		case PromptExit:
			logger.Info("exiting", zap.String("reason", "got exit from prompt"))
			return errExit
		case PromptDumpToFile:
			filename, err := res.DumpToTmpFile()
			if err != nil {
				return fmt.Errorf("dump result to file: %w", err)
			}
			logger.Info("dumping result to file", zap.String("filename", filename))
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func askURL(label, value string) (string, error) {
	if value = strings.TrimSpace(value); value != "" {
		if err := headhunter.ValidateURL(value); err != nil {
			return "", err
		}
		return value, nil
	}

	prompt := promptui.Prompt{
		Label:    label,
		Validate: headhunter.ValidateURL,
	}

	value, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// printResult writes the job, CV, error and result panels.
func printResult(w io.Writer, res *scoring.Result) {
	fmt.Fprintf(w, "Job description:\n%s\n\n", res.Job)
	fmt.Fprintf(w, "CV:\n%s\n\n", res.Candidate)

	if res.ScoreError != "" {
		fmt.Fprintf(w, "Error:\n%s\n\n", res.ScoreError)
	}

	if res.Assessment != nil {
		fmt.Fprintf(w, "Результат:\n%s\n", res.Assessment.Text)
	}
}
