package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/resume"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	PromptDetails             = "Show match details"
	PromptReportByDepartment  = "Report by department"
	PromptMatchesToFile       = "Dump matches to file"
	PromptAppendToExcludeFile = "Append all matches to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"

	reasonWidth = 80
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank the catalog against a resume file",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("resume", "r", "", "resume file (pdf, txt or md)")
	matchCmd.Flags().IntP("limit", "l", 0, "show at most N matches (0 shows all)")
	matchCmd.Flags().BoolP("yes", "y", false, "print the matches and exit without prompting")
	matchCmd.Flags().StringP("exclude-file", "e", "", "file with postings to exclude. Default is unset.")
	matchCmd.Flags().StringSlice("skip-filter", nil, "disable filters by name (e.g. exclude_file,salary)")
	matchCmd.MarkFlagRequired("resume")

	viper.BindPFlag("match.limit", matchCmd.Flags().Lookup("limit"))
	viper.BindPFlag("filters.exclude-file", matchCmd.Flags().Lookup("exclude-file"))
}

func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	resumePath, _ := cmd.Flags().GetString("resume")
	res, err := readResume(resumePath)
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err), zap.String("file", resumePath))
	}

	src, err := catalog.Open(ctx, config.Catalog, logger)
	if err != nil {
		logger.Fatal("opening the catalog", zap.Error(err), zap.String("driver", config.Catalog.Driver))
	}
	defer catalog.Close(src)

	postings, err := src.All(ctx)
	if err != nil {
		logger.Fatal("loading postings", zap.Error(err))
	}
	logger.Info("getting postings", zap.Int("count", postings.Len()))

	criteria := &config.Filters
	steps := criteria.Steps()
	skipped, _ := cmd.Flags().GetStringSlice("skip-filter")
	for _, name := range skipped {
		filtering.DisableByName(steps, strings.TrimSpace(name), "skip-filter flag is set")
	}
	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	postings, err = filtering.Run(ctx, criteria, filtering.Deps{Logger: logger, Now: time.Now()}, steps, postings)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	matcher, err := newMatcher(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the matcher", zap.Error(err))
	}

	outcome := matcher.Match(ctx, res, postings.Items)
	printMatches(cmd.OutOrStdout(), outcome)

	if outcome.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no matches"))
		return
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return
	}

	for {
		items := []string{PromptDetails, PromptReportByDepartment, PromptMatchesToFile}
		if criteria.ExcludeFile != "" {
			items = append(items, PromptAppendToExcludeFile)
		}
		items = append(items, PromptExit)

		prompt := promptui.Select{Label: "What next?", Items: items}
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, cmd.OutOrStdout(), logger, criteria, res, outcome); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, w io.Writer, logger *zap.Logger, criteria *filtering.Criteria, res matching.Resume, outcome *matching.Outcome) error {
	matched := matchedPostings(outcome)

	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptDetails:
		return showDetails(w, res, outcome)
	case PromptReportByDepartment:
		pretty, _ := json.MarshalIndent(matched.ReportByDepartment(), "", "  ")
		logger.Info(string(pretty), zap.Int("matches count", matched.Len()))
		return nil
	case PromptMatchesToFile:
		filename, err := matched.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump matches to file: %w", err)
		}
		logger.Info("dumping matches to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(criteria.ExcludeFile, matched, logger)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func showDetails(w io.Writer, res matching.Resume, outcome *matching.Outcome) error {
	scorer := matching.NewKeywordScorer(nil)

	for {
		items := make([]string, 0, outcome.Len()+1)
		for _, m := range outcome.Matches {
			items = append(items, fmt.Sprintf("%s %3d %s / %s", m.Job.ID, m.Score, m.Job.Title, m.Job.Company))
		}

		matchPrompt := promptui.Select{
			Label: "Choose a match and press ENTER",
			Items: append(items, PromptBack),
			Size:  15,
		}

		_, selected, err := matchPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		id := strings.Split(selected, " ")[0]
		for _, m := range outcome.Matches {
			if m.Job.ID == id {
				printDetails(w, m, scorer.Explain(res, m.Job))
			}
		}
	}
}

func appendToExcludeFile(path string, matched *jobs.Postings, logger *zap.Logger) error {
	excluded, err := jobs.LoadExcludedFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		excluded, err = &jobs.ExcludedPostings{}, nil
	}
	if err != nil {
		return err
	}

	excluded.Append(matched.ToExcluded(time.Now()))

	if err := excluded.ToFile(path); err != nil {
		return err
	}

	logger.Info("appended to exclude file", zap.String("filename", path), zap.Int("excluded", len(excluded.Items)))
	return nil
}

func readResume(path string) (matching.Resume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return matching.Resume{}, err
	}
	if info.Size() > resume.MaxSize {
		return matching.Resume{}, resume.ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return matching.Resume{}, err
	}
	return resume.Extract(filepath.Base(path), "", data)
}

func matchedPostings(outcome *matching.Outcome) *jobs.Postings {
	p := jobs.NewPostings()
	for _, m := range outcome.Matches {
		p.Items = append(p.Items, m.Job)
	}
	return p
}

func printMatches(w io.Writer, outcome *matching.Outcome) {
	fmt.Fprintf(w, "mode: %s, matches: %d\n", outcome.Mode, outcome.Len())
	if outcome.Len() == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tID\tTITLE\tCOMPANY\tREASON")
	for _, m := range outcome.Matches {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			m.Score, m.Job.ID, m.Job.Title, m.Job.Company, utils.TruncateForLog(m.Reason, reasonWidth))
	}
	tw.Flush()
}

func printDetails(w io.Writer, m matching.Result, b matching.Breakdown) {
	job := m.Job
	fmt.Fprintf(w, "\n%s at %s (%s, %s)\n", job.Title, job.Company, job.Level, job.Location)
	fmt.Fprintf(w, "score: %d\nreason: %s\n", m.Score, m.Reason)
	fmt.Fprintf(w, "salary: %d-%d %s\n", job.Salary.Min, job.Salary.Max, job.Salary.Currency)
	fmt.Fprintf(w, "skills: %s\n", strings.Join(job.Skills, ", "))

	fmt.Fprintln(w, "keyword signals:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  skills\t%.1f\t%s\n", b.Skills, strings.Join(b.MatchedSkills, ", "))
	fmt.Fprintf(tw, "  title\t%.1f\t\n", b.Title)
	fmt.Fprintf(tw, "  domain\t%.1f\taligned=%t\n", b.Domain, b.DomainAligned)
	fmt.Fprintf(tw, "  level\t%.1f\tproximity=%.2f\n", b.Level, b.Proximity)
	fmt.Fprintf(tw, "  description\t%.1f\t\n", b.Description)
	fmt.Fprintf(tw, "  penalty\tx%.1f\t\n", b.Penalty)
	fmt.Fprintf(tw, "  total\t%d\t\n", b.Score())
	tw.Flush()
	fmt.Fprintln(w)
}

// redacted hides secrets before the config is logged.
func redacted(config *Config) *Config {
	c := *config
	c.Server.AdminKey = mask(c.Server.AdminKey)
	if c.AI != nil && c.AI.Gemini != nil {
		ai := *c.AI
		g := *ai.Gemini
		g.APIKey = mask(g.APIKey)
		ai.Gemini = &g
		c.AI = &ai
	}
	c.Catalog.DSN = mask(c.Catalog.DSN)
	return &c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
