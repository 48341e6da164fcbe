package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"domainwizard/internal/domain"
)

type searchFlags struct {
	description   string
	tld           string
	style         string
	randomness    string
	blacklist     []string
	maxLength     int
	maxNames      int
	loops         int
	budget        float64
	backendURL    string
	preferEnglish bool
	repetition    string
}

func newSearchCmd(c *cli) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <keywords...>",
		Short: "Run a search job and print the ranked domains",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, c, f, strings.Join(args, " "))
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.description, "description", "", "business description passed to name generation")
	fl.StringVar(&f.tld, "tld", "com", "top-level domain to search")
	fl.StringVar(&f.style, "style", "", "naming style (default, brandable, twowords, threewords, compound, spelling, nonenglish, dictionary)")
	fl.StringVar(&f.randomness, "randomness", "", "randomness (low, medium, high)")
	fl.StringSliceVar(&f.blacklist, "exclude", nil, "words that must not appear in names")
	fl.IntVar(&f.maxLength, "max-length", 0, "maximum label length")
	fl.IntVar(&f.maxNames, "max-names", 0, "names to keep per view")
	fl.IntVar(&f.loops, "loops", 0, "optimisation loops")
	fl.Float64Var(&f.budget, "budget", 0, "yearly budget in USD")
	fl.StringVar(&f.backendURL, "backend-url", "", "availability backend base URL")
	fl.BoolVar(&f.preferEnglish, "prefer-english", false, "prefer English-sounding synthesised names")
	fl.StringVar(&f.repetition, "repetition", "", "repetition penalty (off, gentle, moderate, strong)")
	return cmd
}

func (f *searchFlags) raw(keywords string, budgetSet bool) domain.RawInput {
	raw := domain.RawInput{
		Keywords:               keywords,
		Description:            f.description,
		Style:                  f.style,
		Randomness:             f.randomness,
		Blacklist:              f.blacklist,
		MaxLength:              f.maxLength,
		MaxNames:               f.maxNames,
		LoopCount:              f.loops,
		TLD:                    f.tld,
		BackendURL:             f.backendURL,
		PreferEnglish:          f.preferEnglish,
		RepetitionPenaltyLevel: f.repetition,
	}
	if budgetSet {
		b := f.budget
		raw.YearlyBudget = &b
	}
	return raw
}

func runSearch(cmd *cobra.Command, c *cli, f *searchFlags, keywords string) error {
	comps, release, err := c.open(cmd)
	if err != nil {
		return err
	}
	defer release()

	ctx := cmd.Context()
	svc := comps.Search
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Close(closeCtx)
	}()

	job, err := svc.Start(ctx, f.raw(keywords, cmd.Flags().Changed("budget")))
	if err != nil {
		return err
	}
	updates, unsubscribe, err := svc.Subscribe(job.ID)
	if err != nil {
		return err
	}
	defer unsubscribe()

	errOut := cmd.ErrOrStderr()
	last := job
	lastLoop := -1
	for done := false; !done; {
		select {
		case <-ctx.Done():
			if _, err := svc.Cancel(context.Background(), job.ID); err != nil {
				return err
			}
			ctx = context.Background()
		case j, ok := <-updates:
			if !ok {
				done = true
				break
			}
			last = j
			if !c.json && j.CurrentLoop != lastLoop && !j.Status.Terminal() {
				lastLoop = j.CurrentLoop
				fmt.Fprintf(errOut, "loop %d/%d  %3d%%  %s\n", j.CurrentLoop, j.TotalLoops, j.Progress, j.Phase)
			}
		}
	}

	final, err := svc.Wait(context.Background(), job.ID)
	if err == nil {
		last = final
	}
	if c.json {
		return writeJSON(cmd.OutOrStdout(), last)
	}
	if last.Results != nil {
		if err := renderResults(cmd.OutOrStdout(), last.Results); err != nil {
			return err
		}
	}
	if last.Error != nil {
		return fmt.Errorf("%s: %s", last.Error.Code, last.Error.Message)
	}
	return nil
}
