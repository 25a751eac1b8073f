// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/naka-gawa/contrib-tally/internal/domain"
	"github.com/naka-gawa/contrib-tally/internal/gateway"
)

// Boundaries names the two primary-project points delimiting the
// attribution window. An empty Lower means the beginning of history; an
// empty Upper means the latest point in history (HEAD).
type Boundaries struct {
	Lower string
	Upper string
}

// ResolutionError reports a boundary point that does not exist in the
// primary project's history. It aborts the run cleanly; no partial report
// is produced.
type ResolutionError struct {
	Repo string
	Ref  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("version %q not found in %s history", e.Ref, e.Repo)
}

// Attributor is the use case that aggregates commit contributions across
// the primary project and its satellites over one attribution window.
// It orchestrates boundary resolution, satellite window mapping, and the
// tally aggregation.
type Attributor struct {
	opener gateway.Opener
	policy domain.BotPolicy
	logger *log.Logger
}

// NewAttributor creates a new Attributor instance.
func NewAttributor(opener gateway.Opener, policy domain.BotPolicy, logger *log.Logger) *Attributor {
	return &Attributor{
		opener: opener,
		policy: policy,
		logger: logger,
	}
}

// accumulator carries the run's mutable state: the tally plus the excluded
// and raw totals. It is owned by a single Run call and never shared.
type accumulator struct {
	tally      *domain.Tally
	botCommits int
	rawCommits int
}

// Run executes the pipeline strictly sequentially: resolve the boundaries
// in the primary project, then for the primary and every satellite in the
// given order resolve the window, fetch the log, and merge it into the
// tally; finally sort and assemble the report. Any step's failure is
// terminal and yields no partial result.
func (a *Attributor) Run(ctx context.Context, primary domain.RepositoryRef, satellites []domain.RepositoryRef, bounds Boundaries, ascending bool) (*domain.Report, error) {
	a.logger.Println("Usecase: resolving attribution window...")

	hist, err := a.opener.Open(ctx, primary)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", primary.Name, err)
	}
	window, err := a.resolveWindow(ctx, hist, primary, bounds)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("Window: (%s @ %s, %s @ %s]",
		window.LowerRef, window.LowerTime, window.UpperRef, window.UpperTime)

	acc := &accumulator{tally: domain.NewTally()}

	primaryRange := domain.Range{Lower: window.LowerRef, Upper: window.UpperRef}
	if err := a.collect(ctx, hist, primary, primaryRange, acc); err != nil {
		return nil, err
	}

	for _, sat := range satellites {
		satHist, err := a.opener.Open(ctx, sat)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", sat.Name, err)
		}
		rng, empty, err := a.satelliteRange(ctx, satHist, sat, window)
		if err != nil {
			return nil, err
		}
		if empty {
			a.logger.Printf("%s: no commits at or before the window", sat.Name)
			continue
		}
		if err := a.collect(ctx, satHist, sat, rng, acc); err != nil {
			return nil, err
		}
	}

	a.logger.Println("Usecase: aggregation complete.")
	return domain.BuildReport(acc.tally, acc.botCommits, acc.rawCommits, ascending), nil
}

// resolveWindow turns the named boundaries into commit timestamps using the
// primary project's history. Commit time is used rather than author time to
// avoid skew from long-lived branches.
func (a *Attributor) resolveWindow(ctx context.Context, hist gateway.History, primary domain.RepositoryRef, bounds Boundaries) (domain.Window, error) {
	var window domain.Window
	upper := bounds.Upper
	if upper == "" {
		upper = "HEAD"
	}
	upperTime, err := a.boundaryTime(ctx, hist, primary, upper)
	if err != nil {
		return window, err
	}
	window.UpperRef = upper
	window.UpperTime = upperTime

	if bounds.Lower != "" {
		lowerTime, err := a.boundaryTime(ctx, hist, primary, bounds.Lower)
		if err != nil {
			return window, err
		}
		if lowerTime.After(upperTime) {
			return window, fmt.Errorf("window out of order: %s (%s) is newer than %s (%s)",
				bounds.Lower, lowerTime, upper, upperTime)
		}
		window.LowerRef = bounds.Lower
		window.LowerTime = lowerTime
	}
	return window, nil
}

func (a *Attributor) boundaryTime(ctx context.Context, hist gateway.History, primary domain.RepositoryRef, ref string) (time.Time, error) {
	t, err := hist.LatestCommitTime(ctx, ref)
	if err != nil {
		if errors.Is(err, gateway.ErrRefNotFound) {
			return t, &ResolutionError{Repo: primary.Name, Ref: ref}
		}
		return t, fmt.Errorf("resolve %s in %s: %w", ref, primary.Name, err)
	}
	return t, nil
}

// satelliteRange maps the primary window into sat's own history: the
// satellite's latest commit at or before each boundary timestamp. This
// credits a satellite's changes to whichever primary release window
// directly follows them. The second return value reports an empty window
// (the satellite has no commit at or before the upper boundary).
func (a *Attributor) satelliteRange(ctx context.Context, hist gateway.History, sat domain.RepositoryRef, window domain.Window) (domain.Range, bool, error) {
	upperRev, err := hist.RevBefore(ctx, sat.DefaultBranch, window.UpperTime)
	if err != nil {
		return domain.Range{}, false, fmt.Errorf("map window into %s: %w", sat.Name, err)
	}
	if upperRev == "" {
		return domain.Range{}, true, nil
	}
	rng := domain.Range{Upper: upperRev}
	if window.LowerRef != "" {
		lowerRev, err := hist.RevBefore(ctx, sat.DefaultBranch, window.LowerTime)
		if err != nil {
			return domain.Range{}, false, fmt.Errorf("map window into %s: %w", sat.Name, err)
		}
		// lowerRev may still be empty: the satellite's whole history up to
		// upperRev falls inside the window.
		rng.Lower = lowerRev
	}
	return rng, false, nil
}

// collect merges one repository range into the accumulator: bot authors go
// to the excluded counter, everyone else to the tally, and the raw commit
// count is recorded for display.
func (a *Attributor) collect(ctx context.Context, hist gateway.History, repo domain.RepositoryRef, rng domain.Range, acc *accumulator) error {
	counts, err := hist.ShortlogCounts(ctx, rng)
	if err != nil {
		return fmt.Errorf("shortlog %s: %w", repo.Name, err)
	}
	total, err := hist.CommitCount(ctx, rng)
	if err != nil {
		return fmt.Errorf("count commits in %s: %w", repo.Name, err)
	}
	for _, ac := range counts {
		if a.policy.Matches(ac.Name) {
			acc.botCommits += ac.Count
			continue
		}
		acc.tally.Add(ac.Name, ac.Count)
	}
	acc.rawCommits += total
	a.logger.Printf("%s: %d commits in window", repo.Name, total)
	return nil
}
