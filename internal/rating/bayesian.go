// Bayesian-average game rating, after woctezuma's Steam-Bayesian-Average:
// https://github.com/woctezuma/Steam-Bayesian-Average
package rating

import "context"

// VoteSource supplies community vote counts per app id.
type VoteSource interface {
	AppVotes(ctx context.Context, appID string) Votes
}

// Ranker scores sets of titles by a Bayesian-average popularity metric.
type Ranker struct {
	votes VoteSource
}

func NewRanker(votes VoteSource) *Ranker {
	return &Ranker{votes: votes}
}

// Rank returns a relative desirability score per app id. Low-vote titles are
// shrunk toward the population mean, so a title with one positive vote
// cannot outrank one with thousands of mixed votes. A degenerate input
// (zero votes across the whole set) yields all-zero scores.
func (r *Ranker) Rank(ctx context.Context, appIDs []string) map[string]float64 {
	votes := make(map[string]Votes, len(appIDs))
	for _, id := range appIDs {
		if _, ok := votes[id]; ok {
			continue
		}
		votes[id] = r.votes.AppVotes(ctx, id)
	}

	p := computePrior(votes)
	scores := make(map[string]float64, len(votes))
	for id, v := range votes {
		scores[id] = bayesianAverage(v, p)
	}
	return scores
}

// prior summarizes the candidate population: its overall raw score and the
// mean vote count per title.
type prior struct {
	rawScore float64
	numVotes float64
}

func computePrior(votes map[string]Votes) prior {
	if len(votes) == 0 {
		return prior{}
	}
	var positive, total int
	for _, v := range votes {
		positive += v.Positive
		total += numVotes(v)
	}
	if total == 0 {
		return prior{}
	}
	return prior{
		rawScore: float64(positive) / float64(total),
		numVotes: float64(total) / float64(len(votes)),
	}
}

func bayesianAverage(v Votes, p prior) float64 {
	n := float64(numVotes(v))
	if p.numVotes+n == 0 {
		return 0
	}
	return (p.numVotes*p.rawScore + n*rawScore(v)) / (p.numVotes + n)
}

func rawScore(v Votes) float64 {
	total := numVotes(v)
	if total == 0 {
		return 0
	}
	return float64(v.Positive) / float64(total)
}

func numVotes(v Votes) int {
	return v.Positive + v.Negative
}
