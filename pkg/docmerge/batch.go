package docmerge

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MergeBatch merges body into cover once per substitution set, e.g. once per exam version.
// Up to Config.Concurrency merges run at a time, each on its own packages. Results are in the
// order of subs. The first failure cancels the merges that have not started yet and is
// returned; no results are returned in that case.
func (m *Merger) MergeBatch(ctx context.Context, cover, body []byte, subs []Substitutions) ([]*Result, error) {
	results := make([]*Result, len(subs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Concurrency)

	for i := range subs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := m.Merge(cover, body, &subs[i])
			if err != nil {
				return WithContext(err, "batch merge", map[string]interface{}{
					"index":   i,
					"version": subs[i].VersionLabel,
				})
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
