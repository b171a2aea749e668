package ntree

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ParallelDiff computes the same set of changes as Diff, comparing subtrees
// on up to workers goroutines (GOMAXPROCS if workers < 1). The order of the
// returned changes is unspecified. Neither tree may be mutated until
// ParallelDiff returns.
func ParallelDiff(ctx context.Context, prev, cur *Tree, workers int) ([]*Change, error) {
	start := time.Now()
	df, err := newDiffer(prev, cur)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)

	out := make(chan *Change)
	emit := func(ch *Change) error {
		select {
		case out <- ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var changes []*Change
	done := make(chan struct{})
	go func() {
		for change := range out {
			changes = append(changes, change)
		}
		close(done)
	}()

	err = df.parallelDiffNode(ctx, grp, prev.root, cur.root, prev.height, cur.height, make([]int64, prev.n), emit)
	if werr := grp.Wait(); err == nil {
		err = werr
	}
	close(out)
	<-done
	if err != nil {
		return nil, err
	}

	log.Infow("parallel diff", "duration", time.Since(start), "compared", atomic.LoadInt64(&df.compared), "changes", len(changes))
	return changes, nil
}

// spawn runs task on a new goroutine if the group has capacity and inline
// otherwise. Running inline keeps a saturated group from blocking a worker
// that is itself trying to fan out.
func spawn(grp *errgroup.Group, task func() error) error {
	if grp.TryGo(task) {
		return nil
	}
	return task()
}

func (df *differ) parallelDiffNode(ctx context.Context, grp *errgroup.Group, prev, cur *node, prevLevel, curLevel int, origin []int64, emit func(*Change) error) error {
	return spawn(grp, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch {
		case curLevel > prevLevel:
			atomic.AddInt64(&df.compared, 1)
			for i := 0; i < df.numChildren; i++ {
				sub := childAt(cur, i)
				offs := df.childOrigin(origin, curLevel-1, i)

				var err error
				if i == 0 {
					err = df.parallelDiffNode(ctx, grp, prev, sub, prevLevel, curLevel-1, offs, emit)
				} else {
					err = spawn(grp, func() error {
						return df.emitAll(ctx, sub, curLevel-1, offs, Add, emit)
					})
				}
				if err != nil {
					return err
				}
			}
			return nil

		case prevLevel > curLevel:
			atomic.AddInt64(&df.compared, 1)
			for i := 0; i < df.numChildren; i++ {
				sub := childAt(prev, i)
				offs := df.childOrigin(origin, prevLevel-1, i)

				var err error
				if i == 0 {
					err = df.parallelDiffNode(ctx, grp, sub, cur, prevLevel-1, curLevel, offs, emit)
				} else {
					err = spawn(grp, func() error {
						return df.emitAll(ctx, sub, prevLevel-1, offs, Remove, emit)
					})
				}
				if err != nil {
					return err
				}
			}
			return nil

		case !prev.hasChildren() && !cur.hasChildren():
			return df.diffNode(ctx, prev, cur, prevLevel, curLevel, origin, emit)
		}

		atomic.AddInt64(&df.compared, 1)
		level := curLevel
		for i := 0; i < df.numChildren; i++ {
			offs := df.childOrigin(origin, level-1, i)
			if err := df.parallelDiffNode(ctx, grp, childAt(prev, i), childAt(cur, i), level-1, level-1, offs, emit); err != nil {
				return err
			}
		}
		return nil
	})
}
