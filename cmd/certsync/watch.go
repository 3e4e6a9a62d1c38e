package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/poller"
)

type certificateLister interface {
	List(ctx context.Context, purchaseID, donationID string) ([]*domain.Certificate, error)
}

type owner struct {
	purchaseID string
	donationID string
}

func (o owner) String() string {
	if o.purchaseID != "" {
		return "purchase " + o.purchaseID
	}

	return "donation " + o.donationID
}

// watcher feeds the poller with the certificates of a set of purchases and
// donations until none of them is waiting for an artifact.
type watcher struct {
	lister   certificateLister
	poller   *poller.Poller
	interval time.Duration
}

// discover lists every owner concurrently and observes what it finds.
func (w *watcher) discover(ctx context.Context, owners []owner) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := make([][]*domain.Certificate, len(owners))

	for i, o := range owners {
		i, o := i, o

		g.Go(func() error {
			certificates, err := w.lister.List(gctx, o.purchaseID, o.donationID)
			if err != nil {
				return fmt.Errorf("list certificates of %s: %w", o, err)
			}

			results[i] = certificates

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	n := 0

	for _, certificates := range results {
		for _, c := range certificates {
			w.poller.Observe(c.ID, c.ArtifactURL)
			n++
		}
	}

	return n, nil
}

// run lists again every interval, certificates may be issued after the
// payment settles. It returns once every certificate seen is settled.
func (w *watcher) run(ctx context.Context, owners []owner) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		n, err := w.discover(ctx, owners)
		if err != nil && !apperrors.IsRetryable(err) {
			return err
		}

		if err == nil && n > 0 && w.settled() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *watcher) settled() bool {
	for _, s := range w.poller.Snapshot() {
		if s.State == poller.StateNoArtifact {
			return false
		}
	}

	return true
}

func printStatuses(out io.Writer, statuses []poller.Status) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "CERTIFICATE\tSTATE\tATTEMPTS\tARTIFACT\tLAST ERROR")

	for _, s := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.CertificateID, s.State, s.Attempts, s.ArtifactURL, s.LastError)
	}

	return tw.Flush()
}
