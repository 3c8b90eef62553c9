package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"stonks/internal/controller"
	"stonks/internal/fetcher"
	"stonks/internal/format"
	"stonks/internal/quote"
)

// Controller is the part of controller.Controller the coordinator drives.
type Controller interface {
	Load(ctx context.Context)
	State() controller.State
	Subscribe(field string) (<-chan controller.Signal, controller.CancelFunc, error)
}

// Coordinator runs one load chain and prints the resulting views
type Coordinator struct {
	ctrl Controller
	out  io.Writer
}

// New creates a new Coordinator printing to out
func New(ctrl Controller, out io.Writer) *Coordinator {
	return &Coordinator{
		ctrl: ctrl,
		out:  out,
	}
}

// Run loads quotes through the controller and prints them. While the chain
// runs, each automatic retry is reported on its own line. Output looks like:
//   - Success: the featured, favorites and sorted favorites tables
//   - Error: "ERROR - message" followed by the failure reason and what to try
//
// Run returns the error that ended the load chain, or ctx.Err() when the
// chain was abandoned.
func (c *Coordinator) Run(ctx context.Context) error {
	signals, cancel, err := c.ctrl.Subscribe(controller.FieldRetryCount)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	fmt.Fprintln(c.out, "Loading quotes...")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for sig := range signals {
			if n := sig.State.RetryCount; n > 0 && sig.State.IsLoading {
				fmt.Fprintf(c.out, "  retry %d...\n", n)
			}
		}
	}()

	c.ctrl.Load(ctx)

	cancel()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	s := c.ctrl.State()
	if s.LastError != nil {
		c.printError(s)
		return s.LastError
	}

	c.printSection("Featured", s.Featured)
	c.printSection("Favorites", s.Favorites)

	order := "descending"
	if s.SortAscending {
		order = "ascending"
	}
	c.printSection(fmt.Sprintf("Favorites by change (%s)", order), s.SortedFavorites)

	return nil
}

func (c *Coordinator) printSection(title string, quotes []quote.Quote) {
	fmt.Fprintf(c.out, "\n%s\n", title)
	if len(quotes) == 0 {
		fmt.Fprintln(c.out, "  (none)")
		return
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, q := range quotes {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t\n",
			q.Ticker,
			format.Currency(q.CurrentPrice, ""),
			format.PriceChange(q.PriceChange(), true),
			format.PercentageOf(q))
	}
	w.Flush()
}

func (c *Coordinator) printError(s controller.State) {
	fmt.Fprintf(c.out, "ERROR - %s\n", s.ErrorMessage)

	var fe *fetcher.FetchError
	if errors.As(s.LastError, &fe) {
		fmt.Fprintf(c.out, "  %s. %s\n", fe.FailureReason(), fe.RecoverySuggestion())
	}
	if s.RetryCount > 0 {
		fmt.Fprintf(c.out, "  gave up after %d retries\n", s.RetryCount)
	}
}
