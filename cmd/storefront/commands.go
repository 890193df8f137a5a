package main

import (
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/xenking/storefront/internal/app"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/storefront"
)

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Render the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, false, func(*session) error { return nil })
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add ID [QTY]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty := 1
			if len(args) == 2 {
				n, err := parseInt("quantity", args[1])
				if err != nil {
					return err
				}
				if n < 1 {
					return errors.Errorf("quantity must be at least 1, got %d", n)
				}
				qty = n
			}
			return c.run(cmd, false, func(s *session) error {
				_, err := s.app.Dispatch(cmd.Context(), storefront.AddToCart{ProductID: args[0], Quantity: qty})
				return err
			})
		},
	}
}

func (c *cli) adjustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjust ID DELTA",
		Short: "Change the quantity of a cart entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := parseInt("delta", args[1])
			if err != nil {
				return err
			}
			return c.run(cmd, false, func(s *session) error {
				_, err := s.app.Dispatch(cmd.Context(), storefront.AdjustQuantity{
					ProductID: args[0],
					Delta:     delta,
					Origin:    storefront.OriginCart,
				})
				return err
			})
		},
	}
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, false, func(s *session) error {
				_, err := s.app.Dispatch(cmd.Context(), storefront.RemoveFromCart{ProductID: args[0]})
				return err
			})
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Show products matching QUERY and their category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, true, func(s *session) error {
				res, err := s.app.Dispatch(cmd.Context(), storefront.Search{Query: args[0]})
				if err != nil {
					return err
				}
				if res.Matches == 0 {
					_, err = fmt.Fprintf(c.out, "No products match %q\n", args[0])
				}
				return err
			})
		},
	}
}

func (c *cli) suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest QUERY",
		Short: "List product titles containing QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (rerr error) {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() {
				if err := s.Close(); err != nil && rerr == nil {
					rerr = err
				}
			}()

			res, err := s.app.Dispatch(cmd.Context(), storefront.Suggest{Query: args[0]})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, s.surface.Suggestions(res.Suggestions))
			return err
		},
	}
}

// inspectCmd prints the stored snapshot as is. Unlike the other commands
// it never restores the cart, so unknown products are not pruned.
func (c *cli) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Decode the raw cart snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (rerr error) {
			res, err := app.Open(cmd.Context(), c.lg, c.cfg, otel.GetTracerProvider(), otel.GetMeterProvider())
			if err != nil {
				return err
			}
			defer func() {
				if err := res.Close(); err != nil && rerr == nil {
					rerr = err
				}
			}()

			adapter := persist.NewAdapter(res.Slot, c.cfg.Key, c.lg)
			entries, err := adapter.Read(cmd.Context())
			var malformed *persist.MalformedStorageError
			switch {
			case errors.As(err, &malformed):
				_, err = fmt.Fprintf(c.out, "Slot %q is malformed: %v\n", adapter.Key(), malformed.Err)
				return err
			case err != nil:
				return err
			case len(entries) == 0:
				_, err = fmt.Fprintf(c.out, "Slot %q is empty\n", adapter.Key())
				return err
			}

			if _, err := fmt.Fprintf(c.out, "Slot %q holds %d entries\n", adapter.Key(), len(entries)); err != nil {
				return err
			}
			for _, e := range entries {
				if _, err := fmt.Fprintf(c.out, "%s\t%d\n", e.ProductID, e.Quantity); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("%s must be an integer, got %q", name, s)
	}
	return n, nil
}
