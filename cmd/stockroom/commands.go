package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/stockroom/internal/client"
	"github.com/erazemk/stockroom/internal/render"
	"github.com/erazemk/stockroom/internal/tracker"
)

// connect logs in to the configured server. The returned function logs out.
func (a *app) connect(cmd *cobra.Command) (*client.Client, func(), error) {
	cc := a.cfg.Client
	if cc.Username == "" || cc.Password == "" {
		return nil, nil, errors.New("client.username and client.password are required (or STOCKROOM_USERNAME and STOCKROOM_PASSWORD)")
	}

	logger := a.clientLogger(cmd)
	c := client.New(client.Config{
		BaseURL: cc.URL,
		Timeout: cc.Timeout,
		Retries: cc.Retries,
		Atomic:  cc.Atomic,
		Logger:  logger,
	})
	if err := c.Login(cmd.Context(), cc.Username, cc.Password); err != nil {
		return nil, nil, err
	}

	logout := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Logout(ctx); err != nil {
			logger.Warn("logout failed", "error", err)
		}
	}
	return c, logout, nil
}

// session loads the server's collections into a session that prints the
// inventory after each change. A partial load is refused, since saving it
// would overwrite the collections that failed to load.
func (a *app) session(cmd *cobra.Command, c *client.Client) (*tracker.Session, error) {
	sess := tracker.NewSession(c,
		tracker.WithLogger(a.clientLogger(cmd)),
		tracker.WithStores(a.cfg.Stores),
		tracker.WithRefresher(render.Printer{W: cmd.OutOrStdout()}))
	if err := sess.Load(cmd.Context()); err != nil {
		return nil, fmt.Errorf("collections unavailable, nothing changed: %w", err)
	}
	sess.SetPage(tracker.ViewInventory)
	return sess, nil
}

// saved retries a failed save once before reporting it.
func saved(ctx context.Context, sess *tracker.Session) error {
	if !sess.Dirty() {
		return nil
	}
	if err := sess.Flush(ctx); err != nil {
		return fmt.Errorf("changes could not be saved: %w", err)
	}
	return nil
}

func inventoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"ls"},
		Short:   "Show items on hand",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logout, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer logout()

			items, err := c.Inventory(cmd.Context())
			if err != nil {
				return err
			}
			return render.Inventory(cmd.OutOrStdout(), items)
		},
	}
}

func removalsCmd(a *app) *cobra.Command {
	var upc string
	cmd := &cobra.Command{
		Use:   "removals",
		Short: "Show the removal history, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logout, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer logout()

			records, err := c.Removals(cmd.Context(), strings.TrimSpace(upc))
			if err != nil {
				return err
			}
			return render.Removals(cmd.OutOrStdout(), records, time.Now())
		},
	}
	cmd.Flags().StringVar(&upc, "upc", "", "only show removals of this UPC")
	return cmd
}

func activityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show the activity log, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logout, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer logout()

			entries, err := c.Activity(cmd.Context())
			if err != nil {
				return err
			}
			return render.Activity(cmd.OutOrStdout(), entries, time.Now())
		},
	}
}

func addCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <upc> <model> <quantity>",
		Short: "Add stock, creating the item if its UPC is new",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("quantity must be a whole number, got %q", args[3])
			}

			c, logout, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer logout()

			sess, err := a.session(cmd, c)
			if err != nil {
				return err
			}
			item, err := sess.AddItem(cmd.Context(), tracker.NewItem{
				Name: args[0], UPC: args[1], Model: args[2], Quantity: qty,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d units of %s.\n", qty, item.Name)
			return saved(cmd.Context(), sess)
		},
	}
}

func adjustCmd(a *app) *cobra.Command {
	var by int
	cmd := &cobra.Command{
		Use:   "adjust <upc>",
		Short: "Change an item's quantity, stopping at zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logout, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer logout()

			sess, err := a.session(cmd, c)
			if err != nil {
				return err
			}
			res, err := sess.AdjustQuantity(cmd.Context(), args[0], by)
			if err != nil {
				return err
			}
			if res.Clamped {
				fmt.Fprintf(cmd.OutOrStdout(), "%s cannot go below zero, now at 0.\n", res.Item.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s now at %d.\n", res.Item.Name, res.Item.Quantity)
			}
			return saved(cmd.Context(), sess)
		},
	}
	cmd.Flags().IntVar(&by, "by", 1, "amount to add, negative to subtract")
	return cmd
}

func removeCmd(a *app) *cobra.Command {
	var details tracker.RemovalDetails
	cmd := &cobra.Command{
		Use:   "remove <upc> [amount]",
		Short: "Remove stock to a store",
		Long: `Remove stock to a store. The amount defaults to one. Employee,
purpose and store are asked for when not given as flags.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					return fmt.Errorf("amount must be a whole number of at least 1, got %q", args[1])
				}
				requested = n
			}

			c, logout, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer logout()

			sess, err := a.session(cmd, c)
			if err != nil {
				return err
			}
			pending, err := sess.StageRemoval(args[0], requested)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removing %d of %s (%s, UPC %s), %d available.\n",
				pending.Amount, pending.ItemName, pending.Model, pending.UPC, pending.Available)

			p := prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: out}
			details.Employee = p.ask("Employee", details.Employee)
			details.Purpose = p.ask("Purpose", details.Purpose)
			if details.Store == "" && len(a.cfg.Stores) > 0 {
				fmt.Fprintf(out, "Stores: %s\n", strings.Join(a.cfg.Stores, ", "))
			}
			details.Store = p.ask("Store", details.Store)

			rec, err := sess.ConfirmRemoval(cmd.Context(), pending, details)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d units of %s.\n", rec.Amount, rec.ItemName)
			return saved(cmd.Context(), sess)
		},
	}
	cmd.Flags().StringVar(&details.Employee, "employee", "", "who is taking the stock")
	cmd.Flags().StringVar(&details.Purpose, "purpose", "", "what the stock is for")
	cmd.Flags().StringVar(&details.Store, "store", "", "store receiving the stock")
	return cmd
}

// prompter reads missing values from the terminal.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// ask returns current if set, otherwise the next input line.
func (p prompter) ask(label, current string) string {
	if strings.TrimSpace(current) != "" {
		return current
	}
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}
