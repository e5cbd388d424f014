package cli

import (
	"errors"
	"strconv"
	"strings"

	"grocery-cli/internal/format"
	"grocery-cli/internal/grocery"
	"grocery-cli/internal/model"
	"grocery-cli/internal/view"

	"github.com/spf13/cobra"
)

func newAddCmd(app *App) *cobra.Command {
	var qty int
	var category string

	cmd := &cobra.Command{
		Use:   "add <name...>",
		Short: "Add an item to the top of the list",
		Args:  cobra.MinimumNArgs(1),
		Example: strings.TrimSpace(`
grocery add Milk --qty 2 --category dairy
grocery add "Whole wheat bread" --category bakery
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, err := s.Engine.Add(ctxOf(cmd), strings.Join(args, " "), qty, category)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, it, "grocery toggle "+it.ID.String())
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "Quantity (values below 1 become 1)")
	cmd.Flags().StringVarP(&category, "category", "c", string(model.CategoryOther), "Category ("+categoryList()+")")
	return cmd
}

func categoryList() string {
	cats := model.Categories()
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, string(c))
	}
	return strings.Join(out, "|")
}

func newListCmd(app *App) *cobra.Command {
	var filter, search, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible items (newest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Engine.SetFilter(filter); err != nil {
				return writeErr(cmd, err)
			}
			s.Engine.SetSearch(search)
			s.Engine.SetCategory(category)

			v := view.Render(s.Engine.Items(), s.Engine.Query())
			items := make([]model.Item, 0, len(v.Rows))
			for _, r := range v.Rows {
				items = append(items, r.Item)
			}
			meta := map[string]any{
				"count": len(items),
				"query": v.Query,
				"stats": s.Engine.Stats(),
			}
			if v.Empty {
				meta["emptyMessage"] = v.EmptyMessage
			}
			return writeEnvelope(cmd, app, format.Envelope{Data: items, Meta: meta})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", string(model.FilterAll), "Filter (all|active|completed)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive name search")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	return cmd
}

// itemCmd builds a command that changes one item and prints it.
func itemCmd(app *App, use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, args []string) (model.Item, bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			if _, err := openSession(cmd, app); err != nil {
				return writeErr(cmd, err)
			}
			it, changed, err := run(cmd, a)
			if err != nil {
				return writeErr(cmd, err)
			}
			if it.ID == "" {
				return writeErr(cmd, errNotFound("item", strings.TrimSpace(a[0])))
			}
			return writeEnvelope(cmd, app, format.Envelope{Data: it, Meta: map[string]any{"changed": changed}})
		},
	}
}

func newToggleCmd(app *App) *cobra.Command {
	return itemCmd(app, "toggle <id>", "Flip an item between active and completed", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) (model.Item, bool, error) {
			return app.sess.Engine.Toggle(ctxOf(cmd), model.ItemID(strings.TrimSpace(args[0])))
		})
}

func newEditCmd(app *App) *cobra.Command {
	return itemCmd(app, "edit <id> <name...>", "Rename an item", cobra.MinimumNArgs(2),
		func(cmd *cobra.Command, args []string) (model.Item, bool, error) {
			id := model.ItemID(strings.TrimSpace(args[0]))
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if name == "" {
				return model.Item{}, false, &grocery.ValidationError{Msg: grocery.MsgNameRequired}
			}
			it, changed, err := app.sess.Engine.Edit(ctxOf(cmd), id, name)
			if err == nil && !changed {
				it, _ = app.sess.Engine.Find(id)
			}
			return it, changed, err
		})
}

func newQtyCmd(app *App) *cobra.Command {
	return itemCmd(app, "qty <id> <n>", "Set an item's quantity", cobra.ExactArgs(2),
		func(cmd *cobra.Command, args []string) (model.Item, bool, error) {
			n, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return model.Item{}, false, errors.New("quantity must be a whole number")
			}
			return app.sess.Engine.SetQuantity(ctxOf(cmd), model.ItemID(strings.TrimSpace(args[0])), n)
		})
}

func newCategoryCmd(app *App) *cobra.Command {
	return itemCmd(app, "category <id> <category>", "Move an item to another category", cobra.ExactArgs(2),
		func(cmd *cobra.Command, args []string) (model.Item, bool, error) {
			return app.sess.Engine.SetItemCategory(ctxOf(cmd), model.ItemID(strings.TrimSpace(args[0])), args[1])
		})
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item (requires --yes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := model.ItemID(strings.TrimSpace(args[0]))
			if _, ok := s.Engine.Find(id); !ok {
				return writeOut(cmd, app, map[string]any{"id": id, "deleted": false})
			}
			deleted, err := s.Engine.Delete(ctxOf(cmd), id, yes)
			if err != nil {
				return writeErr(cmd, err)
			}
			var hints []string
			if !yes {
				hints = append(hints, notConfirmedHint("grocery delete "+id.String(), grocery.ConfirmDelete))
			}
			return writeOut(cmd, app, map[string]any{"id": id, "deleted": deleted}, hints...)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func newClearCompletedCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove every completed item (requires --yes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := s.Engine.ClearCompleted(ctxOf(cmd), yes)
			if err != nil {
				return writeErr(cmd, err)
			}
			var hints []string
			if !yes {
				hints = append(hints, notConfirmedHint("grocery clear-completed", grocery.ConfirmClearCompleted))
			}
			return writeOut(cmd, app, map[string]any{"removed": n}, hints...)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")
	return cmd
}

func newClearCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item (requires --yes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := s.Engine.ClearAll(ctxOf(cmd), yes)
			if err != nil {
				return writeErr(cmd, err)
			}
			var hints []string
			if !yes {
				hints = append(hints, notConfirmedHint("grocery clear", grocery.ConfirmClearAll))
			}
			return writeOut(cmd, app, map[string]any{"removed": n}, hints...)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")
	return cmd
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, s.Engine.Stats())
		},
	}
}
