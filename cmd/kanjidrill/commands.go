package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/service/review"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *application) error {
				return app.startHTTPServer(cmd.Context(), app.newRouter())
			})
		},
	}
}

func newRecordCommand() *cobra.Command {
	var (
		rating     string
		correct    bool
		confidence string
		answer     string
	)

	cmd := &cobra.Command{
		Use:   "record <set_id> <item_id>",
		Short: "Record a review outcome for an item",
		Long: `Record a review outcome. Pass --rating, or --correct with an optional
--confidence (low, medium, high) to derive the rating from the answer.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setID, itemID, err := parseSetAndItem(args)
			if err != nil {
				return err
			}

			outcome := review.Outcome{SetID: setID, ItemID: itemID, UserAnswer: answer}
			switch {
			case rating != "":
				r, err := domain.ParseRating(rating)
				if err != nil {
					return err
				}
				outcome.Rating = r
				outcome.IsCorrect = r != domain.RatingAgain
				if cmd.Flags().Changed("correct") {
					outcome.IsCorrect = correct
				}
			case cmd.Flags().Changed("correct"):
				r, err := domain.RatingFromCorrectness(correct, domain.Confidence(confidence))
				if err != nil {
					return err
				}
				outcome.Rating = r
				outcome.IsCorrect = correct
			default:
				return fmt.Errorf("one of --rating or --correct is required")
			}

			return withApp(cmd.Context(), func(app *application) error {
				result, err := app.reviews.RecordOutcome(cmd.Context(), outcome)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVarP(&rating, "rating", "r", "", "Rating: again, hard, good or easy")
	cmd.Flags().BoolVar(&correct, "correct", false, "Whether the answer was correct")
	cmd.Flags().StringVar(&confidence, "confidence", "", "Confidence for a correct answer: low, medium or high")
	cmd.Flags().StringVar(&answer, "answer", "", "The answer given, kept in the review log")
	return cmd
}

func newStudyCommand() *cobra.Command {
	var (
		candidates []int
		maxReviews int
		maxNew     int
		totalLimit int
		dueOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "study <set_id>",
		Short: "Build a study list from candidate items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setID, err := parseID("set_id", args[0])
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(app *application) error {
				if dueOnly {
					items, err := app.study.DueItems(cmd.Context(), setID, totalLimit)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), items)
				}

				budget := app.budget()
				if cmd.Flags().Changed("max-reviews") {
					budget.MaxReviews = maxReviews
				}
				if cmd.Flags().Changed("max-new") {
					budget.MaxNew = maxNew
				}
				if cmd.Flags().Changed("total-limit") {
					budget.TotalLimit = totalLimit
				}

				items, err := app.study.StudyList(cmd.Context(), candidates, setID, budget)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}

	cmd.Flags().IntSliceVar(&candidates, "candidates", nil, "Candidate item ids, e.g. 1,2,3")
	cmd.Flags().IntVar(&maxReviews, "max-reviews", 0, "Maximum due items (default from config)")
	cmd.Flags().IntVar(&maxNew, "max-new", 0, "Maximum new items (default from config)")
	cmd.Flags().IntVar(&totalLimit, "total-limit", 0, "Maximum list length (default from config)")
	cmd.Flags().BoolVar(&dueOnly, "due", false, "List every due item of the set instead; --total-limit caps it")
	return cmd
}

func newStatsCommand() *cobra.Command {
	var setID int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show review statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *int
			if cmd.Flags().Changed("set") {
				filter = &setID
			}
			return withApp(cmd.Context(), func(app *application) error {
				return printJSON(cmd.OutOrStdout(), app.stats.Statistics(cmd.Context(), filter))
			})
		},
	}

	cmd.Flags().IntVar(&setID, "set", 0, "Restrict statistics to one question set")
	return cmd
}

func newCardCommand() *cobra.Command {
	var (
		showLogs bool
		postpone int
	)

	cmd := &cobra.Command{
		Use:   "card <set_id> <item_id>",
		Short: "Show or postpone the card of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setID, itemID, err := parseSetAndItem(args)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(app *application) error {
				if cmd.Flags().Changed("postpone") {
					card, err := app.reviews.Postpone(cmd.Context(), setID, itemID, postpone)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), card)
				}
				if showLogs {
					logs, err := app.reviews.ItemLogs(cmd.Context(), setID, itemID)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), logs)
				}
				info, err := app.reviews.CardInfo(cmd.Context(), setID, itemID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), info)
			})
		},
	}

	cmd.Flags().BoolVar(&showLogs, "logs", false, "Show the review history instead")
	cmd.Flags().IntVar(&postpone, "postpone", 0, "Push the due date forward by this many days")
	return cmd
}

func newExcludeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exclude <set_id> [item_id]",
		Short: "Toggle an item's exclusion, or list a set's excluded items",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setID, err := parseID("set_id", args[0])
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(app *application) error {
				if len(args) == 1 {
					return printJSON(cmd.OutOrStdout(), app.store.GetExclusions(cmd.Context(), setID))
				}
				itemID, err := parseID("item_id", args[1])
				if err != nil {
					return err
				}
				excluded, err := app.store.ToggleExclusion(cmd.Context(), setID, itemID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"set_id":   setID,
					"item_id":  itemID,
					"excluded": excluded,
				})
			})
		},
	}
}

func newExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all scheduling data as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *application) error {
				blob, err := app.store.ExportSnapshot(cmd.Context())
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(blob)
					return err
				}
				return os.WriteFile(output, blob, 0o600)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the snapshot to a file instead of stdout")
	return cmd
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace all scheduling data with a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				blob []byte
				err  error
			)
			if args[0] == "-" {
				blob, err = io.ReadAll(cmd.InOrStdin())
			} else {
				blob, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}

			return withApp(cmd.Context(), func(app *application) error {
				if err := app.store.ImportSnapshot(cmd.Context(), blob); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.ErrOrStderr(), "snapshot imported")
				return err
			})
		},
	}
}

func newResetCommand() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all cards, review logs and exclusions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to delete all data without --yes")
			}
			return withApp(cmd.Context(), func(app *application) error {
				return app.store.ClearAll(cmd.Context())
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm deletion of all data")
	return cmd
}

func parseSetAndItem(args []string) (int, int, error) {
	setID, err := parseID("set_id", args[0])
	if err != nil {
		return 0, 0, err
	}
	itemID, err := parseID("item_id", args[1])
	if err != nil {
		return 0, 0, err
	}
	return setID, itemID, nil
}

func parseID(name, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", domain.ErrInvalidInput, name, raw)
	}
	return id, nil
}
