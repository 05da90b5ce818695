// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mentorocms/internal/editorial"
	"mentorocms/internal/live"
	"mentorocms/internal/models"
	"mentorocms/internal/review"
	"mentorocms/internal/workflow"
)

const timeLayout = "2006-01-02 15:04"

func parseKind(s string) (models.ContentKind, error) {
	k := models.ContentKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown content kind %q (want one of %s)", s, kindList())
	}
	return k, nil
}

func kindList() string {
	names := make([]string, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, a := range args {
		id, err := uuid.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newTransitionCommand(ctx *commandContext) *cobra.Command {
	var as, note string

	cmd := &cobra.Command{
		Use:   "transition <kind> <transition> <id>...",
		Short: "Apply a workflow transition to one or more entities",
		Long: "Apply a workflow transition to each id in its own transaction and print a\n" +
			"per-entity report. One entity failing never stops the others; the command\n" +
			"exits non-zero when any entity failed.",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			t, ok := workflow.ParseTransition(args[1])
			if !ok {
				return fmt.Errorf("unknown transition %q", args[1])
			}
			ids, err := parseIDs(args[2:])
			if err != nil {
				return err
			}

			return ctx.withBackend(cmd.Context(), func(b *Backend) error {
				actor, err := ctx.actor(cmd.Context(), b, as)
				if err != nil {
					return err
				}
				report := b.Service.Bulk(cmd.Context(), kind, ids, t, actor, note)
				if ctx.jsonOutput {
					if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
						return err
					}
				} else {
					printBatchReport(cmd.OutOrStdout(), ids, report)
				}
				if n := len(report.Failures); n > 0 {
					return fmt.Errorf("%d of %d entities failed", n, len(ids))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Email of the user performing the transition")
	cmd.Flags().StringVar(&note, "note", "", "Review note stored with the transition")
	return cmd
}

// printBatchReport lists every requested id with its result.
func printBatchReport(w io.Writer, ids []uuid.UUID, report *editorial.BatchReport) {
	failed := make(map[uuid.UUID]editorial.Failure, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.ID] = f
	}
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		if f, ok := failed[id]; ok {
			rows = append(rows, []string{id.String(), "failed", f.Kind, f.Reason})
			continue
		}
		rows = append(rows, []string{id.String(), "ok", "", ""})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "Result", "Error", "Reason"}, rows, nil))
	fmt.Fprintf(w, "%s: %d succeeded, %d failed\n", report.Transition, report.Succeeded, len(report.Failures))
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List entities waiting for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind models.ContentKind
			if kindFlag != "" {
				var err error
				if kind, err = parseKind(kindFlag); err != nil {
					return err
				}
			}
			return ctx.withBackend(cmd.Context(), func(b *Backend) error {
				list, err := b.Service.ReviewQueue(cmd.Context(), kind)
				if err != nil {
					return err
				}
				if ctx.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), list)
				}
				printQueue(cmd.OutOrStdout(), list, b.Service.DefaultLanguage())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only list this content kind")
	return cmd
}

func printQueue(w io.Writer, list []*models.Entity, lang string) {
	if len(list) == 0 {
		fmt.Fprintln(w, "Review queue is empty.")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		submitted := ""
		if e.SubmittedForReviewAt != nil {
			submitted = e.SubmittedForReviewAt.Local().Format(timeLayout)
		}
		liveMark := "no"
		if e.HasLiveSnapshot() {
			liveMark = "yes"
		}
		rows = append(rows, []string{
			e.ID.String(),
			string(e.Kind),
			live.DisplayValue(e, models.FieldTitle, lang),
			submitted,
			liveMark,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "Kind", "Title", "Submitted", "Live"}, rows, nil))
}

func newDiffCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <kind> <id>",
		Short: "Show draft changes against what the site shows, per language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			return ctx.withBackend(cmd.Context(), func(b *Backend) error {
				diff, err := b.Service.Diff(cmd.Context(), kind, id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput {
					if diff == nil {
						diff = []review.LanguageComparison{}
					}
					return writeJSON(cmd.OutOrStdout(), diff)
				}
				printDiff(cmd.OutOrStdout(), diff)
				return nil
			})
		},
	}
}

// printDiff prints one table per language. Inline diff markup is reduced
// to text; use --json for the marked up values.
func printDiff(w io.Writer, diff []review.LanguageComparison) {
	if len(diff) == 0 {
		fmt.Fprintln(w, "No changes.")
		return
	}
	for i, lc := range diff {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", lc.Name, lc.Code)
		if len(lc.Changes) > 0 {
			rows := make([][]string, 0, len(lc.Changes))
			for _, c := range lc.Changes {
				rows = append(rows, []string{c.Field, review.StripHTML(c.Left), review.StripHTML(c.Right)})
			}
			fmt.Fprintln(w, renderTable([]string{"Field", "Draft", "Site"}, rows, nil))
		}
		if len(lc.SectionChanges) > 0 {
			var rows [][]string
			for _, sc := range lc.SectionChanges {
				if len(sc.Fields) == 0 {
					rows = append(rows, []string{sc.Label, sc.Kind, "", "", ""})
				}
				for _, f := range sc.Fields {
					rows = append(rows, []string{sc.Label, sc.Kind, f.Field, review.StripHTML(f.Left), review.StripHTML(f.Right)})
				}
			}
			fmt.Fprintln(w, renderTable([]string{"Section", "Change", "Field", "Draft", "Site"}, rows, nil))
		}
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Show an entity's workflow state",
		Long:  "Show an entity's workflow state. With --as, also list the transitions that\nuser may apply.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			return ctx.withBackend(cmd.Context(), func(b *Backend) error {
				e, err := b.Service.Get(cmd.Context(), kind, id)
				if err != nil {
					return err
				}
				var available []workflow.Transition
				if as != "" {
					actor, err := ctx.actor(cmd.Context(), b, as)
					if err != nil {
						return err
					}
					available = b.Service.Machine().Available(e, actor)
				}
				if ctx.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"entity": e, "transitions": available})
				}
				printEntity(cmd.OutOrStdout(), e, b.Service.DefaultLanguage(), as != "", available)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Email of the user whose available transitions to list")
	return cmd
}

func printEntity(w io.Writer, e *models.Entity, lang string, withTransitions bool, available []workflow.Transition) {
	optTime := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Local().Format(timeLayout)
	}
	optID := func(id *uuid.UUID) string {
		if id == nil {
			return "-"
		}
		return id.String()
	}

	rows := [][]string{
		{"ID", e.ID.String()},
		{"Kind", string(e.Kind)},
		{"Title", live.DisplayValue(e, models.FieldTitle, lang)},
		{"Status", string(e.Status)},
		{"Author", optID(e.AuthorID)},
		{"Reviewed by", optID(e.ReviewerID)},
		{"Submitted", optTime(e.SubmittedForReviewAt)},
		{"Published", optTime(e.PublishedAt)},
		{"Live languages", strings.Join(e.Live.Languages(), ", ")},
		{"URL", live.AbsoluteURL(e, lang)},
	}
	if e.ReviewNote != "" {
		rows = append(rows, []string{"Review note", e.ReviewNote})
	}
	if withTransitions {
		names := make([]string, 0, len(available))
		for _, t := range available {
			names = append(names, string(t))
		}
		if len(names) == 0 {
			names = append(names, "none")
		}
		rows = append(rows, []string{"Transitions", strings.Join(names, ", ")})
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
}
