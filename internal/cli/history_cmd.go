// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Exchange history command handler for the aigw CLI.
//
// Handles "aigw history" over the SQLite exchange log. Only completed
// exchanges are ever recorded, so everything shown here succeeded.
//
// Examples:
//   aigw history show
//   aigw history show --limit 5
//   aigw history show --json
//   aigw history clear --confirm
package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/aigw/internal/history"
	"github.com/jeranaias/aigw/internal/util"
)

// HandleHistory handles the "history" command.
func HandleHistory(args Args) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("history", err).Print()
		}
		return err
	}

	if !cfg.History.Enabled {
		err := fmt.Errorf("history is disabled (set history.enabled to true)")
		if args.JSON {
			NewJSONErrorResponse("history", err).Print()
		}
		return err
	}

	path, err := cfg.HistoryDBPath()
	if err != nil {
		return err
	}

	store, err := history.Open(path)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("history", err).Print()
		}
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	switch args.Subcommand {
	case "", "show":
		return handleHistoryShow(store, args)
	case "clear":
		return handleHistoryClear(store, args)
	default:
		return fmt.Errorf("unknown history subcommand: %s (expected show or clear)", args.Subcommand)
	}
}

func handleHistoryShow(store *history.Store, args Args) error {
	ctx := context.Background()

	exchanges, err := store.Recent(ctx, args.Limit)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("history", err).Print()
		}
		return fmt.Errorf("failed to read history: %w", err)
	}

	total, err := store.Count(ctx)
	if err != nil {
		total = len(exchanges)
	}

	if args.JSON {
		entries := make([]HistoryEntry, 0, len(exchanges))
		for _, ex := range exchanges {
			entries = append(entries, HistoryEntry{
				ID:           ex.ID,
				Model:        ex.Model,
				Prompt:       ex.Prompt,
				Response:     ex.Response,
				TotalTokens:  ex.TotalTokens,
				FinishReason: ex.FinishReason,
				CreatedAt:    ex.CreatedAt,
			})
		}
		return NewJSONResponse("history", HistoryData{
			Exchanges: entries,
			Total:     total,
		}).Print()
	}

	if len(exchanges) == 0 {
		fmt.Println(DimStyle.Render("[No exchanges recorded]"))
		return nil
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Exchange History (%d of %d)", len(exchanges), total)))
	fmt.Println()

	// Column-aware truncation so CJK content does not wrap past the
	// terminal edge. 13 columns cover the indent and role label.
	previewWidth := GetTerminalWidth() - 13
	if previewWidth < 20 {
		previewWidth = 20
	}

	for _, ex := range exchanges {
		fmt.Printf("%s %s  %s\n",
			DimStyle.Render(ex.CreatedAt.Local().Format("2006-01-02 15:04")),
			ValueStyle.Render(ex.Model),
			DimStyle.Render(fmt.Sprintf("(%d tokens)", ex.TotalTokens)))
		fmt.Printf("  %s %s\n",
			LabelStyle.Render("You:"),
			util.TruncateWidth(flatten(ex.Prompt), previewWidth))
		fmt.Printf("  %s %s\n",
			LabelStyle.Render("Assistant:"),
			util.TruncateWidth(flatten(ex.Response), previewWidth))
		fmt.Println()
	}

	return nil
}

func handleHistoryClear(store *history.Store, args Args) error {
	if !args.Confirm {
		return fmt.Errorf("history clear requires --confirm")
	}

	deleted, err := store.Clear(context.Background())
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("history", err).Print()
		}
		return fmt.Errorf("failed to clear history: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("history", HistoryClearData{Deleted: deleted}).Print()
	}

	fmt.Printf("%s Deleted %d exchange(s)\n", SuccessStyle.Render("[OK]"), deleted)
	return nil
}

// flatten collapses newlines for single-line display.
func flatten(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
