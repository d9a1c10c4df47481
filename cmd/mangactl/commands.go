package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mangashelf/pkg/models"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every manga in the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.repo.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgYellow).Sprint("collection is empty"))
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, m := range items {
				rows = append(rows, []string{
					strconv.Itoa(m.ID),
					m.Title,
					m.Author,
					strings.Join(m.Genres, ", "),
					strconv.Itoa(m.VolumeCount),
					m.PublicationDate,
					strconv.FormatFloat(m.Rating, 'f', -1, 64),
					m.Publisher,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Author", "Genres", "Volumes", "Published", "Rating", "Publisher"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one manga as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			m, err := a.repo.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove one manga from the collection",
		Long: "Remove one manga by writing the store directly.\n" +
			"A running api-server does not publish this change to feed subscribers.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			m, err := a.repo.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s\n", color.New(color.FgGreen).Sprint("deleted"), m.ID, m.Title)
			return nil
		},
	}
}

func parseIDArg(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func describeManga(m *models.Manga) string {
	return fmt.Sprintf("#%d %s (%s)", m.ID, m.Title, m.Author)
}
