package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ayusman/handpose/internal/app"
	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/internal/store"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage gesture templates",
	}
	cmd.AddCommand(templatesListCmd(), templatesAddCmd(), templatesRemoveCmd())
	return cmd
}

func templatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom templates in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			templates, err := app.LoadTemplates(st)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMOJI\tFINGERS")
			for _, t := range templates {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", t.ID, t.Name, t.Emoji, len(t.Fingers))
			}
			return tw.Flush()
		},
	}
}

func templatesAddCmd() *cobra.Command {
	var (
		name  string
		emoji string
		asset string
	)

	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Add a custom template from a JSON definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}
			t, err := gesture.ParseTemplate(data)
			if err != nil {
				return err
			}
			if name != "" {
				t.Name = name
			}
			if emoji != "" {
				t.Emoji = emoji
			}
			if asset != "" {
				t.Asset = asset
			}
			if err := t.Validate(); err != nil {
				return err
			}
			for _, b := range gesture.MustLibrary() {
				if b.Name == t.Name {
					return fmt.Errorf("name %q is taken by a built-in gesture", t.Name)
				}
			}

			t.ID = ""
			definition, err := json.Marshal(t)
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			g := &store.Gesture{
				ID:         uuid.New().String(),
				Name:       t.Name,
				Emoji:      t.Emoji,
				Asset:      t.Asset,
				Definition: definition,
			}
			if err := st.Gestures().Create(g); err != nil {
				if errors.Is(err, store.ErrDuplicateName) {
					return fmt.Errorf("gesture %q already exists", t.Name)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", g.Name, g.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "override the template name")
	cmd.Flags().StringVar(&emoji, "emoji", "", "override the template emoji")
	cmd.Flags().StringVar(&asset, "asset", "", "override the template asset key")
	return cmd
}

func templatesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME|ID",
		Short: "Remove a custom template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			g, err := st.Gestures().GetByName(args[0])
			if errors.Is(err, store.ErrNotFound) {
				g, err = st.Gestures().GetByID(args[0])
			}
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no custom gesture %q", args[0])
				}
				return err
			}

			if err := st.Gestures().Delete(g.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", g.Name)
			return nil
		},
	}
}
