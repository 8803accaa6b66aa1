package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/gnssview/internal/pageui"
	"github.com/verte-zerg/gnssview/internal/store"
)

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light]",
		Short:     "Show or set the dashboard theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{pageui.ThemeDark, pageui.ThemeLight},
		RunE:      runThemeCmd,
	}
}

func runThemeCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), loadTheme(ctx, st).Name)
		return nil
	}
	theme, err := pageui.ThemeByName(args[0])
	if err != nil {
		return err
	}
	if err := st.SetSetting(ctx, store.ThemeKey, theme.Name); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s\n", theme.Name)
	return nil
}
