package cmd

import (
	"fmt"
	"log"
	"os"

	"raspbot-backend/services/schedule"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchTeacher bool

func init() {
	searchCmd.Flags().BoolVar(&searchTeacher, "teacher", false, "Search teachers instead of groups.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches the portal directory for groups or teachers.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}

		config, err := readConfig()
		if err != nil {
			log.Fatal(err)
		}
		client, err := newClient(config)
		if err != nil {
			log.Fatal(err)
		}
		svc := schedule.NewService(client)

		kind := parseKind(searchTeacher)
		matches, err := svc.Search(cmd.Context(), args[0], kind)
		if err != nil {
			log.Fatal(err)
		}

		header := "Match"
		if len(matches) == 0 {
			// fall back to fuzzy suggestions when nothing contains the
			// query verbatim
			matches, err = svc.Suggest(cmd.Context(), args[0], kind, 5)
			if err != nil {
				log.Fatal(err)
			}
			header = "Suggestion"
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{header})
		for _, name := range matches {
			t.AppendRow(table.Row{name})
		}
		t.Render()
	},
}
