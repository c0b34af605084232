package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"raspbot-backend/lib/scrapers/kis"
	"raspbot-backend/lib/timezone"
	"raspbot-backend/services/schedule"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	dayDate    string
	dayTeacher bool
	dayPages   bool
)

func init() {
	dayCmd.Flags().StringVar(&dayDate, "date", "", "Date to fetch in YYYY-MM-DD format, defaults to today.")
	dayCmd.Flags().BoolVar(&dayTeacher, "teacher", false, "Look the name up as a teacher instead of a group.")
	dayCmd.Flags().BoolVar(&dayPages, "pages", false, "Print the rendered pages instead of a table.")
	rootCmd.AddCommand(dayCmd)
}

func parseKind(teacher bool) kis.EntityKind {
	if teacher {
		return kis.EntityTeacher
	}
	return kis.EntityGroup
}

var dayCmd = &cobra.Command{
	Use:   "day <group or teacher name>",
	Short: "Prints the schedule of a group or teacher for a single day.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}

		date := timezone.Now()
		if dayDate != "" {
			parsed, err := time.ParseInLocation(time.DateOnly, dayDate, timezone.Location)
			if err != nil {
				log.Fatal(err)
			}
			date = parsed
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

		day, err := svc.Day(cmd.Context(), kis.ScheduleQuery{
			Entity: args[0],
			Kind:   parseKind(dayTeacher),
			Date:   date,
		}, true)
		if err != nil {
			log.Fatal(err)
		}

		if dayPages {
			for _, page := range day.Pages {
				fmt.Println(page)
				fmt.Println()
			}
			return
		}

		if day.Schedule == nil {
			fmt.Printf("no schedule for %s on %s\n", args[0], date.Format(time.DateOnly))
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.SetTitle("%s: %s", args[0], day.Schedule.Header)
		t.AppendHeader(table.Row{"#", "Time", "Subject", "Room", "Teacher", "Groups"})
		for _, s := range day.Schedule.Sessions {
			t.AppendRow(table.Row{
				s.Ordinal, s.Time, s.Subject, s.Room.Name, s.Teacher,
				strings.Join(s.Groups, ", "),
			})
		}
		t.Render()
	},
}
