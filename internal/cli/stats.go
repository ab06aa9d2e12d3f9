package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/decomptree/pkg/table"
)

// statsCommand creates the stats command for table KPI summaries.
func (c *CLI) statsCommand() *cobra.Command {
	var timeComparison string

	cmd := &cobra.Command{
		Use:   "stats [file.csv]",
		Short: "Print delivery statistics for a CSV table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := table.ReadCSVFile(args[0])
			if err != nil {
				return err
			}
			mode := table.TimeComparison(timeComparison)
			table.DeriveTimeColumns(t, mode)
			s := table.Summarize(t, mode)

			fmt.Println(StyleTitle.Render("Table Statistics"))
			printKeyValue("Rows", fmt.Sprintf("%d", s.TotalRows))
			printKeyValue("Early", fmt.Sprintf("%d", s.Early))
			printKeyValue("On time", fmt.Sprintf("%d", s.OnTime))
			printKeyValue("Delayed", fmt.Sprintf("%d", s.Delayed))
			printKeyValue("Pending", fmt.Sprintf("%d", s.Pending))
			if s.Delayed > 0 {
				printKeyValue("Avg delay", fmt.Sprintf("%.1f days", s.AvgDelay))
				printKeyValue("Max delay", fmt.Sprintf("%.0f days", s.MaxDelay))
			}
			if s.Early > 0 {
				printKeyValue("Avg early", fmt.Sprintf("%.1f days", s.AvgEarly))
			}

			if cols := t.NumericColumns(); len(cols) > 0 {
				printDetail("numeric columns: %s", strings.Join(cols, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&timeComparison, "time-comparison", string(table.CompareDay),
		"schedule granularity (Day, Week (Monday start), Month)")
	return cmd
}
