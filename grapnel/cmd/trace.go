package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grapnel-io/grapnel/tracing"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect trace databases.",
	Long: "`trace ls` and `trace summary` read a trace database recorded " +
		"by the tracing package.",
}

var traceLsCmd = &cobra.Command{
	Use:   "ls [trace file]",
	Short: "List the tasks in a trace database.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind, _ := cmd.Flags().GetString("kind")
		hook, _ := cmd.Flags().GetString("hook")

		reader := tracing.NewTraceReader(args[0])
		defer reader.Close()

		tasks, err := reader.ListTasks(context.Background(), tracing.TaskQuery{
			Kind: kind,
			What: hook,
		})
		if err != nil {
			log.Fatalf("Error listing tasks: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tWHAT\tLOCATION\tDURATION\tERROR")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.6f\t%s\n",
				t.ID, t.Kind, t.What, t.Location,
				t.EndTime-t.StartTime, t.Error)
		}
		w.Flush()
	},
}

var traceSummaryCmd = &cobra.Command{
	Use:   "summary [trace file]",
	Short: "Summarize the chain time per hook.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reader := tracing.NewTraceReader(args[0])
		defer reader.Close()

		tasks, err := reader.ListTasks(context.Background(), tracing.TaskQuery{
			Kind: tracing.TaskKindChain,
		})
		if err != nil {
			log.Fatalf("Error listing tasks: %v", err)
		}

		printSummary(os.Stdout, tasks)
	},
}

type hookSummary struct {
	count     int
	failed    int
	totalTime float64
}

func printSummary(out io.Writer, tasks []tracing.Task) {
	summaries := make(map[string]*hookSummary)
	for _, t := range tasks {
		s, ok := summaries[t.What]
		if !ok {
			s = &hookSummary{}
			summaries[t.What] = s
		}

		s.count++
		s.totalTime += t.EndTime - t.StartTime
		if t.Error != "" {
			s.failed++
		}
	}

	hooks := make([]string, 0, len(summaries))
	for name := range summaries {
		hooks = append(hooks, name)
	}
	sort.Strings(hooks)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOOK\tCHAINS\tFAILED\tTOTAL\tAVG")
	for _, name := range hooks {
		s := summaries[name]
		fmt.Fprintf(w, "%s\t%d\t%d\t%.6f\t%.6f\n",
			name, s.count, s.failed,
			s.totalTime, s.totalTime/float64(s.count))
	}
	w.Flush()
}

func init() {
	traceLsCmd.Flags().String("kind", "", "only list tasks of one kind")
	traceLsCmd.Flags().String("hook", "", "only list tasks of one hook")

	traceCmd.AddCommand(traceLsCmd)
	traceCmd.AddCommand(traceSummaryCmd)
	rootCmd.AddCommand(traceCmd)
}
