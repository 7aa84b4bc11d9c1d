package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynlab/internal/config"
	"github.com/san-kum/dynlab/internal/metrics"
)

var (
	exportPath string
	component  int
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "list and inspect stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list stored runs, newest first",
		Args:    cobra.NoArgs,
		RunE:    listRuns,
	}

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "show a run's metadata, metrics and component statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plot := &cobra.Command{
		Use:   "plot <run-id>",
		Short: "plot one component of a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plot.Flags().IntVarP(&component, "component", "c", 0, "state component to plot")

	export := &cobra.Command{
		Use:   "export <run-id>",
		Short: "export a run as a single JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	export.Flags().StringVarP(&exportPath, "output", "o", "", "output file (default stdout)")

	del := &cobra.Command{
		Use:   "delete <run-id>...",
		Short: "delete stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := cur.store.Delete(id); err != nil {
					return err
				}
				cur.logger.Info("deleted run", "id", id)
			}
			return nil
		},
	}

	cmd.AddCommand(list, show, plot, export, del)
	return cmd
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := cur.store.List()
	if err != nil {
		return err
	}
	if jsonOut {
		return emit(runs, nil)
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOP\tSYSTEM\tTIME\tSAMPLES\tDIM\tNOTE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Op,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Samples,
			run.Dimension,
			orDash(run.Note),
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := cur.store.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := cur.store.LoadStates(args[0])
	if err != nil {
		tr = nil
	}
	stats := metrics.Summarize(tr)

	return emit(map[string]any{"metadata": meta, "components": stats}, func() {
		st := cur.style
		fmt.Println(st.Header(meta.ID))
		pairs := [][2]string{
			{"op", meta.Op},
			{"system", meta.System},
			{"time", meta.Timestamp.Format("2006-01-02 15:04:05")},
			{"samples", fmt.Sprint(meta.Samples)},
		}
		if meta.Integrator != "" {
			pairs = append(pairs, [2]string{"integrator", meta.Integrator})
		}
		if len(meta.TSpan) == 2 {
			pairs = append(pairs, [2]string{"t span", fmt.Sprintf("[%g, %g]  dt %g", meta.TSpan[0], meta.TSpan[1], meta.Dt)})
		}
		if len(meta.Parameters) > 0 {
			pairs = append(pairs, [2]string{"parameters", paramString(meta.Parameters)})
		}
		if meta.Truncated {
			pairs = append(pairs, [2]string{"truncated", st.Warn.Render("yes")})
		}
		fmt.Println(st.KV(pairs...))

		if len(meta.Metrics) > 0 {
			fmt.Println()
			fmt.Println(st.Title.Render("metrics"))
			fmt.Println("  " + paramString(meta.Metrics))
		}
		if len(stats) > 0 {
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "COMPONENT\tMIN\tMAX\tMEAN\tSTDDEV\t")
			for i, c := range stats {
				fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n", i, c.Min, c.Max, c.Mean, c.StdDev, st.Sparkline(tr.Component(i), 32))
			}
			w.Flush()
		}
	})
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, err := cur.store.Load(runID)
	if err != nil {
		return err
	}
	tr, err := cur.store.LoadStates(runID)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("run %s has no samples", runID)
	}
	dim := len(tr.States[0])
	if component < 0 || component >= dim {
		return fmt.Errorf("component %d out of range, run has %d", component, dim)
	}

	fmt.Printf("%s  %s\n\n", meta.ID, meta.System)
	fmt.Println(asciigraph.Plot(tr.Component(component),
		asciigraph.Height(10),
		asciigraph.Width(cur.style.Width),
		asciigraph.Caption(fmt.Sprintf("component %d, %d samples", component, tr.Len())),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	if exportPath == "" {
		return cur.store.WriteJSON(os.Stdout, args[0])
	}
	if err := cur.store.ExportJSON(exportPath, args[0]); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], exportPath)
	return nil
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "presets [family]",
		Short:     "list the built-in systems",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: config.Families(),
		RunE: func(cmd *cobra.Command, args []string) error {
			families := config.Families()
			if len(args) == 1 {
				families = args
			}
			if jsonOut {
				out := map[string]map[string]config.Preset{}
				for _, f := range families {
					out[f] = config.Presets[f]
				}
				return emit(out, nil)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FAMILY\tNAME\tDESCRIPTION")
			for _, f := range families {
				for _, name := range config.ListPresets(f) {
					fmt.Fprintf(w, "%s\t%s\t%s\n", f, name, config.Presets[f][name].Description)
				}
			}
			return w.Flush()
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "manage the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init [path]",
			Short: "write the default configuration",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := configFile
				if len(args) == 1 {
					path = args[0]
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := config.Save(path, config.DefaultConfig()); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := yaml.Marshal(cur.cfg)
				if err != nil {
					return err
				}
				fmt.Print(strings.TrimLeft(string(data), "\n"))
				return nil
			},
		},
	)
	return cmd
}
