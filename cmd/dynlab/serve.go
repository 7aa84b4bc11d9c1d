package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/san-kum/dynlab/internal/api"
	"github.com/san-kum/dynlab/internal/automation"
	"github.com/san-kum/dynlab/internal/shell"
)

var (
	serveHost       string
	servePort       int
	continueOnError bool
	payloadFile     string
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the analysis operations over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := cur.cfg.Server
	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(cur.svc, cfg, cur.logger)
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Printf("dynlab listening on http://%s (operations: %s)\n", srv.Addr(), strings.Join(api.Operations(), ", "))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "repl",
		Aliases: []string{"shell"},
		Short:   "interactive equation shell",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := shell.New(shell.Config{
				HistoryFile: cur.cfg.Shell.HistoryFile,
				Prompt:      cur.cfg.Shell.Prompt,
				Seed:        cur.cfg.Seed,
			}, cur.style, cur.logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer stop()
			return sh.Run(ctx)
		},
	}
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <scenario.yaml>",
		Short: "run a scripted scenario of operations",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	cmd.Flags().BoolVar(&continueOnError, "continue", false, "keep going after a failed step")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}
	if continueOnError {
		sc.ContinueOnError = true
	}
	if err := cur.store.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	runner := automation.NewRunner(cur.svc, cur.store, cur.logger)
	results, runErr := runner.Run(ctx, sc)
	cur.logger.Info("batch finished", "scenario", sc.Name, "calls", len(results), "elapsed", time.Since(start).Round(time.Millisecond))

	if err := emit(results, func() {
		if sc.Name != "" {
			fmt.Println(cur.style.Header(sc.Name))
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tOP\tPARAM\tSTATUS\tRUN")
		for _, r := range results {
			param := "-"
			if r.Param != nil {
				param = fmt.Sprintf("%g", *r.Param)
			}
			status := "ok"
			if !r.Response.Success {
				status = r.Response.Error.Code
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Step, r.Op, param, status, orDash(r.RunID))
		}
		w.Flush()
	}); err != nil {
		return err
	}
	return runErr
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func callCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <operation> [json]",
		Short: "invoke an operation with a JSON payload and print the response envelope",
		Long:  "Operations: " + strings.Join(api.Operations(), ", ") + "\nThe payload is the second argument, --file or stdin.",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runCall,
	}
	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "read the payload from a file")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	switch {
	case len(args) == 2:
		raw = []byte(args[1])
	case payloadFile != "":
		raw, err = os.ReadFile(payloadFile)
	case !term.IsTerminal(int(os.Stdin.Fd())):
		raw, err = io.ReadAll(os.Stdin)
	default:
		raw = []byte("{}")
	}
	if err != nil {
		return err
	}

	resp := cur.svc.Call(cmd.Context(), args[0], json.RawMessage(raw))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	if !resp.Success {
		return resp.Error
	}
	return nil
}
