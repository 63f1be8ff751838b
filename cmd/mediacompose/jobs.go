// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const defaultServer = "http://127.0.0.1:3000"

type jobRow struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Pipeline   string    `json:"pipeline"`
	Assets     string    `json:"assets"`
	URL        string    `json:"url,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type jobsOptions struct {
	server string
	limit  int
	json   bool
}

func newJobsCommand() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect recorded jobs of a running service",
	}

	var opts jobsOptions
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJobsList(cmd, opts)
		},
	}
	serverDefault := defaultServer
	if env := os.Getenv("MEDIACOMPOSE_SERVER"); env != "" {
		serverDefault = env
	}
	listCmd.Flags().StringVar(&opts.server, "server", serverDefault, "Base URL of the mediacompose service")
	listCmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum number of jobs (1-1000)")
	listCmd.Flags().BoolVar(&opts.json, "json", false, "Print the records as JSON")

	jobsCmd.AddCommand(listCmd)
	return jobsCmd
}

func runJobsList(cmd *cobra.Command, opts jobsOptions) error {
	u, err := url.Parse(strings.TrimRight(opts.server, "/") + "/v1/jobs")
	if err != nil {
		return fmt.Errorf("invalid --server: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(opts.limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", opts.server, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var p struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.Unmarshal(body, &p)
		msg := p.Detail
		if msg == "" {
			msg = p.Error
		}
		return fmt.Errorf("server answered %s: %s", resp.Status, msg)
	}

	var payload struct {
		Jobs []jobRow `json:"jobs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode jobs: %w", err)
	}

	if opts.json {
		return writeJSON(cmd, payload.Jobs)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderJobs(payload.Jobs, shouldColorize(cmd.OutOrStdout())))
	return err
}

func renderJobs(jobs []jobRow, colorize bool) string {
	if len(jobs) == 0 {
		return "No jobs recorded"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Status", "Pipeline", "Assets", "Duration", "Created", "URL / Reason"})
	for _, j := range jobs {
		status := j.Status
		if colorize {
			if j.Status == "success" {
				status = text.FgGreen.Sprint(status)
			} else {
				status = text.FgRed.Sprint(status)
			}
		}
		target := j.URL
		if target == "" {
			target = j.Reason
		}
		tw.AppendRow(table.Row{
			j.ID,
			status,
			j.Pipeline,
			j.Assets,
			(time.Duration(j.DurationMS) * time.Millisecond).String(),
			j.CreatedAt.Local().Format(time.DateTime),
			target,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
