package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mathieu-neron/pumpwatch/internal/config"
	"github.com/mathieu-neron/pumpwatch/internal/model"
	"github.com/mathieu-neron/pumpwatch/internal/render"
	"github.com/mathieu-neron/pumpwatch/internal/service"
	"github.com/mathieu-neron/pumpwatch/internal/upstream"
)

type listOptions struct {
	search   string
	filter   string
	page     int
	pageSize int
	json     bool
}

func newListCommand(cfgFn func() *config.Config) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch the live streams once and print one page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cfgFn()
			filter, ok := model.ParseFilter(opts.filter)
			if !ok {
				return fmt.Errorf("unknown filter %q (want all, trending or new)", opts.filter)
			}
			if opts.page < 1 {
				return fmt.Errorf("page must be at least 1")
			}
			pageSize := cfg.Dashboard.PageSize
			if opts.pageSize > 0 {
				pageSize = opts.pageSize
			}

			client := upstream.NewClient(upstream.Config{
				BaseURL:    cfg.Upstream.URL,
				ResultPath: cfg.Upstream.ResultPath,
				Limit:      cfg.Upstream.Limit,
				Timeout:    cfg.Upstream.Timeout,
			}, nil)
			res := client.Fetch(cmd.Context())
			if res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: upstream unavailable: %v\n", res.Err)
			}

			streams := service.NewNormalizer().NormalizeAll(res.Records)
			view := service.NewState(pageSize, cfg.Dashboard.TrendingThreshold).
				WithSnapshot(1, streams, time.Now(), res.Fallback).
				Query(model.Query{Search: opts.search, Filter: filter, Page: opts.page})

			if opts.json {
				return writeJSON(cmd, view)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStreams(view))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Case-insensitive search over title, symbol, description and tags")
	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "all", "Category filter: all, trending or new")
	cmd.Flags().IntVarP(&opts.page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Streams per page (defaults to the configured page size)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output the view as JSON")
	return cmd
}

func renderStreams(v model.View) string {
	if v.Empty {
		return "No streams found"
	}

	headers := []string{"ID", "Title", "Symbol", "Status", "Viewers", "Likes", "Market Cap", "Tags"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(v.Streams))
	for _, s := range v.Streams {
		rows = append(rows, []string{
			s.ID,
			truncate(s.Title, 32),
			s.Symbol,
			string(s.Status),
			humanize.Comma(s.Viewers),
			humanize.Comma(s.Likes),
			render.FormatUSD(s.MarketCap),
			strings.Join(s.Tags, ", "),
		})
	}

	var b strings.Builder
	b.WriteString(renderTable(headers, rows, aligns))
	fmt.Fprintf(&b, "\npage %d/%d (%d of %d streams)", v.Page, v.TotalPages, v.TotalFiltered, v.TotalStreams)
	if v.Fallback {
		b.WriteString("\nshowing fallback data: the upstream API is unavailable")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
