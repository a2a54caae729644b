package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	redisadapter "github.com/user/illust-harvester/internal/adapter/redis"
	"github.com/user/illust-harvester/internal/delivery/http/request"
	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/events"
	"github.com/user/illust-harvester/internal/site"
)

type jobFlags struct {
	from, to   int
	dest       string
	browser    string
	showWindow bool
	username   string
	password   string
	proxyPort  string
	channel    string
	broadcast  bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.from, "from", 1, "First listing page")
	cmd.Flags().IntVar(&f.to, "to", 1, "Last listing page (inclusive)")
	cmd.Flags().StringVarP(&f.dest, "dest", "d", ".", "Destination directory for images")
	cmd.Flags().StringVar(&f.browser, "browser", "", "Path to the Chrome executable")
	cmd.Flags().BoolVar(&f.showWindow, "show-window", false, "Show the browser window instead of running headless")
	cmd.Flags().StringVarP(&f.username, "username", "u", os.Getenv("PIXIV_USERNAME"), "Account name (default $PIXIV_USERNAME)")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "Account password (default $PIXIV_PASSWORD)")
	cmd.Flags().StringVar(&f.proxyPort, "proxy-port", "", "Fetch images through the SOCKS5 proxy on localhost:PORT")
	cmd.Flags().StringVar(&f.channel, "channel", "", "Event channel (default DEFAULT_CHANNEL)")
	cmd.Flags().BoolVar(&f.broadcast, "broadcast", false, "Also publish events through redis to running servers")
	_ = cmd.MarkFlagRequired("browser")
}

// fields maps the flags onto the same request shape the HTTP API validates.
func (f *jobFlags) fields() request.JobFields {
	password := f.password
	if password == "" {
		password = os.Getenv("PIXIV_PASSWORD")
	}
	return request.JobFields{
		ImagePath:      f.dest,
		ExecutablePath: f.browser,
		Headless:       strconv.FormatBool(f.showWindow),
		Username:       f.username,
		Password:       password,
		UseProxy:       strconv.FormatBool(f.proxyPort != ""),
		Port:           f.proxyPort,
		Channel:        f.channel,
		PageStart:      request.PageNumber(f.from),
		PageEnd:        request.PageNumber(f.to),
	}
}

var (
	rankingFlags jobFlags
	rankingType  string

	searchFlags jobFlags
	searchUser  string
)

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Download a range of ranking pages",
	Long: fmt.Sprintf(`Download a range of ranking pages in-process and print a summary.

Categories: %s (unknown categories use the daily ranking).

Examples:
  harvester ranking --type week --from 1 --to 3 --browser /usr/bin/chromium -d ./images`,
		strings.Join(site.Categories(), ", ")),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := request.SubmitRankingRequest{JobFields: rankingFlags.fields(), RankingType: rankingType}
		if err := req.Validate(); err != nil {
			return err
		}
		return runJob(cmd.Context(), rankingFlags, req.Job(entity.JobKindRanking, req.RankingType, ""))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Download a range of an author's illustration pages",
	Long: `Find an author by name and download a range of their illustration pages.

Examples:
  harvester search --user mika --from 1 --to 2 --browser /usr/bin/chromium -d ./images`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := request.SubmitSearchRequest{JobFields: searchFlags.fields(), SearchUser: searchUser}
		if err := req.Validate(); err != nil {
			return err
		}
		return runJob(cmd.Context(), searchFlags, req.Job(entity.JobKindSearch, req.SearchUser, ""))
	},
}

func init() {
	rankingFlags.register(rankingCmd)
	rankingCmd.Flags().StringVarP(&rankingType, "type", "t", "day", "Ranking category")
	rootCmd.AddCommand(rankingCmd)

	searchFlags.register(searchCmd)
	searchCmd.Flags().StringVar(&searchUser, "user", "", "Author name to search for")
	_ = searchCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(searchCmd)
}

func runJob(ctx context.Context, flags jobFlags, job entity.Job) error {
	if err := flags.fields().CheckPaths(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, backends{redis: flags.broadcast, postgres: true})
	if err != nil {
		return err
	}
	defer a.close()

	if job.ChannelID == "" {
		job.ChannelID = a.cfg.DefaultChannel
	}
	job.ID = uuid.NewString()

	publisher := events.Fanout{events.NewLogPublisher(a.logger), newConsolePublisher(os.Stdout)}
	if a.rdb != nil {
		publisher = append(publisher, redisadapter.NewPublisher(a.rdb, a.logger))
	}

	summary := a.pipeline(publisher).Run(ctx, job)
	printSummary(summary)

	if summary.State == entity.JobStateAborted {
		return fmt.Errorf("job aborted: %s", summary.AbortReason)
	}
	return nil
}

func printSummary(s *entity.JobSummary) {
	t := newTable()
	t.SetTitle("job " + s.JobID)
	t.AppendRows([]table.Row{
		{"Kind", s.Kind},
		{"Key", s.Key},
		{"Pages", fmt.Sprintf("%d ~ %d", s.PageStart, s.PageEnd)},
		{"Completed pages", fmt.Sprint(s.PagesCompleted)},
		{"State", s.State},
		{"Succeeded", s.Succeeded},
		{"Failed", s.Failed},
		{"Attempts", s.Attempts},
		{"Duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond)},
	})
	if s.AbortReason != "" {
		t.AppendRow(table.Row{"Abort reason", s.AbortReason})
	}
	t.Render()

	if len(s.Failures) == 0 {
		return
	}
	ft := newTable()
	ft.SetTitle("failed downloads")
	ft.AppendHeader(table.Row{"#", "Last URL", "Attempts", "Error"})
	for _, o := range s.Failures {
		ft.AppendRow(table.Row{o.Number(), o.URL, o.Attempts, o.Err})
	}
	ft.Render()
}
