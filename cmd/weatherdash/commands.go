package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/weatherdash/internal/api"
	"github.com/lox/weatherdash/internal/dashboard"
	"github.com/lox/weatherdash/internal/render"
	"github.com/lox/weatherdash/internal/weather"
)

type ForecastCmd struct {
	City  string `arg:"" help:"City name."`
	Range string `short:"r" help:"Date range: 7days, 5days or a day count." default:"7days"`
	View  string `help:"View mode (${enum}); detailed adds humidity, wind and rainfall charts." enum:"overview,detailed" default:"overview"`
	JSON  bool   `help:"Print JSON instead of text."`
}

func (c *ForecastCmd) Run(ctx context.Context, svc *weather.Service) error {
	days, err := weather.ParseRange(c.Range)
	if err != nil {
		return err
	}
	view, err := weather.ParseView(c.View)
	if err != nil {
		return err
	}
	report, err := svc.Report(ctx, c.City, days)
	if err != nil {
		return err
	}
	report = report.WithView(view)
	if c.JSON {
		return render.JSON(os.Stdout, report)
	}
	render.Report(os.Stdout, report)
	return nil
}

type CurrentCmd struct {
	City string `arg:"" help:"City name."`
	JSON bool   `help:"Print JSON instead of text."`
}

func (c *CurrentCmd) Run(ctx context.Context, svc *weather.Service) error {
	cur, err := svc.Current(ctx, c.City)
	if err != nil {
		return err
	}
	if c.JSON {
		return render.JSON(os.Stdout, cur)
	}
	render.Current(os.Stdout, cur)
	return nil
}

type SearchCmd struct {
	Query string `arg:"" help:"Partial city name (at least two characters)."`
	Count int    `short:"n" help:"Maximum number of matches." default:"10"`
	JSON  bool   `help:"Print JSON instead of text."`
}

func (c *SearchCmd) Run(ctx context.Context, svc *weather.Service) error {
	matches, err := svc.Search(ctx, c.Query, c.Count)
	if err != nil {
		return err
	}
	if c.JSON {
		return render.JSON(os.Stdout, matches)
	}
	render.Matches(os.Stdout, matches)
	return nil
}

type CompareCmd struct {
	Cities []string `arg:"" help:"Cities to compare."`
	Range  string   `short:"r" help:"Date range: 7days, 5days or a day count." default:"7days"`
	JSON   bool     `help:"Print JSON instead of text."`
}

func (c *CompareCmd) Run(ctx context.Context, svc *weather.Service) error {
	days, err := weather.ParseRange(c.Range)
	if err != nil {
		return err
	}
	reports, err := svc.Compare(ctx, c.Cities, days)
	if err != nil {
		return err
	}
	if c.JSON {
		return render.JSON(os.Stdout, reports)
	}
	render.Comparison(os.Stdout, reports)
	return nil
}

type WatchCmd struct {
	City     string        `arg:"" help:"City name."`
	Range    string        `short:"r" help:"Date range: 7days, 5days or a day count." default:"7days"`
	View     string        `help:"View mode (${enum})." enum:"overview,detailed" default:"overview"`
	Interval time.Duration `help:"Refresh interval." default:"15m"`
}

func (c *WatchCmd) Run(ctx context.Context, svc *weather.Service) error {
	days, err := weather.ParseRange(c.Range)
	if err != nil {
		return err
	}
	view, err := weather.ParseView(c.View)
	if err != nil {
		return err
	}

	ctrl := dashboard.New(viewFetch(svc, view), dashboard.OnChange(func(s dashboard.State) {
		render.State(os.Stdout, s)
	}))
	defer ctrl.Close()

	sched := dashboard.NewScheduler(ctrl, c.Interval)
	ctrl.Select(c.City, days)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	<-ctx.Done()
	return nil
}

type ReplCmd struct{}

func (c *ReplCmd) Run(ctx context.Context, svc *weather.Service) error {
	ctrl := dashboard.New(svc.Report, dashboard.OnChange(func(s dashboard.State) {
		render.State(os.Stdout, s)
	}))
	defer ctrl.Close()

	lines := readLines(ctx, os.Stdin)

	fmt.Fprintln(os.Stderr, `enter "city [range]", e.g. "Mumbai 5days"; ctrl-d to quit`)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				ctrl.Wait()
				return nil
			}
			city, days, err := parseSelection(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if city != "" {
				ctrl.Select(city, days)
			}
		}
	}
}

// viewFetch adapts svc.Report to the dashboard, laying every report out for view.
func viewFetch(svc *weather.Service, view weather.View) dashboard.FetchFunc {
	return func(ctx context.Context, city string, days int) (weather.Report, error) {
		report, err := svc.Report(ctx, city, days)
		if err != nil {
			return weather.Report{}, err
		}
		return report.WithView(view), nil
	}
}

// readLines streams r line by line until EOF or ctx is done, then closes the channel.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// parseSelection splits "New York 5days" into city and day count. Only a
// trailing "<n>days" token is taken as the range.
func parseSelection(line string) (string, int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", 0, nil
	}
	days := 7
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if strings.HasSuffix(strings.ToLower(last), "days") {
			n, err := weather.ParseRange(last)
			if err != nil {
				return "", 0, err
			}
			days = n
			fields = fields[:len(fields)-1]
		}
	}
	return strings.Join(fields, " "), days, nil
}

type ServeCmd struct {
	Addr string `help:"Listen address." default:":8080" env:"WEATHERDASH_ADDR"`
}

func (c *ServeCmd) Run(ctx context.Context, svc *weather.Service) error {
	server := api.NewServer(svc, c.Addr)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Info().Str("component", "api").Msg("server stopped")
	return nil
}
