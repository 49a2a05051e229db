// Command session-report renders the joint position targets of a recorded
// control session as an HTML chart, one series per joint, plus a per-joint
// summary table on stdout.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	_ "modernc.org/sqlite"

	"github.com/gait-works/gaitctl/internal/robot"
	"github.com/gait-works/gaitctl/internal/telemetry"
)

var (
	dbPath  = flag.String("db", "telemetry.db", "Telemetry database to read")
	session = flag.String("session", "", "Session id to report on (defaults to the most recent)")
	out     = flag.String("out", "session-report.html", "Output HTML file")
)

func main() {
	flag.Parse()

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *dbPath, err)
	}
	defer db.Close()

	id := *session
	if id == "" {
		id, err = telemetry.LatestSession(db)
		if err != nil {
			log.Fatalf("failed to pick a session: %v", err)
		}
	}

	commands, err := telemetry.SessionCommands(db, id)
	if err != nil {
		log.Fatalf("failed to load commands: %v", err)
	}
	if len(commands) == 0 {
		log.Fatalf("session %s has no recorded commands", id)
	}

	var history telemetry.History
	for _, positions := range commands {
		if err := history.Record(positions); err != nil {
			log.Fatalf("inconsistent command width: %v", err)
		}
	}

	mean := history.Mean()
	stddev := history.StdDev()
	fmt.Printf("session %s: %d commands\n", id, history.Len())
	for i, name := range robot.JointOrder {
		fmt.Printf("  %-6s mean %+.4f rad  stddev %.4f\n", name, mean[i], stddev[i])
	}

	if err := writeChart(*out, id, &history); err != nil {
		log.Fatalf("failed to write chart: %v", err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func writeChart(path, sessionID string, history *telemetry.History) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session " + sessionID, Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Joint position targets", Subtitle: "session " + sessionID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "command #"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "position (rad)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	ticks := make([]int, history.Len())
	for i := range ticks {
		ticks[i] = i + 1
	}
	line.SetXAxis(ticks)

	for i, name := range robot.JointOrder {
		col := history.Column(i)
		data := make([]opts.LineData, len(col))
		for n, v := range col {
			data[n] = opts.LineData{Value: v}
		}
		line.AddSeries(name, data)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}
