package main

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/ladybug-tools/epwcharts"
)

type options struct {
	Host string `long:"host" description:"Host to bind the HTTP server to. Overrides EPWCHARTS_HOST."`
	Port uint16 `short:"p" long:"port" description:"Port to bind the HTTP server to. Overrides EPWCHARTS_PORT."`

	Series []string `short:"s" long:"series" description:"Series keys to stream to the browser. Can be repeated. Defaults to dry bulb temperature and relative humidity."`
	Tee    string   `long:"tee" description:"Also write the streamed rows as CSV to this file ('-' for stdout)."`

	Chart    string `short:"c" long:"chart" description:"Build a single chart and write its JSON instead of serving. One of: heatmap, monthly-bar, daily-bar, line, per-hour-line, wind-rose, sunpath, psychrometric."`
	Variable string `long:"variable" description:"Series key (or comma-separated keys for the bar charts) for the chart."`
	ColorSet string `long:"colorset" description:"Color set to use for the chart."`
	Title    string `long:"title" description:"Chart title."`
	Min      string `long:"min" description:"Lower bound of the chart legend range."`
	Max      string `long:"max" description:"Upper bound of the chart legend range."`
	Stack    bool   `long:"stack" description:"Stack the series in the bar charts."`
	Output   string `short:"o" long:"output" default:"-" description:"Where to write the chart JSON ('-' for stdout)."`

	Verbose bool `short:"v" long:"verbose" description:"Enable debug logging."`

	Args struct {
		EPWFile string `positional-arg-name:"epw-file" description:"The EPW weather file to chart."`
	} `positional-args:"true" required:"true"`
}

func main() {
	var opts options
	_, err := flags.Parse(&opts)
	if err != nil {
		// go-flags already printed the problem (or the help text).
		os.Exit(1)
	}

	if opts.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	config, err := epwcharts.Get()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if opts.Host != "" {
		config.Host = opts.Host
	}
	if opts.Port != 0 {
		config.Port = opts.Port
	}

	weather, err := epwcharts.LoadEPW(opts.Args.EPWFile)
	if err != nil {
		logrus.WithError(err).WithField("file", opts.Args.EPWFile).Fatal("failed to load EPW file")
	}

	logrus.WithFields(logrus.Fields{
		"city":   weather.Location.City,
		"period": weather.Period,
	}).Info("loaded EPW file")

	if opts.Chart != "" {
		buildSingleChart(weather, config, opts)
		return
	}

	serve(weather, config, opts)
}

// buildSingleChart is the one-shot mode: build one figure, write its JSON and
// exit.
func buildSingleChart(weather *epwcharts.WeatherData, config *epwcharts.Config, opts options) {
	query := url.Values{}
	if opts.Variable != "" {
		query.Set("variable", opts.Variable)
	}
	if opts.ColorSet != "" {
		query.Set("colorset", opts.ColorSet)
	}
	if opts.Title != "" {
		query.Set("title", opts.Title)
	}
	if opts.Min != "" {
		query.Set("min", opts.Min)
	}
	if opts.Max != "" {
		query.Set("max", opts.Max)
	}
	if opts.Stack {
		query.Set("stack", "true")
	}

	figure, err := epwcharts.BuildChart(weather, opts.Chart, query, epwcharts.ColorSet(config.DefaultColorSet))
	if err != nil {
		logrus.WithError(err).WithField("chart", opts.Chart).Fatal("failed to build chart")
	}

	output := os.Stdout
	if opts.Output != "-" {
		output, err = os.Create(opts.Output)
		if err != nil {
			logrus.WithError(err).WithField("file", opts.Output).Fatal("failed to create output file")
		}
		defer output.Close()
	}

	encoder := json.NewEncoder(output)
	if err := encoder.Encode(figure); err != nil {
		logrus.WithError(err).Fatal("failed to write chart JSON")
	}
}

func serve(weather *epwcharts.WeatherData, config *epwcharts.Config, opts options) {
	seriesKeys := opts.Series
	if len(seriesKeys) == 0 {
		seriesKeys = []string{"dry_bulb_temperature", "relative_humidity"}
	}

	collections := make([]*epwcharts.HourlyCollection, 0, len(seriesKeys))
	for _, key := range seriesKeys {
		collection, ok := weather.Series(key)
		if !ok {
			logrus.WithField("variable", key).Fatal("unknown variable")
		}
		collections = append(collections, collection)
	}

	var teeOutput io.Writer
	if opts.Tee == "-" {
		teeOutput = os.Stdout
	} else if opts.Tee != "" {
		f, err := os.Create(opts.Tee)
		if err != nil {
			logrus.WithError(err).WithField("file", opts.Tee).Fatal("failed to create tee output file")
		}
		defer f.Close()
		teeOutput = f
	}

	reader := epwcharts.NewCollectionRowReader(collections)
	broadcaster := epwcharts.NewDataBroadcaster(reader, config.ReplayBufferSize, teeOutput)
	metadata := epwcharts.MetadataForWeather(weather, seriesKeys, config.ReplayBufferSize)

	server := epwcharts.NewHttpServer(weather, broadcaster, config, metadata, epwcharts.NewMetricsCollector())

	broadcaster.Start(context.Background())

	if err := server.Run(); err != nil {
		logrus.WithError(err).WithField("addr", config.Host+":"+strconv.Itoa(int(config.Port))).Fatal("HTTP server failed")
	}
}
