package epwcharts

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const defaultWsChannelBufferSize = 10000

var errUnknownChart = errors.New("unknown chart")

type HttpServer struct {
	weather         *WeatherData
	dataBroadcaster *DataBroadcaster
	host            string
	port            uint16
	metadata        ChartMetadata
	flushInterval   time.Duration
	wsBufferSize    int
	defaultColorSet ColorSet
	metrics         *MetricsCollector
	router          *mux.Router
	logger          logrus.FieldLogger
}

func NewHttpServer(weather *WeatherData, dataBroadcaster *DataBroadcaster, config *Config, metadata ChartMetadata, metrics *MetricsCollector) *HttpServer {
	wsBufferSize := config.WebsocketBuffer
	if wsBufferSize <= 0 {
		wsBufferSize = defaultWsChannelBufferSize
	}

	s := &HttpServer{
		weather:         weather,
		dataBroadcaster: dataBroadcaster,
		host:            config.Host,
		port:            config.Port,
		metadata:        metadata,
		flushInterval:   config.FlushInterval,
		wsBufferSize:    wsBufferSize,
		defaultColorSet: ColorSet(config.DefaultColorSet),
		metrics:         metrics,
		router:          mux.NewRouter(),
		logger:          logrus.WithField("tag", "HttpServer"),
	}

	subFS, err := fs.Sub(webuiFiles, "webui")
	if err != nil {
		panic(err)
	}

	s.router.HandleFunc("/metadata", s.handleMetadata).Methods(http.MethodGet)
	s.router.HandleFunc("/errors", s.handleErrors).Methods(http.MethodGet)
	s.router.HandleFunc("/charts/{chart}", s.handleChart).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/ws2", s.handleWebSocket2)
	if metrics != nil {
		s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	// Catch-all, must be registered last.
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(subFS)))

	return s
}

func (s *HttpServer) handleMetadata(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(s.metadata)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
	}
}

func (s *HttpServer) handleErrors(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(s.dataBroadcaster.StreamStatus())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
	}
}

func (s *HttpServer) handleChart(w http.ResponseWriter, req *http.Request) {
	chart := mux.Vars(req)["chart"]

	start := time.Now()
	figure, err := BuildChart(s.weather, chart, req.URL.Query(), s.defaultColorSet)
	if s.metrics != nil {
		s.metrics.ObserveChartBuild(chart, time.Since(start), err)
	}

	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUnknownChart) {
			status = http.StatusNotFound
		}
		s.writeJSONError(w, status, err)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(figure); err != nil {
		s.logger.WithError(err).WithField("chart", chart).Warn("failed to write chart response")
	}
}

func (s *HttpServer) writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// BuildChart dispatches a chart name plus its query parameters to the figure
// builders. It backs both the /charts/{chart} endpoint and the CLI's one-shot
// mode. Parameter errors come back wrapped so the handler can 400 them; an
// unrecognized chart name comes back as errUnknownChart. defaultColorSet is
// used when the query doesn't pick one; empty falls through to each builder's
// own default.
func BuildChart(weather *WeatherData, chart string, query url.Values, defaultColorSet ColorSet) (*Figure, error) {
	colorSet, err := colorSetParam(query)
	if err != nil {
		return nil, err
	}
	if colorSet == "" {
		colorSet = defaultColorSet
	}

	minRange, err := floatParam(query, "min")
	if err != nil {
		return nil, err
	}
	maxRange, err := floatParam(query, "max")
	if err != nil {
		return nil, err
	}

	switch chart {
	case "heatmap":
		data, err := collectionParam(weather, query, "dry_bulb_temperature")
		if err != nil {
			return nil, err
		}
		return HeatMap(data, HeatMapOptions{MinRange: minRange, MaxRange: maxRange, ColorSet: colorSet})

	case "monthly-bar":
		collections, err := collectionsParam(weather, query)
		if err != nil {
			return nil, err
		}
		total := query.Get("total") == "true"
		monthly := make([]*MonthlyCollection, len(collections))
		for i, c := range collections {
			if total {
				monthly[i] = c.TotalMonthly()
			} else {
				monthly[i] = c.AverageMonthly()
			}
		}
		return MonthlyBarChart(monthly, BarChartOptions{
			Title:   query.Get("title"),
			Stacked: query.Get("stack") == "true",
		})

	case "daily-bar":
		collections, err := collectionsParam(weather, query)
		if err != nil {
			return nil, err
		}
		total := query.Get("total") == "true"
		daily := make([]*DailyCollection, len(collections))
		for i, c := range collections {
			if total {
				daily[i] = c.TotalDaily()
			} else {
				daily[i] = c.AverageDaily()
			}
		}
		return DailyBarChart(daily, BarChartOptions{
			Title:   query.Get("title"),
			Stacked: query.Get("stack") == "true",
		})

	case "line":
		data, err := collectionParam(weather, query, "dry_bulb_temperature")
		if err != nil {
			return nil, err
		}
		color, err := colorParam(query)
		if err != nil {
			return nil, err
		}
		return HourlyLineChart(data, color), nil

	case "per-hour-line":
		data, err := collectionParam(weather, query, "dry_bulb_temperature")
		if err != nil {
			return nil, err
		}
		color, err := colorParam(query)
		if err != nil {
			return nil, err
		}
		return PerHourLineChart(data, color), nil

	case "wind-rose":
		period, err := periodParam(query)
		if err != nil {
			return nil, err
		}
		return WindRose(weather.WindSpeed(), weather.WindDirection(), WindRoseOptions{
			Title:      query.Get("title"),
			HideLegend: query.Get("legend") == "false",
			ColorSet:   colorSet,
			Period:     period,
		})

	case "sunpath":
		opts := SunpathOptions{
			ColorSet: colorSet,
			MinRange: minRange,
			MaxRange: maxRange,
			Title:    query.Get("title"),
		}
		if query.Get("variable") != "" {
			data, err := collectionParam(weather, query, "")
			if err != nil {
				return nil, err
			}
			opts.Data = data
		}
		return SunpathChart(weather.Sunpath(), opts)

	case "psychrometric":
		opts := PsychChartOptions{
			Title:        query.Get("title"),
			ColorSet:     colorSet,
			ShowPolygons: query.Get("polygons") == "true",
		}
		if query.Get("variable") != "" {
			data, err := collectionParam(weather, query, "")
			if err != nil {
				return nil, err
			}
			opts.Data = data
		}
		strategies, err := strategiesParam(query)
		if err != nil {
			return nil, err
		}
		opts.Strategies = strategies
		for _, strategy := range strategies {
			if strategy == StrategyPassiveSolarHeating {
				opts.SolarData, _ = weather.Series("global_horizontal_radiation")
			}
		}
		return PsychrometricChart(weather.DryBulbTemperature(), weather.RelativeHumidity(), opts)

	default:
		return nil, errors.Wrap(errUnknownChart, chart)
	}
}

func collectionParam(weather *WeatherData, query url.Values, defaultKey string) (*HourlyCollection, error) {
	key := query.Get("variable")
	if key == "" {
		key = defaultKey
	}
	collection, ok := weather.Series(key)
	if !ok {
		return nil, errors.Errorf("unknown variable: %s", key)
	}
	return collection, nil
}

// collectionsParam resolves a comma-separated variable list, for the bar
// charts which overlay multiple series.
func collectionsParam(weather *WeatherData, query url.Values) ([]*HourlyCollection, error) {
	raw := query.Get("variable")
	if raw == "" {
		raw = "dry_bulb_temperature"
	}

	keys := strings.Split(raw, ",")
	collections := make([]*HourlyCollection, 0, len(keys))
	for _, key := range keys {
		collection, ok := weather.Series(strings.TrimSpace(key))
		if !ok {
			return nil, errors.Errorf("unknown variable: %s", key)
		}
		collections = append(collections, collection)
	}
	return collections, nil
}

func colorSetParam(query url.Values) (ColorSet, error) {
	raw := query.Get("colorset")
	if raw == "" {
		return "", nil
	}

	cs := ColorSet(raw)
	if _, err := Palette(cs); err != nil {
		return "", err
	}
	return cs, nil
}

func colorParam(query url.Values) (*Color, error) {
	raw := query.Get("color")
	if raw == "" {
		return nil, nil
	}

	raw = strings.TrimPrefix(raw, "#")
	if len(raw) != 6 {
		return nil, errors.Errorf("invalid color: %s", raw)
	}

	var color Color
	_, err := fmt.Sscanf(raw, "%02x%02x%02x", &color.R, &color.G, &color.B)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid color: %s", raw)
	}
	return &color, nil
}

func floatParam(query url.Values, name string) (*float64, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	return &v, nil
}

func intParam(query url.Values, name string, defaultValue int) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return defaultValue, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return v, nil
}

func periodParam(query url.Values) (AnalysisPeriod, error) {
	full := FullYear()

	startMonth, err := intParam(query, "start-month", full.StartMonth)
	if err != nil {
		return AnalysisPeriod{}, err
	}
	endMonth, err := intParam(query, "end-month", full.EndMonth)
	if err != nil {
		return AnalysisPeriod{}, err
	}
	startHour, err := intParam(query, "start-hour", full.StartHour)
	if err != nil {
		return AnalysisPeriod{}, err
	}
	endHour, err := intParam(query, "end-hour", full.EndHour)
	if err != nil {
		return AnalysisPeriod{}, err
	}

	return AnalysisPeriod{StartMonth: startMonth, EndMonth: endMonth, StartHour: startHour, EndHour: endHour}, nil
}

func strategiesParam(query url.Values) ([]Strategy, error) {
	raw := query.Get("strategies")
	if raw == "" {
		return nil, nil
	}

	known := map[string]Strategy{
		"evaporative-cooling":   StrategyEvaporativeCooling,
		"night-ventilation":     StrategyNightVentilation,
		"fan-use":               StrategyFanUse,
		"internal-heat":         StrategyInternalHeat,
		"passive-solar-heating": StrategyPassiveSolarHeating,
	}

	var strategies []Strategy
	for _, name := range strings.Split(raw, ",") {
		strategy, ok := known[strings.TrimSpace(name)]
		if !ok {
			return nil, errors.Errorf("unknown strategy: %s", name)
		}
		strategies = append(strategies, strategy)
	}
	return strategies, nil
}

func (s *HttpServer) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	if s.metrics != nil {
		s.metrics.WebsocketConnected()
		defer s.metrics.WebsocketDisconnected()
	}

	ctx := req.Context()
	ctx = c.CloseRead(ctx) // This means we no longer want to read from the websocket, which is true because we just want to write.

	channel := make(chan DataRow, s.wsBufferSize)
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case dataRow, open := <-channel:
				if !open { // Not sure why this would ever happen, but sure
					s.logger.Warn("data channel closed, closing websocket")
					c.Close(websocket.StatusNormalClosure, "channel closed")
					return
				}

				if dataRow.streamEnded {
					msg := StreamEndedMessage{StreamEnded: true}
					if dataRow.streamErr != nil {
						msg.StreamError = dataRow.streamErr.Error()
					}
					if err := wsjson.Write(ctx, c, msg); err != nil {
						s.logger.Warn("websocket write failed and closed")
						return
					}
					continue
				}

				err := wsjson.Write(ctx, c, dataRow.DataRowData)
				if err != nil {
					// At this point the websocket closed, so we don't even need to send anything
					s.logger.Warn("websocket write failed and closed")
					return
				}

				if s.metrics != nil {
					s.metrics.RowsStreamed(1)
				}
			case <-ctx.Done(): // client connection closes causes the req.Context to be canceled?
				s.logger.Info("client closed connection or context canceled")
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}()

	// The channel is already being received from in another goroutine and we
	// register the channels in the main thread.
	s.dataBroadcaster.RegisterChannel(ctx, channel)

	// Once the websocket writing thread finishes, we want to deregister the
	// channel from the broadcaster.
	wg.Wait()
	s.dataBroadcaster.DeregisterChannel(ctx, channel)
	close(channel)
}

// handleWebSocket2 serves the binary stream protocol: a METADATA message
// first, then batched DATA messages (one per series per flush), then
// STREAM_END once the source finishes.
func (s *HttpServer) handleWebSocket2(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	if s.metrics != nil {
		s.metrics.WebsocketConnected()
		defer s.metrics.WebsocketDisconnected()
	}

	ctx := req.Context()
	ctx = c.CloseRead(ctx)

	if err := s.writeBinaryMessage(ctx, c, MessageTypeMetadata, s.metadata); err != nil {
		s.logger.WithError(err).Warn("failed to write metadata message, closing websocket")
		c.Close(websocket.StatusInternalError, "metadata write failed")
		return
	}

	channel := make(chan DataRow, s.wsBufferSize)
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()

		flushTicker := time.NewTicker(s.flushInterval)
		defer flushTicker.Stop()

		pending := make([]DataRow, 0, s.wsBufferSize)
		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			if err := s.writeDataBatch(ctx, c, pending); err != nil {
				s.logger.Warn("websocket write failed and closed")
				return false
			}
			if s.metrics != nil {
				s.metrics.RowsStreamed(len(pending))
			}
			pending = pending[:0]
			return true
		}

		for {
			select {
			case dataRow, open := <-channel:
				if !open {
					s.logger.Warn("data channel closed, closing websocket")
					c.Close(websocket.StatusNormalClosure, "channel closed")
					return
				}

				if dataRow.streamEnded {
					// Flush whatever is pending so the end marker is last.
					if !flush() {
						return
					}

					msg := StreamEndedMessage{StreamEnded: true}
					if dataRow.streamErr != nil {
						msg.StreamError = dataRow.streamErr.Error()
					}
					if err := s.writeBinaryMessage(ctx, c, MessageTypeStreamEnd, msg); err != nil {
						s.logger.Warn("websocket write failed and closed")
					}
					continue
				}

				pending = append(pending, dataRow)
			case <-flushTicker.C:
				if !flush() {
					return
				}
			case <-ctx.Done():
				s.logger.Info("client closed connection or context canceled")
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}()

	s.dataBroadcaster.RegisterChannel(ctx, channel)

	wg.Wait()
	s.dataBroadcaster.DeregisterChannel(ctx, channel)
	close(channel)
}

func (s *HttpServer) writeBinaryMessage(ctx context.Context, c *websocket.Conn, messageType byte, payload interface{}) error {
	buf, err := EncodeWSMessage(WSMessage{
		Header:  EnvelopeHeader{Version: ProtocolVersion, Type: messageType},
		Payload: payload,
	})
	if err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageBinary, buf)
}

// writeDataBatch transposes the pending rows into one DATA message per
// series.
func (s *HttpServer) writeDataBatch(ctx context.Context, c *websocket.Conn, rows []DataRow) error {
	numSeries := len(s.metadata.Series)

	for seriesID := 0; seriesID < numSeries; seriesID++ {
		xs := make([]float64, 0, len(rows))
		ys := make([]float64, 0, len(rows))
		for _, row := range rows {
			if seriesID >= len(row.Ys) {
				continue
			}
			xs = append(xs, row.X)
			ys = append(ys, row.Ys[seriesID])
		}

		err := s.writeBinaryMessage(ctx, c, MessageTypeData, DataMessage{
			SeriesID: uint32(seriesID),
			Length:   uint32(len(xs)),
			X:        xs,
			Y:        ys,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Run starts the server and blocks. It opens the local browser once the
// listener is up.
func (s *HttpServer) Run() error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(int(s.port)))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}

	url := fmt.Sprintf("http://%s", listener.Addr().String())
	s.logger.Infof("starting HTTP server at %s", url)
	openBrowser(url)

	return http.Serve(listener, s.router)
}
