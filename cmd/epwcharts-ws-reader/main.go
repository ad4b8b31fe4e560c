package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"github.com/ladybug-tools/epwcharts"
)

// A small companion tool that connects to a running epwcharts server's binary
// websocket endpoint and dumps the streamed series as CSV. Useful for piping
// the replayed weather data into other tools, and for debugging the stream
// protocol.

type options struct {
	URL     string `short:"u" long:"url" default:"http://localhost:5272" description:"URL of the epwcharts server."`
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging."`
}

// WSReader reads from the /ws2 endpoint and writes CSV rows to output.
type WSReader struct {
	serverURL string
	csvWriter *csv.Writer
	logger    logrus.FieldLogger
}

func NewWSReader(serverURL string, output io.Writer) *WSReader {
	return &WSReader{
		serverURL: serverURL,
		csvWriter: csv.NewWriter(output),
		logger:    logrus.WithField("tag", "WSReader"),
	}
}

// Connect establishes the websocket connection and processes messages until
// the stream ends or the connection closes.
func (w *WSReader) Connect(ctx context.Context) error {
	u, err := url.Parse(w.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws2"

	w.logger.WithField("url", u.String()).Info("connecting to websocket")

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := w.csvWriter.Write([]string{"series_id", "x", "y"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for {
		_, messageData, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				w.logger.Info("connection closed normally")
				break
			}
			w.logger.WithError(err).Error("error reading message")
			break
		}

		if err := w.processMessage(messageData); err != nil {
			if err == io.EOF {
				w.logger.Info("stream ended")
				break
			}
			w.logger.WithError(err).Error("error processing message")
		}
	}

	w.csvWriter.Flush()
	return w.csvWriter.Error()
}

func (w *WSReader) processMessage(messageData []byte) error {
	msg, err := epwcharts.DecodeWSMessage(messageData)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	switch msg.Header.Type {
	case epwcharts.MessageTypeData:
		dataMsg, ok := msg.Payload.(epwcharts.DataMessage)
		if !ok {
			return fmt.Errorf("invalid DATA message payload type: %T", msg.Payload)
		}
		return w.processDataMessage(dataMsg)

	case epwcharts.MessageTypeMetadata:
		metadata, ok := msg.Payload.(epwcharts.ChartMetadata)
		if !ok {
			return fmt.Errorf("invalid METADATA message payload type: %T", msg.Payload)
		}
		w.logger.WithFields(logrus.Fields{
			"city":   metadata.Location.City,
			"series": len(metadata.Series),
		}).Debug("received metadata")

	case epwcharts.MessageTypeStreamEnd:
		streamEnd, ok := msg.Payload.(epwcharts.StreamEndedMessage)
		if !ok {
			return fmt.Errorf("invalid STREAM_END message payload type: %T", msg.Payload)
		}
		if streamEnd.StreamError != "" {
			w.logger.WithField("error", streamEnd.StreamError).Error("stream ended with error")
		} else {
			w.logger.Info("stream ended successfully")
		}
		return io.EOF // Signal end of stream

	default:
		w.logger.Warnf("unknown message type: 0x%02x", msg.Header.Type)
	}

	return nil
}

func (w *WSReader) processDataMessage(dataMsg epwcharts.DataMessage) error {
	seriesID := strconv.FormatUint(uint64(dataMsg.SeriesID), 10)

	for i := 0; i < len(dataMsg.X); i++ {
		row := []string{
			seriesID,
			strconv.FormatFloat(dataMsg.X[i], 'g', -1, 64),
			strconv.FormatFloat(dataMsg.Y[i], 'g', -1, 64),
		}
		if err := w.csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.csvWriter.Flush()
	return w.csvWriter.Error()
}

func main() {
	var opts options
	_, err := flags.Parse(&opts)
	if err != nil {
		os.Exit(1)
	}

	if opts.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	reader := NewWSReader(opts.URL, os.Stdout)
	if err := reader.Connect(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to read from server")
	}
}
