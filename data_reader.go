package epwcharts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"

	"github.com/sirupsen/logrus"
)

// The live pipeline replays a parsed EPW's hourly series to the browser: a
// DataRowReader yields one DataRow per hour of the year, the DataBroadcaster
// fans the rows out to every connected websocket, and the websocket handlers
// serialize them (JSON on /ws, the binary protocol on /ws2).

var errIgnoreThisRow = errors.New("ignore this row")

// DataRowData is the payload of a data row: the X value (a unix timestamp on
// the chart calendar) and one Y value per selected series.
type DataRowData struct {
	X  float64
	Ys []float64
}

// MarshalJSON writes NaN Y values as null. A partially missing hour still
// streams (only all-NaN hours are skipped), and encoding/json refuses to
// encode NaN.
func (d DataRowData) MarshalJSON() ([]byte, error) {
	ys := make([]*float64, len(d.Ys))
	for i, y := range d.Ys {
		if math.IsNaN(y) {
			continue
		}
		value := y
		ys[i] = &value
	}

	return json.Marshal(struct {
		X  float64
		Ys []*float64
	}{X: d.X, Ys: ys})
}

// DataRow is one row of streamed chart data. The stream end marker row has
// streamEnded set and carries the terminal error, if any.
type DataRow struct {
	DataRowData

	streamEnded bool
	streamErr   error
}

// DataRowReader yields DataRows until io.EOF.
type DataRowReader interface {
	Read(context.Context) (DataRow, error)
	ColumnNames() []string
}

// CollectionRowReader replays one or more aligned hourly collections as a
// row stream: one row per hour of the year, X being the hour's timestamp.
// Hours where every collection is NaN are skipped.
type CollectionRowReader struct {
	collections []*HourlyCollection

	hoy    int
	logger logrus.FieldLogger
}

func NewCollectionRowReader(collections []*HourlyCollection) *CollectionRowReader {
	return &CollectionRowReader{
		collections: collections,
		logger:      logrus.WithField("tag", "CollectionRowReader"),
	}
}

func (r *CollectionRowReader) Read(ctx context.Context) (DataRow, error) {
	if err := ctx.Err(); err != nil {
		return DataRow{}, err
	}

	if r.hoy >= HoursPerYear {
		return DataRow{}, io.EOF
	}

	hoy := r.hoy
	r.hoy++

	ys := make([]float64, len(r.collections))
	allNaN := true
	for i, collection := range r.collections {
		ys[i] = collection.Values[hoy]
		if !math.IsNaN(ys[i]) {
			allNaN = false
		}
	}

	if allNaN {
		r.logger.WithField("hourOfYear", hoy).Debug("no values at hour, ignoring...")
		return DataRow{}, errIgnoreThisRow
	}

	return DataRow{DataRowData: DataRowData{X: timestampOfHour(hoy), Ys: ys}}, nil
}

func (r *CollectionRowReader) ColumnNames() []string {
	names := make([]string, len(r.collections))
	for i, collection := range r.collections {
		names[i] = collection.Name
	}
	return names
}
