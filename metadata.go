package epwcharts

// SeriesInfo describes one streamable weather series.
type SeriesInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// ChartMetadata is served on /metadata and sent as the first message on the
// binary websocket so the frontend can label its charts.
type ChartMetadata struct {
	Location Location     `json:"location"`
	Period   string       `json:"period"`
	Series   []SeriesInfo `json:"series"`

	// WindowSize is the replay buffer capacity of the broadcaster.
	WindowSize int `json:"windowSize"`

	// XIsTimestamp tells the frontend to render the X values as dates.
	XIsTimestamp bool `json:"xIsTimestamp"`
}

// MetadataForWeather builds the metadata for a parsed EPW and the series keys
// being streamed.
func MetadataForWeather(weather *WeatherData, seriesKeys []string, windowSize int) ChartMetadata {
	series := make([]SeriesInfo, 0, len(seriesKeys))
	for _, key := range seriesKeys {
		if collection, ok := weather.Series(key); ok {
			series = append(series, SeriesInfo{Key: key, Name: collection.Name, Unit: collection.Unit})
		}
	}

	return ChartMetadata{
		Location:     weather.Location,
		Period:       weather.Period,
		Series:       series,
		WindowSize:   windowSize,
		XIsTimestamp: true,
	}
}
