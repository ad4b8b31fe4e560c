package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ladybug-tools/epwcharts"
)

// TestWSReaderBasicData tests basic data reading functionality
func TestWSReaderBasicData(t *testing.T) {
	// Find available port
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	metadata := epwcharts.ChartMetadata{
		Series: []epwcharts.SeriesInfo{
			{Key: "series1", Name: "Series1", Unit: "C"},
			{Key: "series2", Name: "Series2", Unit: "%"},
		},
		WindowSize: 100,
	}

	testDataRows := []epwcharts.DataRow{
		{DataRowData: epwcharts.DataRowData{X: 1.0, Ys: []float64{10.5, 20.3}}},
		{DataRowData: epwcharts.DataRowData{X: 2.0, Ys: []float64{11.2, 21.1}}},
		{DataRowData: epwcharts.DataRowData{X: 3.0, Ys: []float64{12.8, 19.7}}},
	}

	mockReader := &MockDataRowReader{
		data:    testDataRows,
		columns: []string{"Series1", "Series2"},
	}
	dataBroadcaster := epwcharts.NewDataBroadcaster(mockReader, metadata.WindowSize, nil)

	config := &epwcharts.Config{Host: "localhost", Port: uint16(port), FlushInterval: 50 * time.Millisecond}
	server := epwcharts.NewHttpServer(nil, dataBroadcaster, config, metadata, nil)

	// Start server in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dataBroadcaster.Start(ctx)

	go func() {
		server.Run()
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	var output bytes.Buffer
	reader := NewWSReader("http://localhost:"+strconv.Itoa(port), &output)

	// Connect and read data (with timeout)
	done := make(chan error, 1)
	go func() {
		done <- reader.Connect(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WSReader.Connect() failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WSReader.Connect() timed out")
	}

	// Parse CSV output
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")

	// Check CSV header
	if len(lines) < 1 {
		t.Fatal("No CSV output received")
	}

	expectedHeader := "series_id,x,y"
	if lines[0] != expectedHeader {
		t.Errorf("Expected header %q, got %q", expectedHeader, lines[0])
	}

	// Check data rows
	expectedRows := []string{
		"0,1,10.5",
		"1,1,20.3",
		"0,2,11.2",
		"1,2,21.1",
		"0,3,12.8",
		"1,3,19.7",
	}

	dataLines := lines[1:]
	if len(dataLines) < len(expectedRows) {
		t.Errorf("Expected at least %d data rows, got %d", len(expectedRows), len(dataLines))
	}

	// Check that expected rows are present (order might vary due to batching)
	for _, expectedRow := range expectedRows {
		found := false
		for _, dataLine := range dataLines {
			if dataLine == expectedRow {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected row %q not found in output", expectedRow)
		}
	}
}

// TestWSReaderEmptyData tests handling of a stream that ends without any rows
func TestWSReaderEmptyData(t *testing.T) {
	// Find available port
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	metadata := epwcharts.ChartMetadata{
		Series: []epwcharts.SeriesInfo{
			{Key: "series1", Name: "Series1", Unit: "C"},
		},
		WindowSize: 100,
	}

	mockReader := &MockDataRowReader{
		data:    []epwcharts.DataRow{},
		columns: []string{"Series1"},
	}
	dataBroadcaster := epwcharts.NewDataBroadcaster(mockReader, metadata.WindowSize, nil)

	config := &epwcharts.Config{Host: "localhost", Port: uint16(port), FlushInterval: 50 * time.Millisecond}
	server := epwcharts.NewHttpServer(nil, dataBroadcaster, config, metadata, nil)

	// Start server in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dataBroadcaster.Start(ctx)

	go func() {
		server.Run()
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	var output bytes.Buffer
	reader := NewWSReader("http://localhost:"+strconv.Itoa(port), &output)

	// Connect and read data (with timeout)
	done := make(chan error, 1)
	go func() {
		done <- reader.Connect(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WSReader.Connect() failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WSReader.Connect() timed out")
	}

	// Parse CSV output - should only have header
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")

	if len(lines) != 1 {
		t.Errorf("Expected only header line, got %d lines", len(lines))
	}

	expectedHeader := "series_id,x,y"
	if lines[0] != expectedHeader {
		t.Errorf("Expected header %q, got %q", expectedHeader, lines[0])
	}
}

// MockDataRowReader is a test implementation of DataRowReader
type MockDataRowReader struct {
	data    []epwcharts.DataRow
	columns []string
	index   int
}

func (m *MockDataRowReader) Read(ctx context.Context) (epwcharts.DataRow, error) {
	if m.index >= len(m.data) {
		// Send EOF to signal end of data
		return epwcharts.DataRow{}, io.EOF
	}

	row := m.data[m.index]
	m.index++
	return row, nil
}

func (m *MockDataRowReader) ColumnNames() []string {
	return m.columns
}
