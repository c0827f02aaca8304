package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/workshop-collector/pkg/sink"
	"github.com/Sternrassler/workshop-collector/pkg/workshop"
	"github.com/rs/zerolog"
)

// Collector retrieves all records of an application.
// *pagination.Collector implements it.
type Collector interface {
	Collect(ctx context.Context, apiKey string, appID uint32) (*workshop.Result, error)
}

// OpenFunc creates the sink for a destination.
type OpenFunc func(ctx context.Context, dest string) (sink.Sink, error)

// Report describes a saved export.
type Report struct {
	Result   *workshop.Result
	Location string
	Bytes    int
}

// Exporter runs a collection and saves the result.
type Exporter struct {
	collector Collector
	open      OpenFunc
	logger    zerolog.Logger
}

// New creates an exporter writing through sink.Open.
func New(collector Collector, logger zerolog.Logger) *Exporter {
	return NewWithOpener(collector, sink.Open, logger)
}

// NewWithOpener creates an exporter with a custom sink factory.
func NewWithOpener(collector Collector, open OpenFunc, logger zerolog.Logger) *Exporter {
	return &Exporter{
		collector: collector,
		open:      open,
		logger:    logger,
	}
}

// Run collects every record for cfg.AppID and writes them to
// cfg.Destination. The sink is opened first so a bad destination fails
// before any request is made.
func (e *Exporter) Run(ctx context.Context, cfg Config) (*Report, error) {
	out, err := e.open(ctx, cfg.Destination)
	if err != nil {
		return nil, fmt.Errorf("open destination: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to close destination")
		}
	}()

	result, err := e.collector.Collect(ctx, cfg.APIKey, cfg.AppID)
	if err != nil {
		return nil, err
	}

	data, err := Encode(result.Records, cfg.Minify)
	if err != nil {
		return nil, err
	}

	location, err := out.Write(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("save export: %w", err)
	}

	e.logger.Info().
		Int64("items", result.Collected()).
		Str("location", location).
		Int("bytes", len(data)).
		Msgf("Saved %d items to %s", result.Collected(), location)

	return &Report{
		Result:   result,
		Location: location,
		Bytes:    len(data),
	}, nil
}

// Encode renders records as a JSON array, compact when minify is set and
// indented by two spaces otherwise. No records encode as [].
func Encode(records []workshop.Record, minify bool) ([]byte, error) {
	if records == nil {
		records = []workshop.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if !minify {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
