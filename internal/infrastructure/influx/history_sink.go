package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"RigorScore/internal/config"
	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

const measurement = "rigor_score"

// HistorySink mirrors score snapshots into an InfluxDB bucket for dashboards.
type HistorySink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

var _ ports.HistorySink = (*HistorySink)(nil)

// NewHistorySink connects lazily; the first Record performs the first request.
func NewHistorySink(cfg config.HistoryConfig) (*HistorySink, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx history sink misconfigured: url, org and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &HistorySink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Record writes one point per log entry.
func (s *HistorySink) Record(ctx context.Context, entry domain.LogEntry) error {
	if err := s.writeAPI.WritePoint(ctx, Point(entry)); err != nil {
		return fmt.Errorf("write score point: %w", err)
	}
	return nil
}

// Close releases client resources.
func (s *HistorySink) Close() {
	s.client.Close()
}

// Point converts a log entry to a line-protocol point.
func Point(entry domain.LogEntry) *write.Point {
	p := influxdb2.NewPointWithMeasurement(measurement).
		AddTag("analysis_id", entry.AnalysisID).
		AddTag("trigger", string(entry.Trigger)).
		AddField("seq", entry.Seq).
		AddField("composite", entry.Composite).
		AddField("veracity", entry.Veracity).
		AddField("conflict", entry.Conflict).
		AddField("logic", entry.Logic).
		AddField("source_count", entry.SourceCount).
		AddField("authoritative_count", entry.AuthoritativeCount).
		AddField("conflict_count", entry.ConflictCount).
		SetTime(entry.Timestamp)
	if entry.Delta != nil {
		p = p.AddField("delta", *entry.Delta)
	}
	return p
}
