package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/internal/parquet"
	"github.com/fleetsight/fleetsight/schema"
)

// WriteAnomalyResults outputs the batch results, dispatching based on the
// output format configured.
func WriteAnomalyResults(records []schema.AnomalyRecord, quarantined []schema.QuarantinedRecord, overview schema.FleetOverview, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	ranked := rankAnomalies(records, cfg.ResultLimit)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeAnomalyJSONResults(ranked, quarantined, overview, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeAnomalyCSVResults(ranked, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeAnomalyParquetResults(records, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnomalyTable(ranked, quarantined, overview, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// rankAnomalies returns the anomalous records ordered by combined severity
// descending, limited to the configured result count.
func rankAnomalies(records []schema.AnomalyRecord, limit int) []schema.AnomalyRecord {
	var ranked []schema.AnomalyRecord
	for i := range records {
		if records[i].IsAnomalous {
			ranked = append(ranked, records[i])
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedSeverity > ranked[j].CombinedSeverity
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// writeAnomalyJSONResults handles opening the file and calling the JSON writer.
func writeAnomalyJSONResults(ranked []schema.AnomalyRecord, quarantined []schema.QuarantinedRecord, overview schema.FleetOverview, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		// Prepare the data structure for JSON with rank and label added
		type JSONAnomalyResult struct {
			Rank  int    `json:"rank"`
			Label string `json:"label"`
			schema.AnomalyRecord
		}

		anomalies := make([]JSONAnomalyResult, len(ranked))
		for i, rec := range ranked {
			anomalies[i] = JSONAnomalyResult{
				Rank:          i + 1,
				Label:         contract.GetPlainLabel(rec.CombinedSeverity),
				AnomalyRecord: rec,
			}
		}

		payload := struct {
			Overview    schema.FleetOverview       `json:"overview"`
			Anomalies   []JSONAnomalyResult        `json:"anomalies"`
			Quarantined []schema.QuarantinedRecord `json:"quarantined"`
		}{
			Overview:    overview,
			Anomalies:   anomalies,
			Quarantined: quarantined,
		}
		return writeJSON(w, payload)
	}, "Wrote JSON")
}

// writeAnomalyCSVResults handles opening the file and calling the CSV writer.
func writeAnomalyCSVResults(ranked []schema.AnomalyRecord, cfg *contract.Config, fmtFloat func(float64) string) error {
	header := []string{
		"rank",
		"vehicle_id",
		"timestamp",
		"speed_kmph",
		"rpm",
		"engine_temp_c",
		"battery_voltage",
		"fuel_rate",
		"rolling_avg_temp",
		"outlier_score",
		"combined_severity",
		"label",
		"flags",
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			for i, rec := range ranked {
				row := []string{
					strconv.Itoa(i + 1),
					rec.VehicleID,
					rec.Timestamp.Format(contract.DateTimeFormat),
					fmtFloat(rec.SpeedKmph),
					fmtFloat(rec.RPM),
					fmtFloat(rec.EngineTempC),
					fmtFloat(rec.BatteryVoltage),
					fmtFloat(rec.FuelRate),
					fmtFloat(rec.RollingAvgTemp),
					fmtFloat(rec.OutlierScore),
					fmtFloat(rec.CombinedSeverity),
					contract.GetPlainLabel(rec.CombinedSeverity),
					schema.FormatFlags(rec.Flags),
				}
				if err := csvWriter.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// writeAnomalyParquetResults writes the full record set, not just the ranked
// anomalies, so downstream tools can do their own filtering.
func writeAnomalyParquetResults(records []schema.AnomalyRecord, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return errors.New("--output-file is required for parquet output")
	}
	rows, err := parquet.ConvertAnomalyRecords(records)
	if err != nil {
		return err
	}
	if err := parquet.WriteAnomalyRows(rows, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Printf("Wrote %d records to %s\n", len(rows), cfg.OutputFile)
	return nil
}

// writeAnomalyTable generates and writes the human-readable table.
func writeAnomalyTable(ranked []schema.AnomalyRecord, quarantined []schema.QuarantinedRecord, overview schema.FleetOverview, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	label := labelFunc(cfg)

	// 1. Define Headers
	headers := []string{"Rank", "Vehicle", "Timestamp", "Score", "Severity", "Label", "Flags"}
	table.Header(headers)

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	var data [][]string
	idWidth := getMaxTableIDWidth(cfg)
	for i, rec := range ranked {
		row := []string{
			strconv.Itoa(i + 1),                           // Rank
			contract.TruncateID(rec.VehicleID, idWidth),   // Vehicle
			rec.Timestamp.Format(contract.DateTimeFormat), // Timestamp
			fmtFloat(rec.OutlierScore),                    // Score
			fmtFloat(rec.CombinedSeverity),                // Severity
			label(rec.CombinedSeverity),                   // Label
			schema.FormatFlags(rec.Flags),                 // Flags
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Compute summary stats
	if _, err := fmt.Fprintf(writer, "Showing top %d of %d anomalous records (%d total, %d quarantined)\n",
		len(ranked), overview.AnomalyCount, overview.RecordCount, len(quarantined)); err != nil {
		return err
	}
	if len(quarantined) > 0 {
		if err := writeQuarantineBreakdown(writer, quarantined); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "Batch completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeQuarantineBreakdown prints per-reason reject counts in first-seen order.
func writeQuarantineBreakdown(writer io.Writer, quarantined []schema.QuarantinedRecord) error {
	counts := make(map[schema.QuarantineReason]int)
	var order []schema.QuarantineReason
	for i := range quarantined {
		reason := quarantined[i].Reason
		if _, ok := counts[reason]; !ok {
			order = append(order, reason)
		}
		counts[reason]++
	}
	if _, err := fmt.Fprintln(writer, "Quarantine breakdown:"); err != nil {
		return err
	}
	for _, reason := range order {
		if _, err := fmt.Fprintf(writer, "  %s: %d\n", reason, counts[reason]); err != nil {
			return err
		}
	}
	return nil
}
