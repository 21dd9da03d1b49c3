package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/schema"
)

// WriteFleetOverview outputs the fleet-wide overview report.
func WriteFleetOverview(overview schema.FleetOverview, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, overview)
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"vehicles", "records", "anomalies", "quarantined", "idle_events", "avg_speed", "avg_health_score"}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				return csvWriter.Write([]string{
					strconv.Itoa(overview.VehicleCount),
					strconv.Itoa(overview.RecordCount),
					strconv.Itoa(overview.AnomalyCount),
					strconv.Itoa(overview.QuarantineCount),
					strconv.Itoa(overview.IdleEvents),
					fmtFloat(overview.AvgSpeed),
					fmtFloat(overview.AvgHealthScore),
				})
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			fmt.Fprintf(w, "Vehicles: %d\n", overview.VehicleCount)
			fmt.Fprintf(w, "Records: %d\n", overview.RecordCount)
			fmt.Fprintf(w, "Anomalous: %d\n", overview.AnomalyCount)
			fmt.Fprintf(w, "Quarantined: %d\n", overview.QuarantineCount)
			fmt.Fprintf(w, "Idle Events: %d\n", overview.IdleEvents)
			fmt.Fprintf(w, "Avg Speed: %s km/h\n", fmtFloat(overview.AvgSpeed))
			return nil
		}, "Wrote overview")
	}
}

// WriteVehicleHealth outputs the per-vehicle health report.
func WriteVehicleHealth(rows []schema.VehicleHealthRow, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"vehicle_id", "records", "avg_voltage", "max_temp", "avg_fuel_rate", "max_speed", "anomaly_count"}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				for _, r := range rows {
					rec := []string{
						r.VehicleID,
						fmt.Sprintf(intFmt, r.Records),
						fmtFloat(r.AvgVoltage),
						fmtFloat(r.MaxTemp),
						fmtFloat(r.AvgFuelRate),
						fmtFloat(r.MaxSpeed),
						fmt.Sprintf(intFmt, r.AnomalyCount),
					}
					if err := csvWriter.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Vehicle", "Records", "Avg Volt", "Max Temp", "Avg Fuel", "Max Speed", "Anomalies"})
			table.Configure(func(tcfg *tablewriter.Config) {
				tcfg.Row.Alignment.Global = tw.AlignRight
			})
			idWidth := getMaxTableIDWidth(cfg)
			var data [][]string
			for _, r := range rows {
				data = append(data, []string{
					contract.TruncateID(r.VehicleID, idWidth),
					fmt.Sprintf(intFmt, r.Records),
					fmtFloat(r.AvgVoltage),
					fmtFloat(r.MaxTemp),
					fmtFloat(r.AvgFuelRate),
					fmtFloat(r.MaxSpeed),
					fmt.Sprintf(intFmt, r.AnomalyCount),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

// WriteHarshEvents outputs the harsh driving report.
func WriteHarshEvents(rows []schema.HarshEventRow, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	label := labelFunc(cfg)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"vehicle_id", "timestamp", "speed_delta", "severity", "label"}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				for _, r := range rows {
					rec := []string{
						r.VehicleID,
						r.Timestamp.Format(contract.DateTimeFormat),
						fmtFloat(r.SpeedDelta),
						fmtFloat(r.Severity),
						contract.GetPlainLabel(r.Severity),
					}
					if err := csvWriter.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Vehicle", "Timestamp", "Speed Delta", "Severity", "Label"})
			table.Configure(func(tcfg *tablewriter.Config) {
				tcfg.Row.Alignment.Global = tw.AlignRight
			})
			idWidth := getMaxTableIDWidth(cfg)
			var data [][]string
			for _, r := range rows {
				data = append(data, []string{
					contract.TruncateID(r.VehicleID, idWidth),
					r.Timestamp.Format(contract.DateTimeFormat),
					fmtFloat(r.SpeedDelta),
					fmtFloat(r.Severity),
					label(r.Severity),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

// WriteIdleWaste outputs the idle fuel waste report.
func WriteIdleWaste(rows []schema.IdleWasteRow, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"vehicle_id", "day", "idle_events", "avg_fuel_rate"}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				for _, r := range rows {
					rec := []string{
						r.VehicleID,
						r.Day,
						fmt.Sprintf(intFmt, r.IdleEvents),
						fmtFloat(r.AvgFuelRate),
					}
					if err := csvWriter.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Vehicle", "Day", "Idle Events", "Avg Fuel"})
			table.Configure(func(tcfg *tablewriter.Config) {
				tcfg.Row.Alignment.Global = tw.AlignRight
			})
			idWidth := getMaxTableIDWidth(cfg)
			var data [][]string
			for _, r := range rows {
				data = append(data, []string{
					contract.TruncateID(r.VehicleID, idWidth),
					r.Day,
					fmt.Sprintf(intFmt, r.IdleEvents),
					fmtFloat(r.AvgFuelRate),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

// WriteSummary outputs the executive summary plus the per-vehicle risk
// profiles.
func WriteSummary(summary string, insights []schema.VehicleInsight, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			payload := struct {
				Summary  string                  `json:"summary"`
				Vehicles []schema.VehicleInsight `json:"vehicles"`
			}{
				Summary:  summary,
				Vehicles: insights,
			}
			return writeJSON(w, payload)
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"vehicle_id", "health_score", "records", "anomalies", "idle_pct", "avg_voltage", "overspeed_count", "max_temp", "risk_tags"}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				for _, ins := range insights {
					rec := []string{
						ins.VehicleID,
						fmtFloat(ins.HealthScore),
						fmt.Sprintf(intFmt, ins.RecordCount),
						fmt.Sprintf(intFmt, ins.AnomalyCount),
						fmtFloat(ins.IdlePct),
						fmtFloat(ins.AvgVoltage),
						fmt.Sprintf(intFmt, ins.OverspeedCount),
						fmtFloat(ins.MaxTemp),
						strings.Join(ins.RiskTags, "|"),
					}
					if err := csvWriter.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if _, err := fmt.Fprint(w, summary); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}

			table := tablewriter.NewWriter(w)
			table.Header([]string{"Vehicle", "Health", "Records", "Anomalies", "Idle %", "Avg Volt", "Risk Tags"})
			table.Configure(func(tcfg *tablewriter.Config) {
				tcfg.Row.Alignment.Global = tw.AlignRight
			})
			idWidth := getMaxTableIDWidth(cfg)
			var data [][]string
			for _, ins := range insights {
				data = append(data, []string{
					contract.TruncateID(ins.VehicleID, idWidth),
					fmtFloat(ins.HealthScore),
					fmt.Sprintf(intFmt, ins.RecordCount),
					fmt.Sprintf(intFmt, ins.AnomalyCount),
					fmtFloat(ins.IdlePct),
					fmtFloat(ins.AvgVoltage),
					strings.Join(ins.RiskTags, ", "),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote summary")
	}
}
