package telstore

import (
	"fmt"
	"time"

	"github.com/fleetsight/fleetsight/schema"
)

// FleetOverview computes the fleet-wide overview across all persisted runs.
func (rs *ResultStoreImpl) FleetOverview() (schema.FleetOverview, error) {
	var overview schema.FleetOverview
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return overview, fmt.Errorf("result store is disabled (backend none)")
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(DISTINCT vehicle_id),
			COUNT(*),
			COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN flags LIKE '%%wasteful_idle%%' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(speed_kmph), 0)
		FROM %s
	`, rs.isAnomalousExpr(), anomaliesTable)

	row := rs.db.QueryRow(query)
	if err := row.Scan(&overview.VehicleCount, &overview.RecordCount,
		&overview.AnomalyCount, &overview.IdleEvents, &overview.AvgSpeed); err != nil {
		return overview, fmt.Errorf("failed to compute fleet overview: %w", err)
	}

	quarantineQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quarantineTable)
	if err := rs.db.QueryRow(quarantineQuery).Scan(&overview.QuarantineCount); err != nil {
		return overview, fmt.Errorf("failed to count quarantined rows: %w", err)
	}

	return overview, nil
}

// VehicleHealth returns per-vehicle sensor aggregates across all runs,
// highest anomaly count first.
func (rs *ResultStoreImpl) VehicleHealth(limit int) ([]schema.VehicleHealthRow, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, fmt.Errorf("result store is disabled (backend none)")
	}

	query := fmt.Sprintf(`
		SELECT
			vehicle_id,
			COUNT(*) AS records,
			AVG(battery_voltage) AS avg_voltage,
			MAX(engine_temp_c) AS max_temp,
			AVG(fuel_rate) AS avg_fuel_rate,
			MAX(speed_kmph) AS max_speed,
			SUM(CASE WHEN %s THEN 1 ELSE 0 END) AS anomaly_count
		FROM %s
		GROUP BY vehicle_id
		ORDER BY anomaly_count DESC, vehicle_id
		%s
	`, rs.isAnomalousExpr(), anomaliesTable, rs.limitClause(limit))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicle health: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.VehicleHealthRow
	for rows.Next() {
		var r schema.VehicleHealthRow
		if err := rows.Scan(&r.VehicleID, &r.Records, &r.AvgVoltage, &r.MaxTemp,
			&r.AvgFuelRate, &r.MaxSpeed, &r.AnomalyCount); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle health row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vehicle health rows: %w", err)
	}
	return results, nil
}

// HarshEvents returns harsh acceleration and braking events, most recent
// first.
func (rs *ResultStoreImpl) HarshEvents(limit int) ([]schema.HarshEventRow, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, fmt.Errorf("result store is disabled (backend none)")
	}

	query := fmt.Sprintf(`
		SELECT vehicle_id, ts, speed_delta, combined_severity
		FROM %s
		WHERE flags LIKE '%%harsh_event%%' AND speed_delta IS NOT NULL
		ORDER BY ts DESC
		%s
	`, anomaliesTable, rs.limitClause(limit))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query harsh events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HarshEventRow
	for rows.Next() {
		var r schema.HarshEventRow

		switch rs.backend {
		case schema.SQLiteBackend:
			var tsStr string
			if err := rows.Scan(&r.VehicleID, &tsStr, &r.SpeedDelta, &r.Severity); err != nil {
				return nil, fmt.Errorf("failed to scan harsh event row: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, tsStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse ts: %w", err)
			}
			r.Timestamp = ts
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&r.VehicleID, &r.Timestamp, &r.SpeedDelta, &r.Severity); err != nil {
				return nil, fmt.Errorf("failed to scan harsh event row: %w", err)
			}
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating harsh event rows: %w", err)
	}
	return results, nil
}

// IdleWaste returns wasteful idle events grouped by vehicle and day, most
// events first.
func (rs *ResultStoreImpl) IdleWaste(limit int) ([]schema.IdleWasteRow, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, fmt.Errorf("result store is disabled (backend none)")
	}

	query := fmt.Sprintf(`
		SELECT vehicle_id, %s AS day, COUNT(*) AS idle_events, AVG(fuel_rate) AS avg_fuel_rate
		FROM %s
		WHERE flags LIKE '%%wasteful_idle%%'
		GROUP BY vehicle_id, day
		ORDER BY idle_events DESC, vehicle_id
		%s
	`, rs.dayExpr(), anomaliesTable, rs.limitClause(limit))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query idle waste: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.IdleWasteRow
	for rows.Next() {
		var r schema.IdleWasteRow
		if err := rows.Scan(&r.VehicleID, &r.Day, &r.IdleEvents, &r.AvgFuelRate); err != nil {
			return nil, fmt.Errorf("failed to scan idle waste row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating idle waste rows: %w", err)
	}
	return results, nil
}

// isAnomalousExpr returns the boolean test for the is_anomalous column,
// which SQLite and MySQL store as an integer.
func (rs *ResultStoreImpl) isAnomalousExpr() string {
	switch rs.backend {
	case schema.PostgreSQLBackend:
		return "is_anomalous"
	default:
		return "is_anomalous = 1"
	}
}

// dayExpr returns the per-backend expression extracting the calendar day
// from the ts column.
func (rs *ResultStoreImpl) dayExpr() string {
	switch rs.backend {
	case schema.MySQLBackend:
		return "DATE_FORMAT(ts, '%Y-%m-%d')"
	case schema.PostgreSQLBackend:
		return "TO_CHAR(ts, 'YYYY-MM-DD')"
	default: // SQLite stores RFC 3339 strings
		return "SUBSTR(ts, 1, 10)"
	}
}

// limitClause renders a LIMIT clause, or nothing when limit is not positive.
func (rs *ResultStoreImpl) limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf("LIMIT %d", limit)
}
