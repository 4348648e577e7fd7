package output

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gridhail/ridesim/internal/models"
	_ "github.com/lib/pq"
)

// PostgresOutput appends the simulation event feed to Postgres tables,
// one table per topic. It is an outbound analytics sink; the engine never
// reads it back.
type PostgresOutput struct {
	db *sql.DB
}

func NewPostgresOutput(config *models.DatabaseConfig) (*PostgresOutput, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	p := &PostgresOutput{db: db}
	if err := p.ensureTables(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresOutput) ensureTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ride_events (
			id BIGSERIAL PRIMARY KEY,
			tick INT NOT NULL,
			event_type TEXT NOT NULL,
			ride_id TEXT NOT NULL,
			rider_id TEXT NOT NULL,
			driver_id TEXT,
			status TEXT NOT NULL,
			pickup_x INT NOT NULL,
			pickup_y INT NOT NULL,
			dropoff_x INT NOT NULL,
			dropoff_y INT NOT NULL,
			retry_count INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entity_events (
			id BIGSERIAL PRIMARY KEY,
			tick INT NOT NULL,
			event_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			x INT NOT NULL,
			y INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tick_metrics (
			id BIGSERIAL PRIMARY KEY,
			tick INT NOT NULL,
			drivers INT NOT NULL,
			available_drivers INT NOT NULL,
			waiting_rides INT NOT NULL,
			completed_rides INT NOT NULL,
			failed_rides INT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create event table: %w", err)
		}
	}
	return nil
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	var envelope struct {
		Tick int             `json:"tick"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return err
	}

	switch topic {
	case "ride_events":
		var data models.RideEventData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return err
		}
		_, err := p.db.Exec(
			`INSERT INTO ride_events
				(tick, event_type, ride_id, rider_id, driver_id, status,
				 pickup_x, pickup_y, dropoff_x, dropoff_y, retry_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			envelope.Tick, envelope.Type, data.RideID, data.RiderID,
			nullableString(data.DriverID), data.Status,
			data.PickupX, data.PickupY, data.DropoffX, data.DropoffY, data.RetryCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert into ride_events: %w", err)
		}
	case "entity_events":
		var data models.EntityEventData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return err
		}
		_, err := p.db.Exec(
			`INSERT INTO entity_events (tick, event_type, entity_id, x, y)
			 VALUES ($1, $2, $3, $4, $5)`,
			envelope.Tick, envelope.Type, data.ID, data.X, data.Y,
		)
		if err != nil {
			return fmt.Errorf("failed to insert into entity_events: %w", err)
		}
	case "tick_metrics":
		var data models.TickEventData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return err
		}
		_, err := p.db.Exec(
			`INSERT INTO tick_metrics
				(tick, drivers, available_drivers, waiting_rides, completed_rides, failed_rides)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			data.Tick, data.Drivers, data.AvailableDrivers,
			data.WaitingRides, data.CompletedRides, data.FailedRides,
		)
		if err != nil {
			return fmt.Errorf("failed to insert into tick_metrics: %w", err)
		}
	default:
		return fmt.Errorf("unknown topic %s", topic)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	return p.db.Close()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
