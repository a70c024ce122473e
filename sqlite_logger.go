package epicore

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteWriter is a TelemetryWriter that appends one row per round to
// a SQLite table, using an OpenSQLiteDB/prepared-statement style,
// collapsed from six per-quantity tables into one round table since a
// TelemetryRecord is one fixed-shape row, plus a side table for the
// per-location-type breakdown (a variable-width map that doesn't fit
// the round table's fixed columns).
type SQLiteWriter struct {
	db            *sql.DB
	insertRound   *sql.Stmt
	insertLocType *sql.Stmt
}

// NewSQLiteWriter opens (or creates) the database at path and prepares
// the tables and statements used by WriteRecord. tag distinguishes one
// replicate's tables from another's sharing the same database file via
// a per-instance table-name suffix.
func NewSQLiteWriter(path, tag string) (*SQLiteWriter, error) {
	db, err := OpenSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	roundTable := "round_" + tag
	locTable := "location_type_" + tag

	createRound := fmt.Sprintf(`create table %s (
		round integer not null primary key,
		weekday integer,
		total_infected integer,
		infected_household integer,
		infected_school integer,
		infected_office integer,
		infected_interhh integer,
		infected_by_children integer,
		infected_by_adults integer,
		quarantined_by_detection integer,
		quarantined_by_test integer
	)`, roundTable)
	if _, err := db.Exec(createRound); err != nil {
		return nil, errors.Wrap(err, "creating round table")
	}

	createLocType := fmt.Sprintf(`create table %s (
		round integer,
		location_type text,
		infected integer
	)`, locTable)
	if _, err := db.Exec(createLocType); err != nil {
		return nil, errors.Wrap(err, "creating location type table")
	}

	insertRound, err := db.Prepare(fmt.Sprintf(
		`insert into %s (round, weekday, total_infected, infected_household,
		infected_school, infected_office, infected_interhh,
		infected_by_children, infected_by_adults,
		quarantined_by_detection, quarantined_by_test)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, roundTable))
	if err != nil {
		return nil, errors.Wrap(err, "preparing round insert")
	}
	insertLocType, err := db.Prepare(fmt.Sprintf(
		`insert into %s (round, location_type, infected) values (?, ?, ?)`, locTable))
	if err != nil {
		return nil, errors.Wrap(err, "preparing location type insert")
	}

	return &SQLiteWriter{db: db, insertRound: insertRound, insertLocType: insertLocType}, nil
}

// WriteRecord inserts one row into the round table, plus one row per
// entry in the location-type breakdown.
func (w *SQLiteWriter) WriteRecord(record TelemetryRecord) error {
	if _, err := w.insertRound.Exec(
		record.Round, record.Weekday,
		record.TotalInfected, record.InfectedHousehold, record.InfectedSchool,
		record.InfectedOffice, record.InfectedInterhh,
		record.InfectedByChildren, record.InfectedByAdults,
		record.QuarantinedByDetection, record.QuarantinedByTest,
	); err != nil {
		return errors.Wrap(err, "inserting round row")
	}
	for typ, count := range record.InfectedByLocationType {
		if _, err := w.insertLocType.Exec(record.Round, typ, count); err != nil {
			return errors.Wrap(err, "inserting location type row")
		}
	}
	return nil
}

// Close releases the prepared statements and the database handle.
func (w *SQLiteWriter) Close() error {
	w.insertRound.Close()
	w.insertLocType.Close()
	return w.db.Close()
}

// OpenSQLiteDB opens (or creates) a SQLite database file at path.
func OpenSQLiteDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path)
}
