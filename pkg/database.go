package trigger

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

// ConnectToDatabase opens the channel mapping database. The sqlite driver
// takes dbname as the database file path.
func ConnectToDatabase(driver string, user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	switch driver {
	case "mysql", "":
		port := "3306"
		dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
		return sqlx.Connect("mysql", dbURI)
	case "sqlite":
		return sqlx.Connect("sqlite", dbname)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

type GeigerMappingEntry struct {
	Crate   int `db:"Crate"`
	Board   int `db:"Board"`
	Channel int `db:"Channel"`
	Side    int `db:"Side"`
	Layer   int `db:"Layer"`
	Row     int `db:"CellRow"`
}

type CaloMappingEntry struct {
	Crate   int `db:"Crate"`
	Board   int `db:"Board"`
	Channel int `db:"Channel"`
	Side    int `db:"Side"`
	Column  int `db:"Col"`
	Row     int `db:"BlockRow"`
}

var mappingSchema = []string{`
CREATE TABLE IF NOT EXISTS GeigerChannelMapping (
	MinRun  INTEGER NOT NULL,
	MaxRun  INTEGER NOT NULL,
	Crate   INTEGER NOT NULL,
	Board   INTEGER NOT NULL,
	Channel INTEGER NOT NULL,
	Side    INTEGER NOT NULL,
	Layer   INTEGER NOT NULL,
	CellRow INTEGER NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS CaloChannelMapping (
	MinRun  INTEGER NOT NULL,
	MaxRun  INTEGER NOT NULL,
	Crate   INTEGER NOT NULL,
	Board   INTEGER NOT NULL,
	Channel INTEGER NOT NULL,
	Side    INTEGER NOT NULL,
	Col      INTEGER NOT NULL,
	BlockRow INTEGER NOT NULL
)`}

func CreateMappingSchema(db *sqlx.DB) error {
	for _, statement := range mappingSchema {
		if _, err := db.Exec(statement); err != nil {
			return fmt.Errorf("error creating mapping tables: %w", err)
		}
	}
	return nil
}

// StoreMapping writes every channel of the table as valid for runs
// [minRun, maxRun].
func StoreMapping(db *sqlx.DB, table *MappingTable, minRun int, maxRun int) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	geigerQuery := tx.Rebind("INSERT INTO GeigerChannelMapping (MinRun, MaxRun, Crate, Board, Channel, Side, Layer, CellRow) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	for id, cell := range table.geigerToCell {
		_, err := tx.Exec(geigerQuery, minRun, maxRun, id.CrateID, id.BoardID, id.ChannelID, cell.Side, cell.Layer, cell.Row)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting geiger channel %v: %w", id, err)
		}
	}
	caloQuery := tx.Rebind("INSERT INTO CaloChannelMapping (MinRun, MaxRun, Crate, Board, Channel, Side, Col, BlockRow) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	for id, block := range table.caloToBlock {
		_, err := tx.Exec(caloQuery, minRun, maxRun, id.CrateID, id.BoardID, id.ChannelID, block.Side, block.Column, block.Row)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting calo channel %v: %w", id, err)
		}
	}
	return tx.Commit()
}

// LoadMapping reads the channel mapping valid for the run.
func LoadMapping(db *sqlx.DB, runNumber int) (*MappingTable, error) {
	table := NewMappingTable()

	query := db.Rebind("SELECT Crate, Board, Channel, Side, Layer, CellRow FROM GeigerChannelMapping WHERE MinRun <= ? and MaxRun >= ?")
	if configuration.Verbosity > 0 {
		logger.Info("Geiger channel mapping read from DB", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s (run %d)", query, runNumber)
		logger.Info(message, "database")
	}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}
	for rows.Next() {
		result := GeigerMappingEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			rows.Close()
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		id := ElectronicID{CrateID: uint16(result.Crate), BoardID: uint16(result.Board), ChannelID: uint16(result.Channel)}
		cell := GeigerCellID{Side: result.Side, Layer: result.Layer, Row: result.Row}
		if err := table.AddGeiger(id, cell); err != nil {
			rows.Close()
			return nil, fmt.Errorf("invalid geiger mapping entry %+v: %w", result, err)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error reading geiger mapping rows: %w", err)
	}
	rows.Close()

	query = db.Rebind("SELECT Crate, Board, Channel, Side, Col, BlockRow FROM CaloChannelMapping WHERE MinRun <= ? and MaxRun >= ?")
	if configuration.Verbosity > 0 {
		logger.Info("Calorimeter channel mapping read from DB", "database")
	}
	rows, err = db.Queryx(query, runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}
	defer rows.Close()
	for rows.Next() {
		result := CaloMappingEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		id := ElectronicID{CrateID: uint16(result.Crate), BoardID: uint16(result.Board), ChannelID: uint16(result.Channel)}
		block := CaloBlockID{Side: result.Side, Column: result.Column, Row: result.Row}
		if err := table.AddCalo(id, block); err != nil {
			return nil, fmt.Errorf("invalid calo mapping entry %+v: %w", result, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading calo mapping rows: %w", err)
	}

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Run %d: %d geiger and %d calo channels mapped", runNumber,
			table.NumberOfGeigerChannels(), table.NumberOfCaloChannels())
		logger.Info(message, "database")
	}
	return table, nil
}
