package trigger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "mapping.db")
}

func TestStoreAndLoadMapping(t *testing.T) {
	dbname := newTestDatabase(t)
	db, err := ConnectToDatabase("sqlite", "", "", "", dbname)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, CreateMappingSchema(db))

	table := NewMappingTable()
	geigerID := ElectronicID{CrateID: 1, BoardID: 11, ChannelID: 20}
	cell := GeigerCellID{Side: 1, Layer: 2, Row: 40}
	caloID := ElectronicID{CrateID: 0, BoardID: 3, ChannelID: 15}
	block := CaloBlockID{Side: 0, Column: 4, Row: 11}
	require.NoError(t, table.AddGeiger(geigerID, cell))
	require.NoError(t, table.AddCalo(caloID, block))
	require.NoError(t, StoreMapping(db, table, 100, 200))

	loaded, err := LoadMapping(db, 150)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.NumberOfGeigerChannels())
	assert.Equal(t, 1, loaded.NumberOfCaloChannels())

	gotCell, err := loaded.GeigerCell(geigerID)
	require.NoError(t, err)
	assert.Equal(t, cell, gotCell)
	gotID, err := loaded.CaloElectronicID(block)
	require.NoError(t, err)
	assert.Equal(t, caloID, gotID)

	t.Run("run outside validity range", func(t *testing.T) {
		empty, err := LoadMapping(db, 201)
		require.NoError(t, err)
		assert.Zero(t, empty.NumberOfGeigerChannels())
		assert.Zero(t, empty.NumberOfCaloChannels())
	})
}

func TestStoreStandardMapping(t *testing.T) {
	dbname := newTestDatabase(t)
	db, err := ConnectToDatabase("sqlite", "", "", "", dbname)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, CreateMappingSchema(db))

	standard := StandardMappingTable()
	require.NoError(t, StoreMapping(db, standard, 0, 1000))

	loaded, err := LoadMapping(db, 0)
	require.NoError(t, err)
	assert.Equal(t, standard, loaded)
}

func TestConnectToDatabaseUnknownDriver(t *testing.T) {
	_, err := ConnectToDatabase("postgres", "", "", "", "mapping")
	assert.Error(t, err)
}

func TestLoadMappingRejectsBadRows(t *testing.T) {
	tests := []struct {
		name   string
		insert string
		errMsg string
	}{
		{
			name:   "cell row out of range",
			insert: "INSERT INTO GeigerChannelMapping VALUES (0, 10, 0, 1, 0, 0, 0, 500)",
			errMsg: "invalid geiger mapping entry",
		},
		{
			name:   "non numeric calo column",
			insert: "INSERT INTO CaloChannelMapping VALUES (0, 10, 0, 1, 0, 0, 'x', 3)",
			errMsg: "error scanning DB row",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := ConnectToDatabase("sqlite", "", "", "", newTestDatabase(t))
			require.NoError(t, err)
			defer db.Close()
			require.NoError(t, CreateMappingSchema(db))
			_, err = db.Exec(tt.insert)
			require.NoError(t, err)

			_, err = LoadMapping(db, 5)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
