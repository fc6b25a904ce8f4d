package trigger

import "fmt"

const (
	NUMBER_OF_CRATES        = 3
	NUMBER_OF_FEBS_BY_CRATE = 20
	CONTROL_BOARD_ID        = 10
	GEIGER_CHANNELS_BY_FEB  = 36
	CALO_CHANNELS_BY_FEB    = 16
)

// ElectronicID addresses one front-end channel. For board level words,
// such as trigger primitives, the channel is zero.
type ElectronicID struct {
	CrateID   uint16
	BoardID   uint16
	ChannelID uint16
}

func (e ElectronicID) String() string {
	return fmt.Sprintf("[%d:%d.%d]", e.CrateID, e.BoardID, e.ChannelID)
}

func (e ElectronicID) IsControlBoard() bool {
	return e.BoardID == CONTROL_BOARD_ID
}

// Board returns the board level address of the channel.
func (e ElectronicID) Board() ElectronicID {
	return ElectronicID{CrateID: e.CrateID, BoardID: e.BoardID}
}

func newElectronicID(crate, board, channel, channelsByBoard uint16) (ElectronicID, error) {
	if crate >= NUMBER_OF_CRATES {
		return ElectronicID{}, &ErrRange{Field: "crate id", Value: int64(crate), Limit: NUMBER_OF_CRATES}
	}
	if board >= NUMBER_OF_FEBS_BY_CRATE {
		return ElectronicID{}, &ErrRange{Field: "board id", Value: int64(board), Limit: NUMBER_OF_FEBS_BY_CRATE}
	}
	if channel >= channelsByBoard {
		return ElectronicID{}, &ErrRange{Field: "channel id", Value: int64(channel), Limit: int64(channelsByBoard)}
	}
	return ElectronicID{CrateID: crate, BoardID: board, ChannelID: channel}, nil
}

// NewGeigerElectronicID validates a tracker front-end address.
// The control board carries no geiger channel.
func NewGeigerElectronicID(crate, board, channel uint16) (ElectronicID, error) {
	if board == CONTROL_BOARD_ID {
		return ElectronicID{}, &ErrDomain{Field: "board id", Value: CONTROL_BOARD_ID, Reason: "control board has no geiger channel"}
	}
	return newElectronicID(crate, board, channel, GEIGER_CHANNELS_BY_FEB)
}

func NewCaloElectronicID(crate, board, channel uint16) (ElectronicID, error) {
	if board == CONTROL_BOARD_ID {
		return ElectronicID{}, &ErrDomain{Field: "board id", Value: CONTROL_BOARD_ID, Reason: "control board has no calorimeter channel"}
	}
	return newElectronicID(crate, board, channel, CALO_CHANNELS_BY_FEB)
}

// febIndex numbers the boards of a crate skipping the control board.
func febIndex(board uint16) int {
	if board > CONTROL_BOARD_ID {
		return int(board) - 1
	}
	return int(board)
}

func boardFromFebIndex(index int) uint16 {
	if index >= CONTROL_BOARD_ID {
		return uint16(index + 1)
	}
	return uint16(index)
}

type GeigerCellID struct {
	Side  int
	Layer int
	Row   int
}

func (g GeigerCellID) String() string {
	return fmt.Sprintf("{side %d, layer %d, row %d}", g.Side, g.Layer, g.Row)
}

func (g GeigerCellID) Validate() error {
	if g.Side < 0 || g.Side >= NUMBER_OF_SIDES {
		return &ErrRange{Field: "side", Value: int64(g.Side), Limit: NUMBER_OF_SIDES}
	}
	if g.Layer < 0 || g.Layer >= NUMBER_OF_LAYERS {
		return &ErrRange{Field: "layer", Value: int64(g.Layer), Limit: NUMBER_OF_LAYERS}
	}
	if g.Row < 0 || g.Row >= NUMBER_OF_GEIGER_ROWS {
		return &ErrRange{Field: "row", Value: int64(g.Row), Limit: NUMBER_OF_GEIGER_ROWS}
	}
	return nil
}

// CaloBlockID identifies a main wall optical module.
type CaloBlockID struct {
	Side   int
	Column int
	Row    int
}

func (c CaloBlockID) String() string {
	return fmt.Sprintf("{side %d, column %d, row %d}", c.Side, c.Column, c.Row)
}

func (c CaloBlockID) Validate() error {
	if c.Side < 0 || c.Side >= NUMBER_OF_SIDES {
		return &ErrRange{Field: "side", Value: int64(c.Side), Limit: NUMBER_OF_SIDES}
	}
	if c.Column < 0 || c.Column >= NUMBER_OF_CALO_COLUMNS {
		return &ErrRange{Field: "column", Value: int64(c.Column), Limit: NUMBER_OF_CALO_COLUMNS}
	}
	if c.Row < 0 || c.Row >= NUMBER_OF_CALO_ROWS {
		return &ErrRange{Field: "calo row", Value: int64(c.Row), Limit: NUMBER_OF_CALO_ROWS}
	}
	return nil
}
