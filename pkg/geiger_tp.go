package trigger

import "fmt"

// Bit layout of a geiger trigger primitive word, LSB first. This is the
// wire format of the tracker front-end boards.
const (
	GEIGER_TP_BEGIN      = 0
	GEIGER_TP_SIZE       = 36
	GEIGER_THWS_BEGIN    = 36
	GEIGER_THWS_SIZE     = 3
	GEIGER_TRM_BIT0      = 39
	GEIGER_TRM_SIZE      = 3
	GEIGER_TSM_BIT       = 42
	GEIGER_TTM_BIT       = 43
	GEIGER_BOARD_ID_BIT0 = 44
	GEIGER_BOARD_ID_SIZE = 5
	GEIGER_CRATE_ID_BIT0 = 49
	GEIGER_CRATE_ID_BIT1 = 50
	GEIGER_FULL_SIZE     = 51
)

var (
	geigerActiveCells    = bitField{"active cells", GEIGER_TP_BEGIN, GEIGER_TP_SIZE}
	geigerHardwareStatus = bitField{"hardware status", GEIGER_THWS_BEGIN, GEIGER_THWS_SIZE}
	geigerRowMode        = bitField{"tracker row mode", GEIGER_TRM_BIT0, GEIGER_TRM_SIZE}
	geigerSideMode       = bitField{"tracker side mode", GEIGER_TSM_BIT, 1}
	geigerTriggerMode    = bitField{"tracker trigger mode", GEIGER_TTM_BIT, 1}
	geigerBoardID        = bitField{"board id", GEIGER_BOARD_ID_BIT0, GEIGER_BOARD_ID_SIZE}
	geigerCrateID        = bitField{"crate id", GEIGER_CRATE_ID_BIT0, GEIGER_CRATE_ID_BIT1 - GEIGER_CRATE_ID_BIT0 + 1}
)

type TrackerTriggerMode uint8

const (
	TRACKER_TRIGGER_MODE_MULTIPLICITY TrackerTriggerMode = iota
	TRACKER_TRIGGER_MODE_GAP
)

type TrackerSideMode uint8

const (
	TRACKER_SIDE_MODE_CONTRACTED TrackerSideMode = iota
	TRACKER_SIDE_MODE_NOT_CONTRACTED
)

// GeigerTPFields is the decoded content of a geiger TP word.
type GeigerTPFields struct {
	ActiveCells        uint64
	HardwareStatus     uint8
	TrackerRowMode     uint8
	TrackerSideMode    TrackerSideMode
	TrackerTriggerMode TrackerTriggerMode
	BoardID            uint8
	CrateID            uint8
}

func PackGeigerTP(f GeigerTPFields) (uint64, error) {
	var word uint64
	var err error
	values := []struct {
		field bitField
		value uint64
	}{
		{geigerActiveCells, f.ActiveCells},
		{geigerHardwareStatus, uint64(f.HardwareStatus)},
		{geigerRowMode, uint64(f.TrackerRowMode)},
		{geigerSideMode, uint64(f.TrackerSideMode)},
		{geigerTriggerMode, uint64(f.TrackerTriggerMode)},
		{geigerBoardID, uint64(f.BoardID)},
		{geigerCrateID, uint64(f.CrateID)},
	}
	for _, v := range values {
		word, err = v.field.set(word, v.value)
		if err != nil {
			return 0, err
		}
	}
	return word, nil
}

func UnpackGeigerTP(word uint64) GeigerTPFields {
	return GeigerTPFields{
		ActiveCells:        geigerActiveCells.get(word),
		HardwareStatus:     uint8(geigerHardwareStatus.get(word)),
		TrackerRowMode:     uint8(geigerRowMode.get(word)),
		TrackerSideMode:    TrackerSideMode(geigerSideMode.get(word)),
		TrackerTriggerMode: TrackerTriggerMode(geigerTriggerMode.get(word)),
		BoardID:            uint8(geigerBoardID.get(word)),
		CrateID:            uint8(geigerCrateID.get(word)),
	}
}

// GeigerTPBuilder assembles the trigger primitive of one tracker board for
// one 800 ns clocktick. Lock turns it into an immutable GeigerTP; once
// locked, every setter fails until Unlock is called.
type GeigerTPBuilder struct {
	hitID          uint32
	elecID         ElectronicID
	clocktick800ns int64
	word           uint64
	locked         bool
}

func NewGeigerTPBuilder() *GeigerTPBuilder {
	return &GeigerTPBuilder{clocktick800ns: INVALID_CLOCKTICK}
}

func (b *GeigerTPBuilder) checkLock() error {
	if b.locked {
		return &ErrLocked{Record: "geiger TP"}
	}
	return nil
}

func (b *GeigerTPBuilder) SetHeader(hitID uint32, elecID ElectronicID, clocktick800ns int64,
	triggerMode TrackerTriggerMode, sideMode TrackerSideMode, numberOfRows uint8) error {
	if err := b.checkLock(); err != nil {
		return err
	}
	if elecID.IsControlBoard() {
		return &ErrDomain{Field: "board id", Value: CONTROL_BOARD_ID, Reason: "reserved for the control board"}
	}
	word, err := geigerRowMode.set(b.word, uint64(numberOfRows))
	if err != nil {
		return err
	}
	if word, err = geigerTriggerMode.set(word, uint64(triggerMode)); err != nil {
		return err
	}
	if word, err = geigerSideMode.set(word, uint64(sideMode)); err != nil {
		return err
	}
	if word, err = setAddress(word, elecID); err != nil {
		return err
	}
	b.word = word
	b.hitID = hitID
	b.elecID = elecID.Board()
	b.clocktick800ns = clocktick800ns
	return nil
}

// setAddress writes the board and crate bits. The stored electronic ID is
// assigned by the caller together with the returned word.
func setAddress(word uint64, elecID ElectronicID) (uint64, error) {
	if elecID.CrateID >= NUMBER_OF_CRATES {
		return word, &ErrRange{Field: "crate id", Value: int64(elecID.CrateID), Limit: NUMBER_OF_CRATES}
	}
	if elecID.BoardID >= NUMBER_OF_FEBS_BY_CRATE {
		return word, &ErrRange{Field: "board id", Value: int64(elecID.BoardID), Limit: NUMBER_OF_FEBS_BY_CRATE}
	}
	word, err := geigerBoardID.set(word, uint64(elecID.BoardID))
	if err != nil {
		return word, err
	}
	return geigerCrateID.set(word, uint64(elecID.CrateID))
}

// SetData copies the active cell bits of the board.
func (b *GeigerTPBuilder) SetData(activeCells uint64) error {
	if err := b.checkLock(); err != nil {
		return err
	}
	word, err := geigerActiveCells.set(b.word, activeCells)
	if err != nil {
		return err
	}
	b.word = word
	return nil
}

func (b *GeigerTPBuilder) SetHardwareStatus(status uint8) error {
	if err := b.checkLock(); err != nil {
		return err
	}
	word, err := geigerHardwareStatus.set(b.word, uint64(status))
	if err != nil {
		return err
	}
	b.word = word
	return nil
}

func (b *GeigerTPBuilder) IsLocked() bool {
	return b.locked
}

func (b *GeigerTPBuilder) IsValid() bool {
	return b.clocktick800ns >= 0
}

func (b *GeigerTPBuilder) Lock() (GeigerTP, error) {
	if b.locked {
		return GeigerTP{}, &ErrLocked{Record: "geiger TP"}
	}
	if !b.IsValid() {
		return GeigerTP{}, &ErrDomain{Field: "clocktick_800ns", Value: b.clocktick800ns, Reason: "clocktick is not valid"}
	}
	b.locked = true
	return GeigerTP{
		hitID:          b.hitID,
		elecID:         b.elecID,
		clocktick800ns: b.clocktick800ns,
		word:           b.word,
	}, nil
}

func (b *GeigerTPBuilder) Unlock() error {
	if !b.locked {
		return &ErrState{Component: "geiger TP", Op: "unlock", State: "not locked"}
	}
	b.locked = false
	return nil
}

// GeigerTP is a locked geiger trigger primitive. It has no setters.
type GeigerTP struct {
	hitID          uint32
	elecID         ElectronicID
	clocktick800ns int64
	word           uint64
}

// Unlock returns a mutable copy of the primitive.
func (tp GeigerTP) Unlock() *GeigerTPBuilder {
	return &GeigerTPBuilder{
		hitID:          tp.hitID,
		elecID:         tp.elecID,
		clocktick800ns: tp.clocktick800ns,
		word:           tp.word,
	}
}

func (tp GeigerTP) HitID() uint32              { return tp.hitID }
func (tp GeigerTP) ElectronicID() ElectronicID { return tp.elecID }
func (tp GeigerTP) Clocktick800ns() int64      { return tp.clocktick800ns }
func (tp GeigerTP) Word() uint64               { return tp.word }
func (tp GeigerTP) IsValid() bool              { return tp.clocktick800ns >= 0 }
func (tp GeigerTP) ActiveCells() uint64        { return geigerActiveCells.get(tp.word) }
func (tp GeigerTP) HardwareStatus() uint8      { return uint8(geigerHardwareStatus.get(tp.word)) }
func (tp GeigerTP) TrackerRowMode() uint8      { return uint8(geigerRowMode.get(tp.word)) }
func (tp GeigerTP) BoardID() uint16            { return uint16(geigerBoardID.get(tp.word)) }
func (tp GeigerTP) CrateID() uint16            { return uint16(geigerCrateID.get(tp.word)) }
func (tp GeigerTP) Fields() GeigerTPFields     { return UnpackGeigerTP(tp.word) }
func (tp GeigerTP) TrackerSideMode() TrackerSideMode {
	return TrackerSideMode(geigerSideMode.get(tp.word))
}
func (tp GeigerTP) TrackerTriggerMode() TrackerTriggerMode {
	return TrackerTriggerMode(geigerTriggerMode.get(tp.word))
}

// ActiveChannels returns the electronic IDs of the fired channels.
func (tp GeigerTP) ActiveChannels() []ElectronicID {
	cells := tp.ActiveCells()
	channels := make([]ElectronicID, 0, CountBits(cells))
	for ch := uint(0); ch < GEIGER_TP_SIZE; ch++ {
		if CheckBit(cells, ch) {
			id := tp.elecID
			id.ChannelID = uint16(ch)
			channels = append(channels, id)
		}
	}
	return channels
}

func (tp GeigerTP) String() string {
	return fmt.Sprintf("geiger TP hit %d %v ct800 %d word %0*b",
		tp.hitID, tp.elecID, tp.clocktick800ns, GEIGER_FULL_SIZE, tp.word)
}

// NewGeigerTPFromWord decodes a raw word read from file into a locked TP.
func NewGeigerTPFromWord(hitID uint32, clocktick800ns int64, word uint64) (GeigerTP, error) {
	if word>>GEIGER_FULL_SIZE != 0 {
		return GeigerTP{}, &ErrRange{Field: "geiger TP word", Value: int64(word), Limit: 1 << GEIGER_FULL_SIZE}
	}
	fields := UnpackGeigerTP(word)
	elecID := ElectronicID{CrateID: uint16(fields.CrateID), BoardID: uint16(fields.BoardID)}
	builder := NewGeigerTPBuilder()
	err := builder.SetHeader(hitID, elecID, clocktick800ns, fields.TrackerTriggerMode,
		fields.TrackerSideMode, fields.TrackerRowMode)
	if err != nil {
		return GeigerTP{}, err
	}
	if err := builder.SetData(fields.ActiveCells); err != nil {
		return GeigerTP{}, err
	}
	if err := builder.SetHardwareStatus(fields.HardwareStatus); err != nil {
		return GeigerTP{}, err
	}
	return builder.Lock()
}
