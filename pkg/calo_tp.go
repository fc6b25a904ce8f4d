package trigger

import "fmt"

// Bit layout of a calorimeter trigger primitive word, LSB first.
const (
	CALO_TP_BEGIN      = 0
	CALO_TP_SIZE       = 16
	CALO_HTM_BIT0      = 16
	CALO_HTM_SIZE      = 2
	CALO_LTO_BIT       = 18
	CALO_XT_BIT        = 19
	CALO_BOARD_ID_BIT0 = 20
	CALO_BOARD_ID_SIZE = 5
	CALO_CRATE_ID_BIT0 = 25
	CALO_CRATE_ID_BIT1 = 26
	CALO_FULL_SIZE     = 27
)

var (
	caloHighThreshold = bitField{"high threshold pattern", CALO_TP_BEGIN, CALO_TP_SIZE}
	caloHTM           = bitField{"high threshold multiplicity", CALO_HTM_BIT0, CALO_HTM_SIZE}
	caloLTO           = bitField{"low threshold only", CALO_LTO_BIT, 1}
	caloXT            = bitField{"external trigger", CALO_XT_BIT, 1}
	caloBoardID       = bitField{"board id", CALO_BOARD_ID_BIT0, CALO_BOARD_ID_SIZE}
	caloCrateID       = bitField{"crate id", CALO_CRATE_ID_BIT0, CALO_CRATE_ID_BIT1 - CALO_CRATE_ID_BIT0 + 1}
)

type CaloTPFields struct {
	HighThreshold uint16
	HTM           uint8
	LTO           bool
	XT            bool
	BoardID       uint8
	CrateID       uint8
}

func PackCaloTP(f CaloTPFields) (uint64, error) {
	var word uint64
	var err error
	values := []struct {
		field bitField
		value uint64
	}{
		{caloHighThreshold, uint64(f.HighThreshold)},
		{caloHTM, uint64(f.HTM)},
		{caloLTO, boolToBit(f.LTO)},
		{caloXT, boolToBit(f.XT)},
		{caloBoardID, uint64(f.BoardID)},
		{caloCrateID, uint64(f.CrateID)},
	}
	for _, v := range values {
		word, err = v.field.set(word, v.value)
		if err != nil {
			return 0, err
		}
	}
	return word, nil
}

func UnpackCaloTP(word uint64) CaloTPFields {
	return CaloTPFields{
		HighThreshold: uint16(caloHighThreshold.get(word)),
		HTM:           uint8(caloHTM.get(word)),
		LTO:           caloLTO.get(word) == 1,
		XT:            caloXT.get(word) == 1,
		BoardID:       uint8(caloBoardID.get(word)),
		CrateID:       uint8(caloCrateID.get(word)),
	}
}

// CaloTP is the trigger primitive of one calorimeter board for one 25 ns
// clocktick.
type CaloTP struct {
	hitID         uint32
	elecID        ElectronicID
	clocktick25ns int64
	word          uint64
}

func NewCaloTP(hitID uint32, elecID ElectronicID, clocktick25ns int64,
	highThreshold uint16, htm uint8, lto bool, xt bool) (CaloTP, error) {
	if elecID.IsControlBoard() {
		return CaloTP{}, &ErrDomain{Field: "board id", Value: CONTROL_BOARD_ID, Reason: "reserved for the control board"}
	}
	if elecID.CrateID >= NUMBER_OF_CRATES {
		return CaloTP{}, &ErrRange{Field: "crate id", Value: int64(elecID.CrateID), Limit: NUMBER_OF_CRATES}
	}
	if elecID.BoardID >= NUMBER_OF_FEBS_BY_CRATE {
		return CaloTP{}, &ErrRange{Field: "board id", Value: int64(elecID.BoardID), Limit: NUMBER_OF_FEBS_BY_CRATE}
	}
	if clocktick25ns < 0 {
		return CaloTP{}, &ErrDomain{Field: "clocktick_25ns", Value: clocktick25ns, Reason: "clocktick is not valid"}
	}
	word, err := PackCaloTP(CaloTPFields{
		HighThreshold: highThreshold,
		HTM:           htm,
		LTO:           lto,
		XT:            xt,
		BoardID:       uint8(elecID.BoardID),
		CrateID:       uint8(elecID.CrateID),
	})
	if err != nil {
		return CaloTP{}, err
	}
	return CaloTP{hitID: hitID, elecID: elecID.Board(), clocktick25ns: clocktick25ns, word: word}, nil
}

// NewCaloTPFromWord decodes a raw word read from file.
func NewCaloTPFromWord(hitID uint32, clocktick25ns int64, word uint64) (CaloTP, error) {
	if word>>CALO_FULL_SIZE != 0 {
		return CaloTP{}, &ErrRange{Field: "calo TP word", Value: int64(word), Limit: 1 << CALO_FULL_SIZE}
	}
	f := UnpackCaloTP(word)
	elecID := ElectronicID{CrateID: uint16(f.CrateID), BoardID: uint16(f.BoardID)}
	return NewCaloTP(hitID, elecID, clocktick25ns, f.HighThreshold, f.HTM, f.LTO, f.XT)
}

func (tp CaloTP) HitID() uint32              { return tp.hitID }
func (tp CaloTP) ElectronicID() ElectronicID { return tp.elecID }
func (tp CaloTP) Clocktick25ns() int64       { return tp.clocktick25ns }
func (tp CaloTP) Word() uint64               { return tp.word }
func (tp CaloTP) HighThreshold() uint16      { return uint16(caloHighThreshold.get(tp.word)) }
func (tp CaloTP) HTM() uint8                 { return uint8(caloHTM.get(tp.word)) }
func (tp CaloTP) LTO() bool                  { return caloLTO.get(tp.word) == 1 }
func (tp CaloTP) XT() bool                   { return caloXT.get(tp.word) == 1 }

func (tp CaloTP) ActiveChannels() []ElectronicID {
	ht := tp.HighThreshold()
	channels := make([]ElectronicID, 0, CountBits(ht))
	for ch := uint(0); ch < CALO_TP_SIZE; ch++ {
		if CheckBit(ht, ch) {
			id := tp.elecID
			id.ChannelID = uint16(ch)
			channels = append(channels, id)
		}
	}
	return channels
}

func (tp CaloTP) String() string {
	return fmt.Sprintf("calo TP hit %d %v ct25 %d word %0*b",
		tp.hitID, tp.elecID, tp.clocktick25ns, CALO_FULL_SIZE, tp.word)
}
