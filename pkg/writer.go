package trigger

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type Writer struct {
	File               *hdf5.File
	Filename           string
	ProcessingID       uuid.UUID
	FirstEvt           bool
	RunGroup           *hdf5.Group
	TriggerGroup       *hdf5.Group
	EventTable         *hdf5.Dataset
	RunInfoTable       *hdf5.Dataset
	TriggerParamsTable *hdf5.Dataset
	TrackerTable       *hdf5.Dataset
	CaloTable          *hdf5.Dataset
	CoincidenceTable   *hdf5.Dataset
	GeigerMatrix       *hdf5.Dataset
	EvtCounter         int
}

// TriggerParameters are the settings stored with the output so that a
// file can be reprocessed with the same trigger.
type TriggerParameters struct {
	CalorimeterGateSize        uint32 `hdf5:"calorimeter_gate_size"`
	CircularBufferDepth        uint32 `hdf5:"calo_buffer_depth"`
	TotalMultiplicityThreshold uint32 `hdf5:"calo_multiplicity_threshold"`
	SingleSideCoincidence      uint16 `hdf5:"calo_single_side_coinc"`
	ShiftClocktick1600ns       uint16 `hdf5:"shift_clocktick_1600ns"`
	CaloBoardBufferDepth       uint16 `hdf5:"calo_board_buffer_depth"`
}

func NewTriggerParameters(config Configuration) TriggerParameters {
	return TriggerParameters{
		CalorimeterGateSize:        uint32(config.CalorimeterGateSize),
		CircularBufferDepth:        uint32(config.CaloCircularBufferDepth),
		TotalMultiplicityThreshold: uint32(config.CaloTotalMultiplicityThreshold),
		SingleSideCoincidence:      uint16(boolToBit(config.CaloSingleSideCoincidence)),
		ShiftClocktick1600ns:       SHIFT_COMPUTING_CLOCKTICK_1600NS,
		CaloBoardBufferDepth:       CALO_BOARD_BUFFER_DEPTH,
	}
}

func NewWriter(filename string) (*Writer, error) {
	writer := &Writer{Filename: filename, ProcessingID: uuid.New()}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("creating file %s, processing id %s", filename, writer.ProcessingID)
		logger.Info(message, "writer")
	}

	if err := writer.create(); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}
	return writer, nil
}

func (w *Writer) create() error {
	var err error
	compression := configuration.CompressionLevel
	if w.File, err = openFile(w.Filename); err != nil {
		return err
	}
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.TriggerGroup, err = createGroup(w.File, "Trigger"); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.RunGroup, "events", EventDataHDF5{}, compression); err != nil {
		return err
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, compression); err != nil {
		return err
	}
	if w.TriggerParamsTable, err = createTable(w.TriggerGroup, "configuration", TriggerParamsHDF5{}, compression); err != nil {
		return err
	}
	if w.TrackerTable, err = createTable(w.TriggerGroup, "tracker", TrackerRecordHDF5{}, compression); err != nil {
		return err
	}
	if w.CaloTable, err = createTable(w.TriggerGroup, "calo", CaloRecordHDF5{}, compression); err != nil {
		return err
	}
	if w.CoincidenceTable, err = createTable(w.TriggerGroup, "coincidence", CoincidenceRecordHDF5{}, compression); err != nil {
		return err
	}
	if configuration.WriteMatrix {
		if w.GeigerMatrix, err = create2dArray(w.TriggerGroup, "geigerMatrix", GEIGER_MATRIX_SIZE, compression); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) WriteEvent(result *EventResult) {
	if !w.FirstEvt {
		runInfo := RunInfoHDF5{run_number: int32(result.RunNumber)}
		copy(runInfo.processing_id[:], w.ProcessingID.String())
		writeEntryToTable(w.RunInfoTable, runInfo)
		w.writeTriggerConfiguration(NewTriggerParameters(configuration))
		w.FirstEvt = true
	}

	writeEntryToTable(w.EventTable, EventDataHDF5{
		evt_number:        int32(result.EventID),
		n_geiger_tps:      int32(result.NGeigerTPs),
		n_calo_tps:        int32(result.NCaloTPs),
		n_tracker_records: int32(len(result.TrackerRecords)),
		n_calo_records:    int32(len(result.CaloRecords)),
		n_coincidences:    int32(len(result.CoincidenceRecords)),
		triggered:         boolToUint8(result.Triggered()),
	})

	trackerRows := make([]TrackerRecordHDF5, len(result.TrackerRecords))
	for i := range result.TrackerRecords {
		trackerRows[i] = trackerRecordToHDF5(result.EventID, &result.TrackerRecords[i])
	}
	writeArrayToTable(w.TrackerTable, &trackerRows)

	caloRows := make([]CaloRecordHDF5, len(result.CaloRecords))
	for i := range result.CaloRecords {
		caloRows[i] = caloRecordToHDF5(result.EventID, &result.CaloRecords[i])
	}
	writeArrayToTable(w.CaloTable, &caloRows)

	coincidenceRows := make([]CoincidenceRecordHDF5, len(result.CoincidenceRecords))
	for i := range result.CoincidenceRecords {
		coincidenceRows[i] = coincidenceRecordToHDF5(result.EventID, &result.CoincidenceRecords[i])
	}
	writeArrayToTable(w.CoincidenceTable, &coincidenceRows)

	if w.GeigerMatrix != nil {
		matrices := flattenGeigerMatrices(result.TrackerRecords)
		write2dArray(w.GeigerMatrix, &matrices, len(result.TrackerRecords), GEIGER_MATRIX_SIZE)
	}

	w.EvtCounter++
}

func trackerRecordToHDF5(eventID uint32, record *TrackerRecord) TrackerRecordHDF5 {
	row := TrackerRecordHDF5{
		evt_number:       int32(eventID),
		clocktick_1600ns: record.Clocktick1600ns,
		finale_decision:  record.FinaleDecision,
		side_decision:    record.LevelOneFinaleDecision,
	}
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		for zone := 0; zone < NUMBER_OF_ZONES; zone++ {
			row.zone_decision[side*NUMBER_OF_ZONES+zone] = record.FinalTrackerTriggerInfo[side][zone]
			row.level_one_zoning[side*NUMBER_OF_ZONES+zone] = record.LevelOneZoning[side][zone]
		}
	}
	return row
}

func caloRecordToHDF5(eventID uint32, record *CaloSummaryRecord) CaloRecordHDF5 {
	row := CaloRecordHDF5{
		evt_number:     int32(eventID),
		clocktick_25ns: record.Clocktick25ns,
		multiplicity:   record.TotalMultiplicitySide,
		threshold:      boolToUint8(record.TotalMultiplicityThreshold),
		xt:             boolToUint8(record.XTInfo),
		single_side:    boolToUint8(record.SingleSideCoinc),
		decision:       boolToUint8(record.CaloFinaleDecision),
	}
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		row.zoning[side] = uint16(record.ZoningWord[side])
		row.lto[side] = boolToUint8(record.LTOSide[side])
	}
	return row
}

func coincidenceRecordToHDF5(eventID uint32, record *CoincidenceRecord) CoincidenceRecordHDF5 {
	row := CoincidenceRecordHDF5{
		evt_number:       int32(eventID),
		clocktick_1600ns: record.Clocktick1600ns,
		tracker_decision: record.TrackerDecision,
		multiplicity:     record.TotalMultiplicity,
		decision:         boolToUint8(record.Decision),
	}
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		row.coincidence_zoning[side] = uint16(record.CoincidenceZoning[side])
		row.calo_zoning[side] = uint16(record.CaloZoning[side])
	}
	return row
}

// flattenGeigerMatrices lays out one row per tracker record.
func flattenGeigerMatrices(records []TrackerRecord) []uint8 {
	data := make([]uint8, len(records)*GEIGER_MATRIX_SIZE)
	for i := range records {
		matrix := &records[i].GeigerMatrix
		offset := i * GEIGER_MATRIX_SIZE
		for side := 0; side < NUMBER_OF_SIDES; side++ {
			for layer := 0; layer < NUMBER_OF_LAYERS; layer++ {
				for row := 0; row < NUMBER_OF_GEIGER_ROWS; row++ {
					if matrix[side][layer][row] {
						data[offset] = 1
					}
					offset++
				}
			}
		}
	}
	return data
}

func (w *Writer) Close() error {
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("closing file %s, %d events written", w.Filename, w.EvtCounter), "writer")
	}
	var errs []error

	datasets := []struct {
		name    string
		dataset *hdf5.Dataset
	}{
		{"event table", w.EventTable},
		{"run info table", w.RunInfoTable},
		{"trigger params table", w.TriggerParamsTable},
		{"tracker table", w.TrackerTable},
		{"calo table", w.CaloTable},
		{"coincidence table", w.CoincidenceTable},
		{"geiger matrix", w.GeigerMatrix},
	}
	for _, d := range datasets {
		if d.dataset == nil {
			continue
		}
		if err := d.dataset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", d.name, err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.TriggerGroup != nil {
		if err := w.TriggerGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing trigger group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (w *Writer) writeTriggerConfiguration(params TriggerParameters) {
	t := reflect.TypeOf(params)
	n := t.NumField()
	entries := make([]TriggerParamsHDF5, 0, n)

	for i := 0; i < n; i++ {
		f := t.Field(i)
		paramName := f.Tag.Get("hdf5")
		var value int32
		switch f.Type.Kind() {
		case reflect.Uint16:
			value = int32(reflect.ValueOf(params).Field(i).Interface().(uint16))
		case reflect.Uint32:
			value = int32(reflect.ValueOf(params).Field(i).Interface().(uint32))
		default:
			continue
		}
		entries = append(entries, TriggerParamsHDF5{
			paramStr: convertToHdf5String(paramName),
			value:    value,
		})
	}
	writeArrayToTable(w.TriggerParamsTable, &entries)
}

// ProcessResult writes a successful result when writing is enabled.
func ProcessResult(result EventResult, configuration Configuration, writer *Writer) {
	if result.Err != nil {
		logger.Error(fmt.Sprintf("discarding event %d: %v", result.EventID, result.Err))
		return
	}
	if configuration.WriteData && writer != nil {
		writer.WriteEvent(&result)
	}
}
