package trigger

import (
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type EventDataHDF5 struct {
	evt_number        int32
	n_geiger_tps      int32
	n_calo_tps        int32
	n_tracker_records int32
	n_calo_records    int32
	n_coincidences    int32
	triggered         uint8
}

type RunInfoHDF5 struct {
	run_number    int32
	processing_id [UUID_STRLEN]byte
}

type TriggerParamsHDF5 struct {
	paramStr [STRLEN]byte
	value    int32
}

type TrackerRecordHDF5 struct {
	evt_number       int32
	clocktick_1600ns int64
	finale_decision  uint8
	side_decision    [NUMBER_OF_SIDES]uint8
	zone_decision    [NUMBER_OF_SIDES * NUMBER_OF_ZONES]uint8
	level_one_zoning [NUMBER_OF_SIDES * NUMBER_OF_ZONES]uint8
}

type CaloRecordHDF5 struct {
	evt_number     int32
	clocktick_25ns int64
	zoning         [NUMBER_OF_SIDES]uint16
	multiplicity   [NUMBER_OF_SIDES]uint8
	lto            [NUMBER_OF_SIDES]uint8
	threshold      uint8
	xt             uint8
	single_side    uint8
	decision       uint8
}

type CoincidenceRecordHDF5 struct {
	evt_number         int32
	clocktick_1600ns   int64
	coincidence_zoning [NUMBER_OF_SIDES]uint16
	tracker_decision   [NUMBER_OF_SIDES]uint8
	calo_zoning        [NUMBER_OF_SIDES]uint16
	multiplicity       [NUMBER_OF_SIDES]uint8
	decision           uint8
}

const (
	STRLEN      = 32
	UUID_STRLEN = 36
	// One column per geiger cell, side major then layer then row
	GEIGER_MATRIX_SIZE = NUMBER_OF_SIDES * NUMBER_OF_LAYERS * NUMBER_OF_GEIGER_ROWS
)

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func boolToUint8(b bool) uint8 {
	return uint8(boolToBit(b))
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func create2dArray(group *hdf5.Group, name string, nColumns int, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0, 0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims), uint(nColumns)}
	file_space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer file_space.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()
	plist.SetChunk([]uint{64, uint(nColumns)})
	plist.SetDeflate(compression)

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_UINT8, file_space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	file_space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer file_space.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()
	plist.SetChunk([]uint{32768})
	plist.SetDeflate(compression)

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, file_space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T) {
	array := []T{data}
	writeArrayToTable(dataset, &array)
}

// writeArrayToTable appends the rows at the end of the dataset.
// HDF5 failures at this point leave the file unusable, so they panic.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T) {
	length := uint(len(*data))
	if length == 0 {
		return
	}
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		panic(err)
	}
	defer dataspace.Close()

	rowsInFile := currentRows(dataset)
	if err := dataset.Resize([]uint{rowsInFile + length}); err != nil {
		panic(err)
	}
	filespace := dataset.Space()
	defer filespace.Close()
	filespace.SelectHyperslab([]uint{rowsInFile}, nil, []uint{length}, nil)

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		panic(err)
	}
}

// write2dArray appends nRows rows of nColumns values.
func write2dArray(dataset *hdf5.Dataset, data *[]uint8, nRows int, nColumns int) {
	if nRows == 0 {
		return
	}
	rowsInFile := currentRows(dataset)
	if err := dataset.Resize([]uint{rowsInFile + uint(nRows), uint(nColumns)}); err != nil {
		panic(err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	count := []uint{uint(nRows), uint(nColumns)}
	filespace.SelectHyperslab([]uint{rowsInFile, 0}, nil, count, nil)

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		panic(err)
	}
	defer dataspace.Close()

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		panic(err)
	}
}

func currentRows(dataset *hdf5.Dataset) uint {
	space := dataset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		panic(err)
	}
	return dims[0]
}
