package trigger

type Configuration struct {
	MaxEvents        int    `json:"max_events"`
	Verbosity        int    `json:"verbosity"`
	FileIn           string `json:"file_in"`
	FileOut          string `json:"file_out"`
	Skip             int    `json:"skip"`
	NumWorkers       int    `json:"num_workers"`
	WriteData        bool   `json:"write_data"`
	WriteMatrix      bool   `json:"write_matrix"`
	CompressionLevel int    `json:"compression_level"`
	NoDB             bool   `json:"no_db"`
	DBDriver         string `json:"db_driver"`
	Host             string `json:"host"`
	User             string `json:"user"`
	Passwd           string `json:"pass"`
	DBName           string `json:"dbname"`
	RunNumber        int    `json:"run_number"`
	ClockSeed        uint64 `json:"clock_seed"`

	// Truth tables of the tracker pipeline, mem1 to mem5
	MemRowFile    string `json:"mem_row_file"`
	MemLayerFile  string `json:"mem_layer_file"`
	MemZoneFile   string `json:"mem_zone_file"`
	MemSideFile   string `json:"mem_side_file"`
	MemFinaleFile string `json:"mem_finale_file"`

	CalorimeterGateSize            int  `json:"calorimeter_gate_size"`
	CaloCircularBufferDepth        int  `json:"calo_circular_buffer_depth"`
	CaloTotalMultiplicityThreshold int  `json:"calo_total_multiplicity_threshold"`
	CaloSingleSideCoincidence      bool `json:"calo_single_side_coincidence"`
}

// TrackerConfig holds the paths of the five tracker memories.
type TrackerConfig struct {
	MemRowFile    string
	MemLayerFile  string
	MemZoneFile   string
	MemSideFile   string
	MemFinaleFile string
}

type CaloConfig struct {
	CircularBufferDepth        int
	TotalMultiplicityThreshold int
	SingleSideCoincidence      bool
}

type CoincidenceConfig struct {
	// Number of 1600 ns clockticks a calorimeter decision stays active
	CalorimeterGateSize int
}

func DefaultConfiguration() Configuration {
	return Configuration{
		MaxEvents:                      1000000000,
		Verbosity:                      0,
		Skip:                           0,
		NumWorkers:                     1,
		WriteData:                      true,
		WriteMatrix:                    false,
		CompressionLevel:               4,
		NoDB:                           true,
		DBDriver:                       "mysql",
		Host:                           "localhost",
		User:                           "snemoreader",
		Passwd:                         "readonly",
		DBName:                         "SNEMO_TRIGGER",
		CalorimeterGateSize:            4,
		CaloCircularBufferDepth:        4,
		CaloTotalMultiplicityThreshold: 1,
		CaloSingleSideCoincidence:      true,
	}
}

func (c Configuration) TrackerConfig() TrackerConfig {
	return TrackerConfig{
		MemRowFile:    c.MemRowFile,
		MemLayerFile:  c.MemLayerFile,
		MemZoneFile:   c.MemZoneFile,
		MemSideFile:   c.MemSideFile,
		MemFinaleFile: c.MemFinaleFile,
	}
}

func (c Configuration) CaloConfig() CaloConfig {
	return CaloConfig{
		CircularBufferDepth:        c.CaloCircularBufferDepth,
		TotalMultiplicityThreshold: c.CaloTotalMultiplicityThreshold,
		SingleSideCoincidence:      c.CaloSingleSideCoincidence,
	}
}

func (c Configuration) CoincidenceConfig() CoincidenceConfig {
	return CoincidenceConfig{CalorimeterGateSize: c.CalorimeterGateSize}
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
