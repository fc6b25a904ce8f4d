package trigger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LookupTable is a read-only associative memory: a total function from a
// fixed-width address to a fixed-width value.
type LookupTable interface {
	Name() string
	AddressWidth() uint
	DataWidth() uint
	Lookup(address uint32) (uint16, error)
}

const (
	MAX_MEMORY_ADDRESS_WIDTH = 16
	MAX_MEMORY_DATA_WIDTH    = 16
)

// Memory emulates an FPGA block RAM truth table of 2^addressWidth words
// of dataWidth bits.
type Memory struct {
	name         string
	addressWidth uint
	dataWidth    uint
	data         []uint16
	filled       []bool
	nFilled      int
}

func NewMemory(name string, addressWidth uint, dataWidth uint) (*Memory, error) {
	if addressWidth == 0 || addressWidth > MAX_MEMORY_ADDRESS_WIDTH {
		return nil, &ErrRange{Field: "memory address width", Value: int64(addressWidth), Limit: MAX_MEMORY_ADDRESS_WIDTH + 1}
	}
	if dataWidth == 0 || dataWidth > MAX_MEMORY_DATA_WIDTH {
		return nil, &ErrRange{Field: "memory data width", Value: int64(dataWidth), Limit: MAX_MEMORY_DATA_WIDTH + 1}
	}
	size := 1 << addressWidth
	return &Memory{
		name:         name,
		addressWidth: addressWidth,
		dataWidth:    dataWidth,
		data:         make([]uint16, size),
		filled:       make([]bool, size),
	}, nil
}

func (m *Memory) Name() string       { return m.name }
func (m *Memory) AddressWidth() uint { return m.addressWidth }
func (m *Memory) DataWidth() uint    { return m.dataWidth }
func (m *Memory) Size() int          { return len(m.data) }

func (m *Memory) IsComplete() bool {
	return m.nFilled == len(m.data)
}

func (m *Memory) Fill(address uint32, value uint16) error {
	if uint64(address) >= uint64(len(m.data)) {
		return &ErrMemory{Name: m.name, Address: address, Reason: fmt.Sprintf("address wider than %d bits", m.addressWidth)}
	}
	if uint32(value)>>m.dataWidth != 0 {
		return &ErrMemory{Name: m.name, Address: address, Reason: fmt.Sprintf("value %d wider than %d bits", value, m.dataWidth)}
	}
	if !m.filled[address] {
		m.filled[address] = true
		m.nFilled++
	}
	m.data[address] = value
	return nil
}

func (m *Memory) Lookup(address uint32) (uint16, error) {
	if uint64(address) >= uint64(len(m.data)) {
		return 0, &ErrMemory{Name: m.name, Address: address, Reason: fmt.Sprintf("address wider than %d bits", m.addressWidth)}
	}
	if !m.filled[address] {
		return 0, &ErrMemory{Name: m.name, Address: address, Reason: "address never filled"}
	}
	return m.data[address], nil
}

// FillAll reads a complete truth table. Each line holds the address and
// the value as binary strings of exactly addressWidth and dataWidth
// digits, most significant bit first. Empty lines and lines starting with
// '#' are skipped. Every address must appear exactly once.
func (m *Memory) FillAll(r io.Reader) error {
	seen := make([]bool, len(m.data))
	scanner := bufio.NewScanner(r)
	nLine := 0
	for scanner.Scan() {
		nLine++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) != 2 {
			return errors.Wrapf(&ErrMemory{Name: m.name, Reason: "expected address and value"}, "line %d", nLine)
		}
		address, err := parseBinary(tokens[0], m.addressWidth)
		if err != nil {
			return errors.Wrapf(err, "memory %q, line %d: bad address", m.name, nLine)
		}
		value, err := parseBinary(tokens[1], m.dataWidth)
		if err != nil {
			return errors.Wrapf(err, "memory %q, line %d: bad value", m.name, nLine)
		}
		if seen[address] {
			return errors.Wrapf(&ErrMemory{Name: m.name, Address: uint32(address), Reason: "address defined twice"}, "line %d", nLine)
		}
		seen[address] = true
		if err := m.Fill(uint32(address), uint16(value)); err != nil {
			return errors.Wrapf(err, "line %d", nLine)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "memory %q: reading truth table", m.name)
	}
	for address, ok := range seen {
		if !ok {
			return &ErrMemory{Name: m.name, Address: uint32(address), Reason: "address missing from truth table"}
		}
	}
	return nil
}

func parseBinary(token string, width uint) (uint64, error) {
	if uint(len(token)) != width {
		return 0, errors.Errorf("%q is not %d binary digits", token, width)
	}
	value, err := strconv.ParseUint(token, 2, int(width))
	if err != nil {
		return 0, errors.Wrapf(err, "%q is not a binary number", token)
	}
	return value, nil
}

// LoadFile fills the memory from a truth table file.
func (m *Memory) LoadFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()
	if err := m.FillAll(file); err != nil {
		return errors.Wrapf(err, "loading %s", filename)
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Memory %s loaded from %s: %d -> %d bits", m.name, filename, m.addressWidth, m.dataWidth)
		logger.Info(message, "memory")
	}
	return nil
}

// WriteTo writes the truth table in the format read by FillAll.
func (m *Memory) WriteTo(w io.Writer) (int64, error) {
	if !m.IsComplete() {
		return 0, &ErrMemory{Name: m.name, Reason: "cannot write an incomplete truth table"}
	}
	bw := bufio.NewWriter(w)
	var written int64
	n, err := fmt.Fprintf(bw, "# %s: %d bits address, %d bits data\n", m.name, m.addressWidth, m.dataWidth)
	written += int64(n)
	if err != nil {
		return written, err
	}
	for address, value := range m.data {
		n, err := fmt.Fprintf(bw, "%0*b %0*b\n", m.addressWidth, address, m.dataWidth, value)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}

func (m *Memory) WriteFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return &ErrOpenFile{Filename: filename, Err: err}
	}
	if _, err := m.WriteTo(file); err != nil {
		file.Close()
		return errors.Wrapf(err, "writing %s", filename)
	}
	return file.Close()
}
