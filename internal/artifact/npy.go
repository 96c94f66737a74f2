package artifact

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// The windowed dataset arrays are written as NumPy NPY v1.0 files so the
// downstream trainer can np.load them directly: the 6-byte magic, version
// 1.0, a little-endian uint16 header length, then a Python dict literal
// padded so the payload starts on a 64-byte boundary. Only the dtype this
// pipeline produces is supported: little-endian int32, C order.

var npyMagic = []byte("\x93NUMPY")

const npyDescr = "<i4"

// writeNPY writes data as an int32 NPY file at path. shape must multiply
// out to len(data); one- and two-dimensional shapes are produced here.
func writeNPY(path string, shape []int, data []int32) error {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		return fmt.Errorf("artifact: shape %v does not hold %d elements", shape, len(data))
	}

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	tuple := strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += "," // Python 1-tuple
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", npyDescr, tuple)

	// Pad with spaces, newline-terminated, so magic+version+len+header is a
	// multiple of 64.
	base := len(npyMagic) + 2 + 2
	total := base + len(header) + 1
	pad := (64 - total%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	buf := make([]byte, 0, base+len(header)+4*len(data))
	buf = append(buf, npyMagic...)
	buf = append(buf, 0x01, 0x00)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(header)))
	buf = append(buf, header...)
	for _, v := range data {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
	}
	return os.WriteFile(path, buf, 0644)
}

// readNPY loads an int32 NPY file, validating magic, dtype and element
// count against the declared shape.
func readNPY(path string) (shape []int, data []int32, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: %w", err)
	}
	if len(raw) < len(npyMagic)+4 || string(raw[:len(npyMagic)]) != string(npyMagic) {
		return nil, nil, fmt.Errorf("artifact: %s is not an NPY file", path)
	}
	major, minor := raw[6], raw[7]
	if major != 1 || minor != 0 {
		return nil, nil, fmt.Errorf("artifact: %s: unsupported NPY version %d.%d", path, major, minor)
	}
	headerLen := int(binary.LittleEndian.Uint16(raw[8:10]))
	if len(raw) < 10+headerLen {
		return nil, nil, fmt.Errorf("artifact: %s: header length %d exceeds file size", path, headerLen)
	}
	header := string(raw[10 : 10+headerLen])

	descr, err := headerField(header, "'descr':")
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: %s: %w", path, err)
	}
	if descr != "'"+npyDescr+"'" {
		return nil, nil, fmt.Errorf("artifact: %s: expected dtype '%s', got %s", path, npyDescr, descr)
	}
	order, err := headerField(header, "'fortran_order':")
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: %s: %w", path, err)
	}
	if order != "False" {
		return nil, nil, fmt.Errorf("artifact: %s: fortran order arrays not supported", path)
	}
	shape, err = headerShape(header)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: %s: %w", path, err)
	}

	n := 1
	for _, d := range shape {
		n *= d
	}
	payload := raw[10+headerLen:]
	if len(payload) != 4*n {
		return nil, nil, fmt.Errorf("artifact: %s: payload is %d bytes, shape %v needs %d", path, len(payload), shape, 4*n)
	}
	data = make([]int32, n)
	for i := range data {
		data[i] = int32(binary.LittleEndian.Uint32(payload[4*i : 4*i+4]))
	}
	return shape, data, nil
}

// headerField extracts the value following a key in the NPY header dict,
// up to the next comma that closes the entry.
func headerField(header, key string) (string, error) {
	i := strings.Index(header, key)
	if i < 0 {
		return "", fmt.Errorf("header missing %s", key)
	}
	rest := header[i+len(key):]
	end := strings.IndexByte(rest, ',')
	if end < 0 {
		return "", fmt.Errorf("malformed header near %s", key)
	}
	return strings.TrimSpace(rest[:end]), nil
}

// headerShape parses the shape tuple from the header dict.
func headerShape(header string) ([]int, error) {
	i := strings.Index(header, "'shape':")
	if i < 0 {
		return nil, fmt.Errorf("header missing 'shape':")
	}
	rest := header[i+len("'shape':"):]
	open := strings.IndexByte(rest, '(')
	closing := strings.IndexByte(rest, ')')
	if open < 0 || closing < open {
		return nil, fmt.Errorf("malformed shape tuple")
	}
	var shape []int
	for _, part := range strings.Split(rest[open+1:closing], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue // trailing comma of a 1-tuple
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("malformed shape dimension %q", part)
		}
		if d < 0 {
			return nil, fmt.Errorf("negative shape dimension %d", d)
		}
		shape = append(shape, d)
	}
	return shape, nil
}
