package epicore

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// LoadNeighborMap parses a neighbor-list text file in the format
// documented in spec.md §6:
//
//	<id>: <nbr1> <nbr2> ... <nbrK>
//
// one agent per line, a trailing empty neighbor list allowed. Blank
// lines and lines beginning with "#" are ignored. The returned map is
// validated for symmetry and self-loops before return.
func LoadNeighborMap(path string) (NeighborMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapConfigError(err, "opening neighbor file "+path)
	}
	defer f.Close()
	return parseNeighborMap(f)
}

var neighborLineRe = regexp.MustCompile(`^\s*(\d+)\s*:\s*(.*)$`)

func parseNeighborMap(r io.Reader) (NeighborMap, error) {
	m := NewNeighborMap()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") || strings.TrimSpace(line) == "" {
			continue
		}
		match := neighborLineRe.FindStringSubmatch(line)
		if match == nil {
			return nil, newGraphError("invalid neighbor-file line %d: %q", lineNo, line)
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, newGraphError("invalid agent id on line %d: %q", lineNo, match[1])
		}
		m.Ensure(id)
		fields := strings.Fields(match[2])
		for _, field := range fields {
			nbr, err := strconv.Atoi(field)
			if err != nil {
				return nil, newGraphError("invalid neighbor id on line %d: %q", lineNo, field)
			}
			if nbr == id {
				return nil, newGraphError(SelfLoopError, id)
			}
			m.Ensure(nbr)
			m[id][nbr] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, wrapConfigError(err, "reading neighbor file")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteNeighborMap serializes a NeighborMap in the §6 text format, one
// line per key in ascending id order, mirroring the original gengraph.py
// writer and giving LoadNeighborMap/WriteNeighborMap a round-trip.
func WriteNeighborMap(w io.Writer, m NeighborMap) error {
	bw := bufio.NewWriter(w)
	for _, id := range m.Keys() {
		nbrs := m.Neighbors(id)
		parts := make([]string, len(nbrs))
		for i, nbr := range nbrs {
			parts[i] = strconv.Itoa(nbr)
		}
		if _, err := fmt.Fprintf(bw, "%d: %s\n", id, strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// BuildingRecord is a single parsed row of the location CSV
// (spec.md §6): building_type,tag,longitude,latitude,sqm.
type BuildingRecord struct {
	Type      string
	Tag       string
	Longitude float64
	Latitude  float64
	Sqm       float64
}

var recognizedBuildingTypes = map[string]bool{
	"house": true, "supermarket": true, "shop": true,
	"restaurant": true, "leisure": true, "nightlife": true,
}

// LoadBuildingCSV parses the location CSV produced by the OSM
// extraction collaborator (out of scope here; only consumption is in
// scope). A header mismatch or unparsable field is a
// BuildingInputError, and the core refuses to start per spec.md §7.
// Grounded on original_source/read_building_csv.py's row-by-row parse,
// adapted from Python's positional-index access to Go's encoding/csv
// plus a header-name lookup so column order in the file does not
// matter as long as the five names are present.
func LoadBuildingCSV(path string) ([]BuildingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapBuildingInputError(err, "opening location CSV "+path)
	}
	defer f.Close()
	return parseBuildingCSV(f)
}

func parseBuildingCSV(r io.Reader) ([]BuildingRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, wrapBuildingInputError(err, "reading location CSV header")
	}
	want := []string{"building_type", "tag", "longitude", "latitude", "sqm"}
	if len(header) != len(want) {
		return nil, newBuildingInputError("header has %d columns, expected %d (%s)", len(header), len(want), strings.Join(want, ","))
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range want {
		if _, ok := col[name]; !ok {
			return nil, newBuildingInputError("header missing column %q", name)
		}
	}

	var records []BuildingRecord
	rowNo := 1
	for {
		rowNo++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapBuildingInputError(err, fmt.Sprintf("reading row %d", rowNo))
		}
		buildingType := strings.TrimSpace(row[col["building_type"]])
		if !recognizedBuildingTypes[buildingType] {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[col["longitude"]]), 64)
		if err != nil {
			return nil, newBuildingInputError("row %d: unparsable longitude %q", rowNo, row[col["longitude"]])
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(row[col["latitude"]]), 64)
		if err != nil {
			return nil, newBuildingInputError("row %d: unparsable latitude %q", rowNo, row[col["latitude"]])
		}
		sqm, err := strconv.ParseFloat(strings.TrimSpace(row[col["sqm"]]), 64)
		if err != nil {
			return nil, newBuildingInputError("row %d: unparsable sqm %q", rowNo, row[col["sqm"]])
		}
		records = append(records, BuildingRecord{
			Type:      buildingType,
			Tag:       strings.TrimSpace(row[col["tag"]]),
			Longitude: lon,
			Latitude:  lat,
			Sqm:       sqm,
		})
	}
	return records, nil
}
