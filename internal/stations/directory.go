package stations

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Station is one entry of the GHCN-Daily station inventory.
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	State     string  `json:"state,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Directory maps station names to stations. It is safe for concurrent use
// and can be reloaded from its source file.
type Directory struct {
	path string

	mu     sync.RWMutex
	byName map[string]Station
	names  []string
}

// NewDirectory creates an empty directory backed by the inventory at path.
func NewDirectory(path string) *Directory {
	return &Directory{
		path:   path,
		byName: make(map[string]Station),
	}
}

// LoadDirectory reads the inventory at path.
func LoadDirectory(path string) (*Directory, error) {
	d := NewDirectory(path)
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload re-reads the source file and swaps the contents in one step.
func (d *Directory) Reload() error {
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("open station inventory: %w", err)
	}
	defer f.Close()

	list, err := ParseInventory(f)
	if err != nil {
		return fmt.Errorf("parse station inventory %s: %w", d.path, err)
	}
	if dropped := d.Replace(list); dropped > 0 {
		log.Printf("INFO: %d of %d stations in %s share a name with a later entry and cannot be selected", dropped, len(list), d.path)
	}
	return nil
}

// Replace swaps the directory contents and returns how many stations were
// shadowed. When two stations share a name the later one wins.
func (d *Directory) Replace(list []Station) int {
	byName := make(map[string]Station, len(list))
	dropped := 0
	for _, s := range list {
		if _, ok := byName[s.Name]; ok {
			dropped++
		}
		byName[s.Name] = s
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	d.mu.Lock()
	d.byName = byName
	d.names = names
	d.mu.Unlock()
	return dropped
}

// Lookup returns the station identifier for a name.
func (d *Directory) Lookup(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.byName[name]
	return s.ID, ok
}

// Station returns the full entry for a name.
func (d *Directory) Station(name string) (Station, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.byName[name]
	return s, ok
}

// Names returns all station names, sorted.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	// Return a copy to prevent external modification
	result := make([]string, len(d.names))
	copy(result, d.names)
	return result
}

// Len returns the number of distinct station names.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}

// ParseInventory parses the fixed-width ghcnd-stations.txt layout:
//
//	ID         1-11
//	LATITUDE  13-20
//	LONGITUDE 22-30
//	ELEVATION 32-37
//	STATE     39-40
//	NAME      42-71
//
// Blank lines are skipped.
func ParseInventory(r io.Reader) ([]Station, error) {
	var out []Station

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < 42 {
			return nil, fmt.Errorf("line %d: too short for station record", lineNo)
		}

		lat, err := strconv.ParseFloat(column(line, 12, 20), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", lineNo, err)
		}
		lon, err := strconv.ParseFloat(column(line, 21, 30), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", lineNo, err)
		}
		elev, err := strconv.ParseFloat(column(line, 31, 37), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: elevation: %w", lineNo, err)
		}

		s := Station{
			ID:        column(line, 0, 11),
			Latitude:  lat,
			Longitude: lon,
			Elevation: elev,
			State:     column(line, 38, 40),
			Name:      column(line, 41, 71),
		}
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("line %d: missing station id or name", lineNo)
		}
		out = append(out, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// column returns the trimmed [from, to) slice of line, clipped to its length.
func column(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}
