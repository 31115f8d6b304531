package stations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func inventoryLine(id string, lat, lon, elev float64, state, name string) string {
	return fmt.Sprintf("%-11s %8.4f %9.4f %6.1f %-2s %-30s     72506", id, lat, lon, elev, state, name)
}

func testInventory() string {
	return strings.Join([]string{
		inventoryLine("USW00094728", 40.7789, -73.9692, 39.6, "NY", "NEW YORK CNTRL PK TWR"),
		inventoryLine("USW00026411", 64.8039, -147.8761, 131.7, "AK", "FAIRBANKS INTL AP"),
		"",
		inventoryLine("GM000003319", 52.3833, 13.0667, 81.0, "", "POTSDAM"),
	}, "\n")
}

func TestParseInventory(t *testing.T) {
	list, err := ParseInventory(strings.NewReader(testInventory()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 stations, got %d", len(list))
	}

	nyc := list[0]
	if nyc.ID != "USW00094728" {
		t.Errorf("Expected ID 'USW00094728', got '%s'", nyc.ID)
	}
	if nyc.Name != "NEW YORK CNTRL PK TWR" {
		t.Errorf("Expected name 'NEW YORK CNTRL PK TWR', got '%s'", nyc.Name)
	}
	if nyc.State != "NY" {
		t.Errorf("Expected state 'NY', got '%s'", nyc.State)
	}
	if nyc.Latitude != 40.7789 || nyc.Longitude != -73.9692 || nyc.Elevation != 39.6 {
		t.Errorf("Unexpected coordinates: %+v", nyc)
	}

	if list[2].State != "" {
		t.Errorf("Expected empty state for POTSDAM, got '%s'", list[2].State)
	}
}

func TestParseInventory_ShortLine(t *testing.T) {
	_, err := ParseInventory(strings.NewReader("USW00094728  40.7789"))
	if err == nil {
		t.Fatal("Expected error for truncated record")
	}
}

func TestParseInventory_BadLatitude(t *testing.T) {
	line := inventoryLine("USW00094728", 0, -73.9692, 39.6, "NY", "NEW YORK")
	line = line[:12] + "   north" + line[20:]
	_, err := ParseInventory(strings.NewReader(line))
	if err == nil {
		t.Fatal("Expected error for non-numeric latitude")
	}
}

func TestLoadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghcnd-stations.txt")
	if err := os.WriteFile(path, []byte(testInventory()), 0o644); err != nil {
		t.Fatal(err)
	}

	dir, err := LoadDirectory(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, ok := dir.Lookup("FAIRBANKS INTL AP")
	if !ok || id != "USW00026411" {
		t.Errorf("Expected FAIRBANKS INTL AP -> USW00026411, got %q (%v)", id, ok)
	}
	if _, ok := dir.Lookup("NOWHERE"); ok {
		t.Error("Expected unknown station to not exist")
	}

	names := dir.Names()
	want := []string{"FAIRBANKS INTL AP", "NEW YORK CNTRL PK TWR", "POTSDAM"}
	if strings.Join(names, "|") != strings.Join(want, "|") {
		t.Errorf("Expected names %v, got %v", want, names)
	}
}

func TestDirectory_ReloadPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghcnd-stations.txt")
	if err := os.WriteFile(path, []byte(testInventory()), 0o644); err != nil {
		t.Fatal(err)
	}
	dir, err := LoadDirectory(path)
	if err != nil {
		t.Fatal(err)
	}

	extra := testInventory() + "\n" + inventoryLine("CA001108447", 49.1950, -123.1819, 4.3, "BC", "VANCOUVER INTL A")
	if err := os.WriteFile(path, []byte(extra), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := dir.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if dir.Len() != 4 {
		t.Errorf("Expected 4 stations after reload, got %d", dir.Len())
	}
}

func TestDirectory_DuplicateNameLastWins(t *testing.T) {
	dir := NewDirectory("")
	dropped := dir.Replace([]Station{
		{ID: "A", Name: "SAME"},
		{ID: "C", Name: "OTHER"},
		{ID: "B", Name: "SAME"},
		{ID: "D", Name: "SAME"},
	})

	if dropped != 2 {
		t.Errorf("Expected 2 shadowed stations, got %d", dropped)
	}
	id, _ := dir.Lookup("SAME")
	if id != "D" {
		t.Errorf("Expected later station to win, got %s", id)
	}
	if dir.Len() != 2 {
		t.Errorf("Expected 2 names, got %d", dir.Len())
	}
}

func TestLoadDirectory_MissingFile(t *testing.T) {
	if _, err := LoadDirectory(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("Expected error for missing inventory")
	}
}
