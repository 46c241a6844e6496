package excel

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"netpres/domain/network"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestMatrixReader_CSV(t *testing.T) {
	path := writeCSV(t, "data.csv",
		"sample,n1,n2,n3\n"+
			"s1,1.5,2,NA\n"+
			"s2,-0.5,NaN,3\n")

	m, rowNames, colNames, err := NewMatrixReader(path).Read("")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(rowNames) != 2 || rowNames[0] != "s1" || rowNames[1] != "s2" {
		t.Errorf("row names = %v", rowNames)
	}
	if len(colNames) != 3 || colNames[0] != "n1" {
		t.Errorf("column names = %v", colNames)
	}

	if got := m.At(0, 0); got != 1.5 {
		t.Errorf("m[0,0] = %v, want 1.5", got)
	}
	if got := m.At(1, 0); got != -0.5 {
		t.Errorf("m[1,0] = %v, want -0.5", got)
	}
	if !network.IsMissing(m.At(0, 2)) {
		t.Errorf("NA cell = %v, want missing", m.At(0, 2))
	}
	if !network.IsMissing(m.At(1, 1)) {
		t.Errorf("NaN cell = %v, want missing", m.At(1, 1))
	}
}

func TestMatrixReader_MissingFile(t *testing.T) {
	if _, _, _, err := NewMatrixReader("/nonexistent/matrix.csv").Read(""); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestMatrixReader_RejectsDegenerateFiles(t *testing.T) {
	path := writeCSV(t, "bad.csv", "onlyheader\n")
	if _, _, _, err := NewMatrixReader(path).Read(""); err == nil {
		t.Error("expected an error for a file without values")
	}
}

func TestDatasetLoader_DerivesCorrAndNet(t *testing.T) {
	path := writeCSV(t, "data.csv",
		"sample,n1,n2\n"+
			"s1,1,2\n"+
			"s2,2,4\n"+
			"s3,3,6\n"+
			"s4,4,9\n")

	ds, err := NewDatasetLoader(DatasetConfig{DataPath: path}).Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if ds.NumNodes() != 2 || ds.NumSamples() != 4 {
		t.Fatalf("dims = %d nodes, %d samples", ds.NumNodes(), ds.NumSamples())
	}
	if ds.Corr == nil || ds.Net == nil {
		t.Fatal("correlation and adjacency must be derived")
	}

	// The diagonal of a derived correlation matrix is 1, and the adjacency
	// is |r|^6.
	if got := ds.Corr.At(0, 0); math.Abs(got-1) > 1e-12 {
		t.Errorf("corr diagonal = %v, want 1", got)
	}
	r := ds.Corr.At(0, 1)
	if got := ds.Net.At(0, 1); math.Abs(got-math.Pow(math.Abs(r), 6)) > 1e-12 {
		t.Errorf("net[0,1] = %v, want |%v|^6", got, r)
	}
}

func TestDatasetLoader_NodeCountMismatch(t *testing.T) {
	data := writeCSV(t, "data.csv",
		"sample,n1,n2\n"+
			"s1,1,2\n"+
			"s2,2,1\n")
	corr := writeCSV(t, "corr.csv",
		"node,n1,n2,n3\n"+
			"n1,1,0,0\n"+
			"n2,0,1,0\n"+
			"n3,0,0,1\n")

	_, err := NewDatasetLoader(DatasetConfig{DataPath: data, CorrPath: corr}).Load()
	if err == nil {
		t.Error("expected a node count mismatch error")
	}
}

func TestLoadAssignments(t *testing.T) {
	path := writeCSV(t, "modules.csv",
		"node,module\n"+
			"n1,blue\n"+
			"n2,red\n"+
			"n3,blue\n")

	assignments, err := LoadAssignments(path, "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if assignments.Len() != 3 {
		t.Fatalf("assigned nodes = %d, want 3", assignments.Len())
	}
	if mod, _ := assignments.ModuleOf("n3"); mod != "blue" {
		t.Errorf("n3 module = %q, want blue", mod)
	}
	// The header row must not become an assignment.
	if _, ok := assignments.ModuleOf("node"); ok {
		t.Error("header row leaked into the assignments")
	}

	if _, err := LoadAssignments(writeCSV(t, "empty.csv", "node,module\n"), ""); err == nil {
		t.Error("expected an error for an empty assignment file")
	}
}
