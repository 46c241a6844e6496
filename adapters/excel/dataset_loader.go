package excel

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"netpres/domain/network"
	"netpres/internal/errors"
)

// DatasetConfig describes where a dataset triple comes from. CorrPath and
// NetPath are optional: when absent, the correlation matrix is computed from
// the data and the adjacency is derived by soft thresholding |r|^SoftPower.
type DatasetConfig struct {
	// DataPath points at the samples-by-nodes data matrix.
	DataPath  string
	DataSheet string

	CorrPath  string
	CorrSheet string

	NetPath  string
	NetSheet string

	// SoftPower is the soft-threshold exponent used when no adjacency file
	// is given. Zero means the conventional default of 6.
	SoftPower float64
}

// DatasetLoader assembles a network.Dataset from matrix files.
type DatasetLoader struct {
	config DatasetConfig
}

// NewDatasetLoader creates a loader for the given configuration.
func NewDatasetLoader(config DatasetConfig) *DatasetLoader {
	if config.SoftPower == 0 {
		config.SoftPower = 6
	}
	return &DatasetLoader{config: config}
}

// Load reads the data matrix and either reads or derives the correlation
// and adjacency matrices. Node ordering follows the data matrix columns.
func (l *DatasetLoader) Load() (*network.Dataset, error) {
	data, sampleNames, nodeNames, err := NewMatrixReader(l.config.DataPath).Read(l.config.DataSheet)
	if err != nil {
		return nil, err
	}

	ds := &network.Dataset{
		Data:        data,
		NodeNames:   nodeNames,
		SampleNames: sampleNames,
	}

	if l.config.CorrPath != "" {
		corr, _, corrNames, err := NewMatrixReader(l.config.CorrPath).Read(l.config.CorrSheet)
		if err != nil {
			return nil, err
		}
		if len(corrNames) != len(nodeNames) {
			return nil, errors.DatasetLoad("correlation matrix node count does not match data matrix")
		}
		ds.Corr = corr
	} else {
		ds.Corr = correlationMatrix(data)
	}

	if l.config.NetPath != "" {
		net, _, netNames, err := NewMatrixReader(l.config.NetPath).Read(l.config.NetSheet)
		if err != nil {
			return nil, err
		}
		if len(netNames) != len(nodeNames) {
			return nil, errors.DatasetLoad("adjacency matrix node count does not match data matrix")
		}
		ds.Net = net
	} else {
		ds.Net = softThreshold(ds.Corr, l.config.SoftPower)
	}

	return ds, nil
}

// correlationMatrix computes pairwise Pearson correlations of the data
// columns.
func correlationMatrix(data *mat.Dense) *mat.Dense {
	_, nodes := data.Dims()
	sym := mat.NewSymDense(nodes, nil)
	stat.CorrelationMatrix(sym, data, nil)
	return mat.DenseCopyOf(sym)
}

// softThreshold derives a weighted adjacency from a correlation matrix by
// raising |r| to the given power, the usual weighted co-expression network
// construction.
func softThreshold(corr *mat.Dense, power float64) *mat.Dense {
	n, _ := corr.Dims()
	net := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			net.Set(i, j, math.Pow(math.Abs(corr.At(i, j)), power))
		}
	}
	return net
}

// LoadAssignments reads a two-column (node, module) file into module
// assignments, preserving file order. A header row whose first cell is
// "node" is skipped.
func LoadAssignments(filePath, sheet string) (*network.ModuleAssignments, error) {
	reader := NewMatrixReader(filePath)

	var rows [][]string
	var err error
	if reader.fileType == "csv" {
		rows, err = reader.readCSVRows()
	} else {
		rows, err = reader.readExcelRows(sheet)
	}
	if err != nil {
		return nil, err
	}

	assignments := network.NewModuleAssignments()
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		node := row[0]
		module := row[1]
		if i == 0 && (node == "node" || node == "Node") {
			continue
		}
		assignments.Add(node, module)
	}
	if assignments.Len() == 0 {
		return nil, errors.DatasetLoad("no module assignments found in " + filePath)
	}
	return assignments, nil
}
