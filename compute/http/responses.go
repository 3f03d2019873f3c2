package http

import "github.com/absmach/tabula/compute"

type statisticsRes struct {
	Statistics compute.ColumnStatistics `json:"statistics"`
}

type missingRes struct {
	MissingValues compute.MissingReport `json:"missing_values"`
}

type datasetRes struct {
	Dataset [][]any  `json:"dataset"`
	Changes []string `json:"changes,omitempty"`
	Classes []string `json:"classes,omitempty"`
	Message string   `json:"message,omitempty"`
}

type splitRes struct {
	XTrain [][]any   `json:"x_train"`
	XTest  [][]any   `json:"x_test"`
	YTrain []float64 `json:"y_train"`
	YTest  []float64 `json:"y_test"`
}

type registerRes struct {
	DatasetID string `json:"dataset_id"`
}

type errorRes struct {
	Error string `json:"error"`
}
