package models

// DataType is the inferred semantic type of a dataset column.
type DataType string

const (
	DataTypeNumeric     DataType = "numeric"
	DataTypeCategorical DataType = "categorical"
	DataTypeDatetime    DataType = "datetime"
	DataTypeText        DataType = "text"
	DataTypeBoolean     DataType = "boolean"
	DataTypeUnknown     DataType = "unknown"
)

// ColumnSchema describes a single column of the loaded dataset.
type ColumnSchema struct {
	Name              string   `json:"name"`
	DataType          DataType `json:"data_type"`
	MissingCount      int      `json:"missing_count"`
	MissingPercentage float64  `json:"missing_percentage"`
	UniqueCount       int      `json:"unique_count"`
	SampleValues      []string `json:"sample_values"`
}

// DatasetSchema describes the shape of the whole dataset as inferred at load time.
type DatasetSchema struct {
	RowCount      int            `json:"row_count"`
	ColumnCount   int            `json:"column_count"`
	Columns       []ColumnSchema `json:"columns"`
	TotalMissing  int            `json:"total_missing"`
	MemoryUsageMB float64        `json:"memory_usage_mb"`
}
