package models

// NumericStatistics holds descriptive statistics for a numeric column.
// Standard deviation and variance use the population convention; kurtosis
// uses the excess convention (normal distribution scores 0).
type NumericStatistics struct {
	Mean         float64  `json:"mean"`
	Median       float64  `json:"median"`
	Mode         *float64 `json:"mode,omitempty"`
	StdDev       float64  `json:"std_dev"`
	Variance     float64  `json:"variance"`
	Min          float64  `json:"min"`
	Max          float64  `json:"max"`
	Q1           float64  `json:"q1"`
	Q3           float64  `json:"q3"`
	IQR          float64  `json:"iqr"`
	Skewness     float64  `json:"skewness"`
	Kurtosis     float64  `json:"kurtosis"`
	OutlierCount int      `json:"outlier_count"`
}

// CategoricalStatistics holds frequency statistics for a categorical column.
type CategoricalStatistics struct {
	UniqueCount           int            `json:"unique_count"`
	MostFrequent          *string        `json:"most_frequent,omitempty"`
	Frequency             *int           `json:"frequency,omitempty"`
	FrequencyDistribution map[string]int `json:"frequency_distribution"`
}

// ColumnStatistics pairs a column with exactly one of its statistic kinds.
type ColumnStatistics struct {
	ColumnName       string                 `json:"column_name"`
	DataType         DataType               `json:"data_type"`
	NumericStats     *NumericStatistics     `json:"numeric_stats,omitempty"`
	CategoricalStats *CategoricalStatistics `json:"categorical_stats,omitempty"`
}

// CorrelationMethod selects the pairwise correlation coefficient.
type CorrelationMethod string

const (
	CorrelationPearson  CorrelationMethod = "pearson"
	CorrelationSpearman CorrelationMethod = "spearman"
	CorrelationKendall  CorrelationMethod = "kendall"
)

// StrongCorrelation is one surfaced non-weak column pair.
type StrongCorrelation struct {
	Column1     string  `json:"column1"`
	Column2     string  `json:"column2"`
	Coefficient float64 `json:"coefficient"`
	Strength    string  `json:"strength"`
	Direction   string  `json:"direction"`
}

// CorrelationAnalysis is the full pairwise correlation result for the
// numeric columns. The matrix is symmetric with a unit diagonal.
type CorrelationAnalysis struct {
	Method             CorrelationMethod             `json:"method"`
	CorrelationMatrix  map[string]map[string]float64 `json:"correlation_matrix"`
	StrongCorrelations []StrongCorrelation           `json:"strong_correlations"`
}

// OutlierMethod selects the outlier detection algorithm.
type OutlierMethod string

const (
	OutlierIQR    OutlierMethod = "iqr"
	OutlierZScore OutlierMethod = "zscore"
)

// OutlierAnalysis holds outlier detection results for one column.
// Indices are original row positions, ascending, deduplicated.
type OutlierAnalysis struct {
	ColumnName        string        `json:"column_name"`
	Method            OutlierMethod `json:"method"`
	OutlierCount      int           `json:"outlier_count"`
	OutlierPercentage float64       `json:"outlier_percentage"`
	OutlierIndices    []int         `json:"outlier_indices"`
}

// DistributionAnalysis holds normality test results for one column. The test
// statistic and p-value are reported regardless of the is_normal verdict so
// callers can apply their own significance level.
type DistributionAnalysis struct {
	ColumnName       string   `json:"column_name"`
	DistributionType string   `json:"distribution_type"`
	IsNormal         bool     `json:"is_normal"`
	TestStatistic    *float64 `json:"test_statistic,omitempty"`
	PValue           *float64 `json:"p_value,omitempty"`
}

// DataQuality is an aggregate 0-100 quality score for the dataset.
type DataQuality struct {
	OverallScore        float64 `json:"overall_score"`
	MissingPercentage   float64 `json:"missing_data_percentage"`
	DuplicateRows       int     `json:"duplicate_rows"`
	DuplicatePercentage float64 `json:"duplicate_percentage"`
	ConstantColumns     int     `json:"constant_columns"`
	Assessment          string  `json:"assessment"`
}
