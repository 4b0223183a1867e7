// Package schemas holds the JSON Schema documents for pipeline artifacts.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names.
const (
	LabelingPolicy = "labeling_policy.schema.json"
	LabeledPairs   = "labeled_pairs.schema.json"
	TrainingRows   = "training_rows.schema.json"
	RankingRecords = "ranking_records.schema.json"
)
