package types

// UserFeatures holds the user tower inputs published to the feature store.
type UserFeatures struct {
	UserID        string    `json:"user_id" parquet:"user_id" validate:"required"`
	UserEmbedding []float32 `json:"user_embedding" parquet:"user_embedding,list" validate:"required"`
}

// JobFeatures holds the job tower inputs published to the feature store.
type JobFeatures struct {
	JobID        string    `json:"job_id" parquet:"job_id" validate:"required"`
	JobEmbedding []float32 `json:"job_embedding" parquet:"job_embedding,list" validate:"required"`
}

// TrainingRow is a labeled pair hydrated with both towers' features.
type TrainingRow struct {
	ID            string    `json:"id" parquet:"id"`
	UserID        string    `json:"user_id" parquet:"user_id"`
	JobID         string    `json:"job_id" parquet:"job_id"`
	UserEmbedding []float32 `json:"user_embedding" parquet:"user_embedding,list"`
	JobEmbedding  []float32 `json:"job_embedding" parquet:"job_embedding,list"`
	Label         int       `json:"label" parquet:"label"`
}
