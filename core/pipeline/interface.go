package pipeline

import "github.com/siherrmann/trialmatch/model"

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// Pipeline turns trial records and patient profiles into embeddings by
// composing the deterministic text builders with an embedding function.
// The same builders are used at ingestion and at query time, so a trial's
// stored embedding and a patient's query embedding live in the same space.
type Pipeline struct {
	Embedder EmbedFunc
}

// NewPipeline creates a new embedding pipeline
func NewPipeline(embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Embedder: embedder,
	}
}

// EmbedTrial generates the description embedding for a trial record
func (p *Pipeline) EmbedTrial(record *model.TrialRecord) ([]float32, error) {
	return p.Embedder(BuildTrialDescription(record))
}

// EmbedPatient generates the query embedding for a patient profile
func (p *Pipeline) EmbedPatient(patient *model.PatientProfile) ([]float32, error) {
	return p.Embedder(BuildPatientQuery(patient))
}
