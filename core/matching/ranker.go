package matching

import (
	"github.com/siherrmann/trialmatch/core/pipeline"
	"github.com/siherrmann/trialmatch/database"
	"github.com/siherrmann/trialmatch/helper"
	"github.com/siherrmann/trialmatch/model"
)

// Ranker is the similarity ranking stage. It embeds the patient's query text
// once per run and ranks trials by cosine similarity over their stored
// description embeddings.
type Ranker struct {
	embeddings database.EmbeddingsDBHandlerFunctions
	pipeline   *pipeline.Pipeline
}

// NewRanker creates a new similarity ranker
func NewRanker(embeddings database.EmbeddingsDBHandlerFunctions, pipeline *pipeline.Pipeline) *Ranker {
	return &Ranker{
		embeddings: embeddings,
		pipeline:   pipeline,
	}
}

// Rank returns at most topK trials ordered by descending similarity with
// trial ID as the tie-break, restricted to allowedIDs when the set is
// non-empty. An empty candidate set falls back to searching the full index,
// so a patient outside every trial's demographic bounds still gets ranked
// suggestions rather than none.
//
// Identical profiles against an unchanged index produce identical rankings:
// the query text builder is deterministic and so is the index ordering.
func (r *Ranker) Rank(patient *model.PatientProfile, allowedIDs []string, topK int) ([]*model.MatchCandidate, error) {
	embedding, err := r.pipeline.EmbedPatient(patient)
	if err != nil {
		return nil, helper.NewError("embed patient query", err)
	}

	if len(allowedIDs) == 0 {
		allowedIDs = nil
	}

	candidates, err := r.embeddings.SelectTrialsBySimilarity(embedding, topK, allowedIDs)
	if err != nil {
		return nil, helper.NewError("select trials by similarity", err)
	}

	return candidates, nil
}
