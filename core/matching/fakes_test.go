package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/siherrmann/trialmatch/model"
)

// fakeTrialStore is an in-memory stand-in for the trials handler.
type fakeTrialStore struct {
	trials map[string]*model.TrialRecord
}

func newFakeTrialStore(records ...*model.TrialRecord) *fakeTrialStore {
	store := &fakeTrialStore{trials: map[string]*model.TrialRecord{}}
	for _, record := range records {
		store.trials[record.TrialID] = record
	}
	return store
}

func (s *fakeTrialStore) UpsertTrials(records []*model.TrialRecord) error {
	for _, record := range records {
		if record.TrialID == "" {
			continue
		}
		s.trials[record.TrialID] = record
	}
	return nil
}

func (s *fakeTrialStore) SelectTrial(trialID string) (*model.TrialRecord, error) {
	trial, ok := s.trials[trialID]
	if !ok {
		return nil, fmt.Errorf("trial %s not found", trialID)
	}
	return trial, nil
}

func (s *fakeTrialStore) SelectTrialCount() (int, error) {
	return len(s.trials), nil
}

func (s *fakeTrialStore) SelectCandidateTrialIDs(ageMonths *int, sex model.Sex, limit int) ([]string, error) {
	var trialIDs []string
	for _, trial := range s.trials {
		if trial.Sex != model.SexAll && trial.Sex != sex {
			continue
		}
		if ageMonths != nil && trial.MinimumAgeMonths != nil && *trial.MinimumAgeMonths > *ageMonths {
			continue
		}
		if ageMonths != nil && trial.MaximumAgeMonths != nil && *trial.MaximumAgeMonths < *ageMonths {
			continue
		}
		trialIDs = append(trialIDs, trial.TrialID)
	}
	sort.Strings(trialIDs)
	if len(trialIDs) > limit {
		trialIDs = trialIDs[:limit]
	}
	return trialIDs, nil
}

func (s *fakeTrialStore) DeleteTrial(trialID string) error {
	delete(s.trials, trialID)
	return nil
}

// fakeIndex is an in-memory stand-in for the similarity index.
type fakeIndex struct {
	embeddings map[string][]float32
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{embeddings: map[string][]float32{}}
}

func (idx *fakeIndex) UpsertTrialEmbedding(trialID string, embedding []float32) error {
	idx.embeddings[trialID] = embedding
	return nil
}

func (idx *fakeIndex) IndexedCount() (int, error) {
	return len(idx.embeddings), nil
}

func (idx *fakeIndex) SelectTrialsBySimilarity(embedding []float32, limit int, allowedIDs []string) ([]*model.MatchCandidate, error) {
	if allowedIDs != nil && len(allowedIDs) == 0 {
		return []*model.MatchCandidate{}, nil
	}

	allowed := map[string]bool{}
	for _, trialID := range allowedIDs {
		allowed[trialID] = true
	}

	var candidates []*model.MatchCandidate
	for trialID, stored := range idx.embeddings {
		if allowedIDs != nil && !allowed[trialID] {
			continue
		}
		candidates = append(candidates, &model.MatchCandidate{
			TrialID:         trialID,
			SimilarityScore: cosine(embedding, stored),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].SimilarityScore != candidates[j].SimilarityScore {
			return candidates[i].SimilarityScore > candidates[j].SimilarityScore
		}
		return candidates[i].TrialID < candidates[j].TrialID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (idx *fakeIndex) DeleteTrialEmbedding(trialID string) error {
	delete(idx.embeddings, trialID)
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// scriptedClient returns canned evaluator responses in order, then keeps
// returning the last one. It counts calls for retry assertions.
type scriptedClient struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
}

type scriptedResponse struct {
	text string
	err  error
}

func (c *scriptedClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := c.calls
	if index >= len(c.responses) {
		index = len(c.responses) - 1
	}
	c.calls++

	response := c.responses[index]
	return response.text, response.err
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// verdictClient answers every prompt with the same decision. Safe for
// concurrent adjudication.
type verdictClient struct {
	decision model.Decision
}

func (c *verdictClient) Generate(ctx context.Context, prompt string) (string, error) {
	return fmt.Sprintf(`{"decision": %q, "rationale": "scripted"}`, c.decision), nil
}
