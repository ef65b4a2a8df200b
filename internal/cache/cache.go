// Package cache stores LLM analyses so identical requests are answered
// without a second provider call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/clauselens/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped whenever the cached analysis format changes
const keyPrefix = "clauselens:v1:"

// AnalysisKey derives the cache key of one analyze request. Every input
// that changes the model output participates in the hash.
func AnalysisKey(req model.AnalyzeRequest) string {
	h := sha256.New()
	for _, part := range []string{
		req.ModelID,
		string(req.ContractType),
		string(req.Jurisdiction),
		string(req.Persona),
		req.ContractText,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Entry is a cached analysis together with the metrics of the call that produced it
type Entry struct {
	Analysis model.AnalysisResult `json:"analysis"`
	Metrics  model.Metrics        `json:"metrics"`
	Warnings []string             `json:"warnings,omitempty"`
}

// GetEntry loads and decodes a cached analysis. Undecodable entries count as misses.
func GetEntry(c Cache, key string) (*Entry, bool) {
	data, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	return &e, true
}

// PutEntry encodes and stores an analysis
func PutEntry(c Cache, key string, e *Entry, ttl time.Duration) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return c.Set(key, data, ttl)
}
