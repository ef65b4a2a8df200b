package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() model.AnalyzeRequest {
	return model.AnalyzeRequest{
		ContractText: "1. Arbitration. Disputes shall be resolved exclusively by binding arbitration.",
		ContractType: model.ContractToS,
		Jurisdiction: model.JurisdictionUSGeneral,
		Persona:      model.PersonaUser,
		ModelID:      "gpt-4o-mini",
	}
}

func TestAnalysisKey(t *testing.T) {
	base := sampleRequest()
	key := AnalysisKey(base)

	assert.True(t, strings.HasPrefix(key, "clauselens:v1:"))
	assert.Equal(t, key, AnalysisKey(base), "key must be deterministic")

	variants := []func(*model.AnalyzeRequest){
		func(r *model.AnalyzeRequest) { r.ModelID = "gpt-4o" },
		func(r *model.AnalyzeRequest) { r.ContractType = model.ContractNDA },
		func(r *model.AnalyzeRequest) { r.Jurisdiction = model.JurisdictionCA },
		func(r *model.AnalyzeRequest) { r.Persona = model.PersonaCompany },
		func(r *model.AnalyzeRequest) { r.ContractText += " Amended." },
	}
	for i, mutate := range variants {
		r := base
		mutate(&r)
		assert.NotEqual(t, key, AnalysisKey(r), "variant %d must change the key", i)
	}
}

func TestAnalysisKey_FieldBoundaries(t *testing.T) {
	a := model.AnalyzeRequest{ModelID: "ab", ContractType: "c"}
	b := model.AnalyzeRequest{ModelID: "a", ContractType: "bc"}
	assert.NotEqual(t, AnalysisKey(a), AnalysisKey(b))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("payload")
	require.NoError(t, c.Set("k", value, 0))
	value[0] = 'X'

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "payload", string(got), "cache must store a copy")

	got[0] = 'Y'
	again, _ := c.Get("k")
	assert.Equal(t, "payload", string(again), "cache must return a copy")
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := AnalysisKey(sampleRequest())

	require.NoError(t, c.Set(key, []byte("payload"), 0))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not remain")
	assert.NotContains(t, entries[0].Name(), ":")

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "deleting a missing key is not an error")
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), time.Minute))

	now = now.Add(2 * time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)

	_, err := os.Stat(c.path("k"))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed")
}

func TestDiskCache_Corrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.cache"), []byte("{not json"), 0o644))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	// A value only present on disk, as after a restart
	require.NoError(t, c.disk.Set("k", []byte("v"), 0))
	_, inMemory := c.memory.Get("k")
	require.False(t, inMemory)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	_, inMemory = c.memory.Get("k")
	assert.True(t, inMemory, "disk hit should be promoted")
}

func TestLayeredCache_DeleteAndClear(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Set("b", []byte("2"), 0))

	require.NoError(t, c.Delete("a"))
	_, ok := c.Get("a")
	assert.False(t, ok)

	require.NoError(t, c.Clear())
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestEntryRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := AnalysisKey(sampleRequest())

	entry := &Entry{
		Analysis: model.AnalysisResult{
			Overall: model.Overall{RiskScore: 70, RiskLevel: model.RiskHigh},
			Clauses: []model.Clause{{ID: "arb", Title: "Arbitration", Risk: model.RiskHigh}},
		},
		Metrics:  model.Metrics{ModelUsed: "gpt-4o-mini", RetryCount: 1},
		Warnings: []string{"clauses[0].pushback: min"},
	}
	require.NoError(t, PutEntry(c, key, entry, 0))

	got, ok := GetEntry(c, key)
	require.True(t, ok)
	assert.Equal(t, entry.Analysis.Clauses[0].Title, got.Analysis.Clauses[0].Title)
	assert.Equal(t, 1, got.Metrics.RetryCount)
	assert.Equal(t, entry.Warnings, got.Warnings)

	require.NoError(t, c.Set("bad", []byte("nope"), 0))
	_, ok = GetEntry(c, "bad")
	assert.False(t, ok)
}
