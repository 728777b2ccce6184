package handlers

import (
	"fmt"
	"math/rand"
	"net/url"
	"testing"

	"github.com/petermazzocco/cloud-vault/models"
	"github.com/stretchr/testify/assert"
)

func TestFilter_NoPredicatesKeepsAll(t *testing.T) {
	files := []models.File{{Name: "a"}, {Name: "b"}}
	assert.Equal(t, files, Filter(files))
	assert.Empty(t, Filter(nil, TypeIs(models.TypePhoto)))
}

func TestFilter_ANDSemantics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	categories := []string{models.DefaultCategory, "Work", "Pets"}
	types := []string{models.TypePhoto, models.TypeDocument}

	files := make([]models.File, 200)
	for i := range files {
		files[i] = models.File{
			ID:       uint(i + 1),
			Name:     fmt.Sprintf("file-%d", i),
			Category: categories[rng.Intn(len(categories))],
			Type:     types[rng.Intn(len(types))],
		}
	}

	got := Filter(files, PredicatesFromQuery(url.Values{
		"category": {models.DefaultCategory},
		"type":     {models.TypePhoto},
	})...)

	var want []models.File
	for _, f := range files {
		if f.Category == models.DefaultCategory && f.Type == models.TypePhoto {
			want = append(want, f)
		}
	}
	assert.NotEmpty(t, want)
	assert.Equal(t, want, got)
}

func TestNameContains_CaseSensitive(t *testing.T) {
	p := NameContains("Rep")
	assert.True(t, p(models.File{Name: "Report.pdf"}))
	assert.False(t, p(models.File{Name: "report.pdf"}))
}

func TestPredicatesFromQuery_IgnoresEmpty(t *testing.T) {
	assert.Empty(t, PredicatesFromQuery(url.Values{"search": {""}, "type": {""}}))
	assert.Len(t, PredicatesFromQuery(url.Values{"search": {"x"}, "category": {"y"}, "type": {"z"}}), 3)
}

func TestTotalSize(t *testing.T) {
	assert.Zero(t, TotalSize(nil))
	assert.Equal(t, int64(15), TotalSize([]models.File{{Size: 10}, {Size: 5}, {Size: -3}}))
}
