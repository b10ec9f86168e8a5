// Package search ranks a folder of plain-text documents against free-text
// queries using TF-IDF weighting and cosine similarity. It is independent of
// the graph engine and loads its corpus once at construction.
package search

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Metadata describes one document, read from a sibling <name>.meta.json file
// when present.
type Metadata struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}

// Result is one ranked match for a query.
type Result struct {
	Filename   string
	Similarity float64
	Snippet    string
	Metadata   Metadata
}

// DocumentInfo describes a document in the library listing.
type DocumentInfo struct {
	Filename string
	Metadata Metadata
}

// Engine holds the vectorized corpus.
type Engine struct {
	names    []string
	contents []string
	metadata map[string]Metadata
	idf      map[string]float64
	vectors  []map[string]float64
}

// NewEngine loads every .txt file under dir, reads optional metadata, and
// builds TF-IDF vectors.
func NewEngine(dir string) (*Engine, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read library dir: %w", err)
	}

	e := &Engine{metadata: make(map[string]Metadata)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read document %q: %w", entry.Name(), err)
		}
		e.names = append(e.names, entry.Name())
		e.contents = append(e.contents, string(raw))
		e.metadata[entry.Name()] = loadMetadata(dir, entry.Name())
	}

	e.vectorize()
	return e, nil
}

func loadMetadata(dir, name string) Metadata {
	metaPath := filepath.Join(dir, strings.TrimSuffix(name, ".txt")+".meta.json")
	raw, err := os.ReadFile(metaPath)
	if err == nil {
		var meta Metadata
		if json.Unmarshal(raw, &meta) == nil {
			return meta
		}
	}
	return Metadata{Title: name, Author: "unknown", Tags: []string{}}
}

// vectorize computes inverse document frequencies and a normalized TF-IDF
// vector per document.
func (e *Engine) vectorize() {
	docFreq := make(map[string]int)
	termCounts := make([]map[string]int, len(e.contents))
	for i, content := range e.contents {
		counts := make(map[string]int)
		for _, token := range tokenize(content) {
			counts[token]++
		}
		termCounts[i] = counts
		for term := range counts {
			docFreq[term]++
		}
	}

	n := float64(len(e.contents))
	e.idf = make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		// Smoothed IDF keeps terms that appear everywhere from zeroing out.
		e.idf[term] = math.Log((1+n)/(1+float64(df))) + 1
	}

	e.vectors = make([]map[string]float64, len(termCounts))
	for i, counts := range termCounts {
		vec := make(map[string]float64, len(counts))
		var norm float64
		for term, count := range counts {
			w := float64(count) * e.idf[term]
			vec[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		e.vectors[i] = vec
	}
}

// Search returns up to topN documents ranked by cosine similarity to the
// query. Documents with zero similarity are omitted.
func (e *Engine) Search(query string, topN int) []Result {
	queryVec := e.queryVector(query)

	type scored struct {
		index      int
		similarity float64
	}
	var matches []scored
	for i, vec := range e.vectors {
		var sim float64
		for term, w := range queryVec {
			sim += w * vec[term]
		}
		if sim > 0 {
			matches = append(matches, scored{index: i, similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})
	if topN > 0 && len(matches) > topN {
		matches = matches[:topN]
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		name := e.names[m.index]
		results = append(results, Result{
			Filename:   name,
			Similarity: m.similarity,
			Snippet:    e.snippet(m.index, query, 40),
			Metadata:   e.metadata[name],
		})
	}
	return results
}

// ListDocuments returns every loaded document with its metadata.
func (e *Engine) ListDocuments() []DocumentInfo {
	docs := make([]DocumentInfo, 0, len(e.names))
	for _, name := range e.names {
		docs = append(docs, DocumentInfo{Filename: name, Metadata: e.metadata[name]})
	}
	return docs
}

func (e *Engine) queryVector(query string) map[string]float64 {
	counts := make(map[string]int)
	for _, token := range tokenize(query) {
		counts[token]++
	}

	vec := make(map[string]float64, len(counts))
	var norm float64
	for term, count := range counts {
		idf, ok := e.idf[term]
		if !ok {
			continue
		}
		w := float64(count) * idf
		vec[term] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for term := range vec {
			vec[term] /= norm
		}
	}
	return vec
}

// snippet extracts a context window around the first occurrence of the query
// in the document, or returns an empty string if the exact phrase is absent.
func (e *Engine) snippet(index int, query string, window int) string {
	content := strings.ToLower(e.contents[index])
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return ""
	}

	pos := strings.Index(content, query)
	if pos < 0 {
		return ""
	}

	start := pos - window
	if start < 0 {
		start = 0
	}
	end := pos + len(query) + window
	if end > len(content) {
		end = len(content)
	}
	return strings.TrimSpace(content[start:end])
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; !skip {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
