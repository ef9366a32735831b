// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema defines the one bmindex document layout (spec.md
// §4.A) and registers the CJK-aware analyzer that both the Index
// Store's writer and its readers must share.
package schema

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"bmindex/pkg/tokenize"
)

// AnalyzerName is the single registered name writers and readers must
// both reference; a mismatch between the two is a fatal startup
// condition (spec.md §4.A), which is why BuildMapping is the only
// place either path is allowed to construct a mapping.
const AnalyzerName = "bmindex_cjk"

// Field boosts applied at query time by the Searcher (§4.F); the
// mapping itself carries no boost, it only says what's indexed.
const (
	BoostURL     = 1.5
	BoostTitle   = 3.0
	BoostContent = 1.0
)

// Document is the one schema-version document bmindex indexes and
// retrieves, matching the field table of spec.md §4.A.
type Document struct {
	ID             string  `json:"id"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	FolderPath     []string `json:"folder_path"`
	Domain         string  `json:"domain"`
	DateAdded      float64 `json:"date_added"`
	DateModified   float64 `json:"date_modified"`
	ContentType    string  `json:"content_type"`
	PageCount      int     `json:"page_count,omitempty"`
	PageOffsets    []int   `json:"page_offsets,omitempty"`
}

var registerOnce sync.Once
var registerErr error

// RegisterAnalyzers installs the CJK-aware analyzer into bleve's
// global registry. It is idempotent and safe to call from every
// package that opens an index; the underlying registration happens
// exactly once per process.
func RegisterAnalyzers() error {
	registerOnce.Do(func() {
		registerErr = registry.RegisterAnalyzer(AnalyzerName, analyzerConstructor)
		if registerErr != nil {
			// A second registration under the same name with a
			// different constructor would silently produce writer/reader
			// skew; spec.md §4.A calls that a fatal startup condition.
			panic(fmt.Sprintf("bmindex: analyzer %q registration failed: %v", AnalyzerName, registerErr))
		}
	})
	return registerErr
}

func analyzerConstructor(_ map[string]interface{}, _ *registry.Cache) (*analysis.Analyzer, error) {
	return &analysis.Analyzer{
		Tokenizer: cjkTokenizer{},
	}, nil
}

// cjkTokenizer adapts tokenize.Tokenize to bleve's analysis.Tokenizer
// extension point.
type cjkTokenizer struct{}

func (cjkTokenizer) Tokenize(input []byte) analysis.TokenStream {
	toks := tokenize.Tokenize(string(input))
	stream := make(analysis.TokenStream, 0, len(toks))
	for _, t := range toks {
		stream = append(stream, &analysis.Token{
			Term:     []byte(t.Term),
			Start:    t.Start,
			End:      t.End,
			Position: t.Position + 1, // bleve positions are 1-based
			Type:     analysis.Ideographic,
		})
	}
	return stream
}

// BuildMapping constructs the single bmindex index mapping. It must be
// called after RegisterAnalyzers so AnalyzerName resolves.
func BuildMapping() (*mapping.IndexMapping, error) {
	if err := RegisterAnalyzers(); err != nil {
		return nil, err
	}

	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = AnalyzerName
	im.TypeField = "_type"

	doc := bleve.NewDocumentStaticMapping()

	doc.AddFieldMappingsAt("id", keywordField())
	doc.AddFieldMappingsAt("url", urlField())
	doc.AddFieldMappingsAt("title", textField(AnalyzerName))
	doc.AddFieldMappingsAt("content", textField(AnalyzerName))
	doc.AddFieldMappingsAt("folder_path", keywordField())
	doc.AddFieldMappingsAt("domain", keywordField())
	doc.AddFieldMappingsAt("content_type", keywordField())

	doc.AddFieldMappingsAt("date_added", numericField(true))
	doc.AddFieldMappingsAt("date_modified", numericField(true))
	doc.AddFieldMappingsAt("page_count", numericField(false))
	doc.AddFieldMappingsAt("page_offsets", numericField(false))

	im.DefaultMapping = doc
	return im, nil
}

func keywordField() *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = keywordAnalyzer
	f.Store = true
	f.Index = true
	f.IncludeInAll = false
	return f
}

// urlField lowercases and splits on non-alphanumeric boundaries the
// same way Latin runs are handled in the CJK analyzer, since URLs are
// effectively Latin/numeric text (spec.md §4.A).
func urlField() *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = AnalyzerName
	f.Store = true
	f.Index = true
	return f
}

func textField(analyzerName string) *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = analyzerName
	f.Store = true
	f.Index = true
	return f
}

func numericField(indexed bool) *mapping.FieldMapping {
	f := bleve.NewNumericFieldMapping()
	f.Store = true
	f.Index = indexed
	f.IncludeInAll = false
	return f
}

const keywordAnalyzer = "keyword"
