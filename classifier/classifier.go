package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"customereye/models"
)

// SequenceUnknown ranks a file last in any sequence-based ordering when its
// name carries no numeric prefix.
const SequenceUnknown = 999

var leadingDigits = regexp.MustCompile(`^\d+`)

// Pattern maps filename substrings to a section type. The filename matches
// when it contains every entry of All, or any entry of Any.
type Pattern struct {
	SectionType string
	All         []string
	Any         []string
}

// Tables holds every lookup the classifier consults. Injected so tests and
// alternate deployments can substitute mappings without package-level state.
type Tables struct {
	// ImageExtensions lists lower-cased extensions that classify as IMAGE.
	ImageExtensions map[string]bool
	// DataExtensions lists extensions routed to the "data" storage category
	// while still classifying as TEXT.
	DataExtensions map[string]bool
	// Patterns are tried in order against the lower-cased filename; first
	// match wins.
	Patterns []Pattern
	// PositionSections is the fallback mapping from leading sequence number
	// to section type when no pattern matches.
	PositionSections map[int]string
	// CanonicalOrder is the fixed, total ordering of section types used for
	// section derivation and normalized filenames.
	CanonicalOrder []string
	// Titles maps section types to display titles.
	Titles map[string]string
	// CanonicalNames maps section types to the name stem used when
	// normalizing filenames.
	CanonicalNames map[string]string
}

// DefaultTables returns the production classification tables.
func DefaultTables() Tables {
	return Tables{
		ImageExtensions: map[string]bool{
			"png": true, "jpg": true, "jpeg": true, "gif": true,
			"svg": true, "webp": true, "bmp": true,
		},
		DataExtensions: map[string]bool{
			"csv": true, "tsv": true, "xlsx": true,
		},
		Patterns: []Pattern{
			{SectionType: models.SectionRatingDistribution, All: []string{"rating", "distribution"}},
			{SectionType: models.SectionOverallWordcloud, Any: []string{"wordcloud", "word_cloud"}},
			{SectionType: models.SectionYearlyReplies, Any: []string{"yearly", "replies", "years"}},
			{SectionType: models.SectionConclusion, Any: []string{"conclusion"}},
			{SectionType: models.SectionSentimentAnalysis, Any: []string{"sentiment"}},
			{SectionType: models.SectionMonthlyAnalysis, Any: []string{"monthly"}},
			{SectionType: models.SectionCommonWords, All: []string{"common", "words"}},
			{SectionType: models.SectionTextCounts, All: []string{"text", "counts"}},
		},
		PositionSections: map[int]string{
			1: models.SectionRatingDistribution,
			2: models.SectionOverallWordcloud,
			3: models.SectionYearlyReplies,
			4: models.SectionConclusion,
		},
		CanonicalOrder: []string{
			models.SectionRatingDistribution,
			models.SectionOverallWordcloud,
			models.SectionYearlyReplies,
			models.SectionSentimentAnalysis,
			models.SectionMonthlyAnalysis,
			models.SectionCommonWords,
			models.SectionTextCounts,
			models.SectionConclusion,
			models.SectionCustomAnalysis,
		},
		Titles: map[string]string{
			models.SectionRatingDistribution: "Rating Distribution",
			models.SectionOverallWordcloud:   "Overall Word Cloud",
			models.SectionYearlyReplies:      "Yearly Replies",
			models.SectionSentimentAnalysis:  "Sentiment Analysis",
			models.SectionMonthlyAnalysis:    "Monthly Analysis",
			models.SectionCommonWords:        "Common Words",
			models.SectionTextCounts:         "Text Counts",
			models.SectionConclusion:         "Conclusion",
			models.SectionCustomAnalysis:     "Custom Analysis",
		},
		CanonicalNames: map[string]string{
			models.SectionRatingDistribution: "rating_distribution",
			models.SectionOverallWordcloud:   "overall_wordcloud",
			models.SectionYearlyReplies:      "yearly_replies",
			models.SectionSentimentAnalysis:  "sentiment_analysis",
			models.SectionMonthlyAnalysis:    "monthly_analysis",
			models.SectionCommonWords:        "common_words",
			models.SectionTextCounts:         "text_counts",
			models.SectionConclusion:         "conclusion",
		},
	}
}

// Classification is the result of classifying one filename.
type Classification struct {
	Sequence       int
	SectionType    string
	FileKind       string
	NormalizedName string
	FileCategory   string
}

// Classifier maps uploaded filenames to semantic report sections. It is a
// pure classifier; identical input always yields identical output.
type Classifier struct {
	tables Tables
}

// New creates a classifier backed by the given tables.
func New(tables Tables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify tags a single filename with its sequence, section type, file
// kind, normalized name and storage category.
func (c *Classifier) Classify(filename string) Classification {
	lower := strings.ToLower(filename)
	ext := extension(lower)

	kind := c.fileKind(ext)
	category := c.fileCategory(ext, kind)
	seq := c.sequence(lower)

	section := c.sectionByPattern(lower)
	if section == "" {
		section = c.sectionByPosition(seq)
	}

	return Classification{
		Sequence:       seq,
		SectionType:    section,
		FileKind:       kind,
		NormalizedName: c.normalizedName(filename, ext, section),
		FileCategory:   category,
	}
}

// Title returns the display title for a section type.
func (c *Classifier) Title(sectionType string) string {
	if title, ok := c.tables.Titles[sectionType]; ok {
		return title
	}
	return sectionType
}

// CanonicalOrder returns the fixed section ordering.
func (c *Classifier) CanonicalOrder() []string {
	return c.tables.CanonicalOrder
}

func (c *Classifier) fileKind(ext string) string {
	switch {
	case c.tables.ImageExtensions[ext]:
		return models.FileKindImage
	case ext == "json":
		return models.FileKindJSON
	case ext == "pdf":
		return models.FileKindPDF
	default:
		return models.FileKindText
	}
}

func (c *Classifier) fileCategory(ext, kind string) string {
	switch kind {
	case models.FileKindImage:
		return "images"
	case models.FileKindJSON:
		return "json"
	case models.FileKindPDF:
		return "documents"
	default:
		if c.tables.DataExtensions[ext] {
			return "data"
		}
		return "text"
	}
}

func (c *Classifier) sequence(lower string) int {
	prefix := leadingDigits.FindString(lower)
	if prefix == "" {
		return SequenceUnknown
	}
	seq, err := strconv.Atoi(prefix)
	if err != nil {
		return SequenceUnknown
	}
	return seq
}

func (c *Classifier) sectionByPattern(lower string) string {
	for _, p := range c.tables.Patterns {
		if matches(lower, p) {
			return p.SectionType
		}
	}
	return ""
}

func (c *Classifier) sectionByPosition(seq int) string {
	if section, ok := c.tables.PositionSections[seq]; ok {
		return section
	}
	return models.SectionCustomAnalysis
}

// normalizedName produces "{canonical-index}_{canonical-name}.{ext}" for
// known section types and leaves custom files untouched.
func (c *Classifier) normalizedName(original, ext, section string) string {
	stem, ok := c.tables.CanonicalNames[section]
	if !ok {
		return original
	}
	idx := c.canonicalIndex(section)
	if idx == 0 {
		return original
	}
	if ext == "" {
		return fmt.Sprintf("%d_%s", idx, stem)
	}
	return fmt.Sprintf("%d_%s.%s", idx, stem, ext)
}

// canonicalIndex is the 1-based rank of a section type in the canonical
// ordering, or 0 when unknown.
func (c *Classifier) canonicalIndex(section string) int {
	for i, s := range c.tables.CanonicalOrder {
		if s == section {
			return i + 1
		}
	}
	return 0
}

func matches(lower string, p Pattern) bool {
	if len(p.All) > 0 {
		for _, sub := range p.All {
			if !strings.Contains(lower, sub) {
				return false
			}
		}
		return true
	}
	for _, sub := range p.Any {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func extension(lower string) string {
	idx := strings.LastIndex(lower, ".")
	if idx < 0 || idx == len(lower)-1 {
		return ""
	}
	return lower[idx+1:]
}
