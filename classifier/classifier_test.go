package classifier

import (
	"testing"

	"customereye/models"
)

func TestClassifier_Classify(t *testing.T) {
	c := New(DefaultTables())

	tests := []struct {
		name           string
		filename       string
		expectSequence int
		expectSection  string
		expectKind     string
		expectName     string
		expectCategory string
	}{
		{
			name:           "rating distribution text",
			filename:       "1_rating_distribution.txt",
			expectSequence: 1,
			expectSection:  models.SectionRatingDistribution,
			expectKind:     models.FileKindText,
			expectName:     "1_rating_distribution.txt",
			expectCategory: "text",
		},
		{
			name:           "wordcloud image",
			filename:       "2_wordcloud.png",
			expectSequence: 2,
			expectSection:  models.SectionOverallWordcloud,
			expectKind:     models.FileKindImage,
			expectName:     "2_overall_wordcloud.png",
			expectCategory: "images",
		},
		{
			name:           "substring match beats sequence fallback",
			filename:       "2_conclusion_notes.txt",
			expectSequence: 2,
			expectSection:  models.SectionConclusion,
			expectKind:     models.FileKindText,
			expectName:     "8_conclusion.txt",
			expectCategory: "text",
		},
		{
			name:           "word_cloud variant",
			filename:       "word_cloud_overall.jpeg",
			expectSequence: SequenceUnknown,
			expectSection:  models.SectionOverallWordcloud,
			expectKind:     models.FileKindImage,
			expectName:     "2_overall_wordcloud.jpeg",
			expectCategory: "images",
		},
		{
			name:           "yearly replies",
			filename:       "3_replies_by_years.json",
			expectSequence: 3,
			expectSection:  models.SectionYearlyReplies,
			expectKind:     models.FileKindJSON,
			expectName:     "3_yearly_replies.json",
			expectCategory: "json",
		},
		{
			name:           "sentiment",
			filename:       "sentiment_breakdown.csv",
			expectSequence: SequenceUnknown,
			expectSection:  models.SectionSentimentAnalysis,
			expectKind:     models.FileKindText,
			expectName:     "4_sentiment_analysis.csv",
			expectCategory: "data",
		},
		{
			name:           "monthly",
			filename:       "5_monthly_breakdown.pdf",
			expectSequence: 5,
			expectSection:  models.SectionMonthlyAnalysis,
			expectKind:     models.FileKindPDF,
			expectName:     "5_monthly_analysis.pdf",
			expectCategory: "documents",
		},
		{
			name:           "common words",
			filename:       "common_words.txt",
			expectSequence: SequenceUnknown,
			expectSection:  models.SectionCommonWords,
			expectKind:     models.FileKindText,
			expectName:     "6_common_words.txt",
			expectCategory: "text",
		},
		{
			name:           "text counts",
			filename:       "7_text_counts.txt",
			expectSequence: 7,
			expectSection:  models.SectionTextCounts,
			expectKind:     models.FileKindText,
			expectName:     "7_text_counts.txt",
			expectCategory: "text",
		},
		{
			name:           "sequence fallback position 1",
			filename:       "1_overview.png",
			expectSequence: 1,
			expectSection:  models.SectionRatingDistribution,
			expectKind:     models.FileKindImage,
			expectName:     "1_rating_distribution.png",
			expectCategory: "images",
		},
		{
			name:           "sequence fallback position 4",
			filename:       "4_final.txt",
			expectSequence: 4,
			expectSection:  models.SectionConclusion,
			expectKind:     models.FileKindText,
			expectName:     "8_conclusion.txt",
			expectCategory: "text",
		},
		{
			name:           "custom analysis stays unchanged",
			filename:       "12_extra_charts.png",
			expectSequence: 12,
			expectSection:  models.SectionCustomAnalysis,
			expectKind:     models.FileKindImage,
			expectName:     "12_extra_charts.png",
			expectCategory: "images",
		},
		{
			name:           "no sequence and no pattern is custom",
			filename:       "notes.txt",
			expectSequence: SequenceUnknown,
			expectSection:  models.SectionCustomAnalysis,
			expectKind:     models.FileKindText,
			expectName:     "notes.txt",
			expectCategory: "text",
		},
		{
			name:           "case insensitive matching",
			filename:       "RATING_Distribution.PNG",
			expectSequence: SequenceUnknown,
			expectSection:  models.SectionRatingDistribution,
			expectKind:     models.FileKindImage,
			expectName:     "1_rating_distribution.png",
			expectCategory: "images",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.filename)
			if got.Sequence != tt.expectSequence {
				t.Errorf("Sequence = %d, want %d", got.Sequence, tt.expectSequence)
			}
			if got.SectionType != tt.expectSection {
				t.Errorf("SectionType = %s, want %s", got.SectionType, tt.expectSection)
			}
			if got.FileKind != tt.expectKind {
				t.Errorf("FileKind = %s, want %s", got.FileKind, tt.expectKind)
			}
			if got.NormalizedName != tt.expectName {
				t.Errorf("NormalizedName = %s, want %s", got.NormalizedName, tt.expectName)
			}
			if got.FileCategory != tt.expectCategory {
				t.Errorf("FileCategory = %s, want %s", got.FileCategory, tt.expectCategory)
			}
		})
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := New(DefaultTables())

	filenames := []string{
		"1_rating_distribution.txt",
		"2_wordcloud.png",
		"random_notes.txt",
		"4_final.txt",
	}
	for _, filename := range filenames {
		first := c.Classify(filename)
		second := c.Classify(filename)
		if first != second {
			t.Errorf("Classify(%q) not deterministic: %+v vs %+v", filename, first, second)
		}
	}
}

// Classifying an already-normalized name must map back to the same section.
func TestClassifier_NormalizationIdempotent(t *testing.T) {
	c := New(DefaultTables())

	inputs := []string{
		"rating_distribution_chart.png",
		"wordcloud.png",
		"yearly_replies.json",
		"my_conclusion.txt",
		"sentiment.txt",
		"monthly.csv",
		"common_words.txt",
		"text_counts.txt",
	}
	for _, filename := range inputs {
		first := c.Classify(filename)
		renormalized := c.Classify(first.NormalizedName)
		if renormalized.SectionType != first.SectionType {
			t.Errorf("reclassifying %q (from %q) changed section: %s -> %s",
				first.NormalizedName, filename, first.SectionType, renormalized.SectionType)
		}
		if renormalized.NormalizedName != first.NormalizedName {
			t.Errorf("reclassifying %q changed normalized name to %q",
				first.NormalizedName, renormalized.NormalizedName)
		}
	}
}

func TestClassifier_InjectedTables(t *testing.T) {
	tables := DefaultTables()
	tables.Patterns = []Pattern{
		{SectionType: models.SectionConclusion, Any: []string{"summary"}},
	}
	c := New(tables)

	got := c.Classify("summary_of_findings.txt")
	if got.SectionType != models.SectionConclusion {
		t.Errorf("SectionType = %s, want %s with substituted tables", got.SectionType, models.SectionConclusion)
	}
}
