package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/commandcore/core"
)

func TestMergeSourceInfoPlaceholdersReplaced(t *testing.T) {
	provided := core.SourceInfo{
		Title:           "Untitled Document",
		Author:          "Unknown Author",
		PublicationDate: "2023-01-01",
	}
	extracted := core.SourceInfo{
		Title:           "Hypervisor Internals",
		Author:          "R. Chen",
		PublicationDate: "2024-06-12",
	}

	merged := MergeSourceInfo(provided, extracted)
	assert.Equal(t, "Hypervisor Internals", merged.Title)
	assert.Equal(t, "R. Chen", merged.Author)
	assert.Equal(t, "2024-06-12", merged.PublicationDate)
}

func TestMergeSourceInfoRealValuesWin(t *testing.T) {
	provided := core.SourceInfo{
		Title:           "KVM Tuning Guide",
		Author:          "Ops Team",
		PublicationDate: "2025-01-30",
	}
	extracted := core.SourceInfo{
		Title:           "document1",
		Author:          "scanner",
		PublicationDate: "2020-01-01",
	}

	merged := MergeSourceInfo(provided, extracted)
	assert.Equal(t, provided, merged)
}

func TestMergeSourceInfoEmptyExtractionKeepsPlaceholders(t *testing.T) {
	provided := core.SourceInfo{
		Title:           "Unknown",
		Author:          "Unknown",
		PublicationDate: "2023-01-01",
	}

	merged := MergeSourceInfo(provided, core.SourceInfo{})
	assert.Equal(t, provided, merged)
}

func TestMergeSourceInfoPartial(t *testing.T) {
	provided := core.SourceInfo{
		Title:           "Untitled Document",
		Author:          "J. Doe",
		PublicationDate: "2023-01-01",
	}
	extracted := core.SourceInfo{
		Title:  "Cloud Cost Report",
		Author: "should not be used",
	}

	merged := MergeSourceInfo(provided, extracted)
	assert.Equal(t, "Cloud Cost Report", merged.Title)
	assert.Equal(t, "J. Doe", merged.Author)
	assert.Equal(t, "2023-01-01", merged.PublicationDate)
}

func TestMergeSourceInfoIdempotent(t *testing.T) {
	provided := core.SourceInfo{Title: "Untitled Document", Author: "", PublicationDate: ""}
	extracted := core.SourceInfo{Title: "Edge Networking", Author: "N. Okafor", PublicationDate: "2024-02-02"}

	once := MergeSourceInfo(provided, extracted)
	twice := MergeSourceInfo(once, extracted)
	assert.Equal(t, once, twice)
}

func TestMergeSourceInfoPreservesOtherFields(t *testing.T) {
	provided := core.SourceInfo{
		Title:           "Unknown",
		URL:             "https://example.com/doc",
		AdditionalNotes: "uploaded via batch import",
		Classification:  "internal",
	}
	extracted := core.SourceInfo{Title: "Batch Doc"}

	merged := MergeSourceInfo(provided, extracted)
	assert.Equal(t, "Batch Doc", merged.Title)
	assert.Equal(t, "https://example.com/doc", merged.URL)
	assert.Equal(t, "uploaded via batch import", merged.AdditionalNotes)
	assert.Equal(t, "internal", merged.Classification)
}
