package komposition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTripsUnknownTopLevelKeys(t *testing.T) {
	input := []byte(`{
		"metadata": {"title": "t", "bpm": 120, "totalBeats": 64, "estimatedDuration": 32},
		"segments": [{"id": "seg_1", "sourceRef": "file_1", "musical_role": "intro", "params": {"start": 0, "duration": 4}}],
		"vendor_extension": {"producer": "some-other-tool", "version": 3}
	}`)

	var doc Document
	require.NoError(t, json.Unmarshal(input, &doc))
	require.Equal(t, "t", doc.Metadata.Title)
	require.Contains(t, doc.Extra, "vendor_extension")

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	var roundTripped map[string]any
	require.NoError(t, json.Unmarshal(out, &roundTripped))
	require.Contains(t, roundTripped, "vendor_extension")
}

func TestDocumentMarshalWithoutExtraOmitsNoKnownFields(t *testing.T) {
	doc := Document{
		Metadata: Metadata{Title: "t", BPM: 120, TotalBeats: 64, EstimatedDuration: 32},
		Segments: []Segment{{ID: "seg_1", SourceRef: "file_1", MusicalRole: RoleIntro, Params: SegmentParams{Duration: 4}}},
	}
	out, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, doc.Metadata, decoded.Metadata)
	require.Empty(t, decoded.Extra)
}
