package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	cfg := &Config{
		Type: "sensor_pipeline",
		Nodes: []Node{
			{
				Name:          "source",
				Type:          "udp_source",
				OutputStreams: []string{"OUT:raw"},
				Options:       []byte{0x08, 0x01},
			},
			{
				Name:             "doubler",
				Type:             "doubler",
				InputStreams:     []string{"IN:raw"},
				OutputStreams:    []string{"OUT:doubled"},
				InputSidePackets: []string{"SCALE:scale"},
			},
		},
		InputStreams:  []string{"control"},
		OutputStreams: []string{"doubled"},
		SidePackets:   []string{"scale"},
	}

	decoded, err := Unmarshal(Marshal(cfg))
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)
}

func TestMarshalEmptyConfig(t *testing.T) {
	decoded, err := Unmarshal(Marshal(&Config{}))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, decoded)
}

func TestUnmarshalCorruptBytes(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0xff})
	assert.Error(t, err)
}

func TestParseConnection(t *testing.T) {
	cases := []struct {
		entry string
		want  Connection
	}{
		{"raw", Connection{Name: "raw"}},
		{"IN:raw", Connection{Tag: "IN", Name: "raw"}},
		{"IN:2:raw", Connection{Tag: "IN", Index: 2, Name: "raw"}},
		{"VIDEO_1:frames", Connection{Tag: "VIDEO_1", Name: "frames"}},
	}
	for _, tc := range cases {
		t.Run(tc.entry, func(t *testing.T) {
			got, err := ParseConnection(tc.entry)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.entry, got.String())
		})
	}
}

func TestParseConnectionErrors(t *testing.T) {
	for _, entry := range []string{"", "in:raw", "IN:", "IN:x:raw", "IN:-1:raw", "A:B:C:D"} {
		t.Run(entry, func(t *testing.T) {
			_, err := ParseConnection(entry)
			assert.Error(t, err)
		})
	}
}
