package tool

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsCloneIndependent(t *testing.T) {
	s := Settings{
		"quality": IntValue(85),
		"tags":    MapValue(Settings{"keep": BoolValue(true)}),
	}
	clone := s.Clone()
	require.True(t, s.Equal(clone))

	clone["quality"] = IntValue(10)
	clone["tags"].Map["keep"] = BoolValue(false)

	assert.Equal(t, int64(85), s["quality"].Int, "mutating the clone must not affect the original")
	assert.True(t, s["tags"].Map["keep"].Bool)
}

func TestSettingsEqual(t *testing.T) {
	a := Settings{"x": IntValue(1), "y": StringValue("a")}
	b := Settings{"x": IntValue(1), "y": StringValue("a")}
	c := Settings{"x": IntValue(2), "y": StringValue("a")}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(Settings{"x": IntValue(1)}))
}

func TestSettingsAccessors(t *testing.T) {
	s := Settings{
		"enabled": BoolValue(true),
		"count":   IntValue(42),
		"ratio":   FloatValue(0.5),
		"name":    StringValue("watermark"),
	}
	assert.True(t, s.Bool("enabled", false))
	assert.False(t, s.Bool("missing", false))
	assert.Equal(t, int64(42), s.Int("count", 0))
	assert.Equal(t, 0.5, s.Float("ratio", 0))
	assert.Equal(t, "watermark", s.String("name", ""))
	assert.Equal(t, "fallback", s.String("missing", "fallback"))
}

func TestSettingsXMLRoundTrip(t *testing.T) {
	original := Settings{
		"quality": IntValue(90),
		"sharpen": BoolValue(false),
		"label":   StringValue("batch-1"),
		"scale":   FloatValue(1.5),
		"nested":  MapValue(Settings{"inner": BoolValue(true)}),
	}

	type wrapper struct {
		XMLName  xml.Name `xml:"tool"`
		Settings Settings `xml:"settings"`
	}

	out, err := xml.Marshal(wrapper{Settings: original})
	require.NoError(t, err)

	var decoded wrapper
	require.NoError(t, xml.Unmarshal(out, &decoded))

	assert.True(t, original.Equal(decoded.Settings), "settings must survive an XML round-trip unchanged")
}

func TestSettingsXMLUnknownRoundTrips(t *testing.T) {
	raw := []byte(`<tool><settings><entry key="future" type="vector3"><x>1</x><y>2</y><z>3</z></entry></settings></tool>`)

	type wrapper struct {
		XMLName  xml.Name `xml:"tool"`
		Settings Settings `xml:"settings"`
	}
	var decoded wrapper
	require.NoError(t, xml.Unmarshal(raw, &decoded))
	require.Contains(t, decoded.Settings, "future")
	assert.Equal(t, KindUnknown, decoded.Settings["future"].Kind)

	out, err := xml.Marshal(decoded)
	require.NoError(t, err)

	var roundTripped wrapper
	require.NoError(t, xml.Unmarshal(out, &roundTripped))
	assert.True(t, decoded.Settings.Equal(roundTripped.Settings))
}
