package climate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/climate-viewer/internal/daterange"
)

func TestParseCoordinates(t *testing.T) {
	c, err := ParseCoordinates(" 52.52 , 13.405 ")
	require.NoError(t, err)

	assert.Equal(t, 52.52, c.Lat)
	assert.Equal(t, 13.405, c.Lon)
	assert.Equal(t, "52.52", c.LatText)
	assert.Equal(t, "13.405", c.LonText)
}

func TestParseCoordinates_Malformed(t *testing.T) {
	for _, in := range []string{"", "52.52", "52.52,13.4,7", "north,13.4", "52.52,east", "95,10", "NaN,NaN", "nan,13.4", "52.52,+Inf"} {
		_, err := ParseCoordinates(in)
		var fe *daterange.FormatError
		assert.ErrorAs(t, err, &fe, "input %q", in)
	}
}
