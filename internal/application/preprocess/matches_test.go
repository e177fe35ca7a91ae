package preprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

const labelTable = "\ufeffcode,pollutant,label\n" +
	"CWW_1,NOx,1\n" +
	"CWW_2,NOx,0\n" +
	"LCP_1,NOx,1.0\n" +
	"LCP_1,Mercury,1\n" +
	"CWW_1,Dust,0\n" +
	",,\n"

func TestReadMatches(t *testing.T) {
	m, err := ReadMatches(strings.NewReader(labelTable))
	require.NoError(t, err)

	assert.Equal(t, 5, m.Rows())
	assert.Equal(t, []string{"NOx", "Mercury", "Dust"}, m.Pollutants())
	assert.True(t, m.Has("NOx", "CWW_1"))
	assert.False(t, m.Has("NOx", "CWW_2"))
	assert.False(t, m.Has("Unknown", "CWW_1"))
	assert.Equal(t, []string{"CWW_1", "LCP_1"}, m.Codes("NOx"))
	assert.Empty(t, m.Codes("Dust"))
	assert.Equal(t, 2, m.Count("NOx"))
	assert.Equal(t, []string{"NOx", "Mercury"}, m.PollutantsFor("LCP_1"))
	assert.Nil(t, m.PollutantsFor("CWW_2"))
}

func TestMatches_Top(t *testing.T) {
	m, err := ReadMatches(strings.NewReader(labelTable))
	require.NoError(t, err)

	assert.Equal(t, []PollutantCount{{"NOx", 2}, {"Mercury", 1}, {"Dust", 0}}, m.Top(10))
	assert.Equal(t, []PollutantCount{{"NOx", 2}}, m.Top(1))
}

func TestReadMatches_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code apperrors.ErrorCode
	}{
		{"empty", "", apperrors.ErrCodeDecodeFailed},
		{"missing column", "code,pollutant\nA,B\n", apperrors.ErrCodeDecodeFailed},
		{"bad label", "code,pollutant,label\nA,B,yes\n", apperrors.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMatches(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

//Personal.AI order the ending
