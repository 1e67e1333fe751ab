package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTemplates_String(t *testing.T) {
	type S struct {
		Path string `template:""`
	}
	in := S{Path: "${BUNDLE_NAME}/data"}
	err := ExpandTemplates(&in, map[string]string{"BUNDLE_NAME": "nightly"})
	require.NoError(t, err)
	assert.Equal(t, S{Path: "nightly/data"}, in)
}

func TestExpandTemplates_PtrString(t *testing.T) {
	type S struct {
		Path *string `template:""`
	}
	s := "${BUNDLE_NAME}"
	in := S{Path: &s}
	err := ExpandTemplates(&in, map[string]string{"BUNDLE_NAME": "nightly"})
	require.NoError(t, err)
	require.NotNil(t, in.Path)
	assert.Equal(t, "nightly", *in.Path)
	assert.Equal(t, "${BUNDLE_NAME}", s, "original value must not be modified")
}

func TestExpandTemplates_PtrStringNil(t *testing.T) {
	type S struct {
		Path *string `template:""`
	}
	in := S{Path: nil}
	err := ExpandTemplates(&in, map[string]string{})
	require.NoError(t, err)
	assert.Nil(t, in.Path)
}

func TestExpandTemplates_NestedStructWithoutTagExplored(t *testing.T) {
	type Inner struct {
		Path string `template:""`
	}
	type Outer struct {
		Inner Inner
	}
	in := Outer{Inner: Inner{Path: "${X}"}}
	err := ExpandTemplates(&in, map[string]string{"X": "expanded"})
	require.NoError(t, err)
	assert.Equal(t, Outer{Inner: Inner{Path: "expanded"}}, in)
}

func TestExpandTemplates_PtrStruct(t *testing.T) {
	type Inner struct {
		Path string `template:""`
	}
	type Outer struct {
		Inner *Inner
		Empty *Inner
	}
	in := Outer{Inner: &Inner{Path: "${X}"}}
	err := ExpandTemplates(&in, map[string]string{"X": "expanded"})
	require.NoError(t, err)
	require.NotNil(t, in.Inner)
	assert.Equal(t, "expanded", in.Inner.Path)
	assert.Nil(t, in.Empty)
}

func TestExpandTemplates_UntaggedAndDashSkipped(t *testing.T) {
	type S struct {
		Plain   string
		Skipped string `template:"-"`
		Count   int
	}
	in := S{Plain: "${X}", Skipped: "${X}", Count: 42}
	err := ExpandTemplates(&in, map[string]string{"X": "y"})
	require.NoError(t, err)
	assert.Equal(t, S{Plain: "${X}", Skipped: "${X}", Count: 42}, in)
}

func TestExpandTemplates_NotAStruct(t *testing.T) {
	in := "${X}"
	err := ExpandTemplates(&in, map[string]string{"X": "y"})
	require.Error(t, err)
}

func TestExpandTemplates_MissingVariablesAccumulate(t *testing.T) {
	type S struct {
		Source string `template:""`
		Target string `template:""`
	}
	in := S{Source: "${MISSING_A}", Target: "${MISSING_B}"}
	err := ExpandTemplates(&in, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING_A")
	assert.Contains(t, err.Error(), "MISSING_B")
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		variables map[string]string
		want      string
		wantErr   string
	}{
		{
			name:  "no references",
			value: "output/backup.zip",
			want:  "output/backup.zip",
		},
		{
			name:      "braced reference",
			value:     "output/backup${BUNDLE_DATE_ISO8601}.zip",
			variables: map[string]string{"BUNDLE_DATE_ISO8601": "20240301T120000Z"},
			want:      "output/backup20240301T120000Z.zip",
		},
		{
			name:      "bare reference",
			value:     "$HOME/site",
			variables: map[string]string{"HOME": "/home/web"},
			want:      "/home/web/site",
		},
		{
			name:    "missing variable",
			value:   "${NOPE}",
			wantErr: `variable "NOPE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.value, tt.variables)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
