package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/contrib-tally/internal/domain"
)

func TestRangeArg(t *testing.T) {
	assert.Equal(t, "v1.0..v2.0", rangeArg(domain.Range{Lower: "v1.0", Upper: "v2.0"}))
	// A missing lower bound covers all history up to the upper revision.
	assert.Equal(t, "v2.0", rangeArg(domain.Range{Upper: "v2.0"}))
}

func TestParseShortlog(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []AuthorCount
		wantErr  string
	}{
		{
			name:  "typical output",
			input: "   573\tAlice Example\n    42\tBob\n     5\tdependabot[bot]\n",
			expected: []AuthorCount{
				{Count: 573, Name: "Alice Example"},
				{Count: 42, Name: "Bob"},
				{Count: 5, Name: "dependabot[bot]"},
			},
		},
		{
			name:     "empty range produces no lines",
			input:    "",
			expected: nil,
		},
		{
			name:  "names keep their exact string, spaces included",
			input: "     1\t  Weird  Name  \n",
			expected: []AuthorCount{
				{Count: 1, Name: "  Weird  Name  "},
			},
		},
		{
			name:    "line without a tab is rejected",
			input:   "573 Alice Example\n",
			wantErr: "malformed shortlog line",
		},
		{
			name:    "non-numeric count is rejected",
			input:   "many\tAlice\n",
			wantErr: "malformed shortlog count",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			counts, err := parseShortlog(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, counts)
		})
	}
}
