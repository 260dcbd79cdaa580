package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSearch(t *testing.T) {
	cases := map[string]struct {
		in   string
		max  int
		want string
	}{
		"trims and collapses": {in: "  10k \t resistor\n0603 ", want: "10k resistor 0603"},
		"drops control chars": {in: "cap\x00acitor\x1b", want: "capacitor"},
		"rune aware cut":      {in: "µcontroller", max: 3, want: "µco"},
		"no trailing space":   {in: "ab cd", max: 3, want: "ab"},
		"empty":               {in: " \n ", want: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanSearch(tc.in, tc.max))
		})
	}
}
